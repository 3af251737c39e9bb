package polyfill

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall-dev/moonfall/parser"
)

const testGlobals = `local bit = {}

function bit.band(a, b)
	return a & b
end

return {
	band = bit.band,
	bor = function(a, b) return a | b end,
	["utf8"] = true,
	[computed] = 1,
	2,
	band = bit.band,
}
`

// writeRepo lays out a minimal polyfill repository on disk.
func writeRepo(t *testing.T, manifest string) *Repository {
	t.Helper()
	t.Setenv("MOONFALL_CACHE_DIR", t.TempDir())

	repo, err := OpenRepository("https://example.com/polyfill.git")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(repo.Dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(repo.Dir, ManifestName), []byte(manifest), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(repo.Dir, "src", "globals.luau"), []byte(testGlobals), 0644))
	return repo
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	src := `globals = "src/globals.luau"
removes = ["utf8"]
target_version = "5.3"

[config]
bor = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(src), 0644))

	m, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "src/globals.luau", m.Globals)
	assert.Equal(t, []string{"utf8"}, m.Removes)
	assert.Equal(t, "5.3", m.TargetVersion)
	assert.Equal(t, map[string]bool{"bor": false}, m.Config)
	assert.Equal(t, filepath.Join(dir, "src", "globals.luau"), m.GlobalsPath(dir))
}

func TestReadManifestMissingGlobals(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte("removes = []\n"), 0644))
	_, err := ReadManifest(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"globals"`)
}

func TestReadManifestMissingFile(t *testing.T) {
	_, err := ReadManifest(t.TempDir())
	assert.Error(t, err)
}

func TestExports(t *testing.T) {
	chunk, err := parser.Parse("globals.luau", testGlobals)
	require.NoError(t, err)

	names, err := Exports(chunk)
	require.NoError(t, err)
	// Field and quoted-string keys count once each, in declaration order;
	// computed keys and positional entries do not export anything.
	assert.Equal(t, []string{"band", "bor", "utf8"}, names)
}

func TestExportsRejectsNonTableReturn(t *testing.T) {
	for _, src := range []string{
		"local x = 1",
		"return f()",
		"return {}, {}",
	} {
		chunk, err := parser.Parse("globals.luau", src)
		require.NoError(t, err)
		_, err = Exports(chunk)
		assert.Error(t, err, "src: %s", src)
	}
}

func TestCacheIdentStableAcrossSpellings(t *testing.T) {
	t.Setenv("MOONFALL_CACHE_DIR", t.TempDir())

	a, err := OpenRepository("https://Example.com/Repo.git?ref=main")
	require.NoError(t, err)
	b, err := OpenRepository("https://example.com/repo.git")
	require.NoError(t, err)
	assert.Equal(t, a.Dir, b.Dir)

	name := filepath.Base(a.Dir)
	assert.True(t, strings.HasPrefix(name, "example.com-"), name)

	local, err := OpenRepository("/srv/polyfills/base")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(local.Dir), "local-"))
	assert.NotEqual(t, a.Dir, local.Dir)
}

func TestCacheRootHonorsOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MOONFALL_CACHE_DIR", dir)
	root, err := CacheRoot()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "polyfills"), root)
}

func TestResolveTrustsExistingCache(t *testing.T) {
	repo := writeRepo(t, "globals = \"src/globals.luau\"\n")

	// The directory exists, so Resolve must not attempt a clone.
	got, err := Resolve(repo.Locator)
	require.NoError(t, err)
	assert.Equal(t, repo.Dir, got.Dir)
}

func TestLoadDir(t *testing.T) {
	repo := writeRepo(t, `globals = "src/globals.luau"
removes = ["utf8"]
`)
	d, err := LoadDir(repo)
	require.NoError(t, err)
	assert.Equal(t, []string{"band", "bor", "utf8"}, d.Exports)
	assert.True(t, d.HasExport("band"))
	assert.False(t, d.HasExport("missing"))
	assert.Equal(t, filepath.Join(repo.Dir, "src", "globals.luau"), d.GlobalsPath())
}

func TestLoadDirRejectsUnknownRemove(t *testing.T) {
	repo := writeRepo(t, `globals = "src/globals.luau"
removes = ["nope"]
`)
	_, err := LoadDir(repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `removes unknown export "nope"`)
}

func TestEnabledExports(t *testing.T) {
	repo := writeRepo(t, `globals = "src/globals.luau"

[config]
bor = false
`)
	d, err := LoadDir(repo)
	require.NoError(t, err)

	// Manifest defaults alone.
	names, err := d.EnabledExports(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"band", "utf8"}, names)

	// A user override can disable but never re-enable.
	names, err = d.EnabledExports(map[string]bool{"utf8": false, "bor": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"band"}, names)

	_, err = d.EnabledExports(map[string]bool{"ghost": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown polyfill export "ghost"`)
}

func TestClean(t *testing.T) {
	repo := writeRepo(t, "globals = \"src/globals.luau\"\n")

	require.NoError(t, Clean(repo.Locator))
	_, err := os.Stat(repo.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanAll(t *testing.T) {
	repo := writeRepo(t, "globals = \"src/globals.luau\"\n")

	require.NoError(t, CleanAll())
	root, err := CacheRoot()
	require.NoError(t, err)
	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(repo.Dir)
	assert.True(t, os.IsNotExist(err))
}
