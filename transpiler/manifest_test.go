package transpiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestReadManifestDefaults(t *testing.T) {
	m, err := ReadManifest(writeManifest(t, "input = \"src\"\noutput = \"dist\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "lua", m.FileExtension)
	assert.Equal(t, "5.3", m.TargetVersion)
	assert.False(t, m.Minify)
	assert.Nil(t, m.Polyfill)
}

func TestReadManifestFull(t *testing.T) {
	src := `input = "src"
output = "out"
file_extension = "lc"
minify = true

[rules]
convert_bit32 = false

[aliases]
pkg = "libs"

[polyfill]
repository = "https://example.com/shims.git"

[polyfill.globals]
utf8 = false
`
	m, err := ReadManifest(writeManifest(t, src))
	require.NoError(t, err)
	assert.Equal(t, "lc", m.FileExtension)
	assert.True(t, m.Minify)
	assert.Equal(t, map[string]bool{"convert_bit32": false}, m.Rules)
	assert.Equal(t, map[string]string{"pkg": "libs"}, m.Aliases)
	require.NotNil(t, m.Polyfill)
	assert.Equal(t, "https://example.com/shims.git", m.Polyfill.Repository)
	assert.Equal(t, map[string]bool{"utf8": false}, m.Polyfill.Globals)
	assert.Equal(t, DefaultInjectionPath, m.Polyfill.InjectionPath)
}

func TestReadManifestValidation(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"output = \"dist\"\n", `"input"`},
		{"input = \"src\"\n", `"output"`},
		{"input = \"src\"\noutput = \"dist\"\n[polyfill]\ninjection_path = \"p\"\n", `"repository"`},
	}
	for _, tt := range tests {
		_, err := ReadManifest(writeManifest(t, tt.src))
		require.Error(t, err, tt.src)
		assert.Contains(t, err.Error(), tt.want)
	}
}

func TestReadManifestBadToml(t *testing.T) {
	_, err := ReadManifest(writeManifest(t, "input = [broken\n"))
	assert.Error(t, err)
}

func TestWriteDefaultManifest(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDefaultManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ManifestName), path)

	// The generated file must itself pass validation.
	m, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "src", m.Input)
	assert.Equal(t, "dist", m.Output)

	_, err = WriteDefaultManifest(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}
