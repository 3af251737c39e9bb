package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moonfall-dev/moonfall/ast"
)

// ResolveRequirePathsName identifies the require path resolution rule.
const ResolveRequirePathsName = "resolve_require_paths"

// ResolveRequirePaths rewrites Luau string requires into the dotted
// module form the target runtime's loader expects. Three prefixes are
// recognized: "./" and "../" resolve against the requiring file's
// directory, "@self" against the enclosing directory module, and any
// other "@name" against the configured aliases. Requires that use none
// of these prefixes, take more than one argument, or pass a non-literal
// argument are left untouched.
//
// A resolved path must name an existing module file under the source
// root (or the project root); anything else is an error attributed to
// the file being rewritten.
type ResolveRequirePaths struct{}

func (ResolveRequirePaths) RuleName() string { return ResolveRequirePathsName }

func (ResolveRequirePaths) Apply(block *ast.Block, ctx *Context) error {
	r := &requireResolver{ctx: ctx}
	ast.MutateBlock(block, r)
	return errors.Join(r.errs...)
}

type requireResolver struct {
	ast.NopMutator
	ctx  *Context
	errs []error
}

func (r *requireResolver) MutateExpr(e ast.Expr) ast.Expr {
	call, ok := e.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return e
	}
	fn, ok := call.Func.(*ast.IdentExpr)
	if !ok || fn.Name != "require" {
		return e
	}
	arg, ok := call.Args[0].(*ast.StringExpr)
	if !ok {
		return e
	}

	module, err := r.resolve(arg.Value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: require %q: %w", r.ctx.FilePath, arg.Value, err))
		return e
	}
	if module != "" {
		arg.Value = module
	}
	return e
}

// resolve maps a require spec to a dotted module path, or returns ""
// when the spec uses no recognized prefix and should pass through.
func (r *requireResolver) resolve(spec string) (string, error) {
	var base, rest string
	switch {
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || spec == "." || spec == "..":
		base = filepath.Dir(r.absFile())
		rest = spec
	case strings.HasPrefix(spec, "@"):
		head, tail, _ := strings.Cut(spec, "/")
		dir, err := r.resolvePrefix(head)
		if err != nil {
			return "", err
		}
		base = dir
		rest = tail
		if rest == "" {
			rest = "init"
		}
	default:
		return "", nil
	}

	target := filepath.Join(base, filepath.FromSlash(rest))
	found, err := findModuleFile(target)
	if err != nil {
		return "", err
	}
	return r.toModuleIdent(found)
}

func (r *requireResolver) absFile() string {
	abs, err := filepath.Abs(r.ctx.FilePath)
	if err != nil {
		return r.ctx.FilePath
	}
	return abs
}

// resolvePrefix maps an "@name" prefix to a directory. "@self" is the
// nearest enclosing directory module (the first ancestor of the file,
// up to the project root, that contains an init file); other names are
// looked up in the alias table, first match wins.
func (r *requireResolver) resolvePrefix(head string) (string, error) {
	name := strings.TrimPrefix(head, "@")
	if name == "self" {
		return r.selfDir(), nil
	}
	for _, alias := range r.ctx.Aliases {
		if alias.Prefix == name {
			dir := alias.Dir
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(r.ctx.ProjectRoot, dir)
			}
			return dir, nil
		}
	}
	return "", fmt.Errorf("unknown alias %q", head)
}

func (r *requireResolver) selfDir() string {
	dir := filepath.Dir(r.absFile())
	for {
		if hasInitFile(dir) {
			return dir
		}
		if sameFile(dir, r.ctx.ProjectRoot) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Dir(r.absFile())
		}
		dir = parent
	}
}

func hasInitFile(dir string) bool {
	for _, name := range []string{"init.luau", "init.lua"} {
		if isRegularFile(filepath.Join(dir, name)) {
			return true
		}
	}
	return false
}

func sameFile(a, b string) bool {
	aa, errA := filepath.Abs(a)
	bb, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return aa == bb
}

// findModuleFile locates the file a resolved path refers to, trying the
// path itself, the known extensions, and directory init files.
func findModuleFile(target string) (string, error) {
	candidates := []string{
		target,
		target + ".luau",
		target + ".lua",
		filepath.Join(target, "init.luau"),
		filepath.Join(target, "init.lua"),
	}
	for _, c := range candidates {
		if isRegularFile(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("no module found at %s", target)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// toModuleIdent converts a module file path into the dotted identifier
// the target loader resolves. The path is made relative to the source
// root when it lies under it, otherwise to the project root. Dots in
// intermediate directory names are escaped so they cannot be mistaken
// for path separators; the first segment and the file name keep theirs.
func (r *requireResolver) toModuleIdent(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	rel := ""
	if r.ctx.SourceRoot != "" {
		if cand, err := filepath.Rel(r.ctx.SourceRoot, abs); err == nil && !strings.HasPrefix(cand, "..") {
			rel = cand
		}
	}
	if rel == "" {
		cand, err := filepath.Rel(r.ctx.ProjectRoot, abs)
		if err != nil || strings.HasPrefix(cand, "..") {
			return "", fmt.Errorf("module %s is outside the project root", path)
		}
		rel = cand
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	last := len(segments) - 1
	segments[last] = strings.TrimSuffix(strings.TrimSuffix(segments[last], ".luau"), ".lua")
	for i := 1; i < last; i++ {
		segments[i] = strings.ReplaceAll(segments[i], ".", "__")
	}
	return strings.Join(segments, "."), nil
}
