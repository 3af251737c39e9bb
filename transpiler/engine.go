package transpiler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/moonfall-dev/moonfall/ast"
	"github.com/moonfall-dev/moonfall/injector"
	"github.com/moonfall-dev/moonfall/parser"
	"github.com/moonfall-dev/moonfall/polyfill"
	"github.com/moonfall-dev/moonfall/rules"
)

const parseCacheSize = 256

// Engine runs one build: every source file through the rule pipeline,
// with optional polyfill compilation and injection.
type Engine struct {
	manifest *Manifest
	root     string

	// Workers caps the worker pool; zero means one worker per CPU.
	Workers int
	// Log receives progress lines; nil silences them.
	Log func(format string, args ...any)

	cache        *parser.Cache
	polyfillDesc *polyfill.Descriptor
}

// New creates an engine for a manifest rooted at the given project
// directory.
func New(manifest *Manifest, root string) (*Engine, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	cache, err := parser.NewCache(parseCacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{manifest: manifest, root: abs, cache: cache}, nil
}

// Result is what one build produced. Errors holds the accumulated
// file-local failures; the build failed when it is non-empty.
type Result struct {
	OutputFiles []string
	UsedExports []string
	Errors      []error
}

// Failed reports whether any file errored.
func (r *Result) Failed() bool { return len(r.Errors) > 0 }

// buildSetup is everything resolved once up front and shared read-only
// by the workers.
type buildSetup struct {
	pipeline   *rules.Pipeline
	inputRoot  string
	outputRoot string
	sourceRoot string
	aliases    []rules.Alias
	singleFile bool

	collector *injector.Collector
	injector  *injector.Injector
}

// Run executes the build. The returned error is reserved for run-fatal
// conditions (configuration, polyfill resolution, export mismatch);
// per-file failures land in Result.Errors instead.
func (e *Engine) Run() (*Result, error) {
	setup, err := e.prepare()
	if err != nil {
		return nil, err
	}

	files, err := e.discoverFiles(setup)
	if err != nil {
		return nil, err
	}

	// The polyfill module is compiled exactly once, before any worker
	// runs: injection depends on its compiled form existing on disk.
	if e.manifest.Polyfill != nil {
		if err := e.compilePolyfill(setup); err != nil {
			return nil, err
		}
	}

	result := &Result{}
	usedSet := make(map[string]bool)
	var mu sync.Mutex

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < e.workerCount(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				out, used, err := e.processFile(setup, path)
				mu.Lock()
				if err != nil {
					result.Errors = append(result.Errors, err)
				} else {
					result.OutputFiles = append(result.OutputFiles, out)
					for _, name := range used {
						usedSet[name] = true
					}
				}
				mu.Unlock()
			}
		}()
	}
	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	sort.Strings(result.OutputFiles)
	for name := range usedSet {
		result.UsedExports = append(result.UsedExports, name)
	}
	sort.Strings(result.UsedExports)
	return result, nil
}

func (e *Engine) workerCount() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.NumCPU()
}

func (e *Engine) logf(format string, args ...any) {
	if e.Log != nil {
		e.Log(format, args...)
	}
}

func (e *Engine) prepare() (*buildSetup, error) {
	overrides := make([]rules.Override, 0, len(e.manifest.Rules))
	names := make([]string, 0, len(e.manifest.Rules))
	for name := range e.manifest.Rules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		overrides = append(overrides, rules.Override{Name: name, Enabled: e.manifest.Rules[name]})
	}
	pipeline, err := rules.BuildPipeline(overrides, e.manifest.Minify)
	if err != nil {
		return nil, err
	}

	inputRoot := e.absPath(e.manifest.Input)
	info, err := os.Stat(inputRoot)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", e.manifest.Input, err)
	}

	setup := &buildSetup{
		pipeline:   pipeline,
		inputRoot:  inputRoot,
		outputRoot: e.absPath(e.manifest.Output),
		singleFile: !info.IsDir(),
	}

	switch {
	case e.manifest.SourceRoot != "":
		setup.sourceRoot = e.absPath(e.manifest.SourceRoot)
	case info.IsDir():
		setup.sourceRoot = inputRoot
	default:
		setup.sourceRoot = e.root
	}

	prefixes := make([]string, 0, len(e.manifest.Aliases))
	for prefix := range e.manifest.Aliases {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		setup.aliases = append(setup.aliases, rules.Alias{Prefix: prefix, Dir: e.manifest.Aliases[prefix]})
	}

	if e.manifest.Polyfill != nil {
		if err := e.preparePolyfill(setup); err != nil {
			return nil, err
		}
	}
	return setup, nil
}

func (e *Engine) preparePolyfill(setup *buildSetup) error {
	section := e.manifest.Polyfill
	e.logf("resolving polyfill %s", section.Repository)
	desc, err := polyfill.Load(section.Repository)
	if err != nil {
		return err
	}
	enabled, err := desc.EnabledExports(section.Globals)
	if err != nil {
		return err
	}
	setup.collector = injector.NewCollector(enabled)
	setup.injector = &injector.Injector{
		ModulePath: section.InjectionPath,
		Removes:    desc.Manifest.Removes,
	}
	e.polyfillDesc = desc
	return nil
}

func (e *Engine) absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.root, p)
}

func (e *Engine) discoverFiles(setup *buildSetup) ([]string, error) {
	if setup.singleFile {
		return []string{setup.inputRoot}, nil
	}
	var files []string
	err := filepath.WalkDir(setup.inputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", setup.inputRoot, err)
	}
	sort.Strings(files)
	return files, nil
}

func isSourceFile(path string) bool {
	return strings.HasSuffix(path, ".luau") || strings.HasSuffix(path, ".lua")
}

// compilePolyfill transpiles the polyfill's globals module through the
// same pipeline and writes it where the injection path says consuming
// files will require it.
func (e *Engine) compilePolyfill(setup *buildSetup) error {
	desc := e.polyfillDesc
	globalsPath := desc.GlobalsPath()
	src, err := os.ReadFile(globalsPath)
	if err != nil {
		return fmt.Errorf("polyfill globals: %w", err)
	}

	ctx := &rules.Context{
		FilePath:    globalsPath,
		ProjectRoot: desc.Repository.Dir,
		SourceRoot:  desc.Repository.Dir,
	}
	text, err := e.transform(setup, ctx, globalsPath, string(src))
	if err != nil {
		return fmt.Errorf("compiling polyfill: %w", err)
	}

	out := e.polyfillOutputPath(setup)
	if err := writeOutput(out, text); err != nil {
		return err
	}
	e.logf("compiled polyfill to %s", out)
	return nil
}

// polyfillOutputPath maps the dotted injection path onto the output
// tree, one directory per segment.
func (e *Engine) polyfillOutputPath(setup *buildSetup) string {
	rel := strings.ReplaceAll(e.manifest.Polyfill.InjectionPath, ".", string(filepath.Separator))
	return filepath.Join(setup.outputRoot, rel+"."+e.manifest.FileExtension)
}

// processFile runs one source file through parse, rules, print, and
// (when a polyfill is configured) the collect-and-inject pass. Nothing
// is written when any step fails.
func (e *Engine) processFile(setup *buildSetup, path string) (string, []string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}

	ctx := &rules.Context{
		FilePath:    path,
		ProjectRoot: e.root,
		SourceRoot:  setup.sourceRoot,
		Aliases:     setup.aliases,
	}
	text, err := e.transform(setup, ctx, path, string(src))
	if err != nil {
		return "", nil, err
	}

	var used []string
	if setup.collector != nil {
		// Re-parse the rewritten text: rules add and remove identifier
		// references, so the original tree cannot answer what the output
		// uses.
		rechunk, err := e.cache.Parse(path, text)
		if err != nil {
			return "", nil, fmt.Errorf("%s: re-parsing output: %w", path, err)
		}
		used = setup.collector.Collect(rechunk)
		text = setup.injector.Inject(text, used)
	}

	out := e.outputPath(setup, path)
	if err := writeOutput(out, text); err != nil {
		return "", nil, err
	}
	e.logf("wrote %s", out)
	return out, used, nil
}

// transform applies the rule pipeline to one source text and serializes
// the result.
func (e *Engine) transform(setup *buildSetup, ctx *rules.Context, path, src string) (string, error) {
	chunk, err := e.cache.ParseOnce(path, src)
	if err != nil {
		return "", err
	}
	for _, rule := range setup.pipeline.Tree {
		if err := rule.Apply(chunk.Body, ctx); err != nil {
			return "", err
		}
	}
	for _, rule := range setup.pipeline.Visitor {
		ast.MutateBlock(chunk.Body, rule.NewMutator(ctx))
	}
	printer := &ast.Printer{Minify: e.manifest.Minify}
	return printer.Print(chunk), nil
}

func (e *Engine) outputPath(setup *buildSetup, path string) string {
	rel := filepath.Base(path)
	if !setup.singleFile {
		if r, err := filepath.Rel(setup.inputRoot, path); err == nil {
			rel = r
		}
	}
	rel = strings.TrimSuffix(strings.TrimSuffix(rel, ".luau"), ".lua")
	return filepath.Join(setup.outputRoot, rel+"."+e.manifest.FileExtension)
}

func writeOutput(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
