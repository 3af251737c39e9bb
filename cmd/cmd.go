// Package cmd wires the moonfall CLI: build, init, fetch, and clean.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/moonfall-dev/moonfall/polyfill"
	"github.com/moonfall-dev/moonfall/transpiler"
)

// Execute runs the moonfall CLI with the given version string.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "moonfall",
		Usage:                  "Transpile Luau sources to plain Lua",
		Version:                version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "Transpile the project described by its manifest",
				ArgsUsage: "[project-dir]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "manifest",
						Aliases: []string{"m"},
						Usage:   "Path to the project manifest",
					},
					&cli.IntFlag{
						Name:    "jobs",
						Aliases: []string{"j"},
						Usage:   "Parallel file workers (default: one per CPU)",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print per-file progress",
					},
					&cli.BoolFlag{
						Name:    "no-color",
						Aliases: []string{"C"},
						Usage:   "Disable ANSI color output",
					},
				},
				Action: buildAction,
			},
			{
				Name:      "init",
				Usage:     "Write a default manifest into a directory",
				ArgsUsage: "[project-dir]",
				Action:    initAction,
			},
			{
				Name:      "fetch",
				Usage:     "Update the cached polyfill repository",
				ArgsUsage: "[repository]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "manifest",
						Aliases: []string{"m"},
						Usage:   "Path to the project manifest",
					},
				},
				Action: fetchAction,
			},
			{
				Name:      "clean",
				Usage:     "Remove cached polyfill repositories",
				ArgsUsage: "[repository]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "all",
						Aliases: []string{"a"},
						Usage:   "Remove every cached repository",
					},
					&cli.StringFlag{
						Name:    "manifest",
						Aliases: []string{"m"},
						Usage:   "Path to the project manifest",
					},
				},
				Action: cleanAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// manifestPath locates the manifest from the --manifest flag or the
// optional project directory argument, defaulting to the working
// directory.
func manifestPath(cmd *cli.Command) string {
	if path := cmd.String("manifest"); path != "" {
		return path
	}
	dir := "."
	if cmd.NArg() > 0 {
		dir = cmd.Args().First()
	}
	return filepath.Join(dir, transpiler.ManifestName)
}

func buildAction(ctx context.Context, cmd *cli.Command) error {
	path := manifestPath(cmd)
	manifest, err := transpiler.ReadManifest(path)
	if err != nil {
		return err
	}

	engine, err := transpiler.New(manifest, filepath.Dir(path))
	if err != nil {
		return err
	}
	engine.Workers = int(cmd.Int("jobs"))
	if cmd.Bool("verbose") {
		engine.Log = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	result, err := engine.Run()
	if err != nil {
		return err
	}

	if result.Failed() {
		red, reset := colorCodes(cmd.Bool("no-color"))
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "%serror:%s %v\n", red, reset, e)
		}
		return fmt.Errorf("%d of %d files failed", len(result.Errors), len(result.Errors)+len(result.OutputFiles))
	}
	fmt.Fprintf(os.Stderr, "wrote %d files\n", len(result.OutputFiles))
	return nil
}

// colorCodes returns the error color escapes, empty when color is
// disabled by flag, NO_COLOR, or a non-terminal stderr.
func colorCodes(noColorFlag bool) (string, string) {
	if noColorFlag || os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stderr.Fd())) {
		return "", ""
	}
	return "\033[31m", "\033[0m"
}

func initAction(ctx context.Context, cmd *cli.Command) error {
	dir := "."
	if cmd.NArg() > 0 {
		dir = cmd.Args().First()
	}
	path, err := transpiler.WriteDefaultManifest(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	return nil
}

// repositoryLocator resolves the repository argument for fetch/clean:
// an explicit argument wins, otherwise the manifest's polyfill section.
func repositoryLocator(cmd *cli.Command) (string, error) {
	if cmd.NArg() > 0 {
		return cmd.Args().First(), nil
	}
	manifest, err := transpiler.ReadManifest(manifestPath(cmd))
	if err != nil {
		return "", err
	}
	if manifest.Polyfill == nil {
		return "", fmt.Errorf("manifest has no [polyfill] section")
	}
	return manifest.Polyfill.Repository, nil
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	locator, err := repositoryLocator(cmd)
	if err != nil {
		return err
	}
	repo, err := polyfill.OpenRepository(locator)
	if err != nil {
		return err
	}
	if err := repo.Fetch(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "updated %s\n", repo.Dir)
	return nil
}

func cleanAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("all") {
		return polyfill.CleanAll()
	}
	locator, err := repositoryLocator(cmd)
	if err != nil {
		return err
	}
	return polyfill.Clean(locator)
}
