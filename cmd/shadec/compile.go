package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/shade"
)

type compileFlags struct {
	targets []string
	outDir  string
	jobs    int
}

func (a *app) compileCommand() *cobra.Command {
	var f compileFlags
	cmd := &cobra.Command{
		Use:   "compile <program.yaml>...",
		Short: "Compile program documents for one or more targets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("target") {
				f.targets = a.cfg.Targets
			}
			if !cmd.Flags().Changed("out-dir") {
				f.outDir = a.cfg.OutputDir
			}
			if !cmd.Flags().Changed("jobs") && a.cfg.Jobs > 0 {
				f.jobs = a.cfg.Jobs
			}
			return a.compile(cmd.Context(), args, f)
		},
	}
	cmd.Flags().StringSliceVarP(&f.targets, "target", "t", nil, "output targets (spirv, msl, lanes)")
	cmd.Flags().StringVarP(&f.outDir, "out-dir", "o", "", "output directory (default: next to each input)")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "files compiled in parallel")
	return cmd
}

// fileResult is the outcome of compiling one input.
type fileResult struct {
	Path    string
	Written []string
	Sizes   []int
	Err     error
}

func (a *app) compile(ctx context.Context, files []string, f compileFlags) error {
	targets := make([]shade.Target, 0, len(f.targets))
	for _, name := range f.targets {
		t, err := shade.ParseTarget(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets selected")
	}
	options, err := a.cfg.Options()
	if err != nil {
		return err
	}
	options.Logger = a.log

	if f.outDir != "" {
		if err := os.MkdirAll(f.outDir, 0o755); err != nil {
			return err
		}
	}
	results, err := compileFiles(ctx, files, targets, options, f.outDir, f.jobs)
	if err != nil {
		return err
	}
	failed := false
	for _, r := range results {
		if r.Err != nil {
			a.diag.report(r.Path, r.Err)
			failed = true
			continue
		}
		for i, path := range r.Written {
			a.diag.wrote(path, r.Sizes[i])
		}
	}
	if failed {
		return errReported
	}
	return nil
}

// compileFiles compiles every file concurrently, at most jobs at a time.
// A failing file does not stop the others; its error is kept in its
// result. Results are in input order.
func compileFiles(ctx context.Context, files []string, targets []shade.Target, options shade.Options, outDir string, jobs int) ([]fileResult, error) {
	if jobs <= 0 {
		jobs = 1
	}
	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fileOptions := options
			if options.Logger != nil {
				fileOptions.Logger = options.Logger.With("file", path)
			}
			results[i] = compileFile(path, targets, fileOptions, outDir)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func compileFile(path string, targets []shade.Target, options shade.Options, outDir string) fileResult {
	r := fileResult{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		r.Err = err
		return r
	}
	outs, err := shade.CompileDocument(data, targets, options)
	if err != nil {
		r.Err = err
		return r
	}
	for _, out := range outs {
		encoded, err := out.Bytes()
		if err != nil {
			r.Err = err
			return r
		}
		dst := outputPath(path, outDir, out.Target)
		if err := os.WriteFile(dst, encoded, 0o644); err != nil {
			r.Err = err
			return r
		}
		r.Written = append(r.Written, dst)
		r.Sizes = append(r.Sizes, len(encoded))
	}
	return r
}

// outputPath replaces the extension of input with the target's and moves
// it into dir when dir is set.
func outputPath(input, dir string, target shade.Target) string {
	base := strings.TrimSuffix(input, filepath.Ext(input)) + target.Extension()
	if dir == "" {
		return base
	}
	return filepath.Join(dir, filepath.Base(base))
}
