package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/shade"
	"github.com/gogpu/shade/lanes"
)

type runFlags struct {
	lanes     int
	uniforms  string
	inputs    []string
	child     string
	trace     bool
	traceLane int
}

func (a *app) runCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run <program.yaml>",
		Short: "Compile a program to lane bytecode and run it on the CPU",
		Long: `Run compiles a program for the lanes target and executes it with the
reference interpreter. Values are comma separated; a plain number is a
float, a suffix i or u makes it an int or uint, and true/false are masks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(args[0], f)
		},
	}
	cmd.Flags().IntVar(&f.lanes, "lanes", 1, "invocations executed together")
	cmd.Flags().StringVar(&f.uniforms, "uniform", "", "uniform words in binding order")
	cmd.Flags().StringArrayVar(&f.inputs, "input", nil, "one input slot per flag, one value per lane or a single broadcast value")
	cmd.Flags().StringVar(&f.child, "child", "0,0,0,1", "color returned by every child call")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "print the trace of one lane")
	cmd.Flags().IntVar(&f.traceLane, "trace-lane", 0, "lane traced with --trace")
	return cmd
}

func (a *app) run(path string, f runFlags) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	options, err := a.cfg.Options()
	if err != nil {
		return err
	}
	options.Logger = a.log
	options.Lanes.Trace = options.Lanes.Trace || f.trace

	outs, err := shade.CompileDocument(data, []shade.Target{shade.TargetLanes}, options)
	if err != nil {
		a.diag.report(path, err)
		return errReported
	}
	prog := outs[0].Lanes

	run := lanes.RunOptions{Lanes: f.lanes, Trace: f.trace, TraceLane: f.traceLane}
	if run.Uniforms, err = parseWords(f.uniforms); err != nil {
		return fmt.Errorf("--uniform: %w", err)
	}
	for _, in := range f.inputs {
		words, err := parseWords(in)
		if err != nil {
			return fmt.Errorf("--input: %w", err)
		}
		run.Inputs = append(run.Inputs, words)
	}
	child, err := parseColor(f.child)
	if err != nil {
		return fmt.Errorf("--child: %w", err)
	}
	run.Child = func(int, int, []float32) [4]float32 { return child }

	res, err := prog.Run(run)
	if err != nil {
		return err
	}
	return writeResult(a.stdout, prog, res, max(f.lanes, 1))
}

// parseWords reads a comma separated list of slot values.
func parseWords(s string) ([]uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint32, len(parts))
	for i, p := range parts {
		w, err := parseWord(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func parseWord(s string) (uint32, error) {
	switch {
	case s == "true":
		return math.MaxUint32, nil
	case s == "false":
		return 0, nil
	case strings.HasSuffix(s, "u"):
		v, err := strconv.ParseUint(strings.TrimSuffix(s, "u"), 0, 32)
		return uint32(v), err
	case strings.HasSuffix(s, "i"):
		v, err := strconv.ParseInt(strings.TrimSuffix(s, "i"), 0, 32)
		return uint32(int32(v)), err
	}
	v, err := strconv.ParseFloat(s, 32)
	return math.Float32bits(float32(v)), err
}

func parseColor(s string) ([4]float32, error) {
	var c [4]float32
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return c, fmt.Errorf("want four components, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return c, err
		}
		c[i] = float32(v)
	}
	return c, nil
}

// writeResult prints the color of each lane, then the trace.
func writeResult(w io.Writer, prog *lanes.Program, res *lanes.RunResult, n int) error {
	for l := range n {
		comps := make([]string, len(res.Result))
		for c := range res.Result {
			comps[c] = strconv.FormatFloat(float64(res.Float(c, l)), 'g', -1, 32)
		}
		if _, err := fmt.Fprintf(w, "lane %d: %s\n", l, strings.Join(comps, " ")); err != nil {
			return err
		}
	}
	for _, ev := range res.Trace {
		if _, err := fmt.Fprintf(w, "  %s\n", ev.Format(prog)); err != nil {
			return err
		}
	}
	return nil
}
