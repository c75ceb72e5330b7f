// Command shadec is the shade compiler CLI.
//
// Usage:
//
//	shadec compile [flags] <program.yaml>...
//	shadec run [flags] <program.yaml>
//	shadec dis <module.spv>
//	shadec version
//
// Examples:
//
//	shadec compile shader.yaml                  # SPIR-V next to the input
//	shadec compile -t spirv -t msl -o out *.yaml
//	shadec run --lanes 4 --uniform 1,0,0,1 shader.yaml
//	shadec --config shade.toml compile -j 8 shaders/*.yaml
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gogpu/shade/config"
)

const shadeVersion = "0.1.0-dev"

// errReported is returned once diagnostics have been printed, so main
// only sets the exit status.
var errReported = errors.New("errors reported")

// app holds the state shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	colorMode  string
	verbose    bool
	configPath string

	cfg  *config.Config
	log  *slog.Logger
	diag *printer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "shadec",
		Short:             "Compile shade program documents to SPIR-V, MSL and lane bytecode",
		Version:           shadeVersion,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return a.setup() },
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.colorMode, "color", "auto", "colorize output (auto|on|off)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log compile progress to stderr")
	pf.StringVar(&a.configPath, "config", "", "TOML configuration file")

	root.AddCommand(a.compileCommand())
	root.AddCommand(a.runCommand())
	root.AddCommand(a.disCommand())
	root.AddCommand(a.versionCommand())
	return root
}

// setup resolves the global flags before any subcommand runs.
func (a *app) setup() error {
	colorize, err := colorEnabled(a.colorMode, a.stderr)
	if err != nil {
		return err
	}
	a.diag = newPrinter(a.stderr, colorize)

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	if a.configPath == "" {
		a.cfg = config.Default()
		return nil
	}
	a.cfg, err = config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.log.Debug("configuration loaded", "path", a.configPath)
	return nil
}

// colorEnabled decides whether diagnostics written to w are colored.
func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		f, ok := w.(*os.File)
		return ok && isTerminal(f), nil
	}
	return false, fmt.Errorf("invalid --color %q, want auto, on or off", mode)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.rootCommand().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "shadec:", err)
		}
		os.Exit(1)
	}
}
