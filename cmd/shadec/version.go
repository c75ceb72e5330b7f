package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gogpu/shade"
)

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the compiler version and targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := color.New(color.FgYellow, color.Bold)
			if a.diag != nil && a.diag.colorize {
				v.EnableColor()
			} else {
				v.DisableColor()
			}
			var targets []string
			for _, t := range shade.Targets() {
				targets = append(targets, t.String())
			}
			_, err := fmt.Fprintf(a.stdout, "shadec version %s (%s)\ntargets: %s\n",
				v.Sprint(shadeVersion), runtime.Version(), strings.Join(targets, ", "))
			return err
		},
	}
}
