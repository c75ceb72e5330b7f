package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/shade/lanes"
	"github.com/gogpu/shade/spirv"
)

func (a *app) disCommand() *cobra.Command {
	var lane bool
	cmd := &cobra.Command{
		Use:   "dis <module.spv|program.lanes>",
		Short: "Disassemble a SPIR-V module or a lane program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if lane {
				return disassembleLanes(a.stdout, data)
			}
			m, err := spirv.DecodeBytes(data)
			if err != nil {
				a.diag.report(args[0], err)
				return errReported
			}
			_, err = io.WriteString(a.stdout, spirv.Disassemble(m))
			return err
		},
	}
	cmd.Flags().BoolVar(&lane, "lanes", false, "input is a lane program written by compile -t lanes")
	return cmd
}

func disassembleLanes(w io.Writer, data []byte) error {
	var p lanes.Program
	if err := p.UnmarshalBinary(data); err != nil {
		return err
	}
	return p.Dump(w)
}
