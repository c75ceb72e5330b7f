// Command spvdis disassembles SPIR-V modules into .spvasm-style text.
//
// Usage:
//
//	spvdis [options] <file.spv>
//
// Examples:
//
//	spvdis shader.spv               # Disassemble to stdout
//	spvdis -o shader.spvasm shader.spv
//	spvdis -stats shader.spv        # Count instructions per opcode
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/gogpu/shade/spirv"
)

var (
	output = flag.String("o", "", "output file (default: stdout)")
	stats  = flag.Bool("stats", false, "print opcode counts instead of the listing")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one input file")
		usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m, err := spirv.DecodeBytes(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", args[0], err)
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if *stats {
		err = writeStats(w, m)
	} else {
		_, err = io.WriteString(w, spirv.Disassemble(m))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

// writeStats prints one line per opcode, most frequent first.
func writeStats(w io.Writer, m *spirv.Module) error {
	counts := make(map[spirv.OpCode]int)
	for _, inst := range m.Instructions {
		counts[inst.Opcode]++
	}
	ops := make([]spirv.OpCode, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if counts[ops[i]] != counts[ops[j]] {
			return counts[ops[i]] > counts[ops[j]]
		}
		return ops[i] < ops[j]
	})
	if _, err := fmt.Fprintf(w, "; %d instructions, bound %d\n", len(m.Instructions), m.Header.Bound); err != nil {
		return err
	}
	for _, op := range ops {
		if _, err := fmt.Fprintf(w, "%6d %s\n", counts[op], op); err != nil {
			return err
		}
	}
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: spvdis [options] <file.spv>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}
