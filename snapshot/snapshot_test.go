// Package snapshot_test provides golden snapshot tests for every shade
// backend.
//
// For each program document in testdata/in/, the test compiles through all
// three targets (SPIR-V, MSL, lanes), checks that the output is stable
// across runs and survives a decode round trip, runs the lane program
// against the expected colors in expectations, and compares it with the
// golden files stored in testdata/golden/{spv,msl,lanes}/ when present.
//
// To regenerate golden files after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shade"
	"github.com/gogpu/shade/lanes"
	"github.com/gogpu/shade/spirv"
)

// ---------------------------------------------------------------------------
// Test Runner
// ---------------------------------------------------------------------------

// programFile is an input document loaded from disk.
type programFile struct {
	name   string // base name without extension (e.g., "loop_call")
	source []byte
}

// expectation is what every program in testdata/in/ must produce,
// independent of its golden files.
type expectation struct {
	opcodes []spirv.OpCode // present in the SPIR-V module
	msl     []string       // substrings of the Metal source
	runs    []laneRun
}

// laneRun evaluates the lane program for one set of uniform words.
type laneRun struct {
	uniforms []uint32
	want     []float32
}

func uniformWords(floats []float32, ints ...uint32) []uint32 {
	return append(lanes.FloatBits(floats...), ints...)
}

var expectations = map[string]expectation{
	"loop_call": {
		opcodes: []spirv.OpCode{spirv.OpLoopMerge, spirv.OpFunctionCall},
		msl:     []string{"for (", "[[buffer(0)]]"},
		runs: []laneRun{
			{uniforms: uniformWords([]float32{0.5, 1, 0.25, 2}, 2), want: []float32{0.25, 0.5, 0.125, 1}},
			{uniforms: uniformWords([]float32{0.5, 1, 0.25, 2}, 8), want: []float32{0.5, 1, 0.25, 2}},
			{uniforms: uniformWords([]float32{0.5, 1, 0.25, 2}, 0), want: []float32{0, 0, 0, 0}},
		},
	},
	"switch_unrolled": {
		opcodes: []spirv.OpCode{spirv.OpLoopMerge, spirv.OpSwitch},
		msl:     []string{"for (", "switch ("},
		runs: []laneRun{
			{uniforms: []uint32{0}, want: []float32{1, 1, 1, 1}},
			{uniforms: []uint32{1}, want: []float32{7, 7, 7, 7}},
		},
	},
	"uniform_block": {
		msl: []string{"[[buffer(1)]]"},
		runs: []laneRun{
			{uniforms: lanes.FloatBits(1, 0.5, 0.25, 2, 2), want: []float32{2, 1, 0.5, 4}},
		},
	},
	"uniform_color": {
		msl: []string{"[[buffer(0)]]"},
		runs: []laneRun{
			{uniforms: lanes.FloatBits(0.25, 0.5, 0.75, 1), want: []float32{0.25, 0.5, 0.75, 1}},
		},
	},
}

// TestSnapshots loads every input, compiles it for each target and
// compares the result with its golden file.
func TestSnapshots(t *testing.T) {
	programs := loadInputs(t, filepath.Join("testdata", "in"))
	if len(programs) == 0 {
		t.Fatal("no input programs found in testdata/in/")
	}

	for i := range programs {
		prog := &programs[i]
		t.Run(prog.name, func(t *testing.T) {
			exp, ok := expectations[prog.name]
			if !ok {
				t.Fatalf("no expectation for %s", prog.name)
			}
			outs := compileTwice(t, prog.source)

			t.Run("spv", func(t *testing.T) {
				m, err := spirv.Decode(outs[shade.TargetSPIRV].SPIRV)
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				encoded := encodeModule(m)
				if diff := cmp.Diff(outs[shade.TargetSPIRV].SPIRV, encoded); diff != "" {
					t.Errorf("decode round trip mismatch (-want +got):\n%s", diff)
				}
				for _, op := range exp.opcodes {
					if !hasOpcode(m, op) {
						t.Errorf("module has no %s:\n%s", op, spirv.Disassemble(m))
					}
				}
				compareGolden(t, filepath.Join("testdata", "golden", "spv", prog.name+".spvasm"), spirv.Disassemble(m))
			})

			t.Run("msl", func(t *testing.T) {
				code := outs[shade.TargetMSL].MSL
				if !strings.Contains(code, "fragment Outputs fragmentMain(") {
					t.Errorf("missing fragment entry point:\n%s", code)
				}
				for _, want := range exp.msl {
					if !strings.Contains(code, want) {
						t.Errorf("source does not contain %q:\n%s", want, code)
					}
				}
				compareGolden(t, filepath.Join("testdata", "golden", "msl", prog.name+".metal"), code)
			})

			t.Run("lanes", func(t *testing.T) {
				p := outs[shade.TargetLanes].Lanes
				data, err := p.MarshalBinary()
				if err != nil {
					t.Fatalf("MarshalBinary() error = %v", err)
				}
				var back lanes.Program
				if err := back.UnmarshalBinary(data); err != nil {
					t.Fatalf("UnmarshalBinary() error = %v", err)
				}
				if diff := cmp.Diff(p.String(), back.String()); diff != "" {
					t.Errorf("msgpack round trip mismatch (-want +got):\n%s", diff)
				}
				for _, run := range exp.runs {
					res, err := back.Run(lanes.RunOptions{Uniforms: run.uniforms})
					if err != nil {
						t.Fatalf("Run(%v) error = %v", run.uniforms, err)
					}
					got := make([]float32, len(res.Result))
					for c := range got {
						got[c] = res.Float(c, 0)
					}
					if diff := cmp.Diff(run.want, got); diff != "" {
						t.Errorf("Run(%v) mismatch (-want +got):\n%s", run.uniforms, diff)
					}
				}
				compareGolden(t, filepath.Join("testdata", "golden", "lanes", prog.name+".txt"), p.String())
			})
		})
	}
}

// ---------------------------------------------------------------------------
// Input Loading
// ---------------------------------------------------------------------------

// loadInputs reads every .yaml file in dir.
func loadInputs(t *testing.T, dir string) []programFile {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read input directory %q: %v", dir, err)
	}

	var programs []programFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(dir, entry.Name()))
		if readErr != nil {
			t.Fatalf("read program %q: %v", entry.Name(), readErr)
		}
		programs = append(programs, programFile{name: strings.TrimSuffix(entry.Name(), ".yaml"), source: data})
	}

	sort.Slice(programs, func(i, j int) bool {
		return programs[i].name < programs[j].name
	})
	return programs
}

// ---------------------------------------------------------------------------
// Compilation Helpers
// ---------------------------------------------------------------------------

// compileTwice compiles source for every target in two separate runs and
// fails when the runs disagree. The outputs are indexed by target.
func compileTwice(t *testing.T, source []byte) map[shade.Target]*shade.Output {
	t.Helper()

	first, err := shade.CompileDocument(source, shade.Targets(), shade.DefaultOptions())
	if err != nil {
		t.Fatalf("CompileDocument() error = %v", err)
	}
	second, err := shade.CompileDocument(source, shade.Targets(), shade.DefaultOptions())
	if err != nil {
		t.Fatalf("second CompileDocument() error = %v", err)
	}

	outs := make(map[shade.Target]*shade.Output, len(first))
	for i, out := range first {
		a, err := out.Bytes()
		if err != nil {
			t.Fatalf("%v: Bytes() error = %v", out.Target, err)
		}
		b, err := second[i].Bytes()
		if err != nil {
			t.Fatalf("%v: Bytes() error = %v", out.Target, err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%v output differs between runs", out.Target)
		}
		outs[out.Target] = out
	}
	return outs
}

func hasOpcode(m *spirv.Module, op spirv.OpCode) bool {
	for _, inst := range m.Instructions {
		if inst.Opcode == op {
			return true
		}
	}
	return false
}

func encodeModule(m *spirv.Module) []uint32 {
	h := m.Header
	words := []uint32{h.Magic, h.Version.Word(), h.Generator, h.Bound, h.Schema}
	for _, inst := range m.Instructions {
		words = append(words, inst.Encode()...)
	}
	return words
}

// ---------------------------------------------------------------------------
// Golden Files
// ---------------------------------------------------------------------------

// compareGolden compares actual with the golden file at path, or rewrites
// the file when UPDATE_GOLDEN is set. A missing golden file only skips the
// byte comparison; the expectations above still run.
func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			t.Fatalf("create golden dir: %v", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(actual), 0o644); wErr != nil {
			t.Fatalf("write golden file: %v", wErr)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Skipf("golden file missing: %s (run with UPDATE_GOLDEN=1 to create)", path)
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	// Git may check files out with \r\n line endings.
	want := strings.ReplaceAll(string(expected), "\r\n", "\n")
	if diff := cmp.Diff(want, actual); diff != "" {
		t.Errorf("output differs from golden %s (-want +got):\n%s", path, diff)
	}
}
