package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shade"
	"github.com/gogpu/shade/ir"
)

const uniformColor = `
kind: fragment
globals:
  - {name: color, type: half4, flags: [uniform]}
functions:
  - name: main
    returns: half4
    body:
      - return: color
`

const scaled = `
kind: shader
globals:
  - {name: tint, type: half4, flags: [uniform]}
functions:
  - name: main
    returns: half4
    params:
      - {name: coords, type: float2}
    body:
      - {var: x, type: float, value: [{swizzle: x, of: coords}, "*", 2.0]}
      - if: [x, ">", 3.0]
        then:
          - expr: [x, "=", 3.0]
      - return: [tint, "*", {new: half, args: [x]}]
`

const unknownIdentifier = `
kind: fragment
functions:
  - name: main
    returns: half4
    body:
      - return: missing
`

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newApp(&stdout, &stderr).rootCommand()
	cmd.SetArgs(append([]string{"--color", "off"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// =============================================================================
// Commands
// =============================================================================

func TestCompileCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "color.yaml", uniformColor)
	out := filepath.Join(dir, "out")

	_, stderr, err := execute(t, "compile", "-t", "spirv,msl", "-o", out, in)
	if err != nil {
		t.Fatalf("compile error = %v\n%s", err, stderr)
	}
	for _, name := range []string{"color.spv", "color.metal"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	if got := strings.Count(stderr, "wrote "); got != 2 {
		t.Errorf("stderr reports %d writes, want 2:\n%s", got, stderr)
	}
}

func TestCompileCommandErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", uniformColor)
	bad := writeFile(t, dir, "bad.yaml", unknownIdentifier)

	_, stderr, err := execute(t, "compile", "-j", "2", good, bad)
	if !errors.Is(err, errReported) {
		t.Fatalf("compile error = %v, want errReported", err)
	}
	want := bad + ":7:17: error: unknown identifier 'missing'"
	if !strings.Contains(stderr, want) {
		t.Errorf("stderr missing %q:\n%s", want, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "good.spv")); err != nil {
		t.Errorf("good input was not compiled: %v", err)
	}
}

func TestCompileCommandUnknownTarget(t *testing.T) {
	in := writeFile(t, t.TempDir(), "color.yaml", uniformColor)
	_, _, err := execute(t, "compile", "-t", "hlsl", in)
	if err == nil || !strings.Contains(err.Error(), `unknown target "hlsl"`) {
		t.Errorf("compile error = %v, want an unknown target error", err)
	}
}

func TestCompileCommandConfig(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "color.yaml", uniformColor)
	out := filepath.Join(dir, "build")
	cfg := writeFile(t, dir, "shade.toml", fmt.Sprintf("targets = [\"lanes\"]\noutput_dir = %q\n", out))

	if _, stderr, err := execute(t, "--config", cfg, "compile", in); err != nil {
		t.Fatalf("compile error = %v\n%s", err, stderr)
	}
	if _, err := os.Stat(filepath.Join(out, "color.lanes")); err != nil {
		t.Errorf("missing lanes output: %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	in := writeFile(t, t.TempDir(), "scaled.yaml", scaled)
	stdout, stderr, err := execute(t, "run", "--lanes", "2", "--uniform", "1,0.5,0,1", "--input", "1,4", "--input", "0", in)
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, stderr)
	}
	want := "lane 0: 2 1 0 2\nlane 1: 3 1.5 0 3\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("run output mismatch (-want +got):\n%s", diff)
	}
}

func TestDisCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "color.yaml", uniformColor)
	if _, stderr, err := execute(t, "compile", "-t", "spirv,lanes", in); err != nil {
		t.Fatalf("compile error = %v\n%s", err, stderr)
	}

	stdout, _, err := execute(t, "dis", filepath.Join(dir, "color.spv"))
	if err != nil {
		t.Fatalf("dis error = %v", err)
	}
	if !strings.HasPrefix(stdout, "; SPIR-V\n") {
		t.Errorf("dis output does not start with the header:\n%s", stdout)
	}

	stdout, _, err = execute(t, "dis", "--lanes", filepath.Join(dir, "color.lanes"))
	if err != nil {
		t.Fatalf("dis --lanes error = %v", err)
	}
	if !strings.Contains(stdout, "; uniform color") {
		t.Errorf("lane listing missing the uniform binding:\n%s", stdout)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(stdout, "shadec version "+shadeVersion) {
		t.Errorf("version output = %q", stdout)
	}
	if !strings.Contains(stdout, "targets: spirv, msl, lanes") {
		t.Errorf("version output missing targets: %q", stdout)
	}
}

// =============================================================================
// Helpers
// =============================================================================

func TestColorEnabled(t *testing.T) {
	tests := []struct {
		mode    string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"off", false, false},
		{"auto", false, false},
		{"always", false, true},
	}
	for _, tt := range tests {
		got, err := colorEnabled(tt.mode, &bytes.Buffer{})
		if (err != nil) != tt.wantErr {
			t.Errorf("colorEnabled(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("colorEnabled(%q) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, dir string
		target     shade.Target
		want       string
	}{
		{"a/b.yaml", "", shade.TargetSPIRV, "a/b.spv"},
		{"a/b.yaml", "out", shade.TargetMSL, filepath.Join("out", "b.metal")},
		{"prog", "", shade.TargetLanes, "prog.lanes"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.dir, tt.target); got != tt.want {
			t.Errorf("outputPath(%q, %q, %v) = %q, want %q", tt.input, tt.dir, tt.target, got, tt.want)
		}
	}
}

func TestParseWords(t *testing.T) {
	got, err := parseWords("1, -2i, 3u, true, false")
	if err != nil {
		t.Fatalf("parseWords() error = %v", err)
	}
	want := []uint32{0x3F800000, 0xFFFFFFFE, 3, 0xFFFFFFFF, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseWords() mismatch (-want +got):\n%s", diff)
	}
	if _, err := parseWords("1,x"); err == nil {
		t.Error("parseWords(\"1,x\") succeeded, want an error")
	}
	if got, _ := parseWords(" "); got != nil {
		t.Errorf("parseWords(\" \") = %v, want nil", got)
	}
}

func TestPrinterReport(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, false)
	list := ir.ErrorList{
		{Pos: ir.Pos(2, 5), Message: "first"},
		{Message: "second"},
	}
	p.report("a.yaml", fmt.Errorf("spirv: %w", list))
	p.report("b.yaml", errors.New("open b.yaml: no such file"))

	want := "a.yaml:2:5: error: spirv: first\n" +
		"a.yaml: error: spirv: second\n" +
		"b.yaml: error: open b.yaml: no such file\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("report() mismatch (-want +got):\n%s", diff)
	}
}
