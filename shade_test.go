package shade

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shade/irdoc"
	"github.com/gogpu/shade/lanes"
	"github.com/gogpu/shade/spirv"
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

const loopShader = `
kind: fragment
globals:
  - {name: color, type: half4, flags: [uniform]}
  - {name: steps, type: int, flags: [uniform]}
functions:
  - name: accumulate
    returns: half4
    params:
      - {name: c, type: half4}
      - {name: n, type: int}
    body:
      - {var: acc, type: half4, value: {new: half4, args: [{lit: 0, type: half}]}}
      - for: {init: {var: i, type: int, value: 0}, test: [i, "<", n], next: [i, "++"]}
        body:
          - expr: [acc, "+=", [c, "*", {lit: 0.25, type: half}]]
      - return: {call: min, args: [acc, c]}
  - name: main
    returns: half4
    body:
      - return: {call: accumulate, args: [color, steps]}
`

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		want    Target
		wantErr bool
	}{
		{"spirv", TargetSPIRV, false},
		{"MSL", TargetMSL, false},
		{"lanes", TargetLanes, false},
		{"wgsl", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTarget(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTarget(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestTargetNames(t *testing.T) {
	var names, exts []string
	for _, target := range Targets() {
		names = append(names, target.String())
		exts = append(exts, target.Extension())
	}
	if diff := cmp.Diff([]string{"spirv", "msl", "lanes"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{".spv", ".metal", ".lanes"}, exts); diff != "" {
		t.Errorf("extensions mismatch (-want +got):\n%s", diff)
	}
	if got := Target(9).String(); got != "Target(9)" {
		t.Errorf("String() = %q, want %q", got, "Target(9)")
	}
}

func TestCompileSPIRV(t *testing.T) {
	p, err := irdoc.Decode([]byte(uniformColor))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	out, err := Compile(p, TargetSPIRV, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	data, err := out.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if len(data) < 20 {
		t.Fatalf("output too short: %d bytes", len(data))
	}
	if magic := binary.LittleEndian.Uint32(data); magic != spirv.MagicNumber {
		t.Errorf("magic = 0x%08x, want 0x%08x", magic, spirv.MagicNumber)
	}
	if _, err := spirv.DecodeBytes(data); err != nil {
		t.Errorf("DecodeBytes() error = %v", err)
	}
}

func TestCompileMSL(t *testing.T) {
	p, err := irdoc.Decode([]byte(uniformColor))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	out, err := Compile(p, TargetMSL, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !strings.Contains(out.MSL, "fragment Outputs fragmentMain(") {
		t.Errorf("MSL missing the entry point:\n%s", out.MSL)
	}
	if out.MSLInfo.EntryPoint != "fragmentMain" {
		t.Errorf("EntryPoint = %q, want %q", out.MSLInfo.EntryPoint, "fragmentMain")
	}
}

func TestCompileLanes(t *testing.T) {
	p, err := irdoc.Decode([]byte(uniformColor))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	out, err := Compile(p, TargetLanes, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	data, err := out.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	var prog lanes.Program
	if err := prog.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	res, err := prog.Run(lanes.RunOptions{Lanes: 1, Uniforms: lanes.FloatBits(0.25, 0.5, 0.75, 1)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for c, want := range []float32{0.25, 0.5, 0.75, 1} {
		if got := res.Float(c, 0); got != want {
			t.Errorf("component %d = %v, want %v", c, got, want)
		}
	}
}

func TestCompileUnsupported(t *testing.T) {
	src := `
kind: shader
functions:
  - name: main
    returns: half4
    params:
      - {name: coords, type: float2}
    body:
      - return: {new: half4, args: [{lit: 1, type: half}]}
`
	p, err := irdoc.Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	_, err = Compile(p, TargetSPIRV, DefaultOptions())
	if err == nil {
		t.Fatal("Compile() succeeded, want an error")
	}
	if !strings.HasPrefix(err.Error(), "spirv: ") {
		t.Errorf("error = %q, want a spirv: prefix", err)
	}
}

func TestCompileDocument(t *testing.T) {
	var logs bytes.Buffer
	options := DefaultOptions()
	options.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	outs, err := CompileDocument([]byte(loopShader), Targets(), options)
	if err != nil {
		t.Fatalf("CompileDocument() error = %v", err)
	}
	if len(outs) != 3 {
		t.Fatalf("len(outputs) = %d, want 3", len(outs))
	}
	for i, target := range Targets() {
		if outs[i].Target != target {
			t.Errorf("outputs[%d].Target = %v, want %v", i, outs[i].Target, target)
		}
	}
	for _, msg := range []string{"compile started", "compile finished", "target=msl"} {
		if !strings.Contains(logs.String(), msg) {
			t.Errorf("log missing %q:\n%s", msg, logs.String())
		}
	}
}

func TestCompileDocumentErrors(t *testing.T) {
	_, err := CompileDocument([]byte("kind: compute"), Targets(), DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "unknown program kind") {
		t.Errorf("CompileDocument() error = %v, want an unknown program kind error", err)
	}
}

func TestCompileDocumentMalformedSPIRV(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "sampler without binding",
			src: `
kind: fragment
globals:
  - {name: tex, type: sampler2D, flags: [uniform]}
functions:
  - name: main
    returns: half4
    body:
      - return: {call: sample, args: [tex, {new: float2, args: [0.5]}]}
`,
			want: "layout(binding=...) is required for sampler 'tex'",
		},
		{
			name: "last frag color",
			src: `
kind: fragment
globals:
  - {name: sk_LastFragColor, type: half4, layout: {builtin: last_frag_color}}
functions:
  - name: main
    returns: half4
    body:
      - return: [sk_LastFragColor, "*", {lit: 0.5, type: half}]
`,
			want: "sk_LastFragColor is not supported by the SPIR-V backend",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CompileDocument([]byte(tc.src), []Target{TargetSPIRV}, DefaultOptions())
			if err == nil {
				t.Fatal("CompileDocument() succeeded, want an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("CompileDocument() error = %q, want %q", err, tc.want)
			}
		})
	}
}
