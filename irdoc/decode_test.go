package irdoc

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shade/ir"
	"github.com/gogpu/shade/lanes"
)

const scaleShader = `
kind: shader
globals:
  - name: tint
    type: half4
    flags: [uniform]
functions:
  - name: scale
    returns: float
    params:
      - {name: v, type: float}
    body:
      - return: [v, "*", 2.0]
  - name: main
    returns: half4
    params:
      - {name: coords, type: float2}
    body:
      - var: x
        type: float
        value: {call: scale, args: [{swizzle: x, of: coords}]}
      - if: [x, ">", 3.0]
        then:
          - expr: [x, "=", 3.0]
      - return: [tint, "*", {new: half, args: [x]}]
`

func TestDecode(t *testing.T) {
	p, err := Decode([]byte(scaleShader))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if p.Kind != ir.ProgramRuntimeShader {
		t.Errorf("Kind = %s, want shader", p.Kind)
	}
	var names []string
	for _, f := range p.Functions() {
		names = append(names, f.Decl.Name)
	}
	if diff := cmp.Diff([]string{"scale", "main"}, names); diff != "" {
		t.Errorf("functions mismatch (-want +got):\n%s", diff)
	}
	if got := len(p.Globals()); got != 1 {
		t.Errorf("len(Globals()) = %d, want 1", got)
	}
}

func TestDecodeRunsOnLanes(t *testing.T) {
	p, err := Decode([]byte(scaleShader))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	prog, err := lanes.Compile(p, lanes.DefaultOptions())
	if err != nil {
		t.Fatalf("lanes.Compile() error = %v", err)
	}
	res, err := prog.Run(lanes.RunOptions{
		Lanes:    2,
		Uniforms: lanes.FloatBits(1, 0.5, 0, 1),
		Inputs:   [][]uint32{lanes.FloatBits(1, 4), {0}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := [][]float32{{2, 3}, {1, 1.5}}
	for c := range want {
		for l := range want[c] {
			if got := res.Float(c, l); got != want[c][l] {
				t.Errorf("component %d lane %d = %v, want %v", c, l, got, want[c][l])
			}
		}
	}
}

func TestDecodeStatements(t *testing.T) {
	src := `
kind: shader
functions:
  - name: main
    returns: half4
    params:
      - {name: coords, type: float2}
    body:
      - {var: n, type: int, value: 0}
      - for: {init: {var: i, type: int, value: 0}, test: [i, "<", 4], next: [i, "++"]}
        body:
          - expr: [n, "+=", i]
      - do:
          - expr: ["--", n]
        while: [n, ">", 10]
      - switch: n
        cases:
          - case: 5
            body: [break]
          - default: true
            body:
              - expr: [n, "=", 0]
      - return: {new: half4, args: [{new: half, args: [n]}]}
`
	p, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	body := p.Main().Body.Statements
	kinds := make([]ir.StatementKind, len(body))
	for i, s := range body {
		kinds[i] = s.Kind()
	}
	want := []ir.StatementKind{ir.StmtVarDeclaration, ir.StmtFor, ir.StmtDo, ir.StmtSwitch, ir.StmtReturn}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("statement kinds mismatch (-want +got):\n%s", diff)
	}
	loop := body[1].(*ir.ForStatement)
	if loop.Unroll == nil || loop.Unroll.Count != 4 {
		t.Errorf("loop unroll info = %+v, want a trip count of 4", loop.Unroll)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "yaml syntax",
			src:  "kind: [",
			want: "irdoc: yaml:",
		},
		{
			name: "unknown key",
			src:  "kinds: shader",
			want: "field kinds not found",
		},
		{
			name: "unknown kind",
			src:  "kind: compute",
			want: `unknown program kind "compute"`,
		},
		{
			name: "unknown identifier",
			src: `
kind: fragment
functions:
  - name: main
    returns: half4
    body:
      - return: missing
`,
			want: "7:17: unknown identifier 'missing'",
		},
		{
			name: "unknown type",
			src: `
kind: vertex
globals:
  - {name: g, type: float5}
`,
			want: "unknown type 'float5'",
		},
		{
			name: "bad swizzle",
			src: `
kind: shader
functions:
  - name: main
    returns: half4
    params:
      - {name: coords, type: float2}
    body:
      - return: {new: half4, args: [{swizzle: xq, of: coords}, 0.0, 1.0]}
`,
			want: "invalid swizzle mask 'xq'",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.src))
			if err == nil {
				t.Fatal("Decode() succeeded, want an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Decode() error = %q, want %q", err, tc.want)
			}
		})
	}
}

func TestTypeNames(t *testing.T) {
	b := newBuilder(ir.NewContext(ir.Settings{}))
	tests := []struct {
		name string
		want string
	}{
		{"float", "float"},
		{"half3x3", "half3x3"},
		{"float[4]", "float[4]"},
		{" int2 ", "int2"},
	}
	for _, tc := range tests {
		if got := b.typ(ir.Position{}, tc.name).String(); got != tc.want {
			t.Errorf("typ(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
	if b.ctx.Errors.HasErrors() {
		t.Errorf("unexpected errors: %v", b.ctx.Errors.Err())
	}
}

func TestSettingsMerge(t *testing.T) {
	base := ir.Settings{MaxErrors: 10, MaxExpressionDepth: 64}
	got := Settings{Optimize: true, MaxErrors: 3}.Merge(base)
	want := ir.Settings{Optimize: true, MaxErrors: 3, MaxExpressionDepth: 64}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildInUsesContextSettings(t *testing.T) {
	doc, err := Parse([]byte(scaleShader))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ctx := ir.NewContext(ir.Settings{Optimize: true})
	p, err := BuildIn(ctx, doc)
	if err != nil {
		t.Fatalf("BuildIn() error = %v", err)
	}
	if p.Context != ctx {
		t.Error("program does not use the given context")
	}
	if !p.Context.Settings.Optimize {
		t.Error("context settings were replaced")
	}
}
