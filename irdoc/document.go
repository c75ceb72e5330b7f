package irdoc

import (
	"gopkg.in/yaml.v3"

	"github.com/gogpu/shade/ir"
)

// Document is the top level of a program file.
type Document struct {
	Kind      string      `yaml:"kind"`
	Settings  Settings    `yaml:"settings"`
	Structs   []StructDoc `yaml:"structs"`
	Blocks    []BlockDoc  `yaml:"blocks"`
	Globals   []VarDoc    `yaml:"globals"`
	Functions []FuncDoc   `yaml:"functions"`
}

// Settings mirrors ir.Settings.
type Settings struct {
	Optimize           bool `yaml:"optimize"`
	ForceHighPrecision bool `yaml:"force_high_precision"`
	MaxErrors          int  `yaml:"max_errors"`
	MaxExpressionDepth int  `yaml:"max_expression_depth"`
}

// Merge returns base with the settings s turns on. Flags set in either
// are kept, and a non-zero limit in s replaces the one in base.
func (s Settings) Merge(base ir.Settings) ir.Settings {
	base.Optimize = base.Optimize || s.Optimize
	base.ForceHighPrecision = base.ForceHighPrecision || s.ForceHighPrecision
	if s.MaxErrors > 0 {
		base.MaxErrors = s.MaxErrors
	}
	if s.MaxExpressionDepth > 0 {
		base.MaxExpressionDepth = s.MaxExpressionDepth
	}
	return base
}

func (s Settings) ir() ir.Settings {
	return ir.Settings{
		Optimize:           s.Optimize,
		ForceHighPrecision: s.ForceHighPrecision,
		MaxErrors:          s.MaxErrors,
		MaxExpressionDepth: s.MaxExpressionDepth,
	}
}

// StructDoc declares a struct type.
type StructDoc struct {
	Name   string   `yaml:"name"`
	Fields []VarDoc `yaml:"fields"`

	pos ir.Position
}

func (d *StructDoc) UnmarshalYAML(value *yaml.Node) error {
	type plain StructDoc
	d.pos = position(value)
	return value.Decode((*plain)(d))
}

// BlockDoc declares a uniform interface block. An empty instance name
// makes the fields visible as globals.
type BlockDoc struct {
	Type     string    `yaml:"type"`
	Instance string    `yaml:"instance"`
	Layout   LayoutDoc `yaml:"layout"`
	Fields   []VarDoc  `yaml:"fields"`

	pos ir.Position
}

func (d *BlockDoc) UnmarshalYAML(value *yaml.Node) error {
	type plain BlockDoc
	d.Layout = defaultLayout()
	d.pos = position(value)
	return value.Decode((*plain)(d))
}

// VarDoc declares a global, a local, a parameter or a struct field.
type VarDoc struct {
	Name   string    `yaml:"name"`
	Type   string    `yaml:"type"`
	Flags  []string  `yaml:"flags"`
	Layout LayoutDoc `yaml:"layout"`
	Value  yaml.Node `yaml:"value"`

	pos ir.Position
}

func (d *VarDoc) UnmarshalYAML(value *yaml.Node) error {
	type plain VarDoc
	d.Layout = defaultLayout()
	d.pos = position(value)
	return value.Decode((*plain)(d))
}

// LayoutDoc mirrors ir.Layout. Builtin is a builtin name such as
// frag_coord.
type LayoutDoc struct {
	Location int      `yaml:"location"`
	Offset   int      `yaml:"offset"`
	Binding  int      `yaml:"binding"`
	Set      int      `yaml:"set"`
	Index    int      `yaml:"index"`
	Builtin  string   `yaml:"builtin"`
	Flags    []string `yaml:"flags"`
}

func defaultLayout() LayoutDoc {
	return LayoutDoc{Location: -1, Offset: -1, Binding: -1, Set: -1, Index: -1}
}

// FuncDoc defines a function. Body statements are decoded later, once
// every function is declared.
type FuncDoc struct {
	Name    string    `yaml:"name"`
	Returns string    `yaml:"returns"`
	Flags   []string  `yaml:"flags"`
	Params  []VarDoc  `yaml:"params"`
	Body    yaml.Node `yaml:"body"`

	pos ir.Position
}

func (d *FuncDoc) UnmarshalYAML(value *yaml.Node) error {
	type plain FuncDoc
	d.pos = position(value)
	return value.Decode((*plain)(d))
}

func position(n *yaml.Node) ir.Position {
	return ir.Pos(int32(n.Line), int32(n.Column))
}
