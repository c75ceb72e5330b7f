package msl

import (
	"fmt"

	"github.com/gogpu/shade/ir"
)

// Version represents an MSL language version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common MSL versions.
var (
	Version1_2 = Version{Major: 1, Minor: 2}
	Version2_0 = Version{Major: 2, Minor: 0}
	Version2_1 = Version{Major: 2, Minor: 1}
	Version2_3 = Version{Major: 2, Minor: 3}
	Version3_0 = Version{Major: 3, Minor: 0}
)

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is o or newer.
func (v Version) AtLeast(o Version) bool {
	return v.Major > o.Major || v.Major == o.Major && v.Minor >= o.Minor
}

// Options configures MSL code generation.
type Options struct {
	// LangVersion is the target MSL version. Defaults to Version2_1 if
	// zero.
	LangVersion Version

	// UniformBuffer is the buffer index of the Uniforms struct holding
	// top-level uniforms. Interface blocks use their own binding.
	UniformBuffer int

	// Comments adds a comment naming each helper function.
	Comments bool
}

// DefaultOptions returns sensible default options for MSL generation.
func DefaultOptions() Options {
	return Options{
		LangVersion:   Version2_1,
		UniformBuffer: 0,
	}
}

// TranslationInfo describes the generated source.
type TranslationInfo struct {
	// EntryPoint is the name of the generated entry function.
	EntryPoint string

	// Helpers lists the synthesized helper functions in emission order.
	Helpers []string
}

// Compile generates MSL source for p. Returns the source and translation
// info, or an error listing every problem found.
func Compile(p *ir.Program, options Options) (string, TranslationInfo, error) {
	if options.LangVersion.Major == 0 {
		options.LangVersion = Version2_1
	}
	g := NewGenerator(p, options)
	if !g.Generate() {
		return "", TranslationInfo{}, fmt.Errorf("msl: %w", g.Errors.Err())
	}
	return g.String(), g.Info(), nil
}
