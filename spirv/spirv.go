package spirv

// Version is a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

// Supported versions.
var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_4 = Version{1, 4}
	Version1_5 = Version{1, 5}
	Version1_6 = Version{1, 6}
)

// AtLeast reports whether v is o or newer.
func (v Version) AtLeast(o Version) bool {
	return v.Major > o.Major || v.Major == o.Major && v.Minor >= o.Minor
}

// Word returns the header encoding of v.
func (v Version) Word() uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)<<8
}

const (
	// MagicNumber starts every module.
	MagicNumber = 0x07230203

	// GeneratorID is the header generator word.
	GeneratorID = 0x00000000
)

// Options configures module generation.
type Options struct {
	// Version is the target SPIR-V version.
	Version Version

	// DebugNames emits OpName and OpMemberName for declarations.
	DebugNames bool

	// UniformBinding and UniformSet place the block holding top-level
	// uniforms.
	UniformBinding int
	UniformSet     int

	// UsePushConstants puts top-level uniforms in a push-constant block
	// instead of a uniform buffer.
	UsePushConstants bool

	// RTFlipBinding and RTFlipSet place the render-target flip uniform
	// when no other uniform block can hold it. Both must be set when a
	// program that needs the flip declares no uniforms.
	RTFlipBinding int
	RTFlipSet     int
}

// DefaultOptions returns options targeting SPIR-V 1.0.
func DefaultOptions() Options {
	return Options{
		Version:        Version1_0,
		DebugNames:     true,
		UniformBinding: 0,
		UniformSet:     0,
		RTFlipBinding:  -1,
		RTFlipSet:      -1,
	}
}
