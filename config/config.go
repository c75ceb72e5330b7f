// Package config loads compiler configuration from TOML files.
//
//	targets = ["spirv", "msl"]
//	output_dir = "build/shaders"
//
//	[settings]
//	optimize = true
//
//	[spirv]
//	version = "1.3"
//	push_constants = true
//
//	[msl]
//	version = "2.3"
//
//	[lanes]
//	max_unroll = 64
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"github.com/gogpu/shade"
	"github.com/gogpu/shade/ir"
	"github.com/gogpu/shade/lanes"
	"github.com/gogpu/shade/msl"
	"github.com/gogpu/shade/spirv"
)

// Config is the decoded form of a configuration file.
type Config struct {
	Targets   []string `toml:"targets"`
	OutputDir string   `toml:"output_dir"`
	Jobs      int      `toml:"jobs"`

	Settings Settings `toml:"settings"`
	SPIRV    SPIRV    `toml:"spirv"`
	MSL      MSL      `toml:"msl"`
	Lanes    Lanes    `toml:"lanes"`
}

// Settings configure IR construction.
type Settings struct {
	Optimize           bool `toml:"optimize"`
	ForceHighPrecision bool `toml:"force_high_precision"`
	MaxErrors          int  `toml:"max_errors"`
	MaxExpressionDepth int  `toml:"max_expression_depth"`
}

// SPIRV configures the binary module backend.
type SPIRV struct {
	Version        string `toml:"version"`
	DebugNames     bool   `toml:"debug_names"`
	UniformBinding int    `toml:"uniform_binding"`
	UniformSet     int    `toml:"uniform_set"`
	PushConstants  bool   `toml:"push_constants"`
	RTFlipBinding  int    `toml:"rtflip_binding"`
	RTFlipSet      int    `toml:"rtflip_set"`
}

// MSL configures the Metal backend.
type MSL struct {
	Version       string `toml:"version"`
	UniformBuffer int    `toml:"uniform_buffer"`
	Comments      bool   `toml:"comments"`
}

// Lanes configures the lane bytecode backend.
type Lanes struct {
	Trace     bool `toml:"trace"`
	MaxUnroll int  `toml:"max_unroll"`
	CSE       bool `toml:"cse"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	sp := spirv.DefaultOptions()
	mo := msl.DefaultOptions()
	return &Config{
		Targets: []string{"spirv"},
		Settings: Settings{
			MaxErrors:          ir.DefaultMaxErrors,
			MaxExpressionDepth: ir.DefaultMaxExpressionDepth,
		},
		SPIRV: SPIRV{
			Version:        formatVersion(sp.Version.Major, sp.Version.Minor),
			DebugNames:     sp.DebugNames,
			UniformBinding: sp.UniformBinding,
			UniformSet:     sp.UniformSet,
			RTFlipBinding:  sp.RTFlipBinding,
			RTFlipSet:      sp.RTFlipSet,
		},
		MSL: MSL{
			Version:       mo.LangVersion.String(),
			UniformBuffer: mo.UniformBuffer,
		},
		Lanes: Lanes{
			MaxUnroll: lanes.DefaultMaxUnroll,
			CSE:       true,
		},
	}
}

// Load reads path on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a TOML document on top of Default. Keys that do not map
// to a field are errors.
func Parse(data string) (*Config, error) {
	cfg := Default()
	meta, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the decoder cannot.
func (c *Config) Validate() error {
	if _, err := c.TargetList(); err != nil {
		return err
	}
	if c.Jobs < 0 {
		return fmt.Errorf("config: jobs must not be negative, got %d", c.Jobs)
	}
	if _, _, err := parseVersion(c.SPIRV.Version); err != nil {
		return fmt.Errorf("config: [spirv].version: %w", err)
	}
	if _, _, err := parseVersion(c.MSL.Version); err != nil {
		return fmt.Errorf("config: [msl].version: %w", err)
	}
	return nil
}

// TargetList resolves the target names.
func (c *Config) TargetList() ([]shade.Target, error) {
	out := make([]shade.Target, 0, len(c.Targets))
	for _, name := range c.Targets {
		t, err := shade.ParseTarget(name)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Options builds compile options. The logger is left unset.
func (c *Config) Options() (shade.Options, error) {
	spMajor, spMinor, err := parseVersion(c.SPIRV.Version)
	if err != nil {
		return shade.Options{}, fmt.Errorf("config: [spirv].version: %w", err)
	}
	mMajor, mMinor, err := parseVersion(c.MSL.Version)
	if err != nil {
		return shade.Options{}, fmt.Errorf("config: [msl].version: %w", err)
	}
	return shade.Options{
		Settings: ir.Settings{
			Optimize:           c.Settings.Optimize,
			ForceHighPrecision: c.Settings.ForceHighPrecision,
			MaxErrors:          c.Settings.MaxErrors,
			MaxExpressionDepth: c.Settings.MaxExpressionDepth,
		},
		SPIRV: spirv.Options{
			Version:          spirv.Version{Major: spMajor, Minor: spMinor},
			DebugNames:       c.SPIRV.DebugNames,
			UniformBinding:   c.SPIRV.UniformBinding,
			UniformSet:       c.SPIRV.UniformSet,
			UsePushConstants: c.SPIRV.PushConstants,
			RTFlipBinding:    c.SPIRV.RTFlipBinding,
			RTFlipSet:        c.SPIRV.RTFlipSet,
		},
		MSL: msl.Options{
			LangVersion:   msl.Version{Major: mMajor, Minor: mMinor},
			UniformBuffer: c.MSL.UniformBuffer,
			Comments:      c.MSL.Comments,
		},
		Lanes: lanes.Options{
			Trace:     c.Lanes.Trace,
			MaxUnroll: c.Lanes.MaxUnroll,
			NoCSE:     !c.Lanes.CSE,
		},
	}, nil
}

// parseVersion reads "major.minor".
func parseVersion(s string) (uint8, uint8, error) {
	major, minor, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return 0, 0, fmt.Errorf("invalid version %q, want major.minor", s)
	}
	ma, err := versionPart(major)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid version %q: %w", s, err)
	}
	mi, err := versionPart(minor)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return ma, mi, nil
}

func versionPart(s string) (uint8, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return safecast.Conv[uint8](n)
}

func formatVersion(major, minor uint8) string {
	return strconv.Itoa(int(major)) + "." + strconv.Itoa(int(minor))
}
