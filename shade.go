// Package shade compiles typed shading-language IR to GPU and CPU targets.
//
// A program is built with the ir factories, or decoded from a YAML document
// by the irdoc package, and then lowered by one of three backends:
//   - SPIR-V: binary module words for Vulkan
//   - MSL: Metal Shading Language source
//   - Lanes: masked bytecode run lane-parallel on the CPU
//
// Example usage:
//
//	p, err := irdoc.Decode(doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := shade.Compile(p, shade.TargetSPIRV, shade.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data, _ := out.Bytes()
//
// For backend-specific results use the spirv, msl and lanes packages
// directly.
package shade

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gogpu/shade/arena"
	"github.com/gogpu/shade/ir"
	"github.com/gogpu/shade/irdoc"
	"github.com/gogpu/shade/lanes"
	"github.com/gogpu/shade/msl"
	"github.com/gogpu/shade/spirv"
)

// Target selects a backend.
type Target uint8

const (
	TargetSPIRV Target = iota
	TargetMSL
	TargetLanes
)

var targetNames = [...]string{
	TargetSPIRV: "spirv",
	TargetMSL:   "msl",
	TargetLanes: "lanes",
}

var targetExtensions = [...]string{
	TargetSPIRV: ".spv",
	TargetMSL:   ".metal",
	TargetLanes: ".lanes",
}

func (t Target) String() string {
	if int(t) < len(targetNames) {
		return targetNames[t]
	}
	return fmt.Sprintf("Target(%d)", t)
}

// Extension returns the usual file extension for output of t.
func (t Target) Extension() string {
	if int(t) < len(targetExtensions) {
		return targetExtensions[t]
	}
	return ".out"
}

// Targets lists every target in declaration order.
func Targets() []Target {
	return []Target{TargetSPIRV, TargetMSL, TargetLanes}
}

// ParseTarget looks a target up by name, ignoring case.
func ParseTarget(name string) (Target, error) {
	for i, n := range targetNames {
		if strings.EqualFold(n, name) {
			return Target(i), nil
		}
	}
	return 0, fmt.Errorf("shade: unknown target %q", name)
}

// Options configures compilation for every target.
type Options struct {
	// Settings are the construction settings used by CompileDocument.
	// Settings in the document itself are merged on top.
	Settings ir.Settings

	SPIRV spirv.Options
	MSL   msl.Options
	Lanes lanes.Options

	// Logger receives compile progress at debug level and arena leaks at
	// warn level. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns the backend defaults with logging disabled.
func DefaultOptions() Options {
	return Options{
		SPIRV: spirv.DefaultOptions(),
		MSL:   msl.DefaultOptions(),
		Lanes: lanes.DefaultOptions(),
	}
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Output is the result of one compilation. Exactly one of SPIRV, MSL and
// Lanes is set, matching Target.
type Output struct {
	Target Target

	SPIRV   []uint32
	MSL     string
	MSLInfo msl.TranslationInfo
	Lanes   *lanes.Program
}

// Bytes returns the output as it is written to a file: little-endian
// words for SPIR-V, source text for MSL and a msgpack encoding for lanes.
func (o *Output) Bytes() ([]byte, error) {
	switch o.Target {
	case TargetSPIRV:
		return spirv.EncodeWords(o.SPIRV), nil
	case TargetMSL:
		return []byte(o.MSL), nil
	case TargetLanes:
		return o.Lanes.MarshalBinary()
	}
	return nil, fmt.Errorf("shade: unknown target %v", o.Target)
}

// Compile lowers p for target. The error is the backend's error list when
// the program cannot be expressed on the target.
func Compile(p *ir.Program, target Target, options Options) (*Output, error) {
	log := options.logger().With("target", target.String(), "kind", p.Kind.String())
	log.Debug("compile started", "elements", len(p.Elements))
	start := time.Now()

	out := &Output{Target: target}
	var err error
	switch target {
	case TargetSPIRV:
		out.SPIRV, err = spirv.Compile(p, options.SPIRV)
	case TargetMSL:
		out.MSL, out.MSLInfo, err = msl.Compile(p, options.MSL)
	case TargetLanes:
		out.Lanes, err = lanes.Compile(p, options.Lanes)
	default:
		err = fmt.Errorf("shade: unknown target %v", target)
	}
	if err != nil {
		log.Debug("compile failed", "error", err)
		return nil, err
	}
	log.Debug("compile finished", "size", out.size(), "duration", time.Since(start))
	return out, nil
}

func (o *Output) size() int {
	switch o.Target {
	case TargetSPIRV:
		return len(o.SPIRV)
	case TargetMSL:
		return len(o.MSL)
	case TargetLanes:
		return len(o.Lanes.Instructions)
	}
	return 0
}

// CompileDocument decodes a YAML program document and compiles it for each
// of targets. The program is built in a recycled arena that is released
// once every target is done.
func CompileDocument(data []byte, targets []Target, options Options) ([]*Output, error) {
	log := options.logger()
	doc, err := irdoc.Parse(data)
	if err != nil {
		return nil, err
	}
	ctx := ir.NewContext(doc.Settings.Merge(options.Settings))
	a := arena.Acquire()
	a.SetLogger(log)
	ctx.Attach(a)
	defer func() {
		ctx.Detach()
		if err := a.Close(); err != nil {
			log.Warn("arena not empty after compile", "error", err)
		}
		arena.Recycle(a)
	}()

	p, err := irdoc.BuildIn(ctx, doc)
	if err != nil {
		return nil, err
	}
	defer p.Release()

	outs := make([]*Output, 0, len(targets))
	for _, t := range targets {
		out, err := Compile(p, t, options)
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}
