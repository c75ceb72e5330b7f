package shade

import (
	"runtime"
	"testing"

	"github.com/gogpu/shade/irdoc"
	"github.com/gogpu/shade/lanes"
)

// ---------------------------------------------------------------------------
// Program documents at different complexity levels
// ---------------------------------------------------------------------------

var documentsByComplexity = []struct {
	name   string
	source string
}{
	{"uniform_color", uniformColor},
	{"loop_call", loopShader},
}

// ---------------------------------------------------------------------------
// End-to-End: document decode plus every backend
// ---------------------------------------------------------------------------

// BenchmarkCompileDocument decodes each document and compiles it for every
// target, reusing the recycled arena between iterations.
func BenchmarkCompileDocument(b *testing.B) {
	for _, sc := range documentsByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			var result []*Output
			for i := 0; i < b.N; i++ {
				var err error
				result, err = CompileDocument([]byte(sc.source), Targets(), DefaultOptions())
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkCompileAllBackends builds the program once and measures only
// the backend phase of each target.
func BenchmarkCompileAllBackends(b *testing.B) {
	p, err := irdoc.Decode([]byte(loopShader))
	if err != nil {
		b.Fatalf("decode failed: %v", err)
	}
	for _, target := range Targets() {
		b.Run(target.String(), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			var result *Output
			for i := 0; i < b.N; i++ {
				result, err = Compile(p, target, DefaultOptions())
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// ---------------------------------------------------------------------------
// Individual stages
// ---------------------------------------------------------------------------

// BenchmarkDecode measures YAML parsing and IR construction.
func BenchmarkDecode(b *testing.B) {
	for _, sc := range documentsByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			for i := 0; i < b.N; i++ {
				p, err := irdoc.Decode([]byte(sc.source))
				if err != nil {
					b.Fatalf("decode failed: %v", err)
				}
				p.Release()
			}
		})
	}
}

// BenchmarkLanesRun measures the interpreter over a wide batch of lanes.
func BenchmarkLanesRun(b *testing.B) {
	p, err := irdoc.Decode([]byte(loopShader))
	if err != nil {
		b.Fatalf("decode failed: %v", err)
	}
	prog, err := lanes.Compile(p, lanes.DefaultOptions())
	if err != nil {
		b.Fatalf("compile failed: %v", err)
	}
	uniforms := append(lanes.FloatBits(0.25, 0.5, 0.75, 1), 8)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := prog.Run(lanes.RunOptions{Lanes: 64, Uniforms: uniforms}); err != nil {
			b.Fatalf("run failed: %v", err)
		}
	}
}
