//go:build darwin

package msl

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// verifyMSLWithXcrun compiles source with the Metal toolchain at the
// language version named in options and checks that the entry point made
// it into the object file.
func verifyMSLWithXcrun(t *testing.T, source string, options Options) {
	t.Helper()

	if _, err := exec.LookPath("xcrun"); err != nil {
		t.Skip("xcrun not found; skipping MSL compile check")
	}
	if err := exec.Command("xcrun", "--find", "metal").Run(); err != nil {
		t.Skip("xcrun metal tool not found; skipping MSL compile check")
	}

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "program.metal")
	airPath := filepath.Join(dir, "program.air")
	if err := os.WriteFile(srcPath, []byte(source), 0o600); err != nil {
		t.Fatalf("write MSL temp file: %v", err)
	}

	std := "-std=macos-metal" + options.LangVersion.String()
	cmd := exec.Command("xcrun", "-sdk", "macosx", "metal", std, "-c", srcPath, "-o", airPath) //nolint:gosec // G204: args are temp paths in tests
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("xcrun metal %s failed: %v\n%s\nMSL:\n%s", std, err, out, source)
	}

	air, err := os.ReadFile(airPath)
	if err != nil {
		t.Fatalf("read AIR output: %v", err)
	}
	if !strings.Contains(string(air), "fragmentMain") {
		t.Errorf("AIR output does not define fragmentMain")
	}
}
