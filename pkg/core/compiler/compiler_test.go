package compiler_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jihwankim/precice-case-generate/pkg/config"
	"github.com/jihwankim/precice-case-generate/pkg/core/compiler"
	"github.com/jihwankim/precice-case-generate/pkg/reporting"
)

const topologyYAML = `
participants:
  - name: Fluid
    solver: OpenFOAM
    dimensionality: 3
  - name: Solid
    solver: CalculiX
    dimensionality: 3
exchanges:
  - from: Solid
    to: Fluid
    from-patch: interface
    to-patch: interface
    data: Displacement
    type: strong
  - from: Fluid
    to: Solid
    from-patch: interface
    to-patch: interface
    data: Force
    type: strong
`

func newTestCompiler(t *testing.T) *compiler.Compiler {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Validator.Enabled = false

	logger := reporting.NewLogger(reporting.LoggerConfig{Level: reporting.LogLevelError, Format: reporting.LogFormatJSON, Output: io.Discard})
	progress := reporting.NewProgressReporter(reporting.FormatJSON, logger)
	return compiler.New(cfg, logger, progress)
}

func TestCompilerRunProducesExpectedArtifacts(t *testing.T) {
	dir := t.TempDir()
	topologyPath := filepath.Join(dir, "topology.yaml")
	if err := os.WriteFile(topologyPath, []byte(topologyYAML), 0644); err != nil {
		t.Fatal(err)
	}

	c := newTestCompiler(t)
	result, err := c.Run(topologyPath, dir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.ValidatorRan {
		t.Error("validator should not have run when disabled")
	}

	configPath := filepath.Join(result.OutputDir, "precice-config.xml")
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("expected %s to exist: %v", configPath, err)
	}

	readmePath := filepath.Join(result.OutputDir, "README.md")
	if _, err := os.Stat(readmePath); err != nil {
		t.Errorf("expected %s to exist: %v", readmePath, err)
	}

	cleanPath := filepath.Join(result.OutputDir, "clean.sh")
	if _, err := os.Stat(cleanPath); err != nil {
		t.Errorf("expected %s to exist: %v", cleanPath, err)
	}

	for _, dirName := range []string{"Fluid-OpenFOAM", "Solid-CalculiX"} {
		adapterPath := filepath.Join(result.OutputDir, dirName, "adapter-config.json")
		if _, err := os.Stat(adapterPath); err != nil {
			t.Errorf("expected %s to exist: %v", adapterPath, err)
		}
		runPath := filepath.Join(result.OutputDir, dirName, "run.sh")
		if info, err := os.Stat(runPath); err != nil {
			t.Errorf("expected %s to exist: %v", runPath, err)
		} else if info.Mode()&0111 == 0 {
			t.Errorf("%s should be executable", runPath)
		}
	}
}

func TestCompilerRunIsRerunnableAgainstTheSameOutputDir(t *testing.T) {
	dir := t.TempDir()
	topologyPath := filepath.Join(dir, "topology.yaml")
	if err := os.WriteFile(topologyPath, []byte(topologyYAML), 0644); err != nil {
		t.Fatal(err)
	}

	c := newTestCompiler(t)
	if _, err := c.Run(topologyPath, dir); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	stalePath := filepath.Join(dir, "_generated", "stale-leftover.txt")
	if err := os.WriteFile(stalePath, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := c.Run(topologyPath, dir)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if _, err := os.Stat(stalePath); !os.IsNotExist(err) {
		t.Error("a second Run should reset the output directory, removing stale content")
	}
	if _, err := os.Stat(filepath.Join(result.OutputDir, "precice-config.xml")); err != nil {
		t.Errorf("expected precice-config.xml after the second Run: %v", err)
	}
}

func TestCompilerRunRejectsInvalidTopology(t *testing.T) {
	dir := t.TempDir()
	topologyPath := filepath.Join(dir, "topology.yaml")
	if err := os.WriteFile(topologyPath, []byte("participants: []\nexchanges: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c := newTestCompiler(t)
	if _, err := c.Run(topologyPath, dir); err == nil {
		t.Fatal("expected Run to fail on a schema-invalid topology (empty participants)")
	}
}
