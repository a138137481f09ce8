package emit_test

import (
	"strings"
	"testing"

	"github.com/jihwankim/precice-case-generate/pkg/config"
	"github.com/jihwankim/precice-case-generate/pkg/diagnostics"
	"github.com/jihwankim/precice-case-generate/pkg/emit"
	"github.com/jihwankim/precice-case-generate/pkg/graph"
	"github.com/jihwankim/precice-case-generate/pkg/planner"
	"github.com/jihwankim/precice-case-generate/pkg/preprocess"
	"github.com/jihwankim/precice-case-generate/pkg/topology"
)

func compile(t *testing.T, topo *topology.Topology) string {
	t.Helper()
	sink := diagnostics.NewSink()
	classifier := preprocess.NewClassifier(config.DefaultExtensiveVocabulary, config.DefaultIntensiveVocabulary)
	pre := preprocess.NewPreprocessor(classifier).Run(topo, sink)

	pool := topology.NewUniquifierPool(config.DefaultUniquifierPool)
	g, err := graph.NewBuilder(pool).Build(pre, sink)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	plan, err := planner.NewPlanner(1e-4).Plan(g)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	xml, err := emit.NewEmitter(120, 80, 10.0, 0.1, 100).Emit(g, plan)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	return xml
}

func fluidSolidTopology() *topology.Topology {
	return &topology.Topology{
		Participants: []topology.Participant{
			{Name: "Fluid", Solver: "OpenFOAM", Dimensionality: 3},
			{Name: "Solid", Solver: "CalculiX", Dimensionality: 3},
		},
		Exchanges: []topology.Exchange{
			{From: "Solid", To: "Fluid", FromPatch: "interface", ToPatch: "interface", Data: "Displacement", Type: topology.StrengthStrong},
			{From: "Fluid", To: "Solid", FromPatch: "interface", ToPatch: "interface", Data: "Temperature", Type: topology.StrengthStrong},
		},
	}
}

// TestEmitElementOrder exercises scenario S1: the emitted document's
// top-level element blocks appear in the fixed order data, mesh,
// participant, m2n, coupling-scheme.
func TestEmitElementOrder(t *testing.T) {
	xml := compile(t, fluidSolidTopology())

	order := []string{"<data:", "<mesh", "<participant", "<m2n:", "<coupling-scheme:"}
	last := -1
	for _, tag := range order {
		idx := strings.Index(xml, tag)
		if idx == -1 {
			t.Fatalf("expected tag %q in output:\n%s", tag, xml)
		}
		if idx < last {
			t.Errorf("tag %q appeared out of order", tag)
		}
		last = idx
	}

	if !strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("missing XML declaration")
	}
	if !strings.Contains(xml, "<precice-configuration>") || !strings.Contains(xml, "</precice-configuration>") {
		t.Error("missing root element")
	}
}

func TestEmitMappingConstraints(t *testing.T) {
	xml := compile(t, fluidSolidTopology())

	if !strings.Contains(xml, `constraint="conservative"`) {
		t.Error("expected a conservative (write/extensive) mapping")
	}
	if !strings.Contains(xml, `constraint="consistent"`) {
		t.Error("expected a consistent (read/intensive) mapping")
	}
}

func TestEmitImplicitSchemeHasAccelerationAndConvergence(t *testing.T) {
	xml := compile(t, fluidSolidTopology())

	if !strings.Contains(xml, "coupling-scheme:parallel-implicit") {
		t.Fatalf("expected a parallel-implicit scheme, got:\n%s", xml)
	}
	if !strings.Contains(xml, "acceleration:IQN-ILS") {
		t.Error("expected IQN-ILS acceleration block")
	}
	if !strings.Contains(xml, "relative-convergence-measure") {
		t.Error("expected a relative-convergence-measure")
	}
	if !strings.Contains(xml, "max-iterations") {
		t.Error("implicit scheme should carry max-iterations")
	}
}

func TestEmitExplicitSchemeHasNoAccelerationOrMaxIterations(t *testing.T) {
	topo := &topology.Topology{
		Participants: []topology.Participant{{Name: "A", Solver: "SA"}, {Name: "B", Solver: "SB"}},
		Exchanges: []topology.Exchange{
			{From: "A", To: "B", FromPatch: "p1", ToPatch: "p2", Data: "Pressure", Type: topology.StrengthWeak},
		},
	}
	xml := compile(t, topo)

	if !strings.Contains(xml, "coupling-scheme:parallel-explicit") {
		t.Fatalf("expected a parallel-explicit scheme, got:\n%s", xml)
	}
	if strings.Contains(xml, "acceleration:") {
		t.Error("explicit scheme must not carry an acceleration block")
	}
	if strings.Contains(xml, "max-iterations") {
		t.Error("explicit scheme must not carry max-iterations")
	}
}

// TestEmitAttributeWrapping exercises the attribute-wrap threshold: a
// mapping element (wrapped at AttributeWrapThreshold, much lower than
// LineWrapWidth) whose inline rendering exceeds the threshold must wrap one
// attribute per line.
func TestEmitAttributeWrapping(t *testing.T) {
	xml := compile(t, fluidSolidTopology())

	if !strings.Contains(xml, "<mapping:nearest-neighbor\n") {
		t.Errorf("expected a wrapped mapping:nearest-neighbor element, got:\n%s", xml)
	}
}

func TestEmitExtraAttributesPassthroughSorted(t *testing.T) {
	topo := &topology.Topology{
		Participants: []topology.Participant{
			{Name: "A", Solver: "SA", Extra: map[string]string{"sync-mode": "true", "mode": "implicit"}},
			{Name: "B", Solver: "SB"},
		},
		Exchanges: []topology.Exchange{
			{From: "A", To: "B", FromPatch: "p1", ToPatch: "p2", Data: "Pressure", Type: topology.StrengthWeak},
		},
	}
	xml := compile(t, topo)

	modeIdx := strings.Index(xml, `mode="implicit"`)
	syncIdx := strings.Index(xml, `sync-mode="true"`)
	if modeIdx == -1 || syncIdx == -1 {
		t.Fatalf("expected both extra attributes in output:\n%s", xml)
	}
	if modeIdx > syncIdx {
		t.Error("extra attributes should be rendered in sorted key order (mode before sync-mode)")
	}
}
