package graph_test

import (
	"testing"

	"github.com/jihwankim/precice-case-generate/pkg/config"
	"github.com/jihwankim/precice-case-generate/pkg/diagnostics"
	"github.com/jihwankim/precice-case-generate/pkg/graph"
	"github.com/jihwankim/precice-case-generate/pkg/preprocess"
	"github.com/jihwankim/precice-case-generate/pkg/topology"
)

func build(t *testing.T, topo *topology.Topology) (*graph.Graph, *diagnostics.Sink) {
	t.Helper()
	sink := diagnostics.NewSink()
	classifier := preprocess.NewClassifier(config.DefaultExtensiveVocabulary, config.DefaultIntensiveVocabulary)
	pre := preprocess.NewPreprocessor(classifier).Run(topo, sink)

	pool := topology.NewUniquifierPool(config.DefaultUniquifierPool)
	g, err := graph.NewBuilder(pool).Build(pre, sink)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g, sink
}

// TestMeshNamingSinglePeer exercises scenario S1: a participant with exactly
// one peer gets an unsuffixed mesh name.
func TestMeshNamingSinglePeer(t *testing.T) {
	topo := &topology.Topology{
		Participants: []topology.Participant{{Name: "Fluid", Solver: "OpenFOAM"}, {Name: "Solid", Solver: "CalculiX"}},
		Exchanges: []topology.Exchange{
			{From: "Fluid", To: "Solid", FromPatch: "interface", ToPatch: "interface", Data: "Force", Type: topology.StrengthStrong},
			{From: "Solid", To: "Fluid", FromPatch: "interface", ToPatch: "interface", Data: "Displacement", Type: topology.StrengthStrong},
		},
	}
	g, _ := build(t, topo)

	var names []string
	for _, m := range g.Meshes.All() {
		names = append(names, m.Name)
	}
	for _, want := range []string{"Fluid-Mesh", "Solid-Mesh"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected mesh %q among %v", want, names)
		}
	}
}

// TestMeshNamingMultiPeer exercises the multi-peer mesh-naming rule: a
// participant with more than one peer gets peer-suffixed mesh names.
func TestMeshNamingMultiPeer(t *testing.T) {
	topo := &topology.Topology{
		Participants: []topology.Participant{
			{Name: "Hub", Solver: "SolverA"},
			{Name: "Left", Solver: "SolverB"},
			{Name: "Right", Solver: "SolverC"},
		},
		Exchanges: []topology.Exchange{
			{From: "Hub", To: "Left", FromPatch: "left-face", ToPatch: "hub-face", Data: "Force", Type: topology.StrengthStrong},
			{From: "Left", To: "Hub", FromPatch: "hub-face", ToPatch: "left-face", Data: "Displacement", Type: topology.StrengthStrong},
			{From: "Hub", To: "Right", FromPatch: "right-face", ToPatch: "hub-face", Data: "Force", Type: topology.StrengthStrong},
			{From: "Right", To: "Hub", FromPatch: "hub-face", ToPatch: "right-face", Data: "Displacement", Type: topology.StrengthStrong},
		},
	}
	g, _ := build(t, topo)

	var names []string
	for _, m := range g.Meshes.All() {
		names = append(names, m.Name)
	}
	for _, want := range []string{"Hub-Left-Mesh", "Hub-Right-Mesh"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected mesh %q among %v (Hub has two peers)", want, names)
		}
	}
}

// TestBidirectionalDataRename exercises scenario S5: the same data name
// flowing in both directions between a pair is renamed using the
// uniquifier pool rather than colliding.
func TestBidirectionalDataRename(t *testing.T) {
	topo := &topology.Topology{
		Participants: []topology.Participant{{Name: "A"}, {Name: "B"}},
		Exchanges: []topology.Exchange{
			{From: "A", To: "B", FromPatch: "pa", ToPatch: "pb", Data: "Temperature", Type: topology.StrengthWeak},
			{From: "B", To: "A", FromPatch: "pb", ToPatch: "pa", Data: "Temperature", Type: topology.StrengthWeak},
		},
	}
	g, sink := build(t, topo)

	if !sink.HasWarnings() {
		t.Fatal("bidirectional same-name data exchange should warn")
	}

	var names []string
	for _, d := range g.Data.All() {
		names = append(names, d.Name)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 distinct data nodes, got %v", names)
	}
	if names[0] == names[1] {
		t.Errorf("bidirectional data should be renamed distinctly, got %v twice", names[0])
	}
}

// TestDataTypeEscalation exercises scenario S6: a data name declared scalar
// in one exchange and vector in another escalates to vector everywhere.
func TestDataTypeEscalation(t *testing.T) {
	topo := &topology.Topology{
		Participants: []topology.Participant{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		Exchanges: []topology.Exchange{
			{From: "A", To: "B", FromPatch: "p1", ToPatch: "p2", Data: "Velocity", Type: topology.StrengthWeak, DataType: topology.DataTypeScalar},
			{From: "A", To: "C", FromPatch: "p1", ToPatch: "p3", Data: "Velocity", Type: topology.StrengthWeak, DataType: topology.DataTypeVector},
		},
	}
	g, sink := build(t, topo)

	if !sink.HasWarnings() {
		t.Fatal("conflicting data types for the same name should warn")
	}

	found := false
	for _, d := range g.Data.All() {
		if d.Name == "Velocity" {
			found = true
			if d.Kind != graph.Vector {
				t.Errorf("Velocity kind = %v, want Vector after escalation", d.Kind)
			}
		}
	}
	if !found {
		t.Fatal("expected a Velocity data node")
	}
}

// TestMappingConstraintByLabel exercises the extensive/intensive -> write
// conservative / read consistent mapping rule.
func TestMappingConstraintByLabel(t *testing.T) {
	topo := &topology.Topology{
		Participants: []topology.Participant{{Name: "Fluid", Solver: "OpenFOAM"}, {Name: "Solid", Solver: "CalculiX"}},
		Exchanges: []topology.Exchange{
			{From: "Solid", To: "Fluid", FromPatch: "s", ToPatch: "f", Data: "Displacement", Type: topology.StrengthStrong},
			{From: "Fluid", To: "Solid", FromPatch: "f", ToPatch: "s", Data: "Force", Type: topology.StrengthStrong},
		},
	}
	g, _ := build(t, topo)

	if g.Mappings.Len() != 2 {
		t.Fatalf("expected 2 mappings, got %d", g.Mappings.Len())
	}
	for _, m := range g.Mappings.All() {
		switch m.Direction {
		case graph.Write:
			if m.Constraint != graph.Conservative {
				t.Errorf("write mapping constraint = %v, want Conservative", m.Constraint)
			}
		case graph.Read:
			if m.Constraint != graph.Consistent {
				t.Errorf("read mapping constraint = %v, want Consistent", m.Constraint)
			}
		}
		if m.Method != graph.MappingMethod {
			t.Errorf("mapping method = %q, want %q", m.Method, graph.MappingMethod)
		}
	}
}

func TestParticipantExtraPassthrough(t *testing.T) {
	topo := &topology.Topology{
		Participants: []topology.Participant{
			{Name: "A", Solver: "SolverA", Extra: map[string]string{"sync-mode": "true"}},
			{Name: "B", Solver: "SolverB"},
		},
		Exchanges: []topology.Exchange{
			{From: "A", To: "B", FromPatch: "p1", ToPatch: "p2", Data: "Pressure", Type: topology.StrengthWeak},
		},
	}
	g, _ := build(t, topo)

	id, ok := g.ParticipantByName("A")
	if !ok {
		t.Fatal("expected participant A")
	}
	p := g.Participants.Get(int(id))
	if p.Extra["sync-mode"] != "true" {
		t.Errorf("Extra[sync-mode] = %q, want true", p.Extra["sync-mode"])
	}
}
