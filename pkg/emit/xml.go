package emit

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jihwankim/precice-case-generate/pkg/graph"
	"github.com/jihwankim/precice-case-generate/pkg/planner"
)

// extraAttrs renders opaque pass-through attributes (e.g. sync_mode, mode)
// captured verbatim from the topology entry, in sorted key order so output
// stays deterministic regardless of map iteration order.
func extraAttrs(extra map[string]string) []attr {
	if len(extra) == 0 {
		return nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, a(k, extra[k]))
	}
	return attrs
}

// Emitter runs Stage S5: it serializes a graph and coupling plan into
// preCICE XML in the fixed element order of spec.md §4.5.
type Emitter struct {
	LineWrapWidth          int
	AttributeWrapThreshold int

	// MaxTime, TimeWindowSize and MaxIterations are tool-level defaults:
	// the topology format carries no simulation-timing information, so
	// every coupling scheme is emitted with the same configured values.
	MaxTime        float64
	TimeWindowSize float64
	MaxIterations  int
}

// NewEmitter creates an Emitter from the configured layout and timing budgets.
func NewEmitter(lineWrapWidth, attributeWrapThreshold int, maxTime, timeWindowSize float64, maxIterations int) *Emitter {
	return &Emitter{
		LineWrapWidth:          lineWrapWidth,
		AttributeWrapThreshold: attributeWrapThreshold,
		MaxTime:                maxTime,
		TimeWindowSize:         timeWindowSize,
		MaxIterations:          maxIterations,
	}
}

// Emit serializes the graph and coupling plan into a complete
// precice-config.xml document.
func (e *Emitter) Emit(g *graph.Graph, plan *planner.CouplingPlan) (string, error) {
	w := newWriter(e.LineWrapWidth, e.AttributeWrapThreshold)

	w.sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	w.sb.WriteString("\n\n")

	w.open("precice-configuration", nil)
	w.blank()

	e.writeData(w, g)
	w.blank()
	e.writeMeshes(w, g)
	w.blank()
	e.writeParticipants(w, g)
	w.blank()
	e.writeM2Ns(w, g, plan)
	w.blank()
	e.writeSchemes(w, g, plan)

	w.close("precice-configuration")

	return w.String(), nil
}

func (e *Emitter) writeData(w *writer, g *graph.Graph) {
	for _, d := range g.Data.All() {
		w.self("data:"+d.Kind.String(), []attr{a("name", d.Name)}, e.LineWrapWidth)
	}
}

func (e *Emitter) writeMeshes(w *writer, g *graph.Graph) {
	meshes := g.Meshes.All()
	for i := range meshes {
		if i > 0 {
			w.blank()
		}
		m := meshes[i]
		dims := []attr{a("name", m.Name), a("dimensions", strconv.Itoa(m.Dimensions))}

		useData := m.UseData()
		if len(useData) == 0 {
			w.self("mesh", dims, e.LineWrapWidth)
			continue
		}

		w.open("mesh", dims)
		for _, did := range useData {
			d := g.Data.Get(int(did))
			w.self("use-data", []attr{a("name", d.Name)}, e.LineWrapWidth)
		}
		w.close("mesh")
	}
}

func (e *Emitter) writeParticipants(w *writer, g *graph.Graph) {
	participants := g.Participants.All()
	for i := range participants {
		if i > 0 {
			w.blank()
		}
		p := participants[i]
		w.open("participant", append([]attr{a("name", p.Name)}, extraAttrs(p.Extra)...))

		started := false
		group := func() {
			if started {
				w.blank()
			}
			started = true
		}

		if len(p.ProvideMeshes) > 0 {
			group()
			for _, mid := range p.ProvideMeshes {
				m := g.Meshes.Get(int(mid))
				w.self("provide-mesh", []attr{a("name", m.Name)}, e.LineWrapWidth)
			}
		}

		if len(p.ReceiveMeshes) > 0 {
			group()
			for _, rm := range p.ReceiveMeshes {
				m := g.Meshes.Get(int(rm.Mesh))
				from := g.Participants.Get(int(rm.From))
				w.self("receive-mesh", []attr{a("name", m.Name), a("from", from.Name)}, e.LineWrapWidth)
			}
		}

		if len(p.WriteData) > 0 {
			group()
			for _, du := range p.WriteData {
				d := g.Data.Get(int(du.Data))
				m := g.Meshes.Get(int(du.Mesh))
				w.self("write-data", []attr{a("name", d.Name), a("mesh", m.Name)}, e.LineWrapWidth)
			}
		}

		if len(p.ReadData) > 0 {
			group()
			for _, du := range p.ReadData {
				d := g.Data.Get(int(du.Data))
				m := g.Meshes.Get(int(du.Mesh))
				w.self("read-data", []attr{a("name", d.Name), a("mesh", m.Name)}, e.LineWrapWidth)
			}
		}

		if len(p.Mappings) > 0 {
			group()
			for _, mid := range p.Mappings {
				mp := g.Mappings.Get(int(mid))
				fromMesh := g.Meshes.Get(int(mp.From))
				toMesh := g.Meshes.Get(int(mp.To))
				attrs := []attr{
					a("direction", mp.Direction.String()),
					a("from", fromMesh.Name),
					a("to", toMesh.Name),
					a("constraint", mp.Constraint.String()),
				}
				w.self("mapping:"+mp.Method, attrs, e.AttributeWrapThreshold)
			}
		}

		w.close("participant")
	}
}

func (e *Emitter) writeM2Ns(w *writer, g *graph.Graph, plan *planner.CouplingPlan) {
	for _, m := range plan.M2Ns {
		acceptor := g.Participants.Get(int(m.Acceptor))
		connector := g.Participants.Get(int(m.Connector))
		w.self("m2n:"+m.Type, []attr{a("acceptor", acceptor.Name), a("connector", connector.Name)}, e.LineWrapWidth)
	}
}

func (e *Emitter) writeSchemes(w *writer, g *graph.Graph, plan *planner.CouplingPlan) {
	for i, s := range plan.Schemes {
		if i > 0 {
			w.blank()
		}
		e.writeScheme(w, g, s)
	}
}

func (e *Emitter) writeScheme(w *writer, g *graph.Graph, s planner.CouplingScheme) {
	tag := "coupling-scheme:" + s.Kind().String()
	w.open(tag, nil)

	switch sc := s.(type) {
	case *planner.Explicit:
		w.self("participants", []attr{
			a("first", g.Participants.Get(int(sc.First)).Name),
			a("second", g.Participants.Get(int(sc.Second)).Name),
		}, e.LineWrapWidth)
	case *planner.Implicit:
		w.self("participants", []attr{
			a("first", g.Participants.Get(int(sc.First)).Name),
			a("second", g.Participants.Get(int(sc.Second)).Name),
		}, e.LineWrapWidth)
	case *planner.Multi:
		for _, pid := range sc.ParticipantIDs {
			p := g.Participants.Get(int(pid))
			attrs := []attr{a("name", p.Name)}
			if pid == sc.Control {
				attrs = append(attrs, a("control", "true"))
			}
			w.self("participant", attrs, e.LineWrapWidth)
		}
	}

	w.self("max-time", []attr{a("value", formatFloat(e.MaxTime))}, e.LineWrapWidth)
	w.self("time-window-size", []attr{a("value", formatFloat(e.TimeWindowSize))}, e.LineWrapWidth)

	if s.Kind() != planner.KindExplicit {
		w.self("max-iterations", []attr{a("value", fmt.Sprintf("%d", e.MaxIterations))}, e.LineWrapWidth)
	}

	for _, eid := range s.Exchanges() {
		ex := g.Exchanges.Get(int(eid))
		d := g.Data.Get(int(ex.Data))
		m := g.Meshes.Get(int(ex.Mesh))
		from := g.Participants.Get(int(ex.From))
		to := g.Participants.Get(int(ex.To))
		attrs := append([]attr{
			a("data", d.Name), a("mesh", m.Name), a("from", from.Name), a("to", to.Name),
		}, extraAttrs(ex.Extra)...)
		w.self("exchange", attrs, e.LineWrapWidth)
	}

	var acc planner.Acceleration
	var measures []planner.ConvergenceMeasure
	switch sc := s.(type) {
	case *planner.Implicit:
		acc, measures = sc.Acceleration, sc.ConvergenceMeasures
	case *planner.Multi:
		acc, measures = sc.Acceleration, sc.ConvergenceMeasures
	}

	for _, cm := range measures {
		d := g.Data.Get(int(cm.Data))
		m := g.Meshes.Get(int(cm.Mesh))
		w.self("relative-convergence-measure", []attr{
			a("limit", formatFloat(cm.Limit)), a("data", d.Name), a("mesh", m.Name),
		}, e.LineWrapWidth)
	}

	if len(acc.Pairs) > 0 {
		accTag := "acceleration:" + acc.Type
		w.open(accTag, nil)
		for _, pr := range acc.Pairs {
			d := g.Data.Get(int(pr.Data))
			m := g.Meshes.Get(int(pr.Mesh))
			w.self("data", []attr{a("name", d.Name), a("mesh", m.Name)}, e.LineWrapWidth)
		}
		w.close(accTag)
	}

	w.close(tag)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
