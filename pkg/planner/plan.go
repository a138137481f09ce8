// Package planner implements Stage S4, the Coupling Planner: it partitions
// exchanges into coupling schemes (explicit, implicit, multi), elects a
// control participant for multi-coupling, attaches an IQN-ILS acceleration
// and convergence measures to any implicit/multi scheme, and synthesizes the
// M2N connectivity between participants (spec.md §4.4).
package planner

import (
	"sort"

	"github.com/jihwankim/precice-case-generate/pkg/graph"
)

// SchemeKind identifies which CouplingScheme variant a scheme is.
type SchemeKind int

const (
	KindExplicit SchemeKind = iota
	KindImplicit
	KindMulti
)

func (k SchemeKind) String() string {
	switch k {
	case KindImplicit:
		return "parallel-implicit"
	case KindMulti:
		return "multi"
	default:
		return "parallel-explicit"
	}
}

// AccelerationIQNILS is the only acceleration type this planner emits.
const AccelerationIQNILS = "IQN-ILS"

// M2NTypeSockets is the only M2N transport type this planner emits.
const M2NTypeSockets = "sockets"

// DataMeshPair is a (data, mesh) pair exchanged under an implicit or multi
// scheme; acceleration and convergence measures are keyed on these.
type DataMeshPair struct {
	Data graph.DataID
	Mesh graph.MeshID
}

// ConvergenceMeasure is one relative-convergence-measure entry.
type ConvergenceMeasure struct {
	DataMeshPair
	Limit float64
}

// Acceleration is attached to implicit and multi schemes only; it is
// structurally unreachable on Explicit (spec.md §9).
type Acceleration struct {
	Type  string
	Pairs []DataMeshPair
}

// CouplingScheme is the tagged-variant interface implemented by Explicit,
// Implicit, and Multi.
type CouplingScheme interface {
	Kind() SchemeKind
	Participants() []graph.ParticipantID
	Exchanges() []graph.ExchangeID

	attach(id graph.ExchangeID)
}

// Explicit is a ParallelExplicit scheme between exactly two participants.
type Explicit struct {
	First, Second graph.ParticipantID
	ExchangeIDs   []graph.ExchangeID
}

func (s *Explicit) Kind() SchemeKind                      { return KindExplicit }
func (s *Explicit) Participants() []graph.ParticipantID   { return []graph.ParticipantID{s.First, s.Second} }
func (s *Explicit) Exchanges() []graph.ExchangeID         { return s.ExchangeIDs }
func (s *Explicit) attach(id graph.ExchangeID)            { s.ExchangeIDs = append(s.ExchangeIDs, id) }

// Implicit is a ParallelImplicit scheme for the sole bidirectional-strong
// pair in the topology.
type Implicit struct {
	First, Second       graph.ParticipantID
	ExchangeIDs         []graph.ExchangeID
	Acceleration        Acceleration
	ConvergenceMeasures []ConvergenceMeasure
}

func (s *Implicit) Kind() SchemeKind                    { return KindImplicit }
func (s *Implicit) Participants() []graph.ParticipantID { return []graph.ParticipantID{s.First, s.Second} }
func (s *Implicit) Exchanges() []graph.ExchangeID       { return s.ExchangeIDs }
func (s *Implicit) attach(id graph.ExchangeID)          { s.ExchangeIDs = append(s.ExchangeIDs, id) }

// Multi is a multi-coupling scheme coordinated by a control participant,
// created when two or more bidirectional-strong pairs exist.
type Multi struct {
	Control             graph.ParticipantID
	ParticipantIDs       []graph.ParticipantID
	ExchangeIDs          []graph.ExchangeID
	Acceleration         Acceleration
	ConvergenceMeasures  []ConvergenceMeasure
}

func (s *Multi) Kind() SchemeKind                    { return KindMulti }
func (s *Multi) Participants() []graph.ParticipantID { return s.ParticipantIDs }
func (s *Multi) Exchanges() []graph.ExchangeID       { return s.ExchangeIDs }
func (s *Multi) attach(id graph.ExchangeID)          { s.ExchangeIDs = append(s.ExchangeIDs, id) }

// M2N is a process-to-process transport binding between two participants.
type M2N struct {
	Acceptor, Connector graph.ParticipantID
	Type                string
}

// CouplingPlan is Stage S4's complete output.
type CouplingPlan struct {
	Schemes []CouplingScheme
	M2Ns    []M2N
}

// Planner runs Stage S4.
type Planner struct {
	// ConvergenceLimit is the default limit applied to every
	// relative-convergence-measure this planner creates.
	ConvergenceLimit float64
}

// NewPlanner creates a Planner using the given default convergence limit.
func NewPlanner(convergenceLimit float64) *Planner {
	return &Planner{ConvergenceLimit: convergenceLimit}
}

// pairKey is an unordered participant pair, used for bi_pairs membership and
// M2N deduplication.
type pairKey struct{ a, b graph.ParticipantID }

func canonicalPair(x, y graph.ParticipantID) pairKey {
	if x <= y {
		return pairKey{x, y}
	}
	return pairKey{y, x}
}

// directedPairKey is an ordered participant pair, used to detect A->B /
// B->A bidirectionality among strong exchanges.
type directedPairKey struct{ from, to graph.ParticipantID }

// Plan implements spec.md §4.4. The planner is total: any well-formed graph
// (including one with zero exchanges) yields a plan, never an error.
func (p *Planner) Plan(g *graph.Graph) (*CouplingPlan, error) {
	exchanges := g.Exchanges.All()

	var strongIdx, weakIdx []int
	for i, ex := range exchanges {
		if ex.Strong {
			strongIdx = append(strongIdx, i)
		} else {
			weakIdx = append(weakIdx, i)
		}
	}

	directedStrong := make(map[directedPairKey][]int)
	for _, i := range strongIdx {
		ex := exchanges[i]
		key := directedPairKey{ex.From, ex.To}
		directedStrong[key] = append(directedStrong[key], i)
	}

	biPairs := make(map[pairKey]bool)
	for key := range directedStrong {
		rev := directedPairKey{key.to, key.from}
		if _, ok := directedStrong[rev]; ok {
			biPairs[canonicalPair(key.from, key.to)] = true
		}
	}

	var strongBi, strongUni []int
	for _, i := range strongIdx {
		ex := exchanges[i]
		if biPairs[canonicalPair(ex.From, ex.To)] {
			strongBi = append(strongBi, i)
		} else {
			strongUni = append(strongUni, i)
		}
	}

	var implicitScheme CouplingScheme
	var implicitParticipants map[graph.ParticipantID]bool

	switch {
	case len(biPairs) == 0:
		weakIdx = append(weakIdx, strongUni...)
		sort.Ints(weakIdx)
		strongUni = nil

	case len(biPairs) == 1:
		var pk pairKey
		for k := range biPairs {
			pk = k
		}
		first, second := pk.a, pk.b
		for _, i := range strongBi {
			ex := exchanges[i]
			if canonicalPair(ex.From, ex.To) == pk {
				first, second = ex.From, ex.To
				break
			}
		}
		implicitScheme = &Implicit{First: first, Second: second}
		implicitParticipants = map[graph.ParticipantID]bool{first: true, second: true}

	default:
		participantSet := make(map[graph.ParticipantID]bool)
		for pk := range biPairs {
			participantSet[pk.a] = true
			participantSet[pk.b] = true
		}

		var ordered []graph.ParticipantID
		for id := 0; id < g.Participants.Len(); id++ {
			pid := graph.ParticipantID(id)
			if participantSet[pid] {
				ordered = append(ordered, pid)
			}
		}

		counts := make(map[graph.ParticipantID]int)
		for _, i := range strongBi {
			ex := exchanges[i]
			counts[ex.From]++
			counts[ex.To]++
		}

		control := ordered[0]
		best := counts[control]
		for _, pid := range ordered[1:] {
			if counts[pid] > best {
				control = pid
				best = counts[pid]
			}
		}

		implicitScheme = &Multi{Control: control, ParticipantIDs: ordered}
		implicitParticipants = participantSet
	}

	if implicitScheme != nil {
		for _, i := range strongBi {
			implicitScheme.attach(graph.ExchangeID(i))
		}
	}

	absorb := func(indices []int) []int {
		if implicitScheme == nil {
			return indices
		}
		var remaining []int
		for _, i := range indices {
			ex := exchanges[i]
			if implicitParticipants[ex.From] && implicitParticipants[ex.To] {
				implicitScheme.attach(graph.ExchangeID(i))
			} else {
				remaining = append(remaining, i)
			}
		}
		return remaining
	}
	strongUni = absorb(strongUni)
	weakIdx = absorb(weakIdx)

	remaining := append(append([]int{}, strongUni...), weakIdx...)
	sort.Ints(remaining)

	var schemes []CouplingScheme
	if implicitScheme != nil {
		schemes = append(schemes, implicitScheme)
	}

	explicitByPair := make(map[pairKey]*Explicit)
	for _, i := range remaining {
		ex := exchanges[i]
		pk := canonicalPair(ex.From, ex.To)
		s, ok := explicitByPair[pk]
		if !ok {
			s = &Explicit{First: ex.From, Second: ex.To}
			explicitByPair[pk] = s
			schemes = append(schemes, s)
		}
		s.attach(graph.ExchangeID(i))
	}

	if implicitScheme != nil {
		pairs := uniqueDataMeshPairs(exchanges, implicitScheme.Exchanges())
		acc := Acceleration{Type: AccelerationIQNILS, Pairs: pairs}
		measures := make([]ConvergenceMeasure, 0, len(pairs))
		for _, pr := range pairs {
			measures = append(measures, ConvergenceMeasure{DataMeshPair: pr, Limit: p.ConvergenceLimit})
		}
		switch s := implicitScheme.(type) {
		case *Implicit:
			s.Acceleration = acc
			s.ConvergenceMeasures = measures
		case *Multi:
			s.Acceleration = acc
			s.ConvergenceMeasures = measures
		}
	}

	m2nSeen := make(map[pairKey]bool)
	var m2ns []M2N
	addM2N := func(acceptor, connector graph.ParticipantID) {
		pk := canonicalPair(acceptor, connector)
		if m2nSeen[pk] {
			return
		}
		m2nSeen[pk] = true
		m2ns = append(m2ns, M2N{Acceptor: acceptor, Connector: connector, Type: M2NTypeSockets})
	}

	for _, s := range schemes {
		switch sc := s.(type) {
		case *Explicit:
			addM2N(sc.First, sc.Second)
		case *Implicit:
			addM2N(sc.First, sc.Second)
		case *Multi:
			for _, pid := range sc.ParticipantIDs {
				if pid == sc.Control {
					continue
				}
				addM2N(sc.Control, pid)
			}
			for _, id := range sc.Exchanges() {
				ex := exchanges[id]
				addM2N(ex.From, ex.To)
			}
		}
	}

	return &CouplingPlan{Schemes: schemes, M2Ns: m2ns}, nil
}

// uniqueDataMeshPairs collects the (data, mesh) pairs carried by the given
// exchanges, deduplicated and in first-occurrence order.
func uniqueDataMeshPairs(exchanges []graph.Exchange, ids []graph.ExchangeID) []DataMeshPair {
	seen := make(map[DataMeshPair]bool)
	var out []DataMeshPair
	for _, id := range ids {
		ex := exchanges[id]
		pr := DataMeshPair{Data: ex.Data, Mesh: ex.Mesh}
		if seen[pr] {
			continue
		}
		seen[pr] = true
		out = append(out, pr)
	}
	return out
}
