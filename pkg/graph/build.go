package graph

import (
	"sort"
	"strings"

	"github.com/jihwankim/precice-case-generate/pkg/diagnostics"
	"github.com/jihwankim/precice-case-generate/pkg/preprocess"
	"github.com/jihwankim/precice-case-generate/pkg/topology"
)

// Builder runs Stage S3, turning a preprocessed topology into a Graph.
type Builder struct {
	Pool *topology.UniquifierPool
}

// NewBuilder creates a Builder that draws rename adjectives from pool.
func NewBuilder(pool *topology.UniquifierPool) *Builder {
	return &Builder{Pool: pool}
}

// Build materializes participants, data, meshes, mappings, receive-meshes,
// write/read-data entries, and exchanges, per spec.md §4.3.
func (b *Builder) Build(r *preprocess.Result, sink *diagnostics.Sink) (*Graph, error) {
	g := NewGraph()

	b.buildParticipants(g, r.Topology, sink)

	meshByPairLabel, err := b.buildMeshes(g, r)
	if err != nil {
		return nil, err
	}

	if err := b.buildDataMappingsAndExchanges(g, r, meshByPairLabel, sink); err != nil {
		return nil, err
	}

	return g, nil
}

// buildParticipants creates one Participant node per topology entry,
// clamping dimensionality to {2,3} and warning on any other supplied value.
func (b *Builder) buildParticipants(g *Graph, t *topology.Topology, sink *diagnostics.Sink) {
	for _, p := range t.Participants {
		dim := p.Dimensionality
		if dim != 2 && dim != 3 {
			if dim != 0 {
				sink.Warn("participant %q has invalid dimensionality %d; defaulting to 3", p.Name, dim)
			}
			dim = 3
		}

		id := ParticipantID(g.Participants.Add(Participant{
			Name:           p.Name,
			SolverName:     p.Solver,
			Dimensionality: dim,
			Extra:          p.Extra,
		}))
		g.NameToParticipant[p.Name] = id
	}
}

// buildMeshes synthesizes meshes from the preprocessor's pair-label map,
// returning the mesh assigned to each (ordered pair, label) combination.
func (b *Builder) buildMeshes(g *Graph, r *preprocess.Result) (map[preprocess.PairKey]map[preprocess.Label]MeshID, error) {
	peerCount := make(map[string]map[string]bool)
	for key := range r.PairPatches {
		if peerCount[key.From] == nil {
			peerCount[key.From] = make(map[string]bool)
		}
		peerCount[key.From][key.To] = true
	}

	keys := make([]preprocess.PairKey, 0, len(r.PairPatches))
	for k := range r.PairPatches {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].To < keys[j].To
	})

	result := make(map[preprocess.PairKey]map[preprocess.Label]MeshID, len(keys))

	for _, key := range keys {
		set := r.PairPatches[key]

		fromID, ok := g.NameToParticipant[key.From]
		if !ok {
			return nil, diagnostics.NewInvalidInput("exchange references unknown participant %q", key.From)
		}
		fromP := g.Participants.Get(int(fromID))

		base := key.From
		if len(peerCount[key.From]) > 1 {
			base = key.From + "-" + key.To
		}

		result[key] = make(map[preprocess.Label]MeshID)

		hasExtensive := len(set.Extensive) > 0
		hasIntensive := len(set.Intensive) > 0

		addMesh := func(suffix string, label preprocess.Label, patches []string) {
			meshID := MeshID(g.Meshes.Add(Mesh{
				Name:       base + suffix,
				Dimensions: fromP.Dimensionality,
				ProvidedBy: fromID,
				Patches:    append([]string(nil), patches...),
			}))
			result[key][label] = meshID
			fromP.ProvideMeshes = append(fromP.ProvideMeshes, meshID)
		}

		switch {
		case hasExtensive && hasIntensive:
			addMesh("-Extensive-Mesh", preprocess.Extensive, set.Extensive)
			addMesh("-Intensive-Mesh", preprocess.Intensive, set.Intensive)
		case hasExtensive:
			addMesh("-Mesh", preprocess.Extensive, set.Extensive)
		case hasIntensive:
			addMesh("-Mesh", preprocess.Intensive, set.Intensive)
		}

		g.Participants.Set(int(fromID), fromP)
	}

	return result, nil
}

// directedDataKey identifies a data name as used on one ordered participant
// pair, for the reuse/rename/escalate resolution of spec.md §4.3.
type directedDataKey struct {
	from, to, name string
}

// dataUseKey identifies a (participant, data, mesh) write/read-data entry
// for deduplication.
type dataUseKey struct {
	participant ParticipantID
	data        DataID
	mesh        MeshID
}

// buildDataMappingsAndExchanges resolves each exchange's Data node, its
// mapping, its receive-mesh entries, its write/read-data entries, and its
// Exchange node, iterating exchanges in file order.
func (b *Builder) buildDataMappingsAndExchanges(
	g *Graph,
	r *preprocess.Result,
	meshByPairLabel map[preprocess.PairKey]map[preprocess.Label]MeshID,
	sink *diagnostics.Sink,
) error {
	dataByName := make(map[string]DataID)
	directionUse := make(map[directedDataKey]DataID)

	type meshPairKey struct{ from, to MeshID }
	mappingByMeshPair := make(map[meshPairKey]MappingID)
	mappingOwnerSeen := make(map[struct {
		participant ParticipantID
		mapping     MappingID
	}]bool)

	receiveMeshSeen := make(map[receiveMeshKey]bool)
	writeDataSeen := make(map[dataUseKey]bool)
	readDataSeen := make(map[dataUseKey]bool)

	for i, ex := range r.Topology.Exchanges {
		label := r.ExchangeLabels[i]

		dataID, err := b.resolveData(g, dataByName, directionUse, ex, sink)
		if err != nil {
			return err
		}

		fromID := g.NameToParticipant[ex.From]
		toID := g.NameToParticipant[ex.To]

		fromMeshID, ok := meshByPairLabel[preprocess.PairKey{From: ex.From, To: ex.To}][label]
		if !ok {
			return diagnostics.NewInvalidInput("no mesh resolved for %s -> %s (from-patch %q)", ex.From, ex.To, ex.FromPatch)
		}
		toMeshID, ok := meshByPairLabel[preprocess.PairKey{From: ex.To, To: ex.From}][label]
		if !ok {
			return diagnostics.NewInvalidInput("no mesh resolved for %s -> %s (to-patch %q)", ex.To, ex.From, ex.ToPatch)
		}

		mpKey := meshPairKey{from: fromMeshID, to: toMeshID}
		mappingID, exists := mappingByMeshPair[mpKey]
		if !exists {
			var m Mapping
			if label == preprocess.Extensive {
				m = Mapping{
					Parent:     fromID,
					Direction:  Write,
					From:       fromMeshID,
					To:         toMeshID,
					Constraint: Conservative,
					Method:     MappingMethod,
				}
			} else {
				m = Mapping{
					Parent:     toID,
					Direction:  Read,
					From:       fromMeshID,
					To:         toMeshID,
					Constraint: Consistent,
					Method:     MappingMethod,
				}
			}
			mappingID = MappingID(g.Mappings.Add(m))
			mappingByMeshPair[mpKey] = mappingID
		}
		ownerID := fromID
		if label != preprocess.Extensive {
			ownerID = toID
		}
		ownerKey := struct {
			participant ParticipantID
			mapping     MappingID
		}{ownerID, mappingID}
		if !mappingOwnerSeen[ownerKey] {
			mappingOwnerSeen[ownerKey] = true
			owner := g.Participants.Get(int(ownerID))
			owner.Mappings = append(owner.Mappings, mappingID)
			g.Participants.Set(int(ownerID), owner)
		}

		if label == preprocess.Extensive {
			b.addReceiveMesh(g, receiveMeshSeen, fromID, toMeshID, toID)
		} else {
			b.addReceiveMesh(g, receiveMeshSeen, toID, fromMeshID, fromID)
		}

		fromMesh := g.Meshes.Get(int(fromMeshID))
		fromMesh.AddUseData(dataID)
		g.Meshes.Set(int(fromMeshID), fromMesh)

		toMesh := g.Meshes.Get(int(toMeshID))
		toMesh.AddUseData(dataID)
		g.Meshes.Set(int(toMeshID), toMesh)

		b.addWriteData(g, writeDataSeen, fromID, dataID, fromMeshID)
		b.addReadData(g, readDataSeen, toID, dataID, toMeshID)

		exchangeMesh := toMeshID
		if label != preprocess.Extensive {
			exchangeMesh = fromMeshID
		}
		g.Exchanges.Add(Exchange{
			Data:   dataID,
			Mesh:   exchangeMesh,
			From:   fromID,
			To:     toID,
			Strong: ex.IsStrong(),
			Extra:  ex.Extra,
		})
	}

	return nil
}

// resolveData implements the Data-node resolution rules of spec.md §4.3:
// new name, same-pair reuse, reverse-pair rename, and type escalation.
func (b *Builder) resolveData(
	g *Graph,
	dataByName map[string]DataID,
	directionUse map[directedDataKey]DataID,
	ex topology.Exchange,
	sink *diagnostics.Sink,
) (DataID, error) {
	name := ex.Data
	wantKind := Scalar
	if ex.ResolvedDataType() == topology.DataTypeVector {
		wantKind = Vector
	}

	key := directedDataKey{ex.From, ex.To, name}
	if id, ok := directionUse[key]; ok {
		b.escalate(g, id, wantKind, name, sink)
		return id, nil
	}

	if _, known := dataByName[name]; !known {
		id := DataID(g.Data.Add(Data{Name: capitalize(name), Kind: wantKind}))
		dataByName[name] = id
		directionUse[key] = id
		return id, nil
	}

	revKey := directedDataKey{ex.To, ex.From, name}
	if _, reverseUsed := directionUse[revKey]; reverseUsed {
		adjective, ok := b.Pool.Take()
		if !ok {
			return 0, diagnostics.NewInvalidInput(
				"uniquifier pool exhausted while resolving bidirectional data name %q between %q and %q", name, ex.From, ex.To)
		}
		newName := adjective + "-" + capitalize(name)
		id := DataID(g.Data.Add(Data{Name: newName, Kind: wantKind}))
		sink.Warn("data %q is exchanged in both directions between %q and %q; renamed %s->%s exchange's data to %q",
			name, ex.From, ex.To, ex.From, ex.To, newName)
		directionUse[key] = id
		return id, nil
	}

	id := dataByName[name]
	b.escalate(g, id, wantKind, name, sink)
	directionUse[key] = id
	return id, nil
}

// escalate upgrades a Data node's Kind to Vector if wantKind disagrees with
// its current stored kind, warning once.
func (b *Builder) escalate(g *Graph, id DataID, wantKind DataKind, name string, sink *diagnostics.Sink) {
	d := g.Data.Get(int(id))
	if wantKind == Vector && d.Kind == Scalar {
		d.Kind = Vector
		g.Data.Set(int(id), d)
		sink.Warn("data %q declared with conflicting types; escalated to vector", name)
	}
}

type receiveMeshKey struct {
	participant ParticipantID
	mesh        MeshID
}

func (b *Builder) addReceiveMesh(g *Graph, seen map[receiveMeshKey]bool, participant ParticipantID, mesh MeshID, from ParticipantID) {
	key := receiveMeshKey{participant, mesh}
	if seen[key] {
		return
	}
	seen[key] = true
	p := g.Participants.Get(int(participant))
	p.ReceiveMeshes = append(p.ReceiveMeshes, ReceiveMesh{Mesh: mesh, From: from})
	g.Participants.Set(int(participant), p)
}

func (b *Builder) addWriteData(g *Graph, seen map[dataUseKey]bool, participant ParticipantID, data DataID, mesh MeshID) {
	key := dataUseKey{participant, data, mesh}
	if seen[key] {
		return
	}
	seen[key] = true
	p := g.Participants.Get(int(participant))
	p.WriteData = append(p.WriteData, DataUse{Data: data, Mesh: mesh})
	g.Participants.Set(int(participant), p)
}

func (b *Builder) addReadData(g *Graph, seen map[dataUseKey]bool, participant ParticipantID, data DataID, mesh MeshID) {
	key := dataUseKey{participant, data, mesh}
	if seen[key] {
		return
	}
	seen[key] = true
	p := g.Participants.Get(int(participant))
	p.ReadData = append(p.ReadData, DataUse{Data: data, Mesh: mesh})
	g.Participants.Set(int(participant), p)
}

// capitalize upper-cases the first rune of name, leaving the rest untouched.
func capitalize(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
