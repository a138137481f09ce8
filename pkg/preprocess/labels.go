// Package preprocess implements Stage S2, the Patch Preprocessor: it labels
// every patch as extensive or intensive, splits patches used under both
// labels, and builds the per-participant-pair patch-set map the Graph
// Builder needs to synthesize meshes.
package preprocess

import (
	"sort"
	"strings"

	"github.com/jihwankim/precice-case-generate/pkg/diagnostics"
	"github.com/jihwankim/precice-case-generate/pkg/topology"
)

// Label is the thermodynamic quality of an exchanged data field.
type Label int

const (
	Intensive Label = iota
	Extensive
)

func (l Label) String() string {
	if l == Extensive {
		return "Extensive"
	}
	return "Intensive"
}

// Classifier classifies a data name by fixed substring vocabularies.
type Classifier struct {
	ExtensiveVocabulary []string
	IntensiveVocabulary []string
}

// NewClassifier builds a Classifier from the tool's configured vocabularies.
func NewClassifier(extensive, intensive []string) *Classifier {
	return &Classifier{ExtensiveVocabulary: extensive, IntensiveVocabulary: intensive}
}

// Classify labels a data name, defaulting to Intensive (with a warning
// appended to sink) when neither vocabulary matches.
func (c *Classifier) Classify(dataName string, sink *diagnostics.Sink) Label {
	lower := strings.ToLower(dataName)

	for _, word := range c.ExtensiveVocabulary {
		if strings.Contains(lower, word) {
			return Extensive
		}
	}
	for _, word := range c.IntensiveVocabulary {
		if strings.Contains(lower, word) {
			return Intensive
		}
	}

	sink.Warn("data %q matches neither extensive nor intensive vocabulary; defaulting to intensive", dataName)
	return Intensive
}

// patchKey identifies one participant's patch.
type patchKey struct {
	participant string
	patch       string
}

// PairKey identifies an ordered participant pair, p1 communicating with p2.
type PairKey struct {
	From string
	To   string
}

// PatchSet is the set of patches of PairKey.From used, under a given label,
// when communicating with PairKey.To.
type PatchSet struct {
	Extensive []string
	Intensive []string
}

// Result is the output of Stage S2.
type Result struct {
	Topology *topology.Topology
	// PairPatches maps an ordered (from,to) participant pair to the patch
	// sets of `from` used for that peer, split by label.
	PairPatches map[PairKey]*PatchSet
	// ExchangeLabels records the resolved label for each exchange, indexed
	// by its position in Topology.Exchanges (stable after splitting).
	ExchangeLabels []Label
}

// Preprocessor runs Stage S2.
type Preprocessor struct {
	Classifier *Classifier
}

// NewPreprocessor creates a Preprocessor using the given classifier.
func NewPreprocessor(c *Classifier) *Preprocessor {
	return &Preprocessor{Classifier: c}
}

// Run classifies every exchange, splits dual-use patches, and builds the
// pair/patch-set map, per spec.md §4.2.
func (p *Preprocessor) Run(t *topology.Topology, sink *diagnostics.Sink) *Result {
	labels := make([]Label, len(t.Exchanges))
	for i, ex := range t.Exchanges {
		labels[i] = p.Classifier.Classify(ex.Data, sink)
	}

	// labelSets[(participant,patch)] -> which labels use that patch, plus
	// which exchange indices (and participant role) reference it, so we can
	// rewrite them after the cardinality check.
	type use struct {
		exchangeIdx int
		asFrom      bool // true: participant is ex.From (owns FromPatch); false: ex.To (owns ToPatch)
	}
	labelSets := make(map[patchKey]map[Label]bool)
	uses := make(map[patchKey][]use)

	record := func(participant, patch string, label Label, idx int, asFrom bool) {
		if patch == "" {
			return
		}
		key := patchKey{participant, patch}
		if labelSets[key] == nil {
			labelSets[key] = make(map[Label]bool)
		}
		labelSets[key][label] = true
		uses[key] = append(uses[key], use{exchangeIdx: idx, asFrom: asFrom})
	}

	for i, ex := range t.Exchanges {
		record(ex.From, ex.FromPatch, labels[i], i, true)
		record(ex.To, ex.ToPatch, labels[i], i, false)
	}

	// Stable iteration: sort patch keys so splitting is deterministic
	// regardless of map iteration order.
	keys := make([]patchKey, 0, len(labelSets))
	for k := range labelSets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].participant != keys[j].participant {
			return keys[i].participant < keys[j].participant
		}
		return keys[i].patch < keys[j].patch
	})

	for _, key := range keys {
		set := labelSets[key]
		if len(set) != 2 {
			continue
		}

		sink.Warn("patch %q on participant %q carries both extensive and intensive data; splitting into %q-extensive/%q-intensive",
			key.patch, key.participant, key.patch, key.patch)

		for _, u := range uses[key] {
			suffix := "-intensive"
			if labels[u.exchangeIdx] == Extensive {
				suffix = "-extensive"
			}
			newName := key.patch + suffix
			if u.asFrom {
				t.Exchanges[u.exchangeIdx].FromPatch = newName
			} else {
				t.Exchanges[u.exchangeIdx].ToPatch = newName
			}
		}
	}

	pairPatches := make(map[PairKey]*PatchSet)
	addPair := func(from, to, patch string, label Label) {
		if patch == "" {
			return
		}
		key := PairKey{From: from, To: to}
		ps := pairPatches[key]
		if ps == nil {
			ps = &PatchSet{}
			pairPatches[key] = ps
		}
		if label == Extensive {
			ps.Extensive = appendUnique(ps.Extensive, patch)
		} else {
			ps.Intensive = appendUnique(ps.Intensive, patch)
		}
	}

	for i, ex := range t.Exchanges {
		addPair(ex.From, ex.To, ex.FromPatch, labels[i])
		addPair(ex.To, ex.From, ex.ToPatch, labels[i])
	}

	return &Result{
		Topology:       t,
		PairPatches:    pairPatches,
		ExchangeLabels: labels,
	}
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
