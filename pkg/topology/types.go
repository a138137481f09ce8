package topology

import "gopkg.in/yaml.v3"

// Topology is the typed form of topology.yaml. It is the single boundary at
// which the dynamic YAML document becomes a Go record; every later stage
// consumes this, never a raw map[string]interface{}.
type Topology struct {
	Participants []Participant `yaml:"participants"`
	Exchanges    []Exchange    `yaml:"exchanges"`
}

// Participant is one named solver instance.
type Participant struct {
	Name           string `yaml:"name"`
	Solver         string `yaml:"solver"`
	Dimensionality int    `yaml:"dimensionality,omitempty"`

	// Extra carries opaque pass-through attributes (e.g. sync_mode, mode)
	// present verbatim on the topology entry. They are never inferred and
	// are replayed unmodified by the emitter (spec.md §9 Open Questions).
	Extra map[string]string `yaml:"-"`
}

// Exchange is one directional data transfer between two participants.
type Exchange struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	FromPatch string `yaml:"from-patch"`
	ToPatch   string `yaml:"to-patch"`
	Data      string `yaml:"data"`
	Type      string `yaml:"type"`
	DataType  string `yaml:"data-type,omitempty"`

	Extra map[string]string `yaml:"-"`
}

// StrengthStrong and StrengthWeak are the two values of Exchange.Type.
const (
	StrengthStrong = "strong"
	StrengthWeak   = "weak"
)

// DataTypeScalar and DataTypeVector are the two values of Exchange.DataType.
const (
	DataTypeScalar = "scalar"
	DataTypeVector = "vector"
)

// IsStrong reports whether the exchange is a strong coupling interaction.
func (e Exchange) IsStrong() bool { return e.Type == StrengthStrong }

// ResolvedDataType returns DataType, defaulting to scalar when unset.
func (e Exchange) ResolvedDataType() string {
	if e.DataType == "" {
		return DataTypeScalar
	}
	return e.DataType
}

// knownParticipantKeys and knownExchangeKeys list the YAML keys consumed by
// the typed struct fields; everything else is captured into Extra as an
// opaque pass-through attribute (spec.md §9 Open Questions).
var knownParticipantKeys = map[string]bool{"name": true, "solver": true, "dimensionality": true}
var knownExchangeKeys = map[string]bool{
	"from": true, "to": true, "from-patch": true, "to-patch": true,
	"data": true, "type": true, "data-type": true,
}

// UnmarshalYAML decodes the known Participant fields and stashes any
// remaining scalar keys into Extra.
func (p *Participant) UnmarshalYAML(node *yaml.Node) error {
	type shadow Participant
	var s shadow
	if err := node.Decode(&s); err != nil {
		return err
	}
	*p = Participant(s)
	p.Extra = extraScalars(node, knownParticipantKeys)
	return nil
}

// UnmarshalYAML decodes the known Exchange fields and stashes any remaining
// scalar keys into Extra.
func (e *Exchange) UnmarshalYAML(node *yaml.Node) error {
	type shadow Exchange
	var s shadow
	if err := node.Decode(&s); err != nil {
		return err
	}
	*e = Exchange(s)
	e.Extra = extraScalars(node, knownExchangeKeys)
	return nil
}

// extraScalars walks a mapping node and returns every scalar-valued key not
// in known, as an ordinary string map.
func extraScalars(node *yaml.Node, known map[string]bool) map[string]string {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	var extra map[string]string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		if known[key.Value] || val.Kind != yaml.ScalarNode {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[key.Value] = val.Value
	}
	return extra
}
