// Package topology implements Stage S1, the Topology Reader: it loads
// topology.yaml, validates it against the bundled JSON Schema, runs the
// structural checks from spec.md §4.1, and shrinks the uniquifier pool.
package topology

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/jihwankim/precice-case-generate/pkg/diagnostics"
	"github.com/jihwankim/precice-case-generate/pkg/topology/schema"
)

// Reader parses and validates topology files. Pool is the uniquifier pool;
// ParseFile shrinks it in place as data names are observed, per spec.md §4.1.
type Reader struct {
	Pool *UniquifierPool
}

// NewReader creates a Reader seeded with the given uniquifier pool.
func NewReader(pool *UniquifierPool) *Reader {
	return &Reader{Pool: pool}
}

// ParseFile loads, schema-validates, and structurally validates a topology
// file. Any violation is a fatal *diagnostics.Error (KindInvalidInput).
func (r *Reader) ParseFile(path string) (*Topology, error) {
	if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
		return nil, diagnostics.NewInvalidInput("topology file %q must have a .yaml/.yml extension", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diagnostics.NewInvalidInput("failed to read topology file %q: %v", path, err)
	}

	return r.Parse(data)
}

// Parse validates and decodes topology YAML bytes.
func (r *Reader) Parse(data []byte) (*Topology, error) {
	if err := r.validateSchema(data); err != nil {
		return nil, err
	}

	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, diagnostics.NewInvalidInput("failed to parse topology YAML: %v", err)
	}

	if err := r.checkStructure(&t); err != nil {
		return nil, err
	}

	r.shrinkPool(&t)

	return &t, nil
}

// validateSchema checks the raw document against the bundled JSON Schema.
// gojsonschema works over JSON, so the YAML document is first decoded
// generically (yaml.v3 already produces map[string]interface{} for mapping
// nodes) and re-encoded as JSON.
func (r *Reader) validateSchema(data []byte) error {
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return diagnostics.NewInvalidInput("failed to parse topology YAML: %v", err)
	}

	asJSON, err := json.Marshal(generic)
	if err != nil {
		return diagnostics.NewInvalidInput("failed to normalize topology document: %v", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schema.Topology)
	docLoader := gojsonschema.NewBytesLoader(asJSON)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return diagnostics.NewInvalidInput("failed to run topology schema validation: %v", err)
	}

	if !result.Valid() {
		var sb strings.Builder
		for _, e := range result.Errors() {
			sb.WriteString("\n  - ")
			sb.WriteString(e.String())
		}
		return diagnostics.NewInvalidInput("topology failed schema validation:%s", sb.String())
	}

	return nil
}

// checkStructure runs the three fatal structural checks from spec.md §4.1.
func (r *Reader) checkStructure(t *Topology) error {
	names := make(map[string]bool, len(t.Participants))
	for _, p := range t.Participants {
		if names[p.Name] {
			return diagnostics.NewInvalidInput("duplicate participant name %q", p.Name)
		}
		names[p.Name] = true
	}

	type tuple struct{ from, to, data, dataType string }
	seen := make(map[tuple]bool, len(t.Exchanges))
	for _, ex := range t.Exchanges {
		if !names[ex.From] {
			return diagnostics.NewInvalidInput("exchange references unknown participant %q (from)", ex.From)
		}
		if !names[ex.To] {
			return diagnostics.NewInvalidInput("exchange references unknown participant %q (to)", ex.To)
		}

		key := tuple{ex.From, ex.To, ex.Data, ex.ResolvedDataType()}
		if seen[key] {
			return diagnostics.NewInvalidInput(
				"duplicate exchange: %s -> %s carries %q (%s) more than once", ex.From, ex.To, ex.Data, key.dataType)
		}
		seen[key] = true
	}

	return nil
}

// shrinkPool removes every uniquifier adjective that appears (case
// insensitively, as a substring) in any user-supplied data name, so that a
// later collision-resolution rename can never collide with a user choice.
func (r *Reader) shrinkPool(t *Topology) {
	if r.Pool == nil {
		return
	}
	for _, ex := range t.Exchanges {
		r.Pool.ExcludeCollisionsWith(ex.Data)
	}
}
