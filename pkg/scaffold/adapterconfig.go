package scaffold

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jihwankim/precice-case-generate/pkg/diagnostics"
	"github.com/jihwankim/precice-case-generate/pkg/graph"
	"github.com/jihwankim/precice-case-generate/pkg/topology/schema"
)

// AdapterConfig is one participant's adapter-config.json, per spec.md §6.
type AdapterConfig struct {
	ParticipantName       string      `json:"participant_name"`
	PreciceConfigFileName string      `json:"precice_config_file_name"`
	Interfaces            []Interface `json:"interfaces"`
}

// Interface is one mesh a participant reads or writes data on.
type Interface struct {
	MeshName       string   `json:"mesh_name"`
	Patches        []string `json:"patches"`
	ReadDataNames  []string `json:"read_data_names,omitempty"`
	WriteDataNames []string `json:"write_data_names,omitempty"`
}

// BuildAdapterConfig assembles the adapter config for one participant: one
// interface per mesh it provides (with that mesh's patch set) or receives
// (with no patches, since it does not own them), provide meshes first in
// graph order, then receive meshes in graph order.
func BuildAdapterConfig(g *graph.Graph, pid graph.ParticipantID) *AdapterConfig {
	p := g.Participants.Get(int(pid))

	readByMesh := make(map[graph.MeshID][]string)
	for _, du := range p.ReadData {
		d := g.Data.Get(int(du.Data))
		readByMesh[du.Mesh] = append(readByMesh[du.Mesh], d.Name)
	}
	writeByMesh := make(map[graph.MeshID][]string)
	for _, du := range p.WriteData {
		d := g.Data.Get(int(du.Data))
		writeByMesh[du.Mesh] = append(writeByMesh[du.Mesh], d.Name)
	}

	var interfaces []Interface
	addMesh := func(mid graph.MeshID, owned bool) {
		m := g.Meshes.Get(int(mid))
		iface := Interface{
			MeshName:       m.Name,
			Patches:        []string{},
			ReadDataNames:  readByMesh[mid],
			WriteDataNames: writeByMesh[mid],
		}
		if owned {
			iface.Patches = m.Patches
		}
		interfaces = append(interfaces, iface)
	}

	for _, mid := range p.ProvideMeshes {
		addMesh(mid, true)
	}
	for _, rm := range p.ReceiveMeshes {
		addMesh(rm.Mesh, false)
	}

	return &AdapterConfig{
		ParticipantName:       p.Name,
		PreciceConfigFileName: "../precice-config.xml",
		Interfaces:            interfaces,
	}
}

// WriteAdapterConfig validates cfg against the bundled adapter-config JSON
// Schema and writes it to path, matching the teacher's
// json.MarshalIndent+os.WriteFile report-saving idiom.
func WriteAdapterConfig(path string, cfg *AdapterConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return diagnostics.NewEmitterError(err, "failed to marshal adapter config for %q", cfg.ParticipantName)
	}

	if err := validateAdapterConfig(data); err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return diagnostics.NewEmitterError(err, "failed to write adapter config to %q", path)
	}

	return nil
}

func validateAdapterConfig(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schema.AdapterConfig)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return diagnostics.NewEmitterError(err, "failed to run adapter-config schema validation")
	}

	if !result.Valid() {
		var sb strings.Builder
		for _, e := range result.Errors() {
			sb.WriteString("\n  - ")
			sb.WriteString(e.String())
		}
		return diagnostics.NewEmitterError(nil, "generated adapter config failed schema validation:%s", sb.String())
	}

	return nil
}
