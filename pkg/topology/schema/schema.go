// Package schema embeds the JSON Schemas that gate topology input and
// adapter-config output.
package schema

import _ "embed"

// Topology is the bundled topology.yaml JSON Schema.
//
//go:embed topology-schema.json
var Topology []byte

// AdapterConfig is the bundled adapter-config.json JSON Schema.
//
//go:embed adapter-config-schema.json
var AdapterConfig []byte
