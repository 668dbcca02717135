package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rokit-build/rokit/internal/rerr"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// InstalledMetadata is the installed.json sidecar written next to every
// stored binary: install time, the asset URL it came from, and a content
// digest for integrity introspection via "rokit list --verbose".
type InstalledMetadata struct {
	InstalledAt string `json:"installedAt"`
	SourceURL   string `json:"sourceUrl"`
	Digest      string `json:"digest"`
}

const installedSchemaText = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["installedAt", "sourceUrl", "digest"],
  "properties": {
    "installedAt": {"type": "string"},
    "sourceUrl": {"type": "string"},
    "digest": {"type": "string"}
  }
}`

const installedSchemaID = "https://rokit.build/schemas/installed.json"

var installedSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(installedSchemaText)))
	if err != nil {
		return nil, fmt.Errorf("unmarshal installed.json schema: %w", err)
	}
	if err := compiler.AddResource(installedSchemaID, doc); err != nil {
		return nil, fmt.Errorf("add installed.json schema resource: %w", err)
	}
	return compiler.Compile(installedSchemaID)
})

// writeInstalledMetadata encodes meta as text JSON (the encoding
// left open by the design is resolved here in favor of text: it keeps
// the sidecar human-inspectable, matching every other on-disk Rokit
// artifact, at a storage cost measured in dozens of bytes per tool) and
// validates it against installedSchema before writing.
func writeInstalledMetadata(path string, meta InstalledMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return rerr.New(rerr.KindStoreIO, "store.writeInstalledMetadata", err)
	}

	schema, err := installedSchema()
	if err != nil {
		return rerr.New(rerr.KindStoreIO, "store.writeInstalledMetadata", err)
	}
	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return rerr.New(rerr.KindStoreIO, "store.writeInstalledMetadata", err)
	}
	if err := schema.Validate(instance); err != nil {
		return rerr.New(rerr.KindStoreIO, "store.writeInstalledMetadata", fmt.Errorf("installed.json failed schema validation: %w", err))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return rerr.New(rerr.KindStoreIO, "store.writeInstalledMetadata", err)
	}
	return nil
}

// ReadInstalledMetadata loads a stored tool's installed.json sidecar.
func ReadInstalledMetadata(path string) (InstalledMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return InstalledMetadata{}, rerr.New(rerr.KindStoreIO, "store.ReadInstalledMetadata", err)
	}
	var meta InstalledMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return InstalledMetadata{}, rerr.New(rerr.KindStoreIO, "store.ReadInstalledMetadata", err)
	}
	return meta, nil
}
