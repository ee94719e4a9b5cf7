package state

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	entity "github.com/goliatone/go-entities"
	"gopkg.in/yaml.v3"
)

// Format selects the on-disk encoding of a snapshot.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func (f Format) extension() string {
	if f == FormatYAML {
		return ".config.yaml"
	}
	return ".config.json"
}

// ParseFormat maps a user supplied name (json, yaml, yml) onto a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("state: unsupported format %q", name)
	}
}

// Encode renders snapshot in format.
func Encode(format Format, snapshot entity.Snapshot) ([]byte, error) {
	if format != FormatYAML {
		return encodeJSON(snapshot)
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("state: encode snapshot: %w", err)
	}
	var generic any
	if err := json.Unmarshal(payload, &generic); err != nil {
		return nil, fmt.Errorf("state: encode snapshot: %w", err)
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(generic); err != nil {
		return nil, fmt.Errorf("state: encode yaml: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("state: encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses payload written in format.
func Decode(format Format, payload []byte) (entity.Snapshot, error) {
	if format != FormatYAML {
		return entity.ParseSnapshot(payload)
	}
	var generic any
	if err := yaml.Unmarshal(payload, &generic); err != nil {
		return entity.Snapshot{}, fmt.Errorf("state: decode yaml: %w", err)
	}
	normalized, err := json.Marshal(generic)
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("state: decode yaml: %w", err)
	}
	return entity.ParseSnapshot(normalized)
}

func encodeJSON(snapshot entity.Snapshot) ([]byte, error) {
	payload, err := snapshot.MarshalIndent()
	if err != nil {
		return nil, fmt.Errorf("state: encode snapshot: %w", err)
	}
	return append(payload, '\n'), nil
}

func digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return "sha256:" + hex.EncodeToString(sum[:])
}
