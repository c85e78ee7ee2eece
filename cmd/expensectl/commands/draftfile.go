package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// LoadDraft reads a draft from a YAML or JSON file. Field names follow the
// draft's JSON form, so the same file can be posted to the API.
func LoadDraft(path string) (entity.ExpenseDraft, error) {
	var draft entity.ExpenseDraft

	raw, err := os.ReadFile(path)
	if err != nil {
		return draft, fmt.Errorf("failed to read draft: %w", err)
	}

	// JSON is valid YAML
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return draft, fmt.Errorf("failed to parse draft %s: %w", path, err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return draft, fmt.Errorf("draft %s is not representable as JSON: %w", path, err)
	}
	if err := json.Unmarshal(asJSON, &draft); err != nil {
		return draft, fmt.Errorf("failed to decode draft %s: %w", path, err)
	}

	if !draft.Type.IsValid() {
		return draft, fmt.Errorf("draft %s has unknown expense type %q", path, draft.Type)
	}
	return draft, nil
}

// writeYAML writes v as YAML using its JSON field names
func writeYAML(w io.Writer, v interface{}) error {
	asJSON, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(asJSON, &doc); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeAs(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		return writeJSON(w, v)
	case "yaml", "":
		return writeYAML(w, v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
