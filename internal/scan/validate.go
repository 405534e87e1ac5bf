package scan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultSchemaPath locates the current-generation payload schema. Tests and
// CI images override it through the environment.
func DefaultSchemaPath() string {
	if p := os.Getenv("MALACT_SCHEMA_PATH"); p != "" {
		return p
	}
	return filepath.Join("schemas", "malcontent-diff.schema.json")
}

// CheckSchema compiles the schema without validating anything against it.
func CheckSchema(schemaPath string) error {
	abspath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("resolve schema path: %w", err)
	}
	if _, err := jsonschema.Compile("file://" + abspath); err != nil {
		return fmt.Errorf("compile payload schema: %w", err)
	}
	return nil
}

// ValidatePayload checks a payload against the current-generation schema.
// This is strictly opt-in diagnostics: Normalize never requires it, because
// unexpected payloads must degrade instead of failing the run.
func ValidatePayload(payload []byte, schemaPath string) error {
	abspath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("resolve schema path: %w", err)
	}
	schema, err := jsonschema.Compile("file://" + abspath)
	if err != nil {
		return fmt.Errorf("compile payload schema: %w", err)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("payload does not match scanner schema: %w", err)
	}
	return nil
}
