package extractions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "extraction.schema.json"

// SchemaValidator checks extractedData against a JSON Schema. A nil
// validator accepts everything.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles a schema document.
func NewSchemaValidator(schema []byte) (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SchemaValidator{schema: compiled}, nil
}

// LoadSchemaValidator reads and compiles a schema file. An empty path
// yields a nil validator.
func LoadSchemaValidator(path string) (*SchemaValidator, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return NewSchemaValidator(raw)
}

// Validate returns a ValidationError for extractedData when data does not
// conform.
func (v *SchemaValidator) Validate(data json.RawMessage) error {
	if v == nil {
		return nil
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ValidationError{Field: "extractedData", Reason: "extractedData must be valid JSON"}
	}
	if err := v.schema.Validate(doc); err != nil {
		return &ValidationError{Field: "extractedData", Reason: fmt.Sprintf("extractedData does not match schema: %v", err)}
	}
	return nil
}
