// Package schema validates persisted session documents against embedded
// JSON Schemas. The schemas are generated from the document types by
// tools/schema-generator; a document that fails validation is treated the
// same as a corrupt one and callers fall back to defaults.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed window_settings.schema.json
var windowSettingsSchemaData []byte

//go:embed user_preferences.schema.json
var userPreferencesSchemaData []byte

//go:embed pipewire_config.schema.json
var pipewireConfigSchemaData []byte

var embeddedSchemas = map[string][]byte{
	"window_settings.json":  windowSettingsSchemaData,
	"user_preferences.json": userPreferencesSchemaData,
	"pipewire_config.json":  pipewireConfigSchemaData,
}

// Validator validates one document kind against its embedded JSON Schema.
type Validator struct {
	schema *jsonschema.Schema
}

// ForDocument returns a validator for the named document, or nil if no
// schema is embedded for it (unknown documents are not validated).
func ForDocument(name string) (*Validator, error) {
	data, ok := embeddedSchemas[name]
	if !ok {
		return nil, nil
	}

	compiler := jsonschema.NewCompiler()
	resource := name + ".schema"
	if err := compiler.AddResource(resource, strings.NewReader(string(data))); err != nil {
		return nil, fmt.Errorf("failed to add embedded schema resource for %s: %w", name, err)
	}

	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile embedded schema for %s: %w", name, err)
	}

	return &Validator{schema: schema}, nil
}

// Validate validates decoded JSON data (maps, slices, primitives) against
// the schema.
func (v *Validator) Validate(data interface{}) error {
	if err := v.schema.Validate(data); err != nil {
		// Format the validation error to be more user-friendly.
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			var errorMessages []string
			collectErrors(validationErr, &errorMessages)
			return fmt.Errorf("schema validation failed:\n%s", strings.Join(errorMessages, "\n"))
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}

// collectErrors recursively collects all validation errors into a slice
func collectErrors(err *jsonschema.ValidationError, messages *[]string) {
	if err.InstanceLocation != "" {
		*messages = append(*messages, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
