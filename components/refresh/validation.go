package refresh

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema names understood by the settings validator.
const (
	SchemaSettingField  = "refresh.settings.field"
	SchemaSettingTarget = "refresh.settings.type"
)

const maxSettingValueLength = 2048

// PayloadValidator validates settings payloads against a named schema.
type PayloadValidator interface {
	Validate(schema string, payload map[string]any) error
}

// JSONSchemaValidator compiles the settings schemas once and validates payloads.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	schemas  map[string]map[string]any
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator for the default settings schemas.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		schemas:  DefaultSettingsSchemas(),
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// DefaultSettingsSchemas returns the schemas for field updates and type selection.
func DefaultSettingsSchemas() map[string]map[string]any {
	return map[string]map[string]any{
		SchemaSettingField: {
			"type":                 "object",
			"required":             []string{"key", "value"},
			"additionalProperties": false,
			"properties": map[string]any{
				"key":   map[string]any{"type": "string", "enum": FieldKeys()},
				"value": map[string]any{"type": "string", "maxLength": maxSettingValueLength},
			},
		},
		SchemaSettingTarget: {
			"type":                 "object",
			"required":             []string{"option"},
			"additionalProperties": false,
			"properties": map[string]any{
				"option": map[string]any{"type": "string", "enum": TypeOptions()},
			},
		},
	}
}

// Validate checks payload against the named schema.
func (v *JSONSchemaValidator) Validate(name string, payload map[string]any) error {
	schema, err := v.schemaFor(name)
	if err != nil {
		return err
	}
	normalized := map[string]any{}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("refresh: marshal payload for %s: %w", name, err)
		}
		if err := json.Unmarshal(data, &normalized); err != nil {
			return fmt.Errorf("refresh: normalize payload for %s: %w", name, err)
		}
	}
	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("refresh: payload for %s failed validation: %w", name, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(name string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[name]
	raw, known := v.schemas[name]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	if !known {
		return nil, fmt.Errorf("refresh: unknown schema %s", name)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("refresh: marshal schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("refresh: load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("refresh: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}
