package refresh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONSchemaValidator(t *testing.T) {
	v := NewJSONSchemaValidator()
	require.NoError(t, v.Validate(SchemaSettingField, map[string]any{"key": KeySite, "value": "marketing"}))
	require.NoError(t, v.Validate(SchemaSettingField, map[string]any{"key": KeySite, "value": ""}))
	require.Error(t, v.Validate(SchemaSettingField, map[string]any{"key": KeyType, "value": "x"}))
	require.Error(t, v.Validate(SchemaSettingField, map[string]any{"key": KeySite}))
	require.Error(t, v.Validate(SchemaSettingField, map[string]any{"key": KeySite, "value": "x", "extra": 1}))

	require.NoError(t, v.Validate(SchemaSettingTarget, map[string]any{"option": TypeWorkbook}))
	require.Error(t, v.Validate(SchemaSettingTarget, map[string]any{"option": "other"}))
	require.Error(t, v.Validate(SchemaSettingTarget, nil))
}

func TestJSONSchemaValidatorUnknownSchema(t *testing.T) {
	v := NewJSONSchemaValidator()
	require.Error(t, v.Validate("refresh.unknown", map[string]any{}))
}
