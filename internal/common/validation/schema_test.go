// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["farmerProfile"],
  "additionalProperties": false,
  "properties": {
    "farmerProfile": {
      "type": "object",
      "required": ["state"],
      "properties": {"state": {"type": "string"}}
    }
  }
}`

func TestSchema_ValidateJSON(t *testing.T) {
	s := MustCompile(testSchema)

	res := s.ValidateJSON([]byte(`{"farmerProfile": {"state": "Punjab"}}`))
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)

	res = s.ValidateJSON([]byte(`{}`))
	require.False(t, res.Valid)
	assert.True(t, res.HasErrors("farmerProfile"))
	assert.Equal(t, "REQUIRED_FIELD_MISSING", res.Errors[0].Code)

	res = s.ValidateJSON([]byte(`{"farmerProfile": {}}`))
	require.False(t, res.Valid)
	assert.True(t, res.HasErrors("farmerProfile.state"))
	assert.Len(t, res.GetErrorsForField("farmerProfile"), 1)

	res = s.ValidateJSON([]byte(`{"farmerProfile": {"state": 7}, "extra": 1}`))
	require.False(t, res.Valid)
	codes := map[string]bool{}
	for _, e := range res.Errors {
		codes[e.Code] = true
	}
	assert.True(t, codes["INVALID_TYPE"])
	assert.True(t, codes["EXTRA_FIELD"])
	assert.NotEmpty(t, res.Error())

	res = s.ValidateJSON([]byte(`{not json`))
	require.False(t, res.Valid)
	assert.Equal(t, "INVALID_JSON", res.Errors[0].Code)
}

func TestSchema_ValidateGoValue(t *testing.T) {
	s := MustCompile(testSchema)

	res := s.Validate(map[string]interface{}{
		"farmerProfile": map[string]interface{}{"state": "Bihar"},
	})
	assert.True(t, res.Valid)
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile([]byte(`{"type": 12}`))
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile(`{`) })
}
