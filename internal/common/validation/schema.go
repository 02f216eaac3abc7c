// internal/common/validation/schema.go
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema used for request bodies, job variables and
// judgment responses.
type Schema struct {
	schema *gojsonschema.Schema
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Compile parses a JSON schema document.
func Compile(schemaJSON []byte) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid json schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompile is Compile for package-level schemas known at build time.
func MustCompile(schemaJSON string) *Schema {
	s, err := Compile([]byte(schemaJSON))
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks an already decoded document (map, slice or struct).
func (s *Schema) Validate(doc interface{}) *ValidationResult {
	return s.validate(gojsonschema.NewGoLoader(doc))
}

// ValidateJSON checks raw JSON bytes. Malformed JSON is reported as a single
// INVALID_JSON error on the root.
func (s *Schema) ValidateJSON(data []byte) *ValidationResult {
	if !json.Valid(data) {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: "body is not valid JSON",
				Code:    "INVALID_JSON",
			}},
		}
	}
	return s.validate(gojsonschema.NewBytesLoader(data))
}

func (s *Schema) validate(doc gojsonschema.JSONLoader) *ValidationResult {
	res, err := s.schema.Validate(doc)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "INVALID_DOCUMENT",
			}},
		}
	}

	out := &ValidationResult{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, convert(e))
	}
	return out
}

func convert(e gojsonschema.ResultError) ValidationError {
	field := e.Field()
	code := strings.ToUpper(e.Type())

	switch e.Type() {
	case "required":
		code = "REQUIRED_FIELD_MISSING"
		if prop, ok := e.Details()["property"].(string); ok {
			if field == "(root)" || field == "" {
				field = prop
			} else {
				field = field + "." + prop
			}
		}
	case "invalid_type":
		code = "INVALID_TYPE"
	case "additional_property_not_allowed":
		code = "EXTRA_FIELD"
	}

	return ValidationError{
		Field:   field,
		Message: e.Description(),
		Code:    code,
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Error joins every message; it is meant for logs and API error bodies.
func (vr *ValidationResult) Error() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field and its children.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
