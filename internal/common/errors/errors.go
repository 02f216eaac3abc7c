// Package errors provides standardized error handling for the recommendation
// service, its HTTP surface and BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"

	ErrCodeCatalogEmpty      ErrorCode = "CATALOG_EMPTY"
	ErrCodeCatalogLoadFailed ErrorCode = "CATALOG_LOAD_FAILED"

	ErrCodeEligibilityCheckFailed  ErrorCode = "ELIGIBILITY_CHECK_FAILED"
	ErrCodeScoringFailed           ErrorCode = "SCORING_FAILED"
	ErrCodeJudgmentTimeout         ErrorCode = "JUDGMENT_TIMEOUT"
	ErrCodeJudgmentResponseInvalid ErrorCode = "JUDGMENT_RESPONSE_INVALID"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodePipelineFailed   ErrorCode = "PIPELINE_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap returns the error the StandardError was built from, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInputValidationError creates a non-retryable validation error. The message
// is returned to API callers verbatim.
func NewInputValidationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputValidationFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingFieldsError reports required profile fields that were absent or empty.
func NewMissingFieldsError(fields []string) *StandardError {
	return NewInputValidationError("Missing required fields: " + strings.Join(fields, ", ")).
		WithMetadata("missingFields", fields)
}

func NewCatalogEmptyError() *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogEmpty,
		Message:   "No subsidies available in the system.",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLoadFailedError creates a retryable storage error.
func NewCatalogLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Failed to load subsidy catalog",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewEligibilityCheckFailedError is recorded, never surfaced: eligibility
// failures include the subsidy.
func NewEligibilityCheckFailedError(subsidyID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEligibilityCheckFailed,
		Message:   "Eligibility check failed",
		Details:   fmt.Sprintf("subsidyId: %s, error: %s", subsidyID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewScoringFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringFailed,
		Message:   "Relevance scoring failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewJudgmentTimeoutError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeJudgmentTimeout,
		Message:   "Judgment service timeout",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewJudgmentResponseInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJudgmentResponseInvalid,
		Message:   "Judgment service returned an invalid response",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCacheUnavailableError(cache string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   fmt.Sprintf("Cache '%s' unavailable", cache),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewPipelineFailedError wraps any unexpected failure of a recommendation run.
func NewPipelineFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePipelineFailed,
		Message:   "Recommendation pipeline failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewExternalServiceError wraps a transient failure of a collaborator such as
// the zeebe gateway.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputValidationFailed:   "INPUT_VALIDATION_FAILED",
	ErrCodeCatalogEmpty:            "CATALOG_EMPTY",
	ErrCodeCatalogLoadFailed:       "CATALOG_LOAD_FAILED",
	ErrCodeEligibilityCheckFailed:  "ELIGIBILITY_CHECK_FAILED",
	ErrCodeScoringFailed:           "SCORING_FAILED",
	ErrCodeJudgmentTimeout:         "JUDGMENT_TIMEOUT",
	ErrCodeJudgmentResponseInvalid: "JUDGMENT_RESPONSE_INVALID",
	ErrCodeCacheUnavailable:        "CACHE_UNAVAILABLE",
	ErrCodePipelineFailed:          "PIPELINE_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogLoadFailed,
		ErrCodeScoringFailed,
		ErrCodeCacheUnavailable,
		ErrCodeExternalService:
		return 3 // Retryable technical errors

	case ErrCodeJudgmentTimeout:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// As finds the first StandardError in err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize returns err as a StandardError, wrapping unknown errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInputValidationFailed:
		return http.StatusBadRequest
	case ErrCodeJudgmentTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "JUDGMENT"), strings.Contains(codeStr, "ELIGIBILITY"), strings.Contains(codeStr, "SCORING"):
		return "AI"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PIPELINE"):
		return "PIPELINE"
	default:
		return "OTHER"
	}
}
