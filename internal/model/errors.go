package model

import "fmt"

// ErrorCode classifies an extraction failure
type ErrorCode string

const (
	CodeEmptyInput        ErrorCode = "empty_input"
	CodeMalformedInput    ErrorCode = "malformed_input"
	CodeUnsupportedFormat ErrorCode = "unsupported_format"
	CodeReadFailed        ErrorCode = "read_failed"
)

// ExtractionError is returned when the layout input cannot be processed at all.
// Unresolved items and validation findings are reported in the Result instead.
type ExtractionError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Sentinels for errors.Is comparisons by code
var (
	ErrEmptyInput        = &ExtractionError{Code: CodeEmptyInput, Message: "layout sequence is empty"}
	ErrMalformedInput    = &ExtractionError{Code: CodeMalformedInput, Message: "layout sequence is malformed"}
	ErrUnsupportedFormat = &ExtractionError{Code: CodeUnsupportedFormat, Message: "unsupported layout format"}
)

// NewExtractionError creates an extraction error with an optional cause
func NewExtractionError(code ErrorCode, message string, cause error) *ExtractionError {
	return &ExtractionError{Code: code, Message: message, Cause: cause}
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Is matches any ExtractionError with the same code
func (e *ExtractionError) Is(target error) bool {
	t, ok := target.(*ExtractionError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
