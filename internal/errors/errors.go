package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Process description errors (PROCESS-001 to PROCESS-099)
	ErrCodeProcessNotFound  ErrorCode = "PROCESS-001"
	ErrCodeProcessInvalid   ErrorCode = "PROCESS-002"
	ErrCodeProcessUnmarshal ErrorCode = "PROCESS-003"

	// OpenAPI errors (OPENAPI-001 to OPENAPI-099)
	ErrCodeOpenAPINotFound ErrorCode = "OPENAPI-001"
	ErrCodeOpenAPIParse    ErrorCode = "OPENAPI-002"
	ErrCodeOpenAPIMissing  ErrorCode = "OPENAPI-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid   ErrorCode = "CONFIG-001"
	ErrCodeConfigUnmarshal ErrorCode = "CONFIG-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileReadFailed  ErrorCode = "IO-001"
	ErrCodeFileWriteFailed ErrorCode = "IO-002"
	ErrCodeFileMarshal     ErrorCode = "IO-003"

	// Server errors (SERVER-001 to SERVER-099)
	ErrCodeBadRequest    ErrorCode = "SERVER-001"
	ErrCodeServerFailure ErrorCode = "SERVER-002"

	// Resolution outcome errors (MAP-001 to MAP-099)
	ErrCodeUnmatchedTasks ErrorCode = "MAP-001"
	ErrCodeReviewRejected ErrorCode = "MAP-002"
)

// FlowbindError represents an error with a code, suggestions and documentation
type FlowbindError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *FlowbindError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			fmt.Fprintf(&b, "\n  • %s", suggestion)
		}
	}

	if e.DocsURL != "" {
		fmt.Fprintf(&b, "\n\nDocumentation: %s", e.DocsURL)
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FlowbindError) Unwrap() error {
	return e.Cause
}

// New creates a new FlowbindError
func New(code ErrorCode, message string) *FlowbindError {
	return &FlowbindError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new FlowbindError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *FlowbindError {
	return &FlowbindError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *FlowbindError) WithSuggestion(suggestion string) *FlowbindError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *FlowbindError) WithSuggestions(suggestions ...string) *FlowbindError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *FlowbindError) WithDocs(url string) *FlowbindError {
	e.DocsURL = url
	return e
}

// HasCode reports whether err is a FlowbindError carrying code
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if fe, ok := err.(*FlowbindError); ok && fe.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// NewProcessNotFoundError creates a process file not found error
func NewProcessNotFoundError(path string) *FlowbindError {
	return New(ErrCodeProcessNotFound, fmt.Sprintf("process description not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Pass the process description with --process").
		WithDocs("https://github.com/felixgeelhaar/flowbind#process-description")
}

// NewProcessInvalidError creates a process validation error
func NewProcessInvalidError(details string) *FlowbindError {
	return New(ErrCodeProcessInvalid, fmt.Sprintf("invalid process description: %s", details)).
		WithSuggestion("Every task needs a non-empty id").
		WithDocs("https://github.com/felixgeelhaar/flowbind#process-description")
}

// NewProcessUnmarshalError creates a process parse error
func NewProcessUnmarshalError(path string, cause error) *FlowbindError {
	return Wrap(ErrCodeProcessUnmarshal, fmt.Sprintf("failed to parse process description: %s", path), cause).
		WithSuggestion("Check the file syntax; YAML and JSON are accepted")
}

// NewOpenAPINotFoundError creates an OpenAPI file not found error
func NewOpenAPINotFoundError(path string) *FlowbindError {
	return New(ErrCodeOpenAPINotFound, fmt.Sprintf("OpenAPI document not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Pass the API description with --openapi")
}

// NewOpenAPIParseError creates an OpenAPI parse error
func NewOpenAPIParseError(cause error) *FlowbindError {
	return Wrap(ErrCodeOpenAPIParse, "failed to parse OpenAPI document", cause).
		WithSuggestion("Ensure the document is OpenAPI 3.x in JSON or YAML").
		WithDocs("https://spec.openapis.org/oas/v3.0.3")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *FlowbindError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'flowbind map --help' to see the supported settings").
		WithSuggestion("Thresholds must be within [0, 1]")
}

// NewBadRequestError creates an HTTP request validation error
func NewBadRequestError(details string) *FlowbindError {
	return New(ErrCodeBadRequest, fmt.Sprintf("bad request: %s", details))
}

// NewUnmatchedTasksError reports that some tasks could not be resolved
func NewUnmatchedTasksError(count int) *FlowbindError {
	return New(ErrCodeUnmatchedTasks, fmt.Sprintf("%d task(s) could not be matched to an endpoint", count)).
		WithSuggestion("Add an 'api.endpoint' property with \"METHOD /path\" to the task").
		WithSuggestion("Run 'flowbind map --bind' to bind unmatched tasks interactively")
}

// NewReviewRejectedError creates an error for a mapping rejected in review
func NewReviewRejectedError(reason string) *FlowbindError {
	msg := "mapping rejected in review"
	if reason != "" {
		msg += ": " + reason
	}
	return New(ErrCodeReviewRejected, msg).
		WithSuggestion("Bind the wrong tasks with 'api.endpoint' properties and map again")
}
