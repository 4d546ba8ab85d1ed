package errors

import "fmt"

// Error is the structured error type for babelseek. It carries a stable
// code so collaborators can branch on failure kind programmatically.
type Error struct {
	// Code is the unique error code (e.g., "ERR_401_INVALID_ADDRESS").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Validation, ...).
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the caller.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is against Code sentinels.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the caller.
// Returns the error for method chaining.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category is derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code string, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinel returns a bare error carrying only a code, for use as the
// target of errors.Is.
func Sentinel(code string) *Error {
	return &Error{Code: code, Category: categoryFromCode(code)}
}

// InvalidAddress creates an address validation error.
func InvalidAddress(addr string, cause error) *Error {
	return New(ErrCodeInvalidAddress, fmt.Sprintf("malformed address %q", addr), cause).
		WithDetail("address", addr).
		WithSuggestion("addresses are lowercase hexadecimal strings, e.g. 0000002a")
}

// InvalidQuery creates a query validation error.
func InvalidQuery(message string) *Error {
	return New(ErrCodeInvalidQuery, message, nil)
}

// InvalidStrategy creates a strategy validation error.
func InvalidStrategy(strategy string) *Error {
	return New(ErrCodeInvalidStrategy, fmt.Sprintf("unrecognized strategy %q", strategy), nil).
		WithDetail("strategy", strategy).
		WithSuggestion("valid strategies: exact, fragments, ngram, inversion, auto")
}

// InvalidWeights creates a scoring weight validation error.
func InvalidWeights(message string) *Error {
	return New(ErrCodeInvalidWeights, message, nil).
		WithSuggestion("weights must be non-negative and sum to 1.0")
}

// InsufficientPages creates an assembly shortfall error.
func InsufficientPages(have, want int) *Error {
	return Newf(ErrCodeInsufficientPages, "have %d qualifying pages, need %d", have, want).
		WithDetail("have", fmt.Sprintf("%d", have)).
		WithDetail("want", fmt.Sprintf("%d", want))
}

// ExportFormatUnsupported creates an export format error.
func ExportFormatUnsupported(format string) *Error {
	return New(ErrCodeExportFormat, fmt.Sprintf("unsupported export format %q", format), nil).
		WithSuggestion("valid formats: text, json, metadata")
}

// GetCode extracts the error code from an Error.
// Returns empty string if not an Error.
func GetCode(err error) string {
	if be, ok := err.(*Error); ok {
		return be.Code
	}
	return ""
}

// GetCategory extracts the category from an Error.
// Returns empty string if not an Error.
func GetCategory(err error) Category {
	if be, ok := err.(*Error); ok {
		return be.Category
	}
	return ""
}
