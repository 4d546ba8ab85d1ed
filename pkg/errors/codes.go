// Package errors provides structured error handling for babelseek.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 4XX: Validation errors (request boundary)
//   - 5XX: Internal errors
//
// All validation errors are raised at component entry boundaries before
// any generation work begins. A definitive empty result set is never an
// error; callers distinguish the two by error presence and code.
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryValidation indicates request validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryAssembly indicates book assembly errors.
	CategoryAssembly Category = "ASSEMBLY"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Validation errors (400-499)
	ErrCodeInvalidAddress    = "ERR_401_INVALID_ADDRESS"
	ErrCodeInvalidQuery      = "ERR_402_INVALID_QUERY"
	ErrCodeInvalidStrategy   = "ERR_403_INVALID_STRATEGY"
	ErrCodeInvalidWeights    = "ERR_404_INVALID_WEIGHTS"
	ErrCodeInsufficientPages = "ERR_405_INSUFFICIENT_PAGES"
	ErrCodeExportFormat      = "ERR_406_EXPORT_FORMAT"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '4':
		if code == ErrCodeInsufficientPages {
			return CategoryAssembly
		}
		return CategoryValidation
	default:
		return CategoryInternal
	}
}
