package domain

// APIError represents a standardized API error with HTTP status code
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// validationMessages maps validator tags to the messages shown for request fields
var validationMessages = map[string]string{
	"required":         "This field is required",
	"email":            "Must be a valid email address",
	"gte":              "Must be greater than or equal to minimum value",
	"lte":              "Must be less than or equal to maximum value",
	"oneof":            "Must be one of the allowed values",
	"required_without": "Required unless an alias is given",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := validationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Error types carried in APIError.Type
const (
	ErrorTypeValidation  = "validation_error"
	ErrorTypeNotFound    = "not_found"
	ErrorTypeBadRequest  = "bad_request"
	ErrorTypeConflict    = "conflict"
	ErrorTypeTooLarge    = "payload_too_large"
	ErrorTypeRateLimited = "rate_limited"
	ErrorTypeInternal    = "internal_error"
)

// CalculationError describes the first pricing failure of a calculation run.
// RowIndex is -1 when the failure is not tied to a row.
type CalculationError struct {
	Message  string `json:"message"`
	RowIndex int    `json:"rowIndex"`
	Column   string `json:"column,omitempty"`
}

// Error implements the error interface
func (e *CalculationError) Error() string {
	return e.Message
}
