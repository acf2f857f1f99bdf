package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeSourceNotFound     = "SOURCE_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeDuplicateOrder     = "DUPLICATE_ORDER"
	ErrCodeDuplicateSource    = "DUPLICATE_SOURCE"
	ErrCodeMissingCredentials = "MISSING_CREDENTIALS"
	ErrCodeMissingIdentifier  = "MISSING_SOURCE_IDENTIFIER"
	ErrCodeMalformedResponse  = "MALFORMED_RESPONSE"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrSourceNotFound     = NewDomainError(ErrCodeSourceNotFound, "API source not found")
	ErrOrderNotFound      = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrDuplicateOrder     = NewDomainError(ErrCodeDuplicateOrder, "An order with this order number already exists for the source")
	ErrDuplicateSource    = NewDomainError(ErrCodeDuplicateSource, "A source with this identifier already exists")
	ErrMissingCredentials = NewDomainError(ErrCodeMissingCredentials, "API key and secret are required")
	ErrMissingIdentifier  = NewDomainError(ErrCodeMissingIdentifier, "Missing source identifier. Please use the source-specific webhook URL.")
	ErrMalformedResponse  = NewDomainError(ErrCodeMalformedResponse, "Invalid response format from ShipStation API: 'orders' array not found")
	ErrInvalidState       = NewDomainError(ErrCodeInvalidState, "Unknown workflow state")
)
