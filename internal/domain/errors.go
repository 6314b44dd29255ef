package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeConfiguration = "CONFIG_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidAnalysisType  = NewDomainError(ErrCodeValidation, "invalid analysis type")
	ErrInvalidHandType      = NewDomainError(ErrCodeValidation, "invalid hand type")
	ErrInvalidBirthYear     = NewDomainError(ErrCodeValidation, "invalid birth year")
)

// Configuration errors
var (
	ErrGatewayNotConfigured    = NewDomainError(ErrCodeConfiguration, "LLM gateway not configured")
	ErrStoreNotConfigured      = NewDomainError(ErrCodeConfiguration, "knowledge store not configured")
	ErrEmbeddingsNotConfigured = NewDomainError(ErrCodeConfiguration, "embedding provider not configured")
)

// UpstreamError reports a non-2xx response from an external service. It
// carries the upstream status code and response body so the handler can
// surface them in the error envelope.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s request failed: %d - %s", e.Service, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s request failed: %d", e.Service, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
