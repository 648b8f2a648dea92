// Package apperr defines the application error taxonomy.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeConfigError      = "CONFIG_ERROR"
	CodeTimeout          = "TIMEOUT"
	CodeProviderError    = "PROVIDER_ERROR"
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeKnowledgeError   = "KNOWLEDGE_ERROR"
	CodeMailError        = "MAIL_ERROR"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeCacheError       = "CACHE_ERROR"
	CodeSuspended        = "SUSPENDED"
	CodeInternal         = "INTERNAL_ERROR"
)

var (
	ErrSuspended            = New(CodeSuspended, "processing is suspended for the current window", http.StatusServiceUnavailable)
	ErrEmptyGeneration      = New(CodeGenerationFailed, "provider returned an empty response", http.StatusBadGateway)
	ErrKnowledgeUnavailable = New(CodeKnowledgeError, "knowledge base is unavailable", http.StatusServiceUnavailable)
)

// AppError carries a stable code, an HTTP status and an optional cause.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"-"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func (e *AppError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

func ConfigError(message string) *AppError {
	return New(CodeConfigError, message, http.StatusInternalServerError)
}

func Timeout(message string) *AppError {
	return New(CodeTimeout, message, http.StatusGatewayTimeout)
}

// ProviderError wraps failures coming back from an external provider
// (the generation API, Gmail, Sheets).
func ProviderError(provider string, err error) *AppError {
	return Wrap(err, CodeProviderError, fmt.Sprintf("%s provider call failed", provider), http.StatusBadGateway)
}

func KnowledgeError(err error) *AppError {
	return Wrap(err, CodeKnowledgeError, "knowledge base operation failed", http.StatusBadGateway)
}

func CacheError(op string, err error) *AppError {
	return Wrap(err, CodeCacheError, fmt.Sprintf("cache operation failed: %s", op), http.StatusInternalServerError)
}

func GenerationFailed(err error) *AppError {
	return Wrap(err, CodeGenerationFailed, "response generation failed", http.StatusBadGateway)
}

func DatabaseError(op string, err error) *AppError {
	return Wrap(err, CodeDatabaseError, fmt.Sprintf("database operation failed: %s", op), http.StatusInternalServerError)
}

func Internal(message string, err error) *AppError {
	return Wrap(err, CodeInternal, message, http.StatusInternalServerError)
}

func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// GetHTTPStatus resolves the status for any error, defaulting to 500.
func GetHTTPStatus(err error) int {
	if ae, ok := AsAppError(err); ok {
		return ae.HTTPStatus()
	}
	return http.StatusInternalServerError
}
