package common

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an AppError. Forbidden is intentionally absent: rows owned
// by someone else are reported as NotFound.
type Kind string

const (
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthenticated    Kind = "unauthenticated"
	KindNotFound           Kind = "not_found"
	KindValidation         Kind = "validation_error"
	KindInternal           Kind = "internal_error"
)

// AppError carries the status code and a message that is safe to show to the client.
type AppError struct {
	Code     int
	Kind     Kind
	Message  string
	Internal error
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Kind, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

func NewInvalidCredentials() *AppError {
	return &AppError{Code: http.StatusUnauthorized, Kind: KindInvalidCredentials, Message: "Invalid credentials"}
}

func NewUnauthenticated(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthenticated, Message: message}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: message}
}

func NewValidation(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Message: message}
}

// NewInternal hides err from the client; it is only logged.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Kind:     KindInternal,
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// AsAppError converts any error into an AppError, treating unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err)
}

// RespondError writes the error envelope. Authentication failures use the
// "detail" key, everything else uses "error".
func RespondError(c *gin.Context, err error) {
	appErr := AsAppError(err)
	if appErr.Kind == KindInternal {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, appErr.Internal)
	}

	key := "error"
	if appErr.Kind == KindInvalidCredentials || appErr.Kind == KindUnauthenticated {
		key = "detail"
	}
	c.AbortWithStatusJSON(appErr.Code, gin.H{key: appErr.Message})
}
