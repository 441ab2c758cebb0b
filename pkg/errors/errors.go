package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "Email ou senha inválidos")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "Recurso não encontrado")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "Permissão insuficiente")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "Não autorizado")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "Dados inválidos")
	ErrDuplicate          = New("DUPLICATE", http.StatusBadRequest, "Registro duplicado")
	ErrLastAdmin          = New("LAST_ADMIN", http.StatusBadRequest, "Operação removeria o último administrador")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "Erro interno do servidor")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Internal wraps err as a 500 carrying a contextual message for logs while
// the client only sees the generic text.
func Internal(err error, context string) *Error {
	return Wrap(fmt.Errorf("%s: %w", context, err), ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Is reports whether err is an *Error carrying the same code as target.
func Is(err error, target *Error) bool {
	var e *Error
	if !errors.As(err, &e) || target == nil {
		return false
	}
	return e.Code == target.Code
}
