// Package apperr contiene la taxonomía de errores compartida entre dominios y adapters.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound lo devuelven los repos cuando la fila no existe.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate lo devuelven los repos ante una violación de unicidad.
	ErrDuplicate = errors.New("duplicate")

	// ErrForbidden se usa cuando el principal ya no tiene permiso (revalidación contra el store).
	ErrForbidden = errors.New("forbidden")
)

// ValidationError lleva el campo y un message ID traducible.
type ValidationError struct {
	Field     string
	MessageID string
	// Param acompaña reglas con argumento (min=8 -> "8").
	Param string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.MessageID
	}
	return "invalid " + e.Field + ": " + e.MessageID
}

func Invalid(field, messageID string) error {
	return &ValidationError{Field: field, MessageID: messageID}
}

// AsValidation devuelve el ValidationError envuelto en err, si hay uno.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Status mapea un error de dominio a código HTTP. Lo no clasificado es 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	}
	if _, ok := AsValidation(err); ok {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
