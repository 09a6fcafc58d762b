package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found wrapped", fmt.Errorf("get animal: %w", ErrNotFound), http.StatusNotFound},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"validation wrapped", fmt.Errorf("create: %w", Invalid("name", "validation.required")), http.StatusBadRequest},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Status(tc.err))
		})
	}
}

func TestAsValidation(t *testing.T) {
	ve, ok := AsValidation(fmt.Errorf("x: %w", Invalid("chip_id", "animal.chip_taken")))
	assert.True(t, ok)
	assert.Equal(t, "chip_id", ve.Field)
	assert.Equal(t, "animal.chip_taken", ve.MessageID)

	_, ok = AsValidation(ErrNotFound)
	assert.False(t, ok)
}
