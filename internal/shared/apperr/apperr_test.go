package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("missing"), http.StatusBadRequest},
		{"conflict", Conflict("User already exists"), http.StatusBadRequest},
		{"not found", NotFound("User not found"), http.StatusNotFound},
		{"unauthorized", Unauthorized("no token", nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("wrong role"), http.StatusForbidden},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NotFound("x")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestPublicMessage_HidesInternalDetail(t *testing.T) {
	err := Internal(errors.New("mongo: connection refused"))
	assert.Equal(t, InternalMessage, PublicMessage(err))
	assert.Equal(t, InternalMessage, PublicMessage(errors.New("raw")))
	assert.Equal(t, "User already exists", PublicMessage(Conflict("User already exists")))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Unauthorized("Not authorized, token failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Equal(t, "unauthorized", KindOf(err).String())
}
