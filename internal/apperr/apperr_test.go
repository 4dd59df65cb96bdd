package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("register: %w", New(CodeCapacityExceeded, "full"))

	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.False(t, errors.Is(err, ErrAlreadyRegistered))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:          http.StatusNotFound,
		CodeValidation:        http.StatusBadRequest,
		CodeCapacityExceeded:  http.StatusConflict,
		CodeAlreadyRegistered: http.StatusConflict,
		CodeNotRegistered:     http.StatusBadRequest,
		CodeForbidden:         http.StatusForbidden,
		CodeConflict:          http.StatusConflict,
		CodeUnauthenticated:   http.StatusUnauthorized,
		CodeInternal:          http.StatusInternalServerError,
		Code("BOGUS"):         http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, code.HTTPStatus(), string(code))
	}
}

func TestPublicMessageHidesInternalCause(t *testing.T) {
	err := errors.New("pq: connection refused on 10.0.0.3")

	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.NotContains(t, PublicMessage(err), "10.0.0.3")

	wrapped := Wrap(CodeInternal, "save failed", err)
	assert.NotContains(t, PublicMessage(wrapped), "10.0.0.3")
	assert.ErrorIs(t, wrapped, err)
}

func TestPublicMessageKeepsDomainMessage(t *testing.T) {
	err := New(CodeValidation, "T-shirt size is required").WithMeta("question", "question_1")

	e := From(fmt.Errorf("outer: %w", err))
	require.NotNil(t, e)
	assert.Equal(t, "T-shirt size is required", PublicMessage(e))
	assert.Equal(t, "question_1", e.Metadata["question"])
}

func TestNewUsesDefaultMessage(t *testing.T) {
	assert.Equal(t, "you're already registered for this event", New(CodeAlreadyRegistered, "").Message)
	assert.Nil(t, From(nil))
}
