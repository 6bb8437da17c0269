package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches wrapped domain error", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeNotFound, "job not found"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("wrap keeps the cause", func(t *testing.T) {
		cause := errors.New("dial tcp: refused")
		err := Wrap(cause, CodeUnavailable, "job store unavailable")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "job store unavailable", MessageOf(err))
		assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
	})
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeValidation))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeNotReady))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(CodeUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Code("unknown")))
}
