package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"config", Config("bad prefix"), http.StatusBadRequest},
		{"validation", Validation("reason required"), http.StatusBadRequest},
		{"fit", Fit("does not fit"), http.StatusBadRequest},
		{"not found", NotFound("rack", "r1"), http.StatusNotFound},
		{"conflict", Conflict("taken"), http.StatusConflict},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped conflict", fmt.Errorf("assign: %w", Conflict("taken")), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestKindOfAndIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("address", "a1"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindConflict))
	assert.False(t, Is(nil, KindInternal))
	assert.Equal(t, "a1", SubjectOf(err))
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, cause, "update %s", "rack")

	assert.Equal(t, "update rack: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal error", Message(err))
	assert.Equal(t, "position conflicts with web-01", Message(Conflict("position conflicts with %s", "web-01")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "internal", Kind(99).String())
}
