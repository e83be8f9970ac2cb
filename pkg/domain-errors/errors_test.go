package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCause = errors.New("lottery is full")

func TestWrapPreservesCause(t *testing.T) {
	err := Wrap(errCause, CodeConflict, "lottery 7")

	require.ErrorIs(t, err, errCause)
	assert.True(t, HasCode(err, CodeConflict))
	assert.Equal(t, "lottery 7: lottery is full", err.Error())
}

func TestHasCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("enter: %w", New(CodeNotFound, "lottery not found"))

	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestCodeOfUncoded(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodePreconditionFailed: http.StatusPreconditionFailed,
		CodeNotImplemented:     http.StatusNotImplemented,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
