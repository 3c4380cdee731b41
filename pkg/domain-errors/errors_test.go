package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeConflict, "record exists")
	assert.Equal(t, CodeConflict, CodeOf(err))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, CodeConflict, CodeOf(wrapped), "code survives fmt.Errorf wrapping")

	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")), "uncoded errors default to internal")
	assert.Equal(t, CodeInternal, CodeOf(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "write record")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Contains(t, err.Error(), "write record")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewf(t *testing.T) {
	err := Newf(CodeNotFound, "product %q does not exist", "RM1")
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Equal(t, `not_found: product "RM1" does not exist`, err.Error())
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthorized: http.StatusForbidden,
		CodeConflict:     http.StatusConflict,
		CodeNotFound:     http.StatusNotFound,
		CodeValidation:   http.StatusBadRequest,
		CodeBadRequest:   http.StatusBadRequest,
		CodeInternal:     http.StatusInternalServerError,
		Code("bogus"):    http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
