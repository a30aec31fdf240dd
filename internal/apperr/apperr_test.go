package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:        http.StatusBadRequest,
		CodeDuplicateUser:     http.StatusBadRequest,
		CodeAuthentication:    http.StatusBadRequest,
		CodeSignature:         http.StatusBadRequest,
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeNotFound:          http.StatusNotFound,
		CodeInvalidTransition: http.StatusConflict,
		CodeDependency:        http.StatusInternalServerError,
		CodeInternal:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	base := Dependency(errors.New("smtp down"), "failed to send email")
	wrapped := fmt.Errorf("notify: %w", base)

	assert.True(t, IsCode(wrapped, CodeDependency))
	assert.Equal(t, CodeDependency, CodeOf(wrapped))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.False(t, Exposed(CodeDependency))
	assert.True(t, Exposed(CodeNotFound))
}
