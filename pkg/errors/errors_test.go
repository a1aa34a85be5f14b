package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeValidationFailed, http.StatusBadRequest},
		{CodeProfileNotFound, http.StatusNotFound},
		{CodeTemplateEcho, http.StatusBadGateway},
		{CodeParseFailed, http.StatusBadGateway},
		{CodeDatabaseError, http.StatusInternalServerError},
		{CodeTooManyRequests, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, New(tt.code, "x").HTTPStatus, string(tt.code))
	}
}

func TestWithDetailDoesNotMutatePredefined(t *testing.T) {
	e := ErrValidationFailed.WithDetail("idea too short")
	assert.Equal(t, "idea too short", e.Detail)
	assert.Empty(t, ErrValidationFailed.Detail)
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := ErrParseFailed.WithError(fmt.Errorf("no sections"))
	wrapped := fmt.Errorf("variation 2: %w", base)

	assert.True(t, IsCode(wrapped, CodeParseFailed))
	assert.False(t, IsCode(wrapped, CodeTemplateEcho))
	assert.True(t, IsAppError(wrapped))
	assert.Equal(t, CodeParseFailed, AsAppError(wrapped).Code)
	assert.Equal(t, CodeUnknown, AsAppError(fmt.Errorf("plain")).Code)
}
