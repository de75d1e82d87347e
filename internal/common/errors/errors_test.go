package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardError_Error(t *testing.T) {
	err := NewConfigurationError("Set TM_BASE_URL or TEKMETRIC_BASE_URL.")
	assert.Equal(t, "Set TM_BASE_URL or TEKMETRIC_BASE_URL.", err.Error())

	validation := NewValidationError("missing vehicleId")
	assert.Equal(t, "missing vehicleId", validation.Error())
}

func TestUpstreamAPIError_Error(t *testing.T) {
	err := NewUpstreamAPIError(404, "/repair-orders/123", `{"message":"not found"}`)
	assert.Equal(t, `Tekmetric API error 404 on /repair-orders/123: {"message":"not found"}`, err.Error())
	assert.False(t, err.Retryable())
	assert.True(t, NewUpstreamAPIError(503, "/vehicles/1", "").Retryable())
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"configuration", NewConfigurationError("x"), ErrCodeConfiguration},
		{"auth", NewUpstreamAuthError("{}"), ErrCodeUpstreamAuth},
		{"validation", NewValidationError("missing customerId"), ErrCodeValidation},
		{"upstream api", NewUpstreamAPIError(500, "/x", ""), ErrCodeUpstreamAPI},
		{"wrapped", fmt.Errorf("build: %w", NewValidationError("missing vehicleId")), ErrCodeValidation},
		{"plain", stderrors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewUpstreamAuthError("{}")))
	assert.False(t, IsRetryable(NewValidationError("missing vehicleId")))
	assert.True(t, IsRetryable(fmt.Errorf("wrap: %w", NewUpstreamAPIError(502, "/x", ""))))
	assert.False(t, IsRetryable(stderrors.New("boom")))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "CONFIG", GetErrorCategory(ErrCodeConfiguration))
	assert.Equal(t, "UPSTREAM", GetErrorCategory(ErrCodeUpstreamAPI))
	assert.Equal(t, "UPSTREAM", GetErrorCategory(ErrCodeUpstreamAuth))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeSynthesisDegraded))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidation))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
