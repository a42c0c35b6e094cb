package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrorWrapKeepsCode(t *testing.T) {
	cause := errors.New("upstream 500")
	err := fmt.Errorf("suggest: %w", ErrAIServiceError.Wrap(cause))

	assert.True(t, errors.Is(err, ErrAIServiceError))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrInvalidRequest))

	ce := AsCustomError(err)
	assert.Equal(t, ErrCodeAIServiceError, ce.Code)
	assert.Equal(t, http.StatusBadGateway, ce.Status)
	assert.Contains(t, ce.Error(), "upstream 500")
}

func TestAsCustomError(t *testing.T) {
	t.Run("validation error becomes bad request", func(t *testing.T) {
		ce := AsCustomError(NewValidationError("photo is required"))
		assert.Equal(t, ErrCodeInvalidRequest, ce.Code)
		assert.Equal(t, "photo is required", ce.Message)
		assert.Equal(t, http.StatusBadRequest, ce.Status)
	})

	t.Run("plain error becomes internal error", func(t *testing.T) {
		ce := AsCustomError(errors.New("boom"))
		assert.Equal(t, ErrCodeInternalError, ce.Code)
		assert.Equal(t, http.StatusInternalServerError, ce.Status)
	})
}

func TestWithMessageDoesNotMutate(t *testing.T) {
	custom := ErrInvalidImageType.WithMessage("text/plain is not an image")
	assert.Equal(t, "text/plain is not an image", custom.Message)
	assert.Equal(t, "Unsupported image type", ErrInvalidImageType.Message)
}
