package errno

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindAndStatusThroughWrapping(t *testing.T) {
	base := New(KindInvalidInput, "title is required")
	wrapped := fmt.Errorf("mint: %w", base)

	assert.Equal(t, KindInvalidInput, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindInvalidInput))
	assert.Equal(t, http.StatusBadRequest, StatusOf(wrapped))
}

func TestStatusOverride(t *testing.T) {
	err := Wrap(KindGenerationFailed, "image generation failed", errors.New("rate limited")).WithStatus(http.StatusTooManyRequests)

	assert.Equal(t, http.StatusTooManyRequests, StatusOf(err))
	assert.Equal(t, "rate limited", err.Details)
}

func TestPlainErrorIsUnknown(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.False(t, Is(nil, KindUnknown))
}
