package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewRegistry(t *testing.T) {
	r := NewPreviewRegistry()

	token := r.Acquire("fridge.jpg", "image/jpeg", []byte{1, 2})
	p, ok := r.Get(token)
	require.True(t, ok)
	assert.Equal(t, "fridge.jpg", p.Name)
	assert.Equal(t, "image/jpeg", p.MIMEType)

	other := r.Acquire("pantry.png", "image/png", []byte{3})
	assert.NotEqual(t, token, other)
	assert.Equal(t, 2, r.Len())

	r.Release(token)
	r.Release(token)
	r.Release("")
	_, ok = r.Get(token)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}
