package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-recipe/internal/infrastructure/config"
)

func newTestManager(t *testing.T, cfg config.SessionConfig) (*Manager, *PreviewRegistry) {
	t.Helper()
	previews := NewPreviewRegistry()
	m := NewManager(cfg, func() *Controller {
		return NewController(&stubSuggester{}, stubEncoder{}, previews)
	})
	t.Cleanup(func() { _ = m.Close() })
	return m, previews
}

func TestManagerGetOrCreate(t *testing.T) {
	m, _ := newTestManager(t, config.SessionConfig{TTL: time.Minute, MaxSize: 10, CleanupInterval: time.Minute})

	id, ctrl := m.GetOrCreate("")
	require.NotEmpty(t, id)
	require.NotNil(t, ctrl)

	sameID, same := m.GetOrCreate(id)
	assert.Equal(t, id, sameID)
	assert.Same(t, ctrl, same)

	otherID, other := m.GetOrCreate("unknown-session")
	assert.NotEqual(t, "unknown-session", otherID)
	assert.NotSame(t, ctrl, other)
	assert.Equal(t, 2, m.Len())
}

func TestManagerExpiryClosesController(t *testing.T) {
	m, previews := newTestManager(t, config.SessionConfig{TTL: 20 * time.Millisecond, MaxSize: 10, CleanupInterval: time.Hour})

	id, ctrl := m.GetOrCreate("")
	ctrl.SelectFile(fridge)
	require.Equal(t, 1, previews.Len())

	time.Sleep(40 * time.Millisecond)
	_, ok := m.Get(id)
	assert.False(t, ok)
	assert.Zero(t, previews.Len())
	assert.Zero(t, m.Len())
}

func TestManagerEvictsLeastRecentlyUsed(t *testing.T) {
	m, previews := newTestManager(t, config.SessionConfig{TTL: time.Minute, MaxSize: 2, CleanupInterval: time.Hour})

	idA, ctrlA := m.GetOrCreate("")
	ctrlA.SelectFile(fridge)
	time.Sleep(2 * time.Millisecond)
	idB, _ := m.GetOrCreate("")
	time.Sleep(2 * time.Millisecond)

	// B 被存取過，A 應被淘汰
	_, ok := m.Get(idB)
	require.True(t, ok)

	idC, _ := m.GetOrCreate("")
	assert.Equal(t, 2, m.Len())

	_, ok = m.Get(idA)
	assert.False(t, ok)
	_, ok = m.Get(idB)
	assert.True(t, ok)
	_, ok = m.Get(idC)
	assert.True(t, ok)
	assert.Zero(t, previews.Len(), "evicted controller releases its preview")

	stats := m.GetStats()
	assert.EqualValues(t, 1, stats["evictions"])
	assert.EqualValues(t, 3, stats["created"])
}

func TestManagerEvictionIgnoresAccessCount(t *testing.T) {
	m, _ := newTestManager(t, config.SessionConfig{TTL: time.Minute, MaxSize: 2, CleanupInterval: time.Hour})

	idA, _ := m.GetOrCreate("")
	for i := 0; i < 5; i++ {
		_, ok := m.Get(idA)
		require.True(t, ok)
	}
	time.Sleep(2 * time.Millisecond)
	idB, _ := m.GetOrCreate("")
	time.Sleep(2 * time.Millisecond)

	// A 存取次數較多但較久未使用
	m.GetOrCreate("")

	_, ok := m.Get(idB)
	assert.True(t, ok)
	_, ok = m.Get(idA)
	assert.False(t, ok)
}

func TestManagerCloseReleasesAll(t *testing.T) {
	previews := NewPreviewRegistry()
	m := NewManager(config.SessionConfig{TTL: time.Minute, MaxSize: 5, CleanupInterval: 10 * time.Millisecond}, func() *Controller {
		return NewController(&stubSuggester{}, stubEncoder{}, previews)
	})

	_, ctrl := m.GetOrCreate("")
	ctrl.SelectFile(fridge)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Zero(t, m.Len())
	assert.Zero(t, previews.Len())
}
