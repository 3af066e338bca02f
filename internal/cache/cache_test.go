package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptran/notify-center/internal/cache"
	"github.com/ptran/notify-center/internal/model"
	"github.com/ptran/notify-center/internal/settings"
)

func openTestCache(t *testing.T) *cache.Cache {
	t.Helper()

	c, err := cache.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSeenMessageDedup(t *testing.T) {
	c := openTestCache(t)

	seen, err := c.IsSeen("email", "msg-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, c.MarkSeen("email", "msg-1"))
	require.NoError(t, c.MarkSeen("email", "msg-1"), "marking twice is fine")

	seen, err = c.IsSeen("email", "msg-1")
	require.NoError(t, err)
	assert.True(t, seen)

	// Scoped per source.
	seen, err = c.IsSeen("webhook", "msg-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestPreferenceSnapshotRoundTrip(t *testing.T) {
	c := openTestCache(t)

	_, ok, err := c.LoadPreferences()
	require.NoError(t, err)
	assert.False(t, ok, "fresh cache has no snapshot")

	prefs := model.DefaultPreferences()
	prefs.EmailEnabled = false
	prefs.OpportunityEnabled = false
	require.NoError(t, c.SavePreferences(prefs))

	got, ok, err := c.LoadPreferences()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, prefs, got)

	// Upsert replaces the single row.
	prefs.EmailEnabled = true
	require.NoError(t, c.SavePreferences(prefs))

	got, ok, err = c.LoadPreferences()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, prefs, got)
}

func TestPruneSeenKeepsRecentEntries(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.MarkSeen("email", "recent"))
	require.NoError(t, c.PruneSeen())

	seen, err := c.IsSeen("email", "recent")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestCacheSatisfiesSnapshotStore(t *testing.T) {
	var _ settings.SnapshotStore = openTestCache(t)
}
