package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptran/notify-center/internal/model"
	"github.com/ptran/notify-center/internal/remote"
)

func TestListNotificationsParsesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/notifications", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"notifications": []map[string]any{
				{
					"id":         "n1",
					"type":       "event_invite",
					"title":      "You are invited",
					"message":    "Potluck on Friday",
					"read":       false,
					"created_at": time.Now().Format(time.RFC3339),
				},
			},
			"total":        41,
			"unread_count": 7,
		})
	}))
	defer srv.Close()

	c := remote.NewClient(srv.URL, "tok")
	res, err := c.ListNotifications(context.Background(), remote.ListOptions{Page: 2, Limit: 25})
	require.NoError(t, err)

	assert.Equal(t, 41, res.Total)
	assert.Equal(t, 7, res.UnreadCount)
	require.Len(t, res.Items, 1)

	n := res.Items[0].Normalize()
	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, model.CategoryEvent, n.Category)
	assert.False(t, n.Read)
}

func TestUnauthorizedReturnsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := remote.NewClient(srv.URL, "bad-token")
	_, err := c.GetStats(context.Background())
	require.Error(t, err)
	assert.True(t, remote.IsAuthError(err))
}

func TestRateLimitRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := remote.NewClient(srv.URL, "tok")
	err := c.MarkAllRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAPIErrorEnvelopeSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "already deleted"})
	}))
	defer srv.Close()

	c := remote.NewClient(srv.URL, "tok")
	err := c.DeleteOne(context.Background(), "n9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already deleted")
	assert.False(t, remote.IsAuthError(err))
}

func TestGetStatsPartialOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/notifications/stats", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"unread_total": 9,
			"by_category": map[string]any{
				"event":   map[string]int{"total": 5, "unread": 3},
				"invalid": map[string]int{"total": 99, "unread": 99},
			},
		})
	}))
	defer srv.Close()

	c := remote.NewClient(srv.URL, "tok")
	stats, err := c.GetStats(context.Background())
	require.NoError(t, err)

	over := stats.CategoryOverride()
	require.Len(t, over, 1, "unknown category keys are dropped")
	assert.Equal(t, model.StatBucket{Total: 5, Unread: 3}, over[model.CategoryEvent])
}

func TestGetPreferencesFlatShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"email_enabled": false,
			"event_enabled": false,
		})
	}))
	defer srv.Close()

	c := remote.NewClient(srv.URL, "tok")
	raw, err := c.GetPreferences(context.Background())
	require.NoError(t, err)

	got := raw.Normalize(model.DefaultPreferences())
	assert.False(t, got.EmailEnabled)
	assert.False(t, got.EventEnabled)
	// Fields absent from the payload keep their prior values.
	assert.True(t, got.PushEnabled)
	assert.True(t, got.SystemEnabled)
}

func TestGetPreferencesNestedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"push_enabled": true,
			"categories": map[string]bool{
				"event":  false,
				"member": true,
			},
		})
	}))
	defer srv.Close()

	c := remote.NewClient(srv.URL, "tok")
	raw, err := c.GetPreferences(context.Background())
	require.NoError(t, err)

	got := raw.Normalize(model.DefaultPreferences())
	assert.True(t, got.PushEnabled)
	assert.False(t, got.EventEnabled)
	assert.True(t, got.MemberEnabled)
	assert.True(t, got.OpportunityEnabled)
}

func TestSetPreferencesWritesFullPayload(t *testing.T) {
	var received remote.RawPreferences
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	prefs := model.DefaultPreferences()
	prefs.MemberEnabled = false

	c := remote.NewClient(srv.URL, "tok")
	require.NoError(t, c.SetPreferences(context.Background(), remote.PreferencesToWire(prefs)))

	// Every field is present on the wire, not just the changed one.
	require.NotNil(t, received.EmailEnabled)
	require.NotNil(t, received.PushEnabled)
	require.NotNil(t, received.SystemEnabled)
	require.NotNil(t, received.EventEnabled)
	require.NotNil(t, received.OpportunityEnabled)
	require.NotNil(t, received.MemberEnabled)
	assert.False(t, *received.MemberEnabled)
	assert.True(t, *received.EventEnabled)
}

func TestSendTestUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(map[string]any{
			"notification": map[string]any{
				"id":    "t1",
				"type":  "system",
				"title": "Test notification",
			},
		})
	}))
	defer srv.Close()

	c := remote.NewClient(srv.URL, "tok")
	raw, err := c.SendTest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", raw.ID)
	assert.Equal(t, "Test notification", raw.Title)
}

func TestMeReturnsPrincipal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/me", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"id":    "u7",
			"name":  "Jordan",
			"email": "jordan@example.org",
		})
	}))
	defer srv.Close()

	c := remote.NewClient(srv.URL, "tok")
	p, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u7", p.ID)
	assert.Equal(t, "Jordan", p.Name)
}
