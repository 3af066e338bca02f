package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptran/notify-center/internal/engine"
	"github.com/ptran/notify-center/internal/model"
	"github.com/ptran/notify-center/internal/remote"
	"github.com/ptran/notify-center/internal/store"
	"github.com/ptran/notify-center/internal/toast"
	"github.com/ptran/notify-center/tests/testutil"
)

type staticPrefs struct {
	prefs model.PreferenceSet
}

func (s staticPrefs) Current() model.PreferenceSet { return s.prefs }

func rawN(id, typ string, read bool) remote.RawNotification {
	return remote.RawNotification{
		ID:        id,
		Type:      typ,
		Title:     "title " + id,
		Message:   "message " + id,
		Read:      read,
		CreatedAt: time.Now(),
	}
}

func newTestEngine(svc remote.Service) (*engine.Engine, *store.Store, *toast.Scheduler) {
	st := store.New()
	sched := toast.NewScheduler(time.Minute, 5)
	e := engine.New(engine.Config{
		Service:         svc,
		Store:           st,
		Toasts:          sched,
		Prefs:           staticPrefs{prefs: model.DefaultPreferences()},
		PageLimit:       50,
		RefreshInterval: time.Hour,
	})
	return e, st, sched
}

// nextMsg waits for the next engine event with a timeout so a broken
// engine fails the test instead of hanging it.
func nextMsg(t *testing.T, e *engine.Engine) tea.Msg {
	t.Helper()

	ch := make(chan tea.Msg, 1)
	go func() { ch <- e.WaitForEvent()() }()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for engine event")
		return nil
	}
}

func nextSyncResult(t *testing.T, e *engine.Engine) engine.SyncResultMsg {
	t.Helper()

	for i := 0; i < 10; i++ {
		if msg, ok := nextMsg(t, e).(engine.SyncResultMsg); ok {
			return msg
		}
	}
	t.Fatal("no sync result received")
	return engine.SyncResultMsg{}
}

func TestInitialLoadPopulatesStore(t *testing.T) {
	svc := &testutil.FakeService{
		ListFn: func(ctx context.Context, opts remote.ListOptions) (*remote.ListResult, error) {
			return &remote.ListResult{
				Items: []remote.RawNotification{
					rawN("a", "system_update", false),
					rawN("b", "event_reminder", true),
				},
			}, nil
		},
	}
	e, st, _ := newTestEngine(svc)
	e.Start()
	defer e.Stop()

	msg := nextSyncResult(t, e)
	require.NoError(t, msg.Err)
	assert.True(t, msg.Initial)

	require.Equal(t, 2, st.Len())
	stats := st.Stats()
	assert.Equal(t, 2, stats.All.Total)
	assert.Equal(t, 1, stats.All.Unread)
	assert.Equal(t, model.StatBucket{Total: 1, Unread: 0}, stats.ByCategory[model.CategoryEvent])
}

func TestRefreshFailureKeepsStore(t *testing.T) {
	calls := 0
	svc := &testutil.FakeService{
		ListFn: func(ctx context.Context, opts remote.ListOptions) (*remote.ListResult, error) {
			calls++
			if calls == 1 {
				return &remote.ListResult{
					Items: []remote.RawNotification{rawN("a", "system", false)},
				}, nil
			}
			return nil, errors.New("boom")
		},
	}
	e, st, _ := newTestEngine(svc)
	e.Start()
	defer e.Stop()

	require.NoError(t, nextSyncResult(t, e).Err)
	require.Equal(t, 1, st.Len())

	e.Refresh()
	msg := nextSyncResult(t, e)
	require.Error(t, msg.Err)
	assert.False(t, msg.AuthError)

	// Last-known-good contents survive the failed refresh.
	assert.Equal(t, 1, st.Len())
	assert.Error(t, e.Err())
}

func TestRefreshAuthFailureFlagged(t *testing.T) {
	svc := &testutil.FakeService{
		ListFn: func(ctx context.Context, opts remote.ListOptions) (*remote.ListResult, error) {
			return nil, &remote.AuthError{Message: "token expired"}
		},
	}
	e, _, _ := newTestEngine(svc)
	e.Start()
	defer e.Stop()

	msg := nextSyncResult(t, e)
	require.Error(t, msg.Err)
	assert.True(t, msg.AuthError)
}

func TestStatsOverrideApplied(t *testing.T) {
	svc := &testutil.FakeService{
		ListFn: func(ctx context.Context, opts remote.ListOptions) (*remote.ListResult, error) {
			return &remote.ListResult{
				Items: []remote.RawNotification{
					rawN("a", "event", false),
					rawN("b", "system", false),
				},
			}, nil
		},
		StatsFn: func(ctx context.Context) (*remote.StatsPayload, error) {
			return &remote.StatsPayload{
				ByCategory: map[string]remote.BucketPayload{
					"event": {Total: 7, Unread: 4},
				},
			}, nil
		},
	}
	e, st, _ := newTestEngine(svc)
	e.Start()
	defer e.Stop()

	require.NoError(t, nextSyncResult(t, e).Err)

	stats := st.Stats()
	assert.Equal(t, model.StatBucket{Total: 7, Unread: 4}, stats.ByCategory[model.CategoryEvent])
	assert.Equal(t, model.StatBucket{Total: 1, Unread: 1}, stats.ByCategory[model.CategorySystem])
	assert.Equal(t, 8, stats.All.Total)
	assert.Equal(t, 5, stats.All.Unread)
}

func TestStatsFailureFallsBackToLocalAggregates(t *testing.T) {
	svc := &testutil.FakeService{
		ListFn: func(ctx context.Context, opts remote.ListOptions) (*remote.ListResult, error) {
			return &remote.ListResult{
				Items: []remote.RawNotification{
					rawN("a", "event", false),
					rawN("b", "member request", true),
				},
			}, nil
		},
		StatsFn: func(ctx context.Context) (*remote.StatsPayload, error) {
			return nil, errors.New("stats unavailable")
		},
	}
	e, st, _ := newTestEngine(svc)
	e.Start()
	defer e.Stop()

	// Stats failure does not fail the sync.
	require.NoError(t, nextSyncResult(t, e).Err)

	stats := st.Stats()
	assert.Equal(t, 2, stats.All.Total)
	assert.Equal(t, 1, stats.All.Unread)
}

func TestMarkReadIsOptimistic(t *testing.T) {
	svc := &testutil.FakeService{}
	e, st, _ := newTestEngine(svc)
	st.Load([]model.Notification{
		{ID: "a", Category: model.CategorySystem, Read: false},
	})

	e.MarkRead("a")

	// Local flip happens before the remote call resolves.
	n, ok := st.Get("a")
	require.True(t, ok)
	assert.True(t, n.Read)

	require.Eventually(t, func() bool {
		ids := svc.RecordedMarkReadIDs()
		return len(ids) == 1 && ids[0] == "a"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMutationFailureKeepsLocalState(t *testing.T) {
	svc := &testutil.FakeService{
		MarkReadFn: func(ctx context.Context, id string) error {
			return errors.New("server error")
		},
	}
	e, st, _ := newTestEngine(svc)
	st.Load([]model.Notification{
		{ID: "a", Category: model.CategoryEvent, Read: false},
	})

	e.MarkRead("a")

	msg, ok := nextMsg(t, e).(engine.MutationErrorMsg)
	require.True(t, ok, "expected a mutation error event")
	assert.Equal(t, "mark read", msg.Op)
	require.Error(t, msg.Err)

	// No rollback.
	n, _ := st.Get("a")
	assert.True(t, n.Read)
}

func TestRemoveAllReadRoundTrip(t *testing.T) {
	deleted := make(chan struct{}, 1)
	svc := &testutil.FakeService{
		DeleteAllFn: func(ctx context.Context) error {
			deleted <- struct{}{}
			return nil
		},
	}
	e, st, _ := newTestEngine(svc)
	st.Load([]model.Notification{
		{ID: "a", Category: model.CategorySystem, Read: true},
		{ID: "b", Category: model.CategoryEvent, Read: false},
	})

	e.RemoveAllRead()

	assert.Equal(t, 1, st.Len())
	select {
	case <-deleted:
	case <-time.After(2 * time.Second):
		t.Fatal("remote delete-all-read never issued")
	}
}

func TestSendTestIngestsOnSuccess(t *testing.T) {
	svc := &testutil.FakeService{
		SendTestFn: func(ctx context.Context) (*remote.RawNotification, error) {
			raw := rawN("t1", "event invitation", false)
			return &raw, nil
		},
	}
	e, st, sched := newTestEngine(svc)

	e.SendTest()

	var arrival engine.ArrivalMsg
	var result engine.TestResultMsg
	for i := 0; i < 2; i++ {
		switch msg := nextMsg(t, e).(type) {
		case engine.ArrivalMsg:
			arrival = msg
		case engine.TestResultMsg:
			result = msg
		}
	}

	require.NoError(t, result.Err)
	assert.Equal(t, model.CategoryEvent, arrival.Notification.Category)
	assert.True(t, arrival.Toasted)

	require.Equal(t, 1, st.Len())
	assert.Len(t, sched.Active(), 1)
}

func TestSendTestFailureFabricatesNothing(t *testing.T) {
	svc := &testutil.FakeService{
		SendTestFn: func(ctx context.Context) (*remote.RawNotification, error) {
			return nil, errors.New("unavailable")
		},
	}
	e, st, sched := newTestEngine(svc)

	e.SendTest()

	msg, ok := nextMsg(t, e).(engine.TestResultMsg)
	require.True(t, ok)
	require.Error(t, msg.Err)

	assert.Equal(t, 0, st.Len())
	assert.Empty(t, sched.Active())
}

func TestIngestGatesToastOnPreferences(t *testing.T) {
	prefs := model.DefaultPreferences()
	prefs.PushEnabled = false

	st := store.New()
	sched := toast.NewScheduler(time.Minute, 5)
	e := engine.New(engine.Config{
		Service: &testutil.FakeService{},
		Store:   st,
		Toasts:  sched,
		Prefs:   staticPrefs{prefs: prefs},
	})

	n := e.Ingest(rawN("a", "member mention", false))

	assert.Equal(t, model.CategoryMember, n.Category)
	assert.Equal(t, 1, st.Len())
	assert.Empty(t, sched.Active(), "push disabled suppresses the toast")
}

func TestOverlappingRefreshesAreSafe(t *testing.T) {
	svc := &testutil.FakeService{
		ListFn: func(ctx context.Context, opts remote.ListOptions) (*remote.ListResult, error) {
			time.Sleep(20 * time.Millisecond)
			return &remote.ListResult{
				Items: []remote.RawNotification{
					rawN("a", "system", false),
					rawN("b", "event", true),
				},
			}, nil
		},
	}
	e, st, _ := newTestEngine(svc)
	e.Start()
	defer e.Stop()

	e.Refresh()
	e.Refresh()

	for i := 0; i < 2; i++ {
		require.NoError(t, nextSyncResult(t, e).Err)
	}

	stats := st.Stats()
	sumTotal, sumUnread := 0, 0
	for _, b := range stats.ByCategory {
		sumTotal += b.Total
		sumUnread += b.Unread
	}
	assert.Equal(t, stats.All.Total, sumTotal)
	assert.Equal(t, stats.All.Unread, sumUnread)
	assert.Equal(t, 2, st.Len())
}

func TestResetClearsEverything(t *testing.T) {
	svc := &testutil.FakeService{}
	e, st, sched := newTestEngine(svc)
	st.Load([]model.Notification{{ID: "a", Category: model.CategorySystem}})
	e.Ingest(rawN("b", "event", false))

	e.Reset()

	assert.Equal(t, 0, st.Len())
	assert.Empty(t, sched.Active())
	assert.NoError(t, e.Err())
}
