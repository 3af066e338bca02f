// Package engine orchestrates remote round-trips for the notification
// store: initial load, periodic and manual refresh, optimistic
// mutations, and ingestion of externally-arriving notifications.
//
// Mutations are applied to the local store synchronously at call time
// and the matching remote call is issued in the background. A remote
// failure does not roll the local change back; the next successful
// refresh is the reconciliation point. Failures are reported on the
// event channel and the log instead.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ptran/notify-center/internal/model"
	"github.com/ptran/notify-center/internal/remote"
	"github.com/ptran/notify-center/internal/store"
	"github.com/ptran/notify-center/internal/toast"
)

// State represents the current sync state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateError
)

// fetchTimeout is the maximum time allowed for a single remote call.
const fetchTimeout = 30 * time.Second

// SyncResultMsg is a tea.Msg sent when a load or refresh completes.
// On failure the store keeps its last-known-good contents.
type SyncResultMsg struct {
	Initial   bool
	Err       error
	AuthError bool
}

// ArrivalMsg is a tea.Msg sent when an externally-originated
// notification has been ingested into the store.
type ArrivalMsg struct {
	Notification model.Notification
	Toasted      bool
}

// TestResultMsg is a tea.Msg sent when a test-send completes. On
// failure nothing was inserted locally.
type TestResultMsg struct {
	Err error
}

// MutationErrorMsg is a tea.Msg sent when a fire-and-forget remote
// mutation fails. The optimistic local change stands.
type MutationErrorMsg struct {
	Op  string
	Err error
}

// PreferenceSource supplies the current preference set for toast
// gating. Implemented by settings.Sync.
type PreferenceSource interface {
	Current() model.PreferenceSet
}

// Config holds the options for New.
type Config struct {
	Service         remote.Service
	Store           *store.Store
	Toasts          *toast.Scheduler
	Prefs           PreferenceSource
	Logger          *slog.Logger
	PageLimit       int
	RefreshInterval time.Duration
}

// Engine is the sync orchestrator. One engine instance exists per
// active session; it is constructed on session start and torn down
// (Stop + Reset) on session end.
type Engine struct {
	svc       remote.Service
	store     *store.Store
	toasts    *toast.Scheduler
	prefs     PreferenceSource
	logger    *slog.Logger
	pageLimit int
	interval  time.Duration

	eventCh   chan tea.Msg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu       gosync.Mutex
	running  bool
	state    State
	lastErr  error
	lastSync time.Time
}

// New creates an engine. The store, scheduler, and preference source
// are owned by the caller and shared with the presentation host.
func New(cfg Config) *Engine {
	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = 50
	}
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = 120 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		svc:       cfg.Service,
		store:     cfg.Store,
		toasts:    cfg.Toasts,
		prefs:     cfg.Prefs,
		logger:    logger,
		pageLimit: pageLimit,
		interval:  interval,
		eventCh:   make(chan tea.Msg, 16),
		triggerCh: make(chan struct{}, 16),
		stopCh:    make(chan struct{}),
	}
}

// Store returns the notification store the engine reconciles into.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Start begins the background sync loop: an immediate initial load,
// then periodic refreshes and manual triggers. The returned command
// subscribes to the engine's event channel.
func (e *Engine) Start() tea.Cmd {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return e.waitForEvent()
	}
	e.running = true
	e.mu.Unlock()

	go e.loop()

	return e.waitForEvent()
}

// Stop halts the background loop. In-flight round-trips finish on
// their own; their completions are simply dropped if nobody listens.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	close(e.stopCh)
	e.running = false
}

// Refresh requests an immediate reload. Safe to call while a prior
// refresh is still in flight: both complete, and whichever load
// finishes last determines the store contents.
func (e *Engine) Refresh() {
	select {
	case e.triggerCh <- struct{}{}:
	default:
		// Trigger channel full; a refresh is already queued.
	}
}

// loop runs the initial load, then waits for the ticker, manual
// triggers, or stop.
func (e *Engine) loop() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	go e.runSync(true)

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			go e.runSync(false)
		case <-e.triggerCh:
			go e.runSync(false)
		}
	}
}

// runSync performs one list+stats round-trip and reconciles the result
// into the store. The list call is authoritative for the collection;
// the stats call is best-effort, falling back to locally computed
// aggregates when it fails.
func (e *Engine) runSync(initial bool) {
	e.setState(StateLoading, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	result, err := e.svc.ListNotifications(ctx, remote.ListOptions{
		Page:  1,
		Limit: e.pageLimit,
	})
	if err != nil {
		// Keep the last-known-good store contents.
		e.setState(StateError, err)
		e.logger.Warn("notification sync failed", "initial", initial, "error", err)
		e.send(SyncResultMsg{
			Initial:   initial,
			Err:       err,
			AuthError: remote.IsAuthError(err),
		})
		return
	}

	records := make([]model.Notification, 0, len(result.Items))
	for _, raw := range result.Items {
		records = append(records, raw.Normalize())
	}
	e.store.Load(records)

	// Stats are an authoritative override where present; a failure here
	// leaves the locally computed aggregates standing.
	stats, statsErr := e.svc.GetStats(ctx)
	if statsErr != nil {
		e.logger.Warn("stats fetch failed; using local aggregates", "error", statsErr)
	} else {
		e.store.ApplyStatsOverride(stats.CategoryOverride())
	}

	e.setState(StateIdle, nil)
	e.send(SyncResultMsg{Initial: initial})
}

// MarkRead flips one notification to read locally, then tells the
// remote service in the background.
func (e *Engine) MarkRead(id string) {
	e.store.MarkRead(id)
	e.fireAndForget("mark read", func(ctx context.Context) error {
		return e.svc.MarkRead(ctx, id)
	})
}

// MarkAllRead flips every notification to read locally, then tells the
// remote service in the background.
func (e *Engine) MarkAllRead() {
	e.store.MarkAllRead()
	e.fireAndForget("mark all read", func(ctx context.Context) error {
		return e.svc.MarkAllRead(ctx)
	})
}

// Remove deletes one notification locally, then tells the remote
// service in the background.
func (e *Engine) Remove(id string) {
	e.store.Remove(id)
	e.fireAndForget("delete", func(ctx context.Context) error {
		return e.svc.DeleteOne(ctx, id)
	})
}

// RemoveAllRead deletes every read notification locally, then tells
// the remote service in the background.
func (e *Engine) RemoveAllRead() {
	e.store.RemoveAllRead()
	e.fireAndForget("delete read", func(ctx context.Context) error {
		return e.svc.DeleteAllRead(ctx)
	})
}

// SendTest asks the remote service to synthesize one notification. On
// success the record flows through Ingest; on failure nothing is
// fabricated locally and the error is surfaced.
func (e *Engine) SendTest() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		raw, err := e.svc.SendTest(ctx)
		if err != nil {
			e.setState(StateError, err)
			e.logger.Warn("test notification failed", "error", err)
			e.send(TestResultMsg{Err: err})
			return
		}

		e.Ingest(*raw)
		e.send(TestResultMsg{})
	}()
}

// Ingest normalizes an externally-arriving raw record, inserts it into
// the store, and offers it to the toast scheduler under the current
// preferences. Used by SendTest and the arrival sources.
func (e *Engine) Ingest(raw remote.RawNotification) model.Notification {
	n := raw.Normalize()
	e.store.Insert(n)

	toasted := false
	if e.toasts != nil && e.prefs != nil {
		toasted = e.toasts.Offer(n, e.prefs.Current())
	}

	e.send(ArrivalMsg{Notification: n, Toasted: toasted})
	return n
}

// Err returns the current engine error, nil after the last successful
// sync.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Status returns the sync state and the time of the last successful
// sync.
func (e *Engine) Status() (State, time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.lastSync
}

// Reset clears the store, pending toasts, and error state. Called when
// the session ends.
func (e *Engine) Reset() {
	e.store.Clear()
	if e.toasts != nil {
		e.toasts.Clear()
	}
	e.setState(StateIdle, nil)
}

// WaitForEvent returns a tea.Cmd that waits for the next engine event.
// The host should re-issue it after each received message.
func (e *Engine) WaitForEvent() tea.Cmd {
	return e.waitForEvent()
}

func (e *Engine) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-e.eventCh
		if !ok {
			return nil
		}
		return msg
	}
}

// fireAndForget runs a remote mutation in the background. A failure is
// logged and reported but never rolls back the local change.
func (e *Engine) fireAndForget(op string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			e.logger.Warn("remote mutation failed; local state kept",
				"op", op, "error", err)
			e.send(MutationErrorMsg{
				Op:  op,
				Err: fmt.Errorf("%s: %w", op, err),
			})
		}
	}()
}

// setState updates the sync state and error value.
func (e *Engine) setState(state State, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = state
	// A refresh in progress keeps the previous error visible until it
	// either succeeds or fails on its own.
	if state != StateLoading {
		e.lastErr = err
	}
	if state == StateIdle && err == nil {
		e.lastSync = time.Now()
	}
}

// send delivers a message on the event channel without blocking the
// sync goroutines.
func (e *Engine) send(msg tea.Msg) {
	select {
	case e.eventCh <- msg:
	default:
		// Drop if the channel is full to avoid blocking.
	}
}
