// Package settings owns the user's notification preferences: optimistic
// local writes mirrored to the remote service, with normalization of
// whatever wire shape the server returns.
package settings

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ptran/notify-center/internal/model"
	"github.com/ptran/notify-center/internal/remote"
)

// writeTimeout bounds a single preference round-trip.
const writeTimeout = 15 * time.Second

// SnapshotStore persists the last-known preference set locally so the
// settings view renders instantly on the next start. Implemented by the
// cache package; a nil store disables snapshotting.
type SnapshotStore interface {
	SavePreferences(prefs model.PreferenceSet) error
	LoadPreferences() (model.PreferenceSet, bool, error)
}

// LoadedMsg is a tea.Msg sent when a preference load completes.
type LoadedMsg struct {
	Prefs model.PreferenceSet
	Err   error
}

// SavedMsg is a tea.Msg sent when a preference write completes. The
// optimistic local value is kept either way.
type SavedMsg struct {
	Prefs model.PreferenceSet
	Err   error
}

// Sync is the bidirectional preference mirror. It owns the in-memory
// PreferenceSet exclusively; the presentation host reads it through
// Current and mutates it only through Update.
type Sync struct {
	mu     gosync.Mutex
	svc    remote.Service
	snap   SnapshotStore
	logger *slog.Logger
	prefs  model.PreferenceSet
	saving bool
}

// NewSync creates a preference mirror seeded from the local snapshot
// when one exists, otherwise from defaults.
func NewSync(svc remote.Service, snap SnapshotStore, logger *slog.Logger) *Sync {
	s := &Sync{
		svc:    svc,
		snap:   snap,
		logger: logger,
		prefs:  model.DefaultPreferences(),
	}

	if snap != nil {
		if prefs, ok, err := snap.LoadPreferences(); err == nil && ok {
			s.prefs = prefs
		}
	}

	return s
}

// Current returns the in-memory preference set.
func (s *Sync) Current() model.PreferenceSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// Saving reports whether a remote write is in flight.
func (s *Sync) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Load returns a tea.Cmd that fetches remote preferences, normalizes
// them against the current in-memory set (missing fields keep their
// prior values), and replaces it. On failure the prior set stands.
func (s *Sync) Load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		raw, err := s.svc.GetPreferences(ctx)
		if err != nil {
			return LoadedMsg{Prefs: s.Current(), Err: err}
		}

		s.mu.Lock()
		s.prefs = raw.Normalize(s.prefs)
		prefs := s.prefs
		s.mu.Unlock()

		s.snapshot(prefs)
		return LoadedMsg{Prefs: prefs}
	}
}

// Update merges the patch into the in-memory set immediately and
// returns a tea.Cmd that writes the full merged set to the remote
// service. Exactly one write happens per call, whether the patch
// carries one key or several. On failure the saving flag clears, the
// error is surfaced in SavedMsg, and the optimistic value is retained.
func (s *Sync) Update(patch model.PreferencePatch) tea.Cmd {
	s.mu.Lock()
	s.prefs = patch.Apply(s.prefs)
	s.saving = true
	merged := s.prefs
	s.mu.Unlock()

	s.snapshot(merged)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		err := s.svc.SetPreferences(ctx, remote.PreferencesToWire(merged))

		s.mu.Lock()
		s.saving = false
		current := s.prefs
		s.mu.Unlock()

		if err != nil && s.logger != nil {
			s.logger.Warn("preference write failed; keeping local value",
				"error", err)
		}

		return SavedMsg{Prefs: current, Err: err}
	}
}

// Reset restores defaults in memory. Called on session end.
func (s *Sync) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = model.DefaultPreferences()
	s.saving = false
}

// snapshot best-effort persists the preference set locally.
func (s *Sync) snapshot(prefs model.PreferenceSet) {
	if s.snap == nil {
		return
	}
	if err := s.snap.SavePreferences(prefs); err != nil && s.logger != nil {
		s.logger.Warn("preference snapshot failed", "error", err)
	}
}
