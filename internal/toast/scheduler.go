// Package toast manages the queue of ephemeral notification pop-ups.
// Entries are one-shot projections of notifications: they are never read
// back into the persistent store, and each one self-destroys on timer
// expiry or explicit dismissal, with at most one removal per entry.
package toast

import (
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/ptran/notify-center/internal/model"
)

// DefaultDuration is how long an auto-hiding toast stays visible when no
// duration is configured.
const DefaultDuration = 5 * time.Second

// DefaultMaxVisible caps the queue; the oldest entry is evicted when a
// new toast would exceed it.
const DefaultMaxVisible = 5

// Entry is a single visible toast.
type Entry struct {
	// ID identifies the toast itself, distinct from the notification ID
	// (the same notification could toast more than once).
	ID string

	Notification model.Notification
	CreatedAt    time.Time
	Duration     time.Duration
	AutoHide     bool
}

// QueueChangedMsg is a tea.Msg sent whenever the visible queue changes
// (show, expiry, dismissal, eviction).
type QueueChangedMsg struct{}

// Scheduler owns the toast queue and the per-entry expiry timers.
type Scheduler struct {
	mu         gosync.Mutex
	entries    []Entry
	timers     map[string]*time.Timer
	eventCh    chan tea.Msg
	duration   time.Duration
	maxVisible int
}

// NewScheduler creates a scheduler with the given default duration and
// queue cap. Zero values fall back to the package defaults.
func NewScheduler(duration time.Duration, maxVisible int) *Scheduler {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}
	return &Scheduler{
		timers:     make(map[string]*time.Timer),
		eventCh:    make(chan tea.Msg, 16),
		duration:   duration,
		maxVisible: maxVisible,
	}
}

// Offer shows a toast for the notification only if the push channel and
// the notification's category are both enabled in prefs. Returns whether
// a toast was created.
func (s *Scheduler) Offer(n model.Notification, prefs model.PreferenceSet) bool {
	if !prefs.PushEnabled || !prefs.CategoryEnabled(n.Category) {
		return false
	}
	s.Push(n)
	return true
}

// Push shows a toast unconditionally.
func (s *Scheduler) Push(n model.Notification) {
	entry := Entry{
		ID:           uuid.NewString(),
		Notification: n,
		CreatedAt:    time.Now(),
		Duration:     s.duration,
		AutoHide:     true,
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)

	// Evict the oldest entry when over the cap.
	if len(s.entries) > s.maxVisible {
		evicted := s.entries[0]
		s.entries = s.entries[1:]
		s.stopTimerLocked(evicted.ID)
	}

	if entry.AutoHide {
		id := entry.ID
		s.timers[id] = time.AfterFunc(entry.Duration, func() {
			s.expire(id)
		})
	}
	s.mu.Unlock()

	s.send(QueueChangedMsg{})
}

// Dismiss removes a toast before its timer fires. Unknown IDs are
// no-ops; the pending expiry is canceled so it cannot remove twice.
func (s *Scheduler) Dismiss(id string) {
	s.mu.Lock()
	removed := s.removeLocked(id)
	s.mu.Unlock()

	if removed {
		s.send(QueueChangedMsg{})
	}
}

// expire is the timer callback. The entry may already have been
// dismissed or evicted; removal happens at most once.
func (s *Scheduler) expire(id string) {
	s.mu.Lock()
	removed := s.removeLocked(id)
	s.mu.Unlock()

	if removed {
		s.send(QueueChangedMsg{})
	}
}

// removeLocked deletes the entry and stops its timer. Caller holds the
// mutex. Reports whether the entry was present.
func (s *Scheduler) removeLocked(id string) bool {
	for i, e := range s.entries {
		if e.ID != id {
			continue
		}
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		s.stopTimerLocked(id)
		return true
	}
	return false
}

// stopTimerLocked cancels and forgets the timer for id, if any.
func (s *Scheduler) stopTimerLocked(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Active returns a copy of the visible queue, oldest first.
func (s *Scheduler) Active() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear dismisses everything and cancels all timers. Called on session
// end.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	for id := range s.timers {
		s.stopTimerLocked(id)
	}
	cleared := len(s.entries) > 0
	s.entries = nil
	s.mu.Unlock()

	if cleared {
		s.send(QueueChangedMsg{})
	}
}

// send delivers a message on the event channel without blocking.
func (s *Scheduler) send(msg tea.Msg) {
	select {
	case s.eventCh <- msg:
	default:
		// Drop if the channel is full; the UI only needs to know the
		// queue changed, not how many times.
	}
}

// WaitForEvent returns a tea.Cmd that waits for the next queue change.
// The host should re-issue it after each received message to keep
// listening.
func (s *Scheduler) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-s.eventCh
		if !ok {
			return nil
		}
		return msg
	}
}
