package toast

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptran/notify-center/internal/model"
)

func notif(id string, cat model.Category) model.Notification {
	return model.Notification{
		ID:       id,
		Title:    "title " + id,
		Message:  "message " + id,
		Category: cat,
	}
}

// waitForEmpty polls until the scheduler queue is empty or the deadline
// passes.
func waitForEmpty(t *testing.T, s *Scheduler, deadline time.Duration) {
	t.Helper()

	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		if len(s.Active()) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("queue not empty after %v: %d entries", deadline, len(s.Active()))
}

func TestAutoHideExpiry(t *testing.T) {
	s := NewScheduler(50*time.Millisecond, 0)

	start := time.Now()
	s.Push(notif("a", model.CategoryEvent))
	require.Len(t, s.Active(), 1)

	waitForEmpty(t, s, time.Second)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond,
		"toast must not expire before its duration")
}

func TestDismissCancelsExpiry(t *testing.T) {
	s := NewScheduler(80*time.Millisecond, 0)

	s.Push(notif("a", model.CategoryEvent))
	entries := s.Active()
	require.Len(t, entries, 1)

	s.Dismiss(entries[0].ID)
	assert.Empty(t, s.Active())

	// Drain the show/dismiss events, then verify no late expiry event
	// arrives after the original duration would have elapsed.
	drainEvents(s)
	time.Sleep(150 * time.Millisecond)
	select {
	case msg := <-s.eventCh:
		t.Fatalf("unexpected late event after dismissal: %#v", msg)
	default:
	}
	assert.Empty(t, s.Active())
}

func TestDismissUnknownIsNoop(t *testing.T) {
	s := NewScheduler(time.Second, 0)
	s.Push(notif("a", model.CategorySystem))
	s.Dismiss("not-a-toast-id")
	assert.Len(t, s.Active(), 1)
}

func TestOfferRespectsPreferences(t *testing.T) {
	s := NewScheduler(time.Second, 0)

	prefs := model.DefaultPreferences()
	prefs.PushEnabled = false
	assert.False(t, s.Offer(notif("a", model.CategoryEvent), prefs))
	assert.Empty(t, s.Active())

	prefs = model.DefaultPreferences()
	prefs.EventEnabled = false
	assert.False(t, s.Offer(notif("b", model.CategoryEvent), prefs))
	assert.True(t, s.Offer(notif("c", model.CategoryMember), prefs))
	assert.Len(t, s.Active(), 1)
}

func TestQueueCapEvictsOldest(t *testing.T) {
	s := NewScheduler(time.Hour, 3)

	for i := 0; i < 5; i++ {
		s.Push(notif(fmt.Sprintf("n%d", i), model.CategorySystem))
	}

	entries := s.Active()
	require.Len(t, entries, 3)
	assert.Equal(t, "n2", entries[0].Notification.ID)
	assert.Equal(t, "n4", entries[2].Notification.ID)
}

func TestClearEmptiesQueue(t *testing.T) {
	s := NewScheduler(time.Hour, 0)
	s.Push(notif("a", model.CategorySystem))
	s.Push(notif("b", model.CategoryEvent))

	s.Clear()
	assert.Empty(t, s.Active())

	// Timers were canceled: nothing reappears or panics later.
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, s.Active())
}

func TestConcurrentPushAndDismiss(t *testing.T) {
	s := NewScheduler(20*time.Millisecond, 100)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 30; i++ {
			s.Push(notif(fmt.Sprintf("g%d", i), model.CategoryMember))
		}
		close(done)
	}()
	for i := 0; i < 30; i++ {
		for _, e := range s.Active() {
			s.Dismiss(e.ID)
		}
	}
	<-done

	waitForEmpty(t, s, time.Second)
}

// drainEvents empties the scheduler's event channel.
func drainEvents(s *Scheduler) {
	for {
		select {
		case <-s.eventCh:
		default:
			return
		}
	}
}
