// Package store holds the in-memory notification collection and its
// derived aggregates. All operations are synchronous and cannot fail;
// unknown IDs are no-ops. The store is mutex-guarded because remote
// completions land on it from multiple goroutines.
package store

import (
	"sync"

	"github.com/ptran/notify-center/internal/model"
)

// Store is the in-memory collection of normalized notifications plus
// derived per-category stats. The zero value is not usable; call New.
type Store struct {
	mu            sync.Mutex
	notifications []model.Notification
	stats         model.CategoryStats
}

// New creates an empty store.
func New() *Store {
	return &Store{
		stats: model.NewCategoryStats(),
	}
}

// Load replaces the entire collection with the given records and
// recomputes stats from scratch. Used on initial load and full refresh;
// whichever load completes last wins.
func (s *Store) Load(records []model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = make([]model.Notification, len(records))
	copy(s.notifications, records)
	s.recomputeLocked()
}

// ApplyStatsOverride patches the computed stats with authoritative
// counts from the remote service. Only categories named in the override
// are replaced; omitted categories keep the locally computed value. The
// All bucket is always recomputed as the sum of the category buckets,
// never taken from the override.
func (s *Store) ApplyStatsOverride(over map[model.Category]model.StatBucket) {
	if len(over) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for cat, bucket := range over {
		if _, ok := s.stats.ByCategory[cat]; !ok {
			continue
		}
		s.stats.ByCategory[cat] = bucket
	}
	s.stats.RecomputeAll()
}

// Insert prepends one record and bumps the relevant counters. Used for
// externally-arriving single notifications.
func (s *Store) Insert(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append([]model.Notification{n}, s.notifications...)

	b := s.stats.ByCategory[n.Category]
	b.Total++
	if !n.Read {
		b.Unread++
	}
	s.stats.ByCategory[n.Category] = b
	s.stats.RecomputeAll()
}

// MarkRead flips the read flag on one record and decrements unread
// counters. Unknown IDs and already-read records are no-ops.
func (s *Store) MarkRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID != id {
			continue
		}
		if s.notifications[i].Read {
			return
		}
		s.notifications[i].Read = true

		b := s.stats.ByCategory[s.notifications[i].Category]
		if b.Unread > 0 {
			b.Unread--
		}
		s.stats.ByCategory[s.notifications[i].Category] = b
		s.stats.RecomputeAll()
		return
	}
}

// MarkAllRead flips every record to read and zeroes unread counters.
// Idempotent: a second call leaves counts at zero, never negative.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	for cat, b := range s.stats.ByCategory {
		b.Unread = 0
		s.stats.ByCategory[cat] = b
	}
	s.stats.RecomputeAll()
}

// Remove deletes one record, decrementing unread counters if it was
// unread. Unknown IDs are no-ops.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID != id {
			continue
		}
		n := s.notifications[i]
		s.notifications = append(
			s.notifications[:i], s.notifications[i+1:]...,
		)

		b := s.stats.ByCategory[n.Category]
		if b.Total > 0 {
			b.Total--
		}
		if !n.Read && b.Unread > 0 {
			b.Unread--
		}
		s.stats.ByCategory[n.Category] = b
		s.stats.RecomputeAll()
		return
	}
}

// RemoveAllRead deletes every read record. Unread counters are
// unaffected since removed records contribute nothing to them.
func (s *Store) RemoveAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.Read {
			b := s.stats.ByCategory[n.Category]
			if b.Total > 0 {
				b.Total--
			}
			s.stats.ByCategory[n.Category] = b
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	s.stats.RecomputeAll()
}

// All returns a copy of the full collection in insertion order.
func (s *Store) All() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// ByCategory returns a filtered copy, insertion order preserved.
func (s *Store) ByCategory(c model.Category) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Notification
	for _, n := range s.notifications {
		if n.Category == c {
			out = append(out, n)
		}
	}
	return out
}

// Get returns the record with the given ID, if present.
func (s *Store) Get(id string) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == id {
			return n, true
		}
	}
	return model.Notification{}, false
}

// Stats returns a copy of the current aggregates.
func (s *Store) Stats() model.CategoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := model.CategoryStats{
		All:        s.stats.All,
		ByCategory: make(map[model.Category]model.StatBucket, len(s.stats.ByCategory)),
	}
	for cat, b := range s.stats.ByCategory {
		out.ByCategory[cat] = b
	}
	return out
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

// Clear empties the store and zeroes the stats. Called on session end.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = nil
	s.stats = model.NewCategoryStats()
}

// recomputeLocked rebuilds every bucket from the collection. Caller
// holds the mutex.
func (s *Store) recomputeLocked() {
	s.stats = model.NewCategoryStats()
	for _, n := range s.notifications {
		b := s.stats.ByCategory[n.Category]
		b.Total++
		if !n.Read {
			b.Unread++
		}
		s.stats.ByCategory[n.Category] = b
	}
	s.stats.RecomputeAll()
}
