package model

import "time"

// Notification represents an alert surfaced to the user about activity
// on the platform, normalized from whatever shape the remote service
// returned.
type Notification struct {
	// ID is the remote identifier, stable across refreshes.
	ID string `json:"id"`

	// Title is the short display heading.
	Title string `json:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Category is the normalized category (see Classify).
	Category Category `json:"category"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when the remote service generated this notification.
	CreatedAt time.Time `json:"created_at"`

	// ActionURL is an optional navigation target.
	ActionURL string `json:"action_url,omitempty"`

	// ActionText labels the action affordance when ActionURL is set.
	ActionText string `json:"action_text,omitempty"`
}

// StatBucket holds the total and unread counts for one category.
type StatBucket struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

// CategoryStats holds per-category counts plus the All rollup. All is
// always the sum of the category buckets, never taken from a remote
// payload directly.
type CategoryStats struct {
	All        StatBucket              `json:"all"`
	ByCategory map[Category]StatBucket `json:"by_category"`
}

// NewCategoryStats returns zeroed stats with every category bucket present.
func NewCategoryStats() CategoryStats {
	by := make(map[Category]StatBucket, len(Categories))
	for _, c := range Categories {
		by[c] = StatBucket{}
	}
	return CategoryStats{ByCategory: by}
}

// Bucket returns the bucket for the given category, zeroed if absent.
func (s CategoryStats) Bucket(c Category) StatBucket {
	return s.ByCategory[c]
}

// RecomputeAll replaces the All bucket with the sum of the category
// buckets, preserving the rollup invariant.
func (s *CategoryStats) RecomputeAll() {
	var all StatBucket
	for _, b := range s.ByCategory {
		all.Total += b.Total
		all.Unread += b.Unread
	}
	s.All = all
}
