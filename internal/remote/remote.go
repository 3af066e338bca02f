// Package remote defines the contract with the platform's notification
// API and its HTTP implementation. Heterogeneous wire shapes are
// normalized here; nothing past this boundary sees raw payloads.
package remote

import (
	"context"
	"errors"
	"fmt"
)

// AuthError indicates that authentication has failed or expired.
// It is returned when the API answers 401.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ListOptions controls pagination for list calls.
type ListOptions struct {
	Page  int
	Limit int
}

// ListResult holds a page of raw notifications.
type ListResult struct {
	Items       []RawNotification
	Total       int
	UnreadCount int
}

// Principal identifies the authenticated user.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Service is the full remote notification contract the engine depends
// on. The mutation calls are fire-and-forget from the engine's
// perspective: the store is mutated optimistically before they are
// issued, and their results never feed back into it.
type Service interface {
	// ListNotifications retrieves a page of raw notification records.
	ListNotifications(ctx context.Context, opts ListOptions) (*ListResult, error)

	// GetStats retrieves authoritative aggregate counts. The per-category
	// breakdown may be partial or absent.
	GetStats(ctx context.Context) (*StatsPayload, error)

	// MarkRead marks a single notification read.
	MarkRead(ctx context.Context, id string) error

	// MarkAllRead marks every notification read.
	MarkAllRead(ctx context.Context) error

	// DeleteOne removes a single notification.
	DeleteOne(ctx context.Context, id string) error

	// DeleteAllRead removes every read notification.
	DeleteAllRead(ctx context.Context) error

	// GetPreferences retrieves the user's notification preferences in
	// whichever wire shape the server uses.
	GetPreferences(ctx context.Context) (*RawPreferences, error)

	// SetPreferences writes the full preference set.
	SetPreferences(ctx context.Context, prefs *RawPreferences) error

	// SendTest asks the server to synthesize one notification.
	SendTest(ctx context.Context) (*RawNotification, error)

	// Me validates the session token and returns the principal.
	Me(ctx context.Context) (*Principal, error)
}
