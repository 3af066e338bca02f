// Package session tracks whether an authenticated platform session is
// active. Every engine operation is gated on an active session; when
// the session ends, all session-scoped state is torn down by the host.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/ptran/notify-center/internal/remote"
)

// Manager holds the current session state.
type Manager struct {
	mu        sync.Mutex
	svc       remote.Service
	active    bool
	principal remote.Principal
}

// NewManager creates an inactive session manager.
func NewManager(svc remote.Service) *Manager {
	return &Manager{svc: svc}
}

// Activate validates the token against the platform and marks the
// session active. Idempotent on an already-active session.
func (m *Manager) Activate(ctx context.Context) (*remote.Principal, error) {
	p, err := m.svc.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("activating session: %w", err)
	}

	m.mu.Lock()
	m.active = true
	m.principal = *p
	m.mu.Unlock()

	return p, nil
}

// Deactivate marks the session inactive. The host is responsible for
// resetting session-scoped state (store, toasts, preferences).
func (m *Manager) Deactivate() {
	m.mu.Lock()
	m.active = false
	m.principal = remote.Principal{}
	m.mu.Unlock()
}

// Active reports whether a session is currently active.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Principal returns the authenticated user for the active session. The
// second return is false when no session is active.
func (m *Manager) Principal() (remote.Principal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.principal, m.active
}
