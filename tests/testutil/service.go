// Package testutil provides shared test doubles for the engine and
// settings tests.
package testutil

import (
	"context"
	"sync"

	"github.com/ptran/notify-center/internal/remote"
)

// FakeService is an in-memory remote.Service double. Each method
// delegates to the corresponding Fn field when set and records the
// call; unset methods succeed with zero values.
type FakeService struct {
	mu sync.Mutex

	ListFn      func(ctx context.Context, opts remote.ListOptions) (*remote.ListResult, error)
	StatsFn     func(ctx context.Context) (*remote.StatsPayload, error)
	MarkReadFn  func(ctx context.Context, id string) error
	MarkAllFn   func(ctx context.Context) error
	DeleteFn    func(ctx context.Context, id string) error
	DeleteAllFn func(ctx context.Context) error
	GetPrefsFn  func(ctx context.Context) (*remote.RawPreferences, error)
	SetPrefsFn  func(ctx context.Context, prefs *remote.RawPreferences) error
	SendTestFn  func(ctx context.Context) (*remote.RawNotification, error)
	MeFn        func(ctx context.Context) (*remote.Principal, error)

	// Recorded calls.
	MarkReadIDs    []string
	MarkAllCalls   int
	DeleteIDs      []string
	DeleteAllCalls int
	SetPrefsCalls  []*remote.RawPreferences
	ListCalls      int
	StatsCalls     int
	SendTestCalls  int
}

var _ remote.Service = (*FakeService)(nil)

func (f *FakeService) ListNotifications(
	ctx context.Context, opts remote.ListOptions,
) (*remote.ListResult, error) {
	f.mu.Lock()
	f.ListCalls++
	fn := f.ListFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, opts)
	}
	return &remote.ListResult{}, nil
}

func (f *FakeService) GetStats(ctx context.Context) (*remote.StatsPayload, error) {
	f.mu.Lock()
	f.StatsCalls++
	fn := f.StatsFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return &remote.StatsPayload{}, nil
}

func (f *FakeService) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	f.MarkReadIDs = append(f.MarkReadIDs, id)
	fn := f.MarkReadFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	return nil
}

func (f *FakeService) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	f.MarkAllCalls++
	fn := f.MarkAllFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return nil
}

func (f *FakeService) DeleteOne(ctx context.Context, id string) error {
	f.mu.Lock()
	f.DeleteIDs = append(f.DeleteIDs, id)
	fn := f.DeleteFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	return nil
}

func (f *FakeService) DeleteAllRead(ctx context.Context) error {
	f.mu.Lock()
	f.DeleteAllCalls++
	fn := f.DeleteAllFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return nil
}

func (f *FakeService) GetPreferences(ctx context.Context) (*remote.RawPreferences, error) {
	f.mu.Lock()
	fn := f.GetPrefsFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return &remote.RawPreferences{}, nil
}

func (f *FakeService) SetPreferences(ctx context.Context, prefs *remote.RawPreferences) error {
	f.mu.Lock()
	f.SetPrefsCalls = append(f.SetPrefsCalls, prefs)
	fn := f.SetPrefsFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, prefs)
	}
	return nil
}

func (f *FakeService) SendTest(ctx context.Context) (*remote.RawNotification, error) {
	f.mu.Lock()
	f.SendTestCalls++
	fn := f.SendTestFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return &remote.RawNotification{ID: "test"}, nil
}

func (f *FakeService) Me(ctx context.Context) (*remote.Principal, error) {
	f.mu.Lock()
	fn := f.MeFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return &remote.Principal{ID: "user-1", Name: "Test User"}, nil
}

// Snapshot-style accessors for recorded state, safe under concurrency.

func (f *FakeService) RecordedMarkReadIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.MarkReadIDs))
	copy(out, f.MarkReadIDs)
	return out
}

func (f *FakeService) RecordedSetPrefsCalls() []*remote.RawPreferences {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*remote.RawPreferences, len(f.SetPrefsCalls))
	copy(out, f.SetPrefsCalls)
	return out
}
