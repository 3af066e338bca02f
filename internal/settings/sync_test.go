package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptran/notify-center/internal/model"
	"github.com/ptran/notify-center/internal/remote"
	"github.com/ptran/notify-center/tests/testutil"
)

func boolPtr(b bool) *bool { return &b }

// memorySnapshot is an in-memory SnapshotStore.
type memorySnapshot struct {
	prefs model.PreferenceSet
	saved bool
}

func (m *memorySnapshot) SavePreferences(p model.PreferenceSet) error {
	m.prefs = p
	m.saved = true
	return nil
}

func (m *memorySnapshot) LoadPreferences() (model.PreferenceSet, bool, error) {
	return m.prefs, m.saved, nil
}

func TestLoadNormalizesAgainstPrior(t *testing.T) {
	svc := &testutil.FakeService{
		GetPrefsFn: func(context.Context) (*remote.RawPreferences, error) {
			// Partial payload: only email and the event category.
			return &remote.RawPreferences{
				EmailEnabled: boolPtr(false),
				EventEnabled: boolPtr(false),
			}, nil
		},
	}

	s := NewSync(svc, nil, nil)

	msg := s.Load()()
	loaded, ok := msg.(LoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.Err)

	prefs := s.Current()
	assert.False(t, prefs.EmailEnabled)
	assert.False(t, prefs.EventEnabled)
	// Fields the payload omitted keep their prior values.
	assert.True(t, prefs.PushEnabled)
	assert.True(t, prefs.SystemEnabled)
	assert.True(t, prefs.OpportunityEnabled)
	assert.True(t, prefs.MemberEnabled)
}

func TestLoadNestedShape(t *testing.T) {
	svc := &testutil.FakeService{
		GetPrefsFn: func(context.Context) (*remote.RawPreferences, error) {
			return &remote.RawPreferences{
				PushEnabled: boolPtr(true),
				Categories: map[string]bool{
					"event":  false,
					"member": false,
				},
			}, nil
		},
	}

	s := NewSync(svc, nil, nil)
	msg := s.Load()()
	require.NoError(t, msg.(LoadedMsg).Err)

	prefs := s.Current()
	assert.False(t, prefs.EventEnabled)
	assert.False(t, prefs.MemberEnabled)
	assert.True(t, prefs.SystemEnabled)
	assert.True(t, prefs.OpportunityEnabled)
}

func TestLoadFailureKeepsPrior(t *testing.T) {
	svc := &testutil.FakeService{
		GetPrefsFn: func(context.Context) (*remote.RawPreferences, error) {
			return nil, errors.New("boom")
		},
	}

	s := NewSync(svc, nil, nil)
	before := s.Current()

	msg := s.Load()()
	loaded := msg.(LoadedMsg)
	assert.Error(t, loaded.Err)
	assert.Equal(t, before, s.Current())
}

func TestSequentialUpdates(t *testing.T) {
	svc := &testutil.FakeService{}
	s := NewSync(svc, nil, nil)

	// update({system:false}) then update({event:true}); each issues one
	// full-payload write carrying the merged set at the time of the call.
	cmd1 := s.Update(model.PreferencePatch{SystemEnabled: boolPtr(false)})
	cmd2 := s.Update(model.PreferencePatch{EventEnabled: boolPtr(true)})

	msg1 := cmd1()
	msg2 := cmd2()
	require.NoError(t, msg1.(SavedMsg).Err)
	require.NoError(t, msg2.(SavedMsg).Err)

	prefs := s.Current()
	assert.False(t, prefs.SystemEnabled)
	assert.True(t, prefs.EventEnabled)
	assert.True(t, prefs.EmailEnabled)
	assert.True(t, prefs.PushEnabled)
	assert.True(t, prefs.OpportunityEnabled)
	assert.True(t, prefs.MemberEnabled)

	writes := svc.RecordedSetPrefsCalls()
	require.Len(t, writes, 2)
	// Every write is a full set: no nil fields.
	for i, w := range writes {
		require.NotNil(t, w.EmailEnabled, "write %d", i)
		require.NotNil(t, w.PushEnabled, "write %d", i)
		require.NotNil(t, w.SystemEnabled, "write %d", i)
		require.NotNil(t, w.EventEnabled, "write %d", i)
		require.NotNil(t, w.OpportunityEnabled, "write %d", i)
		require.NotNil(t, w.MemberEnabled, "write %d", i)
	}
	assert.False(t, *writes[0].SystemEnabled)
	assert.False(t, *writes[1].SystemEnabled)
	assert.True(t, *writes[1].EventEnabled)
}

func TestBatchPatchSingleWrite(t *testing.T) {
	svc := &testutil.FakeService{}
	s := NewSync(svc, nil, nil)

	cmd := s.Update(model.PreferencePatch{
		EmailEnabled:  boolPtr(false),
		EventEnabled:  boolPtr(false),
		MemberEnabled: boolPtr(false),
	})
	cmd()

	assert.Len(t, svc.RecordedSetPrefsCalls(), 1)
	prefs := s.Current()
	assert.False(t, prefs.EmailEnabled)
	assert.False(t, prefs.EventEnabled)
	assert.False(t, prefs.MemberEnabled)
}

func TestUpdateFailureKeepsOptimisticValue(t *testing.T) {
	svc := &testutil.FakeService{
		SetPrefsFn: func(context.Context, *remote.RawPreferences) error {
			return errors.New("write failed")
		},
	}
	s := NewSync(svc, nil, nil)

	cmd := s.Update(model.PreferencePatch{PushEnabled: boolPtr(false)})
	assert.True(t, s.Saving())

	msg := cmd()
	saved := msg.(SavedMsg)
	assert.Error(t, saved.Err)
	assert.False(t, s.Saving(), "saving flag clears on failure")
	assert.False(t, s.Current().PushEnabled, "optimistic value is retained")
}

func TestSnapshotSeedAndWriteThrough(t *testing.T) {
	snap := &memorySnapshot{}
	stored := model.DefaultPreferences()
	stored.MemberEnabled = false
	require.NoError(t, snap.SavePreferences(stored))

	s := NewSync(&testutil.FakeService{}, snap, nil)
	assert.False(t, s.Current().MemberEnabled, "seeded from snapshot")

	s.Update(model.PreferencePatch{EmailEnabled: boolPtr(false)})
	assert.False(t, snap.prefs.EmailEnabled, "write-through on update")
}

func TestReset(t *testing.T) {
	s := NewSync(&testutil.FakeService{}, nil, nil)
	s.Update(model.PreferencePatch{EmailEnabled: boolPtr(false)})

	s.Reset()
	assert.Equal(t, model.DefaultPreferences(), s.Current())
	assert.False(t, s.Saving())
}
