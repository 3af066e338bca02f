package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestPreferencePatchApply(t *testing.T) {
	base := DefaultPreferences()

	t.Run("single key", func(t *testing.T) {
		got := PreferencePatch{SystemEnabled: boolPtr(false)}.Apply(base)
		assert.False(t, got.SystemEnabled)
		assert.True(t, got.EmailEnabled)
		assert.True(t, got.PushEnabled)
		assert.True(t, got.EventEnabled)
		assert.True(t, got.OpportunityEnabled)
		assert.True(t, got.MemberEnabled)
	})

	t.Run("batch", func(t *testing.T) {
		got := PreferencePatch{
			EmailEnabled:  boolPtr(false),
			EventEnabled:  boolPtr(false),
			MemberEnabled: boolPtr(false),
		}.Apply(base)
		assert.False(t, got.EmailEnabled)
		assert.False(t, got.EventEnabled)
		assert.False(t, got.MemberEnabled)
		assert.True(t, got.PushEnabled)
		assert.True(t, got.SystemEnabled)
	})

	t.Run("empty patch changes nothing", func(t *testing.T) {
		assert.Equal(t, base, PreferencePatch{}.Apply(base))
	})

	t.Run("sequential patches compose", func(t *testing.T) {
		got := PreferencePatch{SystemEnabled: boolPtr(false)}.Apply(base)
		got = PreferencePatch{EventEnabled: boolPtr(true)}.Apply(got)
		assert.False(t, got.SystemEnabled)
		assert.True(t, got.EventEnabled)
	})
}

func TestCategoryEnabled(t *testing.T) {
	p := DefaultPreferences()
	p.EventEnabled = false

	assert.False(t, p.CategoryEnabled(CategoryEvent))
	assert.True(t, p.CategoryEnabled(CategorySystem))
	assert.True(t, p.CategoryEnabled(CategoryOpportunity))
	assert.True(t, p.CategoryEnabled(CategoryMember))
}
