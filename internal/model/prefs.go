package model

// PreferenceSet is the user's notification delivery configuration: two
// channel flags plus one flag per category. It is always fully populated
// after normalization; there is no "unset" state for any flag.
type PreferenceSet struct {
	EmailEnabled bool `json:"email_enabled"`
	PushEnabled  bool `json:"push_enabled"`

	SystemEnabled      bool `json:"system_enabled"`
	EventEnabled       bool `json:"event_enabled"`
	OpportunityEnabled bool `json:"opportunity_enabled"`
	MemberEnabled      bool `json:"member_enabled"`
}

// DefaultPreferences returns the preference set assumed before the first
// successful remote load: everything on.
func DefaultPreferences() PreferenceSet {
	return PreferenceSet{
		EmailEnabled:       true,
		PushEnabled:        true,
		SystemEnabled:      true,
		EventEnabled:       true,
		OpportunityEnabled: true,
		MemberEnabled:      true,
	}
}

// CategoryEnabled reports whether notifications of the given category are
// enabled in this preference set.
func (p PreferenceSet) CategoryEnabled(c Category) bool {
	switch c {
	case CategoryEvent:
		return p.EventEnabled
	case CategoryOpportunity:
		return p.OpportunityEnabled
	case CategoryMember:
		return p.MemberEnabled
	default:
		return p.SystemEnabled
	}
}

// PreferencePatch is a partial update to a PreferenceSet. Nil fields are
// left unchanged by Apply, so a patch can carry a single key or a batch.
type PreferencePatch struct {
	EmailEnabled *bool
	PushEnabled  *bool

	SystemEnabled      *bool
	EventEnabled       *bool
	OpportunityEnabled *bool
	MemberEnabled      *bool
}

// Apply merges the patch into p and returns the result.
func (patch PreferencePatch) Apply(p PreferenceSet) PreferenceSet {
	if patch.EmailEnabled != nil {
		p.EmailEnabled = *patch.EmailEnabled
	}
	if patch.PushEnabled != nil {
		p.PushEnabled = *patch.PushEnabled
	}
	if patch.SystemEnabled != nil {
		p.SystemEnabled = *patch.SystemEnabled
	}
	if patch.EventEnabled != nil {
		p.EventEnabled = *patch.EventEnabled
	}
	if patch.OpportunityEnabled != nil {
		p.OpportunityEnabled = *patch.OpportunityEnabled
	}
	if patch.MemberEnabled != nil {
		p.MemberEnabled = *patch.MemberEnabled
	}
	return p
}
