package remote

import (
	"strings"
	"time"

	"github.com/ptran/notify-center/internal/model"
)

// RawNotification is a notification record as the API returns it. Type
// is a free-text hint; normalization folds it into the closed category
// set.
type RawNotification struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
	ActionURL  string    `json:"action_url,omitempty"`
	ActionText string    `json:"action_text,omitempty"`
}

// Normalize converts a raw record into the canonical model shape,
// classifying its type hint.
func (r RawNotification) Normalize() model.Notification {
	return model.Notification{
		ID:         r.ID,
		Title:      r.Title,
		Message:    r.Message,
		Category:   model.Classify(r.Type),
		Read:       r.Read,
		CreatedAt:  r.CreatedAt,
		ActionURL:  r.ActionURL,
		ActionText: r.ActionText,
	}
}

// listResponse is the wire shape of the list endpoint.
type listResponse struct {
	Notifications []RawNotification `json:"notifications"`
	Total         int               `json:"total"`
	UnreadCount   int               `json:"unread_count"`
}

// BucketPayload mirrors model.StatBucket on the wire.
type BucketPayload struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

// StatsPayload is the stats endpoint response. ByCategory may name any
// subset of the categories, or be nil entirely.
type StatsPayload struct {
	UnreadTotal int                      `json:"unread_total"`
	ByCategory  map[string]BucketPayload `json:"by_category,omitempty"`
}

// CategoryOverride converts the partial ByCategory payload into a
// partial override map keyed by normalized category. Unknown category
// keys are dropped rather than folded into system, so a garbage key
// cannot clobber locally computed system counts.
func (s *StatsPayload) CategoryOverride() map[model.Category]model.StatBucket {
	if s == nil || len(s.ByCategory) == 0 {
		return nil
	}

	over := make(map[model.Category]model.StatBucket, len(s.ByCategory))
	for key, b := range s.ByCategory {
		cat := model.ParseCategory(key)
		if cat == model.CategorySystem &&
			!strings.EqualFold(key, string(model.CategorySystem)) {
			continue
		}
		over[cat] = model.StatBucket{Total: b.Total, Unread: b.Unread}
	}
	return over
}

// RawPreferences is the preferences wire shape. The API has shipped two
// forms over time: flat boolean fields, and a nested per-category
// object. Pointer fields distinguish "absent" from "false" so that
// Normalize can keep the prior local value for anything the payload
// omits.
type RawPreferences struct {
	EmailEnabled *bool `json:"email_enabled,omitempty"`
	PushEnabled  *bool `json:"push_enabled,omitempty"`

	// Flat form.
	SystemEnabled      *bool `json:"system_enabled,omitempty"`
	EventEnabled       *bool `json:"event_enabled,omitempty"`
	OpportunityEnabled *bool `json:"opportunity_enabled,omitempty"`
	MemberEnabled      *bool `json:"member_enabled,omitempty"`

	// Nested form: category name → enabled.
	Categories map[string]bool `json:"categories,omitempty"`
}

// Normalize merges the raw payload over prev, keeping prev's value for
// every field the payload does not carry. When both the flat and nested
// forms are present the nested form wins, matching server behavior.
func (r *RawPreferences) Normalize(prev model.PreferenceSet) model.PreferenceSet {
	out := prev
	if r == nil {
		return out
	}

	if r.EmailEnabled != nil {
		out.EmailEnabled = *r.EmailEnabled
	}
	if r.PushEnabled != nil {
		out.PushEnabled = *r.PushEnabled
	}

	if r.SystemEnabled != nil {
		out.SystemEnabled = *r.SystemEnabled
	}
	if r.EventEnabled != nil {
		out.EventEnabled = *r.EventEnabled
	}
	if r.OpportunityEnabled != nil {
		out.OpportunityEnabled = *r.OpportunityEnabled
	}
	if r.MemberEnabled != nil {
		out.MemberEnabled = *r.MemberEnabled
	}

	for key, enabled := range r.Categories {
		switch model.ParseCategory(key) {
		case model.CategoryEvent:
			out.EventEnabled = enabled
		case model.CategoryOpportunity:
			out.OpportunityEnabled = enabled
		case model.CategoryMember:
			out.MemberEnabled = enabled
		case model.CategorySystem:
			if strings.EqualFold(key, string(model.CategorySystem)) {
				out.SystemEnabled = enabled
			}
		}
	}

	return out
}

// PreferencesToWire serializes a full PreferenceSet into the flat wire
// form. Writes always carry every field; partial writes are never sent.
func PreferencesToWire(p model.PreferenceSet) *RawPreferences {
	return &RawPreferences{
		EmailEnabled:       &p.EmailEnabled,
		PushEnabled:        &p.PushEnabled,
		SystemEnabled:      &p.SystemEnabled,
		EventEnabled:       &p.EventEnabled,
		OpportunityEnabled: &p.OpportunityEnabled,
		MemberEnabled:      &p.MemberEnabled,
	}
}

// testResponse is the wire shape of the send-test endpoint.
type testResponse struct {
	Notification RawNotification `json:"notification"`
}

// apiError is the error envelope the API uses for non-2xx responses.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
