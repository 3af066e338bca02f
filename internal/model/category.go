package model

import "strings"

// Category is the closed set of notification categories. Every
// notification held by the store carries exactly one of these values;
// raw type hints that match nothing normalize to CategorySystem.
type Category string

const (
	CategorySystem      Category = "system"
	CategoryEvent       Category = "event"
	CategoryOpportunity Category = "opportunity"
	CategoryMember      Category = "member"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategorySystem,
	CategoryEvent,
	CategoryOpportunity,
	CategoryMember,
}

// Token lists for classification, checked in priority order. Matching is
// case-insensitive substring, so a hint like "EventReminder" or
// "new_event_invite" lands in the event bucket.
var (
	eventTokens = []string{
		"event", "rsvp", "invite", "calendar", "reminder",
	}
	opportunityTokens = []string{
		"opportunity", "job", "volunteer", "application", "opening",
	}
	memberTokens = []string{
		"member", "community", "friend", "follow", "connection",
		"mention", "message",
	}
)

// Classify maps a free-text type hint from a remote record to a Category.
// It is total: any input, including the empty string, yields exactly one
// category, falling back to CategorySystem when no token matches.
func Classify(hint string) Category {
	h := strings.ToLower(hint)

	for _, tok := range eventTokens {
		if strings.Contains(h, tok) {
			return CategoryEvent
		}
	}
	for _, tok := range opportunityTokens {
		if strings.Contains(h, tok) {
			return CategoryOpportunity
		}
	}
	for _, tok := range memberTokens {
		if strings.Contains(h, tok) {
			return CategoryMember
		}
	}

	return CategorySystem
}

// ParseCategory returns the Category matching s, or CategorySystem when s
// is not one of the closed set. Used when reading category keys from
// remote payloads and the local cache.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(s)) {
	case CategoryEvent:
		return CategoryEvent
	case CategoryOpportunity:
		return CategoryOpportunity
	case CategoryMember:
		return CategoryMember
	default:
		return CategorySystem
	}
}
