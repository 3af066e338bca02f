// Package toasts renders the pop-up notification stack shown above the
// main content while toasts are live.
package toasts

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ptran/notify-center/internal/theme"
	"github.com/ptran/notify-center/internal/toast"
)

const cardWidth = 44

// Render draws the active toasts as a right-aligned stack, newest
// first. Returns "" when nothing is live.
func Render(entries []toast.Entry, width int) string {
	if len(entries) == 0 {
		return ""
	}

	cards := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		cards = append(cards, renderCard(entries[i]))
	}

	stack := lipgloss.JoinVertical(lipgloss.Right, cards...)
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Right).
		Render(stack)
}

func renderCard(e toast.Entry) string {
	n := e.Notification

	catBadge := theme.CategoryStyle(n.Category).Render(string(n.Category))
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render(truncate(n.Title, cardWidth-4))

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, catBadge, " ", title),
	}
	if n.Message != "" {
		lines = append(lines, truncate(n.Message, cardWidth-4))
	}

	return theme.ToastStyle.
		Width(cardWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func truncate(s string, max int) string {
	if max <= 1 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
