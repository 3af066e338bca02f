// Package notiflist is the main inbox view: the notification list with
// category filter tabs and unread badges.
package notiflist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptran/notify-center/internal/keys"
	"github.com/ptran/notify-center/internal/model"
	"github.com/ptran/notify-center/internal/store"
	"github.com/ptran/notify-center/internal/theme"
)

// SelectedMsg is sent when a user selects a notification to view.
type SelectedMsg struct {
	ID string
}

// Model is the notification list view component.
type Model struct {
	list   list.Model
	store  *store.Store
	keys   *keys.KeyMap
	filter *model.Category
	width  int
	height int
}

// New creates a new notification list model.
func New(s *store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		store:  s,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init reloads the list from the store.
func (m Model) Init() tea.Cmd {
	return nil
}

// Reload rebuilds the list items from the store under the active
// category filter. Called after every sync, arrival, or mutation.
func (m *Model) Reload() tea.Cmd {
	var records []model.Notification
	if m.filter == nil {
		records = m.store.All()
	} else {
		records = m.store.ByCategory(*m.filter)
	}

	items := make([]list.Item, len(records))
	for i, n := range records {
		items[i] = Item{Notification: n}
	}
	return m.list.SetItems(items)
}

// Update handles messages for the notification list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKeys(keyMsg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(Item)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedMsg{ID: item.Notification.ID}
		}

	case key.Matches(msg, m.keys.FilterAll):
		m.filter = nil
		return m, m.Reload()

	case key.Matches(msg, m.keys.FilterSystem):
		return m.setFilter(model.CategorySystem)

	case key.Matches(msg, m.keys.FilterEvent):
		return m.setFilter(model.CategoryEvent)

	case key.Matches(msg, m.keys.FilterOpportunity):
		return m.setFilter(model.CategoryOpportunity)

	case key.Matches(msg, m.keys.FilterMember):
		return m.setFilter(model.CategoryMember)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// setFilter toggles a category filter: pressing the active category's
// key again clears it.
func (m Model) setFilter(cat model.Category) (Model, tea.Cmd) {
	if m.filter != nil && *m.filter == cat {
		m.filter = nil
	} else {
		m.filter = &cat
	}
	return m, m.Reload()
}

// SelectedID returns the ID of the focused notification, or "".
func (m Model) SelectedID() string {
	item, ok := m.list.SelectedItem().(Item)
	if !ok {
		return ""
	}
	return item.Notification.ID
}

// Filter returns the active category filter, nil for all.
func (m Model) Filter() *model.Category {
	return m.filter
}

// View renders the list with the category tab bar above it.
func (m Model) View() string {
	tabs := m.renderTabs()

	if len(m.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, tabs, m.renderEmptyState())
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabs, m.list.View())
}

// renderTabs draws the category tabs with their unread counts.
func (m Model) renderTabs() string {
	stats := m.store.Stats()

	var parts []string
	parts = append(parts, m.renderTab("all", nil, stats.All))
	for _, cat := range model.Categories {
		c := cat
		parts = append(parts, m.renderTab(string(cat), &c, stats.ByCategory[cat]))
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(parts, "  "))
}

func (m Model) renderTab(label string, cat *model.Category, bucket model.StatBucket) string {
	text := label
	if bucket.Unread > 0 {
		text = fmt.Sprintf("%s %s", label, theme.BadgeStyle().Render(fmt.Sprintf("%d", bucket.Unread)))
	}

	active := (cat == nil && m.filter == nil) ||
		(cat != nil && m.filter != nil && *cat == *m.filter)
	if active {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBlue).
			Underline(true).
			Render(text)
	}
	return lipgloss.NewStyle().Foreground(theme.ColorGray).Render(text)
}

// renderEmptyState shows guidance text when no notifications match.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-3).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter != nil {
		return style.Render("Nothing in this category.\nPress 0 to show everything.")
	}
	return style.Render("You're all caught up.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
