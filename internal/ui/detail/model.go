// Package detail renders a single notification with its full message
// and action link.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptran/notify-center/internal/keys"
	"github.com/ptran/notify-center/internal/model"
	"github.com/ptran/notify-center/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ActionMsg signals the parent to execute an action on the current
// notification.
type ActionMsg struct {
	Action string
	ID     string
}

// Model is the notification detail view component.
type Model struct {
	notification *model.Notification
	viewport     viewport.Model
	keys         *keys.KeyMap
	width        int
	height       int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(keyMsg, m.keys.Delete):
			if m.notification != nil {
				id := m.notification.ID
				return m, func() tea.Msg {
					return ActionMsg{Action: "delete", ID: id}
				}
			}

		case key.Matches(keyMsg, m.keys.OpenAction):
			if m.notification != nil && m.notification.ActionURL != "" {
				id := m.notification.ID
				return m, func() tea.Msg {
					return ActionMsg{Action: "open", ID: id}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.notification == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No notification selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.notification == nil {
		return ""
	}

	n := m.notification
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(n.Title))

	catBadge := theme.CategoryStyle(n.Category).Render(strings.ToUpper(string(n.Category)))
	readBadge := lipgloss.NewStyle().Foreground(theme.ColorGray).Render("read")
	if !n.Read {
		readBadge = theme.UnreadMarkerStyle.Render("unread")
	}
	sections = append(sections, lipgloss.JoinHorizontal(
		lipgloss.Top, catBadge, "  ", readBadge,
	))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	if !n.CreatedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Received:"),
			valStyle.Render(n.CreatedAt.Format("2006-01-02 15:04")),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	body := n.Message
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No message body")
	}
	sections = append(sections, body)

	if n.ActionURL != "" {
		sections = append(sections, "")
		sections = append(sections, separator)
		sections = append(sections, "")

		label := n.ActionText
		if label == "" {
			label = "Open"
		}
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render(label+":"),
			valStyle.Render(n.ActionURL),
		))
		sections = append(sections, theme.HelpStyle.Render("press o to open"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetNotification updates the displayed record and re-renders the
// content.
func (m *Model) SetNotification(n *model.Notification) {
	m.notification = n
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Notification returns the currently displayed record, nil when none.
func (m Model) Notification() *model.Notification {
	return m.notification
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
