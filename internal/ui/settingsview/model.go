// Package settingsview is the notification preference panel. It edits
// a local copy of the preference set and hands the changed fields to
// the settings sync as a patch on submit.
package settingsview

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptran/notify-center/internal/model"
	"github.com/ptran/notify-center/internal/settings"
	"github.com/ptran/notify-center/internal/theme"
)

// DoneMsg signals the settings panel should close.
type DoneMsg struct{}

// Model is the Bubble Tea model for the preference panel.
type Model struct {
	sync *settings.Sync
	form *huh.Form

	// Form field values (huh binds to these).
	email       bool
	push        bool
	system      bool
	event       bool
	opportunity bool
	member      bool

	// baseline is the preference set the form was opened with; the
	// submit patch carries only the fields that differ from it.
	baseline model.PreferenceSet

	width  int
	height int
}

// New creates a settings panel bound to the preference sync.
func New(sync *settings.Sync, width, height int) Model {
	return Model{
		sync:   sync,
		width:  width,
		height: height,
	}
}

// Open seeds the form from the current preference set and returns the
// form's init command.
func (m *Model) Open() tea.Cmd {
	prefs := m.sync.Current()
	m.baseline = prefs
	m.email = prefs.EmailEnabled
	m.push = prefs.PushEnabled
	m.system = prefs.SystemEnabled
	m.event = prefs.EventEnabled
	m.opportunity = prefs.OpportunityEnabled
	m.member = prefs.MemberEnabled

	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Email notifications").
				Description("Deliver notifications to your inbox").
				Value(&m.email),
			huh.NewConfirm().
				Title("Push notifications").
				Description("Show pop-up toasts for arriving notifications").
				Value(&m.push),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("System").
				Description("Platform announcements and account notices").
				Value(&m.system),
			huh.NewConfirm().
				Title("Events").
				Description("Invitations, RSVPs, and reminders").
				Value(&m.event),
			huh.NewConfirm().
				Title("Opportunities").
				Description("Job and volunteer openings").
				Value(&m.opportunity),
			huh.NewConfirm().
				Title("Members").
				Description("Mentions, follows, and messages").
				Value(&m.member),
		),
	).WithWidth(m.formWidth())
}

// Update handles messages for the settings panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return DoneMsg{} }
	}

	return m, cmd
}

// submit builds the patch from the changed fields and closes the panel.
// The remote write runs behind the returned command; the local value is
// already updated when it starts.
func (m Model) submit() (Model, tea.Cmd) {
	patch := m.diff()
	done := func() tea.Msg { return DoneMsg{} }

	if save := m.sync.Update(patch); save != nil {
		return m, tea.Batch(save, done)
	}
	return m, done
}

// diff returns a patch naming only the fields that changed.
func (m Model) diff() model.PreferencePatch {
	var patch model.PreferencePatch
	if m.email != m.baseline.EmailEnabled {
		patch.EmailEnabled = &m.email
	}
	if m.push != m.baseline.PushEnabled {
		patch.PushEnabled = &m.push
	}
	if m.system != m.baseline.SystemEnabled {
		patch.SystemEnabled = &m.system
	}
	if m.event != m.baseline.EventEnabled {
		patch.EventEnabled = &m.event
	}
	if m.opportunity != m.baseline.OpportunityEnabled {
		patch.OpportunityEnabled = &m.opportunity
	}
	if m.member != m.baseline.MemberEnabled {
		patch.MemberEnabled = &m.member
	}
	return patch
}

// View renders the settings panel.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Notification Settings")

	body := ""
	if m.form != nil {
		body = m.form.View()
	}

	status := ""
	if m.sync.Saving() {
		status = theme.HelpStyle.Render("saving…")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body, status)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w > 72 {
		w = 72
	}
	if w < 24 {
		w = 24
	}
	return w
}
