// Package login collects the platform URL and API token when no valid
// session exists.
package login

import (
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptran/notify-center/internal/theme"
)

// SubmitMsg carries the entered connection details for validation.
type SubmitMsg struct {
	BaseURL string
	Token   string
}

// CancelMsg signals the user backed out of the login form.
type CancelMsg struct{}

// Model is the Bubble Tea model for the login form.
type Model struct {
	form *huh.Form

	baseURL string
	token   string

	errMsg string
	width  int
	height int
}

// New creates a login form, prefilled with the configured server URL.
func New(defaultBaseURL string, width, height int) Model {
	return Model{
		baseURL: defaultBaseURL,
		width:   width,
		height:  height,
	}
}

// Open builds the form and returns its init command.
func (m *Model) Open() tea.Cmd {
	m.token = ""
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Platform URL").
				Description("Root URL of your community platform").
				Placeholder("https://community.example.org").
				Value(&m.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("API Token").
				Description("Personal API token from your account settings").
				EchoMode(huh.EchoModePassword).
				Value(&m.token).
				Validate(validateRequired("Token")),
		),
	).WithWidth(m.formWidth())
}

// SetError shows a validation failure and reopens the form.
func (m *Model) SetError(err error) tea.Cmd {
	m.errMsg = err.Error()
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the login form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		baseURL := strings.TrimRight(strings.TrimSpace(m.baseURL), "/")
		token := strings.TrimSpace(m.token)
		m.errMsg = ""
		return m, func() tea.Msg {
			return SubmitMsg{BaseURL: baseURL, Token: token}
		}
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the login form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Connect to your community")

	body := ""
	if m.form != nil {
		body = m.form.View()
	}

	sections := []string{title, body}
	if m.errMsg != "" {
		sections = append(sections, theme.ErrorStyle.Render(m.errMsg))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the form dimensions.
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

func validateRequired(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("enter a full URL including https://")
	}
	return nil
}
