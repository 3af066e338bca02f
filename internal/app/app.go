// Package app is the root Bubble Tea model: view routing, session
// lifecycle, and the glue between the sync engine, the toast
// scheduler, the preference sync, and the views.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ptran/notify-center/internal/arrival/email"
	"github.com/ptran/notify-center/internal/cache"
	"github.com/ptran/notify-center/internal/credential"
	"github.com/ptran/notify-center/internal/engine"
	"github.com/ptran/notify-center/internal/keys"
	"github.com/ptran/notify-center/internal/model"
	"github.com/ptran/notify-center/internal/remote"
	"github.com/ptran/notify-center/internal/session"
	"github.com/ptran/notify-center/internal/settings"
	"github.com/ptran/notify-center/internal/store"
	"github.com/ptran/notify-center/internal/theme"
	"github.com/ptran/notify-center/internal/toast"
	"github.com/ptran/notify-center/internal/ui"
	"github.com/ptran/notify-center/internal/ui/command"
	"github.com/ptran/notify-center/internal/ui/detail"
	helpview "github.com/ptran/notify-center/internal/ui/help"
	loginview "github.com/ptran/notify-center/internal/ui/login"
	"github.com/ptran/notify-center/internal/ui/notiflist"
	"github.com/ptran/notify-center/internal/ui/settingsview"
	"github.com/ptran/notify-center/internal/ui/toasts"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewList
	ViewDetail
	ViewSettings
	ViewHelp
	ViewCommand
)

// sessionActivatedMsg carries the result of a session activation
// attempt.
type sessionActivatedMsg struct {
	principal *remote.Principal
	err       error
}

// Options configures the root model.
type Options struct {
	Config model.AppConfig
	Cache  *cache.Cache // optional; nil disables snapshots and email dedup
	Logger *slog.Logger
	Token  string // API token from the keyring, "" when not logged in
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg    model.AppConfig
	cache  *cache.Cache
	logger *slog.Logger

	// Session-scoped services, rebuilt on login.
	svc     remote.Service
	sess    *session.Manager
	prefs   *settings.Sync
	eng     *engine.Engine
	watcher *email.Watcher

	// Session-independent state.
	store *store.Store
	sched *toast.Scheduler

	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	listView     notiflist.Model
	detailView   detail.Model
	helpView     helpview.Model
	commandView  command.Model
	settingsView settingsview.Model
	loginView    loginview.Model

	ready      bool
	errMessage string
	statusMsg  string
	initCmd    tea.Cmd
}

// New creates the root application model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	k := keys.DefaultKeyMap()
	st := store.New()

	duration := time.Duration(opts.Config.Display.ToastDurationMs) * time.Millisecond
	sched := toast.NewScheduler(duration, opts.Config.Display.MaxToasts)

	m := Model{
		cfg:         opts.Config,
		cache:       opts.Cache,
		logger:      logger,
		store:       st,
		sched:       sched,
		keys:        k,
		listView:    notiflist.New(st, k, 80, 24),
		detailView:  detail.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		loginView:   loginview.New(opts.Config.Server.BaseURL, 80, 24),
	}

	m.buildServices(opts.Config.Server.BaseURL, opts.Token)

	if opts.Token == "" {
		m.currentView = ViewLogin
		m.initCmd = m.loginView.Open()
	} else {
		m.currentView = ViewList
		m.initCmd = m.activateSession()
	}

	return m
}

// buildServices wires the session-scoped services around a fresh API
// client.
func (m *Model) buildServices(baseURL, token string) {
	m.svc = remote.NewClient(baseURL, token)
	m.sess = session.NewManager(m.svc)

	var snap settings.SnapshotStore
	if m.cache != nil {
		snap = m.cache
	}
	m.prefs = settings.NewSync(m.svc, snap, m.logger)
	m.settingsView = settingsview.New(m.prefs, 80, 24)

	m.eng = engine.New(engine.Config{
		Service:         m.svc,
		Store:           m.store,
		Toasts:          m.sched,
		Prefs:           m.prefs,
		Logger:          m.logger,
		PageLimit:       m.cfg.Server.PageLimit,
		RefreshInterval: time.Duration(m.cfg.Server.RefreshIntervalSec) * time.Second,
	})

	m.watcher = nil
	if m.cfg.Email.Enabled && m.cache != nil {
		password, err := credential.Get(credential.KeyEmailPassword)
		if err != nil {
			m.logger.Warn("email arrival disabled: no mailbox password", "error", err)
			return
		}
		client := email.NewIMAPClient(
			m.cfg.Email.Host, m.cfg.Email.Port,
			m.cfg.Email.Username, password,
			m.cfg.Email.Mailbox, m.cfg.Email.TLS,
		)
		m.watcher = email.NewWatcher(
			client, m.cache, m.eng, m.logger,
			time.Duration(m.cfg.Email.PollIntervalSec)*time.Second,
			m.cfg.Email.SenderFilter,
		)
	}
}

// activateSession validates the token in the background.
func (m Model) activateSession() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		p, err := sess.Activate(ctx)
		return sessionActivatedMsg{principal: p, err: err}
	}
}

// Init returns the startup command: either the login form or session
// activation.
func (m Model) Init() tea.Cmd {
	return m.initCmd
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.listView.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.loginView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case loginview.SubmitMsg:
		return m.handleLogin(msg)

	case loginview.CancelMsg:
		if m.sess.Active() {
			m.currentView = ViewList
			return m, nil
		}
		return m, tea.Quit

	case sessionActivatedMsg:
		return m.handleActivation(msg)

	case engine.SyncResultMsg:
		return m.handleSyncResult(msg)

	case engine.ArrivalMsg:
		m.statusMsg = "new: " + msg.Notification.Title
		return m, tea.Batch(m.listView.Reload(), m.eng.WaitForEvent())

	case engine.TestResultMsg:
		if msg.Err != nil {
			m.errMessage = fmt.Sprintf("test notification failed: %v", msg.Err)
		} else {
			m.statusMsg = "test notification delivered"
		}
		return m, m.eng.WaitForEvent()

	case engine.MutationErrorMsg:
		// The optimistic local change stands; surface the failure.
		m.errMessage = msg.Err.Error()
		return m, m.eng.WaitForEvent()

	case toast.QueueChangedMsg:
		return m, m.sched.WaitForEvent()

	case settings.LoadedMsg:
		if msg.Err != nil {
			m.errMessage = fmt.Sprintf("preferences unavailable: %v", msg.Err)
		}
		return m, nil

	case settings.SavedMsg:
		if msg.Err != nil {
			m.errMessage = fmt.Sprintf("preferences not saved: %v", msg.Err)
		} else {
			m.statusMsg = "preferences saved"
		}
		return m, nil

	case notiflist.SelectedMsg:
		n, ok := m.store.Get(msg.ID)
		if !ok {
			return m, nil
		}
		// Opening a notification marks it read.
		if !n.Read {
			m.eng.MarkRead(n.ID)
			n.Read = true
		}
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detailView.SetNotification(&n)
		return m, m.listView.Reload()

	case detail.BackMsg:
		m.currentView = ViewList
		return m, m.listView.Reload()

	case detail.ActionMsg:
		return m.handleDetailAction(msg)

	case settingsview.DoneMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		if handled, mdl, cmd := m.handleGlobalKeys(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleLogin validates the submitted credentials.
func (m Model) handleLogin(msg loginview.SubmitMsg) (tea.Model, tea.Cmd) {
	m.cfg.Server.BaseURL = msg.BaseURL
	m.buildServices(msg.BaseURL, msg.Token)

	if err := credential.Set(credential.KeyAPIToken, msg.Token); err != nil {
		m.logger.Warn("token not stored in keyring", "error", err)
	}
	cfg := m.cfg
	if err := model.SaveConfig(model.DefaultConfigPath(), &cfg); err != nil {
		m.logger.Warn("config not saved", "error", err)
	}

	return m, m.activateSession()
}

// handleActivation transitions into (or back out of) the active
// session.
func (m Model) handleActivation(msg sessionActivatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.currentView = ViewLogin
		return m, m.loginView.SetError(msg.err)
	}

	m.currentView = ViewList
	m.errMessage = ""
	if msg.principal != nil {
		m.statusMsg = "signed in as " + msg.principal.Name
	}

	if m.watcher != nil {
		m.watcher.Start()
	}

	return m, tea.Batch(
		m.eng.Start(),
		m.sched.WaitForEvent(),
		m.prefs.Load(),
	)
}

// handleSyncResult reconciles a completed load into the views.
func (m Model) handleSyncResult(msg engine.SyncResultMsg) (tea.Model, tea.Cmd) {
	if msg.AuthError {
		// Token is no longer valid; the session ends.
		return m.endSession("session expired, sign in again")
	}

	if msg.Err != nil {
		m.errMessage = fmt.Sprintf("sync failed: %v", msg.Err)
	} else {
		m.errMessage = ""
	}

	return m, tea.Batch(m.listView.Reload(), m.eng.WaitForEvent())
}

// handleDetailAction executes an action from the detail view.
func (m Model) handleDetailAction(msg detail.ActionMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case "delete":
		m.eng.Remove(msg.ID)
		m.currentView = ViewList
		return m, m.listView.Reload()
	case "open":
		if n, ok := m.store.Get(msg.ID); ok && n.ActionURL != "" {
			m.statusMsg = n.ActionURL
		}
	}
	return m, nil
}

// handleGlobalKeys processes keys that work regardless of the focused
// view. Returns handled=false to let the active view take the key.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	// Text-input views own the keyboard.
	typing := m.currentView == ViewLogin ||
		m.currentView == ViewSettings ||
		m.currentView == ViewCommand

	switch msg.String() {
	case "ctrl+c":
		m.shutdown()
		return true, m, tea.Quit

	case "q":
		if m.currentView == ViewList {
			m.shutdown()
			return true, m, tea.Quit
		}

	case "?":
		if typing {
			break
		}
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case ":":
		if typing {
			break
		}
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return true, m, m.commandView.Focus()

	case "r":
		if m.currentView == ViewList && m.sess.Active() {
			m.eng.Refresh()
			return true, m, nil
		}

	case "s":
		if m.currentView == ViewList && m.sess.Active() {
			m.previousView = m.currentView
			m.currentView = ViewSettings
			return true, m, m.settingsView.Open()
		}

	case "t":
		if m.currentView == ViewList && m.sess.Active() {
			m.eng.SendTest()
			return true, m, nil
		}

	case "m":
		if m.currentView == ViewList {
			if id := m.listView.SelectedID(); id != "" {
				m.eng.MarkRead(id)
				return true, m, m.listView.Reload()
			}
		}

	case "M":
		if m.currentView == ViewList {
			m.eng.MarkAllRead()
			return true, m, m.listView.Reload()
		}

	case "x":
		if m.currentView == ViewList {
			if id := m.listView.SelectedID(); id != "" {
				m.eng.Remove(id)
				return true, m, m.listView.Reload()
			}
		}

	case "X":
		if m.currentView == ViewList {
			m.eng.RemoveAllRead()
			return true, m, m.listView.Reload()
		}

	case "d":
		if m.currentView == ViewList {
			if active := m.sched.Active(); len(active) > 0 {
				m.sched.Dismiss(active[len(active)-1].ID)
				return true, m, nil
			}
		}
	}

	return false, m, nil
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "refresh", "sync":
		if m.sess.Active() {
			m.eng.Refresh()
		}
		return m, nil
	case "quit", "q":
		m.shutdown()
		return m, tea.Quit
	case "settings", "preferences":
		if m.sess.Active() {
			m.previousView = m.currentView
			m.currentView = ViewSettings
			return m, m.settingsView.Open()
		}
		return m, nil
	case "test":
		if m.sess.Active() {
			m.eng.SendTest()
		}
		return m, nil
	case "mark all read":
		m.eng.MarkAllRead()
		return m, m.listView.Reload()
	case "clear read":
		m.eng.RemoveAllRead()
		return m, m.listView.Reload()
	case "logout", "sign out":
		return m.endSession("signed out")
	default:
		m.statusMsg = "unknown command: " + cmd
		return m, nil
	}
}

// endSession tears down everything scoped to the session and returns
// to the login view.
func (m Model) endSession(reason string) (tea.Model, tea.Cmd) {
	m.shutdown()
	m.eng.Reset()
	m.prefs.Reset()
	m.sess.Deactivate()
	_ = credential.Delete(credential.KeyAPIToken)

	m.errMessage = ""
	m.statusMsg = reason
	m.currentView = ViewLogin
	return m, m.loginView.Open()
}

// shutdown stops the background loops. Safe to call repeatedly.
func (m Model) shutdown() {
	if m.eng != nil {
		m.eng.Stop()
	}
	if m.watcher != nil {
		m.watcher.Stop()
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewList:
		m.listView, cmd = m.listView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.syncStatus())
	content := m.renderContent()

	if overlay := toasts.Render(m.sched.Active(), m.layout.ContentWidth()); overlay != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, overlay, content)
	}

	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// headerTitle shows the app name with the unread badge.
func (m Model) headerTitle() string {
	title := "Notify Center"
	if unread := m.store.Stats().All.Unread; unread > 0 {
		title = fmt.Sprintf("%s [%d unread]", title, unread)
	}
	return title
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewList:
		return m.listView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the sync state.
func (m Model) syncStatus() string {
	if !m.sess.Active() {
		return "signed out"
	}

	state, lastSync := m.eng.Status()
	switch state {
	case engine.StateLoading:
		return "syncing"
	case engine.StateError:
		return "⚠ sync error"
	default:
		if lastSync.IsZero() {
			return "idle"
		}
		return "synced " + lastSync.Format("15:04")
	}
}

// statusLine picks the status bar content: the current error first,
// then transient status, then key hints.
func (m Model) statusLine() string {
	if m.errMessage != "" {
		return theme.ErrorStyle.Render("⚠ " + m.errMessage)
	}
	if m.statusMsg != "" {
		return m.statusMsg
	}
	return m.keyHints()
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter submit | esc quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | x delete | o open link | j/k scroll"
	case ViewSettings:
		return "enter next | esc cancel"
	default:
		return "q quit | ? help | 0-4 filter | m read | x delete | r refresh | s settings"
	}
}
