package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/views/session"
	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/views/sessions"
	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/views/templates"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView      *menu.View
	sessionsView  *sessions.View
	sessionView   *session.View
	templatesView *templates.View
	statusBar     *status.Bar

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	group := ports.group()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		menuView:      menu.NewView(s),
		sessionsView:  sessions.NewView(s, ports.Sessions, group),
		sessionView:   session.NewView(s, ports.Sessions, ports.Render, group),
		templatesView: templates.NewView(s, ports.Catalog, group),
		statusBar:     status.NewBar(s, keymap.DefaultKeyMap(), group),
		currentView:   messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("docforge - " + a.ports.group())
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				return a.switchTo(messages.ViewMenu)
			}
			return a, nil
		}

	case messages.ViewChanged:
		return a.switchTo(msg.View)

	case messages.SessionSelected:
		a.currentView = messages.ViewSession
		a.statusBar.SetHints(status.HintsSession)
		a.statusBar.SetState(status.StateLoading, "")
		return a, a.sessionView.SetSession(msg.ID)

	case messages.SessionsLoaded:
		a.noteResult(msg.Err, fmt.Sprintf("%d session(s)", len(msg.Sessions)))

	case messages.SessionLoaded:
		a.noteResult(msg.Err, "")

	case messages.SessionAborted:
		a.noteResult(msg.Err, "aborted")

	case messages.PreviewRendered:
		a.noteResult(msg.Err, fmt.Sprintf("%s preview, %d bytes", msg.Format, len(msg.Content)))

	case messages.TemplatesLoaded:
		a.noteResult(msg.Err, fmt.Sprintf("%d template(s)", len(msg.Templates)))

	case messages.ErrorOccurred:
		a.noteResult(msg.Err, "")
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSessions:
		a.sessionsView, cmd = a.sessionsView.Update(msg)
	case messages.ViewSession:
		if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "p" || k.String() == "f") {
			a.statusBar.SetState(status.StateRendering, "")
		}
		a.sessionView, cmd = a.sessionView.Update(msg)
	case messages.ViewTemplates:
		a.templatesView, cmd = a.templatesView.Update(msg)
	case messages.ViewHelp:
	}
	return a, cmd
}

// switchTo activates view and runs its initial load.
func (a *App) switchTo(view messages.ViewType) (tea.Model, tea.Cmd) {
	a.currentView = view
	a.statusBar.Clear()
	a.statusBar.SetHints(status.HintsShort)

	switch view {
	case messages.ViewSessions:
		a.statusBar.SetHints(status.HintsSessions)
		a.statusBar.SetState(status.StateLoading, "")
		return a, a.sessionsView.Init()
	case messages.ViewTemplates:
		a.statusBar.SetState(status.StateLoading, "")
		return a, a.templatesView.Init()
	case messages.ViewSession:
		a.statusBar.SetHints(status.HintsSession)
	case messages.ViewMenu, messages.ViewHelp:
	}
	return a, nil
}

// noteResult reflects the outcome of a load in the status bar.
func (a *App) noteResult(err error, okMessage string) {
	a.err = err
	if err != nil {
		a.statusBar.SetState(status.StateError, err.Error())
		return
	}
	a.statusBar.SetState(status.StateReady, okMessage)
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewSessions:
		body = a.sessionsView.View()
	case messages.ViewSession:
		body = a.sessionView.View()
	case messages.ViewTemplates:
		body = a.templatesView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		return a.menuView.View()
	}

	gap := a.height - lipgloss.Height(body) - 1
	if gap < 1 {
		gap = 1
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		lipgloss.NewStyle().Height(gap).Render(""),
		a.statusBar.View(),
	)
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back
  ctrl+c      Quit

Sessions:
  j/k, ↑/↓    Navigate
  enter       Open session
  x           Abort session (asks y/N)
  r           Reload

Session:
  p           Render a preview
  f           Switch preview between markdown and canonical
  ↑/↓         Scroll the preview
  esc         Close preview / back

Templates:
  j/k, ↑/↓    Navigate
  r           Reload

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.sessionsView.SetDimensions(width, height-1)
	a.sessionView.SetDimensions(width, height-1)
	a.templatesView.SetDimensions(width, height-1)
	a.statusBar.SetWidth(width)
}
