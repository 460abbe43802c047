// Package sessions provides the session list view for the TUI.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
)

// reserved is the number of lines around the table.
const reserved = 8

var errNoService = errors.New("session service not available")

// View lists the group's sessions in a table.
type View struct {
	styles   *styles.Styles
	service  driving.SessionService
	group    string
	table    table.Model
	sessions []domain.Session

	// confirming is set while an abort waits for confirmation.
	confirming bool

	loading bool
	err     error
	width   int
	height  int
}

// NewView creates a session list for group.
func NewView(s *styles.Styles, service driving.SessionService, group string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(s.Table())

	return &View{
		styles:  s,
		service: service,
		group:   group,
		table:   t,
		width:   80,
		height:  24,
	}
}

// Init loads the sessions.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.confirming = false
	return v.load()
}

func (v *View) load() tea.Cmd {
	service, group := v.service, v.group
	return func() tea.Msg {
		if service == nil {
			return messages.SessionsLoaded{Err: errNoService}
		}
		list, err := service.List(context.Background(), group)
		return messages.SessionsLoaded{Sessions: list, Err: err}
	}
}

func (v *View) abort(id string) tea.Cmd {
	service, group := v.service, v.group
	return func() tea.Msg {
		if service == nil {
			return messages.SessionAborted{ID: id, Err: errNoService}
		}
		return messages.SessionAborted{ID: id, Err: service.Abort(context.Background(), id, group)}
	}
}

// Update handles messages for the session list.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SessionsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.setSessions(msg.Sessions)
		}
		return v, nil

	case messages.SessionAborted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.loading = true
		return v, v.load()

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.confirming {
		v.confirming = false
		if msg.String() == "y" {
			if s := v.Selected(); s != nil {
				return v, v.abort(s.ID)
			}
		}
		return v, nil
	}

	switch msg.String() {
	case "esc":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case "r":
		v.loading = true
		return v, v.load()
	case "enter":
		if s := v.Selected(); s != nil {
			id := s.ID
			return v, func() tea.Msg { return messages.SessionSelected{ID: id} }
		}
		return v, nil
	case "x":
		if v.Selected() != nil {
			v.confirming = true
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return v, cmd
}

func (v *View) setSessions(list []domain.Session) {
	v.sessions = list
	rows := make([]table.Row, len(list))
	for i := range list {
		s := &list[i]
		rows[i] = table.Row{
			s.Alias,
			s.TemplateID,
			strconv.Itoa(len(s.Fragments)),
			s.UpdatedAt.Local().Format(time.DateTime),
		}
	}
	v.table.SetRows(rows)
	if v.table.Cursor() >= len(rows) {
		v.table.SetCursor(max(len(rows)-1, 0))
	}
}

// View renders the session list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Sessions - %s (%d)", v.group, len(v.sessions))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading sessions..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.sessions) == 0:
		b.WriteString(v.styles.Muted.Render("No sessions. Create one with: docforge session create <template> <alias>"))
	default:
		b.WriteString(v.table.View())
	}
	b.WriteString("\n\n")

	if v.confirming {
		if s := v.Selected(); s != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Abort %s and delete its artifacts? [y/N]", s.Alias)))
			return b.String()
		}
	}
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] open  [x] abort  [r] reload  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.table.SetColumns(columns(width))
	v.table.SetHeight(max(height-reserved, 3))
}

// Sessions returns the loaded sessions.
func (v *View) Sessions() []domain.Session {
	return v.sessions
}

// Selected returns the highlighted session, or nil.
func (v *View) Selected() *domain.Session {
	i := v.table.Cursor()
	if i < 0 || i >= len(v.sessions) {
		return nil
	}
	return &v.sessions[i]
}

// Confirming reports whether an abort is awaiting confirmation.
func (v *View) Confirming() bool {
	return v.confirming
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func columns(width int) []table.Column {
	alias := max(width-16-10-20-8, 16)
	return []table.Column{
		{Title: "Alias", Width: alias},
		{Title: "Template", Width: 16},
		{Title: "Frags", Width: 6},
		{Title: "Updated", Width: 20},
	}
}
