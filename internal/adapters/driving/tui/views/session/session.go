// Package session provides the single-session view: its readiness report,
// fragments and a scrollable rendered preview.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
)

var errNoService = errors.New("session service not available")

// previewFormats are the text formats the preview can show.
var previewFormats = []domain.Format{domain.FormatMarkdown, domain.FormatCanonical}

// View shows one session.
type View struct {
	styles   *styles.Styles
	sessions driving.SessionService
	render   driving.RenderService
	group    string

	id      string
	session *domain.Session
	report  *domain.SessionReport

	format     int
	previewing bool
	rendering  bool
	viewport   viewport.Model

	err    error
	width  int
	height int
}

// NewView creates a session view for group.
func NewView(s *styles.Styles, sessions driving.SessionService, render driving.RenderService, group string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		sessions: sessions,
		render:   render,
		group:    group,
		viewport: viewport.New(80, 16),
		width:    80,
		height:   24,
	}
}

// SetSession resets the view and loads session id.
func (v *View) SetSession(id string) tea.Cmd {
	v.id = id
	v.session = nil
	v.report = nil
	v.previewing = false
	v.err = nil
	return v.load()
}

func (v *View) load() tea.Cmd {
	service, id, group := v.sessions, v.id, v.group
	return func() tea.Msg {
		if service == nil {
			return messages.SessionLoaded{Err: errNoService}
		}
		ctx := context.Background()
		sess, err := service.Get(ctx, id, group)
		if err != nil {
			return messages.SessionLoaded{Err: err}
		}
		report, err := service.Status(ctx, id, group)
		return messages.SessionLoaded{Session: sess, Report: report, Err: err}
	}
}

func (v *View) renderPreview() tea.Cmd {
	service, id, group, format := v.render, v.id, v.group, v.Format()
	return func() tea.Msg {
		if service == nil {
			return messages.PreviewRendered{SessionID: id, Format: format, Err: errors.New("render service not available")}
		}
		res, err := service.Render(context.Background(), id, group, driving.RenderRequest{Format: format})
		if err != nil {
			return messages.PreviewRendered{SessionID: id, Format: format, Err: err}
		}
		return messages.PreviewRendered{SessionID: id, Format: format, Content: string(res.Data)}
	}
}

// Update handles messages for the session view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SessionLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.session = msg.Session
			v.report = msg.Report
		}
		return v, nil

	case messages.PreviewRendered:
		if msg.SessionID != v.id {
			return v, nil
		}
		v.rendering = false
		if msg.Err != nil {
			v.err = msg.Err
			v.previewing = false
			return v, nil
		}
		v.err = nil
		v.previewing = true
		v.viewport.SetContent(msg.Content)
		v.viewport.GotoTop()
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if v.previewing {
			v.previewing = false
			return v, nil
		}
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSessions} }
	case "r":
		return v, v.load()
	case "p":
		v.rendering = true
		return v, v.renderPreview()
	case "f":
		v.format = (v.format + 1) % len(previewFormats)
		if v.previewing {
			v.rendering = true
			return v, v.renderPreview()
		}
		return v, nil
	}

	if v.previewing {
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}
	return v, nil
}

// View renders the session.
func (v *View) View() string {
	var b strings.Builder

	if v.session == nil {
		b.WriteString(v.styles.Title.Render("Session"))
		b.WriteString("\n\n")
		if v.err != nil {
			b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		} else {
			b.WriteString(v.styles.Muted.Render("Loading session..."))
		}
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[esc] back"))
		return b.String()
	}

	title := fmt.Sprintf("%s (%s)", v.session.Alias, v.session.TemplateID)
	b.WriteString(v.styles.Title.Render(title))
	if v.report != nil {
		b.WriteString("  " + v.styles.Readiness(v.report.Ready))
	}
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.previewing {
		b.WriteString(v.styles.Subtitle.Render("Preview - " + string(v.Format())))
		b.WriteString("\n")
		b.WriteString(v.viewport.View())
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render(fmt.Sprintf(
			"[↑/↓] scroll  [f] format  [esc] close  %3.f%%", v.viewport.ScrollPercent()*100)))
		return b.String()
	}

	b.WriteString(v.renderSummary())
	b.WriteString("\n")
	if v.rendering {
		b.WriteString(v.styles.Muted.Render("Rendering..."))
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Help.Render(fmt.Sprintf(
		"[p] preview %s  [f] format  [r] reload  [esc] back", v.Format())))
	return b.String()
}

func (v *View) renderSummary() string {
	var b strings.Builder
	label := v.styles.Label.Render

	b.WriteString(label("ID") + v.session.ID + "\n")
	b.WriteString(label("Group") + v.session.Group + "\n")
	if v.report != nil {
		if len(v.report.MissingGlobals) > 0 {
			b.WriteString(label("Missing") + v.styles.Warning.Render(strings.Join(v.report.MissingGlobals, ", ")) + "\n")
		}
		b.WriteString(label("Fragments") + fmt.Sprint(v.report.FragmentCount) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(v.styles.Subtitle.Render("Globals"))
	b.WriteString("\n")
	if len(v.session.Globals) == 0 {
		b.WriteString(v.styles.Muted.Render("  (none)") + "\n")
	}
	keys := make([]string, 0, len(v.session.Globals))
	for k := range v.session.Globals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("  " + label(k) + v.truncate(oneLine(v.session.Globals[k]), 14) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(v.styles.Subtitle.Render("Fragments"))
	b.WriteString("\n")
	if len(v.session.Fragments) == 0 {
		b.WriteString(v.styles.Muted.Render("  (none)") + "\n")
	}
	for _, f := range v.session.Fragments {
		line := fmt.Sprintf("  #%-3d %-12s %s", f.Seq, f.FragmentID, oneLine(f.Params))
		b.WriteString(v.truncate(line, 0) + "\n")
	}
	return b.String()
}

func (v *View) truncate(s string, indent int) string {
	limit := v.width - indent - 2
	r := []rune(s)
	if limit < 10 || len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func oneLine(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(data)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(height-6, 3)
}

// Format returns the preview format.
func (v *View) Format() domain.Format {
	return previewFormats[v.format]
}

// Session returns the loaded session, or nil.
func (v *View) Session() *domain.Session {
	return v.session
}

// Previewing reports whether the preview is shown.
func (v *View) Previewing() bool {
	return v.previewing
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
