// Package templates provides the catalog browser view for the TUI.
package templates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
)

// listWidth is the width of the template list column.
const listWidth = 24

// View lists templates and describes the highlighted one.
type View struct {
	styles    *styles.Styles
	catalog   driving.CatalogService
	group     string
	templates []domain.Template
	selected  int
	loading   bool
	err       error
	width     int
	height    int
}

// NewView creates a catalog browser for group.
func NewView(s *styles.Styles, catalog driving.CatalogService, group string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, catalog: catalog, group: group, width: 80, height: 24}
}

// Init loads the templates.
func (v *View) Init() tea.Cmd {
	v.loading = true
	catalog, group := v.catalog, v.group
	return func() tea.Msg {
		if catalog == nil {
			return messages.TemplatesLoaded{Err: errors.New("catalog not available")}
		}
		list, err := catalog.Templates(context.Background(), group)
		return messages.TemplatesLoaded{Templates: list, Err: err}
	}
}

// Update handles messages for the catalog browser.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.TemplatesLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.templates = msg.Templates
			v.selected = 0
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.templates)-1 {
				v.selected++
			}
		case "r":
			return v, v.Init()
		case "esc":
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		}
	}
	return v, nil
}

// View renders the browser.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Templates - %s (%d)", v.group, len(v.templates))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading templates..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.templates) == 0:
		b.WriteString(v.styles.Muted.Render("No templates visible to this group."))
	default:
		list := lipgloss.NewStyle().Width(listWidth).Render(v.renderList())
		detail := v.renderDetail(&v.templates[v.selected])
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, detail))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderList() string {
	var b strings.Builder
	for i := range v.templates {
		id := v.templates[i].ID
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + id))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + id))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderDetail(t *domain.Template) string {
	var b strings.Builder

	if t.Title != "" {
		b.WriteString(v.styles.Subtitle.Render(t.Title))
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("group %s, at least %d fragment(s)", t.Group, t.MinFragments)))
	b.WriteString("\n")
	if len(t.RequiredFragments) > 0 {
		b.WriteString(v.styles.Muted.Render("requires " + strings.Join(t.RequiredFragments, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(v.styles.Subtitle.Render("Globals"))
	b.WriteString("\n")
	b.WriteString(v.renderFields(t.GlobalSchema))

	ids := make([]string, 0, len(t.Fragments))
	for id := range t.Fragments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Fragments"))
	b.WriteString("\n")
	for _, id := range ids {
		ft := t.Fragments[id]
		b.WriteString(v.styles.Normal.Render(fmt.Sprintf("%s (%s)", ft.ID, ft.Kind)))
		b.WriteString("\n")
		b.WriteString(v.renderFields(ft.Schema))
	}
	return b.String()
}

func (v *View) renderFields(schema domain.Schema) string {
	if len(schema.Fields) == 0 {
		return v.styles.Muted.Render("  (none)") + "\n"
	}
	var b strings.Builder
	for _, f := range schema.Fields {
		marker := " "
		if f.Required {
			marker = "*"
		}
		b.WriteString(fmt.Sprintf("  %s %-14s %s\n", marker, f.Name, v.styles.Muted.Render(string(f.Type))))
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Templates returns the loaded templates.
func (v *View) Templates() []domain.Template {
	return v.templates
}

// Selected returns the highlighted index.
func (v *View) Selected() int {
	return v.selected
}
