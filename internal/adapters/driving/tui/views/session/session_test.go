package session

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docforge/internal/core/domain"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedView(t *testing.T) *View {
	t.Helper()
	view := NewView(nil, nil, nil, "finance")
	view.SetDimensions(100, 30)
	view.SetSession("s1")
	view.Update(messages.SessionLoaded{
		Session: &domain.Session{
			ID:         "s1",
			Alias:      "q4-report",
			TemplateID: "basic_report",
			Group:      "finance",
			Globals:    map[string]any{"title": "Q4"},
			Fragments: []domain.FragmentInstance{
				{InstanceID: "f1", FragmentID: "table", Seq: 1, Params: map[string]any{"rows": []any{}}},
			},
		},
		Report: &domain.SessionReport{SessionID: "s1", FragmentCount: 1, MissingGlobals: []string{"author"}},
	})
	return view
}

func TestView_Loading(t *testing.T) {
	view := NewView(nil, nil, nil, "finance")

	cmd := view.SetSession("s1")
	require.NotNil(t, cmd)

	assert.Contains(t, view.View(), "Loading session...")
	msg, ok := cmd().(messages.SessionLoaded)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, errNoService)
}

func TestView_Summary(t *testing.T) {
	view := loadedView(t)

	out := view.View()

	assert.Contains(t, out, "q4-report (basic_report)")
	assert.Contains(t, out, "INCOMPLETE")
	assert.Contains(t, out, "author")
	assert.Contains(t, out, "table")
	assert.Contains(t, out, "[p] preview markdown")
}

func TestView_FormatCycles(t *testing.T) {
	view := loadedView(t)
	assert.Equal(t, domain.FormatMarkdown, view.Format())

	_, cmd := view.Update(runes("f"))
	assert.Nil(t, cmd)
	assert.Equal(t, domain.FormatCanonical, view.Format())

	view.Update(runes("f"))
	assert.Equal(t, domain.FormatMarkdown, view.Format())
}

func TestView_Preview(t *testing.T) {
	view := loadedView(t)

	_, cmd := view.Update(runes("p"))
	require.NotNil(t, cmd)

	view.Update(messages.PreviewRendered{SessionID: "s1", Format: domain.FormatMarkdown, Content: "# Q4\n\nbody"})

	assert.True(t, view.Previewing())
	assert.Contains(t, view.View(), "# Q4")
	assert.Contains(t, view.View(), "Preview - markdown")

	_, cmd = view.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, view.Previewing())
}

func TestView_PreviewForOtherSessionIgnored(t *testing.T) {
	view := loadedView(t)

	view.Update(messages.PreviewRendered{SessionID: "other", Content: "x"})

	assert.False(t, view.Previewing())
}

func TestView_PreviewError(t *testing.T) {
	view := loadedView(t)

	view.Update(messages.PreviewRendered{SessionID: "s1", Err: errors.New("render failed")})

	assert.False(t, view.Previewing())
	assert.Contains(t, view.View(), "Error: render failed")
}

func TestView_EscGoesBack(t *testing.T) {
	view := loadedView(t)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSessions}, cmd())
}

func TestView_Truncate(t *testing.T) {
	view := NewView(nil, nil, nil, "g")
	view.SetDimensions(20, 10)

	assert.Equal(t, "short", view.truncate("short", 0))
	assert.Equal(t, "ééééééééééééééé...", view.truncate("éééééééééééééééééééééééé", 0))
}
