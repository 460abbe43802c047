package sessions

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docforge/internal/core/domain"
)

func loaded(aliases ...string) messages.SessionsLoaded {
	list := make([]domain.Session, len(aliases))
	for i, a := range aliases {
		list[i] = domain.Session{ID: "id-" + a, Alias: a, TemplateID: "basic_report", UpdatedAt: time.Now()}
	}
	return messages.SessionsLoaded{Sessions: list}
}

func TestNewView(t *testing.T) {
	view := NewView(nil, nil, "finance")

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Nil(t, view.Selected())
}

func TestView_Init_NoService(t *testing.T) {
	view := NewView(nil, nil, "finance")

	cmd := view.Init()
	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.SessionsLoaded)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, errNoService)

	view.Update(msg)
	assert.Contains(t, view.View(), "Error: session service not available")
}

func TestView_Update_Loaded(t *testing.T) {
	view := NewView(nil, nil, "finance")
	view.SetDimensions(100, 30)

	view.Update(loaded("alpha", "beta"))

	assert.Len(t, view.Sessions(), 2)
	assert.Contains(t, view.View(), "Sessions - finance (2)")
	assert.Contains(t, view.View(), "beta")
	require.NotNil(t, view.Selected())
	assert.Equal(t, "alpha", view.Selected().Alias)
}

func TestView_Update_Navigate(t *testing.T) {
	view := NewView(nil, nil, "finance")
	view.Update(loaded("alpha", "beta"))

	view.Update(tea.KeyMsg{Type: tea.KeyDown})

	assert.Equal(t, "beta", view.Selected().Alias)
}

func TestView_Update_Enter(t *testing.T) {
	view := NewView(nil, nil, "finance")
	view.Update(loaded("alpha"))

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.SessionSelected{ID: "id-alpha"}, cmd())
}

func TestView_Update_EnterWhenEmpty(t *testing.T) {
	view := NewView(nil, nil, "finance")
	view.Update(loaded())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Contains(t, view.View(), "No sessions")
}

func TestView_Update_Esc(t *testing.T) {
	view := NewView(nil, nil, "finance")

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Update_AbortNeedsConfirmation(t *testing.T) {
	view := NewView(nil, nil, "finance")
	view.Update(loaded("alpha"))

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Nil(t, cmd)
	assert.True(t, view.Confirming())

	_, cmd = view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	require.NotNil(t, cmd)
	aborted, ok := cmd().(messages.SessionAborted)
	require.True(t, ok)
	assert.Equal(t, "id-alpha", aborted.ID)
	assert.False(t, view.Confirming())
}

func TestView_Update_AbortFailed(t *testing.T) {
	view := NewView(nil, nil, "finance")

	view.Update(messages.SessionAborted{ID: "x", Err: domain.ErrSessionNotFound})

	assert.ErrorIs(t, view.Err(), domain.ErrSessionNotFound)
}

func TestView_ReloadClampsCursor(t *testing.T) {
	view := NewView(nil, nil, "finance")
	view.Update(loaded("alpha", "beta"))
	view.Update(tea.KeyMsg{Type: tea.KeyDown})

	view.Update(loaded("alpha"))

	require.NotNil(t, view.Selected())
	assert.Equal(t, "alpha", view.Selected().Alias)
}
