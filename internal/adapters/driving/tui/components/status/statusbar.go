// Package status provides the status bar shown under every TUI view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docforge/internal/adapters/driving/tui/styles"
)

// State is what the bar reports on its left side.
type State string

const (
	StateReady     State = "ready"
	StateLoading   State = "loading"
	StateRendering State = "rendering"
	StateError     State = "error"
)

// Hints selects the keybinding hints on the right side.
type Hints int

const (
	HintsShort Hints = iota
	HintsSessions
	HintsSession
)

// Bar displays the group, application state and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	group   string
	state   State
	message string
	hints   Hints
	width   int
}

// NewBar creates a status bar for group.
func NewBar(s *styles.Styles, km *keymap.KeyMap, group string) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		group:  group,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	group := s.styles.Subtitle.Render("[" + s.group + "]")

	var state string
	switch s.state {
	case StateLoading:
		state = s.styles.Muted.Render("Loading...")
	case StateRendering:
		state = s.styles.Muted.Render("Rendering...")
	case StateError:
		if s.message != "" {
			state = s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		} else {
			state = s.styles.Error.Render("Error")
		}
	default:
		if s.message != "" {
			state = s.styles.Normal.Render(s.message)
		} else {
			state = s.styles.Muted.Render("Ready")
		}
	}
	return group + " " + state
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch s.hints {
	case HintsSessions:
		bindings = s.keymap.SessionsHelp()
	case HintsSession:
		bindings = s.keymap.SessionHelp()
	default:
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state and message.
func (s *Bar) SetState(state State, message string) {
	s.state = state
	s.message = message
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetHints selects the keybinding hints.
func (s *Bar) SetHints(h Hints) {
	s.hints = h
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Clear resets the status bar to the ready state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
