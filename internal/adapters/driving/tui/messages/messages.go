// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docforge/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSessions lists the group's sessions.
	ViewSessions
	// ViewSession shows one session and its rendered preview.
	ViewSession
	// ViewTemplates browses the catalog.
	ViewTemplates
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSessions:
		return "sessions"
	case ViewSession:
		return "session"
	case ViewTemplates:
		return "templates"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SessionsLoaded carries the group's sessions.
type SessionsLoaded struct {
	Sessions []domain.Session
	Err      error
}

// SessionSelected signals a session was picked from the list.
type SessionSelected struct {
	ID string
}

// SessionLoaded carries a session snapshot and its readiness report.
type SessionLoaded struct {
	Session *domain.Session
	Report  *domain.SessionReport
	Err     error
}

// SessionAborted signals a session was aborted.
type SessionAborted struct {
	ID  string
	Err error
}

// PreviewRendered carries the rendered output of a session.
type PreviewRendered struct {
	SessionID string
	Format    domain.Format
	Content   string
	Err       error
}

// TemplatesLoaded carries the templates visible to the group.
type TemplatesLoaded struct {
	Templates []domain.Template
	Err       error
}
