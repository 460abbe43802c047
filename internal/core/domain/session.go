package domain

import (
	"regexp"
	"sort"
	"time"
)

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

// Session lifecycle states. ABORTED is terminal.
const (
	SessionActive  SessionStatus = "ACTIVE"
	SessionAborted SessionStatus = "ABORTED"
)

// Alias length bounds.
const (
	AliasMinLength = 3
	AliasMaxLength = 64
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidAlias reports whether alias satisfies the length and character rules.
func ValidAlias(alias string) bool {
	if len(alias) < AliasMinLength || len(alias) > AliasMaxLength {
		return false
	}
	return aliasPattern.MatchString(alias)
}

// FragmentInstance is one placed unit of content inside a session.
type FragmentInstance struct {
	// InstanceID is unique within the session.
	InstanceID string

	// FragmentID references a FragmentType of the session's template.
	FragmentID string

	// Params is the validated parameter map.
	Params map[string]any

	// Seq is the insertion sequence number. It is never reused or renumbered.
	Seq int64

	// CreatedAt is when the instance was added.
	CreatedAt time.Time
}

// Session is an in-progress document: global parameters plus ordered fragment instances.
type Session struct {
	// ID is the immutable primary key (UUID).
	ID string

	// Alias is the human-chosen secondary key, unique within Group.
	Alias string

	// TemplateID names the session's template.
	TemplateID string

	// Group is the owning tenant. Set once at creation.
	Group string

	// Globals is the validated global parameter map.
	Globals map[string]any

	// Fragments is ordered by Seq.
	Fragments []FragmentInstance

	// NextSeq is the sequence number the next fragment receives.
	NextSeq int64

	// Status is the lifecycle state.
	Status SessionStatus

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// UpdatedAt is when the session was last mutated.
	UpdatedAt time.Time

	// Version increments on every persisted write. A new session has version 1.
	Version int64
}

// Clone returns a deep copy safe to mutate independently.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Globals = CloneParams(s.Globals)
	cp.Fragments = make([]FragmentInstance, len(s.Fragments))
	for i, f := range s.Fragments {
		f.Params = CloneParams(f.Params)
		cp.Fragments[i] = f
	}
	return &cp
}

// Fragment returns the instance with the given id.
func (s *Session) Fragment(instanceID string) (FragmentInstance, bool) {
	for _, f := range s.Fragments {
		if f.InstanceID == instanceID {
			return f, true
		}
	}
	return FragmentInstance{}, false
}

// SortFragments orders the fragment list by sequence number.
func (s *Session) SortFragments() {
	sort.SliceStable(s.Fragments, func(i, j int) bool {
		return s.Fragments[i].Seq < s.Fragments[j].Seq
	})
}

// Consistent reports whether the fragment list agrees with NextSeq:
// sequence numbers are unique, increasing and below NextSeq.
func (s *Session) Consistent() bool {
	var last int64 = -1
	seen := make(map[string]bool, len(s.Fragments))
	for _, f := range s.Fragments {
		if f.Seq <= last || f.Seq >= s.NextSeq || seen[f.InstanceID] {
			return false
		}
		seen[f.InstanceID] = true
		last = f.Seq
	}
	return true
}

// SessionReport summarises a session for the status operation.
type SessionReport struct {
	SessionID      string
	Alias          string
	TemplateID     string
	Status         SessionStatus
	GlobalsSet     bool
	MissingGlobals []string
	FragmentCount  int
	Ready          bool
}

// Report computes the status summary of s against its template.
// A session is ready when every required global has a value and the
// template's fragment rules are met.
func (s *Session) Report(t *Template) SessionReport {
	r := SessionReport{
		SessionID:     s.ID,
		Alias:         s.Alias,
		TemplateID:    s.TemplateID,
		Status:        s.Status,
		GlobalsSet:    len(s.Globals) > 0,
		FragmentCount: len(s.Fragments),
	}
	if t == nil {
		return r
	}

	for _, name := range t.GlobalSchema.RequiredNames() {
		if v, ok := s.Globals[name]; !ok || v == nil || v == "" {
			r.MissingGlobals = append(r.MissingGlobals, name)
		}
	}

	fragmentsOK := len(s.Fragments) >= t.MinFragments
	for _, id := range t.RequiredFragments {
		found := false
		for _, f := range s.Fragments {
			if f.FragmentID == id {
				found = true
				break
			}
		}
		if !found {
			fragmentsOK = false
		}
	}

	r.Ready = s.Status == SessionActive && len(r.MissingGlobals) == 0 && fragmentsOK
	return r
}

// CloneParams deep-copies a parameter map built from JSON-like values.
func CloneParams(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies one JSON-like parameter value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneParams(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case [][]string:
		out := make([][]string, len(t))
		for i, row := range t {
			out[i] = append([]string(nil), row...)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	default:
		return v
	}
}
