package domain

// PublicGroup is the unscoped default tenant.
const PublicGroup = "public"

// FragmentType is one fragment declaration of a template.
type FragmentType struct {
	// ID is the fragment_id referenced by instances.
	ID string

	// Kind selects the renderer (e.g. "paragraph", "table").
	Kind string

	// Description is shown by listing surfaces.
	Description string

	// Schema is the parameter contract of the fragment.
	Schema Schema
}

// Template identifies a document type. Templates are immutable after load.
type Template struct {
	// ID is unique within Group.
	ID string

	// Group scopes visibility; PublicGroup is visible to every caller.
	Group string

	// Title is a human-readable name.
	Title string

	// GlobalSchema is the contract for session-wide parameters.
	GlobalSchema Schema

	// Fragments maps fragment_id to its declaration.
	Fragments map[string]FragmentType

	// Skeleton is the canonical-markup body the fragments are composed into.
	Skeleton string

	// MinFragments is the minimum fragment count for readiness.
	MinFragments int

	// RequiredFragments lists fragment_ids that need at least one instance for readiness.
	RequiredFragments []string
}

// VisibleTo reports whether the template may be used by group.
func (t *Template) VisibleTo(group string) bool {
	return t.Group == group || t.Group == PublicGroup || t.Group == ""
}

// FragmentType returns the declaration for fragmentID.
func (t *Template) FragmentType(fragmentID string) (FragmentType, bool) {
	ft, ok := t.Fragments[fragmentID]
	return ft, ok
}
