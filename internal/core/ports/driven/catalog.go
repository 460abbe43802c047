package driven

import (
	"context"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

// FragmentCatalog resolves templates and fragment renderers.
// Implementations are read-only once loaded and safe for concurrent use.
type FragmentCatalog interface {
	// Template returns the template with the given ID.
	// Returns domain.ErrNotFound if it does not exist.
	Template(ctx context.Context, templateID string) (*domain.Template, error)

	// Templates returns the templates visible to group, ordered by ID.
	Templates(ctx context.Context, group string) ([]domain.Template, error)

	// Renderer returns the render function of a fragment type.
	// Returns domain.ErrNotFound if the template does not declare the fragment.
	Renderer(ctx context.Context, templateID, fragmentID string) (FragmentRenderer, error)
}

// PinnableCatalog is a FragmentCatalog whose definitions can be reloaded.
// Pin returns a view fixed to the definitions current at the call, so one
// render sees one consistent set of templates and renderers.
type PinnableCatalog interface {
	FragmentCatalog
	Pin() FragmentCatalog
}

// FragmentInput is what a fragment renderer receives.
type FragmentInput struct {
	// InstanceID identifies the instance being rendered.
	InstanceID string

	// FragmentID is the declared fragment type.
	FragmentID string

	// Seq is the instance's insertion sequence number.
	Seq int64

	// Params is the validated parameter map.
	Params map[string]any

	// Globals is the session's global parameter map.
	Globals map[string]any

	// Style is the resolved style block. Never nil.
	Style *domain.Style
}

// FragmentRenderer produces canonical markup for one fragment instance.
type FragmentRenderer interface {
	// Kind returns the renderer kind (e.g. "table").
	Kind() string

	// Render returns the canonical markup of the instance.
	Render(ctx context.Context, in FragmentInput) (string, error)
}

// StyleResolver resolves style IDs to style blocks.
type StyleResolver interface {
	// Style returns the style with the given ID.
	// Returns domain.ErrNotFound if it does not exist.
	Style(ctx context.Context, styleID string) (*domain.Style, error)

	// Styles returns the styles visible to group, ordered by ID.
	Styles(ctx context.Context, group string) ([]domain.Style, error)
}

// ParamChecker is implemented by renderers whose parameters carry
// cross-field rules a schema cannot express (e.g. a table column
// reference naming a header cell). It runs after schema validation.
type ParamChecker interface {
	Check(params map[string]any) []domain.FieldError
}
