package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"sync/atomic"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/logger"
)

// Ensure Catalog implements the interfaces.
var (
	_ driven.PinnableCatalog = (*Catalog)(nil)
	_ driven.StyleResolver   = (*Catalog)(nil)
	_ driven.FragmentCatalog = pinned{}
)

//go:embed builtin.yaml
var builtinYAML []byte

const builtinSource = "builtin.yaml"

// Catalog serves templates, renderers and styles from the current snapshot.
type Catalog struct {
	dir     string
	current atomic.Pointer[snapshot]
}

// New loads the built-in catalog plus the files in dir. An empty dir
// serves the built-in catalog only.
func New(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Builtin returns a catalog holding only the built-in definitions.
func Builtin() *Catalog {
	c, err := New("")
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in definitions are invalid: %v", err))
	}
	return c
}

// Dir returns the directory the catalog loads from.
func (c *Catalog) Dir() string {
	return c.dir
}

// Reload builds a new snapshot and swaps it in. On error the previous
// snapshot stays in place.
func (c *Catalog) Reload() error {
	snap, err := c.build()
	if err != nil {
		return err
	}
	c.current.Store(snap)
	logger.Debug("catalog: %d templates, %d styles", len(snap.templates), len(snap.styles))
	return nil
}

func (c *Catalog) build() (*snapshot, error) {
	snap := newSnapshot()

	builtin, err := parseYAML(builtinYAML)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", builtinSource, err)
	}
	if err := snap.add(builtinSource, builtin); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	if c.dir == "" {
		return snap, nil
	}
	defs, err := loadDir(c.dir)
	if err != nil {
		return nil, err
	}
	for _, nd := range defs {
		if err := snap.add(nd.source, nd.def); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}
	return snap, nil
}

func (c *Catalog) snap() *snapshot {
	return c.current.Load()
}

// Template returns the template with the given ID.
func (c *Catalog) Template(_ context.Context, templateID string) (*domain.Template, error) {
	return c.snap().template(templateID)
}

// Templates returns the templates visible to group, ordered by ID.
func (c *Catalog) Templates(_ context.Context, group string) ([]domain.Template, error) {
	return c.snap().visibleTemplates(group), nil
}

// Renderer returns the renderer of a fragment type declared by a template.
func (c *Catalog) Renderer(_ context.Context, templateID, fragmentID string) (driven.FragmentRenderer, error) {
	return c.snap().renderer(templateID, fragmentID)
}

// Style returns the style with the given ID.
func (c *Catalog) Style(_ context.Context, styleID string) (*domain.Style, error) {
	return c.snap().style(styleID)
}

// Styles returns the styles visible to group, ordered by ID.
func (c *Catalog) Styles(_ context.Context, group string) ([]domain.Style, error) {
	return c.snap().visibleStyles(group), nil
}

// Pin returns a read-only view of the current definitions. Later reloads
// do not affect it.
func (c *Catalog) Pin() driven.FragmentCatalog {
	return pinned{snap: c.snap()}
}

// pinned serves one snapshot for its whole lifetime.
type pinned struct {
	snap *snapshot
}

func (p pinned) Template(_ context.Context, templateID string) (*domain.Template, error) {
	return p.snap.template(templateID)
}

func (p pinned) Templates(_ context.Context, group string) ([]domain.Template, error) {
	return p.snap.visibleTemplates(group), nil
}

func (p pinned) Renderer(_ context.Context, templateID, fragmentID string) (driven.FragmentRenderer, error) {
	return p.snap.renderer(templateID, fragmentID)
}
