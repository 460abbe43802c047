package catalog

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/render/fragments"
)

// snapshot is one immutable generation of the catalog.
type snapshot struct {
	templates map[string]*domain.Template
	styles    map[string]*domain.Style
	renderers map[string]map[string]driven.FragmentRenderer // template -> fragment -> renderer
	sources   map[string]string                             // "template:id" or "style:id" -> file
}

func newSnapshot() *snapshot {
	return &snapshot{
		templates: make(map[string]*domain.Template),
		styles:    make(map[string]*domain.Style),
		renderers: make(map[string]map[string]driven.FragmentRenderer),
		sources:   make(map[string]string),
	}
}

// add merges one file's definitions. Redefining an ID is an error naming
// both files.
func (s *snapshot) add(source string, def fileDef) error {
	for _, td := range def.Templates {
		t, err := td.toDomain()
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		key := "template:" + t.ID
		if prev, dup := s.sources[key]; dup {
			return fmt.Errorf("%s: template %s already defined in %s", source, t.ID, prev)
		}
		s.sources[key] = source
		s.templates[t.ID] = t

		rs := make(map[string]driven.FragmentRenderer, len(t.Fragments))
		for id, ft := range t.Fragments {
			kind, _ := fragments.Lookup(ft.Kind)
			rs[id] = kind.Renderer
		}
		s.renderers[t.ID] = rs
	}

	for _, sd := range def.Styles {
		st, err := sd.toDomain()
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		key := "style:" + st.ID
		if prev, dup := s.sources[key]; dup {
			return fmt.Errorf("%s: style %s already defined in %s", source, st.ID, prev)
		}
		s.sources[key] = source
		s.styles[st.ID] = st
	}
	return nil
}

func (s *snapshot) visibleTemplates(group string) []domain.Template {
	out := make([]domain.Template, 0, len(s.templates))
	for _, t := range s.templates {
		if t.VisibleTo(group) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *snapshot) visibleStyles(group string) []domain.Style {
	out := make([]domain.Style, 0, len(s.styles))
	for _, st := range s.styles {
		if st.VisibleTo(group) {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *snapshot) template(templateID string) (*domain.Template, error) {
	t, ok := s.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", templateID, domain.ErrNotFound)
	}
	return t, nil
}

func (s *snapshot) renderer(templateID, fragmentID string) (driven.FragmentRenderer, error) {
	r, ok := s.renderers[templateID][fragmentID]
	if !ok {
		return nil, fmt.Errorf("fragment %s of template %s: %w", fragmentID, templateID, domain.ErrNotFound)
	}
	return r, nil
}

func (s *snapshot) style(styleID string) (*domain.Style, error) {
	st, ok := s.styles[styleID]
	if !ok {
		return nil, fmt.Errorf("style %s: %w", styleID, domain.ErrNotFound)
	}
	return st, nil
}
