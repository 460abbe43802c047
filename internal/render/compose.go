package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/render/fragments"
)

// defaultSkeleton is used by templates that declare no skeleton.
const defaultSkeleton = `{{with .Globals.title}}<h1>{{.}}</h1>
{{end}}{{.Fragments}}`

var documentTmpl = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="generator" content="docforge">
<meta name="docforge-template" content="{{.TemplateID}}">
<meta name="docforge-style" content="{{.StyleID}}">
<title>{{.Title}}</title>
<style>
{{.Stylesheet}}</style>
</head>
<body{{if .BodyCSS}} style="{{.BodyCSS}}"{{end}}>
{{.Body}}
</body>
</html>
`))

// skeletonData is what a template skeleton is executed against.
type skeletonData struct {
	Globals   map[string]any
	Fragments template.HTML
	Sections  []template.HTML
	Style     *domain.Style
	Title     string
}

type documentData struct {
	TemplateID string
	StyleID    string
	Title      string
	Stylesheet template.CSS
	BodyCSS    template.CSS
	Body       template.HTML
}

// Compose renders every fragment in sequence order and composes the
// canonical HTML document. Fragment and style markup is trusted: renderers
// escape their own content and styles come from the catalog. Any fragment failure fails the whole document
// with FRAGMENT_RENDER_FAILED naming the instance.
func Compose(ctx context.Context, catalog driven.FragmentCatalog, s *domain.Session, t *domain.Template, style *domain.Style) ([]byte, error) {
	snapshot := s.Clone()
	snapshot.SortFragments()

	sections := make([]template.HTML, 0, len(snapshot.Fragments))
	for _, inst := range snapshot.Fragments {
		markup, err := renderFragment(ctx, catalog, snapshot, t.ID, inst, style)
		if err != nil {
			return nil, domain.ErrFragmentRender.WithInstance(inst.InstanceID, err)
		}
		sections = append(sections, template.HTML(fmt.Sprintf(
			"<section class=\"fragment\" data-fragment=\"%s\" data-instance=\"%s\">\n%s\n</section>",
			template.HTMLEscapeString(inst.FragmentID), template.HTMLEscapeString(inst.InstanceID), markup)))
	}

	title := t.Title
	if v, ok := snapshot.Globals["title"].(string); ok && v != "" {
		title = v
	}

	skeleton := t.Skeleton
	if strings.TrimSpace(skeleton) == "" {
		skeleton = defaultSkeleton
	}
	tmpl, err := template.New(t.ID).Parse(skeleton)
	if err != nil {
		return nil, domain.ErrFragmentRender.With("template skeleton is invalid", err)
	}

	joined := make([]string, len(sections))
	for i, sec := range sections {
		joined[i] = string(sec)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, skeletonData{
		Globals:   snapshot.Globals,
		Fragments: template.HTML(strings.Join(joined, "\n")),
		Sections:  sections,
		Style:     style,
		Title:     title,
	}); err != nil {
		return nil, domain.ErrFragmentRender.With("template skeleton failed", err)
	}

	var doc bytes.Buffer
	if err := documentTmpl.Execute(&doc, documentData{
		TemplateID: t.ID,
		StyleID:    style.ID,
		Title:      title,
		Stylesheet: template.CSS(fragments.Stylesheet(style)),
		BodyCSS:    template.CSS(fragments.BodyCSS(style)),
		Body:       template.HTML(strings.TrimSpace(body.String())),
	}); err != nil {
		return nil, domain.ErrFragmentRender.With("document assembly failed", err)
	}
	return doc.Bytes(), nil
}

// renderFragment runs one renderer, turning a panic into an error so a bad
// fragment fails loudly instead of taking the process down.
func renderFragment(ctx context.Context, catalog driven.FragmentCatalog, s *domain.Session, templateID string,
	inst domain.FragmentInstance, style *domain.Style) (markup string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("renderer panicked: %v", r)
		}
	}()

	renderer, err := catalog.Renderer(ctx, templateID, inst.FragmentID)
	if err != nil {
		return "", err
	}
	return renderer.Render(ctx, driven.FragmentInput{
		InstanceID: inst.InstanceID,
		FragmentID: inst.FragmentID,
		Seq:        inst.Seq,
		Params:     inst.Params,
		Globals:    s.Globals,
		Style:      style,
	})
}
