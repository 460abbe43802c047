package fragments

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/custodia-labs/docforge/internal/core/ports/driven"
)

// Paragraph renders body text. Blank lines split the text into paragraphs.
type Paragraph struct{}

// Kind implements driven.FragmentRenderer.
func (Paragraph) Kind() string { return KindParagraph }

// Render implements driven.FragmentRenderer.
func (Paragraph) Render(_ context.Context, in driven.FragmentInput) (string, error) {
	text := strings.ReplaceAll(stringParam(in.Params, "text"), "\r\n", "\n")
	attr := styleAttr(TextCSS(in.Style))

	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "<p%s>%s</p>", attr, html.EscapeString(para))
	}
	return b.String(), nil
}

// Heading renders a section heading.
type Heading struct{}

// Kind implements driven.FragmentRenderer.
func (Heading) Kind() string { return KindHeading }

// Render implements driven.FragmentRenderer.
func (Heading) Render(_ context.Context, in driven.FragmentInput) (string, error) {
	level := intParam(in.Params, "level", 2)
	if level < 1 || level > 4 {
		return "", fmt.Errorf("heading level %d out of range", level)
	}
	return fmt.Sprintf("<h%d%s>%s</h%d>", level, styleAttr(HeadingCSS(in.Style)),
		html.EscapeString(stringParam(in.Params, "text")), level), nil
}

// List renders a bulleted or numbered list.
type List struct{}

// Kind implements driven.FragmentRenderer.
func (List) Kind() string { return KindList }

// Render implements driven.FragmentRenderer.
func (List) Render(_ context.Context, in driven.FragmentInput) (string, error) {
	tag := "ul"
	if boolParam(in.Params, "ordered") {
		tag = "ol"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<%s%s>\n", tag, styleAttr(TextCSS(in.Style)))
	for _, item := range stringList(in.Params["items"]) {
		fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(item))
	}
	fmt.Fprintf(&b, "</%s>", tag)
	return b.String(), nil
}

// Image renders a figure around an embedded or linked image.
type Image struct{}

// Kind implements driven.FragmentRenderer.
func (Image) Kind() string { return KindImage }

// Render implements driven.FragmentRenderer.
func (Image) Render(_ context.Context, in driven.FragmentInput) (string, error) {
	src := stringParam(in.Params, "src")
	if src == "" {
		return "", fmt.Errorf("image has no source")
	}

	var b strings.Builder
	b.WriteString("<figure>\n")
	fmt.Fprintf(&b, `<img src="%s" alt="%s"`, html.EscapeString(src), html.EscapeString(stringParam(in.Params, "alt")))
	if w := intParam(in.Params, "width", 0); w > 0 {
		fmt.Fprintf(&b, ` width="%d"`, w)
	}
	b.WriteString(">\n")
	if caption := stringParam(in.Params, "caption"); caption != "" {
		fmt.Fprintf(&b, "<figcaption%s>%s</figcaption>\n", styleAttr(CaptionCSS(in.Style)), html.EscapeString(caption))
	}
	b.WriteString("</figure>")
	return b.String(), nil
}

// KeyValue renders labelled pairs as a description list.
type KeyValue struct{}

// Kind implements driven.FragmentRenderer.
func (KeyValue) Kind() string { return KindKeyValue }

// Render implements driven.FragmentRenderer.
func (KeyValue) Render(_ context.Context, in driven.FragmentInput) (string, error) {
	var b strings.Builder
	if title := stringParam(in.Params, "title"); title != "" {
		fmt.Fprintf(&b, "<h4%s>%s</h4>\n", styleAttr(HeadingCSS(in.Style)), html.EscapeString(title))
	}
	b.WriteString("<dl>\n")
	termAttr := styleAttr(TermCSS(in.Style))
	defAttr := styleAttr(TextCSS(in.Style))
	for _, pair := range objectList(in.Params["pairs"]) {
		fmt.Fprintf(&b, "<dt%s>%s</dt><dd%s>%s</dd>\n",
			termAttr, html.EscapeString(stringParam(pair, "key")),
			defAttr, html.EscapeString(stringParam(pair, "value")))
	}
	b.WriteString("</dl>")
	return b.String(), nil
}
