package fragments

import (
	"html"
	"strconv"
	"strings"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

type decl struct {
	prop  string
	value string
}

func inline(decls ...decl) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		if d.value == "" {
			continue
		}
		parts = append(parts, d.prop+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// styleAttr returns ` style="..."`, or nothing for an empty declaration list.
func styleAttr(css string) string {
	if css == "" {
		return ""
	}
	return ` style="` + html.EscapeString(css) + `"`
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func border(s *domain.Style) string {
	if s.BorderWidth <= 0 || s.BorderColor == "" {
		return ""
	}
	return trimFloat(s.BorderWidth) + "px solid " + s.BorderColor
}

func fontSize(s *domain.Style) string {
	if s.FontSize <= 0 {
		return ""
	}
	return trimFloat(s.FontSize) + "pt"
}

// BodyCSS returns the inline declarations of the document body.
func BodyCSS(s *domain.Style) string {
	return inline(
		decl{"font-family", s.FontFamily},
		decl{"font-size", fontSize(s)},
		decl{"color", s.TextColor},
	)
}

// HeadingCSS returns the inline declarations of headings.
func HeadingCSS(s *domain.Style) string {
	return inline(decl{"color", s.HeadingColor})
}

// TextCSS returns the inline declarations of body text blocks.
func TextCSS(s *domain.Style) string {
	return inline(decl{"color", s.TextColor})
}

// TableCSS returns the inline declarations of a table element.
func TableCSS(s *domain.Style) string {
	return inline(
		decl{"border-collapse", "collapse"},
		decl{"border", border(s)},
	)
}

// HeaderCellCSS returns the inline declarations of a header cell.
func HeaderCellCSS(s *domain.Style, align string) string {
	return inline(
		decl{"background-color", s.HeaderBackground},
		decl{"color", s.HeaderForeground},
		decl{"border", border(s)},
		decl{"text-align", align},
		decl{"font-weight", "bold"},
	)
}

// CellCSS returns the inline declarations of a body cell.
func CellCSS(s *domain.Style, align string, stripe bool) string {
	bg := ""
	if stripe {
		bg = s.StripeBackground
	}
	return inline(
		decl{"background-color", bg},
		decl{"border", border(s)},
		decl{"text-align", align},
	)
}

// CaptionCSS returns the inline declarations of captions.
func CaptionCSS(s *domain.Style) string {
	return inline(
		decl{"color", s.AccentColor},
		decl{"text-align", "left"},
	)
}

// TermCSS returns the inline declarations of key-value keys.
func TermCSS(s *domain.Style) string {
	return inline(
		decl{"color", s.TextColor},
		decl{"font-weight", "bold"},
	)
}

// Stylesheet returns the document-level style element body for s.
func Stylesheet(s *domain.Style) string {
	var b strings.Builder
	rule := func(selector, css string) {
		if css == "" {
			return
		}
		b.WriteString(selector)
		b.WriteString(" { ")
		b.WriteString(css)
		b.WriteString("; }\n")
	}
	rule("body", BodyCSS(s))
	rule("h1, h2, h3, h4", HeadingCSS(s))
	rule("table", TableCSS(s))
	rule("th", inline(decl{"background-color", s.HeaderBackground}, decl{"color", s.HeaderForeground}))
	rule("caption, figcaption", inline(decl{"color", s.AccentColor}))
	rule("section.fragment", "margin-bottom: 1em")
	return b.String()
}
