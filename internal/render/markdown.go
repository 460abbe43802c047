package render

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

// ToMarkdown derives GitHub-flavoured Markdown from canonical markup.
// Colour, background, border and font directives are dropped; column
// alignment becomes pipe-table markers.
func ToMarkdown(canonical []byte) ([]byte, error) {
	doc, err := parseCanonical(canonical)
	if err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(doc.blocks))
	for _, b := range doc.blocks {
		if md := markdownBlock(b); md != "" {
			parts = append(parts, md)
		}
	}
	return []byte(strings.Join(parts, "\n\n") + "\n"), nil
}

func markdownBlock(b block) string {
	switch b.kind {
	case blockHeading:
		level := b.level
		if level < 1 {
			level = 1
		}
		return strings.Repeat("#", level) + " " + escapeHeading(b.text)
	case blockParagraph:
		return escapeBlock(b.text)
	case blockList:
		lines := make([]string, len(b.items))
		for i, item := range b.items {
			if b.ordered {
				lines[i] = strconv.Itoa(i+1) + ". " + escapeBlock(item)
			} else {
				lines[i] = "- " + escapeBlock(item)
			}
		}
		return strings.Join(lines, "\n")
	case blockTable:
		return markdownTable(b.table)
	case blockImage:
		md := "![" + escapeInline(b.image.alt) + "](" + destinationEscaper.Replace(b.image.src) + ")"
		if b.image.caption != "" {
			md += "\n\n" + escapeBlock(b.image.caption)
		}
		return md
	case blockTerms:
		lines := make([]string, len(b.terms))
		for i, t := range b.terms {
			key := escapeBlock(t.key) + ":"
			if markdownBold(t.keyStyle) {
				key = "**" + escapeInline(t.key) + ":**"
			}
			lines[i] = "- " + key + " " + escapeInline(t.value)
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

func markdownBold(style styleDecls) bool {
	w := style["font-weight"]
	return (w == "bold" || w == "700") && Downgrade(domain.FormatMarkdown, DirectiveFontWeight) == ActionMarker
}

func markdownTable(t *tableBlock) string {
	cols := t.columns()
	if cols == 0 {
		return ""
	}

	var b strings.Builder
	if t.caption != "" {
		b.WriteString(escapeBlock(t.caption))
		b.WriteString("\n\n")
	}

	header := make([]string, cols)
	for i := range header {
		if i < len(t.header) {
			header[i] = escapeCell(t.header[i].text)
		}
	}
	writeRow(&b, header)

	markers := make([]string, cols)
	for i := range markers {
		markers[i] = alignMarker(t.alignment(i))
	}
	writeRow(&b, markers)

	for _, r := range t.rows {
		row := make([]string, cols)
		for i := range row {
			if i < len(r) {
				row[i] = escapeCell(r[i].text)
			}
		}
		writeRow(&b, row)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// alignMarker returns the delimiter-row cell for an alignment.
func alignMarker(align string) string {
	if Downgrade(domain.FormatMarkdown, DirectiveAlign) != ActionMarker {
		return "---"
	}
	switch align {
	case "left":
		return ":---"
	case "center":
		return ":---:"
	case "right":
		return "---:"
	default:
		return "---"
	}
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

// inlineEscaper neutralises emphasis, code, link and raw HTML syntax.
var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"&", "&amp;",
	"<", "&lt;",
)

// destinationEscaper percent-encodes characters that would end a link destination.
var destinationEscaper = strings.NewReplacer(
	" ", "%20",
	"(", "%28",
	")", "%29",
	"<", "%3C",
	">", "%3E",
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

// escapeBlock escapes s for use at the start of a line, where a leading
// heading, quote, list or rule marker would otherwise change the block type.
func escapeBlock(s string) string {
	s = escapeInline(s)
	if s == "" {
		return s
	}
	switch s[0] {
	case '#', '>', '-', '+', '=', '~', '|':
		return `\` + s
	}
	digits := 0
	for digits < len(s) && digits < 10 && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits < len(s) && (s[digits] == '.' || s[digits] == ')') {
		return s[:digits] + `\` + s[digits:]
	}
	return s
}

// escapeHeading escapes heading text; a trailing '#' would be read as a
// closing sequence.
func escapeHeading(s string) string {
	s = escapeInline(s)
	if strings.HasSuffix(s, "#") {
		s = s[:len(s)-1] + `\#`
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(escapeInline(s), "|", `\|`)
}
