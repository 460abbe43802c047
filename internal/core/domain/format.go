package domain

import "strings"

// Format is an output format of the rendering pipeline.
type Format string

// Supported formats. Canonical markup is the source every other format is derived from.
const (
	FormatCanonical Format = "canonical"
	FormatPaginated Format = "paginated"
	FormatMarkdown  Format = "markdown"
)

// ParseFormat accepts a format name or one of its aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "canonical", "html":
		return FormatCanonical, nil
	case "paginated", "paginated-document", "pdf":
		return FormatPaginated, nil
	case "markdown", "plain-text-markup", "md":
		return FormatMarkdown, nil
	default:
		return "", ErrUnknownFormat.With("unknown format: "+s, nil)
	}
}

// Formats returns all supported formats.
func Formats() []Format {
	return []Format{FormatCanonical, FormatPaginated, FormatMarkdown}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCanonical:
		return "text/html; charset=utf-8"
	case FormatPaginated:
		return "application/pdf"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the conventional file extension, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCanonical:
		return ".html"
	case FormatPaginated:
		return ".pdf"
	case FormatMarkdown:
		return ".md"
	default:
		return ".bin"
	}
}

// Binary reports whether the format's bytes are not printable text.
func (f Format) Binary() bool {
	return f == FormatPaginated
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}
