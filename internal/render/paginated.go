package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

const (
	pageMargin      = 15.0
	defaultFontSize = 10.0
	ptToMM          = 0.3528
	pxToMM          = 0.2646
	lineSpacing     = 1.4
)

// PageOptions controls paginated output.
type PageOptions struct {
	// Date pins the document's creation and modification dates so output is reproducible.
	Date time.Time

	// Compress enables stream compression.
	Compress bool
}

// ToPaginated derives a PDF from canonical markup, reproducing layout,
// colours, alignment and borders from the inline styles.
func ToPaginated(canonical []byte, opts PageOptions) ([]byte, error) {
	doc, err := parseCanonical(canonical)
	if err != nil {
		return nil, err
	}

	w := newPDFWriter(doc, opts)
	for _, b := range doc.blocks {
		w.block(b)
		if w.pdf.Err() {
			break
		}
	}
	if w.pdf.Err() {
		return nil, fmt.Errorf("writing pdf: %w", w.pdf.Error())
	}

	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type rgb struct {
	r, g, b int
}

type pdfWriter struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	family string
	size   float64
	text   rgb
	images int
}

func newPDFWriter(doc *document, opts PageOptions) *pdfWriter {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCompression(opts.Compress)
	pdf.SetCreationDate(opts.Date)
	pdf.SetModificationDate(opts.Date)
	pdf.SetCreator("docforge", false)
	pdf.SetTitle(doc.title, true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	body := doc.bodyStyle.filter(domain.FormatPaginated)
	w := &pdfWriter{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		family: pdfFamily(body["font-family"]),
		size:   defaultFontSize,
		text:   rgb{},
	}
	if size, ok := parseLength(body["font-size"]); ok && size > 0 {
		w.size = size
	}
	if c, ok := parseColor(body["color"]); ok {
		w.text = c
	}
	return w
}

func (w *pdfWriter) lineHeight(size float64) float64 {
	return size * ptToMM * lineSpacing
}

func (w *pdfWriter) setText(style styleDecls) {
	c := w.text
	if v, ok := parseColor(style["color"]); ok {
		c = v
	}
	w.pdf.SetTextColor(c.r, c.g, c.b)
}

func (w *pdfWriter) block(b block) {
	style := b.style.filter(domain.FormatPaginated)
	switch b.kind {
	case blockHeading:
		size := w.size + headingBoost(b.level)
		w.pdf.SetFont(w.family, "B", size)
		w.setText(style)
		w.pdf.MultiCell(0, w.lineHeight(size), w.tr(b.text), "", "L", false)
		w.pdf.Ln(2)
	case blockParagraph:
		w.pdf.SetFont(w.family, weight(style), w.size)
		w.setText(style)
		w.pdf.MultiCell(0, w.lineHeight(w.size), w.tr(b.text), "", alignCode(style["text-align"]), false)
		w.pdf.Ln(2)
	case blockList:
		w.pdf.SetFont(w.family, "", w.size)
		w.setText(style)
		left, _, _, _ := w.pdf.GetMargins()
		for i, item := range b.items {
			prefix := "- "
			if b.ordered {
				prefix = strconv.Itoa(i+1) + ". "
			}
			w.pdf.SetX(left + 4)
			w.pdf.MultiCell(0, w.lineHeight(w.size), w.tr(prefix+item), "", "L", false)
		}
		w.pdf.Ln(2)
	case blockTable:
		w.table(b.table)
	case blockImage:
		w.image(b.image)
	case blockTerms:
		w.terms(b.terms)
	}
}

func (w *pdfWriter) table(t *tableBlock) {
	cols := t.columns()
	if cols == 0 {
		return
	}
	left, _, right, bottom := w.pdf.GetMargins()
	pageW, pageH := w.pdf.GetPageSize()
	colW := (pageW - left - right) / float64(cols)
	rowH := w.lineHeight(w.size) + 1.5

	if t.caption != "" {
		w.pdf.SetFont(w.family, "I", w.size)
		w.setText(t.captionStyle.filter(domain.FormatPaginated))
		w.pdf.CellFormat(0, rowH, w.tr(t.caption), "", 1, "L", false, 0, "")
	}

	row := func(cells []cell) {
		if w.pdf.GetY()+rowH > pageH-bottom {
			w.pdf.AddPage()
		}
		for i := 0; i < cols; i++ {
			c := cell{style: styleDecls{}}
			if i < len(cells) {
				c = cells[i]
			}
			st := c.style.filter(domain.FormatPaginated)

			w.pdf.SetFont(w.family, weight(st), w.size)
			w.setText(st)
			fill := false
			if bg, ok := parseColor(st["background-color"]); ok {
				w.pdf.SetFillColor(bg.r, bg.g, bg.b)
				fill = true
			}
			borderStr := ""
			if width, color, ok := parseBorder(st["border"]); ok {
				w.pdf.SetLineWidth(width * pxToMM)
				w.pdf.SetDrawColor(color.r, color.g, color.b)
				borderStr = "1"
			}
			text := w.fit(w.tr(c.text), colW-2)
			w.pdf.CellFormat(colW, rowH, text, borderStr, 0, alignCode(st["text-align"]), fill, 0, "")
		}
		w.pdf.Ln(rowH)
	}

	if t.header != nil {
		row(t.header)
	}
	for _, r := range t.rows {
		row(r)
	}
	w.pdf.Ln(3)
}

// fit truncates s to width, marking the cut.
func (w *pdfWriter) fit(s string, width float64) string {
	if w.pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && w.pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func (w *pdfWriter) image(img *imageBlock) {
	data, kind, ok := decodeImage(img.src)
	if !ok {
		w.pdf.SetFont(w.family, "I", w.size)
		w.setText(styleDecls{})
		label := "[image"
		if img.alt != "" {
			label += ": " + img.alt
		}
		label += "] " + img.src
		w.pdf.MultiCell(0, w.lineHeight(w.size), w.tr(label), "", "L", false)
	} else {
		w.images++
		name := fmt.Sprintf("image-%d", w.images)
		opts := fpdf.ImageOptions{ImageType: kind}
		info := w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		if info == nil || w.pdf.Err() {
			return
		}

		left, _, right, _ := w.pdf.GetMargins()
		pageW, _ := w.pdf.GetPageSize()
		width := info.Width()
		if img.width > 0 {
			width = float64(img.width) * pxToMM
		}
		if maxW := pageW - left - right; width > maxW {
			width = maxW
		}
		w.pdf.ImageOptions(name, left, -1, width, 0, true, opts, 0, "")
	}

	if img.caption != "" {
		w.pdf.SetFont(w.family, "I", w.size-1)
		w.setText(img.captionStyle.filter(domain.FormatPaginated))
		w.pdf.MultiCell(0, w.lineHeight(w.size-1), w.tr(img.caption), "", "L", false)
	}
	w.pdf.Ln(2)
}

func (w *pdfWriter) terms(terms []term) {
	lh := w.lineHeight(w.size)
	for _, t := range terms {
		key := w.tr(t.key + ": ")
		ks := t.keyStyle.filter(domain.FormatPaginated)
		w.pdf.SetFont(w.family, weight(ks), w.size)
		w.setText(ks)
		w.pdf.CellFormat(w.pdf.GetStringWidth(key)+1, lh, key, "", 0, "L", false, 0, "")

		vs := t.valueStyle.filter(domain.FormatPaginated)
		w.pdf.SetFont(w.family, weight(vs), w.size)
		w.setText(vs)
		w.pdf.MultiCell(0, lh, w.tr(t.value), "", "L", false)
	}
	w.pdf.Ln(2)
}

// decodeImage extracts an embedded image fpdf can place.
func decodeImage(src string) ([]byte, string, bool) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, "", false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", false
	}
	mediaType, _, err := mime.ParseMediaType(strings.TrimSuffix(meta, ";base64"))
	if err != nil {
		return nil, "", false
	}

	var kind string
	switch mediaType {
	case "image/png":
		kind = "PNG"
	case "image/jpeg", "image/jpg":
		kind = "JPG"
	case "image/gif":
		kind = "GIF"
	default:
		return nil, "", false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}
	return data, kind, true
}

func headingBoost(level int) float64 {
	switch level {
	case 1:
		return 8
	case 2:
		return 5
	case 3:
		return 3
	default:
		return 1
	}
}

func weight(style styleDecls) string {
	switch style["font-weight"] {
	case "bold", "700", "800", "900":
		return "B"
	default:
		return ""
	}
}

func alignCode(align string) string {
	switch align {
	case "center":
		return "C"
	case "right":
		return "R"
	default:
		return "L"
	}
}

// pdfFamily maps a CSS font-family list onto a PDF core font.
func pdfFamily(css string) string {
	f := strings.ToLower(css)
	switch {
	case strings.Contains(f, "courier"), strings.Contains(f, "mono"):
		return "Courier"
	case strings.Contains(f, "times"), strings.Contains(f, "georgia"),
		strings.Contains(f, "serif") && !strings.Contains(f, "sans"):
		return "Times"
	default:
		return "Helvetica"
	}
}

// parseColor reads #rgb or #rrggbb.
func parseColor(s string) (rgb, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}, true
}

// parseLength reads a CSS length such as "10pt" or "1px" as a bare number.
func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	for _, unit := range []string{"pt", "px"} {
		s = strings.TrimSuffix(s, unit)
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// parseBorder reads "<width>px solid <color>".
func parseBorder(s string) (float64, rgb, bool) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return 0, rgb{}, false
	}
	width, ok := parseLength(parts[0])
	if !ok || width <= 0 {
		return 0, rgb{}, false
	}
	color, ok := parseColor(parts[2])
	if !ok {
		return 0, rgb{}, false
	}
	return width, color, true
}
