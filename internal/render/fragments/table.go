package fragments

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/numfmt"
)

// Table renders a data table. Rows are sorted by sort_by (stable, with the
// original row position as the final tie-break) and number formats are
// applied to the sorted cells before markup is written.
type Table struct{}

var _ driven.ParamChecker = Table{}

// Kind implements driven.FragmentRenderer.
func (Table) Kind() string { return KindTable }

type sortKey struct {
	col  int
	desc bool
}

type tableSpec struct {
	header  []string
	body    [][]string
	width   int
	formats map[int]numfmt.Spec
	align   map[int]string
	sorts   []sortKey
	caption string
	striped bool
}

// Check resolves every column reference against the rows.
func (Table) Check(params map[string]any) []domain.FieldError {
	_, errs := parseTable(params)
	return errs
}

func parseTable(params map[string]any) (*tableSpec, []domain.FieldError) {
	rows := stringMatrix(params["rows"])
	t := &tableSpec{
		formats: make(map[int]numfmt.Spec),
		align:   make(map[int]string),
		caption: stringParam(params, "caption"),
		striped: boolParam(params, "striped"),
	}
	var errs []domain.FieldError

	if boolParam(params, "has_header") && len(rows) > 0 {
		t.header, rows = rows[0], rows[1:]
	}
	t.width = len(t.header)
	for _, r := range rows {
		if len(r) > t.width {
			t.width = len(r)
		}
	}
	t.header = pad(t.header, t.width)
	t.body = make([][]string, len(rows))
	for i, r := range rows {
		t.body[i] = pad(r, t.width)
	}

	for _, e := range stringMap(params["number_format"]) {
		col, ok := t.column(e[0])
		if !ok {
			errs = append(errs, unknownColumn("number_format."+e[0], e[0]))
			continue
		}
		spec, err := numfmt.Parse(e[1])
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "number_format." + e[0], Message: err.Error()})
			continue
		}
		t.formats[col] = spec
	}

	for _, e := range stringMap(params["align"]) {
		col, ok := t.column(e[0])
		if !ok {
			errs = append(errs, unknownColumn("align."+e[0], e[0]))
			continue
		}
		t.align[col] = e[1]
	}

	for i, s := range objectList(params["sort_by"]) {
		ref := stringParam(s, "column")
		col, ok := t.column(ref)
		if !ok {
			errs = append(errs, unknownColumn(fmt.Sprintf("sort_by[%d].column", i), ref))
			continue
		}
		t.sorts = append(t.sorts, sortKey{col: col, desc: stringParam(s, "order") == "desc"})
	}
	return t, errs
}

func unknownColumn(path, ref string) domain.FieldError {
	return domain.FieldError{Field: path, Message: fmt.Sprintf("no column %q", ref)}
}

// column resolves a header name or a 0-based index. Header names win.
func (t *tableSpec) column(ref string) (int, bool) {
	for i, h := range t.header {
		if h != "" && h == ref {
			return i, true
		}
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 0 || n >= t.width {
		return 0, false
	}
	return n, true
}

func (t *tableSpec) alignment(col int) string {
	if a, ok := t.align[col]; ok {
		return a
	}
	if _, ok := t.formats[col]; ok {
		return "right"
	}
	return "left"
}

// sorted returns body rows in render order.
func (t *tableSpec) sorted() [][]string {
	order := make([]int, len(t.body))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := t.body[order[a]], t.body[order[b]]
		for _, k := range t.sorts {
			c := compareCells(ra[k.col], rb[k.col])
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return order[a] < order[b]
	})

	out := make([][]string, len(order))
	for i, idx := range order {
		out[i] = t.body[idx]
	}
	return out
}

// compareCells orders numbers numerically and before text; text compares bytewise.
func compareCells(a, b string) int {
	na, aok := numfmt.ParseNumber(a)
	nb, bok := numfmt.ParseNumber(b)
	switch {
	case aok && bok:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	case aok:
		return -1
	case bok:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func pad(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

// Render implements driven.FragmentRenderer.
func (Table) Render(_ context.Context, in driven.FragmentInput) (string, error) {
	t, errs := parseTable(in.Params)
	if len(errs) > 0 {
		msgs := make([]error, len(errs))
		for i, e := range errs {
			msgs[i] = fmt.Errorf("%s: %s", e.Field, e.Message)
		}
		return "", errors.Join(msgs...)
	}
	if t.width == 0 {
		return "", fmt.Errorf("table has no columns")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<table%s>\n", styleAttr(TableCSS(in.Style)))
	if t.caption != "" {
		fmt.Fprintf(&b, "<caption%s>%s</caption>\n", styleAttr(CaptionCSS(in.Style)), html.EscapeString(t.caption))
	}

	if boolParam(in.Params, "has_header") {
		b.WriteString("<thead>\n<tr>")
		for col, cell := range t.header {
			fmt.Fprintf(&b, "<th%s>%s</th>", styleAttr(HeaderCellCSS(in.Style, t.alignment(col))), html.EscapeString(cell))
		}
		b.WriteString("</tr>\n</thead>\n")
	}

	b.WriteString("<tbody>\n")
	for i, row := range t.sorted() {
		stripe := t.striped && i%2 == 1
		b.WriteString("<tr>")
		for col, cell := range row {
			if spec, ok := t.formats[col]; ok {
				cell, _ = spec.Format(cell)
			}
			fmt.Fprintf(&b, "<td%s>%s</td>", styleAttr(CellCSS(in.Style, t.alignment(col), stripe)), html.EscapeString(cell))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>")
	return b.String(), nil
}
