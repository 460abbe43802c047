package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type blockKind int

const (
	blockHeading blockKind = iota
	blockParagraph
	blockList
	blockTable
	blockImage
	blockTerms
)

// block is one top-level unit of a parsed canonical document.
type block struct {
	kind    blockKind
	level   int
	text    string
	style   styleDecls
	ordered bool
	items   []string
	table   *tableBlock
	image   *imageBlock
	terms   []term
}

type cell struct {
	text  string
	style styleDecls
}

type tableBlock struct {
	style        styleDecls
	caption      string
	captionStyle styleDecls
	header       []cell
	rows         [][]cell
}

// columns returns the widest row length.
func (t *tableBlock) columns() int {
	n := len(t.header)
	for _, r := range t.rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// alignment returns the text-align of a column, read from the header cell
// or else the first body row. Empty means unspecified.
func (t *tableBlock) alignment(col int) string {
	if col < len(t.header) {
		if a := t.header[col].style["text-align"]; a != "" {
			return a
		}
	}
	if len(t.rows) > 0 && col < len(t.rows[0]) {
		return t.rows[0][col].style["text-align"]
	}
	return ""
}

type imageBlock struct {
	src          string
	alt          string
	width        int
	caption      string
	captionStyle styleDecls
}

type term struct {
	key        string
	keyStyle   styleDecls
	value      string
	valueStyle styleDecls
}

// document is a parsed canonical document.
type document struct {
	title     string
	bodyStyle styleDecls
	blocks    []block
}

// parseCanonical reads the canonical HTML back into blocks.
func parseCanonical(data []byte) (*document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing canonical markup: %w", err)
	}
	doc := &document{bodyStyle: styleDecls{}}
	doc.walk(root)
	return doc, nil
}

func (d *document) walk(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if text := collapse(c.Data); text != "" {
				d.blocks = append(d.blocks, block{kind: blockParagraph, text: text, style: styleDecls{}})
			}
			continue
		case html.ElementNode, html.DocumentNode:
		default:
			continue
		}

		switch c.DataAtom {
		case atom.Head:
			if t := find(c, atom.Title); t != nil {
				d.title = textContent(t)
			}
		case atom.Body:
			d.bodyStyle = styleOf(c)
			d.walk(c)
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level, _ := strconv.Atoi(c.Data[1:])
			d.blocks = append(d.blocks, block{kind: blockHeading, level: level, text: textContent(c), style: styleOf(c)})
		case atom.P:
			d.blocks = append(d.blocks, block{kind: blockParagraph, text: textContent(c), style: styleOf(c)})
		case atom.Ul, atom.Ol:
			b := block{kind: blockList, ordered: c.DataAtom == atom.Ol, style: styleOf(c)}
			for li := c.FirstChild; li != nil; li = li.NextSibling {
				if li.Type == html.ElementNode && li.DataAtom == atom.Li {
					b.items = append(b.items, textContent(li))
				}
			}
			d.blocks = append(d.blocks, b)
		case atom.Table:
			d.blocks = append(d.blocks, block{kind: blockTable, table: parseTable(c)})
		case atom.Figure, atom.Img:
			if img := parseImage(c); img != nil {
				d.blocks = append(d.blocks, block{kind: blockImage, image: img})
			}
		case atom.Dl:
			d.blocks = append(d.blocks, block{kind: blockTerms, terms: parseTerms(c)})
		case atom.Style, atom.Script:
		default:
			d.walk(c)
		}
	}
}

func parseTable(n *html.Node) *tableBlock {
	t := &tableBlock{style: styleOf(n)}
	var visit func(*html.Node, bool)
	visit = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Caption:
				t.caption = textContent(c)
				t.captionStyle = styleOf(c)
			case atom.Thead:
				visit(c, true)
			case atom.Tbody, atom.Tfoot:
				visit(c, false)
			case atom.Tr:
				var row []cell
				for td := c.FirstChild; td != nil; td = td.NextSibling {
					if td.Type == html.ElementNode && (td.DataAtom == atom.Td || td.DataAtom == atom.Th) {
						row = append(row, cell{text: textContent(td), style: styleOf(td)})
					}
				}
				if inHead && t.header == nil {
					t.header = row
				} else {
					t.rows = append(t.rows, row)
				}
			}
		}
	}
	visit(n, false)
	return t
}

func parseImage(n *html.Node) *imageBlock {
	imgNode := n
	if n.DataAtom != atom.Img {
		imgNode = find(n, atom.Img)
	}
	if imgNode == nil {
		return nil
	}
	img := &imageBlock{src: attr(imgNode, "src"), alt: attr(imgNode, "alt")}
	img.width, _ = strconv.Atoi(attr(imgNode, "width"))
	if fc := find(n, atom.Figcaption); fc != nil {
		img.caption = textContent(fc)
		img.captionStyle = styleOf(fc)
	}
	return img
}

func parseTerms(n *html.Node) []term {
	var terms []term
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Dt:
			terms = append(terms, term{key: textContent(c), keyStyle: styleOf(c), valueStyle: styleDecls{}})
		case atom.Dd:
			if len(terms) == 0 {
				terms = append(terms, term{keyStyle: styleDecls{}})
			}
			last := &terms[len(terms)-1]
			last.value = textContent(c)
			last.valueStyle = styleOf(c)
		}
	}
	return terms
}

func find(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if f := find(c, a); f != nil {
			return f
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func styleOf(n *html.Node) styleDecls {
	return parseStyle(attr(n, "style"))
}

// textContent concatenates the text below n with whitespace collapsed.
func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return collapse(b.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
