// Package pdftable rebuilds statement tables from positioned PDF text.
//
// A PDF page is a bag of glyphs with absolute coordinates and no table
// structure. Extract turns the glyphs into word-level Items (y measured from
// the top of the page); the statement parsers then cluster items into rows,
// derive column ranges from the header labels and walk the rows of the
// transaction section.
package pdftable

import (
	"cmp"
	"slices"
	"strings"
)

// Geometry tolerances, in PDF user-space units.
const (
	// headerYTolerance groups column labels printed on a slightly uneven baseline.
	headerYTolerance = 10.0
	// rowYTolerance groups the cells of one physical table row.
	rowYTolerance = 8.0
	// columnLeadPadding widens each column to the left of its label so
	// right-aligned amounts starting before the label still land in it.
	columnLeadPadding = 20.0
	// wordGapRatio is the gap, relative to the font size, that separates two
	// glyph runs into different words.
	wordGapRatio = 0.3
	// baselineEpsilon is the vertical drift tolerated inside one word.
	baselineEpsilon = 1.0
)

// Item is one word of positioned text.
type Item struct {
	Text  string
	X     float64
	Y     float64
	Width float64
}

// Page holds the items of one page in extraction order.
type Page struct {
	Number int
	Items  []Item
}

// Document is an extracted PDF. Errors lists pages that could not be read;
// the remaining pages are still usable.
type Document struct {
	Pages  []Page
	Errors []string
}

// Text renders the document as lines of text, one per reconstructed row.
func (d *Document) Text() string {
	if d == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range d.Pages {
		l := newLayout(p.Items)
		for _, r := range l.rows {
			b.WriteString(l.text(r))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// span is a half-open index range into layout.items.
type span struct {
	start, end int
}

// layout is a page's items sorted into rows: top to bottom, and left to
// right inside each row. items is never modified after construction.
type layout struct {
	items []Item
	rows  []span
}

func newLayout(items []Item) layout {
	sorted := make([]Item, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Text) != "" {
			sorted = append(sorted, it)
		}
	}
	slices.SortStableFunc(sorted, func(a, b Item) int {
		return cmp.Compare(a.Y, b.Y)
	})

	var rows []span
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j].Y-sorted[i].Y <= rowYTolerance {
			j++
		}
		slices.SortStableFunc(sorted[i:j], func(a, b Item) int {
			return cmp.Compare(a.X, b.X)
		})
		rows = append(rows, span{start: i, end: j})
		i = j
	}
	return layout{items: sorted, rows: rows}
}

func (l layout) row(s span) []Item {
	return l.items[s.start:s.end]
}

func (l layout) text(s span) string {
	parts := make([]string, 0, s.end-s.start)
	for _, it := range l.row(s) {
		parts = append(parts, strings.TrimSpace(it.Text))
	}
	return strings.Join(parts, " ")
}

// top returns the smallest y of a row, its highest point on the page.
func (l layout) top(s span) float64 {
	y := l.items[s.start].Y
	for _, it := range l.row(s)[1:] {
		y = min(y, it.Y)
	}
	return y
}
