package pdftable

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/normalizer"
)

type columnKind int

const (
	colDate columnKind = iota
	colValueDate
	colDescription
	colDebit
	colCredit
	colAmount
	colBalance
)

func (k columnKind) isAmount() bool {
	return k == colDebit || k == colCredit || k == colAmount
}

// column is the half-open x range [min, max) of one logical column.
type column struct {
	kind     columnKind
	min, max float64
}

// columns are sorted by min and cover the whole page width.
type columns []column

func (c columns) kindAt(x float64) columnKind {
	for _, col := range c {
		if x >= col.min && x < col.max {
			return col.kind
		}
	}
	return colDescription
}

func (c columns) has(kinds ...columnKind) bool {
	for _, col := range c {
		if slices.Contains(kinds, col.kind) {
			return true
		}
	}
	return false
}

type anchor struct {
	kind columnKind
	x    float64
}

// buildColumns turns label positions into contiguous ranges. Each column
// starts columnLeadPadding before its label and ends where the next begins;
// the outer columns extend to the page edges.
func buildColumns(anchors []anchor) columns {
	slices.SortFunc(anchors, func(a, b anchor) int { return cmp.Compare(a.x, b.x) })

	cols := make(columns, len(anchors))
	for i, a := range anchors {
		cols[i] = column{kind: a.kind, min: a.x - columnLeadPadding, max: math.Inf(1)}
		if i == 0 {
			cols[i].min = math.Inf(-1)
		}
		if i > 0 {
			cols[i-1].max = cols[i].min
		}
	}
	return cols
}

// labelKey folds a header word for lookup: "Libellé" and "LIBELLE:" match.
func labelKey(text string) string {
	key := strings.ToUpper(normalizer.FoldAccents(strings.TrimSpace(text)))
	return strings.Trim(key, ".:")
}

// findHeader locates the column-label row of a page. Labels may sit on
// slightly different baselines; every label within headerYTolerance of a
// candidate belongs to the same header. Each label word maps to a list of
// column kinds and takes the first one still free, left to right, so a
// repeated "DATA" yields the operation date and then the value date.
// It returns the columns and the y of the lowest label.
func findHeader(l layout, labels map[string][]columnKind) (columns, float64, bool) {
	var candidates []Item
	for _, it := range l.items {
		if _, ok := labels[labelKey(it.Text)]; ok {
			candidates = append(candidates, it)
		}
	}

	for _, c := range candidates {
		var group []Item
		for _, other := range candidates {
			if math.Abs(other.Y-c.Y) <= headerYTolerance {
				group = append(group, other)
			}
		}
		slices.SortFunc(group, func(a, b Item) int { return cmp.Compare(a.X, b.X) })

		taken := map[columnKind]bool{}
		var anchors []anchor
		bottom := c.Y
		for _, it := range group {
			for _, kind := range labels[labelKey(it.Text)] {
				if !taken[kind] {
					taken[kind] = true
					anchors = append(anchors, anchor{kind: kind, x: it.X})
					break
				}
			}
			bottom = math.Max(bottom, it.Y)
		}

		if taken[colDate] && taken[colDescription] && (taken[colDebit] || taken[colCredit] || taken[colAmount]) {
			return buildColumns(anchors), bottom, true
		}
	}
	return nil, 0, false
}
