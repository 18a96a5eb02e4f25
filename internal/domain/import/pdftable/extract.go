package pdftable

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadablePDF is returned when the file cannot be opened or decrypted.
var ErrUnreadablePDF = errors.New("unreadable PDF")

// Extract reads every page of a PDF into word items. Encrypted files are
// retried once with password (which may be empty). A page that fails to
// decode is recorded in Document.Errors and skipped.
func Extract(data []byte, password string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: PDF library crashed: %v", ErrUnreadablePDF, r)
		}
	}()

	r, err := open(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%w: PDF has no pages", ErrUnreadablePDF)
	}

	doc = &Document{}
	for i := 1; i <= numPages; i++ {
		page, err := extractPage(r, i)
		if err != nil {
			doc.Errors = append(doc.Errors, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

func open(data []byte, password string) (*pdf.Reader, error) {
	ra := bytes.NewReader(data)
	size := int64(len(data))

	r, err := pdf.NewReader(ra, size)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pdf.ErrInvalidPassword) {
		return nil, err
	}

	tried := false
	return pdf.NewReaderEncrypted(ra, size, func() string {
		if tried {
			return ""
		}
		tried = true
		return password
	})
}

func extractPage(r *pdf.Reader, n int) (page Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("decode failed: %v", rec)
		}
	}()

	p := r.Page(n)
	if p.V.IsNull() {
		return Page{}, errors.New("page object missing")
	}

	content := p.Content()
	return Page{
		Number: n,
		Items:  mergeGlyphs(content.Text, pageHeight(p, content.Text)),
	}, nil
}

// pageHeight reads the MediaBox, inherited from the page tree when the page
// has none. Without a MediaBox the highest glyph stands in for the top edge.
func pageHeight(p pdf.Page, glyphs []pdf.Text) float64 {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		if box := v.Key("MediaBox"); box.Len() == 4 {
			return box.Index(3).Float64()
		}
	}
	top := 0.0
	for _, g := range glyphs {
		top = math.Max(top, g.Y+g.FontSize)
	}
	return top
}

// mergeGlyphs joins glyph runs into words in content-stream order and flips
// the y axis so it grows downward from the top of the page.
func mergeGlyphs(glyphs []pdf.Text, height float64) []Item {
	var items []Item
	var cur *Item
	var curBaseline, curEnd, curFont float64

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			items = append(items, *cur)
		}
		cur = nil
	}

	for _, g := range glyphs {
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			flush()
			continue
		}

		gap := math.Max(curFont, g.FontSize) * wordGapRatio
		if cur != nil &&
			math.Abs(g.Y-curBaseline) <= baselineEpsilon &&
			g.X >= curEnd-baselineEpsilon &&
			g.X-curEnd <= gap {
			cur.Text += g.S
			curEnd = g.X + g.W
			cur.Width = curEnd - cur.X
			continue
		}

		flush()
		cur = &Item{Text: g.S, X: g.X, Y: height - g.Y, Width: g.W}
		curBaseline, curEnd, curFont = g.Y, g.X+g.W, g.FontSize
	}
	flush()
	return items
}
