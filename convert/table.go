package convert

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// textToken is one positioned text fragment from a PDF page, converted to
// top-left-origin coordinates so it can be compared against profile
// bounding boxes directly.
type textToken struct {
	s   string
	x   float64 // left edge, points
	w   float64 // width, points
	top float64 // distance from page top, points
}

// tokensByPage reads every positioned text fragment of the document,
// in page order. A reader-level failure (corrupt xref, undecodable
// content stream) surfaces as one error for the whole document — there
// is no per-page recovery.
func tokensByPage(data []byte) (pages [][]textToken, err error) {
	// The underlying reader panics on some malformed streams instead of
	// returning an error; treat that the same as an unreadable document.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf content: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf open: %w", err)
	}

	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		height := pageHeight(page)

		var toks []textToken
		for _, t := range page.Content().Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			toks = append(toks, textToken{
				s:   t.S,
				x:   t.X,
				w:   t.W,
				top: height - t.Y,
			})
		}
		pages = append(pages, toks)
	}
	return pages, nil
}

// pageHeight resolves the page's MediaBox height, walking up the page tree
// for inherited attributes. Falls back to A4 when absent.
func pageHeight(p pdf.Page) float64 {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		if mb := v.Key("MediaBox"); !mb.IsNull() && mb.Len() == 4 {
			return mb.Index(3).Float64() - mb.Index(1).Float64()
		}
	}
	return 841.89
}

// extractRows crops each page to the profile's bounding box and splits the
// region into rows (text bands) and columns (explicit vertical boundaries).
// Every cell is normalized on extraction. The result is a flat sequence of
// rows across all pages in page order; source pages are not tracked past
// this point.
func extractRows(pages [][]textToken, cp *compiledProfile, tol float64) [][]string {
	var rows [][]string
	for i, toks := range pages {
		box := cp.BBoxPage1
		if i > 0 {
			box = cp.BBoxOtherPages
		}

		var inBox []textToken
		for _, t := range toks {
			if t.x >= box.X0 && t.x <= box.X1 && t.top >= box.Top && t.top <= box.Bottom {
				inBox = append(inBox, t)
			}
		}

		for _, band := range bandRows(inBox, tol) {
			rows = append(rows, splitColumns(band, cp.ColumnBounds))
		}
	}
	return rows
}

// bandRows groups tokens into horizontal bands: a new row begins wherever
// tokens start a new band more than tol points below the current one.
// Bands are returned top to bottom, tokens within a band left to right.
func bandRows(tokens []textToken, tol float64) [][]textToken {
	if len(tokens) == 0 {
		return nil
	}
	sorted := make([]textToken, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].top < sorted[j].top })

	var bands [][]textToken
	anchor := sorted[0].top
	current := []textToken{sorted[0]}
	for _, t := range sorted[1:] {
		if t.top-anchor > tol {
			bands = append(bands, current)
			current = nil
			anchor = t.top
		}
		current = append(current, t)
	}
	bands = append(bands, current)

	for _, b := range bands {
		sort.SliceStable(b, func(i, j int) bool { return b[i].x < b[j].x })
	}
	return bands
}

// splitColumns distributes one band's tokens into cells along the explicit
// column boundaries. A token belongs to the gap its horizontal midpoint
// falls into; tokens outside the outermost boundaries are discarded.
func splitColumns(band []textToken, bounds []float64) []string {
	cells := make([][]textToken, len(bounds)-1)
	for _, t := range band {
		mid := t.x + t.w/2
		for c := 0; c < len(bounds)-1; c++ {
			if mid >= bounds[c] && mid < bounds[c+1] {
				cells[c] = append(cells[c], t)
				break
			}
		}
	}

	row := make([]string, len(cells))
	for c, ts := range cells {
		row[c] = Normalize(joinTokens(ts))
	}
	return row
}

// joinTokens concatenates x-sorted tokens, inserting a space wherever the
// horizontal gap between fragments indicates a word break.
func joinTokens(ts []textToken) string {
	var sb strings.Builder
	prevEnd := 0.0
	for i, t := range ts {
		if i > 0 && t.x-prevEnd > 1.5 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.s)
		if end := t.x + t.w; end > prevEnd {
			prevEnd = end
		}
	}
	return sb.String()
}

// fullText reconstructs the document text in reading order: one line per
// band, pages separated like lines. Header regexes run against this.
func fullText(pages [][]textToken, tol float64) string {
	var sb strings.Builder
	for _, toks := range pages {
		for _, band := range bandRows(toks, tol) {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(joinTokens(band))
		}
	}
	return sb.String()
}
