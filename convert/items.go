package convert

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Markers whose presence anywhere in a row's text identifies header
// scaffolding or summary rows, never line items.
var noiseMarkers = []string{"PLAN MHD", "SUMME", "GESAMT"}

// parseItems walks the raw grid and keeps the rows that are real line items.
// Invalid rows are dropped silently — uncontrolled PDF layouts make
// best-effort the only workable stance here — but the drop count is
// returned so operators can see when a layout starts drifting.
//
// Variants with a delimiter row (every non-empty cell starting with an
// underscore) accept items only after that row; variants without one accept
// items from the first row.
func parseItems(rows [][]string, cp *compiledProfile, hdr HeaderFields) (items []LineItem, dropped int) {
	inData := !cp.DelimiterRow

	for _, row := range rows {
		if rowEmpty(row) {
			continue
		}
		joined := strings.ToUpper(strings.Join(row, " "))
		if isNoise(joined) {
			dropped++
			continue
		}
		if !inData {
			if isDelimiterRow(row) {
				inData = true
			}
			// Everything before the delimiter is header scaffolding.
			continue
		}

		article := strings.TrimSpace(cellAt(row, cp.ArticleColumn))
		if !allDigits(article) {
			dropped++
			continue
		}

		qtyRaw := strings.TrimSpace(cellAt(row, cp.QuantityColumn))
		qty, err := decimal.NewFromString(strings.ReplaceAll(qtyRaw, ",", "."))
		if err != nil {
			dropped++
			continue
		}

		// An item needs a positive quantity and a complete header context.
		// Delivery date is a header-level concern and not required here.
		if qty.Sign() <= 0 || hdr.OrderDate == "" || hdr.OrderNumber == "" {
			dropped++
			continue
		}

		items = append(items, LineItem{Article: article, Quantity: qty})
	}
	return items, dropped
}

func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isNoise(joinedUpper string) bool {
	for _, m := range noiseMarkers {
		if strings.Contains(joinedUpper, m) {
			return true
		}
	}
	return false
}

// isDelimiterRow reports whether every non-empty cell begins with an
// underscore (the ruled separator EDEKA forms print between the column
// headers and the first article row).
func isDelimiterRow(row []string) bool {
	any := false
	for _, c := range row {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.HasPrefix(c, "_") {
			return false
		}
		any = true
	}
	return any
}

// cellAt returns the cell at index i, or "" when the row is too short.
// Short rows are a layout artifact, not an error.
func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// allDigits reports whether s is non-empty and entirely decimal digits.
// Article numbers stay strings: "0012" is a valid article, not the number 12.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
