package convert

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// The downstream ordering system reads a fixed 15-column, ';'-delimited
// layout in a single-byte Latin encoding. Column positions are a frozen
// external contract:
//
//	row 1: market password in column 15 (empty when the variant has none)
//	row 2: empty
//	row 3: order date in column 3
//	row 4: order number in column 3
//	row 5: delivery date in column 3 (may be empty)
//	rows 6+: one per line item — article in column 2, quantity in column 5
//	         with a comma decimal separator
const csvColumns = 15

// emitCSV serializes the header fields and line items. The caller rejects
// empty item lists before getting here; the emitter never writes a partial
// artifact.
func emitCSV(hdr HeaderFields, items []LineItem) ([]byte, error) {
	var buf bytes.Buffer
	enc := transform.NewWriter(&buf, charmap.ISO8859_1.NewEncoder())

	w := csv.NewWriter(enc)
	w.Comma = ';'
	w.UseCRLF = true

	write := func(fill func(row []string)) error {
		row := make([]string, csvColumns)
		if fill != nil {
			fill(row)
		}
		return w.Write(row)
	}

	steps := []func(row []string){
		func(row []string) { row[14] = hdr.Password },
		nil,
		func(row []string) { row[2] = hdr.OrderDate },
		func(row []string) { row[2] = hdr.OrderNumber },
		func(row []string) { row[2] = hdr.DeliveryDate },
	}
	for _, fill := range steps {
		if err := write(fill); err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
	}

	for _, it := range items {
		err := write(func(row []string) {
			row[1] = it.Article
			row[4] = formatQuantity(it.Quantity)
		})
		if err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("latin-1 encode: %w", err)
	}
	return buf.Bytes(), nil
}

// formatQuantity renders a quantity with a comma decimal separator, keeping
// the scale it was parsed with: a source cell "2,00" comes back out as
// "2,00", not "2". Decimal.String trims trailing zeros, so quantities with
// a negative exponent go through StringFixed instead.
func formatQuantity(q decimal.Decimal) string {
	s := q.String()
	if exp := q.Exponent(); exp < 0 {
		s = q.StringFixed(-exp)
	}
	return strings.ReplaceAll(s, ".", ",")
}
