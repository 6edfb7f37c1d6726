package convert

import "testing"

var testHeader = HeaderFields{OrderNumber: "4500012345", OrderDate: "02.05.2025"}

func TestParseItems_EdekaDelimiterGating(t *testing.T) {
	p := newTestPipeline(t)
	cp := p.classify("Bestellung.pdf")

	rows := [][]string{
		{"Artikel", "Menge"},  // column headers, before the delimiter
		{"", ""},              // blank band
		{"9999", "1"},         // looks like an item but sits before the delimiter
		{"____________", "____________"},
		{"100", "2,5"},
		{"Summe", "42"},       // summary row
		{"12A3", "1"},         // article with a letter
		{"200", "0,00"},       // zero quantity
		{"300", "abc"},        // unparsable quantity
		{"400", "-1"},         // negative quantity
		{"0012", "3"},         // leading zeros stay
	}

	items, dropped := parseItems(rows, cp, testHeader)
	if len(items) != 2 {
		t.Fatalf("items: got %d (%v), want 2", len(items), items)
	}
	if items[0].Article != "100" || items[0].Quantity.String() != "2.5" {
		t.Errorf("item 0: got %+v", items[0])
	}
	if items[1].Article != "0012" || items[1].Quantity.String() != "3" {
		t.Errorf("item 1: got %+v", items[1])
	}
	if dropped != 5 {
		t.Errorf("dropped: got %d, want 5", dropped)
	}
}

func TestParseItems_QuantityScalePreserved(t *testing.T) {
	p := newTestPipeline(t)
	cp := p.classify("Bestellung.pdf")

	rows := [][]string{
		{"____", "____"},
		{"100", "2,00"},
	}
	items, _ := parseItems(rows, cp, testHeader)
	if len(items) != 1 {
		t.Fatalf("items: got %d, want 1", len(items))
	}
	// "2,00" must round-trip as "2,00", not collapse to "2". The parsed
	// decimal keeps its scale in the exponent; the emitter renders it.
	if got := items[0].Quantity.Exponent(); got != -2 {
		t.Errorf("quantity exponent: got %d, want -2", got)
	}
	if got := formatQuantity(items[0].Quantity); got != "2,00" {
		t.Errorf("quantity: got %q, want %q", got, "2,00")
	}
}

func TestParseItems_NoiseDroppedBeforeDelimiterToo(t *testing.T) {
	p := newTestPipeline(t)
	cp := p.classify("Bestellung.pdf")

	rows := [][]string{
		{"Plan MHD", ""},
		{"____", "____"},
		{"100", "1"},
	}
	items, dropped := parseItems(rows, cp, testHeader)
	if len(items) != 1 || dropped != 1 {
		t.Fatalf("got %d items, %d dropped; want 1, 1", len(items), dropped)
	}
}

func TestParseItems_NoDelimiterMeansNoItems(t *testing.T) {
	p := newTestPipeline(t)
	cp := p.classify("Bestellung.pdf")

	rows := [][]string{
		{"100", "2"},
		{"200", "3"},
	}
	items, _ := parseItems(rows, cp, testHeader)
	if len(items) != 0 {
		t.Fatalf("items without delimiter row: got %d, want 0", len(items))
	}
}

func TestParseItems_RequiresHeaderContext(t *testing.T) {
	p := newTestPipeline(t)
	cp := p.classify("Bestellung.pdf")

	rows := [][]string{
		{"____", "____"},
		{"100", "2"},
	}
	for _, hdr := range []HeaderFields{
		{OrderNumber: "1"},            // no order date
		{OrderDate: "02.05.2025"},     // no order number
		{},                            // neither
	} {
		items, dropped := parseItems(rows, cp, hdr)
		if len(items) != 0 || dropped != 1 {
			t.Errorf("hdr %+v: got %d items, %d dropped", hdr, len(items), dropped)
		}
	}
}

func TestParseItems_DohleColumns(t *testing.T) {
	p := newTestPipeline(t)
	cp := p.classify("dohlehit.pdf")

	rows := [][]string{
		// DOHLE has no delimiter row; article in column 5, quantity in column 8.
		{"1", "Bananen", "KI", "", "4711", "1,2", "EUR", "6", "", "", ""},
		{"2", "Aepfel", "KI", "", "4712", "0,9", "EUR", "2,5", "", "", ""},
		{"3", "zu kurze Zeile"},
	}
	items, dropped := parseItems(rows, cp, testHeader)
	if len(items) != 2 {
		t.Fatalf("items: got %d (%v), want 2", len(items), items)
	}
	if items[0].Article != "4711" || items[0].Quantity.String() != "6" {
		t.Errorf("item 0: got %+v", items[0])
	}
	if items[1].Article != "4712" || items[1].Quantity.String() != "2.5" {
		t.Errorf("item 1: got %+v", items[1])
	}
	if dropped != 1 {
		t.Errorf("dropped: got %d, want 1", dropped)
	}
}

func TestIsDelimiterRow(t *testing.T) {
	tests := []struct {
		row  []string
		want bool
	}{
		{[]string{"____", "____", "____"}, true},
		{[]string{"____", "", "____"}, true},
		{[]string{"_", ""}, true},
		{[]string{"____", "x"}, false},
		{[]string{"", ""}, false},
		{[]string{"100", "2"}, false},
	}
	for _, tt := range tests {
		if got := isDelimiterRow(tt.row); got != tt.want {
			t.Errorf("isDelimiterRow(%v) = %v, want %v", tt.row, got, tt.want)
		}
	}
}
