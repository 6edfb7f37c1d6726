package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pdfText is one word placed on the fixture page. Coordinates are PDF
// points, bottom-left origin, as the content stream wants them.
type pdfText struct {
	x, y float64
	s    string
}

// buildPDF assembles a minimal single-page PDF with an uncompressed content
// stream: one Tj per word, Helvetica, explicit positions. Just enough
// structure to satisfy validation and the text extractor.
func buildPDF(texts []pdfText, width, height float64) []byte {
	esc := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	var cs strings.Builder
	for _, t := range texts {
		fmt.Fprintf(&cs, "BT /F1 10 Tf %.2f %.2f Td (%s) Tj ET\n", t.x, t.y, esc.Replace(t.s))
	}

	var buf bytes.Buffer
	offsets := make([]int, 6)
	obj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 %.2f %.2f] >>", width, height))
	// MediaBox is inherited from the page tree root on purpose.
	obj(3, "<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	obj(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	offsets[5] = buf.Len()
	fmt.Fprintf(&buf, "5 0 obj\n<< /Length %d >>\nstream\n%sendstream\nendobj\n", cs.Len(), cs.String())

	xref := buf.Len()
	buf.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for n := 1; n <= 5; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func writePDF(t *testing.T, name string, texts []pdfText, width, height float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buildPDF(texts, width, height), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// edekaFixture is a landscape A4 order form matching the EDEKA layout:
// header block above the table region, underscore delimiter, two valid
// items plus a summary row and a damaged article number.
func edekaFixture() []pdfText {
	const h = 595.0 // y = page height - distance from top
	return []pdfText{
		{40, h - 50, "Bestelldatum:"}, {110, h - 50, "02.05.2025"},
		{40, h - 65, "Bestellnummer:"}, {118, h - 65, "4500012345"},
		{40, h - 80, "Lieferdatum/-uhrzeit:"}, {150, h - 80, "05.05.2025"}, {210, h - 80, "06:00"},
		{40, h - 95, "LIEFERANSCHRIFT"},
		{40, h - 110, "Einsteinstrasse"}, {120, h - 110, "130"},
		{40, h - 125, "GLN:"}, {70, h - 125, "4311501234567"},

		{20, h - 320, "Artikel"}, {110, h - 320, "Menge"},
		{20, h - 335, "__________"}, {110, h - 335, "__________"},
		{20, h - 350, "100"}, {110, h - 350, "2,5"},
		{20, h - 365, "4711"}, {110, h - 365, "3"},
		{20, h - 380, "Summe"}, {110, h - 380, "5,5"},
		{20, h - 395, "12A3"}, {110, h - 395, "1"},
	}
}

func TestConvert_Edeka(t *testing.T) {
	p := newTestPipeline(t)
	path := writePDF(t, "Bestellung_4500012345.pdf", edekaFixture(), 842, 595)

	res, err := p.Convert(context.Background(), path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if res.Variant != VariantEdeka {
		t.Errorf("variant: got %s", res.Variant)
	}
	if res.Filename != "Bestellung_4500012345.csv" {
		t.Errorf("artifact name: got %q", res.Filename)
	}
	if res.Header.Password != "Einstein" {
		t.Errorf("password: got %q", res.Header.Password)
	}
	if res.Stats.Pages != 1 || res.Stats.Items != 2 || res.Stats.RowsDropped != 2 {
		t.Errorf("stats: got %+v", res.Stats)
	}

	want := strings.Join([]string{
		";;;;;;;;;;;;;;Einstein",
		";;;;;;;;;;;;;;",
		";;02.05.2025;;;;;;;;;;;;",
		";;4500012345;;;;;;;;;;;;",
		";;05.05.2025;;;;;;;;;;;;",
		";100;;;2,5;;;;;;;;;;",
		";4711;;;3;;;;;;;;;;",
		"",
	}, "\r\n")
	if got := string(res.CSV); got != want {
		t.Errorf("csv:\ngot:\n%q\nwant:\n%q", got, want)
	}
}

func TestConvert_Idempotent(t *testing.T) {
	p := newTestPipeline(t)
	path := writePDF(t, "Bestellung.pdf", edekaFixture(), 842, 595)

	a, err := p.Convert(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Convert(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.CSV, b.CSV) {
		t.Fatal("same document produced different artifacts")
	}
}

func TestConvert_Hammerer_NamedByOrderDate(t *testing.T) {
	p := newTestPipeline(t)
	const h = 842.0
	texts := []pdfText{
		{40, h - 50, "Bestelldatum:"}, {110, h - 50, "10.06.2025"},
		{40, h - 65, "Bestellnummer:"}, {118, h - 65, "555"},
		{40, h - 80, "Liefertermin:"}, {110, h - 80, "12.06.2025"},

		{30, h - 300, "1"}, {100, h - 300, "888"}, {240, h - 300, "Ware"}, {330, h - 300, "4"},
	}
	path := writePDF(t, "Hammerer_Bestellung.pdf", texts, 595, 842)

	res, err := p.Convert(context.Background(), path)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Variant != VariantHammerer {
		t.Errorf("variant: got %s", res.Variant)
	}
	if res.Filename != "Bestellformular 10-06-2025.csv" {
		t.Errorf("artifact name: got %q", res.Filename)
	}
	if res.Stats.Items != 1 {
		t.Errorf("items: got %d", res.Stats.Items)
	}
	// No password requirement for this variant: column 15 of row 1 stays empty.
	if line, _, _ := strings.Cut(string(res.CSV), "\r\n"); line != ";;;;;;;;;;;;;;" {
		t.Errorf("password row: got %q", line)
	}
}

func TestConvert_Failures(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()
	const h = 595.0

	headerOnly := edekaFixture()[:12]

	noPassword := append([]pdfText{}, edekaFixture()...)
	noPassword[8] = pdfText{40, h - 110, "Unbekannte"}
	noPassword[9] = pdfText{120, h - 110, "Gasse"}

	noItems := append([]pdfText{}, headerOnly...)
	noItems = append(noItems,
		pdfText{20, h - 335, "__________"},
		pdfText{20, h - 350, "Summe"},
	)

	garbagePath := filepath.Join(t.TempDir(), "kaputt.pdf")
	if err := os.WriteFile(garbagePath, []byte("definitely not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want FailKind
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.pdf"), FailUnreadable},
		{"garbage bytes", garbagePath, FailUnreadable},
		{"no market keyword", writePDF(t, "a.pdf", noPassword, 842, 595), FailMissingCredential},
		{"nothing in table region", writePDF(t, "b.pdf", headerOnly, 842, 595), FailNoTable},
		{"only noise rows", writePDF(t, "c.pdf", noItems, 842, 595), FailNoItems},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Convert(ctx, tt.path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := KindOf(err); got != tt.want {
				t.Fatalf("kind: got %q, want %q (%v)", got, tt.want, err)
			}
		})
	}
}

func TestConvert_FileSizeLimit(t *testing.T) {
	p, err := New(Config{MaxFileSize: 16, Logger: newTestPipeline(t).logger})
	if err != nil {
		t.Fatal(err)
	}
	path := writePDF(t, "big.pdf", edekaFixture(), 842, 595)
	_, err = p.Convert(context.Background(), path)
	if KindOf(err) != FailUnreadable {
		t.Fatalf("got %v, want unreadable_document", err)
	}
}

func TestConvertAll_BatchContinuesPastRejections(t *testing.T) {
	p := newTestPipeline(t)
	good := writePDF(t, "Bestellung.pdf", edekaFixture(), 842, 595)
	bad := filepath.Join(t.TempDir(), "missing.pdf")

	outcomes := p.ConvertAll(context.Background(), []string{bad, good})
	if len(outcomes) != 2 {
		t.Fatalf("outcomes: got %d, want 2", len(outcomes))
	}
	if outcomes[0].Err == nil {
		t.Error("first outcome: expected error")
	}
	if outcomes[1].Err != nil || outcomes[1].Result == nil {
		t.Errorf("second outcome: %v", outcomes[1].Err)
	}
}

func TestConvertAll_StopsOnCancel(t *testing.T) {
	p := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths := []string{"a.pdf", "b.pdf", "c.pdf"}
	outcomes := p.ConvertAll(ctx, paths)
	if len(outcomes) != 1 {
		t.Fatalf("outcomes after cancel: got %d, want 1", len(outcomes))
	}
	if outcomes[0].Err == nil {
		t.Error("expected context error")
	}
}
