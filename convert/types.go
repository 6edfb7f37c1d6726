package convert

import (
	"github.com/shopspring/decimal"
)

// Variant identifies a retailer order-form dialect.
type Variant string

const (
	VariantEdeka    Variant = "EDEKA"
	VariantDohle    Variant = "DOHLE"
	VariantHammerer Variant = "HAMMERER"
)

// BBox is a rectangular page region in points, top-left origin
// (Top/Bottom are distances from the top edge of the page).
type BBox struct {
	X0     float64 `yaml:"x0"`
	Top    float64 `yaml:"top"`
	X1     float64 `yaml:"x1"`
	Bottom float64 `yaml:"bottom"`
}

func (b BBox) zero() bool {
	return b.X0 == 0 && b.Top == 0 && b.X1 == 0 && b.Bottom == 0
}

// HeaderPatterns holds the per-variant regular expressions run against the
// full document text. All are optional except OrderDate and OrderNumber;
// each must contain exactly one capture group.
type HeaderPatterns struct {
	OrderDate      string `yaml:"order_date"`
	DeliveryDate   string `yaml:"delivery_date"`
	OrderNumber    string `yaml:"order_number"`
	OrderNumberAlt string `yaml:"order_number_alt"` // fallback, e.g. "L 001/0002" style
	Address        string `yaml:"address"`          // compiled case-insensitively
}

// Profile carries everything needed to extract one retailer dialect:
// table geometry, header regexes, row-parsing columns and policy flags.
// Profiles are registered at construction time and immutable afterwards.
type Profile struct {
	Tag            Variant  `yaml:"tag"`
	FilenameTokens []string `yaml:"filename_tokens"`
	Default        bool     `yaml:"default"`

	BBoxPage1      BBox      `yaml:"bbox_page1"`
	BBoxOtherPages BBox      `yaml:"bbox_other_pages"` // falls back to BBoxPage1 when unset
	ColumnBounds   []float64 `yaml:"column_bounds"`    // strictly increasing x coordinates

	Header HeaderPatterns `yaml:"header"`

	ArticleColumn  int `yaml:"article_column"`
	QuantityColumn int `yaml:"quantity_column"`

	// RequirePassword rejects the document when no market password resolves.
	RequirePassword bool `yaml:"require_password"`
	// DelimiterRow gates line-item parsing behind an all-underscore row.
	DelimiterRow bool `yaml:"delimiter_row"`
	// NameByOrderDate names the artifact "Bestellformular DD-MM-YYYY.csv"
	// instead of deriving it from the source filename.
	NameByOrderDate bool `yaml:"name_by_order_date"`
}

// MarketKeyword maps a normalized upper-case address fragment to the market
// password handed to the ordering system. Table order is the tie-break:
// the first keyword found in the address block wins.
type MarketKeyword struct {
	Keyword  string `yaml:"keyword"`
	Password string `yaml:"password"`
}

// HeaderFields are the document-level fields recovered from the full text.
// Absent fields are empty strings, never errors.
type HeaderFields struct {
	OrderNumber  string `json:"order_number"`
	OrderDate    string `json:"order_date"`    // DD.MM.YYYY as printed
	DeliveryDate string `json:"delivery_date"` // optional
	AddressBlock string `json:"address_block"` // normalized, upper-cased
	Password     string `json:"password"`      // empty if unresolved
}

// LineItem is one accepted article/quantity pair from the order table.
type LineItem struct {
	Article  string          `json:"article"`  // digits only, kept as string
	Quantity decimal.Decimal `json:"quantity"` // strictly positive
}

// Stats counts what the extraction saw, for logging and the journal.
// RowsDropped is observability only; it never affects pass/fail.
type Stats struct {
	Pages         int `json:"pages"`
	RowsExtracted int `json:"rows_extracted"`
	RowsDropped   int `json:"rows_dropped"`
	Items         int `json:"items"`
}

// Result is a successful conversion: the CSV artifact plus everything that
// went into it. A document that fails any required-field check produces no
// Result at all.
type Result struct {
	SourcePath string       `json:"source_path"`
	Filename   string       `json:"filename"` // suggested artifact name
	Variant    Variant      `json:"variant"`
	Header     HeaderFields `json:"header"`
	Items      []LineItem   `json:"items"`
	CSV        []byte       `json:"-"`
	Stats      Stats        `json:"stats"`
}

// Outcome pairs one input document with its conversion result or rejection.
type Outcome struct {
	Path   string
	Result *Result
	Err    error
}
