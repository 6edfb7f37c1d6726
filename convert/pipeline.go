// Package convert turns retail-chain order PDFs into the fixed 15-column
// CSV consumed by the downstream ordering system.
//
// Supported dialects (see BuiltinProfiles):
//   - EDEKA    — default; underscore-delimited table, market password mandatory
//   - DOHLE    — HIT/AEZ order forms, detected from the filename
//   - HAMMERER — detected from the filename, artifact named by order date
//
// Usage:
//
//	pipe, err := convert.New(convert.Config{})
//	res, err := pipe.Convert(ctx, "/path/to/Bestellung.pdf")
//	os.WriteFile(res.Filename, res.CSV, 0644)
package convert

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
)

// Pipeline is the conversion engine. Construct once, use for any number of
// documents; it holds no per-document state.
type Pipeline struct {
	cfg      Config
	logger   *slog.Logger
	profiles []*compiledProfile
	fallback *compiledProfile
}

// compiledProfile is a Profile with its regex set compiled and its geometry
// checked at construction time.
type compiledProfile struct {
	Profile
	orderDate      *regexp.Regexp
	deliveryDate   *regexp.Regexp
	orderNumber    *regexp.Regexp
	orderNumberAlt *regexp.Regexp
	address        *regexp.Regexp
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) (*Pipeline, error) {
	cfg.defaults()

	p := &Pipeline{cfg: cfg, logger: cfg.Logger}
	for i := range cfg.Profiles {
		cp, err := compileProfile(&cfg.Profiles[i])
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", cfg.Profiles[i].Tag, err)
		}
		p.profiles = append(p.profiles, cp)
		if cp.Default && p.fallback == nil {
			p.fallback = cp
		}
	}
	if len(p.profiles) == 0 {
		return nil, fmt.Errorf("no document profiles configured")
	}
	if p.fallback == nil {
		p.fallback = p.profiles[0]
	}
	return p, nil
}

func compileProfile(pr *Profile) (*compiledProfile, error) {
	if len(pr.ColumnBounds) < 2 {
		return nil, fmt.Errorf("need at least 2 column bounds, got %d", len(pr.ColumnBounds))
	}
	for i := 1; i < len(pr.ColumnBounds); i++ {
		if pr.ColumnBounds[i] <= pr.ColumnBounds[i-1] {
			return nil, fmt.Errorf("column bounds must be strictly increasing at index %d", i)
		}
	}
	if pr.BBoxOtherPages.zero() {
		pr.BBoxOtherPages = pr.BBoxPage1
	}

	cp := &compiledProfile{Profile: *pr}
	var err error
	compile := func(dst **regexp.Regexp, name, src string, insensitive bool) {
		if err != nil || src == "" {
			return
		}
		if insensitive {
			src = "(?i)" + src
		}
		if *dst, err = regexp.Compile(src); err != nil {
			err = fmt.Errorf("%s pattern: %w", name, err)
		}
	}
	// Field labels match case-sensitively; only the address-block boundary
	// search tolerates casing drift across document revisions.
	compile(&cp.orderDate, "order_date", pr.Header.OrderDate, false)
	compile(&cp.deliveryDate, "delivery_date", pr.Header.DeliveryDate, false)
	compile(&cp.orderNumber, "order_number", pr.Header.OrderNumber, false)
	compile(&cp.orderNumberAlt, "order_number_alt", pr.Header.OrderNumberAlt, false)
	compile(&cp.address, "address", pr.Header.Address, true)
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// Classify selects the document variant from the source filename.
// Case-insensitive substring match against each profile's tokens; no match
// falls back to the default profile. This is a heuristic — a misclassified
// document is caught downstream by the extraction checks, not here.
func (p *Pipeline) Classify(filename string) Variant {
	return p.classify(filename).Tag
}

func (p *Pipeline) classify(filename string) *compiledProfile {
	base := strings.ToUpper(filepath.Base(filename))
	for _, cp := range p.profiles {
		for _, tok := range cp.FilenameTokens {
			if tok != "" && strings.Contains(base, strings.ToUpper(tok)) {
				return cp
			}
		}
	}
	return p.fallback
}

// Variants returns the registered variant tags in registry order.
func (p *Pipeline) Variants() []Variant {
	tags := make([]Variant, len(p.profiles))
	for i, cp := range p.profiles {
		tags[i] = cp.Tag
	}
	return tags
}
