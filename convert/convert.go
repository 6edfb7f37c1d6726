package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Convert processes one order PDF end to end: validate, classify, extract
// header and table, resolve the market password, filter line items, emit
// the CSV. On failure it returns a *ConvertError carrying one of the four
// fatal kinds; no partial artifact is ever produced.
func (p *Pipeline) Convert(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, failf(FailUnreadable, err, "stat %s", path)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, failf(FailUnreadable, nil, "%s: %d bytes exceeds limit of %d", path, info.Size(), p.cfg.MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failf(FailUnreadable, err, "read %s", path)
	}

	// Structural gate: an encrypted or corrupt stream is rejected here,
	// before any extraction work.
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, failf(FailUnreadable, err, "validate %s", filepath.Base(path))
	}

	cp := p.classify(path)
	p.logger.Debug("converting document",
		"file", filepath.Base(path), "variant", cp.Tag, "pages", pdfCtx.PageCount)

	pages, err := tokensByPage(data)
	if err != nil {
		return nil, failf(FailUnreadable, err, "extract text from %s", filepath.Base(path))
	}

	hdr := extractHeader(fullText(pages, p.cfg.RowTolerance), cp)
	hdr.Password = ResolveMarket(hdr.AddressBlock, p.cfg.Markets)
	if cp.RequirePassword && hdr.Password == "" {
		return nil, failf(FailMissingCredential, nil,
			"no market password resolved for %s (%s)", filepath.Base(path), cp.Tag)
	}

	rows := extractRows(pages, cp, p.cfg.RowTolerance)
	if len(rows) == 0 {
		return nil, failf(FailNoTable, nil,
			"no table rows inside the %s bounding box of %s", cp.Tag, filepath.Base(path))
	}

	items, dropped := parseItems(rows, cp, hdr)
	if len(items) == 0 {
		return nil, failf(FailNoItems, nil,
			"%d rows extracted from %s but none passed the line-item filter", len(rows), filepath.Base(path))
	}

	csvBytes, err := emitCSV(hdr, items)
	if err != nil {
		return nil, fmt.Errorf("emit %s: %w", filepath.Base(path), err)
	}

	res := &Result{
		SourcePath: path,
		Filename:   artifactName(path, cp, hdr),
		Variant:    cp.Tag,
		Header:     hdr,
		Items:      items,
		CSV:        csvBytes,
		Stats: Stats{
			Pages:         pdfCtx.PageCount,
			RowsExtracted: len(rows),
			RowsDropped:   dropped,
			Items:         len(items),
		},
	}

	p.logger.Info("document converted",
		"file", filepath.Base(path), "variant", cp.Tag,
		"items", len(items), "rows_dropped", dropped, "artifact", res.Filename)
	return res, nil
}

// artifactName derives the deterministic CSV filename: source base name with
// a .csv extension, except for variants named after the order date.
func artifactName(path string, cp *compiledProfile, hdr HeaderFields) string {
	if cp.NameByOrderDate && hdr.OrderDate != "" {
		return "Bestellformular " + strings.ReplaceAll(hdr.OrderDate, ".", "-") + ".csv"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".csv"
}

// ConvertAll processes documents strictly sequentially in the given order.
// A rejected document never aborts the batch; each outcome carries its own
// result or error and the caller decides how to report them.
func (p *Pipeline) ConvertAll(ctx context.Context, paths []string) []Outcome {
	outcomes := make([]Outcome, 0, len(paths))
	for _, path := range paths {
		res, err := p.Convert(ctx, path)
		if err != nil {
			p.logger.Warn("document rejected", "file", filepath.Base(path), "reason", err)
		}
		outcomes = append(outcomes, Outcome{Path: path, Result: res, Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return outcomes
}
