package convert

import (
	"errors"
	"fmt"
)

// FailKind classifies a fatal per-document rejection. Row-local problems
// (non-numeric article, unparsable quantity) are absorbed silently and
// never surface as errors.
type FailKind string

const (
	// FailUnreadable — the file cannot be opened, is encrypted, or its PDF
	// structure cannot be parsed for text.
	FailUnreadable FailKind = "unreadable_document"
	// FailMissingCredential — the variant mandates a market password and
	// none resolved from the address block.
	FailMissingCredential FailKind = "missing_credential"
	// FailNoTable — geometric extraction yielded zero rows on every page.
	FailNoTable FailKind = "no_table_found"
	// FailNoItems — rows were extracted but none passed the line-item filter.
	FailNoItems FailKind = "no_valid_line_items"
)

// ConvertError is a fatal per-document rejection. It aborts that document
// only; batch processing continues with the next one.
type ConvertError struct {
	Kind FailKind
	Msg  string
	Err  error
}

func (e *ConvertError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *ConvertError) Unwrap() error { return e.Err }

func failf(kind FailKind, err error, format string, args ...any) *ConvertError {
	return &ConvertError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the failure kind of err, or "" if err is not a ConvertError.
func KindOf(err error) FailKind {
	var ce *ConvertError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
