package cfdi

import (
	"errors"
	"fmt"
)

// Per-document parse failures. Both exclude the offending file from the
// batch; neither stops the remaining files.
var (
	// ErrMalformedDocument is returned when the input is not well-formed XML
	// or has no root element.
	ErrMalformedDocument = errors.New("malformed XML document")

	// ErrInvalidNumericField is returned when an amount attribute such as
	// SubTotal, Total or Importe is present but not a number.
	ErrInvalidNumericField = errors.New("invalid numeric field")
)

// ParseError describes why a single CFDI file could not be turned into a record.
type ParseError struct {
	// FileName is the original name of the document.
	FileName string

	// Op is the parsing step that failed (e.g., "decode", "readAmounts").
	Op string

	// Field names the offending attribute, when there is one.
	Field string

	// Kind is one of the package sentinels.
	Kind error

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("cfdi: %s %s: %v (%s): %v", e.Op, e.FileName, e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("cfdi: %s %s: %v: %v", e.Op, e.FileName, e.Kind, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the failure kind of this error.
func (e *ParseError) Is(target error) bool {
	return target == e.Kind
}

func newParseError(fileName, op, field string, kind, err error) *ParseError {
	return &ParseError{
		FileName: fileName,
		Op:       op,
		Field:    field,
		Kind:     kind,
		Err:      err,
	}
}
