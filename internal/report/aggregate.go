// Package report turns a batch of parsed invoices into the expense report:
// the ordered table, the duplicate view and the column sums.
package report

import (
	"slices"

	"github.com/shopspring/decimal"

	"gastos/internal/batch"
	"gastos/pkg/models"
)

// Columns is the header of the primary table, in output order.
var Columns = []string{
	"Fecha",
	"Forma Pago",
	"Emisor",
	"RFC",
	"Lugar Exp. (CP)",
	"Subtotal",
	"IVA",
	"Otros Imp",
	"Total",
	"Archivo",
}

// DuplicateColumns is the header of the duplicate view.
var DuplicateColumns = []string{"Archivo", "Total", "Emisor", "UUID"}

// CurrencyColumns are the zero-based indexes of the amount columns in Columns
// (spreadsheet columns F to I).
var CurrencyColumns = []int{5, 6, 7, 8}

// Failure is a document that produced no record.
type Failure struct {
	FileName string
	Err      error
}

// Summary holds the column sums of a dataset. Duplicates are included.
type Summary struct {
	Records    int
	Total      decimal.Decimal
	VAT        decimal.Decimal
	Subtotal   decimal.Decimal
	OtherTaxes decimal.Decimal
	Inferred   int // records whose VAT came from Total - Subtotal
}

// Dataset is an immutable snapshot of one batch.
type Dataset struct {
	Records    []models.Invoice
	Duplicates []models.Invoice
	Failures   []Failure
	Summary    Summary
}

// Aggregate builds the dataset for records, kept in the given order.
// The input slice is not modified.
func Aggregate(records []models.Invoice) *Dataset {
	ds := &Dataset{
		Records: slices.Clone(records),
	}
	if ds.Records == nil {
		ds.Records = []models.Invoice{}
	}

	ds.Duplicates = findDuplicates(ds.Records)
	ds.Summary = summarize(ds.Records)
	return ds
}

// AggregateResults splits batch results into records and failures, keeping
// input order for both, and aggregates the records.
func AggregateResults(results []batch.Result) *Dataset {
	records := make([]models.Invoice, 0, len(results))
	var failures []Failure

	for _, r := range results {
		if r.Failed() || r.Invoice == nil {
			failures = append(failures, Failure{FileName: r.FileName, Err: r.Err})
			continue
		}
		records = append(records, *r.Invoice)
	}

	ds := Aggregate(records)
	ds.Failures = failures
	return ds
}

// Empty reports whether the batch produced no records.
func (d *Dataset) Empty() bool {
	return len(d.Records) == 0
}

// HasDuplicates reports whether any UUID appears more than once.
func (d *Dataset) HasDuplicates() bool {
	return len(d.Duplicates) > 0
}

// Rows returns the primary table without header, one row per record, cells
// ordered as Columns. Amounts are float64 so spreadsheet cells stay numeric.
func (d *Dataset) Rows() [][]any {
	rows := make([][]any, len(d.Records))
	for i, inv := range d.Records {
		rows[i] = []any{
			inv.IssueDate,
			inv.PaymentMethodLabel,
			inv.IssuerName,
			inv.IssuerTaxID,
			inv.ExpeditionPlace,
			inv.Subtotal.InexactFloat64(),
			inv.VAT.InexactFloat64(),
			inv.OtherTaxes.InexactFloat64(),
			inv.Total.InexactFloat64(),
			inv.SourceFileName,
		}
	}
	return rows
}

// DuplicateRows returns the duplicate view, cells ordered as DuplicateColumns.
func (d *Dataset) DuplicateRows() [][]any {
	rows := make([][]any, len(d.Duplicates))
	for i, inv := range d.Duplicates {
		rows[i] = []any{
			inv.SourceFileName,
			inv.Total.InexactFloat64(),
			inv.IssuerName,
			inv.UniqueID,
		}
	}
	return rows
}

// findDuplicates returns every member of each UUID group with more than one
// member, in original order. Records without a UUID form one group.
func findDuplicates(records []models.Invoice) []models.Invoice {
	counts := make(map[string]int, len(records))
	for _, inv := range records {
		counts[inv.UniqueID]++
	}

	var dups []models.Invoice
	for _, inv := range records {
		if counts[inv.UniqueID] > 1 {
			dups = append(dups, inv)
		}
	}
	return dups
}

func summarize(records []models.Invoice) Summary {
	s := Summary{Records: len(records)}
	for _, inv := range records {
		s.Total = s.Total.Add(inv.Total)
		s.VAT = s.VAT.Add(inv.VAT)
		s.Subtotal = s.Subtotal.Add(inv.Subtotal)
		s.OtherTaxes = s.OtherTaxes.Add(inv.OtherTaxes)
		if inv.VATInferred {
			s.Inferred++
		}
	}
	return s
}
