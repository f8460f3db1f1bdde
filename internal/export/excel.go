// Package export writes expense reports to .xlsx workbooks.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"gastos/internal/logger"
	"gastos/internal/money"
	"gastos/internal/report"
)

const (
	// DefaultSheet is the name of the primary sheet.
	DefaultSheet = "Gastos"

	// DuplicatesSheet holds the duplicate view when the batch has any.
	DuplicatesSheet = "Duplicados"

	currencyWidth = 15
)

// WorkbookExporter renders a report.Dataset as an Excel workbook.
type WorkbookExporter struct {
	path  string
	sheet string
	log   zerolog.Logger
}

// NewWorkbookExporter creates an exporter that saves to path. An empty sheet
// name falls back to DefaultSheet.
func NewWorkbookExporter(path, sheet string) *WorkbookExporter {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &WorkbookExporter{
		path:  path,
		sheet: sheet,
		log:   logger.WithComponent("export"),
	}
}

// Export builds the workbook and saves it to the configured path.
func (e *WorkbookExporter) Export(ctx context.Context, ds *report.Dataset) error {
	const op = "WorkbookExporter.Export"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f, err := e.build(ds)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("%s: failed to save %s: %w", op, e.path, err)
	}

	e.log.Info().
		Str("path", e.path).
		Int("rows", len(ds.Records)).
		Int("duplicates", len(ds.Duplicates)).
		Msg("Workbook written")

	return nil
}

// WriteTo streams the workbook to w, e.g. as an HTTP download body.
func (e *WorkbookExporter) WriteTo(w io.Writer, ds *report.Dataset) error {
	const op = "WorkbookExporter.WriteTo"

	f, err := e.build(ds)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}
	return nil
}

func (e *WorkbookExporter) build(ds *report.Dataset) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), e.sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	// Column styles go first so the data cells written below inherit them.
	if err := f.SetColStyle(e.sheet, "F:I", styles.currency); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to style amount columns: %w", err)
	}
	if err := f.SetColWidth(e.sheet, "F", "I", currencyWidth); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size amount columns: %w", err)
	}
	if err := writeTable(f, e.sheet, report.Columns, ds.Rows(), styles); err != nil {
		f.Close()
		return nil, err
	}

	if ds.HasDuplicates() {
		if _, err := f.NewSheet(DuplicatesSheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add %s sheet: %w", DuplicatesSheet, err)
		}
		if err := f.SetColStyle(DuplicatesSheet, "B", styles.currency); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style duplicate totals: %w", err)
		}
		if err := f.SetColWidth(DuplicatesSheet, "B", "B", currencyWidth); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to size duplicate totals: %w", err)
		}
		if err := writeTable(f, DuplicatesSheet, report.DuplicateColumns, ds.DuplicateRows(), styles); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

type styles struct {
	header   int
	currency int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}

	numFmt := money.ExcelFormat
	s.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return s, fmt.Errorf("failed to create currency style: %w", err)
	}

	return s, nil
}

func writeTable(f *excelize.File, sheet string, header []string, rows [][]any, st styles) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
