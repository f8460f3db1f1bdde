package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"gastos/internal/report"
	"gastos/pkg/models"
)

func testDataset(uuids ...string) *report.Dataset {
	records := make([]models.Invoice, len(uuids))
	for i, uuid := range uuids {
		records[i] = models.Invoice{
			IssueDate:          "2024-05-20",
			PaymentMethodLabel: "04 Tarjeta de crédito",
			IssuerName:         "GASOLINERA CENTRO",
			IssuerTaxID:        "GAS990101AB1",
			ExpeditionPlace:    "44100",
			Subtotal:           decimal.RequireFromString("100"),
			VAT:                decimal.RequireFromString("16"),
			OtherTaxes:         decimal.Zero,
			Total:              decimal.RequireFromString("116"),
			UniqueID:           uuid,
			SourceFileName:     uuid + ".xml",
		}
	}
	return report.Aggregate(records)
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWorkbookExporter("unused.xlsx", "").WriteTo(&buf, testDataset("A", "B")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := openWorkbook(t, buf.Bytes())

	if sheets := f.GetSheetList(); !reflect.DeepEqual(sheets, []string{DefaultSheet}) {
		t.Errorf("expected sheets [%s], got %v", DefaultSheet, sheets)
	}

	rows, err := f.GetRows(DefaultSheet)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if !reflect.DeepEqual(rows[0], report.Columns) {
		t.Errorf("expected header %v, got %v", report.Columns, rows[0])
	}

	want := []string{
		"2024-05-20", "04 Tarjeta de crédito", "GASOLINERA CENTRO", "GAS990101AB1",
		"44100", "100", "16", "0", "116", "A.xml",
	}
	if !reflect.DeepEqual(rows[1], want) {
		t.Errorf("expected row %v, got %v", want, rows[1])
	}

	style, err := f.GetCellStyle(DefaultSheet, "I2")
	if err != nil {
		t.Fatalf("failed to read style: %v", err)
	}
	if style == 0 {
		t.Errorf("expected a number format on the Total column")
	}

	width, err := f.GetColWidth(DefaultSheet, "G")
	if err != nil {
		t.Fatalf("failed to read width: %v", err)
	}
	if width != currencyWidth {
		t.Errorf("expected width %d, got %v", currencyWidth, width)
	}
}

func TestWriteTo_DuplicatesSheet(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWorkbookExporter("unused.xlsx", "Marzo").WriteTo(&buf, testDataset("A", "B", "A")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := openWorkbook(t, buf.Bytes())

	sheets := f.GetSheetList()
	if !slices.Contains(sheets, "Marzo") || !slices.Contains(sheets, DuplicatesSheet) {
		t.Fatalf("expected Marzo and %s sheets, got %v", DuplicatesSheet, sheets)
	}

	rows, err := f.GetRows(DuplicatesSheet)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	want := [][]string{
		report.DuplicateColumns,
		{"A.xml", "116", "GASOLINERA CENTRO", "A"},
		{"A.xml", "116", "GASOLINERA CENTRO", "A"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("expected %v, got %v", want, rows)
	}
}

func TestWriteTo_EmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWorkbookExporter("unused.xlsx", "").WriteTo(&buf, report.Aggregate(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := openWorkbook(t, buf.Bytes()).GetRows(DefaultSheet)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Reporte_Gastos_CS.xlsx")

	exporter := NewWorkbookExporter(path, "")
	if err := exporter.Export(context.Background(), testDataset("A")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("workbook not written: %v", err)
	}
	rows, err := openWorkbook(t, data).GetRows(DefaultSheet)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected header + 1 row, got %d", len(rows))
	}
}

func TestExport_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "out.xlsx")
	err := NewWorkbookExporter(path, "").Export(ctx, testDataset("A"))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("expected no file to be written")
	}
}
