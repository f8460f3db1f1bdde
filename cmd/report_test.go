package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"gastos/internal/batch"
	"gastos/internal/cfdi"
	"gastos/internal/report"
	"gastos/pkg/models"
)

const cfdiTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Fecha="2024-03-%02dT10:00:00"
    FormaPago="01" SubTotal="100.00" Total="116.00" LugarExpedicion="64000">
  <cfdi:Emisor Rfc="ABC010101AAA" Nombre="PAPELERIA NORTE"/>
  <cfdi:Impuestos>
    <cfdi:Traslados><cfdi:Traslado Impuesto="002" Importe="16.00"/></cfdi:Traslados>
  </cfdi:Impuestos>
  <cfdi:Complemento>
    <tfd:TimbreFiscalDigital xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital" UUID="%s"/>
  </cfdi:Complemento>
</cfdi:Comprobante>`

func TestPrintReport(t *testing.T) {
	inv := func(file, uuid string) models.Invoice {
		return models.Invoice{
			IssuerName:     "PAPELERIA NORTE",
			Subtotal:       decimal.RequireFromString("1000"),
			VAT:            decimal.RequireFromString("160"),
			Total:          decimal.RequireFromString("1160"),
			UniqueID:       uuid,
			SourceFileName: file,
		}
	}
	a, b, c := inv("a.xml", "ABC"), inv("b.xml", "XYZ"), inv("c.xml", "ABC")
	_, parseErr := cfdi.Parse("roto.xml", strings.NewReader("<Comprobante>"))

	ds := report.AggregateResults([]batch.Result{
		{FileName: "a.xml", Invoice: &a},
		{FileName: "roto.xml", Err: parseErr},
		{FileName: "b.xml", Invoice: &b},
		{FileName: "c.xml", Invoice: &c},
	})

	var buf bytes.Buffer
	printReport(&buf, ds)
	got := buf.String()

	for _, want := range []string{
		"Error en roto.xml: malformed XML document",
		"Se detectaron 2 facturas duplicadas",
		"Reporte generado con 3 registros.",
		"Gasto Total: $3,480.00",
		"IVA Total:   $480.00",
		"Subtotal:    $3,000.00",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "cfdi: decode") {
		t.Errorf("expected the file-name prefix to be dropped:\n%s", got)
	}
	if strings.Contains(got, "b.xml") {
		t.Errorf("b.xml must not appear in the duplicate table:\n%s", got)
	}
}

func TestPrintReport_Empty(t *testing.T) {
	ds := report.AggregateResults([]batch.Result{
		{FileName: "roto.xml", Err: errors.New("boom")},
	})

	var buf bytes.Buffer
	printReport(&buf, ds)
	got := buf.String()

	if !strings.Contains(got, "Error en roto.xml: boom") {
		t.Errorf("expected the failure to be listed:\n%s", got)
	}
	if !strings.Contains(got, "no se generó el reporte") {
		t.Errorf("expected the empty batch message:\n%s", got)
	}
	if strings.Contains(got, "Gasto Total") {
		t.Errorf("expected no summary for an empty batch:\n%s", got)
	}
}

func TestFailureCause(t *testing.T) {
	_, err := cfdi.Parse("x.xml", strings.NewReader(`<Comprobante Total="abc"/>`))

	got := failureCause(err)
	if !strings.HasPrefix(got, "invalid numeric field (Total)") {
		t.Errorf("unexpected cause %q", got)
	}
	if got := failureCause(errors.New("plain")); got != "plain" {
		t.Errorf("expected plain error text, got %q", got)
	}
}

func TestReportCommand(t *testing.T) {
	clearConfigEnv(t)

	dir := t.TempDir()
	files := map[string]string{
		"01.xml":   fmt.Sprintf(cfdiTemplate, 1, "UUID-1"),
		"02.xml":   fmt.Sprintf(cfdiTemplate, 2, "UUID-2"),
		"03.xml":   fmt.Sprintf(cfdiTemplate, 3, "UUID-1"),
		"roto.xml": "<cfdi:Comprobante",
		"nota.txt": "not an invoice",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	output := filepath.Join(t.TempDir(), "reporte.xlsx")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"report", dir, "-o", output, "--workers", "2"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := buf.String()
	for _, want := range []string{
		"Procesando 4 facturas con 2 workers",
		"Error en roto.xml",
		"Se detectaron 2 facturas duplicadas",
		"Reporte generado con 3 registros.",
		"Gasto Total: $348.00",
		"Reporte guardado en " + output,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	f, err := excelize.OpenFile(output)
	if err != nil {
		t.Fatalf("workbook not written: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Gastos")
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[1][9] != "01.xml" || rows[3][9] != "03.xml" {
		t.Errorf("expected rows in file order, got %v", rows)
	}
	if dup, _ := f.GetRows("Duplicados"); len(dup) != 3 {
		t.Errorf("expected header + 2 duplicate rows, got %d", len(dup))
	}
}
