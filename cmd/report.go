package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gastos/internal/batch"
	"gastos/internal/cfdi"
	"gastos/internal/export"
	"gastos/internal/logger"
	"gastos/internal/money"
	"gastos/internal/report"
	"gastos/internal/sheets"
	"gastos/pkg/services"
)

var reportCmd = &cobra.Command{
	Use:   "report [xml-files or folders...]",
	Short: "Build the expense report for a batch of CFDI XML invoices",
	Long: `Parse every CFDI XML invoice given as argument (folders are searched
recursively for *.xml files), detect duplicated invoices by UUID and write a
consolidated expense report to an Excel workbook.

Files that cannot be parsed are reported and skipped; the rest of the batch
is still processed. Duplicated invoices are listed but kept in the report
and in the totals.

The amount columns (Subtotal, IVA, Otros Imp, Total) are formatted as
currency. When a duplicate is found, the workbook gets an extra
"Duplicados" sheet.

Optional environment variables:
  BATCH_WORKERS - Number of parallel parsers (default: 8)
  REPORT_OUTPUT - Workbook path (default: Reporte_Gastos_CS.xlsx)
  REPORT_SHEET - Primary sheet name (default: Gastos)
  GOOGLE_SHEET_URL - Also append the rows to this Google Sheet
  GOOGLE_SHEET_WORKSHEET - Worksheet for the Google Sheet (default: Gastos)
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - required with a sheet URL`,
	Example: `  # Report for every XML in a folder
  gastos report ./facturas

  # Mix files and folders, custom output
  gastos report enero.xml ./febrero -o Reporte_Q1.xlsx

  # Check the batch without writing anything
  gastos report ./facturas --dry-run --verbose

  # Also append to a Google Sheet
  gastos report ./facturas --sheet-url https://docs.google.com/spreadsheets/d/<id>/edit`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("output", "o", "", "Workbook output path (default: REPORT_OUTPUT)")
	reportCmd.Flags().Int("workers", 0, "Number of parallel parsers (default: BATCH_WORKERS)")
	reportCmd.Flags().String("sheet-url", "", "Google Sheets URL to append the report to (default: GOOGLE_SHEET_URL)")
	reportCmd.Flags().Bool("dry-run", false, "Process files but don't write any report")
	reportCmd.Flags().Bool("verbose", false, "Show per-file progress")
}

func runReport(cmd *cobra.Command, args []string) error {
	const op = "report"

	batchID := uuid.NewString()
	log := logger.WithBatch("report", batchID)
	out := cmd.OutOrStdout()

	outputPath, _ := cmd.Flags().GetString("output")
	workers, _ := cmd.Flags().GetInt("workers")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if outputPath == "" {
		outputPath = cfg.ReportOutput
	}
	if workers <= 0 {
		workers = cfg.BatchWorkers
	}
	if sheetURL == "" {
		sheetURL = cfg.GoogleSheetURL
	}

	log.Info().
		Strs("inputs", args).
		Str("output", outputPath).
		Int("workers", workers).
		Bool("dry_run", dryRun).
		Msg("Starting expense report")

	files, err := batch.DiscoverXMLFiles(args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No se encontraron archivos XML.")
		return nil
	}

	ctx, cancel := signalContext(30*time.Minute, log)
	defer cancel()

	processor := batch.NewProcessor(workers, log)
	if verbose {
		processor.WithProgress(progressPrinter(out))
	}

	fmt.Fprintf(out, "Procesando %d facturas con %d workers...\n", len(files), workers)
	results := processor.Process(ctx, batch.FileSources(files))
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: batch interrupted: %w", op, err)
	}

	ds := report.AggregateResults(results)
	printReport(out, ds)

	if ds.Empty() {
		log.Info().Int("failed", len(ds.Failures)).Msg("No records, report not written")
		return nil
	}

	if dryRun {
		fmt.Fprintln(out, "Modo dry run: no se escribió ningún reporte.")
		return nil
	}

	exporters, err := buildExporters(ctx, outputPath, sheetURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, exporter := range exporters {
		if err := exporter.Export(ctx, ds); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	fmt.Fprintf(out, "Reporte guardado en %s\n", outputPath)
	if sheetURL != "" {
		fmt.Fprintf(out, "Google Sheet actualizado: %s\n", sheetURL)
	}

	log.Info().
		Int("records", len(ds.Records)).
		Int("duplicates", len(ds.Duplicates)).
		Int("failed", len(ds.Failures)).
		Str("total", ds.Summary.Total.StringFixed(2)).
		Msg("Expense report completed")

	return nil
}

func buildExporters(ctx context.Context, outputPath, sheetURL string) ([]services.ReportExporter, error) {
	exporters := []services.ReportExporter{
		export.NewWorkbookExporter(outputPath, cfg.ReportSheet),
	}

	if sheetURL != "" {
		sheetsService, err := sheets.NewSheetsService(ctx, sheetURL, cfg.GoogleSheetWorksheet)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google Sheets service: %w", err)
		}
		exporters = append(exporters, sheetsService)
	}

	return exporters, nil
}

// signalContext creates a context with timeout that is also canceled on
// SIGINT or SIGTERM.
func signalContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling batch")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func progressPrinter(w io.Writer) batch.ProgressFunc {
	return func(done, total int, result batch.Result) {
		fmt.Fprintf(w, "[%d/%d] %s - %s", done, total, result.FileName, statusLabel(result))
		switch {
		case result.Failed():
			fmt.Fprintf(w, " (%s)", result.Err)
		case result.Invoice != nil:
			fmt.Fprintf(w, " (%s)", money.Format(result.Invoice.Total))
		}
		fmt.Fprintln(w)
	}
}

func statusLabel(result batch.Result) string {
	switch {
	case result.Failed():
		return "ERROR"
	case result.Invoice != nil && result.Invoice.VATInferred:
		return "IVA INFERIDO"
	default:
		return "OK"
	}
}

// printReport writes the per-file errors, the duplicate alert and the
// summary metrics for ds.
func printReport(w io.Writer, ds *report.Dataset) {
	fmt.Fprintln(w)
	for _, f := range ds.Failures {
		fmt.Fprintf(w, "Error en %s: %s\n", f.FileName, failureCause(f.Err))
	}
	if len(ds.Failures) > 0 {
		fmt.Fprintln(w)
	}

	if ds.Empty() {
		fmt.Fprintln(w, "No se pudo extraer ninguna factura; no se generó el reporte.")
		return
	}

	if ds.HasDuplicates() {
		fmt.Fprintf(w, "¡ALERTA! Se detectaron %d facturas duplicadas (Mismo UUID):\n", len(ds.Duplicates))
		writeTable(w, report.DuplicateColumns, duplicateLines(ds))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Reporte generado con %d registros.\n", ds.Summary.Records)
	if ds.Summary.Inferred > 0 {
		fmt.Fprintf(w, "IVA inferido como Total - Subtotal en %d facturas sin impuestos desglosados.\n", ds.Summary.Inferred)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "Gasto Total: %s\n", money.Format(ds.Summary.Total))
	fmt.Fprintf(w, "IVA Total:   %s\n", money.Format(ds.Summary.VAT))
	fmt.Fprintf(w, "Subtotal:    %s\n", money.Format(ds.Summary.Subtotal))
	fmt.Fprintln(w, strings.Repeat("=", 40))
}

// failureCause drops the parser's file-name prefix, which is already printed.
func failureCause(err error) string {
	if err == nil {
		return "no record produced"
	}
	var parseErr *cfdi.ParseError
	if errors.As(err, &parseErr) {
		if parseErr.Field != "" {
			return fmt.Sprintf("%v (%s): %v", parseErr.Kind, parseErr.Field, parseErr.Err)
		}
		return fmt.Sprintf("%v: %v", parseErr.Kind, parseErr.Err)
	}
	return err.Error()
}

// duplicateLines renders the duplicate view as text, Total as currency.
func duplicateLines(ds *report.Dataset) [][]string {
	lines := make([][]string, len(ds.Duplicates))
	for i, inv := range ds.Duplicates {
		lines[i] = []string{
			inv.SourceFileName,
			money.Format(inv.Total),
			inv.IssuerName,
			inv.UniqueID,
		}
	}
	return lines
}

func writeTable(w io.Writer, header []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}
