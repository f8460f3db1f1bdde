package services

import (
	"context"

	"gastos/internal/report"
)

// ReportExporter defines the interface for writing a finished expense report
// to a destination such as a workbook or a Google Sheet.
type ReportExporter interface {
	// Export writes every record of the dataset. Implementations must not
	// modify the dataset.
	Export(ctx context.Context, ds *report.Dataset) error
}
