package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"gastos/internal/logger"
	"gastos/internal/money"
	"gastos/internal/report"
)

// DefaultWorksheet is used when no worksheet name is given.
const DefaultWorksheet = "Gastos"

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Service appends expense reports to a Google Sheet
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	worksheet     string
	log           zerolog.Logger
}

// NewSheetsService creates a new Google Sheets service
func NewSheetsService(ctx context.Context, sheetURL, worksheet string) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	// Get Google credentials
	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	if worksheet == "" {
		worksheet = DefaultWorksheet
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		log:           log,
	}, nil
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format: %q", url)
	}
	return matches[1], nil
}

// Export appends every record of the dataset to the worksheet, creating the
// worksheet and its header row on first use.
func (s *Service) Export(ctx context.Context, ds *report.Dataset) error {
	const op = "Sheets.Export"

	s.log.Info().
		Str("sheet", s.worksheet).
		Int("rows", len(ds.Records)).
		Msg("Writing report to Google Sheet")

	if err := s.ensureSheetWithHeaders(ctx); err != nil {
		return fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	valueRange := &sheets.ValueRange{Values: ds.Rows()}

	_, err := s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		columnRange(s.worksheet),
		valueRange,
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Int("rows_written", len(valueRange.Values)).
		Msg("Successfully wrote report to Google Sheet")

	return nil
}

// columnRange covers all report columns of a worksheet, A to J.
func columnRange(worksheet string) string {
	last := rune('A' + len(report.Columns) - 1)
	return fmt.Sprintf("%s!A:%c", worksheet, last)
}

func headerRange(worksheet string) string {
	last := rune('A' + len(report.Columns) - 1)
	return fmt.Sprintf("%s!A1:%c1", worksheet, last)
}

// headerValues returns the report header as a single sheet row.
func headerValues() [][]interface{} {
	row := make([]interface{}, len(report.Columns))
	for i, col := range report.Columns {
		row[i] = col
	}
	return [][]interface{}{row}
}

// ensureSheetWithHeaders ensures the worksheet exists and has proper headers
func (s *Service) ensureSheetWithHeaders(ctx context.Context) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == s.worksheet {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		s.log.Info().Str("sheet", s.worksheet).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: s.worksheet},
				}},
			},
		}

		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}

		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange(s.worksheet)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	s.log.Info().Str("sheet", s.worksheet).Msg("Adding headers to sheet")

	_, err = s.sheetsService.Spreadsheets.Values.Update(
		s.spreadsheetID,
		headerRange(s.worksheet),
		&sheets.ValueRange{Values: headerValues()},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to add headers: %w", op, err)
	}

	if err := s.formatSheet(ctx, sheetID); err != nil {
		s.log.Warn().Err(err).Msg("Failed to format sheet, continuing anyway")
	}

	return nil
}

// formatSheet makes the header row bold and applies the currency format to
// the amount columns.
func (s *Service) formatSheet(ctx context.Context, sheetID int64) error {
	const op = "formatSheet"

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: formatRequests(sheetID)}
	_, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format sheet: %w", op, err)
	}

	return nil
}

func formatRequests(sheetID int64) []*sheets.Request {
	columns := int64(len(report.Columns))
	first := int64(report.CurrencyColumns[0])
	last := int64(report.CurrencyColumns[len(report.CurrencyColumns)-1]) + 1

	return []*sheets.Request{
		// Header row bold
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{
							Red:   0.9,
							Green: 0.9,
							Blue:  0.9,
						},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		// Amount columns below the header
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					StartColumnIndex: first,
					EndColumnIndex:   last,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: money.ExcelFormat,
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}
}
