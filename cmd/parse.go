package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gastos/internal/cfdi"
	"gastos/internal/logger"
	"gastos/pkg/models"
)

var parseCmd = &cobra.Command{
	Use:   "parse [xml-file]",
	Short: "Extract the fiscal summary of one CFDI XML invoice as JSON",
	Long: `Parse a single CFDI XML invoice and print the fields used by the expense
report: issue date, payment method, issuer, expedition place, subtotal,
VAT, other taxes, total and the fiscal stamp UUID.

Amounts are printed as decimal strings. When the invoice itemizes no taxes,
VAT is taken from Total - SubTotal and "vat_inferred" is true.`,
	Example: `  # Print the summary to stdout
  gastos parse factura.xml

  # Save it to a file
  gastos parse factura.xml -o factura.json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

// ParseOutput represents the JSON output of the parse command
type ParseOutput struct {
	Invoice  *models.Invoice `json:"invoice"`
	Metadata ParseMetadata   `json:"metadata"`
}

// ParseMetadata contains information about the parse operation
type ParseMetadata struct {
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size_bytes"`
	ProcessedAt time.Time `json:"processed_at"`
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runParse(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("parse")

	outputPath, _ := cmd.Flags().GetString("output")
	xmlPath := args[0]

	fileInfo, err := validateXMLFile(xmlPath, log)
	if err != nil {
		return err
	}

	file, err := os.Open(xmlPath)
	if err != nil {
		return fmt.Errorf("failed to open XML file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close XML file")
		}
	}()

	inv, err := cfdi.Parse(filepath.Base(xmlPath), file)
	if err != nil {
		return handleParseError(err, log)
	}

	log.Info().
		Str("file", xmlPath).
		Str("uuid", inv.UniqueID).
		Str("total", inv.Total.StringFixed(2)).
		Bool("vat_inferred", inv.VATInferred).
		Msg("Invoice parsed")

	output := ParseOutput{
		Invoice: inv,
		Metadata: ParseMetadata{
			FileName:    filepath.Base(xmlPath),
			FileSize:    fileInfo.Size(),
			ProcessedAt: time.Now(),
		},
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(jsonData)).
			Msg("Invoice data written to file")
		return nil
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
	return err
}

// validateXMLFile checks that path is a readable, non-empty regular file
func validateXMLFile(path string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("XML file not found: %s", path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied accessing XML file: %s", path)
		}
		return nil, fmt.Errorf("error accessing XML file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}

	if !isXMLPath(path) {
		log.Warn().
			Str("file", path).
			Msg("File does not have .xml extension")
	}

	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("XML file is empty: %s", path)
	}

	return fileInfo, nil
}

func isXMLPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}

// handleParseError provides user-friendly messages for parse failures
func handleParseError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Invoice parsing failed")

	var parseErr *cfdi.ParseError
	switch {
	case errors.Is(err, cfdi.ErrMalformedDocument):
		return fmt.Errorf("the file is not a well-formed XML document: %w", err)
	case errors.Is(err, cfdi.ErrInvalidNumericField) && errors.As(err, &parseErr):
		return fmt.Errorf("attribute %s does not hold a valid amount: %w", parseErr.Field, err)
	default:
		return fmt.Errorf("invoice parsing failed: %w", err)
	}
}
