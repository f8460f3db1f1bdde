// Package cfdi extracts the fiscal summary of Mexican CFDI invoices.
//
// Documents are walked as a generic element tree and every tag is compared
// by local name, so CFDI 3.3 and 4.0 files (and files with unusual prefixes)
// go through the same code path. The parser reads only the fields needed for
// an expense report; it performs no SAT schema or signature validation.
package cfdi

import (
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"gastos/pkg/models"
)

// Defaults for optional fields.
const (
	DefaultIssuerName      = "Sin Nombre"
	DefaultExpeditionPlace = "N/A"
)

// VATCode identifies IVA in the SAT c_Impuesto catalog.
const VATCode = "002"

// Parse reads one CFDI document and returns its fiscal summary.
//
// Failures are returned as *ParseError wrapping ErrMalformedDocument or
// ErrInvalidNumericField. Missing optional attributes are not errors; they
// take the documented defaults.
func Parse(fileName string, r io.Reader) (*models.Invoice, error) {
	root, err := decodeTree(r)
	if err != nil {
		return nil, newParseError(fileName, "decode", "", ErrMalformedDocument, err)
	}

	inv := &models.Invoice{
		IssueDate:          issueDate(root.attr("Fecha", "")),
		ExpeditionPlace:    root.attr("LugarExpedicion", DefaultExpeditionPlace),
		PaymentMethodLabel: ResolvePaymentMethod(root.attr("FormaPago", DefaultPaymentMethod)),
		IssuerName:         DefaultIssuerName,
		SourceFileName:     fileName,
	}

	if inv.Subtotal, err = readAmount(fileName, root, "SubTotal"); err != nil {
		return nil, err
	}
	if inv.Total, err = readAmount(fileName, root, "Total"); err != nil {
		return nil, err
	}

	var vat, other decimal.Decimal
	for _, child := range root.children {
		switch child.name() {
		case "Emisor":
			inv.IssuerName = child.attr("Nombre", DefaultIssuerName)
			inv.IssuerTaxID = child.attr("Rfc", "")

		case "Complemento":
			for _, sub := range child.children {
				if sub.name() == "TimbreFiscalDigital" {
					inv.UniqueID = sub.attr("UUID", "")
				}
			}

		case "Impuestos":
			if err := sumTaxes(fileName, child, &vat, &other); err != nil {
				return nil, err
			}
		}
	}

	inv.VAT = vat
	inv.OtherTaxes = other
	inferVAT(inv)

	return inv, nil
}

// sumTaxes accumulates the document-level tax summary. Transfers coded 002
// are VAT; any other transfer and every withholding count as other taxes.
func sumTaxes(fileName string, taxes *node, vat, other *decimal.Decimal) error {
	for _, group := range taxes.children {
		switch group.name() {
		case "Traslados":
			for _, t := range group.children {
				amount, err := readAmount(fileName, t, "Importe")
				if err != nil {
					return err
				}
				if t.attr("Impuesto", "") == VATCode {
					*vat = vat.Add(amount)
				} else {
					*other = other.Add(amount)
				}
			}

		case "Retenciones":
			for _, w := range group.children {
				amount, err := readAmount(fileName, w, "Importe")
				if err != nil {
					return err
				}
				*other = other.Add(amount)
			}
		}
	}
	return nil
}

// inferVAT assigns Total - Subtotal to VAT when the document itemizes no
// taxes at all. This ignores the tax regime, so an exempt invoice with a
// rounding difference is reported as VAT; VATInferred flags such records.
func inferVAT(inv *models.Invoice) {
	if !inv.VAT.IsZero() || !inv.OtherTaxes.IsZero() {
		return
	}
	diff := inv.Total.Sub(inv.Subtotal)
	if diff.IsPositive() {
		inv.VAT = diff
		inv.VATInferred = true
	}
}

// readAmount parses a decimal attribute, defaulting to zero when absent.
func readAmount(fileName string, n *node, field string) (decimal.Decimal, error) {
	raw, ok := n.lookup(field)
	if !ok {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, newParseError(fileName, "readAmount", field, ErrInvalidNumericField, err)
	}
	return amount, nil
}

// issueDate keeps the date part of an ISO date-time such as 2024-03-01T10:15:00.
func issueDate(fecha string) string {
	date, _, _ := strings.Cut(fecha, "T")
	return date
}
