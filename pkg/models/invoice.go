package models

import "github.com/shopspring/decimal"

// Invoice is the fiscal summary of one CFDI document.
type Invoice struct {
	// Header
	IssueDate          string `json:"issue_date"`           // Fecha, date part only (YYYY-MM-DD)
	PaymentMethodLabel string `json:"payment_method_label"` // FormaPago resolved through the SAT catalog
	ExpeditionPlace    string `json:"expedition_place"`     // LugarExpedicion postal code

	// Issuer
	IssuerName  string `json:"issuer_name"`   // Emisor/@Nombre
	IssuerTaxID string `json:"issuer_tax_id"` // Emisor/@Rfc

	// Amounts as declared by the document
	Subtotal   decimal.Decimal `json:"subtotal"`
	VAT        decimal.Decimal `json:"vat"`         // IVA, tax code 002
	OtherTaxes decimal.Decimal `json:"other_taxes"` // IEPS, ISR and every withholding
	Total      decimal.Decimal `json:"total"`

	// VATInferred marks a VAT amount taken from Total - Subtotal because the
	// document itemized no taxes at all.
	VATInferred bool `json:"vat_inferred"`

	// Traceability
	UniqueID       string `json:"uuid"` // TimbreFiscalDigital/@UUID
	SourceFileName string `json:"source_file"`
}
