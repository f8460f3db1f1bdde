package cfdi_test

import (
	"errors"
	"fmt"
	"strings"

	"gastos/internal/cfdi"
)

// Example parses a stamped CFDI 4.0 invoice.
func Example() {
	doc := `<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4"
	    Fecha="2024-05-20T09:00:00" FormaPago="04" SubTotal="1000.00" Total="1160.00" LugarExpedicion="44100">
	  <cfdi:Emisor Rfc="GAS990101AB1" Nombre="GASOLINERA CENTRO"/>
	  <cfdi:Impuestos>
	    <cfdi:Traslados><cfdi:Traslado Impuesto="002" Importe="160.00"/></cfdi:Traslados>
	  </cfdi:Impuestos>
	  <cfdi:Complemento>
	    <tfd:TimbreFiscalDigital xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital" UUID="A1B2C3"/>
	  </cfdi:Complemento>
	</cfdi:Comprobante>`

	inv, err := cfdi.Parse("gasolina.xml", strings.NewReader(doc))
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(inv.IssueDate, inv.PaymentMethodLabel)
	fmt.Println(inv.IssuerName, inv.IssuerTaxID, inv.ExpeditionPlace)
	fmt.Println(inv.Subtotal.StringFixed(2), inv.VAT.StringFixed(2), inv.OtherTaxes.StringFixed(2), inv.Total.StringFixed(2))
	fmt.Println(inv.UniqueID)
	// Output:
	// 2024-05-20 04 Tarjeta de crédito
	// GASOLINERA CENTRO GAS990101AB1 44100
	// 1000.00 160.00 0.00 1160.00
	// A1B2C3
}

// ExampleParse_errorHandling shows how per-file failures are classified.
func ExampleParse_errorHandling() {
	_, err := cfdi.Parse("roto.xml", strings.NewReader(`<Comprobante SubTotal="abc"/>`))

	switch {
	case errors.Is(err, cfdi.ErrMalformedDocument):
		fmt.Println("not XML")
	case errors.Is(err, cfdi.ErrInvalidNumericField):
		var parseErr *cfdi.ParseError
		errors.As(err, &parseErr)
		fmt.Println("bad amount in", parseErr.FileName, parseErr.Field)
	}
	// Output:
	// bad amount in roto.xml SubTotal
}

func ExampleResolvePaymentMethod() {
	fmt.Println(cfdi.ResolvePaymentMethod("28"))
	fmt.Println(cfdi.ResolvePaymentMethod("31"))
	// Output:
	// 28 Tarjeta de débito
	// 31 (Otro)
}
