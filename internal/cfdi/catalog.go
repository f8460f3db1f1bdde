package cfdi

import "sort"

// DefaultPaymentMethod is assumed when a document omits FormaPago.
const DefaultPaymentMethod = "99"

// paymentMethods is the subset of the SAT c_FormaPago catalog found on
// expense invoices. Labels keep the code prefix so exported reports stay
// sortable by code.
var paymentMethods = map[string]string{
	"01": "01 Efectivo",
	"02": "02 Cheque nominativo",
	"03": "03 Transferencia electrónica de fondos",
	"04": "04 Tarjeta de crédito",
	"05": "05 Monedero electrónico",
	"06": "06 Dinero electrónico",
	"08": "08 Vales de despensa",
	"28": "28 Tarjeta de débito",
	"29": "29 Tarjeta de servicios",
	"99": "99 Por definir",
}

// PaymentMethod is one catalog entry.
type PaymentMethod struct {
	Code  string
	Label string
}

// ResolvePaymentMethod returns the label for a FormaPago code. Unknown codes
// come back as "<code> (Otro)".
func ResolvePaymentMethod(code string) string {
	if label, ok := paymentMethods[code]; ok {
		return label
	}
	return code + " (Otro)"
}

// PaymentMethods lists the catalog ordered by code.
func PaymentMethods() []PaymentMethod {
	methods := make([]PaymentMethod, 0, len(paymentMethods))
	for code, label := range paymentMethods {
		methods = append(methods, PaymentMethod{Code: code, Label: label})
	}
	sort.Slice(methods, func(i, j int) bool {
		return methods[i].Code < methods[j].Code
	})
	return methods
}
