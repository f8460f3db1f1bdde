package cmd

import (
	"github.com/spf13/cobra"

	"gastos/internal/cfdi"
)

var paymentMethodsCmd = &cobra.Command{
	Use:   "payment-methods",
	Short: "List the SAT payment method codes (FormaPago) known to the report",
	Long: `List the FormaPago codes the report resolves to a label. Any other code
is shown in the report as "<code> (Otro)".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lines := make([][]string, 0)
		for _, m := range cfdi.PaymentMethods() {
			lines = append(lines, []string{m.Code, m.Label})
		}
		writeTable(cmd.OutOrStdout(), []string{"Código", "Forma Pago"}, lines)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(paymentMethodsCmd)
}
