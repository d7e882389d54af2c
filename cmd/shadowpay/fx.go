package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/shadow-payroll/internal/cli"
	"github.com/Veraticus/shadow-payroll/internal/config"
	"github.com/spf13/cobra"
)

func fxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fx <currency|country>",
		Short: "Look up the USD exchange rate for a currency or country",
		Example: `  shadowpay fx EUR
  shadowpay fx Argentina`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			code := currencyArg(args[0])
			q := a.fxClient().Resolve(cmd.Context(), code)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "1 USD = %s %s\n", formatRate(q.Rate), q.Currency)
			detail := "source: " + q.Source
			if !q.AsOf.IsZero() {
				detail += ", as of " + q.AsOf.Format("2006-01-02 15:04 MST")
			}
			fmt.Fprintln(out, cli.SubtleStyle.Render(detail))
			if q.Stale {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Live rate unavailable (%v); showing a fallback rate.", q.Cause)))
			}
			return nil
		},
	}
	return cmd
}

// currencyArg accepts an ISO code or a country from the jurisdiction table.
func currencyArg(arg string) string {
	if j, ok := config.Lookup(arg); ok {
		return j.Currency
	}
	return strings.ToUpper(strings.TrimSpace(arg))
}
