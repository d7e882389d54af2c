package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/shadow-payroll/internal/cli"
	"github.com/Veraticus/shadow-payroll/internal/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func countriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List supported countries with their region and currency",
		RunE: func(cmd *cobra.Command, _ []string) error {
			country := lipgloss.NewStyle().Width(24)
			region := lipgloss.NewStyle().Width(26)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.TableHeaderStyle.Render(
				lipgloss.JoinHorizontal(lipgloss.Top, country.Render("Country"), region.Render("Region"), "Currency")))
			for _, j := range config.Jurisdictions {
				fmt.Fprintln(out, lipgloss.JoinHorizontal(lipgloss.Top,
					country.Render(j.Country), region.Render(j.Region), j.Currency))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.SubtleStyle.Render("Display currencies: "+strings.Join(config.DisplayCurrencies, ", ")))
			return nil
		},
	}
}
