package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/calc"
	"github.com/Veraticus/shadow-payroll/internal/cli"
	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/config"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/Veraticus/shadow-payroll/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func calcCmd() *cobra.Command {
	var flags inputFlags

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Show the deterministic monthly breakdown without a model estimate",
		Long: `Compute monthly salary, benefits and gross in local currency, the
contribution summary and the duration-based PE risk. No network calls are
made: the rate is --fx or its default.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(viper.GetViper())
			if err != nil {
				return common.NewUserError("invalid configuration", err)
			}

			in, err := flags.build(settings.Limits)
			if err != nil {
				return common.NewUserError("invalid input", err)
			}

			base, err := calc.CalculateBase(in)
			if err != nil {
				return common.NewUserError("calculation failed", err)
			}

			doc := report.Document{
				GeneratedAt: time.Now().UTC(),
				Input:       in.Snapshot(),
				Fallback:    calc.ClassifyPERisk(in.DurationMonths(), settings.Risk),
				FX: model.FXProvenance{
					Currency: config.Currency(in.HostCountry()),
					Rate:     in.FXRate(),
					Source:   manualSource,
					AsOf:     time.Now().UTC(),
				},
				Summary: calc.Summarize(in, base, settings.Contributions),
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Terminal(doc))
			return nil
		},
	}

	addInputFlags(cmd, &flags)
	return cmd
}

func riskCmd() *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Classify PE risk from assignment duration alone",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(viper.GetViper())
			if err != nil {
				return common.NewUserError("invalid configuration", err)
			}
			if months < settings.Limits.MinDuration || months > settings.Limits.MaxDuration {
				return common.NewUserError(
					fmt.Sprintf("--months must be between %d and %d", settings.Limits.MinDuration, settings.Limits.MaxDuration),
					common.ErrValidation)
			}

			tier := calc.ClassifyPERisk(months, settings.Risk)
			days := months * calc.DaysPerMonth
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", cli.BoldStyle.Render("PE risk:"), cli.FormatTier(tier))
			fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf(
				"%d months is about %d days; Low below %d days, Medium below %d, High after that.",
				months, days, settings.Risk.LowDays, settings.Risk.HighDays())))
			fmt.Fprintln(out, cli.FormatWarning(model.Disclaimer))
			return nil
		},
	}

	cmd.Flags().IntVarP(&months, "months", "m", 36, "assignment duration in months")
	return cmd
}
