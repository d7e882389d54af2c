package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/calc"
	"github.com/Veraticus/shadow-payroll/internal/cli"
	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/config"
	"github.com/Veraticus/shadow-payroll/internal/estimate"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/Veraticus/shadow-payroll/internal/report"
	"github.com/Veraticus/shadow-payroll/internal/sheets"
	"github.com/Veraticus/shadow-payroll/internal/tui"
	"github.com/Veraticus/shadow-payroll/internal/tui/themes"
	"github.com/spf13/cobra"
)

type estimateOptions struct {
	exports     []string
	outputDir   string
	theme       string
	input       inputFlags
	interactive bool
	noLLM       bool
	showRaw     bool
	toSheets    bool
}

func estimateCmd() *cobra.Command {
	var opts estimateOptions

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate shadow payroll cost and PE risk for an assignment",
		Long: `Estimate the annual employer cost of an assignment and assess its
permanent establishment risk.

The exchange rate is looked up for the host currency unless --fx is given.
With --no-llm only the deterministic figures and the duration-based risk
heuristic are shown.`,
		Example: `  shadowpay estimate --host Germany --months 24 --salary 250000
  shadowpay estimate --interactive
  shadowpay estimate --host Brazil --export md,pdf --output ./reports`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEstimate(cmd, opts)
		},
	}

	addInputFlags(cmd, &opts.input)
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "edit the assignment in a form before estimating")
	cmd.Flags().BoolVar(&opts.noLLM, "no-llm", false, "skip the model estimate")
	cmd.Flags().BoolVar(&opts.showRaw, "show-raw", false, "print the raw model reply when it fails validation")
	cmd.Flags().StringSliceVar(&opts.exports, "export", nil, "export formats: md, html, pdf, csv, yaml")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", ".", "directory for exported files")
	cmd.Flags().BoolVar(&opts.toSheets, "sheets", false, "also write the result to Google Sheets")
	cmd.Flags().StringVar(&opts.theme, "theme", "default", "form theme (default, catppuccin-mocha)")

	return cmd
}

func runEstimate(cmd *cobra.Command, opts estimateOptions) error {
	if err := validateFormats(opts.exports); err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "Nothing was exported.")
	out := cmd.OutOrStdout()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	in, err := opts.input.build(a.settings.Limits)
	if err != nil {
		return common.NewUserError("invalid input", err)
	}

	prov, err := a.resolveRate(ctx, in, manualRate(cmd))
	if err != nil {
		return common.NewUserError("exchange rate unusable", err)
	}

	if opts.interactive {
		edited, err := tui.Run(ctx, in,
			tui.WithTheme(themes.ByName(opts.theme)),
			tui.WithCountries(config.CountryNames()),
			tui.WithCurrencies(config.DisplayCurrencies),
		)
		if errors.Is(err, tui.ErrCancelled) {
			fmt.Fprintln(out, cli.FormatInfo("Cancelled."))
			return nil
		}
		if err != nil {
			return err
		}
		prov = adjustProvenance(prov, edited)
		in = edited
	}

	doc, err := buildDocument(ctx, cmd.ErrOrStderr(), a, in, prov, opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, report.Terminal(doc))

	if err := writeExports(ctx, out, doc, opts.exports, opts.outputDir, exportBase(doc)); err != nil {
		return err
	}

	if opts.toSheets {
		url, err := exportSheet(ctx, sheets.FieldsTable(report.Title(doc), doc.Fields()), a.logger)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatSuccess("Written to "+url))
	}
	return nil
}

// adjustProvenance marks the rate as manual when the form changed it, or
// retargets it when the host country changed.
func adjustProvenance(prov model.FXProvenance, in *model.PayrollInput) model.FXProvenance {
	code := config.Currency(in.HostCountry())
	if in.FXRate() == prov.Rate && code == prov.Currency {
		return prov
	}
	return model.FXProvenance{Currency: code, Rate: in.FXRate(), Source: manualSource, AsOf: time.Now().UTC()}
}

// buildDocument runs the deterministic calculation and, unless disabled,
// the model estimate.
func buildDocument(ctx context.Context, progress io.Writer, a *app, in *model.PayrollInput, prov model.FXProvenance, opts estimateOptions) (report.Document, error) {
	base, err := calc.CalculateBase(in)
	if err != nil {
		return report.Document{}, common.NewUserError("calculation failed", err)
	}

	doc := report.Document{
		GeneratedAt: time.Now().UTC(),
		Input:       in.Snapshot(),
		Fallback:    calc.ClassifyPERisk(in.DurationMonths(), a.settings.Risk),
		FX:          prov,
		Summary:     calc.Summarize(in, base, a.settings.Contributions),
	}
	if opts.noLLM {
		return doc, nil
	}

	est, err := a.estimator(prov)
	if err != nil {
		return report.Document{}, err
	}

	spinner := cli.NewSpinner(progress, fmt.Sprintf("Estimating %s with %s", in.HostCountry(), est.Model()))
	spinner.Start()
	result, err := est.Estimate(ctx, in, base)
	spinner.Stop()
	if err != nil {
		return report.Document{}, describeEstimateError(progress, err, opts.showRaw)
	}

	doc.Result = result
	return doc, nil
}

// describeEstimateError turns an estimation failure into the message shown
// to the user, printing the raw reply first when asked.
func describeEstimateError(w io.Writer, err error, showRaw bool) error {
	var cerr *estimate.ContractError
	if showRaw && errors.As(err, &cerr) {
		fmt.Fprintln(w, cli.SubtleStyle.Render("Raw model reply:"))
		fmt.Fprintln(w, cerr.Raw)
	}

	kind := common.Kind(err)
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case common.IsContractViolation(err):
		hint := "the model reply did not match the expected format"
		if !showRaw {
			hint += "; rerun with --show-raw to see it"
		}
		return common.NewUserError(fmt.Sprintf("%s: %s", kind, hint), err)
	case errors.Is(err, common.ErrTransport):
		return common.NewUserError(fmt.Sprintf("%s: the model provider could not be reached", kind), err)
	default:
		return err
	}
}

func exportBase(doc report.Document) string {
	return fmt.Sprintf("shadow-payroll-%s-%s", slug(doc.Input.HostCountry), doc.GeneratedAt.Format("20060102-150405"))
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
		case len(out) > 0 && out[len(out)-1] != '-':
			out = append(out, '-')
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "assignment"
	}
	return string(out)
}
