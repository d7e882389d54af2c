package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/calc"
	"github.com/Veraticus/shadow-payroll/internal/cli"
	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/config"
	"github.com/Veraticus/shadow-payroll/internal/estimate"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/Veraticus/shadow-payroll/internal/report"
	"github.com/Veraticus/shadow-payroll/internal/scenario"
	"github.com/Veraticus/shadow-payroll/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

type compareOptions struct {
	exports   []string
	outputDir string
	savePath  string
	toSheets  bool
}

func compareCmd() *cobra.Command {
	var opts compareOptions

	cmd := &cobra.Command{
		Use:   "compare <scenarios.yaml>",
		Short: "Estimate up to three scenarios and compare their costs",
		Long: `Estimate every scenario in a YAML file and line up their costs.

Each entry may set any assignment field; omitted fields take the defaults.
An entry without fx_rate uses the looked-up rate for its host currency.
The md, html and pdf exports hold the full report: a summary, the cost
chart and table, a section per scenario and the disclaimer.

  scenarios:
    - name: Berlin
      host_country: Germany
      duration_months: 24
    - host_country: Brazil
      fx_rate: 5.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.exports, "export", nil, "export formats: md, html, pdf, csv")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", ".", "directory for exported files")
	cmd.Flags().StringVar(&opts.savePath, "save", "", "write the resolved scenario inputs to this YAML file")
	cmd.Flags().BoolVar(&opts.toSheets, "sheets", false, "also write the comparison to Google Sheets")
	return cmd
}

type estimated struct {
	input  *model.PayrollInput
	result *model.EstimationResult
	name   string
}

func runCompare(cmd *cobra.Command, path string, opts compareOptions) error {
	for _, f := range opts.exports {
		switch strings.ToLower(f) {
		case "md", "html", "pdf", "csv":
		default:
			return common.NewUserError(fmt.Sprintf("unknown comparison export format %q (choose from md, html, pdf, csv)", f), common.ErrValidation)
		}
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "No comparison was produced.")
	out := cmd.OutOrStdout()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	defaults := model.NewPayrollInput(a.settings.Limits).Snapshot()
	defaults.FXRate = 0
	entries, err := scenario.Load(config.ExpandPath(path), defaults, a.settings.Scenarios.Capacity)
	if err != nil {
		return common.NewUserError("cannot read scenarios", err)
	}

	spinner := cli.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Estimating %d scenarios", len(entries)))
	spinner.Start()
	results, err := estimateAll(ctx, a, entries)
	spinner.Stop()
	if err != nil {
		return err
	}

	policy := scenario.RejectWhenFull
	if a.settings.Scenarios.EvictOldest {
		policy = scenario.EvictOldest
	}
	store := scenario.NewStore(a.settings.Scenarios.Capacity, policy)
	for _, r := range results {
		if _, err := store.Add(r.name, r.input, r.result); err != nil {
			return err
		}
	}

	cmp, err := scenario.Compare(store.List())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, report.ComparisonTerminal(cmp))

	for _, sc := range store.List() {
		if risk := sc.Result().PERisk(); risk.Disagrees() {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s: model rates PE risk %s, duration heuristic suggests %s",
				sc.Name(), risk.RiskLevel, risk.FallbackLevel)))
		}
	}

	if err := writeComparisonExports(ctx, out, cmp, store.List(), opts); err != nil {
		return err
	}

	if opts.savePath != "" {
		if err := scenario.Save(config.ExpandPath(opts.savePath), store.List()); err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatSuccess("Saved scenarios to "+opts.savePath))
	}

	if opts.toSheets {
		url, err := exportSheet(ctx, sheets.GridTable("Scenario Comparison", report.ComparisonTable(cmp)), a.logger)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatSuccess("Written to "+url))
	}
	return nil
}

// estimateAll estimates every entry concurrently and returns the results in file order.
// The first failure cancels the rest.
func estimateAll(ctx context.Context, a *app, entries []scenario.Entry) ([]estimated, error) {
	type job struct {
		est  *estimate.Estimator
		in   *model.PayrollInput
		name string
	}

	jobs := make([]job, 0, len(entries))
	for _, entry := range entries {
		snap := entry.Input
		manual := snap.FXRate > 0
		if !manual {
			snap.FXRate = 1
		}
		in, err := snap.Input(a.settings.Limits)
		if err != nil {
			return nil, common.NewUserError(fmt.Sprintf("scenario %q is invalid", entry.Label()), err)
		}
		prov, err := a.resolveRate(ctx, in, manual)
		if err != nil {
			return nil, common.NewUserError(fmt.Sprintf("scenario %q has an unusable exchange rate", entry.Label()), err)
		}
		est, err := a.estimator(prov)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job{est: est, in: in, name: entry.Label()})
	}

	results := make([]estimated, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			base, err := calc.CalculateBase(j.in)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("scenario %q: calculation failed", j.name), err)
			}
			result, err := j.est.Estimate(gctx, j.in, base)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("scenario %q: %s", j.name, common.Kind(err)), err)
			}
			results[i] = estimated{input: j.in, result: result, name: j.name}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeComparisonExports writes each format as shadow-payroll-comparison.<format>.
// md, html and pdf carry the full report with a section per scenario.
func writeComparisonExports(ctx context.Context, out io.Writer, cmp scenario.Comparison, scenarios []scenario.Scenario, opts compareOptions) error {
	if len(opts.exports) == 0 {
		return nil
	}
	dir := config.ExpandPath(opts.outputDir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	doc := report.ComparisonReport(cmp, scenarios, time.Now().UTC())
	for _, format := range opts.exports {
		format = strings.ToLower(format)
		data, err := renderComparison(ctx, cmp, doc, format)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", format, err)
		}
		path := filepath.Join(dir, "shadow-payroll-comparison."+format)
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintln(out, cli.FormatSuccess("Exported "+path))
	}
	return nil
}

func renderComparison(ctx context.Context, cmp scenario.Comparison, doc, format string) ([]byte, error) {
	switch format {
	case "md":
		return []byte(doc), nil
	case "html", "pdf":
		page, err := report.HTML(report.ComparisonTitle, doc)
		if err != nil {
			return nil, err
		}
		if format == "html" {
			return []byte(page), nil
		}
		return report.NewPDFRenderer(report.WithChromePath(viper.GetString("export.chrome_path"))).Render(ctx, page)
	case "csv":
		var buf bytes.Buffer
		if err := report.ComparisonCSV(&buf, cmp); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown comparison export format %q", common.ErrValidation, format)
	}
}
