package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/estimate"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runResult struct {
	stdout string
	stderr string
	err    error
}

// run executes the CLI with a clean viper, an empty home and no provider keys.
func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	if os.Getenv("SHADOWPAY_CACHE_BACKEND") == "" {
		t.Setenv("SHADOWPAY_CACHE_BACKEND", "none")
	}

	viper.Reset()
	cfgFile = ""
	t.Cleanup(viper.Reset)

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)

	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func validReply() map[string]any {
	return map[string]any{
		"line_items": []any{
			map[string]any{"label": "Income Tax", "amount_usd": 120000.0, "amount_local": 120000000.0},
			map[string]any{"label": "Social Security - Employee", "amount_usd": 40000.0, "amount_local": 40000000.0},
			map[string]any{"label": "Social Security - Employer", "amount_usd": 96000.0, "amount_local": 96000000.0},
			map[string]any{
				"label": "PE Administration", "amount_usd": 8000.0, "amount_local": 8000000.0,
				"is_range": true, "range_low_usd": 5000.0, "range_high_usd": 12000.0,
				"range_disclaimer": "Depends on local advisor fees",
			},
			map[string]any{"label": "Housing Allowance", "amount_usd": 50000.0, "amount_local": 50000000.0},
			map[string]any{"label": "Education Allowance", "amount_usd": 30000.0, "amount_local": 30000000.0},
		},
		"total_employer_cost_usd":   744000.0,
		"total_employer_cost_local": 744000000.0,
		"local_currency":            "ARS",
		"overall_rating": map[string]any{
			"level":                  "High",
			"region_name":            "Latin America",
			"typical_range_low_usd":  400000.0,
			"typical_range_high_usd": 650000.0,
		},
		"item_ratings": []any{
			map[string]any{"item_label": "Income Tax", "level": "Medium", "context": "Progressive rates"},
		},
		"pe_risk": map[string]any{
			"risk_level":               "High",
			"pe_threshold_days":        183,
			"assignment_duration_days": 1080,
			"exceeds_threshold":        true,
			"treaty_exists":            false,
			"no_treaty_warning":        "No treaty: double taxation is likely.",
			"mitigation_suggestions":   []any{"Use a local employer of record"},
			"economic_employer_note":   "The host entity bears the cost.",
		},
		"insights_paragraph": "Social security dominates the employer cost. Housing is the main lever.",
	}
}

// fakeOpenAI answers chat completions with content and counts the calls.
func fakeOpenAI(t *testing.T, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
		})
	}))
	t.Cleanup(srv.Close)

	t.Setenv("SHADOWPAY_LLM_BASE_URL", srv.URL)
	t.Setenv("SHADOWPAY_LLM_OPENAI_API_KEY", "test-key")
	t.Setenv("SHADOWPAY_LLM_RATE_LIMIT", "0")
	return srv, &calls
}

func replyJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(validReply())
	require.NoError(t, err)
	return string(b)
}

func TestVersion(t *testing.T) {
	res := run(t, "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, "shadowpay dev\n", res.stdout)
}

func TestRiskCommand(t *testing.T) {
	tests := []struct {
		months string
		want   string
	}{
		{"4", "Low"},
		{"7", "Medium"},
		{"10", "High"},
	}
	for _, tt := range tests {
		t.Run(tt.months, func(t *testing.T) {
			res := run(t, "", "risk", "--months", tt.months)
			require.NoError(t, res.err)
			assert.Contains(t, res.stdout, "PE risk: "+tt.want)
		})
	}
}

func TestRiskCommandRejectsDuration(t *testing.T) {
	res := run(t, "", "risk", "--months", "0")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, common.ErrValidation)
}

func TestRiskCommandUsesConfiguredThresholds(t *testing.T) {
	t.Setenv("SHADOWPAY_RISK_LOW_DAYS", "400")
	res := run(t, "", "risk", "--months", "10")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "PE risk: Low")
}

func TestCalcCommand(t *testing.T) {
	res := run(t, "", "calc", "--host", "Germany", "--fx", "0.9", "--salary", "120000", "--months", "12")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Germany")
	assert.Contains(t, res.stdout, "Monthly gross")
	assert.Contains(t, res.stdout, "Duration-based risk")
}

func TestCalcCommandRejectsInvalidInput(t *testing.T) {
	res := run(t, "", "calc", "--months", "61")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, common.ErrValidation)
	assert.Contains(t, res.err.Error(), "invalid input")
}

func TestCountriesCommand(t *testing.T) {
	res := run(t, "", "countries")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Argentina")
	assert.Contains(t, res.stdout, "Latin America")
	assert.Contains(t, res.stdout, "Display currencies: USD, EUR")
}

func TestEstimateCommand(t *testing.T) {
	_, calls := fakeOpenAI(t, "```json\n"+replyJSON(t)+"\n```")
	out := t.TempDir()

	res := run(t, "", "estimate", "--host", "Argentina", "--fx", "1000",
		"--export", "md,csv,yaml,html", "--output", out)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, int32(1), calls.Load())

	assert.Contains(t, res.stdout, "Income Tax")
	assert.Contains(t, res.stdout, "Exported")

	matches, err := filepath.Glob(filepath.Join(out, "shadow-payroll-argentina-*"))
	require.NoError(t, err)
	require.Len(t, matches, 4)

	for _, path := range matches {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEmpty(t, data, path)
		if strings.HasSuffix(path, ".md") {
			assert.Contains(t, string(data), "Income Tax")
			assert.Contains(t, string(data), model.Disclaimer)
		}
	}
}

func TestEstimateMalformedReply(t *testing.T) {
	fakeOpenAI(t, "I cannot help with that.")

	res := run(t, "", "estimate", "--fx", "1000", "--show-raw")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, common.ErrMalformedResponse)
	assert.Contains(t, res.err.Error(), "MalformedResponse")
	assert.Contains(t, res.stderr, "I cannot help with that.")
}

func TestEstimateMalformedReplyHidesRaw(t *testing.T) {
	fakeOpenAI(t, "I cannot help with that.")

	res := run(t, "", "estimate", "--fx", "1000")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "--show-raw")
	assert.NotContains(t, res.stderr, "I cannot help with that.")
}

func TestEstimateWithoutModel(t *testing.T) {
	res := run(t, "", "estimate", "--no-llm", "--fx", "1000", "--months", "4")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Duration-based risk")
	assert.Contains(t, res.stdout, "Low")
}

func TestEstimateRequiresAPIKey(t *testing.T) {
	res := run(t, "", "estimate", "--fx", "1000")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, common.ErrMissingConfig)
}

func TestEstimateRejectsUnknownExport(t *testing.T) {
	res := run(t, "", "estimate", "--no-llm", "--fx", "1000", "--export", "xlsx")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "xlsx")
}

func TestEstimateLooksUpRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":"success","time_last_update_utc":"Fri, 02 Jan 2026 00:00:01 +0000","rates":{"USD":1,"EUR":0.92}}`))
	}))
	defer srv.Close()
	t.Setenv("SHADOWPAY_FX_URL", srv.URL)

	res := run(t, "", "estimate", "--no-llm", "--host", "Germany")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "EUR 0.92")
	assert.Contains(t, res.stdout, "open.er-api.com")
}

func TestFXCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":"success","time_last_update_utc":"Fri, 02 Jan 2026 00:00:01 +0000","rates":{"USD":1,"ARS":1050.5}}`))
	}))
	defer srv.Close()
	t.Setenv("SHADOWPAY_FX_URL", srv.URL)

	res := run(t, "", "fx", "Argentina")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "1 USD = 1050.5 ARS")
	assert.NotContains(t, res.stdout, "unavailable")
}

func TestFXCommandFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	t.Setenv("SHADOWPAY_FX_URL", srv.URL)
	t.Setenv("SHADOWPAY_FX_DEFAULT_RATE", "900")

	res := run(t, "", "fx", "ars")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "1 USD = 900 ARS")
	assert.Contains(t, res.stdout, "unavailable")
}

func TestCompareCommand(t *testing.T) {
	_, calls := fakeOpenAI(t, replyJSON(t))
	dir := t.TempDir()
	file := filepath.Join(dir, "scenarios.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`scenarios:
  - name: Buenos Aires
    host_country: Argentina
    fx_rate: 1000
  - host_country: Argentina
    duration_months: 12
    fx_rate: 1000
`), 0600))
	saved := filepath.Join(dir, "saved.yaml")

	res := run(t, "", "compare", file, "--export", "md,html", "--output", dir, "--save", saved)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, int32(2), calls.Load())

	assert.Contains(t, res.stdout, "Buenos Aires")
	assert.Contains(t, res.stdout, "Argentina (12mo)")
	assert.Contains(t, res.stdout, "Total Employer Cost")

	md, err := os.ReadFile(filepath.Join(dir, "shadow-payroll-comparison.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Lowest cost")
	assert.Contains(t, string(md), "## Buenos Aires")
	assert.Contains(t, string(md), "## Argentina (12mo)")

	page, err := os.ReadFile(filepath.Join(dir, "shadow-payroll-comparison.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<h2>Executive Summary</h2>")
	assert.Contains(t, string(page), "threshold 183 days")

	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Buenos Aires")
}

func TestCompareCommandSharesRateLookups(t *testing.T) {
	_, calls := fakeOpenAI(t, replyJSON(t))
	var lookups atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		lookups.Add(1)
		_, _ = w.Write([]byte(`{"result":"success","time_last_update_utc":"Fri, 02 Jan 2026 00:00:01 +0000","rates":{"USD":1,"EUR":0.92,"BRL":5.1,"ARS":1050.5}}`))
	}))
	defer srv.Close()
	t.Setenv("SHADOWPAY_FX_URL", srv.URL)
	t.Setenv("SHADOWPAY_FX_CACHE_TTL", "1h")

	file := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`scenarios:
  - host_country: Germany
  - host_country: Brazil
  - host_country: Argentina
`), 0600))

	res := run(t, "", "compare", file)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, int32(1), lookups.Load())
	assert.Equal(t, int32(3), calls.Load())
}

func TestAppSharesClients(t *testing.T) {
	fakeOpenAI(t, replyJSON(t))
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHADOWPAY_CACHE_BACKEND", "none")
	viper.Reset()
	cfgFile = ""
	t.Cleanup(viper.Reset)
	require.NoError(t, initConfig(nil, nil))

	a, err := newApp(context.Background())
	require.NoError(t, err)
	defer a.Close()

	assert.Same(t, a.fxClient(), a.fxClient())

	first, err := a.estimator(model.FXProvenance{Currency: "EUR", Rate: 0.92, Source: "manual"})
	require.NoError(t, err)
	shared := a.shared
	second, err := a.estimator(model.FXProvenance{Currency: "BRL", Rate: 5.1, Source: "manual"})
	require.NoError(t, err)

	assert.Same(t, shared, a.shared)
	assert.NotSame(t, first, second)
}

func TestCompareCommandRejectsUnknownExport(t *testing.T) {
	res := run(t, "", "compare", "missing.yaml", "--export", "xlsx")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, common.ErrValidation)
	assert.Contains(t, res.err.Error(), "md, html, pdf, csv")
}

func TestCompareCommandRejectsTooMany(t *testing.T) {
	file := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`scenarios:
  - host_country: Germany
  - host_country: France
  - host_country: Spain
  - host_country: Italy
`), 0600))

	res := run(t, "", "compare", file)
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, common.ErrCapacity)
}

func TestCachePurge(t *testing.T) {
	t.Setenv("SHADOWPAY_CACHE_BACKEND", "sqlite")
	t.Setenv("SHADOWPAY_CACHE_PATH", filepath.Join(t.TempDir(), "cache.db"))

	res := run(t, "", "cache", "purge")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Removed 0 cached replies")

	res = run(t, "n\n", "cache", "purge", "--all")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Nothing removed.")

	res = run(t, "", "cache", "purge", "--all", "--yes")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Removed 0")
}

func TestSheetsAuthRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")

	res := run(t, "", "sheets", "auth")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, common.ErrMissingConfig)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "united-kingdom", slug("United Kingdom"))
	assert.Equal(t, "cote-d-ivoire", slug("Cote d'Ivoire"))
	assert.Equal(t, "assignment", slug("!!"))
}

func TestAdjustProvenance(t *testing.T) {
	in := model.NewPayrollInput(model.DefaultLimits())
	prov := model.FXProvenance{Currency: "ARS", Rate: in.FXRate(), Source: "open.er-api.com"}

	assert.Equal(t, prov, adjustProvenance(prov, in))

	require.NoError(t, in.SetFXRate(1200))
	got := adjustProvenance(prov, in)
	assert.Equal(t, manualSource, got.Source)
	assert.InDelta(t, 1200.0, got.Rate, 0)

	require.NoError(t, in.SetHostCountry("Germany"))
	assert.Equal(t, "EUR", adjustProvenance(prov, in).Currency)
}

func TestDescribeEstimateError(t *testing.T) {
	var buf bytes.Buffer
	cause := &estimate.MalformedResponseError{Raw: "oops", Detail: "no JSON object"}
	err := describeEstimateError(&buf, &estimate.ContractError{Err: cause, Raw: "oops"}, true)

	assert.ErrorIs(t, err, common.ErrMalformedResponse)
	assert.Contains(t, buf.String(), "oops")

	assert.ErrorIs(t, describeEstimateError(&buf, context.Canceled, false), context.Canceled)
}
