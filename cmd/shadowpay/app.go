package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/cache"
	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/config"
	"github.com/Veraticus/shadow-payroll/internal/estimate"
	"github.com/Veraticus/shadow-payroll/internal/fx"
	"github.com/Veraticus/shadow-payroll/internal/llm"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/Veraticus/shadow-payroll/internal/storage"
	"github.com/Veraticus/shadow-payroll/internal/telemetry"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// app holds the process-wide collaborators of one command invocation.
type app struct {
	settings  config.Settings
	logger    *slog.Logger
	store     *storage.SQLiteStorage
	responses cache.Cache[string]
	closers   []func()

	fxOnce sync.Once
	rates  *fx.Client

	estOnce sync.Once
	shared  *estimate.Estimator
	estErr  error
}

// newApp loads settings and opens the shared stores. A database that cannot
// be opened downgrades to in-memory caching.
func newApp(ctx context.Context) (*app, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("invalid configuration", err)
	}

	a := &app{settings: settings, logger: slog.Default()}

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       settings.Telemetry.OTLPEndpoint,
		ServiceVersion: version,
	}, a.logger)
	if err != nil {
		a.logger.Warn("Tracing disabled", "error", err)
	} else {
		a.closers = append(a.closers, func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				a.logger.Debug("Failed to flush traces", "error", err)
			}
		})
	}

	if settings.Cache.Backend != "none" {
		store, err := storage.Open(ctx, settings.Cache.Path)
		if err != nil {
			a.logger.Warn("Persistent cache unavailable, continuing in memory",
				"path", settings.Cache.Path, "error", err)
		} else {
			store.SetLogger(a.logger)
			a.store = store
			a.closers = append(a.closers, func() { _ = store.Close() })
		}
	}

	switch {
	case settings.Cache.Backend == "sqlite" && a.store != nil:
		a.responses = a.store.ResponseCache(settings.Estimation.CacheTTL)
	case settings.Cache.Backend == "none":
		a.responses = cache.Noop[string]{}
	default:
		mem := cache.NewMemory[string](settings.Estimation.CacheTTL)
		a.responses = mem
		a.closers = append(a.closers, mem.Close)
	}

	return a, nil
}

// Close releases everything newApp opened, in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// fxClient returns the process-wide rate client, backed by the persistent
// last-known store.
func (a *app) fxClient() *fx.Client {
	a.fxOnce.Do(func() {
		opts := []fx.Option{fx.WithLogger(a.logger)}
		if a.store != nil {
			opts = append(opts, fx.WithStore(a.store))
		}
		a.rates = fx.NewClient(fx.Config{
			URL:         a.settings.FX.URL,
			Timeout:     a.settings.FX.Timeout,
			CacheTTL:    a.settings.FX.CacheTTL,
			DefaultRate: a.settings.FX.DefaultRate,
		}, opts...)
		a.closers = append(a.closers, a.rates.Close)
	})
	return a.rates
}

// estimator returns the process-wide Estimator stamping results with prov.
// Every caller shares one provider client, rate limiter and response cache.
func (a *app) estimator(prov model.FXProvenance) (*estimate.Estimator, error) {
	a.estOnce.Do(func() {
		a.shared, a.estErr = a.newEstimator()
	})
	if a.estErr != nil {
		return nil, a.estErr
	}
	return a.shared.ForRate(prov), nil
}

func (a *app) newEstimator() (*estimate.Estimator, error) {
	if err := a.settings.RequireAPIKey(); err != nil {
		return nil, err
	}

	client, err := llm.NewClient(a.settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	if closer, ok := client.(interface{ Close() }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	opts := []estimate.Option{
		estimate.WithCache(a.responses),
		estimate.WithLogger(a.logger),
		estimate.WithThresholds(a.settings.Risk),
		estimate.WithTimeout(a.settings.LLM.Timeout),
	}
	if a.settings.Estimation.MaxAttempts > 1 {
		opts = append(opts, estimate.WithRetry(common.RetryOptions{
			MaxAttempts:  a.settings.Estimation.MaxAttempts,
			InitialDelay: a.settings.Estimation.RetryDelay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		}))
	}

	return estimate.New(client, opts...), nil
}

// resolveRate sets the FX rate of in from the rate service unless the user
// gave one. USD hosts need no lookup.
func (a *app) resolveRate(ctx context.Context, in *model.PayrollInput, manual bool) (model.FXProvenance, error) {
	code := config.Currency(in.HostCountry())
	if manual {
		return model.FXProvenance{Currency: code, Rate: in.FXRate(), Source: manualSource, AsOf: time.Now().UTC()}, nil
	}
	if code == "USD" {
		if err := in.SetFXRate(1); err != nil {
			return model.FXProvenance{}, err
		}
		return model.FXProvenance{Currency: code, Rate: 1, Source: "identity", AsOf: time.Now().UTC()}, nil
	}

	q := a.fxClient().Resolve(ctx, code)
	if q.Stale {
		a.logger.Warn("Using fallback exchange rate", "currency", code, "source", q.Source, "error", q.Cause)
	}
	if err := in.SetFXRate(q.Rate); err != nil {
		return model.FXProvenance{}, fmt.Errorf("rate %s for %s rejected: %w", formatRate(q.Rate), code, err)
	}
	return q.Provenance(), nil
}

const manualSource = "manual"

func formatRate(r float64) string {
	return fmt.Sprintf("%g", r)
}
