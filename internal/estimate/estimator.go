package estimate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/cache"
	"github.com/Veraticus/shadow-payroll/internal/calc"
	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/llm"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/Veraticus/shadow-payroll/internal/estimate"

// Option configures an Estimator.
type Option func(*Estimator)

// WithCache injects the response cache. Without it nothing is cached.
func WithCache(c cache.Cache[string]) Option {
	return func(e *Estimator) { e.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Estimator) { e.logger = l }
}

// WithRetry enables retries of transient transport failures.
func WithRetry(opts common.RetryOptions) Option {
	return func(e *Estimator) { e.retry = opts }
}

// WithThresholds sets the bands of the duration cross-check.
func WithThresholds(t calc.Thresholds) Option {
	return func(e *Estimator) { e.thresholds = t }
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(e *Estimator) { e.timeout = d }
}

// WithFX records the exchange rate provenance on every result.
func WithFX(fx model.FXProvenance) Option {
	return func(e *Estimator) { e.fx = fx }
}

// WithClock replaces time.Now for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

// ContractError is a reply that failed validation. Raw is the provider text
// exactly as received.
type ContractError struct {
	Err error
	Raw string
}

func (e *ContractError) Error() string { return e.Err.Error() }

func (e *ContractError) Unwrap() error { return e.Err }

// Estimator runs one estimation call per Estimate: build, look up, call, parse, commit.
type Estimator struct {
	client     llm.Client
	cache      cache.Cache[string]
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
	group      *singleflight.Group
	fx         model.FXProvenance
	retry      common.RetryOptions
	thresholds calc.Thresholds
	timeout    time.Duration
}

// New creates an Estimator around client.
func New(client llm.Client, opts ...Option) *Estimator {
	e := &Estimator{
		client:     client,
		cache:      cache.Noop[string]{},
		group:      &singleflight.Group{},
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
		retry:      common.RetryOptions{MaxAttempts: 1},
		thresholds: calc.DefaultThresholds(),
		timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ForRate returns an Estimator that stamps results with fx and shares the
// client, cache and in-flight calls of e.
func (e *Estimator) ForRate(fx model.FXProvenance) *Estimator {
	view := *e
	view.fx = fx
	return &view
}

// Model returns the provider model identifier.
func (e *Estimator) Model() string {
	return e.client.Model()
}

// Estimate returns a validated result for in, or a classified error. The
// duration heuristic is attached to the result for comparison and never
// replaces the model's risk tier.
func (e *Estimator) Estimate(ctx context.Context, in *model.PayrollInput, base model.BaseCalculation) (*model.EstimationResult, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: nil input", common.ErrValidation)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "estimate.Estimate", trace.WithAttributes(
		attribute.String("host_country", in.HostCountry()),
		attribute.Int("duration_months", in.DurationMonths()),
		attribute.String("model", e.client.Model()),
	))
	defer span.End()

	req := BuildRequest(in, base)
	key := cacheKey(e.client.Model(), req)

	raw, cached, err := e.fetch(ctx, key, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, common.Kind(err))
		e.logger.Error("Estimation call failed",
			"kind", common.Kind(err),
			"host_country", in.HostCountry(),
			"error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("cache_hit", cached))

	fallback := calc.ClassifyPERisk(in.DurationMonths(), e.thresholds)
	result, err := Parse(raw, ParseContext{
		GeneratedAt:   e.now().UTC(),
		Model:         e.client.Model(),
		LocalCurrency: req.LocalCurrency,
		FallbackRisk:  fallback,
		FX:            e.fx,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, common.Kind(err))
		e.logger.Warn("Estimation response violated contract",
			"kind", common.Kind(err),
			"cached", cached,
			"error", err)
		return nil, &ContractError{Err: err, Raw: raw}
	}

	// Only replies that pass the contract are cached.
	if !cached {
		e.cache.Set(ctx, key, raw)
	}

	risk := result.PERisk()
	if risk.Disagrees() {
		e.logger.Warn("PE risk differs from duration heuristic",
			"model_tier", risk.RiskLevel,
			"heuristic_tier", risk.FallbackLevel,
			"duration_days", in.DurationDays())
	}
	span.SetAttributes(
		attribute.String("pe_risk", string(risk.RiskLevel)),
		attribute.Bool("pe_risk_disagrees", risk.Disagrees()),
	)

	e.logger.Debug("Estimation complete",
		"host_country", in.HostCountry(),
		"cached", cached,
		"total_usd", result.TotalEmployerCostUSD())

	return result, nil
}

// fetch returns the raw reply for req, from the cache when possible.
// Concurrent identical requests share a single provider call.
func (e *Estimator) fetch(ctx context.Context, key string, req Request) (string, bool, error) {
	if raw, ok := e.cache.Get(ctx, key); ok {
		e.logger.Debug("Estimation cache hit")
		return raw, true, nil
	}

	ch := e.group.DoChan(key, func() (any, error) {
		return e.call(context.WithoutCancel(ctx), req)
	})

	select {
	case <-ctx.Done():
		return "", false, llm.ContextFailure(e.client.Model(), ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		raw, _ := res.Val.(string)
		return raw, false, nil
	}
}

func (e *Estimator) call(ctx context.Context, req Request) (string, error) {
	var raw string

	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		resp, err := e.client.Complete(callCtx, req.LLM())
		if err != nil {
			var terr *llm.TransportError
			if errors.As(err, &terr) && terr.Retryable() {
				return &common.RetryableError{Err: err, Retryable: true}
			}
			return err
		}
		raw = resp.Content
		e.logger.Debug("Estimation reply received",
			"model", resp.Model,
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens)
		return nil
	}

	if err := common.WithRetry(ctx, op, e.retry); err != nil {
		return "", err
	}
	return raw, nil
}

// cacheKey is the full composed request, qualified by the model that answers it.
func cacheKey(modelName string, req Request) string {
	return modelName + "\n" + req.System + "\n" + req.Text
}
