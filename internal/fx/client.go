// Package fx looks up USD exchange rates and degrades to the last known
// rate when the lookup service is unavailable.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/cache"
	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Defaults for the open.er-api.com endpoint.
const (
	DefaultURL     = "https://open.er-api.com/v6/latest/USD"
	DefaultTimeout = 5 * time.Second
	DefaultRate    = 1000.0
	SourceLabel    = "open.er-api.com"

	// DefaultSource labels quotes that fell back to the configured default.
	DefaultSource = "configured default"
)

// Quote is a USD to Currency rate with its provenance.
type Quote struct {
	AsOf     time.Time
	Cause    error
	Currency string
	Source   string
	Rate     float64
	Stale    bool
}

// Provenance converts the quote for attachment to results.
func (q Quote) Provenance() model.FXProvenance {
	return model.FXProvenance{
		AsOf:     q.AsOf,
		Currency: q.Currency,
		Source:   q.Source,
		Rate:     q.Rate,
		Stale:    q.Stale,
	}
}

// LastKnown persists the most recent good quote per currency.
type LastKnown interface {
	SaveRate(ctx context.Context, q Quote) error
	LastRate(ctx context.Context, currency string) (Quote, bool, error)
}

// RateUnavailableError reports a failed lookup.
type RateUnavailableError struct {
	Err      error
	Currency string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("%s for %s: %v", common.ErrRateUnavailable, e.Currency, e.Err)
}

func (e *RateUnavailableError) Unwrap() []error {
	return []error{common.ErrRateUnavailable, e.Err}
}

// Table is one snapshot of the rate service.
type Table struct {
	AsOf   time.Time
	Rates  map[string]float64
	Source string
}

// Config configures a Client.
type Config struct {
	URL         string
	Timeout     time.Duration
	CacheTTL    time.Duration
	DefaultRate float64
}

type apiResponse struct {
	Rates      map[string]float64 `json:"rates"`
	Result     string             `json:"result"`
	ErrorType  string             `json:"error-type"`
	LastUpdate string             `json:"time_last_update_utc"`
}

// Client fetches rate tables and resolves quotes.
type Client struct {
	tables      cache.Cache[Table]
	store       LastKnown
	httpClient  *http.Client
	logger      *slog.Logger
	tracer      trace.Tracer
	last        map[string]Quote
	now         func() time.Time
	url         string
	defaultRate float64
	mu          sync.RWMutex
}

// Option configures a Client.
type Option func(*Client)

// WithStore persists good quotes for use when the service is down.
func WithStore(s LastKnown) Option {
	return func(c *Client) { c.store = s }
}

// WithTableCache replaces the in-memory table cache.
func WithTableCache(t cache.Cache[Table]) Option {
	return func(c *Client) { c.tables = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a rate client. Unset config values use the package defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DefaultRate <= 0 {
		cfg.DefaultRate = DefaultRate
	}

	c := &Client{
		url:         cfg.URL,
		defaultRate: cfg.DefaultRate,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      slog.Default(),
		tracer:      otel.Tracer("github.com/Veraticus/shadow-payroll/internal/fx"),
		last:        make(map[string]Quote),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tables == nil {
		c.tables = cache.NewMemory[Table](cfg.CacheTTL)
	}
	return c
}

// Close releases the table cache if the client owns it.
func (c *Client) Close() {
	if closer, ok := c.tables.(interface{ Close() }); ok {
		closer.Close()
	}
}

// Fetch returns the current rate for currency or a RateUnavailableError.
func (c *Client) Fetch(ctx context.Context, currency string) (Quote, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))

	ctx, span := c.tracer.Start(ctx, "fx.Fetch", trace.WithAttributes(attribute.String("currency", code)))
	defer span.End()

	table, err := c.table(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate table unavailable")
		return Quote{}, &RateUnavailableError{Currency: code, Err: err}
	}

	rate, ok := table.Rates[code]
	if !ok || rate <= 0 {
		err := fmt.Errorf("%w: no rate for %s", common.ErrNotFound, code)
		span.RecordError(err)
		return Quote{}, &RateUnavailableError{Currency: code, Err: err}
	}

	q := Quote{Currency: code, Rate: rate, AsOf: table.AsOf, Source: table.Source}
	c.remember(ctx, q)
	return q, nil
}

// Resolve always returns a usable quote. When the lookup fails it falls back
// to the last known rate, then to the configured default, and marks the
// quote stale with the lookup error as Cause.
func (c *Client) Resolve(ctx context.Context, currency string) Quote {
	q, err := c.Fetch(ctx, currency)
	if err == nil {
		return q
	}

	code := strings.ToUpper(strings.TrimSpace(currency))
	c.logger.Warn("Exchange rate lookup failed, using fallback", "currency", code, "error", err)

	if last, ok := c.lastKnown(ctx, code); ok {
		last.Stale = true
		last.Cause = err
		return last
	}

	return Quote{
		Currency: code,
		Rate:     c.defaultRate,
		AsOf:     c.now().UTC(),
		Source:   DefaultSource,
		Stale:    true,
		Cause:    err,
	}
}

func (c *Client) table(ctx context.Context) (Table, error) {
	if t, ok := c.tables.Get(ctx, c.url); ok {
		return t, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Table{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Table{}, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Table{}, fmt.Errorf("rate service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Table{}, fmt.Errorf("failed to decode rates: %w", err)
	}
	if payload.Result != "success" {
		return Table{}, fmt.Errorf("rate service returned result %q %s", payload.Result, payload.ErrorType)
	}

	asOf, err := time.Parse(time.RFC1123Z, payload.LastUpdate)
	if err != nil {
		asOf = c.now().UTC()
	}

	t := Table{Rates: payload.Rates, AsOf: asOf.UTC(), Source: SourceLabel}
	c.tables.Set(ctx, c.url, t)
	return t, nil
}

func (c *Client) remember(ctx context.Context, q Quote) {
	c.mu.Lock()
	c.last[q.Currency] = q
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.SaveRate(ctx, q); err != nil {
		c.logger.Warn("Failed to persist exchange rate", "currency", q.Currency, "error", err)
	}
}

func (c *Client) lastKnown(ctx context.Context, code string) (Quote, bool) {
	c.mu.RLock()
	q, ok := c.last[code]
	c.mu.RUnlock()
	if ok {
		return q, true
	}

	if c.store == nil {
		return Quote{}, false
	}
	q, ok, err := c.store.LastRate(ctx, code)
	if err != nil {
		c.logger.Warn("Failed to read last known exchange rate", "currency", code, "error", err)
		return Quote{}, false
	}
	return q, ok
}
