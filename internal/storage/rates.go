package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/fx"
)

var _ fx.LastKnown = (*SQLiteStorage)(nil)

type rateRow struct {
	AsOf     time.Time `db:"as_of"`
	Currency string    `db:"currency"`
	Source   string    `db:"source"`
	Rate     float64   `db:"rate"`
}

// SaveRate records q as the last known rate for its currency.
func (s *SQLiteStorage) SaveRate(ctx context.Context, q fx.Quote) error {
	if q.Rate <= 0 {
		return fmt.Errorf("%w: rate must be positive", ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fx_rates (currency, rate, as_of, source, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(currency) DO UPDATE SET
			rate = excluded.rate,
			as_of = excluded.as_of,
			source = excluded.source,
			fetched_at = excluded.fetched_at`,
		strings.ToUpper(q.Currency), q.Rate, q.AsOf.UTC(), q.Source, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save rate for %s: %w", q.Currency, err)
	}
	return nil
}

// LastRate returns the last saved rate for currency.
func (s *SQLiteStorage) LastRate(ctx context.Context, currency string) (fx.Quote, bool, error) {
	var row rateRow
	err := s.db.GetContext(ctx, &row,
		`SELECT currency, rate, as_of, source FROM fx_rates WHERE currency = ?`, strings.ToUpper(currency))
	if errors.Is(err, sql.ErrNoRows) {
		return fx.Quote{}, false, nil
	}
	if err != nil {
		return fx.Quote{}, false, fmt.Errorf("failed to load rate for %s: %w", currency, err)
	}

	return fx.Quote{
		Currency: row.Currency,
		Rate:     row.Rate,
		AsOf:     row.AsOf.UTC(),
		Source:   row.Source,
	}, true, nil
}
