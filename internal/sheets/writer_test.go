package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		errMsg  string
		config  Config
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID:      "test-client",
				ClientSecret:  "test-secret",
				RefreshToken:  "test-token",
				BatchSize:     100,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
		},
		{
			name: "valid service account config",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         time.Second,
			},
		},
		{
			name: "missing auth",
			config: Config{
				BatchSize:     100,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
			wantErr: common.ErrMissingConfig,
			errMsg:  "no Google Sheets authentication method configured",
		},
		{
			name: "partial oauth",
			config: Config{
				ClientID:  "test-client",
				BatchSize: 100,
			},
			wantErr: common.ErrMissingConfig,
			errMsg:  "no Google Sheets authentication method configured",
		},
		{
			name: "multiple auth methods",
			config: Config{
				ClientID:           "test-client",
				ClientSecret:       "test-secret",
				RefreshToken:       "test-token",
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         time.Second,
			},
			wantErr: common.ErrInvalidConfig,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name: "invalid batch size",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          0,
			},
			wantErr: common.ErrInvalidConfig,
			errMsg:  "batch size must be positive",
		},
		{
			name: "negative retries",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          10,
				RetryAttempts:      -1,
			},
			wantErr: common.ErrInvalidConfig,
			errMsg:  "retry attempts cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, DefaultSpreadsheetName, config.SpreadsheetName)
	assert.True(t, config.EnableFormatting)
	assert.Equal(t, 500, config.BatchSize)
	assert.Equal(t, 3, config.RetryAttempts)
	assert.Equal(t, time.Second, config.RetryDelay)
}

func TestFieldsTable(t *testing.T) {
	table := FieldsTable("Argentina (36mo)", []model.Field{
		{Label: "Total Employer Cost (USD)", Value: 612_500.0},
		{Label: "PE Risk Level", Value: model.TierHigh},
		{Label: "Duration (Months)", Value: 36},
		{Label: "Tax Treaty", Value: false},
	})

	require.Len(t, table.Rows, 7)
	assert.Equal(t, []any{"Argentina (36mo)"}, table.Rows[0])
	assert.Equal(t, []any{"Field", "Value"}, table.Rows[1])
	assert.Equal(t, []any{"Total Employer Cost (USD)", 612_500.0}, table.Rows[2])
	assert.Equal(t, []any{"PE Risk Level", "High"}, table.Rows[3])
	assert.Equal(t, []any{"Duration (Months)", 36}, table.Rows[4])
	assert.Equal(t, []any{"Tax Treaty", "No"}, table.Rows[5])
	assert.Equal(t, []any{"Disclaimer", model.Disclaimer}, table.Rows[6])
	assert.Equal(t, 2, table.Width())
}

func TestFieldsTableKeepsExistingDisclaimer(t *testing.T) {
	table := FieldsTable("x", []model.Field{{Label: "Disclaimer", Value: model.Disclaimer}})
	assert.Len(t, table.Rows, 3)
}

func TestGridTable(t *testing.T) {
	table := GridTable("Scenario Comparison", [][]string{
		{"Item (USD/year)", "Argentina", "Spain"},
		{"Income Tax", "$120,000", "$150,000"},
	})

	assert.Equal(t, 3, table.Width())
	assert.Equal(t, []any{"Income Tax", "$120,000", "$150,000"}, table.Rows[2])
	assert.Equal(t, []any{"Disclaimer", model.Disclaimer}, table.Rows[len(table.Rows)-1])
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.True(t, common.IsRetryable(classify(&googleapi.Error{Code: http.StatusServiceUnavailable})))
	assert.True(t, common.IsRetryable(classify(&googleapi.Error{Code: http.StatusTooManyRequests})))
	assert.False(t, common.IsRetryable(classify(&googleapi.Error{Code: http.StatusBadRequest})))
	assert.False(t, common.IsRetryable(classify(errors.New("boom"))))
}

type fakeSheets struct {
	updates   [][][]any
	ranges    []string
	calls     []string
	failures  map[string][]int
	mu        sync.Mutex
	createdID string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	op := classifyRequest(r)
	f.calls = append(f.calls, op)

	if codes := f.failures[op]; len(codes) > 0 {
		f.failures[op] = codes[1:]
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(codes[0])
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"injected"}}`, codes[0])
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch op {
	case "create":
		_ = json.NewEncoder(w).Encode(sheets.Spreadsheet{SpreadsheetId: f.createdID, SpreadsheetUrl: "https://example.test/" + f.createdID})
	case "update":
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.updates = append(f.updates, vr.Values)
		parts := strings.Split(r.URL.Path, "/values/")
		f.ranges = append(f.ranges, parts[len(parts)-1])
		_, _ = w.Write([]byte(`{}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func classifyRequest(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, ":clear"):
		return "clear"
	case strings.HasSuffix(path, ":batchUpdate"):
		return "format"
	case strings.Contains(path, "/values/") && r.Method == http.MethodPut:
		return "update"
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/spreadsheets"):
		return "create"
	case r.Method == http.MethodGet:
		return "get"
	default:
		return r.Method + " " + path
	}
}

func newTestWriter(t *testing.T, fake *fakeSheets, config Config) *Writer {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	service, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return newWriter(service, config, logger)
}

func testTable() Table {
	return FieldsTable("Argentina (36mo)", []model.Field{
		{Label: "Monthly Gross (Local)", Value: 40_000_000.0},
		{Label: "PE Risk Level", Value: model.TierHigh},
	})
}

func TestWriter_WriteExistingSpreadsheet(t *testing.T) {
	fake := &fakeSheets{}
	config := DefaultConfig()
	config.SpreadsheetID = "sheet-123"
	w := newTestWriter(t, fake, config)

	id, err := w.Write(context.Background(), testTable())
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", id)
	assert.Equal(t, []string{"get", "clear", "update", "format"}, fake.calls)
	require.Len(t, fake.updates, 1)
	assert.Equal(t, "A1", fake.ranges[0])
	assert.Equal(t, []any{"Monthly Gross (Local)", 40_000_000.0}, fake.updates[0][2])
	assert.Equal(t, []any{"Disclaimer", model.Disclaimer}, fake.updates[0][4])
}

func TestWriter_WriteCreatesSpreadsheet(t *testing.T) {
	fake := &fakeSheets{createdID: "new-sheet"}
	config := DefaultConfig()
	config.EnableFormatting = false
	w := newTestWriter(t, fake, config)

	id, err := w.Write(context.Background(), testTable())
	require.NoError(t, err)

	assert.Equal(t, "new-sheet", id)
	assert.Equal(t, []string{"create", "clear", "update"}, fake.calls)
}

func TestWriter_WriteBatches(t *testing.T) {
	fake := &fakeSheets{}
	config := DefaultConfig()
	config.SpreadsheetID = "sheet-123"
	config.BatchSize = 2
	config.EnableFormatting = false
	w := newTestWriter(t, fake, config)

	_, err := w.Write(context.Background(), testTable())
	require.NoError(t, err)

	assert.Equal(t, []string{"A1", "A3", "A5"}, fake.ranges)
	assert.Len(t, fake.updates[2], 1)
}

func TestWriter_WriteRetriesServerErrors(t *testing.T) {
	fake := &fakeSheets{failures: map[string][]int{"update": {http.StatusServiceUnavailable}}}
	config := DefaultConfig()
	config.SpreadsheetID = "sheet-123"
	config.RetryDelay = time.Millisecond
	config.EnableFormatting = false
	w := newTestWriter(t, fake, config)

	_, err := w.Write(context.Background(), testTable())
	require.NoError(t, err)
	assert.Equal(t, []string{"get", "clear", "update", "update"}, fake.calls)
}

func TestWriter_WriteDoesNotRetryClientErrors(t *testing.T) {
	fake := &fakeSheets{failures: map[string][]int{"update": {http.StatusBadRequest}}}
	config := DefaultConfig()
	config.SpreadsheetID = "sheet-123"
	config.RetryDelay = time.Millisecond
	w := newTestWriter(t, fake, config)

	_, err := w.Write(context.Background(), testTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write data")
	assert.Equal(t, []string{"get", "clear", "update"}, fake.calls)
}

func TestWriter_FormattingFailureIsNotFatal(t *testing.T) {
	fake := &fakeSheets{failures: map[string][]int{"format": {http.StatusBadRequest}}}
	config := DefaultConfig()
	config.SpreadsheetID = "sheet-123"
	w := newTestWriter(t, fake, config)

	_, err := w.Write(context.Background(), testTable())
	assert.NoError(t, err)
}
