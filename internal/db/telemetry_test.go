package db

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestDBOperation(t *testing.T) {
	cases := map[string]string{
		"":                                  "unknown",
		"   select id from snippets":        "SELECT",
		"\n\tINSERT INTO ratings VALUES ()": "INSERT",
		"with liked as (select 1) select":   "WITH",
	}
	for sql, want := range cases {
		if got := dbOperation(sql); got != want {
			t.Fatalf("dbOperation(%q) = %q, want %q", sql, got, want)
		}
	}
}

func TestQueryNameRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := queryName(ctx); got != "" {
		t.Fatalf("expected empty query name, got %q", got)
	}
	ctx = WithQueryName(ctx, "snippets.find_candidates")
	if got := queryName(ctx); got != "snippets.find_candidates" {
		t.Fatalf("unexpected query name: %q", got)
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "ok", statusLabel(nil))
	assert.Equal(t, "no_rows", statusLabel(pgx.ErrNoRows))
	assert.Equal(t, "error", statusLabel(errors.New("boom")))
}

type fakeRows struct {
	pgx.Rows
	left   int
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.left == 0 {
		return false
	}
	r.left--
	return true
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     { r.closed = true }

type fakeRow struct{ err error }

func (r fakeRow) Scan(dest ...any) error { return r.err }

type fakeQueryer struct {
	rows *fakeRows
	row  fakeRow
}

func (f fakeQueryer) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("DELETE 2"), nil
}

func (f fakeQueryer) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return f.rows, nil
}

func (f fakeQueryer) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.row
}

func TestInstrumentedQueryerRecordsRows(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	InitTelemetry("test")
	t.Cleanup(func() { dbInstrumentsReady = false })

	q := instrumentedQueryer{q: fakeQueryer{rows: &fakeRows{left: 3}, row: fakeRow{err: pgx.ErrNoRows}}}
	ctx := WithQueryName(context.Background(), "snippets.find_candidates")

	rows, err := q.Query(ctx, "SELECT 1")
	require.NoError(t, err)
	for rows.Next() {
	}
	rows.Close()

	_, err = q.Exec(WithQueryName(context.Background(), "ratings.delete"), "DELETE FROM ratings")
	require.NoError(t, err)

	err = q.QueryRow(WithQueryName(context.Background(), "ratings.get"), "SELECT 1").Scan()
	require.ErrorIs(t, err, pgx.ErrNoRows)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	rowsByQuery := map[string]int64{}
	errorsTotal := int64(0)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Histogram[int64]:
				if m.Name != "sniply_db_rows" {
					continue
				}
				for _, p := range data.DataPoints {
					name, _ := p.Attributes.Value(attribute.Key("db.query.name"))
					rowsByQuery[name.AsString()] += p.Sum
				}
			case metricdata.Sum[int64]:
				if m.Name != "sniply_db_query_errors_total" {
					continue
				}
				for _, p := range data.DataPoints {
					errorsTotal += p.Value
				}
			}
		}
	}
	assert.Equal(t, map[string]int64{
		"snippets.find_candidates": 3,
		"ratings.delete":           2,
		"ratings.get":              0,
	}, rowsByQuery)
	assert.Zero(t, errorsTotal, "no_rows lookups are not errors")
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{MinConns: 50}.withDefaults()
	assert.Equal(t, int32(10), o.MaxConns)
	assert.Equal(t, int32(1), o.MinConns)
	assert.Equal(t, 30*time.Minute, o.MaxConnLifetime)
	assert.Equal(t, "sniply", o.ApplicationName)
	assert.Equal(t, 1, o.ConnectAttempts)
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_tags.sql": {Data: []byte("SELECT 1;")},
		"0001_init.sql": {Data: []byte("SELECT 1;")},
		"README.md":     {Data: []byte("not sql")},
	}
	files, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_tags.sql"}, files)
	assert.Equal(t, []string{"0002_tags.sql"}, pending(files, []string{"0001_init"}))
	assert.Empty(t, pending(files, []string{"0001_init", "0002_tags"}))
}

func TestBaseTimeoutDefault(t *testing.T) {
	b := NewBase(nil, 0)
	ctx, cancel := b.WithTimeout(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(DefaultQueryTimeout), deadline, time.Second)
}
