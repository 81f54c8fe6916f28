package db

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	statusOK     = "ok"
	statusNoRows = "no_rows"
	statusError  = "error"
)

var (
	dbInstrumentsReady bool
	dbQueryDuration    metric.Float64Histogram
	dbQueryErrors      metric.Int64Counter
	dbRows             metric.Int64Histogram
	dbTracer           trace.Tracer
)

func InitTelemetry(serviceName string) {
	dbTracer = otel.Tracer(serviceName + "/db")
	meter := otel.Meter(serviceName + "/db")

	var err error
	if dbQueryDuration, err = meter.Float64Histogram(
		"sniply_db_query_duration_seconds",
		metric.WithDescription("Database query latency"),
		metric.WithUnit("s"),
	); err != nil {
		return
	}
	if dbQueryErrors, err = meter.Int64Counter(
		"sniply_db_query_errors_total",
		metric.WithDescription("Database query errors"),
	); err != nil {
		return
	}
	if dbRows, err = meter.Int64Histogram(
		"sniply_db_rows",
		metric.WithDescription("Rows read or affected per query; candidate loads show the pool size here"),
	); err != nil {
		return
	}
	dbInstrumentsReady = true
}

type queryNameKey struct{}

// WithQueryName labels the spans and metrics of the next queries run with ctx,
// e.g. "snippets.find_candidates". Without it the SQL verb is used.
func WithQueryName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, queryNameKey{}, name)
}

func queryName(ctx context.Context) string {
	name, _ := ctx.Value(queryNameKey{}).(string)
	return name
}

// observation tracks one statement from start to its last row.
type observation struct {
	ctx   context.Context
	span  trace.Span
	op    string
	name  string
	start time.Time
	once  sync.Once
}

func observe(ctx context.Context, sql string) (context.Context, *observation) {
	o := &observation{op: dbOperation(sql), name: queryName(ctx), start: time.Now()}

	tracer := dbTracer
	if tracer == nil {
		tracer = otel.Tracer("sniply/db")
	}
	spanName := "DB " + o.op
	if o.name != "" {
		spanName = "DB " + o.name
	}
	attrs := []attribute.KeyValue{semconv.DBSystemPostgreSQL, semconv.DBOperation(o.op)}
	if o.name != "" {
		attrs = append(attrs, attribute.String("db.query.name", o.name))
	}
	o.ctx, o.span = tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return o.ctx, o
}

// finish ends the span and records metrics once; later calls are ignored.
func (o *observation) finish(err error, rows int64) {
	o.once.Do(func() {
		status := statusLabel(err)
		o.span.SetAttributes(attribute.Int64("db.rows", rows))
		if status == statusError {
			o.span.RecordError(err)
			o.span.SetStatus(codes.Error, "db_error")
		}
		o.span.End()

		if !dbInstrumentsReady {
			return
		}
		attrs := []attribute.KeyValue{
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", o.op),
			attribute.String("db.status", status),
		}
		if o.name != "" {
			attrs = append(attrs, attribute.String("db.query.name", o.name))
		}
		set := metric.WithAttributes(attrs...)
		dbQueryDuration.Record(o.ctx, time.Since(o.start).Seconds(), set)
		dbRows.Record(o.ctx, rows, set)
		if status == statusError {
			dbQueryErrors.Add(o.ctx, 1, set)
		}
	})
}

type instrumentedQueryer struct {
	q Queryer
}

func (i instrumentedQueryer) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	ctx, o := observe(ctx, sql)
	tag, err := i.q.Exec(ctx, sql, arguments...)
	o.finish(err, tag.RowsAffected())
	return tag, err
}

func (i instrumentedQueryer) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, o := observe(ctx, sql)
	rows, err := i.q.Query(ctx, sql, args...)
	if err != nil {
		o.finish(err, 0)
		return rows, err
	}
	return &instrumentedRows{Rows: rows, obs: o}, nil
}

func (i instrumentedQueryer) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, o := observe(ctx, sql)
	return &instrumentedRow{Row: i.q.QueryRow(ctx, sql, args...), obs: o}
}

type instrumentedRows struct {
	pgx.Rows
	obs  *observation
	read int64
}

func (r *instrumentedRows) Next() bool {
	if r.Rows.Next() {
		r.read++
		return true
	}
	r.obs.finish(r.Rows.Err(), r.read)
	return false
}

func (r *instrumentedRows) Close() {
	r.Rows.Close()
	r.obs.finish(r.Rows.Err(), r.read)
}

type instrumentedRow struct {
	pgx.Row
	obs *observation
}

func (r *instrumentedRow) Scan(dest ...any) error {
	err := r.Row.Scan(dest...)
	var n int64
	if err == nil {
		n = 1
	}
	r.obs.finish(err, n)
	return err
}

// statusLabel keeps lookups that found nothing out of the error counts.
func statusLabel(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, pgx.ErrNoRows):
		return statusNoRows
	default:
		return statusError
	}
}

func dbOperation(sql string) string {
	fields := strings.Fields(strings.TrimSpace(sql))
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToUpper(fields[0])
}
