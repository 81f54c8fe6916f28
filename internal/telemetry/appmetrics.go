package telemetry

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// sessionScanBudget caps the keys walked per collection when counting sessions.
const sessionScanBudget = 10000

// sessionKeyPattern matches session records under prefix and skips the
// per-user index sets stored beside them.
func sessionKeyPattern(prefix string) string {
	return prefix + "ses_*"
}

var (
	domainInstrumentsReady bool
	ratingsRecorded        metric.Int64Counter
	bookmarksRecorded      metric.Int64Counter
)

func initDomainInstruments(serviceName string) {
	meter := otel.Meter(serviceName + "/app")

	var err error
	if ratingsRecorded, err = meter.Int64Counter(
		"sniply_ratings_total",
		metric.WithDescription("Rating writes by value, cleared ratings included"),
	); err != nil {
		return
	}
	if bookmarksRecorded, err = meter.Int64Counter(
		"sniply_bookmarks_total",
		metric.WithDescription("Bookmark writes by outcome"),
	); err != nil {
		return
	}
	domainInstrumentsReady = true
}

// RecordRating counts a rating write. value is like, dislike or cleared.
func RecordRating(ctx context.Context, value string) {
	if !domainInstrumentsReady {
		return
	}
	ratingsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("rating.value", value)))
}

// RecordBookmark counts a bookmark write. created is false for removals and
// for repeated adds of an existing bookmark.
func RecordBookmark(ctx context.Context, action string, created bool) {
	if !domainInstrumentsReady {
		return
	}
	bookmarksRecorded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("bookmark.action", action),
		attribute.Bool("bookmark.created", created),
	))
}

// InitAppMetrics registers observable gauges for the postgres and redis pools
// and the number of live sessions stored under sessionPrefix.
func InitAppMetrics(serviceName string, pool *pgxpool.Pool, client *redis.Client, sessionPrefix string) {
	meter := otel.Meter(serviceName + "/app")

	dbConns, err := meter.Int64ObservableGauge(
		"sniply_db_pool_connections",
		metric.WithDescription("Postgres pool connections by state"),
	)
	if err != nil {
		return
	}
	redisConns, err := meter.Int64ObservableGauge(
		"sniply_redis_pool_connections",
		metric.WithDescription("Redis pool connections by state"),
	)
	if err != nil {
		return
	}
	sessions, err := meter.Int64ObservableGauge(
		"sniply_sessions_active",
		metric.WithDescription("Sessions currently stored in redis"),
	)
	if err != nil {
		return
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		if pool != nil {
			st := pool.Stat()
			o.ObserveInt64(dbConns, int64(st.AcquiredConns()), metric.WithAttributes(attribute.String("state", "acquired")))
			o.ObserveInt64(dbConns, int64(st.IdleConns()), metric.WithAttributes(attribute.String("state", "idle")))
			o.ObserveInt64(dbConns, int64(st.TotalConns()), metric.WithAttributes(attribute.String("state", "total")))
		}
		if client != nil {
			st := client.PoolStats()
			o.ObserveInt64(redisConns, int64(st.IdleConns), metric.WithAttributes(attribute.String("state", "idle")))
			o.ObserveInt64(redisConns, int64(st.TotalConns), metric.WithAttributes(attribute.String("state", "total")))
			if sessionPrefix != "" {
				if n, err := countKeys(ctx, client, sessionKeyPattern(sessionPrefix)); err == nil {
					o.ObserveInt64(sessions, n)
				}
			}
		}
		return nil
	}, dbConns, redisConns, sessions)
	if err != nil {
		LogWarn(context.Background(), "app metrics callback not registered", LogErr(err))
	}
}

func countKeys(ctx context.Context, client *redis.Client, pattern string) (int64, error) {
	var (
		cursor uint64
		total  int64
	)
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return 0, err
		}
		total += int64(len(keys))
		cursor = next
		if cursor == 0 || total >= sessionScanBudget {
			return total, nil
		}
	}
}
