package recommend

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	pipelineSimilar   = "similar"
	pipelinePreferred = "preferred"
	pipelinePopular   = "popular"
)

var (
	recommendMetricsEnabled bool
	recommendDuration       metric.Float64Histogram
	recommendCandidates     metric.Int64Histogram
	recommendResults        metric.Int64Histogram
)

func InitTelemetry(serviceName string) {
	meter := otel.Meter(serviceName + "/recommend")

	var err error
	recommendDuration, err = meter.Float64Histogram(
		"sniply_recommend_duration_seconds",
		metric.WithDescription("Recommendation pipeline latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return
	}

	recommendCandidates, err = meter.Int64Histogram(
		"sniply_recommend_candidates",
		metric.WithDescription("Candidates scored per recommendation"),
	)
	if err != nil {
		return
	}

	recommendResults, err = meter.Int64Histogram(
		"sniply_recommend_results",
		metric.WithDescription("Snippets returned per recommendation"),
	)
	if err != nil {
		return
	}

	recommendMetricsEnabled = true
}

func recordRun(ctx context.Context, pipeline string, candidates, results int, err error, elapsed time.Duration) {
	if !recommendMetricsEnabled {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("recommend.pipeline", pipeline),
		attribute.String("recommend.status", status),
	)
	recommendDuration.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		return
	}
	recommendCandidates.Record(ctx, int64(candidates), attrs)
	recommendResults.Record(ctx, int64(results), attrs)
}
