package telemetry

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelLog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const unknownRoute = "unknown_route"

var (
	httpInstrumentsReady bool
	httpRequests         metric.Int64Counter
	httpDuration         metric.Float64Histogram
	httpResponseBytes    metric.Int64Histogram
)

func initHTTPInstruments(serviceName string) {
	meter := otel.Meter(serviceName)

	var err error
	if httpRequests, err = meter.Int64Counter(
		"sniply_http_requests_total",
		metric.WithDescription("HTTP requests served, by route and feature"),
	); err != nil {
		return
	}
	if httpDuration, err = meter.Float64Histogram(
		"sniply_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	); err != nil {
		return
	}
	if httpResponseBytes, err = meter.Int64Histogram(
		"sniply_http_response_bytes",
		metric.WithDescription("HTTP response body size"),
		metric.WithUnit("By"),
	); err != nil {
		return
	}
	httpInstrumentsReady = true
}

// recorder captures what the handler wrote.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *recorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

func (w *recorder) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Middleware traces, counts and logs every request under its chi route
// pattern and the product feature that pattern belongs to.
func Middleware(serviceName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(serviceName)
	logger := global.Logger(serviceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "HTTP "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPMethod(r.Method),
					attribute.String("http.target", r.URL.Path),
				),
			)
			defer span.End()

			rw := &recorder{ResponseWriter: w}
			next.ServeHTTP(rw, r.WithContext(ctx))

			route := routeOf(r)
			feature := featureOf(route)
			status := rw.code()
			elapsed := time.Since(start)

			span.SetName("HTTP " + r.Method + " " + route)
			span.SetAttributes(
				semconv.HTTPRoute(route),
				semconv.HTTPStatusCode(status),
				attribute.String("app.feature", feature),
			)
			if status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			if httpInstrumentsReady {
				attrs := metric.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", route),
					attribute.String("app.feature", feature),
					attribute.Int("http.status_code", status),
				)
				httpRequests.Add(ctx, 1, attrs)
				httpDuration.Record(ctx, elapsed.Seconds(), attrs)
				httpResponseBytes.Record(ctx, rw.bytes, attrs)
			}

			sev := severityForStatus(status)
			var rec otelLog.Record
			rec.SetEventName("http.request")
			rec.SetTimestamp(time.Now())
			rec.SetSeverity(sev)
			rec.SetSeverityText(sev.String())
			rec.SetBody(otelLog.StringValue("request completed"))
			rec.AddAttributes(
				otelLog.String("http.method", r.Method),
				otelLog.String("http.route", route),
				otelLog.String("http.target", r.URL.Path),
				otelLog.String("app.feature", feature),
				otelLog.Int("http.status_code", status),
				otelLog.Int64("http.response_bytes", rw.bytes),
				otelLog.Int64("http.duration_ms", elapsed.Milliseconds()),
			)
			if id := middleware.GetReqID(r.Context()); id != "" {
				rec.AddAttributes(otelLog.String("http.request_id", id))
			}
			if id := TraceID(ctx); id != "" {
				rec.AddAttributes(otelLog.String("trace_id", id))
			}
			logger.Emit(ctx, rec)
		})
	}
}

func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if rp := strings.TrimSpace(rc.RoutePattern()); rp != "" {
			return rp
		}
	}
	return unknownRoute
}

// featureOf groups route patterns so dashboards can split traffic between
// browsing, recommendations and the rating and bookmark flows.
func featureOf(route string) string {
	switch {
	case strings.HasSuffix(route, "/similar"):
		return "recommend.similar"
	case strings.HasPrefix(route, "/v1/recommendations"):
		return "recommend.user"
	case strings.HasSuffix(route, "/rating"), strings.HasSuffix(route, "/ratings"):
		return "ratings"
	case strings.Contains(route, "bookmark"):
		return "bookmarks"
	case strings.HasPrefix(route, "/v1/languages"), strings.HasPrefix(route, "/v1/authors"):
		return "catalog"
	case strings.HasPrefix(route, "/v1/snippets"):
		return "snippets"
	case strings.HasPrefix(route, "/v1/users"):
		return "users"
	case strings.HasPrefix(route, "/v1/auth"):
		return "auth"
	case route == "/health":
		return "health"
	default:
		return "other"
	}
}
