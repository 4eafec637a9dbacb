// Package observability provides request tracing and access logging for the
// web server.
package observability

import (
	"log"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/pepedome/site/internal/services/web"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) code() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Trace starts a server span per request, continuing any trace context the
// caller propagated. It uses the global tracer provider, which is a no-op
// until tracing is configured.
func Trace(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+routeName(r.URL.Path),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()

		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r.WithContext(ctx))
		status := recorder.code()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}

// RequestLogger logs one line per request with method, path, status, size,
// duration, request id and trace id. A nil logger uses the standard logger.
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	logf := log.Printf
	if logger != nil {
		logf = logger.Printf
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)
			logf(
				"http request method=%s path=%s status=%d bytes=%d duration=%s request_id=%s trace_id=%s",
				r.Method,
				r.URL.Path,
				recorder.code(),
				recorder.bytes,
				time.Since(started).Round(time.Microsecond),
				orDash(r.Header.Get("X-Request-ID")),
				traceID(r),
			)
		})
	}
}

// routeName collapses item and newsletter ids so span names stay low
// cardinality.
func routeName(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) >= 2 {
		switch segments[0] {
		case "events", "trainings":
			segments[1] = "{id}"
		case "admin":
			if len(segments) >= 3 && segments[1] == "newsletters" {
				segments[2] = "{id}"
			}
		}
	}
	return "/" + strings.Join(segments, "/")
}

func traceID(r *http.Request) string {
	spanContext := trace.SpanContextFromContext(r.Context())
	if !spanContext.HasTraceID() {
		return "-"
	}
	return spanContext.TraceID().String()
}

func orDash(value string) string {
	if value = strings.TrimSpace(value); value == "" {
		return "-"
	}
	return value
}
