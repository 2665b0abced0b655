package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ckcelina/my-wishlist-sub002/pkg/logger"
)

// CorrelationHeader carries the request correlation id in and out.
const CorrelationHeader = "X-Correlation-ID"

// RequestLogging assigns a correlation id (reusing an inbound one), mounts a
// request-scoped logger in the context and logs one line per request.
// Mount it after Tracing so trace ids end up on the scoped logger.
func RequestLogging(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(CorrelationHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(CorrelationHeader, id)

			ctx := logger.WithCorrelationID(r.Context(), id)
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			r = r.WithContext(ctx)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			lvl := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				lvl = slog.LevelError
			}
			base.Log(ctx, lvl, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", rec.bytes),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("correlation_id", id),
			)
		})
	}
}
