package database

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ckcelina/my-wishlist-sub002/pkg/database"

type slowQuery struct {
	threshold time.Duration
	logger    *slog.Logger
}

var slowQueryCfg atomic.Pointer[slowQuery]

// SetSlowQueryLogging warns about queries slower than threshold. A zero
// threshold turns it off.
func SetSlowQueryLogging(threshold time.Duration, logger *slog.Logger) {
	if threshold <= 0 || logger == nil {
		slowQueryCfg.Store(nil)
		return
	}
	slowQueryCfg.Store(&slowQuery{threshold: threshold, logger: logger})
}

// TraceQuery starts a client span for a database operation. Call the
// returned function with the operation's error when it completes:
//
//	ctx, end := database.TraceQuery(ctx, "InsertItem", query)
//	defer func() { end(err) }()
func TraceQuery(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		cfg := slowQueryCfg.Load()
		if cfg == nil {
			return
		}
		if elapsed := time.Since(start); elapsed >= cfg.threshold {
			cfg.logger.WarnContext(ctx, "slow query detected",
				slog.String("operation", operation),
				slog.String("statement", statement),
				slog.Duration("duration", elapsed),
			)
		}
	}
}
