package aggregates

import (
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

const tracerName = "github.com/yungbote/analytics-database/internal/data/aggregates"

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	Tracer trace.Tracer
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Tracer == nil {
		d.Tracer = otel.Tracer(tracerName)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

// ExecuteWrite runs fn as one unit of work named op. A dbc that already
// carries a transaction is joined rather than nested, so lazily created
// parents commit or roll back together with the event that needed them.
func ExecuteWrite(dbc dbctx.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "analytics.write"
	}

	ctx, span := deps.Tracer.Start(dbc.Context(), op, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	runner := deps.Runner
	if dbc.Tx != nil {
		runner = joinedTxRunner{tx: dbc.Tx}
		span.SetAttributes(attribute.Bool("analytics.joined_tx", true))
	}
	err := runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = errorStatus(mapped)
		if IsCode(mapped, CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if IsCode(mapped, CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
		span.RecordError(mapped)
		span.SetStatus(codes.Error, status)
		deps.Log.Debug("write failed", "op", op, "status", status, "error", mapped)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.String("analytics.status", status))
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func errorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(CodeOf(MapError("analytics.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
