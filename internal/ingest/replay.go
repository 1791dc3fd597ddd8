package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
	"github.com/yungbote/analytics-database/internal/services"
)

var ErrUnknownKind = errors.New("unknown event kind")

var validate = validator.New()

type handler func(dbc dbctx.Context, a *services.Analytics, event *yaml.Node) error

// on adapts a typed apply func into a handler that decodes and validates
// the event body first.
func on[P any](apply func(dbctx.Context, *services.Analytics, P) error) handler {
	return func(dbc dbctx.Context, a *services.Analytics, event *yaml.Node) error {
		var p P
		if event == nil || event.Kind == 0 {
			return aggregates.ValidationError("missing event body")
		}
		if err := event.Decode(&p); err != nil {
			return aggregates.ValidationError(fmt.Sprintf("decode event: %v", err))
		}
		if err := validate.Struct(p); err != nil {
			var invalid *validator.InvalidValidationError
			if !errors.As(err, &invalid) {
				return aggregates.ValidationError(err.Error())
			}
		}
		return apply(dbc, a, p)
	}
}

type Result struct {
	Applied int
	Failed  int
}

// Replayer applies records to the analytics store one at a time, in order.
type Replayer struct {
	analytics *services.Analytics
	log       *logger.Logger
	handlers  map[string]handler
}

func New(a *services.Analytics, log *logger.Logger) *Replayer {
	if log == nil {
		log = logger.Nop()
	}
	return &Replayer{
		analytics: a,
		log:       log.With("component", "Replayer"),
		handlers:  register(),
	}
}

// Kinds lists the supported event kinds in sorted order.
func (r *Replayer) Kinds() []string {
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Apply runs a single record through its handler.
func (r *Replayer) Apply(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.Kind) == "" {
		return aggregates.MapError("ingest.apply", aggregates.ValidationError(rec.where()+": missing kind"))
	}
	h, ok := r.handlers[rec.Kind]
	if !ok {
		return fmt.Errorf("%s: %w %q", rec.where(), ErrUnknownKind, rec.Kind)
	}
	if err := h(dbctx.Context{Ctx: ctx}, r.analytics, &rec.Event); err != nil {
		return aggregates.MapError(rec.Kind, err)
	}
	return nil
}

// Replay applies records in order. A failed record is logged and counted;
// with stopOnError the first failure ends the run and is returned.
func (r *Replayer) Replay(ctx context.Context, records []Record, stopOnError bool) (Result, error) {
	var res Result
	start := time.Now()
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.Apply(ctx, rec); err != nil {
			res.Failed++
			r.log.Warn("event failed",
				"kind", rec.Kind,
				"at", rec.where(),
				"code", string(aggregates.CodeOf(err)),
				"error", err,
			)
			if stopOnError {
				return res, err
			}
			continue
		}
		res.Applied++
	}
	r.log.Info("replay finished",
		"applied", res.Applied,
		"failed", res.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
