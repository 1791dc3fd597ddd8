package aggregates

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/platform/dbctx"
)

// TxRunner demarcates one unit of work. Every protocol step inside fn reads
// through the same transaction so state is re-read, never cached.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return NewError(CodeInternal, "analytics.tx", "transaction runner has nil db", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// joinedTxRunner reuses a transaction the caller already opened, so a
// service call nested in a larger unit of work does not commit early.
type joinedTxRunner struct {
	tx *gorm.DB
}

func (r joinedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx, Tx: r.tx})
}
