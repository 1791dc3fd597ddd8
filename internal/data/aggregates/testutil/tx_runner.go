package testutil

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
)

// ErrInjected is returned by FaultyTxRunner when no explicit fault is set.
var ErrInjected = errors.New("injected fault")

// FaultyTxRunner runs the body inside a real transaction and can force a
// rollback after the body succeeded. Tests use it to check that lazily
// created parents disappear together with the event that created them.
type FaultyTxRunner struct {
	DB *gorm.DB

	mu            sync.Mutex
	FailBegin     error
	FailAfterBody error
	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*FaultyTxRunner)(nil)

func (r *FaultyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failAfter := r.FailAfterBody
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if r.DB == nil {
		return errors.New("faulty tx runner: nil db")
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if fn != nil {
			if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
				return err
			}
		}
		return failAfter
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.RollbackCalls++
		return err
	}
	r.CommitCalls++
	return nil
}
