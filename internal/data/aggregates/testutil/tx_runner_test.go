package testutil

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/platform/dbctx"
)

type runnerRow struct {
	ID   int64 `gorm:"column:id;primaryKey"`
	Name string
}

func openRunnerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&runnerRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestFaultyTxRunner_CommitsOnSuccess(t *testing.T) {
	db := openRunnerDB(t)
	r := &FaultyTxRunner{DB: db}
	err := r.InTx(context.Background(), func(dbc dbctx.Context) error {
		return dbc.Tx.Create(&runnerRow{Name: "kept"}).Error
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	var n int64
	db.Model(&runnerRow{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
	if r.BeginCalls != 1 || r.CommitCalls != 1 || r.RollbackCalls != 0 {
		t.Fatalf("unexpected counters begin=%d commit=%d rollback=%d", r.BeginCalls, r.CommitCalls, r.RollbackCalls)
	}
}

func TestFaultyTxRunner_FailAfterBodyRollsBack(t *testing.T) {
	db := openRunnerDB(t)
	r := &FaultyTxRunner{DB: db, FailAfterBody: ErrInjected}
	err := r.InTx(context.Background(), func(dbc dbctx.Context) error {
		return dbc.Tx.Create(&runnerRow{Name: "dropped"}).Error
	})
	if !errors.Is(err, ErrInjected) {
		t.Fatalf("expected injected err, got %v", err)
	}
	var n int64
	db.Model(&runnerRow{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected rollback, found %d rows", n)
	}
	if r.RollbackCalls != 1 || r.CommitCalls != 0 {
		t.Fatalf("unexpected counters commit=%d rollback=%d", r.CommitCalls, r.RollbackCalls)
	}
}

func TestFaultyTxRunner_FailBegin(t *testing.T) {
	beginErr := errors.New("no connection")
	r := &FaultyTxRunner{FailBegin: beginErr}
	called := false
	err := r.InTx(context.Background(), func(_ dbctx.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, beginErr) || called {
		t.Fatalf("expected begin failure without running body, err=%v called=%v", err, called)
	}
}
