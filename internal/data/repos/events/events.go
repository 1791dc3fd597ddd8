// Package events is the table-agnostic repository used by every event
// family. Conditions are passed as column maps or clause expressions so
// reserved column names such as "timestamp" are always quoted.
package events

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// Where is an equality condition set; a nil value matches NULL.
type Where map[string]any

type Repo[T any] interface {
	Create(dbc dbctx.Context, row *T) error
	First(dbc dbctx.Context, where Where) (*T, error)
	Exists(dbc dbctx.Context, where Where) (bool, error)
	UpdateFields(dbc dbctx.Context, where Where, updates map[string]any) (int64, error)
	Delete(dbc dbctx.Context, where Where) (int64, error)
	Increment(dbc dbctx.Context, where Where, column string, delta int) error
	Find(dbc dbctx.Context, scopes ...Scope) ([]*T, error)
	Count(dbc dbctx.Context, scopes ...Scope) (int64, error)
}

type repo[T any] struct {
	db  *gorm.DB
	log *logger.Logger
}

func New[T any](db *gorm.DB, baseLog *logger.Logger, name string) Repo[T] {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &repo[T]{db: db, log: baseLog.With("repo", name)}
}

func (r *repo[T]) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context())
}

func (r *repo[T]) Create(dbc dbctx.Context, row *T) error {
	if row == nil {
		return nil
	}
	if err := r.tx(dbc).Create(row).Error; err != nil {
		return err
	}
	r.log.Debug("row inserted", "table", fmt.Sprintf("%T", row))
	return nil
}

func (r *repo[T]) First(dbc dbctx.Context, where Where) (*T, error) {
	if len(where) == 0 {
		return nil, errors.New("events: First requires at least one condition")
	}
	var out T
	res := r.tx(dbc).Where(map[string]any(where)).Limit(1).Find(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}

func (r *repo[T]) Exists(dbc dbctx.Context, where Where) (bool, error) {
	if len(where) == 0 {
		return false, errors.New("events: Exists requires at least one condition")
	}
	var count int64
	if err := r.tx(dbc).Model(new(T)).Where(map[string]any(where)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo[T]) UpdateFields(dbc dbctx.Context, where Where, updates map[string]any) (int64, error) {
	if len(where) == 0 {
		return 0, errors.New("events: UpdateFields requires at least one condition")
	}
	if len(updates) == 0 {
		return 0, nil
	}
	res := r.tx(dbc).Model(new(T)).Where(map[string]any(where)).Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repo[T]) Delete(dbc dbctx.Context, where Where) (int64, error) {
	if len(where) == 0 {
		return 0, errors.New("events: Delete requires at least one condition")
	}
	res := r.tx(dbc).Where(map[string]any(where)).Delete(new(T))
	return res.RowsAffected, res.Error
}

// Increment adds delta to a nullable counter column, treating NULL as zero.
func (r *repo[T]) Increment(dbc dbctx.Context, where Where, column string, delta int) error {
	if len(where) == 0 {
		return errors.New("events: Increment requires at least one condition")
	}
	expr := gorm.Expr("COALESCE(?, 0) + ?", clause.Column{Name: column}, delta)
	return r.tx(dbc).Model(new(T)).Where(map[string]any(where)).UpdateColumn(column, expr).Error
}

func (r *repo[T]) Find(dbc dbctx.Context, scopes ...Scope) ([]*T, error) {
	out := []*T{}
	q := r.tx(dbc).Model(new(T))
	for _, s := range scopes {
		if s != nil {
			q = s(q)
		}
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo[T]) Count(dbc dbctx.Context, scopes ...Scope) (int64, error) {
	var n int64
	q := r.tx(dbc).Model(new(T))
	for _, s := range scopes {
		if s != nil {
			q = s(q)
		}
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
