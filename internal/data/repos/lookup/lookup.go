// Package lookup implements the small get-or-create tables keyed by one
// unique natural value (user agents, mime types, enrollment types).
package lookup

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/analytics-database/internal/domain/enrollments"
	"github.com/yungbote/analytics-database/internal/domain/identity"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

type LookupRepo interface {
	// ID returns the surrogate id for value, inserting it if absent.
	ID(dbc dbctx.Context, value string) (int64, error)
	// Find returns the id without inserting; ok is false when absent.
	Find(dbc dbctx.Context, value string) (id int64, ok bool, err error)
}

type lookupRepo[T any] struct {
	db     *gorm.DB
	log    *logger.Logger
	column string
	build  func(value string) *T
	id     func(row *T) int64
}

func NewUserAgentRepo(db *gorm.DB, baseLog *logger.Logger) LookupRepo {
	return &lookupRepo[identity.UserAgent]{
		db:     db,
		log:    baseLog.With("repo", "UserAgentRepo"),
		column: "user_agent",
		build:  func(v string) *identity.UserAgent { return &identity.UserAgent{UserAgent: v} },
		id:     func(r *identity.UserAgent) int64 { return r.UserAgentID },
	}
}

func NewMimeTypeRepo(db *gorm.DB, baseLog *logger.Logger) LookupRepo {
	return &lookupRepo[identity.FileMimeType]{
		db:     db,
		log:    baseLog.With("repo", "MimeTypeRepo"),
		column: "mime_type",
		build:  func(v string) *identity.FileMimeType { return &identity.FileMimeType{MimeType: v} },
		id:     func(r *identity.FileMimeType) int64 { return r.FileMimeTypeID },
	}
}

func NewEnrollmentTypeRepo(db *gorm.DB, baseLog *logger.Logger) LookupRepo {
	return &lookupRepo[enrollments.EnrollmentType]{
		db:     db,
		log:    baseLog.With("repo", "EnrollmentTypeRepo"),
		column: "type_name",
		build:  func(v string) *enrollments.EnrollmentType { return &enrollments.EnrollmentType{TypeName: v} },
		id:     func(r *enrollments.EnrollmentType) int64 { return r.TypeID },
	}
}

func (r *lookupRepo[T]) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context())
}

func (r *lookupRepo[T]) Find(dbc dbctx.Context, value string) (int64, bool, error) {
	var out T
	res := r.tx(dbc).Where(map[string]any{r.column: value}).Limit(1).Find(&out)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	return r.id(&out), true, nil
}

// ID inserts with ON CONFLICT DO NOTHING and re-selects, so two writers
// racing on the same value both end up with the winner's id.
func (r *lookupRepo[T]) ID(dbc dbctx.Context, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("lookup %s: empty value", r.column)
	}
	if id, ok, err := r.Find(dbc, value); err != nil || ok {
		return id, err
	}
	row := r.build(value)
	if err := r.tx(dbc).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		return 0, err
	}
	id, ok, err := r.Find(dbc, value)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("lookup %s: %q missing after insert", r.column, value)
	}
	return id, nil
}
