package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/data/repos/testutil"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
)

var t0 = time.Date(2024, 9, 2, 14, 0, 0, 0, time.UTC)

// newTestAnalytics wires every service over a private sqlite database.
func newTestAnalytics(t *testing.T) (*Analytics, dbctx.Context, *gorm.DB) {
	t.Helper()
	db := testutil.SQLite(t)
	a := New(Deps{DB: db, Log: testutil.Logger(t)})
	return a, dbctx.Context{Ctx: context.Background()}, db
}

func count(t *testing.T, db *gorm.DB, model any, where ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}

func actor(id int64, at time.Time) Actor {
	return Actor{User: &UserRef{ExternalID: id, Username: "user" + objectID(id)}, Timestamp: at}
}

func course(id string) *ContextRef {
	return &ContextRef{Kind: ContextCourse, ExternalID: id, Name: id}
}
