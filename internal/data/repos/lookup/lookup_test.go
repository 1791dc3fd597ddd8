package lookup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/yungbote/analytics-database/internal/data/repos/testutil"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
)

func TestLookupRepoGetOrCreate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	for name, repo := range map[string]LookupRepo{
		"user_agent":      NewUserAgentRepo(db, testutil.Logger(t)),
		"mime_type":       NewMimeTypeRepo(db, testutil.Logger(t)),
		"enrollment_type": NewEnrollmentTypeRepo(db, testutil.Logger(t)),
	} {
		value := fmt.Sprintf("%s-%d", name, time.Now().UnixNano())

		if _, ok, err := repo.Find(dbc, value); err != nil || ok {
			t.Fatalf("%s Find before insert: ok=%v err=%v", name, ok, err)
		}
		first, err := repo.ID(dbc, value)
		if err != nil {
			t.Fatalf("%s ID: %v", name, err)
		}
		second, err := repo.ID(dbc, "  "+value+" ")
		if err != nil {
			t.Fatalf("%s ID again: %v", name, err)
		}
		if first != second {
			t.Fatalf("%s ID: expected stable id %d, got %d", name, first, second)
		}
		if id, ok, err := repo.Find(dbc, value); err != nil || !ok || id != first {
			t.Fatalf("%s Find: id=%d ok=%v err=%v", name, id, ok, err)
		}
		if _, err := repo.ID(dbc, "   "); err == nil {
			t.Fatalf("%s ID: expected error for blank value", name)
		}
	}
}
