package events

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/analytics-database/internal/data/repos/testutil"
	"github.com/yungbote/analytics-database/internal/domain/boards"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
)

func TestRepoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := New[boards.Topic](db, testutil.Logger(t), "TopicRepo")

	user := time.Now().UnixNano()
	ext := user + 1
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	topic := &boards.Topic{
		ExternalID: &ext,
		ForumID:    1,
		Event:      mixin.Event{UserID: &user, Timestamp: &ts},
	}
	if err := repo.Create(dbc, topic); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.First(dbc, Where{"topic_ds_id": ext})
	if err != nil || got == nil || got.TopicID != topic.TopicID {
		t.Fatalf("First: err=%v got=%+v", err, got)
	}
	if ok, err := repo.Exists(dbc, Where{"topic_ds_id": ext}); err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	if got, err := repo.First(dbc, Where{"topic_ds_id": ext + 100}); err != nil || got != nil {
		t.Fatalf("First missing: err=%v got=%+v", err, got)
	}
	if _, err := repo.First(dbc, Where{}); err == nil {
		t.Fatalf("First: expected error without conditions")
	}

	// NULL counters count from zero.
	if err := repo.Increment(dbc, Where{"topic_id": topic.TopicID}, "like_count", 1); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if err := repo.Increment(dbc, Where{"topic_id": topic.TopicID}, "like_count", 1); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	got, _ = repo.First(dbc, Where{"topic_id": topic.TopicID})
	if got.Likes() != 2 {
		t.Fatalf("Increment: expected 2 likes, got %d", got.Likes())
	}

	n, err := repo.UpdateFields(dbc, Where{"topic_ds_id": ext}, map[string]any{"deleted": ts, "topic_ds_id": nil})
	if err != nil || n != 1 {
		t.Fatalf("UpdateFields: n=%d err=%v", n, err)
	}

	rows, err := repo.Find(dbc, UserIs(user), NotDeleted())
	if err != nil || len(rows) != 0 {
		t.Fatalf("Find NotDeleted: err=%v len=%d", err, len(rows))
	}
	rows, err = repo.Find(dbc, UserIs(user), Since(&ts), Until(&ts))
	if err != nil || len(rows) != 1 {
		t.Fatalf("Find window: err=%v len=%d", err, len(rows))
	}
	later := ts.Add(time.Second)
	if c, err := repo.Count(dbc, UserIs(user), Since(&later)); err != nil || c != 0 {
		t.Fatalf("Count since later: c=%d err=%v", c, err)
	}
	if c, err := repo.Count(dbc, UserIs(user), Empty()); err != nil || c != 0 {
		t.Fatalf("Count empty: c=%d err=%v", c, err)
	}

	n, err = repo.Delete(dbc, Where{"topic_id": topic.TopicID})
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
}
