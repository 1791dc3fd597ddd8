package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/data/repos/testutil"
	"github.com/yungbote/analytics-database/internal/domain/identity"
	"github.com/yungbote/analytics-database/internal/domain/rootcontext"
	"github.com/yungbote/analytics-database/internal/domain/search"
	"github.com/yungbote/analytics-database/internal/domain/views"
	"github.com/yungbote/analytics-database/internal/services"
)

const session = `kind: user.created
event:
  id: 7
  username: ada
---
kind: context.created
event:
  kind: course
  id: CS1000
  name: Intro
---
kind: resource.viewed
event:
  user: {id: 7}
  timestamp: 2024-09-02T14:00:00Z
  root:
    context: {kind: course, id: CS1000}
  resource: {id: "tag:reading-1"}
  time_length: 30
---
kind: search.query
event:
  user: {id: 7}
  timestamp: 2024-09-02T14:05:00Z
  term: photosynthesis
  hit_count: 3
---
kind: topic.liked
event:
  actor:
    user: {id: 7}
    timestamp: 2024-09-02T14:06:00Z
  id: 99
  delta: 1
---
kind: badge.earned
event: {}
---
kind: user.created
event:
  username: nobody
`

func newReplayer(t *testing.T) (*Replayer, *gorm.DB) {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	return New(services.New(services.Deps{DB: db, Log: log}), log), db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}

func TestReplayAppliesAndCountsFailures(t *testing.T) {
	r, db := newReplayer(t)
	recs, err := Decode(strings.NewReader(session), "session.yaml")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	res, err := r.Replay(context.Background(), recs, false)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if res.Applied != 5 || res.Failed != 2 {
		t.Fatalf("expected 5 applied and 2 failed, got %+v", res)
	}
	if n := count(t, db, &identity.User{}); n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}
	if n := count(t, db, &rootcontext.Course{}); n != 1 {
		t.Fatalf("expected 1 course, got %d", n)
	}
	if n := count(t, db, &views.ResourceView{}); n != 1 {
		t.Fatalf("expected 1 resource view, got %d", n)
	}
	if n := count(t, db, &search.SearchQuery{}); n != 1 {
		t.Fatalf("expected 1 search query, got %d", n)
	}

	// replaying the same file is idempotent except for search queries
	if _, err := r.Replay(context.Background(), recs, false); err != nil {
		t.Fatalf("Replay again: %v", err)
	}
	if n := count(t, db, &views.ResourceView{}); n != 1 {
		t.Fatalf("expected resource view to dedupe, got %d", n)
	}
	if n := count(t, db, &search.SearchQuery{}); n != 2 {
		t.Fatalf("expected search queries to accumulate, got %d", n)
	}
}

func TestReplayStopOnError(t *testing.T) {
	r, _ := newReplayer(t)
	recs, err := Decode(strings.NewReader(session), "session.yaml")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	res, err := r.Replay(context.Background(), recs, true)
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
	if res.Applied != 5 || res.Failed != 1 {
		t.Fatalf("expected to stop at the first failure, got %+v", res)
	}
}

func TestApplyValidationFailure(t *testing.T) {
	r, _ := newReplayer(t)
	recs, err := Decode(strings.NewReader("kind: enrollment.created\nevent:\n  course: {id: CS1000}\n"), "bad.yaml")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	err = r.Apply(context.Background(), recs[0])
	if !aggregates.IsCode(err, aggregates.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", aggregates.CodeOf(err), err)
	}

	err = r.Apply(context.Background(), Record{Source: "x.yaml", Line: 4})
	if !errors.Is(err, aggregates.ErrValidation) {
		t.Fatalf("expected missing kind to fail validation, got %v", err)
	}
}

func TestKindsCoverEveryFamily(t *testing.T) {
	r, _ := newReplayer(t)
	kinds := r.Kinds()
	for _, want := range []string{
		"user.created", "session.started", "resource.viewed", "forum_comment.created",
		"blog.liked", "assignment.graded", "chat.joined", "survey.taken",
		"enrollment.dropped", "profile.viewed", "note.created", "search.query",
	} {
		found := false
		for _, k := range kinds {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing kind %q", want)
		}
	}
	for i := 1; i < len(kinds); i++ {
		if kinds[i-1] >= kinds[i] {
			t.Fatalf("kinds not sorted at %d: %q %q", i, kinds[i-1], kinds[i])
		}
	}
}
