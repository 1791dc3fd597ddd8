package services

import (
	"errors"
	"testing"
	"time"

	aggtest "github.com/yungbote/analytics-database/internal/data/aggregates/testutil"
	"github.com/yungbote/analytics-database/internal/data/repos/testutil"
	"github.com/yungbote/analytics-database/internal/domain/boards"
	"github.com/yungbote/analytics-database/internal/domain/identity"
	"github.com/yungbote/analytics-database/internal/domain/rootcontext"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
)

func sampleTopic() TopicRef {
	forum := ForumRef{
		ExternalID: 10,
		Creator:    &UserRef{ExternalID: 100, Username: "instructor"},
		Created:    t0.Add(-48 * time.Hour),
		Root:       CourseRoot(course("CHEM1000")),
	}
	return TopicRef{
		ExternalID: 20,
		Forum:      forum,
		Creator:    &UserRef{ExternalID: 101, Username: "ta"},
		Created:    t0.Add(-24 * time.Hour),
	}
}

func TestCreateCommentCreatesMissingParentsOnce(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	topic := sampleTopic()

	for i, id := range []int64{30, 31} {
		comment := CommentRef{ExternalID: id, Created: t0.Add(time.Duration(i) * time.Minute), Body: []string{"hello", "world"}}
		row, err := a.Boards.CreateComment(dbc, actor(1, t0), topic, comment)
		if err != nil || row == nil {
			t.Fatalf("CreateComment %d: row=%v err=%v", id, row, err)
		}
		if row.CommentLength == nil || *row.CommentLength != 10 {
			t.Fatalf("CreateComment %d: expected length 10, got %v", id, row.CommentLength)
		}
	}

	if n := count(t, db, &boards.Forum{}); n != 1 {
		t.Fatalf("expected 1 forum, got %d", n)
	}
	if n := count(t, db, &boards.Topic{}); n != 1 {
		t.Fatalf("expected 1 topic, got %d", n)
	}
	if n := count(t, db, &boards.ForumComment{}); n != 2 {
		t.Fatalf("expected 2 comments, got %d", n)
	}

	var forum boards.Forum
	if err := db.First(&forum).Error; err != nil {
		t.Fatalf("load forum: %v", err)
	}
	creator, err := a.Users.ID(dbc, 100)
	if err != nil || creator == nil {
		t.Fatalf("Users.ID: %v", err)
	}
	if forum.UserID == nil || *forum.UserID != *creator {
		t.Fatalf("lazy forum must belong to its own creator, got %v", forum.UserID)
	}
	if forum.SessionID != nil {
		t.Fatalf("lazy forum must have no session, got %v", *forum.SessionID)
	}
	if forum.Timestamp == nil || !forum.Timestamp.Equal(t0.Add(-48*time.Hour)) {
		t.Fatalf("lazy forum must carry its creation time, got %v", forum.Timestamp)
	}
}

func TestCreateCommentIsIdempotent(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	topic := sampleTopic()
	comment := CommentRef{ExternalID: 30, Created: t0}

	if _, err := a.Boards.CreateComment(dbc, actor(1, t0), topic, comment); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	row, err := a.Boards.CreateComment(dbc, actor(1, t0), topic, comment)
	if err != nil {
		t.Fatalf("CreateComment replay: %v", err)
	}
	if row != nil {
		t.Fatalf("CreateComment replay: expected nil row, got %+v", row)
	}
	if n := count(t, db, &boards.ForumComment{}); n != 1 {
		t.Fatalf("expected 1 comment, got %d", n)
	}
}

func TestDeleteForumCascades(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	topic := sampleTopic()
	if _, err := a.Boards.CreateComment(dbc, actor(1, t0), topic, CommentRef{ExternalID: 30}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	at := t0.Add(time.Hour)
	if err := a.Boards.DeleteForum(dbc, at, topic.Forum.ExternalID); err != nil {
		t.Fatalf("DeleteForum: %v", err)
	}

	var forum boards.Forum
	if err := db.First(&forum).Error; err != nil {
		t.Fatalf("load forum: %v", err)
	}
	if !forum.IsDeleted() || forum.ExternalID != nil {
		t.Fatalf("forum not soft-deleted: %+v", forum)
	}
	var tp boards.Topic
	if err := db.First(&tp).Error; err != nil {
		t.Fatalf("load topic: %v", err)
	}
	if !tp.IsDeleted() || tp.ExternalID != nil {
		t.Fatalf("topic not soft-deleted: %+v", tp)
	}
	var c boards.ForumComment
	if err := db.First(&c).Error; err != nil {
		t.Fatalf("load comment: %v", err)
	}
	if !c.IsDeleted() || c.CommentID != 30 {
		t.Fatalf("comment not soft-deleted with id kept: %+v", c)
	}

	// deleting an unknown forum is a no-op
	if err := a.Boards.DeleteForum(dbc, at, 999); err != nil {
		t.Fatalf("DeleteForum unknown: %v", err)
	}

	live, err := a.Boards.ForumComments(dbc, &UserRef{ExternalID: 1}, Filter{})
	if err != nil || len(live) != 0 {
		t.Fatalf("ForumComments: err=%v len=%d", err, len(live))
	}
	all, err := a.Boards.ForumComments(dbc, &UserRef{ExternalID: 1}, Filter{GetDeleted: true})
	if err != nil || len(all) != 1 {
		t.Fatalf("ForumComments deleted: err=%v len=%d", err, len(all))
	}
}

func TestLikeTopicTogglesRatingRow(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	topic := sampleTopic()
	if _, err := a.Boards.CreateTopic(dbc, actor(101, t0), topic); err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	liker := actor(2, t0.Add(time.Minute))
	for _, step := range []struct {
		delta   int
		changed bool
		rows    int64
	}{
		{+1, true, 1},
		{+1, false, 1},
		{-1, true, 0},
		{-1, false, 0},
	} {
		changed, err := a.Boards.LikeTopic(dbc, liker, topic.ExternalID, step.delta)
		if err != nil {
			t.Fatalf("LikeTopic(%+d): %v", step.delta, err)
		}
		if changed != step.changed {
			t.Fatalf("LikeTopic(%+d): changed=%v want %v", step.delta, changed, step.changed)
		}
		if n := count(t, db, &boards.TopicLike{}); n != step.rows {
			t.Fatalf("LikeTopic(%+d): expected %d like rows, got %d", step.delta, step.rows, n)
		}
	}

	// the counter follows every delta even when the row did not change
	var tp boards.Topic
	if err := db.First(&tp).Error; err != nil {
		t.Fatalf("load topic: %v", err)
	}
	if tp.Likes() != 0 {
		t.Fatalf("expected like counter 0, got %d", tp.Likes())
	}

	if changed, err := a.Boards.LikeTopic(dbc, liker, 999, 1); err != nil || changed {
		t.Fatalf("LikeTopic unknown: changed=%v err=%v", changed, err)
	}
}

func TestTopicViewRootCourseRollsUpToParent(t *testing.T) {
	a, dbc, _ := newTestAnalytics(t)
	parent := course("CS1000")
	section := &ContextRef{Kind: ContextCourse, ExternalID: "CS1000-001", Parent: parent}

	topic := sampleTopic()
	topic.Forum.Root = CourseRoot(parent)
	ev := TopicViewEvent{
		Actor:      actor(1, t0),
		Root:       CourseRoot(parent),
		Topic:      topic,
		TimeLength: intPtr(12),
	}
	if _, err := a.Boards.CreateTopicView(dbc, ev); err != nil {
		t.Fatalf("CreateTopicView: %v", err)
	}
	if _, err := a.RootContexts.ID(dbc, *section, true); err != nil {
		t.Fatalf("RootContexts.ID section: %v", err)
	}

	got, err := a.Boards.TopicViews(dbc, &UserRef{ExternalID: 1}, nil, Filter{Course: section})
	if err != nil || len(got) != 1 {
		t.Fatalf("TopicViews section: err=%v len=%d", err, len(got))
	}
	if got[0].RootContext == nil || got[0].RootContext.ExternalID != "CS1000" {
		t.Fatalf("TopicViews: expected parent root, got %+v", got[0].RootContext)
	}

	got, err = a.Boards.TopicViews(dbc, &UserRef{ExternalID: 1}, nil, Filter{Course: course("UNKNOWN")})
	if err != nil || len(got) != 0 {
		t.Fatalf("TopicViews unknown course: err=%v len=%d", err, len(got))
	}
}

func TestFailedWriteRollsBackLazyParents(t *testing.T) {
	db := testutil.SQLite(t)
	runner := &aggtest.FaultyTxRunner{DB: db, FailAfterBody: aggtest.ErrInjected}
	a := New(Deps{DB: db, Log: testutil.Logger(t), Runner: runner})
	dbc := dbctx.Context{}

	_, err := a.Boards.CreateComment(dbc, actor(1, t0), sampleTopic(), CommentRef{ExternalID: 30})
	if !errors.Is(err, aggtest.ErrInjected) {
		t.Fatalf("CreateComment: expected injected fault, got %v", err)
	}
	if runner.RollbackCalls != 1 {
		t.Fatalf("expected one rollback, got %d", runner.RollbackCalls)
	}
	for _, model := range []any{&boards.Forum{}, &boards.Topic{}, &boards.ForumComment{}, &identity.User{}, &rootcontext.Course{}} {
		if n := count(t, db, model); n != 0 {
			t.Fatalf("%T: expected rollback to leave no rows, got %d", model, n)
		}
	}
}

func TestDeleteCommentKeepsFirstStamp(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	topic := sampleTopic()
	if _, err := a.Boards.CreateComment(dbc, actor(1, t0), topic, CommentRef{ExternalID: 30}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	first := t0.Add(time.Hour)
	if err := a.Boards.DeleteComment(dbc, first, 30); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if err := a.Boards.DeleteComment(dbc, first.Add(time.Hour), 30); err != nil {
		t.Fatalf("DeleteComment again: %v", err)
	}
	if err := a.Boards.DeleteForum(dbc, first.Add(2*time.Hour), topic.Forum.ExternalID); err != nil {
		t.Fatalf("DeleteForum: %v", err)
	}

	var c boards.ForumComment
	if err := db.First(&c).Error; err != nil {
		t.Fatalf("load comment: %v", err)
	}
	if c.Deleted.Deleted == nil || !c.Deleted.Deleted.Equal(first) {
		t.Fatalf("comment must keep its first delete stamp, got %v", c.Deleted.Deleted)
	}
	var tp boards.Topic
	if err := db.First(&tp).Error; err != nil {
		t.Fatalf("load topic: %v", err)
	}
	if tp.Deleted.Deleted == nil || !tp.Deleted.Deleted.Equal(first.Add(2*time.Hour)) {
		t.Fatalf("topic must carry the forum delete stamp, got %v", tp.Deleted.Deleted)
	}
}
