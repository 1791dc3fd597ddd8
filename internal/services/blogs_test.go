package services

import (
	"testing"
	"time"

	"github.com/yungbote/analytics-database/internal/domain/blogs"
)

func sampleBlog() BlogRef {
	desc := "field notes"
	return BlogRef{
		ExternalID:  50,
		Creator:     &UserRef{ExternalID: 100, Username: "author"},
		Created:     t0.Add(-24 * time.Hour),
		Description: &desc,
		Body:        []string{"ignored when a description exists"},
	}
}

func TestBlogViewCreatesBlogForItsCreator(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	blog := sampleBlog()

	ev := BlogViewEvent{
		Actor:       actor(1, t0),
		ContextPath: []string{"profile", "blog"},
		Blog:        blog,
		TimeLength:  intPtr(15),
	}
	if _, err := a.Blogs.CreateBlogView(dbc, ev); err != nil {
		t.Fatalf("CreateBlogView: %v", err)
	}
	ev.TimeLength = intPtr(45)
	row, err := a.Blogs.CreateBlogView(dbc, ev)
	if err != nil || row == nil {
		t.Fatalf("CreateBlogView longer: row=%v err=%v", row, err)
	}
	if got := row.Seconds(); got == nil || *got != 45 {
		t.Fatalf("CreateBlogView longer: expected 45, got %v", got)
	}
	if n := count(t, db, &blogs.BlogView{}); n != 1 {
		t.Fatalf("expected 1 blog view, got %d", n)
	}

	var created blogs.Blog
	if err := db.First(&created).Error; err != nil {
		t.Fatalf("load blog: %v", err)
	}
	author, err := a.Users.ID(dbc, 100)
	if err != nil || author == nil {
		t.Fatalf("Users.ID: %v", err)
	}
	if created.UserID == nil || *created.UserID != *author {
		t.Fatalf("lazy blog must belong to its creator, got %v", created.UserID)
	}
	if created.BlogLength == nil || *created.BlogLength != len("field notes") {
		t.Fatalf("blog length must come from the description, got %v", created.BlogLength)
	}

	// the creator's own create event is now a replay
	again, err := a.Blogs.CreateBlog(dbc, actor(100, blog.Created), blog)
	if err != nil || again != nil {
		t.Fatalf("CreateBlog replay: row=%v err=%v", again, err)
	}

	viewed, err := a.Blogs.BlogViews(dbc, UserRef{ExternalID: 1}, Filter{Course: course("IGNORED")})
	if err != nil || len(viewed) != 1 {
		t.Fatalf("BlogViews: err=%v len=%d", err, len(viewed))
	}
	if viewed[0].User == nil || viewed[0].User.ExternalID != 1 {
		t.Fatalf("BlogViews: unexpected owner %+v", viewed[0].User)
	}
}

func TestBlogCommentRepliesAndRatings(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	blog := sampleBlog()
	if _, err := a.Blogs.CreateBlog(dbc, actor(100, blog.Created), blog); err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}

	first := CommentRef{ExternalID: 60, Created: t0, Body: []string{"nice"}}
	if _, err := a.Blogs.CreateComment(dbc, actor(100, t0), blog, first); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	reply := CommentRef{
		ExternalID: 61,
		Created:    t0.Add(time.Minute),
		InReplyTo:  &ReplyRef{ExternalID: 60, Creator: &UserRef{ExternalID: 100}},
	}
	row, err := a.Blogs.CreateComment(dbc, actor(2, t0.Add(time.Minute)), blog, reply)
	if err != nil || row == nil {
		t.Fatalf("CreateComment reply: row=%v err=%v", row, err)
	}
	if row.CommentLength == nil || *row.CommentLength != 0 {
		t.Fatalf("empty body must store length 0, got %v", row.CommentLength)
	}

	toAuthor, err := a.Blogs.RepliesToUser(dbc, UserRef{ExternalID: 100}, Filter{})
	if err != nil || len(toAuthor) != 1 {
		t.Fatalf("RepliesToUser: err=%v len=%d", err, len(toAuthor))
	}
	if toAuthor[0].RepliedToUser == nil || toAuthor[0].RepliedToUser.ExternalID != 100 {
		t.Fatalf("RepliesToUser: unexpected replied-to user %+v", toAuthor[0].RepliedToUser)
	}
	obj, ok := toAuthor[0].Object.(*ObjectRef)
	if !ok || obj.Kind != ObjectBlogComment || obj.ExternalID != "61" {
		t.Fatalf("RepliesToUser: unexpected object %+v", toAuthor[0].Object)
	}
	byReader, err := a.Blogs.UserRepliesToOthers(dbc, UserRef{ExternalID: 2}, Filter{})
	if err != nil || len(byReader) != 1 {
		t.Fatalf("UserRepliesToOthers: err=%v len=%d", err, len(byReader))
	}

	if changed, err := a.Blogs.LikeBlog(dbc, actor(2, t0), blog.ExternalID, 1); err != nil || !changed {
		t.Fatalf("LikeBlog: changed=%v err=%v", changed, err)
	}
	if changed, err := a.Blogs.FavoriteComment(dbc, actor(2, t0), 60, 1); err != nil || !changed {
		t.Fatalf("FavoriteComment: changed=%v err=%v", changed, err)
	}
	likes, err := a.Blogs.LikesForUsersBlogs(dbc, UserRef{ExternalID: 100}, Filter{})
	if err != nil || len(likes) != 1 {
		t.Fatalf("LikesForUsersBlogs: err=%v len=%d", err, len(likes))
	}
	if likes[0].User.ExternalID != 2 || likes[0].ObjectCreator.ExternalID != 100 {
		t.Fatalf("LikesForUsersBlogs: rater=%+v creator=%+v", likes[0].User, likes[0].ObjectCreator)
	}
	favs, err := a.Blogs.FavoritesForUsersComments(dbc, UserRef{ExternalID: 100}, Filter{})
	if err != nil || len(favs) != 1 {
		t.Fatalf("FavoritesForUsersComments: err=%v len=%d", err, len(favs))
	}

	if err := a.Blogs.FlagComment(dbc, 61, true); err != nil {
		t.Fatalf("FlagComment: %v", err)
	}
	if n := count(t, db, &blogs.BlogComment{}, "is_flagged = ?", true); n != 1 {
		t.Fatalf("expected 1 flagged comment, got %d", n)
	}
}

func TestDeleteBlogCascadesToComments(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	blog := sampleBlog()
	for _, id := range []int64{60, 61} {
		if _, err := a.Blogs.CreateComment(dbc, actor(2, t0), blog, CommentRef{ExternalID: id, Created: t0}); err != nil {
			t.Fatalf("CreateComment %d: %v", id, err)
		}
	}

	if err := a.Blogs.DeleteBlog(dbc, t0.Add(time.Hour), blog.ExternalID); err != nil {
		t.Fatalf("DeleteBlog: %v", err)
	}
	var b blogs.Blog
	if err := db.First(&b).Error; err != nil {
		t.Fatalf("load blog: %v", err)
	}
	if !b.IsDeleted() || b.ExternalID != nil {
		t.Fatalf("blog not soft-deleted: %+v", b)
	}
	if n := count(t, db, &blogs.BlogComment{}, "deleted IS NOT NULL"); n != 2 {
		t.Fatalf("expected 2 deleted comments, got %d", n)
	}

	// ratings for a deleted blog find nothing to count
	if changed, err := a.Blogs.LikeBlog(dbc, actor(3, t0), blog.ExternalID, 1); err != nil || changed {
		t.Fatalf("LikeBlog deleted: changed=%v err=%v", changed, err)
	}
	if err := a.Blogs.DeleteBlog(dbc, t0, 999); err != nil {
		t.Fatalf("DeleteBlog unknown: %v", err)
	}

	live, err := a.Blogs.BlogComments(dbc, UserRef{ExternalID: 2}, Filter{})
	if err != nil || len(live) != 0 {
		t.Fatalf("BlogComments: err=%v len=%d", err, len(live))
	}
	all, err := a.Blogs.BlogComments(dbc, UserRef{ExternalID: 2}, Filter{GetDeleted: true})
	if err != nil || len(all) != 2 {
		t.Fatalf("BlogComments deleted: err=%v len=%d", err, len(all))
	}
}
