package services

import (
	"time"

	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/domain/blogs"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// BlogRef describes a blog entry. Its length is the description length
// when there is one, otherwise the summed body length.
type BlogRef struct {
	ExternalID  int64      `json:"id" yaml:"id" validate:"required"`
	Creator     *UserRef   `json:"creator,omitempty" yaml:"creator"`
	Created     time.Time  `json:"created" yaml:"created"`
	Description *string    `json:"description,omitempty" yaml:"description"`
	Body        []string   `json:"body,omitempty" yaml:"body"`
	Ratings     RatingsRef `json:"ratings" yaml:"ratings"`
}

func (b BlogRef) length() *int {
	if b.Description != nil {
		return intPtr(len(*b.Description))
	}
	return bodyLength(b.Body)
}

type BlogViewEvent struct {
	Actor       `yaml:",inline"`
	ContextPath []string `json:"context_path,omitempty" yaml:"context_path"`
	Blog        BlogRef  `json:"blog" yaml:"blog"`
	TimeLength  *int     `json:"time_length,omitempty" yaml:"time_length"`
}

// BlogService records blog entries and their comments. Blogs are personal,
// so none of these tables carries a root context and course filters are
// ignored on reads.
type BlogService interface {
	CreateBlog(dbc dbctx.Context, a Actor, blog BlogRef) (*blogs.Blog, error)
	DeleteBlog(dbc dbctx.Context, at time.Time, blogID int64) error
	CreateBlogView(dbc dbctx.Context, ev BlogViewEvent) (*blogs.BlogView, error)
	LikeBlog(dbc dbctx.Context, a Actor, blogID int64, delta int) (bool, error)
	FavoriteBlog(dbc dbctx.Context, a Actor, blogID int64, delta int) (bool, error)
	FlagBlog(dbc dbctx.Context, blogID int64, flagged bool) error
	CreateComment(dbc dbctx.Context, a Actor, blog BlogRef, comment CommentRef) (*blogs.BlogComment, error)
	DeleteComment(dbc dbctx.Context, at time.Time, commentID int64) error
	LikeComment(dbc dbctx.Context, a Actor, commentID int64, delta int) (bool, error)
	FavoriteComment(dbc dbctx.Context, a Actor, commentID int64, delta int) (bool, error)
	FlagComment(dbc dbctx.Context, commentID int64, flagged bool) error

	Blogs(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.Blog], error)
	BlogComments(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogComment], error)
	BlogViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogView], error)
	UserRepliesToOthers(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogComment], error)
	RepliesToUser(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogComment], error)
	LikesForUsersBlogs(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogLike], error)
	FavoritesForUsersBlogs(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogFavorite], error)
	LikesForUsersComments(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogCommentLike], error)
	FavoritesForUsersComments(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogCommentFavorite], error)
}

type blogService struct {
	*core
	log *logger.Logger

	blogs            events.Repo[blogs.Blog]
	views            events.Repo[blogs.BlogView]
	comments         events.Repo[blogs.BlogComment]
	likes            events.Repo[blogs.BlogLike]
	favorites        events.Repo[blogs.BlogFavorite]
	commentLikes     events.Repo[blogs.BlogCommentLike]
	commentFavorites events.Repo[blogs.BlogCommentFavorite]
}

func newBlogService(c *core) BlogService {
	return &blogService{
		core:             c,
		log:              c.log.With("service", "BlogService"),
		blogs:            events.New[blogs.Blog](c.db, c.log, "BlogRepo"),
		views:            events.New[blogs.BlogView](c.db, c.log, "BlogViewRepo"),
		comments:         events.New[blogs.BlogComment](c.db, c.log, "BlogCommentRepo"),
		likes:            events.New[blogs.BlogLike](c.db, c.log, "BlogLikeRepo"),
		favorites:        events.New[blogs.BlogFavorite](c.db, c.log, "BlogFavoriteRepo"),
		commentLikes:     events.New[blogs.BlogCommentLike](c.db, c.log, "BlogCommentLikeRepo"),
		commentFavorites: events.New[blogs.BlogCommentFavorite](c.db, c.log, "BlogCommentFavoriteRepo"),
	}
}

func (s *blogService) CreateBlog(dbc dbctx.Context, a Actor, blog BlogRef) (*blogs.Blog, error) {
	var out *blogs.Blog
	err := s.write(dbc, "blogs.create_blog", func(dbc dbctx.Context) error {
		var err error
		out, err = s.createBlog(dbc, a, blog)
		return err
	})
	return out, err
}

func (s *blogService) createBlog(dbc dbctx.Context, a Actor, blog BlogRef) (*blogs.Blog, error) {
	uid, err := s.requireUserID(dbc, a.User)
	if err != nil {
		return nil, err
	}
	return recordFact(dbc, s.blogs, s.log, "blog", events.Where{"blog_ds_id": blog.ExternalID},
		func() (*blogs.Blog, error) {
			return &blogs.Blog{
				ExternalID: int64Ptr(blog.ExternalID),
				BlogLength: blog.length(),
				Event:      mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: createdAt(blog.Created, a)},
				Ratings:    ratingsOf(blog.Ratings),
			}, nil
		})
}

func (s *blogService) blogID(dbc dbctx.Context, blog BlogRef, child Actor) (int64, error) {
	found, err := s.blogs.First(dbc, events.Where{"blog_ds_id": blog.ExternalID})
	if err != nil {
		return 0, err
	}
	if found != nil {
		return found.BlogID, nil
	}
	created, err := s.createBlog(dbc, creatorActor(blog.Creator, blog.Created, child), blog)
	if err != nil {
		return 0, err
	}
	s.log.Info("created blog lazily", "blog_ds_id", blog.ExternalID, "blog_id", created.BlogID)
	return created.BlogID, nil
}

func (s *blogService) DeleteBlog(dbc dbctx.Context, at time.Time, blogID int64) error {
	return s.write(dbc, "blogs.delete_blog", func(dbc dbctx.Context) error {
		found, err := s.blogs.First(dbc, events.Where{"blog_ds_id": blogID})
		if err != nil {
			return err
		}
		if found == nil {
			s.log.Info("blog never created", "blog_ds_id", blogID)
			return nil
		}
		if _, err := softDelete(dbc, s.blogs, events.Where{"blog_id": found.BlogID}, "blog_ds_id", at); err != nil {
			return err
		}
		_, err = softDelete(dbc, s.comments, events.Where{"blog_id": found.BlogID}, "", at)
		return err
	})
}

func (s *blogService) CreateBlogView(dbc dbctx.Context, ev BlogViewEvent) (*blogs.BlogView, error) {
	var out *blogs.BlogView
	err := s.write(dbc, "blogs.create_blog_view", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, ev.User)
		if err != nil {
			return err
		}
		bid, err := s.blogID(dbc, ev.Blog, ev.Actor)
		if err != nil {
			return err
		}
		ts := utc(ev.Timestamp)
		key := events.Where{"user_id": uid, "blog_id": bid, "timestamp": ts}
		out, err = recordHeartbeat(dbc, s.views, s.log, "blog view", key, ev.TimeLength, nil,
			func() (*blogs.BlogView, error) {
				path := mixin.EncodeContextPath(ev.ContextPath)
				return &blogs.BlogView{
					BlogID:     bid,
					KeyedView:  mixin.KeyedView{UserID: uid, SessionID: ev.SessionID, Timestamp: ts, ContextPath: &path},
					TimeLength: mixin.TimeLength{TimeLength: ev.TimeLength},
				}, nil
			})
		return err
	})
	return out, err
}

func (s *blogService) LikeBlog(dbc dbctx.Context, a Actor, blogID int64, delta int) (bool, error) {
	return s.rateBlog(dbc, "blogs.like_blog", "like_count", a, blogID, delta, func(dbc dbctx.Context, b *blogs.Blog, uid int64) (bool, error) {
		return applyRating(dbc, s.likes, events.Where{"user_id": uid, "blog_id": b.BlogID}, delta, &blogs.BlogLike{
			BlogID:  b.BlogID,
			Rater:   mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
			Creator: mixin.Creator{CreatorID: b.UserID},
		})
	})
}

func (s *blogService) FavoriteBlog(dbc dbctx.Context, a Actor, blogID int64, delta int) (bool, error) {
	return s.rateBlog(dbc, "blogs.favorite_blog", "favorite_count", a, blogID, delta, func(dbc dbctx.Context, b *blogs.Blog, uid int64) (bool, error) {
		return applyRating(dbc, s.favorites, events.Where{"user_id": uid, "blog_id": b.BlogID}, delta, &blogs.BlogFavorite{
			BlogID:  b.BlogID,
			Rater:   mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
			Creator: mixin.Creator{CreatorID: b.UserID},
		})
	})
}

func (s *blogService) rateBlog(dbc dbctx.Context, op, counter string, a Actor, blogID int64, delta int, apply func(dbctx.Context, *blogs.Blog, int64) (bool, error)) (bool, error) {
	var changed bool
	err := s.write(dbc, op, func(dbc dbctx.Context) error {
		blog, err := s.blogs.First(dbc, events.Where{"blog_ds_id": blogID})
		if err != nil || blog == nil {
			return err
		}
		if err := s.blogs.Increment(dbc, events.Where{"blog_id": blog.BlogID}, counter, delta); err != nil {
			return err
		}
		if a.User == nil {
			return nil
		}
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		changed, err = apply(dbc, blog, uid)
		return err
	})
	return changed, err
}

func (s *blogService) FlagBlog(dbc dbctx.Context, blogID int64, flagged bool) error {
	return s.write(dbc, "blogs.flag_blog", func(dbc dbctx.Context) error {
		n, err := s.blogs.UpdateFields(dbc, events.Where{"blog_ds_id": blogID}, map[string]any{"is_flagged": flagged})
		if err == nil && n == 0 {
			s.log.Info("flag for unrecorded blog", "blog_ds_id", blogID)
		}
		return err
	})
}

func (s *blogService) CreateComment(dbc dbctx.Context, a Actor, blog BlogRef, comment CommentRef) (*blogs.BlogComment, error) {
	var out *blogs.BlogComment
	err := s.write(dbc, "blogs.create_comment", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		bid, err := s.blogID(dbc, blog, a)
		if err != nil {
			return err
		}
		out, err = recordFact(dbc, s.comments, s.log, "blog comment", events.Where{"comment_id": comment.ExternalID},
			func() (*blogs.BlogComment, error) {
				reply, err := s.replyTo(dbc, comment.InReplyTo)
				if err != nil {
					return nil, err
				}
				length := bodyLength(comment.Body)
				if length == nil {
					length = intPtr(0)
				}
				return &blogs.BlogComment{
					CommentID:     comment.ExternalID,
					BlogID:        bid,
					CommentLength: length,
					Event:         mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: createdAt(comment.Created, a)},
					ReplyTo:       reply,
					Ratings:       ratingsOf(comment.Ratings),
				}, nil
			})
		return err
	})
	return out, err
}

func (s *blogService) DeleteComment(dbc dbctx.Context, at time.Time, commentID int64) error {
	return s.write(dbc, "blogs.delete_comment", func(dbc dbctx.Context) error {
		n, err := softDelete(dbc, s.comments, events.Where{"comment_id": commentID}, "", at)
		if err == nil && n == 0 {
			s.log.Info("blog comment unknown or already deleted", "comment_id", commentID)
		}
		return err
	})
}

func (s *blogService) LikeComment(dbc dbctx.Context, a Actor, commentID int64, delta int) (bool, error) {
	return s.rateComment(dbc, "blogs.like_comment", "like_count", a, commentID, delta, func(dbc dbctx.Context, c *blogs.BlogComment, uid int64) (bool, error) {
		return applyRating(dbc, s.commentLikes, events.Where{"user_id": uid, "comment_id": c.CommentID}, delta, &blogs.BlogCommentLike{
			CommentID: c.CommentID,
			Rater:     mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
			Creator:   mixin.Creator{CreatorID: c.UserID},
		})
	})
}

func (s *blogService) FavoriteComment(dbc dbctx.Context, a Actor, commentID int64, delta int) (bool, error) {
	return s.rateComment(dbc, "blogs.favorite_comment", "favorite_count", a, commentID, delta, func(dbc dbctx.Context, c *blogs.BlogComment, uid int64) (bool, error) {
		return applyRating(dbc, s.commentFavorites, events.Where{"user_id": uid, "comment_id": c.CommentID}, delta, &blogs.BlogCommentFavorite{
			CommentID: c.CommentID,
			Rater:     mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
			Creator:   mixin.Creator{CreatorID: c.UserID},
		})
	})
}

func (s *blogService) rateComment(dbc dbctx.Context, op, counter string, a Actor, commentID int64, delta int, apply func(dbctx.Context, *blogs.BlogComment, int64) (bool, error)) (bool, error) {
	var changed bool
	err := s.write(dbc, op, func(dbc dbctx.Context) error {
		key := events.Where{"comment_id": commentID}
		comment, err := s.comments.First(dbc, key)
		if err != nil || comment == nil {
			return err
		}
		if err := s.comments.Increment(dbc, key, counter, delta); err != nil {
			return err
		}
		if a.User == nil {
			return nil
		}
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		changed, err = apply(dbc, comment, uid)
		return err
	})
	return changed, err
}

func (s *blogService) FlagComment(dbc dbctx.Context, commentID int64, flagged bool) error {
	return s.write(dbc, "blogs.flag_comment", func(dbc dbctx.Context) error {
		n, err := s.comments.UpdateFields(dbc, events.Where{"comment_id": commentID}, map[string]any{"is_flagged": flagged})
		if err == nil && n == 0 {
			s.log.Info("flag for unrecorded blog comment", "comment_id", commentID)
		}
		return err
	})
}

// personal drops the course bound; blog tables have no course column.
func personal(f Filter) Filter {
	f.Course = nil
	return f
}

func (s *blogService) Blogs(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.Blog], error) {
	f = personal(f)
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.blogs.Find(dbc, append(scopes, deletedScope(f))...)
	if err != nil {
		return nil, err
	}
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *blogs.Blog) (*Resolved[blogs.Blog], error) {
		out := &Resolved[blogs.Blog]{Row: row}
		ok, err := r.event(out, row.UserID, mixin.RootContext{})
		if err != nil || !ok || row.ExternalID == nil {
			return nil, err
		}
		if out.Object, err = r.object(ObjectBlog, objectID(*row.ExternalID)); err != nil || out.Object == nil {
			return nil, err
		}
		return out, nil
	})
}

func (s *blogService) BlogComments(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogComment], error) {
	f = personal(f)
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.comments.Find(dbc, append(scopes, deletedScope(f))...)
	if err != nil {
		return nil, err
	}
	return s.resolveComments(dbc, rows)
}

func (s *blogService) BlogViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogView], error) {
	scopes, _, err := s.userScopes(dbc, user, personal(f))
	if err != nil {
		return nil, err
	}
	rows, err := s.views.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return resolveOwned(s.resolution(dbc), rows, func(row *blogs.BlogView) (*int64, mixin.RootContext) {
		return &row.UserID, mixin.RootContext{}
	})
}

func (s *blogService) UserRepliesToOthers(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogComment], error) {
	rows, err := repliesToOthers(dbc, s.core, s.comments, user, personal(f))
	if err != nil {
		return nil, err
	}
	return s.resolveComments(dbc, rows)
}

func (s *blogService) RepliesToUser(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogComment], error) {
	rows, err := repliesToUser(dbc, s.core, s.comments, user, personal(f))
	if err != nil {
		return nil, err
	}
	return s.resolveComments(dbc, rows)
}

func (s *blogService) LikesForUsersBlogs(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogLike], error) {
	return ratingsForCreator(dbc, s.core, s.likes, user, personal(f), func(r *blogs.BlogLike) (int64, *int64) { return r.UserID, r.CreatorID })
}

func (s *blogService) FavoritesForUsersBlogs(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogFavorite], error) {
	return ratingsForCreator(dbc, s.core, s.favorites, user, personal(f), func(r *blogs.BlogFavorite) (int64, *int64) { return r.UserID, r.CreatorID })
}

func (s *blogService) LikesForUsersComments(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogCommentLike], error) {
	return ratingsForCreator(dbc, s.core, s.commentLikes, user, personal(f), func(r *blogs.BlogCommentLike) (int64, *int64) { return r.UserID, r.CreatorID })
}

func (s *blogService) FavoritesForUsersComments(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[blogs.BlogCommentFavorite], error) {
	return ratingsForCreator(dbc, s.core, s.commentFavorites, user, personal(f), func(r *blogs.BlogCommentFavorite) (int64, *int64) { return r.UserID, r.CreatorID })
}

func (s *blogService) resolveComments(dbc dbctx.Context, rows []*blogs.BlogComment) ([]*Resolved[blogs.BlogComment], error) {
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *blogs.BlogComment) (*Resolved[blogs.BlogComment], error) {
		out := &Resolved[blogs.BlogComment]{Row: row}
		ok, err := r.event(out, row.UserID, mixin.RootContext{})
		if err != nil || !ok {
			return nil, err
		}
		if out.Object, err = r.object(ObjectBlogComment, objectID(row.CommentID)); err != nil || out.Object == nil {
			return nil, err
		}
		if out.RepliedToUser, err = r.userPtr(row.ParentUserID); err != nil {
			return nil, err
		}
		return out, nil
	})
}
