package services

import (
	"time"

	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/domain/boards"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

type ForumRef struct {
	ExternalID int64     `json:"id" yaml:"id" validate:"required"`
	Creator    *UserRef  `json:"creator,omitempty" yaml:"creator"`
	Created    time.Time `json:"created" yaml:"created"`
	Root       RootRef   `json:"root" yaml:"root"`
}

type TopicRef struct {
	ExternalID int64      `json:"id" yaml:"id" validate:"required"`
	Forum      ForumRef   `json:"forum" yaml:"forum"`
	Creator    *UserRef   `json:"creator,omitempty" yaml:"creator"`
	Created    time.Time  `json:"created" yaml:"created"`
	Ratings    RatingsRef `json:"ratings" yaml:"ratings"`
}

type CommentRef struct {
	ExternalID int64      `json:"id" yaml:"id" validate:"required"`
	Creator    *UserRef   `json:"creator,omitempty" yaml:"creator"`
	Created    time.Time  `json:"created" yaml:"created"`
	Body       []string   `json:"body,omitempty" yaml:"body"`
	InReplyTo  *ReplyRef  `json:"in_reply_to,omitempty" yaml:"in_reply_to"`
	Ratings    RatingsRef `json:"ratings" yaml:"ratings"`
}

// TopicViewEvent is a heartbeat view of a topic.
type TopicViewEvent struct {
	Actor       `yaml:",inline"`
	Root        RootRef  `json:"root" yaml:"root"`
	ContextPath []string `json:"context_path,omitempty" yaml:"context_path"`
	Topic       TopicRef `json:"topic" yaml:"topic"`
	TimeLength  *int     `json:"time_length,omitempty" yaml:"time_length"`
}

type BoardService interface {
	CreateForum(dbc dbctx.Context, a Actor, forum ForumRef) (*boards.Forum, error)
	// DeleteForum soft-deletes the forum and every topic and comment in it.
	DeleteForum(dbc dbctx.Context, at time.Time, forumID int64) error
	CreateTopic(dbc dbctx.Context, a Actor, topic TopicRef) (*boards.Topic, error)
	DeleteTopic(dbc dbctx.Context, at time.Time, topicID int64) error
	CreateTopicView(dbc dbctx.Context, ev TopicViewEvent) (*boards.TopicView, error)
	LikeTopic(dbc dbctx.Context, a Actor, topicID int64, delta int) (bool, error)
	FavoriteTopic(dbc dbctx.Context, a Actor, topicID int64, delta int) (bool, error)
	FlagTopic(dbc dbctx.Context, topicID int64, flagged bool) error
	CreateComment(dbc dbctx.Context, a Actor, topic TopicRef, comment CommentRef) (*boards.ForumComment, error)
	DeleteComment(dbc dbctx.Context, at time.Time, commentID int64) error
	LikeComment(dbc dbctx.Context, a Actor, commentID int64, delta int) (bool, error)
	FavoriteComment(dbc dbctx.Context, a Actor, commentID int64, delta int) (bool, error)
	FlagComment(dbc dbctx.Context, commentID int64, flagged bool) error

	ForumComments(dbc dbctx.Context, user *UserRef, f Filter) ([]*Resolved[boards.ForumComment], error)
	TopicsCreated(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.Topic], error)
	TopicViews(dbc dbctx.Context, user *UserRef, topicID *int64, f Filter) ([]*Resolved[boards.TopicView], error)
	CommentsForTopic(dbc dbctx.Context, topicID int64) ([]*Resolved[boards.ForumComment], error)
	CommentsForForum(dbc dbctx.Context, forumID int64) ([]*Resolved[boards.ForumComment], error)
	TopicsForForum(dbc dbctx.Context, forumID int64) ([]*Resolved[boards.Topic], error)
	TopicsForCourse(dbc dbctx.Context, course ContextRef) ([]*Resolved[boards.Topic], error)
	ForumsForCourse(dbc dbctx.Context, course ContextRef) ([]*Resolved[boards.Forum], error)
	UserRepliesToOthers(dbc dbctx.Context, user UserRef, topicID *int64, f Filter) ([]*Resolved[boards.ForumComment], error)
	RepliesToUser(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.ForumComment], error)
	LikesForUsersTopics(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.TopicLike], error)
	FavoritesForUsersTopics(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.TopicFavorite], error)
	LikesForUsersComments(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.ForumCommentLike], error)
	FavoritesForUsersComments(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.ForumCommentFavorite], error)
}

type boardService struct {
	*core
	log *logger.Logger

	forums           events.Repo[boards.Forum]
	topics           events.Repo[boards.Topic]
	comments         events.Repo[boards.ForumComment]
	topicViews       events.Repo[boards.TopicView]
	topicLikes       events.Repo[boards.TopicLike]
	topicFavorites   events.Repo[boards.TopicFavorite]
	commentLikes     events.Repo[boards.ForumCommentLike]
	commentFavorites events.Repo[boards.ForumCommentFavorite]
}

func newBoardService(c *core) BoardService {
	return &boardService{
		core:             c,
		log:              c.log.With("service", "BoardService"),
		forums:           events.New[boards.Forum](c.db, c.log, "ForumRepo"),
		topics:           events.New[boards.Topic](c.db, c.log, "TopicRepo"),
		comments:         events.New[boards.ForumComment](c.db, c.log, "ForumCommentRepo"),
		topicViews:       events.New[boards.TopicView](c.db, c.log, "TopicViewRepo"),
		topicLikes:       events.New[boards.TopicLike](c.db, c.log, "TopicLikeRepo"),
		topicFavorites:   events.New[boards.TopicFavorite](c.db, c.log, "TopicFavoriteRepo"),
		commentLikes:     events.New[boards.ForumCommentLike](c.db, c.log, "ForumCommentLikeRepo"),
		commentFavorites: events.New[boards.ForumCommentFavorite](c.db, c.log, "ForumCommentFavoriteRepo"),
	}
}

func (s *boardService) CreateForum(dbc dbctx.Context, a Actor, forum ForumRef) (*boards.Forum, error) {
	var out *boards.Forum
	err := s.write(dbc, "boards.create_forum", func(dbc dbctx.Context) error {
		var err error
		out, err = s.createForum(dbc, a, forum)
		return err
	})
	return out, err
}

func (s *boardService) createForum(dbc dbctx.Context, a Actor, forum ForumRef) (*boards.Forum, error) {
	uid, err := s.requireUserID(dbc, a.User)
	if err != nil {
		return nil, err
	}
	return recordFact(dbc, s.forums, s.log, "forum", events.Where{"forum_ds_id": forum.ExternalID},
		func() (*boards.Forum, error) {
			courseID, entityID, err := s.rootIDs(dbc, forum.Root)
			if err != nil {
				return nil, err
			}
			return &boards.Forum{
				ExternalID:  int64Ptr(forum.ExternalID),
				Event:       mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: createdAt(forum.Created, a)},
				RootContext: mixin.RootContext{CourseID: courseID, EntityRootContextID: entityID},
			}, nil
		})
}

// forumID returns the forum's surrogate id, creating the forum from its
// own metadata when it has not been recorded yet.
func (s *boardService) forumID(dbc dbctx.Context, forum ForumRef, child Actor) (int64, error) {
	found, err := s.forums.First(dbc, events.Where{"forum_ds_id": forum.ExternalID})
	if err != nil {
		return 0, err
	}
	if found != nil {
		return found.ForumID, nil
	}
	created, err := s.createForum(dbc, creatorActor(forum.Creator, forum.Created, child), forum)
	if err != nil {
		return 0, err
	}
	s.log.Info("created forum lazily", "forum_ds_id", forum.ExternalID, "forum_id", created.ForumID)
	return created.ForumID, nil
}

func (s *boardService) DeleteForum(dbc dbctx.Context, at time.Time, forumID int64) error {
	return s.write(dbc, "boards.delete_forum", func(dbc dbctx.Context) error {
		found, err := s.forums.First(dbc, events.Where{"forum_ds_id": forumID})
		if err != nil {
			return err
		}
		if found == nil {
			s.log.Info("forum never created", "forum_ds_id", forumID)
			return nil
		}
		if _, err := softDelete(dbc, s.forums, events.Where{"forum_id": found.ForumID}, "forum_ds_id", at); err != nil {
			return err
		}
		if _, err := softDelete(dbc, s.topics, events.Where{"forum_id": found.ForumID}, "topic_ds_id", at); err != nil {
			return err
		}
		_, err = softDelete(dbc, s.comments, events.Where{"forum_id": found.ForumID}, "", at)
		return err
	})
}

func (s *boardService) CreateTopic(dbc dbctx.Context, a Actor, topic TopicRef) (*boards.Topic, error) {
	var out *boards.Topic
	err := s.write(dbc, "boards.create_topic", func(dbc dbctx.Context) error {
		var err error
		out, err = s.createTopic(dbc, a, topic)
		return err
	})
	return out, err
}

func (s *boardService) createTopic(dbc dbctx.Context, a Actor, topic TopicRef) (*boards.Topic, error) {
	uid, err := s.requireUserID(dbc, a.User)
	if err != nil {
		return nil, err
	}
	return recordFact(dbc, s.topics, s.log, "topic", events.Where{"topic_ds_id": topic.ExternalID},
		func() (*boards.Topic, error) {
			fid, err := s.forumID(dbc, topic.Forum, a)
			if err != nil {
				return nil, err
			}
			courseID, entityID, err := s.rootIDs(dbc, topic.Forum.Root)
			if err != nil {
				return nil, err
			}
			return &boards.Topic{
				ExternalID:  int64Ptr(topic.ExternalID),
				ForumID:     fid,
				Event:       mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: createdAt(topic.Created, a)},
				RootContext: mixin.RootContext{CourseID: courseID, EntityRootContextID: entityID},
				Ratings:     ratingsOf(topic.Ratings),
			}, nil
		})
}

// topicRow returns the recorded topic, creating it and its forum from
// their own metadata when missing.
func (s *boardService) topicRow(dbc dbctx.Context, topic TopicRef, child Actor) (*boards.Topic, error) {
	found, err := s.topics.First(dbc, events.Where{"topic_ds_id": topic.ExternalID})
	if err != nil || found != nil {
		return found, err
	}
	created, err := s.createTopic(dbc, creatorActor(topic.Creator, topic.Created, child), topic)
	if err != nil {
		return nil, err
	}
	s.log.Info("created topic lazily", "topic_ds_id", topic.ExternalID, "topic_id", created.TopicID)
	return created, nil
}

func (s *boardService) DeleteTopic(dbc dbctx.Context, at time.Time, topicID int64) error {
	return s.write(dbc, "boards.delete_topic", func(dbc dbctx.Context) error {
		found, err := s.topics.First(dbc, events.Where{"topic_ds_id": topicID})
		if err != nil {
			return err
		}
		if found == nil {
			s.log.Info("topic never created", "topic_ds_id", topicID)
			return nil
		}
		if _, err := softDelete(dbc, s.topics, events.Where{"topic_id": found.TopicID}, "topic_ds_id", at); err != nil {
			return err
		}
		_, err = softDelete(dbc, s.comments, events.Where{"topic_id": found.TopicID}, "", at)
		return err
	})
}

func (s *boardService) CreateTopicView(dbc dbctx.Context, ev TopicViewEvent) (*boards.TopicView, error) {
	var out *boards.TopicView
	err := s.write(dbc, "boards.create_topic_view", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, ev.User)
		if err != nil {
			return err
		}
		topic, err := s.topicRow(dbc, ev.Topic, ev.Actor)
		if err != nil {
			return err
		}
		ts := utc(ev.Timestamp)
		key := events.Where{"user_id": uid, "topic_id": topic.TopicID, "timestamp": ts}
		out, err = recordHeartbeat(dbc, s.topicViews, s.log, "topic view", key, ev.TimeLength, nil,
			func() (*boards.TopicView, error) {
				courseID, entityID, err := s.rootIDs(dbc, ev.Root)
				if err != nil {
					return nil, err
				}
				path := mixin.EncodeContextPath(ev.ContextPath)
				return &boards.TopicView{
					TopicID:     topic.TopicID,
					ForumID:     topic.ForumID,
					KeyedView:   mixin.KeyedView{UserID: uid, SessionID: ev.SessionID, Timestamp: ts, ContextPath: &path},
					RootContext: mixin.RootContext{CourseID: courseID, EntityRootContextID: entityID},
					TimeLength:  mixin.TimeLength{TimeLength: ev.TimeLength},
				}, nil
			})
		return err
	})
	return out, err
}

// LikeTopic adds delta to the topic's like counter, then toggles the
// rater's like row. An unrecorded topic is a no-op.
func (s *boardService) LikeTopic(dbc dbctx.Context, a Actor, topicID int64, delta int) (bool, error) {
	return s.rateTopic(dbc, "boards.like_topic", "like_count", a, topicID, delta, func(dbc dbctx.Context, topic *boards.Topic, uid int64) (bool, error) {
		return applyRating(dbc, s.topicLikes, events.Where{"user_id": uid, "topic_id": topic.TopicID}, delta, &boards.TopicLike{
			TopicID:     topic.TopicID,
			Rater:       mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
			Creator:     mixin.Creator{CreatorID: topic.UserID},
			RootContext: topic.RootContext,
		})
	})
}

func (s *boardService) FavoriteTopic(dbc dbctx.Context, a Actor, topicID int64, delta int) (bool, error) {
	return s.rateTopic(dbc, "boards.favorite_topic", "favorite_count", a, topicID, delta, func(dbc dbctx.Context, topic *boards.Topic, uid int64) (bool, error) {
		return applyRating(dbc, s.topicFavorites, events.Where{"user_id": uid, "topic_id": topic.TopicID}, delta, &boards.TopicFavorite{
			TopicID:     topic.TopicID,
			Rater:       mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
			Creator:     mixin.Creator{CreatorID: topic.UserID},
			RootContext: topic.RootContext,
		})
	})
}

func (s *boardService) rateTopic(dbc dbctx.Context, op, counter string, a Actor, topicID int64, delta int, apply func(dbctx.Context, *boards.Topic, int64) (bool, error)) (bool, error) {
	var changed bool
	err := s.write(dbc, op, func(dbc dbctx.Context) error {
		key := events.Where{"topic_ds_id": topicID}
		topic, err := s.topics.First(dbc, key)
		if err != nil || topic == nil {
			return err
		}
		if err := s.topics.Increment(dbc, events.Where{"topic_id": topic.TopicID}, counter, delta); err != nil {
			return err
		}
		if a.User == nil {
			return nil
		}
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		changed, err = apply(dbc, topic, uid)
		return err
	})
	return changed, err
}

func (s *boardService) FlagTopic(dbc dbctx.Context, topicID int64, flagged bool) error {
	return s.write(dbc, "boards.flag_topic", func(dbc dbctx.Context) error {
		n, err := s.topics.UpdateFields(dbc, events.Where{"topic_ds_id": topicID}, map[string]any{"is_flagged": flagged})
		if err == nil && n == 0 {
			s.log.Info("flag for unrecorded topic", "topic_ds_id", topicID)
		}
		return err
	})
}

// CreateComment records a forum comment, creating its topic and forum
// first when they have not been seen yet.
func (s *boardService) CreateComment(dbc dbctx.Context, a Actor, topic TopicRef, comment CommentRef) (*boards.ForumComment, error) {
	var out *boards.ForumComment
	err := s.write(dbc, "boards.create_comment", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		topicRow, err := s.topicRow(dbc, topic, a)
		if err != nil {
			return err
		}
		out, err = recordFact(dbc, s.comments, s.log, "forum comment", events.Where{"comment_id": comment.ExternalID},
			func() (*boards.ForumComment, error) {
				courseID, entityID, err := s.rootIDs(dbc, topic.Forum.Root)
				if err != nil {
					return nil, err
				}
				reply, err := s.replyTo(dbc, comment.InReplyTo)
				if err != nil {
					return nil, err
				}
				return &boards.ForumComment{
					CommentID:     comment.ExternalID,
					TopicID:       topicRow.TopicID,
					ForumID:       topicRow.ForumID,
					CommentLength: bodyLength(comment.Body),
					Event:         mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: createdAt(comment.Created, a)},
					RootContext:   mixin.RootContext{CourseID: courseID, EntityRootContextID: entityID},
					ReplyTo:       reply,
					Ratings:       ratingsOf(comment.Ratings),
				}, nil
			})
		return err
	})
	return out, err
}

// replyTo threads a comment whose parent is keyed by its external id.
func (c *core) replyTo(dbc dbctx.Context, parent *ReplyRef) (mixin.ReplyTo, error) {
	if parent == nil {
		return mixin.ReplyTo{}, nil
	}
	out := mixin.ReplyTo{ParentID: int64Ptr(parent.ExternalID)}
	if parent.Creator != nil {
		pid, err := c.userID(dbc, parent.Creator)
		if err != nil {
			return mixin.ReplyTo{}, err
		}
		out.ParentUserID = pid
	}
	return out, nil
}

func (s *boardService) DeleteComment(dbc dbctx.Context, at time.Time, commentID int64) error {
	return s.write(dbc, "boards.delete_comment", func(dbc dbctx.Context) error {
		n, err := softDelete(dbc, s.comments, events.Where{"comment_id": commentID}, "", at)
		if err == nil && n == 0 {
			s.log.Info("comment unknown or already deleted", "comment_id", commentID)
		}
		return err
	})
}

func (s *boardService) LikeComment(dbc dbctx.Context, a Actor, commentID int64, delta int) (bool, error) {
	return s.rateComment(dbc, "boards.like_comment", "like_count", a, commentID, delta, func(dbc dbctx.Context, c *boards.ForumComment, uid int64) (bool, error) {
		return applyRating(dbc, s.commentLikes, events.Where{"user_id": uid, "comment_id": c.CommentID}, delta, &boards.ForumCommentLike{
			CommentID:   c.CommentID,
			Rater:       mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
			Creator:     mixin.Creator{CreatorID: c.UserID},
			RootContext: c.RootContext,
		})
	})
}

func (s *boardService) FavoriteComment(dbc dbctx.Context, a Actor, commentID int64, delta int) (bool, error) {
	return s.rateComment(dbc, "boards.favorite_comment", "favorite_count", a, commentID, delta, func(dbc dbctx.Context, c *boards.ForumComment, uid int64) (bool, error) {
		return applyRating(dbc, s.commentFavorites, events.Where{"user_id": uid, "comment_id": c.CommentID}, delta, &boards.ForumCommentFavorite{
			CommentID:   c.CommentID,
			Rater:       mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
			Creator:     mixin.Creator{CreatorID: c.UserID},
			RootContext: c.RootContext,
		})
	})
}

func (s *boardService) rateComment(dbc dbctx.Context, op, counter string, a Actor, commentID int64, delta int, apply func(dbctx.Context, *boards.ForumComment, int64) (bool, error)) (bool, error) {
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

func (s *boardService) FlagComment(dbc dbctx.Context, commentID int64, flagged bool) error {
	return s.write(dbc, "boards.flag_comment", func(dbc dbctx.Context) error {
		n, err := s.comments.UpdateFields(dbc, events.Where{"comment_id": commentID}, map[string]any{"is_flagged": flagged})
		if err == nil && n == 0 {
			s.log.Info("flag for unrecorded comment", "comment_id", commentID)
		}
		return err
	})
}

func (s *boardService) ForumComments(dbc dbctx.Context, user *UserRef, f Filter) ([]*Resolved[boards.ForumComment], error) {
	if f.RepliesOnly && f.TopLevelOnly {
		return []*Resolved[boards.ForumComment]{}, nil
	}
	var scopes []events.Scope
	var err error
	if user != nil {
		scopes, _, err = s.userScopes(dbc, *user, f)
	} else {
		scopes, err = s.windowScopes(dbc, f)
	}
	if err != nil {
		return nil, err
	}
	scopes = append(scopes, deletedScope(f))
	if f.TopLevelOnly {
		scopes = append(scopes, events.TopLevelOnly())
	}
	if f.RepliesOnly {
		scopes = append(scopes, events.RepliesOnly())
	}
	rows, err := s.comments.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return s.resolveComments(dbc, rows)
}

func (s *boardService) TopicsCreated(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.Topic], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.topics.Find(dbc, append(scopes, deletedScope(f))...)
	if err != nil {
		return nil, err
	}
	return s.resolveTopics(dbc, rows)
}

func (s *boardService) TopicViews(dbc dbctx.Context, user *UserRef, topicID *int64, f Filter) ([]*Resolved[boards.TopicView], error) {
	var scopes []events.Scope
	var err error
	if user != nil {
		scopes, _, err = s.userScopes(dbc, *user, f)
	} else {
		scopes, err = s.windowScopes(dbc, f)
	}
	if err != nil {
		return nil, err
	}
	if topicID != nil {
		topic, err := s.topics.First(dbc, events.Where{"topic_ds_id": *topicID})
		if err != nil {
			return nil, err
		}
		if topic == nil {
			return []*Resolved[boards.TopicView]{}, nil
		}
		scopes = append(scopes, events.Eq("topic_id", topic.TopicID))
	}
	rows, err := s.topicViews.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *boards.TopicView) (*Resolved[boards.TopicView], error) {
		out := &Resolved[boards.TopicView]{Row: row}
		ok, err := r.event(out, &row.UserID, row.RootContext)
		if err != nil || !ok {
			return nil, err
		}
		topic, err := s.topics.First(dbc, events.Where{"topic_id": row.TopicID})
		if err != nil || topic == nil || topic.ExternalID == nil {
			return nil, err
		}
		if out.Object, err = r.object(ObjectTopic, objectID(*topic.ExternalID)); err != nil || out.Object == nil {
			return nil, err
		}
		return out, nil
	})
}

func (s *boardService) CommentsForTopic(dbc dbctx.Context, topicID int64) ([]*Resolved[boards.ForumComment], error) {
	topic, err := s.topics.First(dbc, events.Where{"topic_ds_id": topicID})
	if err != nil || topic == nil {
		return []*Resolved[boards.ForumComment]{}, err
	}
	rows, err := s.comments.Find(dbc, events.Eq("topic_id", topic.TopicID), events.NotDeleted())
	if err != nil {
		return nil, err
	}
	return s.resolveComments(dbc, rows)
}

func (s *boardService) CommentsForForum(dbc dbctx.Context, forumID int64) ([]*Resolved[boards.ForumComment], error) {
	forum, err := s.forums.First(dbc, events.Where{"forum_ds_id": forumID})
	if err != nil || forum == nil {
		return []*Resolved[boards.ForumComment]{}, err
	}
	rows, err := s.comments.Find(dbc, events.Eq("forum_id", forum.ForumID), events.NotDeleted())
	if err != nil {
		return nil, err
	}
	return s.resolveComments(dbc, rows)
}

func (s *boardService) TopicsForForum(dbc dbctx.Context, forumID int64) ([]*Resolved[boards.Topic], error) {
	forum, err := s.forums.First(dbc, events.Where{"forum_ds_id": forumID})
	if err != nil || forum == nil {
		return []*Resolved[boards.Topic]{}, err
	}
	rows, err := s.topics.Find(dbc, events.Eq("forum_id", forum.ForumID), events.NotDeleted())
	if err != nil {
		return nil, err
	}
	return s.resolveTopics(dbc, rows)
}

func (s *boardService) TopicsForCourse(dbc dbctx.Context, course ContextRef) ([]*Resolved[boards.Topic], error) {
	id, err := s.contextID(dbc, &course, false)
	if err != nil || id == nil {
		return []*Resolved[boards.Topic]{}, err
	}
	rows, err := s.topics.Find(dbc, events.Eq("course_id", *id), events.NotDeleted())
	if err != nil {
		return nil, err
	}
	return s.resolveTopics(dbc, rows)
}

func (s *boardService) ForumsForCourse(dbc dbctx.Context, course ContextRef) ([]*Resolved[boards.Forum], error) {
	id, err := s.contextID(dbc, &course, false)
	if err != nil || id == nil {
		return []*Resolved[boards.Forum]{}, err
	}
	rows, err := s.forums.Find(dbc, events.Eq("course_id", *id), events.NotDeleted())
	if err != nil {
		return nil, err
	}
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *boards.Forum) (*Resolved[boards.Forum], error) {
		out := &Resolved[boards.Forum]{Row: row}
		ok, err := r.event(out, row.UserID, row.RootContext)
		if err != nil || !ok || row.ExternalID == nil {
			return nil, err
		}
		if out.Object, err = r.object(ObjectForum, objectID(*row.ExternalID)); err != nil || out.Object == nil {
			return nil, err
		}
		return out, nil
	})
}

func (s *boardService) UserRepliesToOthers(dbc dbctx.Context, user UserRef, topicID *int64, f Filter) ([]*Resolved[boards.ForumComment], error) {
	var extra []events.Scope
	if topicID != nil {
		topic, err := s.topics.First(dbc, events.Where{"topic_ds_id": *topicID})
		if err != nil || topic == nil {
			return []*Resolved[boards.ForumComment]{}, err
		}
		extra = append(extra, events.Eq("topic_id", topic.TopicID))
	}
	rows, err := repliesToOthers(dbc, s.core, s.comments, user, f, extra...)
	if err != nil {
		return nil, err
	}
	return s.resolveComments(dbc, rows)
}

func (s *boardService) RepliesToUser(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.ForumComment], error) {
	rows, err := repliesToUser(dbc, s.core, s.comments, user, f)
	if err != nil {
		return nil, err
	}
	return s.resolveComments(dbc, rows)
}

func (s *boardService) LikesForUsersTopics(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.TopicLike], error) {
	return ratingsForCreator(dbc, s.core, s.topicLikes, user, f, func(r *boards.TopicLike) (int64, *int64) { return r.UserID, r.CreatorID })
}

func (s *boardService) FavoritesForUsersTopics(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.TopicFavorite], error) {
	return ratingsForCreator(dbc, s.core, s.topicFavorites, user, f, func(r *boards.TopicFavorite) (int64, *int64) { return r.UserID, r.CreatorID })
}

func (s *boardService) LikesForUsersComments(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.ForumCommentLike], error) {
	return ratingsForCreator(dbc, s.core, s.commentLikes, user, f, func(r *boards.ForumCommentLike) (int64, *int64) { return r.UserID, r.CreatorID })
}

func (s *boardService) FavoritesForUsersComments(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[boards.ForumCommentFavorite], error) {
	return ratingsForCreator(dbc, s.core, s.commentFavorites, user, f, func(r *boards.ForumCommentFavorite) (int64, *int64) { return r.UserID, r.CreatorID })
}

func (s *boardService) resolveComments(dbc dbctx.Context, rows []*boards.ForumComment) ([]*Resolved[boards.ForumComment], error) {
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *boards.ForumComment) (*Resolved[boards.ForumComment], error) {
		out := &Resolved[boards.ForumComment]{Row: row}
		ok, err := r.event(out, row.UserID, row.RootContext)
		if err != nil || !ok {
			return nil, err
		}
		if out.Object, err = r.object(ObjectComment, objectID(row.CommentID)); err != nil || out.Object == nil {
			return nil, err
		}
		if out.RepliedToUser, err = r.userPtr(row.ParentUserID); err != nil {
			return nil, err
		}
		return out, nil
	})
}

func (s *boardService) resolveTopics(dbc dbctx.Context, rows []*boards.Topic) ([]*Resolved[boards.Topic], error) {
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *boards.Topic) (*Resolved[boards.Topic], error) {
		out := &Resolved[boards.Topic]{Row: row}
		ok, err := r.event(out, row.UserID, row.RootContext)
		if err != nil || !ok || row.ExternalID == nil {
			return nil, err
		}
		if out.Object, err = r.object(ObjectTopic, objectID(*row.ExternalID)); err != nil || out.Object == nil {
			return nil, err
		}
		return out, nil
	})
}

// createdAt is an object's creation time, falling back to the event time.
func createdAt(created time.Time, a Actor) *time.Time {
	if created.IsZero() {
		return utcPtr(a.Timestamp)
	}
	return utcPtr(created)
}

func ratingsOf(r RatingsRef) mixin.Ratings {
	return mixin.Ratings{
		LikeCount:     intPtr(r.Likes),
		FavoriteCount: intPtr(r.Favorites),
		IsFlagged:     boolPtr(r.Flagged),
	}
}
