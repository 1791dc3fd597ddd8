package boards

import (
	"github.com/yungbote/analytics-database/internal/domain/mixin"
)

type Forum struct {
	ForumID    int64  `gorm:"column:forum_id;primaryKey;autoIncrement" json:"forum_id"`
	ExternalID *int64 `gorm:"column:forum_ds_id;index" json:"forum_ds_id"`
	mixin.Event
	mixin.RootContext
	mixin.Deleted
}

func (Forum) TableName() string { return "ForumsCreated" }

type Topic struct {
	TopicID    int64  `gorm:"column:topic_id;primaryKey;autoIncrement" json:"topic_id"`
	ExternalID *int64 `gorm:"column:topic_ds_id;index" json:"topic_ds_id"`
	ForumID    int64  `gorm:"column:forum_id;not null;index" json:"forum_id"`
	mixin.Event
	mixin.RootContext
	mixin.Deleted
	mixin.Ratings
}

func (Topic) TableName() string { return "TopicsCreated" }

// ForumComment is keyed by the comment's external id, which is never cleared.
type ForumComment struct {
	CommentID     int64 `gorm:"column:comment_id;primaryKey;autoIncrement:false" json:"comment_id"`
	TopicID       int64 `gorm:"column:topic_id;not null;index" json:"topic_id"`
	ForumID       int64 `gorm:"column:forum_id;not null;index" json:"forum_id"`
	CommentLength *int  `gorm:"column:comment_length" json:"comment_length"`
	mixin.Event
	mixin.RootContext
	mixin.Deleted
	mixin.ReplyTo
	mixin.Ratings
}

func (ForumComment) TableName() string { return "ForumCommentsCreated" }

type TopicView struct {
	TopicID int64 `gorm:"column:topic_id;primaryKey;autoIncrement:false;index" json:"topic_id"`
	ForumID int64 `gorm:"column:forum_id;not null;index" json:"forum_id"`
	mixin.KeyedView
	mixin.RootContext
	mixin.TimeLength
}

func (TopicView) TableName() string { return "TopicsViewed" }

type TopicLike struct {
	TopicID int64 `gorm:"column:topic_id;primaryKey;autoIncrement:false;index" json:"topic_id"`
	mixin.Rater
	mixin.Creator
	mixin.RootContext
}

func (TopicLike) TableName() string { return "TopicLikes" }

type TopicFavorite struct {
	TopicID int64 `gorm:"column:topic_id;primaryKey;autoIncrement:false;index" json:"topic_id"`
	mixin.Rater
	mixin.Creator
	mixin.RootContext
}

func (TopicFavorite) TableName() string { return "TopicFavorites" }

type ForumCommentLike struct {
	CommentID int64 `gorm:"column:comment_id;primaryKey;autoIncrement:false;index" json:"comment_id"`
	mixin.Rater
	mixin.Creator
	mixin.RootContext
}

func (ForumCommentLike) TableName() string { return "ForumCommentLikes" }

type ForumCommentFavorite struct {
	CommentID int64 `gorm:"column:comment_id;primaryKey;autoIncrement:false;index" json:"comment_id"`
	mixin.Rater
	mixin.Creator
	mixin.RootContext
}

func (ForumCommentFavorite) TableName() string { return "ForumCommentFavorites" }
