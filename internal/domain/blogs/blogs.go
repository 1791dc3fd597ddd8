package blogs

import (
	"github.com/yungbote/analytics-database/internal/domain/mixin"
)

type Blog struct {
	BlogID     int64  `gorm:"column:blog_id;primaryKey;autoIncrement" json:"blog_id"`
	ExternalID *int64 `gorm:"column:blog_ds_id;index" json:"blog_ds_id"`
	BlogLength *int   `gorm:"column:blog_length" json:"blog_length"`
	mixin.Event
	mixin.Deleted
	mixin.Ratings
}

func (Blog) TableName() string { return "BlogsCreated" }

type BlogView struct {
	BlogID int64 `gorm:"column:blog_id;primaryKey;autoIncrement:false;index" json:"blog_id"`
	mixin.KeyedView
	mixin.TimeLength
}

func (BlogView) TableName() string { return "BlogsViewed" }

type BlogComment struct {
	CommentID     int64 `gorm:"column:comment_id;primaryKey;autoIncrement:false" json:"comment_id"`
	BlogID        int64 `gorm:"column:blog_id;not null;index" json:"blog_id"`
	CommentLength *int  `gorm:"column:comment_length" json:"comment_length"`
	mixin.Event
	mixin.Deleted
	mixin.ReplyTo
	mixin.Ratings
}

func (BlogComment) TableName() string { return "BlogCommentsCreated" }

type BlogLike struct {
	BlogID int64 `gorm:"column:blog_id;primaryKey;autoIncrement:false;index" json:"blog_id"`
	mixin.Rater
	mixin.Creator
}

func (BlogLike) TableName() string { return "BlogLikes" }

type BlogFavorite struct {
	BlogID int64 `gorm:"column:blog_id;primaryKey;autoIncrement:false;index" json:"blog_id"`
	mixin.Rater
	mixin.Creator
}

func (BlogFavorite) TableName() string { return "BlogFavorites" }

type BlogCommentLike struct {
	CommentID int64 `gorm:"column:comment_id;primaryKey;autoIncrement:false;index" json:"comment_id"`
	mixin.Rater
	mixin.Creator
}

func (BlogCommentLike) TableName() string { return "BlogCommentLikes" }

type BlogCommentFavorite struct {
	CommentID int64 `gorm:"column:comment_id;primaryKey;autoIncrement:false;index" json:"comment_id"`
	mixin.Rater
	mixin.Creator
}

func (BlogCommentFavorite) TableName() string { return "BlogCommentFavorites" }
