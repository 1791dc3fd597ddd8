package tags

import (
	"github.com/yungbote/analytics-database/internal/domain/mixin"
)

type Sharing string

const (
	SharingPublic  Sharing = "PUBLIC"
	SharingCourse  Sharing = "COURSE"
	SharingOther   Sharing = "OTHER"
	SharingUnknown Sharing = "UNKNOWN"
)

type Note struct {
	NoteID     int64   `gorm:"column:note_id;primaryKey;autoIncrement" json:"note_id"`
	ExternalID *int64  `gorm:"column:note_ds_id;index" json:"note_ds_id"`
	Sharing    Sharing `gorm:"column:sharing;size:16" json:"sharing"`
	NoteLength *int    `gorm:"column:note_length" json:"note_length"`
	mixin.Event
	mixin.RootContext
	mixin.Resource
	mixin.Deleted
	mixin.Ratings
	mixin.ReplyTo
}

func (Note) TableName() string { return "NotesCreated" }

type NoteView struct {
	NoteID int64 `gorm:"column:note_id;primaryKey;autoIncrement:false;index" json:"note_id"`
	mixin.KeyedView
	mixin.RootContext
	mixin.Resource
}

func (NoteView) TableName() string { return "NotesViewed" }

type NoteLike struct {
	NoteID int64 `gorm:"column:note_id;primaryKey;autoIncrement:false;index" json:"note_id"`
	mixin.Rater
	mixin.Creator
	mixin.RootContext
}

func (NoteLike) TableName() string { return "NoteLikes" }

type NoteFavorite struct {
	NoteID int64 `gorm:"column:note_id;primaryKey;autoIncrement:false;index" json:"note_id"`
	mixin.Rater
	mixin.Creator
	mixin.RootContext
}

func (NoteFavorite) TableName() string { return "NoteFavorites" }

type Highlight struct {
	HighlightID int64  `gorm:"column:highlight_id;primaryKey;autoIncrement" json:"highlight_id"`
	ExternalID  *int64 `gorm:"column:highlight_ds_id;index" json:"highlight_ds_id"`
	mixin.Event
	mixin.RootContext
	mixin.Resource
	mixin.Deleted
}

func (Highlight) TableName() string { return "HighlightsCreated" }

type Bookmark struct {
	BookmarkID int64  `gorm:"column:bookmark_id;primaryKey;autoIncrement" json:"bookmark_id"`
	ExternalID *int64 `gorm:"column:bookmark_ds_id;index" json:"bookmark_ds_id"`
	mixin.Event
	mixin.RootContext
	mixin.Resource
	mixin.Deleted
}

func (Bookmark) TableName() string { return "BookmarksCreated" }
