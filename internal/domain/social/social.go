package social

import (
	"github.com/yungbote/analytics-database/internal/domain/mixin"
)

type ChatInitiated struct {
	ChatID     int64  `gorm:"column:chat_id;primaryKey;autoIncrement" json:"chat_id"`
	ExternalID *int64 `gorm:"column:chat_ds_id;index" json:"chat_ds_id"`
	mixin.Event
}

func (ChatInitiated) TableName() string { return "ChatsInitiated" }

type ChatJoined struct {
	ChatID int64 `gorm:"column:chat_id;primaryKey;autoIncrement:false;index" json:"chat_id"`
	mixin.Moment
}

func (ChatJoined) TableName() string { return "ChatsJoined" }

type DynamicFriendsList struct {
	DFLID      int64  `gorm:"column:dfl_id;primaryKey;autoIncrement" json:"dfl_id"`
	ExternalID *int64 `gorm:"column:dfl_ds_id;index" json:"dfl_ds_id"`
	mixin.Event
	mixin.Deleted
}

func (DynamicFriendsList) TableName() string { return "DynamicFriendsListsCreated" }

type DynamicFriendsListMemberAdded struct {
	DFLID    int64 `gorm:"column:dfl_id;primaryKey;autoIncrement:false;index" json:"dfl_id"`
	TargetID int64 `gorm:"column:target_id;primaryKey;autoIncrement:false;index" json:"target_id"`
	mixin.Event
}

func (DynamicFriendsListMemberAdded) TableName() string { return "DynamicFriendsListsMemberAdded" }

type DynamicFriendsListMemberRemoved struct {
	DFLID    int64 `gorm:"column:dfl_id;primaryKey;autoIncrement:false;index" json:"dfl_id"`
	TargetID int64 `gorm:"column:target_id;primaryKey;autoIncrement:false;index" json:"target_id"`
	mixin.Stamped
}

func (DynamicFriendsListMemberRemoved) TableName() string { return "DynamicFriendsListsMemberRemoved" }

type FriendsList struct {
	FriendsListID int64  `gorm:"column:friends_list_id;primaryKey;autoIncrement" json:"friends_list_id"`
	ExternalID    *int64 `gorm:"column:friends_list_ds_id;index" json:"friends_list_ds_id"`
	mixin.Event
	mixin.Deleted
}

func (FriendsList) TableName() string { return "FriendsListsCreated" }

type FriendsListMemberAdded struct {
	FriendsListID int64 `gorm:"column:friends_list_id;primaryKey;autoIncrement:false;index" json:"friends_list_id"`
	TargetID      int64 `gorm:"column:target_id;primaryKey;autoIncrement:false;index" json:"target_id"`
	mixin.Event
}

func (FriendsListMemberAdded) TableName() string { return "FriendsListsMemberAdded" }

type FriendsListMemberRemoved struct {
	FriendsListID int64 `gorm:"column:friends_list_id;primaryKey;autoIncrement:false;index" json:"friends_list_id"`
	TargetID      int64 `gorm:"column:target_id;primaryKey;autoIncrement:false;index" json:"target_id"`
	mixin.Stamped
}

func (FriendsListMemberRemoved) TableName() string { return "FriendsListsMemberRemoved" }

type ContactAdded struct {
	TargetID int64 `gorm:"column:target_id;primaryKey;autoIncrement:false;index" json:"target_id"`
	mixin.Rater
}

func (ContactAdded) TableName() string { return "ContactsAdded" }

type ContactRemoved struct {
	TargetID int64 `gorm:"column:target_id;primaryKey;autoIncrement:false;index" json:"target_id"`
	mixin.Moment
}

func (ContactRemoved) TableName() string { return "ContactsRemoved" }
