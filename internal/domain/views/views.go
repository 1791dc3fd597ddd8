package views

import (
	"github.com/yungbote/analytics-database/internal/domain/mixin"
)

type VideoEventType string

const (
	VideoWatch VideoEventType = "WATCH"
	VideoSkip  VideoEventType = "SKIP"
)

// ResourceView is a heartbeat view of a course resource.
type ResourceView struct {
	ResourceViewID int64 `gorm:"column:resource_view_id;primaryKey;autoIncrement" json:"resource_view_id"`
	mixin.View
	mixin.RootContext
	mixin.Resource
	mixin.TimeLength
}

func (ResourceView) TableName() string { return "CourseResourceViews" }

type VideoEvent struct {
	VideoViewID int64 `gorm:"column:video_view_id;primaryKey;autoIncrement" json:"video_view_id"`
	mixin.View
	mixin.RootContext
	mixin.Resource
	mixin.TimeLength
	VideoEventType VideoEventType `gorm:"column:video_event_type;size:8;not null" json:"video_event_type"`
	VideoStartTime int            `gorm:"column:video_start_time;not null" json:"video_start_time"`
	VideoEndTime   *int           `gorm:"column:video_end_time" json:"video_end_time"`
	WithTranscript bool           `gorm:"column:with_transcript;not null" json:"with_transcript"`
	PlaySpeed      *string        `gorm:"column:play_speed;size:16" json:"play_speed"`
}

func (VideoEvent) TableName() string { return "VideoEvents" }

type VideoPlaySpeedEvent struct {
	VideoPlaySpeedID int64 `gorm:"column:video_play_speed_id;primaryKey;autoIncrement" json:"video_play_speed_id"`
	mixin.Event
	mixin.RootContext
	mixin.Resource
	OldPlaySpeed string `gorm:"column:old_play_speed;size:16;not null" json:"old_play_speed"`
	NewPlaySpeed string `gorm:"column:new_play_speed;size:16;not null" json:"new_play_speed"`
	VideoTime    int    `gorm:"column:video_time;not null" json:"video_time"`
	// VideoViewID links to the WATCH event sharing user, resource and timestamp.
	VideoViewID *int64 `gorm:"column:video_view_id;index" json:"video_view_id"`
}

func (VideoPlaySpeedEvent) TableName() string { return "VideoPlaySpeedEvents" }

type LTIAssetLaunch struct {
	LTIAssetLaunchID int64 `gorm:"column:lti_asset_launch_id;primaryKey;autoIncrement" json:"lti_asset_launch_id"`
	mixin.View
	mixin.RootContext
	mixin.Resource
	mixin.TimeLength
}

func (LTIAssetLaunch) TableName() string { return "LTIAssetLaunches" }

type SCORMPackageLaunch struct {
	SCORMPackageLaunchID int64 `gorm:"column:scorm_package_launch_id;primaryKey;autoIncrement" json:"scorm_package_launch_id"`
	mixin.View
	mixin.RootContext
	mixin.Resource
	mixin.TimeLength
}

func (SCORMPackageLaunch) TableName() string { return "SCORMPackageLaunches" }
