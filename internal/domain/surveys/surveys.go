package surveys

import (
	"github.com/yungbote/analytics-database/internal/domain/mixin"
)

type PollTaken struct {
	PollTakenID  int64  `gorm:"column:poll_taken_id;primaryKey;autoIncrement" json:"poll_taken_id"`
	SubmissionID *int64 `gorm:"column:submission_id;index" json:"submission_id"`
	PollID       string `gorm:"column:poll_id;size:256;not null;index" json:"poll_id"`
	mixin.Event
	mixin.Course
}

func (PollTaken) TableName() string { return "PollsTaken" }

type SurveyTaken struct {
	SurveyTakenID int64  `gorm:"column:survey_taken_id;primaryKey;autoIncrement" json:"survey_taken_id"`
	SubmissionID  *int64 `gorm:"column:submission_id;index" json:"submission_id"`
	SurveyID      string `gorm:"column:survey_id;size:256;not null;index" json:"survey_id"`
	mixin.Event
	mixin.Course
}

func (SurveyTaken) TableName() string { return "SurveysTaken" }
