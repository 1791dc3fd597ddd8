package assessments

import (
	"gorm.io/datatypes"

	"github.com/yungbote/analytics-database/internal/domain/mixin"
)

// FileUploadedResponse replaces uploaded file bodies in stored responses.
const FileUploadedResponse = "<FILE_UPLOADED>"

type AssignmentTaken struct {
	AssignmentTakenID int64  `gorm:"column:assignment_taken_id;primaryKey;autoIncrement" json:"assignment_taken_id"`
	SubmissionID      *int64 `gorm:"column:submission_id;index" json:"submission_id"`
	AssignmentID      string `gorm:"column:assignment_id;size:256;not null;index" json:"assignment_id"`
	IsLate            *bool  `gorm:"column:is_late" json:"is_late"`
	mixin.Event
	mixin.Course
	mixin.TimeLength
}

func (AssignmentTaken) TableName() string { return "AssignmentsTaken" }

// Detail is one question part of a submission.
type Detail struct {
	QuestionID     string         `gorm:"column:question_id;size:256;not null;index" json:"question_id"`
	QuestionPartID int64          `gorm:"column:question_part_id;not null;index" json:"question_part_id"`
	Submission     datatypes.JSON `gorm:"column:submission" json:"submission"`
	mixin.TimeLength
}

type Grade struct {
	Grade    *string  `gorm:"column:grade;size:32" json:"grade"`
	GradeNum *float64 `gorm:"column:grade_num" json:"grade_num"`
	Grader   *int64   `gorm:"column:grader;index" json:"grader"`
}

type AssignmentDetail struct {
	AssignmentDetailsID int64 `gorm:"column:assignment_details_id;primaryKey;autoIncrement" json:"assignment_details_id"`
	AssignmentTakenID   int64 `gorm:"column:assignment_taken_id;not null;index" json:"assignment_taken_id"`
	mixin.Event
	Detail
}

func (AssignmentDetail) TableName() string { return "AssignmentDetails" }

type AssignmentGrade struct {
	GradeID           int64 `gorm:"column:grade_id;primaryKey;autoIncrement" json:"grade_id"`
	AssignmentTakenID int64 `gorm:"column:assignment_taken_id;not null;index" json:"assignment_taken_id"`
	mixin.Event
	Grade
}

func (AssignmentGrade) TableName() string { return "AssignmentGrades" }

// AssignmentDetailGrade shares its key with the detail it grades.
type AssignmentDetailGrade struct {
	AssignmentDetailsID int64  `gorm:"column:assignment_details_id;primaryKey;autoIncrement:false" json:"assignment_details_id"`
	AssignmentTakenID   int64  `gorm:"column:assignment_taken_id;not null;index" json:"assignment_taken_id"`
	QuestionID          string `gorm:"column:question_id;size:256;not null" json:"question_id"`
	QuestionPartID      *int64 `gorm:"column:question_part_id" json:"question_part_id"`
	IsCorrect           *bool  `gorm:"column:is_correct" json:"is_correct"`
	mixin.Event
	Grade
}

func (AssignmentDetailGrade) TableName() string { return "AssignmentDetailGrades" }

type AssignmentFeedback struct {
	FeedbackID        int64  `gorm:"column:feedback_id;primaryKey;autoIncrement" json:"feedback_id"`
	FeedbackDSID      *int64 `gorm:"column:feedback_ds_id;index" json:"feedback_ds_id"`
	FeedbackLength    *int   `gorm:"column:feedback_length" json:"feedback_length"`
	AssignmentTakenID int64  `gorm:"column:assignment_taken_id;not null;index" json:"assignment_taken_id"`
	GradeID           int64  `gorm:"column:grade_id;not null" json:"grade_id"`
	mixin.Event
	mixin.Deleted
}

func (AssignmentFeedback) TableName() string { return "AssignmentFeedback" }

type SelfAssessmentTaken struct {
	SelfAssessmentID int64  `gorm:"column:self_assessment_id;primaryKey;autoIncrement" json:"self_assessment_id"`
	SubmissionID     *int64 `gorm:"column:submission_id;index" json:"submission_id"`
	AssignmentID     string `gorm:"column:assignment_id;size:256;not null;index" json:"assignment_id"`
	mixin.Event
	mixin.Course
	mixin.TimeLength
}

func (SelfAssessmentTaken) TableName() string { return "SelfAssessmentsTaken" }

type SelfAssessmentDetail struct {
	SelfAssessmentDetailsID int64 `gorm:"column:self_assessment_details_id;primaryKey;autoIncrement" json:"self_assessment_details_id"`
	SelfAssessmentID        int64 `gorm:"column:self_assessment_id;not null;index" json:"self_assessment_id"`
	IsCorrect               *bool `gorm:"column:is_correct" json:"is_correct"`
	mixin.Event
	Detail
	Grade
}

func (SelfAssessmentDetail) TableName() string { return "SelfAssessmentDetails" }

// AssessmentView is shared by assignment and self-assessment views.
type AssessmentView struct {
	AssignmentID string `gorm:"column:assignment_id;size:256;not null;index" json:"assignment_id"`
	ResourceID   *int64 `gorm:"column:resource_id" json:"resource_id"`
	mixin.View
	mixin.RootContext
	mixin.TimeLength
}

type AssignmentView struct {
	AssignmentViewID int64 `gorm:"column:assignment_view_id;primaryKey;autoIncrement" json:"assignment_view_id"`
	AssessmentView
}

func (AssignmentView) TableName() string { return "AssignmentViews" }

type SelfAssessmentView struct {
	SelfAssessmentViewID int64 `gorm:"column:self_assessment_view_id;primaryKey;autoIncrement" json:"self_assessment_view_id"`
	AssessmentView
}

func (SelfAssessmentView) TableName() string { return "SelfAssessmentViews" }
