package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/domain/assessments"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// PartRef is one answered question part.
type PartRef struct {
	Response any `json:"response" yaml:"response"`
	// Uploaded marks a file upload; the body is never stored.
	Uploaded bool `json:"uploaded,omitempty" yaml:"uploaded"`
	// Modeled marks a modeled-content response whose value is a list of
	// fragments joined into one string.
	Modeled bool `json:"modeled,omitempty" yaml:"modeled"`
	// Assessed is the auto-assessed value; 1 means correct.
	Assessed *float64 `json:"assessed,omitempty" yaml:"assessed"`
}

type QuestionRef struct {
	QuestionID string    `json:"question_id" yaml:"question_id" validate:"required"`
	Duration   *int      `json:"duration,omitempty" yaml:"duration"`
	Parts      []PartRef `json:"parts" yaml:"parts"`
}

// GradeRef is the instructor grade attached to a submission.
type GradeRef struct {
	Value  string   `json:"value" yaml:"value"`
	Grader *UserRef `json:"grader,omitempty" yaml:"grader"`
}

// SubmissionRef describes an assignment submission. Creator, Created and
// Course are used when the submission has to be recorded lazily.
type SubmissionRef struct {
	ExternalID   int64         `json:"id" yaml:"id" validate:"required"`
	AssignmentID string        `json:"assignment_id" yaml:"assignment_id" validate:"required"`
	Creator      *UserRef      `json:"creator,omitempty" yaml:"creator"`
	Created      time.Time     `json:"created" yaml:"created"`
	Course       ContextRef    `json:"course" yaml:"course"`
	Duration     *int          `json:"duration,omitempty" yaml:"duration"`
	IsLate       bool          `json:"is_late" yaml:"is_late"`
	Questions    []QuestionRef `json:"questions" yaml:"questions"`
	Grade        *GradeRef     `json:"grade,omitempty" yaml:"grade"`
}

type SelfAssessmentRef struct {
	ExternalID    int64         `json:"id" yaml:"id" validate:"required"`
	QuestionSetID string        `json:"question_set_id" yaml:"question_set_id" validate:"required"`
	Duration      *int          `json:"duration,omitempty" yaml:"duration"`
	Questions     []QuestionRef `json:"questions" yaml:"questions"`
	Grader        *UserRef      `json:"grader,omitempty" yaml:"grader"`
}

type FeedbackRef struct {
	ExternalID int64    `json:"id" yaml:"id" validate:"required"`
	Body       []string `json:"body" yaml:"body"`
}

// AssessmentViewEvent is a heartbeat view of an assignment or
// self-assessment, optionally opened from a resource.
type AssessmentViewEvent struct {
	Actor        `yaml:",inline"`
	Course       ContextRef   `json:"course" yaml:"course"`
	ContextPath  []string     `json:"context_path,omitempty" yaml:"context_path"`
	Resource     *ResourceRef `json:"resource,omitempty" yaml:"resource"`
	AssignmentID string       `json:"assignment_id" yaml:"assignment_id" validate:"required"`
	TimeLength   *int         `json:"time_length,omitempty" yaml:"time_length"`
}

// AssignmentRecord is a taken assignment with its grade and, for detail
// reads, its answered parts.
type AssignmentRecord struct {
	Taken   *assessments.AssignmentTaken
	Grade   *assessments.AssignmentGrade
	Details []AssignmentDetailRecord
}

type AssignmentDetailRecord struct {
	Detail *assessments.AssignmentDetail
	Grade  *assessments.AssignmentDetailGrade
	Answer any
}

type AssessmentService interface {
	CreateAssignmentTaken(dbc dbctx.Context, a Actor, course ContextRef, submission SubmissionRef) (*assessments.AssignmentTaken, error)
	// GradeSubmission records or replaces the grade of a taken assignment.
	// An unrecorded submission is recorded instead, with its own grade.
	GradeSubmission(dbc dbctx.Context, a Actor, grader UserRef, value string, submission SubmissionRef) (*assessments.AssignmentGrade, error)
	CreateSubmissionFeedback(dbc dbctx.Context, a Actor, submission SubmissionRef, feedback FeedbackRef) (*assessments.AssignmentFeedback, error)
	DeleteFeedback(dbc dbctx.Context, at time.Time, feedbackID int64) error
	CreateSelfAssessmentTaken(dbc dbctx.Context, a Actor, course ContextRef, submission SelfAssessmentRef) (*assessments.SelfAssessmentTaken, error)
	CreateAssignmentView(dbc dbctx.Context, ev AssessmentViewEvent) (*assessments.AssignmentView, error)
	CreateSelfAssessmentView(dbc dbctx.Context, ev AssessmentViewEvent) (*assessments.SelfAssessmentView, error)

	AssignmentsForUser(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[AssignmentRecord], error)
	AssignmentForUser(dbc dbctx.Context, user UserRef, assignmentID string) ([]*Resolved[AssignmentRecord], error)
	AssignmentsForCourse(dbc dbctx.Context, course ContextRef) ([]*Resolved[AssignmentRecord], error)
	AssignmentGradesForCourse(dbc dbctx.Context, course ContextRef, assignmentID string) ([]*Resolved[AssignmentRecord], error)
	AssignmentDetailsForCourse(dbc dbctx.Context, course ContextRef, assignmentID string) ([]*Resolved[AssignmentRecord], error)
	SelfAssessmentsForUser(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[assessments.SelfAssessmentTaken], error)
	SelfAssessmentsForUserAndID(dbc dbctx.Context, user UserRef, assessmentID string) ([]*Resolved[assessments.SelfAssessmentTaken], error)
	SelfAssessmentsForCourse(dbc dbctx.Context, course ContextRef) ([]*Resolved[assessments.SelfAssessmentTaken], error)
	AssignmentViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[assessments.AssignmentView], error)
	SelfAssessmentViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[assessments.SelfAssessmentView], error)
}

type assessmentService struct {
	*core
	log *logger.Logger

	taken        events.Repo[assessments.AssignmentTaken]
	details      events.Repo[assessments.AssignmentDetail]
	grades       events.Repo[assessments.AssignmentGrade]
	detailGrades events.Repo[assessments.AssignmentDetailGrade]
	feedback     events.Repo[assessments.AssignmentFeedback]
	selfTaken    events.Repo[assessments.SelfAssessmentTaken]
	selfDetails  events.Repo[assessments.SelfAssessmentDetail]
	views        events.Repo[assessments.AssignmentView]
	selfViews    events.Repo[assessments.SelfAssessmentView]
}

func newAssessmentService(c *core) AssessmentService {
	return &assessmentService{
		core:         c,
		log:          c.log.With("service", "AssessmentService"),
		taken:        events.New[assessments.AssignmentTaken](c.db, c.log, "AssignmentTakenRepo"),
		details:      events.New[assessments.AssignmentDetail](c.db, c.log, "AssignmentDetailRepo"),
		grades:       events.New[assessments.AssignmentGrade](c.db, c.log, "AssignmentGradeRepo"),
		detailGrades: events.New[assessments.AssignmentDetailGrade](c.db, c.log, "AssignmentDetailGradeRepo"),
		feedback:     events.New[assessments.AssignmentFeedback](c.db, c.log, "AssignmentFeedbackRepo"),
		selfTaken:    events.New[assessments.SelfAssessmentTaken](c.db, c.log, "SelfAssessmentTakenRepo"),
		selfDetails:  events.New[assessments.SelfAssessmentDetail](c.db, c.log, "SelfAssessmentDetailRepo"),
		views:        events.New[assessments.AssignmentView](c.db, c.log, "AssignmentViewRepo"),
		selfViews:    events.New[assessments.SelfAssessmentView](c.db, c.log, "SelfAssessmentViewRepo"),
	}
}

// Duration is a recorded effort duration in whole seconds, -1 when unknown.
func Duration(seconds *int) int {
	if seconds == nil || *seconds == 0 {
		return -1
	}
	return *seconds
}

// EncodeResponse serialises a submitted response for storage. Uploaded
// files are replaced by a marker and modeled content is flattened. A
// response that cannot be serialised is stored as an empty JSON string.
func EncodeResponse(log *logger.Logger, part PartRef) datatypes.JSON {
	response := part.Response
	switch {
	case part.Uploaded:
		response = assessments.FileUploadedResponse
	case part.Modeled:
		response = joinFragments(response)
	}
	raw, err := json.Marshal(response)
	if err != nil {
		if log != nil {
			log.Info("submission response is not serializable", "type", fmt.Sprintf("%T", response), "error", err)
		}
		return datatypes.JSON(`""`)
	}
	return datatypes.JSON(raw)
}

func joinFragments(v any) any {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, "")
	case []any:
		var b strings.Builder
		for _, p := range x {
			if s, ok := p.(string); ok {
				b.WriteString(s)
			}
		}
		return b.String()
	}
	return v
}

// DecodeResponse reads a stored response back. Objects whose keys are all
// integers come back as map[int]any.
func DecodeResponse(raw datatypes.JSON) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return v, nil
	}
	keyed := make(map[int]any, len(obj))
	for k, val := range obj {
		i, err := strconv.Atoi(k)
		if err != nil {
			return obj, nil
		}
		keyed[i] = val
	}
	return keyed, nil
}

// GradeValue converts a grade to a number. The "number - letter" form
// yields its number; anything unparseable, empty or zero yields nil.
func GradeValue(v any) *float64 {
	switch x := v.(type) {
	case string:
		if x == "" {
			return nil
		}
		s := x
		if strings.HasSuffix(x, " -") {
			s = strings.Fields(x)[0]
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		return &f
	case int:
		if x == 0 {
			return nil
		}
		f := float64(x)
		return &f
	case int64:
		if x == 0 {
			return nil
		}
		f := float64(x)
		return &f
	case float64:
		if x == 0 {
			return nil
		}
		return &x
	}
	return nil
}

func formatAssessed(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	return &s
}

func isCorrect(v *float64) *bool {
	return boolPtr(v != nil && *v == 1)
}

func (s *assessmentService) courseID(dbc dbctx.Context, course ContextRef) (int64, error) {
	id, err := s.contextID(dbc, &course, true)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, aggregates.ValidationError("assessment requires a course")
	}
	return *id, nil
}

func (s *assessmentService) graderID(dbc dbctx.Context, grader *UserRef) (*int64, error) {
	if grader == nil {
		return nil, nil
	}
	return s.userID(dbc, grader)
}

func (s *assessmentService) CreateAssignmentTaken(dbc dbctx.Context, a Actor, course ContextRef, submission SubmissionRef) (*assessments.AssignmentTaken, error) {
	var out *assessments.AssignmentTaken
	err := s.write(dbc, "assessments.create_assignment_taken", func(dbc dbctx.Context) error {
		var err error
		out, err = s.createTaken(dbc, a, course, submission)
		return err
	})
	return out, err
}

func (s *assessmentService) createTaken(dbc dbctx.Context, a Actor, course ContextRef, submission SubmissionRef) (*assessments.AssignmentTaken, error) {
	uid, err := s.requireUserID(dbc, a.User)
	if err != nil {
		return nil, err
	}
	cid, err := s.courseID(dbc, course)
	if err != nil {
		return nil, err
	}
	ts := utcPtr(a.Timestamp)
	event := mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: ts}
	taken, err := recordFact(dbc, s.taken, s.log, "assignment taken", events.Where{"submission_id": submission.ExternalID},
		func() (*assessments.AssignmentTaken, error) {
			return &assessments.AssignmentTaken{
				SubmissionID: int64Ptr(submission.ExternalID),
				AssignmentID: submission.AssignmentID,
				IsLate:       boolPtr(submission.IsLate),
				Event:        event,
				Course:       mixin.Course{CourseID: cid},
				TimeLength:   mixin.TimeLength{TimeLength: intPtr(Duration(submission.Duration))},
			}, nil
		})
	if err != nil || taken == nil {
		return taken, err
	}

	type partKey struct {
		question string
		idx      int
	}
	detailIDs := map[partKey]int64{}
	for _, q := range submission.Questions {
		for idx, part := range q.Parts {
			detail := &assessments.AssignmentDetail{
				AssignmentTakenID: taken.AssignmentTakenID,
				Event:             event,
				Detail: assessments.Detail{
					QuestionID:     q.QuestionID,
					QuestionPartID: int64(idx),
					Submission:     EncodeResponse(s.log, part),
					TimeLength:     mixin.TimeLength{TimeLength: intPtr(Duration(q.Duration))},
				},
			}
			if err := s.details.Create(dbc, detail); err != nil {
				return nil, err
			}
			detailIDs[partKey{q.QuestionID, idx}] = detail.AssignmentDetailsID
		}
	}

	if submission.Grade == nil {
		return taken, nil
	}
	grader, err := s.graderID(dbc, submission.Grade.Grader)
	if err != nil {
		return nil, err
	}
	if err := s.grades.Create(dbc, &assessments.AssignmentGrade{
		AssignmentTakenID: taken.AssignmentTakenID,
		Event:             event,
		Grade: assessments.Grade{
			Grade:    strPtr(submission.Grade.Value),
			GradeNum: GradeValue(submission.Grade.Value),
			Grader:   grader,
		},
	}); err != nil {
		return nil, err
	}
	for _, q := range submission.Questions {
		for idx, part := range q.Parts {
			if part.Assessed == nil {
				continue
			}
			if err := s.detailGrades.Create(dbc, &assessments.AssignmentDetailGrade{
				AssignmentDetailsID: detailIDs[partKey{q.QuestionID, idx}],
				AssignmentTakenID:   taken.AssignmentTakenID,
				QuestionID:          q.QuestionID,
				QuestionPartID:      int64Ptr(int64(idx)),
				IsCorrect:           isCorrect(part.Assessed),
				Event:               event,
				Grade: assessments.Grade{
					Grade:    formatAssessed(part.Assessed),
					GradeNum: part.Assessed,
					Grader:   grader,
				},
			}); err != nil {
				return nil, err
			}
		}
	}
	return taken, nil
}

// takenRow returns the recorded submission, recording it from its own
// metadata when missing. created reports whether it was just recorded.
func (s *assessmentService) takenRow(dbc dbctx.Context, a Actor, submission SubmissionRef) (row *assessments.AssignmentTaken, created bool, err error) {
	row, err = s.taken.First(dbc, events.Where{"submission_id": submission.ExternalID})
	if err != nil || row != nil {
		return row, false, err
	}
	row, err = s.createTaken(dbc, a, submission.Course, submission)
	if err != nil {
		return nil, false, err
	}
	s.log.Info("created assignment taken lazily", "submission_id", submission.ExternalID)
	return row, true, nil
}

func (s *assessmentService) GradeSubmission(dbc dbctx.Context, a Actor, grader UserRef, value string, submission SubmissionRef) (*assessments.AssignmentGrade, error) {
	var out *assessments.AssignmentGrade
	err := s.write(dbc, "assessments.grade_submission", func(dbc dbctx.Context) error {
		graderID, err := s.requireUserID(dbc, &grader)
		if err != nil {
			return err
		}
		// a lazily recorded submission belongs to its own creator; the
		// grade event's value still applies on top of whatever it carried
		taken, _, err := s.takenRow(dbc, creatorActor(submission.Creator, submission.Created, a), submission)
		if err != nil {
			return err
		}
		ts := utc(a.Timestamp)
		key := events.Where{"assignment_taken_id": taken.AssignmentTakenID}
		existing, err := s.grades.First(dbc, key)
		if err != nil {
			return err
		}
		if existing != nil {
			if _, err := s.grades.UpdateFields(dbc, events.Where{"grade_id": existing.GradeID}, map[string]any{
				"grade":     value,
				"grade_num": nullable(GradeValue(value)),
				"timestamp": ts,
				"grader":    graderID,
			}); err != nil {
				return err
			}
			out, err = s.grades.First(dbc, events.Where{"grade_id": existing.GradeID})
			return err
		}
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		out = &assessments.AssignmentGrade{
			AssignmentTakenID: taken.AssignmentTakenID,
			Event:             mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: &ts},
			Grade:             assessments.Grade{Grade: strPtr(value), GradeNum: GradeValue(value), Grader: &graderID},
		}
		return s.grades.Create(dbc, out)
	})
	return out, err
}

func (s *assessmentService) CreateSubmissionFeedback(dbc dbctx.Context, a Actor, submission SubmissionRef, feedback FeedbackRef) (*assessments.AssignmentFeedback, error) {
	var out *assessments.AssignmentFeedback
	err := s.write(dbc, "assessments.create_feedback", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		out, err = recordFact(dbc, s.feedback, s.log, "feedback", events.Where{"feedback_ds_id": feedback.ExternalID},
			func() (*assessments.AssignmentFeedback, error) {
				ts := a.Timestamp
				lazy := creatorActor(submission.Creator, submission.Created, a)
				taken, created, err := s.takenRow(dbc, lazy, submission)
				if err != nil {
					return nil, err
				}
				if created {
					ts = lazy.Timestamp
				}
				grade, err := s.grades.First(dbc, events.Where{"assignment_taken_id": taken.AssignmentTakenID})
				if err != nil {
					return nil, err
				}
				if grade == nil {
					return nil, aggregates.InvariantError("feedback on an ungraded submission")
				}
				length := bodyLength(feedback.Body)
				if length == nil {
					length = intPtr(0)
				}
				return &assessments.AssignmentFeedback{
					FeedbackDSID:      int64Ptr(feedback.ExternalID),
					FeedbackLength:    length,
					AssignmentTakenID: taken.AssignmentTakenID,
					GradeID:           grade.GradeID,
					Event:             mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: utcPtr(ts)},
				}, nil
			})
		return err
	})
	return out, err
}

func (s *assessmentService) DeleteFeedback(dbc dbctx.Context, at time.Time, feedbackID int64) error {
	return s.write(dbc, "assessments.delete_feedback", func(dbc dbctx.Context) error {
		n, err := softDelete(dbc, s.feedback, events.Where{"feedback_ds_id": feedbackID}, "feedback_ds_id", at)
		if err == nil && n == 0 {
			s.log.Info("feedback never created", "feedback_ds_id", feedbackID)
		}
		return err
	})
}

func (s *assessmentService) CreateSelfAssessmentTaken(dbc dbctx.Context, a Actor, course ContextRef, submission SelfAssessmentRef) (*assessments.SelfAssessmentTaken, error) {
	var out *assessments.SelfAssessmentTaken
	err := s.write(dbc, "assessments.create_self_assessment_taken", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		cid, err := s.courseID(dbc, course)
		if err != nil {
			return err
		}
		event := mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)}
		duration := mixin.TimeLength{TimeLength: intPtr(Duration(submission.Duration))}
		out, err = recordFact(dbc, s.selfTaken, s.log, "self-assessment", events.Where{"submission_id": submission.ExternalID},
			func() (*assessments.SelfAssessmentTaken, error) {
				return &assessments.SelfAssessmentTaken{
					SubmissionID: int64Ptr(submission.ExternalID),
					AssignmentID: submission.QuestionSetID,
					Event:        event,
					Course:       mixin.Course{CourseID: cid},
					TimeLength:   duration,
				}, nil
			})
		if err != nil || out == nil {
			return err
		}
		grader, err := s.graderID(dbc, submission.Grader)
		if err != nil {
			return err
		}
		for _, q := range submission.Questions {
			for idx, part := range q.Parts {
				if err := s.selfDetails.Create(dbc, &assessments.SelfAssessmentDetail{
					SelfAssessmentID: out.SelfAssessmentID,
					IsCorrect:        isCorrect(part.Assessed),
					Event:            event,
					Detail: assessments.Detail{
						QuestionID:     q.QuestionID,
						QuestionPartID: int64(idx),
						Submission:     EncodeResponse(s.log, part),
						TimeLength:     duration,
					},
					Grade: assessments.Grade{Grade: formatAssessed(part.Assessed), GradeNum: part.Assessed, Grader: grader},
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return out, err
}

// assessmentView builds the shared columns of an assessment heartbeat.
func (s *assessmentService) assessmentView(dbc dbctx.Context, ev AssessmentViewEvent, uid int64, ts time.Time) (assessments.AssessmentView, error) {
	var rid *int64
	if ev.Resource != nil {
		id, err := s.resourceID(dbc, *ev.Resource, true)
		if err != nil {
			return assessments.AssessmentView{}, err
		}
		rid = id
	}
	cid, err := s.contextID(dbc, &ev.Course, true)
	if err != nil {
		return assessments.AssessmentView{}, err
	}
	path := mixin.EncodeContextPath(ev.ContextPath)
	return assessments.AssessmentView{
		AssignmentID: ev.AssignmentID,
		ResourceID:   rid,
		View:         mixin.View{UserID: uid, SessionID: ev.SessionID, Timestamp: ts, ContextPath: &path},
		RootContext:  mixin.RootContext{CourseID: cid},
		TimeLength:   mixin.TimeLength{TimeLength: ev.TimeLength},
	}, nil
}

func (s *assessmentService) CreateAssignmentView(dbc dbctx.Context, ev AssessmentViewEvent) (*assessments.AssignmentView, error) {
	var out *assessments.AssignmentView
	err := s.write(dbc, "assessments.create_assignment_view", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, ev.User)
		if err != nil {
			return err
		}
		ts := utc(ev.Timestamp)
		key := events.Where{"user_id": uid, "assignment_id": ev.AssignmentID, "timestamp": ts}
		out, err = recordHeartbeat(dbc, s.views, s.log, "assignment view", key, ev.TimeLength, nil,
			func() (*assessments.AssignmentView, error) {
				view, err := s.assessmentView(dbc, ev, uid, ts)
				if err != nil {
					return nil, err
				}
				return &assessments.AssignmentView{AssessmentView: view}, nil
			})
		return err
	})
	return out, err
}

func (s *assessmentService) CreateSelfAssessmentView(dbc dbctx.Context, ev AssessmentViewEvent) (*assessments.SelfAssessmentView, error) {
	var out *assessments.SelfAssessmentView
	err := s.write(dbc, "assessments.create_self_assessment_view", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, ev.User)
		if err != nil {
			return err
		}
		ts := utc(ev.Timestamp)
		key := events.Where{"user_id": uid, "assignment_id": ev.AssignmentID, "timestamp": ts}
		out, err = recordHeartbeat(dbc, s.selfViews, s.log, "self-assessment view", key, ev.TimeLength, nil,
			func() (*assessments.SelfAssessmentView, error) {
				view, err := s.assessmentView(dbc, ev, uid, ts)
				if err != nil {
					return nil, err
				}
				return &assessments.SelfAssessmentView{AssessmentView: view}, nil
			})
		return err
	})
	return out, err
}

func (s *assessmentService) AssignmentsForUser(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[AssignmentRecord], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.taken.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return s.resolveAssignments(dbc, rows, false)
}

func (s *assessmentService) AssignmentForUser(dbc dbctx.Context, user UserRef, assignmentID string) ([]*Resolved[AssignmentRecord], error) {
	scopes, _, err := s.userScopes(dbc, user, Filter{})
	if err != nil {
		return nil, err
	}
	rows, err := s.taken.Find(dbc, append(scopes, events.Eq("assignment_id", assignmentID))...)
	if err != nil {
		return nil, err
	}
	return s.resolveAssignments(dbc, rows, false)
}

func (s *assessmentService) forCourse(dbc dbctx.Context, course ContextRef, extra ...events.Scope) ([]*assessments.AssignmentTaken, error) {
	id, err := s.contextID(dbc, &course, false)
	if err != nil || id == nil {
		return []*assessments.AssignmentTaken{}, err
	}
	return s.taken.Find(dbc, append([]events.Scope{events.Eq("course_id", *id)}, extra...)...)
}

func (s *assessmentService) AssignmentsForCourse(dbc dbctx.Context, course ContextRef) ([]*Resolved[AssignmentRecord], error) {
	rows, err := s.forCourse(dbc, course)
	if err != nil {
		return nil, err
	}
	return s.resolveAssignments(dbc, rows, false)
}

func (s *assessmentService) AssignmentGradesForCourse(dbc dbctx.Context, course ContextRef, assignmentID string) ([]*Resolved[AssignmentRecord], error) {
	rows, err := s.forCourse(dbc, course, events.Eq("assignment_id", assignmentID))
	if err != nil {
		return nil, err
	}
	return s.resolveAssignments(dbc, rows, false)
}

func (s *assessmentService) AssignmentDetailsForCourse(dbc dbctx.Context, course ContextRef, assignmentID string) ([]*Resolved[AssignmentRecord], error) {
	rows, err := s.forCourse(dbc, course, events.Eq("assignment_id", assignmentID))
	if err != nil {
		return nil, err
	}
	return s.resolveAssignments(dbc, rows, true)
}

func (s *assessmentService) resolveAssignments(dbc dbctx.Context, rows []*assessments.AssignmentTaken, withDetails bool) ([]*Resolved[AssignmentRecord], error) {
	r := s.resolution(dbc)
	out := make([]*Resolved[AssignmentRecord], 0, len(rows))
	for _, row := range rows {
		res := &Resolved[AssignmentRecord]{}
		ok, err := r.event(res, row.UserID, mixin.RootContext{CourseID: &row.CourseID})
		if err != nil {
			return nil, err
		}
		if !ok || res.RootContext == nil || row.SubmissionID == nil {
			continue
		}
		if res.Object, err = r.object(ObjectSubmission, objectID(*row.SubmissionID)); err != nil {
			return nil, err
		}
		if res.Object == nil {
			continue
		}
		rec := AssignmentRecord{Taken: row}
		if rec.Grade, err = s.grades.First(dbc, events.Where{"assignment_taken_id": row.AssignmentTakenID}); err != nil {
			return nil, err
		}
		if withDetails {
			if rec.Details, err = s.detailRecords(dbc, row.AssignmentTakenID); err != nil {
				return nil, err
			}
		}
		res.Row = &rec
		out = append(out, res)
	}
	return out, nil
}

func (s *assessmentService) detailRecords(dbc dbctx.Context, takenID int64) ([]AssignmentDetailRecord, error) {
	details, err := s.details.Find(dbc, events.Eq("assignment_taken_id", takenID))
	if err != nil {
		return nil, err
	}
	out := make([]AssignmentDetailRecord, 0, len(details))
	for _, d := range details {
		grade, err := s.detailGrades.First(dbc, events.Where{"assignment_details_id": d.AssignmentDetailsID})
		if err != nil {
			return nil, err
		}
		answer, err := DecodeResponse(d.Submission)
		if err != nil {
			return nil, err
		}
		out = append(out, AssignmentDetailRecord{Detail: d, Grade: grade, Answer: answer})
	}
	return out, nil
}

func (s *assessmentService) SelfAssessmentsForUser(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[assessments.SelfAssessmentTaken], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.selfTaken.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return s.resolveSelfAssessments(dbc, rows)
}

func (s *assessmentService) SelfAssessmentsForUserAndID(dbc dbctx.Context, user UserRef, assessmentID string) ([]*Resolved[assessments.SelfAssessmentTaken], error) {
	scopes, _, err := s.userScopes(dbc, user, Filter{})
	if err != nil {
		return nil, err
	}
	rows, err := s.selfTaken.Find(dbc, append(scopes, events.Eq("assignment_id", assessmentID))...)
	if err != nil {
		return nil, err
	}
	return s.resolveSelfAssessments(dbc, rows)
}

func (s *assessmentService) SelfAssessmentsForCourse(dbc dbctx.Context, course ContextRef) ([]*Resolved[assessments.SelfAssessmentTaken], error) {
	id, err := s.contextID(dbc, &course, false)
	if err != nil || id == nil {
		return []*Resolved[assessments.SelfAssessmentTaken]{}, err
	}
	rows, err := s.selfTaken.Find(dbc, events.Eq("course_id", *id))
	if err != nil {
		return nil, err
	}
	return s.resolveSelfAssessments(dbc, rows)
}

func (s *assessmentService) resolveSelfAssessments(dbc dbctx.Context, rows []*assessments.SelfAssessmentTaken) ([]*Resolved[assessments.SelfAssessmentTaken], error) {
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *assessments.SelfAssessmentTaken) (*Resolved[assessments.SelfAssessmentTaken], error) {
		out := &Resolved[assessments.SelfAssessmentTaken]{Row: row}
		ok, err := r.event(out, row.UserID, mixin.RootContext{CourseID: &row.CourseID})
		if err != nil || !ok || out.RootContext == nil || row.SubmissionID == nil {
			return nil, err
		}
		if out.Object, err = r.object(ObjectSubmission, objectID(*row.SubmissionID)); err != nil || out.Object == nil {
			return nil, err
		}
		return out, nil
	})
}

func (s *assessmentService) AssignmentViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[assessments.AssignmentView], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.views.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return resolveOwned(s.resolution(dbc), rows, func(row *assessments.AssignmentView) (*int64, mixin.RootContext) {
		return &row.UserID, row.RootContext
	})
}

func (s *assessmentService) SelfAssessmentViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[assessments.SelfAssessmentView], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.selfViews.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return resolveOwned(s.resolution(dbc), rows, func(row *assessments.SelfAssessmentView) (*int64, mixin.RootContext) {
		return &row.UserID, row.RootContext
	})
}
