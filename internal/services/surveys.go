package services

import (
	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/domain/surveys"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// InquiryRef is a submitted poll or survey.
type InquiryRef struct {
	SubmissionID int64  `json:"submission_id" yaml:"submission_id" validate:"required"`
	InquiryID    string `json:"inquiry_id" yaml:"inquiry_id" validate:"required"`
}

type SurveyService interface {
	CreatePollTaken(dbc dbctx.Context, a Actor, course ContextRef, poll InquiryRef) (*surveys.PollTaken, error)
	CreateSurveyTaken(dbc dbctx.Context, a Actor, course ContextRef, survey InquiryRef) (*surveys.SurveyTaken, error)
	PollsTaken(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[surveys.PollTaken], error)
	SurveysTaken(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[surveys.SurveyTaken], error)
}

type surveyService struct {
	*core
	log *logger.Logger

	polls   events.Repo[surveys.PollTaken]
	surveys events.Repo[surveys.SurveyTaken]
}

func newSurveyService(c *core) SurveyService {
	return &surveyService{
		core:    c,
		log:     c.log.With("service", "SurveyService"),
		polls:   events.New[surveys.PollTaken](c.db, c.log, "PollTakenRepo"),
		surveys: events.New[surveys.SurveyTaken](c.db, c.log, "SurveyTakenRepo"),
	}
}

// inquiryColumns resolves the shared columns of a poll or survey.
func (s *surveyService) inquiryColumns(dbc dbctx.Context, a Actor, course ContextRef) (mixin.Event, mixin.Course, error) {
	uid, err := s.requireUserID(dbc, a.User)
	if err != nil {
		return mixin.Event{}, mixin.Course{}, err
	}
	cid, err := s.contextID(dbc, &course, true)
	if err != nil {
		return mixin.Event{}, mixin.Course{}, err
	}
	if cid == nil {
		return mixin.Event{}, mixin.Course{}, aggregates.ValidationError("inquiry requires a course")
	}
	return mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)}, mixin.Course{CourseID: *cid}, nil
}

func (s *surveyService) CreatePollTaken(dbc dbctx.Context, a Actor, course ContextRef, poll InquiryRef) (*surveys.PollTaken, error) {
	var out *surveys.PollTaken
	err := s.write(dbc, "surveys.create_poll_taken", func(dbc dbctx.Context) error {
		event, c, err := s.inquiryColumns(dbc, a, course)
		if err != nil {
			return err
		}
		out, err = recordFact(dbc, s.polls, s.log, "poll", events.Where{"submission_id": poll.SubmissionID},
			func() (*surveys.PollTaken, error) {
				return &surveys.PollTaken{
					SubmissionID: int64Ptr(poll.SubmissionID),
					PollID:       poll.InquiryID,
					Event:        event,
					Course:       c,
				}, nil
			})
		return err
	})
	return out, err
}

func (s *surveyService) CreateSurveyTaken(dbc dbctx.Context, a Actor, course ContextRef, survey InquiryRef) (*surveys.SurveyTaken, error) {
	var out *surveys.SurveyTaken
	err := s.write(dbc, "surveys.create_survey_taken", func(dbc dbctx.Context) error {
		event, c, err := s.inquiryColumns(dbc, a, course)
		if err != nil {
			return err
		}
		out, err = recordFact(dbc, s.surveys, s.log, "survey", events.Where{"submission_id": survey.SubmissionID},
			func() (*surveys.SurveyTaken, error) {
				return &surveys.SurveyTaken{
					SubmissionID: int64Ptr(survey.SubmissionID),
					SurveyID:     survey.InquiryID,
					Event:        event,
					Course:       c,
				}, nil
			})
		return err
	})
	return out, err
}

func (s *surveyService) PollsTaken(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[surveys.PollTaken], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.polls.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return resolveOwned(s.resolution(dbc), rows, func(row *surveys.PollTaken) (*int64, mixin.RootContext) {
		return row.UserID, mixin.RootContext{CourseID: &row.CourseID}
	})
}

func (s *surveyService) SurveysTaken(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[surveys.SurveyTaken], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.surveys.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return resolveOwned(s.resolution(dbc), rows, func(row *surveys.SurveyTaken) (*int64, mixin.RootContext) {
		return row.UserID, mixin.RootContext{CourseID: &row.CourseID}
	})
}
