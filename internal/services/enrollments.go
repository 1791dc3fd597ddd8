package services

import (
	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/domain/enrollments"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

type CatalogViewEvent struct {
	Actor       `yaml:",inline"`
	Course      ContextRef `json:"course" yaml:"course"`
	ContextPath []string   `json:"context_path,omitempty" yaml:"context_path"`
	TimeLength  *int       `json:"time_length,omitempty" yaml:"time_length"`
}

type EnrollmentService interface {
	CreateCatalogView(dbc dbctx.Context, ev CatalogViewEvent) (*enrollments.CourseCatalogView, error)
	// CreateEnrollment records one enrollment per user and course, creating
	// the enrollment type on first use.
	CreateEnrollment(dbc dbctx.Context, a Actor, course ContextRef, typeName string) (*enrollments.CourseEnrollment, error)
	// CreateDrop records a drop and removes the user's enrollment row.
	CreateDrop(dbc dbctx.Context, a Actor, course ContextRef) (*enrollments.CourseDrop, error)
	EnrollmentsForCourse(dbc dbctx.Context, course ContextRef) ([]*enrollments.CourseEnrollment, error)
	CatalogViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[enrollments.CourseCatalogView], error)
}

type enrollmentService struct {
	*core
	log *logger.Logger

	catalogViews events.Repo[enrollments.CourseCatalogView]
	enrollments  events.Repo[enrollments.CourseEnrollment]
	drops        events.Repo[enrollments.CourseDrop]
}

func newEnrollmentService(c *core) EnrollmentService {
	return &enrollmentService{
		core:         c,
		log:          c.log.With("service", "EnrollmentService"),
		catalogViews: events.New[enrollments.CourseCatalogView](c.db, c.log, "CourseCatalogViewRepo"),
		enrollments:  events.New[enrollments.CourseEnrollment](c.db, c.log, "CourseEnrollmentRepo"),
		drops:        events.New[enrollments.CourseDrop](c.db, c.log, "CourseDropRepo"),
	}
}

func (s *enrollmentService) requireCourseID(dbc dbctx.Context, course ContextRef) (int64, error) {
	id, err := s.contextID(dbc, &course, true)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, aggregates.ValidationError("enrollment event requires a course")
	}
	return *id, nil
}

func (s *enrollmentService) CreateCatalogView(dbc dbctx.Context, ev CatalogViewEvent) (*enrollments.CourseCatalogView, error) {
	var out *enrollments.CourseCatalogView
	err := s.write(dbc, "enrollments.create_catalog_view", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, ev.User)
		if err != nil {
			return err
		}
		cid, err := s.requireCourseID(dbc, ev.Course)
		if err != nil {
			return err
		}
		ts := utc(ev.Timestamp)
		key := events.Where{"user_id": uid, "course_id": cid, "timestamp": ts}
		out, err = recordHeartbeat(dbc, s.catalogViews, s.log, "course catalog view", key, ev.TimeLength, nil,
			func() (*enrollments.CourseCatalogView, error) {
				path := mixin.EncodeContextPath(ev.ContextPath)
				return &enrollments.CourseCatalogView{
					CourseID:   cid,
					KeyedView:  mixin.KeyedView{UserID: uid, SessionID: ev.SessionID, Timestamp: ts, ContextPath: &path},
					TimeLength: mixin.TimeLength{TimeLength: ev.TimeLength},
				}, nil
			})
		return err
	})
	return out, err
}

func (s *enrollmentService) CreateEnrollment(dbc dbctx.Context, a Actor, course ContextRef, typeName string) (*enrollments.CourseEnrollment, error) {
	var out *enrollments.CourseEnrollment
	err := s.write(dbc, "enrollments.create_enrollment", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		cid, err := s.requireCourseID(dbc, course)
		if err != nil {
			return err
		}
		out, err = recordFact(dbc, s.enrollments, s.log, "enrollment", events.Where{"user_id": uid, "course_id": cid},
			func() (*enrollments.CourseEnrollment, error) {
				typeID, err := s.enrollTypeRepo.ID(dbc, typeName)
				if err != nil {
					return nil, err
				}
				return &enrollments.CourseEnrollment{
					CourseID: cid,
					TypeID:   typeID,
					Rater:    mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
				}, nil
			})
		return err
	})
	return out, err
}

func (s *enrollmentService) CreateDrop(dbc dbctx.Context, a Actor, course ContextRef) (*enrollments.CourseDrop, error) {
	var out *enrollments.CourseDrop
	err := s.write(dbc, "enrollments.create_drop", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		cid, err := s.requireCourseID(dbc, course)
		if err != nil {
			return err
		}
		ts := utc(a.Timestamp)
		out, err = recordFact(dbc, s.drops, s.log, "course drop", events.Where{"user_id": uid, "course_id": cid, "timestamp": ts},
			func() (*enrollments.CourseDrop, error) {
				return &enrollments.CourseDrop{
					CourseID: cid,
					Moment:   mixin.Moment{UserID: uid, SessionID: a.SessionID, Timestamp: ts},
				}, nil
			})
		if err != nil || out == nil {
			return err
		}
		_, err = s.enrollments.Delete(dbc, events.Where{"user_id": uid, "course_id": cid})
		return err
	})
	return out, err
}

func (s *enrollmentService) EnrollmentsForCourse(dbc dbctx.Context, course ContextRef) ([]*enrollments.CourseEnrollment, error) {
	id, err := s.contextID(dbc, &course, false)
	if err != nil || id == nil {
		return []*enrollments.CourseEnrollment{}, err
	}
	return s.enrollments.Find(dbc, events.Eq("course_id", *id))
}

func (s *enrollmentService) CatalogViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[enrollments.CourseCatalogView], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.catalogViews.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return resolveOwned(s.resolution(dbc), rows, func(row *enrollments.CourseCatalogView) (*int64, mixin.RootContext) {
		return &row.UserID, mixin.RootContext{CourseID: &row.CourseID}
	})
}
