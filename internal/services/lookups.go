package services

import (
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
)

// LookupService exposes the get-or-create lookup tables. Values are never
// updated or deleted once stored.
type LookupService interface {
	UserAgentID(dbc dbctx.Context, agent string) (int64, error)
	MimeTypeID(dbc dbctx.Context, mimeType string) (int64, error)
	EnrollmentTypeID(dbc dbctx.Context, typeName string) (int64, error)
}

type lookupService struct {
	*core
}

func (s *lookupService) UserAgentID(dbc dbctx.Context, agent string) (int64, error) {
	var id int64
	err := s.write(dbc, "lookups.user_agent", func(dbc dbctx.Context) error {
		var err error
		id, err = s.userAgentRepo.ID(dbc, agent)
		return err
	})
	return id, err
}

func (s *lookupService) MimeTypeID(dbc dbctx.Context, mimeType string) (int64, error) {
	var id int64
	err := s.write(dbc, "lookups.mime_type", func(dbc dbctx.Context) error {
		var err error
		id, err = s.mimeTypeRepo.ID(dbc, mimeType)
		return err
	})
	return id, err
}

func (s *lookupService) EnrollmentTypeID(dbc dbctx.Context, typeName string) (int64, error) {
	var id int64
	err := s.write(dbc, "lookups.enrollment_type", func(dbc dbctx.Context) error {
		var err error
		id, err = s.enrollTypeRepo.ID(dbc, typeName)
		return err
	})
	return id, err
}
