package services

import (
	"strings"
	"time"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/domain/identity"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// LocationInput is a geo lookup result for an ip address.
type LocationInput struct {
	Latitude  string `json:"latitude" yaml:"latitude" validate:"required"`
	Longitude string `json:"longitude" yaml:"longitude" validate:"required"`
	City      string `json:"city,omitempty" yaml:"city"`
	State     string `json:"state,omitempty" yaml:"state"`
	Country   string `json:"country,omitempty" yaml:"country"`
}

type SessionService interface {
	Create(dbc dbctx.Context, user UserRef, ip, userAgent string, start time.Time) (*identity.Session, error)
	// End stamps the end time once; false means unknown or already ended.
	End(dbc dbctx.Context, sessionID int64, end time.Time) (bool, error)
	Get(dbc dbctx.Context, sessionID int64) (*identity.Session, error)
	ForUser(dbc dbctx.Context, user UserRef) ([]*identity.Session, error)
	// RecordLocation stores one ip row per (user, ip); a repeated ip is a no-op.
	RecordLocation(dbc dbctx.Context, user UserRef, ip, countryCode string, loc *LocationInput) (bool, error)
	LocationsForUser(dbc dbctx.Context, user UserRef) ([]*identity.IPGeoLocation, error)
}

type sessionService struct {
	*core
	log *logger.Logger
}

func (s *sessionService) Create(dbc dbctx.Context, user UserRef, ip, userAgent string, start time.Time) (*identity.Session, error) {
	var out *identity.Session
	err := s.write(dbc, "sessions.create", func(dbc dbctx.Context) error {
		u, err := s.getOrCreateUser(dbc, user)
		if err != nil {
			return err
		}
		var agentID *int64
		if strings.TrimSpace(userAgent) != "" {
			id, err := s.userAgentRepo.ID(dbc, userAgent)
			if err != nil {
				return err
			}
			agentID = &id
		}
		row := &identity.Session{
			UserID:      int64Ptr(u.UserID),
			IPAddr:      strPtr(ip),
			UserAgentID: agentID,
			StartTime:   utcPtr(start),
		}
		if err := s.sessionRepo.Create(dbc, row); err != nil {
			return err
		}
		out = row
		return nil
	})
	return out, err
}

func (s *sessionService) End(dbc dbctx.Context, sessionID int64, end time.Time) (bool, error) {
	var ended bool
	err := s.write(dbc, "sessions.end", func(dbc dbctx.Context) error {
		ok, err := s.sessionRepo.End(dbc, sessionID, end)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Info("session end ignored", "session_id", sessionID)
		}
		ended = ok
		return nil
	})
	return ended, err
}

func (s *sessionService) Get(dbc dbctx.Context, sessionID int64) (*identity.Session, error) {
	return s.sessionRepo.GetByID(dbc, sessionID)
}

func (s *sessionService) ForUser(dbc dbctx.Context, user UserRef) ([]*identity.Session, error) {
	id, err := s.lookupUserID(dbc, user.ExternalID)
	if err != nil || id == nil {
		return []*identity.Session{}, err
	}
	return s.sessionRepo.ListForUser(dbc, *id)
}

func (s *sessionService) RecordLocation(dbc dbctx.Context, user UserRef, ip, countryCode string, loc *LocationInput) (bool, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return false, aggregates.ValidationError("location without ip address")
	}
	var created bool
	err := s.write(dbc, "sessions.record_location", func(dbc dbctx.Context) error {
		u, err := s.getOrCreateUser(dbc, user)
		if err != nil {
			return err
		}
		exists, err := s.locationRepo.IPLocationExists(dbc, u.UserID, ip)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		row := &identity.IPGeoLocation{
			UserID:      u.UserID,
			IPAddr:      ip,
			CountryCode: strPtr(countryCode),
		}
		if loc != nil {
			l, err := s.locationRepo.GetOrCreate(dbc, &identity.Location{
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
				City:      strPtr(loc.City),
				State:     strPtr(loc.State),
				Country:   strPtr(loc.Country),
			})
			if err != nil {
				return err
			}
			row.LocationID = int64Ptr(l.LocationID)
		}
		if err := s.locationRepo.CreateIPLocation(dbc, row); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (s *sessionService) LocationsForUser(dbc dbctx.Context, user UserRef) ([]*identity.IPGeoLocation, error) {
	id, err := s.lookupUserID(dbc, user.ExternalID)
	if err != nil || id == nil {
		return []*identity.IPGeoLocation{}, err
	}
	return s.locationRepo.IPLocationsForUser(dbc, *id)
}
