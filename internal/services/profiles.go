package services

import (
	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/domain/profiles"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// ProfileViewEvent is a user looking at another entity's profile.
type ProfileViewEvent struct {
	Actor       `yaml:",inline"`
	Target      UserRef  `json:"target" yaml:"target"`
	ContextPath []string `json:"context_path,omitempty" yaml:"context_path"`
	TimeLength  *int     `json:"time_length,omitempty" yaml:"time_length"`
}

type ProfileViewService interface {
	CreateProfileView(dbc dbctx.Context, ev ProfileViewEvent) (*profiles.EntityProfileView, error)
	CreateProfileActivityView(dbc dbctx.Context, ev ProfileViewEvent) (*profiles.EntityProfileActivityView, error)
	CreateProfileMembershipView(dbc dbctx.Context, ev ProfileViewEvent) (*profiles.EntityProfileMembershipView, error)
	ProfileViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[profiles.EntityProfileView], error)
}

type profileViewService struct {
	*core
	log *logger.Logger

	views           events.Repo[profiles.EntityProfileView]
	activityViews   events.Repo[profiles.EntityProfileActivityView]
	membershipViews events.Repo[profiles.EntityProfileMembershipView]
}

func newProfileViewService(c *core) ProfileViewService {
	return &profileViewService{
		core:            c,
		log:             c.log.With("service", "ProfileViewService"),
		views:           events.New[profiles.EntityProfileView](c.db, c.log, "EntityProfileViewRepo"),
		activityViews:   events.New[profiles.EntityProfileActivityView](c.db, c.log, "EntityProfileActivityViewRepo"),
		membershipViews: events.New[profiles.EntityProfileMembershipView](c.db, c.log, "EntityProfileMembershipViewRepo"),
	}
}

// recordProfileView is the heartbeat shared by the three profile tables,
// keyed on (user, target, timestamp).
func recordProfileView[T any, P interface {
	*T
	timed
}](s *profileViewService, dbc dbctx.Context, op, kind string, repo events.Repo[T], ev ProfileViewEvent, wrap func(profiles.ProfileView) *T) (*T, error) {
	var out *T
	err := s.write(dbc, op, func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, ev.User)
		if err != nil {
			return err
		}
		target, err := s.requireUserID(dbc, &ev.Target)
		if err != nil {
			return err
		}
		ts := utc(ev.Timestamp)
		key := events.Where{"user_id": uid, "target_id": target, "timestamp": ts}
		out, err = recordHeartbeat[T, P](dbc, repo, s.log, kind, key, ev.TimeLength, nil, func() (*T, error) {
			path := mixin.EncodeContextPath(ev.ContextPath)
			return wrap(profiles.ProfileView{
				TargetID:   target,
				KeyedView:  mixin.KeyedView{UserID: uid, SessionID: ev.SessionID, Timestamp: ts, ContextPath: &path},
				TimeLength: mixin.TimeLength{TimeLength: ev.TimeLength},
			}), nil
		})
		return err
	})
	return out, err
}

func (s *profileViewService) CreateProfileView(dbc dbctx.Context, ev ProfileViewEvent) (*profiles.EntityProfileView, error) {
	return recordProfileView(s, dbc, "profiles.create_profile_view", "profile view", s.views, ev,
		func(v profiles.ProfileView) *profiles.EntityProfileView { return &profiles.EntityProfileView{ProfileView: v} })
}

func (s *profileViewService) CreateProfileActivityView(dbc dbctx.Context, ev ProfileViewEvent) (*profiles.EntityProfileActivityView, error) {
	return recordProfileView(s, dbc, "profiles.create_profile_activity_view", "profile activity view", s.activityViews, ev,
		func(v profiles.ProfileView) *profiles.EntityProfileActivityView {
			return &profiles.EntityProfileActivityView{ProfileView: v}
		})
}

func (s *profileViewService) CreateProfileMembershipView(dbc dbctx.Context, ev ProfileViewEvent) (*profiles.EntityProfileMembershipView, error) {
	return recordProfileView(s, dbc, "profiles.create_profile_membership_view", "profile membership view", s.membershipViews, ev,
		func(v profiles.ProfileView) *profiles.EntityProfileMembershipView {
			return &profiles.EntityProfileMembershipView{ProfileView: v}
		})
}

func (s *profileViewService) ProfileViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[profiles.EntityProfileView], error) {
	scopes, _, err := s.userScopes(dbc, user, personal(f))
	if err != nil {
		return nil, err
	}
	rows, err := s.views.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *profiles.EntityProfileView) (*Resolved[profiles.EntityProfileView], error) {
		out := &Resolved[profiles.EntityProfileView]{Row: row}
		ok, err := r.event(out, &row.UserID, mixin.RootContext{})
		if err != nil || !ok {
			return nil, err
		}
		target, err := r.user(row.TargetID)
		if err != nil || target == nil {
			return nil, err
		}
		out.Object = target
		return out, nil
	})
}
