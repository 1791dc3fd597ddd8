package services

import (
	"time"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/domain/views"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// ViewEvent is a heartbeat view of a resource.
type ViewEvent struct {
	Actor       `yaml:",inline"`
	Root        RootRef     `json:"root" yaml:"root"`
	ContextPath []string    `json:"context_path,omitempty" yaml:"context_path"`
	Resource    ResourceRef `json:"resource" yaml:"resource"`
	TimeLength  *int        `json:"time_length,omitempty" yaml:"time_length"`
}

type VideoEvent struct {
	ViewEvent      `yaml:",inline"`
	Type           views.VideoEventType `json:"type" yaml:"type"`
	StartTime      int                  `json:"video_start_time" yaml:"video_start_time"`
	EndTime        *int                 `json:"video_end_time,omitempty" yaml:"video_end_time"`
	WithTranscript bool                 `json:"with_transcript" yaml:"with_transcript"`
	PlaySpeed      string               `json:"play_speed,omitempty" yaml:"play_speed"`
}

type PlaySpeedEvent struct {
	Actor     `yaml:",inline"`
	Root      RootRef     `json:"root" yaml:"root"`
	Resource  ResourceRef `json:"resource" yaml:"resource"`
	VideoTime int         `json:"video_time" yaml:"video_time"`
	OldSpeed  string      `json:"old_play_speed" yaml:"old_play_speed"`
	NewSpeed  string      `json:"new_play_speed" yaml:"new_play_speed"`
}

type ResourceViewService interface {
	CreateResourceView(dbc dbctx.Context, ev ViewEvent) (*views.ResourceView, error)
	CreateVideoEvent(dbc dbctx.Context, ev VideoEvent) (*views.VideoEvent, error)
	CreatePlaySpeedEvent(dbc dbctx.Context, ev PlaySpeedEvent) (*views.VideoPlaySpeedEvent, error)
	CreateLTILaunch(dbc dbctx.Context, ev ViewEvent) (*views.LTIAssetLaunch, error)
	CreateSCORMLaunch(dbc dbctx.Context, ev ViewEvent) (*views.SCORMPackageLaunch, error)

	UserResourceViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[views.ResourceView], error)
	// VideoViews returns WATCH events longer than one second; a nil user
	// reads every user.
	VideoViews(dbc dbctx.Context, user *UserRef, f Filter) ([]*Resolved[views.VideoEvent], error)
	UserResourceViewsForResource(dbc dbctx.Context, user UserRef, resourceID string) ([]*Resolved[views.ResourceView], error)
	UserVideoViewsForResource(dbc dbctx.Context, user UserRef, resourceID string) ([]*Resolved[views.VideoEvent], error)
	UserLTILaunches(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[views.LTIAssetLaunch], error)
	UserSCORMLaunches(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[views.SCORMPackageLaunch], error)
}

type resourceViewService struct {
	*core
	log *logger.Logger

	resourceViews events.Repo[views.ResourceView]
	videoEvents   events.Repo[views.VideoEvent]
	playSpeeds    events.Repo[views.VideoPlaySpeedEvent]
	ltiLaunches   events.Repo[views.LTIAssetLaunch]
	scormLaunches events.Repo[views.SCORMPackageLaunch]
}

func newResourceViewService(c *core) ResourceViewService {
	return &resourceViewService{
		core:          c,
		log:           c.log.With("service", "ResourceViewService"),
		resourceViews: events.New[views.ResourceView](c.db, c.log, "ResourceViewRepo"),
		videoEvents:   events.New[views.VideoEvent](c.db, c.log, "VideoEventRepo"),
		playSpeeds:    events.New[views.VideoPlaySpeedEvent](c.db, c.log, "VideoPlaySpeedRepo"),
		ltiLaunches:   events.New[views.LTIAssetLaunch](c.db, c.log, "LTIAssetLaunchRepo"),
		scormLaunches: events.New[views.SCORMPackageLaunch](c.db, c.log, "SCORMPackageLaunchRepo"),
	}
}

// viewColumns resolves the shared columns of a resource heartbeat. Root
// ids are only resolved for a new row.
type viewColumns struct {
	userID     int64
	resourceID int64
	ts         time.Time
}

func (s *resourceViewService) resolveView(dbc dbctx.Context, ev ViewEvent, maxTimeLength *int) (viewColumns, error) {
	uid, err := s.requireUserID(dbc, ev.User)
	if err != nil {
		return viewColumns{}, err
	}
	ref := ev.Resource
	if maxTimeLength != nil {
		ref.MaxTimeLength = maxTimeLength
	}
	rid, err := s.requireResourceID(dbc, ref)
	if err != nil {
		return viewColumns{}, err
	}
	return viewColumns{userID: uid, resourceID: rid, ts: utc(ev.Timestamp)}, nil
}

func (s *resourceViewService) viewRow(dbc dbctx.Context, ev ViewEvent, cols viewColumns) (mixin.View, mixin.RootContext, error) {
	courseID, entityID, err := s.rootIDs(dbc, ev.Root)
	if err != nil {
		return mixin.View{}, mixin.RootContext{}, err
	}
	path := mixin.EncodeContextPath(ev.ContextPath)
	return mixin.View{
			UserID:      cols.userID,
			SessionID:   ev.SessionID,
			Timestamp:   cols.ts,
			ContextPath: &path,
		}, mixin.RootContext{
			CourseID:            courseID,
			EntityRootContextID: entityID,
		}, nil
}

func viewKey(cols viewColumns) events.Where {
	return events.Where{"user_id": cols.userID, "resource_id": cols.resourceID, "timestamp": cols.ts}
}

func (s *resourceViewService) CreateResourceView(dbc dbctx.Context, ev ViewEvent) (*views.ResourceView, error) {
	var out *views.ResourceView
	err := s.write(dbc, "views.create_resource_view", func(dbc dbctx.Context) error {
		cols, err := s.resolveView(dbc, ev, nil)
		if err != nil {
			return err
		}
		out, err = recordHeartbeat(dbc, s.resourceViews, s.log, "resource view", viewKey(cols), ev.TimeLength, nil,
			func() (*views.ResourceView, error) {
				view, root, err := s.viewRow(dbc, ev, cols)
				if err != nil {
					return nil, err
				}
				return &views.ResourceView{
					View:        view,
					RootContext: root,
					Resource:    mixin.Resource{ResourceID: cols.resourceID},
					TimeLength:  mixin.TimeLength{TimeLength: ev.TimeLength},
				}, nil
			})
		return err
	})
	return out, err
}

// CreateVideoEvent records a WATCH or SKIP. Identity includes the event
// type; an update also moves the start and end offsets. A new WATCH row
// adopts any play-speed change recorded at the same instant.
func (s *resourceViewService) CreateVideoEvent(dbc dbctx.Context, ev VideoEvent) (*views.VideoEvent, error) {
	if ev.Type != views.VideoWatch && ev.Type != views.VideoSkip {
		return nil, aggregates.ValidationError("video event type must be WATCH or SKIP")
	}
	var out *views.VideoEvent
	err := s.write(dbc, "views.create_video_event", func(dbc dbctx.Context) error {
		cols, err := s.resolveView(dbc, ev.ViewEvent, ev.Resource.MaxTimeLength)
		if err != nil {
			return err
		}
		key := viewKey(cols)
		key["video_event_type"] = string(ev.Type)
		extra := map[string]any{
			"video_start_time": ev.StartTime,
			"video_end_time":   nullable(ev.EndTime),
		}
		var created bool
		out, err = recordHeartbeat(dbc, s.videoEvents, s.log, "video view", key, ev.TimeLength, extra,
			func() (*views.VideoEvent, error) {
				view, root, err := s.viewRow(dbc, ev.ViewEvent, cols)
				if err != nil {
					return nil, err
				}
				created = true
				return &views.VideoEvent{
					View:           view,
					RootContext:    root,
					Resource:       mixin.Resource{ResourceID: cols.resourceID},
					TimeLength:     mixin.TimeLength{TimeLength: ev.TimeLength},
					VideoEventType: ev.Type,
					VideoStartTime: ev.StartTime,
					VideoEndTime:   ev.EndTime,
					WithTranscript: ev.WithTranscript,
					PlaySpeed:      strPtr(ev.PlaySpeed),
				}, nil
			})
		if err != nil || !created {
			return err
		}
		_, err = s.playSpeeds.UpdateFields(dbc,
			events.Where{"user_id": cols.userID, "resource_id": cols.resourceID, "timestamp": cols.ts},
			map[string]any{"video_view_id": out.VideoViewID})
		return err
	})
	return out, err
}

// CreatePlaySpeedEvent is a fact keyed by (user, resource, timestamp,
// video time), linked to the WATCH row sharing its instant if one exists.
func (s *resourceViewService) CreatePlaySpeedEvent(dbc dbctx.Context, ev PlaySpeedEvent) (*views.VideoPlaySpeedEvent, error) {
	var out *views.VideoPlaySpeedEvent
	err := s.write(dbc, "views.create_play_speed_event", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, ev.User)
		if err != nil {
			return err
		}
		rid, err := s.requireResourceID(dbc, ev.Resource)
		if err != nil {
			return err
		}
		ts := utc(ev.Timestamp)
		key := events.Where{"user_id": uid, "resource_id": rid, "timestamp": ts, "video_time": ev.VideoTime}
		out, err = recordFact(dbc, s.playSpeeds, s.log, "video play speed", key, func() (*views.VideoPlaySpeedEvent, error) {
			courseID, entityID, err := s.rootIDs(dbc, ev.Root)
			if err != nil {
				return nil, err
			}
			watch, err := s.videoEvents.First(dbc, events.Where{
				"user_id":          uid,
				"resource_id":      rid,
				"timestamp":        ts,
				"video_event_type": string(views.VideoWatch),
			})
			if err != nil {
				return nil, err
			}
			row := &views.VideoPlaySpeedEvent{
				Event:        mixin.Event{UserID: &uid, SessionID: ev.SessionID, Timestamp: &ts},
				RootContext:  mixin.RootContext{CourseID: courseID, EntityRootContextID: entityID},
				Resource:     mixin.Resource{ResourceID: rid},
				OldPlaySpeed: ev.OldSpeed,
				NewPlaySpeed: ev.NewSpeed,
				VideoTime:    ev.VideoTime,
			}
			if watch != nil {
				row.VideoViewID = &watch.VideoViewID
			}
			return row, nil
		})
		return err
	})
	return out, err
}

func (s *resourceViewService) CreateLTILaunch(dbc dbctx.Context, ev ViewEvent) (*views.LTIAssetLaunch, error) {
	var out *views.LTIAssetLaunch
	err := s.write(dbc, "views.create_lti_launch", func(dbc dbctx.Context) error {
		cols, err := s.resolveView(dbc, ev, nil)
		if err != nil {
			return err
		}
		out, err = recordHeartbeat(dbc, s.ltiLaunches, s.log, "lti asset launch", viewKey(cols), ev.TimeLength, nil,
			func() (*views.LTIAssetLaunch, error) {
				view, root, err := s.viewRow(dbc, ev, cols)
				if err != nil {
					return nil, err
				}
				return &views.LTIAssetLaunch{
					View:        view,
					RootContext: root,
					Resource:    mixin.Resource{ResourceID: cols.resourceID},
					TimeLength:  mixin.TimeLength{TimeLength: ev.TimeLength},
				}, nil
			})
		return err
	})
	return out, err
}

func (s *resourceViewService) CreateSCORMLaunch(dbc dbctx.Context, ev ViewEvent) (*views.SCORMPackageLaunch, error) {
	var out *views.SCORMPackageLaunch
	err := s.write(dbc, "views.create_scorm_launch", func(dbc dbctx.Context) error {
		cols, err := s.resolveView(dbc, ev, nil)
		if err != nil {
			return err
		}
		out, err = recordHeartbeat(dbc, s.scormLaunches, s.log, "scorm package launch", viewKey(cols), ev.TimeLength, nil,
			func() (*views.SCORMPackageLaunch, error) {
				view, root, err := s.viewRow(dbc, ev, cols)
				if err != nil {
					return nil, err
				}
				return &views.SCORMPackageLaunch{
					View:        view,
					RootContext: root,
					Resource:    mixin.Resource{ResourceID: cols.resourceID},
					TimeLength:  mixin.TimeLength{TimeLength: ev.TimeLength},
				}, nil
			})
		return err
	})
	return out, err
}

func (s *resourceViewService) UserResourceViews(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[views.ResourceView], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.resourceViews.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return s.resolveResourceRows(dbc, rows)
}

func (s *resourceViewService) VideoViews(dbc dbctx.Context, user *UserRef, f Filter) ([]*Resolved[views.VideoEvent], error) {
	var scopes []events.Scope
	var err error
	if user != nil {
		scopes, _, err = s.userScopes(dbc, *user, f)
	} else {
		scopes, err = s.windowScopes(dbc, f)
	}
	if err != nil {
		return nil, err
	}
	scopes = append(scopes,
		events.Eq("video_event_type", string(views.VideoWatch)),
		events.Gt("time_length", 1),
	)
	rows, err := s.videoEvents.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return s.resolveVideoRows(dbc, rows)
}

func (s *resourceViewService) UserResourceViewsForResource(dbc dbctx.Context, user UserRef, resourceID string) ([]*Resolved[views.ResourceView], error) {
	uid, err := s.lookupUserID(dbc, user.ExternalID)
	if err != nil || uid == nil {
		return []*Resolved[views.ResourceView]{}, err
	}
	rid, err := s.resourceID(dbc, ResourceRef{ExternalID: resourceID}, false)
	if err != nil || rid == nil {
		return []*Resolved[views.ResourceView]{}, err
	}
	rows, err := s.resourceViews.Find(dbc, events.Match(events.Where{"user_id": *uid, "resource_id": *rid}))
	if err != nil {
		return nil, err
	}
	return s.resolveResourceRows(dbc, rows)
}

func (s *resourceViewService) UserVideoViewsForResource(dbc dbctx.Context, user UserRef, resourceID string) ([]*Resolved[views.VideoEvent], error) {
	uid, err := s.lookupUserID(dbc, user.ExternalID)
	if err != nil || uid == nil {
		return []*Resolved[views.VideoEvent]{}, err
	}
	rid, err := s.resourceID(dbc, ResourceRef{ExternalID: resourceID}, false)
	if err != nil || rid == nil {
		return []*Resolved[views.VideoEvent]{}, err
	}
	rows, err := s.videoEvents.Find(dbc, events.Match(events.Where{
		"user_id":          *uid,
		"resource_id":      *rid,
		"video_event_type": string(views.VideoWatch),
	}))
	if err != nil {
		return nil, err
	}
	return s.resolveVideoRows(dbc, rows)
}

func (s *resourceViewService) UserLTILaunches(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[views.LTIAssetLaunch], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.ltiLaunches.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *views.LTIAssetLaunch) (*Resolved[views.LTIAssetLaunch], error) {
		out := &Resolved[views.LTIAssetLaunch]{Row: row}
		return withResource(s.core, r, out, row.UserID, row.RootContext, row.ResourceID)
	})
}

func (s *resourceViewService) UserSCORMLaunches(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[views.SCORMPackageLaunch], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.scormLaunches.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *views.SCORMPackageLaunch) (*Resolved[views.SCORMPackageLaunch], error) {
		out := &Resolved[views.SCORMPackageLaunch]{Row: row}
		return withResource(s.core, r, out, row.UserID, row.RootContext, row.ResourceID)
	})
}

func (s *resourceViewService) resolveResourceRows(dbc dbctx.Context, rows []*views.ResourceView) ([]*Resolved[views.ResourceView], error) {
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *views.ResourceView) (*Resolved[views.ResourceView], error) {
		out := &Resolved[views.ResourceView]{Row: row}
		return withResource(s.core, r, out, row.UserID, row.RootContext, row.ResourceID)
	})
}

func (s *resourceViewService) resolveVideoRows(dbc dbctx.Context, rows []*views.VideoEvent) ([]*Resolved[views.VideoEvent], error) {
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *views.VideoEvent) (*Resolved[views.VideoEvent], error) {
		out := &Resolved[views.VideoEvent]{Row: row}
		return withResource(s.core, r, out, row.UserID, row.RootContext, row.ResourceID)
	})
}

// withResource fills owner and root, and sets Object to the resource row.
func withResource[T any](c *core, r *resolution, out *Resolved[T], userID int64, rc mixin.RootContext, resourceID int64) (*Resolved[T], error) {
	ok, err := r.event(out, &userID, rc)
	if err != nil || !ok {
		return nil, err
	}
	res, err := c.resourceRepo.GetByID(r.dbc, resourceID)
	if err != nil || res == nil {
		return nil, err
	}
	out.Object = res
	return out, nil
}
