package services

import (
	"errors"
	"testing"
	"time"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/domain/resource"
	"github.com/yungbote/analytics-database/internal/domain/rootcontext"
	"github.com/yungbote/analytics-database/internal/domain/views"
)

func videoEvent(kind views.VideoEventType, at time.Time, seconds int) VideoEvent {
	return VideoEvent{
		ViewEvent: ViewEvent{
			Actor:      actor(1, at),
			Root:       CourseRoot(course("BIO2000")),
			Resource:   ResourceRef{ExternalID: "video-1", MaxTimeLength: intPtr(300)},
			TimeLength: intPtr(seconds),
		},
		Type:      kind,
		StartTime: 0,
		EndTime:   intPtr(seconds),
		PlaySpeed: "1.0",
	}
}

func TestVideoEventLinksPlaySpeedChanges(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)

	speed := PlaySpeedEvent{
		Actor:     actor(1, t0),
		Root:      CourseRoot(course("BIO2000")),
		Resource:  ResourceRef{ExternalID: "video-1"},
		VideoTime: 12,
		OldSpeed:  "1.0",
		NewSpeed:  "1.5",
	}
	early, err := a.Views.CreatePlaySpeedEvent(dbc, speed)
	if err != nil || early == nil {
		t.Fatalf("CreatePlaySpeedEvent: row=%v err=%v", early, err)
	}
	if early.VideoViewID != nil {
		t.Fatalf("no WATCH yet, expected unlinked speed change, got %d", *early.VideoViewID)
	}

	watch, err := a.Views.CreateVideoEvent(dbc, videoEvent(views.VideoWatch, t0, 20))
	if err != nil || watch == nil {
		t.Fatalf("CreateVideoEvent: row=%v err=%v", watch, err)
	}
	var linked views.VideoPlaySpeedEvent
	if err := db.First(&linked).Error; err != nil {
		t.Fatalf("load play speed: %v", err)
	}
	if linked.VideoViewID == nil || *linked.VideoViewID != watch.VideoViewID {
		t.Fatalf("new WATCH must adopt the speed change, got %v", linked.VideoViewID)
	}

	speed.VideoTime = 25
	late, err := a.Views.CreatePlaySpeedEvent(dbc, speed)
	if err != nil || late == nil {
		t.Fatalf("CreatePlaySpeedEvent late: row=%v err=%v", late, err)
	}
	if late.VideoViewID == nil || *late.VideoViewID != watch.VideoViewID {
		t.Fatalf("late speed change must link to the WATCH, got %v", late.VideoViewID)
	}
	if again, err := a.Views.CreatePlaySpeedEvent(dbc, speed); err != nil || again != nil {
		t.Fatalf("CreatePlaySpeedEvent replay: row=%v err=%v", again, err)
	}

	var res resource.Resource
	if err := db.First(&res).Error; err != nil {
		t.Fatalf("load resource: %v", err)
	}
	if res.MaxTimeLength == nil || *res.MaxTimeLength != 300 {
		t.Fatalf("video length must be backfilled, got %v", res.MaxTimeLength)
	}
}

func TestVideoEventHeartbeats(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)

	if _, err := a.Views.CreateVideoEvent(dbc, videoEvent(views.VideoWatch, t0, 20)); err != nil {
		t.Fatalf("CreateVideoEvent: %v", err)
	}
	row, err := a.Views.CreateVideoEvent(dbc, videoEvent(views.VideoWatch, t0, 40))
	if err != nil || row == nil {
		t.Fatalf("CreateVideoEvent longer: row=%v err=%v", row, err)
	}
	if row.VideoEndTime == nil || *row.VideoEndTime != 40 {
		t.Fatalf("update must move the end offset, got %v", row.VideoEndTime)
	}
	if _, err := a.Views.CreateVideoEvent(dbc, videoEvent(views.VideoSkip, t0, 40)); err != nil {
		t.Fatalf("CreateVideoEvent skip: %v", err)
	}
	if _, err := a.Views.CreateVideoEvent(dbc, videoEvent(views.VideoWatch, t0.Add(time.Minute), 1)); err != nil {
		t.Fatalf("CreateVideoEvent short: %v", err)
	}
	if n := count(t, db, &views.VideoEvent{}); n != 3 {
		t.Fatalf("expected 3 video rows, got %d", n)
	}

	_, err = a.Views.CreateVideoEvent(dbc, videoEvent("PAUSE", t0, 5))
	if !errors.Is(err, aggregates.ErrValidation) {
		t.Fatalf("CreateVideoEvent PAUSE: expected validation error, got %v", err)
	}

	watched, err := a.Views.VideoViews(dbc, nil, Filter{})
	if err != nil || len(watched) != 1 {
		t.Fatalf("VideoViews: err=%v len=%d", err, len(watched))
	}
	if _, ok := watched[0].Object.(*resource.Resource); !ok {
		t.Fatalf("VideoViews: expected resource object, got %T", watched[0].Object)
	}
	if watched[0].RootContext == nil || watched[0].RootContext.ExternalID != "BIO2000" {
		t.Fatalf("VideoViews: unexpected root %+v", watched[0].RootContext)
	}

	forResource, err := a.Views.UserVideoViewsForResource(dbc, UserRef{ExternalID: 1}, "video-1")
	if err != nil || len(forResource) != 2 {
		t.Fatalf("UserVideoViewsForResource: err=%v len=%d", err, len(forResource))
	}
	none, err := a.Views.UserVideoViewsForResource(dbc, UserRef{ExternalID: 1}, "video-unknown")
	if err != nil || len(none) != 0 {
		t.Fatalf("UserVideoViewsForResource unknown: err=%v len=%d", err, len(none))
	}
}

func TestLaunchHeartbeats(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	ev := ViewEvent{
		Actor:      actor(1, t0),
		Root:       CourseRoot(course("BIO2000")),
		Resource:   ResourceRef{ExternalID: "lti-tool", DisplayName: "Lab Sim"},
		TimeLength: intPtr(60),
	}

	if _, err := a.Views.CreateLTILaunch(dbc, ev); err != nil {
		t.Fatalf("CreateLTILaunch: %v", err)
	}
	if row, err := a.Views.CreateLTILaunch(dbc, ev); err != nil || row != nil {
		t.Fatalf("CreateLTILaunch replay: row=%v err=%v", row, err)
	}
	ev.TimeLength = intPtr(90)
	if row, err := a.Views.CreateLTILaunch(dbc, ev); err != nil || row == nil {
		t.Fatalf("CreateLTILaunch longer: row=%v err=%v", row, err)
	}
	if n := count(t, db, &views.LTIAssetLaunch{}); n != 1 {
		t.Fatalf("expected 1 lti launch, got %d", n)
	}

	ev.Resource = ResourceRef{ExternalID: "scorm-pkg"}
	ev.TimeLength = nil
	if _, err := a.Views.CreateSCORMLaunch(dbc, ev); err != nil {
		t.Fatalf("CreateSCORMLaunch: %v", err)
	}
	ev.Timestamp = t0.Add(time.Hour)
	if _, err := a.Views.CreateSCORMLaunch(dbc, ev); err != nil {
		t.Fatalf("CreateSCORMLaunch later: %v", err)
	}

	lti, err := a.Views.UserLTILaunches(dbc, UserRef{ExternalID: 1}, Filter{})
	if err != nil || len(lti) != 1 {
		t.Fatalf("UserLTILaunches: err=%v len=%d", err, len(lti))
	}
	tool, ok := lti[0].Object.(*resource.Resource)
	if !ok || tool.DisplayName == nil || *tool.DisplayName != "Lab Sim" {
		t.Fatalf("UserLTILaunches: unexpected object %+v", lti[0].Object)
	}
	scorm, err := a.Views.UserSCORMLaunches(dbc, UserRef{ExternalID: 1}, Filter{})
	if err != nil || len(scorm) != 2 {
		t.Fatalf("UserSCORMLaunches: err=%v len=%d", err, len(scorm))
	}
	other, err := a.Views.UserSCORMLaunches(dbc, UserRef{ExternalID: 1}, Filter{Course: course("OTHER")})
	if err != nil || len(other) != 0 {
		t.Fatalf("UserSCORMLaunches other course: err=%v len=%d", err, len(other))
	}
}

func TestLaunchWithoutLengthIsFilledLater(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	ev := ViewEvent{
		Actor:    actor(1, t0),
		Root:     CourseRoot(course("BIO2000")),
		Resource: ResourceRef{ExternalID: "scorm-pkg"},
	}
	first, err := a.Views.CreateSCORMLaunch(dbc, ev)
	if err != nil || first == nil {
		t.Fatalf("CreateSCORMLaunch: row=%v err=%v", first, err)
	}
	if first.Seconds() != nil {
		t.Fatalf("expected null time length, got %v", *first.Seconds())
	}

	ev.TimeLength = intPtr(30)
	row, err := a.Views.CreateSCORMLaunch(dbc, ev)
	if err != nil || row == nil {
		t.Fatalf("CreateSCORMLaunch resend: row=%v err=%v", row, err)
	}
	if got := row.Seconds(); got == nil || *got != 30 {
		t.Fatalf("resend must fill the time length, got %v", got)
	}
	if n := count(t, db, &views.SCORMPackageLaunch{}); n != 1 {
		t.Fatalf("expected 1 scorm launch, got %d", n)
	}
}

func TestResourceViewsRollUpToParentCourse(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	parent := course("CS1000")
	section := &ContextRef{Kind: ContextCourse, ExternalID: "CS1000-001", Name: "CS1000-001", Parent: parent}
	user := UserRef{ExternalID: 1}

	ev := ViewEvent{
		Actor:      actor(1, t0),
		Root:       CourseRoot(section),
		Resource:   ResourceRef{ExternalID: "tag:reading-1"},
		TimeLength: intPtr(10),
	}
	if _, err := a.Views.CreateResourceView(dbc, ev); err != nil {
		t.Fatalf("CreateResourceView: %v", err)
	}

	parentID, err := a.RootContexts.ID(dbc, *parent, false)
	if err != nil || parentID == nil {
		t.Fatalf("parent course must be recorded with its section: id=%v err=%v", parentID, err)
	}
	var stored rootcontext.Course
	if err := db.Where("context_ds_id = ?", "CS1000-001").First(&stored).Error; err != nil {
		t.Fatalf("load section: %v", err)
	}
	if stored.ParentContextID == nil || *stored.ParentContextID != *parentID {
		t.Fatalf("section must link to its parent, got %v", stored.ParentContextID)
	}

	got, err := a.Views.UserResourceViews(dbc, user, Filter{Course: parent})
	if err != nil || len(got) != 1 {
		t.Fatalf("UserResourceViews parent: err=%v len=%d", err, len(got))
	}
	if got[0].RootContext == nil || got[0].RootContext.ExternalID != "CS1000-001" {
		t.Fatalf("UserResourceViews parent: unexpected root %+v", got[0].RootContext)
	}

	// a section first seen without its parent is linked once a later
	// event names the parent
	late := ContextRef{Kind: ContextCourse, ExternalID: "CS1000-002", Name: "CS1000-002"}
	ev.Root = CourseRoot(&late)
	ev.Timestamp = t0.Add(time.Minute)
	if _, err := a.Views.CreateResourceView(dbc, ev); err != nil {
		t.Fatalf("CreateResourceView late section: %v", err)
	}
	if got, err := a.Views.UserResourceViews(dbc, user, Filter{Course: parent}); err != nil || len(got) != 1 {
		t.Fatalf("UserResourceViews before link: err=%v len=%d", err, len(got))
	}
	late.Parent = parent
	if _, err := a.RootContexts.ID(dbc, late, true); err != nil {
		t.Fatalf("RootContexts.ID late section: %v", err)
	}
	if got, err := a.Views.UserResourceViews(dbc, user, Filter{Course: parent}); err != nil || len(got) != 2 {
		t.Fatalf("UserResourceViews after link: err=%v len=%d", err, len(got))
	}

	// a section alone sees its own rows and the parent's, not its siblings'
	if got, err := a.Views.UserResourceViews(dbc, user, Filter{Course: &late}); err != nil || len(got) != 1 {
		t.Fatalf("UserResourceViews section: err=%v len=%d", err, len(got))
	}
	if n := count(t, db, &rootcontext.Course{}); n != 3 {
		t.Fatalf("expected 3 courses, got %d", n)
	}
}
