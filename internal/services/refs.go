package services

import (
	"strings"
	"time"
)

// UserRef identifies a platform entity by its external id. Optional fields
// are used only when the row is created or backfilled.
type UserRef struct {
	ExternalID int64      `json:"id" yaml:"id" validate:"required"`
	Username   string     `json:"username,omitempty" yaml:"username"`
	Alias      string     `json:"alias,omitempty" yaml:"alias"`
	Created    *time.Time `json:"created,omitempty" yaml:"created"`
}

// alias is the alternate username stored in username2. Without a
// substitution the username itself is used.
func (u UserRef) alias() string {
	if a := strings.TrimSpace(u.Alias); a != "" {
		return a
	}
	return strings.TrimSpace(u.Username)
}

type ContextKind string

const (
	ContextCourse ContextKind = "course"
	ContextBook   ContextKind = "book"
)

// SharingScopes are the note target scopes a course exposes.
type SharingScopes struct {
	Public []string `json:"public,omitempty" yaml:"public"`
	Other  []string `json:"other,omitempty" yaml:"other"`
}

// ContextRef describes a course or book. Parent is set on a course
// sub-instance and names its super-course.
type ContextRef struct {
	Kind       ContextKind    `json:"kind" yaml:"kind" validate:"required,oneof=course book"`
	ExternalID string         `json:"id" yaml:"id" validate:"required"`
	Name       string         `json:"name,omitempty" yaml:"name"`
	LongName   string         `json:"long_name,omitempty" yaml:"long_name"`
	StartDate  *time.Time     `json:"start_date,omitempty" yaml:"start_date"`
	EndDate    *time.Time     `json:"end_date,omitempty" yaml:"end_date"`
	Term       string         `json:"term,omitempty" yaml:"term"`
	CRN        string         `json:"crn,omitempty" yaml:"crn"`
	Parent     *ContextRef    `json:"parent,omitempty" yaml:"parent"`
	Sharing    *SharingScopes `json:"sharing,omitempty" yaml:"sharing"`
}

func (c ContextRef) isCourse() bool { return c.Kind != ContextBook }

// duration is the catalog length in seconds when both dates are known.
func (c ContextRef) duration() *int64 {
	if c.StartDate == nil || c.EndDate == nil {
		return nil
	}
	d := int64(c.EndDate.Sub(*c.StartDate) / time.Second)
	return &d
}

// RootRef is the root context of an event: a course or book, or an entity
// (community, user) acting as its own root.
type RootRef struct {
	Context *ContextRef `json:"context,omitempty" yaml:"context"`
	Entity  *UserRef    `json:"entity,omitempty" yaml:"entity"`
}

func CourseRoot(c *ContextRef) RootRef { return RootRef{Context: c} }
func EntityRoot(u *UserRef) RootRef    { return RootRef{Entity: u} }

type ResourceRef struct {
	ExternalID    string `json:"id" yaml:"id" validate:"required"`
	DisplayName   string `json:"display_name,omitempty" yaml:"display_name"`
	MaxTimeLength *int   `json:"max_time_length,omitempty" yaml:"max_time_length"`
}

// Actor carries the who/when of an event. SessionID is the surrogate id
// returned by SessionService.Create, or nil.
type Actor struct {
	User      *UserRef  `json:"user,omitempty" yaml:"user"`
	SessionID *int64    `json:"session_id,omitempty" yaml:"session_id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// RatingsRef is the rating state of an object at the time it is recorded.
type RatingsRef struct {
	Likes     int  `json:"likes,omitempty" yaml:"likes"`
	Favorites int  `json:"favorites,omitempty" yaml:"favorites"`
	Flagged   bool `json:"flagged,omitempty" yaml:"flagged"`
}

// ReplyRef names the object a reply answers, and its creator.
type ReplyRef struct {
	ExternalID int64    `json:"id" yaml:"id"`
	Creator    *UserRef `json:"creator,omitempty" yaml:"creator"`
}

// creatorActor builds the substitute actor used when a parent object is
// created lazily: its own creator and creation time, with no session.
func creatorActor(creator *UserRef, created time.Time, fallback Actor) Actor {
	a := Actor{User: creator, Timestamp: created}
	if a.User == nil {
		a.User = fallback.User
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = fallback.Timestamp
	}
	return a
}

func bodyLength(parts []string) *int {
	if parts == nil {
		return nil
	}
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	return &n
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
