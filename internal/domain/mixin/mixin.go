// Package mixin holds the column sets shared by the analytics tables.
// Row types embed them; gorm flattens embedded structs into the owning table.
package mixin

import (
	"strings"
	"time"
)

// ContextPathSeparator never occurs inside content identifiers.
const ContextPathSeparator = "/"

// Event is the ownership column set of an append-only fact.
// Migrated data may lack a session or timestamp, so all three are nullable.
type Event struct {
	UserID    *int64     `gorm:"column:user_id;index" json:"user_id"`
	SessionID *int64     `gorm:"column:session_id" json:"session_id"`
	Timestamp *time.Time `gorm:"column:timestamp;index" json:"timestamp"`
}

// Rater is Event for tables keyed by (user_id, target).
type Rater struct {
	UserID    int64      `gorm:"column:user_id;primaryKey;autoIncrement:false;index" json:"user_id"`
	SessionID *int64     `gorm:"column:session_id" json:"session_id"`
	Timestamp *time.Time `gorm:"column:timestamp;index" json:"timestamp"`
}

// Moment is Event for tables keyed by (user_id, target, timestamp).
type Moment struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false;index" json:"user_id"`
	SessionID *int64    `gorm:"column:session_id" json:"session_id"`
	Timestamp time.Time `gorm:"column:timestamp;primaryKey;index" json:"timestamp"`
}

// Stamped is Event for tables keyed by (target, timestamp) where the acting
// user is recorded but not part of the key.
type Stamped struct {
	UserID    *int64    `gorm:"column:user_id;index" json:"user_id"`
	SessionID *int64    `gorm:"column:session_id" json:"session_id"`
	Timestamp time.Time `gorm:"column:timestamp;primaryKey;index" json:"timestamp"`
}

// View is the column set of a view event with its own surrogate key.
type View struct {
	UserID      int64     `gorm:"column:user_id;index;not null" json:"user_id"`
	SessionID   *int64    `gorm:"column:session_id" json:"session_id"`
	Timestamp   time.Time `gorm:"column:timestamp;index" json:"timestamp"`
	ContextPath *string   `gorm:"column:context_path;size:1048" json:"context_path"`
}

// Path decodes the stored breadcrumb.
func (v View) Path() []string { return DecodeContextPath(deref(v.ContextPath)) }

// KeyedView is View for tables keyed by (user_id, target, timestamp).
type KeyedView struct {
	UserID      int64     `gorm:"column:user_id;primaryKey;autoIncrement:false;index" json:"user_id"`
	SessionID   *int64    `gorm:"column:session_id" json:"session_id"`
	Timestamp   time.Time `gorm:"column:timestamp;primaryKey;index" json:"timestamp"`
	ContextPath *string   `gorm:"column:context_path;size:1048" json:"context_path"`
}

func (v KeyedView) Path() []string { return DecodeContextPath(deref(v.ContextPath)) }

// RootContext points at a course/book (course_id) or at an entity acting as
// the root context (entity_root_context_id). At most one is set.
type RootContext struct {
	CourseID            *int64 `gorm:"column:course_id;index" json:"course_id"`
	EntityRootContextID *int64 `gorm:"column:entity_root_context_id;index" json:"entity_root_context_id"`
}

// Course is the mandatory course association.
type Course struct {
	CourseID int64 `gorm:"column:course_id;not null;index" json:"course_id"`
}

type Deleted struct {
	Deleted *time.Time `gorm:"column:deleted" json:"deleted,omitempty"`
}

func (d Deleted) IsDeleted() bool { return d.Deleted != nil }

// Ratings are denormalised counters kept next to a rateable row.
type Ratings struct {
	LikeCount     *int  `gorm:"column:like_count" json:"like_count"`
	FavoriteCount *int  `gorm:"column:favorite_count" json:"favorite_count"`
	IsFlagged     *bool `gorm:"column:is_flagged" json:"is_flagged"`
}

func (r Ratings) Likes() int     { return derefInt(r.LikeCount) }
func (r Ratings) Favorites() int { return derefInt(r.FavoriteCount) }
func (r Ratings) Flagged() bool  { return r.IsFlagged != nil && *r.IsFlagged }

// Creator is the owner of the rated object.
type Creator struct {
	CreatorID *int64 `gorm:"column:creator_id;index" json:"creator_id"`
}

// TimeLength is a duration in seconds; null until first reported.
type TimeLength struct {
	TimeLength *int `gorm:"column:time_length" json:"time_length"`
}

func (t TimeLength) Seconds() *int { return t.TimeLength }

// ReplyTo threads a row under a parent; top-level rows have a null parent.
type ReplyTo struct {
	ParentID     *int64 `gorm:"column:parent_id" json:"parent_id"`
	ParentUserID *int64 `gorm:"column:parent_user_id;index" json:"parent_user_id"`
}

func (r ReplyTo) IsReply() bool { return r.ParentID != nil }

// Resource is the mandatory content association of resource-scoped rows.
type Resource struct {
	ResourceID int64 `gorm:"column:resource_id;not null;index" json:"resource_id"`
}

// EncodeContextPath drops repeated elements, keeping first occurrences in
// order, and joins the rest with the separator.
func EncodeContextPath(path []string) string {
	if len(path) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(path))
	out := make([]string, 0, len(path))
	for _, p := range path {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, ContextPathSeparator)
}

// DecodeContextPath splits a stored breadcrumb. The empty string decodes to
// an empty path rather than a single empty element.
func DecodeContextPath(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ContextPathSeparator)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
