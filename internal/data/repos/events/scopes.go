package events

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Scope func(*gorm.DB) *gorm.DB

func Match(where Where) Scope {
	return func(q *gorm.DB) *gorm.DB {
		if len(where) == 0 {
			return q
		}
		return q.Where(map[string]any(where))
	}
}

func Eq(column string, value any) Scope {
	return func(q *gorm.DB) *gorm.DB { return q.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}) }
}

func Neq(column string, value any) Scope {
	return func(q *gorm.DB) *gorm.DB { return q.Where(clause.Neq{Column: clause.Column{Name: column}, Value: value}) }
}

func Gt(column string, value any) Scope {
	return func(q *gorm.DB) *gorm.DB { return q.Where(clause.Gt{Column: clause.Column{Name: column}, Value: value}) }
}

func In[V any](column string, values []V) Scope {
	vals := make([]any, 0, len(values))
	for _, v := range values {
		vals = append(vals, v)
	}
	return func(q *gorm.DB) *gorm.DB {
		return q.Where(clause.IN{Column: clause.Column{Name: column}, Values: vals})
	}
}

func UserIs(userID int64) Scope { return Eq("user_id", userID) }

// CourseIn restricts to rows pinned on any of the given root contexts.
func CourseIn(ids []int64) Scope { return In("course_id", ids) }

// Since and Until bound the timestamp inclusively; nil leaves that side open.
func Since(t *time.Time) Scope {
	return func(q *gorm.DB) *gorm.DB {
		if t == nil {
			return q
		}
		return q.Where(clause.Gte{Column: clause.Column{Name: "timestamp"}, Value: t.UTC()})
	}
}

func Until(t *time.Time) Scope {
	return func(q *gorm.DB) *gorm.DB {
		if t == nil {
			return q
		}
		return q.Where(clause.Lte{Column: clause.Column{Name: "timestamp"}, Value: t.UTC()})
	}
}

func NotDeleted() Scope { return Eq("deleted", nil) }

// RepliesOnly keeps rows that reply to another user's row.
func RepliesOnly() Scope { return Neq("parent_user_id", nil) }

func TopLevelOnly() Scope { return Eq("parent_id", nil) }

func OrderByTimestamp() Scope {
	return func(q *gorm.DB) *gorm.DB {
		return q.Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}})
	}
}

// Empty matches nothing; read paths use it when a filter reference does
// not resolve.
func Empty() Scope {
	return func(q *gorm.DB) *gorm.DB { return q.Where("1 = 0") }
}
