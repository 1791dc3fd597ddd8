package services

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/domain/identity"
	"github.com/yungbote/analytics-database/internal/domain/rootcontext"
)

type ObjectKind string

const (
	ObjectForum       ObjectKind = "forum"
	ObjectTopic       ObjectKind = "topic"
	ObjectComment     ObjectKind = "forum_comment"
	ObjectBlog        ObjectKind = "blog"
	ObjectBlogComment ObjectKind = "blog_comment"
	ObjectNote        ObjectKind = "note"
	ObjectHighlight   ObjectKind = "highlight"
	ObjectBookmark    ObjectKind = "bookmark"
	ObjectSubmission  ObjectKind = "submission"
	ObjectFeedback    ObjectKind = "feedback"
	ObjectChat        ObjectKind = "chat"
	ObjectFriendsList ObjectKind = "friends_list"
	ObjectDFL         ObjectKind = "dynamic_friends_list"
	ObjectResource    ObjectKind = "resource"
)

// Resolver maps stored external ids back to source-system objects on the
// read side. A nil result with a nil error means the object no longer
// exists there and the row referencing it is dropped.
type Resolver interface {
	ResolveUser(ctx context.Context, externalID int64) (*UserRef, error)
	ResolveRootContext(ctx context.Context, externalID string) (*ContextRef, error)
	ResolveExternalObject(ctx context.Context, kind ObjectKind, externalID string) (any, error)
}

// ObjectRef is what the store resolver returns for external objects: the
// store knows the id but not the object body.
type ObjectRef struct {
	Kind       ObjectKind
	ExternalID string
}

func objectID(id int64) string { return strconv.FormatInt(id, 10) }

// storeResolver answers from the analytics tables alone. Entities and
// contexts whose external id has been cleared do not resolve.
type storeResolver struct {
	db *gorm.DB
}

func NewStoreResolver(db *gorm.DB) Resolver {
	return &storeResolver{db: db}
}

func (r *storeResolver) ResolveUser(ctx context.Context, externalID int64) (*UserRef, error) {
	var u identity.User
	res := r.db.WithContext(ctx).Where("user_ds_id = ?", externalID).Limit(1).Find(&u)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	out := &UserRef{ExternalID: externalID, Created: u.CreateDate}
	if u.Username != nil {
		out.Username = *u.Username
	}
	if u.Username2 != nil {
		out.Alias = *u.Username2
	}
	return out, nil
}

func (r *storeResolver) ResolveRootContext(ctx context.Context, externalID string) (*ContextRef, error) {
	var course rootcontext.Course
	res := r.db.WithContext(ctx).Where("context_ds_id = ?", externalID).Limit(1).Find(&course)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		out := contextRefFrom(ContextCourse, course.Context)
		out.Term = deref(course.Term)
		out.CRN = deref(course.CRN)
		return out, nil
	}
	var book rootcontext.Book
	res = r.db.WithContext(ctx).Where("context_ds_id = ?", externalID).Limit(1).Find(&book)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return contextRefFrom(ContextBook, book.Context), nil
	}
	return nil, nil
}

func (r *storeResolver) ResolveExternalObject(_ context.Context, kind ObjectKind, externalID string) (any, error) {
	if externalID == "" {
		return nil, nil
	}
	return &ObjectRef{Kind: kind, ExternalID: externalID}, nil
}

func contextRefFrom(kind ContextKind, c rootcontext.Context) *ContextRef {
	return &ContextRef{
		Kind:       kind,
		ExternalID: deref(c.ExternalID),
		Name:       deref(c.ContextName),
		LongName:   deref(c.ContextLongName),
		StartDate:  c.StartDate,
		EndDate:    c.EndDate,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
