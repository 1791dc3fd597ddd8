package services

import (
	"time"

	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
)

// Filter narrows a read. Course matches rows pinned on the course and, for
// a sub-instance, on its parent course as well. Since and Until bound the
// timestamp inclusively.
type Filter struct {
	Course       *ContextRef
	Since        *time.Time
	Until        *time.Time
	GetDeleted   bool
	RepliesOnly  bool
	TopLevelOnly bool
}

// Resolved is one stored row with its references re-hydrated. Which fields
// are set depends on the table.
type Resolved[T any] struct {
	Row           *T
	User          *UserRef
	RootContext   *ContextRef
	Entity        *UserRef
	Object        any
	ObjectCreator *UserRef
	RepliedToUser *UserRef
}

// courseIDs expands a course filter to the course, its parent and its
// sections. ok is false when the course itself was never recorded, in
// which case nothing can match.
func (c *core) courseIDs(dbc dbctx.Context, ref *ContextRef) (ids []int64, ok bool, err error) {
	id, err := c.contextID(dbc, ref, false)
	if err != nil || id == nil {
		return nil, false, err
	}
	ids = []int64{*id}
	add := func(v int64) {
		for _, have := range ids {
			if have == v {
				return
			}
		}
		ids = append(ids, v)
	}
	if ref.Parent != nil {
		pid, err := c.contextID(dbc, ref.Parent, false)
		if err != nil {
			return nil, false, err
		}
		if pid != nil {
			add(*pid)
		}
	}
	if !ref.isCourse() {
		return ids, true, nil
	}
	row, err := c.contextRepo.CourseByID(dbc, *id)
	if err != nil {
		return nil, false, err
	}
	if row != nil && row.ParentContextID != nil {
		add(*row.ParentContextID)
	}
	children, err := c.contextRepo.ChildCourseIDs(dbc, *id)
	if err != nil {
		return nil, false, err
	}
	for _, child := range children {
		add(child)
	}
	return ids, true, nil
}

// windowScopes applies the course and time bounds of f.
func (c *core) windowScopes(dbc dbctx.Context, f Filter) ([]events.Scope, error) {
	scopes := []events.Scope{events.Since(f.Since), events.Until(f.Until)}
	if f.Course != nil {
		ids, ok, err := c.courseIDs(dbc, f.Course)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []events.Scope{events.Empty()}, nil
		}
		scopes = append(scopes, events.CourseIn(ids))
	}
	return scopes, nil
}

// userScopes restricts to one user plus the window of f. A user that was
// never recorded matches nothing.
func (c *core) userScopes(dbc dbctx.Context, user UserRef, f Filter) ([]events.Scope, *int64, error) {
	id, err := c.lookupUserID(dbc, user.ExternalID)
	if err != nil {
		return nil, nil, err
	}
	if id == nil {
		return []events.Scope{events.Empty()}, nil, nil
	}
	scopes, err := c.windowScopes(dbc, f)
	if err != nil {
		return nil, nil, err
	}
	return append(scopes, events.UserIs(*id)), id, nil
}

func deletedScope(f Filter) events.Scope {
	if f.GetDeleted {
		return nil
	}
	return events.NotDeleted()
}

// resolution re-hydrates references for one read, memoising entities and
// contexts across rows.
type resolution struct {
	c        *core
	dbc      dbctx.Context
	users    map[int64]*UserRef
	contexts map[int64]*ContextRef
}

func (c *core) resolution(dbc dbctx.Context) *resolution {
	return &resolution{
		c:        c,
		dbc:      dbc,
		users:    map[int64]*UserRef{},
		contexts: map[int64]*ContextRef{},
	}
}

func (r *resolution) user(id int64) (*UserRef, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	u, err := r.c.resolveUser(r.dbc, id)
	if err != nil {
		return nil, err
	}
	r.users[id] = u
	return u, nil
}

func (r *resolution) userPtr(id *int64) (*UserRef, error) {
	if id == nil {
		return nil, nil
	}
	return r.user(*id)
}

func (r *resolution) context(id int64) (*ContextRef, error) {
	if ctx, ok := r.contexts[id]; ok {
		return ctx, nil
	}
	ctx, err := r.c.resolveContext(r.dbc, id)
	if err != nil {
		return nil, err
	}
	r.contexts[id] = ctx
	return ctx, nil
}

// root resolves a root-context pair. ok is false when a reference is set
// but no longer resolves.
func (r *resolution) root(rc mixin.RootContext) (ctx *ContextRef, entity *UserRef, ok bool, err error) {
	switch {
	case rc.CourseID != nil:
		ctx, err = r.context(*rc.CourseID)
		return ctx, nil, ctx != nil, err
	case rc.EntityRootContextID != nil:
		entity, err = r.user(*rc.EntityRootContextID)
		return nil, entity, entity != nil, err
	}
	return nil, nil, true, nil
}

func (r *resolution) object(kind ObjectKind, externalID string) (any, error) {
	return r.c.resolver.ResolveExternalObject(r.dbc.Context(), kind, externalID)
}

// event fills the owner and root of out. ok is false when the row must be
// dropped.
func (r *resolution) event(out resolvedBase, userID *int64, rc mixin.RootContext) (bool, error) {
	if userID == nil {
		return false, nil
	}
	u, err := r.user(*userID)
	if err != nil || u == nil {
		return false, err
	}
	ctx, entity, ok, err := r.root(rc)
	if err != nil || !ok {
		return false, err
	}
	out.setBase(u, ctx, entity)
	return true, nil
}

type resolvedBase interface {
	setBase(user *UserRef, ctx *ContextRef, entity *UserRef)
}

func (r *Resolved[T]) setBase(user *UserRef, ctx *ContextRef, entity *UserRef) {
	r.User = user
	r.RootContext = ctx
	r.Entity = entity
}

// resolveRows maps rows through fn, dropping rows for which fn returns nil.
func resolveRows[T any](rows []*T, fn func(row *T) (*Resolved[T], error)) ([]*Resolved[T], error) {
	out := make([]*Resolved[T], 0, len(rows))
	for _, row := range rows {
		res, err := fn(row)
		if err != nil {
			return nil, err
		}
		if res != nil {
			out = append(out, res)
		}
	}
	return out, nil
}

// resolveOwned is the common mapping: owner and root must resolve.
func resolveOwned[T any](r *resolution, rows []*T, owner func(*T) (*int64, mixin.RootContext)) ([]*Resolved[T], error) {
	return resolveRows(rows, func(row *T) (*Resolved[T], error) {
		out := &Resolved[T]{Row: row}
		uid, rc := owner(row)
		ok, err := r.event(out, uid, rc)
		if err != nil || !ok {
			return nil, err
		}
		return out, nil
	})
}

// resolveRating maps a like/favorite row: rater and object creator must
// both resolve.
func resolveRating[T any](r *resolution, rows []*T, ids func(*T) (rater int64, creator *int64)) ([]*Resolved[T], error) {
	return resolveRows(rows, func(row *T) (*Resolved[T], error) {
		raterID, creatorID := ids(row)
		rater, err := r.user(raterID)
		if err != nil || rater == nil {
			return nil, err
		}
		creator, err := r.userPtr(creatorID)
		if err != nil || creator == nil {
			return nil, err
		}
		return &Resolved[T]{Row: row, User: rater, ObjectCreator: creator}, nil
	})
}

// repliesToOthers returns the user's replies to other users' rows. Rows
// with no parent user never match.
func repliesToOthers[T any](dbc dbctx.Context, c *core, repo events.Repo[T], user UserRef, f Filter, extra ...events.Scope) ([]*T, error) {
	scopes, uid, err := c.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	if uid != nil {
		scopes = append(scopes, events.Neq("parent_user_id", *uid))
	}
	scopes = append(scopes, deletedScope(f))
	return repo.Find(dbc, append(scopes, extra...)...)
}

// repliesToUser returns other users' replies to the user's rows.
func repliesToUser[T any](dbc dbctx.Context, c *core, repo events.Repo[T], user UserRef, f Filter) ([]*T, error) {
	uid, err := c.lookupUserID(dbc, user.ExternalID)
	if err != nil {
		return nil, err
	}
	if uid == nil {
		return []*T{}, nil
	}
	scopes, err := c.windowScopes(dbc, f)
	if err != nil {
		return nil, err
	}
	scopes = append(scopes,
		events.Eq("parent_user_id", *uid),
		events.Neq("user_id", *uid),
		deletedScope(f),
	)
	return repo.Find(dbc, scopes...)
}

// ratingsForCreator returns the likes or favorites other users left on
// objects the user created.
func ratingsForCreator[T any](dbc dbctx.Context, c *core, repo events.Repo[T], user UserRef, f Filter, ids func(*T) (int64, *int64)) ([]*Resolved[T], error) {
	uid, err := c.lookupUserID(dbc, user.ExternalID)
	if err != nil {
		return nil, err
	}
	if uid == nil {
		return []*Resolved[T]{}, nil
	}
	scopes, err := c.windowScopes(dbc, f)
	if err != nil {
		return nil, err
	}
	rows, err := repo.Find(dbc, append(scopes, events.Eq("creator_id", *uid))...)
	if err != nil {
		return nil, err
	}
	return resolveRating(c.resolution(dbc), rows, ids)
}
