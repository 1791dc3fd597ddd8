package services

import (
	"strings"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/domain/rootcontext"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

type RootContextService interface {
	// ID returns the context id for ref. With create=false a missing
	// context yields nil and nothing is written.
	ID(dbc dbctx.Context, ref ContextRef, create bool) (*int64, error)
	// IDs splits an event root into course_id and entity_root_context_id.
	IDs(dbc dbctx.Context, root RootRef) (courseID, entityRootContextID *int64, err error)
	Get(dbc dbctx.Context, contextID int64) (*ContextRef, error)
	Delete(dbc dbctx.Context, externalID string) error
}

type rootContextService struct {
	*core
	log *logger.Logger
}

func (s *rootContextService) ID(dbc dbctx.Context, ref ContextRef, create bool) (*int64, error) {
	if !create {
		return s.contextID(dbc, &ref, false)
	}
	var out *int64
	err := s.write(dbc, "contexts.get_or_create", func(dbc dbctx.Context) error {
		id, err := s.contextID(dbc, &ref, true)
		out = id
		return err
	})
	return out, err
}

func (s *rootContextService) IDs(dbc dbctx.Context, root RootRef) (*int64, *int64, error) {
	var courseID, entityID *int64
	err := s.write(dbc, "contexts.root_ids", func(dbc dbctx.Context) error {
		var err error
		courseID, entityID, err = s.rootIDs(dbc, root)
		return err
	})
	return courseID, entityID, err
}

func (s *rootContextService) Get(dbc dbctx.Context, contextID int64) (*ContextRef, error) {
	return s.resolveContext(dbc, contextID)
}

// Delete releases the external id on whichever kind holds it.
func (s *rootContextService) Delete(dbc dbctx.Context, externalID string) error {
	return s.write(dbc, "contexts.delete", func(dbc dbctx.Context) error {
		n, err := s.contextRepo.ClearExternalID(dbc, externalID)
		if err != nil {
			return err
		}
		if n == 0 {
			s.log.Info("context delete for unknown context", "context_ds_id", externalID)
		}
		return nil
	})
}

func (c *core) contextID(dbc dbctx.Context, ref *ContextRef, create bool) (*int64, error) {
	if ref == nil {
		return nil, nil
	}
	ext := strings.TrimSpace(ref.ExternalID)
	if ext == "" {
		return nil, aggregates.ValidationError("root context without external id")
	}
	if ref.isCourse() {
		found, err := c.contextRepo.CourseByExternalID(dbc, ext)
		if err != nil {
			return nil, err
		}
		if found != nil {
			if create {
				if err := c.backfillCourse(dbc, found, *ref); err != nil {
					return nil, err
				}
			}
			return int64Ptr(found.ContextID), nil
		}
		if !create {
			return nil, nil
		}
		return c.createCourse(dbc, ext, *ref)
	}

	found, err := c.contextRepo.BookByExternalID(dbc, ext)
	if err != nil {
		return nil, err
	}
	if found != nil {
		if create {
			if err := c.contextRepo.UpdateBook(dbc, found.ContextID, BookBackfill(found, *ref)); err != nil {
				return nil, err
			}
		}
		return int64Ptr(found.ContextID), nil
	}
	if !create {
		return nil, nil
	}
	id, err := c.contextRepo.NextID(dbc)
	if err != nil {
		return nil, err
	}
	book := &rootcontext.Book{Context: rootcontext.Context{
		ContextID:       id,
		ExternalID:      &ext,
		ContextName:     strPtr(ref.Name),
		ContextLongName: strPtr(ref.LongName),
	}}
	if err := c.contextRepo.CreateBook(dbc, book); err != nil {
		return nil, err
	}
	c.log.Debug("created book", "context_id", id, "context_ds_id", ext)
	return int64Ptr(id), nil
}

func (c *core) createCourse(dbc dbctx.Context, ext string, ref ContextRef) (*int64, error) {
	parentID, err := c.parentCourseID(dbc, ext, ref)
	if err != nil {
		return nil, err
	}
	id, err := c.contextRepo.NextID(dbc)
	if err != nil {
		return nil, err
	}
	course := &rootcontext.Course{
		Context: rootcontext.Context{
			ContextID:       id,
			ExternalID:      &ext,
			ContextName:     strPtr(ref.Name),
			ContextLongName: strPtr(ref.LongName),
			StartDate:       ref.StartDate,
			EndDate:         ref.EndDate,
			Duration:        ref.duration(),
		},
		Term:            strPtr(ref.Term),
		CRN:             strPtr(ref.CRN),
		ParentContextID: parentID,
	}
	if err := c.contextRepo.CreateCourse(dbc, course); err != nil {
		return nil, err
	}
	c.log.Debug("created course", "context_id", id, "context_ds_id", ext, "context_name", ref.Name)
	return int64Ptr(id), nil
}

// backfillCourse fills null catalog columns from ref. Dates and duration
// are written only as a set when all three are null; term and crn only
// when both are null. Populated columns are never overwritten.
func (c *core) backfillCourse(dbc dbctx.Context, row *rootcontext.Course, ref ContextRef) error {
	updates := CourseBackfill(row, ref)
	if row.ParentContextID == nil {
		parentID, err := c.parentCourseID(dbc, deref(row.ExternalID), ref)
		if err != nil {
			return err
		}
		if parentID != nil {
			updates["parent_context_id"] = *parentID
		}
	}
	if len(updates) == 0 {
		return nil
	}
	return c.contextRepo.UpdateCourse(dbc, row.ContextID, updates)
}

// parentCourseID records the course a section was split from. Only
// course parents count, and a course is never its own parent.
func (c *core) parentCourseID(dbc dbctx.Context, ext string, ref ContextRef) (*int64, error) {
	p := ref.Parent
	if p == nil || !p.isCourse() || strings.TrimSpace(p.ExternalID) == ext {
		return nil, nil
	}
	return c.contextID(dbc, p, true)
}

// BookBackfill returns the fill-if-null updates ref supplies for a book.
func BookBackfill(row *rootcontext.Book, ref ContextRef) map[string]any {
	updates := map[string]any{}
	if row.ContextName == nil {
		if v := strPtr(ref.Name); v != nil {
			updates["context_name"] = *v
		}
	}
	if row.ContextLongName == nil {
		if v := strPtr(ref.LongName); v != nil {
			updates["context_long_name"] = *v
		}
	}
	return updates
}

// CourseBackfill returns the fill-if-null updates ref supplies for row.
func CourseBackfill(row *rootcontext.Course, ref ContextRef) map[string]any {
	updates := map[string]any{}
	if row.ContextLongName == nil {
		if v := strPtr(ref.LongName); v != nil {
			updates["context_long_name"] = *v
		}
	}
	if row.StartDate == nil && row.EndDate == nil && row.Duration == nil {
		if ref.StartDate != nil {
			updates["start_date"] = ref.StartDate.UTC()
		}
		if ref.EndDate != nil {
			updates["end_date"] = ref.EndDate.UTC()
		}
		if d := ref.duration(); d != nil {
			updates["duration"] = *d
		}
	}
	if row.Term == nil && row.CRN == nil {
		if v := strPtr(ref.Term); v != nil {
			updates["term"] = *v
		}
		if v := strPtr(ref.CRN); v != nil {
			updates["crn"] = *v
		}
	}
	return updates
}

// rootIDs creates the course/book or entity an event is scoped to.
func (c *core) rootIDs(dbc dbctx.Context, root RootRef) (courseID, entityID *int64, err error) {
	switch {
	case root.Entity != nil:
		entityID, err = c.userID(dbc, root.Entity)
	case root.Context != nil:
		courseID, err = c.contextID(dbc, root.Context, true)
	}
	return courseID, entityID, err
}

// resolveContext maps a context id to a live course or book; cleared or
// unknown ids resolve to nil.
func (c *core) resolveContext(dbc dbctx.Context, contextID int64) (*ContextRef, error) {
	course, err := c.contextRepo.CourseByID(dbc, contextID)
	if err != nil {
		return nil, err
	}
	var ext *string
	if course != nil && course.ExternalID != nil {
		ext = course.ExternalID
	} else {
		book, err := c.contextRepo.BookByID(dbc, contextID)
		if err != nil {
			return nil, err
		}
		if book != nil {
			ext = book.ExternalID
		}
	}
	if ext == nil {
		return nil, nil
	}
	return c.resolver.ResolveRootContext(dbc.Context(), *ext)
}
