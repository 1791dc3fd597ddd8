package services

import (
	"time"

	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/domain/tags"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// NoteRef describes a note anchored on a resource. SharedWith lists the
// scopes the note is shared to; InReplyTo is the full parent note so it can
// be recorded first when unseen.
type NoteRef struct {
	ExternalID int64       `json:"id" yaml:"id" validate:"required"`
	Creator    *UserRef    `json:"creator,omitempty" yaml:"creator"`
	Created    time.Time   `json:"created" yaml:"created"`
	Container  ResourceRef `json:"container" yaml:"container"`
	Root       RootRef     `json:"root" yaml:"root"`
	SharedWith []string    `json:"shared_with,omitempty" yaml:"shared_with"`
	Body       []string    `json:"body,omitempty" yaml:"body"`
	InReplyTo  *NoteRef    `json:"in_reply_to,omitempty" yaml:"in_reply_to"`
	Ratings    RatingsRef  `json:"ratings" yaml:"ratings"`
}

type NoteViewEvent struct {
	Actor       `yaml:",inline"`
	Root        RootRef  `json:"root" yaml:"root"`
	ContextPath []string `json:"context_path,omitempty" yaml:"context_path"`
	Note        NoteRef  `json:"note" yaml:"note"`
}

// AnnotationRef is a highlight or bookmark.
type AnnotationRef struct {
	ExternalID int64       `json:"id" yaml:"id" validate:"required"`
	Created    time.Time   `json:"created" yaml:"created"`
	Container  ResourceRef `json:"container" yaml:"container"`
	Root       RootRef     `json:"root" yaml:"root"`
}

// ClassifySharing buckets a note by who can see it. A root without sharing
// scopes (a book) is always OTHER.
func ClassifySharing(targets []string, scopes *SharingScopes) tags.Sharing {
	if scopes == nil {
		return tags.SharingOther
	}
	switch {
	case intersects(scopes.Public, targets):
		return tags.SharingPublic
	case intersects(scopes.Other, targets):
		return tags.SharingCourse
	}
	return tags.SharingOther
}

func intersects(set, values []string) bool {
	for _, v := range values {
		for _, s := range set {
			if s == v {
				return true
			}
		}
	}
	return false
}

type TagService interface {
	CreateNote(dbc dbctx.Context, a Actor, note NoteRef) (*tags.Note, error)
	DeleteNote(dbc dbctx.Context, at time.Time, noteID int64) error
	CreateNoteView(dbc dbctx.Context, ev NoteViewEvent) (*tags.NoteView, error)
	LikeNote(dbc dbctx.Context, a Actor, noteID int64, delta int) (bool, error)
	FavoriteNote(dbc dbctx.Context, a Actor, noteID int64, delta int) (bool, error)
	FlagNote(dbc dbctx.Context, noteID int64, flagged bool) error
	CreateHighlight(dbc dbctx.Context, a Actor, highlight AnnotationRef) (*tags.Highlight, error)
	DeleteHighlight(dbc dbctx.Context, at time.Time, highlightID int64) error
	CreateBookmark(dbc dbctx.Context, a Actor, bookmark AnnotationRef) (*tags.Bookmark, error)
	DeleteBookmark(dbc dbctx.Context, at time.Time, bookmarkID int64) error

	Notes(dbc dbctx.Context, user *UserRef, f Filter) ([]*Resolved[tags.Note], error)
	NoteViews(dbc dbctx.Context, user *UserRef, noteID *int64, f Filter) ([]*Resolved[tags.NoteView], error)
	UserRepliesToOthers(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[tags.Note], error)
	RepliesToUser(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[tags.Note], error)
	LikesForUsersNotes(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[tags.NoteLike], error)
	FavoritesForUsersNotes(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[tags.NoteFavorite], error)
	Highlights(dbc dbctx.Context, user *UserRef, f Filter) ([]*Resolved[tags.Highlight], error)
	HighlightsForCourse(dbc dbctx.Context, course ContextRef) ([]*Resolved[tags.Highlight], error)
	Bookmarks(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[tags.Bookmark], error)
}

type tagService struct {
	*core
	log *logger.Logger

	notes      events.Repo[tags.Note]
	noteViews  events.Repo[tags.NoteView]
	likes      events.Repo[tags.NoteLike]
	favorites  events.Repo[tags.NoteFavorite]
	highlights events.Repo[tags.Highlight]
	bookmarks  events.Repo[tags.Bookmark]
}

func newTagService(c *core) TagService {
	return &tagService{
		core:       c,
		log:        c.log.With("service", "TagService"),
		notes:      events.New[tags.Note](c.db, c.log, "NoteRepo"),
		noteViews:  events.New[tags.NoteView](c.db, c.log, "NoteViewRepo"),
		likes:      events.New[tags.NoteLike](c.db, c.log, "NoteLikeRepo"),
		favorites:  events.New[tags.NoteFavorite](c.db, c.log, "NoteFavoriteRepo"),
		highlights: events.New[tags.Highlight](c.db, c.log, "HighlightRepo"),
		bookmarks:  events.New[tags.Bookmark](c.db, c.log, "BookmarkRepo"),
	}
}

func (s *tagService) CreateNote(dbc dbctx.Context, a Actor, note NoteRef) (*tags.Note, error) {
	var out *tags.Note
	err := s.write(dbc, "tags.create_note", func(dbc dbctx.Context) error {
		var err error
		out, err = s.createNote(dbc, a, note)
		return err
	})
	return out, err
}

func (s *tagService) createNote(dbc dbctx.Context, a Actor, note NoteRef) (*tags.Note, error) {
	uid, err := s.requireUserID(dbc, a.User)
	if err != nil {
		return nil, err
	}
	rid, err := s.requireResourceID(dbc, note.Container)
	if err != nil {
		return nil, err
	}
	return recordFact(dbc, s.notes, s.log, "note", events.Where{"note_ds_id": note.ExternalID},
		func() (*tags.Note, error) {
			courseID, entityID, err := s.rootIDs(dbc, note.Root)
			if err != nil {
				return nil, err
			}
			reply, err := s.noteReply(dbc, note.InReplyTo, a)
			if err != nil {
				return nil, err
			}
			var scopes *SharingScopes
			if note.Root.Context != nil {
				scopes = note.Root.Context.Sharing
			}
			length := bodyLength(note.Body)
			if length == nil {
				length = intPtr(0)
			}
			return &tags.Note{
				ExternalID:  int64Ptr(note.ExternalID),
				Sharing:     ClassifySharing(note.SharedWith, scopes),
				NoteLength:  length,
				Event:       mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: createdAt(note.Created, a)},
				RootContext: mixin.RootContext{CourseID: courseID, EntityRootContextID: entityID},
				Resource:    mixin.Resource{ResourceID: rid},
				Ratings:     ratingsOf(note.Ratings),
				ReplyTo:     reply,
			}, nil
		})
}

// noteReply points a reply at its parent's surrogate row, recording the
// parent on the parent creator's behalf when it is unseen.
func (s *tagService) noteReply(dbc dbctx.Context, parent *NoteRef, a Actor) (mixin.ReplyTo, error) {
	if parent == nil {
		return mixin.ReplyTo{}, nil
	}
	row, err := s.noteRow(dbc, *parent, a)
	if err != nil || row == nil {
		return mixin.ReplyTo{}, err
	}
	return mixin.ReplyTo{ParentID: int64Ptr(row.NoteID), ParentUserID: row.UserID}, nil
}

func (s *tagService) noteRow(dbc dbctx.Context, note NoteRef, a Actor) (*tags.Note, error) {
	row, err := s.notes.First(dbc, events.Where{"note_ds_id": note.ExternalID})
	if err != nil || row != nil {
		return row, err
	}
	row, err = s.createNote(dbc, creatorActor(note.Creator, note.Created, a), note)
	if err != nil {
		return nil, err
	}
	s.log.Info("created note lazily", "note_ds_id", note.ExternalID)
	return row, nil
}

func (s *tagService) DeleteNote(dbc dbctx.Context, at time.Time, noteID int64) error {
	return s.write(dbc, "tags.delete_note", func(dbc dbctx.Context) error {
		n, err := softDelete(dbc, s.notes, events.Where{"note_ds_id": noteID}, "note_ds_id", at)
		if err == nil && n == 0 {
			s.log.Info("note never created", "note_ds_id", noteID)
		}
		return err
	})
}

func (s *tagService) CreateNoteView(dbc dbctx.Context, ev NoteViewEvent) (*tags.NoteView, error) {
	var out *tags.NoteView
	err := s.write(dbc, "tags.create_note_view", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, ev.User)
		if err != nil {
			return err
		}
		rid, err := s.requireResourceID(dbc, ev.Note.Container)
		if err != nil {
			return err
		}
		note, err := s.noteRow(dbc, ev.Note, ev.Actor)
		if err != nil || note == nil {
			return err
		}
		ts := utc(ev.Timestamp)
		out, err = recordFact(dbc, s.noteViews, s.log, "note view", events.Where{"note_id": note.NoteID, "user_id": uid, "timestamp": ts},
			func() (*tags.NoteView, error) {
				courseID, entityID, err := s.rootIDs(dbc, ev.Root)
				if err != nil {
					return nil, err
				}
				path := mixin.EncodeContextPath(ev.ContextPath)
				return &tags.NoteView{
					NoteID:      note.NoteID,
					KeyedView:   mixin.KeyedView{UserID: uid, SessionID: ev.SessionID, Timestamp: ts, ContextPath: &path},
					RootContext: mixin.RootContext{CourseID: courseID, EntityRootContextID: entityID},
					Resource:    mixin.Resource{ResourceID: rid},
				}, nil
			})
		return err
	})
	return out, err
}

func (s *tagService) LikeNote(dbc dbctx.Context, a Actor, noteID int64, delta int) (bool, error) {
	return s.rateNote(dbc, "tags.like_note", "like_count", a, noteID, delta, func(dbc dbctx.Context, note *tags.Note, uid int64) (bool, error) {
		return applyRating(dbc, s.likes, events.Where{"user_id": uid, "note_id": note.NoteID}, delta, &tags.NoteLike{
			NoteID:      note.NoteID,
			Rater:       mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
			Creator:     mixin.Creator{CreatorID: note.UserID},
			RootContext: note.RootContext,
		})
	})
}

func (s *tagService) FavoriteNote(dbc dbctx.Context, a Actor, noteID int64, delta int) (bool, error) {
	return s.rateNote(dbc, "tags.favorite_note", "favorite_count", a, noteID, delta, func(dbc dbctx.Context, note *tags.Note, uid int64) (bool, error) {
		return applyRating(dbc, s.favorites, events.Where{"user_id": uid, "note_id": note.NoteID}, delta, &tags.NoteFavorite{
			NoteID:      note.NoteID,
			Rater:       mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
			Creator:     mixin.Creator{CreatorID: note.UserID},
			RootContext: note.RootContext,
		})
	})
}

func (s *tagService) rateNote(dbc dbctx.Context, op, counter string, a Actor, noteID int64, delta int, apply func(dbctx.Context, *tags.Note, int64) (bool, error)) (bool, error) {
	var changed bool
	err := s.write(dbc, op, func(dbc dbctx.Context) error {
		note, err := s.notes.First(dbc, events.Where{"note_ds_id": noteID})
		if err != nil || note == nil {
			return err
		}
		if err := s.notes.Increment(dbc, events.Where{"note_id": note.NoteID}, counter, delta); err != nil {
			return err
		}
		if a.User == nil {
			return nil
		}
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		changed, err = apply(dbc, note, uid)
		return err
	})
	return changed, err
}

func (s *tagService) FlagNote(dbc dbctx.Context, noteID int64, flagged bool) error {
	return s.write(dbc, "tags.flag_note", func(dbc dbctx.Context) error {
		n, err := s.notes.UpdateFields(dbc, events.Where{"note_ds_id": noteID}, map[string]any{"is_flagged": flagged})
		if err == nil && n == 0 {
			s.log.Info("flag for unrecorded note", "note_ds_id", noteID)
		}
		return err
	})
}

// annotationColumns resolves what highlights and bookmarks share.
func (s *tagService) annotationColumns(dbc dbctx.Context, a Actor, ref AnnotationRef) (mixin.Event, mixin.RootContext, mixin.Resource, error) {
	uid, err := s.requireUserID(dbc, a.User)
	if err != nil {
		return mixin.Event{}, mixin.RootContext{}, mixin.Resource{}, err
	}
	rid, err := s.requireResourceID(dbc, ref.Container)
	if err != nil {
		return mixin.Event{}, mixin.RootContext{}, mixin.Resource{}, err
	}
	courseID, entityID, err := s.rootIDs(dbc, ref.Root)
	if err != nil {
		return mixin.Event{}, mixin.RootContext{}, mixin.Resource{}, err
	}
	return mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: createdAt(ref.Created, a)},
		mixin.RootContext{CourseID: courseID, EntityRootContextID: entityID},
		mixin.Resource{ResourceID: rid}, nil
}

func (s *tagService) CreateHighlight(dbc dbctx.Context, a Actor, highlight AnnotationRef) (*tags.Highlight, error) {
	var out *tags.Highlight
	err := s.write(dbc, "tags.create_highlight", func(dbc dbctx.Context) error {
		var err error
		out, err = recordFact(dbc, s.highlights, s.log, "highlight", events.Where{"highlight_ds_id": highlight.ExternalID},
			func() (*tags.Highlight, error) {
				event, rc, res, err := s.annotationColumns(dbc, a, highlight)
				if err != nil {
					return nil, err
				}
				return &tags.Highlight{
					ExternalID:  int64Ptr(highlight.ExternalID),
					Event:       event,
					RootContext: rc,
					Resource:    res,
				}, nil
			})
		return err
	})
	return out, err
}

func (s *tagService) DeleteHighlight(dbc dbctx.Context, at time.Time, highlightID int64) error {
	return s.write(dbc, "tags.delete_highlight", func(dbc dbctx.Context) error {
		n, err := softDelete(dbc, s.highlights, events.Where{"highlight_ds_id": highlightID}, "highlight_ds_id", at)
		if err == nil && n == 0 {
			s.log.Info("highlight never created", "highlight_ds_id", highlightID)
		}
		return err
	})
}

func (s *tagService) CreateBookmark(dbc dbctx.Context, a Actor, bookmark AnnotationRef) (*tags.Bookmark, error) {
	var out *tags.Bookmark
	err := s.write(dbc, "tags.create_bookmark", func(dbc dbctx.Context) error {
		var err error
		out, err = recordFact(dbc, s.bookmarks, s.log, "bookmark", events.Where{"bookmark_ds_id": bookmark.ExternalID},
			func() (*tags.Bookmark, error) {
				event, rc, res, err := s.annotationColumns(dbc, a, bookmark)
				if err != nil {
					return nil, err
				}
				return &tags.Bookmark{
					ExternalID:  int64Ptr(bookmark.ExternalID),
					Event:       event,
					RootContext: rc,
					Resource:    res,
				}, nil
			})
		return err
	})
	return out, err
}

func (s *tagService) DeleteBookmark(dbc dbctx.Context, at time.Time, bookmarkID int64) error {
	return s.write(dbc, "tags.delete_bookmark", func(dbc dbctx.Context) error {
		n, err := softDelete(dbc, s.bookmarks, events.Where{"bookmark_ds_id": bookmarkID}, "bookmark_ds_id", at)
		if err == nil && n == 0 {
			s.log.Info("bookmark never created", "bookmark_ds_id", bookmarkID)
		}
		return err
	})
}

// Notes returns notes for one user, or for everyone when user is nil.
func (s *tagService) Notes(dbc dbctx.Context, user *UserRef, f Filter) ([]*Resolved[tags.Note], error) {
	if f.RepliesOnly && f.TopLevelOnly {
		return []*Resolved[tags.Note]{}, nil
	}
	scopes, err := s.optionalUserScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	scopes = append(scopes, deletedScope(f))
	if f.TopLevelOnly {
		scopes = append(scopes, events.TopLevelOnly())
	}
	if f.RepliesOnly {
		scopes = append(scopes, events.RepliesOnly())
	}
	rows, err := s.notes.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	return s.resolveNotes(dbc, rows)
}

func (s *tagService) optionalUserScopes(dbc dbctx.Context, user *UserRef, f Filter) ([]events.Scope, error) {
	if user == nil {
		return s.windowScopes(dbc, f)
	}
	scopes, _, err := s.userScopes(dbc, *user, f)
	return scopes, err
}

func (s *tagService) NoteViews(dbc dbctx.Context, user *UserRef, noteID *int64, f Filter) ([]*Resolved[tags.NoteView], error) {
	scopes, err := s.optionalUserScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	if noteID != nil {
		note, err := s.notes.First(dbc, events.Where{"note_ds_id": *noteID})
		if err != nil {
			return nil, err
		}
		if note == nil {
			return []*Resolved[tags.NoteView]{}, nil
		}
		scopes = append(scopes, events.Eq("note_id", note.NoteID))
	}
	rows, err := s.noteViews.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *tags.NoteView) (*Resolved[tags.NoteView], error) {
		out := &Resolved[tags.NoteView]{Row: row}
		ok, err := r.event(out, &row.UserID, row.RootContext)
		if err != nil || !ok {
			return nil, err
		}
		note, err := s.notes.First(dbc, events.Where{"note_id": row.NoteID})
		if err != nil || note == nil || note.ExternalID == nil {
			return nil, err
		}
		if out.Object, err = r.object(ObjectNote, objectID(*note.ExternalID)); err != nil || out.Object == nil {
			return nil, err
		}
		return out, nil
	})
}

func (s *tagService) UserRepliesToOthers(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[tags.Note], error) {
	rows, err := repliesToOthers(dbc, s.core, s.notes, user, f, events.RepliesOnly())
	if err != nil {
		return nil, err
	}
	return s.resolveNotes(dbc, rows)
}

func (s *tagService) RepliesToUser(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[tags.Note], error) {
	rows, err := repliesToUser(dbc, s.core, s.notes, user, f)
	if err != nil {
		return nil, err
	}
	return s.resolveNotes(dbc, rows)
}

func (s *tagService) LikesForUsersNotes(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[tags.NoteLike], error) {
	return ratingsForCreator(dbc, s.core, s.likes, user, f, func(r *tags.NoteLike) (int64, *int64) { return r.UserID, r.CreatorID })
}

func (s *tagService) FavoritesForUsersNotes(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[tags.NoteFavorite], error) {
	return ratingsForCreator(dbc, s.core, s.favorites, user, f, func(r *tags.NoteFavorite) (int64, *int64) { return r.UserID, r.CreatorID })
}

func (s *tagService) Highlights(dbc dbctx.Context, user *UserRef, f Filter) ([]*Resolved[tags.Highlight], error) {
	scopes, err := s.optionalUserScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.highlights.Find(dbc, append(scopes, deletedScope(f))...)
	if err != nil {
		return nil, err
	}
	return resolveAnnotations(s.resolution(dbc), rows, ObjectHighlight, func(row *tags.Highlight) (*int64, mixin.Event, mixin.RootContext) {
		return row.ExternalID, row.Event, row.RootContext
	})
}

func (s *tagService) HighlightsForCourse(dbc dbctx.Context, course ContextRef) ([]*Resolved[tags.Highlight], error) {
	return s.Highlights(dbc, nil, Filter{Course: &course})
}

func (s *tagService) Bookmarks(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[tags.Bookmark], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.bookmarks.Find(dbc, append(scopes, deletedScope(f))...)
	if err != nil {
		return nil, err
	}
	return resolveAnnotations(s.resolution(dbc), rows, ObjectBookmark, func(row *tags.Bookmark) (*int64, mixin.Event, mixin.RootContext) {
		return row.ExternalID, row.Event, row.RootContext
	})
}

func resolveAnnotations[T any](r *resolution, rows []*T, kind ObjectKind, cols func(*T) (*int64, mixin.Event, mixin.RootContext)) ([]*Resolved[T], error) {
	return resolveRows(rows, func(row *T) (*Resolved[T], error) {
		out := &Resolved[T]{Row: row}
		ext, event, rc := cols(row)
		ok, err := r.event(out, event.UserID, rc)
		if err != nil || !ok || ext == nil {
			return nil, err
		}
		if out.Object, err = r.object(kind, objectID(*ext)); err != nil || out.Object == nil {
			return nil, err
		}
		return out, nil
	})
}

func (s *tagService) resolveNotes(dbc dbctx.Context, rows []*tags.Note) ([]*Resolved[tags.Note], error) {
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *tags.Note) (*Resolved[tags.Note], error) {
		out := &Resolved[tags.Note]{Row: row}
		ok, err := r.event(out, row.UserID, row.RootContext)
		if err != nil || !ok || row.ExternalID == nil {
			return nil, err
		}
		if out.Object, err = r.object(ObjectNote, objectID(*row.ExternalID)); err != nil || out.Object == nil {
			return nil, err
		}
		if out.RepliedToUser, err = r.userPtr(row.ParentUserID); err != nil {
			return nil, err
		}
		return out, nil
	})
}
