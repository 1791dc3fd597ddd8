package services

import (
	"errors"
	"testing"
	"time"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/domain/identity"
	"github.com/yungbote/analytics-database/internal/domain/rootcontext"
)

func TestGetOrCreateBackfillsOptionalFields(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)

	bare, err := a.Users.GetOrCreate(dbc, UserRef{ExternalID: 7})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if bare.Username2 != nil || bare.CreateDate != nil {
		t.Fatalf("expected empty optional fields, got %+v", bare)
	}

	created := t0.Add(-72 * time.Hour)
	full, err := a.Users.GetOrCreate(dbc, UserRef{ExternalID: 7, Username: "grace", Alias: "hopper", Created: &created})
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if full.UserID != bare.UserID {
		t.Fatalf("expected the same row, got %d and %d", bare.UserID, full.UserID)
	}
	if full.Username2 == nil || *full.Username2 != "hopper" {
		t.Fatalf("alias must be backfilled, got %v", full.Username2)
	}
	if full.CreateDate == nil || !full.CreateDate.Equal(created) {
		t.Fatalf("create date must be backfilled, got %v", full.CreateDate)
	}
	if n := count(t, db, &identity.User{}); n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}

	if _, err := a.Users.GetOrCreate(dbc, UserRef{}); !errors.Is(err, aggregates.ErrValidation) {
		t.Fatalf("GetOrCreate without id: expected validation error, got %v", err)
	}
}

func TestDeleteEntityKeepsHistory(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)

	u, err := a.Users.GetOrCreate(dbc, UserRef{ExternalID: 8, Username: "alan"})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := a.Users.UpdateResearch(dbc, 8, true); err != nil {
		t.Fatalf("UpdateResearch: %v", err)
	}
	ref, err := a.Users.Get(dbc, u.UserID)
	if err != nil || ref == nil || ref.Username != "alan" {
		t.Fatalf("Get: ref=%+v err=%v", ref, err)
	}

	if err := a.Users.DeleteEntity(dbc, 8); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}
	if err := a.Users.DeleteEntity(dbc, 8); err != nil {
		t.Fatalf("DeleteEntity twice: %v", err)
	}
	if id, err := a.Users.ID(dbc, 8); err != nil || id != nil {
		t.Fatalf("ID after delete: id=%v err=%v", id, err)
	}
	if ref, err := a.Users.Get(dbc, u.UserID); err != nil || ref != nil {
		t.Fatalf("Get after delete: ref=%+v err=%v", ref, err)
	}

	var kept identity.User
	if err := db.First(&kept, u.UserID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if kept.AllowResearch == nil || !*kept.AllowResearch {
		t.Fatalf("research flag must survive the delete, got %v", kept.AllowResearch)
	}

	// a later event for the same external id starts a new row
	if _, err := a.Users.GetOrCreate(dbc, UserRef{ExternalID: 8, Username: "alan"}); err != nil {
		t.Fatalf("GetOrCreate after delete: %v", err)
	}
	if n := count(t, db, &identity.User{}); n != 2 {
		t.Fatalf("expected 2 user rows, got %d", n)
	}
}

func TestRootContexts(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	ref := ContextRef{Kind: ContextCourse, ExternalID: "MATH1100", Name: "Calculus"}

	if id, err := a.RootContexts.ID(dbc, ref, false); err != nil || id != nil {
		t.Fatalf("ID without create: id=%v err=%v", id, err)
	}
	id, err := a.RootContexts.ID(dbc, ref, true)
	if err != nil || id == nil {
		t.Fatalf("ID: id=%v err=%v", id, err)
	}
	got, err := a.RootContexts.Get(dbc, *id)
	if err != nil || got == nil || got.Name != "Calculus" {
		t.Fatalf("Get: ref=%+v err=%v", got, err)
	}

	book := ContextRef{Kind: ContextBook, ExternalID: "book-1", Name: "Reader"}
	bookID, err := a.RootContexts.ID(dbc, book, true)
	if err != nil || bookID == nil || *bookID == *id {
		t.Fatalf("ID book: id=%v err=%v", bookID, err)
	}
	if n := count(t, db, &rootcontext.Book{}); n != 1 {
		t.Fatalf("expected 1 book, got %d", n)
	}
	book.LongName = "Reader, Annotated"
	if again, err := a.RootContexts.ID(dbc, book, true); err != nil || again == nil || *again != *bookID {
		t.Fatalf("ID book again: id=%v err=%v", again, err)
	}
	book.LongName = "Overwritten"
	if _, err := a.RootContexts.ID(dbc, book, true); err != nil {
		t.Fatalf("ID book third: %v", err)
	}
	var stored rootcontext.Book
	if err := db.First(&stored, *bookID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if stored.ContextLongName == nil || *stored.ContextLongName != "Reader, Annotated" {
		t.Fatalf("book long name must be filled once, got %v", stored.ContextLongName)
	}

	courseID, entityID, err := a.RootContexts.IDs(dbc, EntityRoot(&UserRef{ExternalID: 9, Username: "owner"}))
	if err != nil || courseID != nil || entityID == nil {
		t.Fatalf("IDs entity: course=%v entity=%v err=%v", courseID, entityID, err)
	}
	owner, err := a.Users.ID(dbc, 9)
	if err != nil || owner == nil || *owner != *entityID {
		t.Fatalf("entity root must be the user id, got %v", entityID)
	}

	if err := a.RootContexts.Delete(dbc, "MATH1100"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := a.RootContexts.Get(dbc, *id); err != nil || got != nil {
		t.Fatalf("Get after delete: ref=%+v err=%v", got, err)
	}
	if err := a.RootContexts.Delete(dbc, "never-seen"); err != nil {
		t.Fatalf("Delete unknown: %v", err)
	}
}

func TestSessionsAndLocations(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	user := UserRef{ExternalID: 11, Username: "ada"}

	s1, err := a.Sessions.Create(dbc, user, "10.0.0.1", "Mozilla/5.0", t0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s2, err := a.Sessions.Create(dbc, user, "10.0.0.2", "Mozilla/5.0", t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if s1.UserAgentID == nil || s2.UserAgentID == nil || *s1.UserAgentID != *s2.UserAgentID {
		t.Fatalf("user agent must be shared, got %v and %v", s1.UserAgentID, s2.UserAgentID)
	}

	if ok, err := a.Sessions.End(dbc, s1.SessionID, t0.Add(30*time.Minute)); err != nil || !ok {
		t.Fatalf("End: ok=%v err=%v", ok, err)
	}
	if ok, err := a.Sessions.End(dbc, s1.SessionID, t0.Add(time.Hour)); err != nil || ok {
		t.Fatalf("End twice: ok=%v err=%v", ok, err)
	}
	if ok, err := a.Sessions.End(dbc, 999, t0); err != nil || ok {
		t.Fatalf("End unknown: ok=%v err=%v", ok, err)
	}
	ended, err := a.Sessions.Get(dbc, s1.SessionID)
	if err != nil || ended == nil {
		t.Fatalf("Get: row=%v err=%v", ended, err)
	}
	if d := ended.Duration(); d == nil || *d != 1800 {
		t.Fatalf("expected 1800s, got %v", d)
	}
	list, err := a.Sessions.ForUser(dbc, user)
	if err != nil || len(list) != 2 || list[0].SessionID != s1.SessionID {
		t.Fatalf("ForUser: err=%v len=%d", err, len(list))
	}

	loc := &LocationInput{Latitude: "33.77", Longitude: "-84.39", City: "Atlanta", Country: "US"}
	if ok, err := a.Sessions.RecordLocation(dbc, user, "10.0.0.1", "US", loc); err != nil || !ok {
		t.Fatalf("RecordLocation: ok=%v err=%v", ok, err)
	}
	if ok, err := a.Sessions.RecordLocation(dbc, user, "10.0.0.1", "US", loc); err != nil || ok {
		t.Fatalf("RecordLocation repeat: ok=%v err=%v", ok, err)
	}
	other := UserRef{ExternalID: 12, Username: "bob"}
	if ok, err := a.Sessions.RecordLocation(dbc, other, "10.0.0.9", "US", loc); err != nil || !ok {
		t.Fatalf("RecordLocation other: ok=%v err=%v", ok, err)
	}
	if _, err := a.Sessions.RecordLocation(dbc, user, " ", "", nil); !errors.Is(err, aggregates.ErrValidation) {
		t.Fatalf("RecordLocation without ip: expected validation error, got %v", err)
	}
	if n := count(t, db, &identity.Location{}); n != 1 {
		t.Fatalf("coordinates must be shared, got %d location rows", n)
	}

	mine, err := a.Sessions.LocationsForUser(dbc, user)
	if err != nil || len(mine) != 1 || mine[0].LocationID == nil {
		t.Fatalf("LocationsForUser: err=%v rows=%v", err, mine)
	}
	if none, err := a.Sessions.LocationsForUser(dbc, UserRef{ExternalID: 404}); err != nil || len(none) != 0 {
		t.Fatalf("LocationsForUser unknown: err=%v len=%d", err, len(none))
	}
}
