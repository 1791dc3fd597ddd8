package services

import (
	"testing"
	"time"

	"github.com/yungbote/analytics-database/internal/domain/views"
)

func TestShouldUpdate(t *testing.T) {
	tests := []struct {
		name     string
		old, new *int
		want     bool
	}{
		{"unset old", nil, intPtr(5), true},
		{"unset both", nil, nil, true},
		{"larger", intPtr(5), intPtr(10), true},
		{"equal", intPtr(10), intPtr(10), false},
		{"smaller", intPtr(10), intPtr(3), false},
		{"unset new", intPtr(10), nil, false},
	}
	for _, tt := range tests {
		if got := ShouldUpdate(tt.old, tt.new); got != tt.want {
			t.Fatalf("%s: ShouldUpdate=%v want %v", tt.name, got, tt.want)
		}
	}
}

func TestResourceViewHeartbeatOnlyGrows(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)

	ev := ViewEvent{
		Actor:       actor(1, t0),
		Root:        CourseRoot(course("CS1301")),
		ContextPath: []string{"course", "course", "lesson"},
		Resource:    ResourceRef{ExternalID: "tag:reading-1"},
		TimeLength:  intPtr(10),
	}
	if _, err := a.Views.CreateResourceView(dbc, ev); err != nil {
		t.Fatalf("CreateResourceView: %v", err)
	}

	ev.TimeLength = intPtr(5)
	row, err := a.Views.CreateResourceView(dbc, ev)
	if err != nil {
		t.Fatalf("CreateResourceView shorter: %v", err)
	}
	if row != nil {
		t.Fatalf("CreateResourceView shorter: expected no-op, got %+v", row)
	}

	ev.TimeLength = intPtr(30)
	row, err = a.Views.CreateResourceView(dbc, ev)
	if err != nil || row == nil {
		t.Fatalf("CreateResourceView longer: row=%v err=%v", row, err)
	}
	if got := row.Seconds(); got == nil || *got != 30 {
		t.Fatalf("CreateResourceView longer: expected 30, got %v", got)
	}

	if n := count(t, db, &views.ResourceView{}); n != 1 {
		t.Fatalf("expected one view row, got %d", n)
	}
	if got := row.Path(); len(got) != 2 || got[0] != "course" || got[1] != "lesson" {
		t.Fatalf("Path: expected collapsed breadcrumb, got %v", got)
	}

	// a new timestamp is a new view
	ev.Timestamp = t0.Add(time.Minute)
	if _, err := a.Views.CreateResourceView(dbc, ev); err != nil {
		t.Fatalf("CreateResourceView new ts: %v", err)
	}
	if n := count(t, db, &views.ResourceView{}); n != 2 {
		t.Fatalf("expected two view rows, got %d", n)
	}
}
