package services

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/domain/assessments"
)

func floatPtr(v float64) *float64 { return &v }

func TestGradeValue(t *testing.T) {
	cases := []struct {
		in   any
		want *float64
	}{
		{"85", floatPtr(85)},
		{"90 -", floatPtr(90)},
		{"12.5", floatPtr(12.5)},
		{"", nil},
		{"A", nil},
		{0, nil},
		{7, floatPtr(7)},
		{int64(3), floatPtr(3)},
		{0.0, nil},
		{nil, nil},
	}
	for _, tc := range cases {
		got := GradeValue(tc.in)
		switch {
		case tc.want == nil && got != nil:
			t.Fatalf("GradeValue(%#v): expected nil, got %v", tc.in, *got)
		case tc.want != nil && (got == nil || *got != *tc.want):
			t.Fatalf("GradeValue(%#v): expected %v, got %v", tc.in, *tc.want, got)
		}
	}
}

func TestDuration(t *testing.T) {
	if got := Duration(nil); got != -1 {
		t.Fatalf("Duration(nil) = %d", got)
	}
	if got := Duration(intPtr(0)); got != -1 {
		t.Fatalf("Duration(0) = %d", got)
	}
	if got := Duration(intPtr(95)); got != 95 {
		t.Fatalf("Duration(95) = %d", got)
	}
}

func TestEncodeResponse(t *testing.T) {
	cases := []struct {
		name string
		part PartRef
		want string
	}{
		{"plain", PartRef{Response: "b"}, `"b"`},
		{"upload", PartRef{Response: "secret bytes", Uploaded: true}, `"` + assessments.FileUploadedResponse + `"`},
		{"modeled", PartRef{Response: []any{"x = ", "1", 2}, Modeled: true}, `"x = 1"`},
		{"unserializable", PartRef{Response: func() {}}, `""`},
	}
	for _, tc := range cases {
		if got := string(EncodeResponse(nil, tc.part)); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestDecodeResponseIntegerKeys(t *testing.T) {
	got, err := DecodeResponse(datatypes.JSON(`{"0":"a","2":"c"}`))
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	want := map[int]any{0: "a", 2: "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DecodeResponse: expected %v, got %#v", want, got)
	}

	got, err = DecodeResponse(datatypes.JSON(`{"0":"a","b":"c"}`))
	if err != nil {
		t.Fatalf("DecodeResponse mixed: %v", err)
	}
	if _, ok := got.(map[string]any); !ok {
		t.Fatalf("DecodeResponse mixed: expected string keys, got %T", got)
	}

	if got, err := DecodeResponse(nil); err != nil || got != nil {
		t.Fatalf("DecodeResponse empty: got=%v err=%v", got, err)
	}
}

func sampleSubmission() SubmissionRef {
	return SubmissionRef{
		ExternalID:   500,
		AssignmentID: "tag:assignment-1",
		Creator:      &UserRef{ExternalID: 1},
		Created:      t0.Add(-time.Hour),
		Course:       *course("MATH1000"),
		Duration:     intPtr(600),
		Questions: []QuestionRef{{
			QuestionID: "q1",
			Parts: []PartRef{
				{Response: "42", Assessed: floatPtr(1)},
				{Response: map[string]any{"0": "left"}},
			},
		}},
	}
}

func TestGradeSubmissionRecordsMissingSubmission(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	sub := sampleSubmission()
	sub.Grade = &GradeRef{Value: "85", Grader: &UserRef{ExternalID: 900}}
	grader := UserRef{ExternalID: 900}

	if _, err := a.Assessments.GradeSubmission(dbc, actor(900, t0), grader, "85", sub); err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	if n := count(t, db, &assessments.AssignmentTaken{}); n != 1 {
		t.Fatalf("expected 1 taken row, got %d", n)
	}
	if n := count(t, db, &assessments.AssignmentDetail{}); n != 2 {
		t.Fatalf("expected 2 detail rows, got %d", n)
	}
	if n := count(t, db, &assessments.AssignmentDetailGrade{}); n != 1 {
		t.Fatalf("expected 1 detail grade, got %d", n)
	}
	if n := count(t, db, &assessments.AssignmentGrade{}); n != 1 {
		t.Fatalf("expected 1 grade, got %d", n)
	}

	// a regrade replaces the value in place
	row, err := a.Assessments.GradeSubmission(dbc, actor(900, t0.Add(time.Hour)), grader, "90 -", sub)
	if err != nil || row == nil {
		t.Fatalf("GradeSubmission regrade: row=%v err=%v", row, err)
	}
	if row.GradeNum == nil || *row.GradeNum != 90 || row.Grade.Grade == nil || *row.Grade.Grade != "90 -" {
		t.Fatalf("GradeSubmission regrade: unexpected grade %+v", row.Grade)
	}
	if n := count(t, db, &assessments.AssignmentGrade{}); n != 1 {
		t.Fatalf("expected regrade to keep 1 grade, got %d", n)
	}

	got, err := a.Assessments.AssignmentDetailsForCourse(dbc, *course("MATH1000"), sub.AssignmentID)
	if err != nil || len(got) != 1 {
		t.Fatalf("AssignmentDetailsForCourse: err=%v len=%d", err, len(got))
	}
	if len(got[0].Row.Details) != 2 {
		t.Fatalf("expected 2 resolved details, got %d", len(got[0].Row.Details))
	}
}

func TestGradeBeforeSubmissionKeepsGradeAndOwner(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	sub := sampleSubmission()
	grader := UserRef{ExternalID: 900}

	row, err := a.Assessments.GradeSubmission(dbc, actor(900, t0), grader, "85", sub)
	if err != nil || row == nil {
		t.Fatalf("GradeSubmission: row=%v err=%v", row, err)
	}
	if row.GradeNum == nil || *row.GradeNum != 85 {
		t.Fatalf("GradeSubmission: unexpected grade %+v", row.Grade)
	}
	if n := count(t, db, &assessments.AssignmentGrade{}); n != 1 {
		t.Fatalf("expected 1 grade, got %d", n)
	}

	var taken assessments.AssignmentTaken
	if err := db.First(&taken).Error; err != nil {
		t.Fatalf("load taken: %v", err)
	}
	owner, err := a.Users.ID(dbc, 1)
	if err != nil || owner == nil {
		t.Fatalf("Users.ID: %v", err)
	}
	if taken.UserID == nil || *taken.UserID != *owner {
		t.Fatalf("lazy submission must belong to its creator, got %v", taken.UserID)
	}
	if taken.Timestamp == nil || !taken.Timestamp.Equal(sub.Created) {
		t.Fatalf("lazy submission must carry its creation time, got %v", taken.Timestamp)
	}
	if taken.SessionID != nil {
		t.Fatalf("lazy submission must have no session, got %v", *taken.SessionID)
	}
}

func TestCreateAssignmentTakenIsIdempotent(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	sub := sampleSubmission()

	if _, err := a.Assessments.CreateAssignmentTaken(dbc, actor(1, t0), sub.Course, sub); err != nil {
		t.Fatalf("CreateAssignmentTaken: %v", err)
	}
	row, err := a.Assessments.CreateAssignmentTaken(dbc, actor(1, t0), sub.Course, sub)
	if err != nil || row != nil {
		t.Fatalf("CreateAssignmentTaken replay: row=%v err=%v", row, err)
	}
	if n := count(t, db, &assessments.AssignmentDetail{}); n != 2 {
		t.Fatalf("expected 2 detail rows, got %d", n)
	}

	var taken assessments.AssignmentTaken
	if err := db.First(&taken).Error; err != nil {
		t.Fatalf("load taken: %v", err)
	}
	if taken.TimeLength.TimeLength == nil || *taken.TimeLength.TimeLength != 600 {
		t.Fatalf("expected time length 600, got %v", taken.TimeLength.TimeLength)
	}
}

func TestFeedbackOnUngradedSubmissionFails(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	sub := sampleSubmission()

	_, err := a.Assessments.CreateSubmissionFeedback(dbc, actor(900, t0), sub, FeedbackRef{ExternalID: 77, Body: []string{"nice"}})
	if !errors.Is(err, aggregates.ErrInvariant) {
		t.Fatalf("CreateSubmissionFeedback: expected invariant error, got %v", err)
	}
	if !aggregates.IsCode(err, aggregates.CodeInvariantViolation) {
		t.Fatalf("CreateSubmissionFeedback: expected invariant code, got %q", aggregates.CodeOf(err))
	}
	if n := count(t, db, &assessments.AssignmentTaken{}); n != 0 {
		t.Fatalf("expected lazy submission to roll back, got %d rows", n)
	}
}

func TestFeedbackLifecycle(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	sub := sampleSubmission()
	sub.Grade = &GradeRef{Value: "B"}
	if _, err := a.Assessments.CreateAssignmentTaken(dbc, actor(1, t0), sub.Course, sub); err != nil {
		t.Fatalf("CreateAssignmentTaken: %v", err)
	}

	fb := FeedbackRef{ExternalID: 77, Body: []string{"nice"}}
	row, err := a.Assessments.CreateSubmissionFeedback(dbc, actor(900, t0.Add(time.Hour)), sub, fb)
	if err != nil || row == nil {
		t.Fatalf("CreateSubmissionFeedback: row=%v err=%v", row, err)
	}
	if row.FeedbackLength == nil || *row.FeedbackLength != 4 {
		t.Fatalf("expected feedback length 4, got %v", row.FeedbackLength)
	}

	if err := a.Assessments.DeleteFeedback(dbc, t0.Add(2*time.Hour), fb.ExternalID); err != nil {
		t.Fatalf("DeleteFeedback: %v", err)
	}
	var stored assessments.AssignmentFeedback
	if err := db.First(&stored).Error; err != nil {
		t.Fatalf("load feedback: %v", err)
	}
	if !stored.IsDeleted() || stored.FeedbackDSID != nil {
		t.Fatalf("feedback not soft-deleted: %+v", stored)
	}
}
