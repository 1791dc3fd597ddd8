package services

import (
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/analytics-database/internal/domain/social"
)

func TestMembershipDiff(t *testing.T) {
	cases := []struct {
		name           string
		old, current   []int64
		added, removed []int64
	}{
		{"empty", nil, nil, nil, nil},
		{"all new", nil, []int64{3, 1, 1}, []int64{1, 3}, nil},
		{"all gone", []int64{2, 1}, nil, nil, []int64{1, 2}},
		{"mixed", []int64{1, 2, 3}, []int64{3, 4, 1}, []int64{4}, []int64{2}},
	}
	for _, tc := range cases {
		added, removed := MembershipDiff(tc.old, tc.current)
		if len(added) != len(tc.added) || (len(added) > 0 && !reflect.DeepEqual(added, tc.added)) {
			t.Fatalf("%s: added=%v want %v", tc.name, added, tc.added)
		}
		if len(removed) != len(tc.removed) || (len(removed) > 0 && !reflect.DeepEqual(removed, tc.removed)) {
			t.Fatalf("%s: removed=%v want %v", tc.name, removed, tc.removed)
		}
	}
}

func members(ids ...int64) []UserRef {
	out := make([]UserRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, UserRef{ExternalID: id})
	}
	return out
}

func TestUpdateFriendsListDiffsMembership(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)
	owner := actor(1, t0)

	// an unrecorded list is created on first update
	n, err := a.Social.UpdateFriendsList(dbc, owner, GroupRef{ExternalID: 40, Members: members(2, 3, 4)})
	if err != nil || n != 3 {
		t.Fatalf("UpdateFriendsList: n=%d err=%v", n, err)
	}
	if c := count(t, db, &social.FriendsList{}); c != 1 {
		t.Fatalf("expected 1 friends list, got %d", c)
	}

	owner.Timestamp = t0.Add(time.Hour)
	n, err = a.Social.UpdateFriendsList(dbc, owner, GroupRef{ExternalID: 40, Members: members(2, 5)})
	if err != nil || n != -1 {
		t.Fatalf("UpdateFriendsList second: n=%d err=%v", n, err)
	}
	if c := count(t, db, &social.FriendsListMemberAdded{}); c != 2 {
		t.Fatalf("expected 2 current members, got %d", c)
	}
	if c := count(t, db, &social.FriendsListMemberRemoved{}); c != 2 {
		t.Fatalf("expected 2 removals, got %d", c)
	}

	n, err = a.Social.UpdateFriendsList(dbc, owner, GroupRef{ExternalID: 40, Members: members(5, 2)})
	if err != nil || n != 0 {
		t.Fatalf("UpdateFriendsList unchanged: n=%d err=%v", n, err)
	}
	if c := count(t, db, &social.FriendsList{}); c != 1 {
		t.Fatalf("expected list to be created once, got %d", c)
	}
}

func TestUpdateContacts(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)

	if n, err := a.Social.UpdateContacts(dbc, actor(1, t0), members(2, 3)); err != nil || n != 2 {
		t.Fatalf("UpdateContacts: n=%d err=%v", n, err)
	}
	if n, err := a.Social.UpdateContacts(dbc, actor(1, t0.Add(time.Minute)), members(3)); err != nil || n != -1 {
		t.Fatalf("UpdateContacts removal: n=%d err=%v", n, err)
	}
	if c := count(t, db, &social.ContactRemoved{}); c != 1 {
		t.Fatalf("expected 1 contact removal, got %d", c)
	}

	got, err := a.Social.ContactsAdded(dbc, UserRef{ExternalID: 1}, Filter{Course: course("IGNORED")})
	if err != nil || len(got) != 1 {
		t.Fatalf("ContactsAdded: err=%v len=%d", err, len(got))
	}
	contact, ok := got[0].Object.(*UserRef)
	if !ok || contact.ExternalID != 3 {
		t.Fatalf("ContactsAdded: expected contact 3, got %#v", got[0].Object)
	}
}

func TestChatJoinsAndUpdates(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)

	// a join before the chat exists is dropped
	if row, err := a.Social.JoinChat(dbc, actor(2, t0), 70); err != nil || row != nil {
		t.Fatalf("JoinChat unrecorded: row=%v err=%v", row, err)
	}
	if _, err := a.Social.CreateChat(dbc, actor(1, t0), GroupRef{ExternalID: 70}); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if _, err := a.Social.JoinChat(dbc, actor(2, t0), 70); err != nil {
		t.Fatalf("JoinChat: %v", err)
	}
	if row, err := a.Social.JoinChat(dbc, actor(2, t0), 70); err != nil || row != nil {
		t.Fatalf("JoinChat replay: row=%v err=%v", row, err)
	}

	n, err := a.Social.UpdateChat(dbc, t0.Add(time.Hour), GroupRef{ExternalID: 70, Members: members(2, 3, 4)})
	if err != nil || n != 2 {
		t.Fatalf("UpdateChat: n=%d err=%v", n, err)
	}
	if c := count(t, db, &social.ChatJoined{}); c != 3 {
		t.Fatalf("expected 3 joins, got %d", c)
	}
}

func TestDynamicFriendsListMembership(t *testing.T) {
	a, dbc, db := newTestAnalytics(t)

	if _, err := a.Social.CreateDynamicFriendsList(dbc, actor(1, t0), GroupRef{ExternalID: 80}); err != nil {
		t.Fatalf("CreateDynamicFriendsList: %v", err)
	}
	if _, err := a.Social.AddDynamicFriendsListMember(dbc, Actor{Timestamp: t0}, 80, UserRef{ExternalID: 2}); err != nil {
		t.Fatalf("AddDynamicFriendsListMember: %v", err)
	}

	joined, err := a.Social.GroupsJoined(dbc, UserRef{ExternalID: 2}, Filter{})
	if err != nil || len(joined) != 1 {
		t.Fatalf("GroupsJoined: err=%v len=%d", err, len(joined))
	}

	if _, err := a.Social.RemoveDynamicFriendsListMember(dbc, actor(1, t0.Add(time.Hour)), 80, UserRef{ExternalID: 2}); err != nil {
		t.Fatalf("RemoveDynamicFriendsListMember: %v", err)
	}
	if c := count(t, db, &social.DynamicFriendsListMemberAdded{}); c != 0 {
		t.Fatalf("expected membership row removed, got %d", c)
	}

	if err := a.Social.RemoveDynamicFriendsList(dbc, t0.Add(2*time.Hour), 80); err != nil {
		t.Fatalf("RemoveDynamicFriendsList: %v", err)
	}
	var dfl social.DynamicFriendsList
	if err := db.First(&dfl).Error; err != nil {
		t.Fatalf("load dfl: %v", err)
	}
	if !dfl.IsDeleted() || dfl.ExternalID != nil {
		t.Fatalf("dfl not soft-deleted: %+v", dfl)
	}

	// a deleted list has lost its external id and cannot be resolved
	for _, f := range []Filter{{}, {GetDeleted: true}} {
		created, err := a.Social.GroupsCreated(dbc, UserRef{ExternalID: 1}, f)
		if err != nil || len(created) != 0 {
			t.Fatalf("GroupsCreated(%+v): err=%v len=%d", f, err, len(created))
		}
	}
}
