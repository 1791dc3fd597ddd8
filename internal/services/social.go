package services

import (
	"sort"
	"time"

	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/domain/social"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// GroupRef identifies a chat, dynamic friends list or friends list.
type GroupRef struct {
	ExternalID int64     `json:"id" yaml:"id" validate:"required"`
	Created    time.Time `json:"created" yaml:"created"`
	Members    []UserRef `json:"members,omitempty" yaml:"members"`
}

type SocialService interface {
	CreateChat(dbc dbctx.Context, a Actor, chat GroupRef) (*social.ChatInitiated, error)
	JoinChat(dbc dbctx.Context, a Actor, chatID int64) (*social.ChatJoined, error)
	// UpdateChat records a join for every member not seen in the chat yet
	// and returns how many were added.
	UpdateChat(dbc dbctx.Context, at time.Time, chat GroupRef) (int, error)

	CreateDynamicFriendsList(dbc dbctx.Context, a Actor, dfl GroupRef) (*social.DynamicFriendsList, error)
	RemoveDynamicFriendsList(dbc dbctx.Context, at time.Time, dflID int64) error
	AddDynamicFriendsListMember(dbc dbctx.Context, a Actor, dflID int64, member UserRef) (*social.DynamicFriendsListMemberAdded, error)
	RemoveDynamicFriendsListMember(dbc dbctx.Context, a Actor, dflID int64, member UserRef) (*social.DynamicFriendsListMemberRemoved, error)

	CreateFriendsList(dbc dbctx.Context, a Actor, list GroupRef) (*social.FriendsList, error)
	RemoveFriendsList(dbc dbctx.Context, at time.Time, listID int64) error
	// UpdateFriendsList diffs the stored membership against list.Members and
	// returns added minus removed. An unrecorded list is created first.
	UpdateFriendsList(dbc dbctx.Context, a Actor, list GroupRef) (int, error)
	// UpdateContacts diffs the user's stored contacts against contacts.
	UpdateContacts(dbc dbctx.Context, a Actor, contacts []UserRef) (int, error)

	ContactsAdded(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[social.ContactAdded], error)
	GroupsCreated(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[social.DynamicFriendsList], error)
	GroupsJoined(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[social.DynamicFriendsList], error)
}

type socialService struct {
	*core
	log *logger.Logger

	chats          events.Repo[social.ChatInitiated]
	chatsJoined    events.Repo[social.ChatJoined]
	dfls           events.Repo[social.DynamicFriendsList]
	dflAdded       events.Repo[social.DynamicFriendsListMemberAdded]
	dflRemoved     events.Repo[social.DynamicFriendsListMemberRemoved]
	lists          events.Repo[social.FriendsList]
	listAdded      events.Repo[social.FriendsListMemberAdded]
	listRemoved    events.Repo[social.FriendsListMemberRemoved]
	contactAdded   events.Repo[social.ContactAdded]
	contactRemoved events.Repo[social.ContactRemoved]
}

func newSocialService(c *core) SocialService {
	return &socialService{
		core:           c,
		log:            c.log.With("service", "SocialService"),
		chats:          events.New[social.ChatInitiated](c.db, c.log, "ChatInitiatedRepo"),
		chatsJoined:    events.New[social.ChatJoined](c.db, c.log, "ChatJoinedRepo"),
		dfls:           events.New[social.DynamicFriendsList](c.db, c.log, "DynamicFriendsListRepo"),
		dflAdded:       events.New[social.DynamicFriendsListMemberAdded](c.db, c.log, "DFLMemberAddedRepo"),
		dflRemoved:     events.New[social.DynamicFriendsListMemberRemoved](c.db, c.log, "DFLMemberRemovedRepo"),
		lists:          events.New[social.FriendsList](c.db, c.log, "FriendsListRepo"),
		listAdded:      events.New[social.FriendsListMemberAdded](c.db, c.log, "FriendsListMemberAddedRepo"),
		listRemoved:    events.New[social.FriendsListMemberRemoved](c.db, c.log, "FriendsListMemberRemovedRepo"),
		contactAdded:   events.New[social.ContactAdded](c.db, c.log, "ContactAddedRepo"),
		contactRemoved: events.New[social.ContactRemoved](c.db, c.log, "ContactRemovedRepo"),
	}
}

// MembershipDiff compares a stored membership with the current one.
// Both results are sorted.
func MembershipDiff(old, current []int64) (added, removed []int64) {
	oldSet := make(map[int64]struct{}, len(old))
	for _, id := range old {
		oldSet[id] = struct{}{}
	}
	curSet := make(map[int64]struct{}, len(current))
	for _, id := range current {
		curSet[id] = struct{}{}
		if _, ok := oldSet[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range oldSet {
		if _, ok := curSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	added = dedupe(added)
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return added, removed
}

func dedupe(ids []int64) []int64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}

func (s *socialService) memberIDs(dbc dbctx.Context, members []UserRef) ([]int64, error) {
	out := make([]int64, 0, len(members))
	for i := range members {
		id, err := s.requireUserID(dbc, &members[i])
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *socialService) CreateChat(dbc dbctx.Context, a Actor, chat GroupRef) (*social.ChatInitiated, error) {
	var out *social.ChatInitiated
	err := s.write(dbc, "social.create_chat", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		out, err = recordFact(dbc, s.chats, s.log, "chat", events.Where{"chat_ds_id": chat.ExternalID},
			func() (*social.ChatInitiated, error) {
				return &social.ChatInitiated{
					ExternalID: int64Ptr(chat.ExternalID),
					Event:      mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: createdAt(chat.Created, a)},
				}, nil
			})
		return err
	})
	return out, err
}

func (s *socialService) chatID(dbc dbctx.Context, chatID int64) (*int64, error) {
	chat, err := s.chats.First(dbc, events.Where{"chat_ds_id": chatID})
	if err != nil || chat == nil {
		return nil, err
	}
	return &chat.ChatID, nil
}

func (s *socialService) JoinChat(dbc dbctx.Context, a Actor, chatID int64) (*social.ChatJoined, error) {
	var out *social.ChatJoined
	err := s.write(dbc, "social.join_chat", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		cid, err := s.chatID(dbc, chatID)
		if err != nil {
			return err
		}
		if cid == nil {
			s.log.Info("join for unrecorded chat", "chat_ds_id", chatID)
			return nil
		}
		ts := utc(a.Timestamp)
		out, err = recordFact(dbc, s.chatsJoined, s.log, "chat join", events.Where{"chat_id": *cid, "user_id": uid, "timestamp": ts},
			func() (*social.ChatJoined, error) {
				return &social.ChatJoined{ChatID: *cid, Moment: mixin.Moment{UserID: uid, SessionID: a.SessionID, Timestamp: ts}}, nil
			})
		return err
	})
	return out, err
}

func (s *socialService) UpdateChat(dbc dbctx.Context, at time.Time, chat GroupRef) (int, error) {
	var n int
	err := s.write(dbc, "social.update_chat", func(dbc dbctx.Context) error {
		cid, err := s.chatID(dbc, chat.ExternalID)
		if err != nil {
			return err
		}
		if cid == nil {
			s.log.Info("update for unrecorded chat", "chat_ds_id", chat.ExternalID)
			return nil
		}
		joined, err := s.chatsJoined.Find(dbc, events.Eq("chat_id", *cid))
		if err != nil {
			return err
		}
		old := make([]int64, 0, len(joined))
		for _, j := range joined {
			old = append(old, j.UserID)
		}
		current, err := s.memberIDs(dbc, chat.Members)
		if err != nil {
			return err
		}
		added, _ := MembershipDiff(old, current)
		ts := utc(at)
		for _, id := range added {
			if err := s.chatsJoined.Create(dbc, &social.ChatJoined{ChatID: *cid, Moment: mixin.Moment{UserID: id, Timestamp: ts}}); err != nil {
				return err
			}
		}
		n = len(added)
		return nil
	})
	return n, err
}

func (s *socialService) CreateDynamicFriendsList(dbc dbctx.Context, a Actor, dfl GroupRef) (*social.DynamicFriendsList, error) {
	var out *social.DynamicFriendsList
	err := s.write(dbc, "social.create_dfl", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		out, err = recordFact(dbc, s.dfls, s.log, "dfl", events.Where{"dfl_ds_id": dfl.ExternalID},
			func() (*social.DynamicFriendsList, error) {
				return &social.DynamicFriendsList{
					ExternalID: int64Ptr(dfl.ExternalID),
					Event:      mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: createdAt(dfl.Created, a)},
				}, nil
			})
		return err
	})
	return out, err
}

func (s *socialService) RemoveDynamicFriendsList(dbc dbctx.Context, at time.Time, dflID int64) error {
	return s.write(dbc, "social.remove_dfl", func(dbc dbctx.Context) error {
		n, err := softDelete(dbc, s.dfls, events.Where{"dfl_ds_id": dflID}, "dfl_ds_id", at)
		if err == nil && n == 0 {
			s.log.Info("dfl never created", "dfl_ds_id", dflID)
		}
		return err
	})
}

func (s *socialService) dflID(dbc dbctx.Context, dflID int64) (*int64, error) {
	dfl, err := s.dfls.First(dbc, events.Where{"dfl_ds_id": dflID})
	if err != nil || dfl == nil {
		return nil, err
	}
	return &dfl.DFLID, nil
}

// AddDynamicFriendsListMember records a join. The acting user is optional.
func (s *socialService) AddDynamicFriendsListMember(dbc dbctx.Context, a Actor, dflID int64, member UserRef) (*social.DynamicFriendsListMemberAdded, error) {
	var out *social.DynamicFriendsListMemberAdded
	err := s.write(dbc, "social.add_dfl_member", func(dbc dbctx.Context) error {
		uid, err := s.userID(dbc, a.User)
		if err != nil {
			return err
		}
		did, err := s.dflID(dbc, dflID)
		if err != nil {
			return err
		}
		if did == nil {
			s.log.Info("member added to unrecorded dfl", "dfl_ds_id", dflID)
			return nil
		}
		target, err := s.requireUserID(dbc, &member)
		if err != nil {
			return err
		}
		out, err = recordFact(dbc, s.dflAdded, s.log, "dfl member", events.Where{"dfl_id": *did, "target_id": target},
			func() (*social.DynamicFriendsListMemberAdded, error) {
				return &social.DynamicFriendsListMemberAdded{
					DFLID:    *did,
					TargetID: target,
					Event:    mixin.Event{UserID: uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
				}, nil
			})
		return err
	})
	return out, err
}

func (s *socialService) RemoveDynamicFriendsListMember(dbc dbctx.Context, a Actor, dflID int64, member UserRef) (*social.DynamicFriendsListMemberRemoved, error) {
	var out *social.DynamicFriendsListMemberRemoved
	err := s.write(dbc, "social.remove_dfl_member", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		did, err := s.dflID(dbc, dflID)
		if err != nil {
			return err
		}
		if did == nil {
			s.log.Info("member removed from unrecorded dfl", "dfl_ds_id", dflID)
			return nil
		}
		target, err := s.requireUserID(dbc, &member)
		if err != nil {
			return err
		}
		ts := utc(a.Timestamp)
		out, err = recordFact(dbc, s.dflRemoved, s.log, "dfl member removal", events.Where{"dfl_id": *did, "target_id": target, "timestamp": ts},
			func() (*social.DynamicFriendsListMemberRemoved, error) {
				return &social.DynamicFriendsListMemberRemoved{
					DFLID:    *did,
					TargetID: target,
					Stamped:  mixin.Stamped{UserID: &uid, SessionID: a.SessionID, Timestamp: ts},
				}, nil
			})
		if err != nil || out == nil {
			return err
		}
		_, err = s.dflAdded.Delete(dbc, events.Where{"dfl_id": *did, "target_id": target})
		return err
	})
	return out, err
}

func (s *socialService) CreateFriendsList(dbc dbctx.Context, a Actor, list GroupRef) (*social.FriendsList, error) {
	var out *social.FriendsList
	err := s.write(dbc, "social.create_friends_list", func(dbc dbctx.Context) error {
		var err error
		out, err = s.createFriendsList(dbc, a, list)
		return err
	})
	return out, err
}

func (s *socialService) createFriendsList(dbc dbctx.Context, a Actor, list GroupRef) (*social.FriendsList, error) {
	uid, err := s.requireUserID(dbc, a.User)
	if err != nil {
		return nil, err
	}
	return recordFact(dbc, s.lists, s.log, "friends list", events.Where{"friends_list_ds_id": list.ExternalID},
		func() (*social.FriendsList, error) {
			return &social.FriendsList{
				ExternalID: int64Ptr(list.ExternalID),
				Event:      mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: utcPtr(a.Timestamp)},
			}, nil
		})
}

func (s *socialService) RemoveFriendsList(dbc dbctx.Context, at time.Time, listID int64) error {
	return s.write(dbc, "social.remove_friends_list", func(dbc dbctx.Context) error {
		n, err := softDelete(dbc, s.lists, events.Where{"friends_list_ds_id": listID}, "friends_list_ds_id", at)
		if err == nil && n == 0 {
			s.log.Info("friends list never created", "friends_list_ds_id", listID)
		}
		return err
	})
}

func (s *socialService) UpdateFriendsList(dbc dbctx.Context, a Actor, list GroupRef) (int, error) {
	var n int
	err := s.write(dbc, "social.update_friends_list", func(dbc dbctx.Context) error {
		found, err := s.lists.First(dbc, events.Where{"friends_list_ds_id": list.ExternalID})
		if err != nil {
			return err
		}
		if found == nil {
			if found, err = s.createFriendsList(dbc, a, list); err != nil {
				return err
			}
			s.log.Info("created friends list lazily", "friends_list_ds_id", list.ExternalID)
		}
		lid := found.FriendsListID
		rows, err := s.listAdded.Find(dbc, events.Eq("friends_list_id", lid))
		if err != nil {
			return err
		}
		old := make([]int64, 0, len(rows))
		for _, r := range rows {
			old = append(old, r.TargetID)
		}
		current, err := s.memberIDs(dbc, list.Members)
		if err != nil {
			return err
		}
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		added, removed := MembershipDiff(old, current)
		ts := utc(a.Timestamp)
		for _, id := range added {
			if err := s.listAdded.Create(dbc, &social.FriendsListMemberAdded{
				FriendsListID: lid,
				TargetID:      id,
				Event:         mixin.Event{UserID: &uid, SessionID: a.SessionID, Timestamp: &ts},
			}); err != nil {
				return err
			}
		}
		for _, id := range removed {
			if err := s.listRemoved.Create(dbc, &social.FriendsListMemberRemoved{
				FriendsListID: lid,
				TargetID:      id,
				Stamped:       mixin.Stamped{UserID: &uid, SessionID: a.SessionID, Timestamp: ts},
			}); err != nil {
				return err
			}
			if _, err := s.listAdded.Delete(dbc, events.Where{"friends_list_id": lid, "target_id": id}); err != nil {
				return err
			}
		}
		n = len(added) - len(removed)
		return nil
	})
	return n, err
}

func (s *socialService) UpdateContacts(dbc dbctx.Context, a Actor, contacts []UserRef) (int, error) {
	var n int
	err := s.write(dbc, "social.update_contacts", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, a.User)
		if err != nil {
			return err
		}
		rows, err := s.contactAdded.Find(dbc, events.UserIs(uid))
		if err != nil {
			return err
		}
		old := make([]int64, 0, len(rows))
		for _, r := range rows {
			old = append(old, r.TargetID)
		}
		current, err := s.memberIDs(dbc, contacts)
		if err != nil {
			return err
		}
		added, removed := MembershipDiff(old, current)
		ts := utc(a.Timestamp)
		for _, id := range added {
			if err := s.contactAdded.Create(dbc, &social.ContactAdded{
				TargetID: id,
				Rater:    mixin.Rater{UserID: uid, SessionID: a.SessionID, Timestamp: &ts},
			}); err != nil {
				return err
			}
		}
		for _, id := range removed {
			if err := s.contactRemoved.Create(dbc, &social.ContactRemoved{
				TargetID: id,
				Moment:   mixin.Moment{UserID: uid, SessionID: a.SessionID, Timestamp: ts},
			}); err != nil {
				return err
			}
			if _, err := s.contactAdded.Delete(dbc, events.Where{"user_id": uid, "target_id": id}); err != nil {
				return err
			}
		}
		n = len(added) - len(removed)
		return nil
	})
	return n, err
}

// ContactsAdded ignores course filters; social tables have no course column.
func (s *socialService) ContactsAdded(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[social.ContactAdded], error) {
	scopes, _, err := s.userScopes(dbc, user, personal(f))
	if err != nil {
		return nil, err
	}
	rows, err := s.contactAdded.Find(dbc, scopes...)
	if err != nil {
		return nil, err
	}
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *social.ContactAdded) (*Resolved[social.ContactAdded], error) {
		owner, err := r.user(row.UserID)
		if err != nil || owner == nil {
			return nil, err
		}
		contact, err := r.user(row.TargetID)
		if err != nil || contact == nil {
			return nil, err
		}
		return &Resolved[social.ContactAdded]{Row: row, User: owner, Object: contact}, nil
	})
}

func (s *socialService) GroupsCreated(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[social.DynamicFriendsList], error) {
	f = personal(f)
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.dfls.Find(dbc, append(scopes, deletedScope(f))...)
	if err != nil {
		return nil, err
	}
	return s.resolveGroups(dbc, rows)
}

// GroupsJoined returns the dynamic friends lists the user was added to.
func (s *socialService) GroupsJoined(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[social.DynamicFriendsList], error) {
	uid, err := s.lookupUserID(dbc, user.ExternalID)
	if err != nil || uid == nil {
		return []*Resolved[social.DynamicFriendsList]{}, err
	}
	joins, err := s.dflAdded.Find(dbc, events.Eq("target_id", *uid), events.Since(f.Since), events.Until(f.Until))
	if err != nil {
		return nil, err
	}
	rows := make([]*social.DynamicFriendsList, 0, len(joins))
	for _, j := range joins {
		dfl, err := s.dfls.First(dbc, events.Where{"dfl_id": j.DFLID})
		if err != nil {
			return nil, err
		}
		if dfl != nil {
			rows = append(rows, dfl)
		}
	}
	return s.resolveGroups(dbc, rows)
}

func (s *socialService) resolveGroups(dbc dbctx.Context, rows []*social.DynamicFriendsList) ([]*Resolved[social.DynamicFriendsList], error) {
	r := s.resolution(dbc)
	return resolveRows(rows, func(row *social.DynamicFriendsList) (*Resolved[social.DynamicFriendsList], error) {
		out := &Resolved[social.DynamicFriendsList]{Row: row}
		ok, err := r.event(out, row.UserID, mixin.RootContext{})
		if err != nil || !ok || row.ExternalID == nil {
			return nil, err
		}
		if out.Object, err = r.object(ObjectDFL, objectID(*row.ExternalID)); err != nil || out.Object == nil {
			return nil, err
		}
		return out, nil
	})
}
