package services

import (
	"fmt"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/domain/identity"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

type UserService interface {
	// GetOrCreate returns the user row for ref, backfilling null optional
	// fields on an existing row.
	GetOrCreate(dbc dbctx.Context, ref UserRef) (*identity.User, error)
	// ID is the read-only lookup; nil when the entity was never recorded.
	ID(dbc dbctx.Context, externalID int64) (*int64, error)
	// Get re-hydrates a surrogate id through the resolver.
	Get(dbc dbctx.Context, userID int64) (*UserRef, error)
	DeleteEntity(dbc dbctx.Context, externalID int64) error
	UpdateResearch(dbc dbctx.Context, externalID int64, allow bool) error
}

type userService struct {
	*core
	log *logger.Logger
}

func (s *userService) GetOrCreate(dbc dbctx.Context, ref UserRef) (*identity.User, error) {
	var out *identity.User
	err := s.write(dbc, "users.get_or_create", func(dbc dbctx.Context) error {
		u, err := s.getOrCreateUser(dbc, ref)
		out = u
		return err
	})
	return out, err
}

func (s *userService) ID(dbc dbctx.Context, externalID int64) (*int64, error) {
	return s.lookupUserID(dbc, externalID)
}

func (s *userService) Get(dbc dbctx.Context, userID int64) (*UserRef, error) {
	return s.resolveUser(dbc, userID)
}

// DeleteEntity clears the external id; the row stays so historical events
// keep their owner.
func (s *userService) DeleteEntity(dbc dbctx.Context, externalID int64) error {
	return s.write(dbc, "users.delete_entity", func(dbc dbctx.Context) error {
		n, err := s.userRepo.ClearExternalID(dbc, externalID)
		if err != nil {
			return err
		}
		if n == 0 {
			s.log.Info("entity delete for unknown entity", "user_ds_id", externalID)
		}
		return nil
	})
}

func (s *userService) UpdateResearch(dbc dbctx.Context, externalID int64, allow bool) error {
	return s.write(dbc, "users.update_research", func(dbc dbctx.Context) error {
		u, err := s.userRepo.GetByExternalID(dbc, externalID)
		if err != nil || u == nil {
			return err
		}
		return s.userRepo.UpdateFields(dbc, u.UserID, map[string]any{"allow_research": allow})
	})
}

// getOrCreateUser is the strong-entity resolution step shared by every
// write. A concurrent create of the same entity surfaces as a conflict.
func (c *core) getOrCreateUser(dbc dbctx.Context, ref UserRef) (*identity.User, error) {
	if ref.ExternalID == 0 {
		return nil, aggregates.ValidationError("user reference without external id")
	}
	found, err := c.userRepo.GetByExternalID(dbc, ref.ExternalID)
	if err != nil {
		return nil, err
	}
	if found != nil {
		updates := map[string]any{}
		if found.Username2 == nil {
			if alias := strPtr(ref.alias()); alias != nil {
				updates["username2"] = *alias
				found.Username2 = alias
			}
		}
		if found.CreateDate == nil && ref.Created != nil {
			created := ref.Created.UTC()
			updates["create_date"] = created
			found.CreateDate = &created
		}
		if len(updates) > 0 {
			if err := c.userRepo.UpdateFields(dbc, found.UserID, updates); err != nil {
				return nil, err
			}
		}
		return found, nil
	}

	user := &identity.User{
		ExternalID: int64Ptr(ref.ExternalID),
		Username:   strPtr(ref.Username),
		Username2:  strPtr(ref.alias()),
	}
	if ref.Created != nil {
		created := ref.Created.UTC()
		user.CreateDate = &created
	}
	if err := c.userRepo.Create(dbc, user); err != nil {
		return nil, err
	}
	c.log.Info("created user", "username", ref.Username, "user_id", user.UserID, "user_ds_id", ref.ExternalID)
	return user, nil
}

// userID resolves an optional actor; nil in, nil out.
func (c *core) userID(dbc dbctx.Context, ref *UserRef) (*int64, error) {
	if ref == nil {
		return nil, nil
	}
	u, err := c.getOrCreateUser(dbc, *ref)
	if err != nil {
		return nil, err
	}
	return int64Ptr(u.UserID), nil
}

func (c *core) requireUserID(dbc dbctx.Context, ref *UserRef) (int64, error) {
	if ref == nil {
		return 0, aggregates.ValidationError("event without user")
	}
	u, err := c.getOrCreateUser(dbc, *ref)
	if err != nil {
		return 0, err
	}
	return u.UserID, nil
}

func (c *core) lookupUserID(dbc dbctx.Context, externalID int64) (*int64, error) {
	u, err := c.userRepo.GetByExternalID(dbc, externalID)
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", externalID, err)
	}
	if u == nil {
		return nil, nil
	}
	return int64Ptr(u.UserID), nil
}

// resolveUser maps a surrogate id back to a live entity. Deleted entities
// (null external id) and entities the resolver no longer knows are nil.
func (c *core) resolveUser(dbc dbctx.Context, userID int64) (*UserRef, error) {
	u, err := c.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.ExternalID == nil {
		return nil, nil
	}
	return c.resolver.ResolveUser(dbc.Context(), *u.ExternalID)
}
