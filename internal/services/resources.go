package services

import (
	"strings"

	"github.com/yungbote/analytics-database/internal/data/aggregates"
	"github.com/yungbote/analytics-database/internal/domain/resource"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

type ResourceService interface {
	// ID returns the resource id for ref, creating the row when create is
	// set. Display name and max time length are filled only while null.
	ID(dbc dbctx.Context, ref ResourceRef, create bool) (*int64, error)
	Record(dbc dbctx.Context, resourceID int64) (*resource.Resource, error)
}

type resourceService struct {
	*core
	log *logger.Logger
}

func (s *resourceService) ID(dbc dbctx.Context, ref ResourceRef, create bool) (*int64, error) {
	if !create {
		return s.resourceID(dbc, ref, false)
	}
	var out *int64
	err := s.write(dbc, "resources.get_or_create", func(dbc dbctx.Context) error {
		id, err := s.resourceID(dbc, ref, true)
		out = id
		return err
	})
	return out, err
}

func (s *resourceService) Record(dbc dbctx.Context, resourceID int64) (*resource.Resource, error) {
	return s.resourceRepo.GetByID(dbc, resourceID)
}

func (c *core) resourceID(dbc dbctx.Context, ref ResourceRef, create bool) (*int64, error) {
	ext := strings.TrimSpace(ref.ExternalID)
	if ext == "" {
		if create {
			return nil, aggregates.ValidationError("resource without external id")
		}
		return nil, nil
	}
	found, err := c.resourceRepo.GetByExternalID(dbc, ext)
	if err != nil {
		return nil, err
	}
	if found != nil {
		if create {
			updates := map[string]any{}
			if found.DisplayName == nil {
				if v := strPtr(ref.DisplayName); v != nil {
					updates["resource_display_name"] = *v
				}
			}
			if found.MaxTimeLength == nil && ref.MaxTimeLength != nil {
				updates["max_time_length"] = *ref.MaxTimeLength
			}
			if err := c.resourceRepo.UpdateFields(dbc, found.ResourceID, updates); err != nil {
				return nil, err
			}
		}
		return int64Ptr(found.ResourceID), nil
	}
	if !create {
		return nil, nil
	}
	row := &resource.Resource{
		ExternalID:    ext,
		DisplayName:   strPtr(ref.DisplayName),
		MaxTimeLength: ref.MaxTimeLength,
	}
	if err := c.resourceRepo.Create(dbc, row); err != nil {
		return nil, err
	}
	c.log.Debug("created resource", "resource_id", row.ResourceID, "resource_ds_id", ext)
	return int64Ptr(row.ResourceID), nil
}

// requireResourceID resolves a mandatory resource, creating it.
func (c *core) requireResourceID(dbc dbctx.Context, ref ResourceRef) (int64, error) {
	id, err := c.resourceID(dbc, ref, true)
	if err != nil {
		return 0, err
	}
	return *id, nil
}
