package resource

import (
	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/domain/resource"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

type ResourceRepo interface {
	Create(dbc dbctx.Context, res *resource.Resource) error
	GetByID(dbc dbctx.Context, resourceID int64) (*resource.Resource, error)
	GetByExternalID(dbc dbctx.Context, externalID string) (*resource.Resource, error)
	UpdateFields(dbc dbctx.Context, resourceID int64, updates map[string]any) error
}

type resourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceRepo(db *gorm.DB, baseLog *logger.Logger) ResourceRepo {
	return &resourceRepo{db: db, log: baseLog.With("repo", "ResourceRepo")}
}

func (r *resourceRepo) Create(dbc dbctx.Context, res *resource.Resource) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).Create(res).Error
}

func (r *resourceRepo) GetByID(dbc dbctx.Context, resourceID int64) (*resource.Resource, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out resource.Resource
	res := transaction.WithContext(dbc.Context()).
		Where("resource_id = ?", resourceID).
		Limit(1).
		Find(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}

func (r *resourceRepo) GetByExternalID(dbc dbctx.Context, externalID string) (*resource.Resource, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out resource.Resource
	res := transaction.WithContext(dbc.Context()).
		Where("resource_ds_id = ?", externalID).
		Limit(1).
		Find(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}

func (r *resourceRepo) UpdateFields(dbc dbctx.Context, resourceID int64, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Context()).
		Model(&resource.Resource{}).
		Where("resource_id = ?", resourceID).
		Updates(updates).Error
}
