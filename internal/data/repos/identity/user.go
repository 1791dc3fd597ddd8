package identity

import (
	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/domain/identity"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, user *identity.User) error
	GetByID(dbc dbctx.Context, userID int64) (*identity.User, error)
	GetByExternalID(dbc dbctx.Context, externalID int64) (*identity.User, error)
	UpdateFields(dbc dbctx.Context, userID int64, updates map[string]any) error
	ClearExternalID(dbc dbctx.Context, externalID int64) (int64, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(dbc dbctx.Context, user *identity.User) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).Create(user).Error
}

func (r *userRepo) GetByID(dbc dbctx.Context, userID int64) (*identity.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out identity.User
	res := transaction.WithContext(dbc.Context()).
		Where("user_id = ?", userID).
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

func (r *userRepo) GetByExternalID(dbc dbctx.Context, externalID int64) (*identity.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out identity.User
	res := transaction.WithContext(dbc.Context()).
		Where("user_ds_id = ?", externalID).
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

func (r *userRepo) UpdateFields(dbc dbctx.Context, userID int64, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Context()).
		Model(&identity.User{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

// ClearExternalID anonymizes the user; the surrogate row stays for history.
func (r *userRepo) ClearExternalID(dbc dbctx.Context, externalID int64) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Model(&identity.User{}).
		Where("user_ds_id = ?", externalID).
		Update("user_ds_id", nil)
	return res.RowsAffected, res.Error
}
