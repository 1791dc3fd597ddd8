package identity

import (
	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/domain/identity"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

type LocationRepo interface {
	GetOrCreate(dbc dbctx.Context, loc *identity.Location) (*identity.Location, error)
	IPLocationExists(dbc dbctx.Context, userID int64, ip string) (bool, error)
	CreateIPLocation(dbc dbctx.Context, row *identity.IPGeoLocation) error
	IPLocationsForUser(dbc dbctx.Context, userID int64) ([]*identity.IPGeoLocation, error)
}

type locationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLocationRepo(db *gorm.DB, baseLog *logger.Logger) LocationRepo {
	return &locationRepo{db: db, log: baseLog.With("repo", "LocationRepo")}
}

// GetOrCreate matches on (latitude, longitude); descriptive columns are
// only written on insert.
func (r *locationRepo) GetOrCreate(dbc dbctx.Context, loc *identity.Location) (*identity.Location, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if loc == nil {
		return nil, nil
	}
	var existing identity.Location
	res := transaction.WithContext(dbc.Context()).
		Where("latitude = ? AND longitude = ?", loc.Latitude, loc.Longitude).
		Limit(1).
		Find(&existing)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return &existing, nil
	}
	if err := transaction.WithContext(dbc.Context()).Create(loc).Error; err != nil {
		return nil, err
	}
	return loc, nil
}

func (r *locationRepo) IPLocationExists(dbc dbctx.Context, userID int64, ip string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Context()).
		Model(&identity.IPGeoLocation{}).
		Where("user_id = ? AND ip_addr = ?", userID, ip).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *locationRepo) CreateIPLocation(dbc dbctx.Context, row *identity.IPGeoLocation) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).Create(row).Error
}

func (r *locationRepo) IPLocationsForUser(dbc dbctx.Context, userID int64) ([]*identity.IPGeoLocation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*identity.IPGeoLocation{}
	if err := transaction.WithContext(dbc.Context()).
		Where("user_id = ?", userID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
