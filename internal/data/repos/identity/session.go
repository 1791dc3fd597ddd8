package identity

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/domain/identity"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, session *identity.Session) error
	GetByID(dbc dbctx.Context, sessionID int64) (*identity.Session, error)
	End(dbc dbctx.Context, sessionID int64, end time.Time) (bool, error)
	ListForUser(dbc dbctx.Context, userID int64) ([]*identity.Session, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, session *identity.Session) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).Create(session).Error
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, sessionID int64) (*identity.Session, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out identity.Session
	res := transaction.WithContext(dbc.Context()).
		Where("session_id = ?", sessionID).
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

// End stamps end_time once. It reports false when the session is unknown
// or already ended.
func (r *sessionRepo) End(dbc dbctx.Context, sessionID int64, end time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Model(&identity.Session{}).
		Where("session_id = ? AND end_time IS NULL", sessionID).
		Update("end_time", end.UTC())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) ListForUser(dbc dbctx.Context, userID int64) ([]*identity.Session, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*identity.Session{}
	if err := transaction.WithContext(dbc.Context()).
		Where("user_id = ?", userID).
		Order("start_time ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
