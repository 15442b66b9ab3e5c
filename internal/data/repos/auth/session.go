package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, sessions []*types.Session) ([]*types.Session, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Session, error)
	GetByTokenHashes(dbc dbctx.Context, hashes []string) ([]*types.Session, error)
	DeleteByTokenHashes(dbc dbctx.Context, hashes []string) (int64, error)
	DeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error
	DeleteExpired(dbc dbctx.Context, before time.Time) (int64, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	repoLog := baseLog.With("repo", "SessionRepo")
	return &sessionRepo{db: db, log: repoLog}
}

func (r *sessionRepo) Create(dbc dbctx.Context, sessions []*types.Session) ([]*types.Session, error) {
	if len(sessions) == 0 {
		return []*types.Session{}, nil
	}
	if err := dbc.DB(r.db).Create(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Session, error) {
	var results []*types.Session
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sessionRepo) GetByTokenHashes(dbc dbctx.Context, hashes []string) ([]*types.Session, error) {
	var results []*types.Session
	if len(hashes) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).Where("token_hash IN ?", hashes).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sessionRepo) DeleteByTokenHashes(dbc dbctx.Context, hashes []string) (int64, error) {
	if len(hashes) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("token_hash IN ?", hashes).Delete(&types.Session{})
	return res.RowsAffected, res.Error
}

func (r *sessionRepo) DeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("user_id IN ?", userIDs).Delete(&types.Session{}).Error
}

func (r *sessionRepo) DeleteExpired(dbc dbctx.Context, before time.Time) (int64, error) {
	res := dbc.DB(r.db).Where("expires_at < ?", before).Delete(&types.Session{})
	return res.RowsAffected, res.Error
}
