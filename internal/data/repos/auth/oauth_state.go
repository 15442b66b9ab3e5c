package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

// ErrStateUnusable covers unknown, expired and already consumed states.
var ErrStateUnusable = errors.New("oauth state already used, expired or unknown")

type OAuthStateRepo interface {
	Create(dbc dbctx.Context, states []*types.OAuthState) ([]*types.OAuthState, error)
	Consume(dbc dbctx.Context, provider, stateHash string, now time.Time) error
	FullDeleteExpired(dbc dbctx.Context, before time.Time) error
}

type oauthStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOAuthStateRepo(db *gorm.DB, baseLog *logger.Logger) OAuthStateRepo {
	repoLog := baseLog.With("repo", "OAuthStateRepo")
	return &oauthStateRepo{db: db, log: repoLog}
}

func (r *oauthStateRepo) Create(dbc dbctx.Context, states []*types.OAuthState) ([]*types.OAuthState, error) {
	if len(states) == 0 {
		return []*types.OAuthState{}, nil
	}
	if err := dbc.DB(r.db).Create(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

// Consume marks the state used. Exactly one caller can consume a given state.
func (r *oauthStateRepo) Consume(dbc dbctx.Context, provider, stateHash string, now time.Time) error {
	res := dbc.DB(r.db).
		Model(&types.OAuthState{}).
		Where("provider = ? AND state_hash = ? AND used_at IS NULL AND expires_at > ?", provider, stateHash, now).
		Update("used_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStateUnusable
	}
	return nil
}

func (r *oauthStateRepo) FullDeleteExpired(dbc dbctx.Context, before time.Time) error {
	return dbc.DB(r.db).
		Where("expires_at < ?", before).
		Delete(&types.OAuthState{}).Error
}
