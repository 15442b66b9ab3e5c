package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/progression"
)

// ErrProgressConflict means the stored streak state no longer matches the
// state the caller read, so nothing was written.
var ErrProgressConflict = errors.New("user progress changed concurrently")

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmails(dbc dbctx.Context, emails []string) ([]*types.User, error)
	GetProgressState(dbc dbctx.Context, userID uuid.UUID) (progression.State, error)
	CompareAndSwapProgress(dbc dbctx.Context, userID uuid.UUID, prev, next progression.State) error
	UpdateName(dbc dbctx.Context, userID uuid.UUID, name string) error
	UpdateAvatarFields(dbc dbctx.Context, userID uuid.UUID, bucketKey, avatarURL, avatarColor string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := dbc.DB(ur.db).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(ur.db).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmails(dbc dbctx.Context, emails []string) ([]*types.User, error) {
	var results []*types.User
	if len(emails) == 0 {
		return results, nil
	}
	if err := dbc.DB(ur.db).
		Where("email IN ?", emails).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetProgressState returns gorm.ErrRecordNotFound for unknown users.
func (ur *userRepo) GetProgressState(dbc dbctx.Context, userID uuid.UUID) (progression.State, error) {
	var u types.User
	if err := dbc.DB(ur.db).
		Select("id", "current_streak", "longest_streak", "last_completed_date").
		Where("id = ?", userID).
		Take(&u).Error; err != nil {
		return progression.State{}, err
	}
	return progression.State{
		CurrentStreak:     u.CurrentStreak,
		LongestStreak:     u.LongestStreak,
		LastCompletedDate: u.LastCompletedDate,
	}, nil
}

// CompareAndSwapProgress writes next only if the row still holds prev.
func (ur *userRepo) CompareAndSwapProgress(dbc dbctx.Context, userID uuid.UUID, prev, next progression.State) error {
	q := dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ? AND current_streak = ? AND longest_streak = ?", userID, prev.CurrentStreak, prev.LongestStreak)
	if prev.LastCompletedDate == nil {
		q = q.Where("last_completed_date IS NULL")
	} else {
		q = q.Where("last_completed_date = ?", *prev.LastCompletedDate)
	}

	updates := map[string]any{
		"current_streak":      next.CurrentStreak,
		"longest_streak":      next.LongestStreak,
		"last_completed_date": nil,
		"updated_at":          time.Now().UTC(),
	}
	if next.LastCompletedDate != nil {
		updates["last_completed_date"] = *next.LastCompletedDate
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		ur.log.Debug("progress compare-and-swap lost", "user_id", userID)
		return ErrProgressConflict
	}
	return nil
}

func (ur *userRepo) UpdateName(dbc dbctx.Context, userID uuid.UUID, name string) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("name", name).Error
}

func (ur *userRepo) UpdateAvatarFields(dbc dbctx.Context, userID uuid.UUID, bucketKey, avatarURL, avatarColor string) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"avatar_bucket_key": bucketKey,
			"avatar_url":        avatarURL,
			"avatar_color":      avatarColor,
		}).Error
}
