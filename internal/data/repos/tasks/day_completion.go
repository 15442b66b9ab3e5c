package tasks

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

const defaultHistoryLimit = 30

type DayCompletionRepo interface {
	Create(dbc dbctx.Context, rows []*types.DayCompletion) ([]*types.DayCompletion, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.DayCompletion, error)
}

type dayCompletionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDayCompletionRepo(db *gorm.DB, baseLog *logger.Logger) DayCompletionRepo {
	return &dayCompletionRepo{db: db, log: baseLog.With("repo", "DayCompletionRepo")}
}

func (r *dayCompletionRepo) Create(dbc dbctx.Context, rows []*types.DayCompletion) ([]*types.DayCompletion, error) {
	if len(rows) == 0 {
		return []*types.DayCompletion{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByUser returns the most recent completions first.
func (r *dayCompletionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.DayCompletion, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	results := []*types.DayCompletion{}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
