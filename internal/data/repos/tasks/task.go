package tasks

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/platform/calendar"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

// TaskPatch holds the optional fields of a partial task update.
type TaskPatch struct {
	Title     *string
	Completed *bool
	Date      *calendar.Date
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil && p.Date == nil
}

type TaskRepo interface {
	Create(dbc dbctx.Context, tasks []*types.Task) ([]*types.Task, error)
	// GetByUser lists a user's tasks newest first, optionally limited to one day.
	GetByUser(dbc dbctx.Context, userID uuid.UUID, date *calendar.Date) ([]*types.Task, error)
	GetByUserAndDate(dbc dbctx.Context, userID uuid.UUID, date calendar.Date) ([]*types.Task, error)
	GetByIDForUser(dbc dbctx.Context, userID, taskID uuid.UUID) (*types.Task, error)
	Update(dbc dbctx.Context, userID, taskID uuid.UUID, patch TaskPatch) (*types.Task, error)
	Delete(dbc dbctx.Context, userID, taskID uuid.UUID) error
	CountCompleted(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	repoLog := baseLog.With("repo", "TaskRepo")
	return &taskRepo{db: db, log: repoLog}
}

func (r *taskRepo) Create(dbc dbctx.Context, tasks []*types.Task) ([]*types.Task, error) {
	if len(tasks) == 0 {
		return []*types.Task{}, nil
	}
	if err := dbc.DB(r.db).Create(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepo) GetByUser(dbc dbctx.Context, userID uuid.UUID, date *calendar.Date) ([]*types.Task, error) {
	q := dbc.DB(r.db).Where("user_id = ?", userID)
	if date != nil {
		q = q.Where("date = ?", *date)
	}
	results := []*types.Task{}
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taskRepo) GetByUserAndDate(dbc dbctx.Context, userID uuid.UUID, date calendar.Date) ([]*types.Task, error) {
	return r.GetByUser(dbc, userID, &date)
}

// GetByIDForUser returns gorm.ErrRecordNotFound when the task is missing or
// belongs to someone else.
func (r *taskRepo) GetByIDForUser(dbc dbctx.Context, userID, taskID uuid.UUID) (*types.Task, error) {
	var t types.Task
	if err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", taskID, userID).
		Take(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *taskRepo) Update(dbc dbctx.Context, userID, taskID uuid.UUID, patch TaskPatch) (*types.Task, error) {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Completed != nil {
		updates["completed"] = *patch.Completed
	}
	if patch.Date != nil {
		updates["date"] = *patch.Date
	}

	res := dbc.DB(r.db).Model(&types.Task{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByIDForUser(dbc, userID, taskID)
}

func (r *taskRepo) Delete(dbc dbctx.Context, userID, taskID uuid.UUID) error {
	res := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", taskID, userID).
		Delete(&types.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *taskRepo) CountCompleted(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := dbc.DB(r.db).
		Model(&types.Task{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
