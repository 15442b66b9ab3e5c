package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/data/repos"
	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/normalization"
	"github.com/yungbote/sololev-backend/internal/platform/calendar"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

type CreateTaskInput struct {
	Title string
	// Date defaults to today in the reference zone.
	Date *calendar.Date
}

type TaskService interface {
	List(ctx context.Context, userID uuid.UUID, date *calendar.Date) ([]*types.Task, error)
	Today(ctx context.Context, userID uuid.UUID, now time.Time) ([]*types.Task, error)
	Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput, now time.Time) (*types.Task, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, patch repos.TaskPatch) (*types.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}

type taskService struct {
	db       *gorm.DB
	log      *logger.Logger
	taskRepo repos.TaskRepo
	notifier Notifier
	loc      *time.Location
}

func NewTaskService(db *gorm.DB, log *logger.Logger, taskRepo repos.TaskRepo, notifier Notifier, loc *time.Location) TaskService {
	if loc == nil {
		loc = time.UTC
	}
	return &taskService{
		db:       db,
		log:      log.With("service", "TaskService"),
		taskRepo: taskRepo,
		notifier: notifier,
		loc:      loc,
	}
}

func (ts *taskService) List(ctx context.Context, userID uuid.UUID, date *calendar.Date) ([]*types.Task, error) {
	tasks, err := ts.taskRepo.GetByUser(dbctx.Context{Ctx: ctx}, userID, date)
	if err != nil {
		return nil, classifyStoreError("list tasks", err)
	}
	return tasks, nil
}

func (ts *taskService) Today(ctx context.Context, userID uuid.UUID, now time.Time) ([]*types.Task, error) {
	today := calendar.Of(now, ts.loc)
	return ts.List(ctx, userID, &today)
}

func (ts *taskService) Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput, now time.Time) (*types.Task, error) {
	title := normalization.Title(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	date := calendar.Of(now, ts.loc)
	if in.Date != nil {
		if in.Date.IsZero() {
			return nil, fmt.Errorf("%w: invalid date", ErrInvalidArgument)
		}
		date = *in.Date
	}

	task := &types.Task{
		UserID: userID,
		Title:  title,
		Date:   date,
	}
	created, err := ts.taskRepo.Create(dbctx.Context{Ctx: ctx}, []*types.Task{task})
	if err != nil {
		return nil, classifyStoreError("create task", err)
	}
	ts.log.Debug("Task created", "user_id", userID, "task_id", created[0].ID, "date", date.String())
	ts.notifier.TaskCreated(userID, created[0])
	return created[0], nil
}

func (ts *taskService) Update(ctx context.Context, userID, taskID uuid.UUID, patch repos.TaskPatch) (*types.Task, error) {
	if patch.Title != nil {
		title := normalization.Title(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidArgument)
		}
		patch.Title = &title
	}
	if patch.Date != nil && patch.Date.IsZero() {
		return nil, fmt.Errorf("%w: invalid date", ErrInvalidArgument)
	}

	dbc := dbctx.Context{Ctx: ctx}
	if patch.IsEmpty() {
		task, err := ts.taskRepo.GetByIDForUser(dbc, userID, taskID)
		if err != nil {
			return nil, classifyStoreError("get task", err)
		}
		return task, nil
	}

	task, err := ts.taskRepo.Update(dbc, userID, taskID, patch)
	if err != nil {
		return nil, classifyStoreError("update task", err)
	}
	ts.notifier.TaskUpdated(userID, task)
	return task, nil
}

func (ts *taskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if err := ts.taskRepo.Delete(dbctx.Context{Ctx: ctx}, userID, taskID); err != nil {
		return classifyStoreError("delete task", err)
	}
	ts.notifier.TaskDeleted(userID, taskID)
	return nil
}
