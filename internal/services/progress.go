package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/data/repos"
	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/platform/calendar"
	"github.com/yungbote/sololev-backend/internal/platform/ctxutil"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/progression"
)

const (
	defaultCompleteDayRetries = 3
	defaultHistoryLimit       = 30
	maxHistoryLimit           = 365
)

var tracer = otel.Tracer("github.com/yungbote/sololev-backend/internal/services")

type CompleteDayResult struct {
	User             *types.User
	Progress         progression.Summary
	Outcome          progression.Outcome
	AlreadyCompleted bool
}

type ProgressService interface {
	// Today is now as a calendar date in the configured reference zone.
	Today(now time.Time) calendar.Date
	GetProgress(ctx context.Context, userID uuid.UUID) (progression.Summary, error)
	CompleteDay(ctx context.Context, userID uuid.UUID, now time.Time) (*CompleteDayResult, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*types.DayCompletion, error)
}

type ProgressConfig struct {
	Location   *time.Location
	MaxRetries int
}

type progressService struct {
	db                *gorm.DB
	log               *logger.Logger
	userRepo          repos.UserRepo
	taskRepo          repos.TaskRepo
	dayCompletionRepo repos.DayCompletionRepo
	notifier          Notifier
	locks             *progression.KeyedMutex[uuid.UUID]
	loc               *time.Location
	maxRetries        int
}

func NewProgressService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	taskRepo repos.TaskRepo,
	dayCompletionRepo repos.DayCompletionRepo,
	notifier Notifier,
	cfg ProgressConfig,
) ProgressService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultCompleteDayRetries
	}
	return &progressService{
		db:                db,
		log:               log.With("service", "ProgressService"),
		userRepo:          userRepo,
		taskRepo:          taskRepo,
		dayCompletionRepo: dayCompletionRepo,
		notifier:          notifier,
		locks:             progression.NewKeyedMutex[uuid.UUID](),
		loc:               loc,
		maxRetries:        retries,
	}
}

func (ps *progressService) Today(now time.Time) calendar.Date {
	return calendar.Of(now, ps.loc)
}

func (ps *progressService) GetProgress(ctx context.Context, userID uuid.UUID) (progression.Summary, error) {
	dbc := dbctx.Context{Ctx: ctx}
	state, err := ps.userRepo.GetProgressState(dbc, userID)
	if err != nil {
		return progression.Summary{}, classifyStoreError("get progress state", err)
	}
	total, err := ps.taskRepo.CountCompleted(dbc, userID)
	if err != nil {
		return progression.Summary{}, classifyStoreError("count completed tasks", err)
	}
	return progression.Summarize(state, total), nil
}

func (ps *progressService) CompleteDay(ctx context.Context, userID uuid.UUID, now time.Time) (*CompleteDayResult, error) {
	today := ps.Today(now)
	ctx, span := tracer.Start(ctx, "progress.CompleteDay")
	defer span.End()
	span.SetAttributes(attribute.String("progress.today", today.String()))
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		span.SetAttributes(attribute.String("sololev.request_id", td.RequestID))
	}
	log := ps.requestLog(ctx, userID)

	unlock := ps.locks.Lock(userID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt <= ps.maxRetries; attempt++ {
		res, err := ps.completeOnce(ctx, userID, today)
		if err == nil {
			span.SetAttributes(
				attribute.String("progress.outcome", string(res.Outcome)),
				attribute.Int("progress.streak", res.Progress.Streak),
				attribute.Int("progress.attempts", attempt+1),
			)
			if res.Outcome.Mutates() {
				log.Info("Day completed", "date", today.String(), "outcome", res.Outcome, "streak", res.Progress.Streak)
				ps.notifier.ProgressUpdated(userID, res.User, res.Progress)
			}
			return res, nil
		}
		if !errors.Is(err, ErrProgressConflict) {
			if !errors.Is(err, ErrIncompleteTasks) {
				span.RecordError(err)
				span.SetStatus(codes.Error, "complete day failed")
			}
			return nil, err
		}
		lastErr = err
		log.Debug("Progress update lost a race; retrying", "attempt", attempt+1)
		if err := ctx.Err(); err != nil {
			return nil, classifyStoreError("complete day", err)
		}
	}
	log.Warn("Giving up on progress update", "attempts", ps.maxRetries+1)
	span.SetStatus(codes.Error, "progress conflict")
	return nil, lastErr
}

// requestLog tags CompleteDay logs with the caller's request and trace ids, so
// retried submissions of the same day can be matched up.
func (ps *progressService) requestLog(ctx context.Context, userID uuid.UUID) *logger.Logger {
	fields := ctxutil.LogFields(ctx)
	if rd := ctxutil.GetRequestData(ctx); rd == nil || rd.UserID != userID {
		fields = append(fields, "user_id", userID.String())
	}
	return ps.log.With(fields...)
}

// completeOnce runs one read-decide-write round in a single transaction.
func (ps *progressService) completeOnce(ctx context.Context, userID uuid.UUID, today calendar.Date) (*CompleteDayResult, error) {
	var res *CompleteDayResult
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		tasks, err := ps.taskRepo.GetByUserAndDate(dbc, userID, today)
		if err != nil {
			return classifyStoreError("load tasks for today", err)
		}
		if !progression.AllTasksCompleted(tasks) {
			return ErrIncompleteTasks
		}

		prev, err := ps.userRepo.GetProgressState(dbc, userID)
		if err != nil {
			return classifyStoreError("get progress state", err)
		}
		next, outcome := progression.Decide(prev, today)

		if outcome.Mutates() {
			if err := ps.userRepo.CompareAndSwapProgress(dbc, userID, prev, next); err != nil {
				return classifyStoreError("update progress", err)
			}
			taskIDs := make([]uuid.UUID, 0, len(tasks))
			for _, t := range tasks {
				taskIDs = append(taskIDs, t.ID)
			}
			raw, err := json.Marshal(taskIDs)
			if err != nil {
				return fmt.Errorf("marshal task ids: %w", err)
			}
			row := &types.DayCompletion{
				UserID:      userID,
				Date:        today,
				Outcome:     string(outcome),
				StreakAfter: next.CurrentStreak,
				LevelAfter:  progression.CalculateLevel(next.CurrentStreak),
				TaskIDs:     datatypes.JSON(raw),
			}
			if _, err := ps.dayCompletionRepo.Create(dbc, []*types.DayCompletion{row}); err != nil {
				err = classifyStoreError("record day completion", err)
				if isConflict(err) {
					// Someone else already recorded today; re-read and re-decide.
					return errors.Join(ErrProgressConflict, err)
				}
				return err
			}
		}

		users, err := ps.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
		if err != nil {
			return classifyStoreError("load user", err)
		}
		if len(users) == 0 {
			return ErrNotFound
		}
		total, err := ps.taskRepo.CountCompleted(dbc, userID)
		if err != nil {
			return classifyStoreError("count completed tasks", err)
		}

		res = &CompleteDayResult{
			User:             users[0],
			Progress:         progression.Summarize(next, total),
			Outcome:          outcome,
			AlreadyCompleted: outcome == progression.OutcomeAlreadyCompleted,
		}
		return nil
	})
	if err != nil {
		return nil, classifyTxError(err)
	}
	return res, nil
}

// classifyTxError keeps sentinels returned from inside a transaction and
// classifies anything gorm produced while beginning or committing it.
func classifyTxError(err error) error {
	if errors.Is(err, ErrIncompleteTasks) || errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrInvalidCredential) {
		return err
	}
	return classifyStoreError("transaction", err)
}

func (ps *progressService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*types.DayCompletion, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	rows, err := ps.dayCompletionRepo.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
	if err != nil {
		return nil, classifyStoreError("list day completions", err)
	}
	return rows, nil
}
