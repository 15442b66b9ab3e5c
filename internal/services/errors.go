package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/data/repos"
)

var (
	// ErrIncompleteTasks means today has no tasks or at least one is still open.
	ErrIncompleteTasks = errors.New("not all tasks completed for today")
	// ErrNotFound means the user or task does not exist for the caller.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable wraps any persistence failure the caller cannot fix.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidCredential means the bearer token is missing, malformed, expired or revoked.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrInvalidArgument means the request itself is malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrProgressConflict means concurrent writers kept winning the progress update.
	ErrProgressConflict = errors.New("progress update conflict")
	// ErrConflict is a unique constraint violation.
	ErrConflict = errors.New("conflict")
)

// classifyStoreError tags a repository error with one of the sentinels above.
// The original error stays in the chain for logging.
func classifyStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrProgressConflict):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Join(ErrNotFound, fmt.Errorf("%s: %w", op, err))
	case errors.Is(err, repos.ErrProgressConflict):
		return errors.Join(ErrProgressConflict, fmt.Errorf("%s: %w", op, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrStoreUnavailable, fmt.Errorf("%s: %w", op, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return errors.Join(ErrConflict, fmt.Errorf("%s: %w", op, err)) // unique_violation
		case "40001", "40P01", "55P03":
			return errors.Join(ErrProgressConflict, fmt.Errorf("%s: %w", op, err)) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key") {
		return errors.Join(ErrConflict, fmt.Errorf("%s: %w", op, err))
	}
	return errors.Join(ErrStoreUnavailable, fmt.Errorf("%s: %w", op, err))
}

func isConflict(err error) bool { return errors.Is(err, ErrConflict) }
