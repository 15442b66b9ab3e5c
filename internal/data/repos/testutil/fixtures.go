package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/platform/calendar"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	if email == "" {
		email = uuid.NewString() + "@example.com"
	}
	u := &types.User{
		ID:    uuid.New(),
		Email: email,
		Name:  "Sung Jinwoo",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedProgress overwrites the streak columns of a user.
func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, current, longest int, last *calendar.Date) {
	tb.Helper()
	updates := map[string]any{
		"current_streak":      current,
		"longest_streak":      longest,
		"last_completed_date": nil,
	}
	if last != nil {
		updates["last_completed_date"] = *last
	}
	if err := tx.WithContext(ctx).Model(&types.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
}

func SeedTask(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, date calendar.Date, title string, completed bool) *types.Task {
	tb.Helper()
	t := &types.Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Completed: completed,
		Date:      date,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return t
}

func SeedTaskAt(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, date calendar.Date, title string, createdAt time.Time) *types.Task {
	tb.Helper()
	t := &types.Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Date:      date,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return t
}
