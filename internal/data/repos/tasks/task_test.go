package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/data/repos/testutil"
	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/platform/calendar"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
)

func TestTaskRepoListing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewTaskRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "")
	other := testutil.SeedUser(t, ctx, tx, "")

	today := calendar.New(2024, time.July, 4)
	base := time.Date(2024, time.July, 4, 8, 0, 0, 0, time.UTC)
	older := testutil.SeedTaskAt(t, ctx, tx, u.ID, today, "stretch", base)
	newer := testutil.SeedTaskAt(t, ctx, tx, u.ID, today, "read", base.Add(time.Minute))
	yesterday := testutil.SeedTaskAt(t, ctx, tx, u.ID, today.AddDays(-1), "run", base.Add(2*time.Minute))
	testutil.SeedTaskAt(t, ctx, tx, other.ID, today, "not mine", base)

	all, err := repo.GetByUser(dbc, u.ID, nil)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(all) != 3 || all[0].ID != yesterday.ID || all[2].ID != older.ID {
		t.Fatalf("GetByUser: expected newest first, got %+v", all)
	}

	onDay, err := repo.GetByUserAndDate(dbc, u.ID, today)
	if err != nil {
		t.Fatalf("GetByUserAndDate: %v", err)
	}
	if len(onDay) != 2 || onDay[0].ID != newer.ID || onDay[1].ID != older.ID {
		t.Fatalf("GetByUserAndDate: unexpected result: %+v", onDay)
	}
	if onDay[0].Date != today {
		t.Fatalf("date did not round trip: %v", onDay[0].Date)
	}

	empty, err := repo.GetByUserAndDate(dbc, u.ID, today.AddDays(5))
	if err != nil || len(empty) != 0 {
		t.Fatalf("GetByUserAndDate (empty): %+v err=%v", empty, err)
	}
}

func TestTaskRepoMutations(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewTaskRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, "")
	other := testutil.SeedUser(t, ctx, tx, "")
	today := calendar.New(2024, time.July, 4)

	created, err := repo.Create(dbc, []*types.Task{{UserID: u.ID, Title: "meditate", Date: today}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	task := created[0]
	if task.ID == uuid.Nil || task.Completed {
		t.Fatalf("Create: unexpected task: %+v", task)
	}

	done := true
	title := "meditate 10m"
	updated, err := repo.Update(dbc, u.ID, task.ID, TaskPatch{Completed: &done, Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Completed || updated.Title != title || updated.Date != today {
		t.Fatalf("Update: unexpected task: %+v", updated)
	}

	if _, err := repo.Update(dbc, other.ID, task.ID, TaskPatch{Completed: &done}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Update (foreign): expected ErrRecordNotFound, got %v", err)
	}
	if _, err := repo.GetByIDForUser(dbc, other.ID, task.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("GetByIDForUser (foreign): expected ErrRecordNotFound, got %v", err)
	}

	testutil.SeedTask(t, ctx, tx, u.ID, today.AddDays(-1), "old", true)
	testutil.SeedTask(t, ctx, tx, u.ID, today, "open", false)
	count, err := repo.CountCompleted(dbc, u.ID)
	if err != nil {
		t.Fatalf("CountCompleted: %v", err)
	}
	if count != 2 {
		t.Fatalf("CountCompleted: expected 2, got %d", count)
	}

	if err := repo.Delete(dbc, other.ID, task.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Delete (foreign): expected ErrRecordNotFound, got %v", err)
	}
	if err := repo.Delete(dbc, u.ID, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(dbc, u.ID, task.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Delete (twice): expected ErrRecordNotFound, got %v", err)
	}
}

func TestDayCompletionRepoUniquePerDay(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	repo := NewDayCompletionRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, db, "")
	day := calendar.New(2024, time.July, 4)

	row := func(d calendar.Date, streak int) *types.DayCompletion {
		return &types.DayCompletion{UserID: u.ID, Date: d, Outcome: "extended", StreakAfter: streak, LevelAfter: 1, TaskIDs: datatypes.JSON(`[]`)}
	}
	if _, err := repo.Create(dbc, []*types.DayCompletion{row(day.AddDays(-1), 1), row(day, 2)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(dbc, []*types.DayCompletion{row(day, 3)}); err == nil {
		t.Fatalf("Create: expected unique violation for a second row on the same day")
	}

	got, err := repo.ListByUser(dbc, u.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 || got[0].Date != day || got[0].StreakAfter != 2 {
		t.Fatalf("ListByUser: unexpected result: %+v", got)
	}
}
