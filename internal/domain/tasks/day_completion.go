package tasks

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/platform/calendar"
)

// DayCompletion records one successful completeDay. There is at most one per
// user and day.
type DayCompletion struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_day_completion_user_date,priority:1" json:"userId"`
	Date        calendar.Date  `gorm:"type:varchar(10);not null;column:date;uniqueIndex:idx_day_completion_user_date,priority:2" json:"date"`
	Outcome     string         `gorm:"not null;column:outcome" json:"outcome"`
	StreakAfter int            `gorm:"not null;column:streak_after" json:"streak"`
	LevelAfter  int            `gorm:"not null;column:level_after" json:"level"`
	TaskIDs     datatypes.JSON `gorm:"column:task_ids" json:"taskIds"`
	CreatedAt   time.Time      `gorm:"not null" json:"createdAt"`
}

func (DayCompletion) TableName() string { return "day_completion" }

func (dc *DayCompletion) BeforeCreate(*gorm.DB) error {
	if dc.ID == uuid.Nil {
		dc.ID = uuid.New()
	}
	return nil
}
