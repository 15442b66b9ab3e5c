package tasks

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/platform/calendar"
)

type Task struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID     `gorm:"type:uuid;not null;index:idx_task_user_date,priority:1" json:"userId"`
	Title     string        `gorm:"not null;column:title" json:"title"`
	Completed bool          `gorm:"not null;default:false;column:completed" json:"completed"`
	Date      calendar.Date `gorm:"type:varchar(10);not null;column:date;index:idx_task_user_date,priority:2" json:"date"`
	CreatedAt time.Time     `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time     `gorm:"not null" json:"updatedAt"`
}

func (Task) TableName() string { return "task" }

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Task) IsCompleted() bool { return t != nil && t.Completed }
