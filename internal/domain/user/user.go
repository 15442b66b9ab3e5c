package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/platform/calendar"
)

type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Name            string    `gorm:"not null;column:name" json:"name"`
	AvatarURL       string    `gorm:"column:avatar_url" json:"avatar,omitempty"`
	AvatarBucketKey string    `gorm:"column:avatar_bucket_key" json:"-"`
	AvatarColor     string    `gorm:"column:avatar_color" json:"avatarColor,omitempty"`

	// Streak state. LongestStreak never drops below CurrentStreak, and a
	// broken streak keeps its stale LastCompletedDate.
	CurrentStreak     int            `gorm:"not null;default:0;column:current_streak" json:"currentStreak"`
	LongestStreak     int            `gorm:"not null;default:0;column:longest_streak" json:"longestStreak"`
	LastCompletedDate *calendar.Date `gorm:"type:varchar(10);column:last_completed_date" json:"lastCompletedDate"`

	CreatedAt time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
