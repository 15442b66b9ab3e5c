package repos

import (
	"github.com/yungbote/sololev-backend/internal/data/repos/auth"
	"github.com/yungbote/sololev-backend/internal/data/repos/tasks"
	"github.com/yungbote/sololev-backend/internal/data/repos/user"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo
type UserIdentityRepo = auth.UserIdentityRepo
type SessionRepo = auth.SessionRepo
type OAuthStateRepo = auth.OAuthStateRepo
type TaskRepo = tasks.TaskRepo
type DayCompletionRepo = tasks.DayCompletionRepo

type TaskPatch = tasks.TaskPatch

var (
	ErrProgressConflict = user.ErrProgressConflict
	ErrStateUnusable    = auth.ErrStateUnusable
)

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewUserIdentityRepo(db *gorm.DB, log *logger.Logger) UserIdentityRepo {
	return auth.NewUserIdentityRepo(db, log)
}
func NewSessionRepo(db *gorm.DB, log *logger.Logger) SessionRepo { return auth.NewSessionRepo(db, log) }
func NewOAuthStateRepo(db *gorm.DB, log *logger.Logger) OAuthStateRepo {
	return auth.NewOAuthStateRepo(db, log)
}
func NewTaskRepo(db *gorm.DB, log *logger.Logger) TaskRepo { return tasks.NewTaskRepo(db, log) }
func NewDayCompletionRepo(db *gorm.DB, log *logger.Logger) DayCompletionRepo {
	return tasks.NewDayCompletionRepo(db, log)
}
