package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/data/repos"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	UserIdentity  repos.UserIdentityRepo
	Session       repos.SessionRepo
	OAuthState    repos.OAuthStateRepo
	Task          repos.TaskRepo
	DayCompletion repos.DayCompletionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		UserIdentity:  repos.NewUserIdentityRepo(db, log),
		Session:       repos.NewSessionRepo(db, log),
		OAuthState:    repos.NewOAuthStateRepo(db, log),
		Task:          repos.NewTaskRepo(db, log),
		DayCompletion: repos.NewDayCompletionRepo(db, log),
	}
}
