package domain

import (
	"github.com/yungbote/sololev-backend/internal/domain/auth"
	"github.com/yungbote/sololev-backend/internal/domain/tasks"
	"github.com/yungbote/sololev-backend/internal/domain/user"
)

type User = user.User

type UserIdentity = auth.UserIdentity
type Session = auth.Session
type OAuthState = auth.OAuthState

type Task = tasks.Task
type DayCompletion = tasks.DayCompletion

const ProviderGoogle = auth.ProviderGoogle

var HashToken = auth.HashToken

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserIdentity{},
		&Session{},
		&OAuthState{},
		&Task{},
		&DayCompletion{},
	}
}
