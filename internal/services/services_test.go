package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/data/repos"
	"github.com/yungbote/sololev-backend/internal/data/repos/testutil"
	"github.com/yungbote/sololev-backend/internal/realtime"
)

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *recordingEmitter) events() []realtime.SSEEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]realtime.SSEEvent, 0, len(e.msgs))
	for _, m := range e.msgs {
		out = append(out, m.Event)
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	users    repos.UserRepo
	tasks    repos.TaskRepo
	days     repos.DayCompletionRepo
	sessions repos.SessionRepo
	ids      repos.UserIdentityRepo
	states   repos.OAuthStateRepo
	emitter  *recordingEmitter
	notifier Notifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	em := &recordingEmitter{}
	return &testEnv{
		db:       db,
		users:    repos.NewUserRepo(db, log),
		tasks:    repos.NewTaskRepo(db, log),
		days:     repos.NewDayCompletionRepo(db, log),
		sessions: repos.NewSessionRepo(db, log),
		ids:      repos.NewUserIdentityRepo(db, log),
		states:   repos.NewOAuthStateRepo(db, log),
		emitter:  em,
		notifier: NewNotifier(em),
	}
}

func (e *testEnv) progress(t *testing.T, cfg ProgressConfig) ProgressService {
	t.Helper()
	return NewProgressService(e.db, testutil.Logger(t), e.users, e.tasks, e.days, e.notifier, cfg)
}
