package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/progression"
	"github.com/yungbote/sololev-backend/internal/realtime"
)

// Notifier pushes changes to the user's other connected clients. Delivery is
// best effort and never fails the request that caused it.
type Notifier interface {
	TaskCreated(userID uuid.UUID, task *types.Task)
	TaskUpdated(userID uuid.UUID, task *types.Task)
	TaskDeleted(userID uuid.UUID, taskID uuid.UUID)
	ProgressUpdated(userID uuid.UUID, user *types.User, progress progression.Summary)
	UserUpdated(userID uuid.UUID, user *types.User)
}

type notifier struct {
	emit SSEEmitter
}

func NewNotifier(emit SSEEmitter) Notifier {
	return &notifier{emit: emit}
}

func (n *notifier) send(userID uuid.UUID, event realtime.SSEEvent, data map[string]any) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.UserChannel(userID.String()),
		Event:   event,
		Data:    data,
	})
}

func (n *notifier) TaskCreated(userID uuid.UUID, task *types.Task) {
	n.send(userID, realtime.SSEEventTaskCreated, map[string]any{"task": task})
}

func (n *notifier) TaskUpdated(userID uuid.UUID, task *types.Task) {
	n.send(userID, realtime.SSEEventTaskUpdated, map[string]any{"task": task})
}

func (n *notifier) TaskDeleted(userID uuid.UUID, taskID uuid.UUID) {
	n.send(userID, realtime.SSEEventTaskDeleted, map[string]any{"taskId": taskID})
}

func (n *notifier) ProgressUpdated(userID uuid.UUID, user *types.User, progress progression.Summary) {
	n.send(userID, realtime.SSEEventProgressUpdated, map[string]any{"user": user, "progress": progress})
}

func (n *notifier) UserUpdated(userID uuid.UUID, user *types.User) {
	n.send(userID, realtime.SSEEventUserUpdated, map[string]any{"user": user})
}
