package realtime

type SSEEvent string

const (
	SSEEventTaskCreated     SSEEvent = "TaskCreated"
	SSEEventTaskUpdated     SSEEvent = "TaskUpdated"
	SSEEventTaskDeleted     SSEEvent = "TaskDeleted"
	SSEEventProgressUpdated SSEEvent = "ProgressUpdated"
	SSEEventUserUpdated     SSEEvent = "UserUpdated"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// UserChannel is the channel every session of a user subscribes to.
func UserChannel(userID string) string {
	return "user:" + userID
}
