package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type traceDataKey struct{}

// TraceData correlates one API call across logs and spans. A client retrying
// complete-day with the same X-Request-Id keeps the same RequestID.
type TraceData struct {
	TraceID   string
	RequestID string
	// ClientRequestID is true when RequestID came from the caller.
	ClientRequestID bool
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns the correlation key/value pairs known for ctx: trace and
// request ids plus the authenticated user and session.
func LogFields(ctx context.Context) []any {
	var fields []any
	if td := GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			fields = append(fields, "trace_id", td.TraceID)
		}
		if td.RequestID != "" {
			fields = append(fields, "request_id", td.RequestID)
		}
	}
	if rd := GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
		fields = append(fields, "user_id", rd.UserID.String())
		if rd.SessionID != uuid.Nil {
			fields = append(fields, "session_id", rd.SessionID.String())
		}
	}
	return fields
}
