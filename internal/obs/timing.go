package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

const sessionKey ctxKey = "session"

// WithSession tags ctx with the planning session id used in timing lines.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

// SessionID returns the session id carried by ctx, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// Time starts a timer for op. Call the returned func with a pointer to the
// named error result, usually in a defer.
func Time(ctx context.Context, op string) func(errp *error) {
	start := time.Now()
	sid := SessionID(ctx)
	return func(errp *error) {
		ms := time.Since(start).Milliseconds()
		if errp != nil && *errp != nil {
			log.Printf("session=%s op=%s dur=%dms err=%v", sid, op, ms, *errp)
			return
		}
		log.Printf("session=%s op=%s dur=%dms", sid, op, ms)
	}
}
