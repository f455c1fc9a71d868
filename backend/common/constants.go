package common

import (
	"context"
	"time"
)

// StorageDir prefixes every stored path and the public static route.
const StorageDir = "storage"

const (
	RequestTimeout  = 60 * time.Second
	ShutdownTimeout = 10 * time.Second
)

type ctxKey string

const (
	// ContextUserIDKey is the gin context key set by the auth gate.
	ContextUserIDKey = "user_id"
	// ContextEmailKey carries the token's email claim.
	ContextEmailKey = "email"

	userIDCtxKey ctxKey = "user_id"
)

// WithUserID attaches the authenticated caller to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFrom returns the authenticated caller attached by WithUserID.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDCtxKey).(string)
	return id, ok && id != ""
}
