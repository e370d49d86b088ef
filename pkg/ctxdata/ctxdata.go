package ctxdata

import (
	"context"

	"github.com/google/uuid"
)

type traceIDKey struct{}
type userIDKey struct{}
type userRoleKey struct{}

var (
	traceIDKeyInstance  = traceIDKey{}
	userIDKeyInstance   = userIDKey{}
	userRoleKeyInstance = userRoleKey{}
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKeyInstance, traceID)
}

func GetTraceID(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(traceIDKeyInstance).(string)
	return traceID, ok
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKeyInstance, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKeyInstance).(string)
	return userID, ok
}

// GetUserUUID returns the caller id only when it is a well-formed uuid.
func GetUserUUID(ctx context.Context) (uuid.UUID, bool) {
	raw, ok := GetUserID(ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func WithUserRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, userRoleKeyInstance, role)
}

func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(userRoleKeyInstance).(string)
	return role, ok
}
