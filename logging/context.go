package logging

import (
	"context"

	"github.com/google/uuid"
)

type debugKey struct{}

// EnableDebugMode returns a context under which CDebug* calls log whatever the logger's level.
// The returned id tags everything done under that context.
func EnableDebugMode(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()[:8]
	return context.WithValue(ctx, debugKey{}, id), id
}

// DebugID returns the id EnableDebugMode attached to ctx.
func DebugID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(debugKey{}).(string)
	return id, ok
}
