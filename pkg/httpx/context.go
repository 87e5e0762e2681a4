package httpx

import (
	"context"

	"github.com/aussiebroadwan/mingle/pkg/idx"
)

type ctxKey string

const CtxKeyUserID ctxKey = "user_id"

// WithUserID records the signed-in user for downstream handlers and limiters.
func WithUserID(ctx context.Context, id idx.ID) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, id)
}

// UserIDFromContext returns the signed-in user, or idx.Zero.
func UserIDFromContext(ctx context.Context) idx.ID {
	if id, ok := ctx.Value(CtxKeyUserID).(idx.ID); ok {
		return id
	}
	return idx.Zero
}
