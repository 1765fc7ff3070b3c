package httpapi

import "context"

type ctxKey string

const adminIDKey ctxKey = "fixoo.adminID"

// WithAdminID stores the authenticated admin id in ctx.
func WithAdminID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, adminIDKey, id)
}

// AdminIDFromCtx fetches the authenticated admin id.
func AdminIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(adminIDKey).(string)
	return id, ok && id != ""
}
