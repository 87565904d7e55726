package service

import "context"

type contextKey string

const contextKeyRequestID contextKey = "requestID"

// WithRequestID stores the request ID used to correlate logs and history.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}
