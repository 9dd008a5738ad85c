package apiclient

import "context"

type ctxKey string

const retriedKey ctxKey = "vn.retried"

// withRetried marks ctx as belonging to a request that already spent its refresh cycle.
func withRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey, true)
}

func isRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey).(bool)
	return v
}

// NoRefresh returns a context under which 401/403 responses are handed back
// as-is, without a refresh-and-replay cycle.
func NoRefresh(ctx context.Context) context.Context {
	return withRetried(ctx)
}
