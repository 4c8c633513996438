package observability

import "context"

type contextKey string

const (
	accountIDKey contextKey = "account_id"
	requestIDKey contextKey = "request_id"
	symbolKey    contextKey = "symbol"
)

// RunInfo carries trace identifiers through a single placeOrder/refresh
// call so every log line emitted during that call can be correlated.
type RunInfo struct {
	AccountID string
	RequestID string
	Symbol    string
}

// WithRunInfo attaches non-empty RunInfo fields to ctx.
func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	if info.AccountID != "" {
		ctx = context.WithValue(ctx, accountIDKey, info.AccountID)
	}
	if info.RequestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, info.RequestID)
	}
	if info.Symbol != "" {
		ctx = context.WithValue(ctx, symbolKey, info.Symbol)
	}
	return ctx
}

// RunInfoFromContext reconstructs the RunInfo stored by WithRunInfo.
func RunInfoFromContext(ctx context.Context) RunInfo {
	info := RunInfo{}
	if v, ok := ctx.Value(accountIDKey).(string); ok {
		info.AccountID = v
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		info.RequestID = v
	}
	if v, ok := ctx.Value(symbolKey).(string); ok {
		info.Symbol = v
	}
	return info
}
