package middleware

import "context"

type contextKey string

const (
	ctxAccountID       contextKey = "account_id"
	ctxGuestCredential contextKey = "guest_credential"
)

func AccountIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccountID).(string); ok {
		return v
	}
	return ""
}

func GuestCredentialFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxGuestCredential).(string); ok {
		return v
	}
	return ""
}

// WithAccountID injects the account identifier into the context.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccountID, accountID)
}

// WithGuestCredential injects the presented guest credential into the context.
func WithGuestCredential(ctx context.Context, credential string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxGuestCredential, credential)
}
