package identity

import "context"

type ctxKey int

const (
	ctxUser ctxKey = iota
	ctxToken
)

// WithUser stores the resolved account in the request context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

// UserFromContext returns the account resolved by the authentication layer.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxUser).(*User)
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}

// WithToken stores the raw bearer token alongside the resolved account.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxToken, token)
}

// TokenFromContext returns the raw bearer token for the request, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(ctxToken).(string)
	if !ok || t == "" {
		return "", false
	}
	return t, true
}
