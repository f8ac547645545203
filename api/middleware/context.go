package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
)

type principalKey struct{}

// Principal is the authenticated caller attached by Auth.
type Principal struct {
	UserID uuid.UUID
	Role   enums.Role
	Email  string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// UserIDFromContext returns the caller id as a string, or "" for anonymous
// requests such as webhooks.
func UserIDFromContext(ctx context.Context) string {
	if p, ok := PrincipalFrom(ctx); ok && p.UserID != uuid.Nil {
		return p.UserID.String()
	}
	return ""
}

// UserUUID returns the authenticated caller or an Unauthorized error.
func UserUUID(ctx context.Context) (uuid.UUID, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok || p.UserID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return p.UserID, nil
}
