package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const companyIDKey contextKey = "companyID"

// ContextWithCompanyID returns a new context that carries the resolved
// tenant scope.
func ContextWithCompanyID(ctx context.Context, id uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, companyIDKey, id)
}

// CompanyIDFromContext retrieves the resolved tenant scope from the
// context, if any.
func CompanyIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	value := ctx.Value(companyIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
