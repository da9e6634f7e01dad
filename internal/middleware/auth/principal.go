package auth

import (
	"context"

	"github.com/Skotchmaster/product_rating/internal/models"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, principalKey{}, u)
}

// PrincipalFromContext returns the authenticated user, or nil outside an
// authenticated request.
func PrincipalFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(principalKey{}).(*models.User)
	return u
}
