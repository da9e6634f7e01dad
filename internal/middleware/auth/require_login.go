package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/product_rating/internal/logging"
	"github.com/Skotchmaster/product_rating/internal/models"
	"github.com/Skotchmaster/product_rating/internal/tokens"
)

const tokenContextKey = "token"

// Authenticator resolves a token subject to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, id uint) (*models.User, error)
}

type RequireLogin struct {
	JWTSecret []byte
	Users     Authenticator
}

func NewRequireLogin(secret []byte, users Authenticator) *RequireLogin {
	return &RequireLogin{JWTSecret: secret, Users: users}
}

// Middleware parses the bearer token and then resolves the active user.
// Every failure is a 401.
func (m *RequireLogin) Middleware() echo.MiddlewareFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		SigningKey:    m.JWTSecret,
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    tokenContextKey,
		TokenLookup:   "header:Authorization:Bearer ",
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.AccessClaims) },
		ErrorHandler: func(c echo.Context, err error) error {
			msg := "Authentication credentials were not provided."
			var tokenErr *echojwt.TokenError
			if errors.As(err, &tokenErr) {
				msg = "Invalid token."
			}
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", http.StatusUnauthorized, "reason", msg, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, msg)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return parse(m.resolveUser(next))
	}
}

func (m *RequireLogin) resolveUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx)

		token, ok := c.Get(tokenContextKey).(*jwt.Token)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token.")
		}
		claims, ok := token.Claims.(*tokens.AccessClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token.")
		}
		id, err := claims.UserID()
		if err != nil {
			l.Warn("auth_failed", "status", http.StatusUnauthorized, "reason", "bad subject", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token.")
		}

		user, err := m.Users.Authenticate(ctx, id)
		if err != nil {
			l.Warn("auth_failed", "status", http.StatusUnauthorized, "reason", "user not found or inactive", "user_id", id, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "User not found or inactive.")
		}

		ctx = WithPrincipal(ctx, user)
		ctx = logging.IntoContext(ctx, l.With("user_id", user.ID))
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
