package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"tripdesk/internal/common"
	"tripdesk/internal/config"
	"tripdesk/internal/repositories"
	"tripdesk/pkg/logger"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const tokenContextKey = "user"

// Claims are the access-token claims issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// JWTAuth validates bearer tokens, against the JWKS endpoint when one is
// configured and the shared HS256 secret otherwise. The returned stop func
// ends the background JWKS refresh.
func JWTAuth(cfg config.JWTConfig) (echo.MiddlewareFunc, func(), error) {
	jwtConfig := echojwt.Config{
		ContextKey: tokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logger.FromEcho(c).Debug("token rejected", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		},
	}

	stop := func() {}
	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				logger.GetLogger().Warn("jwks refresh failed", zap.Error(err))
			},
		})
		if err != nil {
			return nil, nil, err
		}
		jwtConfig.KeyFunc = jwks.Keyfunc
		stop = jwks.EndBackground
	} else {
		if cfg.Secret == "" {
			return nil, nil, errors.New("jwt secret is empty")
		}
		jwtConfig.SigningKey = []byte(cfg.Secret)
		jwtConfig.SigningMethod = echojwt.AlgorithmHS256
	}
	return echojwt.WithConfig(jwtConfig), stop, nil
}

// Authenticate turns validated claims into the request user and mirrors the
// account locally so memberships can reference it.
func Authenticate(userRepo repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get(tokenContextKey).(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}
			claims, ok := token.Claims.(*Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
			}
			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
			}
			email := strings.ToLower(strings.TrimSpace(claims.Email))

			ctx := c.Request().Context()
			if err := userRepo.Ensure(ctx, userID, email); err != nil {
				return common.SecureErrorMessage("load user", err)
			}

			c.SetRequest(c.Request().WithContext(common.WithUser(ctx, userID, email)))
			return next(c)
		}
	}
}
