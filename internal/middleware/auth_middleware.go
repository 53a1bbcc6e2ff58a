package middleware

import (
	"myJara/domain"
	"myJara/pkg/logger"
	"myJara/pkg/utils"
	"net/http"
	"strings"

	jsonres "myJara/pkg/response"

	"github.com/labstack/echo/v4"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// AuthMiddleware verifies the bearer token issued by the auth provider.
// Browsers cannot set headers on a websocket upgrade, so ?token= is accepted as a fallback.
func AuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := ""

			if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
				tokenParts := strings.Split(authHeader, " ")
				if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
					return c.JSON(http.StatusUnauthorized, jsonres.Error(
						"UNAUTHORIZED", "Invalid authorization format", nil,
					))
				}
				tokenString = tokenParts[1]
			}

			if tokenString == "" {
				tokenString = c.QueryParam("token")
			}

			if tokenString == "" {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Missing authorization header", nil,
				))
			}

			// expiry is checked by the jwt parser
			claims, err := utils.ParseJWT(tokenString, secret)
			if err != nil {
				logger.Debug("rejected token", err)
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Invalid token", nil,
				))
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)

			return next(c)
		}
	}
}

func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roleStr, ok := c.Get(ContextRole).(string)
			if !ok || !strings.EqualFold(roleStr, domain.RoleAdmin) {
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Admin access required", nil,
				))
			}

			return next(c)
		}
	}
}

// UserID returns the authenticated identity, or "" on public routes.
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

func Role(c echo.Context) string {
	role, _ := c.Get(ContextRole).(string)
	return role
}
