package middleware

import (
	"net/http"
	"strings"

	"genmarket/pkg/jwtutil"
	"genmarket/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const adminTokenCookie = "admin-token"

// AdminAuthMiddleware creates a middleware that validates admin JWT tokens,
// accepted either as a Bearer header or the admin session cookie
func AdminAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			tokenString := bearerToken(c)
			if tokenString == "" {
				if cookie, err := c.Cookie(adminTokenCookie); err == nil {
					tokenString = cookie.Value
				}
			}
			if tokenString == "" {
				log.Warn("Missing admin credentials")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized access"})
			}

			claims, err := jwtUtil.ValidateToken(tokenString)
			if err != nil {
				log.Warn("Invalid or expired admin token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized access"})
			}
			if claims.Role != "admin" {
				log.Warn("Token does not carry the admin role", zap.String("role", claims.Role))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized access"})
			}

			c.Set("admin", claims)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
