package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const ContextDeviceIDKey = "device_id"

// DeviceMiddleware проверяет токен устройства и сохраняет device_id в контексте.
// EventSource cannot send headers, so the token is also accepted as the "token" query parameter.
func DeviceMiddleware(manager *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := bearerToken(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			deviceID, err := manager.ParseDeviceToken(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextDeviceIDKey, deviceID)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		query := strings.TrimSpace(c.QueryParam("token"))
		return query, query != ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}

	return strings.TrimSpace(parts[1]), true
}

// DeviceIDFromContext извлекает идентификатор устройства из контекста.
func DeviceIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(ContextDeviceIDKey)
	deviceID, ok := value.(uuid.UUID)
	return deviceID, ok
}
