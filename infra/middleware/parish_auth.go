package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"parish_server/pkg/apperr"
)

// PushAuth guards the notification endpoint. The bearer token must be
// signed with the shared secret and, when an audience is configured,
// carry it in the aud claim.
func PushAuth(secret, audience string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return apperr.Unauthorized("missing bearer token")
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, apperr.Unauthorized("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return apperr.Unauthorized("invalid token")
		}

		if audience != "" {
			auds, err := token.Claims.GetAudience()
			if err != nil || !containsAudience(auds, audience) {
				return apperr.Unauthorized("invalid audience")
			}
		}
		return c.Next()
	}
}

func containsAudience(auds jwt.ClaimStrings, want string) bool {
	for _, a := range auds {
		if a == want {
			return true
		}
	}
	return false
}
