package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Locals yang diisi middleware ini.
const (
	LocUserID    = "user_id"
	LocJWTClaims = "jwt_claims"
)

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool // cookie access_token kalau tidak ada Bearer
	// Optional: request tanpa token tetap lanjut (tanpa user_id), token rusak tetap 401
	Optional bool
}

// AuthJWT verifikasi HS* token dari identity provider lalu pasang user_id ke Locals.
// Service tidak pernah melihat token, hanya user_id yang sudah resolved.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret wajib diisi")
	}

	return func(c *fiber.Ctx) error {
		raw := bearerToken(c, o.AllowCookieFallback)
		if raw == "" {
			if o.Optional {
				return c.Next()
			}
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
		}
		c.Locals(LocJWTClaims, claims)

		// id → sub → user_id
		uid := firstNonEmpty(strClaim(claims, "id"), strClaim(claims, "sub"), strClaim(claims, "user_id"))
		if uid == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Token tanpa user id")
		}
		if _, err := uuid.Parse(uid); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "user_id pada token tidak valid")
		}
		c.Locals(LocUserID, uid)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx, cookieFallback bool) string {
	authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	if cookieFallback {
		return strings.TrimSpace(c.Cookies("access_token"))
	}
	return ""
}

func strClaim(m jwt.MapClaims, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
