package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func tooMany(msg string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success":    false,
			"message":    msg,
			"error_code": "RATE_LIMITED",
		})
	}
}

// Global limiter: semua endpoint, per IP
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: tooMany("Terlalu banyak permintaan. Silakan coba lagi nanti."),
	})
}

// JuzActionRateLimiter: claim/release/complete per user (fallback IP).
// Dipasang setelah AuthJWT supaya user_id sudah ada.
func JuzActionRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if uid, ok := c.Locals("user_id").(string); ok && uid != "" {
				return "juz:" + uid
			}
			return "juz-ip:" + c.IP()
		},
		LimitReached: tooMany("Terlalu banyak aksi juz. Tunggu sebentar lalu muat ulang board."),
	})
}

// Rate limiter join kolaborator (tebak kode undangan)
func JoinRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 5 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: tooMany("Terlalu banyak percobaan kode undangan. Coba beberapa menit lagi."),
	})
}
