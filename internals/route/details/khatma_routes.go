package details

import (
	"github.com/gofiber/fiber/v2"

	khatmaRoute "khatmaku_backend/internals/features/khatma/khatmas/route"
	khatmaSvc "khatmaku_backend/internals/features/khatma/khatmas/service"
	"khatmaku_backend/internals/middlewares"
)

// ✅ Untuk route user login (dengan token)
// Contoh akses: /api/u/khatmas/:id, /api/u/khatmas/juz/:juz_id/claim
func KhatmaUserRoutes(api fiber.Router, s *khatmaSvc.KhatmaService) {
	khatmaRoute.KhatmaUserRoutes(api, s, middlewares.JuzActionRateLimiter())
}
