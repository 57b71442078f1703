package details

import (
	"github.com/gofiber/fiber/v2"

	collabRoute "khatmaku_backend/internals/features/deceased/deceased_collaborators/route"
	collabSvc "khatmaku_backend/internals/features/deceased/deceased_collaborators/service"
	profileRoute "khatmaku_backend/internals/features/deceased/deceased_profiles/route"
	profileSvc "khatmaku_backend/internals/features/deceased/deceased_profiles/service"
	"khatmaku_backend/internals/middlewares"
)

// ✅ Untuk route publik tanpa token
// Contoh akses: /api/public/deceased/slug/ahmad-fauzi
func DeceasedPublicRoutes(api fiber.Router, profiles *profileSvc.ProfileService) {
	profileRoute.DeceasedProfilePublicRoutes(api, profiles)
}

// ✅ Untuk route user login (dengan token)
// Contoh akses: /api/u/deceased, /api/u/deceased/:id/join
func DeceasedUserRoutes(api fiber.Router, profiles *profileSvc.ProfileService, collabs *collabSvc.CollaboratorService) {
	profileRoute.DeceasedProfileUserRoutes(api, profiles)
	collabRoute.CollaboratorUserRoutes(api, collabs, middlewares.JoinRateLimiter())
}
