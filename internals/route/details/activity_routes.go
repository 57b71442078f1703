package details

import (
	"github.com/gofiber/fiber/v2"

	activityRoute "khatmaku_backend/internals/features/activities/activity_logs/route"
	activitySvc "khatmaku_backend/internals/features/activities/activity_logs/service"
)

// ✅ Untuk route user login (dengan token)
// Contoh akses: /api/u/activities/summary/weekly
func ActivityUserRoutes(api fiber.Router, s *activitySvc.ActivityService) {
	activityRoute.ActivityLogUserRoutes(api, s)
}
