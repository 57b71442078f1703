package route

import (
	"github.com/gofiber/fiber/v2"

	"khatmaku_backend/internals/features/activities/activity_logs/controller"
	svc "khatmaku_backend/internals/features/activities/activity_logs/service"
)

// ActivityLogUserRoutes: group /api/u.
func ActivityLogUserRoutes(r fiber.Router, s *svc.ActivityService) {
	h := controller.NewActivityLogController(s)

	g := r.Group("/activities")
	g.Get("/", h.ListMine)
	g.Get("/summary/weekly", h.WeeklySummary)
	g.Post("/dua", h.LogDua)
	g.Post("/deed", h.LogDeed)
	g.Post("/quran", h.LogQuran)
}
