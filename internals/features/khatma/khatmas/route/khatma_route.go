package route

import (
	"github.com/gofiber/fiber/v2"

	"khatmaku_backend/internals/features/khatma/khatmas/controller"
	svc "khatmaku_backend/internals/features/khatma/khatmas/service"
)

// KhatmaUserRoutes: semua endpoint butuh user login (group /api/u).
// juzLimiter boleh nil.
func KhatmaUserRoutes(r fiber.Router, s *svc.KhatmaService, juzLimiter fiber.Handler) {
	h := controller.NewKhatmaController(s)

	g := r.Group("/khatmas")
	g.Post("/", h.Create)
	g.Get("/:id", h.GetBoard)
	g.Post("/:id/force-complete", h.ForceComplete)
	g.Delete("/:id", h.Delete)

	juz := g.Group("/juz/:juz_id")
	if juzLimiter != nil {
		juz.Use(juzLimiter)
	}
	juz.Post("/claim", h.Claim)
	juz.Post("/release", h.Release)
	juz.Post("/complete", h.Complete)

	r.Get("/deceased/:deceased_id/khatmas", h.ListByDeceased)
}
