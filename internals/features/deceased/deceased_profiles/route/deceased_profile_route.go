package route

import (
	"github.com/gofiber/fiber/v2"

	"khatmaku_backend/internals/features/deceased/deceased_profiles/controller"
	svc "khatmaku_backend/internals/features/deceased/deceased_profiles/service"
)

// DeceasedProfileUserRoutes: group /api/u (login wajib).
func DeceasedProfileUserRoutes(r fiber.Router, s *svc.ProfileService) {
	h := controller.NewDeceasedProfileController(s)

	g := r.Group("/deceased")
	g.Post("/", h.Create)
	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	g.Patch("/:id", h.Update)
	g.Patch("/:id/visibility", h.SetVisibility)
	g.Delete("/:id", h.Delete)
}

// DeceasedProfilePublicRoutes: group /api/public, tanpa login.
func DeceasedProfilePublicRoutes(r fiber.Router, s *svc.ProfileService) {
	h := controller.NewDeceasedProfileController(s)
	r.Get("/deceased/slug/:slug", h.GetPublicBySlug)
}
