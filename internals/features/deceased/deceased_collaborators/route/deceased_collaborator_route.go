package route

import (
	"github.com/gofiber/fiber/v2"

	"khatmaku_backend/internals/features/deceased/deceased_collaborators/controller"
	svc "khatmaku_backend/internals/features/deceased/deceased_collaborators/service"
)

// CollaboratorUserRoutes: group /api/u. joinLimiter boleh nil.
func CollaboratorUserRoutes(r fiber.Router, s *svc.CollaboratorService, joinLimiter fiber.Handler) {
	h := controller.NewCollaboratorController(s)

	g := r.Group("/deceased/:id")
	if joinLimiter != nil {
		g.Post("/join", joinLimiter, h.Join)
	} else {
		g.Post("/join", h.Join)
	}
	g.Delete("/join", h.Leave)
	g.Get("/members", h.Members)
	g.Post("/invite-code", h.RotateInviteCode)
}
