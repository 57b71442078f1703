// file: internals/features/activities/activity_logs/controller/activity_log_controller.go
package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"khatmaku_backend/internals/features/activities/activity_logs/dto"
	svc "khatmaku_backend/internals/features/activities/activity_logs/service"
	helper "khatmaku_backend/internals/helpers"
)

type ActivityLogController struct {
	Svc *svc.ActivityService
}

func NewActivityLogController(s *svc.ActivityService) *ActivityLogController {
	return &ActivityLogController{Svc: s}
}

func writeError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return helper.JsonError(c, fe.Code, fe.Message)
	case errors.Is(err, svc.ErrUnauthenticated):
		return helper.JsonErrorCode(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "User belum login", false)
	case errors.Is(err, svc.ErrForbidden):
		return helper.JsonErrorCode(c, fiber.StatusForbidden, "FORBIDDEN", err.Error(), false)
	case errors.Is(err, svc.ErrNotFound):
		return helper.JsonErrorCode(c, fiber.StatusNotFound, "NOT_FOUND", "Profil almarhum tidak ditemukan", false)
	case errors.Is(err, svc.ErrInvalidInput):
		return helper.JsonErrorCode(c, fiber.StatusUnprocessableEntity, "INVALID_INPUT", err.Error(), false)
	default:
		log.Printf("[ACTIVITY] %s %s: %v", c.Method(), c.Path(), err)
		return helper.JsonErrorCode(c, fiber.StatusInternalServerError, "PERSISTENCE_FAILURE", "Terjadi kesalahan server", false)
	}
}

// POST /activities/dua | /activities/deed
func (h *ActivityLogController) logSimple(c *fiber.Ctx, dua bool) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	var req dto.LogSimpleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := helper.Validate(req); err != nil {
		return helper.ValidationError(c, err)
	}

	record := h.Svc.LogDeed
	if dua {
		record = h.Svc.LogDua
	}
	m, err := record(c.UserContext(), actor, req.ActivityLogDeceasedID)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonCreated(c, "Aktivitas dicatat", dto.NewActivityLogResponse(*m))
}

func (h *ActivityLogController) LogDua(c *fiber.Ctx) error  { return h.logSimple(c, true) }
func (h *ActivityLogController) LogDeed(c *fiber.Ctx) error { return h.logSimple(c, false) }

// POST /activities/quran
func (h *ActivityLogController) LogQuran(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	var req dto.LogQuranRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := helper.Validate(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m, err := h.Svc.LogQuran(c.UserContext(), actor, req.ActivityLogDeceasedID, req.ToInput())
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonCreated(c, "Bacaan dicatat", dto.NewActivityLogResponse(*m))
}

// GET /activities?page=&per_page=
func (h *ActivityLogController) ListMine(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	pg := helper.ResolvePaging(c, 20, 100)
	rows, total, err := h.Svc.ListMine(c.UserContext(), actor, pg.Limit, pg.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonList(c, "ok", dto.NewActivityLogResponses(rows), helper.BuildPagination(total, pg, len(rows)))
}

// GET /activities/summary/weekly
func (h *ActivityLogController) WeeklySummary(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	sum, err := h.Svc.WeeklySummary(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", sum)
}
