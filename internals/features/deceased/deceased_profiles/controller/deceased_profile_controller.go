// file: internals/features/deceased/deceased_profiles/controller/deceased_profile_controller.go
package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"khatmaku_backend/internals/features/deceased/deceased_profiles/dto"
	svc "khatmaku_backend/internals/features/deceased/deceased_profiles/service"
	helper "khatmaku_backend/internals/helpers"
)

type DeceasedProfileController struct {
	Svc *svc.ProfileService
}

func NewDeceasedProfileController(s *svc.ProfileService) *DeceasedProfileController {
	return &DeceasedProfileController{Svc: s}
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
	case errors.Is(err, svc.ErrDuplicate):
		return helper.JsonErrorCode(c, fiber.StatusConflict, "DUPLICATE", "Slug publik bentrok, coba lagi", false)
	default:
		log.Printf("[DECEASED] %s %s: %v", c.Method(), c.Path(), err)
		return helper.JsonErrorCode(c, fiber.StatusInternalServerError, "PERSISTENCE_FAILURE", "Terjadi kesalahan server", false)
	}
}

// POST /deceased
func (h *DeceasedProfileController) Create(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	var req dto.CreateDeceasedProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := helper.Validate(req); err != nil {
		return helper.ValidationError(c, err)
	}
	p, err := h.Svc.Create(c.UserContext(), actor, req.ToInput())
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonCreated(c, "Profil almarhum dibuat", dto.NewDeceasedProfileResponse(*p, actor))
}

// GET /deceased?scope=all&page=&per_page=
// default: milik sendiri + yang diikuti; scope=all ikut menampilkan profil public.
func (h *DeceasedProfileController) List(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	pg := helper.ResolvePaging(c, 20, 100)
	includePublic := strings.EqualFold(strings.TrimSpace(c.Query("scope")), "all")

	rows, total, err := h.Svc.List(c.UserContext(), actor, includePublic, pg.Limit, pg.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonList(c, "ok", dto.NewDeceasedProfileResponses(rows, actor), helper.BuildPagination(total, pg, len(rows)))
}

// GET /deceased/:id
func (h *DeceasedProfileController) Get(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	p, err := h.Svc.Get(c.UserContext(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.NewDeceasedProfileResponse(*p, actor))
}

// PATCH /deceased/:id
func (h *DeceasedProfileController) Update(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req dto.UpdateDeceasedProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := helper.Validate(req); err != nil {
		return helper.ValidationError(c, err)
	}
	p, err := h.Svc.Update(c.UserContext(), actor, id, req.ToInput())
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonUpdated(c, "Profil almarhum diperbarui", dto.NewDeceasedProfileResponse(*p, actor))
}

// PATCH /deceased/:id/visibility
func (h *DeceasedProfileController) SetVisibility(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req dto.SetVisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := helper.Validate(req); err != nil {
		return helper.ValidationError(c, err)
	}
	p, err := h.Svc.SetVisibility(c.UserContext(), actor, id, req.DeceasedProfileVisibility)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonUpdated(c, "Visibility diperbarui", dto.NewDeceasedProfileResponse(*p, actor))
}

// DELETE /deceased/:id
func (h *DeceasedProfileController) Delete(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Svc.Delete(c.UserContext(), actor, id); err != nil {
		return writeError(c, err)
	}
	return helper.JsonDeleted(c, "Profil almarhum dihapus", fiber.Map{"deceased_profile_id": id})
}

// GET /public/deceased/slug/:slug
func (h *DeceasedProfileController) GetPublicBySlug(c *fiber.Ctx) error {
	p, err := h.Svc.GetPublicBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.NewPublicDeceasedProfileResponse(*p))
}
