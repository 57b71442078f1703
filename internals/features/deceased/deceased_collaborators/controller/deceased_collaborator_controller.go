// file: internals/features/deceased/deceased_collaborators/controller/deceased_collaborator_controller.go
package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"khatmaku_backend/internals/features/deceased/deceased_collaborators/dto"
	svc "khatmaku_backend/internals/features/deceased/deceased_collaborators/service"
	helper "khatmaku_backend/internals/helpers"
)

type CollaboratorController struct {
	Svc *svc.CollaboratorService
}

func NewCollaboratorController(s *svc.CollaboratorService) *CollaboratorController {
	return &CollaboratorController{Svc: s}
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
	case errors.Is(err, svc.ErrInvalidCode):
		return helper.JsonErrorCode(c, fiber.StatusForbidden, "INVALID_INVITE_CODE", "Kode undangan tidak valid", false)
	case errors.Is(err, svc.ErrNotFound):
		return helper.JsonErrorCode(c, fiber.StatusNotFound, "NOT_FOUND", "Profil almarhum tidak ditemukan", false)
	case errors.Is(err, svc.ErrNotMember):
		return helper.JsonErrorCode(c, fiber.StatusNotFound, "NOT_MEMBER", "Anda bukan anggota profil ini", false)
	default:
		log.Printf("[COLLAB] %s %s: %v", c.Method(), c.Path(), err)
		return helper.JsonErrorCode(c, fiber.StatusInternalServerError, "PERSISTENCE_FAILURE", "Terjadi kesalahan server", false)
	}
}

// POST /deceased/:id/join
func (h *CollaboratorController) Join(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req dto.JoinRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
		}
	}
	if err := helper.Validate(req); err != nil {
		return helper.ValidationError(c, err)
	}

	res, err := h.Svc.Join(c.UserContext(), actor, id, req.InviteCode)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.JoinResponse{DeceasedID: id, Result: res}
	if res == svc.JoinCreated {
		return helper.JsonCreated(c, "Berhasil bergabung", out)
	}
	return helper.JsonOK(c, "Sudah menjadi anggota", out)
}

// DELETE /deceased/:id/join
func (h *CollaboratorController) Leave(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Svc.Leave(c.UserContext(), actor, id); err != nil {
		return writeError(c, err)
	}
	return helper.JsonDeleted(c, "Keluar dari profil", fiber.Map{"deceased_id": id})
}

// GET /deceased/:id/members
func (h *CollaboratorController) Members(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	rows, err := h.Svc.Members(c.UserContext(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.NewCollaboratorResponses(rows))
}

// POST /deceased/:id/invite-code (owner)
func (h *CollaboratorController) RotateInviteCode(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	code, err := h.Svc.RotateInviteCode(c.UserContext(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonCreated(c, "Kode undangan baru dibuat", dto.InviteCodeResponse{DeceasedID: id, InviteCode: code})
}
