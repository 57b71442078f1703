// file: internals/features/khatma/khatmas/controller/khatma_controller.go
package controller

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"khatmaku_backend/internals/features/khatma/khatmas/dto"
	svc "khatmaku_backend/internals/features/khatma/khatmas/service"
	helper "khatmaku_backend/internals/helpers"
)

type KhatmaController struct {
	Svc *svc.KhatmaService
}

func NewKhatmaController(s *svc.KhatmaService) *KhatmaController {
	return &KhatmaController{Svc: s}
}

/* =========================
   Error mapping
========================= */

// writeError: kind error service → status + error_code. Conflict & AlreadyClaimed minta klien refresh board.
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
		return helper.JsonErrorCode(c, fiber.StatusNotFound, "NOT_FOUND", "Khatma atau juz tidak ditemukan", false)
	case errors.Is(err, svc.ErrAlreadyClaimed):
		return helper.JsonErrorCode(c, fiber.StatusConflict, "ALREADY_CLAIMED", "Juz sudah diambil orang lain, muat ulang board", true)
	case errors.Is(err, svc.ErrConflict):
		return helper.JsonErrorCode(c, fiber.StatusConflict, "CONFLICT", "Juz baru saja berubah, muat ulang board", true)
	case errors.Is(err, svc.ErrInvalidState):
		return helper.JsonErrorCode(c, fiber.StatusUnprocessableEntity, "INVALID_STATE", err.Error(), false)
	case errors.Is(err, svc.ErrPersistenceConflict):
		return helper.JsonErrorCode(c, fiber.StatusConflict, "PERSISTENCE_CONFLICT", "Gagal menyimpan khatma, coba lagi", false)
	default:
		log.Printf("[KHATMA] %s %s: %v", c.Method(), c.Path(), err)
		return helper.JsonErrorCode(c, fiber.StatusInternalServerError, "PERSISTENCE_FAILURE", "Terjadi kesalahan server", false)
	}
}

func actorAndParam(c *fiber.Ctx, param string) (uuid.UUID, uuid.UUID, error) {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := helper.ParseUUIDParam(c, param)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return actor, id, nil
}

/* =========================
   Handlers
========================= */

// POST /khatmas
func (h *KhatmaController) Create(c *fiber.Ctx) error {
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return writeError(c, err)
	}
	var req dto.CreateKhatmaRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := helper.Validate(req); err != nil {
		return helper.ValidationError(c, err)
	}

	b, err := h.Svc.Create(c.UserContext(), actor, req.KhatmaDeceasedID, req.IsShared())
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonCreated(c, "Khatma dibuat", dto.NewKhatmaBoardResponse(*b, actor))
}

// GET /khatmas/:id
func (h *KhatmaController) GetBoard(c *fiber.Ctx) error {
	actor, id, err := actorAndParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	b, err := h.Svc.Board(c.UserContext(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.NewKhatmaBoardResponse(*b, actor))
}

// GET /deceased/:deceased_id/khatmas
func (h *KhatmaController) ListByDeceased(c *fiber.Ctx) error {
	actor, deceasedID, err := actorAndParam(c, "deceased_id")
	if err != nil {
		return writeError(c, err)
	}
	rows, err := h.Svc.ListForDeceased(c.UserContext(), actor, deceasedID)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.NewKhatmaResponses(rows))
}

// POST /khatmas/juz/:juz_id/claim
func (h *KhatmaController) Claim(c *fiber.Ctx) error {
	return h.juzAction(c, h.Svc.ClaimJuz, "Juz diambil")
}

// POST /khatmas/juz/:juz_id/release
func (h *KhatmaController) Release(c *fiber.Ctx) error {
	return h.juzAction(c, h.Svc.ReleaseJuz, "Juz dilepas")
}

// POST /khatmas/juz/:juz_id/complete
func (h *KhatmaController) Complete(c *fiber.Ctx) error {
	return h.juzAction(c, h.Svc.CompleteJuz, "Juz selesai dibaca")
}

type juzOp func(ctx context.Context, actor, juzID uuid.UUID) (*svc.JuzResult, error)

func (h *KhatmaController) juzAction(c *fiber.Ctx, op juzOp, okMsg string) error {
	actor, juzID, err := actorAndParam(c, "juz_id")
	if err != nil {
		return writeError(c, err)
	}
	res, err := op(c.UserContext(), actor, juzID)
	if err != nil {
		return writeError(c, err)
	}
	if res.NoOp {
		okMsg = "Tidak ada perubahan"
	}
	return helper.JsonOK(c, okMsg, dto.NewJuzActionResponse(*res, actor))
}

// POST /khatmas/:id/force-complete (owner)
func (h *KhatmaController) ForceComplete(c *fiber.Ctx) error {
	actor, id, err := actorAndParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	b, err := h.Svc.ForceComplete(c.UserContext(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonUpdated(c, "Khatma ditutup", dto.NewKhatmaBoardResponse(*b, actor))
}

// DELETE /khatmas/:id (owner)
func (h *KhatmaController) Delete(c *fiber.Ctx) error {
	actor, id, err := actorAndParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Svc.Delete(c.UserContext(), actor, id); err != nil {
		return writeError(c, err)
	}
	return helper.JsonDeleted(c, "Khatma dihapus", fiber.Map{"khatma_id": id})
}
