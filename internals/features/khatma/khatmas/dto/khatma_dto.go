// file: internals/features/khatma/khatmas/dto/khatma_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	m "khatmaku_backend/internals/features/khatma/khatmas/model"
	svc "khatmaku_backend/internals/features/khatma/khatmas/service"
)

/* =========================================================
 * REQUESTS
 * ========================================================= */

type CreateKhatmaRequest struct {
	KhatmaDeceasedID uuid.UUID `json:"khatma_deceased_id" validate:"required"`
	// Default false: mode baca sendiri (hanya owner yang boleh claim)
	KhatmaIsShared *bool `json:"khatma_is_shared" validate:"omitempty"`
}

func (r CreateKhatmaRequest) IsShared() bool {
	return r.KhatmaIsShared != nil && *r.KhatmaIsShared
}

/* =========================================================
 * RESPONSE
 * ========================================================= */

type KhatmaResponse struct {
	KhatmaID          uuid.UUID          `json:"khatma_id"`
	KhatmaDeceasedID  uuid.UUID          `json:"khatma_deceased_id"`
	KhatmaOwnerUserID uuid.UUID          `json:"khatma_owner_user_id"`
	KhatmaIsShared    bool               `json:"khatma_is_shared"`
	KhatmaStatus      m.KhatmaStatusEnum `json:"khatma_status"`
	KhatmaCreatedAt   time.Time          `json:"khatma_created_at"`
	KhatmaUpdatedAt   time.Time          `json:"khatma_updated_at"`
}

type KhatmaJuzResponse struct {
	KhatmaJuzID             uuid.UUID       `json:"khatma_juz_id"`
	KhatmaJuzKhatmaID       uuid.UUID       `json:"khatma_juz_khatma_id"`
	KhatmaJuzNumber         int             `json:"khatma_juz_number"`
	KhatmaJuzAssignedUserID *uuid.UUID      `json:"khatma_juz_assigned_user_id"`
	KhatmaJuzStatus         m.JuzStatusEnum `json:"khatma_juz_status"`
	KhatmaJuzCompletedAt    *time.Time      `json:"khatma_juz_completed_at"`
	KhatmaJuzVersion        int             `json:"khatma_juz_version"`
	// Dihitung relatif ke user yang request
	KhatmaJuzIsMine bool `json:"khatma_juz_is_mine"`
}

type KhatmaBoardResponse struct {
	Khatma   KhatmaResponse      `json:"khatma"`
	Juz      []KhatmaJuzResponse `json:"juz"`
	Progress svc.Progress        `json:"progress"`
}

type JuzActionResponse struct {
	Juz          KhatmaJuzResponse  `json:"juz"`
	KhatmaStatus m.KhatmaStatusEnum `json:"khatma_status"`
	NoOp         bool               `json:"noop"`
}

/* =========================================================
 * MAPPERS
 * ========================================================= */

func NewKhatmaResponse(k m.KhatmaModel) KhatmaResponse {
	return KhatmaResponse{
		KhatmaID:          k.KhatmaID,
		KhatmaDeceasedID:  k.KhatmaDeceasedID,
		KhatmaOwnerUserID: k.KhatmaOwnerUserID,
		KhatmaIsShared:    k.KhatmaIsShared,
		KhatmaStatus:      k.KhatmaStatus,
		KhatmaCreatedAt:   k.KhatmaCreatedAt,
		KhatmaUpdatedAt:   k.KhatmaUpdatedAt,
	}
}

func NewKhatmaJuzResponse(j m.KhatmaJuzModel, viewer uuid.UUID) KhatmaJuzResponse {
	return KhatmaJuzResponse{
		KhatmaJuzID:             j.KhatmaJuzID,
		KhatmaJuzKhatmaID:       j.KhatmaJuzKhatmaID,
		KhatmaJuzNumber:         j.KhatmaJuzNumber,
		KhatmaJuzAssignedUserID: j.KhatmaJuzAssignedUserID,
		KhatmaJuzStatus:         j.KhatmaJuzStatus,
		KhatmaJuzCompletedAt:    j.KhatmaJuzCompletedAt,
		KhatmaJuzVersion:        j.KhatmaJuzVersion,
		KhatmaJuzIsMine:         j.IsAssignedTo(viewer),
	}
}

// NewKhatmaBoardResponse: status khatma diambil dari turunan juz, bukan kolom tersimpan.
func NewKhatmaBoardResponse(b svc.Board, viewer uuid.UUID) KhatmaBoardResponse {
	k := NewKhatmaResponse(b.Khatma)
	k.KhatmaStatus = b.Status

	juz := make([]KhatmaJuzResponse, 0, len(b.Juz))
	for _, j := range b.Juz {
		juz = append(juz, NewKhatmaJuzResponse(j, viewer))
	}
	return KhatmaBoardResponse{Khatma: k, Juz: juz, Progress: b.Progress}
}

func NewJuzActionResponse(r svc.JuzResult, viewer uuid.UUID) JuzActionResponse {
	return JuzActionResponse{
		Juz:          NewKhatmaJuzResponse(r.Juz, viewer),
		KhatmaStatus: r.KhatmaStatus,
		NoOp:         r.NoOp,
	}
}

func NewKhatmaResponses(rows []m.KhatmaModel) []KhatmaResponse {
	out := make([]KhatmaResponse, 0, len(rows))
	for _, k := range rows {
		out = append(out, NewKhatmaResponse(k))
	}
	return out
}
