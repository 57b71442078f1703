// file: internals/features/deceased/deceased_collaborators/dto/deceased_collaborator_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"khatmaku_backend/internals/features/deceased/deceased_collaborators/model"
	svc "khatmaku_backend/internals/features/deceased/deceased_collaborators/service"
)

// JoinRequest: kode wajib hanya untuk profil private.
type JoinRequest struct {
	InviteCode string `json:"invite_code" validate:"omitempty,max=32"`
}

type JoinResponse struct {
	DeceasedID uuid.UUID      `json:"deceased_id"`
	Result     svc.JoinResult `json:"result"`
}

type InviteCodeResponse struct {
	DeceasedID uuid.UUID `json:"deceased_id"`
	InviteCode string    `json:"invite_code"`
}

type CollaboratorResponse struct {
	DeceasedCollaboratorDeceasedID uuid.UUID                  `json:"deceased_collaborator_deceased_id"`
	DeceasedCollaboratorUserID     uuid.UUID                  `json:"deceased_collaborator_user_id"`
	DeceasedCollaboratorRole       model.CollaboratorRoleEnum `json:"deceased_collaborator_role"`
	DeceasedCollaboratorCreatedAt  time.Time                  `json:"deceased_collaborator_created_at"`
}

func NewCollaboratorResponses(rows []model.DeceasedCollaboratorModel) []CollaboratorResponse {
	out := make([]CollaboratorResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, CollaboratorResponse{
			DeceasedCollaboratorDeceasedID: r.DeceasedCollaboratorDeceasedID,
			DeceasedCollaboratorUserID:     r.DeceasedCollaboratorUserID,
			DeceasedCollaboratorRole:       r.DeceasedCollaboratorRole,
			DeceasedCollaboratorCreatedAt:  r.DeceasedCollaboratorCreatedAt,
		})
	}
	return out
}
