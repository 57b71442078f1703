// file: internals/features/deceased/deceased_collaborators/model/deceased_collaborator_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type CollaboratorRoleEnum string

const (
	RoleCollaborator CollaboratorRoleEnum = "collaborator"
)

// PK komposit (deceased_id, user_id): satu user hanya sekali jadi anggota.
type DeceasedCollaboratorModel struct {
	DeceasedCollaboratorDeceasedID uuid.UUID            `gorm:"column:deceased_collaborator_deceased_id;type:uuid;primaryKey" json:"deceased_collaborator_deceased_id"`
	DeceasedCollaboratorUserID     uuid.UUID            `gorm:"column:deceased_collaborator_user_id;type:uuid;primaryKey;index" json:"deceased_collaborator_user_id"`
	DeceasedCollaboratorRole       CollaboratorRoleEnum `gorm:"column:deceased_collaborator_role;type:varchar(20);not null;default:'collaborator'" json:"deceased_collaborator_role"`
	DeceasedCollaboratorCreatedAt  time.Time            `gorm:"column:deceased_collaborator_created_at;type:timestamptz;not null;autoCreateTime" json:"deceased_collaborator_created_at"`
}

func (DeceasedCollaboratorModel) TableName() string { return "deceased_collaborators" }
