// file: internals/features/khatma/khatmas/model/khatma_juz_model.go
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JuzStatusEnum string

const (
	JuzStatusUnclaimed  JuzStatusEnum = "unclaimed"
	JuzStatusInProgress JuzStatusEnum = "in_progress"
	JuzStatusCompleted  JuzStatusEnum = "completed"
)

func (s JuzStatusEnum) Valid() bool {
	switch s {
	case JuzStatusUnclaimed, JuzStatusInProgress, JuzStatusCompleted:
		return true
	}
	return false
}

var ErrJuzInvariant = errors.New("khatma juz invariant violated")

type KhatmaJuzModel struct {
	// PK
	KhatmaJuzID uuid.UUID `gorm:"column:khatma_juz_id;type:uuid;default:gen_random_uuid();primaryKey" json:"khatma_juz_id"`

	// (khatma_id, number) unik
	KhatmaJuzKhatmaID uuid.UUID `gorm:"column:khatma_juz_khatma_id;type:uuid;not null;uniqueIndex:uq_khatma_juz_number,priority:1" json:"khatma_juz_khatma_id"`
	KhatmaJuzNumber   int       `gorm:"column:khatma_juz_number;not null;check:khatma_juz_number BETWEEN 1 AND 30;uniqueIndex:uq_khatma_juz_number,priority:2" json:"khatma_juz_number"`

	// State
	KhatmaJuzAssignedUserID *uuid.UUID    `gorm:"column:khatma_juz_assigned_user_id;type:uuid;index" json:"khatma_juz_assigned_user_id"`
	KhatmaJuzStatus         JuzStatusEnum `gorm:"column:khatma_juz_status;type:varchar(16);not null;default:'unclaimed'" json:"khatma_juz_status"`
	KhatmaJuzCompletedAt    *time.Time    `gorm:"column:khatma_juz_completed_at;type:timestamptz" json:"khatma_juz_completed_at"`

	// Row version untuk compare-and-swap
	KhatmaJuzVersion int `gorm:"column:khatma_juz_version;not null;default:1" json:"khatma_juz_version"`

	// Audit
	KhatmaJuzCreatedAt time.Time `gorm:"column:khatma_juz_created_at;type:timestamptz;not null;autoCreateTime" json:"khatma_juz_created_at"`
	KhatmaJuzUpdatedAt time.Time `gorm:"column:khatma_juz_updated_at;type:timestamptz;not null;autoUpdateTime" json:"khatma_juz_updated_at"`
}

func (KhatmaJuzModel) TableName() string { return "khatma_juz" }

// IsAssignedTo true kalau juz sedang dipegang userID.
func (m KhatmaJuzModel) IsAssignedTo(userID uuid.UUID) bool {
	return userID != uuid.Nil && m.KhatmaJuzAssignedUserID != nil && *m.KhatmaJuzAssignedUserID == userID
}

// CheckInvariant memastikan status, assignee, dan completed_at konsisten:
//
//	unclaimed   ⇔ assignee nil ∧ completed_at nil
//	in_progress ⇔ assignee set ∧ completed_at nil
//	completed   ⇒ assignee set ∧ completed_at set
func (m KhatmaJuzModel) CheckInvariant() error {
	if m.KhatmaJuzNumber < 1 || m.KhatmaJuzNumber > TotalJuz {
		return fmt.Errorf("%w: juz number %d out of range", ErrJuzInvariant, m.KhatmaJuzNumber)
	}
	assigned := m.KhatmaJuzAssignedUserID != nil && *m.KhatmaJuzAssignedUserID != uuid.Nil
	done := m.KhatmaJuzCompletedAt != nil

	switch m.KhatmaJuzStatus {
	case JuzStatusUnclaimed:
		if assigned || done {
			return fmt.Errorf("%w: juz %d unclaimed but assignee/completed_at set", ErrJuzInvariant, m.KhatmaJuzNumber)
		}
	case JuzStatusInProgress:
		if !assigned || done {
			return fmt.Errorf("%w: juz %d in_progress needs assignee and no completed_at", ErrJuzInvariant, m.KhatmaJuzNumber)
		}
	case JuzStatusCompleted:
		if !assigned || !done {
			return fmt.Errorf("%w: juz %d completed needs assignee and completed_at", ErrJuzInvariant, m.KhatmaJuzNumber)
		}
	default:
		return fmt.Errorf("%w: juz %d unknown status %q", ErrJuzInvariant, m.KhatmaJuzNumber, m.KhatmaJuzStatus)
	}
	return nil
}

// NewUnclaimedJuz membangun 30 baris juz kosong untuk khatma baru, urut 1..30.
func NewUnclaimedJuz(khatmaID uuid.UUID) []KhatmaJuzModel {
	rows := make([]KhatmaJuzModel, 0, TotalJuz)
	for n := 1; n <= TotalJuz; n++ {
		rows = append(rows, KhatmaJuzModel{
			KhatmaJuzID:       uuid.New(),
			KhatmaJuzKhatmaID: khatmaID,
			KhatmaJuzNumber:   n,
			KhatmaJuzStatus:   JuzStatusUnclaimed,
			KhatmaJuzVersion:  1,
		})
	}
	return rows
}
