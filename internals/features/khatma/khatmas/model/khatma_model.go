// file: internals/features/khatma/khatmas/model/khatma_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type KhatmaStatusEnum string

const (
	KhatmaStatusActive    KhatmaStatusEnum = "active"
	KhatmaStatusCompleted KhatmaStatusEnum = "completed"
)

// TotalJuz: satu khatma selalu dibagi 30 juz.
const TotalJuz = 30

type KhatmaModel struct {
	// PK
	KhatmaID uuid.UUID `gorm:"column:khatma_id;type:uuid;default:gen_random_uuid();primaryKey" json:"khatma_id"`

	// Immutable setelah create
	KhatmaDeceasedID  uuid.UUID `gorm:"column:khatma_deceased_id;type:uuid;not null;index" json:"khatma_deceased_id"`
	KhatmaOwnerUserID uuid.UUID `gorm:"column:khatma_owner_user_id;type:uuid;not null;index" json:"khatma_owner_user_id"`
	KhatmaIsShared    bool      `gorm:"column:khatma_is_shared;not null;default:false" json:"khatma_is_shared"`

	// Proyeksi dari status juz (ditulis ulang setiap mutasi juz, bukan sumber kebenaran)
	KhatmaStatus KhatmaStatusEnum `gorm:"column:khatma_status;type:varchar(16);not null;default:'active'" json:"khatma_status"`

	// Audit
	KhatmaCreatedAt time.Time `gorm:"column:khatma_created_at;type:timestamptz;not null;autoCreateTime" json:"khatma_created_at"`
	KhatmaUpdatedAt time.Time `gorm:"column:khatma_updated_at;type:timestamptz;not null;autoUpdateTime" json:"khatma_updated_at"`

	// Relasi 1:30 (hanya dipakai saat preload / cascade)
	KhatmaJuz []KhatmaJuzModel `gorm:"foreignKey:KhatmaJuzKhatmaID;references:KhatmaID;constraint:OnDelete:CASCADE" json:"-"`
}

func (KhatmaModel) TableName() string { return "khatmas" }

// IsOwner true kalau userID adalah pembuat khatma.
func (m KhatmaModel) IsOwner(userID uuid.UUID) bool {
	return userID != uuid.Nil && m.KhatmaOwnerUserID == userID
}
