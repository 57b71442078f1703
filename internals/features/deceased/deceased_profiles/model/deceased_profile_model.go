// file: internals/features/deceased/deceased_profiles/model/deceased_profile_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type VisibilityEnum string

const (
	VisibilityPrivate VisibilityEnum = "private"
	VisibilityPublic  VisibilityEnum = "public"
)

func (v VisibilityEnum) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

type DeceasedProfileModel struct {
	DeceasedProfileID          uuid.UUID `gorm:"column:deceased_profile_id;type:uuid;default:gen_random_uuid();primaryKey" json:"deceased_profile_id"`
	DeceasedProfileOwnerUserID uuid.UUID `gorm:"column:deceased_profile_owner_user_id;type:uuid;not null;index" json:"deceased_profile_owner_user_id"`

	DeceasedProfileName      string          `gorm:"column:deceased_profile_name;type:varchar(160);not null" json:"deceased_profile_name"`
	DeceasedProfileDeathDate *datatypes.Date `gorm:"column:deceased_profile_death_date;type:date" json:"deceased_profile_death_date"`

	// Visibility + slug publik (slug ada ⇔ public)
	DeceasedProfileVisibility VisibilityEnum `gorm:"column:deceased_profile_visibility;type:varchar(10);not null;default:'private'" json:"deceased_profile_visibility"`
	DeceasedProfilePublicSlug *string        `gorm:"column:deceased_profile_public_slug;type:varchar(100);uniqueIndex:uq_deceased_profile_public_slug_lower,expression:LOWER(deceased_profile_public_slug)" json:"deceased_profile_public_slug"`

	// Pemakaman
	DeceasedProfileBurialSalah    *string    `gorm:"column:deceased_profile_burial_salah;type:varchar(40)" json:"deceased_profile_burial_salah"`
	DeceasedProfileBurialDate     *time.Time `gorm:"column:deceased_profile_burial_date;type:timestamptz" json:"deceased_profile_burial_date"`
	DeceasedProfileBurialLocation *string    `gorm:"column:deceased_profile_burial_location;type:text" json:"deceased_profile_burial_location"`

	// Takziah
	DeceasedProfileAzahDateStart *time.Time `gorm:"column:deceased_profile_azah_date_start;type:timestamptz" json:"deceased_profile_azah_date_start"`
	DeceasedProfileAzahDateEnd   *time.Time `gorm:"column:deceased_profile_azah_date_end;type:timestamptz" json:"deceased_profile_azah_date_end"`
	DeceasedProfileAzahLocation  *string    `gorm:"column:deceased_profile_azah_location;type:text" json:"deceased_profile_azah_location"`

	// Kode undangan kolaborator (bcrypt), tidak pernah dikirim ke klien
	DeceasedProfileInviteCodeHash  []byte     `gorm:"column:deceased_profile_invite_code_hash;type:bytea" json:"-"`
	DeceasedProfileInviteCodeSetAt *time.Time `gorm:"column:deceased_profile_invite_code_set_at;type:timestamptz" json:"deceased_profile_invite_code_set_at,omitempty"`

	DeceasedProfileCreatedAt time.Time      `gorm:"column:deceased_profile_created_at;type:timestamptz;not null;autoCreateTime" json:"deceased_profile_created_at"`
	DeceasedProfileUpdatedAt time.Time      `gorm:"column:deceased_profile_updated_at;type:timestamptz;not null;autoUpdateTime" json:"deceased_profile_updated_at"`
	DeceasedProfileDeletedAt gorm.DeletedAt `gorm:"column:deceased_profile_deleted_at;index" json:"-"`
}

func (DeceasedProfileModel) TableName() string { return "deceased_profiles" }

func (m DeceasedProfileModel) IsOwner(userID uuid.UUID) bool {
	return userID != uuid.Nil && m.DeceasedProfileOwnerUserID == userID
}

func (m DeceasedProfileModel) IsPublic() bool {
	return m.DeceasedProfileVisibility == VisibilityPublic
}

// SlugConsistent: slug publik ada kalau dan hanya kalau visibility public.
func (m DeceasedProfileModel) SlugConsistent() bool {
	hasSlug := m.DeceasedProfilePublicSlug != nil && *m.DeceasedProfilePublicSlug != ""
	return hasSlug == m.IsPublic()
}
