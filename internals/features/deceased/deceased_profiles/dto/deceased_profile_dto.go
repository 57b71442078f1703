// file: internals/features/deceased/deceased_profiles/dto/deceased_profile_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"khatmaku_backend/internals/features/deceased/deceased_profiles/model"
	svc "khatmaku_backend/internals/features/deceased/deceased_profiles/service"
)

const dateLayout = "2006-01-02"

/* =========================================================
 * REQUESTS
 * ========================================================= */

type CreateDeceasedProfileRequest struct {
	DeceasedProfileName string `json:"deceased_profile_name" validate:"required,max=160"`
	// format YYYY-MM-DD
	DeceasedProfileDeathDate *string `json:"deceased_profile_death_date" validate:"omitempty,datetime=2006-01-02"`

	DeceasedProfileBurialSalah    *string    `json:"deceased_profile_burial_salah" validate:"omitempty,max=40"`
	DeceasedProfileBurialDate     *time.Time `json:"deceased_profile_burial_date"`
	DeceasedProfileBurialLocation *string    `json:"deceased_profile_burial_location" validate:"omitempty,max=500"`

	DeceasedProfileAzahDateStart *time.Time `json:"deceased_profile_azah_date_start"`
	DeceasedProfileAzahDateEnd   *time.Time `json:"deceased_profile_azah_date_end"`
	DeceasedProfileAzahLocation  *string    `json:"deceased_profile_azah_location" validate:"omitempty,max=500"`
}

func parseDate(s *string) *time.Time {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	// format sudah dijaga tag datetime
	t, err := time.Parse(dateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &t
}

func (r CreateDeceasedProfileRequest) ToInput() svc.CreateInput {
	return svc.CreateInput{
		Name:           r.DeceasedProfileName,
		DeathDate:      parseDate(r.DeceasedProfileDeathDate),
		BurialSalah:    r.DeceasedProfileBurialSalah,
		BurialDate:     r.DeceasedProfileBurialDate,
		BurialLocation: r.DeceasedProfileBurialLocation,
		AzahDateStart:  r.DeceasedProfileAzahDateStart,
		AzahDateEnd:    r.DeceasedProfileAzahDateEnd,
		AzahLocation:   r.DeceasedProfileAzahLocation,
	}
}

// PATCH: field nil = tidak diubah; death_date "" = dikosongkan.
type UpdateDeceasedProfileRequest struct {
	DeceasedProfileName      *string `json:"deceased_profile_name" validate:"omitempty,max=160"`
	DeceasedProfileDeathDate *string `json:"deceased_profile_death_date" validate:"omitempty,datetime=2006-01-02"`

	DeceasedProfileBurialSalah    *string    `json:"deceased_profile_burial_salah" validate:"omitempty,max=40"`
	DeceasedProfileBurialDate     *time.Time `json:"deceased_profile_burial_date"`
	DeceasedProfileBurialLocation *string    `json:"deceased_profile_burial_location" validate:"omitempty,max=500"`

	DeceasedProfileAzahDateStart *time.Time `json:"deceased_profile_azah_date_start"`
	DeceasedProfileAzahDateEnd   *time.Time `json:"deceased_profile_azah_date_end"`
	DeceasedProfileAzahLocation  *string    `json:"deceased_profile_azah_location" validate:"omitempty,max=500"`
}

func (r UpdateDeceasedProfileRequest) ToInput() svc.UpdateInput {
	in := svc.UpdateInput{
		Name:           r.DeceasedProfileName,
		BurialSalah:    r.DeceasedProfileBurialSalah,
		BurialDate:     r.DeceasedProfileBurialDate,
		BurialLocation: r.DeceasedProfileBurialLocation,
		AzahDateStart:  r.DeceasedProfileAzahDateStart,
		AzahDateEnd:    r.DeceasedProfileAzahDateEnd,
		AzahLocation:   r.DeceasedProfileAzahLocation,
	}
	if r.DeceasedProfileDeathDate != nil {
		if strings.TrimSpace(*r.DeceasedProfileDeathDate) == "" {
			in.ClearDeathDate = true
		} else {
			in.DeathDate = parseDate(r.DeceasedProfileDeathDate)
		}
	}
	return in
}

type SetVisibilityRequest struct {
	DeceasedProfileVisibility model.VisibilityEnum `json:"deceased_profile_visibility" validate:"required,oneof=private public"`
}

/* =========================================================
 * RESPONSE
 * ========================================================= */

type DeceasedProfileResponse struct {
	DeceasedProfileID          uuid.UUID `json:"deceased_profile_id"`
	DeceasedProfileOwnerUserID uuid.UUID `json:"deceased_profile_owner_user_id"`
	DeceasedProfileName        string    `json:"deceased_profile_name"`
	DeceasedProfileDeathDate   *string   `json:"deceased_profile_death_date"`

	DeceasedProfileVisibility model.VisibilityEnum `json:"deceased_profile_visibility"`
	DeceasedProfilePublicSlug *string              `json:"deceased_profile_public_slug"`

	DeceasedProfileBurialSalah    *string    `json:"deceased_profile_burial_salah"`
	DeceasedProfileBurialDate     *time.Time `json:"deceased_profile_burial_date"`
	DeceasedProfileBurialLocation *string    `json:"deceased_profile_burial_location"`
	DeceasedProfileAzahDateStart  *time.Time `json:"deceased_profile_azah_date_start"`
	DeceasedProfileAzahDateEnd    *time.Time `json:"deceased_profile_azah_date_end"`
	DeceasedProfileAzahLocation   *string    `json:"deceased_profile_azah_location"`

	// hanya untuk owner
	DeceasedProfileHasInviteCode *bool `json:"deceased_profile_has_invite_code,omitempty"`
	DeceasedProfileIsOwner       bool  `json:"deceased_profile_is_owner"`

	DeceasedProfileCreatedAt time.Time `json:"deceased_profile_created_at"`
	DeceasedProfileUpdatedAt time.Time `json:"deceased_profile_updated_at"`
}

// PublicDeceasedProfileResponse: halaman publik via slug, tanpa data owner.
type PublicDeceasedProfileResponse struct {
	DeceasedProfileID             uuid.UUID  `json:"deceased_profile_id"`
	DeceasedProfileName           string     `json:"deceased_profile_name"`
	DeceasedProfileDeathDate      *string    `json:"deceased_profile_death_date"`
	DeceasedProfilePublicSlug     string     `json:"deceased_profile_public_slug"`
	DeceasedProfileBurialSalah    *string    `json:"deceased_profile_burial_salah"`
	DeceasedProfileBurialDate     *time.Time `json:"deceased_profile_burial_date"`
	DeceasedProfileBurialLocation *string    `json:"deceased_profile_burial_location"`
	DeceasedProfileAzahDateStart  *time.Time `json:"deceased_profile_azah_date_start"`
	DeceasedProfileAzahDateEnd    *time.Time `json:"deceased_profile_azah_date_end"`
	DeceasedProfileAzahLocation   *string    `json:"deceased_profile_azah_location"`
}

/* =========================================================
 * MAPPERS
 * ========================================================= */

func formatDate(m model.DeceasedProfileModel) *string {
	if m.DeceasedProfileDeathDate == nil {
		return nil
	}
	s := time.Time(*m.DeceasedProfileDeathDate).Format(dateLayout)
	return &s
}

func NewDeceasedProfileResponse(m model.DeceasedProfileModel, viewer uuid.UUID) DeceasedProfileResponse {
	out := DeceasedProfileResponse{
		DeceasedProfileID:             m.DeceasedProfileID,
		DeceasedProfileOwnerUserID:    m.DeceasedProfileOwnerUserID,
		DeceasedProfileName:           m.DeceasedProfileName,
		DeceasedProfileDeathDate:      formatDate(m),
		DeceasedProfileVisibility:     m.DeceasedProfileVisibility,
		DeceasedProfilePublicSlug:     m.DeceasedProfilePublicSlug,
		DeceasedProfileBurialSalah:    m.DeceasedProfileBurialSalah,
		DeceasedProfileBurialDate:     m.DeceasedProfileBurialDate,
		DeceasedProfileBurialLocation: m.DeceasedProfileBurialLocation,
		DeceasedProfileAzahDateStart:  m.DeceasedProfileAzahDateStart,
		DeceasedProfileAzahDateEnd:    m.DeceasedProfileAzahDateEnd,
		DeceasedProfileAzahLocation:   m.DeceasedProfileAzahLocation,
		DeceasedProfileIsOwner:        m.IsOwner(viewer),
		DeceasedProfileCreatedAt:      m.DeceasedProfileCreatedAt,
		DeceasedProfileUpdatedAt:      m.DeceasedProfileUpdatedAt,
	}
	if out.DeceasedProfileIsOwner {
		has := len(m.DeceasedProfileInviteCodeHash) > 0
		out.DeceasedProfileHasInviteCode = &has
	}
	return out
}

func NewDeceasedProfileResponses(rows []model.DeceasedProfileModel, viewer uuid.UUID) []DeceasedProfileResponse {
	out := make([]DeceasedProfileResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, NewDeceasedProfileResponse(r, viewer))
	}
	return out
}

func NewPublicDeceasedProfileResponse(m model.DeceasedProfileModel) PublicDeceasedProfileResponse {
	var slug string
	if m.DeceasedProfilePublicSlug != nil {
		slug = *m.DeceasedProfilePublicSlug
	}
	return PublicDeceasedProfileResponse{
		DeceasedProfileID:             m.DeceasedProfileID,
		DeceasedProfileName:           m.DeceasedProfileName,
		DeceasedProfileDeathDate:      formatDate(m),
		DeceasedProfilePublicSlug:     slug,
		DeceasedProfileBurialSalah:    m.DeceasedProfileBurialSalah,
		DeceasedProfileBurialDate:     m.DeceasedProfileBurialDate,
		DeceasedProfileBurialLocation: m.DeceasedProfileBurialLocation,
		DeceasedProfileAzahDateStart:  m.DeceasedProfileAzahDateStart,
		DeceasedProfileAzahDateEnd:    m.DeceasedProfileAzahDateEnd,
		DeceasedProfileAzahLocation:   m.DeceasedProfileAzahLocation,
	}
}
