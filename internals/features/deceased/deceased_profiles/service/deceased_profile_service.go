// file: internals/features/deceased/deceased_profiles/service/deceased_profile_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"khatmaku_backend/internals/features/deceased/deceased_profiles/model"
	"khatmaku_backend/internals/features/deceased/deceased_profiles/repository"
	helper "khatmaku_backend/internals/helpers"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")

	ErrNotFound    = repository.ErrNotFound
	ErrDuplicate   = repository.ErrDuplicate
	ErrPersistence = repository.ErrPersistence
)

const (
	slugBaseMaxLen = 80
	slugMaxLen     = 100
	slugAttempts   = 3
)

// MembershipChecker: sumber data kolaborator (deceased_collaborators).
type MembershipChecker interface {
	IsMember(ctx context.Context, deceasedID, userID uuid.UUID) (bool, error)
}

type ProfileService struct {
	store   repository.ProfileStore
	members MembershipChecker
}

func NewProfileService(store repository.ProfileStore, members MembershipChecker) *ProfileService {
	return &ProfileService{store: store, members: members}
}

/* =========================
   Inputs
========================= */

type CreateInput struct {
	Name           string
	DeathDate      *time.Time
	BurialSalah    *string
	BurialDate     *time.Time
	BurialLocation *string
	AzahDateStart  *time.Time
	AzahDateEnd    *time.Time
	AzahLocation   *string
}

// UpdateInput: nil = tidak diubah. String kosong pada field opsional = dikosongkan.
type UpdateInput struct {
	Name           *string
	DeathDate      *time.Time
	ClearDeathDate bool
	BurialSalah    *string
	BurialDate     *time.Time
	BurialLocation *string
	AzahDateStart  *time.Time
	AzahDateEnd    *time.Time
	AzahLocation   *string
}

func checkAzahRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: azah end is before azah start", ErrInvalidInput)
	}
	return nil
}

func toDate(t *time.Time) *datatypes.Date {
	if t == nil {
		return nil
	}
	d := datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	return &d
}

func nzTrim(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

/* =========================
   Access
========================= */

func (s *ProfileService) canView(ctx context.Context, p *model.DeceasedProfileModel, actor uuid.UUID) (bool, error) {
	if p.IsOwner(actor) || p.IsPublic() {
		return true, nil
	}
	if s.members == nil || actor == uuid.Nil {
		return false, nil
	}
	return s.members.IsMember(ctx, p.DeceasedProfileID, actor)
}

// CanUseDeceased: dipakai khatma. exists=false kalau profil tidak ada / sudah dihapus.
func (s *ProfileService) CanUseDeceased(ctx context.Context, deceasedID, userID uuid.UUID) (bool, bool, error) {
	p, err := s.store.Get(ctx, deceasedID)
	if errors.Is(err, ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	ok, err := s.canView(ctx, p, userID)
	return true, ok, err
}

func (s *ProfileService) getOwned(ctx context.Context, actor, id uuid.UUID) (*model.DeceasedProfileModel, error) {
	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsOwner(actor) {
		return nil, fmt.Errorf("%w: only the owner can change this profile", ErrForbidden)
	}
	return p, nil
}

/* =========================
   CRUD
========================= */

func (s *ProfileService) Create(ctx context.Context, actor uuid.UUID, in CreateInput) (*model.DeceasedProfileModel, error) {
	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := checkAzahRange(in.AzahDateStart, in.AzahDateEnd); err != nil {
		return nil, err
	}

	m := &model.DeceasedProfileModel{
		DeceasedProfileOwnerUserID:    actor,
		DeceasedProfileName:           name,
		DeceasedProfileDeathDate:      toDate(in.DeathDate),
		DeceasedProfileVisibility:     model.VisibilityPrivate,
		DeceasedProfileBurialSalah:    nzTrim(in.BurialSalah),
		DeceasedProfileBurialDate:     in.BurialDate,
		DeceasedProfileBurialLocation: nzTrim(in.BurialLocation),
		DeceasedProfileAzahDateStart:  in.AzahDateStart,
		DeceasedProfileAzahDateEnd:    in.AzahDateEnd,
		DeceasedProfileAzahLocation:   nzTrim(in.AzahLocation),
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create deceased profile: %w", err)
	}
	log.Printf("[DECEASED] created id=%s owner=%s", m.DeceasedProfileID, actor)
	return m, nil
}

func (s *ProfileService) Get(ctx context.Context, actor, id uuid.UUID) (*model.DeceasedProfileModel, error) {
	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.canView(ctx, p, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: profile is private", ErrForbidden)
	}
	return p, nil
}

func (s *ProfileService) List(ctx context.Context, actor uuid.UUID, includePublic bool, limit, offset int) ([]model.DeceasedProfileModel, int64, error) {
	if actor == uuid.Nil {
		return nil, 0, ErrUnauthenticated
	}
	return s.store.ListVisible(ctx, actor, includePublic, limit, offset)
}

func (s *ProfileService) Update(ctx context.Context, actor, id uuid.UUID, in UpdateInput) (*model.DeceasedProfileModel, error) {
	p, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		fields["deceased_profile_name"] = name
	}
	switch {
	case in.ClearDeathDate:
		fields["deceased_profile_death_date"] = nil
	case in.DeathDate != nil:
		fields["deceased_profile_death_date"] = toDate(in.DeathDate)
	}
	setText := func(col string, v *string) {
		if v != nil {
			fields[col] = nzTrim(v)
		}
	}
	setText("deceased_profile_burial_salah", in.BurialSalah)
	setText("deceased_profile_burial_location", in.BurialLocation)
	setText("deceased_profile_azah_location", in.AzahLocation)
	if in.BurialDate != nil {
		fields["deceased_profile_burial_date"] = *in.BurialDate
	}

	start, end := p.DeceasedProfileAzahDateStart, p.DeceasedProfileAzahDateEnd
	if in.AzahDateStart != nil {
		start = in.AzahDateStart
		fields["deceased_profile_azah_date_start"] = *in.AzahDateStart
	}
	if in.AzahDateEnd != nil {
		end = in.AzahDateEnd
		fields["deceased_profile_azah_date_end"] = *in.AzahDateEnd
	}
	if err := checkAzahRange(start, end); err != nil {
		return nil, err
	}

	out, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update deceased profile: %w", err)
	}
	return out, nil
}

func (s *ProfileService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete deceased profile: %w", err)
	}
	log.Printf("[DECEASED] deleted id=%s by=%s", id, actor)
	return nil
}

/* =========================
   Visibility & slug
========================= */

func (s *ProfileService) SetVisibility(ctx context.Context, actor, id uuid.UUID, v model.VisibilityEnum) (*model.DeceasedProfileModel, error) {
	switch v {
	case model.VisibilityPublic:
		return s.MakePublic(ctx, actor, id)
	case model.VisibilityPrivate:
		return s.MakePrivate(ctx, actor, id)
	default:
		return nil, fmt.Errorf("%w: unknown visibility %q", ErrInvalidInput, v)
	}
}

// MakePublic: slug dari nama ("ahmad-fauzi", "ahmad-fauzi-2", ...), idempotent kalau sudah public.
func (s *ProfileService) MakePublic(ctx context.Context, actor, id uuid.UUID) (*model.DeceasedProfileModel, error) {
	p, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.IsPublic() && p.SlugConsistent() {
		return p, nil
	}

	base := helper.Slugify(p.DeceasedProfileName, slugBaseMaxLen)
	taken := func(ctx context.Context, lower string) (bool, error) {
		return s.store.SlugTaken(ctx, lower, id)
	}

	// unique index bisa tetap bentrok kalau dua profil bernama sama dipublish bersamaan
	for attempt := 1; ; attempt++ {
		slug, err := helper.EnsureUniqueSlug(ctx, base, slugMaxLen, taken)
		if err != nil {
			return nil, fmt.Errorf("make public: %w", err)
		}
		out, err := s.store.Update(ctx, id, map[string]any{
			"deceased_profile_visibility":  model.VisibilityPublic,
			"deceased_profile_public_slug": slug,
		})
		if err == nil {
			log.Printf("[DECEASED] public id=%s slug=%s", id, slug)
			return out, nil
		}
		if !errors.Is(err, ErrDuplicate) || attempt >= slugAttempts {
			return nil, fmt.Errorf("make public: %w", err)
		}
	}
}

func (s *ProfileService) MakePrivate(ctx context.Context, actor, id uuid.UUID) (*model.DeceasedProfileModel, error) {
	if _, err := s.getOwned(ctx, actor, id); err != nil {
		return nil, err
	}
	out, err := s.store.Update(ctx, id, map[string]any{
		"deceased_profile_visibility":  model.VisibilityPrivate,
		"deceased_profile_public_slug": nil,
	})
	if err != nil {
		return nil, fmt.Errorf("make private: %w", err)
	}
	return out, nil
}

// GetPublicBySlug: tanpa login.
func (s *ProfileService) GetPublicBySlug(ctx context.Context, slug string) (*model.DeceasedProfileModel, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrNotFound
	}
	return s.store.GetPublicBySlug(ctx, slug)
}

// Lookup & SetInviteCodeHash dipakai fitur kolaborator.
func (s *ProfileService) Lookup(ctx context.Context, id uuid.UUID) (*model.DeceasedProfileModel, error) {
	return s.store.Get(ctx, id)
}

func (s *ProfileService) SetInviteCodeHash(ctx context.Context, actor, id uuid.UUID, hash []byte, at time.Time) error {
	if _, err := s.getOwned(ctx, actor, id); err != nil {
		return err
	}
	_, err := s.store.Update(ctx, id, map[string]any{
		"deceased_profile_invite_code_hash":   hash,
		"deceased_profile_invite_code_set_at": at,
	})
	return err
}
