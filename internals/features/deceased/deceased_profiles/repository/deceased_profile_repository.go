// file: internals/features/deceased/deceased_profiles/repository/deceased_profile_repository.go
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"khatmaku_backend/internals/features/deceased/deceased_profiles/model"
	helper "khatmaku_backend/internals/helpers"
)

var (
	ErrNotFound    = errors.New("deceased profile not found")
	ErrDuplicate   = errors.New("deceased profile duplicate")
	ErrPersistence = errors.New("deceased profile persistence failure")
)

// CollaboratorsTable dipakai subquery "profil yang saya ikuti".
const CollaboratorsTable = "deceased_collaborators"

type ProfileStore interface {
	Create(ctx context.Context, m *model.DeceasedProfileModel) error
	Get(ctx context.Context, id uuid.UUID) (*model.DeceasedProfileModel, error)
	GetPublicBySlug(ctx context.Context, slug string) (*model.DeceasedProfileModel, error)
	// Owner atau kolaborator, plus semua profil public kalau includePublic. Terbaru dulu.
	ListVisible(ctx context.Context, userID uuid.UUID, includePublic bool, limit, offset int) ([]model.DeceasedProfileModel, int64, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*model.DeceasedProfileModel, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SlugTaken(ctx context.Context, lower string, excludeID uuid.UUID) (bool, error)
}

type GormProfileStore struct {
	db *gorm.DB
}

var _ ProfileStore = (*GormProfileStore)(nil)

func NewGormProfileStore(db *gorm.DB) *GormProfileStore {
	return &GormProfileStore{db: db}
}

func (s *GormProfileStore) Migrate() error {
	return s.db.AutoMigrate(&model.DeceasedProfileModel{})
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case helper.IsUniqueViolation(err):
		return errors.Join(ErrDuplicate, err)
	default:
		return errors.Join(ErrPersistence, err)
	}
}

func (s *GormProfileStore) Create(ctx context.Context, m *model.DeceasedProfileModel) error {
	if m.DeceasedProfileID == uuid.Nil {
		m.DeceasedProfileID = uuid.New()
	}
	return wrap(s.db.WithContext(ctx).Create(m).Error)
}

func (s *GormProfileStore) Get(ctx context.Context, id uuid.UUID) (*model.DeceasedProfileModel, error) {
	var m model.DeceasedProfileModel
	if err := s.db.WithContext(ctx).
		Where("deceased_profile_id = ?", id).
		Take(&m).Error; err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

func (s *GormProfileStore) GetPublicBySlug(ctx context.Context, slug string) (*model.DeceasedProfileModel, error) {
	var m model.DeceasedProfileModel
	if err := s.db.WithContext(ctx).
		Where("LOWER(deceased_profile_public_slug) = ? AND deceased_profile_visibility = ?",
			strings.ToLower(strings.TrimSpace(slug)), model.VisibilityPublic).
		Take(&m).Error; err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

func (s *GormProfileStore) ListVisible(ctx context.Context, userID uuid.UUID, includePublic bool, limit, offset int) ([]model.DeceasedProfileModel, int64, error) {
	db := s.db.WithContext(ctx)

	memberOf := db.Table(CollaboratorsTable).
		Select("deceased_collaborator_deceased_id").
		Where("deceased_collaborator_user_id = ?", userID)

	visible := db.Where("deceased_profile_owner_user_id = ?", userID).
		Or("deceased_profile_id IN (?)", memberOf)
	if includePublic {
		visible = visible.Or("deceased_profile_visibility = ?", model.VisibilityPublic)
	}

	q := db.Model(&model.DeceasedProfileModel{}).Where(visible).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrap(err)
	}

	var rows []model.DeceasedProfileModel
	if err := q.Order("deceased_profile_created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, wrap(err)
	}
	return rows, total, nil
}

func (s *GormProfileStore) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*model.DeceasedProfileModel, error) {
	if len(fields) > 0 {
		res := s.db.WithContext(ctx).
			Model(&model.DeceasedProfileModel{}).
			Where("deceased_profile_id = ?", id).
			Updates(fields)
		if res.Error != nil {
			return nil, wrap(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

// Delete: soft delete (deceased_profile_deleted_at)
func (s *GormProfileStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("deceased_profile_id = ?", id).
		Delete(&model.DeceasedProfileModel{})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormProfileStore) SlugTaken(ctx context.Context, lower string, excludeID uuid.UUID) (bool, error) {
	// lewat Table() tanpa scope soft delete: slug profil terhapus tetap dipegang unique index
	taken := helper.GormSlugTaken(s.db, "deceased_profiles", "deceased_profile_public_slug", func(q *gorm.DB) *gorm.DB {
		if excludeID == uuid.Nil {
			return q
		}
		return q.Where("deceased_profile_id <> ?", excludeID)
	})
	ok, err := taken(ctx, lower)
	return ok, wrap(err)
}
