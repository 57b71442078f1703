// file: internals/features/deceased/deceased_collaborators/repository/deceased_collaborator_repository.go
package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"khatmaku_backend/internals/features/deceased/deceased_collaborators/model"
	helper "khatmaku_backend/internals/helpers"
)

var (
	ErrNotFound    = errors.New("collaborator not found")
	ErrDuplicate   = errors.New("collaborator already exists")
	ErrPersistence = errors.New("collaborator persistence failure")
)

type CollaboratorStore interface {
	// Add: ErrDuplicate kalau (deceased, user) sudah ada
	Add(ctx context.Context, m *model.DeceasedCollaboratorModel) error
	Remove(ctx context.Context, deceasedID, userID uuid.UUID) error
	List(ctx context.Context, deceasedID uuid.UUID) ([]model.DeceasedCollaboratorModel, error)
	IsMember(ctx context.Context, deceasedID, userID uuid.UUID) (bool, error)
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

/* =========================
   GORM
========================= */

type GormCollaboratorStore struct {
	db *gorm.DB
}

var _ CollaboratorStore = (*GormCollaboratorStore)(nil)

func NewGormCollaboratorStore(db *gorm.DB) *GormCollaboratorStore {
	return &GormCollaboratorStore{db: db}
}

func (s *GormCollaboratorStore) Migrate() error {
	return s.db.AutoMigrate(&model.DeceasedCollaboratorModel{})
}

// Add: INSERT biasa, duplikat dikembalikan sebagai ErrDuplicate.
func (s *GormCollaboratorStore) Add(ctx context.Context, m *model.DeceasedCollaboratorModel) error {
	if m.DeceasedCollaboratorRole == "" {
		m.DeceasedCollaboratorRole = model.RoleCollaborator
	}
	return wrap(s.db.WithContext(ctx).Create(m).Error)
}

func (s *GormCollaboratorStore) Remove(ctx context.Context, deceasedID, userID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("deceased_collaborator_deceased_id = ? AND deceased_collaborator_user_id = ?", deceasedID, userID).
		Delete(&model.DeceasedCollaboratorModel{})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormCollaboratorStore) List(ctx context.Context, deceasedID uuid.UUID) ([]model.DeceasedCollaboratorModel, error) {
	var rows []model.DeceasedCollaboratorModel
	if err := s.db.WithContext(ctx).
		Where("deceased_collaborator_deceased_id = ?", deceasedID).
		Order("deceased_collaborator_created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, wrap(err)
	}
	return rows, nil
}

func (s *GormCollaboratorStore) IsMember(ctx context.Context, deceasedID, userID uuid.UUID) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).
		Model(&model.DeceasedCollaboratorModel{}).
		Where("deceased_collaborator_deceased_id = ? AND deceased_collaborator_user_id = ?", deceasedID, userID).
		Count(&n).Error; err != nil {
		return false, wrap(err)
	}
	return n > 0, nil
}

/* =========================
   Memory (tests / KHATMA_STORE=memory)
========================= */

type memberKey struct{ deceased, user uuid.UUID }

type MemoryCollaboratorStore struct {
	mu   sync.RWMutex
	rows map[memberKey]model.DeceasedCollaboratorModel
}

var _ CollaboratorStore = (*MemoryCollaboratorStore)(nil)

func NewMemoryCollaboratorStore() *MemoryCollaboratorStore {
	return &MemoryCollaboratorStore{rows: map[memberKey]model.DeceasedCollaboratorModel{}}
}

func (s *MemoryCollaboratorStore) Add(_ context.Context, m *model.DeceasedCollaboratorModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memberKey{m.DeceasedCollaboratorDeceasedID, m.DeceasedCollaboratorUserID}
	if _, ok := s.rows[k]; ok {
		return ErrDuplicate
	}
	if m.DeceasedCollaboratorRole == "" {
		m.DeceasedCollaboratorRole = model.RoleCollaborator
	}
	if m.DeceasedCollaboratorCreatedAt.IsZero() {
		m.DeceasedCollaboratorCreatedAt = time.Now()
	}
	s.rows[k] = *m
	return nil
}

func (s *MemoryCollaboratorStore) Remove(_ context.Context, deceasedID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memberKey{deceasedID, userID}
	if _, ok := s.rows[k]; !ok {
		return ErrNotFound
	}
	delete(s.rows, k)
	return nil
}

func (s *MemoryCollaboratorStore) List(_ context.Context, deceasedID uuid.UUID) ([]model.DeceasedCollaboratorModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.DeceasedCollaboratorModel, 0)
	for k, m := range s.rows {
		if k.deceased == deceasedID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeceasedCollaboratorCreatedAt.Before(out[j].DeceasedCollaboratorCreatedAt)
	})
	return out, nil
}

func (s *MemoryCollaboratorStore) IsMember(_ context.Context, deceasedID, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[memberKey{deceasedID, userID}]
	return ok, nil
}
