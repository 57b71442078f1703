// file: internals/features/khatma/khatmas/repository/khatma_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"khatmaku_backend/internals/features/khatma/khatmas/model"
)

// KhatmaStore adalah storage boundary untuk khatma + 30 juz.
// Semua koordinasi antar user terjadi lewat state yang tersimpan di sini.
type KhatmaStore interface {
	// Atomic: khatma + 30 juz unclaimed, atau tidak sama sekali.
	CreateKhatmaWithJuz(ctx context.Context, deceasedID uuid.UUID, isShared bool, ownerID uuid.UUID) (*model.KhatmaModel, []model.KhatmaJuzModel, error)

	GetKhatma(ctx context.Context, khatmaID uuid.UUID) (*model.KhatmaModel, error)
	// Sama seperti GetKhatma, tapi mengunci baris khatma sampai tx selesai (di luar tx = GetKhatma).
	GetKhatmaForUpdate(ctx context.Context, khatmaID uuid.UUID) (*model.KhatmaModel, error)
	GetJuz(ctx context.Context, juzID uuid.UUID) (*model.KhatmaJuzModel, error)
	// Urut khatma_juz_number ASC.
	ListJuz(ctx context.Context, khatmaID uuid.UUID) ([]model.KhatmaJuzModel, error)

	// Update hanya berhasil kalau versi & status tersimpan masih sama dengan prior.
	// Kalau tidak → ErrConflict. Versi dinaikkan satu.
	CompareAndSwapJuz(ctx context.Context, prior, next model.KhatmaJuzModel) (*model.KhatmaJuzModel, error)

	UpdateKhatmaStatus(ctx context.Context, khatmaID uuid.UUID, status model.KhatmaStatusEnum) error
	ListKhatmaByDeceased(ctx context.Context, deceasedID uuid.UUID) ([]model.KhatmaModel, error)
	// Keyset pagination untuk job rekonsiliasi.
	ListKhatmaIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
	DeleteKhatma(ctx context.Context, khatmaID uuid.UUID) error

	WithinTx(ctx context.Context, fn func(tx KhatmaStore) error) error
}

/* =========================
   GORM (Postgres)
========================= */

type GormKhatmaStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ KhatmaStore = (*GormKhatmaStore)(nil)

func NewGormKhatmaStore(db *gorm.DB) *GormKhatmaStore {
	return &GormKhatmaStore{db: db, now: time.Now}
}

func (s *GormKhatmaStore) Migrate() error {
	return s.db.AutoMigrate(&model.KhatmaModel{}, &model.KhatmaJuzModel{})
}

func (s *GormKhatmaStore) CreateKhatmaWithJuz(ctx context.Context, deceasedID uuid.UUID, isShared bool, ownerID uuid.UUID) (*model.KhatmaModel, []model.KhatmaJuzModel, error) {
	k := model.KhatmaModel{
		KhatmaID:          uuid.New(),
		KhatmaDeceasedID:  deceasedID,
		KhatmaOwnerUserID: ownerID,
		KhatmaIsShared:    isShared,
		KhatmaStatus:      model.KhatmaStatusActive,
	}
	juz := model.NewUnclaimedJuz(k.KhatmaID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&k).Error; err != nil {
			return err
		}
		if err := tx.CreateInBatches(&juz, model.TotalJuz).Error; err != nil {
			return err
		}
		// jaga-jaga trigger/constraint di DB menolak sebagian baris
		var n int64
		if err := tx.Model(&model.KhatmaJuzModel{}).
			Where("khatma_juz_khatma_id = ?", k.KhatmaID).
			Count(&n).Error; err != nil {
			return err
		}
		if n != model.TotalJuz {
			return fmt.Errorf("%w: expected %d juz rows, got %d", ErrPersistenceConflict, model.TotalJuz, n)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPersistenceConflict) {
			return nil, nil, err
		}
		return nil, nil, errors.Join(ErrPersistenceConflict, classify(err))
	}
	return &k, juz, nil
}

func (s *GormKhatmaStore) GetKhatma(ctx context.Context, khatmaID uuid.UUID) (*model.KhatmaModel, error) {
	var k model.KhatmaModel
	if err := s.db.WithContext(ctx).
		Where("khatma_id = ?", khatmaID).
		Take(&k).Error; err != nil {
		return nil, classify(err)
	}
	return &k, nil
}

func (s *GormKhatmaStore) GetKhatmaForUpdate(ctx context.Context, khatmaID uuid.UUID) (*model.KhatmaModel, error) {
	var k model.KhatmaModel
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("khatma_id = ?", khatmaID).
		Take(&k).Error; err != nil {
		return nil, classify(err)
	}
	return &k, nil
}

func (s *GormKhatmaStore) GetJuz(ctx context.Context, juzID uuid.UUID) (*model.KhatmaJuzModel, error) {
	var j model.KhatmaJuzModel
	if err := s.db.WithContext(ctx).
		Where("khatma_juz_id = ?", juzID).
		Take(&j).Error; err != nil {
		return nil, classify(err)
	}
	return &j, nil
}

func (s *GormKhatmaStore) ListJuz(ctx context.Context, khatmaID uuid.UUID) ([]model.KhatmaJuzModel, error) {
	var rows []model.KhatmaJuzModel
	if err := s.db.WithContext(ctx).
		Where("khatma_juz_khatma_id = ?", khatmaID).
		Order("khatma_juz_number ASC").
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func (s *GormKhatmaStore) CompareAndSwapJuz(ctx context.Context, prior, next model.KhatmaJuzModel) (*model.KhatmaJuzModel, error) {
	if prior.KhatmaJuzID != next.KhatmaJuzID {
		return nil, fmt.Errorf("%w: prior/next juz id mismatch", ErrPersistenceFailure)
	}

	updates := map[string]any{
		"khatma_juz_status":           next.KhatmaJuzStatus,
		"khatma_juz_assigned_user_id": nil,
		"khatma_juz_completed_at":     nil,
		"khatma_juz_version":          gorm.Expr("khatma_juz_version + 1"),
		"khatma_juz_updated_at":       s.now(),
	}
	if next.KhatmaJuzAssignedUserID != nil {
		updates["khatma_juz_assigned_user_id"] = *next.KhatmaJuzAssignedUserID
	}
	if next.KhatmaJuzCompletedAt != nil {
		updates["khatma_juz_completed_at"] = *next.KhatmaJuzCompletedAt
	}

	res := s.db.WithContext(ctx).
		Model(&model.KhatmaJuzModel{}).
		Where("khatma_juz_id = ? AND khatma_juz_version = ? AND khatma_juz_status = ?",
			prior.KhatmaJuzID, prior.KhatmaJuzVersion, prior.KhatmaJuzStatus).
		Updates(updates)
	if res.Error != nil {
		return nil, classify(res.Error)
	}
	if res.RowsAffected == 0 {
		// bedakan: barisnya hilang vs kalah balapan
		if _, err := s.GetJuz(ctx, prior.KhatmaJuzID); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return s.GetJuz(ctx, prior.KhatmaJuzID)
}

func (s *GormKhatmaStore) UpdateKhatmaStatus(ctx context.Context, khatmaID uuid.UUID, status model.KhatmaStatusEnum) error {
	res := s.db.WithContext(ctx).
		Model(&model.KhatmaModel{}).
		Where("khatma_id = ?", khatmaID).
		Updates(map[string]any{
			"khatma_status":     status,
			"khatma_updated_at": s.now(),
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormKhatmaStore) ListKhatmaByDeceased(ctx context.Context, deceasedID uuid.UUID) ([]model.KhatmaModel, error) {
	var rows []model.KhatmaModel
	if err := s.db.WithContext(ctx).
		Where("khatma_deceased_id = ?", deceasedID).
		Order("khatma_created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func (s *GormKhatmaStore) ListKhatmaIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []uuid.UUID
	q := s.db.WithContext(ctx).
		Model(&model.KhatmaModel{}).
		Order("khatma_id ASC").
		Limit(limit)
	if after != uuid.Nil {
		q = q.Where("khatma_id > ?", after)
	}
	if err := q.Pluck("khatma_id", &ids).Error; err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

func (s *GormKhatmaStore) DeleteKhatma(ctx context.Context, khatmaID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("khatma_juz_khatma_id = ?", khatmaID).
			Delete(&model.KhatmaJuzModel{}).Error; err != nil {
			return classify(err)
		}
		res := tx.Where("khatma_id = ?", khatmaID).Delete(&model.KhatmaModel{})
		if res.Error != nil {
			return classify(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormKhatmaStore) WithinTx(ctx context.Context, fn func(tx KhatmaStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormKhatmaStore{db: tx, now: s.now})
	})
}
