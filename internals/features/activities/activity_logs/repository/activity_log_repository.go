// file: internals/features/activities/activity_logs/repository/activity_log_repository.go
package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"khatmaku_backend/internals/features/activities/activity_logs/model"
	helper "khatmaku_backend/internals/helpers"
)

var (
	ErrPersistence = errors.New("activity log persistence failure")
	// ErrDeceasedMissing: FK ke deceased_profiles gagal
	ErrDeceasedMissing = errors.New("deceased profile missing")
)

type ActivityStore interface {
	Create(ctx context.Context, m *model.ActivityLogModel) error
	// terbaru dulu
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.ActivityLogModel, int64, error)
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.ActivityLogModel, error)
	CountByTypeSince(ctx context.Context, userID uuid.UUID, since time.Time) (model.WeeklySummary, error)
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case helper.IsForeignKeyViolation(err):
		return errors.Join(ErrDeceasedMissing, err)
	default:
		return errors.Join(ErrPersistence, err)
	}
}

/* =========================
   GORM
========================= */

type GormActivityStore struct {
	db *gorm.DB
}

var _ ActivityStore = (*GormActivityStore)(nil)

func NewGormActivityStore(db *gorm.DB) *GormActivityStore {
	return &GormActivityStore{db: db}
}

func (s *GormActivityStore) Migrate() error {
	return s.db.AutoMigrate(&model.ActivityLogModel{})
}

func (s *GormActivityStore) Create(ctx context.Context, m *model.ActivityLogModel) error {
	if m.ActivityLogID == uuid.Nil {
		m.ActivityLogID = uuid.New()
	}
	return wrap(s.db.WithContext(ctx).Create(m).Error)
}

func (s *GormActivityStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.ActivityLogModel, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.ActivityLogModel{}).
		Where("activity_log_user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrap(err)
	}
	var rows []model.ActivityLogModel
	if err := q.Order("activity_log_timestamp DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, wrap(err)
	}
	return rows, total, nil
}

func (s *GormActivityStore) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.ActivityLogModel, error) {
	var rows []model.ActivityLogModel
	if err := s.db.WithContext(ctx).
		Where("activity_log_user_id = ? AND activity_log_timestamp >= ?", userID, since).
		Order("activity_log_timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, wrap(err)
	}
	return rows, nil
}

// CountByTypeSince: GROUP BY di DB, tanpa menarik semua baris.
func (s *GormActivityStore) CountByTypeSince(ctx context.Context, userID uuid.UUID, since time.Time) (model.WeeklySummary, error) {
	var counts []struct {
		Type  model.ActivityTypeEnum `gorm:"column:activity_log_type"`
		Total int64                  `gorm:"column:total"`
	}
	err := s.db.WithContext(ctx).
		Model(&model.ActivityLogModel{}).
		Select("activity_log_type, COUNT(*) AS total").
		Where("activity_log_user_id = ? AND activity_log_timestamp >= ?", userID, since).
		Group("activity_log_type").
		Scan(&counts).Error
	if err != nil {
		return model.WeeklySummary{}, wrap(err)
	}
	out := model.WeeklySummary{Since: since}
	for _, c := range counts {
		out.Add(c.Type, c.Total)
	}
	return out, nil
}

/* =========================
   Memory
========================= */

type MemoryActivityStore struct {
	mu   sync.RWMutex
	rows []model.ActivityLogModel
}

var _ ActivityStore = (*MemoryActivityStore)(nil)

func NewMemoryActivityStore() *MemoryActivityStore {
	return &MemoryActivityStore{}
}

func (s *MemoryActivityStore) Create(_ context.Context, m *model.ActivityLogModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ActivityLogID == uuid.Nil {
		m.ActivityLogID = uuid.New()
	}
	s.rows = append(s.rows, *m)
	return nil
}

func (s *MemoryActivityStore) byUser(userID uuid.UUID, since time.Time) []model.ActivityLogModel {
	out := make([]model.ActivityLogModel, 0)
	for _, r := range s.rows {
		if r.ActivityLogUserID == userID && !r.ActivityLogTimestamp.Before(since) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ActivityLogTimestamp.After(out[j].ActivityLogTimestamp)
	})
	return out
}

func (s *MemoryActivityStore) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]model.ActivityLogModel, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.byUser(userID, time.Time{})
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (s *MemoryActivityStore) ListSince(_ context.Context, userID uuid.UUID, since time.Time) ([]model.ActivityLogModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byUser(userID, since), nil
}

func (s *MemoryActivityStore) CountByTypeSince(_ context.Context, userID uuid.UUID, since time.Time) (model.WeeklySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Summarize(s.byUser(userID, since), since), nil
}
