// file: internals/features/khatma/khatmas/repository/memory_repository.go
package repository

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"khatmaku_backend/internals/features/khatma/khatmas/model"
)

// MemoryKhatmaStore: implementasi in-process dengan semantik CAS yang sama
// dengan GormKhatmaStore. Dipakai test dan KHATMA_STORE=memory.
type MemoryKhatmaStore struct {
	mu     sync.Mutex
	khatma map[uuid.UUID]model.KhatmaModel
	juz    map[uuid.UUID]model.KhatmaJuzModel
	now    func() time.Time

	// FailJuzInsertAt > 0 mensimulasikan gagal insert pada juz ke-N (untuk uji all-or-nothing).
	FailJuzInsertAt int
}

var _ KhatmaStore = (*MemoryKhatmaStore)(nil)

func NewMemoryKhatmaStore() *MemoryKhatmaStore {
	return &MemoryKhatmaStore{
		khatma: make(map[uuid.UUID]model.KhatmaModel),
		juz:    make(map[uuid.UUID]model.KhatmaJuzModel),
		now:    time.Now,
	}
}

func cloneJuz(j model.KhatmaJuzModel) model.KhatmaJuzModel {
	if j.KhatmaJuzAssignedUserID != nil {
		v := *j.KhatmaJuzAssignedUserID
		j.KhatmaJuzAssignedUserID = &v
	}
	if j.KhatmaJuzCompletedAt != nil {
		v := *j.KhatmaJuzCompletedAt
		j.KhatmaJuzCompletedAt = &v
	}
	return j
}

/* ===== locked helpers (caller pegang s.mu) ===== */

func (s *MemoryKhatmaStore) createLocked(deceasedID uuid.UUID, isShared bool, ownerID uuid.UUID) (*model.KhatmaModel, []model.KhatmaJuzModel, error) {
	now := s.now()
	k := model.KhatmaModel{
		KhatmaID:          uuid.New(),
		KhatmaDeceasedID:  deceasedID,
		KhatmaOwnerUserID: ownerID,
		KhatmaIsShared:    isShared,
		KhatmaStatus:      model.KhatmaStatusActive,
		KhatmaCreatedAt:   now,
		KhatmaUpdatedAt:   now,
	}
	rows := model.NewUnclaimedJuz(k.KhatmaID)
	for i := range rows {
		if s.FailJuzInsertAt > 0 && rows[i].KhatmaJuzNumber == s.FailJuzInsertAt {
			// tidak ada yang ditulis sebelum semua lolos
			return nil, nil, fmt.Errorf("%w: simulated insert failure at juz %d", ErrPersistenceConflict, s.FailJuzInsertAt)
		}
		rows[i].KhatmaJuzCreatedAt = now
		rows[i].KhatmaJuzUpdatedAt = now
	}

	s.khatma[k.KhatmaID] = k
	for _, r := range rows {
		s.juz[r.KhatmaJuzID] = r
	}
	return &k, rows, nil
}

func (s *MemoryKhatmaStore) getKhatmaLocked(id uuid.UUID) (*model.KhatmaModel, error) {
	k, ok := s.khatma[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &k, nil
}

func (s *MemoryKhatmaStore) getJuzLocked(id uuid.UUID) (*model.KhatmaJuzModel, error) {
	j, ok := s.juz[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneJuz(j)
	return &c, nil
}

func (s *MemoryKhatmaStore) listJuzLocked(khatmaID uuid.UUID) []model.KhatmaJuzModel {
	out := make([]model.KhatmaJuzModel, 0, model.TotalJuz)
	for _, j := range s.juz {
		if j.KhatmaJuzKhatmaID == khatmaID {
			out = append(out, cloneJuz(j))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].KhatmaJuzNumber < out[b].KhatmaJuzNumber })
	return out
}

func (s *MemoryKhatmaStore) casLocked(prior, next model.KhatmaJuzModel) (*model.KhatmaJuzModel, error) {
	if prior.KhatmaJuzID != next.KhatmaJuzID {
		return nil, fmt.Errorf("%w: prior/next juz id mismatch", ErrPersistenceFailure)
	}
	cur, ok := s.juz[prior.KhatmaJuzID]
	if !ok {
		return nil, ErrNotFound
	}
	if cur.KhatmaJuzVersion != prior.KhatmaJuzVersion || cur.KhatmaJuzStatus != prior.KhatmaJuzStatus {
		return nil, ErrConflict
	}
	cur.KhatmaJuzStatus = next.KhatmaJuzStatus
	cur.KhatmaJuzAssignedUserID = nil
	cur.KhatmaJuzCompletedAt = nil
	if next.KhatmaJuzAssignedUserID != nil {
		v := *next.KhatmaJuzAssignedUserID
		cur.KhatmaJuzAssignedUserID = &v
	}
	if next.KhatmaJuzCompletedAt != nil {
		v := *next.KhatmaJuzCompletedAt
		cur.KhatmaJuzCompletedAt = &v
	}
	cur.KhatmaJuzVersion++
	cur.KhatmaJuzUpdatedAt = s.now()
	s.juz[cur.KhatmaJuzID] = cur

	out := cloneJuz(cur)
	return &out, nil
}

func (s *MemoryKhatmaStore) updateStatusLocked(khatmaID uuid.UUID, status model.KhatmaStatusEnum) error {
	k, ok := s.khatma[khatmaID]
	if !ok {
		return ErrNotFound
	}
	k.KhatmaStatus = status
	k.KhatmaUpdatedAt = s.now()
	s.khatma[khatmaID] = k
	return nil
}

func (s *MemoryKhatmaStore) listByDeceasedLocked(deceasedID uuid.UUID) []model.KhatmaModel {
	out := make([]model.KhatmaModel, 0)
	for _, k := range s.khatma {
		if k.KhatmaDeceasedID == deceasedID {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].KhatmaCreatedAt.After(out[b].KhatmaCreatedAt) })
	return out
}

func (s *MemoryKhatmaStore) listIDsLocked(after uuid.UUID, limit int) []uuid.UUID {
	if limit <= 0 {
		limit = 100
	}
	ids := make([]uuid.UUID, 0, len(s.khatma))
	for id := range s.khatma {
		if after != uuid.Nil && bytes.Compare(id[:], after[:]) <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return bytes.Compare(ids[a][:], ids[b][:]) < 0 })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

func (s *MemoryKhatmaStore) deleteLocked(khatmaID uuid.UUID) error {
	if _, ok := s.khatma[khatmaID]; !ok {
		return ErrNotFound
	}
	for id, j := range s.juz {
		if j.KhatmaJuzKhatmaID == khatmaID {
			delete(s.juz, id)
		}
	}
	delete(s.khatma, khatmaID)
	return nil
}

/* ===== KhatmaStore ===== */

func (s *MemoryKhatmaStore) CreateKhatmaWithJuz(_ context.Context, deceasedID uuid.UUID, isShared bool, ownerID uuid.UUID) (*model.KhatmaModel, []model.KhatmaJuzModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(deceasedID, isShared, ownerID)
}

func (s *MemoryKhatmaStore) GetKhatma(_ context.Context, khatmaID uuid.UUID) (*model.KhatmaModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getKhatmaLocked(khatmaID)
}

func (s *MemoryKhatmaStore) GetKhatmaForUpdate(ctx context.Context, khatmaID uuid.UUID) (*model.KhatmaModel, error) {
	return s.GetKhatma(ctx, khatmaID)
}

func (s *MemoryKhatmaStore) GetJuz(_ context.Context, juzID uuid.UUID) (*model.KhatmaJuzModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getJuzLocked(juzID)
}

func (s *MemoryKhatmaStore) ListJuz(_ context.Context, khatmaID uuid.UUID) ([]model.KhatmaJuzModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listJuzLocked(khatmaID), nil
}

func (s *MemoryKhatmaStore) CompareAndSwapJuz(_ context.Context, prior, next model.KhatmaJuzModel) (*model.KhatmaJuzModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.casLocked(prior, next)
}

func (s *MemoryKhatmaStore) UpdateKhatmaStatus(_ context.Context, khatmaID uuid.UUID, status model.KhatmaStatusEnum) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateStatusLocked(khatmaID, status)
}

func (s *MemoryKhatmaStore) ListKhatmaByDeceased(_ context.Context, deceasedID uuid.UUID) ([]model.KhatmaModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listByDeceasedLocked(deceasedID), nil
}

func (s *MemoryKhatmaStore) ListKhatmaIDs(_ context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listIDsLocked(after, limit), nil
}

func (s *MemoryKhatmaStore) DeleteKhatma(_ context.Context, khatmaID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(khatmaID)
}

// WithinTx menahan lock selama fn berjalan dan mengembalikan snapshot kalau fn gagal.
func (s *MemoryKhatmaStore) WithinTx(_ context.Context, fn func(tx KhatmaStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	khatmaSnap := make(map[uuid.UUID]model.KhatmaModel, len(s.khatma))
	for k, v := range s.khatma {
		khatmaSnap[k] = v
	}
	juzSnap := make(map[uuid.UUID]model.KhatmaJuzModel, len(s.juz))
	for k, v := range s.juz {
		juzSnap[k] = cloneJuz(v)
	}

	if err := fn(&memoryTx{s: s}); err != nil {
		s.khatma = khatmaSnap
		s.juz = juzSnap
		return err
	}
	return nil
}

// memoryTx: view di dalam WithinTx, lock sudah dipegang pemanggil.
type memoryTx struct{ s *MemoryKhatmaStore }

func (t *memoryTx) CreateKhatmaWithJuz(_ context.Context, deceasedID uuid.UUID, isShared bool, ownerID uuid.UUID) (*model.KhatmaModel, []model.KhatmaJuzModel, error) {
	return t.s.createLocked(deceasedID, isShared, ownerID)
}

func (t *memoryTx) GetKhatma(_ context.Context, id uuid.UUID) (*model.KhatmaModel, error) {
	return t.s.getKhatmaLocked(id)
}

func (t *memoryTx) GetKhatmaForUpdate(_ context.Context, id uuid.UUID) (*model.KhatmaModel, error) {
	return t.s.getKhatmaLocked(id)
}

func (t *memoryTx) GetJuz(_ context.Context, id uuid.UUID) (*model.KhatmaJuzModel, error) {
	return t.s.getJuzLocked(id)
}

func (t *memoryTx) ListJuz(_ context.Context, khatmaID uuid.UUID) ([]model.KhatmaJuzModel, error) {
	return t.s.listJuzLocked(khatmaID), nil
}

func (t *memoryTx) CompareAndSwapJuz(_ context.Context, prior, next model.KhatmaJuzModel) (*model.KhatmaJuzModel, error) {
	return t.s.casLocked(prior, next)
}

func (t *memoryTx) UpdateKhatmaStatus(_ context.Context, khatmaID uuid.UUID, status model.KhatmaStatusEnum) error {
	return t.s.updateStatusLocked(khatmaID, status)
}

func (t *memoryTx) ListKhatmaByDeceased(_ context.Context, deceasedID uuid.UUID) ([]model.KhatmaModel, error) {
	return t.s.listByDeceasedLocked(deceasedID), nil
}

func (t *memoryTx) ListKhatmaIDs(_ context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	return t.s.listIDsLocked(after, limit), nil
}

func (t *memoryTx) DeleteKhatma(_ context.Context, khatmaID uuid.UUID) error {
	return t.s.deleteLocked(khatmaID)
}

func (t *memoryTx) WithinTx(_ context.Context, fn func(tx KhatmaStore) error) error {
	return fn(t)
}
