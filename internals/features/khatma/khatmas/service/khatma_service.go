// file: internals/features/khatma/khatmas/service/khatma_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"khatmaku_backend/internals/events"
	"khatmaku_backend/internals/features/khatma/khatmas/model"
	"khatmaku_backend/internals/features/khatma/khatmas/repository"
	"khatmaku_backend/internals/metrics"
)

// DeceasedAccess: cek apakah user boleh memakai profil almarhum (owner, kolaborator, atau publik).
type DeceasedAccess interface {
	CanUseDeceased(ctx context.Context, deceasedID, userID uuid.UUID) (exists bool, allowed bool, err error)
}

// Board: khatma + 30 juz urut nomor, status diturunkan dari juz.
type Board struct {
	Khatma   model.KhatmaModel
	Juz      []model.KhatmaJuzModel
	Status   model.KhatmaStatusEnum
	Progress Progress
}

type JuzResult struct {
	Juz          model.KhatmaJuzModel
	KhatmaStatus model.KhatmaStatusEnum
	NoOp         bool
}

type KhatmaService struct {
	store   repository.KhatmaStore
	engine  *AssignmentEngine
	pub     events.Publisher
	metrics metrics.JuzRecorder
	access  DeceasedAccess
}

type Option func(*KhatmaService)

func WithPublisher(p events.Publisher) Option {
	return func(s *KhatmaService) {
		if p != nil {
			s.pub = p
		}
	}
}

func WithMetrics(m metrics.JuzRecorder) Option {
	return func(s *KhatmaService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithDeceasedAccess(a DeceasedAccess) Option {
	return func(s *KhatmaService) { s.access = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *KhatmaService) {
		if now != nil {
			s.engine = NewAssignmentEngine(now)
		}
	}
}

func NewKhatmaService(store repository.KhatmaStore, opts ...Option) *KhatmaService {
	s := &KhatmaService{
		store:   store,
		engine:  NewAssignmentEngine(time.Now),
		pub:     events.NopPublisher{},
		metrics: metrics.Nop{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

/* =========================
   Access
========================= */

func (s *KhatmaService) checkDeceased(ctx context.Context, deceasedID, actor uuid.UUID) error {
	if s.access == nil {
		return nil
	}
	exists, allowed, err := s.access.CanUseDeceased(ctx, deceasedID, actor)
	if err != nil {
		return fmt.Errorf("%w: deceased access: %v", ErrPersistenceFailure, err)
	}
	if !exists {
		return fmt.Errorf("deceased %s: %w", deceasedID, ErrNotFound)
	}
	if !allowed {
		return fmt.Errorf("%w: no access to deceased %s", ErrForbidden, deceasedID)
	}
	return nil
}

/* =========================
   Create / Read
========================= */

func (s *KhatmaService) Create(ctx context.Context, actor, deceasedID uuid.UUID, isShared bool) (*Board, error) {
	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if err := s.checkDeceased(ctx, deceasedID, actor); err != nil {
		return nil, err
	}

	k, juz, err := s.store.CreateKhatmaWithJuz(ctx, deceasedID, isShared, actor)
	if err != nil {
		log.Printf("[KHATMA] create gagal deceased=%s: %v", deceasedID, err)
		if errors.Is(err, ErrPersistenceConflict) {
			return nil, fmt.Errorf("create khatma: %w", err)
		}
		return nil, fmt.Errorf("create khatma: %w: %v", ErrPersistenceConflict, err)
	}
	if err := ValidateBoard(k.KhatmaID, juz); err != nil {
		return nil, err
	}

	log.Printf("[KHATMA] created id=%s deceased=%s shared=%v owner=%s", k.KhatmaID, deceasedID, isShared, actor)
	s.publish(ctx, events.KhatmaCreated, map[string]any{
		"khatma_id": k.KhatmaID, "deceased_id": deceasedID, "owner_user_id": actor, "is_shared": isShared,
	})
	return &Board{
		Khatma:   *k,
		Juz:      juz,
		Status:   DeriveKhatmaStatus(juz),
		Progress: CountProgress(juz),
	}, nil
}

func (s *KhatmaService) Board(ctx context.Context, actor, khatmaID uuid.UUID) (*Board, error) {
	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	k, err := s.store.GetKhatma(ctx, khatmaID)
	if err != nil {
		return nil, fmt.Errorf("khatma %s: %w", khatmaID, err)
	}
	if !k.IsOwner(actor) {
		if err := s.checkDeceased(ctx, k.KhatmaDeceasedID, actor); err != nil {
			return nil, err
		}
	}
	juz, err := s.store.ListJuz(ctx, khatmaID)
	if err != nil {
		return nil, fmt.Errorf("list juz: %w", err)
	}
	if err := ValidateBoard(khatmaID, juz); err != nil {
		log.Printf("[KHATMA] board rusak id=%s: %v", khatmaID, err)
		return nil, err
	}
	return &Board{
		Khatma:   *k,
		Juz:      juz,
		Status:   DeriveKhatmaStatus(juz),
		Progress: CountProgress(juz),
	}, nil
}

func (s *KhatmaService) ListForDeceased(ctx context.Context, actor, deceasedID uuid.UUID) ([]model.KhatmaModel, error) {
	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if err := s.checkDeceased(ctx, deceasedID, actor); err != nil {
		return nil, err
	}
	rows, err := s.store.ListKhatmaByDeceased(ctx, deceasedID)
	if err != nil {
		return nil, fmt.Errorf("list khatma: %w", err)
	}
	return rows, nil
}

/* =========================
   Juz transitions
========================= */

type decideFunc func(k model.KhatmaModel, j model.KhatmaJuzModel, actor uuid.UUID) (Transition, error)

func (s *KhatmaService) ClaimJuz(ctx context.Context, actor, juzID uuid.UUID) (*JuzResult, error) {
	return s.applyJuz(ctx, "claim", actor, juzID, func(k model.KhatmaModel, j model.KhatmaJuzModel, a uuid.UUID) (Transition, error) {
		// khatma bersama: hanya yang punya akses ke profil almarhum
		if k.KhatmaIsShared && !k.IsOwner(a) {
			if err := s.checkDeceased(ctx, k.KhatmaDeceasedID, a); err != nil {
				return Transition{}, err
			}
		}
		return s.engine.Claim(k, j, a)
	})
}

func (s *KhatmaService) ReleaseJuz(ctx context.Context, actor, juzID uuid.UUID) (*JuzResult, error) {
	return s.applyJuz(ctx, "release", actor, juzID, s.visible(ctx, s.engine.Release))
}

func (s *KhatmaService) CompleteJuz(ctx context.Context, actor, juzID uuid.UUID) (*JuzResult, error) {
	return s.applyJuz(ctx, "complete", actor, juzID, s.visible(ctx, s.engine.Complete))
}

// visible: non-owner harus lolos cek akses almarhum yang sama dengan Board.
func (s *KhatmaService) visible(ctx context.Context, next decideFunc) decideFunc {
	return func(k model.KhatmaModel, j model.KhatmaJuzModel, a uuid.UUID) (Transition, error) {
		if a != uuid.Nil && !k.IsOwner(a) {
			if err := s.checkDeceased(ctx, k.KhatmaDeceasedID, a); err != nil {
				return Transition{}, err
			}
		}
		return next(k, j, a)
	}
}

func (s *KhatmaService) applyJuz(ctx context.Context, op string, actor, juzID uuid.UUID, decide decideFunc) (res *JuzResult, err error) {
	defer func() { s.metrics.ObserveJuzOp(op, resultLabel(res, err)) }()

	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	j, err := s.store.GetJuz(ctx, juzID)
	if err != nil {
		return nil, fmt.Errorf("juz %s: %w", juzID, err)
	}
	k, err := s.store.GetKhatma(ctx, j.KhatmaJuzKhatmaID)
	if err != nil {
		return nil, fmt.Errorf("khatma %s: %w", j.KhatmaJuzKhatmaID, err)
	}

	tr, err := decide(*k, *j, actor)
	if err != nil {
		return nil, err
	}

	saved := tr.Prior
	if !tr.NoOp {
		out, err := s.store.CompareAndSwapJuz(ctx, tr.Prior, tr.Next)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				log.Printf("[KHATMA] %s juz=%d khatma=%s kalah balapan (actor=%s)", op, j.KhatmaJuzNumber, k.KhatmaID, actor)
			}
			return nil, fmt.Errorf("%s juz %d: %w", op, j.KhatmaJuzNumber, err)
		}
		saved = *out
	}

	status, err := s.syncStatus(ctx, k.KhatmaID)
	if err != nil {
		return nil, err
	}

	if !tr.NoOp {
		log.Printf("[KHATMA] %s juz=%d khatma=%s actor=%s status=%s", op, saved.KhatmaJuzNumber, k.KhatmaID, actor, status)
		s.publish(ctx, juzEventKey(op), map[string]any{
			"khatma_id":     k.KhatmaID,
			"juz_id":        saved.KhatmaJuzID,
			"juz_number":    saved.KhatmaJuzNumber,
			"actor":         actor,
			"juz_status":    saved.KhatmaJuzStatus,
			"khatma_status": status,
		})
	}
	return &JuzResult{Juz: saved, KhatmaStatus: status, NoOp: tr.NoOp}, nil
}

// syncStatus menurunkan ulang status dari juz yang dibaca di dalam lock baris khatma,
// lalu menyimpan proyeksinya kalau berubah. Dua rekomputasi yang balapan diserialisasi lock.
func (s *KhatmaService) syncStatus(ctx context.Context, khatmaID uuid.UUID) (model.KhatmaStatusEnum, error) {
	var (
		derived model.KhatmaStatusEnum
		prev    model.KhatmaStatusEnum
	)
	err := s.store.WithinTx(ctx, func(tx repository.KhatmaStore) error {
		k, err := tx.GetKhatmaForUpdate(ctx, khatmaID)
		if err != nil {
			return err
		}
		juz, err := tx.ListJuz(ctx, khatmaID)
		if err != nil {
			return err
		}
		prev = k.KhatmaStatus
		derived = DeriveKhatmaStatus(juz)
		if derived == prev {
			return nil
		}
		return tx.UpdateKhatmaStatus(ctx, khatmaID, derived)
	})
	if err != nil {
		return "", fmt.Errorf("sync khatma status: %w", err)
	}

	if derived != prev {
		key := events.KhatmaReopened
		if derived == model.KhatmaStatusCompleted {
			key = events.KhatmaCompleted
			s.metrics.ObserveKhatmaCompleted()
		}
		log.Printf("[KHATMA] status khatma=%s %s → %s", khatmaID, prev, derived)
		s.publish(ctx, key, map[string]any{"khatma_id": khatmaID, "status": derived})
	}
	return derived, nil
}

/* =========================
   Owner operations
========================= */

// ForceComplete menyelesaikan semua juz tersisa dalam satu transaksi.
func (s *KhatmaService) ForceComplete(ctx context.Context, actor, khatmaID uuid.UUID) (*Board, error) {
	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	err := s.store.WithinTx(ctx, func(tx repository.KhatmaStore) error {
		k, err := tx.GetKhatmaForUpdate(ctx, khatmaID)
		if err != nil {
			return fmt.Errorf("khatma %s: %w", khatmaID, err)
		}
		if !k.IsOwner(actor) {
			return fmt.Errorf("%w: only the owner can force-complete", ErrForbidden)
		}
		juz, err := tx.ListJuz(ctx, khatmaID)
		if err != nil {
			return err
		}
		for _, j := range juz {
			tr, err := s.engine.ForceComplete(*k, j, actor)
			if err != nil {
				return err
			}
			if tr.NoOp {
				continue
			}
			if _, err := tx.CompareAndSwapJuz(ctx, tr.Prior, tr.Next); err != nil {
				return fmt.Errorf("force-complete juz %d: %w", j.KhatmaJuzNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveJuzOp("force_complete", resultLabel(nil, err))
		return nil, err
	}
	s.metrics.ObserveJuzOp("force_complete", "ok")

	if _, err := s.syncStatus(ctx, khatmaID); err != nil {
		return nil, err
	}
	return s.Board(ctx, actor, khatmaID)
}

func (s *KhatmaService) Delete(ctx context.Context, actor, khatmaID uuid.UUID) error {
	if actor == uuid.Nil {
		return ErrUnauthenticated
	}
	k, err := s.store.GetKhatma(ctx, khatmaID)
	if err != nil {
		return fmt.Errorf("khatma %s: %w", khatmaID, err)
	}
	if !k.IsOwner(actor) {
		return fmt.Errorf("%w: only the owner can delete a khatma", ErrForbidden)
	}
	if err := s.store.DeleteKhatma(ctx, khatmaID); err != nil {
		return fmt.Errorf("delete khatma: %w", err)
	}
	log.Printf("[KHATMA] deleted id=%s by=%s", khatmaID, actor)
	s.publish(ctx, events.KhatmaDeleted, map[string]any{"khatma_id": khatmaID})
	return nil
}

/* =========================
   Reconcile
========================= */

func (s *KhatmaService) Reconcile(ctx context.Context, khatmaID uuid.UUID) (model.KhatmaStatusEnum, error) {
	return s.syncStatus(ctx, khatmaID)
}

// ReconcileAll menyisir semua khatma per batch; berhenti di error pertama atau ctx habis.
func (s *KhatmaService) ReconcileAll(ctx context.Context, batch int) (int, error) {
	var (
		after uuid.UUID
		n     int
	)
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		ids, err := s.store.ListKhatmaIDs(ctx, after, batch)
		if err != nil {
			return n, err
		}
		if len(ids) == 0 {
			return n, nil
		}
		for _, id := range ids {
			if _, err := s.syncStatus(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
				return n, err
			}
			n++
		}
		after = ids[len(ids)-1]
	}
}

/* =========================
   Helpers
========================= */

// publish: best-effort setelah commit; gagal kirim hanya dicatat.
func (s *KhatmaService) publish(ctx context.Context, key string, payload map[string]any) {
	if err := s.pub.PublishJSON(ctx, key, payload); err != nil {
		log.Printf("[KHATMA] publish %s gagal: %v", key, err)
	}
}

func juzEventKey(op string) string {
	switch op {
	case "claim":
		return events.KhatmaJuzClaimed
	case "release":
		return events.KhatmaJuzReleased
	default:
		return events.KhatmaJuzCompleted
	}
}

func resultLabel(res *JuzResult, err error) string {
	switch {
	case err == nil && res != nil && res.NoOp:
		return "noop"
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "error"
	}
}
