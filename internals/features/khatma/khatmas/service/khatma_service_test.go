package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"khatmaku_backend/internals/events"
	"khatmaku_backend/internals/features/khatma/khatmas/model"
	"khatmaku_backend/internals/features/khatma/khatmas/repository"
)

type recordedEvent struct {
	key     string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{key: key, payload: v})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.key == key {
			n++
		}
	}
	return n
}

type countingRecorder struct {
	mu        sync.Mutex
	ops       map[string]int
	completed int
}

func (r *countingRecorder) ObserveJuzOp(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ops == nil {
		r.ops = map[string]int{}
	}
	r.ops[op+"/"+result]++
}

func (r *countingRecorder) ObserveKhatmaCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

// staticAccess: daftar (deceased, user) yang diizinkan.
type staticAccess struct {
	known   map[uuid.UUID]bool
	allowed map[[2]uuid.UUID]bool
}

func (a staticAccess) CanUseDeceased(_ context.Context, deceasedID, userID uuid.UUID) (bool, bool, error) {
	if !a.known[deceasedID] {
		return false, false, nil
	}
	return true, a.allowed[[2]uuid.UUID{deceasedID, userID}], nil
}

type fixture struct {
	store *repository.MemoryKhatmaStore
	svc   *KhatmaService
	pub   *recordingPublisher
	rec   *countingRecorder
}

func newFixture(opts ...Option) fixture {
	f := fixture{
		store: repository.NewMemoryKhatmaStore(),
		pub:   &recordingPublisher{},
		rec:   &countingRecorder{},
	}
	all := append([]Option{
		WithPublisher(f.pub),
		WithMetrics(f.rec),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	f.svc = NewKhatmaService(f.store, all...)
	return f
}

func requireBoardInvariants(t *testing.T, svc *KhatmaService, actor, khatmaID uuid.UUID) *Board {
	t.Helper()
	b, err := svc.Board(context.Background(), actor, khatmaID)
	require.NoError(t, err)
	require.Len(t, b.Juz, model.TotalJuz)
	for i, j := range b.Juz {
		require.Equal(t, i+1, j.KhatmaJuzNumber)
		require.NoError(t, j.CheckInvariant())
	}
	// proyeksi tersimpan selalu sama dengan turunan
	require.Equal(t, b.Status, b.Khatma.KhatmaStatus)
	return b
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("thirty unclaimed juz numbered 1..30", func(t *testing.T) {
		f := newFixture()
		owner := uuid.New()

		b, err := f.svc.Create(ctx, owner, uuid.New(), true)
		require.NoError(t, err)
		require.Len(t, b.Juz, model.TotalJuz)
		for i, j := range b.Juz {
			require.Equal(t, i+1, j.KhatmaJuzNumber)
			require.Equal(t, model.JuzStatusUnclaimed, j.KhatmaJuzStatus)
			require.Nil(t, j.KhatmaJuzAssignedUserID)
		}
		require.Equal(t, model.KhatmaStatusActive, b.Status)
		require.Equal(t, Progress{Unclaimed: model.TotalJuz}, b.Progress)
		require.Equal(t, 1, f.pub.count(events.KhatmaCreated))
	})

	t.Run("no identity", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, uuid.Nil, uuid.New(), true)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("partial juz insert leaves nothing behind", func(t *testing.T) {
		f := newFixture()
		f.store.FailJuzInsertAt = 17
		deceased := uuid.New()
		owner := uuid.New()

		_, err := f.svc.Create(ctx, owner, deceased, true)
		require.ErrorIs(t, err, ErrPersistenceConflict)

		rows, err := f.svc.ListForDeceased(ctx, owner, deceased)
		require.NoError(t, err)
		require.Empty(t, rows)
		ids, err := f.store.ListKhatmaIDs(ctx, uuid.Nil, 10)
		require.NoError(t, err)
		require.Empty(t, ids)
	})

	t.Run("deceased access is checked when configured", func(t *testing.T) {
		deceased := uuid.New()
		owner := uuid.New()
		f := newFixture(WithDeceasedAccess(staticAccess{
			known:   map[uuid.UUID]bool{deceased: true},
			allowed: map[[2]uuid.UUID]bool{{deceased, owner}: true},
		}))

		_, err := f.svc.Create(ctx, uuid.New(), deceased, true)
		require.ErrorIs(t, err, ErrForbidden)
		_, err = f.svc.Create(ctx, owner, uuid.New(), true)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = f.svc.Create(ctx, owner, deceased, true)
		require.NoError(t, err)
	})
}

func TestClaimReleaseComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner, reader := uuid.New(), uuid.New()

	b, err := f.svc.Create(ctx, owner, uuid.New(), true)
	require.NoError(t, err)
	juz7 := b.Juz[6]

	res, err := f.svc.ClaimJuz(ctx, reader, juz7.KhatmaJuzID)
	require.NoError(t, err)
	require.False(t, res.NoOp)
	require.True(t, res.Juz.IsAssignedTo(reader))
	require.Equal(t, juz7.KhatmaJuzVersion+1, res.Juz.KhatmaJuzVersion)
	requireBoardInvariants(t, f.svc, owner, b.Khatma.KhatmaID)

	res, err = f.svc.ClaimJuz(ctx, reader, juz7.KhatmaJuzID)
	require.NoError(t, err)
	require.True(t, res.NoOp)

	_, err = f.svc.CompleteJuz(ctx, owner, juz7.KhatmaJuzID)
	require.ErrorIs(t, err, ErrForbidden)

	res, err = f.svc.CompleteJuz(ctx, reader, juz7.KhatmaJuzID)
	require.NoError(t, err)
	require.Equal(t, model.JuzStatusCompleted, res.Juz.KhatmaJuzStatus)
	require.True(t, fixedNow.Equal(*res.Juz.KhatmaJuzCompletedAt))
	require.Equal(t, model.KhatmaStatusActive, res.KhatmaStatus)

	res, err = f.svc.CompleteJuz(ctx, reader, juz7.KhatmaJuzID)
	require.NoError(t, err)
	require.True(t, res.NoOp)

	res, err = f.svc.ReleaseJuz(ctx, owner, juz7.KhatmaJuzID)
	require.NoError(t, err)
	require.Equal(t, model.JuzStatusUnclaimed, res.Juz.KhatmaJuzStatus)
	require.Nil(t, res.Juz.KhatmaJuzCompletedAt)
	requireBoardInvariants(t, f.svc, owner, b.Khatma.KhatmaID)

	t.Run("release is idempotent for the owner", func(t *testing.T) {
		res, err := f.svc.ReleaseJuz(ctx, owner, juz7.KhatmaJuzID)
		require.NoError(t, err)
		require.True(t, res.NoOp)
		require.Equal(t, model.JuzStatusUnclaimed, res.Juz.KhatmaJuzStatus)
	})

	t.Run("stranger cannot release an unclaimed juz", func(t *testing.T) {
		_, err := f.svc.ReleaseJuz(ctx, uuid.New(), juz7.KhatmaJuzID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown juz", func(t *testing.T) {
		_, err := f.svc.ClaimJuz(ctx, reader, uuid.New())
		require.ErrorIs(t, err, ErrNotFound)
		_, err = f.svc.ReleaseJuz(ctx, reader, uuid.New())
		require.ErrorIs(t, err, ErrNotFound)
		_, err = f.svc.CompleteJuz(ctx, reader, uuid.New())
		require.ErrorIs(t, err, ErrNotFound)
	})

	require.Equal(t, 1, f.rec.ops["claim/ok"])
	require.Equal(t, 1, f.rec.ops["claim/noop"])
	require.Equal(t, 1, f.rec.ops["complete/forbidden"])
	require.Equal(t, 1, f.pub.count(events.KhatmaJuzClaimed))
	require.Equal(t, 1, f.pub.count(events.KhatmaJuzReleased))
}

func TestNonSharedKhatma(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := uuid.New()

	b, err := f.svc.Create(ctx, owner, uuid.New(), false)
	require.NoError(t, err)

	for _, j := range b.Juz {
		_, err := f.svc.ClaimJuz(ctx, uuid.New(), j.KhatmaJuzID)
		require.ErrorIs(t, err, ErrForbidden)
	}
	res, err := f.svc.ClaimJuz(ctx, owner, b.Juz[0].KhatmaJuzID)
	require.NoError(t, err)
	require.True(t, res.Juz.IsAssignedTo(owner))
}

func TestJuzActionsRespectDeceasedAccess(t *testing.T) {
	ctx := context.Background()
	deceased := uuid.New()
	owner, member, stranger := uuid.New(), uuid.New(), uuid.New()
	f := newFixture(WithDeceasedAccess(staticAccess{
		known: map[uuid.UUID]bool{deceased: true},
		allowed: map[[2]uuid.UUID]bool{
			{deceased, owner}:  true,
			{deceased, member}: true,
		},
	}))

	b, err := f.svc.Create(ctx, owner, deceased, true)
	require.NoError(t, err)
	juz1 := b.Juz[0].KhatmaJuzID

	_, err = f.svc.Board(ctx, stranger, b.Khatma.KhatmaID)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.ReleaseJuz(ctx, stranger, juz1)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.CompleteJuz(ctx, stranger, juz1)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.ClaimJuz(ctx, member, juz1)
	require.NoError(t, err)
	res, err := f.svc.ReleaseJuz(ctx, member, juz1)
	require.NoError(t, err)
	require.Equal(t, model.JuzStatusUnclaimed, res.Juz.KhatmaJuzStatus)

	// member yang bukan assignee tetap ditolak pada juz kosong
	_, err = f.svc.ReleaseJuz(ctx, member, juz1)
	require.ErrorIs(t, err, ErrForbidden)

	require.Equal(t, 1, f.pub.count(events.KhatmaJuzReleased))
}

// racingStore: pesaing meng-commit klaim tepat setelah GetJuz pertama,
// sehingga CAS milik pemanggil memakai snapshot basi.
type racingStore struct {
	*repository.MemoryKhatmaStore
	rival uuid.UUID
	once  sync.Once
}

func (r *racingStore) GetJuz(ctx context.Context, juzID uuid.UUID) (*model.KhatmaJuzModel, error) {
	j, err := r.MemoryKhatmaStore.GetJuz(ctx, juzID)
	if err != nil {
		return nil, err
	}
	var casErr error
	r.once.Do(func() {
		next := *j
		rival := r.rival
		next.KhatmaJuzAssignedUserID = &rival
		next.KhatmaJuzStatus = model.JuzStatusInProgress
		_, casErr = r.MemoryKhatmaStore.CompareAndSwapJuz(ctx, *j, next)
	})
	if casErr != nil {
		return nil, casErr
	}
	return j, nil
}

func TestClaimLosesCompareAndSwapRace(t *testing.T) {
	ctx := context.Background()
	owner, reader, rival := uuid.New(), uuid.New(), uuid.New()

	base := repository.NewMemoryKhatmaStore()
	rec := &countingRecorder{}
	seed := NewKhatmaService(base)
	b, err := seed.Create(ctx, owner, uuid.New(), true)
	require.NoError(t, err)

	racer := &racingStore{MemoryKhatmaStore: base, rival: rival}
	s := NewKhatmaService(racer, WithMetrics(rec))

	_, err = s.ClaimJuz(ctx, reader, b.Juz[4].KhatmaJuzID)
	require.ErrorIs(t, err, ErrConflict)
	require.NotErrorIs(t, err, ErrAlreadyClaimed)
	require.True(t, ShouldRefresh(err))
	require.Equal(t, 1, rec.ops["claim/conflict"])

	// pesaing yang menang, bukan pemanggil
	j, err := base.GetJuz(ctx, b.Juz[4].KhatmaJuzID)
	require.NoError(t, err)
	require.True(t, j.IsAssignedTo(rival))
	require.Equal(t, b.Juz[4].KhatmaJuzVersion+1, j.KhatmaJuzVersion)
}

type failingPublisher struct{}

func (failingPublisher) PublishJSON(context.Context, string, any) error {
	return errors.New("amqp channel closed")
}

func (failingPublisher) Close() error { return nil }

func TestPublishFailureDoesNotFailCommittedTransition(t *testing.T) {
	ctx := context.Background()
	s := NewKhatmaService(repository.NewMemoryKhatmaStore(), WithPublisher(failingPublisher{}))
	owner := uuid.New()

	b, err := s.Create(ctx, owner, uuid.New(), true)
	require.NoError(t, err)
	res, err := s.ClaimJuz(ctx, owner, b.Juz[0].KhatmaJuzID)
	require.NoError(t, err)
	require.True(t, res.Juz.IsAssignedTo(owner))
	require.NoError(t, s.Delete(ctx, owner, b.Khatma.KhatmaID))
}

func TestConcurrentClaimsSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := uuid.New()

	b, err := f.svc.Create(ctx, owner, uuid.New(), true)
	require.NoError(t, err)
	target := b.Juz[4].KhatmaJuzID

	const readers = 16
	var (
		wins   atomic.Int32
		losers atomic.Int32
		g      errgroup.Group
	)
	for i := 0; i < readers; i++ {
		g.Go(func() error {
			_, err := f.svc.ClaimJuz(ctx, uuid.New(), target)
			switch {
			case err == nil:
				wins.Add(1)
				return nil
			case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyClaimed):
				losers.Add(1)
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 1, wins.Load())
	require.EqualValues(t, readers-1, losers.Load())

	board := requireBoardInvariants(t, f.svc, owner, b.Khatma.KhatmaID)
	require.Equal(t, model.JuzStatusInProgress, board.Juz[4].KhatmaJuzStatus)
	require.Equal(t, 1, board.Progress.InProgress)
}

func TestConcurrentCompletionsDeriveOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := uuid.New()

	b, err := f.svc.Create(ctx, owner, uuid.New(), true)
	require.NoError(t, err)

	readers := make([]uuid.UUID, model.TotalJuz)
	for i, j := range b.Juz {
		readers[i] = uuid.New()
		_, err := f.svc.ClaimJuz(ctx, readers[i], j.KhatmaJuzID)
		require.NoError(t, err)
	}

	var g errgroup.Group
	for i, j := range b.Juz {
		g.Go(func() error {
			_, err := f.svc.CompleteJuz(ctx, readers[i], j.KhatmaJuzID)
			return err
		})
	}
	require.NoError(t, g.Wait())

	board := requireBoardInvariants(t, f.svc, owner, b.Khatma.KhatmaID)
	require.Equal(t, model.KhatmaStatusCompleted, board.Status)
	require.Equal(t, 1, f.pub.count(events.KhatmaCompleted))
	require.Equal(t, 1, f.rec.completed)
}

func TestScenarioSharedReading(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a, bUser := uuid.New(), uuid.New()

	board, err := f.svc.Create(ctx, a, uuid.New(), true)
	require.NoError(t, err)
	require.Equal(t, model.TotalJuz, board.Progress.Unclaimed)
	juz5 := board.Juz[4].KhatmaJuzID

	res, err := f.svc.ClaimJuz(ctx, a, juz5)
	require.NoError(t, err)
	require.Equal(t, model.JuzStatusInProgress, res.Juz.KhatmaJuzStatus)
	require.True(t, res.Juz.IsAssignedTo(a))

	_, err = f.svc.ClaimJuz(ctx, bUser, juz5)
	require.True(t, ShouldRefresh(err), "got %v", err)

	res, err = f.svc.CompleteJuz(ctx, a, juz5)
	require.NoError(t, err)
	require.NotNil(t, res.Juz.KhatmaJuzCompletedAt)
	require.Equal(t, model.KhatmaStatusActive, res.KhatmaStatus)

	for i, j := range board.Juz {
		if i == 4 {
			continue
		}
		_, err := f.svc.ClaimJuz(ctx, a, j.KhatmaJuzID)
		require.NoError(t, err)
		res, err := f.svc.CompleteJuz(ctx, a, j.KhatmaJuzID)
		require.NoError(t, err)
		if i == model.TotalJuz-1 {
			require.Equal(t, model.KhatmaStatusCompleted, res.KhatmaStatus)
		} else {
			require.Equal(t, model.KhatmaStatusActive, res.KhatmaStatus, "juz %d", i+1)
		}
	}

	// revert satu juz → khatma aktif lagi
	res, err = f.svc.ReleaseJuz(ctx, a, board.Juz[12].KhatmaJuzID)
	require.NoError(t, err)
	require.Equal(t, model.KhatmaStatusActive, res.KhatmaStatus)
	got := requireBoardInvariants(t, f.svc, a, board.Khatma.KhatmaID)
	require.Equal(t, model.KhatmaStatusActive, got.Status)
	require.Equal(t, 1, f.pub.count(events.KhatmaReopened))
}

func TestForceCompleteAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner, reader := uuid.New(), uuid.New()

	b, err := f.svc.Create(ctx, owner, uuid.New(), true)
	require.NoError(t, err)
	_, err = f.svc.ClaimJuz(ctx, reader, b.Juz[3].KhatmaJuzID)
	require.NoError(t, err)

	_, err = f.svc.ForceComplete(ctx, reader, b.Khatma.KhatmaID)
	require.ErrorIs(t, err, ErrForbidden)
	untouched := requireBoardInvariants(t, f.svc, owner, b.Khatma.KhatmaID)
	require.Equal(t, 1, untouched.Progress.InProgress)

	done, err := f.svc.ForceComplete(ctx, owner, b.Khatma.KhatmaID)
	require.NoError(t, err)
	require.Equal(t, model.KhatmaStatusCompleted, done.Status)
	require.Equal(t, model.KhatmaStatusCompleted, done.Khatma.KhatmaStatus)
	require.True(t, done.Juz[3].IsAssignedTo(reader))
	require.True(t, done.Juz[0].IsAssignedTo(owner))

	require.ErrorIs(t, f.svc.Delete(ctx, reader, b.Khatma.KhatmaID), ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, owner, b.Khatma.KhatmaID))
	_, err = f.svc.Board(ctx, owner, b.Khatma.KhatmaID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.ClaimJuz(ctx, reader, b.Juz[0].KhatmaJuzID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileAllRepairsDriftedProjection(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		b, err := f.svc.Create(ctx, owner, uuid.New(), false)
		require.NoError(t, err)
		ids = append(ids, b.Khatma.KhatmaID)
	}
	// proyeksi dirusak langsung di storage
	require.NoError(t, f.store.UpdateKhatmaStatus(ctx, ids[2], model.KhatmaStatusCompleted))

	n, err := f.svc.ReconcileAll(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	k, err := f.store.GetKhatma(ctx, ids[2])
	require.NoError(t, err)
	require.Equal(t, model.KhatmaStatusActive, k.KhatmaStatus)
}
