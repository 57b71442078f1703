package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"khatmaku_backend/internals/features/activities/activity_logs/model"
	"khatmaku_backend/internals/features/activities/activity_logs/repository"
)

type mapAccess map[uuid.UUID]map[uuid.UUID]bool

func (m mapAccess) CanUseDeceased(_ context.Context, deceasedID, userID uuid.UUID) (bool, bool, error) {
	users, ok := m[deceasedID]
	if !ok {
		return false, false, nil
	}
	return true, users[userID], nil
}

type capturePublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *capturePublisher) PublishJSON(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func intp(v int) *int { return &v }

func TestLogActivities(t *testing.T) {
	ctx := context.Background()
	user, stranger, deceased := uuid.New(), uuid.New(), uuid.New()
	access := mapAccess{deceased: {user: true}}
	pub := &capturePublisher{}
	svc := NewActivityService(repository.NewMemoryActivityStore(), WithDeceasedAccess(access), WithPublisher(pub))

	dua, err := svc.LogDua(ctx, user, deceased)
	require.NoError(t, err)
	require.Equal(t, model.ActivityDua, dua.ActivityLogType)
	require.Equal(t, user, dua.ActivityLogUserID)
	require.NotEqual(t, uuid.Nil, dua.ActivityLogID)

	_, err = svc.LogDeed(ctx, user, deceased)
	require.NoError(t, err)

	surah := "  Al-Kahf "
	q, err := svc.LogQuran(ctx, user, deceased, QuranInput{Surah: &surah, PageFrom: intp(293), PageTo: intp(304), JuzNumber: intp(15)})
	require.NoError(t, err)
	require.Equal(t, "Al-Kahf", *q.ActivityLogSurah)
	require.Equal(t, 15, *q.ActivityLogJuzNumber)

	blank := " "
	q, err = svc.LogQuran(ctx, user, deceased, QuranInput{Surah: &blank})
	require.NoError(t, err)
	require.Nil(t, q.ActivityLogSurah)

	require.Len(t, pub.keys, 4)

	_, err = svc.LogDua(ctx, stranger, deceased)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.LogDua(ctx, user, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.LogDeed(ctx, uuid.Nil, deceased)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLogQuranValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewActivityService(repository.NewMemoryActivityStore())
	user, deceased := uuid.New(), uuid.New()

	cases := []struct {
		name string
		in   QuranInput
	}{
		{"juz zero", QuranInput{JuzNumber: intp(0)}},
		{"juz 31", QuranInput{JuzNumber: intp(31)}},
		{"page beyond mushaf", QuranInput{PageTo: intp(605)}},
		{"page zero", QuranInput{PageFrom: intp(0)}},
		{"reversed range", QuranInput{PageFrom: intp(20), PageTo: intp(10)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.LogQuran(ctx, user, deceased, tc.in)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := svc.LogQuran(ctx, user, deceased, QuranInput{JuzNumber: intp(30), PageFrom: intp(582), PageTo: intp(582)})
	require.NoError(t, err)
}

func TestListMineAndWeeklySummary(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	svc := NewActivityService(repository.NewMemoryActivityStore(), WithClock(clk.now))
	user, other, deceased := uuid.New(), uuid.New(), uuid.New()

	// dicatat 10 hari lalu relatif ke akhir tes: di luar ringkasan
	_, err := svc.LogQuran(ctx, user, deceased, QuranInput{})
	require.NoError(t, err)

	clk.advance(5 * 24 * time.Hour)
	for i := 0; i < 3; i++ {
		_, err = svc.LogDua(ctx, user, deceased)
		require.NoError(t, err)
		clk.advance(time.Hour)
	}
	_, err = svc.LogDeed(ctx, user, deceased)
	require.NoError(t, err)
	clk.advance(time.Minute)
	_, err = svc.LogQuran(ctx, user, deceased, QuranInput{JuzNumber: intp(1)})
	require.NoError(t, err)
	_, err = svc.LogDua(ctx, other, deceased)
	require.NoError(t, err)

	clk.advance(5 * 24 * time.Hour)

	sum, err := svc.WeeklySummary(ctx, user)
	require.NoError(t, err)
	require.EqualValues(t, 3, sum.DuaCount)
	require.EqualValues(t, 1, sum.DeedCount)
	require.EqualValues(t, 1, sum.QuranSessions)
	require.Equal(t, clk.now().Add(-model.SummaryWindow), sum.Since)

	rows, total, err := svc.ListMine(ctx, user, 2, 0)
	require.NoError(t, err)
	require.EqualValues(t, 6, total)
	require.Len(t, rows, 2)
	require.Equal(t, model.ActivityQuran, rows[0].ActivityLogType)
	require.False(t, rows[0].ActivityLogTimestamp.Before(rows[1].ActivityLogTimestamp))

	rows, _, err = svc.ListMine(ctx, user, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, model.ActivityQuran, rows[0].ActivityLogType)

	_, err = svc.WeeklySummary(ctx, uuid.Nil)
	require.ErrorIs(t, err, ErrUnauthenticated)
}
