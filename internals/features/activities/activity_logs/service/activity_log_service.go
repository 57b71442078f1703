// file: internals/features/activities/activity_logs/service/activity_log_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"khatmaku_backend/internals/events"
	"khatmaku_backend/internals/features/activities/activity_logs/model"
	"khatmaku_backend/internals/features/activities/activity_logs/repository"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("deceased profile not found")
	ErrInvalidInput    = errors.New("invalid input")
)

const (
	minJuz      = 1
	maxJuz      = 30
	maxMushafPg = 604
)

// DeceasedAccess: sama dengan yang dipakai khatma (diimplementasi ProfileService).
type DeceasedAccess interface {
	CanUseDeceased(ctx context.Context, deceasedID, userID uuid.UUID) (exists bool, allowed bool, err error)
}

type ActivityService struct {
	store  repository.ActivityStore
	access DeceasedAccess
	pub    events.Publisher
	now    func() time.Time
}

type Option func(*ActivityService)

func WithDeceasedAccess(a DeceasedAccess) Option {
	return func(s *ActivityService) { s.access = a }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *ActivityService) {
		if p != nil {
			s.pub = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *ActivityService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewActivityService(store repository.ActivityStore, opts ...Option) *ActivityService {
	s := &ActivityService{store: store, pub: events.NopPublisher{}, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// QuranInput: semua opsional, tapi kalau diisi harus masuk akal.
type QuranInput struct {
	Surah     *string
	PageFrom  *int
	PageTo    *int
	JuzNumber *int
}

func (in QuranInput) validate() error {
	if in.JuzNumber != nil && (*in.JuzNumber < minJuz || *in.JuzNumber > maxJuz) {
		return fmt.Errorf("%w: juz_number must be between %d and %d", ErrInvalidInput, minJuz, maxJuz)
	}
	for _, p := range []*int{in.PageFrom, in.PageTo} {
		if p != nil && (*p < 1 || *p > maxMushafPg) {
			return fmt.Errorf("%w: page must be between 1 and %d", ErrInvalidInput, maxMushafPg)
		}
	}
	if in.PageFrom != nil && in.PageTo != nil && *in.PageFrom > *in.PageTo {
		return fmt.Errorf("%w: page_from is after page_to", ErrInvalidInput)
	}
	return nil
}

func (s *ActivityService) checkAccess(ctx context.Context, actor, deceasedID uuid.UUID) error {
	if actor == uuid.Nil {
		return ErrUnauthenticated
	}
	if s.access == nil {
		return nil
	}
	exists, ok, err := s.access.CanUseDeceased(ctx, deceasedID, actor)
	switch {
	case err != nil:
		return err
	case !exists:
		return ErrNotFound
	case !ok:
		return fmt.Errorf("%w: no access to this deceased profile", ErrForbidden)
	}
	return nil
}

func (s *ActivityService) record(ctx context.Context, actor, deceasedID uuid.UUID, m *model.ActivityLogModel) (*model.ActivityLogModel, error) {
	if err := s.checkAccess(ctx, actor, deceasedID); err != nil {
		return nil, err
	}
	m.ActivityLogUserID = actor
	m.ActivityLogDeceasedID = deceasedID
	m.ActivityLogTimestamp = s.now().UTC()

	if err := s.store.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDeceasedMissing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("log %s: %w", m.ActivityLogType, err)
	}
	if err := s.pub.PublishJSON(ctx, events.ActivityLogged, m); err != nil {
		log.Printf("[ACTIVITY] publish %s: %v", m.ActivityLogID, err)
	}
	return m, nil
}

func (s *ActivityService) LogDua(ctx context.Context, actor, deceasedID uuid.UUID) (*model.ActivityLogModel, error) {
	return s.record(ctx, actor, deceasedID, &model.ActivityLogModel{ActivityLogType: model.ActivityDua})
}

func (s *ActivityService) LogDeed(ctx context.Context, actor, deceasedID uuid.UUID) (*model.ActivityLogModel, error) {
	return s.record(ctx, actor, deceasedID, &model.ActivityLogModel{ActivityLogType: model.ActivityDeed})
}

func (s *ActivityService) LogQuran(ctx context.Context, actor, deceasedID uuid.UUID, in QuranInput) (*model.ActivityLogModel, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var surah *string
	if in.Surah != nil {
		if v := strings.TrimSpace(*in.Surah); v != "" {
			surah = &v
		}
	}
	return s.record(ctx, actor, deceasedID, &model.ActivityLogModel{
		ActivityLogType:      model.ActivityQuran,
		ActivityLogSurah:     surah,
		ActivityLogPageFrom:  in.PageFrom,
		ActivityLogPageTo:    in.PageTo,
		ActivityLogJuzNumber: in.JuzNumber,
	})
}

func (s *ActivityService) ListMine(ctx context.Context, actor uuid.UUID, limit, offset int) ([]model.ActivityLogModel, int64, error) {
	if actor == uuid.Nil {
		return nil, 0, ErrUnauthenticated
	}
	return s.store.ListByUser(ctx, actor, limit, offset)
}

// WeeklySummary: 7 hari terakhir (rolling), semua almarhum.
func (s *ActivityService) WeeklySummary(ctx context.Context, actor uuid.UUID) (model.WeeklySummary, error) {
	if actor == uuid.Nil {
		return model.WeeklySummary{}, ErrUnauthenticated
	}
	since := s.now().UTC().Add(-model.SummaryWindow)
	return s.store.CountByTypeSince(ctx, actor, since)
}
