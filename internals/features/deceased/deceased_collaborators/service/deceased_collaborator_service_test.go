package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"khatmaku_backend/internals/features/deceased/deceased_collaborators/repository"
	profileModel "khatmaku_backend/internals/features/deceased/deceased_profiles/model"
)

type fakeDirectory struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*profileModel.DeceasedProfileModel
}

func (f *fakeDirectory) add(owner uuid.UUID, vis profileModel.VisibilityEnum) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.rows[id] = &profileModel.DeceasedProfileModel{
		DeceasedProfileID:          id,
		DeceasedProfileOwnerUserID: owner,
		DeceasedProfileName:        "Almarhum",
		DeceasedProfileVisibility:  vis,
	}
	return id
}

func (f *fakeDirectory) Lookup(_ context.Context, id uuid.UUID) (*profileModel.DeceasedProfileModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeDirectory) SetInviteCodeHash(_ context.Context, actor, id uuid.UUID, hash []byte, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return ErrNotFound
	}
	if !p.IsOwner(actor) {
		return ErrForbidden
	}
	p.DeceasedProfileInviteCodeHash = hash
	p.DeceasedProfileInviteCodeSetAt = &at
	return nil
}

func newCollabFixture() (*CollaboratorService, *fakeDirectory, *repository.MemoryCollaboratorStore) {
	dir := &fakeDirectory{rows: map[uuid.UUID]*profileModel.DeceasedProfileModel{}}
	store := repository.NewMemoryCollaboratorStore()
	return NewCollaboratorService(store, dir), dir, store
}

func TestJoinPublicProfile(t *testing.T) {
	ctx := context.Background()
	svc, dir, store := newCollabFixture()
	owner, user := uuid.New(), uuid.New()
	id := dir.add(owner, profileModel.VisibilityPublic)

	res, err := svc.Join(ctx, user, id, "")
	require.NoError(t, err)
	require.Equal(t, JoinCreated, res)

	res, err = svc.Join(ctx, user, id, "")
	require.NoError(t, err)
	require.Equal(t, JoinAlreadyExists, res)

	res, err = svc.Join(ctx, owner, id, "")
	require.NoError(t, err)
	require.Equal(t, JoinAlreadyExists, res)

	ok, err := store.IsMember(ctx, id, user)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Join(ctx, uuid.Nil, id, "")
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.Join(ctx, user, uuid.New(), "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestJoinPrivateProfileNeedsInviteCode(t *testing.T) {
	ctx := context.Background()
	svc, dir, _ := newCollabFixture()
	owner, user := uuid.New(), uuid.New()
	id := dir.add(owner, profileModel.VisibilityPrivate)

	_, err := svc.Join(ctx, user, id, "")
	require.ErrorIs(t, err, ErrInvalidCode)

	_, err = svc.RotateInviteCode(ctx, user, id)
	require.ErrorIs(t, err, ErrForbidden)

	code, err := svc.RotateInviteCode(ctx, owner, id)
	require.NoError(t, err)
	require.Len(t, code, inviteCodeLen+1)
	require.Equal(t, "-", code[4:5])

	_, err = svc.Join(ctx, user, id, "salah-kode")
	require.ErrorIs(t, err, ErrInvalidCode)

	res, err := svc.Join(ctx, user, id, "  "+code+" ")
	require.NoError(t, err)
	require.Equal(t, JoinCreated, res)

	newCode, err := svc.RotateInviteCode(ctx, owner, id)
	require.NoError(t, err)
	require.NotEqual(t, code, newCode)
	_, err = svc.Join(ctx, uuid.New(), id, code)
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestConcurrentJoinsCreateOnce(t *testing.T) {
	ctx := context.Background()
	svc, dir, store := newCollabFixture()
	id := dir.add(uuid.New(), profileModel.VisibilityPublic)
	user := uuid.New()

	results := make([]JoinResult, 8)
	var g errgroup.Group
	for i := range results {
		i := i
		g.Go(func() error {
			r, err := svc.Join(ctx, user, id, "")
			results[i] = r
			return err
		})
	}
	require.NoError(t, g.Wait())

	created := 0
	for _, r := range results {
		if r == JoinCreated {
			created++
		}
	}
	require.Equal(t, 1, created)
	rows, err := store.List(ctx, id)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestMembersAndLeave(t *testing.T) {
	ctx := context.Background()
	svc, dir, _ := newCollabFixture()
	owner, a, b := uuid.New(), uuid.New(), uuid.New()
	id := dir.add(owner, profileModel.VisibilityPublic)

	for _, u := range []uuid.UUID{a, b} {
		_, err := svc.Join(ctx, u, id, "")
		require.NoError(t, err)
	}

	rows, err := svc.Members(ctx, owner, id)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	_, err = svc.Members(ctx, uuid.New(), id)
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Leave(ctx, a, id))
	require.ErrorIs(t, svc.Leave(ctx, a, id), ErrNotMember)
	_, err = svc.Members(ctx, a, id)
	require.ErrorIs(t, err, ErrForbidden)

	rows, err = svc.Members(ctx, b, id)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, b, rows[0].DeceasedCollaboratorUserID)
}
