// file: internals/features/deceased/deceased_collaborators/service/deceased_collaborator_service.go
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"khatmaku_backend/internals/features/deceased/deceased_collaborators/model"
	"khatmaku_backend/internals/features/deceased/deceased_collaborators/repository"
	profileModel "khatmaku_backend/internals/features/deceased/deceased_profiles/model"
	profileSvc "khatmaku_backend/internals/features/deceased/deceased_profiles/service"
)

var (
	ErrUnauthenticated = profileSvc.ErrUnauthenticated
	ErrForbidden       = profileSvc.ErrForbidden
	ErrNotFound        = profileSvc.ErrNotFound
	ErrInvalidCode     = errors.New("invite code invalid")
	ErrNotMember       = errors.New("not a collaborator")
)

type JoinResult string

const (
	JoinCreated       JoinResult = "created"
	JoinAlreadyExists JoinResult = "already_exists"
)

const inviteCodeLen = 8

// ProfileDirectory: bagian ProfileService yang dibutuhkan di sini.
type ProfileDirectory interface {
	Lookup(ctx context.Context, id uuid.UUID) (*profileModel.DeceasedProfileModel, error)
	SetInviteCodeHash(ctx context.Context, actor, id uuid.UUID, hash []byte, at time.Time) error
}

type CollaboratorService struct {
	store    repository.CollaboratorStore
	profiles ProfileDirectory
	now      func() time.Time
}

func NewCollaboratorService(store repository.CollaboratorStore, profiles ProfileDirectory) *CollaboratorService {
	return &CollaboratorService{store: store, profiles: profiles, now: time.Now}
}

/* =========================
   Utils
========================= */

func verifyJoinCode(stored []byte, code string) bool {
	if len(stored) == 0 || strings.TrimSpace(code) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(stored, []byte(strings.TrimSpace(code))) == nil
}

func randBase36(n int) (string, error) {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		x, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[x.Int64()])
	}
	return b.String(), nil
}

func (s *CollaboratorService) lookup(ctx context.Context, deceasedID uuid.UUID) (*profileModel.DeceasedProfileModel, error) {
	p, err := s.profiles.Lookup(ctx, deceasedID)
	if err != nil {
		if errors.Is(err, profileSvc.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

/* =========================
   Operations
========================= */

// Join: profil public bebas, private butuh kode undangan. Owner dianggap sudah anggota.
func (s *CollaboratorService) Join(ctx context.Context, actor, deceasedID uuid.UUID, code string) (JoinResult, error) {
	if actor == uuid.Nil {
		return "", ErrUnauthenticated
	}
	p, err := s.lookup(ctx, deceasedID)
	if err != nil {
		return "", err
	}
	if p.IsOwner(actor) {
		return JoinAlreadyExists, nil
	}
	if !p.IsPublic() && !verifyJoinCode(p.DeceasedProfileInviteCodeHash, code) {
		return "", ErrInvalidCode
	}

	err = s.store.Add(ctx, &model.DeceasedCollaboratorModel{
		DeceasedCollaboratorDeceasedID: deceasedID,
		DeceasedCollaboratorUserID:     actor,
		DeceasedCollaboratorRole:       model.RoleCollaborator,
		DeceasedCollaboratorCreatedAt:  s.now(),
	})
	switch {
	case err == nil:
		log.Printf("[COLLAB] join deceased=%s user=%s", deceasedID, actor)
		return JoinCreated, nil
	case errors.Is(err, repository.ErrDuplicate):
		return JoinAlreadyExists, nil
	default:
		return "", fmt.Errorf("join: %w", err)
	}
}

func (s *CollaboratorService) Leave(ctx context.Context, actor, deceasedID uuid.UUID) error {
	if actor == uuid.Nil {
		return ErrUnauthenticated
	}
	err := s.store.Remove(ctx, deceasedID, actor)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotMember
	}
	return err
}

// Members: hanya owner & anggota yang boleh melihat daftar.
func (s *CollaboratorService) Members(ctx context.Context, actor, deceasedID uuid.UUID) ([]model.DeceasedCollaboratorModel, error) {
	if actor == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	p, err := s.lookup(ctx, deceasedID)
	if err != nil {
		return nil, err
	}
	if !p.IsOwner(actor) {
		ok, err := s.store.IsMember(ctx, deceasedID, actor)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: not a member of this profile", ErrForbidden)
		}
	}
	return s.store.List(ctx, deceasedID)
}

// RotateInviteCode: kode lama langsung tidak berlaku. Plain code hanya dikembalikan sekali.
func (s *CollaboratorService) RotateInviteCode(ctx context.Context, actor, deceasedID uuid.UUID) (string, error) {
	if actor == uuid.Nil {
		return "", ErrUnauthenticated
	}
	raw, err := randBase36(inviteCodeLen)
	if err != nil {
		return "", fmt.Errorf("invite code: %w", err)
	}
	plain := raw[:4] + "-" + raw[4:]
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("invite code: %w", err)
	}
	if err := s.profiles.SetInviteCodeHash(ctx, actor, deceasedID, hash, s.now()); err != nil {
		return "", err
	}
	log.Printf("[COLLAB] invite code rotated deceased=%s", deceasedID)
	return plain, nil
}
