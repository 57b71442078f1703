// file: internals/features/khatma/khatmas/service/assignment_engine.go
package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"khatmaku_backend/internals/features/khatma/khatmas/model"
)

// Transition adalah hasil keputusan engine: state baru + state lama
// yang harus masih cocok di storage saat commit (compare-and-swap).
type Transition struct {
	Prior model.KhatmaJuzModel
	Next  model.KhatmaJuzModel
	// NoOp: tidak ada yang perlu ditulis (retry idempotent).
	NoOp bool
}

// AssignmentEngine memutuskan transisi claim/release/complete.
// Murni: tidak menyentuh DB maupun jaringan.
type AssignmentEngine struct {
	Now func() time.Time
}

func NewAssignmentEngine(now func() time.Time) *AssignmentEngine {
	if now == nil {
		now = time.Now
	}
	return &AssignmentEngine{Now: now}
}

func noop(j model.KhatmaJuzModel) Transition {
	return Transition{Prior: j, Next: j, NoOp: true}
}

func checkSlot(k model.KhatmaModel, j model.KhatmaJuzModel) error {
	if j.KhatmaJuzKhatmaID != k.KhatmaID {
		return fmt.Errorf("%w: juz %s does not belong to khatma %s", ErrInvalidBoard, j.KhatmaJuzID, k.KhatmaID)
	}
	if err := j.CheckInvariant(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	return nil
}

// Claim: unclaimed → in_progress untuk actor.
func (e *AssignmentEngine) Claim(k model.KhatmaModel, j model.KhatmaJuzModel, actor uuid.UUID) (Transition, error) {
	if actor == uuid.Nil {
		return Transition{}, ErrUnauthenticated
	}
	if err := checkSlot(k, j); err != nil {
		return Transition{}, err
	}
	// mode baca sendiri: hanya owner
	if !k.KhatmaIsShared && !k.IsOwner(actor) {
		return Transition{}, fmt.Errorf("%w: khatma is not shared", ErrForbidden)
	}

	switch j.KhatmaJuzStatus {
	case model.JuzStatusUnclaimed:
		next := j
		a := actor
		next.KhatmaJuzAssignedUserID = &a
		next.KhatmaJuzStatus = model.JuzStatusInProgress
		next.KhatmaJuzCompletedAt = nil
		return Transition{Prior: j, Next: next}, nil
	default:
		if j.IsAssignedTo(actor) {
			return noop(j), nil
		}
		return Transition{}, fmt.Errorf("%w: juz %d is %s", ErrAlreadyClaimed, j.KhatmaJuzNumber, j.KhatmaJuzStatus)
	}
}

// Release: in_progress/completed → unclaimed. Assignee atau owner.
// Release pada juz yang sudah unclaimed = no-op, tapi hanya untuk owner.
func (e *AssignmentEngine) Release(k model.KhatmaModel, j model.KhatmaJuzModel, actor uuid.UUID) (Transition, error) {
	if actor == uuid.Nil {
		return Transition{}, ErrUnauthenticated
	}
	if err := checkSlot(k, j); err != nil {
		return Transition{}, err
	}
	if !j.IsAssignedTo(actor) && !k.IsOwner(actor) {
		return Transition{}, fmt.Errorf("%w: only the assignee or the owner can release juz %d", ErrForbidden, j.KhatmaJuzNumber)
	}
	if j.KhatmaJuzStatus == model.JuzStatusUnclaimed {
		return noop(j), nil
	}

	next := j
	next.KhatmaJuzAssignedUserID = nil
	next.KhatmaJuzCompletedAt = nil
	next.KhatmaJuzStatus = model.JuzStatusUnclaimed
	return Transition{Prior: j, Next: next}, nil
}

// Complete: in_progress → completed, hanya oleh assignee.
func (e *AssignmentEngine) Complete(k model.KhatmaModel, j model.KhatmaJuzModel, actor uuid.UUID) (Transition, error) {
	if actor == uuid.Nil {
		return Transition{}, ErrUnauthenticated
	}
	if err := checkSlot(k, j); err != nil {
		return Transition{}, err
	}

	switch j.KhatmaJuzStatus {
	case model.JuzStatusUnclaimed:
		return Transition{}, fmt.Errorf("%w: juz %d must be claimed before completion", ErrInvalidState, j.KhatmaJuzNumber)
	case model.JuzStatusCompleted:
		if j.IsAssignedTo(actor) {
			return noop(j), nil
		}
		return Transition{}, fmt.Errorf("%w: juz %d is held by another reader", ErrForbidden, j.KhatmaJuzNumber)
	}

	if !j.IsAssignedTo(actor) {
		return Transition{}, fmt.Errorf("%w: juz %d is held by another reader", ErrForbidden, j.KhatmaJuzNumber)
	}
	at := e.Now().UTC()
	next := j
	next.KhatmaJuzStatus = model.JuzStatusCompleted
	next.KhatmaJuzCompletedAt = &at
	return Transition{Prior: j, Next: next}, nil
}

// ForceComplete dipakai owner untuk menutup khatma: juz unclaimed diambil owner,
// juz in_progress tetap milik assignee-nya, lalu semuanya completed.
func (e *AssignmentEngine) ForceComplete(k model.KhatmaModel, j model.KhatmaJuzModel, actor uuid.UUID) (Transition, error) {
	if actor == uuid.Nil {
		return Transition{}, ErrUnauthenticated
	}
	if err := checkSlot(k, j); err != nil {
		return Transition{}, err
	}
	if !k.IsOwner(actor) {
		return Transition{}, fmt.Errorf("%w: only the owner can force-complete", ErrForbidden)
	}
	if j.KhatmaJuzStatus == model.JuzStatusCompleted {
		return noop(j), nil
	}

	at := e.Now().UTC()
	next := j
	if next.KhatmaJuzAssignedUserID == nil {
		a := actor
		next.KhatmaJuzAssignedUserID = &a
	}
	next.KhatmaJuzStatus = model.JuzStatusCompleted
	next.KhatmaJuzCompletedAt = &at
	return Transition{Prior: j, Next: next}, nil
}

/* =========================
   Derived status
========================= */

// ValidateBoard: tepat 30 juz, nomor 1..30 masing-masing sekali, invariant tiap juz terpenuhi.
func ValidateBoard(khatmaID uuid.UUID, slots []model.KhatmaJuzModel) error {
	if len(slots) != model.TotalJuz {
		return fmt.Errorf("%w: expected %d juz, got %d", ErrInvalidBoard, model.TotalJuz, len(slots))
	}
	var seen [model.TotalJuz + 1]bool
	for _, j := range slots {
		if j.KhatmaJuzKhatmaID != khatmaID {
			return fmt.Errorf("%w: juz %s belongs to another khatma", ErrInvalidBoard, j.KhatmaJuzID)
		}
		if err := j.CheckInvariant(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBoard, err)
		}
		if seen[j.KhatmaJuzNumber] {
			return fmt.Errorf("%w: juz %d appears twice", ErrInvalidBoard, j.KhatmaJuzNumber)
		}
		seen[j.KhatmaJuzNumber] = true
	}
	return nil
}

// DeriveKhatmaStatus: completed kalau dan hanya kalau ke-30 juz completed.
func DeriveKhatmaStatus(slots []model.KhatmaJuzModel) model.KhatmaStatusEnum {
	if len(slots) != model.TotalJuz {
		return model.KhatmaStatusActive
	}
	var seen [model.TotalJuz + 1]bool
	for _, j := range slots {
		if j.KhatmaJuzNumber < 1 || j.KhatmaJuzNumber > model.TotalJuz || seen[j.KhatmaJuzNumber] {
			return model.KhatmaStatusActive
		}
		seen[j.KhatmaJuzNumber] = true
		if j.KhatmaJuzStatus != model.JuzStatusCompleted {
			return model.KhatmaStatusActive
		}
	}
	return model.KhatmaStatusCompleted
}

// Progress menghitung jumlah juz per status.
type Progress struct {
	Unclaimed  int `json:"unclaimed"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

func CountProgress(slots []model.KhatmaJuzModel) Progress {
	var p Progress
	for _, j := range slots {
		switch j.KhatmaJuzStatus {
		case model.JuzStatusUnclaimed:
			p.Unclaimed++
		case model.JuzStatusInProgress:
			p.InProgress++
		case model.JuzStatusCompleted:
			p.Completed++
		}
	}
	return p
}
