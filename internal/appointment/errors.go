package appointment

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateAppointment means an appointment with the same
	// (start, contact, business, service) fingerprint already exists.
	ErrDuplicateAppointment = errors.New("appointment already exists for this time and parties")

	// ErrBusinessBusy means the per-business reservation lock could not be
	// acquired. The proposal was not evaluated; callers should retry.
	ErrBusinessBusy = errors.New("business schedule is being modified, please retry")

	ErrInvalidStart    = errors.New("start time is required")
	ErrInvalidDuration = errors.New("duration must not be negative")
	ErrInvalidFinish   = errors.New("finish time must not precede start time")
)

// ConflictError reports a scheduling collision. It carries the identities of
// the colliding appointments so the caller can decide on an alternate slot or
// an override; the engine never resolves conflicts on its own.
type ConflictError struct {
	BusinessID uuid.UUID
	Colliding  []uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("proposed interval overlaps %d appointment(s) for business %s", len(e.Colliding), e.BusinessID)
}
