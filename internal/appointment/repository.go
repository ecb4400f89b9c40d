package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrFingerprintTaken is returned by Create when the store's unique
	// fingerprint index rejects the row. It backstops the duplicate check
	// against races that slip past the business lock.
	ErrFingerprintTaken = errors.New("fingerprint already exists")
)

// Repository contains all store interactions needed by the lifecycle service
// and the sweep worker. Implementations must keep a unique index on the
// fingerprint column.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Duplicate detection
	FindByFingerprint(ctx context.Context, fingerprint string) (*Appointment, error)

	// Collision detection: appointments of one business whose interval
	// intersects the candidate, restricted to the given statuses.
	FindOverlapping(ctx context.Context, businessID uuid.UUID, candidate Interval, statuses []Status) ([]Appointment, error)

	// Creation and guarded updates. UpdateStatus is compare-and-swap: it only
	// applies when the persisted status still equals from, and returns
	// ErrAppointmentNotFound otherwise.
	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// Listings for the read API
	ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListByContact(ctx context.Context, contactID uuid.UUID, limit, offset int) ([]Appointment, error)

	// Sweep worker: active appointments of every business starting inside
	// the window, ordered by business, start time, creation time.
	ListActiveInWindow(ctx context.Context, from, to time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
