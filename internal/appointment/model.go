package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the persisted lifecycle state of an appointment. It is stored as a
// single-character code.
type Status string

const (
	StatusReserved  Status = "R"
	StatusConfirmed Status = "C"
	StatusAnnulated Status = "A"
	StatusServed    Status = "S"
)

// Label returns the human-readable name for a status code.
func (s Status) Label() string {
	switch s {
	case StatusReserved:
		return "reserved"
	case StatusConfirmed:
		return "confirmed"
	case StatusAnnulated:
		return "annulated"
	case StatusServed:
		return "served"
	}
	return "unknown"
}

// ParseStatus accepts either the single-character code or the label.
func ParseStatus(v string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "r", "reserved":
		return StatusReserved, true
	case "c", "confirmed":
		return StatusConfirmed, true
	case "a", "annulated":
		return StatusAnnulated, true
	case "s", "served":
		return StatusServed, true
	}
	return "", false
}

// ActiveStatuses are the statuses that still occupy their time interval and
// therefore participate in collision checks.
var ActiveStatuses = []Status{StatusReserved, StatusConfirmed}

// Appointment binds a contact, a business and a service to a time interval.
// Party identifiers are opaque. They are never resolved or validated here.
type Appointment struct {
	ID          uuid.UUID
	Fingerprint string
	IssuerID    uuid.UUID
	ContactID   uuid.UUID
	BusinessID  uuid.UUID
	ServiceID   uuid.UUID
	StartAt     time.Time
	// DurationMinutes and FinishAt are both optional. FinishTime resolves the
	// effective end of the appointment.
	DurationMinutes *int
	FinishAt        *time.Time
	Status          Status
	Comments        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FinishTime resolves the effective finish with priority: explicit FinishAt,
// then StartAt plus duration, then StartAt itself (zero-length appointment).
func (a *Appointment) FinishTime() time.Time {
	if a.FinishAt != nil {
		return a.FinishAt.UTC()
	}
	if a.DurationMinutes != nil {
		return a.StartAt.UTC().Add(time.Duration(*a.DurationMinutes) * time.Minute)
	}
	return a.StartAt.UTC()
}

// Interval returns the appointment's time range as used by collision checks.
func (a *Appointment) Interval() Interval {
	return NewInterval(a.StartAt, a.FinishTime())
}

// Proposal is the caller's request to reserve an appointment. FinishAt and
// DurationMinutes may both be absent.
type Proposal struct {
	IssuerID        uuid.UUID
	ContactID       uuid.UUID
	BusinessID      uuid.UUID
	ServiceID       uuid.UUID
	StartAt         time.Time
	DurationMinutes *int
	FinishAt        *time.Time
	Comments        string
}

// EventLog is an append-only audit record of lifecycle actions.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
