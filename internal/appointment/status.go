package appointment

import "time"

// Clock supplies the reference time for all status guards. Injecting it keeps
// the guard logic deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Action names a lifecycle transition attempt.
type Action string

const (
	ActionReserve  Action = "reserve"
	ActionConfirm  Action = "confirm"
	ActionAnnulate Action = "annulate"
	ActionServe    Action = "serve"
)

// Soft-status predicates. These are derived from the hard status and a
// reference time and are never persisted.

// IsDue reports whether the appointment's start time has been reached.
func (a *Appointment) IsDue(now time.Time) bool {
	return !a.StartAt.UTC().After(now.UTC())
}

// IsFuture reports whether the appointment has not started yet.
func (a *Appointment) IsFuture(now time.Time) bool {
	return !a.IsDue(now)
}

// IsActive reports whether the appointment still occupies its interval.
func (a *Appointment) IsActive() bool {
	return a.Status == StatusReserved || a.Status == StatusConfirmed
}

// IsPending reports whether the appointment is active and still upcoming.
func (a *Appointment) IsPending(now time.Time) bool {
	return a.IsActive() && a.IsFuture(now)
}

// IsConfirmable reports whether confirm would succeed: only a reserved
// appointment whose start has not passed can be confirmed.
func (a *Appointment) IsConfirmable(now time.Time) bool {
	return a.Status == StatusReserved && a.IsFuture(now)
}

// IsServeable reports whether serve would succeed: the appointment must be
// active and its start time reached.
func (a *Appointment) IsServeable(now time.Time) bool {
	return a.IsActive() && a.IsDue(now)
}

// IsAnnulable reports whether annulate would succeed.
func (a *Appointment) IsAnnulable() bool {
	return a.IsActive()
}

// CheckTransition evaluates the guard for action against the reference time
// and returns the target status. ok is false when the guard fails; the caller
// must then leave the appointment untouched. Annulated and served are terminal
// and no action ever reverts a status to reserved.
func (a *Appointment) CheckTransition(action Action, now time.Time) (to Status, ok bool) {
	switch action {
	case ActionReserve:
		if a.Status == "" {
			return StatusReserved, true
		}
	case ActionConfirm:
		if a.IsConfirmable(now) {
			return StatusConfirmed, true
		}
	case ActionAnnulate:
		if a.IsAnnulable() {
			return StatusAnnulated, true
		}
	case ActionServe:
		if a.IsServeable(now) {
			return StatusServed, true
		}
	}
	return a.Status, false
}

// TransitionResult reports the outcome of a guarded lifecycle action. A failed
// guard is not an error: Applied is false and Appointment carries the
// unchanged record so callers can inspect the status they collided with.
type TransitionResult struct {
	Appointment *Appointment
	Action      Action
	Applied     bool
}
