package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/bookline/scheduling/internal/redis"
)

const (
	EventAppointmentReserved  = "APPOINTMENT_RESERVED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentServed    = "APPOINTMENT_SERVED"
	EventAppointmentAnnulated = "APPOINTMENT_ANNULATED"
	EventSweepAnnulated       = "APPOINTMENT_SWEEP_ANNULATED"
)

// Service orchestrates appointment reservation and lifecycle transitions. All
// time-dependent guards read the injected clock, never the wall clock
// directly.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	clock  Clock
	log    *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, clock Clock, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		clock:  clock,
		log:    log,
	}
}

// Reserve validates a proposal against duplicates and interval collisions and
// persists it with status reserved. The duplicate check, overlap check and
// insert run under a per-business lock so concurrent proposals for the same
// business serialize; the unique fingerprint index backstops exact duplicates
// that slip past the lock.
func (s *Service) Reserve(ctx context.Context, p Proposal) (*Appointment, error) {
	if p.StartAt.IsZero() {
		return nil, ErrInvalidStart
	}
	if p.DurationMinutes != nil && *p.DurationMinutes < 0 {
		return nil, ErrInvalidDuration
	}

	appt := &Appointment{
		IssuerID:        p.IssuerID,
		ContactID:       p.ContactID,
		BusinessID:      p.BusinessID,
		ServiceID:       p.ServiceID,
		StartAt:         p.StartAt.UTC(),
		DurationMinutes: p.DurationMinutes,
		Comments:        strings.TrimSpace(p.Comments),
	}
	if p.FinishAt != nil {
		f := p.FinishAt.UTC()
		appt.FinishAt = &f
	}

	candidate := appt.Interval()
	if candidate.Finish.Before(candidate.Start) {
		return nil, ErrInvalidFinish
	}

	var created *Appointment

	err := s.locker.WithBusinessLock(ctx, p.BusinessID, func(lockCtx context.Context) error {
		fingerprint := ProposalFingerprint(p)

		existing, err := s.repo.FindByFingerprint(lockCtx, fingerprint)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check fingerprint: %w", err)
		}
		if existing != nil {
			return ErrDuplicateAppointment
		}

		colliding, err := s.repo.FindOverlapping(lockCtx, p.BusinessID, candidate, ActiveStatuses)
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if len(colliding) > 0 {
			ids := make([]uuid.UUID, 0, len(colliding))
			for _, c := range colliding {
				ids = append(ids, c.ID)
			}
			return &ConflictError{BusinessID: p.BusinessID, Colliding: ids}
		}

		// Fingerprint is recomputed at save time so it always reflects the
		// fields actually written.
		appt.Status = StatusReserved
		appt.Fingerprint = ProposalFingerprint(p)

		saved, err := s.repo.Create(lockCtx, appt)
		if err != nil {
			if errors.Is(err, ErrFingerprintTaken) {
				return ErrDuplicateAppointment
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = saved

		s.logEvent(lockCtx, saved.ID, EventAppointmentReserved, map[string]any{
			"business_id": p.BusinessID.String(),
			"contact_id":  p.ContactID.String(),
			"start_at":    saved.StartAt,
			"finish_at":   saved.FinishTime(),
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBusinessBusy
		}
		return nil, err
	}

	return created, nil
}

// Confirm advances a reserved, still-future appointment to confirmed. A
// failed guard is reported as a refused transition, not an error.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (TransitionResult, error) {
	return s.transition(ctx, id, ActionConfirm, EventAppointmentConfirmed)
}

// Serve marks an active, due appointment as served.
func (s *Service) Serve(ctx context.Context, id uuid.UUID) (TransitionResult, error) {
	return s.transition(ctx, id, ActionServe, EventAppointmentServed)
}

// Annulate cancels an active appointment. The record stays in the store;
// annulation is a status, not a deletion.
func (s *Service) Annulate(ctx context.Context, id uuid.UUID) (TransitionResult, error) {
	return s.transition(ctx, id, ActionAnnulate, EventAppointmentAnnulated)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, action Action, eventType string) (TransitionResult, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load appointment: %w", err)
	}

	now := s.clock.Now()

	to, ok := appt.CheckTransition(action, now)
	if !ok {
		return TransitionResult{Appointment: appt, Action: action, Applied: false}, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another transition. Reload and report the
			// refusal with whatever status won.
			current, loadErr := s.repo.GetByID(ctx, id)
			if loadErr != nil {
				return TransitionResult{}, fmt.Errorf("reload appointment: %w", loadErr)
			}
			return TransitionResult{Appointment: current, Action: action, Applied: false}, nil
		}
		return TransitionResult{}, fmt.Errorf("%s appointment: %w", action, err)
	}

	s.logEvent(ctx, updated.ID, eventType, map[string]any{
		"from": string(appt.Status),
		"to":   string(updated.Status),
	})

	return TransitionResult{Appointment: updated, Action: action, Applied: true}, nil
}

// Get retrieves a single appointment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// ListByBusiness retrieves a page of a business's appointments.
func (s *Service) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	appts, err := s.repo.ListByBusiness(ctx, businessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by business: %w", err)
	}
	return appts, nil
}

// ListByContact retrieves a page of a contact's appointments.
func (s *Service) ListByContact(ctx context.Context, contactID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	appts, err := s.repo.ListByContact(ctx, contactID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by contact: %w", err)
	}
	return appts, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// SweepOverlaps scans active appointments starting inside [from, to) and
// annulates the younger member of every overlapping pair within a business.
// The per-business lock serializes new proposals, but a proposal evaluated
// while a colliding insert was mid-commit on another node can still land; the
// sweep is the compensating path for those races. Intended to run
// periodically from the sweep worker.
func (s *Service) SweepOverlaps(ctx context.Context, from, to time.Time) (int, error) {
	active, err := s.repo.ListActiveInWindow(ctx, from.UTC(), to.UTC())
	if err != nil {
		return 0, fmt.Errorf("list active appointments: %w", err)
	}

	annulated := 0
	dropped := make(map[uuid.UUID]bool)

	// Rows arrive ordered by business, start, creation time, so the earlier
	// of any colliding pair comes first and survives.
	for i := range active {
		if dropped[active[i].ID] {
			continue
		}
		for j := i + 1; j < len(active); j++ {
			if active[j].BusinessID != active[i].BusinessID {
				break
			}
			if dropped[active[j].ID] {
				continue
			}
			if !active[i].Interval().Overlaps(active[j].Interval()) {
				continue
			}

			loser := &active[j]
			if _, err := s.repo.UpdateStatus(ctx, loser.ID, loser.Status, StatusAnnulated); err != nil {
				if errors.Is(err, ErrAppointmentNotFound) {
					continue
				}
				s.log.Warn("sweep annulation failed",
					zap.String("appointment_id", loser.ID.String()),
					zap.Error(err))
				continue
			}

			dropped[loser.ID] = true
			annulated++
			s.logEvent(ctx, loser.ID, EventSweepAnnulated, map[string]any{
				"kept_id": active[i].ID.String(),
				"reason":  "overlap_detected_post_commit",
			})
		}
	}

	return annulated, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("insert event log",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err))
	}
}
