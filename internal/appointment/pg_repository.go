package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, fingerprint, issuer_id, contact_id, business_id, service_id,
	start_at, duration_minutes, finish_at, status, comments, created_at, updated_at
`

// finishExpr resolves the effective finish inside the database with the same
// priority the Go model uses: explicit finish, start plus duration, bare start.
const finishExpr = `COALESCE(finish_at, start_at + make_interval(mins => duration_minutes), start_at)`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var duration *int
	var finishAt *time.Time
	var comments *string

	err := row.Scan(
		&a.ID,
		&a.Fingerprint,
		&a.IssuerID,
		&a.ContactID,
		&a.BusinessID,
		&a.ServiceID,
		&a.StartAt,
		&duration,
		&finishAt,
		&a.Status,
		&comments,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.DurationMinutes = duration
	a.FinishAt = finishAt
	if comments != nil {
		a.Comments = *comments
	}
	a.StartAt = a.StartAt.UTC()
	if a.FinishAt != nil {
		f := a.FinishAt.UTC()
		a.FinishAt = &f
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func statusCodes(statuses []Status) []string {
	codes := make([]string, 0, len(statuses))
	for _, s := range statuses {
		codes = append(codes, string(s))
	}
	return codes
}

// Interface methods

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE fingerprint = $1
	`, fingerprint)
	return scanAppointment(row)
}

// FindOverlapping mirrors Interval.Overlaps in SQL: the existing row collides
// with the candidate [$2, $3) when it covers it, when either of its endpoints
// falls strictly inside it, or when it is contained in it.
func (r *PgRepository) FindOverlapping(ctx context.Context, businessID uuid.UUID, candidate Interval, statuses []Status) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE business_id = $1
		  AND status = ANY($4)
		  AND (
		       (`+finishExpr+` >= $3 AND start_at <= $2)
		    OR (`+finishExpr+` <  $3 AND `+finishExpr+` > $2)
		    OR (start_at > $2 AND start_at < $3)
		    OR (start_at > $2 AND `+finishExpr+` < $3)
		  )
		ORDER BY start_at, created_at
	`, businessID, candidate.Start, candidate.Finish, statusCodes(statuses))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	var comments *string
	if a.Comments != "" {
		comments = &a.Comments
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, fingerprint, issuer_id, contact_id, business_id, service_id,
			 start_at, duration_minutes, finish_at, status, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.Fingerprint, a.IssuerID, a.ContactID, a.BusinessID, a.ServiceID,
		a.StartAt, a.DurationMinutes, a.FinishAt, a.Status, comments)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrFingerprintTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE business_id = $1
		ORDER BY start_at DESC
		LIMIT $2 OFFSET $3
	`, businessID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListByContact(ctx context.Context, contactID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE contact_id = $1
		ORDER BY start_at DESC
		LIMIT $2 OFFSET $3
	`, contactID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListActiveInWindow(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = ANY($3)
		  AND start_at >= $1
		  AND start_at < $2
		ORDER BY business_id, start_at, created_at
	`, from, to, statusCodes(ActiveStatuses))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
