package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/bookline/scheduling/internal/appointment"
)

type ReserveAppointmentRequest struct {
	IssuerID        string     `json:"issuer_id"`
	ContactID       string     `json:"contact_id"`
	BusinessID      string     `json:"business_id"`
	ServiceID       string     `json:"service_id"`
	StartAt         time.Time  `json:"start_at"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	FinishAt        *time.Time `json:"finish_at,omitempty"`
	Comments        string     `json:"comments,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	Fingerprint     string     `json:"fingerprint"`
	IssuerID        uuid.UUID  `json:"issuer_id"`
	ContactID       uuid.UUID  `json:"contact_id"`
	BusinessID      uuid.UUID  `json:"business_id"`
	ServiceID       uuid.UUID  `json:"service_id"`
	StartAt         time.Time  `json:"start_at"`
	FinishAt        time.Time  `json:"finish_at"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Status          string     `json:"status"`
	Comments        string     `json:"comments,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type TransitionResponse struct {
	Appointment AppointmentResponse `json:"appointment"`
	Action      string              `json:"action"`
	Applied     bool                `json:"applied"`
}

type ErrorResponse struct {
	Error     string      `json:"error"`
	Details   string      `json:"details,omitempty"`
	Colliding []uuid.UUID `json:"colliding,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		Fingerprint:     a.Fingerprint,
		IssuerID:        a.IssuerID,
		ContactID:       a.ContactID,
		BusinessID:      a.BusinessID,
		ServiceID:       a.ServiceID,
		StartAt:         a.StartAt,
		FinishAt:        a.FinishTime(),
		DurationMinutes: a.DurationMinutes,
		Status:          a.Status.Label(),
		Comments:        a.Comments,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
