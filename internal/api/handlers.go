package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bookline/scheduling/internal/appointment"
	redisclient "github.com/bookline/scheduling/internal/redis"
)

func reserveAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReserveAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		proposal := appointment.Proposal{
			StartAt:         req.StartAt,
			DurationMinutes: req.DurationMinutes,
			FinishAt:        req.FinishAt,
			Comments:        req.Comments,
		}

		var err error
		if proposal.IssuerID, err = parseUUIDField(req.IssuerID, "issuer_id", w); err != nil {
			return
		}
		if proposal.ContactID, err = parseUUIDField(req.ContactID, "contact_id", w); err != nil {
			return
		}
		if proposal.BusinessID, err = parseUUIDField(req.BusinessID, "business_id", w); err != nil {
			return
		}
		if proposal.ServiceID, err = parseUUIDField(req.ServiceID, "service_id", w); err != nil {
			return
		}

		appt, err := svc.Reserve(r.Context(), proposal)
		if err != nil {
			handleReserveError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func transitionHandler(svc *appointment.Service, action appointment.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var result appointment.TransitionResult
		switch action {
		case appointment.ActionConfirm:
			result, err = svc.Confirm(r.Context(), id)
		case appointment.ActionServe:
			result, err = svc.Serve(r.Context(), id)
		case appointment.ActionAnnulate:
			result, err = svc.Annulate(r.Context(), id)
		default:
			writeError(w, http.StatusBadRequest, "invalid_action", "unknown lifecycle action")
			return
		}

		if err != nil {
			handleTransitionError(w, err)
			return
		}

		// A refused transition is not an error: the response carries the
		// unchanged appointment and applied=false.
		status := http.StatusOK
		if !result.Applied {
			status = http.StatusConflict
		}

		writeJSON(w, status, TransitionResponse{
			Appointment: toAppointmentResponse(result.Appointment),
			Action:      string(result.Action),
			Applied:     result.Applied,
		})
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, appointment.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		var (
			appts []appointment.Appointment
			err   error
		)

		switch {
		case r.URL.Query().Get("business_id") != "":
			businessID, parseErr := uuid.Parse(r.URL.Query().Get("business_id"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_business_id", "business_id must be a valid UUID")
				return
			}
			appts, err = svc.ListByBusiness(r.Context(), businessID, limit, offset)
		case r.URL.Query().Get("contact_id") != "":
			contactID, parseErr := uuid.Parse(r.URL.Query().Get("contact_id"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_contact_id", "contact_id must be a valid UUID")
				return
			}
			appts, err = svc.ListByContact(r.Context(), contactID, limit, offset)
		default:
			writeError(w, http.StatusBadRequest, "missing_filter", "business_id or contact_id query parameter is required")
			return
		}

		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func parseUUIDField(raw, field string, w http.ResponseWriter) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+field, field+" must be a valid UUID")
		return uuid.Nil, err
	}
	return id, nil
}

func handleReserveError(w http.ResponseWriter, err error) {
	var conflict *appointment.ConflictError

	switch {
	case errors.Is(err, appointment.ErrInvalidStart),
		errors.Is(err, appointment.ErrInvalidDuration),
		errors.Is(err, appointment.ErrInvalidFinish):
		writeError(w, http.StatusBadRequest, "invalid_proposal", err.Error())
	case errors.Is(err, appointment.ErrDuplicateAppointment):
		writeError(w, http.StatusConflict, "duplicate_appointment", err.Error())
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:     "scheduling_conflict",
			Details:   conflict.Error(),
			Colliding: conflict.Colliding,
		})
	case errors.Is(err, appointment.ErrBusinessBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "business_busy", "another reservation for this business is in flight, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
