package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/slot-scheduling-service/internal/slot"
)

func listAppointmentsHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := appointmentFilterFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		appts, err := svc.ListAppointments(r.Context(), f)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var orgID *string
		if v := r.URL.Query().Get("org_id"); v != "" {
			orgID = &v
		}

		ap, err := svc.GetAppointment(r.Context(), id, orgID)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(ap))
	}
}

func appointmentFilterFromQuery(r *http.Request) (slot.AppointmentFilter, error) {
	var f slot.AppointmentFilter
	q := r.URL.Query()

	if v := q.Get("org_id"); v != "" {
		f.OrgID = &v
	}
	if v := q.Get("center_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("center_id must be an integer")
		}
		f.CenterID = &n
	}
	if v := q.Get("staff_user_id"); v != "" {
		f.StaffUserID = &v
	}
	if v := q.Get("patient_user_id"); v != "" {
		f.PatientUserID = &v
	}
	if v := q.Get("status"); v != "" {
		st := slot.AppointmentStatus(v)
		switch st {
		case slot.ApptPending, slot.ApptConfirmed, slot.ApptCancelled, slot.ApptCompleted:
			f.Status = &st
		default:
			return f, errors.New("unknown appointment status")
		}
	}
	if v := q.Get("specialty"); v != "" {
		f.Specialty = &v
	}

	var err error
	if f.DateFrom, err = timeParam(q.Get("date_from"), "date_from"); err != nil {
		return f, err
	}
	if f.DateTo, err = timeParam(q.Get("date_to"), "date_to"); err != nil {
		return f, err
	}

	return f, nil
}
