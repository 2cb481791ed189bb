package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/slot-scheduling-service/internal/slot"
)

func createSlotHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		params := slot.NewSlotParams{
			OrgID:       req.OrgID,
			CenterID:    req.CenterID,
			StaffUserID: req.StaffUserID,
			Specialty:   req.Specialty,
		}

		single := req.StartAt != nil || req.EndAt != nil
		agenda := req.StartDate != nil || req.WorkStartTime != nil || req.WorkEndTime != nil ||
			req.SlotDurationMin != nil || req.Days != nil

		switch {
		case single && agenda:
			writeError(w, http.StatusBadRequest, "validation_error",
				"provide either start_at/end_at or the agenda fields, not both")
		case single:
			if req.StartAt == nil || req.EndAt == nil {
				writeError(w, http.StatusBadRequest, "validation_error",
					"single mode requires both start_at and end_at")
				return
			}
			created, err := svc.CreateSingleSlot(r.Context(), params, slot.SingleRange{
				StartAt: *req.StartAt,
				EndAt:   *req.EndAt,
			})
			if err != nil {
				handleDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toSlotResponse(created))
		case agenda:
			if req.StartDate == nil || req.WorkStartTime == nil || req.WorkEndTime == nil ||
				req.SlotDurationMin == nil || req.Days == nil {
				writeError(w, http.StatusBadRequest, "validation_error",
					"agenda mode requires start_date, work_start_time, work_end_time, slot_duration_min and days")
				return
			}
			result, err := svc.CreateAgenda(r.Context(), params, slot.Agenda{
				StartDate:       *req.StartDate,
				WorkStartTime:   *req.WorkStartTime,
				WorkEndTime:     *req.WorkEndTime,
				SlotDurationMin: *req.SlotDurationMin,
				Days:            *req.Days,
			})
			if err != nil {
				handleDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, BulkResultResponse{
				Mode:      result.Mode,
				Requested: result.Requested,
				Created:   result.Created,
				PerDay:    result.PerDay,
				Days:      result.Days,
				Specialty: result.Specialty,
			})
		default:
			writeError(w, http.StatusBadRequest, "validation_error",
				"provide start_at/end_at for a single slot or the agenda fields for bulk generation")
		}
	}
}

func listSlotsHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := slotFilterFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		slots, err := svc.ListSlots(r.Context(), f)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for i := range slots {
			resp = append(resp, toSlotResponse(&slots[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getSlotHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := slotIDParam(w, r)
		if !ok {
			return
		}

		s, err := svc.GetSlot(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(s))
	}
}

func reserveSlotHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := slotIDParam(w, r)
		if !ok {
			return
		}

		var req ReserveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		s, err := svc.Reserve(r.Context(), id, req.PatientUserID, req.Notes)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(s))
	}
}

func confirmSlotHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := slotIDParam(w, r)
		if !ok {
			return
		}

		s, err := svc.Confirm(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(s))
	}
}

func cancelSlotHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := slotIDParam(w, r)
		if !ok {
			return
		}

		var req CancelRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		s, err := svc.Cancel(r.Context(), id, req.Reason)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(s))
	}
}

func slotIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_slot_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func slotFilterFromQuery(r *http.Request) (slot.Filter, error) {
	var f slot.Filter
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
		st := slot.SlotStatus(v)
		switch st {
		case slot.StatusFree, slot.StatusReserved, slot.StatusConfirmed, slot.StatusCancelled:
			f.Status = &st
		default:
			return f, errors.New("unknown slot status")
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

func timeParam(v, name string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, errors.New(name + " must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, slot.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, slot.ErrCenterNotFound):
		writeError(w, http.StatusBadRequest, "invalid_center", err.Error())
	case errors.Is(err, slot.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, slot.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, slot.ErrAlreadyTaken):
		writeError(w, http.StatusConflict, "slot_already_taken", err.Error())
	case errors.Is(err, slot.ErrSlotExists):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, slot.ErrOverlap):
		writeError(w, http.StatusConflict, "overlapping_slots", err.Error())
	case errors.Is(err, slot.ErrAgendaBusy):
		writeError(w, http.StatusConflict, "agenda_busy", "bulk generation in progress for this staff member, please retry shortly")
	case errors.Is(err, slot.ErrNotReserved):
		writeError(w, http.StatusConflict, "slot_not_reserved", err.Error())
	case errors.Is(err, slot.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "slot_already_cancelled", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
