package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/slot-scheduling-service/internal/slot"
)

// CreateSlotRequest carries both creation modes; exactly one group of
// fields must be present. The handler resolves it into a tagged variant
// before anything reaches the generator.
type CreateSlotRequest struct {
	OrgID       string  `json:"org_id,omitempty"`
	CenterID    int     `json:"center_id"`
	StaffUserID string  `json:"staff_user_id"`
	Specialty   *string `json:"specialty,omitempty"`

	// Single mode
	StartAt *time.Time `json:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty"`

	// Agenda mode
	StartDate       *string `json:"start_date,omitempty"`
	WorkStartTime   *string `json:"work_start_time,omitempty"`
	WorkEndTime     *string `json:"work_end_time,omitempty"`
	SlotDurationMin *int    `json:"slot_duration_min,omitempty"`
	Days            *int    `json:"days,omitempty"`
}

type ReserveRequest struct {
	PatientUserID string  `json:"patient_user_id"`
	Notes         *string `json:"notes,omitempty"`
}

type CancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type SlotResponse struct {
	ID            uuid.UUID  `json:"id"`
	OrgID         string     `json:"org_id,omitempty"`
	CenterID      int        `json:"center_id"`
	StaffUserID   string     `json:"staff_user_id"`
	PatientUserID *string    `json:"patient_user_id,omitempty"`
	StartAt       time.Time  `json:"start_at"`
	EndAt         time.Time  `json:"end_at"`
	Status        string     `json:"status"`
	Specialty     *string    `json:"specialty,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	CancelReason  *string    `json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toSlotResponse(s *slot.Slot) SlotResponse {
	return SlotResponse{
		ID:            s.ID,
		OrgID:         s.OrgID,
		CenterID:      s.CenterID,
		StaffUserID:   s.StaffUserID,
		PatientUserID: s.PatientUserID,
		StartAt:       s.StartAt,
		EndAt:         s.EndAt,
		Status:        string(s.Status),
		Specialty:     s.Specialty,
		Notes:         s.Notes,
		CancelReason:  s.CancelReason,
		CancelledAt:   s.CancelledAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

type BulkResultResponse struct {
	Mode      string  `json:"mode"`
	Requested int     `json:"requested"`
	Created   int     `json:"created"`
	PerDay    int     `json:"per_day"`
	Days      int     `json:"days"`
	Specialty *string `json:"specialty,omitempty"`
}

type AppointmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	OrgID         string     `json:"org_id,omitempty"`
	CenterID      int        `json:"center_id"`
	PatientUserID *string    `json:"patient_user_id,omitempty"`
	StaffUserID   string     `json:"staff_user_id"`
	SlotID        uuid.UUID  `json:"slot_id"`
	StartAt       time.Time  `json:"start_at"`
	EndAt         time.Time  `json:"end_at"`
	Status        string     `json:"status"`
	Notes         *string    `json:"notes,omitempty"`
	CancelReason  *string    `json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

func toAppointmentResponse(a *slot.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		OrgID:         a.OrgID,
		CenterID:      a.CenterID,
		PatientUserID: a.PatientUserID,
		StaffUserID:   a.StaffUserID,
		SlotID:        a.SlotID,
		StartAt:       a.StartAt,
		EndAt:         a.EndAt,
		Status:        string(a.Status),
		Notes:         a.Notes,
		CancelReason:  a.CancelReason,
		CancelledAt:   a.CancelledAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
