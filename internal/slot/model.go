package slot

import (
	"time"

	"github.com/google/uuid"
)

// SlotStatus is the canonical lifecycle state of a slot. The appointment
// view derives its own status from this one; there is no second persisted
// enum.
type SlotStatus string

const (
	StatusFree      SlotStatus = "FREE"
	StatusReserved  SlotStatus = "RESERVED"
	StatusConfirmed SlotStatus = "CONFIRMED"
	StatusCancelled SlotStatus = "CANCELLED"
)

// AppointmentStatus is the status vocabulary of the read-side appointment
// projection. It is never stored; see Slot.AppointmentStatus.
type AppointmentStatus string

const (
	ApptPending   AppointmentStatus = "PENDING"
	ApptConfirmed AppointmentStatus = "CONFIRMED"
	ApptCancelled AppointmentStatus = "CANCELLED"
	ApptCompleted AppointmentStatus = "COMPLETED"
)

type Center struct {
	ID        int
	OrgID     string
	Name      string
	CreatedAt time.Time
}

// Slot is a bookable unit of staff time. Slots are owned by the Store and
// mutated only through its conditional-update operations.
type Slot struct {
	ID            uuid.UUID
	OrgID         string
	CenterID      int
	StaffUserID   string
	PatientUserID *string
	StartAt       time.Time
	EndAt         time.Time
	Status        SlotStatus
	Specialty     *string
	Notes         *string
	CancelReason  *string
	CancelledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AppointmentStatus maps the slot's canonical status to the projection
// vocabulary. Only meaningful for non-FREE slots.
func (s *Slot) AppointmentStatus() AppointmentStatus {
	switch s.Status {
	case StatusReserved:
		return ApptPending
	case StatusConfirmed:
		return ApptConfirmed
	default:
		return ApptCancelled
	}
}

// Appointment is a pure projection over a non-FREE slot. ID equals the
// underlying slot's ID; nothing here is persisted separately.
type Appointment struct {
	ID            uuid.UUID
	OrgID         string
	CenterID      int
	PatientUserID *string
	StaffUserID   string
	SlotID        uuid.UUID
	StartAt       time.Time
	EndAt         time.Time
	Status        AppointmentStatus
	Notes         *string
	CancelReason  *string
	CancelledAt   *time.Time
}

// Appointment builds the projection for this slot. ok is false for FREE
// slots, which have no appointment to expose.
func (s *Slot) Appointment() (Appointment, bool) {
	if s.Status == StatusFree {
		return Appointment{}, false
	}
	return Appointment{
		ID:            s.ID,
		OrgID:         s.OrgID,
		CenterID:      s.CenterID,
		PatientUserID: s.PatientUserID,
		StaffUserID:   s.StaffUserID,
		SlotID:        s.ID,
		StartAt:       s.StartAt,
		EndAt:         s.EndAt,
		Status:        s.AppointmentStatus(),
		Notes:         s.Notes,
		CancelReason:  s.CancelReason,
		CancelledAt:   s.CancelledAt,
	}, true
}

// BulkResult reports the outcome of an agenda expansion.
type BulkResult struct {
	Mode      string
	Requested int
	Created   int
	PerDay    int
	Days      int
	Specialty *string
}

// SlotEvent is an append-only audit record of a lifecycle transition.
type SlotEvent struct {
	ID        int64
	EventType string
	SlotID    *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}
