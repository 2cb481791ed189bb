package slot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows ListSlots. Nil fields are ignored. DateFrom/DateTo bound
// StartAt inclusively on both ends.
type Filter struct {
	OrgID         *string
	CenterID      *int
	StaffUserID   *string
	PatientUserID *string
	Status        *SlotStatus
	Specialty     *string
	DateFrom      *time.Time
	DateTo        *time.Time

	// ExcludeFree drops FREE slots; the appointment projection sets it.
	ExcludeFree bool
}

// Store contains all persistence interactions needed by the service.
//
// Every status transition method is a single conditional write: the store
// applies the update only if the slot is still in the expected state and
// classifies a zero-row outcome into one of the sentinel errors. Callers
// never read-then-write around these.
type Store interface {
	CenterExists(ctx context.Context, centerID int) (bool, error)

	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListSlots(ctx context.Context, f Filter) ([]Slot, error)

	// HasOverlap reports whether any non-cancelled slot of the staff member
	// overlaps [start, end), across all centers.
	HasOverlap(ctx context.Context, staffUserID string, start, end time.Time) (bool, error)

	// InsertSlot creates one slot. Returns ErrSlotExists on the
	// (staff_user_id, start_at) uniqueness backstop, ErrCenterNotFound on a
	// dangling center reference.
	InsertSlot(ctx context.Context, s *Slot) error

	// InsertSlotBatch creates the batch in one transaction, silently
	// skipping rows that collide with the uniqueness backstop, and returns
	// how many were actually created.
	InsertSlotBatch(ctx context.Context, slots []Slot) (int, error)

	// ReserveSlot transitions FREE -> RESERVED and stamps the patient.
	// Returns ErrAlreadyTaken if the slot exists but is no longer FREE.
	ReserveSlot(ctx context.Context, id uuid.UUID, patientUserID string, notes *string) (*Slot, error)

	// ConfirmSlot transitions RESERVED -> CONFIRMED. Confirming an already
	// CONFIRMED slot is a no-op success. Returns ErrNotReserved for FREE,
	// ErrAlreadyCancelled for CANCELLED.
	ConfirmSlot(ctx context.Context, id uuid.UUID) (*Slot, error)

	// ReleaseSlot transitions RESERVED|CONFIRMED -> FREE, clearing the
	// patient and notes while stamping the cancellation fields. Used when a
	// future-dated slot is cancelled and re-enters availability.
	ReleaseSlot(ctx context.Context, id uuid.UUID, reason *string, at time.Time) (*Slot, error)

	// CancelSlot transitions RESERVED|CONFIRMED -> CANCELLED as a terminal
	// historical record; the patient stays attached.
	CancelSlot(ctx context.Context, id uuid.UUID, reason *string, at time.Time) (*Slot, error)

	// InsertEvent appends to the audit log.
	InsertEvent(ctx context.Context, ev SlotEvent) error
}
