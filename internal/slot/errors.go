package slot

import "errors"

var (
	// ErrValidation marks malformed or missing input; wrap it with the
	// specific complaint.
	ErrValidation = errors.New("validation failed")

	ErrSlotNotFound        = errors.New("slot not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrCenterNotFound      = errors.New("center does not exist")

	// ErrAlreadyTaken means a conditional reserve found the slot no longer
	// FREE: the caller lost the race.
	ErrAlreadyTaken = errors.New("slot already taken")

	// ErrSlotExists means the (staff, startAt) uniqueness backstop rejected
	// an insert.
	ErrSlotExists = errors.New("slot already exists at that start time for this staff member")

	// ErrOverlap means the requested range collides with an existing
	// non-cancelled slot of the same staff member.
	ErrOverlap = errors.New("staff member already has an overlapping slot")

	ErrNotReserved      = errors.New("slot is not reserved")
	ErrAlreadyCancelled = errors.New("slot is already cancelled")

	// ErrAgendaBusy means another bulk generation currently holds the
	// per-staff lock; the caller should retry.
	ErrAgendaBusy = errors.New("agenda generation already in progress for this staff member")
)
