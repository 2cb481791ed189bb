package slot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/hackgods/slot-scheduling-service/internal/config"
	redisclient "github.com/hackgods/slot-scheduling-service/internal/redis"
)

const (
	EventSlotCreated     = "SLOT_CREATED"
	EventAgendaGenerated = "AGENDA_GENERATED"
	EventSlotReserved    = "SLOT_RESERVED"
	EventSlotConfirmed   = "SLOT_CONFIRMED"
	EventSlotReleased    = "SLOT_RELEASED"
	EventSlotCancelled   = "SLOT_CANCELLED"
)

type Service struct {
	store   Store
	locker  redisclient.Locker
	clock   Clock
	centers *cache.Cache
}

func NewService(store Store, locker redisclient.Locker, clock Clock, cfg config.Config) *Service {
	ttl := cfg.CenterCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Service{
		store:   store,
		locker:  locker,
		clock:   clock,
		centers: cache.New(ttl, 2*ttl),
	}
}

// Reserve atomically transitions a FREE slot to RESERVED for the patient.
// The conditional write in the store is the sole defense against
// double-booking; when it affects zero rows the caller lost the race and
// gets ErrAlreadyTaken.
func (s *Service) Reserve(ctx context.Context, id uuid.UUID, patientUserID string, notes *string) (*Slot, error) {
	if patientUserID == "" {
		return nil, fmt.Errorf("%w: patientUserId is required", ErrValidation)
	}

	reserved, err := s.store.ReserveSlot(ctx, id, patientUserID, notes)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, reserved.ID, EventSlotReserved, map[string]any{
		"patient_user_id": patientUserID,
	})

	return reserved, nil
}

// Confirm moves a RESERVED slot to CONFIRMED. Confirming an already
// CONFIRMED slot is a no-op success; FREE and CANCELLED slots fail with
// ErrNotReserved and ErrAlreadyCancelled respectively.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Slot, error) {
	confirmed, err := s.store.ConfirmSlot(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, confirmed.ID, EventSlotConfirmed, map[string]any{})

	return confirmed, nil
}

// Cancel picks its branch from the clock, never from caller input: a slot
// whose start is still in the future is released back to FREE (patient and
// notes cleared), a slot already started becomes a terminal CANCELLED
// record. Both branches stamp cancelReason and cancelledAt. Cancelling an
// already CANCELLED slot fails with ErrAlreadyCancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason *string) (*Slot, error) {
	current, err := s.store.GetSlotByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	var (
		updated *Slot
		event   string
	)
	if current.StartAt.After(now) {
		updated, err = s.store.ReleaseSlot(ctx, id, reason, now)
		event = EventSlotReleased
	} else {
		updated, err = s.store.CancelSlot(ctx, id, reason, now)
		event = EventSlotCancelled
	}
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if reason != nil {
		payload["reason"] = *reason
	}
	s.logEvent(ctx, updated.ID, event, payload)

	return updated, nil
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.store.GetSlotByID(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context, f Filter) ([]Slot, error) {
	return s.store.ListSlots(ctx, f)
}

// AppointmentFilter narrows the appointment projection. Status uses the
// projection vocabulary and is translated to the canonical slot status.
type AppointmentFilter struct {
	OrgID         *string
	CenterID      *int
	StaffUserID   *string
	PatientUserID *string
	Status        *AppointmentStatus
	Specialty     *string
	DateFrom      *time.Time
	DateTo        *time.Time
}

// ListAppointments projects non-FREE slots into appointments, ordered
// ascending by start time.
func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error) {
	sf := Filter{
		OrgID:         f.OrgID,
		CenterID:      f.CenterID,
		StaffUserID:   f.StaffUserID,
		PatientUserID: f.PatientUserID,
		Specialty:     f.Specialty,
		DateFrom:      f.DateFrom,
		DateTo:        f.DateTo,
		ExcludeFree:   true,
	}

	if f.Status != nil {
		switch *f.Status {
		case ApptPending:
			st := StatusReserved
			sf.Status = &st
		case ApptConfirmed:
			st := StatusConfirmed
			sf.Status = &st
		case ApptCancelled:
			st := StatusCancelled
			sf.Status = &st
		case ApptCompleted:
			// No canonical slot state maps to COMPLETED; the filter value is
			// accepted for compatibility and matches nothing.
			return []Appointment{}, nil
		default:
			return nil, fmt.Errorf("%w: unknown appointment status %q", ErrValidation, *f.Status)
		}
	}

	slots, err := s.store.ListSlots(ctx, sf)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	out := make([]Appointment, 0, len(slots))
	for i := range slots {
		if ap, ok := slots[i].Appointment(); ok {
			out = append(out, ap)
		}
	}
	return out, nil
}

// GetAppointment fetches the projection for one slot. FREE slots have no
// appointment, and an orgID mismatch is indistinguishable from absence.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID, orgID *string) (*Appointment, error) {
	sl, err := s.store.GetSlotByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	ap, ok := sl.Appointment()
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if orgID != nil && ap.OrgID != *orgID {
		return nil, ErrAppointmentNotFound
	}
	return &ap, nil
}

func (s *Service) logEvent(ctx context.Context, slotID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	ev := SlotEvent{
		EventType: eventType,
		Payload:   data,
		CreatedAt: s.clock.Now(),
	}
	if slotID != uuid.Nil {
		id := slotID
		ev.SlotID = &id
	}

	if err := s.store.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event %s for slot %s: %v", eventType, slotID, err)
	}
}
