package slot

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded Store with the same conditional-update
// semantics as PgStore, including the (staff, startAt) uniqueness backstop.
// Tests run against it; it is also handy for local dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	centers map[int]Center
	slots   map[uuid.UUID]*Slot
	byStart map[string]uuid.UUID // staffUserID + startAt -> slot id
	events  []SlotEvent
	nextEv  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		centers: make(map[int]Center),
		slots:   make(map[uuid.UUID]*Slot),
		byStart: make(map[string]uuid.UUID),
		nextEv:  1,
	}
}

func startKey(staffUserID string, startAt time.Time) string {
	return staffUserID + "|" + startAt.UTC().Format(time.RFC3339Nano)
}

// AddCenter registers a center so slot inserts referencing it succeed.
func (m *MemoryStore) AddCenter(c Center) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.centers[c.ID] = c
}

func (m *MemoryStore) CenterExists(_ context.Context, centerID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.centers[centerID]
	return ok, nil
}

func (m *MemoryStore) GetSlotByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) ListSlots(_ context.Context, f Filter) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Slot
	for _, s := range m.slots {
		if !matches(s, f) {
			continue
		}
		result = append(result, *s)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartAt.Before(result[j].StartAt)
	})

	return result, nil
}

func matches(s *Slot, f Filter) bool {
	if f.OrgID != nil && s.OrgID != *f.OrgID {
		return false
	}
	if f.CenterID != nil && s.CenterID != *f.CenterID {
		return false
	}
	if f.StaffUserID != nil && s.StaffUserID != *f.StaffUserID {
		return false
	}
	if f.PatientUserID != nil && (s.PatientUserID == nil || *s.PatientUserID != *f.PatientUserID) {
		return false
	}
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	if f.Specialty != nil && (s.Specialty == nil || *s.Specialty != *f.Specialty) {
		return false
	}
	if f.DateFrom != nil && s.StartAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && s.StartAt.After(*f.DateTo) {
		return false
	}
	if f.ExcludeFree && s.Status == StatusFree {
		return false
	}
	return true
}

func (m *MemoryStore) HasOverlap(_ context.Context, staffUserID string, start, end time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.slots {
		if s.StaffUserID != staffUserID || s.Status == StatusCancelled {
			continue
		}
		if Overlaps(s.StartAt, s.EndAt, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) InsertSlot(_ context.Context, s *Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(s)
}

func (m *MemoryStore) insertLocked(s *Slot) error {
	if _, ok := m.centers[s.CenterID]; !ok {
		return ErrCenterNotFound
	}
	key := startKey(s.StaffUserID, s.StartAt)
	if _, ok := m.byStart[key]; ok {
		return ErrSlotExists
	}

	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	cp := *s
	m.slots[cp.ID] = &cp
	m.byStart[key] = cp.ID
	return nil
}

func (m *MemoryStore) InsertSlotBatch(_ context.Context, slots []Slot) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate references up front so a failure leaves nothing behind,
	// mirroring the transactional batch in PgStore.
	for i := range slots {
		if _, ok := m.centers[slots[i].CenterID]; !ok {
			return 0, ErrCenterNotFound
		}
	}

	created := 0
	for i := range slots {
		err := m.insertLocked(&slots[i])
		if errors.Is(err, ErrSlotExists) {
			continue
		}
		if err != nil {
			return 0, err
		}
		created++
	}
	return created, nil
}

func (m *MemoryStore) ReserveSlot(_ context.Context, id uuid.UUID, patientUserID string, notes *string) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	if s.Status != StatusFree {
		return nil, ErrAlreadyTaken
	}

	s.Status = StatusReserved
	s.PatientUserID = &patientUserID
	s.Notes = notes
	s.UpdatedAt = time.Now().UTC()

	cp := *s
	return &cp, nil
}

func (m *MemoryStore) ConfirmSlot(_ context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	switch s.Status {
	case StatusReserved:
		s.Status = StatusConfirmed
		s.UpdatedAt = time.Now().UTC()
	case StatusConfirmed:
		// no-op
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	default:
		return nil, ErrNotReserved
	}

	cp := *s
	return &cp, nil
}

func (m *MemoryStore) ReleaseSlot(_ context.Context, id uuid.UUID, reason *string, at time.Time) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.cancellableLocked(id)
	if err != nil {
		return nil, err
	}

	s.Status = StatusFree
	s.PatientUserID = nil
	s.Notes = nil
	s.CancelReason = reason
	s.CancelledAt = &at
	s.UpdatedAt = time.Now().UTC()

	cp := *s
	return &cp, nil
}

func (m *MemoryStore) CancelSlot(_ context.Context, id uuid.UUID, reason *string, at time.Time) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.cancellableLocked(id)
	if err != nil {
		return nil, err
	}

	s.Status = StatusCancelled
	s.CancelReason = reason
	s.CancelledAt = &at
	s.UpdatedAt = time.Now().UTC()

	cp := *s
	return &cp, nil
}

func (m *MemoryStore) cancellableLocked(id uuid.UUID) (*Slot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	switch s.Status {
	case StatusReserved, StatusConfirmed:
		return s, nil
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	default:
		return nil, ErrNotReserved
	}
}

func (m *MemoryStore) InsertEvent(_ context.Context, ev SlotEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev.ID = m.nextEv
	m.nextEv++
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of the audit log, oldest first.
func (m *MemoryStore) Events() []SlotEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SlotEvent, len(m.events))
	copy(out, m.events)
	return out
}
