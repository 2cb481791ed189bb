package slot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/hackgods/slot-scheduling-service/internal/redis"
)

// SingleRange creates exactly one slot covering [StartAt, EndAt).
type SingleRange struct {
	StartAt time.Time
	EndAt   time.Time
}

// Agenda expands a daily work window into consecutive fixed-length slots
// across Days calendar days. Times of day are wall-clock values taken as UTC.
type Agenda struct {
	StartDate       string // YYYY-MM-DD
	WorkStartTime   string // HH:MM
	WorkEndTime     string // HH:MM
	SlotDurationMin int
	Days            int
}

// NewSlotParams are the fields common to both creation modes.
type NewSlotParams struct {
	OrgID       string
	CenterID    int
	StaffUserID string
	Specialty   *string
}

func (p NewSlotParams) validate() error {
	if p.StaffUserID == "" {
		return fmt.Errorf("%w: staffUserId is required", ErrValidation)
	}
	return nil
}

// CreateSingleSlot creates one FREE slot after checking that the staff
// member has no overlapping non-cancelled slot anywhere. The overlap check
// spans all centers: a provider cannot be double-booked across locations.
func (s *Service) CreateSingleSlot(ctx context.Context, p NewSlotParams, r SingleRange) (*Slot, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if !r.StartAt.Before(r.EndAt) {
		return nil, fmt.Errorf("%w: endAt must be after startAt", ErrValidation)
	}
	if err := s.ensureCenter(ctx, p.CenterID); err != nil {
		return nil, err
	}

	start := r.StartAt.UTC()
	end := r.EndAt.UTC()

	overlap, err := s.store.HasOverlap(ctx, p.StaffUserID, start, end)
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if overlap {
		return nil, ErrOverlap
	}

	created := &Slot{
		ID:          uuid.New(),
		OrgID:       p.OrgID,
		CenterID:    p.CenterID,
		StaffUserID: p.StaffUserID,
		StartAt:     start,
		EndAt:       end,
		Status:      StatusFree,
		Specialty:   p.Specialty,
	}

	// The insert can still lose a race between the overlap check and the
	// write; the uniqueness constraint turns that into ErrSlotExists.
	if err := s.store.InsertSlot(ctx, created); err != nil {
		return nil, err
	}

	s.logEvent(ctx, created.ID, EventSlotCreated, map[string]any{
		"staff_user_id": created.StaffUserID,
		"center_id":     created.CenterID,
		"start_at":      created.StartAt,
		"end_at":        created.EndAt,
	})

	return created, nil
}

// CreateAgenda expands the agenda and inserts the whole batch under a
// per-staff lock, so the aggregate-window conflict check and the insert
// cannot interleave with another bulk request for the same staff member.
func (s *Service) CreateAgenda(ctx context.Context, p NewSlotParams, a Agenda) (*BulkResult, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if a.SlotDurationMin <= 0 {
		return nil, fmt.Errorf("%w: slotDurationMin must be positive", ErrValidation)
	}
	if a.Days < 1 {
		return nil, fmt.Errorf("%w: days must be >= 1", ErrValidation)
	}

	dayStart0, err := CombineUTC(a.StartDate, a.WorkStartTime)
	if err != nil {
		return nil, err
	}
	dayEnd0, err := CombineUTC(a.StartDate, a.WorkEndTime)
	if err != nil {
		return nil, err
	}
	if !dayStart0.Before(dayEnd0) {
		return nil, fmt.Errorf("%w: workEndTime must be after workStartTime", ErrValidation)
	}

	if err := s.ensureCenter(ctx, p.CenterID); err != nil {
		return nil, err
	}

	dur := time.Duration(a.SlotDurationMin) * time.Minute
	toCreate := expandAgenda(p, dayStart0, dayEnd0, dur, a.Days)

	result := &BulkResult{
		Mode:      "BULK",
		Requested: len(toCreate),
		PerDay:    int(dayEnd0.Sub(dayStart0) / dur),
		Days:      a.Days,
		Specialty: p.Specialty,
	}

	windowEnd := dayEnd0.Add(time.Duration(a.Days-1) * 24 * time.Hour)

	lockErr := s.locker.WithStaffLock(ctx, p.StaffUserID, func(ctx context.Context) error {
		// One aggregate-window check for the whole batch, not per slot.
		overlap, err := s.store.HasOverlap(ctx, p.StaffUserID, dayStart0, windowEnd)
		if err != nil {
			return fmt.Errorf("check agenda overlap: %w", err)
		}
		if overlap {
			return ErrOverlap
		}

		created, err := s.store.InsertSlotBatch(ctx, toCreate)
		if err != nil {
			return err
		}
		result.Created = created
		return nil
	})
	if lockErr != nil {
		if errors.Is(lockErr, redisclient.ErrLockNotAcquired) {
			return nil, ErrAgendaBusy
		}
		return nil, lockErr
	}

	s.logEvent(ctx, uuid.Nil, EventAgendaGenerated, map[string]any{
		"staff_user_id": p.StaffUserID,
		"center_id":     p.CenterID,
		"requested":     result.Requested,
		"created":       result.Created,
		"days":          result.Days,
	})

	return result, nil
}

// expandAgenda emits consecutive slots of length dur per day, stepping by
// dur from the day's work start. A final partial slot that would cross the
// day's work end is dropped, not truncated.
func expandAgenda(p NewSlotParams, dayStart0, dayEnd0 time.Time, dur time.Duration, days int) []Slot {
	var out []Slot
	for i := 0; i < days; i++ {
		offset := time.Duration(i) * 24 * time.Hour
		dayEnd := dayEnd0.Add(offset)
		for t := dayStart0.Add(offset); !t.Add(dur).After(dayEnd); t = t.Add(dur) {
			out = append(out, Slot{
				ID:          uuid.New(),
				OrgID:       p.OrgID,
				CenterID:    p.CenterID,
				StaffUserID: p.StaffUserID,
				StartAt:     t,
				EndAt:       t.Add(dur),
				Status:      StatusFree,
				Specialty:   p.Specialty,
			})
		}
	}
	return out
}

func (s *Service) ensureCenter(ctx context.Context, centerID int) error {
	key := strconv.Itoa(centerID)
	if _, ok := s.centers.Get(key); ok {
		return nil
	}

	exists, err := s.store.CenterExists(ctx, centerID)
	if err != nil {
		return fmt.Errorf("load center: %w", err)
	}
	if !exists {
		return ErrCenterNotFound
	}

	// Only positive lookups are cached; a center created later must become
	// visible immediately.
	s.centers.SetDefault(key, struct{}{})
	return nil
}
