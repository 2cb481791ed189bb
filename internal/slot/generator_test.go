package slot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/slot-scheduling-service/internal/config"
	redisclient "github.com/hackgods/slot-scheduling-service/internal/redis"
)

func TestCreateSingleSlot(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	created, err := svc.CreateSingleSlot(ctx, NewSlotParams{
		OrgID:       "org-1",
		CenterID:    1,
		StaffUserID: "staff-1",
	}, SingleRange{StartAt: ts(9, 0), EndAt: ts(9, 30)})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, StatusFree, created.Status)
	assert.Nil(t, created.PatientUserID)
	assert.Equal(t, ts(9, 0), created.StartAt)
	assert.Equal(t, ts(9, 30), created.EndAt)
}

func TestCreateSingleSlotValidation(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	p := NewSlotParams{CenterID: 1, StaffUserID: "staff-1"}

	_, err := svc.CreateSingleSlot(ctx, p, SingleRange{StartAt: ts(10, 0), EndAt: ts(9, 0)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateSingleSlot(ctx, p, SingleRange{StartAt: ts(9, 0), EndAt: ts(9, 0)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateSingleSlot(ctx, NewSlotParams{CenterID: 1}, SingleRange{StartAt: ts(9, 0), EndAt: ts(10, 0)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateSingleSlot(ctx, NewSlotParams{CenterID: 99, StaffUserID: "staff-1"},
		SingleRange{StartAt: ts(9, 0), EndAt: ts(10, 0)})
	assert.ErrorIs(t, err, ErrCenterNotFound)
}

func TestCreateSingleSlotOverlap(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	mustCreateSlot(t, svc, "staff-1", ts(9, 0), ts(10, 0))

	p := NewSlotParams{CenterID: 1, StaffUserID: "staff-1"}

	// Any shared instant is a conflict.
	_, err := svc.CreateSingleSlot(ctx, p, SingleRange{StartAt: ts(9, 30), EndAt: ts(10, 30)})
	assert.ErrorIs(t, err, ErrOverlap)
	_, err = svc.CreateSingleSlot(ctx, p, SingleRange{StartAt: ts(8, 0), EndAt: ts(9, 1)})
	assert.ErrorIs(t, err, ErrOverlap)
	_, err = svc.CreateSingleSlot(ctx, p, SingleRange{StartAt: ts(9, 15), EndAt: ts(9, 45)})
	assert.ErrorIs(t, err, ErrOverlap)

	// Half-open intervals: touching ranges are fine.
	_, err = svc.CreateSingleSlot(ctx, p, SingleRange{StartAt: ts(10, 0), EndAt: ts(10, 30)})
	assert.NoError(t, err)

	// Other staff members are unaffected.
	_, err = svc.CreateSingleSlot(ctx, NewSlotParams{CenterID: 1, StaffUserID: "staff-2"},
		SingleRange{StartAt: ts(9, 0), EndAt: ts(10, 0)})
	assert.NoError(t, err)
}

func TestCreateSingleSlotOverlapIgnoresCancelled(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()

	// A cancelled slot occupying the range does not block creation...
	cancelledAt := ts(8, 0)
	reason := "old agenda"
	require.NoError(t, store.InsertSlot(ctx, &Slot{
		ID:           uuid.New(),
		CenterID:     1,
		StaffUserID:  "staff-1",
		StartAt:      ts(9, 5),
		EndAt:        ts(9, 35),
		Status:       StatusCancelled,
		CancelReason: &reason,
		CancelledAt:  &cancelledAt,
	}))

	// ...unless the new slot lands on the exact same start, where the
	// uniqueness backstop still applies.
	_, err := svc.CreateSingleSlot(ctx, NewSlotParams{CenterID: 1, StaffUserID: "staff-1"},
		SingleRange{StartAt: ts(9, 0), EndAt: ts(9, 30)})
	assert.NoError(t, err)

	_, err = svc.CreateSingleSlot(ctx, NewSlotParams{CenterID: 1, StaffUserID: "staff-1"},
		SingleRange{StartAt: ts(9, 5), EndAt: ts(9, 35)})
	assert.ErrorIs(t, err, ErrSlotExists)
}

func TestCreateAgenda(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	spec := "CARDIOLOGIA"
	result, err := svc.CreateAgenda(ctx, NewSlotParams{
		OrgID:       "org-1",
		CenterID:    1,
		StaffUserID: "staff-1",
		Specialty:   &spec,
	}, Agenda{
		StartDate:       "2025-09-01",
		WorkStartTime:   "09:00",
		WorkEndTime:     "10:00",
		SlotDurationMin: 30,
		Days:            2,
	})
	require.NoError(t, err)

	assert.Equal(t, "BULK", result.Mode)
	assert.Equal(t, 4, result.Requested)
	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 2, result.PerDay)
	assert.Equal(t, 2, result.Days)
	require.NotNil(t, result.Specialty)
	assert.Equal(t, spec, *result.Specialty)

	slots, err := svc.ListSlots(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, slots, 4)

	wants := []time.Time{
		time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 9, 1, 9, 30, 0, 0, time.UTC),
		time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 9, 2, 9, 30, 0, 0, time.UTC),
	}
	for i, want := range wants {
		assert.Equal(t, want, slots[i].StartAt)
		assert.Equal(t, want.Add(30*time.Minute), slots[i].EndAt)
		assert.Equal(t, StatusFree, slots[i].Status)
	}
}

func TestCreateAgendaDropsPartialSlot(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	// 09:00-10:15 with 30-minute slots: the 10:00 slot would cross the
	// window end and is dropped, not truncated.
	result, err := svc.CreateAgenda(ctx, NewSlotParams{CenterID: 1, StaffUserID: "staff-1"}, Agenda{
		StartDate:       "2025-09-01",
		WorkStartTime:   "09:00",
		WorkEndTime:     "10:15",
		SlotDurationMin: 30,
		Days:            1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 2, result.PerDay)
}

func TestCreateAgendaValidation(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	p := NewSlotParams{CenterID: 1, StaffUserID: "staff-1"}

	cases := []struct {
		name   string
		agenda Agenda
	}{
		{"zero duration", Agenda{StartDate: "2025-09-01", WorkStartTime: "09:00", WorkEndTime: "10:00", SlotDurationMin: 0, Days: 1}},
		{"negative duration", Agenda{StartDate: "2025-09-01", WorkStartTime: "09:00", WorkEndTime: "10:00", SlotDurationMin: -30, Days: 1}},
		{"zero days", Agenda{StartDate: "2025-09-01", WorkStartTime: "09:00", WorkEndTime: "10:00", SlotDurationMin: 30, Days: 0}},
		{"end before start", Agenda{StartDate: "2025-09-01", WorkStartTime: "16:00", WorkEndTime: "09:00", SlotDurationMin: 30, Days: 1}},
		{"end equals start", Agenda{StartDate: "2025-09-01", WorkStartTime: "09:00", WorkEndTime: "09:00", SlotDurationMin: 30, Days: 1}},
		{"bad date", Agenda{StartDate: "01-09-2025", WorkStartTime: "09:00", WorkEndTime: "10:00", SlotDurationMin: 30, Days: 1}},
		{"bad time", Agenda{StartDate: "2025-09-01", WorkStartTime: "9am", WorkEndTime: "10:00", SlotDurationMin: 30, Days: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAgenda(ctx, p, tc.agenda)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateAgendaRejectsOverlappingWindow(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	// Existing slot on day two of the requested window sinks the whole
	// batch: the aggregate check is all-or-nothing.
	mustCreateSlot(t, svc, "staff-1",
		time.Date(2025, 9, 2, 9, 30, 0, 0, time.UTC),
		time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC))

	_, err := svc.CreateAgenda(ctx, NewSlotParams{CenterID: 1, StaffUserID: "staff-1"}, Agenda{
		StartDate:       "2025-09-01",
		WorkStartTime:   "09:00",
		WorkEndTime:     "17:00",
		SlotDurationMin: 30,
		Days:            3,
	})
	assert.ErrorIs(t, err, ErrOverlap)

	slots, err := svc.ListSlots(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestCreateAgendaSkipsDuplicateStarts(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()

	// A cancelled slot at 09:00 passes the overlap check but still owns
	// the (staff, startAt) key; that insert is skipped, the rest land.
	require.NoError(t, store.InsertSlot(ctx, &Slot{
		ID:          uuid.New(),
		CenterID:    1,
		StaffUserID: "staff-1",
		StartAt:     time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2025, 9, 1, 9, 30, 0, 0, time.UTC),
		Status:      StatusCancelled,
	}))

	result, err := svc.CreateAgenda(ctx, NewSlotParams{CenterID: 1, StaffUserID: "staff-1"}, Agenda{
		StartDate:       "2025-09-01",
		WorkStartTime:   "09:00",
		WorkEndTime:     "10:00",
		SlotDurationMin: 30,
		Days:            1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 1, result.Created)
}

type busyLocker struct{}

func (busyLocker) WithStaffLock(context.Context, string, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func TestCreateAgendaLockBusy(t *testing.T) {
	store := NewMemoryStore()
	store.AddCenter(Center{ID: 1, Name: "Central"})
	svc := NewService(store, busyLocker{}, nil, config.Config{})

	_, err := svc.CreateAgenda(context.Background(), NewSlotParams{CenterID: 1, StaffUserID: "staff-1"}, Agenda{
		StartDate:       "2025-09-01",
		WorkStartTime:   "09:00",
		WorkEndTime:     "10:00",
		SlotDurationMin: 30,
		Days:            1,
	})
	assert.ErrorIs(t, err, ErrAgendaBusy)
}
