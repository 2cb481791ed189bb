package slot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSlot(staff string, start time.Time, status SlotStatus) Slot {
	return Slot{
		ID:          uuid.New(),
		OrgID:       "org-1",
		CenterID:    1,
		StaffUserID: staff,
		StartAt:     start,
		EndAt:       start.Add(30 * time.Minute),
		Status:      status,
	}
}

func TestMemoryStoreBatchInsert(t *testing.T) {
	store := NewMemoryStore()
	store.AddCenter(Center{ID: 1, Name: "Central"})
	ctx := context.Background()

	batch := []Slot{
		seedSlot("staff-1", ts(9, 0), StatusFree),
		seedSlot("staff-1", ts(9, 30), StatusFree),
		seedSlot("staff-1", ts(9, 0), StatusFree), // duplicate start, skipped
	}

	created, err := store.InsertSlotBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	// A bad center reference sinks the whole batch, nothing partial.
	_, err = store.InsertSlotBatch(ctx, []Slot{
		seedSlot("staff-2", ts(11, 0), StatusFree),
		{ID: uuid.New(), CenterID: 42, StaffUserID: "staff-2", StartAt: ts(12, 0), EndAt: ts(12, 30), Status: StatusFree},
	})
	require.ErrorIs(t, err, ErrCenterNotFound)

	all, err := store.ListSlots(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStoreFilters(t *testing.T) {
	store := NewMemoryStore()
	store.AddCenter(Center{ID: 1, Name: "Central"})
	store.AddCenter(Center{ID: 2, Name: "North"})
	ctx := context.Background()

	spec := "PEDIATRIA"
	a := seedSlot("staff-1", ts(9, 0), StatusFree)
	a.Specialty = &spec
	b := seedSlot("staff-1", ts(10, 0), StatusFree)
	c := seedSlot("staff-2", ts(9, 0), StatusFree)
	c.CenterID = 2

	for _, s := range []Slot{a, b, c} {
		s := s
		require.NoError(t, store.InsertSlot(ctx, &s))
	}

	_, err := store.ReserveSlot(ctx, b.ID, "patient-1", nil)
	require.NoError(t, err)

	staff1 := "staff-1"
	got, err := store.ListSlots(ctx, Filter{StaffUserID: &staff1})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	free := StatusFree
	got, err = store.ListSlots(ctx, Filter{StaffUserID: &staff1, Status: &free})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	got, err = store.ListSlots(ctx, Filter{Specialty: &spec})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	center2 := 2
	got, err = store.ListSlots(ctx, Filter{CenterID: &center2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, c.ID, got[0].ID)

	patient := "patient-1"
	got, err = store.ListSlots(ctx, Filter{PatientUserID: &patient})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	got, err = store.ListSlots(ctx, Filter{ExcludeFree: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)
}

func TestMemoryStoreHasOverlap(t *testing.T) {
	store := NewMemoryStore()
	store.AddCenter(Center{ID: 1, Name: "Central"})
	ctx := context.Background()

	active := seedSlot("staff-1", ts(9, 0), StatusFree)
	require.NoError(t, store.InsertSlot(ctx, &active))
	gone := seedSlot("staff-1", ts(14, 0), StatusCancelled)
	require.NoError(t, store.InsertSlot(ctx, &gone))

	overlap, err := store.HasOverlap(ctx, "staff-1", ts(9, 15), ts(9, 45))
	require.NoError(t, err)
	assert.True(t, overlap)

	// Cancelled slots do not count.
	overlap, err = store.HasOverlap(ctx, "staff-1", ts(14, 0), ts(15, 0))
	require.NoError(t, err)
	assert.False(t, overlap)

	// Neither do other staff members.
	overlap, err = store.HasOverlap(ctx, "staff-2", ts(9, 0), ts(10, 0))
	require.NoError(t, err)
	assert.False(t, overlap)
}
