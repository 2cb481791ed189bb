package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(h, m int) time.Time {
	return time.Date(2025, 9, 1, h, m, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	testCases := []struct {
		name     string
		aStart   time.Time
		aEnd     time.Time
		bStart   time.Time
		bEnd     time.Time
		expected bool
	}{
		{"identical ranges", ts(9, 0), ts(10, 0), ts(9, 0), ts(10, 0), true},
		{"partial overlap", ts(9, 0), ts(10, 0), ts(9, 30), ts(10, 30), true},
		{"b inside a", ts(9, 0), ts(12, 0), ts(10, 0), ts(11, 0), true},
		{"a inside b", ts(10, 0), ts(11, 0), ts(9, 0), ts(12, 0), true},
		{"touching end to start", ts(9, 0), ts(10, 0), ts(10, 0), ts(11, 0), false},
		{"touching start to end", ts(10, 0), ts(11, 0), ts(9, 0), ts(10, 0), false},
		{"disjoint", ts(9, 0), ts(10, 0), ts(14, 0), ts(15, 0), false},
		{"one minute shared", ts(9, 0), ts(10, 1), ts(10, 0), ts(11, 0), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
			// The predicate is symmetric.
			assert.Equal(t, tc.expected, Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}

func TestCombineUTC(t *testing.T) {
	got, err := CombineUTC("2025-09-01", "12:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 1, 12, 30, 0, 0, time.UTC), got)

	// Wall-clock time is taken as UTC, never shifted.
	assert.Equal(t, time.UTC, got.Location())

	_, err = CombineUTC("2025-9-1", "12:30")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = CombineUTC("2025-09-01", "25:99")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = CombineUTC("not-a-date", "12:30")
	assert.ErrorIs(t, err, ErrValidation)
}
