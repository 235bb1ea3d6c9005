package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeWeekStart(t *testing.T) {
	monday := date(2025, time.March, 3)

	testCases := []struct {
		name  string
		input time.Time
		want  time.Time
	}{
		{"monday maps to itself", monday, monday},
		{"wednesday maps back to monday", date(2025, time.March, 5), monday},
		{"saturday maps back to monday", date(2025, time.March, 8), monday},
		{"sunday maps back six days", date(2025, time.March, 9), monday},
		{"time of day is discarded", time.Date(2025, time.March, 5, 17, 30, 12, 0, time.UTC), monday},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeWeekStart(tc.input))
		})
	}
}

func TestNormalizeWeekStartIsIdempotent(t *testing.T) {
	input := date(2025, time.July, 17)
	once := NormalizeWeekStart(input)
	assert.Equal(t, once, NormalizeWeekStart(once))
}

func TestSameWeek(t *testing.T) {
	assert.True(t, SameWeek(date(2025, time.March, 3), date(2025, time.March, 9)))
	assert.False(t, SameWeek(date(2025, time.March, 9), date(2025, time.March, 10)))
}
