package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
)

func prefWithDays(userID int64, canDrive bool, canPassenger bool, weekdays ...string) *domain.WeeklyPreference {
	if len(weekdays) == 0 {
		weekdays = domain.WeekdayNames
	}
	days := make(map[string]domain.DayPreference, len(weekdays))
	for _, weekday := range weekdays {
		days[weekday] = domain.DayPreference{CanDrive: canDrive, CanPassenger: canPassenger}
	}
	return &domain.WeeklyPreference{
		UserID: userID,
		Days:   days,
		Status: domain.PreferenceStatusSubmitted,
	}
}

func TestGenerateDayAssignmentNoDrivers(t *testing.T) {
	prefs := []*domain.WeeklyPreference{
		prefWithDays(10, false, true),
		prefWithDays(11, false, true),
	}

	assignment, warnings := GenerateDayAssignment(prefs, nil, 0, date(2025, time.March, 3), DayAssignmentOptions{})

	assert.Nil(t, assignment)
	assert.Equal(t, []string{"No available drivers for Monday"}, warnings)
}

func TestGenerateDayAssignmentNoPassengers(t *testing.T) {
	prefs := []*domain.WeeklyPreference{
		prefWithDays(10, true, false),
	}

	assignment, warnings := GenerateDayAssignment(prefs, nil, 2, date(2025, time.March, 3), DayAssignmentOptions{})

	assert.Nil(t, assignment)
	assert.Equal(t, []string{"No available passengers for Wednesday"}, warnings)
}

func TestGenerateDayAssignmentRoundRobin(t *testing.T) {
	prefs := []*domain.WeeklyPreference{
		prefWithDays(10, true, true),
		prefWithDays(11, true, true),
		prefWithDays(12, true, true),
	}
	weekStart := date(2025, time.March, 3)

	// with three drivers the rotation is keyed by weekday index
	wantDrivers := []int64{10, 11, 12, 10, 11}
	for dayOfWeek := int32(0); dayOfWeek < 5; dayOfWeek++ {
		assignment, warnings := GenerateDayAssignment(prefs, nil, dayOfWeek, weekStart, DayAssignmentOptions{})
		require.NotNil(t, assignment)
		assert.Empty(t, warnings)
		assert.Equal(t, wantDrivers[dayOfWeek], assignment.DriverID)
		assert.Equal(t, weekStart.AddDate(0, 0, int(dayOfWeek)), assignment.Date)
		assert.NotContains(t, assignment.PassengerIDs, assignment.DriverID)
	}
}

func TestGenerateDayAssignmentFairnessPicksHighestDebt(t *testing.T) {
	prefs := []*domain.WeeklyPreference{
		prefWithDays(10, true, true),
		prefWithDays(11, true, true),
		prefWithDays(12, false, true),
	}
	metrics := []domain.FairnessMetric{
		{UserID: 10, FairnessDebt: -0.2},
		{UserID: 11, FairnessDebt: 0.4},
		{UserID: 12, FairnessDebt: 0.6}, // highest debt but cannot drive
	}

	assignment, warnings := GenerateDayAssignment(prefs, metrics, 0, date(2025, time.March, 3), DayAssignmentOptions{ConsiderFairness: true})

	require.NotNil(t, assignment)
	assert.Empty(t, warnings)
	assert.Equal(t, int64(11), assignment.DriverID)
	assert.InDelta(t, 0.4, assignment.FairnessImpact, 1e-9)
}

func TestGenerateDayAssignmentFairnessFallsBackWithoutMetrics(t *testing.T) {
	prefs := []*domain.WeeklyPreference{
		prefWithDays(10, true, true),
		prefWithDays(11, true, true),
	}

	assignment, _ := GenerateDayAssignment(prefs, nil, 3, date(2025, time.March, 3), DayAssignmentOptions{ConsiderFairness: true})

	require.NotNil(t, assignment)
	assert.Equal(t, int64(10), assignment.DriverID)
	assert.InDelta(t, 0.0, assignment.FairnessImpact, 1e-9)
}

func TestGenerateDayAssignmentPassengerCap(t *testing.T) {
	prefs := []*domain.WeeklyPreference{
		prefWithDays(10, true, true),
		prefWithDays(11, false, true),
		prefWithDays(12, false, true),
		prefWithDays(13, false, true),
		prefWithDays(14, false, true),
		prefWithDays(15, false, true),
		prefWithDays(16, false, true),
	}

	assignment, _ := GenerateDayAssignment(prefs, nil, 0, date(2025, time.March, 3), DayAssignmentOptions{})

	require.NotNil(t, assignment)
	assert.Len(t, assignment.PassengerIDs, defaultMaxPassengers)
	// passengers keep submission order
	assert.Equal(t, []int64{11, 12, 13, 14}, assignment.PassengerIDs)
}

func TestGenerateDayAssignmentHonorsOptions(t *testing.T) {
	prefs := []*domain.WeeklyPreference{
		prefWithDays(10, true, true),
		prefWithDays(11, false, true),
		prefWithDays(12, false, true),
	}

	assignment, _ := GenerateDayAssignment(prefs, nil, 0, date(2025, time.March, 3), DayAssignmentOptions{
		MaxPassengers: 1,
		PickupTime:    "07:45",
		DropoffTime:   "08:15",
	})

	require.NotNil(t, assignment)
	assert.Equal(t, []int64{11}, assignment.PassengerIDs)
	assert.Equal(t, "07:45", assignment.ScheduledStartTime)
	assert.Equal(t, "08:15", assignment.ScheduledEndTime)
}

func TestGenerateDayAssignmentSkipsAbsentDays(t *testing.T) {
	prefs := []*domain.WeeklyPreference{
		prefWithDays(10, true, false, "monday"),
		prefWithDays(11, false, true, "tuesday"),
	}

	assignment, warnings := GenerateDayAssignment(prefs, nil, 0, date(2025, time.March, 3), DayAssignmentOptions{})

	assert.Nil(t, assignment)
	assert.Equal(t, []string{"No available passengers for Monday"}, warnings)
}
