package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
)

func scheduleWithDrivers(driverIDs ...int64) *domain.WeeklySchedule {
	assignments := make([]domain.ScheduleAssignment, 0, len(driverIDs))
	for i, driverID := range driverIDs {
		assignments = append(assignments, domain.ScheduleAssignment{
			DayOfWeek: int32(i),
			DriverID:  driverID,
		})
	}
	return &domain.WeeklySchedule{
		Status:      domain.ScheduleStatusPublished,
		Assignments: assignments,
	}
}

func TestCalculateFairnessMetricsNoHistory(t *testing.T) {
	group := &domain.Group{ID: 1, MemberIDs: []int64{10, 11, 12}}

	metrics := CalculateFairnessMetrics(group, nil, nil)

	assert.Len(t, metrics, 3)
	for _, metric := range metrics {
		assert.Equal(t, 0, metric.TotalAssignments)
		assert.InDelta(t, 1.0, metric.FairnessScore, 1e-9)
		assert.InDelta(t, 1.0/3.0, metric.FairnessDebt, 1e-9)
	}
}

func TestCalculateFairnessMetricsUnevenHistory(t *testing.T) {
	group := &domain.Group{ID: 1, MemberIDs: []int64{10, 11}}

	// 10 drives twice with 11 riding, so 10 is over its fair share
	history := []*domain.WeeklySchedule{
		{
			Status: domain.ScheduleStatusPublished,
			Assignments: []domain.ScheduleAssignment{
				{DayOfWeek: 0, DriverID: 10, PassengerIDs: []int64{11}},
				{DayOfWeek: 1, DriverID: 10, PassengerIDs: []int64{11}},
			},
		},
	}

	metrics := CalculateFairnessMetrics(group, history, map[int64]string{10: "Ada", 11: "Ben"})

	assert.Len(t, metrics, 2)

	// sorted ascending by score, so the member owed driving duty is first
	assert.Equal(t, int64(11), metrics[0].UserID)
	assert.Equal(t, "Ben", metrics[0].FullName)
	assert.Equal(t, 2, metrics[0].PassengerAssignments)
	assert.InDelta(t, 0.0, metrics[0].FairnessScore, 1e-9)
	assert.InDelta(t, 0.5, metrics[0].FairnessDebt, 1e-9)

	assert.Equal(t, int64(10), metrics[1].UserID)
	assert.Equal(t, 2, metrics[1].DrivingAssignments)
	assert.InDelta(t, 2.0, metrics[1].FairnessScore, 1e-9)
	assert.InDelta(t, -0.5, metrics[1].FairnessDebt, 1e-9)
}

func TestCalculateFairnessMetricsIsDeterministic(t *testing.T) {
	group := &domain.Group{ID: 1, MemberIDs: []int64{10, 11, 12}}
	history := []*domain.WeeklySchedule{
		scheduleWithDrivers(10, 11, 12, 10, 11),
	}

	first := CalculateFairnessMetrics(group, history, nil)
	second := CalculateFairnessMetrics(group, history, nil)

	assert.Equal(t, first, second)
}

func TestCalculateScheduleFairnessScore(t *testing.T) {
	t.Run("empty week scores 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, CalculateScheduleFairnessScore(nil), 1e-9)
	})

	t.Run("perfectly even week scores 1", func(t *testing.T) {
		schedule := scheduleWithDrivers(10, 11, 12, 13, 14)
		assert.InDelta(t, 1.0, CalculateScheduleFairnessScore(schedule.Assignments), 1e-9)
	})

	t.Run("rotation over three drivers", func(t *testing.T) {
		// counts {2, 2, 1}, population variance 2/9
		schedule := scheduleWithDrivers(10, 11, 12, 10, 11)
		assert.InDelta(t, 1.0-2.0/9.0, CalculateScheduleFairnessScore(schedule.Assignments), 1e-9)
	})

	t.Run("lopsided week clamps at 0", func(t *testing.T) {
		// counts {4, 1}, population variance 2.25
		schedule := scheduleWithDrivers(10, 10, 10, 10, 11)
		assert.InDelta(t, 0.0, CalculateScheduleFairnessScore(schedule.Assignments), 1e-9)
	})

	t.Run("single driver all week", func(t *testing.T) {
		// one driver means zero variance across drivers
		schedule := scheduleWithDrivers(10, 10, 10, 10, 10)
		assert.InDelta(t, 1.0, CalculateScheduleFairnessScore(schedule.Assignments), 1e-9)
	})
}
