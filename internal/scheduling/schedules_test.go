package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository/memory"
)

// failingScheduleRepository forces publish failures to exercise the error
// branch of schedule generation.
type failingScheduleRepository struct {
	*memory.ScheduleRepository
	publishErr error
}

func (r *failingScheduleRepository) PublishWeeklySchedule(schedule *domain.WeeklySchedule) error {
	if r.publishErr != nil {
		return r.publishErr
	}
	return r.ScheduleRepository.PublishWeeklySchedule(schedule)
}

func TestGenerateWeeklyScheduleRoundRobin(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11, 12)
	weekStart := date(2025, time.March, 3)
	env.submitFullWeek(t, 1, weekStart, 10, 11, 12)

	res := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID:       1,
		WeekStartDate: weekStart,
		GeneratedBy:   10,
	})

	require.True(t, res.Success)
	schedule := res.Data
	assert.Equal(t, domain.ScheduleStatusPublished, schedule.Status)
	assert.Empty(t, res.Warnings)
	require.Len(t, schedule.Assignments, 5)

	drivers := make([]int64, 0, 5)
	for _, assignment := range schedule.Assignments {
		drivers = append(drivers, assignment.DriverID)
		assert.NotContains(t, assignment.PassengerIDs, assignment.DriverID)
		assert.Equal(t, "08:00", assignment.ScheduledStartTime)
		assert.Equal(t, "08:30", assignment.ScheduledEndTime)
	}
	assert.Equal(t, []int64{10, 11, 12, 10, 11}, drivers)

	// driving counts {2, 2, 1} give a population variance of 2/9
	assert.InDelta(t, 1.0-2.0/9.0, schedule.FairnessScore, 1e-9)

	stored, err := env.schedules.GetWeeklyScheduleByID(schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleStatusPublished, stored.Status)

	assert.Len(t, env.trips.specs, 5, "one trip per assignment")
	assert.Equal(t, schedule.ID, env.trips.specs[0].ScheduleID)
}

func TestGenerateWeeklyScheduleIsDeterministic(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11, 12)
	weekStart := date(2025, time.March, 3)
	env.submitFullWeek(t, 1, weekStart, 10, 11, 12)

	first := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID: 1, WeekStartDate: weekStart, GeneratedBy: 10, DryRun: true,
	})
	second := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID: 1, WeekStartDate: weekStart, GeneratedBy: 10, DryRun: true,
	})

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, first.Data.Assignments, second.Data.Assignments)
	assert.Equal(t, first.Data.FairnessScore, second.Data.FairnessScore)
}

func TestGenerateWeeklyScheduleDryRun(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)
	weekStart := date(2025, time.March, 3)
	env.submitFullWeek(t, 1, weekStart, 10, 11)

	res := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID:       1,
		WeekStartDate: weekStart,
		GeneratedBy:   10,
		DryRun:        true,
	})

	require.True(t, res.Success)
	assert.Equal(t, domain.ScheduleStatusDraft, res.Data.Status)

	stored, err := env.schedules.GetWeeklySchedules(repository.ScheduleFilter{})
	require.NoError(t, err)
	assert.Empty(t, stored, "dry runs are not persisted")
	assert.Empty(t, env.trips.specs)
	assert.Empty(t, env.notifier.published)
}

func TestGenerateWeeklySchedulePartialWeek(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)
	weekStart := date(2025, time.March, 3)

	// nobody can drive on friday
	days := fullAvailability()
	days["friday"] = domain.DayPreference{CanDrive: false, CanPassenger: true}
	for _, userID := range []int64{10, 11} {
		res := env.service.SubmitWeeklyPreferences(SubmitPreferencesRequest{
			UserID: userID, GroupID: 1, WeekStart: weekStart, Days: days,
		})
		require.True(t, res.Success)
	}

	res := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID:                1,
		WeekStartDate:          weekStart,
		GeneratedBy:            10,
		AllowPartialGeneration: true,
	})

	require.True(t, res.Success)
	assert.Len(t, res.Data.Assignments, 4)
	assert.Equal(t, []string{"No available drivers for Friday"}, res.Warnings)
}

func TestGenerateWeeklyScheduleRejectsPartialWhenNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)
	weekStart := date(2025, time.March, 3)

	days := fullAvailability()
	days["friday"] = domain.DayPreference{CanDrive: false, CanPassenger: true}
	for _, userID := range []int64{10, 11} {
		res := env.service.SubmitWeeklyPreferences(SubmitPreferencesRequest{
			UserID: userID, GroupID: 1, WeekStart: weekStart, Days: days,
		})
		require.True(t, res.Success)
	}

	res := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID:       1,
		WeekStartDate: weekStart,
		GeneratedBy:   10,
	})

	assert.False(t, res.Success)
	assert.Equal(t, "Could not staff every weekday", res.Error)
	assert.Equal(t, []string{"No available drivers for Friday"}, res.Warnings)

	stored, err := env.schedules.GetWeeklySchedules(repository.ScheduleFilter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestGenerateWeeklyScheduleArchivesPredecessor(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)
	weekStart := date(2025, time.March, 3)
	env.submitFullWeek(t, 1, weekStart, 10, 11)

	first := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID: 1, WeekStartDate: weekStart, GeneratedBy: 10,
	})
	require.True(t, first.Success)

	second := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID: 1, WeekStartDate: weekStart, GeneratedBy: 10,
	})
	require.True(t, second.Success)

	old, err := env.schedules.GetWeeklyScheduleByID(first.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleStatusArchived, old.Status, "regeneration supersedes the published schedule")

	current, err := env.schedules.GetWeeklyScheduleByID(second.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleStatusPublished, current.Status)
}

func TestGenerateWeeklySchedulePersistFailureKeepsPublishedSchedule(t *testing.T) {
	env := newTestEnv(t)
	failing := &failingScheduleRepository{ScheduleRepository: env.schedules}
	env.service.schedules = failing

	env.seedGroup(1, 10, 10, 11)
	weekStart := date(2025, time.March, 3)
	env.submitFullWeek(t, 1, weekStart, 10, 11)

	first := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID: 1, WeekStartDate: weekStart, GeneratedBy: 10,
	})
	require.True(t, first.Success)

	failing.publishErr = assert.AnError
	second := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID: 1, WeekStartDate: weekStart, GeneratedBy: 10,
	})
	assert.False(t, second.Success)
	assert.Equal(t, "Unknown error", second.Error)

	current, err := env.schedules.GetWeeklyScheduleByID(first.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleStatusPublished, current.Status,
		"a failed regeneration leaves the current schedule published")
	assert.Len(t, env.trips.specs, 5, "no trips are cut for the failed run")
}

func TestGenerateWeeklyScheduleFairnessPrefersDebtors(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11, 12)
	weekStart := date(2025, time.March, 10)
	env.submitFullWeek(t, 1, weekStart, 10, 11, 12)

	// 10 drove all of last week while 11 and 12 rode
	history := &domain.WeeklySchedule{
		ID:        "history-1",
		GroupID:   1,
		WeekStart: date(2025, time.March, 3),
		Status:    domain.ScheduleStatusPublished,
		Assignments: []domain.ScheduleAssignment{
			{DayOfWeek: 0, DriverID: 10, PassengerIDs: []int64{11, 12}},
			{DayOfWeek: 1, DriverID: 10, PassengerIDs: []int64{11, 12}},
			{DayOfWeek: 2, DriverID: 10, PassengerIDs: []int64{11, 12}},
		},
	}
	require.NoError(t, env.schedules.CreateWeeklySchedule(history))

	res := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID:          1,
		WeekStartDate:    weekStart,
		GeneratedBy:      10,
		ConsiderFairness: true,
	})

	require.True(t, res.Success)
	assert.NotEqual(t, int64(10), res.Data.Assignments[0].DriverID,
		"the member who drove all of last week is not picked first")
	assert.Positive(t, res.Data.Assignments[0].FairnessImpact)
}

func TestGenerateWeeklyScheduleNotifiesParticipantsOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11, 12)
	weekStart := date(2025, time.March, 3)
	env.submitFullWeek(t, 1, weekStart, 10, 11, 12)

	res := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID:            1,
		WeekStartDate:      weekStart,
		GeneratedBy:        10,
		NotifyParticipants: true,
	})

	require.True(t, res.Success)
	assert.ElementsMatch(t, []int64{10, 11, 12}, env.notifier.published)
}

func TestGenerateWeeklyScheduleTripFailureIsAWarning(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)
	weekStart := date(2025, time.March, 3)
	env.submitFullWeek(t, 1, weekStart, 10, 11)

	env.trips.err = assert.AnError

	res := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID: 1, WeekStartDate: weekStart, GeneratedBy: 10,
	})

	require.True(t, res.Success, "trip materialization failures never fail the schedule")
	assert.Len(t, res.Warnings, 5)
	assert.Contains(t, res.Warnings, "Trip for Monday was not recorded")
}

func TestUpdateScheduleStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)
	weekStart := date(2025, time.March, 3)
	env.submitFullWeek(t, 1, weekStart, 10, 11)

	generated := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID: 1, WeekStartDate: weekStart, GeneratedBy: 10,
	})
	require.True(t, generated.Success)
	scheduleID := generated.Data.ID

	draft := domain.ScheduleStatusDraft
	res := env.service.UpdateSchedule(UpdateScheduleRequest{ID: scheduleID, Status: &draft})
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid status transition from published to draft", res.Error)

	archived := domain.ScheduleStatusArchived
	res = env.service.UpdateSchedule(UpdateScheduleRequest{ID: scheduleID, Status: &archived})
	require.True(t, res.Success)
	assert.Equal(t, domain.ScheduleStatusArchived, res.Data.Status)

	published := domain.ScheduleStatusPublished
	res = env.service.UpdateSchedule(UpdateScheduleRequest{ID: scheduleID, Status: &published})
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid status transition from archived to published", res.Error)
}

func TestUpdateScheduleNotes(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)
	weekStart := date(2025, time.March, 3)
	env.submitFullWeek(t, 1, weekStart, 10, 11)

	generated := env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID: 1, WeekStartDate: weekStart, GeneratedBy: 10,
	})
	require.True(t, generated.Success)

	notes := "Spring break week, no Friday run"
	res := env.service.UpdateSchedule(UpdateScheduleRequest{ID: generated.Data.ID, Notes: &notes})

	require.True(t, res.Success)
	assert.Equal(t, notes, res.Data.Notes)
	assert.Equal(t, domain.ScheduleStatusPublished, res.Data.Status, "status is untouched")
}

func TestDeleteScheduleMissing(t *testing.T) {
	env := newTestEnv(t)

	res := env.service.DeleteSchedule("nope")

	assert.False(t, res.Success)
	assert.Equal(t, "Schedule not found", res.Error)
}

func TestGetSchedulesFilters(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)
	env.seedGroup(2, 20, 20, 21)

	weekStart := date(2025, time.March, 3)
	env.submitFullWeek(t, 1, weekStart, 10, 11)
	env.submitFullWeek(t, 2, weekStart, 20, 21)

	require.True(t, env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID: 1, WeekStartDate: weekStart, GeneratedBy: 10,
	}).Success)
	require.True(t, env.service.GenerateWeeklySchedule(GenerateScheduleOptions{
		GroupID: 2, WeekStartDate: weekStart, GeneratedBy: 20,
	}).Success)

	groupID := int64(1)
	res := env.service.GetSchedules(ScheduleQuery{GroupID: &groupID})
	require.True(t, res.Success)
	require.Len(t, res.Data, 1)
	assert.Equal(t, int64(1), res.Data[0].GroupID)

	archived := domain.ScheduleStatusArchived
	res = env.service.GetSchedules(ScheduleQuery{Status: &archived})
	require.True(t, res.Success)
	assert.Empty(t, res.Data)
}

func TestCalculateFairnessMetricsIgnoresDrafts(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)

	draft := &domain.WeeklySchedule{
		ID:        "draft-1",
		GroupID:   1,
		WeekStart: date(2025, time.March, 3),
		Status:    domain.ScheduleStatusDraft,
		Assignments: []domain.ScheduleAssignment{
			{DayOfWeek: 0, DriverID: 10, PassengerIDs: []int64{11}},
		},
	}
	require.NoError(t, env.schedules.CreateWeeklySchedule(draft))

	res := env.service.CalculateFairnessMetrics(1)

	require.True(t, res.Success)
	for _, metric := range res.Data {
		assert.Equal(t, 0, metric.TotalAssignments, "draft schedules never count toward fairness")
	}
}

func TestCalculateFairnessMetricsUnknownGroup(t *testing.T) {
	env := newTestEnv(t)

	res := env.service.CalculateFairnessMetrics(42)

	assert.False(t, res.Success)
	assert.Equal(t, "Group not found", res.Error)
}
