package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
)

func TestSubmitWeeklyPreferencesCreatesThenReplaces(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)

	req := SubmitPreferencesRequest{
		UserID:    10,
		GroupID:   1,
		WeekStart: date(2025, time.March, 5), // a wednesday
		Days:      fullAvailability(),
	}

	res := env.service.SubmitWeeklyPreferences(req)
	require.True(t, res.Success)
	assert.Equal(t, "Preferences submitted", res.Message)
	assert.Equal(t, domain.PreferenceStatusSubmitted, res.Data.Status)
	assert.Equal(t, date(2025, time.March, 3), res.Data.WeekStart, "week start normalizes to monday")
	firstID := res.Data.ID

	res = env.service.SubmitWeeklyPreferences(req)
	require.True(t, res.Success)
	assert.Equal(t, "Preferences updated", res.Message)
	assert.Equal(t, firstID, res.Data.ID, "resubmission keeps the record identity")

	stored, err := env.prefs.GetWeeklyPreference(10, 1, date(2025, time.March, 3))
	require.NoError(t, err)
	assert.Equal(t, firstID, stored.ID)
}

func TestSubmitWeeklyPreferencesRejectsNonMember(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)

	res := env.service.SubmitWeeklyPreferences(SubmitPreferencesRequest{
		UserID:    99,
		GroupID:   1,
		WeekStart: date(2025, time.March, 3),
		Days:      fullAvailability(),
	})

	assert.False(t, res.Success)
	assert.Equal(t, "User is not a member of this group", res.Error)
}

func TestSubmitWeeklyPreferencesUnknownGroup(t *testing.T) {
	env := newTestEnv(t)

	res := env.service.SubmitWeeklyPreferences(SubmitPreferencesRequest{
		UserID:    10,
		GroupID:   42,
		WeekStart: date(2025, time.March, 3),
		Days:      fullAvailability(),
	})

	assert.False(t, res.Success)
	assert.Equal(t, "Group not found", res.Error)
}

func TestSubmitWeeklyPreferencesRejectsInvalidDays(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10)

	res := env.service.SubmitWeeklyPreferences(SubmitPreferencesRequest{
		UserID:    10,
		GroupID:   1,
		WeekStart: date(2025, time.March, 3),
		Days: map[string]domain.DayPreference{
			"saturday": {CanDrive: true},
		},
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "saturday")
}

func TestGetWeeklyPreferencesMissing(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10)

	res := env.service.GetWeeklyPreferences(10, 1, date(2025, time.March, 3))

	assert.False(t, res.Success)
	assert.Equal(t, "Preferences not found", res.Error)
}

func TestUpdateWeeklyPreferencesNeverCreates(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10)

	res := env.service.UpdateWeeklyPreferences(SubmitPreferencesRequest{
		UserID:    10,
		GroupID:   1,
		WeekStart: date(2025, time.March, 3),
		Days:      fullAvailability(),
	})

	assert.False(t, res.Success)
	assert.Equal(t, "Preferences not found", res.Error)
}

func TestUpdateWeeklyPreferencesRewritesDays(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10)
	env.submitFullWeek(t, 1, date(2025, time.March, 3), 10)

	res := env.service.UpdateWeeklyPreferences(SubmitPreferencesRequest{
		UserID:    10,
		GroupID:   1,
		WeekStart: date(2025, time.March, 3),
		Days: map[string]domain.DayPreference{
			"monday": {CanDrive: false, CanPassenger: true},
		},
	})

	require.True(t, res.Success)
	assert.Len(t, res.Data.Days, 1)
	assert.False(t, res.Data.Days["monday"].CanDrive)
}

func TestGetPreferenceStatus(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11, 12)
	env.submitFullWeek(t, 1, date(2025, time.March, 3), 10, 11)

	res := env.service.GetPreferenceStatus(1, date(2025, time.March, 7), 10)

	require.True(t, res.Success)
	report := res.Data
	assert.Equal(t, 3, report.TotalMembers)
	assert.Equal(t, 2, report.SubmittedCount)
	assert.Equal(t, []int64{12}, report.PendingMembers)
	assert.InDelta(t, 2.0/3.0, report.SubmissionRate, 1e-9)
	assert.Equal(t, date(2025, time.March, 3), report.WeekStart)
}

func TestGetPreferenceStatusAccessControl(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11)

	env.directory.PutUser(&domain.User{ID: 50, Role: domain.RoleParent})
	env.directory.PutUser(&domain.User{ID: 51, Role: domain.RoleAdmin})

	res := env.service.GetPreferenceStatus(1, date(2025, time.March, 3), 50)
	assert.False(t, res.Success)
	assert.Equal(t, "You do not have access to this group", res.Error)

	res = env.service.GetPreferenceStatus(1, date(2025, time.March, 3), 51)
	assert.True(t, res.Success, "system admins can inspect any group")
}

func TestSendPreferenceReminders(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11, 12)
	env.submitFullWeek(t, 1, date(2025, time.March, 3), 10)

	res := env.service.SendPreferenceReminders(1, date(2025, time.March, 3), 10)

	require.True(t, res.Success)
	assert.Equal(t, 2, res.Data)
	assert.Equal(t, "Sent 2 reminders", res.Message)
	assert.ElementsMatch(t, []int64{11, 12}, env.notifier.reminders)
}

func TestSendPreferenceRemindersSkipsFailedDeliveries(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(1, 10, 10, 11, 12)

	env.notifier.reminderErr[11] = assert.AnError

	res := env.service.SendPreferenceReminders(1, date(2025, time.March, 3), 10)

	require.True(t, res.Success)
	assert.Equal(t, 2, res.Data, "the failed delivery is not counted")
	assert.ElementsMatch(t, []int64{10, 12}, env.notifier.reminders)
}
