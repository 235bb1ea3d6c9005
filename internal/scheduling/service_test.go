package scheduling

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/maplewood-pta/carpool-manager/backend/internal/config"
	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository/memory"
)

type tripRecorder struct {
	specs []TripSpec
	err   error
}

func (t *tripRecorder) CreateTrip(spec TripSpec, actorID int64) error {
	if t.err != nil {
		return t.err
	}
	t.specs = append(t.specs, spec)
	return nil
}

type notifierRecorder struct {
	reminders   []int64
	published   []int64
	reminderErr map[int64]error
}

func (n *notifierRecorder) SendPreferenceReminder(user *domain.User, group *domain.Group, weekStart time.Time) error {
	if err := n.reminderErr[user.ID]; err != nil {
		return err
	}
	n.reminders = append(n.reminders, user.ID)
	return nil
}

func (n *notifierRecorder) SendSchedulePublished(user *domain.User, group *domain.Group, schedule *domain.WeeklySchedule) error {
	n.published = append(n.published, user.ID)
	return nil
}

type testEnv struct {
	service   *Service
	prefs     *memory.PreferenceRepository
	schedules *memory.ScheduleRepository
	directory *memory.Directory
	trips     *tripRecorder
	notifier  *notifierRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.Scheduling.MaxPassengersPerTrip = 4
	cfg.Scheduling.DefaultPickupTime = "08:00"
	cfg.Scheduling.DefaultDropoffTime = "08:30"

	env := &testEnv{
		prefs:     memory.NewPreferenceRepository(),
		schedules: memory.NewScheduleRepository(),
		directory: memory.NewDirectory(),
		trips:     &tripRecorder{},
		notifier:  &notifierRecorder{reminderErr: make(map[int64]error)},
	}
	env.service = NewService(cfg, env.prefs, env.schedules, env.directory, env.trips, env.notifier, slog.Default())

	// deterministic clock and IDs
	env.service.now = func() time.Time {
		return time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	}
	counter := 0
	env.service.newID = func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}

	return env
}

// seedGroup registers a group and parent accounts for each member.
func (env *testEnv) seedGroup(groupID int64, adminID int64, memberIDs ...int64) *domain.Group {
	group := &domain.Group{
		ID:           groupID,
		Name:         fmt.Sprintf("Group %d", groupID),
		GroupAdminID: adminID,
		MemberIDs:    memberIDs,
		MaxMembers:   int32(len(memberIDs) + 2),
	}
	env.directory.PutGroup(group)

	for _, memberID := range memberIDs {
		env.directory.PutUser(&domain.User{
			ID:       memberID,
			Username: fmt.Sprintf("user%d", memberID),
			FullName: fmt.Sprintf("User %d", memberID),
			Email:    fmt.Sprintf("user%d@example.com", memberID),
			Role:     domain.RoleParent,
			IsActive: true,
		})
	}

	return group
}

func fullAvailability() map[string]domain.DayPreference {
	days := make(map[string]domain.DayPreference, len(domain.WeekdayNames))
	for _, weekday := range domain.WeekdayNames {
		days[weekday] = domain.DayPreference{CanDrive: true, CanPassenger: true}
	}
	return days
}

func (env *testEnv) submitFullWeek(t *testing.T, groupID int64, weekStart time.Time, userIDs ...int64) {
	t.Helper()
	for _, userID := range userIDs {
		res := env.service.SubmitWeeklyPreferences(SubmitPreferencesRequest{
			UserID:    userID,
			GroupID:   groupID,
			WeekStart: weekStart,
			Days:      fullAvailability(),
		})
		if !res.Success {
			t.Fatalf("seeding preferences for user %d failed: %s", userID, res.Error)
		}
	}
}
