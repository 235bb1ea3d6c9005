package scheduling

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maplewood-pta/carpool-manager/backend/internal/config"
	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository"
)

// PreferenceRepository owns WeeklyPreference storage. Implementations must
// guarantee at most one record per (user, group, week start), including
// under concurrent upserts.
type PreferenceRepository interface {
	UpsertWeeklyPreference(pref *domain.WeeklyPreference) (created bool, err error)
	GetWeeklyPreference(userID int64, groupID int64, weekStart time.Time) (*domain.WeeklyPreference, error)
	GetWeeklyPreferencesByGroupWeek(groupID int64, weekStart time.Time) ([]*domain.WeeklyPreference, error)
	UpdateWeeklyPreference(pref *domain.WeeklyPreference) error
}

// ScheduleRepository owns WeeklySchedule storage.
type ScheduleRepository interface {
	// PublishWeeklySchedule inserts a schedule and archives any published
	// schedule the group already had for the week, atomically. A failure
	// leaves the previously published schedule untouched.
	PublishWeeklySchedule(schedule *domain.WeeklySchedule) error
	GetWeeklyScheduleByID(id string) (*domain.WeeklySchedule, error)
	GetWeeklySchedules(filter repository.ScheduleFilter) ([]*domain.WeeklySchedule, error)
	UpdateWeeklySchedule(schedule *domain.WeeklySchedule) error
	DeleteWeeklySchedule(id string) error
}

// Directory is the read-only view of group membership and user identity.
// Groups and users are owned elsewhere; the scheduling service never writes
// them.
type Directory interface {
	GetGroupByID(id int64) (*domain.Group, error)
	GetUserByID(id int64) (*domain.User, error)
}

// TripSpec describes one trip to materialize from a published assignment.
type TripSpec struct {
	ScheduleID         string
	GroupID            int64
	DriverID           int64
	PassengerIDs       []int64
	Date               time.Time
	ScheduledStartTime string
	ScheduledEndTime   string
	PickupLocation     string
	DropoffLocation    string
}

// TripMaterializer turns published assignments into trip records. Failures
// are non-fatal to schedule publication.
type TripMaterializer interface {
	CreateTrip(spec TripSpec, actorID int64) error
}

// NotificationDispatcher delivers reminders and publication notices. The
// scheduling service fires and forgets; delivery is the dispatcher's
// problem.
type NotificationDispatcher interface {
	SendPreferenceReminder(user *domain.User, group *domain.Group, weekStart time.Time) error
	SendSchedulePublished(user *domain.User, group *domain.Group, schedule *domain.WeeklySchedule) error
}

// Service is the scheduling and fairness domain service. Every public
// operation returns a Result envelope and never panics or returns an error.
type Service struct {
	cfg         *config.Config
	preferences PreferenceRepository
	schedules   ScheduleRepository
	directory   Directory
	trips       TripMaterializer
	notifier    NotificationDispatcher
	logger      *slog.Logger

	// injected for deterministic tests
	now   func() time.Time
	newID func() string
}

func NewService(cfg *config.Config, prefs PreferenceRepository, schedules ScheduleRepository, directory Directory, trips TripMaterializer, notifier NotificationDispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         cfg,
		preferences: prefs,
		schedules:   schedules,
		directory:   directory,
		trips:       trips,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// logUnknown records an unexpected error and returns the generic message
// surfaced to callers, keeping internals out of the envelope.
func (s *Service) logUnknown(op string, err error) string {
	s.logger.Error("unexpected scheduling error", "op", op, "error", err)
	return "Unknown error"
}
