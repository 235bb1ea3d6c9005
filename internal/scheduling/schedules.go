package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository"
)

// GenerateScheduleOptions control one schedule generation run.
type GenerateScheduleOptions struct {
	GroupID       int64
	WeekStartDate time.Time
	GeneratedBy   int64
	// ConsiderFairness picks drivers by accumulated fairness debt instead
	// of round-robin rotation.
	ConsiderFairness bool
	// PrioritizePreferences is recorded in the schedule notes; assignment
	// already honors stated availability, so it changes no selection.
	PrioritizePreferences bool
	// AllowPartialGeneration accepts weeks where some days cannot be
	// staffed. When false, any unstaffed day fails the whole run.
	AllowPartialGeneration bool
	NotifyParticipants     bool
	// DryRun computes the schedule without persisting, archiving, trip
	// materialization or notification. The result is returned as a draft.
	DryRun bool
}

// GenerateWeeklySchedule builds a five-weekday schedule for a group from the
// members' submitted preferences and the group's fairness history. Unless
// DryRun is set, the schedule is published, any previously published
// schedule for the same week is archived, and one trip per assignment is
// materialized. Unstaffable days surface as warnings.
func (s *Service) GenerateWeeklySchedule(opts GenerateScheduleOptions) Result[*domain.WeeklySchedule] {
	group, err := s.directory.GetGroupByID(opts.GroupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[*domain.WeeklySchedule]("Group not found")
		}
		return fail[*domain.WeeklySchedule](s.logUnknown("generate weekly schedule", err))
	}

	weekStart := NormalizeWeekStart(opts.WeekStartDate)

	preferences, err := s.preferences.GetWeeklyPreferencesByGroupWeek(group.ID, weekStart)
	if err != nil {
		return fail[*domain.WeeklySchedule](s.logUnknown("generate weekly schedule", err))
	}

	metrics, err := s.fairnessMetricsForGroup(group)
	if err != nil {
		return fail[*domain.WeeklySchedule](s.logUnknown("generate weekly schedule", err))
	}

	dayOpts := DayAssignmentOptions{
		ConsiderFairness: opts.ConsiderFairness,
		MaxPassengers:    s.cfg.Scheduling.MaxPassengersPerTrip,
		PickupTime:       s.cfg.Scheduling.DefaultPickupTime,
		DropoffTime:      s.cfg.Scheduling.DefaultDropoffTime,
	}

	assignments := make([]domain.ScheduleAssignment, 0, len(weekdayDisplayNames))
	warnings := make([]string, 0)
	for dayOfWeek := int32(0); dayOfWeek < int32(len(weekdayDisplayNames)); dayOfWeek++ {
		assignment, dayWarnings := GenerateDayAssignment(preferences, metrics, dayOfWeek, weekStart, dayOpts)
		warnings = append(warnings, dayWarnings...)
		if assignment == nil {
			continue
		}
		assignments = append(assignments, *assignment)
	}

	if !opts.AllowPartialGeneration && len(assignments) < len(weekdayDisplayNames) {
		return failWithWarnings[*domain.WeeklySchedule]("Could not staff every weekday", warnings)
	}

	status := domain.ScheduleStatusPublished
	if opts.DryRun {
		status = domain.ScheduleStatusDraft
	}

	notes := ""
	if opts.PrioritizePreferences {
		notes = "Generated with preference priority"
	}

	schedule := &domain.WeeklySchedule{
		ID:            s.newID(),
		GroupID:       group.ID,
		WeekStart:     weekStart,
		Assignments:   assignments,
		Status:        status,
		FairnessScore: CalculateScheduleFairnessScore(assignments),
		GeneratedAt:   s.now(),
		GeneratedBy:   opts.GeneratedBy,
		Notes:         notes,
	}

	if opts.DryRun {
		return okWithWarnings(schedule, "Schedule generated (dry run)", warnings)
	}

	if err := s.schedules.PublishWeeklySchedule(schedule); err != nil {
		return failWithWarnings[*domain.WeeklySchedule](s.logUnknown("generate weekly schedule", err), warnings)
	}

	warnings = append(warnings, s.materializeTrips(group, schedule)...)

	if opts.NotifyParticipants {
		s.notifyParticipants(group, schedule)
	}

	return okWithWarnings(schedule, "Schedule generated", warnings)
}

// materializeTrips creates one trip record per assignment. A failed trip
// never fails the already persisted schedule; it is logged and reported as
// a warning.
func (s *Service) materializeTrips(group *domain.Group, schedule *domain.WeeklySchedule) []string {
	warnings := make([]string, 0)
	for _, assignment := range schedule.Assignments {
		spec := TripSpec{
			ScheduleID:         schedule.ID,
			GroupID:            group.ID,
			DriverID:           assignment.DriverID,
			PassengerIDs:       assignment.PassengerIDs,
			Date:               assignment.Date,
			ScheduledStartTime: assignment.ScheduledStartTime,
			ScheduledEndTime:   assignment.ScheduledEndTime,
		}
		if err := s.trips.CreateTrip(spec, schedule.GeneratedBy); err != nil {
			s.logger.Error("failed to materialize trip", "scheduleID", schedule.ID, "dayOfWeek", assignment.DayOfWeek, "error", err)
			warnings = append(warnings, fmt.Sprintf("Trip for %s was not recorded", weekdayDisplayNames[assignment.DayOfWeek]))
		}
	}
	return warnings
}

// notifyParticipants sends a publication notice to every driver and
// passenger on the schedule, once each. Delivery failures are logged only.
func (s *Service) notifyParticipants(group *domain.Group, schedule *domain.WeeklySchedule) {
	notified := make(map[int64]bool)
	for _, assignment := range schedule.Assignments {
		participants := append([]int64{assignment.DriverID}, assignment.PassengerIDs...)
		for _, userID := range participants {
			if notified[userID] {
				continue
			}
			notified[userID] = true

			user, err := s.directory.GetUserByID(userID)
			if err != nil {
				s.logger.Error("failed to load participant for notification", "userID", userID, "scheduleID", schedule.ID, "error", err)
				continue
			}
			if err := s.notifier.SendSchedulePublished(user, group, schedule); err != nil {
				s.logger.Error("failed to dispatch schedule notification", "userID", userID, "scheduleID", schedule.ID, "error", err)
			}
		}
	}
}

// CalculateFairnessMetrics exposes the group's current fairness standing,
// derived from every non-draft schedule in its history.
func (s *Service) CalculateFairnessMetrics(groupID int64) Result[[]domain.FairnessMetric] {
	group, err := s.directory.GetGroupByID(groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[[]domain.FairnessMetric]("Group not found")
		}
		return fail[[]domain.FairnessMetric](s.logUnknown("calculate fairness metrics", err))
	}

	metrics, err := s.fairnessMetricsForGroup(group)
	if err != nil {
		return fail[[]domain.FairnessMetric](s.logUnknown("calculate fairness metrics", err))
	}

	return ok(metrics, "Fairness metrics computed")
}

// fairnessMetricsForGroup loads the group's non-draft schedule history and
// the members' display names, then scores every member. Drafts and dry runs
// never count toward fairness.
func (s *Service) fairnessMetricsForGroup(group *domain.Group) ([]domain.FairnessMetric, error) {
	schedules, err := s.schedules.GetWeeklySchedules(repository.ScheduleFilter{GroupID: &group.ID})
	if err != nil {
		return nil, err
	}

	history := make([]*domain.WeeklySchedule, 0, len(schedules))
	for _, schedule := range schedules {
		if schedule.Status == domain.ScheduleStatusDraft {
			continue
		}
		history = append(history, schedule)
	}

	names := make(map[int64]string, len(group.MemberIDs))
	for _, memberID := range group.MemberIDs {
		member, err := s.directory.GetUserByID(memberID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		names[memberID] = member.FullName
	}

	return CalculateFairnessMetrics(group, history, names), nil
}

// GetSchedule fetches one schedule by ID.
func (s *Service) GetSchedule(id string) Result[*domain.WeeklySchedule] {
	schedule, err := s.schedules.GetWeeklyScheduleByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[*domain.WeeklySchedule]("Schedule not found")
		}
		return fail[*domain.WeeklySchedule](s.logUnknown("get schedule", err))
	}

	return ok(schedule, "Schedule fetched")
}

// ScheduleQuery filters schedule listings. Nil fields match everything.
type ScheduleQuery struct {
	GroupID   *int64
	WeekStart *time.Time
	Status    *domain.ScheduleStatus
	Limit     int
}

// GetSchedules lists schedules matching the query, newest week first.
func (s *Service) GetSchedules(query ScheduleQuery) Result[[]*domain.WeeklySchedule] {
	filter := repository.ScheduleFilter{
		GroupID: query.GroupID,
		Status:  query.Status,
		Limit:   query.Limit,
	}
	if query.WeekStart != nil {
		week := NormalizeWeekStart(*query.WeekStart)
		filter.WeekStart = &week
	}

	schedules, err := s.schedules.GetWeeklySchedules(filter)
	if err != nil {
		return fail[[]*domain.WeeklySchedule](s.logUnknown("get schedules", err))
	}

	return ok(schedules, "Schedules fetched")
}

// UpdateScheduleRequest carries the mutable schedule fields. Assignments
// are immutable after generation; only status and notes can change.
type UpdateScheduleRequest struct {
	ID     string
	Status *domain.ScheduleStatus
	Notes  *string
}

// scheduleTransitions encodes the forward-only status machine.
var scheduleTransitions = map[domain.ScheduleStatus][]domain.ScheduleStatus{
	domain.ScheduleStatusDraft:     {domain.ScheduleStatusPublished, domain.ScheduleStatusArchived},
	domain.ScheduleStatusPublished: {domain.ScheduleStatusArchived},
	domain.ScheduleStatusArchived:  {},
}

func validTransition(from, to domain.ScheduleStatus) bool {
	if from == to {
		return true
	}
	for _, allowed := range scheduleTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// UpdateSchedule changes a schedule's status and/or notes. Status moves
// forward only: draft to published or archived, published to archived.
func (s *Service) UpdateSchedule(req UpdateScheduleRequest) Result[*domain.WeeklySchedule] {
	schedule, err := s.schedules.GetWeeklyScheduleByID(req.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[*domain.WeeklySchedule]("Schedule not found")
		}
		return fail[*domain.WeeklySchedule](s.logUnknown("update schedule", err))
	}

	if req.Status != nil {
		if !validTransition(schedule.Status, *req.Status) {
			return fail[*domain.WeeklySchedule](fmt.Sprintf("Invalid status transition from %s to %s", schedule.Status, *req.Status))
		}
		schedule.Status = *req.Status
	}
	if req.Notes != nil {
		schedule.Notes = *req.Notes
	}

	if err := s.schedules.UpdateWeeklySchedule(schedule); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[*domain.WeeklySchedule]("Schedule not found")
		}
		return fail[*domain.WeeklySchedule](s.logUnknown("update schedule", err))
	}

	return ok(schedule, "Schedule updated")
}

// DeleteSchedule removes a schedule and its assignments.
func (s *Service) DeleteSchedule(id string) Result[struct{}] {
	if _, err := s.schedules.GetWeeklyScheduleByID(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[struct{}]("Schedule not found")
		}
		return fail[struct{}](s.logUnknown("delete schedule", err))
	}

	if err := s.schedules.DeleteWeeklySchedule(id); err != nil {
		return fail[struct{}](s.logUnknown("delete schedule", err))
	}

	return ok(struct{}{}, "Schedule deleted")
}
