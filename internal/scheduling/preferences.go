package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository"
	"github.com/maplewood-pta/carpool-manager/backend/internal/utils"
)

type SubmitPreferencesRequest struct {
	UserID    int64
	GroupID   int64
	WeekStart time.Time
	Days      map[string]domain.DayPreference
}

// SubmitWeeklyPreferences stores a member's availability for a week,
// replacing any earlier submission for the same (user, group, week).
func (s *Service) SubmitWeeklyPreferences(req SubmitPreferencesRequest) Result[*domain.WeeklyPreference] {
	group, err := s.directory.GetGroupByID(req.GroupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[*domain.WeeklyPreference]("Group not found")
		}
		return fail[*domain.WeeklyPreference](s.logUnknown("submit weekly preferences", err))
	}

	if !group.HasMember(req.UserID) {
		return fail[*domain.WeeklyPreference]("User is not a member of this group")
	}

	if err := utils.ValidateDayPreferences(req.Days); err != nil {
		return fail[*domain.WeeklyPreference](err.Error())
	}

	now := s.now()
	pref := &domain.WeeklyPreference{
		ID:        s.newID(),
		UserID:    req.UserID,
		GroupID:   req.GroupID,
		WeekStart: NormalizeWeekStart(req.WeekStart),
		Days:      req.Days,
		Status:    domain.PreferenceStatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.preferences.UpsertWeeklyPreference(pref)
	if err != nil {
		return fail[*domain.WeeklyPreference](s.logUnknown("submit weekly preferences", err))
	}

	message := "Preferences updated"
	if created {
		message = "Preferences submitted"
	}

	return ok(pref, message)
}

// GetPreferenceStatus reports how many members of a group have submitted
// preferences for the week containing weekStart, and which are still
// pending. The requester must be a group member, the group admin, a
// co-admin, or a system admin.
func (s *Service) GetPreferenceStatus(groupID int64, weekStart time.Time, requesterID int64) Result[*domain.PreferenceStatusReport] {
	group, err := s.directory.GetGroupByID(groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[*domain.PreferenceStatusReport]("Group not found")
		}
		return fail[*domain.PreferenceStatusReport](s.logUnknown("get preference status", err))
	}

	allowed, err := s.canViewGroup(group, requesterID)
	if err != nil {
		return fail[*domain.PreferenceStatusReport](s.logUnknown("get preference status", err))
	}
	if !allowed {
		return fail[*domain.PreferenceStatusReport]("You do not have access to this group")
	}

	report, err := s.buildPreferenceStatusReport(group, NormalizeWeekStart(weekStart))
	if err != nil {
		return fail[*domain.PreferenceStatusReport](s.logUnknown("get preference status", err))
	}

	return ok(report, "Preference status computed")
}

func (s *Service) buildPreferenceStatusReport(group *domain.Group, weekStart time.Time) (*domain.PreferenceStatusReport, error) {
	prefs, err := s.preferences.GetWeeklyPreferencesByGroupWeek(group.ID, weekStart)
	if err != nil {
		return nil, err
	}

	submitted := make(map[int64]bool, len(prefs))
	for _, pref := range prefs {
		submitted[pref.UserID] = true
	}

	pending := make([]int64, 0)
	submittedCount := 0
	for _, memberID := range group.MemberIDs {
		if submitted[memberID] {
			submittedCount++
		} else {
			pending = append(pending, memberID)
		}
	}

	rate := 0.0
	if len(group.MemberIDs) > 0 {
		rate = float64(submittedCount) / float64(len(group.MemberIDs))
	}

	return &domain.PreferenceStatusReport{
		GroupID:        group.ID,
		WeekStart:      weekStart,
		TotalMembers:   len(group.MemberIDs),
		SubmittedCount: submittedCount,
		PendingMembers: pending,
		SubmissionRate: rate,
	}, nil
}

// canViewGroup implements the shared access rule for read and reminder
// operations: membership, group adminship, or a directory-level admin role.
func (s *Service) canViewGroup(group *domain.Group, requesterID int64) (bool, error) {
	if group.HasMember(requesterID) || group.IsGroupAdmin(requesterID) {
		return true, nil
	}

	requester, err := s.directory.GetUserByID(requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return requester.Role == domain.RoleAdmin, nil
}

// GetWeeklyPreferences fetches one member's stored preferences for a week.
func (s *Service) GetWeeklyPreferences(userID int64, groupID int64, weekStart time.Time) Result[*domain.WeeklyPreference] {
	pref, err := s.preferences.GetWeeklyPreference(userID, groupID, NormalizeWeekStart(weekStart))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[*domain.WeeklyPreference]("Preferences not found")
		}
		return fail[*domain.WeeklyPreference](s.logUnknown("get weekly preferences", err))
	}

	return ok(pref, "Preferences fetched")
}

// UpdateWeeklyPreferences rewrites an existing submission. Unlike
// SubmitWeeklyPreferences it does not create a record when none exists.
func (s *Service) UpdateWeeklyPreferences(req SubmitPreferencesRequest) Result[*domain.WeeklyPreference] {
	if err := utils.ValidateDayPreferences(req.Days); err != nil {
		return fail[*domain.WeeklyPreference](err.Error())
	}

	pref, err := s.preferences.GetWeeklyPreference(req.UserID, req.GroupID, NormalizeWeekStart(req.WeekStart))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[*domain.WeeklyPreference]("Preferences not found")
		}
		return fail[*domain.WeeklyPreference](s.logUnknown("update weekly preferences", err))
	}

	pref.Days = req.Days
	pref.Status = domain.PreferenceStatusSubmitted
	pref.UpdatedAt = s.now()

	if err := s.preferences.UpdateWeeklyPreference(pref); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[*domain.WeeklyPreference]("Preferences not found")
		}
		return fail[*domain.WeeklyPreference](s.logUnknown("update weekly preferences", err))
	}

	return ok(pref, "Preferences updated")
}

// SendPreferenceReminders notifies every member who has not yet submitted
// preferences for the week. Individual delivery failures are logged and do
// not abort the rest; the returned count is the number handed to the
// dispatcher.
func (s *Service) SendPreferenceReminders(groupID int64, weekStart time.Time, senderID int64) Result[int] {
	group, err := s.directory.GetGroupByID(groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail[int]("Group not found")
		}
		return fail[int](s.logUnknown("send preference reminders", err))
	}

	allowed, err := s.canViewGroup(group, senderID)
	if err != nil {
		return fail[int](s.logUnknown("send preference reminders", err))
	}
	if !allowed {
		return fail[int]("You do not have access to this group")
	}

	week := NormalizeWeekStart(weekStart)
	report, err := s.buildPreferenceStatusReport(group, week)
	if err != nil {
		return fail[int](s.logUnknown("send preference reminders", err))
	}

	sent := 0
	for _, memberID := range report.PendingMembers {
		member, err := s.directory.GetUserByID(memberID)
		if err != nil {
			s.logger.Error("failed to load pending member for reminder", "userID", memberID, "groupID", groupID, "error", err)
			continue
		}

		if err := s.notifier.SendPreferenceReminder(member, group, week); err != nil {
			s.logger.Error("failed to dispatch preference reminder", "userID", memberID, "groupID", groupID, "error", err)
			continue
		}
		sent++
	}

	return ok(sent, fmt.Sprintf("Sent %d reminders", sent))
}
