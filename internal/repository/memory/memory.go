// Package memory provides mutex-guarded in-memory implementations of the
// scheduling storage interfaces, used by tests and embedded deployments
// that run without Postgres.
package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository"
)

// PreferenceRepository stores weekly preferences keyed by their natural key.
// All methods are safe for concurrent use; upserts for the same key are
// serialized, so the last writer wins and at most one record exists per
// (user, group, week).
type PreferenceRepository struct {
	mu    sync.RWMutex
	prefs map[string]*domain.WeeklyPreference
}

func NewPreferenceRepository() *PreferenceRepository {
	return &PreferenceRepository{prefs: make(map[string]*domain.WeeklyPreference)}
}

func preferenceKey(userID int64, groupID int64, weekStart time.Time) string {
	return fmt.Sprintf("%d/%d/%d", userID, groupID, weekStart.Unix())
}

func copyPreference(pref *domain.WeeklyPreference) *domain.WeeklyPreference {
	cp := *pref
	cp.Days = make(map[string]domain.DayPreference, len(pref.Days))
	for name, day := range pref.Days {
		cp.Days[name] = day
	}
	return &cp
}

func (r *PreferenceRepository) UpsertWeeklyPreference(pref *domain.WeeklyPreference) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := preferenceKey(pref.UserID, pref.GroupID, pref.WeekStart)
	existing, found := r.prefs[key]
	if found {
		pref.ID = existing.ID
		pref.CreatedAt = existing.CreatedAt
		pref.Version = existing.Version + 1
	} else {
		pref.Version = 1
	}

	r.prefs[key] = copyPreference(pref)
	return !found, nil
}

func (r *PreferenceRepository) GetWeeklyPreference(userID int64, groupID int64, weekStart time.Time) (*domain.WeeklyPreference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pref, found := r.prefs[preferenceKey(userID, groupID, weekStart)]
	if !found {
		return nil, repository.ErrNotFound
	}
	return copyPreference(pref), nil
}

func (r *PreferenceRepository) GetWeeklyPreferencesByGroupWeek(groupID int64, weekStart time.Time) ([]*domain.WeeklyPreference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefs := make([]*domain.WeeklyPreference, 0)
	for _, pref := range r.prefs {
		if pref.GroupID == groupID && pref.WeekStart.Equal(weekStart) {
			prefs = append(prefs, copyPreference(pref))
		}
	}

	sort.Slice(prefs, func(i, j int) bool {
		return prefs[i].UserID < prefs[j].UserID
	})

	return prefs, nil
}

func (r *PreferenceRepository) UpdateWeeklyPreference(pref *domain.WeeklyPreference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := preferenceKey(pref.UserID, pref.GroupID, pref.WeekStart)
	existing, found := r.prefs[key]
	if !found || existing.Version != pref.Version {
		return repository.ErrNotFound
	}

	pref.Version++
	r.prefs[key] = copyPreference(pref)
	return nil
}

// ScheduleRepository stores weekly schedules keyed by ID.
type ScheduleRepository struct {
	mu        sync.RWMutex
	schedules map[string]*domain.WeeklySchedule
}

func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{schedules: make(map[string]*domain.WeeklySchedule)}
}

func copySchedule(schedule *domain.WeeklySchedule) *domain.WeeklySchedule {
	cp := *schedule
	cp.Assignments = make([]domain.ScheduleAssignment, len(schedule.Assignments))
	for i, assignment := range schedule.Assignments {
		a := assignment
		a.PassengerIDs = append([]int64(nil), assignment.PassengerIDs...)
		cp.Assignments[i] = a
	}
	return &cp
}

func (r *ScheduleRepository) CreateWeeklySchedule(schedule *domain.WeeklySchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	schedule.Version = 1
	r.schedules[schedule.ID] = copySchedule(schedule)
	return nil
}

func (r *ScheduleRepository) GetWeeklyScheduleByID(id string) (*domain.WeeklySchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schedule, found := r.schedules[id]
	if !found {
		return nil, repository.ErrNotFound
	}
	return copySchedule(schedule), nil
}

func (r *ScheduleRepository) GetWeeklySchedules(filter repository.ScheduleFilter) ([]*domain.WeeklySchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schedules := make([]*domain.WeeklySchedule, 0)
	for _, schedule := range r.schedules {
		if filter.GroupID != nil && schedule.GroupID != *filter.GroupID {
			continue
		}
		if filter.WeekStart != nil && !schedule.WeekStart.Equal(*filter.WeekStart) {
			continue
		}
		if filter.Status != nil && schedule.Status != *filter.Status {
			continue
		}
		schedules = append(schedules, copySchedule(schedule))
	}

	sort.Slice(schedules, func(i, j int) bool {
		if !schedules[i].WeekStart.Equal(schedules[j].WeekStart) {
			return schedules[i].WeekStart.After(schedules[j].WeekStart)
		}
		return schedules[i].GeneratedAt.After(schedules[j].GeneratedAt)
	})

	if filter.Limit > 0 && len(schedules) > filter.Limit {
		schedules = schedules[:filter.Limit]
	}

	return schedules, nil
}

func (r *ScheduleRepository) UpdateWeeklySchedule(schedule *domain.WeeklySchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, found := r.schedules[schedule.ID]
	if !found || existing.Version != schedule.Version {
		return repository.ErrNotFound
	}

	schedule.Version++
	r.schedules[schedule.ID] = copySchedule(schedule)
	return nil
}

func (r *ScheduleRepository) DeleteWeeklySchedule(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.schedules[id]; !found {
		return repository.ErrNotFound
	}
	delete(r.schedules, id)
	return nil
}

// PublishWeeklySchedule inserts a schedule and archives any published
// schedule the group already had for the week, under one lock so a reader
// never observes the week without a published schedule mid-swap.
func (r *ScheduleRepository) PublishWeeklySchedule(schedule *domain.WeeklySchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.schedules {
		if existing.GroupID == schedule.GroupID && existing.WeekStart.Equal(schedule.WeekStart) && existing.Status == domain.ScheduleStatusPublished {
			existing.Status = domain.ScheduleStatusArchived
			existing.Version++
		}
	}

	schedule.Version = 1
	r.schedules[schedule.ID] = copySchedule(schedule)
	return nil
}

// Directory is an in-memory user and group lookup for tests and embedded
// use. It is read-mostly; Put methods exist for seeding only.
type Directory struct {
	mu     sync.RWMutex
	users  map[int64]*domain.User
	groups map[int64]*domain.Group
}

func NewDirectory() *Directory {
	return &Directory{
		users:  make(map[int64]*domain.User),
		groups: make(map[int64]*domain.Group),
	}
}

func (d *Directory) PutUser(user *domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *user
	d.users[user.ID] = &cp
}

func (d *Directory) PutGroup(group *domain.Group) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *group
	cp.CoAdminIDs = append([]int64(nil), group.CoAdminIDs...)
	cp.MemberIDs = append([]int64(nil), group.MemberIDs...)
	d.groups[group.ID] = &cp
}

func (d *Directory) GetUserByID(id int64) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, found := d.users[id]
	if !found {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (d *Directory) GetGroupByID(id int64) (*domain.Group, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	group, found := d.groups[id]
	if !found {
		return nil, repository.ErrNotFound
	}
	cp := *group
	cp.CoAdminIDs = append([]int64(nil), group.CoAdminIDs...)
	cp.MemberIDs = append([]int64(nil), group.MemberIDs...)
	return &cp, nil
}
