package scheduling

import (
	"fmt"
	"sort"
	"time"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
)

// DayAssignmentOptions control driver selection and trip shape for a single
// weekday.
type DayAssignmentOptions struct {
	// ConsiderFairness selects the driver with the highest fairness debt;
	// when false the driver rotates deterministically by weekday index.
	ConsiderFairness bool
	// MaxPassengers caps the passenger list; 0 means the default of 4.
	MaxPassengers int
	PickupTime    string
	DropoffTime   string
}

const defaultMaxPassengers = 4

// GenerateDayAssignment selects a driver and passengers for one weekday
// (Monday = 0) of the week anchored at weekStart. It returns no assignment
// and a warning when the day cannot be staffed. The function is pure:
// identical inputs always produce the identical assignment, which the
// schedule generation tests rely on.
func GenerateDayAssignment(preferences []*domain.WeeklyPreference, metrics []domain.FairnessMetric, dayOfWeek int32, weekStart time.Time, opts DayAssignmentOptions) (*domain.ScheduleAssignment, []string) {
	dayName := weekdayDisplayNames[dayOfWeek]
	dayKey := domain.WeekdayNames[dayOfWeek]

	availableDrivers := make([]int64, 0)
	availablePassengers := make([]int64, 0)
	for _, pref := range preferences {
		day, exists := pref.Days[dayKey]
		if !exists {
			continue
		}
		if day.CanDrive {
			availableDrivers = append(availableDrivers, pref.UserID)
		}
		if day.CanPassenger {
			availablePassengers = append(availablePassengers, pref.UserID)
		}
	}

	if len(availableDrivers) == 0 {
		return nil, []string{fmt.Sprintf("No available drivers for %s", dayName)}
	}
	if len(availablePassengers) == 0 {
		return nil, []string{fmt.Sprintf("No available passengers for %s", dayName)}
	}

	driverID := selectDriver(availableDrivers, metrics, dayOfWeek, opts.ConsiderFairness)

	maxPassengers := opts.MaxPassengers
	if maxPassengers <= 0 {
		maxPassengers = defaultMaxPassengers
	}

	passengerIDs := make([]int64, 0, maxPassengers)
	for _, userID := range availablePassengers {
		if userID == driverID {
			continue
		}
		passengerIDs = append(passengerIDs, userID)
		if len(passengerIDs) == maxPassengers {
			break
		}
	}

	fairnessImpact := 0.0
	for _, metric := range metrics {
		if metric.UserID == driverID {
			fairnessImpact = metric.FairnessDebt
			break
		}
	}

	assignment := &domain.ScheduleAssignment{
		DayOfWeek:          dayOfWeek,
		Date:               weekStart.AddDate(0, 0, int(dayOfWeek)),
		DriverID:           driverID,
		PassengerIDs:       passengerIDs,
		ScheduledStartTime: opts.PickupTime,
		ScheduledEndTime:   opts.DropoffTime,
		FairnessImpact:     fairnessImpact,
	}

	return assignment, nil
}

// selectDriver applies the driver selection policy. Fairness-aware selection
// takes the available driver with the highest fairness debt; otherwise the
// choice is a round-robin keyed by weekday index over the availability
// order, which keeps repeated generations reproducible.
func selectDriver(availableDrivers []int64, metrics []domain.FairnessMetric, dayOfWeek int32, considerFairness bool) int64 {
	if !considerFairness {
		return availableDrivers[int(dayOfWeek)%len(availableDrivers)]
	}

	available := make(map[int64]bool, len(availableDrivers))
	for _, id := range availableDrivers {
		available[id] = true
	}

	candidates := make([]domain.FairnessMetric, 0, len(metrics))
	for _, metric := range metrics {
		if available[metric.UserID] {
			candidates = append(candidates, metric)
		}
	}

	if len(candidates) == 0 {
		// no metrics cover the available drivers, fall back to first in order
		return availableDrivers[0]
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FairnessDebt > candidates[j].FairnessDebt
	})

	return candidates[0].UserID
}
