package scheduling

import "time"

// weekdayDisplayNames maps a zero-based weekday index (Monday = 0) to the
// name used in warnings and notifications.
var weekdayDisplayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// NormalizeWeekStart maps any date to the Monday anchoring its week, at
// midnight UTC. Sundays map back six days. Two dates belong to the same
// scheduling week iff their normalized Mondays are equal.
func NormalizeWeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return day.AddDate(0, 0, -offset)
}

// SameWeek reports whether two dates fall in the same Monday-anchored week.
func SameWeek(a, b time.Time) bool {
	return NormalizeWeekStart(a).Equal(NormalizeWeekStart(b))
}
