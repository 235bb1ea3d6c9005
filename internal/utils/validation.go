package utils

import (
	"fmt"
	"slices"
	"time"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
)

// ValidateDayPreferences checks a preference submission's day map: every
// key must be a school weekday, stated times must parse as HH:MM, and the
// pickup time must precede the dropoff time when both are present.
func ValidateDayPreferences(days map[string]domain.DayPreference) error {
	for key, day := range days {
		if !slices.Contains(domain.WeekdayNames, key) {
			return fmt.Errorf("unknown weekday %q", key)
		}

		var pickup, dropoff time.Time
		var err error

		if day.PreferredPickupTime != "" {
			pickup, err = time.Parse("15:04", day.PreferredPickupTime)
			if err != nil {
				return fmt.Errorf("invalid pickup time for %s", key)
			}
		}
		if day.PreferredDropoffTime != "" {
			dropoff, err = time.Parse("15:04", day.PreferredDropoffTime)
			if err != nil {
				return fmt.Errorf("invalid dropoff time for %s", key)
			}
		}
		if day.PreferredPickupTime != "" && day.PreferredDropoffTime != "" && !pickup.Before(dropoff) {
			return fmt.Errorf("pickup time must be before dropoff time for %s", key)
		}
	}

	return nil
}
