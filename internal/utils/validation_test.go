package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
)

func TestValidateDayPreferences(t *testing.T) {
	tests := []struct {
		name    string
		days    map[string]domain.DayPreference
		wantErr string
	}{
		{
			name: "valid full week",
			days: map[string]domain.DayPreference{
				"monday": {CanDrive: true, CanPassenger: true, PreferredPickupTime: "08:00", PreferredDropoffTime: "08:30"},
				"friday": {CanPassenger: true},
			},
		},
		{
			name:    "weekend key rejected",
			days:    map[string]domain.DayPreference{"saturday": {CanDrive: true}},
			wantErr: `unknown weekday "saturday"`,
		},
		{
			name:    "malformed pickup time",
			days:    map[string]domain.DayPreference{"monday": {CanDrive: true, PreferredPickupTime: "8am"}},
			wantErr: "invalid pickup time for monday",
		},
		{
			name:    "malformed dropoff time",
			days:    map[string]domain.DayPreference{"tuesday": {CanDrive: true, PreferredDropoffTime: "25:99"}},
			wantErr: "invalid dropoff time for tuesday",
		},
		{
			name:    "pickup after dropoff",
			days:    map[string]domain.DayPreference{"wednesday": {CanDrive: true, PreferredPickupTime: "09:00", PreferredDropoffTime: "08:00"}},
			wantErr: "pickup time must be before dropoff time for wednesday",
		},
		{
			name: "times optional",
			days: map[string]domain.DayPreference{"thursday": {CanPassenger: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDayPreferences(tt.days)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
