package domain

import "time"

type PreferenceStatus string

const (
	PreferenceStatusSubmitted PreferenceStatus = "submitted"
)

// Weekday keys used in the per-day preference map, Monday through Friday.
var WeekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

type DayPreference struct {
	CanDrive             bool   `json:"canDrive"`
	CanPassenger         bool   `json:"canPassenger"`
	PreferredPickupTime  string `json:"preferredPickupTime,omitempty"`
	PreferredDropoffTime string `json:"preferredDropoffTime,omitempty"`
	Notes                string `json:"notes,omitempty"`
}

// WeeklyPreference holds one member's availability for one group and week.
// The (UserID, GroupID, WeekStart) tuple is the natural key: resubmitting
// replaces the stored record rather than creating a second one.
type WeeklyPreference struct {
	ID        string                   `json:"id"`
	UserID    int64                    `json:"userID"`
	GroupID   int64                    `json:"groupID"`
	WeekStart time.Time                `json:"weekStart"`
	Days      map[string]DayPreference `json:"preferences"`
	Status    PreferenceStatus         `json:"status"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
	Version   int32                    `json:"-"`
}

type PreferenceStatusReport struct {
	GroupID        int64     `json:"groupID"`
	WeekStart      time.Time `json:"weekStart"`
	TotalMembers   int       `json:"totalMembers"`
	SubmittedCount int       `json:"submittedCount"`
	PendingMembers []int64   `json:"pendingMembers"`
	SubmissionRate float64   `json:"submissionRate"`
}
