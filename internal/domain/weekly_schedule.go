package domain

import "time"

type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "draft"
	ScheduleStatusPublished ScheduleStatus = "published"
	ScheduleStatusArchived  ScheduleStatus = "archived"
)

// ScheduleAssignment is one weekday's driver/passenger allocation.
// DayOfWeek is zero-based with Monday = 0.
type ScheduleAssignment struct {
	DayOfWeek          int32     `json:"dayOfWeek"`
	Date               time.Time `json:"date"`
	DriverID           int64     `json:"driverID"`
	PassengerIDs       []int64   `json:"passengerIDs"`
	ScheduledStartTime string    `json:"scheduledStartTime"`
	ScheduledEndTime   string    `json:"scheduledEndTime"`
	EstimatedDistance  float64   `json:"estimatedDistance"`
	FairnessImpact     float64   `json:"fairnessImpact"`
}

// WeeklySchedule is one generated five-weekday schedule for a group.
// Assignments are immutable once generated; regenerating a week produces a
// new schedule and archives the previously published one.
type WeeklySchedule struct {
	ID            string               `json:"id"`
	GroupID       int64                `json:"groupID"`
	WeekStart     time.Time            `json:"weekStart"`
	Assignments   []ScheduleAssignment `json:"assignments"`
	Status        ScheduleStatus       `json:"status"`
	FairnessScore float64              `json:"fairnessScore"`
	GeneratedAt   time.Time            `json:"generatedAt"`
	GeneratedBy   int64                `json:"generatedBy"`
	Notes         string               `json:"notes,omitempty"`
	Version       int32                `json:"-"`
}
