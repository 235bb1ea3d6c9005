package domain

import "time"

type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// Trip is one materialized ride derived from a published schedule assignment.
type Trip struct {
	ID                 string     `json:"id"`
	ScheduleID         string     `json:"scheduleID"`
	GroupID            int64      `json:"groupID"`
	DriverID           int64      `json:"driverID"`
	PassengerIDs       []int64    `json:"passengerIDs"`
	Date               time.Time  `json:"date"`
	ScheduledStartTime string     `json:"scheduledStartTime"`
	ScheduledEndTime   string     `json:"scheduledEndTime"`
	PickupLocation     string     `json:"pickupLocation"`
	DropoffLocation    string     `json:"dropoffLocation"`
	Status             TripStatus `json:"status"`
	CreatedBy          int64      `json:"createdBy"`
	CreatedAt          time.Time  `json:"createdAt"`
	Version            int32      `json:"-"`
}
