package domain

// FairnessMetric is the derived driving-load view for one group member.
// It is recomputed on demand from schedule history and never persisted.
type FairnessMetric struct {
	UserID               int64   `json:"userID"`
	FullName             string  `json:"fullName"`
	TotalAssignments     int     `json:"totalAssignments"`
	DrivingAssignments   int     `json:"drivingAssignments"`
	PassengerAssignments int     `json:"passengerAssignments"`
	FairnessScore        float64 `json:"fairnessScore"`
	FairnessDebt         float64 `json:"fairnessDebt"`
}
