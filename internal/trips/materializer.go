// Package trips turns published schedule assignments into trip records.
package trips

import (
	"time"

	"github.com/google/uuid"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository"
	"github.com/maplewood-pta/carpool-manager/backend/internal/scheduling"
)

// Materializer implements scheduling.TripMaterializer against the trips
// repository.
type Materializer struct {
	repository *repository.Repository

	now   func() time.Time
	newID func() string
}

func NewMaterializer(repo *repository.Repository) *Materializer {
	return &Materializer{
		repository: repo,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

func (m *Materializer) CreateTrip(spec scheduling.TripSpec, actorID int64) error {
	trip := &domain.Trip{
		ID:                 m.newID(),
		ScheduleID:         spec.ScheduleID,
		GroupID:            spec.GroupID,
		DriverID:           spec.DriverID,
		PassengerIDs:       spec.PassengerIDs,
		Date:               spec.Date,
		ScheduledStartTime: spec.ScheduledStartTime,
		ScheduledEndTime:   spec.ScheduledEndTime,
		PickupLocation:     spec.PickupLocation,
		DropoffLocation:    spec.DropoffLocation,
		Status:             domain.TripStatusScheduled,
		CreatedBy:          actorID,
		CreatedAt:          m.now(),
	}

	return m.repository.CreateTrip(trip)
}
