package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
)

func (r *Repository) CreateTrip(trip *domain.Trip) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO trips (
			id,
			schedule_id,
			group_id,
			driver_id,
			date,
			scheduled_start_time,
			scheduled_end_time,
			pickup_location,
			dropoff_location,
			status,
			created_by,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING version
	`
	args := []any{
		trip.ID,
		trip.ScheduleID,
		trip.GroupID,
		trip.DriverID,
		trip.Date,
		trip.ScheduledStartTime,
		trip.ScheduledEndTime,
		trip.PickupLocation,
		trip.DropoffLocation,
		trip.Status,
		trip.CreatedBy,
		trip.CreatedAt,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&trip.Version); err != nil {
		return err
	}

	for _, passengerID := range trip.PassengerIDs {
		query := `
			INSERT INTO trip_passengers (trip_id, user_id)
			VALUES ($1, $2)
		`
		if _, err := tx.ExecContext(ctx, query, trip.ID, passengerID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetTripsByScheduleID(scheduleID string) ([]*domain.Trip, error) {
	return r.getTrips(`WHERE t.schedule_id = $1`, scheduleID)
}

func (r *Repository) GetTripsByGroupID(groupID int64) ([]*domain.Trip, error) {
	return r.getTrips(`WHERE t.group_id = $1`, groupID)
}

func (r *Repository) getTrips(where string, arg any) ([]*domain.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			t.id,
			t.schedule_id,
			t.group_id,
			t.driver_id,
			t.date,
			t.scheduled_start_time,
			t.scheduled_end_time,
			t.pickup_location,
			t.dropoff_location,
			t.status,
			t.created_by,
			t.created_at,
			t.version,
			tp.user_id
		FROM trips t
		LEFT JOIN trip_passengers tp ON t.id = tp.trip_id
		` + where + `
		ORDER BY t.date, t.id, tp.user_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tripsMap := make(map[string]*domain.Trip)
	order := make([]string, 0)

	for rows.Next() {
		trip := &domain.Trip{}
		var passengerID sql.NullInt64

		dst := []any{
			&trip.ID,
			&trip.ScheduleID,
			&trip.GroupID,
			&trip.DriverID,
			&trip.Date,
			&trip.ScheduledStartTime,
			&trip.ScheduledEndTime,
			&trip.PickupLocation,
			&trip.DropoffLocation,
			&trip.Status,
			&trip.CreatedBy,
			&trip.CreatedAt,
			&trip.Version,
			&passengerID,
		}

		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if _, exists := tripsMap[trip.ID]; !exists {
			trip.PassengerIDs = make([]int64, 0)
			tripsMap[trip.ID] = trip
			order = append(order, trip.ID)
		}

		if passengerID.Valid {
			tripsMap[trip.ID].PassengerIDs = append(tripsMap[trip.ID].PassengerIDs, passengerID.Int64)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	trips := make([]*domain.Trip, 0, len(order))
	for _, id := range order {
		trips = append(trips, tripsMap[id])
	}

	return trips, nil
}
