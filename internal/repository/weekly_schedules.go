package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
)

// ScheduleFilter narrows GetWeeklySchedules. Nil fields are ignored; set
// fields are combined conjunctively. A Limit of 0 means no limit.
type ScheduleFilter struct {
	GroupID   *int64
	WeekStart *time.Time
	Status    *domain.ScheduleStatus
	Limit     int
}

// PublishWeeklySchedule inserts a schedule and archives any published
// schedule the group already had for the week. Archive and insert share one
// transaction so a failed insert never leaves the week without a published
// schedule.
func (r *Repository) PublishWeeklySchedule(schedule *domain.WeeklySchedule) error {
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
		UPDATE weekly_schedules
		SET status = $1, version = version + 1
		WHERE group_id = $2 AND week_start = $3 AND status = $4
	`
	args := []any{domain.ScheduleStatusArchived, schedule.GroupID, schedule.WeekStart, domain.ScheduleStatusPublished}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	if err := insertWeeklySchedule(ctx, tx, schedule); err != nil {
		return err
	}

	return tx.Commit()
}

func insertWeeklySchedule(ctx context.Context, tx *sql.Tx, schedule *domain.WeeklySchedule) error {
	query := `
		INSERT INTO weekly_schedules (id, group_id, week_start, status, fairness_score, generated_at, generated_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING version
	`
	args := []any{
		schedule.ID,
		schedule.GroupID,
		schedule.WeekStart,
		schedule.Status,
		schedule.FairnessScore,
		schedule.GeneratedAt,
		schedule.GeneratedBy,
		schedule.Notes,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&schedule.Version); err != nil {
		return err
	}

	for _, assignment := range schedule.Assignments {
		query := `
			INSERT INTO schedule_assignments (
				schedule_id,
				day_of_week,
				date,
				driver_id,
				scheduled_start_time,
				scheduled_end_time,
				estimated_distance,
				fairness_impact
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		args := []any{
			schedule.ID,
			assignment.DayOfWeek,
			assignment.Date,
			assignment.DriverID,
			assignment.ScheduledStartTime,
			assignment.ScheduledEndTime,
			assignment.EstimatedDistance,
			assignment.FairnessImpact,
		}
		var assignmentID int64
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&assignmentID); err != nil {
			return err
		}

		for _, passengerID := range assignment.PassengerIDs {
			query := `
				INSERT INTO assignment_passengers (assignment_id, user_id)
				VALUES ($1, $2)
			`
			if _, err := tx.ExecContext(ctx, query, assignmentID, passengerID); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Repository) GetWeeklyScheduleByID(id string) (*domain.WeeklySchedule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT group_id, week_start, status, fairness_score, generated_at, generated_by, notes, version
		FROM weekly_schedules WHERE id = $1
	`

	schedule := &domain.WeeklySchedule{
		ID: id,
	}

	dst := []any{
		&schedule.GroupID,
		&schedule.WeekStart,
		&schedule.Status,
		&schedule.FairnessScore,
		&schedule.GeneratedAt,
		&schedule.GeneratedBy,
		&schedule.Notes,
		&schedule.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	assignments, err := r.getScheduleAssignments(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule.Assignments = assignments

	return schedule, nil
}

func (r *Repository) getScheduleAssignments(ctx context.Context, scheduleID string) ([]domain.ScheduleAssignment, error) {
	query := `
		SELECT
			sa.id,
			sa.day_of_week,
			sa.date,
			sa.driver_id,
			sa.scheduled_start_time,
			sa.scheduled_end_time,
			sa.estimated_distance,
			sa.fairness_impact,
			ap.user_id
		FROM schedule_assignments sa
		LEFT JOIN assignment_passengers ap ON sa.id = ap.assignment_id
		WHERE sa.schedule_id = $1
		ORDER BY sa.day_of_week, ap.user_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignmentsMap := make(map[int64]*domain.ScheduleAssignment)
	order := make([]int64, 0)

	for rows.Next() {
		var row struct {
			id             int64
			dayOfWeek      int32
			date           time.Time
			driverID       int64
			startTime      string
			endTime        string
			distance       float64
			fairnessImpact float64
			passengerID    sql.NullInt64
		}

		dst := []any{
			&row.id,
			&row.dayOfWeek,
			&row.date,
			&row.driverID,
			&row.startTime,
			&row.endTime,
			&row.distance,
			&row.fairnessImpact,
			&row.passengerID,
		}

		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if _, exists := assignmentsMap[row.id]; !exists {
			assignmentsMap[row.id] = &domain.ScheduleAssignment{
				DayOfWeek:          row.dayOfWeek,
				Date:               row.date,
				DriverID:           row.driverID,
				PassengerIDs:       make([]int64, 0),
				ScheduledStartTime: row.startTime,
				ScheduledEndTime:   row.endTime,
				EstimatedDistance:  row.distance,
				FairnessImpact:     row.fairnessImpact,
			}
			order = append(order, row.id)
		}

		if row.passengerID.Valid {
			assignmentsMap[row.id].PassengerIDs = append(assignmentsMap[row.id].PassengerIDs, row.passengerID.Int64)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	assignments := make([]domain.ScheduleAssignment, 0, len(order))
	for _, id := range order {
		assignments = append(assignments, *assignmentsMap[id])
	}

	return assignments, nil
}

func (r *Repository) GetWeeklySchedules(filter ScheduleFilter) ([]*domain.WeeklySchedule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id FROM weekly_schedules
		WHERE ($1::bigint IS NULL OR group_id = $1)
		  AND ($2::date IS NULL OR week_start = $2)
		  AND ($3::text IS NULL OR status = $3)
		ORDER BY generated_at DESC
	`

	var groupID any
	if filter.GroupID != nil {
		groupID = *filter.GroupID
	}
	var weekStart any
	if filter.WeekStart != nil {
		weekStart = *filter.WeekStart
	}
	var status any
	if filter.Status != nil {
		status = string(*filter.Status)
	}

	rows, err := r.dbpool.QueryContext(ctx, query, groupID, weekStart, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if filter.Limit > 0 && len(ids) > filter.Limit {
		ids = ids[:filter.Limit]
	}

	schedules := make([]*domain.WeeklySchedule, 0, len(ids))
	for _, id := range ids {
		schedule, err := r.GetWeeklyScheduleByID(id)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}

	return schedules, nil
}

// UpdateWeeklySchedule persists status and notes changes. Assignments are
// immutable after generation and are not touched here.
func (r *Repository) UpdateWeeklySchedule(schedule *domain.WeeklySchedule) error {
	query := `
		UPDATE weekly_schedules
		SET status = $1, notes = $2, version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, schedule.Status, schedule.Notes, schedule.ID, schedule.Version).Scan(&schedule.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

func (r *Repository) DeleteWeeklySchedule(id string) error {
	query := `
		DELETE FROM weekly_schedules WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
