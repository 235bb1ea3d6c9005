package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
)

// UpsertWeeklyPreference stores a preference record keyed by its natural key
// (user, group, week start). An existing record for the same key is replaced
// in one transaction, which together with the unique index on the key keeps
// the "one record per key" invariant under concurrent submissions.
// The returned flag reports whether a new record was created.
func (r *Repository) UpsertWeeklyPreference(pref *domain.WeeklyPreference) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// resubmissions keep the existing row's id and created_at; concurrent
	// first-time submissions race on the unique index and the loser's
	// insert degrades to the update arm, last writer wins.
	// xmax = 0 only on a freshly inserted row.
	query := `
		INSERT INTO weekly_preferences (id, user_id, group_id, week_start, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, group_id, week_start) DO UPDATE
		SET status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at,
		    version = weekly_preferences.version + 1
		RETURNING id, created_at, version, (xmax = 0)
	`
	var created bool
	args := []any{pref.ID, pref.UserID, pref.GroupID, pref.WeekStart, pref.Status, pref.CreatedAt, pref.UpdatedAt}
	dst := []any{&pref.ID, &pref.CreatedAt, &pref.Version, &created}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return false, err
	}

	query = `DELETE FROM weekly_preference_days WHERE weekly_preference_id = $1`
	if _, err := tx.ExecContext(ctx, query, pref.ID); err != nil {
		return false, err
	}

	query = `
		INSERT INTO weekly_preference_days (
			weekly_preference_id,
			weekday,
			can_drive,
			can_passenger,
			preferred_pickup_time,
			preferred_dropoff_time,
			notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, weekday := range domain.WeekdayNames {
		day, exists := pref.Days[weekday]
		if !exists {
			continue
		}
		args := []any{pref.ID, weekday, day.CanDrive, day.CanPassenger, day.PreferredPickupTime, day.PreferredDropoffTime, day.Notes}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return created, nil
}

func (r *Repository) GetWeeklyPreference(userID int64, groupID int64, weekStart time.Time) (*domain.WeeklyPreference, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, status, created_at, updated_at, version
		FROM weekly_preferences
		WHERE user_id = $1 AND group_id = $2 AND week_start = $3
	`

	pref := &domain.WeeklyPreference{
		UserID:    userID,
		GroupID:   groupID,
		WeekStart: weekStart,
	}

	dst := []any{&pref.ID, &pref.Status, &pref.CreatedAt, &pref.UpdatedAt, &pref.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, userID, groupID, weekStart).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	days, err := r.getPreferenceDays(ctx, pref.ID)
	if err != nil {
		return nil, err
	}
	pref.Days = days

	return pref, nil
}

func (r *Repository) getPreferenceDays(ctx context.Context, prefID string) (map[string]domain.DayPreference, error) {
	query := `
		SELECT weekday, can_drive, can_passenger, preferred_pickup_time, preferred_dropoff_time, notes
		FROM weekly_preference_days
		WHERE weekly_preference_id = $1
	`

	rows, err := r.dbpool.QueryContext(ctx, query, prefID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make(map[string]domain.DayPreference)
	for rows.Next() {
		var weekday string
		var day domain.DayPreference
		dst := []any{&weekday, &day.CanDrive, &day.CanPassenger, &day.PreferredPickupTime, &day.PreferredDropoffTime, &day.Notes}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		days[weekday] = day
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return days, nil
}

func (r *Repository) GetWeeklyPreferencesByGroupWeek(groupID int64, weekStart time.Time) ([]*domain.WeeklyPreference, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			wp.id,
			wp.user_id,
			wp.status,
			wp.created_at,
			wp.updated_at,
			wp.version,
			wpd.weekday,
			wpd.can_drive,
			wpd.can_passenger,
			wpd.preferred_pickup_time,
			wpd.preferred_dropoff_time,
			wpd.notes
		FROM weekly_preferences wp
		LEFT JOIN weekly_preference_days wpd ON wp.id = wpd.weekly_preference_id
		WHERE wp.group_id = $1 AND wp.week_start = $2
		ORDER BY wp.user_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, groupID, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefsMap := make(map[string]*domain.WeeklyPreference)
	order := make([]string, 0)

	for rows.Next() {
		var row struct {
			id          string
			userID      int64
			status      domain.PreferenceStatus
			createdAt   time.Time
			updatedAt   time.Time
			version     int32
			weekday     sql.NullString
			canDrive    sql.NullBool
			canRide     sql.NullBool
			pickupTime  sql.NullString
			dropoffTime sql.NullString
			notes       sql.NullString
		}

		dst := []any{
			&row.id,
			&row.userID,
			&row.status,
			&row.createdAt,
			&row.updatedAt,
			&row.version,
			&row.weekday,
			&row.canDrive,
			&row.canRide,
			&row.pickupTime,
			&row.dropoffTime,
			&row.notes,
		}

		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if _, exists := prefsMap[row.id]; !exists {
			prefsMap[row.id] = &domain.WeeklyPreference{
				ID:        row.id,
				UserID:    row.userID,
				GroupID:   groupID,
				WeekStart: weekStart,
				Status:    row.status,
				CreatedAt: row.createdAt,
				UpdatedAt: row.updatedAt,
				Version:   row.version,
				Days:      make(map[string]domain.DayPreference),
			}
			order = append(order, row.id)
		}

		if !row.weekday.Valid {
			// a submission without any day rows, kept for robustness
			continue
		}

		prefsMap[row.id].Days[row.weekday.String] = domain.DayPreference{
			CanDrive:             row.canDrive.Valid && row.canDrive.Bool,
			CanPassenger:         row.canRide.Valid && row.canRide.Bool,
			PreferredPickupTime:  row.pickupTime.String,
			PreferredDropoffTime: row.dropoffTime.String,
			Notes:                row.notes.String,
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	prefs := make([]*domain.WeeklyPreference, 0, len(order))
	for _, id := range order {
		prefs = append(prefs, prefsMap[id])
	}

	return prefs, nil
}

// UpdateWeeklyPreference rewrites the day map and status of an existing
// record. Unlike UpsertWeeklyPreference it fails with ErrNotFound when the
// record does not exist.
func (r *Repository) UpdateWeeklyPreference(pref *domain.WeeklyPreference) error {
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
		UPDATE weekly_preferences
		SET status = $1, updated_at = $2, version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`
	if err := tx.QueryRowContext(ctx, query, pref.Status, pref.UpdatedAt, pref.ID, pref.Version).Scan(&pref.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	query = `DELETE FROM weekly_preference_days WHERE weekly_preference_id = $1`
	if _, err := tx.ExecContext(ctx, query, pref.ID); err != nil {
		return err
	}

	query = `
		INSERT INTO weekly_preference_days (
			weekly_preference_id,
			weekday,
			can_drive,
			can_passenger,
			preferred_pickup_time,
			preferred_dropoff_time,
			notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, weekday := range domain.WeekdayNames {
		day, exists := pref.Days[weekday]
		if !exists {
			continue
		}
		args := []any{pref.ID, weekday, day.CanDrive, day.CanPassenger, day.PreferredPickupTime, day.PreferredDropoffTime, day.Notes}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
