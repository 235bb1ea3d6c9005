package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
)

func (r *Repository) CreateGroup(group *domain.Group) error {
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
		INSERT INTO groups (name, description, group_admin_id, max_members)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	args := []any{group.Name, group.Description, group.GroupAdminID, group.MaxMembers}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&group.ID, &group.CreatedAt, &group.Version); err != nil {
		return err
	}

	// the owning admin is always a member
	query = `
		INSERT INTO group_members (group_id, user_id, is_co_admin)
		VALUES ($1, $2, false)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, group.ID, group.GroupAdminID); err != nil {
		return err
	}

	for _, memberID := range group.MemberIDs {
		if memberID == group.GroupAdminID {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, group.ID, memberID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetGroupByID(id int64) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT name, description, group_admin_id, max_members, created_at, version
		FROM groups WHERE id = $1
	`

	group := &domain.Group{
		ID: id,
	}

	dst := []any{&group.Name, &group.Description, &group.GroupAdminID, &group.MaxMembers, &group.CreatedAt, &group.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	query = `
		SELECT user_id, is_co_admin FROM group_members WHERE group_id = $1 ORDER BY user_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	group.MemberIDs = make([]int64, 0)
	group.CoAdminIDs = make([]int64, 0)
	for rows.Next() {
		var userID int64
		var isCoAdmin bool
		if err := rows.Scan(&userID, &isCoAdmin); err != nil {
			return nil, err
		}
		group.MemberIDs = append(group.MemberIDs, userID)
		if isCoAdmin {
			group.CoAdminIDs = append(group.CoAdminIDs, userID)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return group, nil
}

func (r *Repository) GetAllGroups() ([]*domain.Group, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			g.id,
			g.name,
			g.description,
			g.group_admin_id,
			g.max_members,
			g.created_at,
			g.version,
			gm.user_id,
			gm.is_co_admin
		FROM groups g
		LEFT JOIN group_members gm ON g.id = gm.group_id
		ORDER BY g.id, gm.user_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groupsMap := make(map[int64]*domain.Group)
	order := make([]int64, 0)

	for rows.Next() {
		var row struct {
			id           int64
			name         string
			description  string
			groupAdminID int64
			maxMembers   int32
			createdAt    time.Time
			version      int32
			userID       sql.NullInt64
			isCoAdmin    sql.NullBool
		}

		dst := []any{
			&row.id,
			&row.name,
			&row.description,
			&row.groupAdminID,
			&row.maxMembers,
			&row.createdAt,
			&row.version,
			&row.userID,
			&row.isCoAdmin,
		}

		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if _, exists := groupsMap[row.id]; !exists {
			groupsMap[row.id] = &domain.Group{
				ID:           row.id,
				Name:         row.name,
				Description:  row.description,
				GroupAdminID: row.groupAdminID,
				MaxMembers:   row.maxMembers,
				CreatedAt:    row.createdAt,
				Version:      row.version,
				MemberIDs:    make([]int64, 0),
				CoAdminIDs:   make([]int64, 0),
			}
			order = append(order, row.id)
		}

		if !row.userID.Valid {
			// a group with no members yet
			continue
		}

		group := groupsMap[row.id]
		group.MemberIDs = append(group.MemberIDs, row.userID.Int64)
		if row.isCoAdmin.Valid && row.isCoAdmin.Bool {
			group.CoAdminIDs = append(group.CoAdminIDs, row.userID.Int64)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	groups := make([]*domain.Group, 0, len(order))
	for _, id := range order {
		groups = append(groups, groupsMap[id])
	}

	return groups, nil
}

func (r *Repository) UpdateGroup(group *domain.Group) error {
	query := `
		UPDATE groups
		SET
			name = $1,
			description = $2,
			group_admin_id = $3,
			max_members = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{group.Name, group.Description, group.GroupAdminID, group.MaxMembers, group.ID, group.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&group.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

func (r *Repository) DeleteGroup(id int64) error {
	query := `
		DELETE FROM groups WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

func (r *Repository) AddGroupMember(groupID int64, userID int64, isCoAdmin bool) error {
	query := `
		INSERT INTO group_members (group_id, user_id, is_co_admin)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id) DO UPDATE SET is_co_admin = EXCLUDED.is_co_admin
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, groupID, userID, isCoAdmin); err != nil {
		return err
	}

	return nil
}

func (r *Repository) RemoveGroupMember(groupID int64, userID int64) error {
	query := `
		DELETE FROM group_members WHERE group_id = $1 AND user_id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, groupID, userID); err != nil {
		return err
	}

	return nil
}
