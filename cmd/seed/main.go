package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/maplewood-pta/carpool-manager/backend/internal/config"
	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository"
	"github.com/maplewood-pta/carpool-manager/backend/internal/scheduling"
	"github.com/maplewood-pta/carpool-manager/backend/internal/seed"
	"github.com/maplewood-pta/carpool-manager/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var groupID int64

	flag.IntVar(&op, "op", 0, "operation (1: insert random users, 2: seed demo group with preferences, 3: insert preferences for an existing group)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.Int64Var(&groupID, "group-id", 0, "group to insert preferences for (op 3)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open does not dial, ping to verify the DSN
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		slog.Error("no operation specified")
	case 1:
		if n <= 0 {
			slog.Error("number of users must be positive")
			return
		}
		cnt := n
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				slog.Error("failed to generate user", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(user); err != nil {
				slog.Error("failed to insert user", slog.String("error", err.Error()))
				continue
			}

			cnt--
		}
		slog.Info("users inserted", slog.Int("count", n-cnt))
	case 2:
		seed.SeedDemoGroup(repo, n, cfg.Seed.User.Password, cfg.Email.UserDomain)
	case 3:
		if groupID <= 0 {
			slog.Error("group ID must be positive")
			return
		}

		group, err := repo.GetGroupByID(groupID)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				slog.Error("group does not exist", slog.Int64("group_id", groupID))
			default:
				slog.Error("failed to load group", slog.String("error", err.Error()))
			}
			return
		}

		weekStart := scheduling.NormalizeWeekStart(time.Now())
		cnt := 0
		for _, memberID := range group.MemberIDs {
			now := time.Now()
			pref := &domain.WeeklyPreference{
				ID:        uuid.NewString(),
				UserID:    memberID,
				GroupID:   group.ID,
				WeekStart: weekStart,
				Days:      utils.GenerateRandomDayPreferences(),
				Status:    domain.PreferenceStatusSubmitted,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if _, err := repo.UpsertWeeklyPreference(pref); err != nil {
				slog.Error("failed to insert preference", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
		slog.Info("preferences inserted", slog.Int("count", cnt))
	default:
		slog.Error("invalid operation")
	}
}
