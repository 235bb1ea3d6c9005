// Package seed fills a development database with plausible carpool data.
package seed

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"github.com/maplewood-pta/carpool-manager/backend/internal/repository"
	"github.com/maplewood-pta/carpool-manager/backend/internal/scheduling"
	"github.com/maplewood-pta/carpool-manager/backend/internal/utils"
)

// SeedDemoGroup creates n parent accounts, a carpool group containing all of
// them, and a submitted weekly preference per member for the current week.
// The first created parent becomes the group admin.
func SeedDemoGroup(repo *repository.Repository, n int, password string, emailDomain string) {
	if n < 2 {
		slog.Error("a demo group needs at least two members")
		return
	}

	users := make([]*domain.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomUser(password, emailDomain)
		if err != nil {
			slog.Error("failed to generate user", slog.String("error", err.Error()))
			continue
		}
		if err := repo.CreateUser(user); err != nil {
			slog.Error("failed to insert user", slog.String("error", err.Error()))
			continue
		}
		users = append(users, user)
	}

	if len(users) < 2 {
		slog.Error("not enough users inserted for a demo group")
		return
	}

	memberIDs := make([]int64, 0, len(users))
	for _, user := range users {
		memberIDs = append(memberIDs, user.ID)
	}

	group := &domain.Group{
		Name:         "Morning Run " + uuid.NewString()[:8],
		Description:  "Seeded demo carpool group",
		GroupAdminID: users[0].ID,
		MemberIDs:    memberIDs,
		MaxMembers:   int32(len(users) + 2),
	}
	if err := repo.CreateGroup(group); err != nil {
		slog.Error("failed to insert group", slog.String("error", err.Error()))
		return
	}

	weekStart := scheduling.NormalizeWeekStart(time.Now())
	inserted := 0
	for _, user := range users {
		now := time.Now()
		pref := &domain.WeeklyPreference{
			ID:        uuid.NewString(),
			UserID:    user.ID,
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
		inserted++
	}

	slog.Info("demo group seeded",
		slog.Int64("groupID", group.ID),
		slog.Int("members", len(users)),
		slog.Int("preferences", inserted),
	)
}
