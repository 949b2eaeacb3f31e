// FilePath: internal/repository/sqlrepo/sqlrepo.streak.go
package sqlrepo

import (
	"context"

	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/models"
)

const streakColumns = `id, device_id, plant_id, user_id, current_streak, longest_streak,
	last_date, streak_started_at, created_at, updated_at`

type StreakRepo struct {
	baseRepo
}

func NewStreakRepository() *StreakRepo {
	return &StreakRepo{baseRepo: baseRepo{entity: "streak"}}
}

func (r *StreakRepo) Get(ctx context.Context, q database.Querier, deviceID string, plantID int64, userID string) (*models.Streak, error) {
	return r.find(ctx, q, deviceID, plantID, userID, "")
}

func (r *StreakRepo) GetForUpdate(ctx context.Context, q database.Querier, deviceID string, plantID int64, userID string) (*models.Streak, error) {
	return r.find(ctx, q, deviceID, plantID, userID, database.ForUpdate(q))
}

func (r *StreakRepo) find(ctx context.Context, q database.Querier, deviceID string, plantID int64, userID, lock string) (*models.Streak, error) {
	s := &models.Streak{}
	query := `
		SELECT ` + streakColumns + `
		FROM streak
		WHERE device_id = ? AND plant_id = ? AND user_id = ?` + lock
	if err := r.get(ctx, q, s, query, deviceID, plantID, userID); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *StreakRepo) Create(ctx context.Context, q database.Querier, s *models.Streak) error {
	query := `
		INSERT INTO streak (
			id, device_id, plant_id, user_id, current_streak, longest_streak,
			last_date, streak_started_at, created_at, updated_at
		) VALUES (
			:id, :device_id, :plant_id, :user_id, :current_streak, :longest_streak,
			:last_date, :streak_started_at, :created_at, :updated_at
		)`
	return r.insert(ctx, q, query, s)
}

func (r *StreakRepo) Update(ctx context.Context, q database.Querier, s *models.Streak) error {
	query := `
		UPDATE streak SET
			current_streak = ?,
			longest_streak = ?,
			last_date = ?,
			streak_started_at = ?,
			updated_at = ?
		WHERE id = ?`
	return r.exec(ctx, q, "update streak", query,
		s.CurrentStreak, s.LongestStreak, s.LastDate, s.StreakStartedAt, s.UpdatedAt.UTC(), s.ID)
}
