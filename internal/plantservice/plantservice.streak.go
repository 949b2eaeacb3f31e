package plantservice

import (
	"context"
	"strconv"

	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/models"
	"github.com/itsatony/talkingplants/internal/streak"
	nuts "github.com/vaudience/go-nuts"
)

// MarkChecked flags the newest snapshot of the user's plant as looked at
func (s *PlantService) MarkChecked(ctx context.Context, userID, deviceID string) error {
	return database.WithTx(ctx, s.db, func(tx database.Querier) error {
		plantID, err := s.syncedPlant(ctx, tx, userID, deviceID, true)
		if err != nil {
			return err
		}
		snap, err := s.Snapshots.LatestForUpdate(ctx, tx, deviceID, plantID)
		if err != nil {
			return noMoodEntry(err, "no mood entry found to mark")
		}
		return s.Snapshots.MarkChecked(ctx, tx, snap.ID)
	})
}

// ClaimStreak claims the day of the newest snapshot. The calendar day comes
// from the snapshot, not the wall clock.
func (s *PlantService) ClaimStreak(ctx context.Context, userID, deviceID string) (*models.StreakResult, error) {
	var (
		result models.StreakResult
		gap    = streak.Broken
		first  bool
	)
	err := database.WithTx(ctx, s.db, func(tx database.Querier) error {
		plantID, err := s.syncedPlant(ctx, tx, userID, deviceID, true)
		if err != nil {
			return err
		}
		snap, err := s.Snapshots.LatestForUpdate(ctx, tx, deviceID, plantID)
		if err != nil {
			return noMoodEntry(err, "no mood entry found to claim streak")
		}
		if err := s.Snapshots.MarkStreakClaimed(ctx, tx, snap.ID); err != nil {
			return err
		}

		day := models.DateOf(snap.RecordedAt)
		now := s.now().UTC()

		record, err := s.Streaks.GetForUpdate(ctx, tx, deviceID, plantID, userID)
		if errors.IsNotFound(err) {
			first = true
			st := streak.Start(day)
			record = &models.Streak{
				ID:              nuts.NID("stk", 12),
				DeviceID:        deviceID,
				PlantID:         plantID,
				UserID:          userID,
				CurrentStreak:   st.Current,
				LongestStreak:   st.Longest,
				LastDate:        st.LastDate,
				StreakStartedAt: st.StartedAt,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			result = models.StreakResult{Success: true, CurrentStreak: st.Current, LongestStreak: st.Longest}
			return s.Streaks.Create(ctx, tx, record)
		}
		if err != nil {
			return err
		}

		var next streak.State
		next, gap = streak.Advance(streak.State{
			Current:   record.CurrentStreak,
			Longest:   record.LongestStreak,
			LastDate:  record.LastDate,
			StartedAt: record.StreakStartedAt,
		}, day)
		record.CurrentStreak = next.Current
		record.LongestStreak = next.Longest
		record.LastDate = next.LastDate
		record.StreakStartedAt = next.StartedAt
		record.UpdatedAt = now
		result = models.StreakResult{Success: true, CurrentStreak: next.Current, LongestStreak: next.Longest}
		return s.Streaks.Update(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}

	if first || gap != streak.SameDay {
		nuts.L.Infof("[PlantService] Streak for %s/%s now %d (longest %d)", userID, deviceID, result.CurrentStreak, result.LongestStreak)
		s.emit(EventStreakClaimed, map[string]string{
			"device_id": deviceID, "user_id": userID, "current_streak": strconv.Itoa(result.CurrentStreak),
		})
	}
	return &result, nil
}

// CurrentStreak reports the streak as of today. A lapsed streak reads as 0
// and is left as stored.
func (s *PlantService) CurrentStreak(ctx context.Context, userID, deviceID string) (int, error) {
	plantID, err := s.syncedPlant(ctx, s.reader(), userID, deviceID, false)
	if err != nil {
		return 0, err
	}
	record, err := s.Streaks.Get(ctx, s.reader(), deviceID, plantID, userID)
	if errors.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return streak.Effective(record.CurrentStreak, record.LastDate, models.DateOf(s.now())), nil
}

func noMoodEntry(err error, msg string) error {
	if errors.IsNotFound(err) {
		return errors.NewNotFoundError(msg, err)
	}
	return err
}
