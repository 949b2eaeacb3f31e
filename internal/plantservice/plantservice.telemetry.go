package plantservice

import (
	"context"
	"time"

	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/models"
)

// HistoryWindow is how far back DailyHistory reaches from the newest snapshot
const HistoryWindow = 30 * 24 * time.Hour

// DailyHistory returns the snapshots of the last 30 days before the newest
// one, oldest first. A plant without snapshots has an empty history.
func (s *PlantService) DailyHistory(ctx context.Context, userID, deviceID string) ([]models.DailySummary, error) {
	plantID, err := s.syncedPlant(ctx, s.reader(), userID, deviceID, false)
	if err != nil {
		return nil, err
	}

	latest, err := s.Snapshots.Latest(ctx, s.reader(), deviceID, plantID)
	if errors.IsNotFound(err) {
		return []models.DailySummary{}, nil
	}
	if err != nil {
		return nil, err
	}

	snaps, err := s.Snapshots.ListSince(ctx, s.reader(), deviceID, plantID, latest.RecordedAt.Add(-HistoryWindow))
	if err != nil {
		return nil, err
	}
	days := make([]models.DailySummary, 0, len(snaps))
	for _, snap := range snaps {
		days = append(days, models.SummarizeDay(snap))
	}
	return days, nil
}

// LatestHealth returns the mood of the newest snapshot with its flags
func (s *PlantService) LatestHealth(ctx context.Context, userID, deviceID string) (*models.HealthSummary, error) {
	plantID, err := s.syncedPlant(ctx, s.reader(), userID, deviceID, false)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshots.Latest(ctx, s.reader(), deviceID, plantID)
	if err != nil {
		return nil, noMoodEntry(err, "no health data available yet")
	}
	mood := snap.CurrentMood
	if mood == nil {
		mood = models.JSON{}
	}
	return &models.HealthSummary{
		CurrentMood:   mood,
		StatusChecked: snap.StatusChecked,
		StreakClaimed: snap.StreakClaimed,
	}, nil
}
