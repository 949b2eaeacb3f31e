// FilePath: internal/repository/sqlrepo/sqlrepo.snapshot.go
package sqlrepo

import (
	"context"
	"time"

	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const snapshotColumns = `id, device_id, plant_id, personality_description, plant_type,
	personality_params, current_mood, sensor_readings, status_checked, streak_claimed, recorded_at`

// flagColumns is all the daily check flows need, so they keep working when a
// row carries telemetry that cannot be read
const flagColumns = `id, device_id, plant_id, status_checked, streak_claimed, recorded_at`

type SnapshotRepo struct {
	baseRepo
}

func NewSnapshotRepository() *SnapshotRepo {
	return &SnapshotRepo{baseRepo: baseRepo{entity: "snapshot"}}
}

func (r *SnapshotRepo) Create(ctx context.Context, q database.Querier, s *models.Snapshot) error {
	s.RecordedAt = s.RecordedAt.UTC()
	query := `
		INSERT INTO personality_evolution (
			id, device_id, plant_id, personality_description, plant_type,
			personality_params, current_mood, sensor_readings,
			status_checked, streak_claimed, recorded_at
		) VALUES (
			:id, :device_id, :plant_id, :personality_description, :plant_type,
			:personality_params, :current_mood, :sensor_readings,
			:status_checked, :streak_claimed, :recorded_at
		)`
	return r.insert(ctx, q, query, s)
}

func (r *SnapshotRepo) Exists(ctx context.Context, q database.Querier, deviceID string, plantID int64) (bool, error) {
	return r.exists(ctx, q,
		`SELECT COUNT(*) FROM personality_evolution WHERE device_id = ? AND plant_id = ?`, deviceID, plantID)
}

func (r *SnapshotRepo) Latest(ctx context.Context, q database.Querier, deviceID string, plantID int64) (*models.Snapshot, error) {
	s, err := r.latest(ctx, q, snapshotColumns, deviceID, plantID, "")
	if err != nil {
		return nil, err
	}
	logRejected(s)
	return s, nil
}

// LatestForUpdate locks the newest row so flag updates land on the row that
// was read. Only the identity, timestamp and flags are loaded.
func (r *SnapshotRepo) LatestForUpdate(ctx context.Context, q database.Querier, deviceID string, plantID int64) (*models.Snapshot, error) {
	return r.latest(ctx, q, flagColumns, deviceID, plantID, database.ForUpdate(q))
}

func (r *SnapshotRepo) latest(ctx context.Context, q database.Querier, columns, deviceID string, plantID int64, lock string) (*models.Snapshot, error) {
	s := &models.Snapshot{}
	query := `
		SELECT ` + columns + `
		FROM personality_evolution
		WHERE device_id = ? AND plant_id = ?
		ORDER BY recorded_at DESC
		LIMIT 1` + lock
	if err := r.get(ctx, q, s, query, deviceID, plantID); err != nil {
		return nil, err
	}
	return s, nil
}

func logRejected(s *models.Snapshot) {
	if rejected := s.SensorReadings.Rejected(); len(rejected) > 0 {
		nuts.L.Warnf("[SnapshotRepo] Snapshot %s has unreadable sensor values %v, dropped", s.ID, rejected)
	}
}

// ListSince returns rows recorded at or after since, oldest first
func (r *SnapshotRepo) ListSince(ctx context.Context, q database.Querier, deviceID string, plantID int64, since time.Time) ([]models.Snapshot, error) {
	snapshots := []models.Snapshot{}
	query := `
		SELECT ` + snapshotColumns + `
		FROM personality_evolution
		WHERE device_id = ? AND plant_id = ? AND recorded_at >= ?
		ORDER BY recorded_at ASC`
	if err := r.selectAll(ctx, q, &snapshots, query, deviceID, plantID, since.UTC()); err != nil {
		return nil, err
	}
	for i := range snapshots {
		logRejected(&snapshots[i])
	}
	return snapshots, nil
}

func (r *SnapshotRepo) MarkChecked(ctx context.Context, q database.Querier, id string) error {
	return r.exec(ctx, q, "mark snapshot checked",
		`UPDATE personality_evolution SET status_checked = TRUE WHERE id = ?`, id)
}

func (r *SnapshotRepo) MarkStreakClaimed(ctx context.Context, q database.Querier, id string) error {
	return r.exec(ctx, q, "mark streak claimed",
		`UPDATE personality_evolution SET streak_claimed = TRUE WHERE id = ?`, id)
}
