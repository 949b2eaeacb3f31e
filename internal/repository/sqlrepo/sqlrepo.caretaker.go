// FilePath: internal/repository/sqlrepo/sqlrepo.caretaker.go
package sqlrepo

import (
	"context"
	"time"

	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/models"
)

const caretakerColumns = `id, user_id, device_id, plant_id, plant_type, mood_reference_values,
	personality_default, photo_url, avatar_id, avatar_name, device_synced,
	tutorial_onboarding_seen, tutorial_onboarding_eligible, created_at, updated_at`

type CaretakerRepo struct {
	baseRepo
}

func NewCaretakerRepository() *CaretakerRepo {
	return &CaretakerRepo{baseRepo: baseRepo{entity: "caretaker"}}
}

// Create inserts a fresh binding. A second binding for the same device is a Conflict.
func (r *CaretakerRepo) Create(ctx context.Context, q database.Querier, ck *models.Caretaker) error {
	query := `
		INSERT INTO caretaker (
			id, user_id, device_id, device_synced,
			tutorial_onboarding_seen, tutorial_onboarding_eligible,
			created_at, updated_at
		) VALUES (
			:id, :user_id, :device_id, :device_synced,
			:tutorial_onboarding_seen, :tutorial_onboarding_eligible,
			:created_at, :updated_at
		)`
	return r.insert(ctx, q, query, ck)
}

func (r *CaretakerRepo) Get(ctx context.Context, q database.Querier, userID, deviceID string) (*models.Caretaker, error) {
	ck := &models.Caretaker{}
	query := `SELECT ` + caretakerColumns + ` FROM caretaker WHERE user_id = ? AND device_id = ?`
	if err := r.get(ctx, q, ck, query, userID, deviceID); err != nil {
		return nil, err
	}
	return ck, nil
}

func (r *CaretakerRepo) GetForUpdate(ctx context.Context, q database.Querier, userID, deviceID string) (*models.Caretaker, error) {
	ck := &models.Caretaker{}
	query := `SELECT ` + caretakerColumns + ` FROM caretaker WHERE user_id = ? AND device_id = ?` + database.ForUpdate(q)
	if err := r.get(ctx, q, ck, query, userID, deviceID); err != nil {
		return nil, err
	}
	return ck, nil
}

func (r *CaretakerRepo) ExistsForDevice(ctx context.Context, q database.Querier, deviceID string) (bool, error) {
	return r.exists(ctx, q, `SELECT COUNT(*) FROM caretaker WHERE device_id = ?`, deviceID)
}

// AssignPlant overwrites every plant-derived column of the binding
func (r *CaretakerRepo) AssignPlant(ctx context.Context, q database.Querier, id string, a models.PlantAssignment, at time.Time) error {
	query := `
		UPDATE caretaker SET
			plant_id = ?,
			plant_type = ?,
			mood_reference_values = ?,
			personality_default = ?,
			photo_url = ?,
			avatar_id = ?,
			avatar_name = ?,
			updated_at = ?
		WHERE id = ?`
	return r.exec(ctx, q, "assign plant", query,
		a.PlantID, a.PlantType, a.MoodReferenceValues, a.PersonalityDefault,
		a.PhotoURL, a.AvatarID, a.AvatarName, at.UTC(), id)
}

// MarkDeviceSynced flags every binding of the device. Returns NotFound when
// the device has no binding.
func (r *CaretakerRepo) MarkDeviceSynced(ctx context.Context, q database.Querier, deviceID string, at time.Time) (int64, error) {
	return r.execCount(ctx, q, "mark device synced",
		`UPDATE caretaker SET device_synced = TRUE, updated_at = ? WHERE device_id = ?`, at.UTC(), deviceID)
}

// GetAttachedByDevice returns the device's binding if it has a plant
func (r *CaretakerRepo) GetAttachedByDevice(ctx context.Context, q database.Querier, deviceID string) (*models.Caretaker, error) {
	ck := &models.Caretaker{}
	query := `
		SELECT ` + caretakerColumns + `
		FROM caretaker
		WHERE device_id = ? AND plant_id IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1`
	if err := r.get(ctx, q, ck, query, deviceID); err != nil {
		return nil, err
	}
	return ck, nil
}

func (r *CaretakerRepo) ListSynced(ctx context.Context, q database.Querier, userID string) ([]models.DeviceSummary, error) {
	devices := []models.DeviceSummary{}
	query := `
		SELECT device_id, plant_id
		FROM caretaker
		WHERE user_id = ? AND device_synced = TRUE
		ORDER BY created_at ASC`
	if err := r.selectAll(ctx, q, &devices, query, userID); err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *CaretakerRepo) CountByUser(ctx context.Context, q database.Querier, userID string) (int, error) {
	var n int
	if err := r.get(ctx, q, &n, `SELECT COUNT(*) FROM caretaker WHERE user_id = ?`, userID); err != nil {
		return 0, err
	}
	return n, nil
}

// Latest returns the user's most recently created binding
func (r *CaretakerRepo) Latest(ctx context.Context, q database.Querier, userID string) (*models.Caretaker, error) {
	ck := &models.Caretaker{}
	query := `
		SELECT ` + caretakerColumns + `
		FROM caretaker
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	if err := r.get(ctx, q, ck, query, userID); err != nil {
		return nil, err
	}
	return ck, nil
}

// UpdateTutorialFlags writes only the flags present in u
func (r *CaretakerRepo) UpdateTutorialFlags(ctx context.Context, q database.Querier, userID, deviceID string, u models.TutorialFlagsUpdate, at time.Time) error {
	query := `
		UPDATE caretaker SET
			tutorial_onboarding_seen = COALESCE(?, tutorial_onboarding_seen),
			tutorial_onboarding_eligible = COALESCE(?, tutorial_onboarding_eligible),
			updated_at = ?
		WHERE user_id = ? AND device_id = ?`
	return r.exec(ctx, q, "update tutorial flags", query,
		u.TutorialOnboardingSeen, u.TutorialOnboardingEligible, at.UTC(), userID, deviceID)
}

// PhotoURLs lists every photo a binding still points at
func (r *CaretakerRepo) PhotoURLs(ctx context.Context, q database.Querier) ([]string, error) {
	urls := []string{}
	if err := r.selectAll(ctx, q, &urls, `SELECT photo_url FROM caretaker WHERE photo_url IS NOT NULL`); err != nil {
		return nil, err
	}
	return urls, nil
}
