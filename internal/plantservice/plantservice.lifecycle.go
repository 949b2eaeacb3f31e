package plantservice

import (
	"context"
	"crypto/subtle"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// PhotoUpload is the photo step of onboarding
type PhotoUpload struct {
	UserID      string
	DeviceID    string
	PlantID     int64
	AvatarName  string
	Filename    string
	ContentType string
	Size        int64
	Photo       io.Reader
}

type PhotoResult struct {
	CaretakerID string `json:"caretaker_id"`
	PlantID     int64  `json:"plant_id"`
	PhotoURL    string `json:"photo_url"`
	AvatarID    string `json:"avatar_id"`
	AvatarName  string `json:"avatar_name"`
}

func tokenMatches(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// Claim binds an unclaimed device to the user. The device itself stays
// unclaimed until it calls in through DeviceOnline.
func (s *PlantService) Claim(ctx context.Context, userID, deviceID, token string) (*models.Caretaker, error) {
	if deviceID == "" || token == "" {
		return nil, errors.NewValidationError("device_id and token are required", nil)
	}

	var ck *models.Caretaker
	err := database.WithTx(ctx, s.db, func(tx database.Querier) error {
		device, err := s.Devices.GetForUpdate(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		if device.Claimed {
			return errors.NewConflictError("device already claimed", nil)
		}
		bound, err := s.Caretakers.ExistsForDevice(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		if bound {
			return errors.NewConflictError("device already claimed", nil)
		}
		if !tokenMatches(device.ClaimToken, token) {
			return errors.NewAuthError("bad claim token", nil)
		}

		now := s.now().UTC()
		ck = &models.Caretaker{
			ID:                         nuts.NID("ck", 12),
			UserID:                     userID,
			DeviceID:                   deviceID,
			TutorialOnboardingEligible: true,
			CreatedAt:                  now,
			UpdatedAt:                  now,
		}
		return s.Caretakers.Create(ctx, tx, ck)
	})
	if err != nil {
		return nil, err
	}

	nuts.L.Infof("[PlantService] Device %s claimed by %s (%s)", deviceID, userID, ck.ID)
	s.emit(EventDeviceClaimed, map[string]string{"device_id": deviceID, "user_id": userID, "caretaker_id": ck.ID})
	return ck, nil
}

// AttachPlantPhoto stores the photo and points the user's binding at the
// plant. Calling it again replaces the previous plant and photo.
func (s *PlantService) AttachPlantPhoto(ctx context.Context, in PhotoUpload) (*PhotoResult, error) {
	if in.DeviceID == "" || in.PlantID <= 0 || in.Photo == nil {
		return nil, errors.NewValidationError("device_id, plant_id and photo are required", nil)
	}

	// Cheap checks before the blob store is touched. They are repeated under lock below.
	if _, err := s.Caretakers.Get(ctx, s.reader(), in.UserID, in.DeviceID); err != nil {
		return nil, forbiddenIfMissing(err)
	}
	if _, err := s.Plants.Get(ctx, s.reader(), in.PlantID); err != nil {
		return nil, err
	}

	photoURL, err := s.Photos.Store(ctx, in.Filename, in.ContentType, in.Size, in.Photo)
	if err != nil {
		return nil, err
	}

	var (
		result      *PhotoResult
		previousURL string
	)
	err = database.WithTx(ctx, s.db, func(tx database.Querier) error {
		ck, err := s.Caretakers.GetForUpdate(ctx, tx, in.UserID, in.DeviceID)
		if err != nil {
			return forbiddenIfMissing(err)
		}
		plant, err := s.Plants.Get(ctx, tx, in.PlantID)
		if err != nil {
			return err
		}
		if ck.PhotoURL != nil {
			previousURL = *ck.PhotoURL
		}

		avatarName := in.AvatarName
		if avatarName == "" {
			avatarName = plant.CommonNameEn
		}
		assignment := models.PlantAssignment{
			PlantID:             plant.ID,
			PlantType:           plant.CommonNameEn,
			MoodReferenceValues: plant.MoodReference,
			PersonalityDefault:  plant.PersonalityDefault,
			PhotoURL:            photoURL,
			AvatarID:            uuid.NewString(),
			AvatarName:          avatarName,
		}
		if err := s.Caretakers.AssignPlant(ctx, tx, ck.ID, assignment, s.now()); err != nil {
			return err
		}
		result = &PhotoResult{
			CaretakerID: ck.ID,
			PlantID:     plant.ID,
			PhotoURL:    photoURL,
			AvatarID:    assignment.AvatarID,
			AvatarName:  avatarName,
		}
		return nil
	})
	if err != nil {
		s.discardPhoto(photoURL)
		return nil, err
	}
	if previousURL != "" && previousURL != photoURL {
		s.discardPhoto(previousURL)
	}

	nuts.L.Infof("[PlantService] Plant %d attached to device %s", in.PlantID, in.DeviceID)
	s.emit(EventPlantAttached, map[string]string{
		"device_id": in.DeviceID, "user_id": in.UserID, "plant_id": strconv.FormatInt(in.PlantID, 10),
	})
	return result, nil
}

func (s *PlantService) discardPhoto(url string) {
	// detached from the request: the caller may already be gone
	if err := s.Photos.Delete(context.Background(), url); err != nil {
		nuts.L.Warnf("[PlantService] Failed to remove photo %s: %v", url, err)
	}
}

func forbiddenIfMissing(err error) error {
	if errors.IsNotFound(err) {
		return errors.NewAuthorizationError("device is not claimed by this user", err)
	}
	return err
}

// DeviceOnline is the device's own callback once it has network. It activates
// the device, marks its binding synced and seeds the first snapshot when a
// plant is attached and none exists yet.
func (s *PlantService) DeviceOnline(ctx context.Context, deviceID, claimToken string) error {
	if deviceID == "" || claimToken == "" {
		return errors.NewValidationError("device_id and claim_token are required", nil)
	}

	var seeded *models.Snapshot
	err := database.WithTx(ctx, s.db, func(tx database.Querier) error {
		device, err := s.Devices.GetForUpdate(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		if !tokenMatches(device.ClaimToken, claimToken) {
			return errors.NewAuthError("bad claim token", nil)
		}

		if err := s.Devices.MarkOnline(ctx, tx, deviceID); err != nil {
			return err
		}
		now := s.now().UTC()
		if _, err := s.Caretakers.MarkDeviceSynced(ctx, tx, deviceID, now); err != nil && !errors.IsNotFound(err) {
			return err
		}

		ck, err := s.Caretakers.GetAttachedByDevice(ctx, tx, deviceID)
		if errors.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}

		plantID := *ck.PlantID
		exists, err := s.Snapshots.Exists(ctx, tx, deviceID, plantID)
		if err != nil || exists {
			return err
		}

		seeded = &models.Snapshot{
			ID:                     nuts.NID("pe", 12),
			DeviceID:               deviceID,
			PlantID:                plantID,
			PersonalityDescription: derefString(ck.PersonalityDefault),
			PlantType:              derefString(ck.PlantType),
			PersonalityParams:      models.JSON{},
			CurrentMood:            models.JSON{},
			RecordedAt:             now,
		}
		return s.Snapshots.Create(ctx, tx, seeded)
	})
	if err != nil {
		return err
	}

	nuts.L.Infof("[PlantService] Device %s online", deviceID)
	s.emit(EventDeviceOnline, map[string]string{"device_id": deviceID})
	if seeded != nil {
		s.emit(EventSnapshotSeed, map[string]string{
			"device_id": deviceID, "plant_id": strconv.FormatInt(seeded.PlantID, 10), "snapshot_id": seeded.ID,
		})
	}
	return nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
