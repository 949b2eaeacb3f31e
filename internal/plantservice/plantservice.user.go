package plantservice

import (
	"context"

	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/models"
)

// ListDevices returns the user's devices that have come online
func (s *PlantService) ListDevices(ctx context.Context, userID string) ([]models.DeviceSummary, error) {
	return s.Caretakers.ListSynced(ctx, s.reader(), userID)
}

// DeviceStatus is polled by the app while waiting for the device. Unknown
// devices read as offline.
func (s *PlantService) DeviceStatus(ctx context.Context, deviceID string) (*models.DeviceStatus, error) {
	device, err := s.Devices.Get(ctx, s.reader(), deviceID)
	if errors.IsNotFound(err) {
		return &models.DeviceStatus{Online: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.DeviceStatus{Online: device.Online}, nil
}

func (s *PlantService) UserStatus(ctx context.Context, userID string) (*models.UserStatus, error) {
	n, err := s.Caretakers.CountByUser(ctx, s.reader(), userID)
	if err != nil {
		return nil, err
	}
	return &models.UserStatus{Devices: n}, nil
}

// OnboardingStep projects the user's newest binding onto the onboarding screens
func (s *PlantService) OnboardingStep(ctx context.Context, userID string) (*models.OnboardingStatus, error) {
	ck, err := s.Caretakers.Latest(ctx, s.reader(), userID)
	if errors.IsNotFound(err) {
		return &models.OnboardingStatus{Step: models.StepClaim}, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.OnboardingStatus{Step: models.OnboardingStepOf(ck), DeviceID: ck.DeviceID}, nil
}

// TutorialFlags defaults both flags to true when the user has no binding for the device
func (s *PlantService) TutorialFlags(ctx context.Context, userID, deviceID string) (*models.TutorialFlags, error) {
	if deviceID == "" {
		return nil, errors.NewValidationError("device_id is required", nil)
	}
	ck, err := s.Caretakers.Get(ctx, s.reader(), userID, deviceID)
	if errors.IsNotFound(err) {
		return &models.TutorialFlags{TutorialOnboardingSeen: true, TutorialOnboardingEligible: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.TutorialFlags{
		TutorialOnboardingSeen:     ck.TutorialOnboardingSeen,
		TutorialOnboardingEligible: ck.TutorialOnboardingEligible,
	}, nil
}

// SetTutorialFlags writes the flags present in u and leaves the others alone
func (s *PlantService) SetTutorialFlags(ctx context.Context, userID, deviceID string, u models.TutorialFlagsUpdate) error {
	if deviceID == "" {
		return errors.NewValidationError("device_id is required", nil)
	}
	return s.Caretakers.UpdateTutorialFlags(ctx, s.reader(), userID, deviceID, u, s.now())
}
