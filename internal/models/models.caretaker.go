// FilePath: internal/models/models.caretaker.go
package models

import "time"

// Caretaker binds one user to one device and, after the photo step, one plant.
type Caretaker struct {
	ID                         string    `json:"id" db:"id"`
	UserID                     string    `json:"user_id" db:"user_id"`
	DeviceID                   string    `json:"device_id" db:"device_id"`
	PlantID                    *int64    `json:"plant_id,omitempty" db:"plant_id"`
	PlantType                  *string   `json:"plant_type,omitempty" db:"plant_type"`
	MoodReferenceValues        JSON      `json:"mood_reference_values,omitempty" db:"mood_reference_values"`
	PersonalityDefault         *string   `json:"personality_default,omitempty" db:"personality_default"`
	PhotoURL                   *string   `json:"photo_url,omitempty" db:"photo_url"`
	AvatarID                   *string   `json:"avatar_id,omitempty" db:"avatar_id"`
	AvatarName                 *string   `json:"avatar_name,omitempty" db:"avatar_name"`
	DeviceSynced               bool      `json:"device_synced" db:"device_synced"`
	TutorialOnboardingSeen     bool      `json:"tutorial_onboarding_seen" db:"tutorial_onboarding_seen"`
	TutorialOnboardingEligible bool      `json:"tutorial_onboarding_eligible" db:"tutorial_onboarding_eligible"`
	CreatedAt                  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                  time.Time `json:"updated_at" db:"updated_at"`
}

// PlantAssignment is what the photo step writes onto a binding
type PlantAssignment struct {
	PlantID             int64
	PlantType           string
	MoodReferenceValues JSON
	PersonalityDefault  string
	PhotoURL            string
	AvatarID            string
	AvatarName          string
}

// CaretakerState is the lifecycle position of a binding. Exactly one of
// Claimed, PlantAttached or Synced.
type CaretakerState interface {
	Step() OnboardingStep
	isCaretakerState()
}

// Claimed has no plant yet. DeviceSynced can already be set when the device
// came online before the photo step.
type Claimed struct {
	DeviceSynced bool
}

// PlantAttached has a plant but the device has not called in yet.
type PlantAttached struct {
	PlantID   int64
	PlantType string
}

// Synced has a plant and a device that has come online.
type Synced struct {
	PlantID   int64
	PlantType string
}

func (Claimed) Step() OnboardingStep       { return StepPhoto }
func (PlantAttached) Step() OnboardingStep { return StepWifi }
func (Synced) Step() OnboardingStep        { return StepDone }

func (Claimed) isCaretakerState()       {}
func (PlantAttached) isCaretakerState() {}
func (Synced) isCaretakerState()        {}

// State derives the lifecycle variant from the stored columns
func (c *Caretaker) State() CaretakerState {
	if c.PlantID == nil {
		return Claimed{DeviceSynced: c.DeviceSynced}
	}
	plantType := ""
	if c.PlantType != nil {
		plantType = *c.PlantType
	}
	if !c.DeviceSynced {
		return PlantAttached{PlantID: *c.PlantID, PlantType: plantType}
	}
	return Synced{PlantID: *c.PlantID, PlantType: plantType}
}

type OnboardingStep string

const (
	StepClaim OnboardingStep = "claim"
	StepPhoto OnboardingStep = "photo"
	StepWifi  OnboardingStep = "wifi"
	StepDone  OnboardingStep = "done"
)

// OnboardingStepOf projects a binding onto the app's onboarding screens; nil means unclaimed
func OnboardingStepOf(c *Caretaker) OnboardingStep {
	if c == nil {
		return StepClaim
	}
	return c.State().Step()
}

type TutorialFlags struct {
	TutorialOnboardingSeen     bool `json:"tutorial_onboarding_seen" db:"tutorial_onboarding_seen"`
	TutorialOnboardingEligible bool `json:"tutorial_onboarding_eligible" db:"tutorial_onboarding_eligible"`
}

// TutorialFlagsUpdate carries only the flags a client sent
type TutorialFlagsUpdate struct {
	TutorialOnboardingSeen     *bool `json:"tutorial_onboarding_seen,omitempty"`
	TutorialOnboardingEligible *bool `json:"tutorial_onboarding_eligible,omitempty"`
}

type UserStatus struct {
	Devices int `json:"devices"`
}

type OnboardingStatus struct {
	Step     OnboardingStep `json:"step"`
	DeviceID string         `json:"device_id,omitempty"`
}
