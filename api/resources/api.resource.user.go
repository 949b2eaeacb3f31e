// FilePath: api/resources/api.resource.user.go
package resources

import (
	"net/http"

	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/models"
	"github.com/itsatony/talkingplants/internal/plantservice"
	nuts "github.com/vaudience/go-nuts"
)

// UserHandlers serve per-user state: onboarding progress and tutorial flags
type UserHandlers struct {
	svc *plantservice.PlantService
}

type tutorialFlagsRequest struct {
	DeviceID string `json:"device_id"`
	models.TutorialFlagsUpdate
}

// @Summary User status
// @Tags user
// @Produce json
// @Success 200 {object} models.UserStatus
// @Router /user/status [get]
// @Security BearerAuth
func (h *UserHandlers) Status(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, apiErr := userID(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	status, err := h.svc.UserStatus(r.Context(), user)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// @Summary Onboarding step
// @Description Which onboarding screen the app should show for the newest device
// @Tags user
// @Produce json
// @Success 200 {object} models.OnboardingStatus
// @Router /user/onboarding [get]
// @Security BearerAuth
func (h *UserHandlers) Onboarding(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, apiErr := userID(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	status, err := h.svc.OnboardingStep(r.Context(), user)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// @Summary Get tutorial flags
// @Tags user
// @Produce json
// @Param device_id query string true "Device ID"
// @Success 200 {object} models.TutorialFlags
// @Router /tutorial-flags [get]
// @Security BearerAuth
func (h *UserHandlers) GetTutorialFlags(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, deviceID, apiErr := userAndDeviceFromQuery(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	flags, err := h.svc.TutorialFlags(r.Context(), user, deviceID)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, flags)
}

// @Summary Set tutorial flags
// @Description Writes the flags present in the body and leaves the others alone
// @Tags user
// @Accept json
// @Produce json
// @Param flags body tutorialFlagsRequest true "Flags"
// @Success 200 {object} successResponse
// @Failure 404 {object} errors.APIError
// @Router /tutorial-flags [post]
// @Security BearerAuth
func (h *UserHandlers) SetTutorialFlags(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, apiErr := userID(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	var req tutorialFlagsRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}
	if req.DeviceID == "" {
		respondWithError(w, requestID, errors.NewValidationError("missing device_id", nil))
		return
	}

	if err := h.svc.SetTutorialFlags(r.Context(), user, req.DeviceID, req.TutorialFlagsUpdate); err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}
