// FilePath: api/resources/api.resource.devices.go
package resources

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/plantservice"
	nuts "github.com/vaudience/go-nuts"
)

// DeviceHandlers encapsulates the device-related HTTP handlers
type DeviceHandlers struct {
	svc *plantservice.PlantService
}

type claimRequest struct {
	DeviceID string `json:"device_id"`
	Token    string `json:"token"`
}

type claimResponse struct {
	DeviceID    string `json:"device_id"`
	CaretakerID string `json:"caretaker_id"`
}

type onlineRequest struct {
	DeviceID   string `json:"device_id"`
	ClaimToken string `json:"claim_token"`
}

type onlineResponse struct {
	OK bool `json:"ok"`
}

// @Summary Claim a device
// @Description Bind an unclaimed device to the caller using the token printed on it
// @Tags devices
// @Accept json
// @Produce json
// @Param claim body claimRequest true "Device id and claim token"
// @Success 201 {object} claimResponse
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /devices/claim [post]
// @Security BearerAuth
func (h *DeviceHandlers) Claim(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, apiErr := userID(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	var req claimRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}
	if req.DeviceID == "" || req.Token == "" {
		respondWithError(w, requestID, errors.NewValidationError("missing params", nil))
		return
	}

	ck, err := h.svc.Claim(r.Context(), user, req.DeviceID, req.Token)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, claimResponse{DeviceID: ck.DeviceID, CaretakerID: ck.ID})
}

// @Summary List devices
// @Description Devices of the caller that have finished onboarding
// @Tags devices
// @Produce json
// @Success 200 {array} models.DeviceSummary
// @Router /devices [get]
// @Security BearerAuth
func (h *DeviceHandlers) List(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, apiErr := userID(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	devices, err := h.svc.ListDevices(r.Context(), user)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, devices)
}

// @Summary Device status
// @Description Polled by the app while waiting for the device to come online
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} models.DeviceStatus
// @Router /devices/{id}/status [get]
// @Security BearerAuth
func (h *DeviceHandlers) Status(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	status, err := h.svc.DeviceStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// @Summary Device online callback
// @Description Called by the device itself once it has network
// @Tags devices
// @Accept json
// @Produce json
// @Param online body onlineRequest true "Device id and claim token"
// @Success 200 {object} onlineResponse
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /device/online [post]
func (h *DeviceHandlers) Online(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req onlineRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}
	if req.DeviceID == "" || req.ClaimToken == "" {
		respondWithError(w, requestID, errors.NewValidationError("missing params", nil))
		return
	}

	if err := h.svc.DeviceOnline(r.Context(), req.DeviceID, req.ClaimToken); err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, onlineResponse{OK: true})
}
