// FilePath: api/resources/api.resource.health.go
package resources

import (
	"net/http"

	"github.com/itsatony/talkingplants/internal/models"
	"github.com/itsatony/talkingplants/internal/plantservice"
	nuts "github.com/vaudience/go-nuts"
)

// HealthHandlers serve plant health: telemetry history, mood and streaks
type HealthHandlers struct {
	svc *plantservice.PlantService
}

// @Summary Daily history
// @Description Snapshots of the 30 days up to the newest one, oldest first
// @Tags health
// @Produce json
// @Param device_id query string true "Device ID"
// @Success 200 {array} models.DailySummary
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /health/history [get]
// @Security BearerAuth
func (h *HealthHandlers) History(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, deviceID, apiErr := userAndDeviceFromQuery(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	days, err := h.svc.DailyHistory(r.Context(), user, deviceID)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, days)
}

// @Summary Latest health
// @Description Mood of the newest snapshot with its daily check flags
// @Tags health
// @Produce json
// @Param device_id query string true "Device ID"
// @Success 200 {object} models.HealthSummary
// @Failure 404 {object} errors.APIError
// @Router /health/latest [get]
// @Security BearerAuth
func (h *HealthHandlers) Latest(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, deviceID, apiErr := userAndDeviceFromQuery(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	health, err := h.svc.LatestHealth(r.Context(), user, deviceID)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, health)
}

// @Summary Mark checked
// @Description Flag the newest snapshot as looked at
// @Tags health
// @Accept json
// @Produce json
// @Param body body deviceBody true "Device ID"
// @Success 200 {object} successResponse
// @Failure 404 {object} errors.APIError
// @Router /health/mark-checked [post]
// @Security BearerAuth
func (h *HealthHandlers) MarkChecked(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, deviceID, apiErr := userAndDeviceFromBody(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	if err := h.svc.MarkChecked(r.Context(), user, deviceID); err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse{Success: true})
}

// @Summary Claim streak
// @Description Claim the day of the newest snapshot
// @Tags health
// @Accept json
// @Produce json
// @Param body body deviceBody true "Device ID"
// @Success 200 {object} models.StreakResult
// @Failure 404 {object} errors.APIError
// @Router /health/claim-streak [post]
// @Security BearerAuth
func (h *HealthHandlers) ClaimStreak(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, deviceID, apiErr := userAndDeviceFromBody(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	result, err := h.svc.ClaimStreak(r.Context(), user, deviceID)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Current streak
// @Description The streak as of today; lapsed streaks read as 0
// @Tags health
// @Produce json
// @Param device_id query string true "Device ID"
// @Success 200 {object} models.CurrentStreak
// @Failure 404 {object} errors.APIError
// @Router /health/current-streak [get]
// @Security BearerAuth
func (h *HealthHandlers) CurrentStreak(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, deviceID, apiErr := userAndDeviceFromQuery(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	n, err := h.svc.CurrentStreak(r.Context(), user, deviceID)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.CurrentStreak{CurrentStreak: n})
}
