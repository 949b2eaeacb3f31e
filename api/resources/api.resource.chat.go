// FilePath: api/resources/api.resource.chat.go
package resources

import (
	"net/http"

	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/plantservice"
	nuts "github.com/vaudience/go-nuts"
)

// ChatHandlers let the caretaker talk to their plant
type ChatHandlers struct {
	svc *plantservice.PlantService
}

type chatRequest struct {
	DeviceID string `json:"device_id"`
	Text     string `json:"text"`
}

// @Summary Chat with the plant
// @Description Forwards the message to the brain and returns its reply. Not retried.
// @Tags chat
// @Accept json
// @Produce json
// @Param chat body chatRequest true "Message"
// @Success 200 {object} models.ChatReply
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Failure 502 {object} errors.APIError
// @Router /chat [post]
// @Security BearerAuth
func (h *ChatHandlers) Send(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, apiErr := userID(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	var req chatRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}
	if req.DeviceID == "" || req.Text == "" {
		respondWithError(w, requestID, errors.NewValidationError("missing params", nil))
		return
	}

	reply, err := h.svc.Chat(r.Context(), user, req.DeviceID, req.Text)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reply)
}

// @Summary Chat history
// @Description The last messages with the plant, newest first
// @Tags chat
// @Produce json
// @Param device_id query string true "Device ID"
// @Success 200 {array} models.ChatLine
// @Failure 404 {object} errors.APIError
// @Router /chat/history [get]
// @Security BearerAuth
func (h *ChatHandlers) History(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, deviceID, apiErr := userAndDeviceFromQuery(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	lines, err := h.svc.ChatHistory(r.Context(), user, deviceID)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lines)
}
