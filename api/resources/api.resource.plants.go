// FilePath: api/resources/api.resource.plants.go
package resources

import (
	"net/http"
	"strconv"

	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/plantservice"
	nuts "github.com/vaudience/go-nuts"
)

const multipartMemory = 4 << 20

// PlantHandlers encapsulates the plant catalog and photo handlers
type PlantHandlers struct {
	svc           *plantservice.PlantService
	maxUploadSize int64
}

type searchQuery struct {
	Q     string `schema:"q"`
	Limit int    `schema:"limit"`
}

// @Summary Upload plant photo
// @Description Attach a catalog plant and its photo to a claimed device
// @Tags plants
// @Accept multipart/form-data
// @Produce json
// @Param device_id formData string true "Device ID"
// @Param plant_id formData int true "Catalog plant ID"
// @Param avatar_name formData string false "Avatar name"
// @Param photo formData file true "Plant photo"
// @Success 201 {object} plantservice.PhotoResult
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /plants/photo [post]
// @Security BearerAuth
func (h *PlantHandlers) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, apiErr := userID(r)
	if apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	if h.maxUploadSize > 0 {
		// room for the other form fields
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondWithError(w, requestID, errors.NewValidationError("invalid multipart form", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	deviceID := r.FormValue("device_id")
	plantID, err := strconv.ParseInt(r.FormValue("plant_id"), 10, 64)
	if deviceID == "" || err != nil {
		respondWithError(w, requestID, errors.NewValidationError("missing params", err))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		respondWithError(w, requestID, errors.NewValidationError("missing photo", err))
		return
	}
	defer file.Close()

	result, err := h.svc.AttachPlantPhoto(r.Context(), plantservice.PhotoUpload{
		UserID:      user,
		DeviceID:    deviceID,
		PlantID:     plantID,
		AvatarName:  r.FormValue("avatar_name"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Photo:       file,
	})
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

// @Summary Search plant catalog
// @Description Case-insensitive search on scientific or common name
// @Tags plants
// @Produce json
// @Param q query string false "Search term"
// @Param limit query int false "Maximum results (default 20, max 50)"
// @Success 200 {array} models.Plant
// @Failure 400 {object} errors.APIError
// @Router /plants [get]
// @Security BearerAuth
func (h *PlantHandlers) Search(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q searchQuery
	if apiErr := decodeQuery(r, &q); apiErr != nil {
		respondWithError(w, requestID, apiErr)
		return
	}

	plants, err := h.svc.SearchPlants(r.Context(), q.Q, q.Limit)
	if err != nil {
		respondWithError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, plants)
}
