// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/itsatony/talkingplants/api/middleware"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/plantservice"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Devices     *DeviceHandlers
	Plants      *PlantHandlers
	Health      *HealthHandlers
	Chat        *ChatHandlers
	User        *UserHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance. maxUploadSize bounds the
// multipart body of photo uploads.
func NewResources(svc *plantservice.PlantService, maxUploadSize int64) *Resources {
	return &Resources{
		Devices: &DeviceHandlers{svc: svc},
		Plants:  &PlantHandlers{svc: svc, maxUploadSize: maxUploadSize},
		Health:  &HealthHandlers{svc: svc},
		Chat:    &ChatHandlers{svc: svc},
		User:    &UserHandlers{svc: svc},
	}
}

// SetHealthCheck sets the liveness handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

type deviceQuery struct {
	DeviceID string `schema:"device_id"`
}

type deviceBody struct {
	DeviceID string `json:"device_id"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func decodeQuery(r *http.Request, dst interface{}) *errors.APIError {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return errors.NewValidationError("invalid query parameters", err)
	}
	return nil
}

func decodeBody(r *http.Request, dst interface{}) *errors.APIError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewValidationError("invalid request body", err)
	}
	return nil
}

// deviceFromQuery reads the required device_id query parameter
func deviceFromQuery(r *http.Request) (string, *errors.APIError) {
	var q deviceQuery
	if err := decodeQuery(r, &q); err != nil {
		return "", err
	}
	if q.DeviceID == "" {
		return "", errors.NewValidationError("missing device_id", nil)
	}
	return q.DeviceID, nil
}

// deviceFromBody reads the required device_id JSON field
func deviceFromBody(r *http.Request) (string, *errors.APIError) {
	var b deviceBody
	if err := decodeBody(r, &b); err != nil {
		return "", err
	}
	if b.DeviceID == "" {
		return "", errors.NewValidationError("missing device_id", nil)
	}
	return b.DeviceID, nil
}

// userID returns the authenticated caller. Routes behind the auth middleware always have one.
func userID(r *http.Request) (string, *errors.APIError) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return "", errors.NewAuthError("no user context found", nil)
	}
	return user.ID, nil
}

func userAndDeviceFromQuery(r *http.Request) (string, string, *errors.APIError) {
	user, apiErr := userID(r)
	if apiErr != nil {
		return "", "", apiErr
	}
	deviceID, apiErr := deviceFromQuery(r)
	return user, deviceID, apiErr
}

func userAndDeviceFromBody(r *http.Request) (string, string, *errors.APIError) {
	user, apiErr := userID(r)
	if apiErr != nil {
		return "", "", apiErr
	}
	deviceID, apiErr := deviceFromBody(r)
	return user, deviceID, apiErr
}

func respondWithError(w http.ResponseWriter, requestID string, err error) {
	apiErr, ok := errors.AsAPIError(err)
	if !ok {
		apiErr = errors.NewInternalError("internal server error", err)
	}
	apiErr.WithRequestID(requestID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	_ = json.NewEncoder(w).Encode(apiErr)
	if apiErr.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", apiErr.Error())
	} else {
		nuts.L.Debugf("[API] %s", apiErr.Error())
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
