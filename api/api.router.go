// FilePath: api/api.router.go
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/itsatony/talkingplants/api/middleware"
	"github.com/itsatony/talkingplants/api/resources"
	"github.com/swaggo/swag"
	nuts "github.com/vaudience/go-nuts"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.AuthMiddleware
	resources *resources.Resources
}

func NewRouter(res *resources.Resources, auth *middleware.AuthMiddleware) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      auth,
		resources: res,
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.router.HandleFunc("/swagger/doc.json", serveSwaggerDoc).Methods(http.MethodGet)

	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	if r.resources.HealthCheck != nil {
		api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	}
	api.HandleFunc("/device/online", r.resources.Devices.Online).Methods(http.MethodPost)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	// Devices
	devices := protected.PathPrefix("/devices").Subrouter()
	devices.HandleFunc("", r.resources.Devices.List).Methods(http.MethodGet)
	devices.HandleFunc("/claim", r.resources.Devices.Claim).Methods(http.MethodPost)
	devices.HandleFunc("/{id}/status", r.resources.Devices.Status).Methods(http.MethodGet)

	// Plants
	plants := protected.PathPrefix("/plants").Subrouter()
	plants.HandleFunc("", r.resources.Plants.Search).Methods(http.MethodGet)
	plants.HandleFunc("/photo", r.resources.Plants.UploadPhoto).Methods(http.MethodPost)

	// Plant health
	health := protected.PathPrefix("/health").Subrouter()
	health.HandleFunc("/history", r.resources.Health.History).Methods(http.MethodGet)
	health.HandleFunc("/latest", r.resources.Health.Latest).Methods(http.MethodGet)
	health.HandleFunc("/mark-checked", r.resources.Health.MarkChecked).Methods(http.MethodPost)
	health.HandleFunc("/claim-streak", r.resources.Health.ClaimStreak).Methods(http.MethodPost)
	health.HandleFunc("/current-streak", r.resources.Health.CurrentStreak).Methods(http.MethodGet)

	// Chat
	protected.HandleFunc("/chat", r.resources.Chat.Send).Methods(http.MethodPost)
	protected.HandleFunc("/chat/history", r.resources.Chat.History).Methods(http.MethodGet)

	// User
	protected.HandleFunc("/user/status", r.resources.User.Status).Methods(http.MethodGet)
	protected.HandleFunc("/user/onboarding", r.resources.User.Onboarding).Methods(http.MethodGet)
	protected.HandleFunc("/tutorial-flags", r.resources.User.GetTutorialFlags).Methods(http.MethodGet)
	protected.HandleFunc("/tutorial-flags", r.resources.User.SetTutorialFlags).Methods(http.MethodPost)
}

// MountStatic serves dir under prefix without authentication
func (r *Router) MountStatic(prefix, dir string) {
	prefix = "/" + strings.Trim(prefix, "/") + "/"
	r.router.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

func serveSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		nuts.L.Errorf("[API] Failed to read swagger doc: %v", err)
		http.Error(w, "swagger doc not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}
