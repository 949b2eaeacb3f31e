package plantservice

import (
	"context"
	"time"

	"github.com/itsatony/talkingplants/internal/brain"
	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/models"
	"github.com/itsatony/talkingplants/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Lifecycle events raised after a successful commit. The single argument is a
// map[string]string of labels.
const (
	EventDeviceClaimed = "device.claimed"
	EventPlantAttached = "plant.attached"
	EventDeviceOnline  = "device.online"
	EventSnapshotSeed  = "snapshot.seeded"
	EventStreakClaimed = "streak.claimed"
)

// AllEvents lists every event the service emits
var AllEvents = []string{EventDeviceClaimed, EventPlantAttached, EventDeviceOnline, EventSnapshotSeed, EventStreakClaimed}

// Brain answers chat messages on behalf of a plant
type Brain interface {
	Ask(ctx context.Context, req brain.Request) (string, error)
}

// Repositories groups the storage the service works on
type Repositories struct {
	Devices    repository.DeviceRepository
	Caretakers repository.CaretakerRepository
	Plants     repository.PlantRepository
	Snapshots  repository.SnapshotRepository
	Streaks    repository.StreakRepository
	Messages   repository.MessageRepository
}

// PlantService contains all repositories and service-wide dependencies
type PlantService struct {
	db database.DB
	Repositories
	Photos  repository.PhotoStore
	Catalog repository.CatalogCache
	Brain   Brain

	events *nuts.EventEmitter
	now    func() time.Time
}

type Option func(*PlantService)

// WithClock replaces time.Now, used for calendar decisions
func WithClock(now func() time.Time) Option {
	return func(s *PlantService) { s.now = now }
}

// WithCatalogCache caches plant searches
func WithCatalogCache(c repository.CatalogCache) Option {
	return func(s *PlantService) { s.Catalog = c }
}

func WithEventEmitter(e *nuts.EventEmitter) Option {
	return func(s *PlantService) { s.events = e }
}

// New creates a new PlantService instance
func New(db database.DB, repos Repositories, photos repository.PhotoStore, b Brain, opts ...Option) *PlantService {
	svc := &PlantService{
		db:           db,
		Repositories: repos,
		Photos:       photos,
		Brain:        b,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.events == nil {
		svc.events = nuts.NewEventEmitter()
	}
	return svc
}

// Validate checks if all required dependencies are initialized
func (s *PlantService) Validate() error {
	switch {
	case s.db == nil:
		return ErrMissingRepository("db")
	case s.Devices == nil:
		return ErrMissingRepository("devices")
	case s.Caretakers == nil:
		return ErrMissingRepository("caretakers")
	case s.Plants == nil:
		return ErrMissingRepository("plants")
	case s.Snapshots == nil:
		return ErrMissingRepository("snapshots")
	case s.Streaks == nil:
		return ErrMissingRepository("streaks")
	case s.Messages == nil:
		return ErrMissingRepository("messages")
	case s.Photos == nil:
		return ErrMissingRepository("photos")
	case s.Brain == nil:
		return ErrMissingRepository("brain")
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}

// Events is the emitter lifecycle events are raised on
func (s *PlantService) Events() *nuts.EventEmitter {
	return s.events
}

// Ping checks the database
func (s *PlantService) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PlantService) reader() database.Querier {
	return s.db.GetDB()
}

func (s *PlantService) emit(event string, labels map[string]string) {
	if err := s.events.Emit(event, labels); err != nil {
		nuts.L.Warnf("[PlantService] Failed to emit %s: %v", event, err)
	}
}

// syncedPlant resolves the plant of a binding that has finished onboarding.
// Bindings that are missing or not yet synced are NotFound.
func (s *PlantService) syncedPlant(ctx context.Context, q database.Querier, userID, deviceID string, lock bool) (int64, error) {
	if deviceID == "" {
		return 0, errors.NewValidationError("device_id is required", nil)
	}

	var (
		ck  *models.Caretaker
		err error
	)
	if lock {
		ck, err = s.Caretakers.GetForUpdate(ctx, q, userID, deviceID)
	} else {
		ck, err = s.Caretakers.Get(ctx, q, userID, deviceID)
	}
	if err != nil {
		if errors.IsNotFound(err) {
			return 0, errors.NewNotFoundError("device not linked or no plant found", err)
		}
		return 0, err
	}

	synced, ok := ck.State().(models.Synced)
	if !ok {
		return 0, errors.NewNotFoundError("device not linked or no plant found", nil)
	}
	return synced.PlantID, nil
}
