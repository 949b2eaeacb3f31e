// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"io"
	"time"

	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/models"
)

// Every method takes the Querier it runs on, so the caller decides whether it
// is part of a transaction. Lookups of a single row return a NotFound APIError
// when nothing matches.

// DeviceRepository defines the interface for provisioned devices
type DeviceRepository interface {
	Get(ctx context.Context, q database.Querier, id string) (*models.Device, error)
	GetForUpdate(ctx context.Context, q database.Querier, id string) (*models.Device, error)
	MarkOnline(ctx context.Context, q database.Querier, id string) error
}

// CaretakerRepository defines the interface for user/device/plant bindings
type CaretakerRepository interface {
	Create(ctx context.Context, q database.Querier, ck *models.Caretaker) error
	Get(ctx context.Context, q database.Querier, userID, deviceID string) (*models.Caretaker, error)
	GetForUpdate(ctx context.Context, q database.Querier, userID, deviceID string) (*models.Caretaker, error)
	ExistsForDevice(ctx context.Context, q database.Querier, deviceID string) (bool, error)
	AssignPlant(ctx context.Context, q database.Querier, id string, a models.PlantAssignment, at time.Time) error
	MarkDeviceSynced(ctx context.Context, q database.Querier, deviceID string, at time.Time) (int64, error)
	GetAttachedByDevice(ctx context.Context, q database.Querier, deviceID string) (*models.Caretaker, error)
	ListSynced(ctx context.Context, q database.Querier, userID string) ([]models.DeviceSummary, error)
	CountByUser(ctx context.Context, q database.Querier, userID string) (int, error)
	Latest(ctx context.Context, q database.Querier, userID string) (*models.Caretaker, error)
	UpdateTutorialFlags(ctx context.Context, q database.Querier, userID, deviceID string, u models.TutorialFlagsUpdate, at time.Time) error
	PhotoURLs(ctx context.Context, q database.Querier) ([]string, error)
}

// PlantRepository defines the interface for the read-only plant catalog
type PlantRepository interface {
	Get(ctx context.Context, q database.Querier, id int64) (*models.Plant, error)
	Search(ctx context.Context, q database.Querier, term string, limit int) ([]models.Plant, error)
}

// SnapshotRepository defines the interface for personality evolution rows of a device's plant
type SnapshotRepository interface {
	Create(ctx context.Context, q database.Querier, s *models.Snapshot) error
	Exists(ctx context.Context, q database.Querier, deviceID string, plantID int64) (bool, error)
	Latest(ctx context.Context, q database.Querier, deviceID string, plantID int64) (*models.Snapshot, error)
	LatestForUpdate(ctx context.Context, q database.Querier, deviceID string, plantID int64) (*models.Snapshot, error)
	ListSince(ctx context.Context, q database.Querier, deviceID string, plantID int64, since time.Time) ([]models.Snapshot, error)
	MarkChecked(ctx context.Context, q database.Querier, id string) error
	MarkStreakClaimed(ctx context.Context, q database.Querier, id string) error
}

// StreakRepository defines the interface for per (device, plant, user) streak records
type StreakRepository interface {
	Get(ctx context.Context, q database.Querier, deviceID string, plantID int64, userID string) (*models.Streak, error)
	GetForUpdate(ctx context.Context, q database.Querier, deviceID string, plantID int64, userID string) (*models.Streak, error)
	Create(ctx context.Context, q database.Querier, s *models.Streak) error
	Update(ctx context.Context, q database.Querier, s *models.Streak) error
}

// MessageRepository reads chat lines written by the brain
type MessageRepository interface {
	Recent(ctx context.Context, q database.Querier, userID string, plantID int64, limit int) ([]models.Message, error)
}

// PhotoStore keeps plant photos and hands back the URL they are served under
type PhotoStore interface {
	Store(ctx context.Context, name string, contentType string, size int64, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// StoredPhoto is a blob in the photo store
type StoredPhoto struct {
	URL     string
	ModTime time.Time
}

// PhotoLister enumerates stored photos for housekeeping
type PhotoLister interface {
	PhotoStore
	List(ctx context.Context) ([]StoredPhoto, error)
}

// CatalogCache holds plant search results
type CatalogCache interface {
	GetSearch(ctx context.Context, term string, limit int) ([]models.Plant, bool)
	SetSearch(ctx context.Context, term string, limit int, plants []models.Plant)
}
