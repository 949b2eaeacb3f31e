// FilePath: internal/cleanup/cleanup.go
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// EventPhotoDeleted is emitted with the photo URL for every orphan removed
const EventPhotoDeleted = "photo.deleted"

// DefaultGrace keeps fresh uploads whose binding update may still be in flight
const DefaultGrace = time.Hour

// CleanupService removes photos no binding points at any more. Orphans are left
// behind when a replaced photo could not be deleted right away or an upload's
// transaction failed after the blob was written.
type CleanupService struct {
	db         database.DB
	caretakers repository.CaretakerRepository
	photos     repository.PhotoLister
	events     *nuts.EventEmitter
	grace      time.Duration
	now        func() time.Time
}

// New creates a new CleanupService
func New(db database.DB, caretakers repository.CaretakerRepository, photos repository.PhotoLister, events *nuts.EventEmitter) *CleanupService {
	if events == nil {
		events = nuts.NewEventEmitter()
	}
	return &CleanupService{
		db:         db,
		caretakers: caretakers,
		photos:     photos,
		events:     events,
		grace:      DefaultGrace,
		now:        time.Now,
	}
}

// SweepOrphanPhotos deletes unreferenced photos older than the grace period
// and returns how many were removed
func (s *CleanupService) SweepOrphanPhotos(ctx context.Context) (int, error) {
	// list blobs first so an upload committed in between is still referenced below
	stored, err := s.photos.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list photos: %w", err)
	}
	urls, err := s.caretakers.PhotoURLs(ctx, s.db.GetDB())
	if err != nil {
		return 0, fmt.Errorf("failed to list referenced photos: %w", err)
	}
	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		referenced[u] = struct{}{}
	}

	cutoff := s.now().Add(-s.grace)
	removed := 0
	for _, p := range stored {
		if _, ok := referenced[p.URL]; ok || p.ModTime.After(cutoff) {
			continue
		}
		if err := s.photos.Delete(ctx, p.URL); err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return removed, fmt.Errorf("failed to delete photo %s: %w", p.URL, err)
		}
		removed++
		if err := s.events.Emit(EventPhotoDeleted, map[string]string{"photo_url": p.URL}); err != nil {
			nuts.L.Warnf("[Cleanup] Failed to emit %s: %v", EventPhotoDeleted, err)
		}
	}

	if removed > 0 {
		nuts.L.Infof("[Cleanup] Removed %d orphaned photos", removed)
	}
	return removed, nil
}

// Run sweeps every interval until ctx is done
func (s *CleanupService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOrphanPhotos(ctx); err != nil && ctx.Err() == nil {
				nuts.L.Errorf("[Cleanup] Photo sweep failed: %v", err)
			}
		}
	}
}

// Events is the emitter deletions are raised on
func (s *CleanupService) Events() *nuts.EventEmitter {
	return s.events
}
