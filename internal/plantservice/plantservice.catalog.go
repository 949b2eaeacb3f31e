package plantservice

import (
	"context"
	"strings"

	"github.com/itsatony/talkingplants/internal/models"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
)

// SearchPlants looks up catalog species by name. An empty term finds nothing.
func (s *PlantService) SearchPlants(ctx context.Context, term string, limit int) ([]models.Plant, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Plant{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	if s.Catalog != nil {
		if plants, ok := s.Catalog.GetSearch(ctx, term, limit); ok {
			return plants, nil
		}
	}

	plants, err := s.Plants.Search(ctx, s.reader(), term, limit)
	if err != nil {
		return nil, err
	}
	if s.Catalog != nil {
		s.Catalog.SetSearch(ctx, term, limit, plants)
	}
	return plants, nil
}
