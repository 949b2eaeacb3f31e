// FilePath: internal/repository/sqlrepo/sqlrepo.plant.go
package sqlrepo

import (
	"context"
	"strings"

	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/models"
)

const plantColumns = `id, scientific_name, common_name_en, mood_reference, personality_default`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PlantRepo struct {
	baseRepo
}

func NewPlantRepository() *PlantRepo {
	return &PlantRepo{baseRepo: baseRepo{entity: "plant"}}
}

func (r *PlantRepo) Get(ctx context.Context, q database.Querier, id int64) (*models.Plant, error) {
	plant := &models.Plant{}
	if err := r.get(ctx, q, plant, `SELECT `+plantColumns+` FROM plants WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return plant, nil
}

// Search matches term case-insensitively anywhere in the scientific or common name
func (r *PlantRepo) Search(ctx context.Context, q database.Querier, term string, limit int) ([]models.Plant, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	plants := []models.Plant{}
	query := `
		SELECT ` + plantColumns + `
		FROM plants
		WHERE LOWER(scientific_name) LIKE ? ESCAPE '\'
		   OR LOWER(common_name_en) LIKE ? ESCAPE '\'
		ORDER BY common_name_en ASC, id ASC
		LIMIT ?`
	if err := r.selectAll(ctx, q, &plants, query, pattern, pattern, limit); err != nil {
		return nil, err
	}
	return plants, nil
}
