// FilePath: internal/models/models.plant.go
package models

// Plant is a catalog species
type Plant struct {
	ID                 int64  `json:"id" db:"id"`
	ScientificName     string `json:"scientific_name" db:"scientific_name"`
	CommonNameEn       string `json:"common_name_en" db:"common_name_en"`
	MoodReference      JSON   `json:"mood_reference" db:"mood_reference"`
	PersonalityDefault string `json:"personality_default" db:"personality_default"`
}
