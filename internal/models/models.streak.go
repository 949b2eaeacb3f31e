// FilePath: internal/models/models.streak.go
package models

import "time"

// Streak tracks consecutive claimed days for one (device, plant, user)
type Streak struct {
	ID              string    `json:"id" db:"id"`
	DeviceID        string    `json:"device_id" db:"device_id"`
	PlantID         int64     `json:"plant_id" db:"plant_id"`
	UserID          string    `json:"user_id" db:"user_id"`
	CurrentStreak   int       `json:"current_streak" db:"current_streak"`
	LongestStreak   int       `json:"longest_streak" db:"longest_streak"`
	LastDate        Date      `json:"last_date" db:"last_date"`
	StreakStartedAt Date      `json:"streak_started_at" db:"streak_started_at"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type StreakResult struct {
	Success       bool `json:"success"`
	CurrentStreak int  `json:"current_streak"`
	LongestStreak int  `json:"longest_streak"`
}

type CurrentStreak struct {
	CurrentStreak int `json:"current_streak"`
}
