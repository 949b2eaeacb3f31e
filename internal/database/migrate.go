package database

import (
	"context"

	"github.com/itsatony/talkingplants/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		claim_token TEXT NOT NULL,
		claimed BOOLEAN NOT NULL DEFAULT FALSE,
		online BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS plants (
		id BIGSERIAL PRIMARY KEY,
		scientific_name TEXT NOT NULL,
		common_name_en TEXT NOT NULL,
		mood_reference JSONB NOT NULL DEFAULT '{}',
		personality_default TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS caretaker (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		device_id TEXT NOT NULL UNIQUE REFERENCES devices(id),
		plant_id BIGINT REFERENCES plants(id),
		plant_type TEXT,
		mood_reference_values JSONB,
		personality_default TEXT,
		photo_url TEXT,
		avatar_id TEXT,
		avatar_name TEXT,
		device_synced BOOLEAN NOT NULL DEFAULT FALSE,
		tutorial_onboarding_seen BOOLEAN NOT NULL DEFAULT FALSE,
		tutorial_onboarding_eligible BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_caretaker_user ON caretaker(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS personality_evolution (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL REFERENCES devices(id),
		plant_id BIGINT NOT NULL REFERENCES plants(id),
		personality_description TEXT NOT NULL DEFAULT '',
		plant_type TEXT NOT NULL DEFAULT '',
		personality_params JSONB NOT NULL DEFAULT '{}',
		current_mood JSONB NOT NULL DEFAULT '{}',
		sensor_readings JSONB NOT NULL DEFAULT '{}',
		status_checked BOOLEAN NOT NULL DEFAULT FALSE,
		streak_claimed BOOLEAN NOT NULL DEFAULT FALSE,
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_evolution_latest ON personality_evolution(device_id, plant_id, recorded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS streak (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL,
		plant_id BIGINT NOT NULL,
		user_id TEXT NOT NULL,
		current_streak INTEGER NOT NULL,
		longest_streak INTEGER NOT NULL,
		last_date DATE NOT NULL,
		streak_started_at DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (device_id, plant_id, user_id),
		CHECK (current_streak <= longest_streak)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		device_id TEXT NOT NULL,
		plant_id BIGINT NOT NULL,
		role TEXT NOT NULL,
		message_text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_user_plant ON messages(user_id, plant_id, created_at DESC)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		claim_token TEXT NOT NULL,
		claimed INTEGER NOT NULL DEFAULT 0,
		online INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS plants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scientific_name TEXT NOT NULL,
		common_name_en TEXT NOT NULL,
		mood_reference TEXT NOT NULL DEFAULT '{}',
		personality_default TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS caretaker (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		device_id TEXT NOT NULL UNIQUE REFERENCES devices(id),
		plant_id INTEGER REFERENCES plants(id),
		plant_type TEXT,
		mood_reference_values TEXT,
		personality_default TEXT,
		photo_url TEXT,
		avatar_id TEXT,
		avatar_name TEXT,
		device_synced INTEGER NOT NULL DEFAULT 0,
		tutorial_onboarding_seen INTEGER NOT NULL DEFAULT 0,
		tutorial_onboarding_eligible INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_caretaker_user ON caretaker(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS personality_evolution (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL REFERENCES devices(id),
		plant_id INTEGER NOT NULL REFERENCES plants(id),
		personality_description TEXT NOT NULL DEFAULT '',
		plant_type TEXT NOT NULL DEFAULT '',
		personality_params TEXT NOT NULL DEFAULT '{}',
		current_mood TEXT NOT NULL DEFAULT '{}',
		sensor_readings TEXT NOT NULL DEFAULT '{}',
		status_checked INTEGER NOT NULL DEFAULT 0,
		streak_claimed INTEGER NOT NULL DEFAULT 0,
		recorded_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_evolution_latest ON personality_evolution(device_id, plant_id, recorded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS streak (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL,
		plant_id INTEGER NOT NULL,
		user_id TEXT NOT NULL,
		current_streak INTEGER NOT NULL,
		longest_streak INTEGER NOT NULL,
		last_date TEXT NOT NULL,
		streak_started_at TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (device_id, plant_id, user_id),
		CHECK (current_streak <= longest_streak)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		device_id TEXT NOT NULL,
		plant_id INTEGER NOT NULL,
		role TEXT NOT NULL,
		message_text TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_user_plant ON messages(user_id, plant_id, created_at DESC)`,
}

// Migrate creates the schema for db's dialect. Statements are idempotent.
func Migrate(ctx context.Context, db DB) error {
	conn := db.GetDB()
	schema := sqliteSchema
	if conn.DriverName() == postgresDriver {
		schema = postgresSchema
	}

	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}

	nuts.L.Infof("[Database] Schema up to date (%s, %d statements)", conn.DriverName(), len(schema))
	return nil
}
