// FilePath: internal/models/models.device.go
package models

import "time"

// Device is a provisioned sensor unit. Rows are created at the factory.
type Device struct {
	ID         string    `json:"id" db:"id"`
	ClaimToken string    `json:"-" db:"claim_token"`
	Claimed    bool      `json:"claimed" db:"claimed"`
	Online     bool      `json:"online" db:"online"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DeviceSummary is one synced device of a user
type DeviceSummary struct {
	DeviceID string `json:"device_id" db:"device_id"`
	PlantID  *int64 `json:"plant_id" db:"plant_id"`
}

type DeviceStatus struct {
	Online bool `json:"online"`
}
