// FilePath: internal/models/models.snapshot.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"time"
)

// Snapshot is one personality evolution row for a device's plant
type Snapshot struct {
	ID                     string         `json:"id" db:"id"`
	DeviceID               string         `json:"device_id" db:"device_id"`
	PlantID                int64          `json:"plant_id" db:"plant_id"`
	PersonalityDescription string         `json:"personality_description" db:"personality_description"`
	PlantType              string         `json:"plant_type" db:"plant_type"`
	PersonalityParams      JSON           `json:"personality_params" db:"personality_params"`
	CurrentMood            JSON           `json:"current_mood" db:"current_mood"`
	SensorReadings         SensorReadings `json:"sensor_readings" db:"sensor_readings"`
	StatusChecked          bool           `json:"status_checked" db:"status_checked"`
	StreakClaimed          bool           `json:"streak_claimed" db:"streak_claimed"`
	RecordedAt             time.Time      `json:"timestamp" db:"recorded_at"`
}

// SensorReadings is the daily aggregate the device reports. Fields are nil
// until telemetry arrives; the seed row carries none.
type SensorReadings struct {
	Luminosity       *float64 `json:"luminosity,omitempty"`
	NightHours       *float64 `json:"night_hours,omitempty"`
	SoilMoisture     *float64 `json:"soil_moisture,omitempty"`
	DayTemperature   *float64 `json:"day_temperature,omitempty"`
	NightTemperature *float64 `json:"night_temperature,omitempty"`
	RelativeHumidity *float64 `json:"relative_humidity,omitempty"`

	rejected []string
}

type readingBounds struct {
	name     string
	value    **float64
	min, max float64
}

func (s *SensorReadings) bounds() []readingBounds {
	inf := math.Inf(1)
	return []readingBounds{
		{"luminosity", &s.Luminosity, -inf, inf},
		{"night_hours", &s.NightHours, 0, 24},
		{"soil_moisture", &s.SoilMoisture, -inf, inf},
		{"day_temperature", &s.DayTemperature, -inf, inf},
		{"night_temperature", &s.NightTemperature, -inf, inf},
		{"relative_humidity", &s.RelativeHumidity, 0, 100},
	}
}

func checkReading(b readingBounds) error {
	v := *b.value
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fmt.Errorf("sensor reading %s is not a number", b.name)
	}
	if *v < b.min || *v > b.max {
		return fmt.Errorf("%s out of range: %v", b.name, *v)
	}
	return nil
}

// Validate rejects readings that cannot come from a working sensor
func (s SensorReadings) Validate() error {
	for _, b := range s.bounds() {
		if err := checkReading(b); err != nil {
			return err
		}
	}
	return nil
}

// Rejected names the fields Scan discarded because the stored value was
// unusable. A payload that is not JSON at all is reported as sensor_readings.
func (s SensorReadings) Rejected() []string {
	return s.rejected
}

func (s *SensorReadings) dropInvalid() {
	for _, b := range s.bounds() {
		if checkReading(b) != nil {
			*b.value = nil
			s.rejected = append(s.rejected, b.name)
		}
	}
}

// Value implements the driver.Valuer interface
func (s SensorReadings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface. Telemetry is written by the
// devices, so a bad value never fails the read: fields that do not decode or
// fall outside what a sensor can report are cleared and listed in Rejected.
func (s *SensorReadings) Scan(value interface{}) error {
	raw, err := jsonBytes(value)
	if err != nil {
		return err
	}
	*s = SensorReadings{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, s); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !stderrors.As(err, &typeErr) {
			*s = SensorReadings{rejected: []string{"sensor_readings"}}
			return nil
		}
		s.rejected = append(s.rejected, typeErr.Field)
	}
	s.dropInvalid()
	return nil
}

// DailySummary is one day of the history chart
type DailySummary struct {
	Date             Date     `json:"date"`
	Luminosity       *float64 `json:"luminosity"`
	NightHours       *float64 `json:"night_hours"`
	SoilMoisture     *float64 `json:"soil_moisture"`
	DayTemperature   *float64 `json:"day_temperature"`
	NightTemperature *float64 `json:"night_temperature"`
	RelativeHumidity *float64 `json:"relative_humidity"`
}

// SummarizeDay projects a snapshot onto its calendar day
func SummarizeDay(s Snapshot) DailySummary {
	r := s.SensorReadings
	return DailySummary{
		Date:             DateOf(s.RecordedAt),
		Luminosity:       r.Luminosity,
		NightHours:       r.NightHours,
		SoilMoisture:     r.SoilMoisture,
		DayTemperature:   r.DayTemperature,
		NightTemperature: r.NightTemperature,
		RelativeHumidity: r.RelativeHumidity,
	}
}

// HealthSummary is the latest mood with its daily check flags
type HealthSummary struct {
	CurrentMood   JSON `json:"current_mood"`
	StatusChecked bool `json:"status_checked"`
	StreakClaimed bool `json:"streak_claimed"`
}
