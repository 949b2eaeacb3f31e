// FilePath: internal/models/models.json.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON is a wrapper around map[string]interface{} for database storage
type JSON map[string]interface{}

// Value implements the driver.Valuer interface. The document is sent as text
// so both jsonb and TEXT columns accept it.
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	raw, err := jsonBytes(value)
	if err != nil || raw == nil {
		*j = nil
		return err
	}
	return json.Unmarshal(raw, j)
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported json column type %T", value)
	}
}
