package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fleetops/backend/internal/domain/settlement"
)

// StringList stores a slice of strings as a JSONB column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, (*[]string)(l))
}

// EarningsLines stores per-platform earnings lines as a JSONB column.
// The lines are a snapshot taken at computation time and are never
// queried individually, so a document column avoids a child table.
type EarningsLines []settlement.PlatformEarnings

// Value implements driver.Valuer
func (e EarningsLines) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]settlement.PlatformEarnings(e))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (e *EarningsLines) Scan(value any) error {
	if value == nil {
		*e = nil
		return nil
	}
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, (*[]settlement.PlatformEarnings)(e))
}

func jsonBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", value)
	}
}
