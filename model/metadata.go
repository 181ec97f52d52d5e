package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/veridoc/veridoc/helper"
)

// Metadata carries the free-form document attributes stored in the JSONB
// metadata columns (filename, revision, upload info and the like).
type Metadata map[string]interface{}

// Value implements driver.Valuer so Metadata can be bound directly as a
// query parameter.
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements sql.Scanner for reading a JSONB column back. A NULL
// column yields an empty map rather than nil.
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal returns the metadata as JSON.
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal fills the metadata from a JSONB column value. It accepts raw
// JSON bytes, another Metadata value or nil.
func (m *Metadata) Unmarshal(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case Metadata:
		*m = v
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	default:
		return helper.NewError("scan metadata", errors.New("type assertion to []byte failed"))
	}
}
