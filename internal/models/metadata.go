package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Metadata is the free-form key/value envelope stored as JSON next to
// ledger rows. Values are strings or numbers; the typed getters cover the
// keys the engine reads back (everything else is display-only context).
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return errors.New("metadata: unsupported scan type")
}

func (Metadata) GormDataType() string { return "json" }

func (m Metadata) GetString(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// GetUint reads an id-like value regardless of whether it was stored as a
// number or round-tripped through JSON as float64 or string.
func (m Metadata) GetUint(key string) uint {
	switch v := m[key].(type) {
	case float64:
		return uint(v)
	case int:
		return uint(v)
	case int64:
		return uint(v)
	case uint:
		return v
	case json.Number:
		n, _ := v.Int64()
		return uint(n)
	case string:
		n, _ := strconv.ParseUint(v, 10, 64)
		return uint(n)
	}
	return 0
}
