package store

import (
	"database/sql"
	"encoding/json"
)

// NullString is a wrapper around sql.NullString that marshals to plain
// JSON null instead of the {String, Valid} pair.
type NullString struct {
	Value string `json:"value"`
	Valid bool   `json:"valid"`
}

// MarshalJSON implements the json.Marshaler interface
func (ns NullString) MarshalJSON() ([]byte, error) {
	if !ns.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ns.Value)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (ns *NullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		ns.Valid = false
		ns.Value = ""
		return nil
	}
	ns.Valid = true
	return json.Unmarshal(data, &ns.Value)
}

// Convert from sql.NullString
func NewNullString(ns sql.NullString) NullString {
	return NullString{
		Value: ns.String,
		Valid: ns.Valid,
	}
}
