package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringArray stores a JSON-encoded list of strings in a text column.
// Used for the zone scope on audit assignments.
type StringArray []string

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = []string{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("failed to scan StringArray: %v", value)
	}
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}
