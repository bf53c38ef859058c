package repository

import (
	"encoding/json"
	"fmt"
)

// toJSON encodes a value for a JSONB column
func toJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json column: %w", err)
	}
	return b, nil
}

// fromJSON decodes a JSONB column; empty input leaves v untouched
func fromJSON(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}
