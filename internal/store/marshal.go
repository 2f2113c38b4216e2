package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/provtrack/internal/schema"
)

// marshalText converts v to canonical JSON TEXT for storage.
func marshalText(what string, v any) (string, error) {
	data, err := schema.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	return string(data), nil
}

// unmarshalEvent parses a stored event body.
func unmarshalEvent(data string) (schema.Event, error) {
	var ev schema.Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return schema.Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return schema.Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return ev, nil
}

// unmarshalIDs parses a stored receipt id list.
func unmarshalIDs(data string) ([]int64, error) {
	ids := []int64{}
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}
	return ids, nil
}
