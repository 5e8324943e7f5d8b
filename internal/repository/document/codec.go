// Package document maps the users and events collections onto typed models.
package document

import (
	"encoding/json"
	"fmt"

	"github.com/dtroode/sportify-server/internal/model"
)

func toFields(v any) (model.Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var fields model.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return fields, nil
}

func fromFields(fields model.Fields, v any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

// idList never encodes as null.
func idList(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
