package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// requireKeys parses raw as a JSON object and checks that every required key is present and not null.
func requireKeys(raw string, required ...string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrShape, err)
	}
	if obj == nil {
		return fmt.Errorf("%w: reply is null", ErrShape)
	}
	for _, k := range required {
		v, ok := obj[k]
		if !ok || string(v) == "null" {
			return fmt.Errorf("%w: missing %q", ErrShape, k)
		}
	}
	return nil
}

func checkScore[T int | float64](field string, v T) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: %s %v out of range 0-100", ErrShape, field, v)
	}
	return nil
}
