package tools

import (
	"encoding/json"
	"fmt"
)

// DecodeArgs unmarshals raw tool arguments into a typed input struct.
// Absent arguments decode as an empty object.
func DecodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
