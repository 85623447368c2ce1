// Package hydrate binds string-keyed payloads to typed structs.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode converts payload into dst, a non-nil pointer, via a JSON round
// trip. A nil payload decodes as an empty object, leaving dst zeroed. Keys
// with no matching field are ignored so payloads can grow ahead of their
// consumers.
func Decode(payload map[string]any, dst any) error {
	if dst == nil {
		return fmt.Errorf("hydrate: destination is nil")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	buffer, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("hydrate: encode payload: %w", err)
	}
	if err := json.NewDecoder(bytes.NewReader(buffer)).Decode(dst); err != nil {
		return fmt.Errorf("hydrate: decode payload: %w", err)
	}
	return nil
}
