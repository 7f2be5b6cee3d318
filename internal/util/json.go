package util

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// UnmarshalFlexible decodes JSON that may have been hand edited or produced
// by a sloppy exporter. Strict decoding is tried first. On failure the input
// is repaired and decoded again.
func UnmarshalFlexible(input []byte, out any) error {
	if err := json.Unmarshal(input, out); err == nil {
		return nil
	}

	trimmed := strings.TrimSpace(string(input))
	if trimmed == "" {
		return fmt.Errorf("empty json input")
	}

	repaired, err := jsonrepair.JSONRepair(trimmed)
	if err != nil {
		return fmt.Errorf("failed to repair json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("failed to decode repaired json: %w", err)
	}
	return nil
}
