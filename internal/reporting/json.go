package reporting

import (
	"encoding/json"
	"fmt"
)

// RenderJSON renders the report as indented JSON for dashboard consumption.
func RenderJSON(r *Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return string(data), nil
}
