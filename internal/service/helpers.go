package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// copyJSON marshals src into dest, the same transformation the cache applies,
// so Remember callers see identical shapes on hit and miss.
func copyJSON(src, dest interface{}) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("copy value: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("copy value: %w", err)
	}
	return nil
}

// slugify derives a URL slug from a title.
func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
