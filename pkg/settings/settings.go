// Package settings reads the administrator settings file shared with the
// forum's admin API.
package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Bounds for the admin-set run size. Values outside this range are treated
// as "no override" rather than errors, matching the admin API.
const (
	MinWeeklyPostCount = 1
	MaxWeeklyPostCount = 20
)

type adminSettings struct {
	// Raw because the admin API has historically written strings and
	// booleans here; anything that is not a number means no override.
	WeeklyPostCount json.RawMessage `json:"weekly_post_count"`
}

// Store reads the admin settings file.
type Store struct {
	path string
}

// NewStore creates a settings store for the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// WeeklyPostCountOverride returns the admin-set run size when present and in
// range. A missing settings file or a non-integer value means no override;
// an unreadable file or unparsable JSON is a configuration error.
func (s *Store) WeeklyPostCountOverride() (int, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read admin settings: %w", err)
	}

	var parsed adminSettings
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, false, fmt.Errorf("parse admin settings %s: %w", s.path, err)
	}

	var v *float64
	if json.Unmarshal(parsed.WeeklyPostCount, &v) != nil {
		return 0, false, nil
	}
	if v == nil || *v != math.Trunc(*v) {
		return 0, false, nil
	}
	n := int(*v)
	if n < MinWeeklyPostCount || n > MaxWeeklyPostCount {
		return 0, false, nil
	}
	return n, true, nil
}
