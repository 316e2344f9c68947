package id

import (
	"fmt"
	"strings"
	"time"
)

const (
	runPrefix     = "recon-"
	runTimeFormat = "20060102-150405"
)

// FormatRunID returns a run ID like "recon-20240110-153045". Run IDs
// name report files and tie audit log rows to the run they edit.
func FormatRunID(t time.Time) string {
	return runPrefix + t.UTC().Format(runTimeFormat)
}

// ParseRunID extracts the UTC timestamp from a run ID.
func ParseRunID(id string) (time.Time, error) {
	if !strings.HasPrefix(id, runPrefix) {
		return time.Time{}, fmt.Errorf("invalid run ID format: %q", id)
	}
	ts, err := time.Parse(runTimeFormat, strings.TrimPrefix(id, runPrefix))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp in run ID %q: %w", id, err)
	}
	return ts, nil
}
