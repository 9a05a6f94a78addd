// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"time"
)

// Track represents a resolved, playable media item.
// Tracks are immutable once resolved: StreamURL is always consumable by
// the sink and PageURL is a stable reference for display and
// re-resolution.
type Track struct {
	Title         string        // Display title
	StreamURL     string        // Direct audio stream handle consumed by the sink
	PageURL       string        // Canonical page URL (display, re-resolution)
	Duration      time.Duration // Track duration (0 if unknown)
	RequesterID   string        // ID of the user who requested the track
	RequesterName string        // Display name of the requester
}

// HasDuration reports whether the track duration is known.
func (t *Track) HasDuration() bool {
	return t.Duration > 0
}

// FormatDuration renders a duration as h:mm:ss, or m:ss below one hour.
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
