package resolver

import (
	"math"
	"regexp"
	"time"
)

var (
	mediaURLRe    = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+`)
	playlistRefRe = regexp.MustCompile(`[?&]list=[\w-]+|/playlist\?`)
)

// IsMediaURL reports whether the reference is a direct media-host URL
// rather than a search query.
func IsMediaURL(reference string) bool {
	return mediaURLRe.MatchString(reference)
}

// IsPlaylistURL reports whether the reference points at a collection of
// items rather than a single one.
func IsPlaylistURL(reference string) bool {
	return mediaURLRe.MatchString(reference) && playlistRefRe.MatchString(reference)
}

// NormalizeDuration converts an extracted duration to whole seconds.
// Malformed values (negative, NaN, infinite) become absent rather than
// an error.
func NormalizeDuration(seconds float64) time.Duration {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return time.Duration(int(seconds)) * time.Second
}
