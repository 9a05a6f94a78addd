package player

import (
	"context"

	"github.com/osa030/groovebox/internal/domain/track"
)

// Sink renders audio from a stream handle. Implementations must make the
// control methods safe to call concurrently with playback and must fire
// the completion callback passed to Play exactly once on any termination:
// natural end, forced stop, or error.
type Sink interface {
	Play(streamURL string, volume float64, onComplete func()) error
	Pause()
	Resume()
	Stop()
	IsPlaying() bool
	IsPaused() bool
}

// Link is the voice transport connection a session plays through.
// Connection lifecycle is managed outside the core; the session only
// queries connectivity and borrows the sink handle.
type Link interface {
	IsConnected() bool
	Sink() Sink
}

// Presence announces the currently playing title. Best effort: an empty
// text clears the status and failures are ignored.
type Presence interface {
	SetStatus(text string)
}

// Resolver re-resolves a canonical reference. The worker uses it to
// recover from sink errors by refreshing a track's stream handle.
type Resolver interface {
	Resolve(ctx context.Context, reference, requesterID, requesterName string) (track.Track, error)
}
