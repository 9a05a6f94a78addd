package player

import "github.com/cockroachdb/errors"

// LoopMode controls what happens to a track after it completes.
type LoopMode int

const (
	LoopOff   LoopMode = iota // Completed tracks are dropped
	LoopTrack                 // Replay the current track indefinitely
	LoopQueue                 // Rotate completed tracks to the back of the queue
)

// String returns the string representation of the loop mode.
func (m LoopMode) String() string {
	switch m {
	case LoopTrack:
		return "track"
	case LoopQueue:
		return "queue"
	default:
		return "off"
	}
}

// ParseLoopMode parses a loop mode string.
func ParseLoopMode(s string) (LoopMode, error) {
	switch s {
	case "off":
		return LoopOff, nil
	case "track":
		return LoopTrack, nil
	case "queue":
		return LoopQueue, nil
	default:
		return LoopOff, errors.Newf("unknown loop mode: %s", s)
	}
}
