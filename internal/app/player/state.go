package player

// State represents the worker's playback state.
type State int

const (
	StateIdle      State = iota // No track playing (queue empty or link detached)
	StateResolving              // Re-resolving a track during playback recovery
	StatePlaying                // Track is playing through the sink
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}
