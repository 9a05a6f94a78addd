// Package player provides playback sessions: one queue, one now-playing
// slot, and one worker per session.
package player

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/groovebox/internal/app/queue"
	"github.com/osa030/groovebox/internal/domain/track"
)

// Errors
var (
	ErrNotConnected   = errors.New("no voice link attached")
	ErrNothingPlaying = errors.New("nothing is playing")
	ErrNothingPaused  = errors.New("nothing is paused")
	ErrInvalidVolume  = errors.New("volume must be between 0 and 1")
)

// Session is one independent playback context. It owns a playback queue,
// the now-playing slot, the loop mode, and the single worker that drains
// the queue. Command operations may arrive concurrently; the session
// mutex and the queue's internal lock serialize them against the worker.
type Session struct {
	ID string

	mu         sync.Mutex
	queue      *queue.Queue
	nowPlaying *track.Track
	startedAt  time.Time
	loopMode   LoopMode
	volume     float64
	link       Link
	state      State

	workerRunning bool
	workerCancel  context.CancelFunc

	resolver Resolver
	presence Presence
}

func newSession(id string, resolver Resolver, presence Presence, volume float64) *Session {
	return &Session{
		ID:       id,
		queue:    queue.New(),
		volume:   volume,
		resolver: resolver,
		presence: presence,
	}
}

// Queue returns the session's playback queue.
func (s *Session) Queue() *queue.Queue {
	return s.queue
}

// Enqueue appends a resolved track and makes sure the worker is running.
func (s *Session) Enqueue(t track.Track) {
	s.queue.Enqueue(t)
	s.EnsureWorker()
}

// EnsureWorker starts the consumer goroutine if none is running.
// Idempotent: a session never has two concurrent workers. Without an
// attached link the queue just accumulates; the worker starts on
// Attach.
func (s *Session) EnsureWorker() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.workerRunning || s.link == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.workerRunning = true
	s.workerCancel = cancel
	go s.run(ctx)
}

// Attach connects the session to a voice transport link. Callers that
// want queued tracks to start playing follow up with EnsureWorker.
func (s *Session) Attach(link Link) {
	s.mu.Lock()
	s.link = link
	s.mu.Unlock()
}

// Detach drops the voice link, stops the worker, and drains the queue.
// The session itself survives: loop mode and volume are kept for a
// later reattach.
func (s *Session) Detach() []track.Track {
	s.mu.Lock()
	link := s.link
	s.link = nil
	cancel := s.workerCancel
	s.workerCancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	removed := s.queue.Drain()
	if link != nil {
		if sink := link.Sink(); sink != nil {
			sink.Stop()
		}
	}
	s.setPresence("")
	return removed
}

// Skip forcibly terminates current playback. The sink delivers its
// completion signal exactly once, so the worker advances normally.
func (s *Session) Skip() error {
	sink, err := s.connectedSink()
	if err != nil {
		return err
	}
	if !sink.IsPlaying() && !sink.IsPaused() {
		return ErrNothingPlaying
	}
	sink.Stop()
	return nil
}

// Pause pauses current playback.
func (s *Session) Pause() error {
	sink, err := s.connectedSink()
	if err != nil {
		return err
	}
	if !sink.IsPlaying() {
		return ErrNothingPlaying
	}
	sink.Pause()
	return nil
}

// Resume resumes paused playback.
func (s *Session) Resume() error {
	sink, err := s.connectedSink()
	if err != nil {
		return err
	}
	if !sink.IsPaused() {
		return ErrNothingPaused
	}
	sink.Resume()
	return nil
}

// Stop drains the queue and then skips whatever is playing. Returns the
// number of tracks removed from the queue.
func (s *Session) Stop() int {
	removed := s.queue.Drain()

	s.mu.Lock()
	link := s.link
	s.mu.Unlock()

	if link != nil && link.IsConnected() {
		if sink := link.Sink(); sink != nil && (sink.IsPlaying() || sink.IsPaused()) {
			sink.Stop()
		}
	}
	s.setPresence("")
	return len(removed)
}

// SetLoopMode changes the loop policy applied when tracks complete.
func (s *Session) SetLoopMode(mode LoopMode) {
	s.mu.Lock()
	s.loopMode = mode
	s.mu.Unlock()
}

// GetLoopMode returns the current loop mode.
func (s *Session) GetLoopMode() LoopMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loopMode
}

// SetVolume sets the playback volume for subsequent tracks.
func (s *Session) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return ErrInvalidVolume
	}
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
	return nil
}

// GetVolume returns the playback volume.
func (s *Session) GetVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// NowPlaying returns a copy of the current track and the elapsed play
// time. ok is false when nothing is playing.
func (s *Session) NowPlaying() (t track.Track, elapsed time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nowPlaying == nil {
		return track.Track{}, 0, false
	}
	return *s.nowPlaying, time.Since(s.startedAt), true
}

// State returns the worker's playback state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// connectedSink returns the sink of a connected link, or ErrNotConnected.
func (s *Session) connectedSink() (Sink, error) {
	s.mu.Lock()
	link := s.link
	s.mu.Unlock()

	if link == nil || !link.IsConnected() {
		return nil, ErrNotConnected
	}
	sink := link.Sink()
	if sink == nil {
		return nil, ErrNotConnected
	}
	return sink, nil
}

func (s *Session) setPresence(text string) {
	if s.presence != nil {
		s.presence.SetStatus(text)
	}
}
