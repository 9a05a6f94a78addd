package player

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groovebox/internal/domain/track"
)

// run is the session's single consumer loop. It pulls tracks from the
// queue, plays them through the sink, waits for the exactly-once
// completion signal, and applies the loop policy.
func (s *Session) run(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.workerRunning = false
		s.mu.Unlock()
	}()

	zlog.Debug().Msgf("worker started: session_id=%s", s.ID)

	for {
		t, err := s.queue.Dequeue(ctx)
		if err != nil {
			zlog.Debug().Msgf("worker stopped: session_id=%s reason=%v", s.ID, err)
			return
		}

		s.mu.Lock()
		cp := t
		s.nowPlaying = &cp
		s.startedAt = time.Now()
		s.state = StatePlaying
		link := s.link
		s.mu.Unlock()

		// No transport link: drop the track and wait for the next one.
		if link == nil || !link.IsConnected() {
			zlog.Warn().Msgf("dropping track, voice link not connected: session_id=%s title=%s", s.ID, t.Title)
			s.clearNowPlaying()
			continue
		}

		s.setPresence(t.Title)

		// One-shot completion signal. The sink contract says onComplete
		// fires exactly once, but a second firing must still be a no-op.
		done := make(chan struct{})
		var once sync.Once
		onComplete := func() {
			once.Do(func() { close(done) })
		}

		if played := s.startPlayback(ctx, link, &t, onComplete); !played {
			// Unrecoverable playback failure: treat the track as
			// completed so the loop is never stuck.
			onComplete()
		}

		select {
		case <-done:
		case <-ctx.Done():
			if sink := link.Sink(); sink != nil {
				sink.Stop()
			}
			s.clearNowPlaying()
			return
		}

		s.finishTrack(t)
	}
}

// startPlayback opens the sink for the track. When the first attempt
// fails it re-resolves the canonical reference once and retries; a
// second failure reports the track as unplayable.
func (s *Session) startPlayback(ctx context.Context, link Link, t *track.Track, onComplete func()) bool {
	sink := link.Sink()
	if sink == nil {
		return false
	}

	s.mu.Lock()
	volume := s.volume
	s.mu.Unlock()

	err := sink.Play(t.StreamURL, volume, onComplete)
	if err == nil {
		return true
	}
	zlog.Warn().Msgf("playback failed, re-resolving: session_id=%s title=%s error=%v", s.ID, t.Title, err)

	s.mu.Lock()
	s.state = StateResolving
	s.mu.Unlock()

	fresh, rerr := s.resolver.Resolve(ctx, t.PageURL, t.RequesterID, t.RequesterName)
	if rerr != nil {
		zlog.Error().Msgf("re-resolution failed, dropping track: session_id=%s title=%s error=%v", s.ID, t.Title, rerr)
		return false
	}
	*t = fresh

	s.mu.Lock()
	cp := fresh
	s.nowPlaying = &cp
	s.state = StatePlaying
	s.mu.Unlock()

	if err := sink.Play(t.StreamURL, volume, onComplete); err != nil {
		zlog.Error().Msgf("retry playback failed, dropping track: session_id=%s title=%s error=%v", s.ID, t.Title, err)
		return false
	}
	return true
}

// finishTrack applies the loop policy and clears the now-playing slot.
func (s *Session) finishTrack(t track.Track) {
	s.mu.Lock()
	mode := s.loopMode
	s.nowPlaying = nil
	s.startedAt = time.Time{}
	s.state = StateIdle
	s.mu.Unlock()

	switch mode {
	case LoopTrack:
		s.queue.PushFront(t)
	case LoopQueue:
		s.queue.Enqueue(t)
	}

	if s.queue.Len() == 0 {
		s.setPresence("")
	}
}

func (s *Session) clearNowPlaying() {
	s.mu.Lock()
	s.nowPlaying = nil
	s.startedAt = time.Time{}
	s.state = StateIdle
	s.mu.Unlock()
}
