package player

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/groovebox/internal/domain/track"
)

type playRequest struct {
	streamURL string
	complete  func()
}

// fakeSink records play requests and lets tests drive the exactly-once
// completion signal.
type fakeSink struct {
	mu        sync.Mutex
	playing   bool
	paused    bool
	failPlays int
	current   func()

	plays chan playRequest
}

func newFakeSink() *fakeSink {
	return &fakeSink{plays: make(chan playRequest, 16)}
}

func (s *fakeSink) Play(streamURL string, volume float64, onComplete func()) error {
	s.mu.Lock()
	if s.failPlays > 0 {
		s.failPlays--
		s.mu.Unlock()
		return errors.New("stream rejected")
	}
	s.playing = true
	s.paused = false
	s.current = onComplete
	s.mu.Unlock()

	s.plays <- playRequest{streamURL: streamURL, complete: onComplete}
	return nil
}

func (s *fakeSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.playing = false
		s.paused = true
	}
}

func (s *fakeSink) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		s.paused = false
		s.playing = true
	}
}

func (s *fakeSink) Stop() {
	s.mu.Lock()
	complete := s.current
	s.current = nil
	s.playing = false
	s.paused = false
	s.mu.Unlock()

	if complete != nil {
		complete()
	}
}

func (s *fakeSink) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *fakeSink) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

type fakeLink struct {
	sink      *fakeSink
	connected atomic.Bool
}

func newFakeLink(connected bool) *fakeLink {
	l := &fakeLink{sink: newFakeSink()}
	l.connected.Store(connected)
	return l
}

func (l *fakeLink) IsConnected() bool { return l.connected.Load() }
func (l *fakeLink) Sink() Sink        { return l.sink }

type fakeResolver struct {
	track track.Track
	err   error

	mu   sync.Mutex
	refs []string
}

func (r *fakeResolver) Resolve(ctx context.Context, reference, requesterID, requesterName string) (track.Track, error) {
	r.mu.Lock()
	r.refs = append(r.refs, reference)
	r.mu.Unlock()

	if r.err != nil {
		return track.Track{}, r.err
	}
	return r.track, nil
}

func (r *fakeResolver) references() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.refs...)
}

func newTestSession(link Link, resolver Resolver) *Session {
	s := newSession("guild-1", resolver, nil, 0.5)
	if link != nil {
		s.Attach(link)
	}
	return s
}

func waitPlay(t *testing.T, sink *fakeSink) playRequest {
	t.Helper()
	select {
	case req := <-sink.plays:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("expected a play request")
		return playRequest{}
	}
}

func assertNoPlay(t *testing.T, sink *fakeSink) {
	t.Helper()
	select {
	case req := <-sink.plays:
		t.Fatalf("unexpected play request: %s", req.streamURL)
	case <-time.After(100 * time.Millisecond):
	}
}

func streamTrack(title string) track.Track {
	return track.Track{
		Title:     title,
		StreamURL: "stream://" + title,
		PageURL:   "page://" + title,
	}
}

func TestSession_PlaysInFIFOOrder(t *testing.T) {
	link := newFakeLink(true)
	s := newTestSession(link, &fakeResolver{})

	for _, title := range []string{"A", "B", "C"} {
		s.Enqueue(streamTrack(title))
	}

	for _, expected := range []string{"A", "B", "C"} {
		req := waitPlay(t, link.sink)
		assert.Equal(t, "stream://"+expected, req.streamURL)
		req.complete()
	}
	assertNoPlay(t, link.sink)
}

func TestSession_TrackLoopReplaysImmediately(t *testing.T) {
	link := newFakeLink(true)
	s := newTestSession(link, &fakeResolver{})
	s.SetLoopMode(LoopTrack)

	s.Enqueue(streamTrack("A"))
	s.Enqueue(streamTrack("B"))

	// A replays until the loop is disabled; B never gets a turn.
	for i := 0; i < 3; i++ {
		req := waitPlay(t, link.sink)
		assert.Equal(t, "stream://A", req.streamURL)
		req.complete()
	}

	s.SetLoopMode(LoopOff)
	req := waitPlay(t, link.sink)
	assert.Equal(t, "stream://A", req.streamURL)
	req.complete()

	req = waitPlay(t, link.sink)
	assert.Equal(t, "stream://B", req.streamURL)
	req.complete()
}

func TestSession_QueueLoopRotates(t *testing.T) {
	link := newFakeLink(true)
	s := newTestSession(link, &fakeResolver{})
	s.SetLoopMode(LoopQueue)

	for _, title := range []string{"A", "B", "C"} {
		s.Enqueue(streamTrack(title))
	}

	for _, expected := range []string{"A", "B", "C", "A", "B"} {
		req := waitPlay(t, link.sink)
		assert.Equal(t, "stream://"+expected, req.streamURL)
		req.complete()
	}
}

func TestSession_EnsureWorkerIdempotent(t *testing.T) {
	link := newFakeLink(true)
	s := newTestSession(link, &fakeResolver{})

	s.EnsureWorker()
	s.EnsureWorker()

	s.Queue().Enqueue(streamTrack("A"))

	req := waitPlay(t, link.sink)
	assert.Equal(t, "stream://A", req.streamURL)
	// A second worker would have raced for the next item; with one
	// worker there is exactly one play request.
	assertNoPlay(t, link.sink)
	req.complete()

	s.mu.Lock()
	running := s.workerRunning
	s.mu.Unlock()
	assert.True(t, running)
}

func TestSession_DisconnectedLinkDropsTrack(t *testing.T) {
	link := newFakeLink(false)
	s := newTestSession(link, &fakeResolver{})

	s.Enqueue(streamTrack("A"))
	assertNoPlay(t, link.sink)

	require.Eventually(t, func() bool {
		_, _, ok := s.NowPlaying()
		return !ok
	}, time.Second, 10*time.Millisecond)

	// A was dropped, not deferred: after reconnecting only B plays.
	link.connected.Store(true)
	s.Enqueue(streamTrack("B"))

	req := waitPlay(t, link.sink)
	assert.Equal(t, "stream://B", req.streamURL)
	req.complete()
	assertNoPlay(t, link.sink)
}

func TestSession_RetriesOnceAfterPlaybackFailure(t *testing.T) {
	link := newFakeLink(true)
	link.sink.failPlays = 1
	resolver := &fakeResolver{track: streamTrack("fresh")}
	s := newTestSession(link, resolver)

	s.Enqueue(streamTrack("stale"))

	req := waitPlay(t, link.sink)
	assert.Equal(t, "stream://fresh", req.streamURL)
	assert.Equal(t, []string{"page://stale"}, resolver.references())
	req.complete()
}

func TestSession_UnrecoverableFailureAdvances(t *testing.T) {
	link := newFakeLink(true)
	link.sink.failPlays = 1
	resolver := &fakeResolver{err: errors.New("extraction exhausted")}
	s := newTestSession(link, resolver)

	s.Enqueue(streamTrack("broken"))
	s.Enqueue(streamTrack("B"))

	// The broken track is dropped and the worker moves on.
	req := waitPlay(t, link.sink)
	assert.Equal(t, "stream://B", req.streamURL)
	req.complete()
}

func TestSession_SkipAdvances(t *testing.T) {
	link := newFakeLink(true)
	s := newTestSession(link, &fakeResolver{})

	s.Enqueue(streamTrack("A"))
	s.Enqueue(streamTrack("B"))

	req := waitPlay(t, link.sink)
	assert.Equal(t, "stream://A", req.streamURL)

	require.NoError(t, s.Skip())

	req = waitPlay(t, link.sink)
	assert.Equal(t, "stream://B", req.streamURL)
	req.complete()
}

func TestSession_StopDrainsQueueThenSkips(t *testing.T) {
	link := newFakeLink(true)
	s := newTestSession(link, &fakeResolver{})

	s.Enqueue(streamTrack("A"))
	s.Enqueue(streamTrack("B"))
	s.Enqueue(streamTrack("C"))

	req := waitPlay(t, link.sink)
	assert.Equal(t, "stream://A", req.streamURL)

	removed := s.Stop()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, s.Queue().Len())
	assertNoPlay(t, link.sink)
}

func TestSession_ControlErrors(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		s := newTestSession(nil, &fakeResolver{})
		assert.ErrorIs(t, s.Skip(), ErrNotConnected)
		assert.ErrorIs(t, s.Pause(), ErrNotConnected)
		assert.ErrorIs(t, s.Resume(), ErrNotConnected)
	})

	t.Run("idle sink", func(t *testing.T) {
		s := newTestSession(newFakeLink(true), &fakeResolver{})
		assert.ErrorIs(t, s.Skip(), ErrNothingPlaying)
		assert.ErrorIs(t, s.Pause(), ErrNothingPlaying)
		assert.ErrorIs(t, s.Resume(), ErrNothingPaused)
	})
}

func TestSession_PauseResume(t *testing.T) {
	link := newFakeLink(true)
	s := newTestSession(link, &fakeResolver{})

	s.Enqueue(streamTrack("A"))
	waitPlay(t, link.sink)

	require.NoError(t, s.Pause())
	assert.True(t, link.sink.IsPaused())
	assert.ErrorIs(t, s.Pause(), ErrNothingPlaying)

	require.NoError(t, s.Resume())
	assert.True(t, link.sink.IsPlaying())
}

func TestSession_NowPlaying(t *testing.T) {
	link := newFakeLink(true)
	s := newTestSession(link, &fakeResolver{})

	_, _, ok := s.NowPlaying()
	assert.False(t, ok)

	s.Enqueue(streamTrack("A"))
	req := waitPlay(t, link.sink)

	current, elapsed, ok := s.NowPlaying()
	require.True(t, ok)
	assert.Equal(t, "A", current.Title)
	assert.GreaterOrEqual(t, elapsed, time.Duration(0))

	req.complete()
	require.Eventually(t, func() bool {
		_, _, ok := s.NowPlaying()
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestSession_SetVolume(t *testing.T) {
	s := newTestSession(nil, &fakeResolver{})

	require.NoError(t, s.SetVolume(0.8))
	assert.InDelta(t, 0.8, s.GetVolume(), 0.001)

	assert.ErrorIs(t, s.SetVolume(1.5), ErrInvalidVolume)
	assert.ErrorIs(t, s.SetVolume(-0.1), ErrInvalidVolume)
}

func TestSession_DetachKeepsLoopMode(t *testing.T) {
	link := newFakeLink(true)
	s := newTestSession(link, &fakeResolver{})
	s.SetLoopMode(LoopQueue)

	s.Queue().Enqueue(streamTrack("A"))
	removed := s.Detach()
	assert.Len(t, removed, 1)
	assert.Equal(t, 0, s.Queue().Len())
	assert.Equal(t, LoopQueue, s.GetLoopMode())
}

func TestParseLoopMode(t *testing.T) {
	tests := []struct {
		input    string
		expected LoopMode
		wantErr  bool
	}{
		{input: "off", expected: LoopOff},
		{input: "track", expected: LoopTrack},
		{input: "queue", expected: LoopQueue},
		{input: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseLoopMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
			assert.Equal(t, tt.input, mode.String())
		})
	}
}
