package view

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/groovebox/internal/domain/track"
)

func sampleTracks(n int) []track.Track {
	tracks := make([]track.Track, n)
	for i := range tracks {
		tracks[i] = track.Track{
			Title:         fmt.Sprintf("track %02d", i+1),
			RequesterName: "alice",
		}
	}
	return tracks
}

func TestView_PageCount(t *testing.T) {
	tests := []struct {
		name   string
		tracks int
		want   int
	}{
		{name: "empty snapshot still has one page", tracks: 0, want: 1},
		{name: "partial page", tracks: 7, want: 1},
		{name: "exact page", tracks: 10, want: 1},
		{name: "one over", tracks: 11, want: 2},
		{name: "several pages", tracks: 25, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(Options{OwnerID: "u1", Tracks: sampleTracks(tt.tracks), PageSize: 10})
			assert.Equal(t, tt.want, v.PageCount())
		})
	}
}

func TestView_NavigationClampsAtBoundaries(t *testing.T) {
	v := New(Options{OwnerID: "u1", Tracks: sampleTracks(25), PageSize: 10})

	// Already on the first page.
	require.NoError(t, v.Previous("u1"))
	assert.Contains(t, v.Render(), "Page 1/3")

	require.NoError(t, v.Next("u1"))
	require.NoError(t, v.Next("u1"))
	assert.Contains(t, v.Render(), "Page 3/3")

	// Past the last page.
	require.NoError(t, v.Next("u1"))
	assert.Contains(t, v.Render(), "Page 3/3")
}

func TestView_NonOwnerRejected(t *testing.T) {
	v := New(Options{OwnerID: "u1", Tracks: sampleTracks(25), PageSize: 10})

	assert.ErrorIs(t, v.Next("u2"), ErrNotOwner)
	assert.ErrorIs(t, v.Previous("u2"), ErrNotOwner)
	assert.Contains(t, v.Render(), "Page 1/3")
}

func TestView_ExpiredNavigation(t *testing.T) {
	v := New(Options{OwnerID: "u1", Tracks: sampleTracks(25), PageSize: 10, TTL: time.Millisecond})
	time.Sleep(5 * time.Millisecond)

	assert.ErrorIs(t, v.Next("u1"), ErrExpired)
	// Rendering still works after expiry.
	assert.Contains(t, v.Render(), "Page 1/3")
}

func TestView_RenderGlobalIndices(t *testing.T) {
	v := New(Options{OwnerID: "u1", Tracks: sampleTracks(25), PageSize: 10})
	require.NoError(t, v.Next("u1"))

	out := v.Render()
	assert.Contains(t, out, "11. track 11")
	assert.Contains(t, out, "20. track 20")
	assert.NotContains(t, out, "10. track 10")
	assert.NotContains(t, out, "21. track 21")
}

func TestView_RenderNowPlayingHeader(t *testing.T) {
	np := &track.Track{Title: "current song", Duration: 245 * time.Second, RequesterName: "bob"}
	v := New(Options{
		OwnerID:    "u1",
		Tracks:     sampleTracks(2),
		NowPlaying: np,
		Elapsed:    63 * time.Second,
		PageSize:   10,
	})

	out := v.Render()
	lines := strings.Split(out, "\n")
	assert.Equal(t, "Now Playing: current song [1:03/4:05] — requested by bob", lines[0])
}

func TestView_RenderEmptyQueue(t *testing.T) {
	v := New(Options{OwnerID: "u1", PageSize: 10})

	out := v.Render()
	assert.Contains(t, out, "Up next: (empty)")
	assert.Contains(t, out, "Page 1/1")
}

func TestStore(t *testing.T) {
	s := NewStore()

	live := New(Options{OwnerID: "u1", Tracks: sampleTracks(3), PageSize: 10})
	s.Put(live)

	got, err := s.Get(live.ID())
	require.NoError(t, err)
	assert.Same(t, live, got)

	expired := New(Options{OwnerID: "u1", PageSize: 10, TTL: time.Millisecond})
	s.Put(expired)
	time.Sleep(5 * time.Millisecond)

	_, err = s.Get(expired.ID())
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, 1, s.Len())

	_, err = s.Get(expired.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}
