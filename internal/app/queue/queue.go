// Package queue provides the per-session playback queue.
package queue

import (
	"context"
	"math/rand"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/groovebox/internal/domain/track"
)

// Errors
var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNotEnoughTracks = errors.New("not enough tracks")
)

// Queue is an ordered, index-addressable sequence of tracks with a
// single blocking consumer. Command operations address entries with
// 1-based indices; internally the sequence is 0-based.
type Queue struct {
	mu    sync.Mutex
	items []track.Track
	wake  chan struct{}
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends a track to the tail and wakes a blocked consumer.
func (q *Queue) Enqueue(t track.Track) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()
	q.signal()
}

// PushFront inserts a track at the head. Used by track-loop re-queueing
// so the completed track plays again immediately.
func (q *Queue) PushFront(t track.Track) {
	q.mu.Lock()
	q.items = append([]track.Track{t}, q.items...)
	q.mu.Unlock()
	q.signal()
}

// Dequeue removes and returns the head track in FIFO order, blocking
// until one is available or the context is cancelled. Single consumer
// only.
func (q *Queue) Dequeue(ctx context.Context) (track.Track, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			t := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return t, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return track.Track{}, ctx.Err()
		case <-q.wake:
		}
	}
}

// Snapshot returns an ordered copy of the queued tracks without
// consuming them.
func (q *Queue) Snapshot() []track.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]track.Track, len(q.items))
	copy(result, q.items)
	return result
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// RemoveRange removes the inclusive 1-based window [start, end] and
// returns the removed tracks. Indices are swapped when start > end and
// clamped to [1, len]; the call fails only when the window lies entirely
// past the end of the queue.
func (q *Queue) RemoveRange(start, end int) ([]track.Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if start > end {
		start, end = end, start
	}
	if start < 1 {
		start = 1
	}
	if end > len(q.items) {
		end = len(q.items)
	}
	if start > len(q.items) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "queue has %d tracks", len(q.items))
	}

	removed := make([]track.Track, end-start+1)
	copy(removed, q.items[start-1:end])
	q.items = append(q.items[:start-1], q.items[end:]...)
	return removed, nil
}

// Move relocates the track at src to position dest (both 1-based) and
// returns the moved track. Moving a track onto itself is a no-op.
func (q *Queue) Move(src, dest int) (track.Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	if src < 1 || src > n || dest < 1 || dest > n {
		return track.Track{}, errors.Wrapf(ErrIndexOutOfRange, "queue has %d tracks", n)
	}

	t := q.items[src-1]
	if src == dest {
		return t, nil
	}

	q.items = append(q.items[:src-1], q.items[src:]...)
	q.items = append(q.items[:dest-1], append([]track.Track{t}, q.items[dest-1:]...)...)
	return t, nil
}

// Shuffle randomly permutes the queued tracks in place and returns the
// number of tracks shuffled.
func (q *Queue) Shuffle() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) < 2 {
		return 0, ErrNotEnoughTracks
	}

	rand.Shuffle(len(q.items), func(i, j int) {
		q.items[i], q.items[j] = q.items[j], q.items[i]
	})
	return len(q.items), nil
}

// Drain removes and returns all queued tracks in order.
func (q *Queue) Drain() []track.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := q.items
	q.items = nil
	return removed
}

// signal wakes a blocked consumer without ever blocking the caller.
func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
