// Package view provides ephemeral paginated renderings of a queue
// snapshot, navigable only by the requester that opened them.
package view

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/osa030/groovebox/internal/domain/track"
)

// Errors
var (
	ErrNotOwner = errors.New("view belongs to another requester")
	ErrExpired  = errors.New("view expired")
)

// View is a point-in-time snapshot of a session's queue, split into
// pages. Navigation mutates only the page cursor; the snapshot never
// changes after creation.
type View struct {
	id      uuid.UUID
	ownerID string

	mu         sync.Mutex
	tracks     []track.Track
	nowPlaying *track.Track
	elapsed    time.Duration
	pageIndex  int
	pageSize   int
	expiresAt  time.Time
}

// Options configures a new view.
type Options struct {
	OwnerID    string
	Tracks     []track.Track
	NowPlaying *track.Track
	Elapsed    time.Duration
	PageSize   int
	TTL        time.Duration
}

// New creates a view positioned on the first page.
func New(opts Options) *View {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.TTL <= 0 {
		opts.TTL = 3 * time.Minute
	}
	tracks := append([]track.Track{}, opts.Tracks...)
	var np *track.Track
	if opts.NowPlaying != nil {
		cp := *opts.NowPlaying
		np = &cp
	}
	return &View{
		id:         uuid.New(),
		ownerID:    opts.OwnerID,
		tracks:     tracks,
		nowPlaying: np,
		elapsed:    opts.Elapsed,
		pageSize:   opts.PageSize,
		expiresAt:  time.Now().Add(opts.TTL),
	}
}

// ID returns the view key.
func (v *View) ID() uuid.UUID { return v.id }

// OwnerID returns the requester that opened the view.
func (v *View) OwnerID() string { return v.ownerID }

// PageCount returns the number of pages, at least 1 even when the
// snapshot is empty.
func (v *View) PageCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageCount()
}

func (v *View) pageCount() int {
	n := (len(v.tracks) + v.pageSize - 1) / v.pageSize
	if n < 1 {
		return 1
	}
	return n
}

// Expired reports whether the view's lifetime has elapsed.
func (v *View) Expired() bool {
	return time.Now().After(v.expiresAt)
}

// Next advances one page. Requests past the last page leave the cursor
// unchanged.
func (v *View) Next(requesterID string) error {
	return v.navigate(requesterID, 1)
}

// Previous steps back one page. Requests before the first page leave
// the cursor unchanged.
func (v *View) Previous(requesterID string) error {
	return v.navigate(requesterID, -1)
}

func (v *View) navigate(requesterID string, delta int) error {
	if requesterID != v.ownerID {
		return ErrNotOwner
	}
	if v.Expired() {
		return ErrExpired
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	next := v.pageIndex + delta
	if next < 0 || next >= v.pageCount() {
		return nil
	}
	v.pageIndex = next
	return nil
}

// Render produces the current page: a now-playing header when a track
// is active, then the page's entries with their global queue positions.
// Rendering stays available after expiry.
func (v *View) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	var b strings.Builder

	if v.nowPlaying != nil {
		t := v.nowPlaying
		if t.HasDuration() {
			elapsed := v.elapsed
			if elapsed > t.Duration {
				elapsed = t.Duration
			}
			fmt.Fprintf(&b, "Now Playing: %s [%s/%s] — requested by %s\n",
				t.Title, track.FormatDuration(elapsed), track.FormatDuration(t.Duration), t.RequesterName)
		} else {
			fmt.Fprintf(&b, "Now Playing: %s [%s] — requested by %s\n",
				t.Title, track.FormatDuration(v.elapsed), t.RequesterName)
		}
	}

	if len(v.tracks) == 0 {
		b.WriteString("Up next: (empty)\n")
	} else {
		b.WriteString("Up next:\n")
		start := v.pageIndex * v.pageSize
		end := start + v.pageSize
		if end > len(v.tracks) {
			end = len(v.tracks)
		}
		for i := start; i < end; i++ {
			t := v.tracks[i]
			fmt.Fprintf(&b, "%d. %s — requested by %s\n", i+1, t.Title, t.RequesterName)
		}
	}

	fmt.Fprintf(&b, "Page %d/%d", v.pageIndex+1, v.pageCount())
	return b.String()
}
