// Package resolver turns user-supplied references into playable tracks
// through an ordered chain of extraction profiles.
package resolver

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groovebox/internal/domain/track"
)

// Errors
var (
	// ErrResolutionFailed marks errors where every extraction profile
	// was exhausted for a reference.
	ErrResolutionFailed = errors.New("track resolution failed")
	ErrNoProfiles       = errors.New("no extraction profiles configured")
)

// Extraction is the raw result of one extractor profile attempt. Either
// StreamURL is set directly, or Formats carries the candidates to pick
// an audio stream from.
type Extraction struct {
	Title       string
	StreamURL   string
	PageURL     string
	DurationSec float64
	Formats     []Format
}

// Extractor is one extraction profile: a client/identity strategy tried
// as part of the fallback chain.
type Extractor interface {
	// Name returns the profile name (used in logs).
	Name() string

	// Extract resolves a media URL or search query into an extraction.
	Extract(ctx context.Context, reference string) (*Extraction, error)

	// ExpandPlaylist expands a collection reference into at most limit
	// item references, in collection order.
	ExpandPlaylist(ctx context.Context, reference string, limit int) ([]string, error)
}

// CatalogTranslator translates external catalog references into native
// search queries. Optional: a nil translator degrades to direct search.
type CatalogTranslator interface {
	// Matches reports whether the reference belongs to this catalog.
	Matches(reference string) bool

	// Translate converts the reference into one or more search queries,
	// in catalog order.
	Translate(ctx context.Context, reference string) ([]string, error)
}

// Config holds resolver configuration.
type Config struct {
	PreferredFormat string        // Container preferred by the format comparator
	ProfileTimeout  time.Duration // Upper bound for one profile attempt
	PlaylistCap     int           // Maximum entries expanded from a collection
}

// Resolver resolves references by trying extraction profiles in order
// until one succeeds.
type Resolver struct {
	profiles []Extractor
	catalog  CatalogTranslator
	config   Config
}

// New creates a resolver. catalog may be nil.
func New(profiles []Extractor, catalog CatalogTranslator, cfg Config) *Resolver {
	if cfg.PreferredFormat == "" {
		cfg.PreferredFormat = "m4a"
	}
	if cfg.ProfileTimeout <= 0 {
		cfg.ProfileTimeout = 20 * time.Second
	}
	if cfg.PlaylistCap <= 0 {
		cfg.PlaylistCap = 50
	}
	return &Resolver{
		profiles: profiles,
		catalog:  catalog,
		config:   cfg,
	}
}

// Resolve resolves a reference to a single track. Collection references
// resolve to their first playable entry.
func (r *Resolver) Resolve(ctx context.Context, reference, requesterID, requesterName string) (track.Track, error) {
	tracks, err := r.ResolveAll(ctx, reference, requesterID, requesterName)
	if err != nil {
		return track.Track{}, err
	}
	return tracks[0], nil
}

// ResolveAll expands collection references and resolves every entry.
// Entries that fail resolution are skipped individually; the call fails
// only when zero entries resolve.
func (r *Resolver) ResolveAll(ctx context.Context, reference, requesterID, requesterName string) ([]track.Track, error) {
	entries := r.expand(ctx, reference)

	tracks := make([]track.Track, 0, len(entries))
	var lastErr error
	for i, entry := range entries {
		t, err := r.resolveOne(ctx, entry, requesterID, requesterName)
		if err != nil {
			zlog.Warn().Msgf("skipping unresolvable entry: index=%d reference=%s error=%v", i+1, entry, err)
			lastErr = err
			continue
		}
		tracks = append(tracks, t)
	}

	if len(tracks) == 0 {
		if lastErr == nil {
			lastErr = errors.Newf("no playable entries in %s", reference)
		}
		return nil, errors.Mark(lastErr, ErrResolutionFailed)
	}
	return tracks, nil
}

// expand turns a reference into the ordered list of entries to resolve:
// catalog links become search queries, collection URLs become their
// items, anything else passes through unchanged.
func (r *Resolver) expand(ctx context.Context, reference string) []string {
	if r.catalog != nil && r.catalog.Matches(reference) {
		queries, err := r.catalog.Translate(ctx, reference)
		if err != nil {
			zlog.Warn().Msgf("catalog translation failed, falling back to direct search: reference=%s error=%v", reference, err)
			return []string{reference}
		}
		if len(queries) == 0 {
			return []string{reference}
		}
		if len(queries) > r.config.PlaylistCap {
			queries = queries[:r.config.PlaylistCap]
		}
		return queries
	}

	if IsPlaylistURL(reference) {
		if entries := r.expandPlaylist(ctx, reference); len(entries) > 0 {
			return entries
		}
	}

	return []string{reference}
}

// expandPlaylist expands a collection URL using the first profile that
// succeeds. All profiles failing is not fatal: the caller falls back to
// treating the reference as a single item.
func (r *Resolver) expandPlaylist(ctx context.Context, reference string) []string {
	for _, p := range r.profiles {
		attemptCtx, cancel := context.WithTimeout(ctx, r.config.ProfileTimeout)
		entries, err := p.ExpandPlaylist(attemptCtx, reference, r.config.PlaylistCap)
		cancel()
		if err != nil {
			zlog.Debug().Msgf("playlist expansion failed: profile=%s reference=%s error=%v", p.Name(), reference, err)
			continue
		}
		if len(entries) > r.config.PlaylistCap {
			entries = entries[:r.config.PlaylistCap]
		}
		zlog.Info().Msgf("expanded playlist: profile=%s reference=%s entries=%d", p.Name(), reference, len(entries))
		return entries
	}
	return nil
}

// resolveOne tries the extraction profiles in order. The first success
// wins; when every profile fails the last error is surfaced.
func (r *Resolver) resolveOne(ctx context.Context, reference, requesterID, requesterName string) (track.Track, error) {
	if len(r.profiles) == 0 {
		return track.Track{}, ErrNoProfiles
	}

	var lastErr error
	for _, p := range r.profiles {
		attemptCtx, cancel := context.WithTimeout(ctx, r.config.ProfileTimeout)
		ext, err := p.Extract(attemptCtx, reference)
		cancel()
		if err != nil {
			zlog.Debug().Msgf("extraction profile failed: profile=%s reference=%s error=%v", p.Name(), reference, err)
			lastErr = err
			continue
		}

		t, err := r.buildTrack(ext, reference, requesterID, requesterName)
		if err != nil {
			zlog.Debug().Msgf("extraction unusable: profile=%s reference=%s error=%v", p.Name(), reference, err)
			lastErr = err
			continue
		}
		return t, nil
	}

	return track.Track{}, errors.Mark(
		errors.Wrapf(lastErr, "all %d extraction profiles failed for %s", len(r.profiles), reference),
		ErrResolutionFailed,
	)
}

// buildTrack converts an extraction into a track, selecting an audio
// format when no direct stream was returned.
func (r *Resolver) buildTrack(ext *Extraction, reference, requesterID, requesterName string) (track.Track, error) {
	streamURL := ext.StreamURL
	if streamURL == "" {
		f, ok := SelectAudioFormat(ext.Formats, r.config.PreferredFormat)
		if !ok {
			return track.Track{}, errors.Newf("no audio stream available for %s", reference)
		}
		streamURL = f.URL
	}

	title := ext.Title
	if title == "" {
		title = "Unknown"
	}
	pageURL := ext.PageURL
	if pageURL == "" {
		pageURL = reference
	}

	return track.Track{
		Title:         title,
		StreamURL:     streamURL,
		PageURL:       pageURL,
		Duration:      NormalizeDuration(ext.DurationSec),
		RequesterID:   requesterID,
		RequesterName: requesterName,
	}, nil
}
