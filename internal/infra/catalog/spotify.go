// Package catalog translates external catalog links into native search
// queries.
package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

var spotifyURLRe = regexp.MustCompile(`^https?://open\.spotify\.com/(track|playlist)/([A-Za-z0-9]+)`)

// SpotifyTranslator turns open.spotify.com track and playlist links
// into search queries of the form "name artists audio".
type SpotifyTranslator struct {
	client     *spotify.Client
	limit      int
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify translator configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	Limit        int // Maximum queries produced from one playlist
}

// NewSpotifyTranslator creates a translator using the client
// credentials flow.
func NewSpotifyTranslator(ctx context.Context, cfg Config) (*SpotifyTranslator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := auth.Token(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to obtain spotify token")
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	limit := cfg.Limit
	if limit <= 0 {
		limit = 50
	}

	return &SpotifyTranslator{
		client:     spotify.New(httpClient),
		limit:      limit,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// Matches reports whether the reference is a Spotify track or playlist
// link.
func (t *SpotifyTranslator) Matches(reference string) bool {
	return spotifyURLRe.MatchString(reference)
}

// Translate converts a Spotify link into search queries, one per
// track, in catalog order.
func (t *SpotifyTranslator) Translate(ctx context.Context, reference string) ([]string, error) {
	m := spotifyURLRe.FindStringSubmatch(reference)
	if m == nil {
		return nil, errors.Newf("not a spotify link: %s", reference)
	}
	kind, id := m[1], spotify.ID(m[2])

	switch kind {
	case "track":
		return t.translateTrack(ctx, id)
	case "playlist":
		return t.translatePlaylist(ctx, id)
	default:
		return nil, errors.Newf("unsupported spotify link kind: %s", kind)
	}
}

func (t *SpotifyTranslator) translateTrack(ctx context.Context, id spotify.ID) ([]string, error) {
	var result *spotify.FullTrack
	err := t.retry(func() error {
		ft, err := t.client.GetTrack(ctx, id)
		if err != nil {
			return err
		}
		result = ft
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get track")
	}
	return []string{searchQuery(result.Name, result.Artists)}, nil
}

func (t *SpotifyTranslator) translatePlaylist(ctx context.Context, id spotify.ID) ([]string, error) {
	var queries []string
	offset := 0
	pageSize := 100

	for len(queries) < t.limit {
		var page *spotify.PlaylistItemPage
		err := t.retry(func() error {
			p, err := t.client.GetPlaylistItems(ctx, id,
				spotify.Limit(pageSize),
				spotify.Offset(offset),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get playlist items")
		}

		for _, item := range page.Items {
			// Episodes and removed tracks come back without a track.
			if item.Track.Track == nil || item.Track.Track.ID == "" {
				continue
			}
			ft := item.Track.Track
			queries = append(queries, searchQuery(ft.Name, ft.Artists))
			if len(queries) >= t.limit {
				break
			}
		}

		if len(page.Items) < pageSize {
			break
		}
		offset += pageSize
	}

	if len(queries) == 0 {
		return nil, errors.Newf("playlist %s has no tracks", id)
	}
	return queries, nil
}

func (t *SpotifyTranslator) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < t.maxRetries-1 {
			time.Sleep(t.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// searchQuery builds the "name artists audio" query used to find a
// catalog track on the media host.
func searchQuery(name string, artists []spotify.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return fmt.Sprintf("%s %s audio", name, strings.Join(names, ", "))
}
