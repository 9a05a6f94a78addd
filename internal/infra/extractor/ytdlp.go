// Package extractor provides extraction profiles backed by the yt-dlp
// CLI.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/lrstanley/go-ytdlp"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/groovebox/internal/app/resolver"
)

// YtdlpSettings configures one yt-dlp extraction profile.
type YtdlpSettings struct {
	PlayerClient string `yaml:"player_client" mapstructure:"player_client" default:"android" validate:"oneof=android web tv ios"`
}

// YtdlpExtractor is one extraction profile: a yt-dlp invocation pinned
// to a single player client identity.
type YtdlpExtractor struct {
	displayName  string
	searchPrefix string
	format       string
	settings     *YtdlpSettings
}

// NewYtdlpExtractor creates a profile from its settings map.
func NewYtdlpExtractor(displayName, searchPrefix, preferredFormat string, settings map[string]any) (*YtdlpExtractor, error) {
	var cfg YtdlpSettings
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	if searchPrefix == "" {
		searchPrefix = "ytsearch"
	}
	return &YtdlpExtractor{
		displayName:  displayName,
		searchPrefix: searchPrefix,
		format:       formatSelector(preferredFormat),
		settings:     &cfg,
	}, nil
}

// Name returns the profile display name.
func (e *YtdlpExtractor) Name() string {
	return e.displayName
}

// Extract resolves a media URL or search query into a single
// extraction using this profile's player client.
func (e *YtdlpExtractor) Extract(ctx context.Context, reference string) (*resolver.Extraction, error) {
	dl := ytdlp.New().
		SkipDownload().
		DumpSingleJSON().
		NoPlaylist().
		Quiet().
		NoWarnings().
		DefaultSearch(e.searchPrefix).
		Format(e.format).
		ExtractorArgs("youtube:player_client=" + e.settings.PlayerClient)

	res, err := dl.Run(ctx, reference)
	if err != nil {
		return nil, errors.Wrapf(err, "yt-dlp extraction failed (client %s)", e.settings.PlayerClient)
	}

	info, err := parseInfo([]byte(res.Stdout))
	if err != nil {
		return nil, err
	}
	return info.toExtraction(reference)
}

// ExpandPlaylist lists the item URLs of a playlist without resolving
// them, in playlist order.
func (e *YtdlpExtractor) ExpandPlaylist(ctx context.Context, reference string, limit int) ([]string, error) {
	dl := ytdlp.New().
		SkipDownload().
		DumpSingleJSON().
		FlatPlaylist().
		Quiet().
		NoWarnings().
		PlaylistItems("1:" + strconv.Itoa(limit)).
		ExtractorArgs("youtube:player_client=" + e.settings.PlayerClient)

	res, err := dl.Run(ctx, reference)
	if err != nil {
		return nil, errors.Wrapf(err, "yt-dlp playlist expansion failed (client %s)", e.settings.PlayerClient)
	}

	info, err := parseInfo([]byte(res.Stdout))
	if err != nil {
		return nil, err
	}

	entries := make([]string, 0, len(info.Entries))
	for _, entry := range info.Entries {
		switch {
		case entry.URL != "":
			entries = append(entries, entry.URL)
		case entry.ID != "":
			entries = append(entries, "https://www.youtube.com/watch?v="+entry.ID)
		}
		if len(entries) >= limit {
			break
		}
	}
	if len(entries) == 0 {
		return nil, errors.Newf("playlist %s has no entries", reference)
	}
	return entries, nil
}

// formatSelector builds the yt-dlp format expression preferring the
// given audio container.
func formatSelector(preferred string) string {
	if preferred == "" {
		preferred = "m4a"
	}
	return "bestaudio[ext=" + preferred + "]/bestaudio/best"
}

// infoJSON mirrors the subset of yt-dlp's single-JSON output the
// resolver needs.
type infoJSON struct {
	Type        string       `json:"_type"`
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	WebpageURL  string       `json:"webpage_url"`
	OriginalURL string       `json:"original_url"`
	Duration    jsonFloat    `json:"duration"`
	Formats     []formatJSON `json:"formats"`
	Entries     []infoJSON   `json:"entries"`
}

type formatJSON struct {
	URL    string    `json:"url"`
	Ext    string    `json:"ext"`
	ABR    jsonFloat `json:"abr"`
	ACodec string    `json:"acodec"`
	VCodec string    `json:"vcodec"`
}

// jsonFloat tolerates the malformed durations yt-dlp sometimes emits:
// strings, null, or garbage all decode to zero instead of failing the
// whole extraction.
type jsonFloat float64

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = jsonFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	*f = jsonFloat(v)
	return nil
}

// parseInfo decodes yt-dlp single-JSON output.
func parseInfo(data []byte) (*infoJSON, error) {
	var info infoJSON
	if err := json.Unmarshal(bytes.TrimSpace(data), &info); err != nil {
		return nil, errors.Wrap(err, "failed to parse yt-dlp output")
	}
	return &info, nil
}

// toExtraction converts decoded info to the resolver's extraction
// shape. A playlist-typed result collapses to its first entry, which
// is how searches come back.
func (i *infoJSON) toExtraction(reference string) (*resolver.Extraction, error) {
	if i.Type == "playlist" {
		if len(i.Entries) == 0 {
			return nil, errors.Newf("no results for %s", reference)
		}
		return i.Entries[0].toExtraction(reference)
	}

	pageURL := i.WebpageURL
	if pageURL == "" {
		pageURL = i.OriginalURL
	}

	formats := make([]resolver.Format, 0, len(i.Formats))
	for _, f := range i.Formats {
		formats = append(formats, resolver.Format{
			URL:    f.URL,
			Ext:    f.Ext,
			ABR:    float64(f.ABR),
			ACodec: f.ACodec,
			VCodec: f.VCodec,
		})
	}

	return &resolver.Extraction{
		Title:       i.Title,
		StreamURL:   i.URL,
		PageURL:     pageURL,
		DurationSec: float64(i.Duration),
		Formats:     formats,
	}, nil
}
