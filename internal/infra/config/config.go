// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Player   PlayerConfig   `yaml:"player"`
	Resolver ResolverConfig `yaml:"resolver"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	View     ViewConfig     `yaml:"view"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:":8080"`
}

// PlayerConfig represents playback session configuration.
type PlayerConfig struct {
	Volume      float64 `yaml:"volume" default:"0.5" validate:"gte=0,lte=1"`
	PlaylistCap int     `yaml:"playlist_cap" default:"50" validate:"gte=1,lte=500"`
}

// ResolverConfig represents track resolution configuration.
type ResolverConfig struct {
	PreferredFormat   string          `yaml:"preferred_format" default:"m4a"`
	ProfileTimeoutSec int             `yaml:"profile_timeout_sec" default:"20" validate:"gte=1,lte=300"`
	SearchPrefix      string          `yaml:"search_prefix" default:"ytsearch"`
	Profiles          []ProfileConfig `yaml:"profiles" validate:"required,min=1"`
}

// ProfileConfig represents a single extraction profile configuration.
type ProfileConfig struct {
	Type        string         `yaml:"type" validate:"required"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// CatalogConfig represents external catalog configuration.
type CatalogConfig struct {
	Spotify SpotifyConfig `yaml:"spotify"`
}

// SpotifyConfig represents Spotify API configuration. Credentials are
// optional; without them catalog links degrade to direct search.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// ViewConfig represents queue view configuration.
type ViewConfig struct {
	PageSize int `yaml:"page_size" default:"10" validate:"gte=1,lte=50"`
	TTLSec   int `yaml:"ttl_sec" default:"180" validate:"gte=1"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Catalog.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Catalog.Spotify.ClientSecret = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	// Spotify credentials come as a pair or not at all.
	if (c.Catalog.Spotify.ClientID == "") != (c.Catalog.Spotify.ClientSecret == "") {
		return errors.New("catalog.spotify requires both client_id and client_secret")
	}
	return nil
}

// SpotifyEnabled reports whether catalog translation is configured.
func (c *Config) SpotifyEnabled() bool {
	return c.Catalog.Spotify.ClientID != "" && c.Catalog.Spotify.ClientSecret != ""
}

// ProfileTimeout returns the per-profile attempt timeout as a duration.
func (c *Config) ProfileTimeout() time.Duration {
	return time.Duration(c.Resolver.ProfileTimeoutSec) * time.Second
}

// ViewTTL returns the view lifetime as a duration.
func (c *Config) ViewTTL() time.Duration {
	return time.Duration(c.View.TTLSec) * time.Second
}
