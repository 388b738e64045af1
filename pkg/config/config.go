// Package config describes the runtime settings of the Legatum server and
// reads them from a viper instance. Keys are dash-separated flag names; with
// the LEGATUM env prefix "spotify-client-id" is read from
// LEGATUM_SPOTIFY_CLIENT_ID.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "LEGATUM"

// Config holds every setting of the service, resolved from flags,
// environment and defaults.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Spotify   SpotifyConfig
	LastFM    LastFMConfig
	YouTube   YouTubeConfig
	Wikipedia WikipediaConfig
	HTTP      HTTPConfig
	Cache     CacheConfig
	Throttle  ThrottleConfig
	// OfflineMode serves the offline preview endpoint.
	OfflineMode bool
}

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Addr string
}

// LogConfig selects the logrus level and formatter (text or json).
type LogConfig struct {
	Level  string
	Format string
}

// SpotifyConfig carries the primary catalog credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string
	Market       string
}

// LastFMConfig configures the secondary metadata source.
type LastFMConfig struct {
	APIKey string
	APIURL string
	Lang   string
}

// YouTubeConfig configures the video search source.
type YouTubeConfig struct {
	APIKey    string
	SearchURL string
}

// WikipediaConfig configures biography lookups; Sentences caps the extract.
type WikipediaConfig struct {
	Lang      string
	APIURL    string
	Sentences int
}

// HTTPConfig bounds every upstream call.
type HTTPConfig struct {
	Timeout          time.Duration
	QuickTimeout     time.Duration
	MaxRetries       int
	RetryDelay       time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// CacheConfig sizes the memo cache.
type CacheConfig struct {
	TTL  time.Duration
	Size int
	// Path enables the SQLite backing tier when set.
	Path string
}

// ThrottleConfig is the per-client request allowance.
type ThrottleConfig struct {
	Requests int
	Window   time.Duration
}

// Default returns the production defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":5000"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Spotify: SpotifyConfig{
			TokenURL: "https://accounts.spotify.com/api/token",
			APIURL:   "https://api.spotify.com/v1",
			Market:   "MX",
		},
		LastFM: LastFMConfig{
			APIURL: "https://ws.audioscrobbler.com/2.0/",
			Lang:   "es",
		},
		YouTube:   YouTubeConfig{SearchURL: "https://www.googleapis.com/youtube/v3/search"},
		Wikipedia: WikipediaConfig{Lang: "es", Sentences: 4},
		HTTP: HTTPConfig{
			Timeout:          5 * time.Second,
			QuickTimeout:     3 * time.Second,
			MaxRetries:       2,
			RetryDelay:       500 * time.Millisecond,
			BreakerThreshold: 5,
			BreakerCooldown:  time.Minute,
		},
		Cache:       CacheConfig{TTL: time.Hour, Size: 1024},
		Throttle:    ThrottleConfig{Requests: 200, Window: time.Minute},
		OfflineMode: true,
	}
}

// Defaults returns every key with its default value, for flag registration
// and viper defaults.
func Defaults() map[string]any {
	d := Default()
	return map[string]any{
		"server-addr":           d.Server.Addr,
		"log-level":             d.Log.Level,
		"log-format":            d.Log.Format,
		"spotify-client-id":     d.Spotify.ClientID,
		"spotify-client-secret": d.Spotify.ClientSecret,
		"spotify-token-url":     d.Spotify.TokenURL,
		"spotify-api-url":       d.Spotify.APIURL,
		"spotify-market":        d.Spotify.Market,
		"lastfm-api-key":        d.LastFM.APIKey,
		"lastfm-api-url":        d.LastFM.APIURL,
		"lastfm-lang":           d.LastFM.Lang,
		"youtube-api-key":       d.YouTube.APIKey,
		"youtube-search-url":    d.YouTube.SearchURL,
		"wikipedia-lang":        d.Wikipedia.Lang,
		"wikipedia-api-url":     d.Wikipedia.APIURL,
		"wikipedia-sentences":   d.Wikipedia.Sentences,
		"http-timeout":          d.HTTP.Timeout,
		"http-quick-timeout":    d.HTTP.QuickTimeout,
		"http-max-retries":      d.HTTP.MaxRetries,
		"http-retry-delay":      d.HTTP.RetryDelay,
		"breaker-threshold":     d.HTTP.BreakerThreshold,
		"breaker-cooldown":      d.HTTP.BreakerCooldown,
		"cache-ttl":             d.Cache.TTL,
		"cache-size":            d.Cache.Size,
		"cache-path":            d.Cache.Path,
		"throttle-requests":     d.Throttle.Requests,
		"throttle-window":       d.Throttle.Window,
		"offline-mode":          d.OfflineMode,
	}
}

// Bind sets the defaults, the env prefix and automatic env lookup on v.
func Bind(v *viper.Viper) {
	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	Bind(v)
	cfg := &Config{
		Server: ServerConfig{Addr: v.GetString("server-addr")},
		Log:    LogConfig{Level: v.GetString("log-level"), Format: v.GetString("log-format")},
		Spotify: SpotifyConfig{
			ClientID:     v.GetString("spotify-client-id"),
			ClientSecret: v.GetString("spotify-client-secret"),
			TokenURL:     v.GetString("spotify-token-url"),
			APIURL:       v.GetString("spotify-api-url"),
			Market:       v.GetString("spotify-market"),
		},
		LastFM: LastFMConfig{
			APIKey: v.GetString("lastfm-api-key"),
			APIURL: v.GetString("lastfm-api-url"),
			Lang:   v.GetString("lastfm-lang"),
		},
		YouTube: YouTubeConfig{
			APIKey:    v.GetString("youtube-api-key"),
			SearchURL: v.GetString("youtube-search-url"),
		},
		Wikipedia: WikipediaConfig{
			Lang:      v.GetString("wikipedia-lang"),
			APIURL:    v.GetString("wikipedia-api-url"),
			Sentences: v.GetInt("wikipedia-sentences"),
		},
		HTTP: HTTPConfig{
			Timeout:          v.GetDuration("http-timeout"),
			QuickTimeout:     v.GetDuration("http-quick-timeout"),
			MaxRetries:       v.GetInt("http-max-retries"),
			RetryDelay:       v.GetDuration("http-retry-delay"),
			BreakerThreshold: v.GetInt("breaker-threshold"),
			BreakerCooldown:  v.GetDuration("breaker-cooldown"),
		},
		Cache: CacheConfig{
			TTL:  v.GetDuration("cache-ttl"),
			Size: v.GetInt("cache-size"),
			Path: v.GetString("cache-path"),
		},
		Throttle: ThrottleConfig{
			Requests: v.GetInt("throttle-requests"),
			Window:   v.GetDuration("throttle-window"),
		},
		OfflineMode: v.GetBool("offline-mode"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot run with. Missing credentials
// are not errors; see MissingCredentials.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server-addr must be set"))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log-level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log-format must be text or json, got %q", c.Log.Format))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http-timeout must be positive"))
	}
	if c.HTTP.MaxRetries < 0 {
		errs = append(errs, errors.New("http-max-retries must not be negative"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache-ttl must be positive"))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, errors.New("cache-size must be positive"))
	}
	if c.Throttle.Requests <= 0 || c.Throttle.Window <= 0 {
		errs = append(errs, errors.New("throttle-requests and throttle-window must be positive"))
	}
	return errors.Join(errs...)
}

// MissingCredentials lists the unset credential keys. Each one disables a
// source: without Spotify credentials every primary lookup fails and
// resolution relies on Last.fm.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		missing = append(missing, "spotify-client-id/spotify-client-secret")
	}
	if c.LastFM.APIKey == "" {
		missing = append(missing, "lastfm-api-key")
	}
	if c.YouTube.APIKey == "" {
		missing = append(missing, "youtube-api-key")
	}
	return missing
}

// NewLogger builds the process logger from c.Log. Validate has already
// checked the level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
