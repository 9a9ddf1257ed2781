package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type LevelList []logrus.Level

func (a LevelList) MarshalText() ([]byte, error) {
	if len(a) == 0 {
		return []byte("-"), nil
	}

	var s string

	for i, e := range a {
		if i != 0 {
			s += ","
		}

		s += e.String()
	}

	return []byte(s), nil
}

func (a *LevelList) UnmarshalText(d []byte) error {
	if string(d) == "" || string(d) == "-" {
		*a = LevelList{}
		return nil
	}

	var aa LevelList

	for _, e := range strings.Split(string(d), ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}

		l, err := logrus.ParseLevel(e)
		if err != nil {
			return fmt.Errorf("config.LevelList.UnmarshalText: could not parse value as logrus level: %w", err)
		}

		aa = append(aa, l)
	}

	*a = aa

	return nil
}

// Duration is a time.Duration that reads and writes as text ("30s", "1h"),
// so it works the same from flags, environment and config files.
type Duration time.Duration

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "0" {
		*d = 0
		return nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config.Duration.UnmarshalText: could not parse value as duration: %w", err)
	}
	if v < 0 {
		return fmt.Errorf("config.Duration.UnmarshalText: duration can not be negative; got %s", v)
	}

	*d = Duration(v)

	return nil
}

type CacheMode string

const (
	// CacheModeNone sends every request upstream.
	CacheModeNone = CacheMode("none")
	// CacheModeSimple stores every successful GET for a fixed max age,
	// ignoring upstream cache headers.
	CacheModeSimple = CacheMode("simple")
	// CacheModeRFC follows upstream cache headers.
	CacheModeRFC = CacheMode("rfc")
)

func (m CacheMode) MarshalText() ([]byte, error) {
	return []byte(m), nil
}

func (m *CacheMode) UnmarshalText(d []byte) error {
	switch s := CacheMode(strings.ToLower(strings.TrimSpace(string(d)))); s {
	case "":
		*m = CacheModeNone
		return nil
	case CacheModeNone, CacheModeSimple, CacheModeRFC:
		*m = s
		return nil
	default:
		return fmt.Errorf("config.CacheMode.UnmarshalText: unrecognised input %q; valid options are none, simple, or rfc", s)
	}
}

type Config struct {
	Config                 string       `name:"config" toml:"config" yaml:"config" help:"Config file location."`
	LogLevel               logrus.Level `name:"log_level" toml:"log_level" yaml:"log_level" help:"Global log level."`
	LogDebugLevels         LevelList    `name:"log_debug_levels" toml:"log_debug_levels" yaml:"log_debug_levels" help:"Which log levels to include stack data on."`
	ApplicationAddr        string       `name:"application_addr" toml:"application_addr" yaml:"application_addr" help:"Address to listen on for application server."`
	ApplicationCachePath   string       `name:"application_cache_path" toml:"application_cache_path" yaml:"application_cache_path" help:"Location for HTTP client cache."`
	ApplicationCacheMode   CacheMode    `name:"application_cache_mode" toml:"application_cache_mode" yaml:"application_cache_mode" help:"HTTP client cache mode: none, simple, or rfc."`
	ApplicationCacheMaxAge Duration     `name:"application_cache_max_age" toml:"application_cache_max_age" yaml:"application_cache_max_age" help:"How long the simple cache keeps responses; 0 means 24h."`
	ApplicationMinify      bool         `name:"application_minify" toml:"application_minify" yaml:"application_minify" help:"Minify HTML/CSS/JS output."`
	FetchTimeout           Duration     `name:"fetch_timeout" toml:"fetch_timeout" yaml:"fetch_timeout" help:"Timeout for outbound requests; 0 disables it."`
	FetchMinimumBodySize   int          `name:"fetch_minimum_body_size" toml:"fetch_minimum_body_size" yaml:"fetch_minimum_body_size" help:"Video pages smaller than this many bytes are treated as blocked."`
	YouTubeAPIKey          string       `name:"youtube_api_key" toml:"youtube_api_key" yaml:"youtube_api_key" help:"YouTube Data API key; enables /api/youtube/video."`
	YouTubeAPIEndpoint     string       `name:"youtube_api_endpoint" toml:"youtube_api_endpoint" yaml:"youtube_api_endpoint" help:"Override for the YouTube Data API base URL."`
	YouTubeBaseURL         string       `name:"youtube_base_url" toml:"youtube_base_url" yaml:"youtube_base_url" help:"Override for the YouTube site URL used by the oEmbed route."`
}

func (c Config) CacheEnabled() bool {
	return c.ApplicationCachePath != "" && c.ApplicationCacheMode != "" && c.ApplicationCacheMode != CacheModeNone
}
