package types

import (
	"errors"
	"time"
)

// Config validation errors.
var (
	ErrDataDirEmpty    = errors.New("data_dir must not be empty")
	ErrTimeoutInvalid  = errors.New("suggest timeout must be positive")
	ErrCacheTTLInvalid = errors.New("suggest cache TTL must not be negative")
	ErrRateInvalid     = errors.New("suggest rate limit must be positive")
	ErrListenAddrEmpty = errors.New("server listen address must not be empty")
)

// SuggestConfig tunes the suggestion service. The OpenAI API key is read
// from the environment, never from config files.
type SuggestConfig struct {
	Model           string        `json:"model" yaml:"model"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
	CacheTTL        time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	ActorRatePerMin int           `json:"actor_rate_per_min" yaml:"actor_rate_per_min"`
	MaxCandidates   int           `json:"max_candidates" yaml:"max_candidates"`
}

// ServerConfig tunes the HTTP surface.
type ServerConfig struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
}

// Config holds backend parameters for opening a store and running the
// services on top of it.
type Config struct {
	DataDir string        `json:"data_dir" yaml:"data_dir"`
	Suggest SuggestConfig `json:"suggest" yaml:"suggest"`
	Server  ServerConfig  `json:"server" yaml:"server"`
}

// Defaults applied by Normalize.
const (
	DefaultSuggestModel    = "gpt-4o-mini"
	DefaultSuggestTimeout  = 5 * time.Second
	DefaultSuggestCacheTTL = time.Minute
	DefaultActorRatePerMin = 10
	DefaultMaxCandidates   = 10
	DefaultListenAddr      = ":8600"
)

// Normalize fills zero-valued fields with defaults. DataDir is left alone;
// callers resolve it before Open.
func (c *Config) Normalize() {
	if c.Suggest.Model == "" {
		c.Suggest.Model = DefaultSuggestModel
	}
	if c.Suggest.Timeout == 0 {
		c.Suggest.Timeout = DefaultSuggestTimeout
	}
	if c.Suggest.CacheTTL == 0 {
		c.Suggest.CacheTTL = DefaultSuggestCacheTTL
	}
	if c.Suggest.ActorRatePerMin == 0 {
		c.Suggest.ActorRatePerMin = DefaultActorRatePerMin
	}
	if c.Suggest.MaxCandidates == 0 {
		c.Suggest.MaxCandidates = DefaultMaxCandidates
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.Suggest.Timeout < 0 {
		return ErrTimeoutInvalid
	}
	if c.Suggest.CacheTTL < 0 {
		return ErrCacheTTLInvalid
	}
	if c.Suggest.ActorRatePerMin < 0 {
		return ErrRateInvalid
	}
	return nil
}
