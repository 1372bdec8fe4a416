// Config loading for the twine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/twine/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir          = "data_dir"
	cfgKeySuggestModel     = "suggest.model"
	cfgKeySuggestTimeout   = "suggest.timeout"
	cfgKeySuggestCacheTTL  = "suggest.cache_ttl"
	cfgKeySuggestActorRate = "suggest.actor_rate_per_min"
	cfgKeySuggestMaxCand   = "suggest.max_candidates"
	cfgKeyListenAddr       = "server.listen_addr"
)

// defaultConfigYAML is written to config.yaml on first run. The OpenAI API
// key is deliberately absent: it is read from OPENAI_API_KEY only.
const defaultConfigYAML = `# Twine configuration

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Suggestion service tuning
# suggest:
#   model: gpt-4o-mini
#   timeout: 5s
#   cache_ttl: 1m
#   actor_rate_per_min: 10
#   max_candidates: 10

# HTTP server
# server:
#   listen_addr: ":8600"
`

// loadConfig reads config.yaml from the config directory, creating the
// directory and a commented default file on first run. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (types.Config, error) {
	var cfg types.Config

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return cfg, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return cfg, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	cfg = types.Config{
		DataDir: v.GetString(cfgKeyDataDir),
		Suggest: types.SuggestConfig{
			Model:           v.GetString(cfgKeySuggestModel),
			Timeout:         v.GetDuration(cfgKeySuggestTimeout),
			CacheTTL:        v.GetDuration(cfgKeySuggestCacheTTL),
			ActorRatePerMin: v.GetInt(cfgKeySuggestActorRate),
			MaxCandidates:   v.GetInt(cfgKeySuggestMaxCand),
		},
		Server: types.ServerConfig{
			ListenAddr: v.GetString(cfgKeyListenAddr),
		},
	}
	cfg.Normalize()
	return cfg, nil
}

// ensureDefaultConfigFile creates a commented config.yaml when none exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
