package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/devpulse/devpulse/internal/appid"
)

var (
	configMu  sync.RWMutex
	appConfig *Config
)

// Load decodes the merged viper settings into a typed Config and resolves
// credentials from the environment. The caller (cobra initConfig) is
// responsible for reading the config file and setting defaults first.
//
// Safe to call multiple times, e.g. for SIGHUP config reload.
func Load(ctx context.Context) (*Config, error) {
	// A .env in the working directory seeds the process environment for
	// local development. Missing files are fine.
	_ = godotenv.Load()

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	cfg.GitHub.Token = resolveSecret(ctx, "GITHUB_TOKEN")
	cfg.Insight.APIKey = resolveSecret(ctx, "OPENAI_API_KEY")

	setConfig(cfg)
	return cfg, nil
}

// resolveSecret reads a credential from the prefixed app environment first,
// then the conventional unprefixed name.
func resolveSecret(ctx context.Context, name string) string {
	prefix := "DEVPULSE_"
	if identity, err := appid.Get(ctx); err == nil && identity != nil && identity.EnvPrefix != "" {
		prefix = identity.EnvPrefix
		if !strings.HasSuffix(prefix, "_") {
			prefix += "_"
		}
	}

	if value := strings.TrimSpace(os.Getenv(prefix + name)); value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv(name))
}

// GetConfig returns the current application configuration (thread-safe).
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

func appNamesForPaths(ctx context.Context) (configName string, binaryName string) {
	configName = "devpulse"
	binaryName = "devpulse"

	identity, err := appid.Get(ctx)
	if err != nil || identity == nil {
		return configName, binaryName
	}
	if strings.TrimSpace(identity.ConfigName) != "" {
		configName = identity.ConfigName
	}
	if strings.TrimSpace(identity.BinaryName) != "" {
		binaryName = identity.BinaryName
	}
	return configName, binaryName
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configName, _ := appNamesForPaths(context.Background())
	configDir := gfconfig.GetAppConfigDir(configName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	configName, _ := appNamesForPaths(context.Background())
	return gfconfig.GetAppDataDir(configName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	configName, binaryName := appNamesForPaths(context.Background())
	dataDir := gfconfig.GetAppDataDir(configName)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + binaryName + ".db"
	}
	return filepath.Join(dataDir, binaryName+".db")
}
