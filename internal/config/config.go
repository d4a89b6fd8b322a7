// Package config loads hxpage settings from defaults, a YAML file, HXPAGE_
// environment variables and command-line flags, in that order of precedence.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment overrides. The first underscore
// after the prefix separates section and key:
//
//	HXPAGE_LOG_LEVEL -> log.level
//	HXPAGE_APP_REFRESH_DELAY -> app.refresh_delay
const EnvPrefix = "HXPAGE_"

// Config is the full application configuration.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Server ServerConfig `koanf:"server"`
	App    AppConfig    `koanf:"app"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr         string `koanf:"addr" validate:"required"`
	DispatchPath string `koanf:"dispatch_path" validate:"required,startswith=/"`
	// Key is the hex-encoded token signing key. Empty means a random key per
	// process.
	Key string `koanf:"key" validate:"omitempty,hexadecimal"`
	// SessionTTL is how long an idle session survives. Zero keeps sessions
	// until shutdown.
	SessionTTL time.Duration `koanf:"session_ttl" validate:"min=0"`
}

// AppConfig controls each application instance.
type AppConfig struct {
	RefreshDelay       time.Duration `koanf:"refresh_delay" validate:"min=0"`
	IDLength           int           `koanf:"id_length" validate:"min=1,max=32"`
	Mode               string        `koanf:"mode" validate:"oneof=keyed log"`
	IsolateSubscribers bool          `koanf:"isolate_subscribers"`
	ValidateScripts    bool          `koanf:"validate_scripts"`
	MaxPublishDepth    int           `koanf:"max_publish_depth" validate:"min=0"`
	SealedTokens       bool          `koanf:"sealed_tokens"`
}

// KeyBytes decodes the signing key. It returns nil when no key is set.
func (s ServerConfig) KeyBytes() ([]byte, error) {
	if s.Key == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s.Key)
	if err != nil {
		return nil, fmt.Errorf("config: server.key: %w", err)
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("config: server.key must be at least 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			DispatchPath: "/_hx/dispatch",
			SessionTTL:   30 * time.Minute,
		},
		App: AppConfig{
			RefreshDelay:    100 * time.Millisecond,
			IDLength:        4,
			Mode:            "keyed",
			MaxPublishDepth: 64,
		},
	}
}

func defaultMap() map[string]any {
	def := Default()
	return map[string]any{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,

		"server.addr":          def.Server.Addr,
		"server.dispatch_path": def.Server.DispatchPath,
		"server.key":           def.Server.Key,
		"server.session_ttl":   def.Server.SessionTTL.String(),

		"app.refresh_delay":       def.App.RefreshDelay.String(),
		"app.id_length":           def.App.IDLength,
		"app.mode":                def.App.Mode,
		"app.isolate_subscribers": def.App.IsolateSubscribers,
		"app.validate_scripts":    def.App.ValidateScripts,
		"app.max_publish_depth":   def.App.MaxPublishDepth,
		"app.sealed_tokens":       def.App.SealedTokens,
	}
}

// BindFlags defines flags overriding configuration keys. Flag names are the
// dotted keys, so posflag maps them directly.
func BindFlags(flags *pflag.FlagSet) {
	def := Default()
	flags.String("log.level", def.Log.Level, "Log level (trace, debug, info, warn, error, disabled)")
	flags.String("log.format", def.Log.Format, "Log format (text, json)")
	flags.String("server.addr", def.Server.Addr, "Listen address")
	flags.Duration("server.session_ttl", def.Server.SessionTTL, "Idle time after which a session is dropped (0 keeps sessions)")
	flags.String("app.mode", def.App.Mode, "Listener mode (keyed, log)")
	flags.Duration("app.refresh_delay", def.App.RefreshDelay, "Delay between a render and the script refresh")
	flags.Bool("app.validate_scripts", def.App.ValidateScripts, "Parse handler scripts before injecting them")
	flags.Bool("debug", false, "Enable debug logging")
}

// Load merges every source and validates the result. path may be empty; a
// missing file is skipped.
func Load(flags *pflag.FlagSet, path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: checking %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("config: loading flags: %w", err)
		}
		if f := flags.Lookup("debug"); f != nil && f.Value.String() == "true" {
			_ = k.Set("log.level", "debug")
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(name string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_", ".", 1)
}

var validate = validator.New()

// Validate checks field constraints.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}
