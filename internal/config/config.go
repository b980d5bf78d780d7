package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Game      GameConfig      `mapstructure:"game"`
	Listen    string          `mapstructure:"listen"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	WS        WSConfig        `mapstructure:"ws"`
	Session   SessionConfig   `mapstructure:"session"`
	Reconnect ReconnectConfig `mapstructure:"reconnect"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type GameConfig struct {
	ID string `mapstructure:"id"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type WSConfig struct {
	ReadLimit    int64         `mapstructure:"read_limit"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type SessionConfig struct {
	Tick time.Duration `mapstructure:"tick"`
}

// ReconnectConfig is the caller-side policy applied around the connection
// manager, which never retries by itself.
type ReconnectConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("game.id", "")
	v.SetDefault("listen", "127.0.0.1:7070")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("ws.read_limit", 1<<20)
	v.SetDefault("ws.dial_timeout", 10*time.Second)
	v.SetDefault("ws.write_timeout", 3*time.Second)
	v.SetDefault("session.tick", time.Second)
	v.SetDefault("reconnect.enabled", true)
	v.SetDefault("reconnect.max_attempts", 12)
	v.SetDefault("reconnect.backoff", 2*time.Second)
}

// Load reads an optional .env, then the YAML file at path (if any), then
// BOARD_* environment overrides (api.base_url -> BOARD_API_BASE_URL).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return fmt.Errorf("%w: api.base_url is required", ErrInvalid)
	case !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://"):
		return fmt.Errorf("%w: api.base_url must be http(s), got %q", ErrInvalid, c.API.BaseURL)
	case c.Game.ID == "":
		return fmt.Errorf("%w: game.id is required", ErrInvalid)
	case c.Reconnect.Enabled && c.Reconnect.MaxAttempts < 1:
		return fmt.Errorf("%w: reconnect.max_attempts must be positive", ErrInvalid)
	}
	return nil
}
