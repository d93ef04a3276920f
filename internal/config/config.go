// Package config loads server configuration from YAML with BATTLE_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Game     GameConfig     `mapstructure:"game"`
	Throttle ThrottleConfig `mapstructure:"throttle"`
}

type ServerConfig struct {
	GRPC        GRPCConfig      `mapstructure:"grpc"`
	WebSocket   WebSocketConfig `mapstructure:"websocket"`
	LeasePeriod time.Duration   `mapstructure:"lease_period"`
}

type GRPCConfig struct {
	Address              string        `mapstructure:"address"`
	MaxConcurrentStreams int           `mapstructure:"max_concurrent_streams"`
	KeepaliveTime        time.Duration `mapstructure:"keepalive_time"`
	KeepaliveTimeout     time.Duration `mapstructure:"keepalive_timeout"`
}

type WebSocketConfig struct {
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

// DatabaseConfig points at Postgres. An empty URL keeps decks and accounts in memory.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// GameConfig holds the rule parameters.
type GameConfig struct {
	DeckSize            int   `mapstructure:"deck_size"`
	MaxCopies           int   `mapstructure:"max_copies"`
	UnlimitedCardIDs    []int `mapstructure:"unlimited_card_ids"`
	MythicalUnlockRound int   `mapstructure:"mythical_unlock_round"`
	StartingHandSize    int   `mapstructure:"starting_hand_size"`
	MainCharacterHealth int   `mapstructure:"main_character_health"`
	FieldCapacity       int   `mapstructure:"field_capacity"`
	StrictInvariants    bool  `mapstructure:"strict_invariants"`
	// FirstTurnDraw settles who acts first with rock-paper-scissors before round 1.
	FirstTurnDraw bool `mapstructure:"first_turn_draw"`
	// ReplayDir receives the journals of finished matches. Empty keeps them in memory.
	ReplayDir string `mapstructure:"replay_dir"`
}

// ThrottleConfig limits actions per session token.
type ThrottleConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc.address", ":50051")
	v.SetDefault("server.grpc.max_concurrent_streams", 1000)
	v.SetDefault("server.grpc.keepalive_time", 30*time.Second)
	v.SetDefault("server.grpc.keepalive_timeout", 10*time.Second)
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.lease_period", 5*time.Minute)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("game.deck_size", 40)
	v.SetDefault("game.max_copies", 3)
	v.SetDefault("game.unlimited_card_ids", []int{93})
	v.SetDefault("game.mythical_unlock_round", 4)
	v.SetDefault("game.starting_hand_size", 5)
	v.SetDefault("game.main_character_health", 100)
	v.SetDefault("game.field_capacity", 5)
	v.SetDefault("game.strict_invariants", false)
	v.SetDefault("game.first_turn_draw", true)
	v.SetDefault("game.replay_dir", "")

	v.SetDefault("throttle.requests_per_second", 10.0)
	v.SetDefault("throttle.burst", 20)
}

// Load reads the file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
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

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.GRPC.Address == "" {
		errs = append(errs, errors.New("server.grpc.address is required"))
	}
	if c.Server.LeasePeriod <= 0 {
		errs = append(errs, errors.New("server.lease_period must be positive"))
	}
	if c.Game.DeckSize <= 0 {
		errs = append(errs, errors.New("game.deck_size must be positive"))
	}
	if c.Game.MaxCopies <= 0 {
		errs = append(errs, errors.New("game.max_copies must be positive"))
	}
	if c.Game.MythicalUnlockRound <= 0 {
		errs = append(errs, errors.New("game.mythical_unlock_round must be positive"))
	}
	if c.Game.StartingHandSize < 0 || c.Game.StartingHandSize > c.Game.DeckSize {
		errs = append(errs, errors.New("game.starting_hand_size must be between 0 and game.deck_size"))
	}
	if c.Game.MainCharacterHealth <= 0 {
		errs = append(errs, errors.New("game.main_character_health must be positive"))
	}
	if c.Game.FieldCapacity <= 0 {
		errs = append(errs, errors.New("game.field_capacity must be positive"))
	}
	if c.Throttle.RequestsPerSecond < 0 || c.Throttle.Burst < 0 {
		errs = append(errs, errors.New("throttle values must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
