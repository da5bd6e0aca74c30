package config

import "time"

// RelayConfig holds settings for the realtime relay.
type RelayConfig struct {
	// RequireAuth rejects WebSocket connections without a valid token.
	// Off by default: anonymous relay sessions are accepted.
	RequireAuth bool `mapstructure:"require_auth" yaml:"require_auth"`
	// MaxRoomsPerSession caps how many rooms a single session may join.
	MaxRoomsPerSession int `mapstructure:"max_rooms_per_session" yaml:"max_rooms_per_session"`
	// EventBuffer is the per-session outbound event channel size.
	EventBuffer int `mapstructure:"event_buffer" yaml:"event_buffer"`
}

// StoreConfig holds settings for the domain store.
type StoreConfig struct {
	// Driver selects the store backend: "mongodb" or "memory".
	Driver   string `mapstructure:"driver" yaml:"driver"`
	MongoURI string `mapstructure:"mongo_uri" yaml:"mongo_uri"`
	Database string `mapstructure:"database" yaml:"database"`
}

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogPretty         bool          `mapstructure:"log_pretty" yaml:"log_pretty"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	Store StoreConfig `mapstructure:"store" yaml:"store"`
	Relay RelayConfig `mapstructure:"relay" yaml:"relay"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogPretty:         true,
		JWTSecret:         "change-me",
		JWTIssuer:         "teamsphere",
		JWTAudience:       "teamsphere-clients",
		JWTTTL:            24 * time.Hour,
		Store: StoreConfig{
			Driver:   "mongodb",
			MongoURI: "mongodb://localhost:27017",
			Database: "teamsphere",
		},
		Relay: RelayConfig{
			RequireAuth:        false,
			MaxRoomsPerSession: 100,
			EventBuffer:        16,
		},
	}
}
