// Package config provides unified configuration for the tokengate server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (TOKENGATE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the tokengate server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s

	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig enables cross-origin requests from browser clients. CORS is
// off while AllowedOrigins is empty.
type CORSConfig struct {
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxAge         time.Duration `yaml:"max_age"` // default: 5m
}

// AuthConfig holds the authentication pipeline settings.
type AuthConfig struct {
	// SigningSecret is the HMAC key for tokens. It has no default and must be
	// at least 32 bytes.
	SigningSecret     string `yaml:"signing_secret"`
	SigningSecretFile string `yaml:"signing_secret_file"` // _file variant for signing_secret

	TokenTTL     time.Duration      `yaml:"token_ttl"`     // default: 1h
	Issuer       string             `yaml:"issuer"`        // default: "tokengate"
	LoginPath    string             `yaml:"login_path"`    // default: "/api/auth/login"
	RequiredRole string             `yaml:"required_role"` // default: "USER"
	AccessRules  []AccessRuleConfig `yaml:"access_rules"`  // default: /api/admin -> ADMIN
	MaxBodySize  int64              `yaml:"max_body_size"` // default: 16384
}

// AccessRuleConfig requires Role for every path under PathPrefix.
type AccessRuleConfig struct {
	PathPrefix string `yaml:"path_prefix"`
	Role       string `yaml:"role"`
}

// StorageConfig holds user store settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory", "postgres" or "redis", default: "memory"
	Users    []UserConfig   `yaml:"users"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
}

// UserConfig is a user seeded into the store at startup.
type UserConfig struct {
	Username         string   `yaml:"username" json:"username"`
	PasswordHash     string   `yaml:"password_hash" json:"password_hash"` // bcrypt
	PasswordHashFile string   `yaml:"password_hash_file" json:"password_hash_file"`
	Roles            []string `yaml:"roles" json:"roles"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false

	MaxConns        int32         `yaml:"max_conns"`          // default: 10
	MinConns        int32         `yaml:"min_conns"`          // default: 1
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`  // default: 30m
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"` // default: 5m
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`    // default: 5s
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	URL       string `yaml:"url"`
	URLFile   string `yaml:"url_file"`   // _file variant for url
	KeyPrefix string `yaml:"key_prefix"` // default: "tokengate:"
}

// CacheConfig holds the user lookup cache settings.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"` // default: false
	Size    int           `yaml:"size"`    // default: 1024
	TTL     time.Duration `yaml:"ttl"`     // default: 1m
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log output settings. TOKENGATE_LOG_LEVEL,
// TOKENGATE_LOG_FORMAT and TOKENGATE_DEBUG take precedence.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // default: "INFO"
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORS: CORSConfig{
				MaxAge: 5 * time.Minute,
			},
		},
		Auth: AuthConfig{
			TokenTTL:     time.Hour,
			Issuer:       "tokengate",
			LoginPath:    "/api/auth/login",
			RequiredRole: "USER",
			AccessRules: []AccessRuleConfig{
				{PathPrefix: "/api/admin", Role: "ADMIN"},
			},
			MaxBodySize: 16 << 10,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns:        10,
				MinConns:        1,
				MaxConnLifetime: 30 * time.Minute,
				MaxConnIdleTime: 5 * time.Minute,
				ConnectTimeout:  5 * time.Second,
			},
			Redis: RedisConfig{
				KeyPrefix: "tokengate:",
			},
			Cache: CacheConfig{
				Size: 1024,
				TTL:  time.Minute,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
