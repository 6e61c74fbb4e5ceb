package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/tokengate/pkg/debug"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "TOKENGATE_CONFIG"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, TOKENGATE_CONFIG env, ./config.yaml, /etc/tokengate/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. TOKENGATE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/tokengate/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv(EnvConfig); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/tokengate/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps TOKENGATE_* environment variables to config fields.
// A value that does not parse is an error rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TOKENGATE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TOKENGATE_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("TOKENGATE_SIGNING_SECRET"); v != "" {
		cfg.Auth.SigningSecret = v
	}
	if v := os.Getenv("TOKENGATE_TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKENGATE_TOKEN_TTL: %w", err)
		}
		cfg.Auth.TokenTTL = ttl
	}
	if v := os.Getenv("TOKENGATE_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("TOKENGATE_LOGIN_PATH"); v != "" {
		cfg.Auth.LoginPath = v
	}
	if v := os.Getenv("TOKENGATE_REQUIRED_ROLE"); v != "" {
		cfg.Auth.RequiredRole = v
	}
	if v := os.Getenv("TOKENGATE_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("TOKENGATE_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("TOKENGATE_REDIS_URL"); v != "" {
		cfg.Storage.Redis.URL = v
	}

	// TOKENGATE_USERS: JSON array of seeded users.
	if v := os.Getenv("TOKENGATE_USERS"); v != "" {
		users, err := parseUsersJSON(v)
		if err != nil {
			return fmt.Errorf("TOKENGATE_USERS: %w", err)
		}
		cfg.Storage.Users = users
	}
	return nil
}

// parseUsersJSON parses a JSON array of user configurations.
func parseUsersJSON(jsonStr string) ([]UserConfig, error) {
	var users []UserConfig
	if err := json.Unmarshal([]byte(jsonStr), &users); err != nil {
		return nil, fmt.Errorf("parsing users JSON: %w", err)
	}
	return users, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// auth.signing_secret_file -> auth.signing_secret
	if cfg.Auth.SigningSecretFile != "" && cfg.Auth.SigningSecret == "" {
		val, err := readSecretFile(cfg.Auth.SigningSecretFile)
		if err != nil {
			return fmt.Errorf("auth.signing_secret_file: %w", err)
		}
		cfg.Auth.SigningSecret = val
	}

	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	// storage.redis.url_file -> storage.redis.url
	if cfg.Storage.Redis.URLFile != "" && cfg.Storage.Redis.URL == "" {
		val, err := readSecretFile(cfg.Storage.Redis.URLFile)
		if err != nil {
			return fmt.Errorf("storage.redis.url_file: %w", err)
		}
		cfg.Storage.Redis.URL = val
	}

	// storage.users[*].password_hash_file -> storage.users[*].password_hash
	for i := range cfg.Storage.Users {
		u := &cfg.Storage.Users[i]
		if u.PasswordHashFile != "" && u.PasswordHash == "" {
			val, err := readSecretFile(u.PasswordHashFile)
			if err != nil {
				return fmt.Errorf("storage.users[%d].password_hash_file: %w", i, err)
			}
			u.PasswordHash = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
