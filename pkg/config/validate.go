package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rhuss/tokengate/pkg/auth"
	"github.com/rhuss/tokengate/pkg/auth/token"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}
	for i, origin := range c.Server.CORS.AllowedOrigins {
		if origin == "" {
			errs = append(errs, fmt.Errorf("server.cors.allowed_origins[%d] is empty", i))
		}
	}
	if c.Server.CORS.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("server.cors.max_age must be >= 0, got %v", c.Server.CORS.MaxAge))
	}

	errs = append(errs, c.Auth.validate()...)
	errs = append(errs, c.Storage.validate()...)

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with /, got %q", c.Observability.Metrics.Path))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func (a *AuthConfig) validate() []error {
	var errs []error

	switch {
	case a.SigningSecret == "" && a.SigningSecretFile == "":
		errs = append(errs, errors.New("auth.signing_secret or auth.signing_secret_file is required"))
	case len(a.SigningSecret) < token.MinSecretLength:
		errs = append(errs, fmt.Errorf("auth.signing_secret must be at least %d bytes", token.MinSecretLength))
	}

	if a.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be > 0, got %v", a.TokenTTL))
	}
	if !strings.HasPrefix(a.LoginPath, "/") {
		errs = append(errs, fmt.Errorf("auth.login_path must start with /, got %q", a.LoginPath))
	}
	if _, err := auth.ParseRole(a.RequiredRole); err != nil {
		errs = append(errs, fmt.Errorf("auth.required_role: %w", err))
	}
	for i, rule := range a.AccessRules {
		if !strings.HasPrefix(rule.PathPrefix, "/") {
			errs = append(errs, fmt.Errorf("auth.access_rules[%d].path_prefix must start with /, got %q", i, rule.PathPrefix))
		}
		if _, err := auth.ParseRole(rule.Role); err != nil {
			errs = append(errs, fmt.Errorf("auth.access_rules[%d].role: %w", i, err))
		}
	}
	if a.MaxBodySize < 0 {
		errs = append(errs, fmt.Errorf("auth.max_body_size must be >= 0, got %d", a.MaxBodySize))
	}
	return errs
}

func (s *StorageConfig) validate() []error {
	var errs []error

	switch s.Type {
	case "memory", "postgres", "redis":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\", \"postgres\", or \"redis\", got %q", s.Type))
	}

	if s.Type == "postgres" && s.Postgres.DSN == "" && s.Postgres.DSNFile == "" {
		errs = append(errs, errors.New("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
	}
	if s.Type == "redis" && s.Redis.URL == "" && s.Redis.URLFile == "" {
		errs = append(errs, errors.New("storage.redis.url or storage.redis.url_file is required when storage.type is \"redis\""))
	}

	if s.Type == "postgres" {
		pg := s.Postgres
		if pg.MaxConns <= 0 {
			errs = append(errs, fmt.Errorf("storage.postgres.max_conns must be > 0, got %d", pg.MaxConns))
		}
		if pg.MinConns < 0 || pg.MinConns > pg.MaxConns {
			errs = append(errs, fmt.Errorf("storage.postgres.min_conns must be between 0 and max_conns, got %d", pg.MinConns))
		}
		if pg.MaxConnLifetime < 0 || pg.MaxConnIdleTime < 0 || pg.ConnectTimeout < 0 {
			errs = append(errs, errors.New("storage.postgres durations must be >= 0"))
		}
	}

	if s.Cache.Enabled {
		if s.Cache.Size < 0 {
			errs = append(errs, fmt.Errorf("storage.cache.size must be >= 0, got %d", s.Cache.Size))
		}
		if s.Cache.TTL < 0 {
			errs = append(errs, fmt.Errorf("storage.cache.ttl must be >= 0, got %v", s.Cache.TTL))
		}
	}

	seen := make(map[string]bool, len(s.Users))
	for i, u := range s.Users {
		if u.Username == "" {
			errs = append(errs, fmt.Errorf("storage.users[%d].username is required", i))
		} else if seen[u.Username] {
			errs = append(errs, fmt.Errorf("storage.users[%d]: duplicate username %q", i, u.Username))
		}
		seen[u.Username] = true

		if u.PasswordHash == "" && u.PasswordHashFile == "" {
			errs = append(errs, fmt.Errorf("storage.users[%d].password_hash or password_hash_file is required", i))
		}
		if len(auth.ParseRoles(u.Roles)) == 0 {
			errs = append(errs, fmt.Errorf("storage.users[%d].roles must contain a known role", i))
		}
	}
	return errs
}

// Roles resolves the configured required role and access rules.
// Call it on a validated config.
func (a *AuthConfig) Roles() (auth.Role, []auth.AccessRule, error) {
	required, err := auth.ParseRole(a.RequiredRole)
	if err != nil {
		return 0, nil, err
	}
	rules := make([]auth.AccessRule, 0, len(a.AccessRules))
	for _, rc := range a.AccessRules {
		r, err := auth.ParseRole(rc.Role)
		if err != nil {
			return 0, nil, err
		}
		rules = append(rules, auth.AccessRule{PathPrefix: rc.PathPrefix, Role: r})
	}
	return required, rules, nil
}
