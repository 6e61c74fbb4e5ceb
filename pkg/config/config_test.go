package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("default server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("default server.read_timeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("default auth.token_ttl = %v, want 1h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.LoginPath != "/api/auth/login" {
		t.Errorf("default auth.login_path = %q, want \"/api/auth/login\"", cfg.Auth.LoginPath)
	}
	if cfg.Auth.RequiredRole != "USER" {
		t.Errorf("default auth.required_role = %q, want \"USER\"", cfg.Auth.RequiredRole)
	}
	if len(cfg.Auth.AccessRules) != 1 || cfg.Auth.AccessRules[0].PathPrefix != "/api/admin" {
		t.Errorf("default auth.access_rules = %v, want [/api/admin -> ADMIN]", cfg.Auth.AccessRules)
	}
	if cfg.Auth.SigningSecret != "" {
		t.Error("signing secret must not have a default")
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("default storage.type = %q, want \"memory\"", cfg.Storage.Type)
	}
	if cfg.Storage.Redis.KeyPrefix != "tokengate:" {
		t.Errorf("default storage.redis.key_prefix = %q, want \"tokengate:\"", cfg.Storage.Redis.KeyPrefix)
	}
	if !cfg.Observability.Metrics.Enabled || cfg.Observability.Metrics.Path != "/metrics" {
		t.Errorf("default metrics = %+v, want enabled at /metrics", cfg.Observability.Metrics)
	}
}

func TestDefaultsFailWithoutSecret(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "auth.signing_secret") {
		t.Errorf("Validate() = %v, want signing secret error", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
server:
  port: 9090
  read_timeout: 5s
  shutdown_timeout: 10s
auth:
  signing_secret: ` + testSecret + `
  token_ttl: 15m
  issuer: example
  login_path: /login
  required_role: ROLE_USER
  access_rules:
    - path_prefix: /api/ops
      role: ADMIN
storage:
  type: redis
  redis:
    url: redis://localhost:6379/1
    key_prefix: "tg:"
  cache:
    enabled: true
    size: 100
    ttl: 30s
  users:
    - username: alice
      password_hash: "$2a$04$abc"
      roles: [USER]
observability:
  metrics:
    enabled: false
logging:
  level: DEBUG
  format: json
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server.read_timeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("server.shutdown_timeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Auth.TokenTTL != 15*time.Minute {
		t.Errorf("auth.token_ttl = %v, want 15m", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.Issuer != "example" {
		t.Errorf("auth.issuer = %q, want \"example\"", cfg.Auth.Issuer)
	}
	if cfg.Auth.LoginPath != "/login" {
		t.Errorf("auth.login_path = %q, want \"/login\"", cfg.Auth.LoginPath)
	}
	if len(cfg.Auth.AccessRules) != 1 || cfg.Auth.AccessRules[0].PathPrefix != "/api/ops" {
		t.Errorf("auth.access_rules = %v, want [/api/ops]", cfg.Auth.AccessRules)
	}
	if cfg.Storage.Type != "redis" {
		t.Errorf("storage.type = %q, want \"redis\"", cfg.Storage.Type)
	}
	if cfg.Storage.Redis.URL != "redis://localhost:6379/1" {
		t.Errorf("storage.redis.url = %q", cfg.Storage.Redis.URL)
	}
	if cfg.Storage.Redis.KeyPrefix != "tg:" {
		t.Errorf("storage.redis.key_prefix = %q, want \"tg:\"", cfg.Storage.Redis.KeyPrefix)
	}
	if !cfg.Storage.Cache.Enabled || cfg.Storage.Cache.Size != 100 || cfg.Storage.Cache.TTL != 30*time.Second {
		t.Errorf("storage.cache = %+v, want enabled/100/30s", cfg.Storage.Cache)
	}
	if len(cfg.Storage.Users) != 1 || cfg.Storage.Users[0].Username != "alice" {
		t.Errorf("storage.users = %v, want [alice]", cfg.Storage.Users)
	}
	if cfg.Observability.Metrics.Enabled {
		t.Error("observability.metrics.enabled = true, want false")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("logging.format = %q, want \"json\"", cfg.Logging.Format)
	}
}

func TestEnvOverride(t *testing.T) {
	yamlContent := `
server:
  port: 9090
auth:
  signing_secret: ` + testSecret + `
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	t.Setenv("TOKENGATE_PORT", "7070")
	t.Setenv("TOKENGATE_TOKEN_TTL", "2h")
	t.Setenv("TOKENGATE_LOGIN_PATH", "/auth")
	t.Setenv("TOKENGATE_REQUIRED_ROLE", "ADMIN")
	t.Setenv("TOKENGATE_ISSUER", "env-issuer")
	t.Setenv("TOKENGATE_STORAGE", "postgres")
	t.Setenv("TOKENGATE_POSTGRES_DSN", "postgres://env/db")

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want 7070 (env override)", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("auth.token_ttl = %v, want 2h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.LoginPath != "/auth" {
		t.Errorf("auth.login_path = %q, want \"/auth\"", cfg.Auth.LoginPath)
	}
	if cfg.Auth.RequiredRole != "ADMIN" {
		t.Errorf("auth.required_role = %q, want \"ADMIN\"", cfg.Auth.RequiredRole)
	}
	if cfg.Auth.Issuer != "env-issuer" {
		t.Errorf("auth.issuer = %q, want \"env-issuer\"", cfg.Auth.Issuer)
	}
	if cfg.Storage.Type != "postgres" || cfg.Storage.Postgres.DSN != "postgres://env/db" {
		t.Errorf("storage = %s %q, want postgres from env", cfg.Storage.Type, cfg.Storage.Postgres.DSN)
	}
}

func TestEnvSigningSecretAndUsers(t *testing.T) {
	t.Setenv(EnvConfig, writeTemp(t, "empty-*.yaml", "{}\n"))
	t.Setenv("TOKENGATE_SIGNING_SECRET", testSecret)
	t.Setenv("TOKENGATE_USERS", `[{"username":"bob","password_hash":"$2a$04$x","roles":["USER","ADMIN"]}]`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Auth.SigningSecret != testSecret {
		t.Error("auth.signing_secret not taken from TOKENGATE_SIGNING_SECRET")
	}
	if len(cfg.Storage.Users) != 1 || len(cfg.Storage.Users[0].Roles) != 2 {
		t.Errorf("storage.users = %v, want bob with two roles", cfg.Storage.Users)
	}
}

func TestEnvInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"TOKENGATE_PORT", "eighty"},
		{"TOKENGATE_TOKEN_TTL", "forever"},
		{"TOKENGATE_USERS", "not json"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(EnvConfig, writeTemp(t, "empty-*.yaml", "{}\n"))
			t.Setenv("TOKENGATE_SIGNING_SECRET", testSecret)
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			if err == nil {
				t.Fatalf("Load() with %s=%q succeeded, want error", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Load() error = %q, want it to name %s", err.Error(), tt.key)
			}
		})
	}
}

func TestFileReference(t *testing.T) {
	secretFile := writeTemp(t, "secret-*.txt", "  "+testSecret+"  \n")
	dsnFile := writeTemp(t, "dsn-*.txt", "  postgres://user:pass@db:5432/app  \n")
	hashFile := writeTemp(t, "hash-*.txt", "$2a$04$fromfile\n")

	yamlContent := `
auth:
  signing_secret_file: ` + secretFile + `
storage:
  type: postgres
  postgres:
    dsn_file: ` + dsnFile + `
    max_conns: 20
    min_conns: 2
    max_conn_lifetime: 1h
    connect_timeout: 2s
  users:
    - username: alice
      password_hash_file: ` + hashFile + `
      roles: [USER]
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Auth.SigningSecret != testSecret {
		t.Errorf("auth.signing_secret = %q, want trimmed file content", cfg.Auth.SigningSecret)
	}
	if cfg.Storage.Postgres.DSN != "postgres://user:pass@db:5432/app" {
		t.Errorf("storage.postgres.dsn = %q, want trimmed file content", cfg.Storage.Postgres.DSN)
	}
	pg := cfg.Storage.Postgres
	if pg.MaxConns != 20 || pg.MinConns != 2 {
		t.Errorf("storage.postgres conns = %d/%d, want 20/2", pg.MaxConns, pg.MinConns)
	}
	if pg.MaxConnLifetime != time.Hour || pg.ConnectTimeout != 2*time.Second {
		t.Errorf("storage.postgres lifetime/timeout = %v/%v, want 1h/2s", pg.MaxConnLifetime, pg.ConnectTimeout)
	}
	if pg.MaxConnIdleTime != 5*time.Minute {
		t.Errorf("storage.postgres.max_conn_idle_time = %v, want default 5m", pg.MaxConnIdleTime)
	}
	if cfg.Storage.Users[0].PasswordHash != "$2a$04$fromfile" {
		t.Errorf("storage.users[0].password_hash = %q, want file content", cfg.Storage.Users[0].PasswordHash)
	}
}

func TestFileReferenceRedisURL(t *testing.T) {
	urlFile := writeTemp(t, "url-*.txt", "redis://secret@cache:6379/0\n")

	yamlContent := `
auth:
  signing_secret: ` + testSecret + `
storage:
  type: redis
  redis:
    url_file: ` + urlFile + `
`
	cfg, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Redis.URL != "redis://secret@cache:6379/0" {
		t.Errorf("storage.redis.url = %q, want file content", cfg.Storage.Redis.URL)
	}
}

func TestFileReferenceMissingFile(t *testing.T) {
	yamlContent := `
auth:
  signing_secret_file: /nonexistent/secret
`
	_, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err == nil || !strings.Contains(err.Error(), "auth.signing_secret_file") {
		t.Errorf("Load() error = %v, want auth.signing_secret_file error", err)
	}
}

func TestFileReferenceDoesNotOverrideExplicitValue(t *testing.T) {
	secretFile := writeTemp(t, "secret-*.txt", "ffffffffffffffffffffffffffffffff")

	yamlContent := `
auth:
  signing_secret: ` + testSecret + `
  signing_secret_file: ` + secretFile + `
`
	cfg, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// When both signing_secret and signing_secret_file are set, the explicit value takes precedence.
	if cfg.Auth.SigningSecret != testSecret {
		t.Error("auth.signing_secret: explicit value should win over file")
	}
}

func TestFileDiscovery(t *testing.T) {
	envFile := writeTemp(t, "envconfig-*.yaml", `
server:
  port: 4242
auth:
  signing_secret: `+testSecret+`
`)
	t.Setenv(EnvConfig, envFile)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 4242 {
		t.Errorf("TOKENGATE_CONFIG discovery: port = %d, want 4242", cfg.Server.Port)
	}

	// Explicit path wins over the environment.
	explicit := writeTemp(t, "explicit-*.yaml", `
server:
  port: 5151
auth:
  signing_secret: `+testSecret+`
`)
	cfg, err = Load(explicit)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 5151 {
		t.Errorf("explicit path: port = %d, want 5151", cfg.Server.Port)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "short secret",
			modify:  func(c *Config) { c.Auth.SigningSecret = "short" },
			wantErr: "auth.signing_secret must be at least 32 bytes",
		},
		{
			name:    "invalid port",
			modify:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port must be > 0",
		},
		{
			name:    "zero ttl",
			modify:  func(c *Config) { c.Auth.TokenTTL = 0 },
			wantErr: "auth.token_ttl must be > 0",
		},
		{
			name:    "relative login path",
			modify:  func(c *Config) { c.Auth.LoginPath = "login" },
			wantErr: "auth.login_path must start with /",
		},
		{
			name:    "unknown required role",
			modify:  func(c *Config) { c.Auth.RequiredRole = "ROOT" },
			wantErr: "auth.required_role",
		},
		{
			name: "bad access rule",
			modify: func(c *Config) {
				c.Auth.AccessRules = []AccessRuleConfig{{PathPrefix: "api", Role: "SUPER"}}
			},
			wantErr: "auth.access_rules[0].path_prefix",
		},
		{
			name:    "invalid storage type",
			modify:  func(c *Config) { c.Storage.Type = "mongo" },
			wantErr: "storage.type must be",
		},
		{
			name:    "postgres without DSN",
			modify:  func(c *Config) { c.Storage.Type = "postgres" },
			wantErr: "storage.postgres.dsn",
		},
		{
			name: "postgres min conns above max",
			modify: func(c *Config) {
				c.Storage.Type = "postgres"
				c.Storage.Postgres.DSN = "postgres://db/app"
				c.Storage.Postgres.MinConns = 11
			},
			wantErr: "storage.postgres.min_conns",
		},
		{
			name: "postgres zero max conns",
			modify: func(c *Config) {
				c.Storage.Type = "postgres"
				c.Storage.Postgres.DSN = "postgres://db/app"
				c.Storage.Postgres.MaxConns = 0
				c.Storage.Postgres.MinConns = 0
			},
			wantErr: "storage.postgres.max_conns",
		},
		{
			name: "postgres negative lifetime",
			modify: func(c *Config) {
				c.Storage.Type = "postgres"
				c.Storage.Postgres.DSN = "postgres://db/app"
				c.Storage.Postgres.MaxConnLifetime = -time.Second
			},
			wantErr: "storage.postgres durations",
		},
		{
			name:    "redis without URL",
			modify:  func(c *Config) { c.Storage.Type = "redis" },
			wantErr: "storage.redis.url",
		},
		{
			name: "user without known role",
			modify: func(c *Config) {
				c.Storage.Users = []UserConfig{{Username: "x", PasswordHash: "h", Roles: []string{"GOD"}}}
			},
			wantErr: "storage.users[0].roles",
		},
		{
			name: "duplicate user",
			modify: func(c *Config) {
				u := UserConfig{Username: "x", PasswordHash: "h", Roles: []string{"USER"}}
				c.Storage.Users = []UserConfig{u, u}
			},
			wantErr: "duplicate username",
		},
		{
			name:    "bad metrics path",
			modify:  func(c *Config) { c.Observability.Metrics.Path = "metrics" },
			wantErr: "observability.metrics.path",
		},
		{
			name:    "bad log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Auth.SigningSecret = testSecret
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidationCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = -1
	cfg.Storage.Type = "mongo"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.port", "storage.type", "auth.signing_secret"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err.Error(), want)
		}
	}
}

func TestAuthRoles(t *testing.T) {
	cfg := Defaults()
	required, rules, err := cfg.Auth.Roles()
	if err != nil {
		t.Fatalf("Roles() error: %v", err)
	}
	if required.String() != "USER" {
		t.Errorf("required = %v, want USER", required)
	}
	if len(rules) != 1 || rules[0].PathPrefix != "/api/admin" || rules[0].Role.String() != "ADMIN" {
		t.Errorf("rules = %v, want [/api/admin ADMIN]", rules)
	}
}

func TestYAMLDefaultsMerge(t *testing.T) {
	yamlContent := `
auth:
  signing_secret: ` + testSecret + `
`
	cfg, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("auth.token_ttl = %v, want default 1h", cfg.Auth.TokenTTL)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage.type = %q, want default \"memory\"", cfg.Storage.Type)
	}
}

// writeTemp creates a temporary file with the given content and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, pattern, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		t.Fatalf("writing temp file: %v", err)
	}
	f.Close()
	return f.Name()
}

func TestCORSConfig(t *testing.T) {
	yamlContent := `
server:
  cors:
    allowed_origins: ["https://app.example.com"]
    max_age: 10m
auth:
  signing_secret: ` + testSecret + `
`
	cfg, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Server.CORS.AllowedOrigins) != 1 || cfg.Server.CORS.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("server.cors.allowed_origins = %v", cfg.Server.CORS.AllowedOrigins)
	}
	if cfg.Server.CORS.MaxAge != 10*time.Minute {
		t.Errorf("server.cors.max_age = %v, want 10m", cfg.Server.CORS.MaxAge)
	}
}
