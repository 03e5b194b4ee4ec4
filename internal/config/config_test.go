package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("CONFIG_FILE", "")

	cfg := Load()

	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.StoreDriver != StoreMongo {
		t.Fatalf("expected default store mongo, got %q", cfg.StoreDriver)
	}
	if cfg.JWTTTL != time.Hour {
		t.Fatalf("expected 1h token ttl, got %s", cfg.JWTTTL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounthub.yaml")

	body := "store_driver: postgres\nport: 9090\njwt_ttl: 15m\nmongo_database: fromfile\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("MONGO_DATABASE", "")

	cfg := Load()

	if cfg.Port != 7070 {
		t.Fatalf("env PORT should win, got %d", cfg.Port)
	}
	if cfg.StoreDriver != StorePostgres {
		t.Fatalf("file store_driver should apply, got %q", cfg.StoreDriver)
	}
	if cfg.JWTTTL != 15*time.Minute {
		t.Fatalf("file jwt_ttl should apply, got %s", cfg.JWTTTL)
	}
	if cfg.MongoDatabase != "fromfile" {
		t.Fatalf("file mongo_database should apply, got %q", cfg.MongoDatabase)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Env:         "dev",
		StoreDriver: StoreMemory,
		JWTSecret:   "dev-secret",
		JWTTTL:      time.Hour,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: true},
		{name: "short secret in prod", mutate: func(c *Config) { c.Env = "prod"; c.StoreDriver = StoreMongo; c.MongoURI = "mongodb://x" }, wantErr: true},
		{name: "memory in prod", mutate: func(c *Config) { c.Env = "prod"; c.JWTSecret = "0123456789abcdef0123456789abcdef" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "cassandra" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *Config) { c.StoreDriver = StorePostgres; c.DBURL = "" }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.JWTTTL = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("ACCOUNTCTL_API", "http://api.internal:8080")
	t.Setenv("ACCOUNTCTL_DB", "/tmp/s.db")
	t.Setenv("ACCOUNTCTL_TIMEOUT", "3s")

	cfg := LoadClient()
	if cfg.APIURL != "http://api.internal:8080" || cfg.SessionDB != "/tmp/s.db" || cfg.Timeout != 3*time.Second {
		t.Fatalf("unexpected client config %+v", cfg)
	}
}
