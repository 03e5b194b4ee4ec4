package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Env         string
	Port        int
	ServiceName string

	// credential store
	StoreDriver   string
	DBURL         string
	MongoURI      string
	MongoDatabase string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	// optional profile cache; empty RedisAddr falls back to the in-process cache
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProfileCacheTTL time.Duration

	// optional account event publishing; empty AMQPURL logs events instead
	AMQPURL      string
	AMQPExchange string

	OTelEndpoint string
	CORSOrigins  []string
	MaxBodyBytes int64
}

// fileConfig is the optional YAML overlay pointed to by CONFIG_FILE.
// Environment variables always win over file values.
type fileConfig struct {
	Env             string   `yaml:"env"`
	Port            int      `yaml:"port"`
	ServiceName     string   `yaml:"service_name"`
	StoreDriver     string   `yaml:"store_driver"`
	DBURL           string   `yaml:"db_url"`
	MongoURI        string   `yaml:"mongo_uri"`
	MongoDatabase   string   `yaml:"mongo_database"`
	JWTTTL          string   `yaml:"jwt_ttl"`
	BcryptCost      int      `yaml:"bcrypt_cost"`
	RedisAddr       string   `yaml:"redis_addr"`
	RedisDB         int      `yaml:"redis_db"`
	ProfileCacheTTL string   `yaml:"profile_cache_ttl"`
	AMQPURL         string   `yaml:"amqp_url"`
	AMQPExchange    string   `yaml:"amqp_exchange"`
	OTelEndpoint    string   `yaml:"otel_endpoint"`
	CORSOrigins     []string `yaml:"cors_origins"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
}

func Load() Config {
	// .env is a dev convenience; a missing file is fine
	_ = godotenv.Load()

	fc, err := readFileConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Default().Warn("config file ignored", "path", os.Getenv("CONFIG_FILE"), "err", err)
	}

	return Config{
		Env:         getEnv("APP_ENV", or(fc.Env, "dev")),
		Port:        getEnvInt("PORT", orInt(fc.Port, 5000)),
		ServiceName: getEnv("SERVICE_NAME", or(fc.ServiceName, "accounthub")),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", or(fc.StoreDriver, StoreMongo))),
		DBURL:         getEnv("DB_URL", or(fc.DBURL, buildDBURL())),
		MongoURI:      getEnv("MONGO_URI", or(fc.MongoURI, "mongodb://127.0.0.1:27017")),
		MongoDatabase: getEnv("MONGO_DATABASE", or(fc.MongoDatabase, "accounthub")),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTTTL:     getEnvDuration("JWT_TTL", orDuration(fc.JWTTTL, time.Hour)),
		BcryptCost: getEnvInt("BCRYPT_COST", orInt(fc.BcryptCost, 10)),

		RedisAddr:       getEnv("REDIS_ADDR", fc.RedisAddr),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getEnvInt("REDIS_DB", fc.RedisDB),
		ProfileCacheTTL: getEnvDuration("PROFILE_CACHE_TTL", orDuration(fc.ProfileCacheTTL, 30*time.Second)),

		AMQPURL:      getEnv("AMQP_URL", fc.AMQPURL),
		AMQPExchange: getEnv("AMQP_EXCHANGE", or(fc.AMQPExchange, "accounts")),

		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", fc.OTelEndpoint),
		CORSOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", orList(fc.CORSOrigins, []string{"http://localhost:3000"})),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", int(orInt64(fc.MaxBodyBytes, 1<<20)))),
	}
}

// Validate rejects configurations the server must not start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	if c.Env == "prod" && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes in prod")
	}

	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	case StorePostgres:
		if c.DBURL == "" {
			return errors.New("DB_URL is required for the postgres store")
		}
	case StoreMemory:
		if c.Env == "prod" {
			return errors.New("memory store is not allowed in prod")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	return nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "accounthub")
	pass := getEnv("DB_PASSWORD", "accounthub")
	name := getEnv("DB_NAME", "accounthub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func readFileConfig(path string) (fileConfig, error) {
	var fc fileConfig

	if path == "" {
		return fc, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, err
	}

	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return fc, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			slog.Default().Warn("invalid int env, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Default().Warn("invalid duration env, using default", "key", key, "value", v)
			return fallback
		}
		return d
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return fallback
	}
	return out
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func orInt64(v, fallback int64) int64 {
	if v != 0 {
		return v
	}
	return fallback
}

func orList(v, fallback []string) []string {
	if len(v) > 0 {
		return v
	}
	return fallback
}

func orDuration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// ClientConfig drives accountctl.
type ClientConfig struct {
	APIURL    string
	SessionDB string
	Timeout   time.Duration
}

func LoadClient() ClientConfig {
	_ = godotenv.Load()

	sessionDB := "session.db"
	if home, err := os.UserHomeDir(); err == nil {
		sessionDB = filepath.Join(home, ".accountctl", "session.db")
	}

	return ClientConfig{
		APIURL:    getEnv("ACCOUNTCTL_API", "http://localhost:5000"),
		SessionDB: getEnv("ACCOUNTCTL_DB", sessionDB),
		Timeout:   getEnvDuration("ACCOUNTCTL_TIMEOUT", 10*time.Second),
	}
}
