// Package config loads server settings from defaults, an optional YAML file,
// .env, the environment and command-line flags (in that order of precedence).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	ThreadMatchSuperset = "superset"
	ThreadMatchExact    = "exact"
)

type Config struct {
	Port           int           `yaml:"port"`
	MongoURI       string        `yaml:"mongo_uri"`
	MongoDatabase  string        `yaml:"mongo_database"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisDB        int           `yaml:"redis_db"`
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	GoogleAPIKey   string        `yaml:"google_api_key"`
	ThreadMatch    string        `yaml:"thread_match"`
	RateLimitRPM   int           `yaml:"rate_limit_rpm"`
	TrustProxy     bool          `yaml:"trust_proxy"`
	LogLevel       string        `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Port:           8080,
		MongoDatabase:  "travel_db",
		TokenTTL:       24 * time.Hour,
		AllowedOrigins: []string{"http://localhost:3000"},
		ThreadMatch:    ThreadMatchSuperset,
		RateLimitRPM:   10,
		LogLevel:       "info",
	}
}

// Load resolves the configuration for the given command-line arguments
// (without the program name).
func Load(args []string) (Config, error) {
	cfg := Default()

	flags := pflag.NewFlagSet("travel-server", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to a YAML config file")
	port := flags.Int("port", 0, "HTTP listen port")
	logLevel := flags.String("log-level", "", "log level (debug, info, warn, error)")
	if err := flags.Parse(args); err != nil {
		return cfg, err
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	path := *configFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return cfg, err
	}

	if *port != 0 {
		cfg.Port = *port
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT value: %w", err)
		}
		c.Port = n
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.MongoURI = v
	}
	if v := os.Getenv("MONGODB_DATABASE"); v != "" {
		c.MongoDatabase = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB value: %w", err)
		}
		c.RedisDB = n
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL value: %w", err)
		}
		c.TokenTTL = d
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.GoogleAPIKey = v
	}
	if v := os.Getenv("THREAD_MATCH"); v != "" {
		c.ThreadMatch = strings.ToLower(v)
	}
	if v := os.Getenv("RATE_LIMIT_RPM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPM value: %w", err)
		}
		c.RateLimitRPM = n
	}
	if v := os.Getenv("TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TRUST_PROXY value: %w", err)
		}
		c.TrustProxy = b
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate reports the first missing or malformed setting.
func (c Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI must be set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.ThreadMatch {
	case ThreadMatchSuperset, ThreadMatchExact:
	default:
		return fmt.Errorf("unknown thread match mode %q", c.ThreadMatch)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
