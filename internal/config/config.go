package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Auth     AuthConfig     `yaml:"auth"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Chart    ChartConfig    `yaml:"chart"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	// Tokens maps bearer tokens to owner ids
	Tokens           map[string]string `yaml:"tokens"`
	AllowOwnerHeader bool              `yaml:"allow_owner_header"`
}

type ScannerConfig struct {
	Delay               time.Duration `yaml:"delay"`
	ConfidenceThreshold int           `yaml:"confidence_threshold"`
	RatePerMinute       int           `yaml:"rate_per_minute"`
	ImageDir            string        `yaml:"image_dir"` // scanned frames kept for add-from-scan
}

type SnapshotConfig struct {
	Hour          int           `yaml:"hour"` // 0-23
	CheckInterval time.Duration `yaml:"check_interval"`
}

type ChartConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:        "8080",
			CORSOrigins: []string{"http://localhost:8081", "http://localhost:19006"},
		},
		DB: DBConfig{
			Path: "./cardboard_compass.db",
		},
		Auth: AuthConfig{
			Tokens: map[string]string{},
		},
		Scanner: ScannerConfig{
			Delay:               1500 * time.Millisecond,
			ConfidenceThreshold: 80,
			RatePerMinute:       30,
			ImageDir:            "./data/scanned_images",
		},
		Snapshot: SnapshotConfig{
			Hour:          23,
			CheckInterval: 15 * time.Minute,
		},
		Chart: ChartConfig{
			CacheSize: 256,
		},
	}
}

// Load reads an optional .env file, an optional YAML file named by
// CC_CONFIG_PATH, then environment overrides.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("CC_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges the rest of the server relies on
func (c Config) Validate() error {
	if c.Snapshot.Hour < 0 || c.Snapshot.Hour > 23 {
		return fmt.Errorf("snapshot hour must be 0-23, got %d", c.Snapshot.Hour)
	}
	if c.Snapshot.CheckInterval <= 0 {
		return fmt.Errorf("snapshot check interval must be positive")
	}
	if c.Scanner.ConfidenceThreshold < 0 || c.Scanner.ConfidenceThreshold > 100 {
		return fmt.Errorf("scanner confidence threshold must be 0-100, got %d", c.Scanner.ConfidenceThreshold)
	}
	if c.Scanner.RatePerMinute <= 0 {
		return fmt.Errorf("scanner rate must be positive")
	}
	if c.Chart.CacheSize <= 0 {
		return fmt.Errorf("chart cache size must be positive")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = strings.Split(origins, ",")
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}

	if tokens := os.Getenv("AUTH_TOKENS"); tokens != "" {
		parsed, err := parseTokens(tokens)
		if err != nil {
			return err
		}
		if cfg.Auth.Tokens == nil {
			cfg.Auth.Tokens = map[string]string{}
		}
		for token, owner := range parsed {
			cfg.Auth.Tokens[token] = owner
		}
	}
	if v := os.Getenv("AUTH_ALLOW_OWNER_HEADER"); v != "" {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid AUTH_ALLOW_OWNER_HEADER: %w", err)
		}
		cfg.Auth.AllowOwnerHeader = allow
	}

	if v := os.Getenv("SCAN_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SCAN_DELAY: %w", err)
		}
		cfg.Scanner.Delay = d
	}
	if err := envInt("SCAN_CONFIDENCE_THRESHOLD", &cfg.Scanner.ConfidenceThreshold); err != nil {
		return err
	}
	if err := envInt("SCAN_RATE_PER_MINUTE", &cfg.Scanner.RatePerMinute); err != nil {
		return err
	}

	if dir := os.Getenv("SCANNED_IMAGES_DIR"); dir != "" {
		cfg.Scanner.ImageDir = dir
	}

	if err := envInt("SNAPSHOT_HOUR", &cfg.Snapshot.Hour); err != nil {
		return err
	}
	if v := os.Getenv("SNAPSHOT_CHECK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SNAPSHOT_CHECK_INTERVAL: %w", err)
		}
		cfg.Snapshot.CheckInterval = d
	}

	if err := envInt("CHART_CACHE_SIZE", &cfg.Chart.CacheSize); err != nil {
		return err
	}
	return nil
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}

// parseTokens reads "token:owner,token2:owner2"
func parseTokens(s string) (map[string]string, error) {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, owner, ok := strings.Cut(pair, ":")
		if !ok || token == "" || owner == "" {
			return nil, fmt.Errorf("invalid AUTH_TOKENS entry %q, want token:owner", pair)
		}
		tokens[token] = owner
	}
	return tokens, nil
}
