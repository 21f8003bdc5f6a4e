package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr          = ":8000"
	defaultDatabaseURL       = "admetrics.db"
	defaultSecretKey         = "change-me-secret-key"
	defaultTokenTTLMinutes   = "30"
	defaultHeartbeatLogPath  = "cron_job.log"
	defaultHeartbeatSpec     = "@every 6h"
	defaultIPInfoURL         = "https://ipinfo.io"
	defaultProbeTimeout      = "3s"
	defaultBuyURL            = "http://localhost:8000"
	defaultLogLevel          = "info"
	defaultLogJSON           = "false"
	defaultShutdownTimeout   = "10s"
	defaultReadHeaderTimeout = "10s"
)

// Dimension names accepted by DIMENSION_DEDUP.
const (
	DimRegion   = "region"
	DimPlatform = "platform"
	DimDevice   = "device"
)

type Config struct {
	AppEnv            string
	HTTPAddr          string
	DatabaseURL       string
	SecretKey         string
	AccessTokenTTL    time.Duration
	HeartbeatLogPath  string
	HeartbeatSpec     string
	IPInfoURL         string
	ProbeTimeout      time.Duration
	DimensionDedup    map[string]bool
	DefaultBuyURL     string
	CORSOrigins       []string
	LogLevel          string
	LogJSON           bool
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

// Load reads the process environment, after merging an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.SecretKey = strings.TrimSpace(getEnv("SECRET_KEY", defaultSecretKey))
	cfg.HeartbeatLogPath = strings.TrimSpace(getEnv("HEARTBEAT_LOG_PATH", defaultHeartbeatLogPath))
	cfg.HeartbeatSpec = strings.TrimSpace(getEnv("HEARTBEAT_SPEC", defaultHeartbeatSpec))
	cfg.IPInfoURL = strings.TrimRight(strings.TrimSpace(getEnv("IPINFO_URL", defaultIPInfoURL)), "/")
	cfg.DefaultBuyURL = strings.TrimSpace(getEnv("DEFAULT_BUY_URL", defaultBuyURL))
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))
	cfg.LogJSON = parseBoolEnv("LOG_JSON", defaultLogJSON)
	cfg.DimensionDedup = parseSetEnv("DIMENSION_DEDUP")
	cfg.CORSOrigins = parseListEnv("CORS_ALLOWED_ORIGINS")

	minutes, err := strconv.Atoi(strings.TrimSpace(getEnv("ACCESS_TOKEN_EXPIRE_MINUTES", defaultTokenTTLMinutes)))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
	}
	cfg.AccessTokenTTL = time.Duration(minutes) * time.Minute

	cfg.ProbeTimeout, err = parseDurationEnv("PROBE_TIMEOUT", defaultProbeTimeout)
	if err != nil {
		return nil, err
	}

	cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if err != nil {
		return nil, err
	}

	cfg.ReadHeaderTimeout, err = parseDurationEnv("READ_HEADER_TIMEOUT", defaultReadHeaderTimeout)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be > 0")
	}
	if cfg.ProbeTimeout <= 0 {
		return fmt.Errorf("PROBE_TIMEOUT must be > 0")
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be > 0")
	}
	if cfg.HeartbeatSpec == "" {
		return fmt.Errorf("HEARTBEAT_SPEC must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	for name := range cfg.DimensionDedup {
		if name != DimRegion && name != DimPlatform && name != DimDevice {
			return fmt.Errorf("DIMENSION_DEDUP: unknown dimension %q (allowed: region, platform, device)", name)
		}
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.SecretKey, defaultSecretKey) {
			return fmt.Errorf("in prod/release SECRET_KEY must be set and not default")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool { return isProdLike(c.AppEnv) }

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func parseListEnv(name string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(name), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseSetEnv(name string) map[string]bool {
	set := make(map[string]bool)
	for _, v := range parseListEnv(name) {
		set[strings.ToLower(v)] = true
	}
	return set
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
