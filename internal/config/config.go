// Package config loads gene scanner settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/gene-scanner-mcp/internal/ocr"
)

// Capture source kinds.
const (
	SourceScreen = "screen"
	SourceFile   = "file"
)

// MinScanInterval is the shortest accepted delay between cycle starts.
const MinScanInterval = 10 * time.Millisecond

type Config struct {
	ScanInterval      time.Duration
	TessdataDir       string
	TessdataSources   []string
	Language          string
	ProvisionRetries  int
	Source            string
	Frames            []string
	LoopFrames        bool
	SkipUnchanged     bool
	UnchangedDistance int
	FeedAddr          string
	LogLevel          slog.Level
}

// LoadDotEnv reads the given .env files into the process environment.
// Variables already set are not overridden and missing files are ignored.
// With no arguments it reads ".env" in the working directory.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("failed to read env file", "path", p, "error", err)
		}
	}
}

// Load builds the configuration from environment variables.
func Load() (*Config, error) {
	sources := ocr.DefaultTessdataSources()
	if src := getEnv("GENESCAN_TESSDATA_SOURCE", ""); src != "" {
		sources = append([]string{src}, sources...)
	}

	cfg := &Config{
		ScanInterval:      getEnvDuration("GENESCAN_SCAN_INTERVAL", 200*time.Millisecond),
		TessdataDir:       getEnv("GENESCAN_TESSDATA_DIR", ocr.DefaultTessdataDir()),
		TessdataSources:   sources,
		Language:          getEnv("GENESCAN_LANGUAGE", "eng"),
		ProvisionRetries:  getEnvInt("GENESCAN_PROVISION_RETRIES", 3),
		Source:            strings.ToLower(getEnv("GENESCAN_SOURCE", SourceScreen)),
		Frames:            getEnvList("GENESCAN_FRAMES", nil),
		LoopFrames:        getEnvBool("GENESCAN_LOOP_FRAMES", false),
		SkipUnchanged:     getEnvBool("GENESCAN_SKIP_UNCHANGED", false),
		UnchangedDistance: getEnvInt("GENESCAN_UNCHANGED_DISTANCE", 0),
		FeedAddr:          getEnv("GENESCAN_FEED_ADDR", ""),
		LogLevel:          ParseLevel(getEnv("GENESCAN_LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.ScanInterval < MinScanInterval {
		errs = append(errs, fmt.Errorf("GENESCAN_SCAN_INTERVAL must be at least %s, got %s", MinScanInterval, c.ScanInterval))
	}
	if c.ProvisionRetries < 0 || c.ProvisionRetries > 10 {
		errs = append(errs, fmt.Errorf("GENESCAN_PROVISION_RETRIES must be between 0 and 10, got %d", c.ProvisionRetries))
	}
	if c.Language == "" {
		errs = append(errs, errors.New("GENESCAN_LANGUAGE is required"))
	}
	if c.TessdataDir == "" {
		errs = append(errs, errors.New("GENESCAN_TESSDATA_DIR is required"))
	}
	if c.UnchangedDistance < 0 || c.UnchangedDistance > 64 {
		errs = append(errs, fmt.Errorf("GENESCAN_UNCHANGED_DISTANCE must be between 0 and 64, got %d", c.UnchangedDistance))
	}

	switch c.Source {
	case SourceScreen:
	case SourceFile:
		if len(c.Frames) == 0 {
			errs = append(errs, errors.New("GENESCAN_FRAMES is required when GENESCAN_SOURCE=file"))
		}
	default:
		errs = append(errs, fmt.Errorf("GENESCAN_SOURCE must be %q or %q, got %q", SourceScreen, SourceFile, c.Source))
	}

	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog level. Unknown names select info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

// getEnvDuration accepts Go durations ("250ms") or a bare number of
// milliseconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
