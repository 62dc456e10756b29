// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Data     DataConfig
	Places   PlacesConfig
	Scrape   ScrapeConfig
	Enrich   EnrichConfig
	Pipeline PipelineConfig
	Server   ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds persisted-state configuration.
type DataConfig struct {
	BasePath     string // Directory for cache files (default: ~/SportMap/data)
	CacheBackend string // file, badger or sqlite (default: file)
	CatalogFile  string // Optional YAML catalog override
}

// PlacesConfig holds place lookup configuration.
type PlacesConfig struct {
	APIKey      string
	MaxRequests int           // Lifetime request budget (default: 10000)
	Delay       time.Duration // Pause after every request (default: 100ms)
	Timeout     time.Duration // Per-request timeout (default: 15s)
}

// ScrapeConfig holds price and reference page fetching configuration.
type ScrapeConfig struct {
	Timeout time.Duration // Per-page timeout (default: 20s)
	Delay   time.Duration // Pause between candidate pages of one chain (default: 700ms)
}

// EnrichConfig holds enrichment policy.
type EnrichConfig struct {
	HoursIfMissing  bool // Look up opening hours when the record has none (default: true)
	LinksIfMissing  bool // Look up links when the record has none (default: true)
	CheckpointEvery int  // Save the cache after this many new entries, 0 disables (default: 50)
	RecordLimit     int  // Maximum records per batch run, 0 means no limit (default: 4000)
}

// PipelineConfig holds batch input and output locations.
type PipelineConfig struct {
	InputPath  string // JSON lines of records; "-" or empty reads stdin
	OutputPath string // JSON lines of views; "-" or empty writes stdout
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 120s, enrichment blocks on lookups)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)

	AllowedOrigins  []string // CORS origins, empty allows any
	EnrichPerMinute int      // Enrich requests per client per minute, 0 disables (default: 60)
}

// CachePath returns the location of the enrichment cache for the configured backend.
func (c *Config) CachePath() string {
	switch c.Data.CacheBackend {
	case BackendBadger:
		return filepath.Join(c.Data.BasePath, "places_cache.badger")
	case BackendSQLite:
		return filepath.Join(c.Data.BasePath, "places_cache.db")
	default:
		return filepath.Join(c.Data.BasePath, "places_cache.json")
	}
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("sportmap", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the enrichment cache")
	cacheBackend := fs.String("cache-backend", "", "Cache backend: file, badger or sqlite (default: file)")
	catalogFile := fs.String("catalog", "", "Path to a YAML catalog overriding the built-in one")

	// Places flags
	placesMaxRequests := fs.String("places-max-requests", "", "Lifetime place lookup request budget (default: 10000)")
	placesDelay := fs.String("places-delay", "", "Pause after every place request (default: 100ms)")
	placesTimeout := fs.String("places-timeout", "", "Place request timeout (default: 15s)")

	// Scrape flags
	scrapeTimeout := fs.String("scrape-timeout", "", "Page fetch timeout (default: 20s)")
	scrapeDelay := fs.String("scrape-delay", "", "Pause between candidate price pages (default: 700ms)")

	// Enrichment flags
	hoursIfMissing := fs.String("hours-if-missing", "", "Look up opening hours when missing (default: true)")
	linksIfMissing := fs.String("links-if-missing", "", "Look up links when missing (default: true)")
	checkpointEvery := fs.String("checkpoint-every", "", "Save the cache after this many new entries (default: 50)")
	recordLimit := fs.String("limit", "", "Maximum records per run, 0 for no limit (default: 4000)")

	// Pipeline flags
	inputPath := fs.String("in", "", "Input records (JSON lines, default: stdin)")
	outputPath := fs.String("out", "", "Output views (JSON lines, default: stdout)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 120s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated CORS origins (default: any)")
	enrichPerMinute := fs.String("enrich-rate", "", "Enrich requests per client per minute, 0 disables (default: 60)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath:     getConfigValue(*dataPath, "DATA_PATH", ""),
			CacheBackend: strings.ToLower(getConfigValue(*cacheBackend, "CACHE_BACKEND", BackendFile)),
			CatalogFile:  getConfigValue(*catalogFile, "CATALOG_FILE", ""),
		},
		Places: PlacesConfig{
			// Never accepted as a flag so it does not show up in process listings.
			APIKey:      getConfigValue("", "PLACES_API_KEY", ""),
			MaxRequests: getIntConfigValue(*placesMaxRequests, "PLACES_MAX_REQUESTS", 10000),
		},
		Enrich: EnrichConfig{
			HoursIfMissing:  getBoolConfigValue(*hoursIfMissing, "ENRICH_HOURS_IF_MISSING", true),
			LinksIfMissing:  getBoolConfigValue(*linksIfMissing, "ENRICH_LINKS_IF_MISSING", true),
			CheckpointEvery: getIntConfigValue(*checkpointEvery, "CHECKPOINT_EVERY", 50),
			RecordLimit:     getIntConfigValue(*recordLimit, "RECORD_LIMIT", 4000),
		},
		Pipeline: PipelineConfig{
			InputPath:  getConfigValue(*inputPath, "INPUT_PATH", ""),
			OutputPath: getConfigValue(*outputPath, "OUTPUT_PATH", ""),
		},
		Server: ServerConfig{
			Port:            getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins:  splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "")),
			EnrichPerMinute: getIntConfigValue(*enrichPerMinute, "ENRICH_RATE_LIMIT", 60),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		dest      *time.Duration
	}{
		{*placesDelay, "PLACES_DELAY", "100ms", &cfg.Places.Delay},
		{*placesTimeout, "PLACES_TIMEOUT", "15s", &cfg.Places.Timeout},
		{*scrapeTimeout, "SCRAPE_TIMEOUT", "20s", &cfg.Scrape.Timeout},
		{*scrapeDelay, "SCRAPE_DELAY", "700ms", &cfg.Scrape.Delay},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "120s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		value, err := getDurationConfigValue(d.flagValue, d.envKey, d.def)
		if err != nil {
			return nil, err
		}
		*d.dest = value
	}

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Data.CacheBackend {
	case BackendFile, BackendBadger, BackendSQLite:
	default:
		return fmt.Errorf("invalid cache backend: %s (must be file, badger, or sqlite)", c.Data.CacheBackend)
	}

	if c.Places.MaxRequests < 0 {
		return fmt.Errorf("invalid places max requests: %d (must not be negative)", c.Places.MaxRequests)
	}
	if c.Enrich.CheckpointEvery < 0 {
		return fmt.Errorf("invalid checkpoint interval: %d (must not be negative)", c.Enrich.CheckpointEvery)
	}
	if c.Enrich.RecordLimit < 0 {
		return fmt.Errorf("invalid record limit: %d (must not be negative)", c.Enrich.RecordLimit)
	}
	if c.Server.EnrichPerMinute < 0 {
		return fmt.Errorf("invalid enrich rate limit: %d (must not be negative)", c.Server.EnrichPerMinute)
	}
	if c.Places.Delay < 0 || c.Scrape.Delay < 0 {
		return errors.New("delays must not be negative")
	}

	// An absent places key is valid: live lookups are simply disabled.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "SportMap", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), strValue, err)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(value string) []string {
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
