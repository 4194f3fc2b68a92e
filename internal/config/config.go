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

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Directories DirectoriesConfig
	Server      ServerConfig
	Image       ImageConfig
	Scanner     ScannerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DirectoriesConfig holds filesystem layout configuration.
type DirectoriesConfig struct {
	// Content is the directory holding the zip-packaged archives.
	Content string
	// Data is the base directory for the database and caches.
	Data string
	// Thumbs is the directory for rendered page derivatives
	// (default: {data}/thumbs).
	Thumbs string
}

// DatabasePath returns the SQLite database file location.
func (d DirectoriesConfig) DatabasePath() string {
	return filepath.Join(d.Data, "stackshelf.db")
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// ImageConfig holds derivative rendering configuration.
// Width/quality/speed defaults follow the upstream thumbnail presets.
type ImageConfig struct {
	// Format is the encode target for derivatives: jpeg or png.
	Format string
	// CoverWidth is the target width for cover and resampled derivatives.
	CoverWidth int
	// ThumbWidth is the target width for thumbnail derivatives.
	ThumbWidth int
	// Quality is the lossy encode quality (1-100).
	Quality int
	// Speed trades encode effort for speed (0-10, codec dependent).
	Speed int
	// Caching holds per-kind Cache-Control max-ages in seconds.
	Caching CachingConfig
}

// CachingConfig holds Cache-Control max-age values, in seconds, per
// derivative kind. Zero disables the header.
type CachingConfig struct {
	Cover     int
	Thumbnail int
	Page      int
}

// Extension returns the cache file extension for the configured format.
func (i ImageConfig) Extension() string {
	if i.Format == "png" {
		return "png"
	}
	return "jpeg"
}

// ScannerConfig holds ingest configuration.
type ScannerConfig struct {
	// Workers is the number of concurrent archive ingests (default: 4).
	Workers int
	// Watch enables the filesystem watcher on the content directory.
	Watch bool
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	contentDir := flag.String("content-dir", "", "Directory containing zip archives")
	dataDir := flag.String("data-dir", "", "Base directory for database and caches")
	thumbsDir := flag.String("thumbs-dir", "", "Directory for rendered derivatives (default: {data}/thumbs)")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	imageFormat := flag.String("image-format", "", "Derivative encode format: jpeg or png (default: jpeg)")
	scanWorkers := flag.String("scan-workers", "", "Concurrent archive ingests (default: 4)")
	watch := flag.String("watch", "", "Watch the content directory for new archives (default: true)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Directories: DirectoriesConfig{
			Content: getConfigValue(*contentDir, "CONTENT_DIR", ""),
			Data:    getConfigValue(*dataDir, "DATA_DIR", ""),
			Thumbs:  getConfigValue(*thumbsDir, "THUMBS_DIR", ""),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Image: ImageConfig{
			Format:     getConfigValue(*imageFormat, "IMAGE_FORMAT", "jpeg"),
			CoverWidth: getIntConfigValue("", "IMAGE_COVER_WIDTH", 540),
			ThumbWidth: getIntConfigValue("", "IMAGE_THUMB_WIDTH", 320),
			Quality:    getIntConfigValue("", "IMAGE_QUALITY", 50),
			Speed:      getIntConfigValue("", "IMAGE_SPEED", 4),
			Caching: CachingConfig{
				Cover:     getIntConfigValue("", "CACHE_MAX_AGE_COVER", 259200),
				Thumbnail: getIntConfigValue("", "CACHE_MAX_AGE_THUMBNAIL", 259200),
				Page:      getIntConfigValue("", "CACHE_MAX_AGE_PAGE", 259200),
			},
		},
		Scanner: ScannerConfig{
			Workers: getIntConfigValue(*scanWorkers, "SCAN_WORKERS", 4),
			Watch:   getBoolConfigValue(*watch, "WATCH_CONTENT", true),
		},
	}

	// Parse server timeouts.
	var err error
	if cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}

	if err := cfg.expandDirectories(); err != nil {
		return nil, fmt.Errorf("invalid directory config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
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

	if c.Directories.Content == "" {
		return errors.New("content directory is required")
	}
	if c.Directories.Data == "" {
		return errors.New("data directory cannot be empty after expansion")
	}

	if c.Image.Format != "jpeg" && c.Image.Format != "png" {
		return fmt.Errorf("invalid image format: %s (must be jpeg or png)", c.Image.Format)
	}
	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return fmt.Errorf("invalid image quality: %d (must be 1-100)", c.Image.Quality)
	}
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("invalid scan worker count: %d", c.Scanner.Workers)
	}

	return nil
}

// expandDirectories expands ~ and fills in derived defaults.
func (c *Config) expandDirectories() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	c.Directories.Data, err = expandPath(c.Directories.Data, filepath.Join(homeDir, "StackShelf", "data"))
	if err != nil {
		return err
	}
	c.Directories.Content, err = expandPath(c.Directories.Content, "")
	if err != nil {
		return err
	}
	c.Directories.Thumbs, err = expandPath(c.Directories.Thumbs, filepath.Join(c.Directories.Data, "thumbs"))
	if err != nil {
		return err
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
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

// parseDurationValue resolves a duration from flag, env var, or default.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", strValue, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
