package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultGeminiModel   = "gemini-1.5-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	// Capture and analysis
	AnalysisLatency    time.Duration
	DeviceSettleDelay  time.Duration
	CameraWidth        int
	CameraHeight       int
	CameraFeedImage    string
	UploadMaxDimension int
	UploadMaxPixels    int64
	SessionIdleTimeout time.Duration

	// Chat collaborator
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	ChatTimeout   time.Duration
	ChatRateLimit float64
	ChatRateBurst int

	// Remote upload sources
	ImageFetchTimeout   time.Duration
	AzureStorageAccount string
	AzureStorageKey     string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob references can be resolved.
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// LoadFromEnv reads a .env file when present, then the process environment.
// Variables already set in the environment win over the file.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),

		AnalysisLatency:    parseDurationOrDefault("ANALYSIS_LATENCY", 2*time.Second),
		DeviceSettleDelay:  parseDurationOrDefault("DEVICE_SETTLE_DELAY", 300*time.Millisecond),
		CameraWidth:        int(parseIntOrDefault("CAMERA_WIDTH", 1280)),
		CameraHeight:       int(parseIntOrDefault("CAMERA_HEIGHT", 720)),
		CameraFeedImage:    os.Getenv("CAMERA_FEED_IMAGE"),
		UploadMaxDimension: int(parseIntOrDefault("UPLOAD_MAX_DIMENSION", 2048)),
		UploadMaxPixels:    parseIntOrDefault("UPLOAD_MAX_PIXELS", 40_000_000),
		SessionIdleTimeout: parseDurationOrDefault("SESSION_IDLE_TIMEOUT", 10*time.Minute),

		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getEnvOrDefault("GEMINI_MODEL", DefaultGeminiModel),
		GeminiBaseURL: getEnvOrDefault("GEMINI_BASE_URL", DefaultGeminiBaseURL),
		ChatTimeout:   parseDurationOrDefault("CHAT_TIMEOUT", 30*time.Second),
		ChatRateLimit: parseFloatOrDefault("CHAT_RATE_LIMIT", 1),
		ChatRateBurst: int(parseIntOrDefault("CHAT_RATE_BURST", 5)),

		ImageFetchTimeout:   parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.ChatTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, chat=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.ChatTimeout)
	}
	if c.AnalysisLatency < 0 || c.DeviceSettleDelay < 0 {
		return fmt.Errorf("delays must be >= 0 (got analysis=%s, settle=%s)", c.AnalysisLatency, c.DeviceSettleDelay)
	}
	if c.CameraWidth <= 0 || c.CameraHeight <= 0 {
		return fmt.Errorf("camera resolution must be positive (got %dx%d)", c.CameraWidth, c.CameraHeight)
	}
	if c.UploadMaxDimension <= 0 {
		return fmt.Errorf("UPLOAD_MAX_DIMENSION must be > 0 (got %d)", c.UploadMaxDimension)
	}
	if c.UploadMaxPixels <= 0 {
		return fmt.Errorf("UPLOAD_MAX_PIXELS must be > 0 (got %d)", c.UploadMaxPixels)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be > 0 (got %s)", c.SessionIdleTimeout)
	}
	if c.ChatRateLimit <= 0 || c.ChatRateBurst <= 0 {
		return fmt.Errorf("chat rate limit must be > 0 (got limit=%g, burst=%d)", c.ChatRateLimit, c.ChatRateBurst)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration >= 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
