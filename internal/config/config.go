package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// NATS configuration
	NATS NATSConfig

	// Media layout configuration
	Media MediaConfig

	// FFmpeg configuration
	FFmpeg FFmpegConfig

	// Storage configuration
	Storage StorageConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	HTTPPort     int
	Environment  string
	ServiceName  string
	LogLevel     string
	LogFormat    string // json or console
	ShutdownTime time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL           string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// MediaConfig holds the media root under which all pipeline artifacts are
// written (videos/processed, thumbnails, hls).
type MediaConfig struct {
	Root string
}

// FFmpegConfig holds toolchain invocation configuration. Binary is resolved
// from PATH when empty. Timeout bounds each invocation; zero disables it.
type FFmpegConfig struct {
	Binary  string
	Timeout time.Duration
}

// StorageConfig holds artifact mirror configuration. An empty Type disables
// the mirror.
type StorageConfig struct {
	Type      string // local, s3
	LocalPath string
	S3Config  S3Config
}

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Bucket string
	Prefix string
	Region string
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort:     getEnvAsInt("HTTP_PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFormat:    getEnv("LOG_FORMAT", "json"),
			ShutdownTime: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "clipper"),
			Password:     getEnv("DB_PASSWORD", "clipper"),
			Database:     getEnv("DB_NAME", "clipper"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnect:  getEnvAsInt("NATS_MAX_RECONNECT", 60),
			ReconnectWait: getEnvAsDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Media: MediaConfig{
			Root: getEnv("MEDIA_ROOT", "/var/clipper/media"),
		},
		FFmpeg: FFmpegConfig{
			Binary:  getEnv("FFMPEG_PATH", ""),
			Timeout: getEnvAsDuration("FFMPEG_TIMEOUT", 30*time.Minute),
		},
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", ""),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "/var/clipper/mirror"),
			S3Config: S3Config{
				Bucket: getEnv("S3_BUCKET", "clipper-media"),
				Prefix: getEnv("S3_PREFIX", ""),
				Region: getEnv("S3_REGION", "us-east-1"),
			},
		},
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return defaultValue
}

// DSN returns the database connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}
