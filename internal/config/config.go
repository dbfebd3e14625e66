package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Supported backends.
const (
	MetadataPostgres = "postgres"
	MetadataMemory   = "memory"

	BlobMinIO  = "minio"
	BlobS3     = "s3"
	BlobFS     = "fs"
	BlobMemory = "memory"

	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Config holds settings for an AWS S3 (or compatible) bucket.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// BlobConfig selects and configures the blob store.
type BlobConfig struct {
	Backend     string
	Compression string
	FSRoot      string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost         string
	Port            string
	Location        string
	LogLevel        string
	MetadataBackend string
	MaxContentBytes int64
	Database        DatabaseConfig
	Blob            BlobConfig
	MinIO           MinIOConfig
	S3              S3Config
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:         getEnv("APP_HOST", "localhost:8080"),
		Port:            getEnv("PORT", "8080"), // default only for non-sensitive value
		Location:        getEnv("TZ_LOCATION", "UTC"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		MetadataBackend: getEnv("METADATA_BACKEND", MetadataPostgres),
		MaxContentBytes: int64(getEnvInt("MAX_CONTENT_BYTES", 32<<20)),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Blob: BlobConfig{
			Backend:     getEnv("BLOB_BACKEND", BlobMinIO),
			Compression: getEnv("BLOB_COMPRESSION", CompressionNone),
			FSRoot:      getEnv("BLOB_FS_ROOT", "./data"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
		},
	}
}

// Validate rejects unknown backends and settings the selected backends require.
func (c *AppConfig) Validate() error {
	switch c.MetadataBackend {
	case MetadataPostgres, MetadataMemory:
	default:
		return fmt.Errorf("unsupported METADATA_BACKEND %q", c.MetadataBackend)
	}

	switch c.Blob.Backend {
	case BlobMinIO, BlobS3, BlobMemory:
	case BlobFS:
		if c.Blob.FSRoot == "" {
			return fmt.Errorf("BLOB_FS_ROOT is required for the fs backend")
		}
	default:
		return fmt.Errorf("unsupported BLOB_BACKEND %q", c.Blob.Backend)
	}
	if c.Blob.Backend == BlobS3 && c.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required for the s3 backend")
	}

	switch c.Blob.Compression {
	case CompressionNone, CompressionZstd:
	default:
		return fmt.Errorf("unsupported BLOB_COMPRESSION %q", c.Blob.Compression)
	}

	if c.MaxContentBytes <= 0 {
		return fmt.Errorf("MAX_CONTENT_BYTES must be positive")
	}
	if _, err := time.LoadLocation(c.Location); err != nil {
		return fmt.Errorf("invalid TZ_LOCATION %q: %w", c.Location, err)
	}
	return nil
}

// TimeLocation returns the configured location, falling back to UTC.
func (c *AppConfig) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
