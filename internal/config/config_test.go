package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("BLOB_BACKEND", "fs")
	t.Setenv("BLOB_FS_ROOT", "/var/lib/docstore")
	t.Setenv("S3_USE_PATH_STYLE", "true")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, BlobFS, cfg.Blob.Backend)
	assert.Equal(t, "/var/lib/docstore", cfg.Blob.FSRoot)
	assert.True(t, cfg.S3.UsePathStyle)
	assert.Equal(t, int64(32<<20), cfg.MaxContentBytes)
	assert.Equal(t, MetadataPostgres, cfg.MetadataBackend)
}

func TestValidate(t *testing.T) {
	valid := func() *AppConfig {
		return &AppConfig{
			Location:        "UTC",
			MetadataBackend: MetadataMemory,
			MaxContentBytes: 1024,
			Blob:            BlobConfig{Backend: BlobMemory, Compression: CompressionNone},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{"valid", func(c *AppConfig) {}, ""},
		{"unknown metadata backend", func(c *AppConfig) { c.MetadataBackend = "mongo" }, "METADATA_BACKEND"},
		{"unknown blob backend", func(c *AppConfig) { c.Blob.Backend = "ftp" }, "BLOB_BACKEND"},
		{"fs without root", func(c *AppConfig) { c.Blob.Backend = BlobFS }, "BLOB_FS_ROOT"},
		{"s3 without bucket", func(c *AppConfig) { c.Blob.Backend = BlobS3 }, "S3_BUCKET"},
		{"unknown compression", func(c *AppConfig) { c.Blob.Compression = "gzip" }, "BLOB_COMPRESSION"},
		{"non positive max content", func(c *AppConfig) { c.MaxContentBytes = 0 }, "MAX_CONTENT_BYTES"},
		{"bad location", func(c *AppConfig) { c.Location = "Mars/Olympus" }, "TZ_LOCATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestTimeLocation(t *testing.T) {
	assert.Equal(t, time.UTC, (&AppConfig{Location: "UTC"}).TimeLocation())
	assert.Equal(t, time.UTC, (&AppConfig{Location: "nowhere"}).TimeLocation())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
