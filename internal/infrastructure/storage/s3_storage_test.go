package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	infraconfig "github.com/vaultwrx/billing/internal/infrastructure/config"
)

func TestNewS3BlobStorage_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3BlobStorage(nil)
		assert.ErrorContains(t, err, "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := NewS3BlobStorage(&infraconfig.StorageConfig{})
		assert.ErrorContains(t, err, "bucket is required")
	})
}

func TestNewS3BlobStorage_Defaults(t *testing.T) {
	store, err := NewS3BlobStorage(&infraconfig.StorageConfig{
		Endpoint:        "localhost:9000",
		Bucket:          "vaultwrx-statements",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "vaultwrx-statements", store.GetBucket())
	assert.Equal(t, 15*time.Minute, store.presignExpiry)
}

func TestNewS3BlobStorage_PresignExpiryFromConfig(t *testing.T) {
	store, err := NewS3BlobStorage(&infraconfig.StorageConfig{
		Bucket:        "vaultwrx-statements",
		Region:        "us-east-2",
		PresignExpiry: 365 * 24 * time.Hour,
	})
	require.NoError(t, err)

	assert.Equal(t, 365*24*time.Hour, store.presignExpiry)
}
