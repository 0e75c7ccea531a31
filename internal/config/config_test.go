package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.ContentSafety.Timeout)
	assert.Equal(t, "2023-10-01", cfg.ContentSafety.APIVersion)
	assert.Equal(t, ThresholdConfig{Hate: 4, SelfHarm: 4, Sexual: 2, Violence: 4}, cfg.ContentSafety.Thresholds)
	assert.Equal(t, uint(408), cfg.Thumbnails.Width)
	assert.Equal(t, "media:ingest", cfg.Redis.Stream)
	assert.Equal(t, int64(5), cfg.Redis.MaxDeliveries)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ARTGALLERY_POSTGRES_DSN", "postgres://gallery:secret@db:5432/gallery")
	t.Setenv("ARTGALLERY_CONTENTSAFETY_THRESHOLDS_SEXUAL", "-1")
	t.Setenv("ARTGALLERY_CONTENTSAFETY_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://gallery:secret@db:5432/gallery", cfg.Postgres.DSN)
	assert.Equal(t, -1, cfg.ContentSafety.Thresholds.Sexual)
	assert.Equal(t, 3*time.Second, cfg.ContentSafety.Timeout)
}

func TestValidateRejectsUnknownThreshold(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{
			name:    "odd severity",
			mutate:  func(c *AppConfig) { c.ContentSafety.Thresholds.Violence = 3 },
			wantErr: "contentsafety.thresholds.violence",
		},
		{
			name:    "below disabled",
			mutate:  func(c *AppConfig) { c.ContentSafety.Thresholds.Hate = -2 },
			wantErr: "contentsafety.thresholds.hate",
		},
		{
			name:    "zero thumbnail width",
			mutate:  func(c *AppConfig) { c.Thumbnails.Width = 0 },
			wantErr: "thumbnails.width",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{
				ContentSafety: ContentSafetyConfig{Thresholds: ThresholdConfig{Hate: 4, SelfHarm: 4, Sexual: 2, Violence: 4}},
				Thumbnails:    ThumbnailConfig{Width: 408},
			}
			require.NoError(t, cfg.Validate())

			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsFirstBadThreshold(t *testing.T) {
	cfg := AppConfig{
		ContentSafety: ContentSafetyConfig{Thresholds: ThresholdConfig{Hate: 1, SelfHarm: 3, Sexual: 5, Violence: 7}},
		Thumbnails:    ThumbnailConfig{Width: 408},
	}
	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, "contentsafety.thresholds.hate: 1 is not one of -1, 0, 2, 4, 6", err.Error())
	}
}
