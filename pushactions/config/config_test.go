// --- File: pushactions/config/config_test.go ---
package config_test

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-push-actions/pushactions/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpdateConfigWithEnvOverrides(t *testing.T) {
	logger := newTestLogger()

	baseConfig := func() *config.Config {
		return &config.Config{
			ProjectID:          "base-project",
			ListenAddr:         ":8080",
			SubscriptionID:     "base-sub",
			NumPipelineWorkers: 2,
			CredentialsFile:    "base-creds.json",
		}
	}

	t.Run("Success - All overrides applied", func(t *testing.T) {
		cfg := baseConfig()

		t.Setenv("PROJECT_ID", "env-project")
		t.Setenv("PORT", "9090")
		t.Setenv("SUBSCRIPTION_ID", "env-sub")
		t.Setenv("CREDENTIALS_FILE", "env-creds.json")
		t.Setenv("DRY_RUN", "true")

		finalCfg, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		require.NoError(t, err)

		assert.Equal(t, "env-project", finalCfg.ProjectID)
		assert.Equal(t, ":9090", finalCfg.ListenAddr)
		assert.Equal(t, "env-sub", finalCfg.SubscriptionID)
		assert.Equal(t, "env-creds.json", finalCfg.CredentialsFile)
		assert.True(t, finalCfg.DryRun)
	})

	t.Run("Success - Defaults preserved", func(t *testing.T) {
		cfg := baseConfig()
		finalCfg, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		require.NoError(t, err)

		assert.Equal(t, "base-project", finalCfg.ProjectID)
		assert.Equal(t, "base-creds.json", finalCfg.CredentialsFile)
		assert.False(t, finalCfg.DryRun)
	})

	t.Run("Success - Worker count floored at one", func(t *testing.T) {
		cfg := baseConfig()
		cfg.NumPipelineWorkers = 0
		finalCfg, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, 1, finalCfg.NumPipelineWorkers)
	})

	t.Run("Validation Failure - Missing ProjectID", func(t *testing.T) {
		cfg := &config.Config{SubscriptionID: "sub"}
		os.Unsetenv("PROJECT_ID")
		_, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		assert.Error(t, err)
	})
}
