package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardmon/wardmon/pkg/alerting"
	"github.com/wardmon/wardmon/pkg/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `{
		"listen_addr": ":8080",
		"db_path": "/var/lib/wardmon/wardmon.db",
		"stale_after": "10m",
		"retention": "720h",
		"thresholds": [
			{"channel": "temperature", "alert": "high_temperature", "comparator": ">", "value": 28}
		],
		"webhooks": [
			{"enabled": true, "url": "https://hooks.example/abc", "cooldown": "15m"}
		],
		"mirror": {
			"enabled": true,
			"base_url": "https://store.example",
			"collection": "sensor_readings",
			"interval": "30s"
		}
	}`)

	var cfg ServerConfig
	require.NoError(t, LoadAndValidate(path, &cfg))

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 10*time.Minute, time.Duration(cfg.StaleAfter))
	assert.Equal(t, 720*time.Hour, time.Duration(cfg.Retention))

	require.Len(t, cfg.Thresholds, 1)
	assert.Equal(t, alerting.OpAbove, cfg.Thresholds[0].Op)
	assert.Equal(t, models.AlertHighTemperature, cfg.Thresholds[0].Alert)

	require.Len(t, cfg.Webhooks, 1)
	assert.Equal(t, 15*time.Minute, cfg.Webhooks[0].Cooldown)

	assert.True(t, cfg.Mirror.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Mirror.Interval)
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := ServerConfig{ListenAddr: ":8080", DBPath: "wardmon.db"}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5*time.Minute, time.Duration(cfg.StaleAfter))
	assert.Equal(t, 30*24*time.Hour, time.Duration(cfg.Retention))
	assert.Equal(t, time.Hour, time.Duration(cfg.CleanupInterval))
	assert.Equal(t, alerting.DefaultRules(), cfg.Thresholds)
	assert.False(t, cfg.Mirror.Enabled)
}

func TestValidateRequiredFields(t *testing.T) {
	assert.ErrorIs(t, (&ServerConfig{DBPath: "x"}).Validate(), errEmptyListenAddr)
	assert.ErrorIs(t, (&ServerConfig{ListenAddr: ":1"}).Validate(), errEmptyDBPath)
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := ServerConfig{
		ListenAddr: ":8080",
		DBPath:     "wardmon.db",
		Thresholds: []alerting.Rule{{Channel: "temperature"}},
	}

	assert.Error(t, cfg.Validate())
}

func TestLoadFileMissing(t *testing.T) {
	var cfg ServerConfig

	err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), &cfg)
	assert.Error(t, err)
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration

	require.NoError(t, json.Unmarshal([]byte(`"90s"`), &d))
	assert.Equal(t, 90*time.Second, time.Duration(d))

	require.NoError(t, json.Unmarshal([]byte(`60000000000`), &d))
	assert.Equal(t, time.Minute, time.Duration(d))

	err := json.Unmarshal([]byte(`"soon"`), &d)
	assert.ErrorIs(t, err, errInvalidDuration)

	err = json.Unmarshal([]byte(`true`), &d)
	assert.ErrorIs(t, err, errInvalidDuration)
}
