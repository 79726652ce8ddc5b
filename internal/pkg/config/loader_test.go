package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── strings ───────── */

func TestLoadEnvWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		env          string
		wantValue    string
		wantFallback bool
	}{
		{"unset uses default", "", "0 * * * *", false},
		{"valid value", "*/5 * * * *", "*/5 * * * *", false},
		{"descriptor", "@every 15m", "@every 15m", false},
		{"invalid falls back", "not a cron", "0 * * * *", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_SCHEDULE", tt.env)
			res := LoadEnvWithFallback("TEST_SCHEDULE", "0 * * * *", ValidateCronSchedule)
			assert.Equal(t, tt.wantValue, res.Value)
			assert.Equal(t, tt.wantFallback, res.FallbackApplied)
			if tt.wantFallback {
				require.Len(t, res.Warnings, 1)
				assert.Contains(t, res.Warnings[0], "TEST_SCHEDULE")
			}
		})
	}
}

func TestLoadEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "")
	assert.Equal(t, "def", LoadEnvString("TEST_STRING", "def"))
	t.Setenv("TEST_STRING", "val")
	assert.Equal(t, "val", LoadEnvString("TEST_STRING", "def"))
}

/* ───────── typed ───────── */

func TestLoadEnvDuration(t *testing.T) {
	t.Setenv("TEST_TIMEOUT", "90s")
	res := LoadEnvDuration("TEST_TIMEOUT", time.Minute, ValidatePositiveDuration)
	assert.Equal(t, 90*time.Second, res.Value)
	assert.False(t, res.FallbackApplied)

	t.Setenv("TEST_TIMEOUT", "-5s")
	res = LoadEnvDuration("TEST_TIMEOUT", time.Minute, ValidatePositiveDuration)
	assert.Equal(t, time.Minute, res.Value)
	assert.True(t, res.FallbackApplied)

	t.Setenv("TEST_TIMEOUT", "soon")
	res = LoadEnvDuration("TEST_TIMEOUT", time.Minute, nil)
	assert.Equal(t, time.Minute, res.Value)
	assert.True(t, res.FallbackApplied)
}

func TestLoadEnvInt(t *testing.T) {
	rangeCheck := func(v int) error { return ValidateIntRange(v, 1, 1000) }

	t.Setenv("TEST_LIMIT", "300")
	assert.Equal(t, 300, LoadEnvInt("TEST_LIMIT", 10, rangeCheck).Value)

	t.Setenv("TEST_LIMIT", "0")
	res := LoadEnvInt("TEST_LIMIT", 10, rangeCheck)
	assert.Equal(t, 10, res.Value)
	assert.True(t, res.FallbackApplied)

	t.Setenv("TEST_LIMIT", "ten")
	assert.Equal(t, 10, LoadEnvInt("TEST_LIMIT", 10, nil).Value)
}

func TestLoadEnvFloat(t *testing.T) {
	check := func(v float64) error { return ValidateFloatRange(v, 0, 1) }

	t.Setenv("TEST_FACTOR", "0.95")
	assert.InDelta(t, 0.95, LoadEnvFloat("TEST_FACTOR", 0.99, check).Value, 1e-9)

	t.Setenv("TEST_FACTOR", "1.5")
	res := LoadEnvFloat("TEST_FACTOR", 0.99, check)
	assert.InDelta(t, 0.99, res.Value, 1e-9)
	assert.True(t, res.FallbackApplied)
}

func TestLoadEnvBool(t *testing.T) {
	t.Setenv("TEST_FLAG", "true")
	assert.True(t, LoadEnvBool("TEST_FLAG", false).Value)

	t.Setenv("TEST_FLAG", "maybe")
	res := LoadEnvBool("TEST_FLAG", false)
	assert.False(t, res.Value)
	assert.True(t, res.FallbackApplied)
}

/* ───────── .env files ───────── */

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOTENV_TEST_KEY=from-file\n"), 0o600))

	t.Setenv("DOTENV_TEST_KEY", "")
	require.NoError(t, os.Unsetenv("DOTENV_TEST_KEY"))
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("DOTENV_TEST_KEY"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
