// Package config loads typed settings from environment variables.
//
// Every loader is fail-open: a missing variable yields the default, and a
// value that does not parse or validate also yields the default together
// with a warning. Callers log the warnings and record them in
// ConfigMetrics, so a bad deployment keeps running with known settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Result is the outcome of loading one setting.
//
// Fields:
//   - Value: the loaded value, or the default when FallbackApplied is set
//   - Warnings: one message per fallback that was applied
//   - FallbackApplied: true if the environment value was rejected
type Result[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process
// environment. Variables that are already set win. Missing files are not
// an error, which lets the same binary run with or without a .env file.
//
// Example:
//
//	if err := config.LoadDotEnv(".env"); err != nil {
//	    logger.Warn("ignoring .env", slog.Any("error", err))
//	}
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadEnvString returns the variable, or defaultValue when it is unset or
// empty. No validation is performed.
func LoadEnvString(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string and validates it.
//
// Parameters:
//   - envKey: environment variable name
//   - defaultValue: used when unset or when validation fails
//   - validator: may be nil
//
// Example:
//
//	res := LoadEnvWithFallback("HOTNESS_SCHEDULE", "0 * * * *", ValidateCronSchedule)
//	schedule := res.Value
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) Result[string] {
	return load(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string such as "30s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) Result[time.Duration] {
	return load(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base 10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) Result[int] {
	return load(envKey, defaultValue, strconv.Atoi, validator)
}

// LoadEnvFloat loads a floating point number.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) Result[float64] {
	return load(envKey, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}, validator)
}

// LoadEnvBool loads a boolean. Accepted values are those of
// strconv.ParseBool ("1", "t", "true", "0", "f", "false", ...).
func LoadEnvBool(envKey string, defaultValue bool) Result[bool] {
	return load(envKey, defaultValue, strconv.ParseBool, nil)
}

func load[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) Result[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return Result[T]{Value: defaultValue}
	}
	v, err := parse(raw)
	if err == nil && validator != nil {
		err = validator(v)
	}
	if err != nil {
		return Result[T]{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, err, defaultValue,
			)},
			FallbackApplied: true,
		}
	}
	return Result[T]{Value: v}
}
