package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of every environment variable read by EnvLoader.
const EnvPrefix = "ASCIIENC_"

// EnvLoader overlays configuration from environment variables.
type EnvLoader struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnvLoader creates a loader reading the process environment.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix, lookup: os.LookupEnv}
}

// NewEnvLoaderWithLookup creates a loader with a custom lookup function.
func NewEnvLoaderWithLookup(prefix string, lookup func(string) (string, bool)) *EnvLoader {
	return &EnvLoader{prefix: prefix, lookup: lookup}
}

// envSetter stores a raw environment value into a Config.
type envSetter func(cfg *Config, value string) error

// envBindings maps variable names, without prefix, to settings.
var envBindings = map[string]envSetter{
	"PTY_MODE":    stringSetter(func(c *Config) *string { return &c.PTY.Mode }),
	"PTY_COLS":    intSetter(func(c *Config) *int { return &c.PTY.Cols }),
	"PTY_ROWS":    intSetter(func(c *Config) *int { return &c.PTY.Rows }),
	"PTY_DIR":     stringSetter(func(c *Config) *string { return &c.PTY.Dir }),
	"BUFFER_SIZE": intSetter(func(c *Config) *int { return &c.Bridge.BufferSize }),
	"RAW":         boolSetter(func(c *Config) *bool { return &c.Bridge.Raw }),
	"RECORD":      stringSetter(func(c *Config) *string { return &c.Record.Path }),
	"LOG_LEVEL":   stringSetter(func(c *Config) *string { return &c.Log.Level }),
	"LOG_FILE":    stringSetter(func(c *Config) *string { return &c.Log.File }),
}

// Apply overlays every bound variable that is set onto cfg.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Apply(cfg *Config) error {
	for name, set := range envBindings {
		env := l.prefix + name
		val, ok := l.lookup(env)
		if !ok {
			continue
		}
		if err := set(cfg, val); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}

func stringSetter(field func(*Config) *string) envSetter {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func intSetter(field func(*Config) *int) envSetter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, v)
		}
		*field(c) = n
		return nil
	}
}

func boolSetter(field func(*Config) *bool) envSetter {
	return func(c *Config, v string) error {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			*field(c) = true
		case "false", "no", "off", "0", "":
			*field(c) = false
		default:
			return fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, v)
		}
		return nil
	}
}
