package config

import (
	"fmt"

	"github.com/dshills/asciienc/internal/bridge"
	"github.com/dshills/asciienc/internal/logging"
	"github.com/dshills/asciienc/internal/pty"
)

// Config is the complete asciienc configuration.
type Config struct {
	PTY    PTYConfig    `toml:"pty" yaml:"pty"`
	Bridge BridgeConfig `toml:"bridge" yaml:"bridge"`
	Record RecordConfig `toml:"record" yaml:"record"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// PTYConfig controls how the child is spawned.
type PTYConfig struct {
	// Mode is native, bypass or pipe.
	Mode string `toml:"mode" yaml:"mode"`

	// Cols and Rows are the initial terminal size.
	Cols int `toml:"cols" yaml:"cols"`
	Rows int `toml:"rows" yaml:"rows"`

	// Env replaces the child's environment when set.
	Env []string `toml:"env" yaml:"env"`

	// Dir is the child's working directory.
	Dir string `toml:"dir" yaml:"dir"`
}

// BridgeConfig controls the stream bridge.
type BridgeConfig struct {
	BufferSize int  `toml:"buffer_size" yaml:"buffer_size"`
	Raw        bool `toml:"raw" yaml:"raw"`
}

// RecordConfig controls recording of child output.
type RecordConfig struct {
	// Path of the recording file. Empty disables recording.
	Path string `toml:"path" yaml:"path"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`

	// File receives log output instead of stderr.
	File string `toml:"file" yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		PTY: PTYConfig{
			Mode: pty.ModeNative.String(),
			Cols: pty.DefaultSize.Cols,
			Rows: pty.DefaultSize.Rows,
		},
		Bridge: BridgeConfig{
			BufferSize: bridge.DefaultBufferSize,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load returns the defaults overlaid with the file at path and then the
// ASCIIENC_* environment. An empty path or a missing file skips the file
// layer. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := NewEnvLoader(EnvPrefix).Apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	if _, err := pty.ParseMode(c.PTY.Mode); err != nil {
		return &ValidationError{Setting: "pty.mode", Message: fmt.Sprintf("unknown mode %q", c.PTY.Mode)}
	}
	if err := c.Size().Validate(); err != nil {
		return &ValidationError{
			Setting: "pty.cols/pty.rows",
			Message: fmt.Sprintf("%dx%d outside 1..%d", c.PTY.Cols, c.PTY.Rows, pty.MaxDimension),
		}
	}
	if c.Bridge.BufferSize <= 0 {
		return &ValidationError{Setting: "bridge.buffer_size", Message: "must be positive"}
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return &ValidationError{Setting: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}
	return nil
}

// Mode returns the parsed spawn mode.
func (c Config) Mode() (pty.Mode, error) {
	return pty.ParseMode(c.PTY.Mode)
}

// Size returns the initial terminal size.
func (c Config) Size() pty.Size {
	return pty.Size{Cols: c.PTY.Cols, Rows: c.PTY.Rows}
}

// LogLevel returns the parsed log level, LevelInfo if it is unknown.
func (c Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}
