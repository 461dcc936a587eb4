// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/user/fasthumb/pkg/adapters/smartdecoder"
	"github.com/user/fasthumb/pkg/orchestrator"
	"github.com/user/fasthumb/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for fasthumb.
type Config struct {
	// Input/Output
	StreamID  uint16 `yaml:"stream_id"`
	OutputDir string `yaml:"output_dir"`

	// Thumbnails
	Width    int      `yaml:"width"`
	Height   int      `yaml:"height"`
	Interval Duration `yaml:"interval"`
	Quality  int      `yaml:"quality"`

	// Decoding
	Backend    string `yaml:"backend"`
	FFmpegPath string `yaml:"ffmpeg_path"`
	Device     int    `yaml:"device"`

	// Contact sheet
	Sheet SheetConfig `yaml:"sheet"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// SheetConfig represents contact sheet settings.
type SheetConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Columns    int    `yaml:"columns"`
	Name       string `yaml:"name"`
	Background string `yaml:"background"`
}

// Duration is a time.Duration read from strings such as "10s" or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		OutputDir: ".",

		Width:    240,
		Height:   192,
		Interval: Duration(10 * time.Second),
		Quality:  75,

		Backend: string(smartdecoder.BackendAuto),

		Sheet: SheetConfig{
			Columns:    4,
			Name:       "sheet.jpg",
			Background: "#000000",
		},

		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a run.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("thumbnail size %dx%d must be positive", c.Width, c.Height)
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("thumbnail size %dx%d must be even for 4:2:0 output", c.Width, c.Height)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval %s must be positive", time.Duration(c.Interval))
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality %d must be between 1 and 100", c.Quality)
	}
	if _, err := smartdecoder.ParseBackend(c.Backend); err != nil {
		return err
	}
	if c.Sheet.Enabled && c.Sheet.Columns <= 0 {
		return fmt.Errorf("sheet columns %d must be positive", c.Sheet.Columns)
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}

// ParseColor parses a hex color string to color.Color.
func ParseColor(hex string) color.Color {
	if len(hex) == 0 {
		return color.Black
	}

	if hex[0] == '#' {
		hex = hex[1:]
	}

	if len(hex) != 6 {
		return color.Black
	}

	return color.RGBA{
		R: hexValue(hex[0])<<4 | hexValue(hex[1]),
		G: hexValue(hex[2])<<4 | hexValue(hex[3]),
		B: hexValue(hex[4])<<4 | hexValue(hex[5]),
		A: 255,
	}
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(inputPath string) orchestrator.Config {
	return orchestrator.Config{
		InputPath: inputPath,
		StreamID:  c.StreamID,

		Interval: time.Duration(c.Interval),

		Width:     c.Width,
		Height:    c.Height,
		Quality:   c.Quality,
		OutputDir: c.OutputDir,

		SheetEnabled:    c.Sheet.Enabled,
		SheetColumns:    c.Sheet.Columns,
		SheetName:       c.Sheet.Name,
		SheetBackground: ParseColor(c.Sheet.Background),
	}
}

// DecoderOptions returns the engine selection settings.
func (c Config) DecoderOptions() smartdecoder.Options {
	return smartdecoder.Options{
		Backend:    smartdecoder.Backend(c.Backend),
		FFmpegPath: c.FFmpegPath,
		Device:     c.Device,
	}
}
