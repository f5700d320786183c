// Package app provides the application lifecycle and configuration for the
// emulator.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all application configuration, persisted as JSON.
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	configPath string
}

// WindowConfig contains window-related configuration.
type WindowConfig struct {
	Scale      int  `json:"scale"` // NES resolution multiplier
	Fullscreen bool `json:"fullscreen"`
}

// VideoConfig contains presentation configuration.
type VideoConfig struct {
	Backend string `json:"backend"` // "ebitengine", "headless", "terminal"
	VSync   bool   `json:"vsync"`
}

// InputConfig contains keyboard mappings for both controller ports.
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping names the key bound to each controller button.
type KeyMapping struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Select string `json:"select"`
	Start  string `json:"start"`
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
}

// buttonOrder lays the mapping out in controller mask bit order.
func (k KeyMapping) buttonOrder() [8]string {
	return [8]string{k.A, k.B, k.Select, k.Start, k.Up, k.Down, k.Left, k.Right}
}

// EmulationConfig contains emulation-specific settings.
type EmulationConfig struct {
	Region    string  `json:"region"` // only "NTSC" is implemented
	FrameRate float64 `json:"frame_rate"`
}

// DebugConfig contains debugging options.
type DebugConfig struct {
	Verbosity int `json:"verbosity"` // glog -v level applied at startup
}

// PathsConfig names the ROM and screenshot directories. They are persisted
// with the rest of the config; the application neither creates nor reads them.
type PathsConfig struct {
	ROMs        string `json:"roms"`
	Screenshots string `json:"screenshots"`
}

// NewConfig creates a configuration with default values.
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Scale: 2,
		},
		Video: VideoConfig{
			Backend: "ebitengine",
			VSync:   true,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				A: "J", B: "K", Select: "Space", Start: "Return",
				Up: "Up", Down: "Down", Left: "Left", Right: "Right",
			},
			Player2Keys: KeyMapping{
				A: "N", B: "M", Select: "Tab", Start: "RShift",
				Up: "W", Down: "S", Left: "A", Right: "D",
			},
		},
		Emulation: EmulationConfig{
			Region:    "NTSC",
			FrameRate: 60.0,
		},
		Paths: PathsConfig{
			ROMs:        "./roms",
			Screenshots: "./screenshots",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file writes
// the defaults out instead.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// SaveToFile saves configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// validate repairs out-of-range values in place.
func (c *Config) validate() error {
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}

	switch c.Video.Backend {
	case "", "ebitengine", "headless", "terminal":
	default:
		return fmt.Errorf("unknown video backend %q", c.Video.Backend)
	}

	if c.Emulation.Region == "" {
		c.Emulation.Region = "NTSC"
	}
	if c.Emulation.FrameRate <= 0 {
		c.Emulation.FrameRate = 60.0
	}
	if c.Debug.Verbosity < 0 {
		c.Debug.Verbosity = 0
	}

	return nil
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	return "./config/famigo.json"
}
