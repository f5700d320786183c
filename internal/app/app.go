package app

import (
	"fmt"

	"github.com/golang/glog"

	"famigo/internal/bus"
	"famigo/internal/cartridge"
	"famigo/internal/graphics"
)

// Application owns the machine and the presenter and mediates between the
// CLI, the configuration, and the two.
type Application struct {
	config *Config
	bus    *bus.Bus

	romPath string
}

// NewApplication builds the machine and loads (or creates) the config file.
func NewApplication(configPath string) (*Application, error) {
	config := NewConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &Application{
		config: config,
		bus:    bus.New(),
	}, nil
}

// Config exposes the loaded configuration for CLI overrides.
func (a *Application) Config() *Config {
	return a.config
}

// Bus exposes the machine, for the monitor.
func (a *Application) Bus() *bus.Bus {
	return a.bus
}

// LoadROM parses an iNES file and wires it into the machine.
func (a *Application) LoadROM(path string) error {
	cart, err := cartridge.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	a.bus.LoadCartridge(cart)
	a.romPath = path
	glog.Infof("loaded %s (mapper %d)", path, cart.MapperID())
	return nil
}

// Run selects the configured backend and drives it until exit. Frames and
// dumpPath feed the bounded backends; zero values mean their defaults.
func (a *Application) Run(frames int, dumpPath string) error {
	backend, err := graphics.NewBackend(a.config.Video.Backend)
	if err != nil {
		return err
	}

	title := "famigo"
	if a.romPath != "" {
		title = fmt.Sprintf("famigo - %s", a.romPath)
	}

	glog.V(1).Infof("starting %s backend", backend.Name())
	return backend.Run(a.bus, graphics.Config{
		Title:       title,
		Scale:       a.config.Window.Scale,
		Fullscreen:  a.config.Window.Fullscreen,
		VSync:       a.config.Video.VSync,
		Player1Keys: a.config.Input.Player1Keys.buttonOrder(),
		Player2Keys: a.config.Input.Player2Keys.buttonOrder(),
		Frames:      frames,
		DumpPath:    dumpPath,
	})
}
