// Command famigo runs the NES emulator.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang/glog"

	"famigo/internal/app"
	"famigo/internal/debug"
	"famigo/internal/version"
)

func main() {
	var (
		romFile     = flag.String("rom", "", "path to an iNES ROM file")
		configFile  = flag.String("config", "", "path to the configuration file")
		backend     = flag.String("backend", "", "override the video backend (ebitengine, headless, terminal)")
		frames      = flag.Int("frames", 0, "frame count for bounded backends (0 = default)")
		dumpPath    = flag.String("dump", "", "write the final frame as a PPM image (headless backend)")
		monitor     = flag.Bool("monitor", false, "start the interactive monitor instead of a video backend")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()
	defer glog.Flush()

	if *showVersion {
		fmt.Println(version.Get())
		return
	}

	if err := run(*romFile, *configFile, *backend, *frames, *dumpPath, *monitor); err != nil {
		glog.Flush()
		fmt.Fprintln(os.Stderr, "famigo:", err)
		os.Exit(1)
	}
}

func run(romFile, configFile, backend string, frames int, dumpPath string, monitor bool) error {
	configPath := configFile
	if configPath == "" {
		configPath = app.DefaultConfigPath()
	}

	application, err := app.NewApplication(configPath)
	if err != nil {
		return err
	}

	if v := application.Config().Debug.Verbosity; v > 0 {
		if err := flag.Set("v", strconv.Itoa(v)); err != nil {
			return fmt.Errorf("applying verbosity: %w", err)
		}
	}

	if backend != "" {
		application.Config().Video.Backend = backend
	}

	if romFile == "" {
		return fmt.Errorf("no ROM given, use -rom <file>")
	}
	if err := application.LoadROM(romFile); err != nil {
		return err
	}

	if monitor {
		return debug.Run(application.Bus())
	}

	return application.Run(frames, dumpPath)
}
