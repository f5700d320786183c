package graphics

import (
	"fmt"
	"os"

	"github.com/golang/glog"

	"famigo/internal/ppu"
)

// HeadlessBackend runs frames without any display, for automation and
// tests. It can dump the final frame as a PPM image.
type HeadlessBackend struct{}

// Name identifies the backend.
func (b *HeadlessBackend) Name() string { return "headless" }

// Run executes the configured number of frames (one second of video by
// default) and optionally writes the last framebuffer to disk.
func (b *HeadlessBackend) Run(console Console, config Config) error {
	frames := config.Frames
	if frames <= 0 {
		frames = 60
	}

	var frame []uint8
	for i := 0; i < frames; i++ {
		frame = console.RunFrame()
		if (i+1)%60 == 0 {
			glog.V(1).Infof("headless: %d/%d frames", i+1, frames)
		}
	}

	if config.DumpPath != "" {
		if err := WritePPM(config.DumpPath, frame); err != nil {
			return fmt.Errorf("dumping frame: %w", err)
		}
		glog.Infof("wrote %s", config.DumpPath)
	}

	return nil
}

// WritePPM stores an indexed framebuffer as a plain PPM image, resolving
// colors through the master palette.
func WritePPM(path string, frame []uint8) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "P3\n%d %d\n255\n", ppu.Width, ppu.Height)
	for y := 0; y < ppu.Height; y++ {
		for x := 0; x < ppu.Width; x++ {
			rgb := ppu.ColorRGB(frame[y*ppu.Width+x])
			fmt.Fprintf(file, "%d %d %d ", rgb>>16&0xFF, rgb>>8&0xFF, rgb&0xFF)
		}
		fmt.Fprintln(file)
	}

	return nil
}
