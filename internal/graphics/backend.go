// Package graphics provides presenter backends for the emulator core. The
// core hands out 6-bit palette indices; everything RGB happens here.
package graphics

import "fmt"

// Console is the slice of the machine a presenter needs.
type Console interface {
	// RunFrame advances one video frame and returns the 256x240 indexed
	// framebuffer. Read-only to the presenter.
	RunFrame() []uint8

	// SetButtons updates a controller port's live button mask.
	SetButtons(port int, mask uint8)

	// FrameCount returns the number of completed frames.
	FrameCount() uint64
}

// Backend drives the main loop: pump input, run frames, present.
type Backend interface {
	Name() string
	Run(console Console, config Config) error
}

// Config carries presenter settings out of the application config.
type Config struct {
	Title      string
	Scale      int
	Fullscreen bool
	VSync      bool

	// Key names per port, in mask bit order A, B, Select, Start, Up,
	// Down, Left, Right.
	Player1Keys [8]string
	Player2Keys [8]string

	// Headless and terminal backends run a bounded number of frames.
	Frames int

	// Optional PPM screenshot of the final frame (headless).
	DumpPath string
}

// NewBackend selects a backend by name.
func NewBackend(kind string) (Backend, error) {
	switch kind {
	case "ebitengine", "":
		return &EbitengineBackend{}, nil
	case "headless":
		return &HeadlessBackend{}, nil
	case "terminal":
		return &TerminalBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown graphics backend %q", kind)
	}
}
