package graphics

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"famigo/internal/ppu"
)

// TerminalBackend renders frames as colored half-block characters, handy
// for eyeballing a ROM over SSH. Input is not wired; it is a viewer.
type TerminalBackend struct{}

// Name identifies the backend.
func (b *TerminalBackend) Name() string { return "terminal" }

// Horizontal and vertical downsampling factors. Each output cell is a "▀"
// carrying two vertically stacked samples.
const (
	termStepX = 4
	termStepY = 4
)

// Run executes the configured number of frames and prints the final one.
func (b *TerminalBackend) Run(console Console, config Config) error {
	frames := config.Frames
	if frames <= 0 {
		frames = 60
	}

	var frame []uint8
	for i := 0; i < frames; i++ {
		frame = console.RunFrame()
	}

	fmt.Println(renderFrame(frame))
	return nil
}

// renderFrame downsamples the indexed framebuffer into ANSI half-blocks.
func renderFrame(frame []uint8) string {
	var sb strings.Builder

	for y := 0; y < ppu.Height; y += termStepY * 2 {
		for x := 0; x < ppu.Width; x += termStepX {
			top := ppu.ColorRGB(frame[y*ppu.Width+x])
			bottomY := y + termStepY
			if bottomY >= ppu.Height {
				bottomY = ppu.Height - 1
			}
			bottom := ppu.ColorRGB(frame[bottomY*ppu.Width+x])

			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hexColor(top))).
				Background(lipgloss.Color(hexColor(bottom)))
			sb.WriteString(style.Render("▀"))
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func hexColor(rgb uint32) string {
	return fmt.Sprintf("#%06X", rgb&0xFFFFFF)
}
