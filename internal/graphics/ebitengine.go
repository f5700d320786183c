package graphics

import (
	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"

	"famigo/internal/ppu"
)

// EbitengineBackend presents frames in a window and polls the keyboard for
// both controller ports.
type EbitengineBackend struct{}

// Name identifies the backend.
func (b *EbitengineBackend) Name() string { return "ebitengine" }

// Run configures the window and enters the Ebitengine game loop. It blocks
// until the window closes.
func (b *EbitengineBackend) Run(console Console, config Config) error {
	scale := config.Scale
	if scale <= 0 {
		scale = 2
	}

	game := &ebitengineGame{
		console:     console,
		frameImage:  ebiten.NewImage(ppu.Width, ppu.Height),
		pixels:      make([]byte, ppu.Width*ppu.Height*4),
		player1Keys: resolveKeys(config.Player1Keys),
		player2Keys: resolveKeys(config.Player2Keys),
	}

	ebiten.SetWindowTitle(config.Title)
	ebiten.SetWindowSize(ppu.Width*scale, ppu.Height*scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(config.VSync)
	if config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	return ebiten.RunGame(game)
}

type ebitengineGame struct {
	console     Console
	frameImage  *ebiten.Image
	pixels      []byte
	player1Keys [8]ebiten.Key
	player2Keys [8]ebiten.Key
}

// Update polls input, runs one emulated frame and converts it to RGBA.
func (g *ebitengineGame) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.console.SetButtons(0, pollButtons(g.player1Keys))
	g.console.SetButtons(1, pollButtons(g.player2Keys))

	frame := g.console.RunFrame()
	for i, index := range frame {
		rgb := ppu.ColorRGB(index)
		g.pixels[i*4+0] = byte(rgb >> 16)
		g.pixels[i*4+1] = byte(rgb >> 8)
		g.pixels[i*4+2] = byte(rgb)
		g.pixels[i*4+3] = 0xFF
	}
	g.frameImage.WritePixels(g.pixels)

	return nil
}

// Draw blits the frame; Ebitengine scales it to the window via Layout.
func (g *ebitengineGame) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.frameImage, nil)
}

// Layout keeps the logical resolution at the native raster size.
func (g *ebitengineGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ppu.Width, ppu.Height
}

// pollButtons samples the mapped keys into a controller mask, LSB = A.
func pollButtons(keys [8]ebiten.Key) uint8 {
	var mask uint8
	for bit, key := range keys {
		if key >= 0 && ebiten.IsKeyPressed(key) {
			mask |= 1 << bit
		}
	}
	return mask
}

// keyNames maps config key names onto Ebitengine keys.
var keyNames = map[string]ebiten.Key{
	"Up":     ebiten.KeyArrowUp,
	"Down":   ebiten.KeyArrowDown,
	"Left":   ebiten.KeyArrowLeft,
	"Right":  ebiten.KeyArrowRight,
	"Return": ebiten.KeyEnter,
	"Space":  ebiten.KeySpace,
	"RShift": ebiten.KeyShiftRight,
	"Tab":    ebiten.KeyTab,
	"A":      ebiten.KeyA,
	"B":      ebiten.KeyB,
	"D":      ebiten.KeyD,
	"F":      ebiten.KeyF,
	"G":      ebiten.KeyG,
	"I":      ebiten.KeyI,
	"J":      ebiten.KeyJ,
	"K":      ebiten.KeyK,
	"L":      ebiten.KeyL,
	"M":      ebiten.KeyM,
	"N":      ebiten.KeyN,
	"S":      ebiten.KeyS,
	"W":      ebiten.KeyW,
	"X":      ebiten.KeyX,
	"Z":      ebiten.KeyZ,
}

// resolveKeys turns configured key names into Ebitengine keys; unknown or
// empty names leave the button unbound.
func resolveKeys(names [8]string) [8]ebiten.Key {
	var keys [8]ebiten.Key
	for i, name := range names {
		if key, ok := keyNames[name]; ok {
			keys[i] = key
		} else {
			keys[i] = ebiten.Key(-1)
			if name != "" {
				glog.Warningf("unknown key name %q, button unbound", name)
			}
		}
	}
	return keys
}
