package graphics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famigo/internal/ppu"
)

// fakeConsole returns a solid-color frame and counts calls.
type fakeConsole struct {
	frames  uint64
	buttons map[int]uint8
}

func newFakeConsole() *fakeConsole {
	return &fakeConsole{buttons: make(map[int]uint8)}
}

func (c *fakeConsole) RunFrame() []uint8 {
	c.frames++
	frame := make([]uint8, ppu.Width*ppu.Height)
	for i := range frame {
		frame[i] = 0x16
	}
	return frame
}

func (c *fakeConsole) SetButtons(port int, mask uint8) { c.buttons[port] = mask }
func (c *fakeConsole) FrameCount() uint64              { return c.frames }

func TestNewBackend_KnownKinds(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"", "ebitengine"},
		{"ebitengine", "ebitengine"},
		{"headless", "headless"},
		{"terminal", "terminal"},
	}

	for _, tt := range tests {
		backend, err := NewBackend(tt.kind)
		require.NoError(t, err, tt.kind)
		assert.Equal(t, tt.want, backend.Name())
	}

	_, err := NewBackend("vulkan")
	assert.Error(t, err)
}

func TestHeadlessRun_ShouldRunConfiguredFrames(t *testing.T) {
	console := newFakeConsole()
	backend := &HeadlessBackend{}

	err := backend.Run(console, Config{Frames: 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), console.frames)
}

func TestHeadlessRun_DumpPath_ShouldWritePPM(t *testing.T) {
	console := newFakeConsole()
	backend := &HeadlessBackend{}
	path := filepath.Join(t.TempDir(), "frame.ppm")

	err := backend.Run(console, Config{Frames: 1, DumpPath: path})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "P3\n256 240\n255\n"))

	// 0x16 resolves to a red tone from the master palette
	rgb := ppu.ColorRGB(0x16)
	triplet := fmt.Sprintf("%d %d %d", rgb>>16&0xFF, rgb>>8&0xFF, rgb&0xFF)
	assert.Contains(t, strings.Split(string(data), "\n")[3], triplet)
}

func TestRenderFrame_ShouldProduceOneLinePerCellRow(t *testing.T) {
	frame := make([]uint8, ppu.Width*ppu.Height)
	out := renderFrame(frame)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, ppu.Height/(termStepY*2))
}
