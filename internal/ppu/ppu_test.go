package ppu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMemory is a flat 16KB PPU address space without mirroring, which is
// enough to observe the PPU's own behavior.
type fakeMemory struct {
	data [0x4000]uint8
}

func (m *fakeMemory) Read(address uint16) uint8         { return m.data[address&0x3FFF] }
func (m *fakeMemory) Write(address uint16, value uint8) { m.data[address&0x3FFF] = value }

func newTestPPU() (*PPU, *fakeMemory) {
	p := New()
	mem := &fakeMemory{}
	p.SetMemory(mem)
	p.Reset()
	return p, mem
}

// tickFrame advances exactly one frame of PPU clocks.
func tickFrame(p *PPU) {
	for i := 0; i < 341*262; i++ {
		p.Tick()
	}
}

func TestAddressLatch_TwoWritesLoadV(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2006, 0x23)
	p.WriteRegister(0x2006, 0x45)

	assert.Equal(t, uint16(0x2345), p.v)
	assert.False(t, p.w)
}

func TestDataRead_BelowPalette_ShouldBeBuffered(t *testing.T) {
	p, mem := newTestPPU()
	mem.data[0x2000] = 0xAA
	mem.data[0x2001] = 0xBB

	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x00)

	assert.Equal(t, uint8(0x00), p.ReadRegister(0x2007), "first read returns the stale buffer")
	assert.Equal(t, uint8(0xAA), p.ReadRegister(0x2007))
	assert.Equal(t, uint8(0xBB), p.ReadRegister(0x2007))
}

func TestDataRead_Palette_ShouldBeImmediate(t *testing.T) {
	p, mem := newTestPPU()
	mem.data[0x3F00] = 0x21

	p.WriteRegister(0x2006, 0x3F)
	p.WriteRegister(0x2006, 0x00)

	assert.Equal(t, uint8(0x21), p.ReadRegister(0x2007))
}

func TestDataAccess_IncrementStep(t *testing.T) {
	p, _ := newTestPPU()

	// CTRL bit 2 clear: step 1
	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x00)
	p.ReadRegister(0x2007)
	assert.Equal(t, uint16(0x2001), p.v)

	// CTRL bit 2 set: step 32
	p.WriteRegister(0x2000, 0x04)
	p.ReadRegister(0x2007)
	assert.Equal(t, uint16(0x2021), p.v)
}

func TestDataWrite_ShouldStoreAndIncrement(t *testing.T) {
	p, mem := newTestPPU()

	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x00)
	p.WriteRegister(0x2007, 0x11)
	p.WriteRegister(0x2007, 0x22)

	assert.Equal(t, uint8(0x11), mem.data[0x2000])
	assert.Equal(t, uint8(0x22), mem.data[0x2001])
	assert.Equal(t, uint16(0x2002), p.v)
}

func TestStatusRead_ShouldClearVBlankAndToggle(t *testing.T) {
	p, _ := newTestPPU()
	p.status |= 0x80
	p.WriteRegister(0x2006, 0x3F) // leave w set

	value := p.ReadRegister(0x2002)

	assert.NotZero(t, value&0x80)
	assert.Zero(t, p.status&0x80, "VBlank cleared by the read")
	assert.False(t, p.w, "write toggle reset")
}

func TestStatusRead_ShouldCarryLatchLowBits(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2001, 0x1F)

	value := p.ReadRegister(0x2002)

	assert.Equal(t, uint8(0x1F), value&0x1F)
}

func TestCtrlWrite_ShouldSelectBaseNametable(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2000, 0x03)

	assert.Equal(t, uint16(0x0C00), p.t&0x0C00)
}

func TestScrollWrites_ShouldLoadTAndFineX(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2005, 0x7D) // coarse X = 15, fine X = 5
	assert.Equal(t, uint16(15), p.t&0x001F)
	assert.Equal(t, uint8(5), p.x)
	assert.True(t, p.w)

	p.WriteRegister(0x2005, 0x5E) // coarse Y = 11, fine Y = 6
	assert.Equal(t, uint16(11), (p.t>>5)&0x001F)
	assert.Equal(t, uint16(6), (p.t>>12)&0x0007)
	assert.False(t, p.w)
}

func TestOAMAccess_WriteShouldIncrementAddress(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2003, 0x10)
	p.WriteRegister(0x2004, 0xAB)
	p.WriteRegister(0x2004, 0xCD)

	oam := p.OAM()
	assert.Equal(t, uint8(0xAB), oam[0x10])
	assert.Equal(t, uint8(0xCD), oam[0x11])

	p.WriteRegister(0x2003, 0x10)
	assert.Equal(t, uint8(0xAB), p.ReadRegister(0x2004))
}

func TestDMAWrite_256Bytes_ShouldWrapOAMAddr(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2003, 0x80)

	for i := 0; i < 256; i++ {
		p.DMAWrite(uint8(i))
	}

	oam := p.OAM()
	assert.Equal(t, uint8(0x00), oam[0x80], "first DMA byte lands at OAMADDR")
	assert.Equal(t, uint8(0x80), oam[0x00], "transfer wraps around")
	assert.Equal(t, uint8(0x80), p.oamAddr, "OAMADDR back where it started")
}

func TestTick_VBlankStart_ShouldSetFlagAndRaiseNMI(t *testing.T) {
	p, _ := newTestPPU()
	nmis := 0
	p.SetNMICallback(func() { nmis++ })
	p.WriteRegister(0x2000, 0x80)

	for p.status&0x80 == 0 {
		p.Tick()
	}

	assert.Equal(t, 1, nmis)
	assert.Equal(t, 241, p.scanline)
}

func TestTick_VBlankStart_NMIDisabled_ShouldOnlySetFlag(t *testing.T) {
	p, _ := newTestPPU()
	nmis := 0
	p.SetNMICallback(func() { nmis++ })

	tickFrame(p)

	assert.Equal(t, 0, nmis)
}

func TestTick_PreRenderLine_ShouldClearStatusFlags(t *testing.T) {
	p, _ := newTestPPU()
	p.status = 0xE0 // VBlank, sprite 0, overflow

	// Advance into the pre-render line past cycle 1
	for !(p.scanline == 261 && p.cycle == 2) {
		p.Tick()
	}

	assert.Zero(t, p.status&0xE0)
}

func TestTick_FrameWrap_ShouldCountFramesAndSwapBuffers(t *testing.T) {
	p, _ := newTestPPU()
	before := p.Framebuffer()

	tickFrame(p)

	assert.Equal(t, uint64(1), p.Frame())
	after := p.Framebuffer()
	assert.NotSame(t, &before[0], &after[0], "front and back swapped")
}

func TestTick_PerFrameClockBudget(t *testing.T) {
	p, _ := newTestPPU()

	ticks := 0
	for p.Frame() == 0 {
		p.Tick()
		ticks++
	}

	assert.Equal(t, 341*262, ticks)
}

func TestRender_SolidBackgroundTile_ShouldFillFrameWithPaletteEntry(t *testing.T) {
	p, mem := newTestPPU()

	// Tile 0: every pixel color 1 (low plane solid, high plane clear)
	for row := 0; row < 8; row++ {
		mem.data[row] = 0xFF
	}
	// Nametable already zero: every cell uses tile 0, attribute 0
	mem.data[0x3F01] = 0x16
	p.WriteRegister(0x2001, 0x08) // background on

	tickFrame(p)

	fb := p.Framebuffer()
	require.Len(t, fb, Width*Height)
	assert.Equal(t, uint8(0x16), fb[0])
	assert.Equal(t, uint8(0x16), fb[120*Width+200])
	assert.Equal(t, uint8(0x16), fb[239*Width+255])
}

func TestRender_RenderingDisabled_ShouldShowBackdrop(t *testing.T) {
	p, mem := newTestPPU()
	mem.data[0x3F00] = 0x0F

	tickFrame(p)

	fb := p.Framebuffer()
	assert.Equal(t, uint8(0x0F), fb[0])
	assert.Equal(t, uint8(0x0F), fb[100*Width+100])
}

func TestRender_NoCHRData_ShouldLeaveFramebufferZero(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2001, 0x18)

	tickFrame(p)

	for _, px := range p.Framebuffer() {
		require.Equal(t, uint8(0), px)
	}
}

func TestRender_SpriteOverBackground_PriorityRules(t *testing.T) {
	p, mem := newTestPPU()

	// Background tile 0 solid color 1, palette entry 0x3F01
	for row := 0; row < 8; row++ {
		mem.data[row] = 0xFF
	}
	mem.data[0x3F01] = 0x16

	// Sprite tile 1 solid color 1, sprite palette entry 0x3F11
	for row := 0; row < 8; row++ {
		mem.data[16+row] = 0xFF
	}
	mem.data[0x3F11] = 0x2A

	// Sprite 0 at (8, 50) in front, sprite 1 at (40, 50) behind
	p.oam[0] = 49 // Y-1
	p.oam[1] = 1
	p.oam[2] = 0x00
	p.oam[3] = 8
	p.oam[4] = 49
	p.oam[5] = 1
	p.oam[6] = 0x20 // behind background
	p.oam[7] = 40

	p.WriteRegister(0x2001, 0x18)

	// The hit flag is observable mid-frame, before the pre-render line
	// clears it again
	for p.scanline != 60 {
		p.Tick()
	}
	assert.NotZero(t, p.status&0x40, "sprite 0 over opaque background sets the hit flag")

	for p.Frame() == 0 {
		p.Tick()
	}
	fb := p.Framebuffer()
	assert.Equal(t, uint8(0x2A), fb[50*Width+8], "front sprite wins over opaque background")
	assert.Equal(t, uint8(0x16), fb[50*Width+40], "behind sprite loses to opaque background")
	assert.Equal(t, uint8(0x16), fb[50*Width+100], "bare background elsewhere")
}

func TestEvaluateSprites_NinthSprite_ShouldSetOverflow(t *testing.T) {
	p, _ := newTestPPU()

	// Nine sprites all covering scanline 100
	for i := 0; i < 9; i++ {
		p.oam[i*4] = 99
		p.oam[i*4+3] = uint8(i * 10)
	}
	p.WriteRegister(0x2001, 0x10)

	// Check right after evaluation on the affected scanline; the pre-render
	// line clears the flag at frame end
	for !(p.scanline == 100 && p.cycle == 2) {
		p.Tick()
	}

	assert.NotZero(t, p.status&0x20)
	assert.Equal(t, 8, p.lineCount)
}

func TestEvaluateSprites_TallSprites_ShouldUse16RowRange(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2000, 0x20) // 8x16 sprites
	p.WriteRegister(0x2001, 0x10)

	p.oam[0] = 49 // covers scanlines 50-65

	// Walk to scanline 62, cycle 2 so evaluation for line 62 has run
	for !(p.scanline == 62 && p.cycle == 2) {
		p.Tick()
	}

	assert.Equal(t, 1, p.lineCount)
}
