// Package ppu implements the Picture Processing Unit for the NES.
package ppu

// Screen dimensions of the visible raster.
const (
	Width  = 256
	Height = 240
)

// Memory is the PPU's 14-bit address space (pattern tables, nametables,
// palette RAM).
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// PPU models the 2C02: the CPU-visible register file with its latch state,
// the scanline/cycle timer, and background and sprite evaluation into an
// indexed-color framebuffer.
//
// The framebuffer holds 6-bit NES palette indices; RGB conversion through
// Palette is the presenter's job. Rendering goes to the back buffer, which
// swaps with the front on every frame wrap so readers never observe a
// half-rendered frame.
type PPU struct {
	ctrl    uint8 // $2000
	mask    uint8 // $2001
	status  uint8 // $2002 bits 5-7
	oamAddr uint8 // $2003
	latch   uint8 // last register write, feeds STATUS's open-bus low bits

	// Internal address state
	v          uint16 // current VRAM address (15 bits)
	t          uint16 // temporary VRAM address (15 bits)
	x          uint8  // fine X scroll (3 bits)
	w          bool   // write toggle
	readBuffer uint8  // deferred read buffer for $2007

	memory Memory

	oam [256]uint8

	// Sprites selected for the scanline being rendered
	lineSprites [8]lineSprite
	lineCount   int

	scanline int // 0-261; 0-239 visible, 241 vblank start, 261 pre-render
	cycle    int // 0-340
	frame    uint64
	oddFrame bool

	front *[Width * Height]uint8
	back  *[Width * Height]uint8

	nmiCallback func()
}

type lineSprite struct {
	index      int // original OAM slot, for sprite 0 bookkeeping
	y, tile    uint8
	attributes uint8
	x          uint8
}

// New creates a PPU. A memory map must be attached before rendering can
// fetch anything.
func New() *PPU {
	p := &PPU{
		front: &[Width * Height]uint8{},
		back:  &[Width * Height]uint8{},
	}
	return p
}

// Reset restores power-on register and timing state.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0
	p.oamAddr = 0
	p.latch = 0

	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false
	p.readBuffer = 0

	p.scanline = 0
	p.cycle = 0
	p.frame = 0
	p.oddFrame = false
	p.lineCount = 0

	for i := range p.oam {
		p.oam[i] = 0
	}
	for i := range p.front {
		p.front[i] = 0
		p.back[i] = 0
	}
}

// SetMemory attaches the PPU memory map.
func (p *PPU) SetMemory(memory Memory) {
	p.memory = memory
}

// SetNMICallback registers the hook raised at VBlank start when NMIs are
// enabled through CTRL bit 7.
func (p *PPU) SetNMICallback(callback func()) {
	p.nmiCallback = callback
}

// Framebuffer returns the most recently completed frame as 6-bit palette
// indices, row-major. The slice is read-only to callers.
func (p *PPU) Framebuffer() []uint8 {
	return p.front[:]
}

// Frame returns the frame counter.
func (p *PPU) Frame() uint64 {
	return p.frame
}

// Scanline returns the next scanline to be processed.
func (p *PPU) Scanline() int {
	return p.scanline
}

// Cycle returns the next cycle to be processed.
func (p *PPU) Cycle() int {
	return p.cycle
}

// ReadRegister serves CPU reads of $2000-$2007.
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002:
		value := (p.status & 0xE0) | (p.latch & 0x1F)
		p.status &^= 0x80 // reading clears VBlank
		p.w = false
		return value
	case 0x2004:
		return p.oam[p.oamAddr]
	case 0x2007:
		return p.readData()
	default:
		// Write-only registers read back the bus latch
		return p.latch
	}
}

// WriteRegister serves CPU writes of $2000-$2007.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.latch = value

	switch address {
	case 0x2000:
		p.ctrl = value
		p.t = (p.t & 0xF3FF) | (uint16(value)&0x03)<<10
	case 0x2001:
		p.mask = value
	case 0x2003:
		p.oamAddr = value
	case 0x2004:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005:
		p.writeScroll(value)
	case 0x2006:
		p.writeAddress(value)
	case 0x2007:
		p.writeData(value)
	}
}

// DMAWrite stores one OAM byte at the current OAM address and advances it,
// exactly as a $2004 write does. 256 of these wrap OAMADDR back where it
// started.
func (p *PPU) DMAWrite(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

// OAM returns a snapshot of sprite memory, for the monitor and tests.
func (p *PPU) OAM() [256]uint8 {
	return p.oam
}

func (p *PPU) writeScroll(value uint8) {
	if !p.w {
		// First write: coarse X into t, fine X aside
		p.t = (p.t & 0xFFE0) | uint16(value)>>3
		p.x = value & 0x07
		p.w = true
	} else {
		// Second write: fine Y and coarse Y
		p.t = (p.t & 0x8FFF) | (uint16(value)&0x07)<<12
		p.t = (p.t & 0xFC1F) | (uint16(value)&0xF8)<<2
		p.w = false
	}
}

func (p *PPU) writeAddress(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | (uint16(value)&0x3F)<<8
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

func (p *PPU) readData() uint8 {
	var data uint8
	if p.memory == nil {
		data = 0
	} else if p.v&0x3FFF >= 0x3F00 {
		// Palette reads are immediate; the buffer refills from the
		// nametable underneath
		data = p.memory.Read(p.v)
		p.readBuffer = p.memory.Read(p.v & 0x2FFF)
	} else {
		data = p.readBuffer
		p.readBuffer = p.memory.Read(p.v)
	}

	p.incrementAddress()
	return data
}

func (p *PPU) writeData(value uint8) {
	if p.memory != nil {
		p.memory.Write(p.v, value)
	}
	p.incrementAddress()
}

func (p *PPU) incrementAddress() {
	if p.ctrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x3FFF
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&0x18 != 0
}

// Tick advances one PPU clock: process the current (scanline, cycle), then
// step the timer.
func (p *PPU) Tick() {
	switch {
	case p.scanline < Height:
		if p.cycle == 1 {
			p.evaluateSprites()
		}
		if p.cycle >= 1 && p.cycle <= Width {
			p.renderPixel(p.cycle-1, p.scanline)
		}

	case p.scanline == 241 && p.cycle == 1:
		p.status |= 0x80
		if p.ctrl&0x80 != 0 && p.nmiCallback != nil {
			p.nmiCallback()
		}

	case p.scanline == 261 && p.cycle == 1:
		// Pre-render line clears VBlank, sprite 0 hit and overflow, and
		// reloads the scroll address for the coming frame
		p.status &= 0x1F
		if p.renderingEnabled() {
			p.v = p.t
		}
	}

	p.cycle++
	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++
		if p.scanline > 261 {
			p.scanline = 0
			p.frame++
			p.oddFrame = !p.oddFrame
			p.front, p.back = p.back, p.front
		}
	}
}

func (p *PPU) spriteHeight() int {
	if p.ctrl&0x20 != 0 {
		return 16
	}
	return 8
}

// evaluateSprites scans OAM in entry order and takes up to 8 sprites whose
// Y range contains the current scanline. A 9th match sets the overflow flag.
func (p *PPU) evaluateSprites() {
	p.lineCount = 0
	if p.mask&0x10 == 0 {
		return
	}

	height := p.spriteHeight()
	for i := 0; i < 64; i++ {
		y := int(p.oam[i*4]) + 1 // OAM stores Y-1
		if p.scanline < y || p.scanline >= y+height {
			continue
		}
		if p.lineCount == 8 {
			p.status |= 0x20
			break
		}
		p.lineSprites[p.lineCount] = lineSprite{
			index:      i,
			y:          p.oam[i*4],
			tile:       p.oam[i*4+1],
			attributes: p.oam[i*4+2],
			x:          p.oam[i*4+3],
		}
		p.lineCount++
	}
}

// renderPixel composites one visible dot into the back buffer.
func (p *PPU) renderPixel(x, y int) {
	if p.memory == nil {
		p.back[y*Width+x] = 0
		return
	}

	bgColor, bgOpaque := uint8(0), false
	if p.mask&0x08 != 0 {
		bgColor, bgOpaque = p.backgroundPixel(x, y)
	}

	spColor, spOpaque, spBehind, spZero := uint8(0), false, false, false
	if p.mask&0x10 != 0 {
		spColor, spOpaque, spBehind, spZero = p.spritePixel(x, y)
	}

	var paletteAddr uint16
	switch {
	case !bgOpaque && !spOpaque:
		paletteAddr = 0x3F00
	case !bgOpaque:
		paletteAddr = 0x3F10 + uint16(spColor)
	case !spOpaque:
		paletteAddr = 0x3F00 + uint16(bgColor)
	default:
		if spZero && x < 255 {
			p.status |= 0x40
		}
		if spBehind {
			paletteAddr = 0x3F00 + uint16(bgColor)
		} else {
			paletteAddr = 0x3F10 + uint16(spColor)
		}
	}

	p.back[y*Width+x] = p.memory.Read(paletteAddr) & 0x3F
}

// backgroundPixel returns the palette offset (palette*4 + color) for the
// background layer and whether it is opaque.
func (p *PPU) backgroundPixel(x, y int) (uint8, bool) {
	// Scroll is derived from the loaded VRAM address plus fine X
	scrollX := int(p.v&0x001F)<<3 + int(p.x)
	scrollY := int(p.v>>5&0x001F)<<3 + int(p.v>>12&0x0007)
	nametable := int(p.v >> 10 & 0x0003)

	worldX := x + scrollX
	worldY := y + scrollY
	if worldX >= Width {
		nametable ^= 1
		worldX -= Width
	}
	for worldY >= Height {
		nametable ^= 2
		worldY -= Height
	}

	tileX := worldX >> 3
	tileY := worldY >> 3
	fineX := worldX & 7
	fineY := worldY & 7

	nametableAddr := 0x2000 | uint16(nametable)<<10 | uint16(tileY*32+tileX)
	tileID := p.memory.Read(nametableAddr)

	attributeAddr := 0x23C0 | uint16(nametable)<<10 | uint16((tileY>>2)<<3|(tileX>>2))
	attribute := p.memory.Read(attributeAddr)
	// 2 bits per 2x2-tile quadrant
	quadrant := (tileY & 2) | ((tileX & 2) >> 1)
	paletteSelect := attribute >> (quadrant << 1) & 0x03

	patternBase := uint16(0x0000)
	if p.ctrl&0x10 != 0 {
		patternBase = 0x1000
	}
	patternAddr := patternBase + uint16(tileID)*16 + uint16(fineY)
	lo := p.memory.Read(patternAddr)
	hi := p.memory.Read(patternAddr + 8)

	shift := 7 - fineX
	color := (hi>>shift&1)<<1 | lo>>shift&1
	if color == 0 {
		return 0, false
	}
	return paletteSelect<<2 | color, true
}

// spritePixel returns the palette offset for the front-most opaque sprite
// covering the dot, plus its priority bit and whether it is sprite 0.
func (p *PPU) spritePixel(x, y int) (color uint8, opaque, behind, zero bool) {
	height := p.spriteHeight()

	for i := 0; i < p.lineCount; i++ {
		s := p.lineSprites[i]
		dx := x - int(s.x)
		if dx < 0 || dx >= 8 {
			continue
		}
		dy := y - (int(s.y) + 1)

		if s.attributes&0x40 != 0 {
			dx = 7 - dx
		}
		if s.attributes&0x80 != 0 {
			dy = height - 1 - dy
		}

		tile := s.tile
		patternBase := uint16(0x0000)
		if height == 16 {
			// Tall sprites take the bank from the tile's own bit 0
			if tile&0x01 != 0 {
				patternBase = 0x1000
			}
			tile &= 0xFE
			if dy >= 8 {
				tile++
				dy -= 8
			}
		} else if p.ctrl&0x08 != 0 {
			patternBase = 0x1000
		}

		patternAddr := patternBase + uint16(tile)*16 + uint16(dy)
		lo := p.memory.Read(patternAddr)
		hi := p.memory.Read(patternAddr + 8)

		shift := 7 - dx
		pixel := (hi>>shift&1)<<1 | lo>>shift&1
		if pixel == 0 {
			continue
		}

		paletteSelect := s.attributes & 0x03
		return paletteSelect<<2 | pixel, true, s.attributes&0x20 != 0, s.index == 0
	}
	return 0, false, false, false
}
