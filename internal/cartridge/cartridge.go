// Package cartridge implements iNES ROM loading and the cartridge memory interface.
package cartridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
)

// Load-time errors. The emulation loop itself has no error paths; everything
// that can go wrong surfaces here, before any machine state is touched.
var (
	ErrInvalidROM        = errors.New("invalid iNES image")
	ErrUnsupportedMapper = errors.New("unsupported mapper")
)

// Cartridge owns the PRG and CHR byte arrays plus the mirroring mode parsed
// from the iNES header. PRG is immutable after load; CHR is writable only
// when the header declared zero CHR banks (CHR RAM).
type Cartridge struct {
	prgROM []uint8
	chrROM []uint8

	mapperID uint8
	mapper   Mapper

	mirror MirrorMode

	hasBattery bool
	sram       [0x2000]uint8

	hasCHRRAM bool
}

// MirrorMode represents nametable mirroring mode.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorFourScreen
)

// Mapper translates CPU and PPU addresses into the cartridge's PRG/CHR arrays.
type Mapper interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
}

// iNES header: 16 bytes beginning with "NES\x1A".
type inesHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8 // in 16KB units
	CHRROMSize uint8 // in 8KB units
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

// LoadFromFile loads a cartridge from an iNES file on disk.
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader parses an iNES image from r. It returns ErrInvalidROM for a
// bad magic number or truncated image and ErrUnsupportedMapper for anything
// beyond NROM; no state is retained on error.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var header inesHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrInvalidROM, err)
	}

	if string(header.Magic[:]) != "NES\x1A" {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidROM)
	}
	if header.PRGROMSize == 0 {
		return nil, fmt.Errorf("%w: zero PRG banks", ErrInvalidROM)
	}

	cart := &Cartridge{
		mapperID:   (header.Flags6 >> 4) | (header.Flags7 & 0xF0),
		hasBattery: (header.Flags6 & 0x02) != 0,
	}

	if (header.Flags6 & 0x08) != 0 {
		cart.mirror = MirrorFourScreen
	} else if (header.Flags6 & 0x01) != 0 {
		cart.mirror = MirrorVertical
	} else {
		cart.mirror = MirrorHorizontal
	}

	// Skip trainer if present
	if (header.Flags6 & 0x04) != 0 {
		trainer := make([]uint8, 512)
		if _, err := io.ReadFull(r, trainer); err != nil {
			return nil, fmt.Errorf("%w: short trainer: %v", ErrInvalidROM, err)
		}
	}

	prgSize := int(header.PRGROMSize) * 16384
	cart.prgROM = make([]uint8, prgSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, fmt.Errorf("%w: short PRG data: %v", ErrInvalidROM, err)
	}

	chrSize := int(header.CHRROMSize) * 8192
	if chrSize > 0 {
		cart.chrROM = make([]uint8, chrSize)
		if _, err := io.ReadFull(r, cart.chrROM); err != nil {
			return nil, fmt.Errorf("%w: short CHR data: %v", ErrInvalidROM, err)
		}
	} else {
		// Zero CHR banks means the board carries 8KB of CHR RAM instead.
		cart.chrROM = make([]uint8, 8192)
		cart.hasCHRRAM = true
	}

	mapper, err := newMapper(cart.mapperID, cart)
	if err != nil {
		return nil, err
	}
	cart.mapper = mapper

	glog.V(1).Infof("loaded cartridge: mapper=%d prg=%dKB chr=%dKB mirror=%d battery=%t",
		cart.mapperID, prgSize/1024, chrSize/1024, cart.mirror, cart.hasBattery)

	return cart, nil
}

// ReadPRG reads from PRG ROM or PRG RAM.
func (c *Cartridge) ReadPRG(address uint16) uint8 {
	return c.mapper.ReadPRG(address)
}

// WritePRG writes to PRG RAM. Writes into the ROM window are ignored by NROM.
func (c *Cartridge) WritePRG(address uint16, value uint8) {
	c.mapper.WritePRG(address, value)
}

// ReadCHR reads from CHR ROM/RAM.
func (c *Cartridge) ReadCHR(address uint16) uint8 {
	return c.mapper.ReadCHR(address)
}

// WriteCHR writes to CHR RAM. Writes are ignored when CHR is ROM.
func (c *Cartridge) WriteCHR(address uint16, value uint8) {
	c.mapper.WriteCHR(address, value)
}

// MirrorMode returns the nametable mirroring mode from the header.
func (c *Cartridge) MirrorMode() MirrorMode {
	return c.mirror
}

// MapperID returns the mapper number from the header.
func (c *Cartridge) MapperID() uint8 {
	return c.mapperID
}

// HasBattery reports whether flags 6 declared battery-backed PRG RAM.
func (c *Cartridge) HasBattery() bool {
	return c.hasBattery
}

func newMapper(id uint8, cart *Cartridge) (Mapper, error) {
	switch id {
	case 0:
		return newNROM(cart), nil
	default:
		return nil, fmt.Errorf("%w: mapper %d", ErrUnsupportedMapper, id)
	}
}
