// Package ppu implements the Game Boy / Game Boy Color pixel processing
// unit: a dot-clock mode state machine, a line-granular background/
// window/sprite renderer, the OAM-DMA engine, and the CGB HDMA engine.
// It owns VRAM and OAM directly - the bus delegates those address ranges
// here rather than backing them itself.
package ppu

import (
	"fmt"

	"github.com/mattlyon/gbcore/internal/interrupts"
	"github.com/mattlyon/gbcore/internal/types"
	"github.com/mattlyon/gbcore/pkg/bits"
	"github.com/mattlyon/gbcore/pkg/log"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	cyclesPerLine = 456
)

// mode identifies one of the four STAT mode values.
type mode = uint8

const (
	modeHBlank mode = 0
	modeVBlank mode = 1
	modeOAM    mode = 2
	modeVRAM   mode = 3
)

// DMASource is the narrow back-reference into the bus that the OAM-DMA and
// HDMA engines use to read transfer bytes: a raw, un-gated read that skips
// the bus's own OAM-DMA CPU lockout (the lockout only applies to the CPU).
type DMASource interface {
	ReadRaw(address uint16) uint8
}

// PPU is the pixel processing unit.
type PPU struct {
	irq   *interrupts.Service
	isCGB bool
	src   DMASource

	vram    [2][0x2000]uint8
	vramBank uint8 // VBK.bit0

	oam [160]uint8

	// LCD registers
	lcdc uint8
	stat uint8
	scy  uint8
	scx  uint8
	ly   uint8
	lyc  uint8
	bgp  uint8
	obp0 uint8
	obp1 uint8
	wy   uint8
	wx   uint8

	key1 uint8 // CGB double-speed switch

	cyclesInLine int

	framebuffer [ScreenWidth * ScreenHeight]uint32
	frameReady  bool

	// per-scanline cache for the CGB sprite-priority resolver
	bgAttr    [ScreenWidth]uint8
	bgColorID [ScreenWidth]uint8

	dma
	hdma

	bgPalette  [64]uint8
	objPalette [64]uint8
	bcps       uint8
	ocps       uint8

	dmgPalette [4]uint32

	log log.Logger
}

// New returns a PPU in its post-bootrom default state.
func New(irq *interrupts.Service, isCGB bool) *PPU {
	p := &PPU{
		irq:        irq,
		isCGB:      isCGB,
		lcdc:       0x91,
		bgp:        0xFC,
		dmgPalette: defaultDMGPalette,
		log:        log.NewNullLogger(),
	}
	return p
}

// SetLogger replaces the PPU's logger, used for DMA/HDMA start-stop and
// LCD power toggles. Defaults to a null logger.
func (p *PPU) SetLogger(l log.Logger) {
	p.log = l
}

// AttachBus wires the DMA source used by OAM-DMA and HDMA. Called once
// during console construction, after both the bus and PPU exist.
func (p *PPU) AttachBus(src DMASource) {
	p.src = src
}

// IsCGB reports whether the PPU is running in Game Boy Color mode.
func (p *PPU) IsCGB() bool {
	return p.isCGB
}

// IsMode2 reports whether the PPU is currently in OAM-scan mode.
func (p *PPU) IsMode2() bool {
	return p.stat&0x03 == modeOAM
}

// OAMDMAActive reports whether the OAM-DMA engine currently owns the bus,
// blocking CPU access to everything but HRAM.
func (p *PPU) OAMDMAActive() bool {
	return p.dma.active
}

// Framebuffer returns the current ARGB framebuffer.
func (p *PPU) Framebuffer() *[ScreenWidth * ScreenHeight]uint32 {
	return &p.framebuffer
}

// FrameReady reports whether a full frame has been rendered since the last
// ConsumeFrame call.
func (p *PPU) FrameReady() bool {
	return p.frameReady
}

// ConsumeFrame clears the frame-ready flag. Callers read Framebuffer first.
func (p *PPU) ConsumeFrame() {
	p.frameReady = false
}

// VRAMRead reads VRAM through the bank selected by VBK, used by the bus's
// 0x8000-0x9FFF decode.
func (p *PPU) VRAMRead(address uint16) uint8 {
	return p.vram[p.vramBank][address&0x1FFF]
}

// VRAMWrite writes VRAM through the bank selected by VBK.
func (p *PPU) VRAMWrite(address uint16, value uint8) {
	p.vram[p.vramBank][address&0x1FFF] = value
}

// OAMRead reads the object attribute table, used by the bus's 0xFE00-0xFE9F
// decode.
func (p *PPU) OAMRead(address uint16) uint8 {
	return p.oam[address&0xFF]
}

// OAMWrite writes the object attribute table.
func (p *PPU) OAMWrite(address uint16, value uint8) {
	p.oam[address&0xFF] = value
}

// Read services the bus's MMIO decode for the LCD and CGB video registers.
func (p *PPU) Read(address uint16) uint8 {
	switch address {
	case types.LCDC:
		return p.lcdc
	case types.STAT:
		return p.stat | 0x80
	case types.SCY:
		return p.scy
	case types.SCX:
		return p.scx
	case types.LY:
		return p.ly
	case types.LYC:
		return p.lyc
	case types.DMA:
		return p.dma.source
	case types.BGP:
		return p.bgp
	case types.OBP0:
		return p.obp0
	case types.OBP1:
		return p.obp1
	case types.WY:
		return p.wy
	case types.WX:
		return p.wx
	case types.KEY1:
		return p.key1 | 0x7E
	case types.VBK:
		return p.vramBank | 0xFE
	case types.HDMA1, types.HDMA2, types.HDMA3, types.HDMA4, types.HDMA5:
		return p.hdmaRead(address)
	case types.BCPS:
		return p.bcps
	case types.BCPD:
		return p.bgPalette[p.bcps&0x3F]
	case types.OCPS:
		return p.ocps
	case types.OCPD:
		return p.objPalette[p.ocps&0x3F]
	}
	panic(fmt.Sprintf("ppu: illegal read from address %04X", address))
}

// Write services the bus's MMIO decode for the LCD and CGB video registers.
func (p *PPU) Write(address uint16, value uint8) {
	switch address {
	case types.LCDC:
		p.writeLCDC(value)
	case types.STAT:
		p.stat = (value & 0x78) | (p.stat & 0x07)
	case types.SCY:
		p.scy = value
	case types.SCX:
		p.scx = value
	case types.LY:
		// read-only
	case types.LYC:
		p.lyc = value
	case types.DMA:
		p.dma.source = value
		p.dma.pending = true
	case types.BGP:
		p.bgp = value
	case types.OBP0:
		p.obp0 = value
	case types.OBP1:
		p.obp1 = value
	case types.WY:
		p.wy = value
	case types.WX:
		p.wx = value
	case types.KEY1:
		p.key1 = (p.key1 & 0x80) | (value & 0x01)
	case types.VBK:
		if p.isCGB {
			p.vramBank = value & 0x01
		}
	case types.HDMA1, types.HDMA2, types.HDMA3, types.HDMA4, types.HDMA5:
		p.hdmaWrite(address, value)
	case types.BCPS:
		p.bcps = value & 0xBF
	case types.BCPD:
		p.writePaletteByte(&p.bgPalette, &p.bcps, value)
	case types.OCPS:
		p.ocps = value & 0xBF
	case types.OCPD:
		p.writePaletteByte(&p.objPalette, &p.ocps, value)
	default:
		panic(fmt.Sprintf("ppu: illegal write to address %04X", address))
	}
}

// writePaletteByte implements the BCPS/BCPD (and OCPS/OCPD) autoincrement
// protocol: write the byte at the current index, then if the index
// register's bit 7 was set, advance the low 6 bits and reassert bit 7.
func (p *PPU) writePaletteByte(palette *[64]uint8, index *uint8, value uint8) {
	palette[*index&0x3F] = value
	if *index&0x80 != 0 {
		*index = 0x80 | ((*index + 1) & 0x3F)
	}
}

// writeLCDC handles the LCDC side effects: toggling the LCD on or off
// resets the line position and mode.
func (p *PPU) writeLCDC(value uint8) {
	wasOn := bits.Test(p.lcdc, 7)
	isOn := bits.Test(value, 7)
	p.lcdc = value

	if !wasOn && isOn {
		p.log.Debugf("ppu: lcd enabled")
		p.ly = 0
		p.cyclesInLine = 0
		p.setMode(modeOAM)
	} else if wasOn && !isOn {
		p.log.Debugf("ppu: lcd disabled")
		p.setMode(modeHBlank)
		p.ly = 0
	}
}

func (p *PPU) setMode(m mode) {
	p.stat = (p.stat &^ 0x03) | m
}

// Step advances the PPU state machine by n cycles: the dot-clock mode
// sequencer, the OAM-DMA engine, and (indirectly, on HBlank entry) the
// HDMA engine.
func (p *PPU) Step(n int) {
	p.stepDMA(n)

	if p.lcdc&0x80 == 0 {
		return
	}

	p.cyclesInLine += n
	for p.cyclesInLine >= cyclesPerLine {
		p.cyclesInLine -= cyclesPerLine
		p.advanceLine()
	}

	p.updateMode()
}

// updateMode recomputes STAT's mode bits (and raises STAT IRQs on change)
// from the current line position, matching the 80/172/204 dot windows of
// a visible scanline.
func (p *PPU) updateMode() {
	old := p.stat & 0x03

	var next mode
	switch {
	case p.ly >= ScreenHeight:
		next = modeVBlank
	case p.cyclesInLine < 80:
		next = modeOAM
	case p.cyclesInLine < 252:
		next = modeVRAM
	default:
		next = modeHBlank
	}

	if next == old {
		return
	}
	p.setMode(next)

	if next == modeHBlank && p.hdma.active {
		p.transferHDMABlock()
	}

	var irqBit uint8
	switch next {
	case modeHBlank:
		irqBit = 0x08
	case modeVBlank:
		irqBit = 0x10
	case modeOAM:
		irqBit = 0x20
	}
	if irqBit != 0 && p.stat&irqBit != 0 {
		p.irq.Request(interrupts.LCDFlag)
	}
}

// advanceLine increments LY, wraps at 154, updates the LYC coincidence
// flag, and on entering line 144 raises VBlank and renders nothing further
// this frame until line 0. Visible lines are rendered in a single pass as
// soon as LY increments onto them.
func (p *PPU) advanceLine() {
	p.ly++
	if p.ly > 153 {
		p.ly = 0
	}

	if p.ly == ScreenHeight {
		p.setMode(modeVBlank)
		p.irq.Request(interrupts.VBlankFlag)
		p.frameReady = true
	}

	wasCoincident := p.stat&0x04 != 0
	coincident := p.ly == p.lyc
	if coincident {
		p.stat |= 0x04
	} else {
		p.stat &^= 0x04
	}
	if coincident && !wasCoincident && p.stat&0x40 != 0 {
		p.irq.Request(interrupts.LCDFlag)
	}

	if p.ly < ScreenHeight {
		p.renderScanline()
	}
}
