// Package mmu implements the Game Boy / Game Boy Color memory bus: the
// 64KiB address decoder that routes every CPU read and write to the
// correct backing store (cartridge, WRAM, the PPU's VRAM/OAM, HRAM, or an
// MMIO register) and applies each register's write side effects.
package mmu

import (
	"github.com/mattlyon/gbcore/internal/boot"
	"github.com/mattlyon/gbcore/internal/cartridge"
	"github.com/mattlyon/gbcore/internal/interrupts"
	"github.com/mattlyon/gbcore/internal/joypad"
	"github.com/mattlyon/gbcore/internal/ppu"
	"github.com/mattlyon/gbcore/internal/ram"
	"github.com/mattlyon/gbcore/internal/serial"
	"github.com/mattlyon/gbcore/internal/timer"
	"github.com/mattlyon/gbcore/internal/types"
	"github.com/mattlyon/gbcore/pkg/log"
)

// Bus is the memory bus. It owns WRAM, HRAM, and the passive audio
// register window directly, and holds references to every other
// component an address might be routed to.
type Bus struct {
	cart    *cartridge.Cartridge
	bootROM *boot.ROM
	bootOn  bool

	ppu    *ppu.PPU
	timer  *timer.Controller
	serial *serial.Controller
	joypad *joypad.State
	irq    *interrupts.Service

	wram [8]*ram.Ram
	svbk uint8

	hram  [0x7F]uint8
	audio [0x30]uint8

	isCGB bool
	log   log.Logger
}

// New assembles a Bus from its already-constructed collaborators. The PPU
// is expected to have been given a reference back to this Bus (via
// PPU.AttachBus) before the first Step, so its DMA engines can read
// transfer source bytes.
func New(cart *cartridge.Cartridge, bootROM *boot.ROM, irq *interrupts.Service, tmr *timer.Controller, ser *serial.Controller, joy *joypad.State, p *ppu.PPU, isCGB bool, logger log.Logger) *Bus {
	b := &Bus{
		cart:    cart,
		bootROM: bootROM,
		bootOn:  bootROM != nil,
		ppu:     p,
		timer:   tmr,
		serial:  ser,
		joypad:  joy,
		irq:     irq,
		isCGB:   isCGB,
		log:     logger,
	}
	for i := range b.wram {
		b.wram[i] = ram.NewRAM(0x1000)
	}
	return b
}

// wramBankIndex resolves the switchable WRAM bank (0xD000-0xDFFF): always
// 1 on DMG, and max(1, SVBK&7) on CGB.
func (b *Bus) wramBankIndex() uint8 {
	if !b.isCGB {
		return 1
	}
	n := b.svbk & 0x07
	if n == 0 {
		n = 1
	}
	return n
}

// Read returns the byte at address, applying the OAM-DMA CPU lockout: while
// an OAM-DMA transfer is active, only HRAM reads see real data.
func (b *Bus) Read(address uint16) uint8 {
	if b.ppu.OAMDMAActive() && !(address >= 0xFF80 && address <= 0xFFFE) {
		return 0xFF
	}
	return b.ReadRaw(address)
}

// ReadRaw decodes address without the OAM-DMA lockout check. It is exported
// so the PPU's DMA and HDMA engines (which run "underneath" the lockout
// they themselves impose) can use it as their transfer source.
func (b *Bus) ReadRaw(address uint16) uint8 {
	if b.bootOn && b.bootROM != nil && b.bootROM.InOverlay(address) {
		return b.bootROM.Read(address)
	}

	switch {
	case address < 0x8000:
		return b.cart.Read(address)
	case address < 0xA000:
		return b.ppu.VRAMRead(address)
	case address < 0xC000:
		return b.cart.Read(address)
	case address < 0xD000:
		return b.wram[0].Read(address - 0xC000)
	case address < 0xE000:
		return b.wram[b.wramBankIndex()].Read(address - 0xD000)
	case address < 0xF000:
		return b.wram[0].Read(address - 0xE000)
	case address < 0xFE00:
		return b.wram[b.wramBankIndex()].Read(address - 0xF000)
	case address < 0xFEA0:
		return b.ppu.OAMRead(address)
	case address < 0xFF00:
		return 0xFF
	case address < 0xFF80:
		return b.readMMIO(address)
	case address < 0xFFFF:
		return b.hram[address-0xFF80]
	default:
		return b.irq.Read(address)
	}
}

func (b *Bus) readMMIO(address uint16) uint8 {
	switch {
	case address == types.P1:
		return b.joypad.Read()
	case address == types.SB, address == types.SC:
		return b.serial.Read(address)
	case address >= types.DIV && address <= types.TAC:
		return b.timer.Read(address)
	case address == types.IF:
		return b.irq.Read(address)
	case address >= types.AudioStart && address <= types.AudioEnd:
		return b.audio[address-types.AudioStart]
	case address >= types.LCDC && address <= types.WX:
		return b.ppu.Read(address)
	case address == types.KEY1:
		return b.ppu.Read(address)
	case address == types.VBK:
		return b.ppu.Read(address)
	case address == types.BDIS:
		return 0xFF
	case address >= types.HDMA1 && address <= types.HDMA5:
		return b.ppu.Read(address)
	case address == types.RP:
		return 0xFF
	case address >= types.BCPS && address <= types.OCPD:
		return b.ppu.Read(address)
	case address == types.SVBK:
		return b.svbk | 0xF8
	default:
		return 0xFF
	}
}

// Write stores value at address, applying the same OAM-DMA CPU lockout as
// Read.
func (b *Bus) Write(address uint16, value uint8) {
	if b.ppu.OAMDMAActive() && !(address >= 0xFF80 && address <= 0xFFFE) {
		return
	}

	switch {
	case address < 0x8000:
		b.cart.Write(address, value)
	case address < 0xA000:
		b.ppu.VRAMWrite(address, value)
	case address < 0xC000:
		b.cart.Write(address, value)
	case address < 0xD000:
		b.wram[0].Write(address-0xC000, value)
	case address < 0xE000:
		b.wram[b.wramBankIndex()].Write(address-0xD000, value)
	case address < 0xF000:
		b.wram[0].Write(address-0xE000, value)
	case address < 0xFE00:
		b.wram[b.wramBankIndex()].Write(address-0xF000, value)
	case address < 0xFEA0:
		b.ppu.OAMWrite(address, value)
	case address < 0xFF00:
		// unusable: writes ignored
	case address < 0xFF80:
		b.writeMMIO(address, value)
	case address < 0xFFFF:
		b.hram[address-0xFF80] = value
	default:
		b.irq.Write(address, value)
	}
}

func (b *Bus) writeMMIO(address uint16, value uint8) {
	switch {
	case address == types.P1:
		b.joypad.Write(value)
	case address == types.SB, address == types.SC:
		b.serial.Write(address, value)
	case address >= types.DIV && address <= types.TAC:
		b.timer.Write(address, value)
	case address == types.IF:
		b.irq.Write(address, value)
	case address >= types.AudioStart && address <= types.AudioEnd:
		b.audio[address-types.AudioStart] = value
	case address >= types.LCDC && address <= types.WX:
		b.ppu.Write(address, value)
	case address == types.KEY1:
		b.ppu.Write(address, value)
	case address == types.VBK:
		b.ppu.Write(address, value)
	case address == types.BDIS:
		if value != 0 && b.bootOn {
			b.log.Debugf("mmu: boot rom overlay disabled")
			b.bootOn = false
		}
	case address >= types.HDMA1 && address <= types.HDMA5:
		b.ppu.Write(address, value)
	case address == types.RP:
		// infrared port: no peer modeled, writes accepted and ignored
	case address >= types.BCPS && address <= types.OCPD:
		b.ppu.Write(address, value)
	case address == types.SVBK:
		if b.isCGB {
			b.svbk = value & 0x07
			b.log.Debugf("mmu: wram bank switch svbk=%d", b.wramBankIndex())
		}
	default:
		// open bus: unmapped MMIO writes are no-ops
	}
}

// TickSerial advances the serial transfer countdown by n cycles.
func (b *Bus) TickSerial(n int) {
	b.serial.Tick(n)
}

// PressButton marks a button pressed in the given latch and raises the
// joypad interrupt on a press edge.
func (b *Bus) PressButton(latchIsAction bool, button joypad.Button) {
	if b.joypad.Press(latchIsAction, button) {
		b.irq.Request(interrupts.JoypadFlag)
	}
}

// ReleaseButton marks a button released in the given latch.
func (b *Bus) ReleaseButton(latchIsAction bool, button joypad.Button) {
	b.joypad.Release(latchIsAction, button)
}
