package mmu

import (
	"testing"

	"github.com/mattlyon/gbcore/internal/boot"
	"github.com/mattlyon/gbcore/internal/cartridge"
	"github.com/mattlyon/gbcore/internal/interrupts"
	"github.com/mattlyon/gbcore/internal/joypad"
	"github.com/mattlyon/gbcore/internal/ppu"
	"github.com/mattlyon/gbcore/internal/serial"
	"github.com/mattlyon/gbcore/internal/timer"
	"github.com/mattlyon/gbcore/internal/types"
	"github.com/mattlyon/gbcore/pkg/log"
)

func newTestCartridge(t *testing.T) *cartridge.Cartridge {
	t.Helper()
	rom := make([]byte, 0x8000)
	c, err := cartridge.New(rom)
	if err != nil {
		t.Fatalf("cartridge.New returned error: %v", err)
	}
	return c
}

func newTestBus(t *testing.T, isCGB bool, bootROM *boot.ROM) *Bus {
	t.Helper()
	irq := interrupts.NewService()
	tmr := timer.NewController(irq)
	ser := serial.NewController(irq)
	joy := joypad.New()
	p := ppu.New(irq, isCGB)
	p.SetLogger(log.NewNullLogger())
	b := New(newTestCartridge(t), bootROM, irq, tmr, ser, joy, p, isCGB, log.NewNullLogger())
	p.AttachBus(b)
	return b
}

func TestWRAMEchoRegionTransparency(t *testing.T) {
	b := newTestBus(t, false, nil)

	b.Write(0xC010, 0x99)
	if got := b.Read(0xE010); got != 0x99 {
		t.Fatalf("echo Read(0xE010) = %#02X, want 0x99 (mirrors 0xC010)", got)
	}

	b.Write(0xD500, 0x77)
	if got := b.Read(0xF500); got != 0x77 {
		t.Fatalf("echo Read(0xF500) = %#02X, want 0x77 (mirrors 0xD500)", got)
	}

	b.Write(0xE020, 0x11)
	if got := b.Read(0xC020); got != 0x11 {
		t.Fatalf("Read(0xC020) = %#02X, want 0x11 (write through the echo region)", got)
	}
}

func TestWRAMBankingFollowsSVBKOnCGB(t *testing.T) {
	b := newTestBus(t, true, nil)

	b.Write(0xD000, 0xAA) // bank 1 (default)
	b.writeMMIO(types.SVBK, 0x02)
	b.Write(0xD000, 0xBB) // bank 2
	b.writeMMIO(types.SVBK, 0x01)
	if got := b.Read(0xD000); got != 0xAA {
		t.Fatalf("Read(0xD000) on bank 1 = %#02X, want 0xAA", got)
	}
	b.writeMMIO(types.SVBK, 0x02)
	if got := b.Read(0xD000); got != 0xBB {
		t.Fatalf("Read(0xD000) on bank 2 = %#02X, want 0xBB", got)
	}
}

func TestWRAMBankZeroSubstitutesToOne(t *testing.T) {
	b := newTestBus(t, true, nil)
	b.writeMMIO(types.SVBK, 0x00)
	if got := b.wramBankIndex(); got != 1 {
		t.Fatalf("wramBankIndex() with SVBK=0 = %d, want 1", got)
	}
}

func TestWRAMAlwaysBankOneOnDMG(t *testing.T) {
	b := newTestBus(t, false, nil)
	b.writeMMIO(types.SVBK, 0x05) // SVBK is ignored entirely on DMG
	if got := b.wramBankIndex(); got != 1 {
		t.Fatalf("wramBankIndex() on DMG = %d, want 1 regardless of SVBK", got)
	}
}

func TestOAMDMABlocksCPUBusExceptHRAM(t *testing.T) {
	b := newTestBus(t, false, nil)
	b.Write(0xFF80, 0x42) // HRAM, written before the transfer starts

	b.Write(types.DMA, 0xC0)
	b.ppu.Step(1) // latch the pending transfer

	if got := b.Read(0x0000); got != 0xFF {
		t.Fatalf("Read(0x0000) during OAM-DMA = %#02X, want 0xFF (bus locked)", got)
	}
	if got := b.Read(0xFF80); got != 0x42 {
		t.Fatalf("Read(0xFF80) during OAM-DMA = %#02X, want 0x42 (HRAM stays reachable)", got)
	}

	b.Write(0x9000, 0x01) // writes to non-HRAM addresses are also dropped
	if got := b.ppu.VRAMRead(0x9000); got != 0x00 {
		t.Fatalf("VRAM[0x9000] after a write during OAM-DMA = %#02X, want 0x00 (write dropped)", got)
	}
	if got := b.Read(0x9000); got != 0xFF {
		t.Fatalf("VRAM read during OAM-DMA = %#02X, want 0xFF", got)
	}
}

func TestBootROMOverlayAndDisable(t *testing.T) {
	raw := make([]byte, 256)
	raw[0] = 0x11
	rom := boot.Load(raw)
	b := newTestBus(t, false, rom)

	if got := b.Read(0x0000); got != 0x11 {
		t.Fatalf("Read(0x0000) under the boot overlay = %#02X, want 0x11", got)
	}

	b.Write(types.BDIS, 0x01)
	if got := b.Read(0x0000); got != 0x00 {
		t.Fatalf("Read(0x0000) after disabling the boot overlay = %#02X, want the cartridge's byte (0x00)", got)
	}
}

func TestJoypadPressRequestsInterruptThroughTheBus(t *testing.T) {
	b := newTestBus(t, false, nil)
	b.Write(types.P1, 0x20) // select direction latch
	b.PressButton(false, joypad.Down)
	if b.irq.Flag&(1<<interrupts.JoypadFlag) == 0 {
		t.Fatalf("joypad interrupt was not requested via Bus.PressButton")
	}
}
