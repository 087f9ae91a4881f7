package ppu

import "github.com/mattlyon/gbcore/internal/types"

// dma is the OAM-DMA engine: a CPU-blocking bulk copy from an arbitrary
// source page into OAM, paced at one byte per 4 cycles.
type dma struct {
	source    uint8 // raw FF46 value; source address is source<<8
	pending   bool
	active    bool
	counter   int // bytes transferred so far, 0..160
	accumCycl int // pacing accumulator
}

// stepDMA advances the OAM-DMA engine by n cycles. A write to FF46 takes
// effect on the following step rather than immediately, matching real
// latch timing.
func (p *PPU) stepDMA(n int) {
	if p.dma.pending {
		p.dma.pending = false
		p.dma.active = true
		p.dma.counter = 0
		p.dma.accumCycl = 0
		p.log.Debugf("ppu: oam-dma start source=%02X00", p.dma.source)
	}

	if !p.dma.active {
		return
	}

	p.dma.accumCycl += n
	for p.dma.accumCycl >= 4 && p.dma.active {
		p.dma.accumCycl -= 4
		src := uint16(p.dma.source)<<8 + uint16(p.dma.counter)
		p.oam[p.dma.counter] = p.readDMAByte(src)
		p.dma.counter++
		if p.dma.counter >= 160 {
			p.dma.active = false
		}
	}
}

// readDMAByte reads a single source byte for OAM-DMA. Echoing OAM as a
// source is nonsensical on hardware and simply reads whatever backing
// store the address decodes to, same as any other source address.
func (p *PPU) readDMAByte(address uint16) uint8 {
	if p.src == nil {
		return 0xFF
	}
	return p.src.ReadRaw(address)
}

// hdma is the CGB HDMA engine, supporting both general-purpose (immediate)
// and HBlank-paced transfers from an arbitrary source into VRAM.
type hdma struct {
	active     bool
	hblankMode bool
	src        uint16
	dst        uint16
	remaining  int // bytes remaining
}

// hdmaRead services FF51-FF55. HDMA1-4 are write-only on real hardware;
// this implementation mirrors the open-bus convention and returns 0xFF for
// them, matching the spec's MMIO table (only HDMA5 has defined read
// behavior: its own pending-block count).
func (p *PPU) hdmaRead(address uint16) uint8 {
	if address == types.HDMA5 {
		if !p.hdma.active {
			return 0xFF
		}
		blocks := p.hdma.remaining/0x10 - 1
		return uint8(blocks) & 0x7F
	}
	return 0xFF
}

// hdmaWrite handles writes to HDMA1-5. HDMA1-4 stage the source and
// destination registers; HDMA5 decodes and starts (or cancels) a transfer.
func (p *PPU) hdmaWrite(address uint16, value uint8) {
	switch address {
	case types.HDMA1:
		p.hdma.src = (p.hdma.src & 0x00FF) | uint16(value)<<8
	case types.HDMA2:
		p.hdma.src = (p.hdma.src & 0xFF00) | uint16(value&0xF0)
	case types.HDMA3:
		p.hdma.dst = (p.hdma.dst & 0x00FF) | uint16(value&0x1F)<<8
	case types.HDMA4:
		p.hdma.dst = (p.hdma.dst & 0xFF00) | uint16(value&0xF0)
	case types.HDMA5:
		p.startHDMA(value)
	}
}

func (p *PPU) startHDMA(value uint8) {
	if !p.isCGB {
		return
	}

	if p.hdma.active && value&0x80 != 0 {
		p.log.Debugf("ppu: hdma cancelled")
		p.hdma.active = false
		return
	}

	length := (int(value&0x7F) + 1) * 0x10
	src := p.hdma.src & 0xFFF0
	dst := 0x8000 | (p.hdma.dst & 0x1FF0)

	if value&0x80 == 0 {
		p.log.Debugf("ppu: hdma general-purpose %d bytes %04X->%04X", length, src, dst)
		for i := 0; i < length; i++ {
			p.vram[p.vramBank][(dst+uint16(i))&0x1FFF] = p.readDMAByte(src + uint16(i))
		}
		p.hdma.active = false
		return
	}

	p.log.Debugf("ppu: hdma hblank start %d bytes %04X->%04X", length, src, dst)
	p.hdma.active = true
	p.hdma.hblankMode = true
	p.hdma.src = src
	p.hdma.dst = dst
	p.hdma.remaining = length
}

// transferHDMABlock copies one 16-byte block on HBlank entry, called by
// the mode sequencer.
func (p *PPU) transferHDMABlock() {
	for i := 0; i < 0x10; i++ {
		p.vram[p.vramBank][(p.hdma.dst+uint16(i))&0x1FFF] = p.readDMAByte(p.hdma.src + uint16(i))
	}
	p.hdma.src += 0x10
	p.hdma.dst = 0x8000 | ((p.hdma.dst + 0x10) & 0x1FF0)
	p.hdma.remaining -= 0x10

	if p.hdma.remaining <= 0 {
		p.hdma.active = false
		p.log.Debugf("ppu: hdma hblank transfer complete")
	}
}
