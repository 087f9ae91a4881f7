package ppu

// defaultDMGPalette is the four-shade ARGB lookup table used for DMG
// background/object rendering.
var defaultDMGPalette = [4]uint32{
	0xFFFFFFFF, // white
	0xFFAAAAAA, // light gray
	0xFF555555, // dark gray
	0xFF000000, // black
}

// sgbPalette approximates the classic SGB default theme, used in place of
// the DMG grayscale LUT when a cartridge advertises SGB support and the
// PPU is not running in CGB mode.
var sgbPalette = [4]uint32{
	0xFFF8E8C8,
	0xFFD89048,
	0xFFA83820,
	0xFF300808,
}

// SetSGBPalette swaps in the SGB-themed LUT in place of grayscale. Callers
// (console wiring) invoke this once at startup when Cartridge.IsSGB() is
// true and the PPU is not running in CGB mode.
func (p *PPU) SetSGBPalette() {
	if p.isCGB {
		return
	}
	p.dmgPalette = sgbPalette
}

// dmgColor resolves a 2-bit color id through a DMG palette register
// (BGP/OBP0/OBP1) into an ARGB color.
func (p *PPU) dmgColor(palette uint8, colorID uint8) uint32 {
	shade := (palette >> (colorID * 2)) & 0x03
	return p.dmgPalette[shade]
}

// cgbColor reads a little-endian RGB555 entry out of a 64-byte CGB
// palette RAM array (selected by palette number 0-7 and color id 0-3) and
// expands it to 8-bit-per-channel ARGB.
func (p *PPU) cgbColor(ram *[64]uint8, paletteNum uint8, colorID uint8) uint32 {
	offset := int(paletteNum)*8 + int(colorID)*2
	lo := ram[offset]
	hi := ram[offset+1]
	word := uint16(lo) | uint16(hi)<<8

	r5 := uint8(word & 0x1F)
	g5 := uint8((word >> 5) & 0x1F)
	b5 := uint8((word >> 10) & 0x1F)

	r := expand5to8(r5)
	g := expand5to8(g5)
	b := expand5to8(b5)

	return 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func expand5to8(c uint8) uint8 {
	return (c << 3) | (c >> 2)
}
