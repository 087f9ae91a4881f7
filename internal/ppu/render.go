package ppu

// renderScanline renders the current line (p.ly) into the framebuffer in
// a single pass: background, then window, then sprites. This is a
// line-granular renderer rather than a cycle-accurate mode-3 pixel FIFO,
// matching the end-of-line framebuffer contents hardware would produce.
func (p *PPU) renderScanline() {
	line := p.ly
	row := line * ScreenWidth

	bgColor := p.dmgColor(p.bgp, 0)
	for x := 0; x < ScreenWidth; x++ {
		p.framebuffer[int(row)+x] = bgColor
		p.bgAttr[x] = 0
		p.bgColorID[x] = 0
	}

	if p.lcdc&0x01 != 0 || p.isCGB {
		p.renderBackground(line)
	}
	if p.lcdc&0x20 != 0 && p.wy <= line {
		p.renderWindow(line)
	}
	if p.lcdc&0x02 != 0 {
		p.renderSprites(line)
	}
}

func (p *PPU) renderBackground(line uint8) {
	mapBase := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		mapBase = 0x9C00
	}

	srcY := (p.scy + line)
	for x := 0; x < ScreenWidth; x++ {
		srcX := p.scx + uint8(x)
		p.plotBGPixel(x, mapBase, srcX, srcY)
	}
}

func (p *PPU) renderWindow(line uint8) {
	mapBase := uint16(0x9800)
	if p.lcdc&0x40 != 0 {
		mapBase = 0x9C00
	}

	winY := line - p.wy
	for x := 0; x < ScreenWidth; x++ {
		srcX := int(x) - (int(p.wx) - 7)
		if srcX < 0 {
			continue
		}
		p.plotBGPixel(x, mapBase, uint8(srcX), winY)
	}
}

// plotBGPixel fetches and draws a single background/window pixel at
// framebuffer column x, from map tile coordinates (tileX, tileY).
func (p *PPU) plotBGPixel(x int, mapBase uint16, tileX, tileY uint8) {
	tileCol := uint16(tileX) / 8
	tileRow := uint16(tileY) / 8
	mapIndex := mapBase + tileRow*32 + tileCol

	tileNum := p.vram[0][mapIndex&0x1FFF]

	var attr uint8
	if p.isCGB {
		attr = p.vram[1][mapIndex&0x1FFF]
	}

	bank := uint8(0)
	if attr&0x08 != 0 {
		bank = 1
	}

	tileAddr := p.tileDataAddress(tileNum)

	rowInTile := tileY % 8
	if attr&0x40 != 0 { // Y-flip
		rowInTile = 7 - rowInTile
	}

	lo := p.vram[bank][(tileAddr+uint16(rowInTile)*2)&0x1FFF]
	hi := p.vram[bank][(tileAddr+uint16(rowInTile)*2+1)&0x1FFF]

	bit := tileX % 8
	if attr&0x20 == 0 { // no X-flip: bit 7 is leftmost pixel
		bit = 7 - bit
	}

	colorID := ((hi>>bit)&1)<<1 | (lo>>bit)&1

	p.bgAttr[x] = attr
	p.bgColorID[x] = colorID

	var color uint32
	if p.isCGB {
		color = p.cgbColor(&p.bgPalette, attr&0x07, colorID)
	} else {
		color = p.dmgColor(p.bgp, colorID)
	}
	p.framebuffer[int(p.ly)*ScreenWidth+x] = color
}

// tileDataAddress resolves a tile number to its base VRAM address per
// LCDC.4's addressing mode: unsigned from 0x8000, or signed from 0x9000.
func (p *PPU) tileDataAddress(tileNum uint8) uint16 {
	if p.lcdc&0x10 != 0 {
		return 0x8000 + uint16(tileNum)*16
	}
	return uint16(0x8800 + (int(int8(tileNum))+128)*16)
}

type spriteAttr struct {
	y, x, tile, flags uint8
}

// renderSprites draws the sprites visible on this line. Selection (which
// sprites make the 10-per-line cap) and drawing (which of those wins
// overlapping pixels) use different OAM orders, matching hardware: the
// first 10 sprites overlapping the line in ascending OAM order are
// selected, then drawn in descending OAM order so lower indices win ties.
func (p *PPU) renderSprites(line uint8) {
	height := uint8(8)
	if p.lcdc&0x04 != 0 {
		height = 16
	}

	var selected [10]spriteAttr
	var selSY [10]int
	count := 0
	for i := 0; i < 40 && count < 10; i++ {
		base := i * 4
		s := spriteAttr{
			y:     p.oam[base],
			x:     p.oam[base+1],
			tile:  p.oam[base+2],
			flags: p.oam[base+3],
		}
		sy := int(s.y) - 16
		if int(line) < sy || int(line) >= sy+int(height) {
			continue
		}
		selected[count] = s
		selSY[count] = sy
		count++
	}

	for i := count - 1; i >= 0; i-- {
		p.drawSprite(selected[i], selSY[i], line, height)
	}
}

func (p *PPU) drawSprite(s spriteAttr, sy int, line uint8, height uint8) {
	sx := int(s.x) - 8

	row := uint8(int(line) - sy)
	if s.flags&0x40 != 0 { // Y-flip
		row = height - 1 - row
	}

	tile := s.tile
	if height == 16 {
		tile &^= 1
		if row >= 8 {
			tile |= 1
			row -= 8
		}
	}

	bank := uint8(0)
	if p.isCGB && s.flags&0x08 != 0 {
		bank = 1
	}

	addr := uint16(tile)*16 + uint16(row)*2
	lo := p.vram[bank][addr&0x1FFF]
	hi := p.vram[bank][(addr+1)&0x1FFF]

	for px := 0; px < 8; px++ {
		x := sx + px
		if x < 0 || x >= ScreenWidth {
			continue
		}

		bit := uint8(px)
		if s.flags&0x20 == 0 { // no X-flip
			bit = 7 - bit
		}
		colorID := ((hi>>bit)&1)<<1 | (lo>>bit)&1
		if colorID == 0 {
			continue
		}

		if p.isCGB {
			if p.lcdc&0x01 != 0 && p.bgColorID[x] != 0 && (p.bgAttr[x]&0x80 != 0 || s.flags&0x80 != 0) {
				continue
			}
			color := p.cgbColor(&p.objPalette, s.flags&0x07, colorID)
			p.framebuffer[int(line)*ScreenWidth+x] = color
			continue
		}

		if s.flags&0x80 != 0 && p.bgColorID[x] != 0 {
			continue
		}

		palette := p.obp0
		if s.flags&0x10 != 0 {
			palette = p.obp1
		}
		p.framebuffer[int(line)*ScreenWidth+x] = p.dmgColor(palette, colorID)
	}
}
