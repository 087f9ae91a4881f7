package cartridge

import "github.com/mattlyon/gbcore/internal/ram"

// mbc1 is the most common memory bank controller, supporting up to 2MiB of
// ROM across 125 switchable banks and up to 32KiB of RAM across 4 banks.
// A single mode bit decides whether the secondary 2-bit register selects
// a RAM bank or the upper bits of an extended ROM bank number.
type mbc1 struct {
	rom []byte
	ram ram.RAM

	romBank    uint8
	secondary  uint8 // RAM bank, or ROM bank bits 5-6 depending on mode
	ramEnabled bool
	ramBanking bool // mode bit: true selects secondary as RAM bank
}

func newMBC1(rom []byte, ramSize uint) *mbc1 {
	size := int(ramSize)
	if size == 0 {
		size = 1
	}
	return &mbc1{
		rom:     rom,
		ram:     ram.NewRAM(size),
		romBank: 1,
	}
}

func (m *mbc1) Read(address uint16) uint8 {
	switch {
	case address < 0x4000:
		zeroBank := uint8(0)
		if m.ramBanking {
			zeroBank = m.secondary << 5
		}
		return m.romByte(zeroBank, address)
	case address < 0x8000:
		bank := m.romBank | m.secondary<<5
		return m.romByte(bank, address-0x4000)
	default: // 0xA000-0xBFFF
		if !m.ramEnabled {
			return 0xFF
		}
		bank := uint8(0)
		if m.ramBanking {
			bank = m.secondary
		}
		return m.ram.Read(uint16(bank)*0x2000 + (address - 0xA000))
	}
}

func (m *mbc1) romByte(bank uint8, offset uint16) uint8 {
	i := int(bank)*0x4000 + int(offset)
	if i >= len(m.rom) {
		return 0xFF
	}
	return m.rom[i]
}

func (m *mbc1) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case address < 0x4000:
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case address < 0x6000:
		m.secondary = value & 0x03
	case address < 0x8000:
		m.ramBanking = value&0x01 != 0
	default: // 0xA000-0xBFFF
		if !m.ramEnabled {
			return
		}
		bank := uint8(0)
		if m.ramBanking {
			bank = m.secondary
		}
		m.ram.Write(uint16(bank)*0x2000+(address-0xA000), value)
	}
}
