package cartridge

import "github.com/mattlyon/gbcore/internal/ram"

// mbc3 supports up to 2MiB of ROM, 32KiB of RAM, and a 5-register
// real-time clock that shares the RAM bank select: bank values 0x0-0x3
// address RAM banks as usual, and 0x8-0xC address the RTC registers
// (seconds, minutes, hours, day-low, day-high). Writing 0x00 then 0x01 to
// the latch register snapshots the live RTC into the latched copy that
// reads actually observe.
type mbc3 struct {
	rom     []byte
	romBank uint32

	ram        ram.RAM
	ramBank    uint8
	ramEnabled bool

	rtc        []byte
	latchedRTC []byte
	latchWrite uint8 // tracks the 0x00-then-0x01 latch sequence
}

func newMBC3(rom []byte, ramSize uint) *mbc3 {
	size := int(ramSize)
	if size == 0 {
		size = 1
	}
	return &mbc3{
		rom:        rom,
		romBank:    1,
		ram:        ram.NewRAM(size),
		rtc:        make([]byte, 0x10),
		latchedRTC: make([]byte, 0x10),
	}
}

func (m *mbc3) Read(address uint16) uint8 {
	switch {
	case address < 0x4000:
		return m.romByte(0, address)
	case address < 0x8000:
		return m.romByte(uint32(m.romBank), address-0x4000)
	case address >= 0xA000 && address < 0xC000:
		if m.ramBank >= 0x08 {
			return m.latchedRTC[m.ramBank-0x08]
		}
		if !m.ramEnabled {
			return 0xFF
		}
		return m.ram.Read(uint16(m.ramBank)*0x2000 + (address - 0xA000))
	}
	return 0xFF
}

func (m *mbc3) romByte(bank uint32, offset uint16) uint8 {
	i := int(bank)*0x4000 + int(offset)
	if i >= len(m.rom) {
		return 0xFF
	}
	return m.rom[i]
}

func (m *mbc3) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case address < 0x4000:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = uint32(bank)
	case address < 0x6000:
		m.ramBank = value & 0x0F
	case address < 0x8000:
		switch value {
		case 0x00:
			m.latchWrite = 0x00
		case 0x01:
			if m.latchWrite == 0x00 {
				copy(m.latchedRTC, m.rtc)
			}
			m.latchWrite = 0x01
		}
	case address >= 0xA000 && address < 0xC000:
		if m.ramBank >= 0x08 {
			m.rtc[m.ramBank-0x08] = value
			return
		}
		if m.ramEnabled {
			m.ram.Write(uint16(m.ramBank)*0x2000+(address-0xA000), value)
		}
	}
}
