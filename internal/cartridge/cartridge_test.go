package cartridge

import (
	"errors"
	"testing"
)

// buildROM returns a minimal ROM image of size romSize (at least 0x150)
// with a header declaring cartType and the given RAM-size code.
func buildROM(romSize int, cartType Type, ramSizeCode uint8) []byte {
	rom := make([]byte, romSize)
	rom[0x147] = uint8(cartType)
	rom[0x148] = 0x00 // 32KB, smallest size code
	rom[0x149] = ramSizeCode
	copy(rom[0x134:0x144], "TESTGAME")
	return rom
}

func TestNewRejectsShortImage(t *testing.T) {
	_, err := New(make([]byte, 0x10))
	if !errors.Is(err, ErrBadCartridge) {
		t.Fatalf("New with a short image: err = %v, want ErrBadCartridge", err)
	}
}

func TestNewRejectsUnimplementedType(t *testing.T) {
	rom := buildROM(0x8000, MMM01, 0)
	_, err := New(rom)
	if !errors.Is(err, ErrBadCartridge) {
		t.Fatalf("New with an unimplemented cartridge type: err = %v, want ErrBadCartridge", err)
	}
}

func TestNewROMOnly(t *testing.T) {
	rom := buildROM(0x8000, ROM, 0)
	rom[0x10] = 0xAB
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := c.Read(0x10); got != 0xAB {
		t.Fatalf("Read(0x10) = %#02X, want 0xAB", got)
	}
	c.Write(0x10, 0x00) // romOnly writes must be ignored
	if got := c.Read(0x10); got != 0xAB {
		t.Fatalf("romOnly cartridge accepted a write to ROM space")
	}
}

func TestNewDispatchesMBC1(t *testing.T) {
	rom := buildROM(0x8000, MBC1, 0)
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, ok := c.MemoryBankController.(*mbc1); !ok {
		t.Fatalf("cartridge type MBC1 did not select an *mbc1 controller")
	}
}

func TestCartridgeHeaderAccessors(t *testing.T) {
	rom := buildROM(0x8000, ROM, 0)
	rom[0x146] = 0x03 // SGB flag
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !c.IsSGB() {
		t.Fatalf("IsSGB() = false, want true")
	}
	if c.IsCGB() {
		t.Fatalf("IsCGB() = true, want false for a plain DMG header byte")
	}
	if got := c.Title(); got[:8] != "TESTGAME" {
		t.Fatalf("Title() = %q, want prefix TESTGAME", got)
	}
}

func TestMBC1ROMBankSwitchAndZeroSubstitution(t *testing.T) {
	rom := make([]byte, 0x4000*4)
	for bank := 0; bank < 4; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := newMBC1(rom, 0)

	m.Write(0x2000, 0x00) // bank 0 request substitutes to bank 1
	if got := m.Read(0x4000); got != 1 {
		t.Fatalf("bank-0 write: Read(0x4000) = %d, want 1 (substituted)", got)
	}

	m.Write(0x2000, 0x03)
	if got := m.Read(0x4000); got != 3 {
		t.Fatalf("Read(0x4000) after selecting bank 3 = %d, want 3", got)
	}
}

func TestMBC1RAMEnableGatesAccess(t *testing.T) {
	m := newMBC1(make([]byte, 0x8000), 0x2000)

	m.Write(0xA000, 0x42) // RAM disabled: write ignored
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("Read(0xA000) with RAM disabled = %#02X, want 0xFF", got)
	}

	m.Write(0x0000, 0x0A) // enable RAM
	m.Write(0xA000, 0x42)
	if got := m.Read(0xA000); got != 0x42 {
		t.Fatalf("Read(0xA000) after enabling RAM = %#02X, want 0x42", got)
	}
}

func TestMBC2RAMReadsReturnHighNibbleSet(t *testing.T) {
	m := newMBC2(make([]byte, 0x8000))
	m.Write(0x0000, 0x0A) // enable RAM
	m.Write(0xA000, 0xF3)
	if got := m.Read(0xA000); got != 0xF3 {
		t.Fatalf("Read(0xA000) = %#02X, want 0xF3 (nibble already has high bits set)", got)
	}
	m.Write(0xA001, 0x03)
	if got := m.Read(0xA001); got != 0xF3 {
		t.Fatalf("Read(0xA001) = %#02X, want 0xF3 (0x03 stored, 0xF0 forced on read)", got)
	}
}

func TestMBC2ROMBankSelectRequiresAddressBit8(t *testing.T) {
	rom := make([]byte, 0x4000*3)
	rom[2*0x4000] = 0x77
	m := newMBC2(rom)

	m.Write(0x0000, 0x02) // bit 8 clear: RAM-enable write, not bank select
	if m.romBank != 1 {
		t.Fatalf("romBank = %d after a RAM-enable-range write, want unchanged (1)", m.romBank)
	}

	m.Write(0x0100, 0x02) // bit 8 set: bank select
	if m.romBank != 2 {
		t.Fatalf("romBank = %d, want 2", m.romBank)
	}
	if got := m.Read(0x4000); got != 0x77 {
		t.Fatalf("Read(0x4000) = %#02X, want 0x77 from bank 2", got)
	}
}

func TestMBC3RTCLatchSequence(t *testing.T) {
	m := newMBC3(make([]byte, 0x8000), 0x2000)
	m.rtc[0] = 30 // seconds register, written directly for the test

	m.Write(0x4000, 0x08) // select RTC seconds register
	if got := m.Read(0xA000); got != 0 {
		t.Fatalf("Read before latch = %d, want 0 (latched copy still zero)", got)
	}

	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01) // 0x00 then 0x01 latches
	if got := m.Read(0xA000); got != 30 {
		t.Fatalf("Read after latch sequence = %d, want 30", got)
	}
}

func TestMBC3RTCRegisterWriteTargetsRAMBankNotROMBank(t *testing.T) {
	m := newMBC3(make([]byte, 0x8000), 0x2000)
	m.Write(0x2000, 0x05) // select ROM bank 5, must not affect RTC indexing
	m.Write(0x4000, 0x08) // select RTC register 0 (seconds)
	m.Write(0xA000, 42)
	if m.rtc[0] != 42 {
		t.Fatalf("rtc[0] = %d, want 42 (write must index by ram bank, not rom bank)", m.rtc[0])
	}
}

func TestMBC5BankZeroNotSubstituted(t *testing.T) {
	rom := make([]byte, 0x4000*2)
	rom[0] = 0xAA // bank 0, offset 0
	m := newMBC5(rom, 0, MBC5)

	m.Write(0x2000, 0x00) // explicit bank 0 is NOT substituted on MBC5
	if got := m.Read(0x4000); got != 0xAA {
		t.Fatalf("Read(0x4000) with bank 0 selected = %#02X, want 0xAA", got)
	}
}

func TestMBC5RAMDisabledWithoutRAMHardware(t *testing.T) {
	m := newMBC5(make([]byte, 0x8000), 0x2000, MBC5) // MBC5 plain: hasRAM false
	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0x11)
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("RAM write accepted on a cartridge type with no RAM hardware")
	}
}
