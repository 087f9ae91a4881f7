package interrupts

import "testing"

func TestRequestSetsFlagBit(t *testing.T) {
	s := NewService()
	s.Request(TimerFlag)
	if s.Flag&(1<<TimerFlag) == 0 {
		t.Fatalf("Request did not set the timer flag bit")
	}
}

func TestClearResetsFlagBit(t *testing.T) {
	s := NewService()
	s.Request(VBlankFlag)
	s.Clear(VBlankFlag)
	if s.Flag&(1<<VBlankFlag) != 0 {
		t.Fatalf("Clear did not reset the vblank flag bit")
	}
}

func TestReadIFForcesUpperBitsHigh(t *testing.T) {
	s := NewService()
	s.Flag = 0x1F
	if got := s.Read(FlagRegister); got != 0xFF {
		t.Fatalf("IF read = %#02X, want 0xFF (upper 3 bits forced high)", got)
	}
}

func TestReadIEForcesUpperBitsLow(t *testing.T) {
	s := NewService()
	s.Write(EnableRegister, 0xFF)
	if got := s.Read(EnableRegister); got != 0x1F {
		t.Fatalf("IE read = %#02X, want 0x1F (only low 5 bits meaningful)", got)
	}
}

func TestWriteIFMasksToFiveBits(t *testing.T) {
	s := NewService()
	s.Write(FlagRegister, 0xFF)
	if s.Flag != 0x1F {
		t.Fatalf("Flag after write = %#02X, want 0x1F", s.Flag)
	}
}

func TestRequestEachSourceIndependently(t *testing.T) {
	s := NewService()
	for _, f := range []Flag{VBlankFlag, LCDFlag, TimerFlag, SerialFlag, JoypadFlag} {
		s.Request(f)
	}
	if s.Flag != 0x1F {
		t.Fatalf("Flag after requesting all five sources = %#02X, want 0x1F", s.Flag)
	}
}
