package joypad

import "testing"

func TestReadNoSelection(t *testing.T) {
	s := New()
	if got := s.Read(); got != 0xFF {
		t.Fatalf("Read() = %#02X, want 0xFF", got)
	}
}

func TestReadSelectedLatch(t *testing.T) {
	s := New()
	s.Write(0x20) // select direction latch (bit 4 low)
	s.Press(false, Down)

	got := s.Read()
	want := uint8(0xC0 | 0x20 | (0x0F &^ Down))
	if got != want {
		t.Fatalf("Read() = %#02X, want %#02X", got, want)
	}
}

func TestReadBothLatchesSelected(t *testing.T) {
	s := New()
	s.Write(0x00) // select both
	s.Press(false, Up)
	s.Press(true, A)

	got := s.Read()
	want := uint8(0xC0 | (s.dir & s.action))
	if got != want {
		t.Fatalf("Read() = %#02X, want %#02X", got, want)
	}
}

func TestWriteOnlyTouchesSelectorBits(t *testing.T) {
	s := New()
	s.Write(0xFF)
	if s.selector&0x30 != 0x30 {
		t.Fatalf("selector = %#02X, want bits 4-5 set", s.selector)
	}
	if s.dir != 0x0F || s.action != 0x0F {
		t.Fatalf("Write must not touch button latches")
	}
}

func TestPressEdgeInterruptOnlyWhenSelected(t *testing.T) {
	s := New()
	s.Write(0x20) // direction latch selected (bit 4 low), action deselected

	if irq := s.Press(true, Start); irq {
		t.Fatalf("press on deselected latch must not request an interrupt")
	}
	if irq := s.Press(false, Start); !irq {
		t.Fatalf("press on selected latch must request an interrupt on the falling edge")
	}
	if irq := s.Press(false, Start); irq {
		t.Fatalf("holding an already-pressed button must not re-request an interrupt")
	}
}

func TestReleaseRestoresBit(t *testing.T) {
	s := New()
	s.Press(true, B)
	if s.action&B != 0 {
		t.Fatalf("B should read as pressed (bit clear)")
	}
	s.Release(true, B)
	if s.action&B == 0 {
		t.Fatalf("B should read as released (bit set) after Release")
	}
}

func TestDirectionAndActionLatchesAreIndependent(t *testing.T) {
	s := New()
	s.Press(false, Right)
	if s.action&Right == 0 {
		t.Fatalf("pressing a direction button must not affect the action latch")
	}
}
