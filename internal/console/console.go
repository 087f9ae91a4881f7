// Package console wires the Bus, PPU, Timer, Serial, Joypad, and
// Interrupt service together into the single owning struct spec's
// "cyclic ownership" design note recommends in place of Bus and PPU
// holding pointers to each other directly.
package console

import (
	"github.com/mattlyon/gbcore/internal/boot"
	"github.com/mattlyon/gbcore/internal/cartridge"
	"github.com/mattlyon/gbcore/internal/interrupts"
	"github.com/mattlyon/gbcore/internal/joypad"
	"github.com/mattlyon/gbcore/internal/mmu"
	"github.com/mattlyon/gbcore/internal/ppu"
	"github.com/mattlyon/gbcore/internal/serial"
	"github.com/mattlyon/gbcore/internal/timer"
	"github.com/mattlyon/gbcore/pkg/log"
)

// Model forces DMG or CGB behavior instead of autodetecting from the
// cartridge header.
type Model uint8

const (
	// ModelAuto selects CGB when the cartridge header requests it,
	// otherwise DMG.
	ModelAuto Model = iota
	ModelDMG
	ModelCGB
)

// Console owns every collaborator named in spec's system overview: the
// Bus, the PPU, and the external collaborators (Cartridge, Timer, Serial,
// Joypad, Interrupts) the Bus decodes addresses into.
type Console struct {
	Bus *mmu.Bus
	PPU *ppu.PPU

	timer  *timer.Controller
	serial *serial.Controller
	joypad *joypad.State
	irq    *interrupts.Service
	cart   *cartridge.Cartridge

	log log.Logger
}

// Option configures a Console at construction time.
type Option func(*options)

type options struct {
	bootROM *boot.ROM
	logger  log.Logger
	model   Model
}

// WithBootROM attaches a boot ROM image, mapped over the cartridge's reset
// vector until disabled via 0xFF50.
func WithBootROM(rom *boot.ROM) Option {
	return func(o *options) { o.bootROM = rom }
}

// WithLogger overrides the default null logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithModel forces DMG or CGB behavior instead of autodetecting from the
// cartridge header.
func WithModel(m Model) Option {
	return func(o *options) { o.model = m }
}

// NewConsole assembles a Console around an already-loaded cartridge.
func NewConsole(cart *cartridge.Cartridge, opts ...Option) *Console {
	o := &options{logger: log.NewNullLogger(), model: ModelAuto}
	for _, opt := range opts {
		opt(o)
	}

	isCGB := cart.IsCGB()
	switch o.model {
	case ModelDMG:
		isCGB = false
	case ModelCGB:
		isCGB = true
	}

	irq := interrupts.NewService()
	tmr := timer.NewController(irq)
	ser := serial.NewController(irq)
	joy := joypad.New()
	p := ppu.New(irq, isCGB)
	p.SetLogger(o.logger)
	if cart.IsSGB() && !isCGB {
		p.SetSGBPalette()
	}

	bus := mmu.New(cart, o.bootROM, irq, tmr, ser, joy, p, isCGB, o.logger)
	p.AttachBus(bus)

	return &Console{
		Bus:    bus,
		PPU:    p,
		timer:  tmr,
		serial: ser,
		joypad: joy,
		irq:    irq,
		cart:   cart,
		log:    o.logger,
	}
}

// Step advances the whole console by n cycles, ticking the PPU, timer, and
// serial collaborators in the fixed order spec's concurrency model
// describes: the CPU driver (outside this package) calls Bus.Read/Write,
// then ticks sub-units with the cycle count an instruction took.
func (c *Console) Step(n uint16) {
	cycles := int(n)
	c.PPU.Step(cycles)
	c.timer.Tick(cycles)
	c.Bus.TickSerial(cycles)
}

// Framebuffer returns the current ARGB framebuffer.
func (c *Console) Framebuffer() *[ppu.ScreenWidth * ppu.ScreenHeight]uint32 {
	return c.PPU.Framebuffer()
}

// FrameReady reports whether a full frame is ready for the frame consumer.
func (c *Console) FrameReady() bool {
	return c.PPU.FrameReady()
}

// ConsumeFrame clears the frame-ready flag after the caller has read
// Framebuffer.
func (c *Console) ConsumeFrame() {
	c.PPU.ConsumeFrame()
}

// PressButton marks a button pressed in the given latch (true selects the
// action latch, false the direction latch) and raises the joypad
// interrupt on a press edge.
func (c *Console) PressButton(latchIsAction bool, button joypad.Button) {
	c.Bus.PressButton(latchIsAction, button)
}

// ReleaseButton marks a button released in the given latch.
func (c *Console) ReleaseButton(latchIsAction bool, button joypad.Button) {
	c.Bus.ReleaseButton(latchIsAction, button)
}

// IE/IF access for a CPU driver living outside this module.

// InterruptFlag returns the current IF register.
func (c *Console) InterruptFlag() uint8 {
	return c.irq.Read(interrupts.FlagRegister)
}

// InterruptEnable returns the current IE register.
func (c *Console) InterruptEnable() uint8 {
	return c.irq.Read(interrupts.EnableRegister)
}
