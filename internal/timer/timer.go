// Package timer is the DIV/TIMA/TMA/TAC collaborator named in the bus
// specification's external-interfaces section. It is a cycle-accumulator
// reimplementation of the teacher's scheduler-event timer: out of scope
// for this core, it only needs to behave correctly enough to drive the
// Bus's FF04-FF07 decode and occasionally request the timer interrupt.
package timer

import (
	"fmt"

	"github.com/mattlyon/gbcore/internal/interrupts"
	"github.com/mattlyon/gbcore/internal/types"
)

// tacDivisor maps TAC's low two bits to the number of cycles between TIMA
// increments.
var tacDivisor = [4]int{1024, 16, 64, 256}

// Controller is the timer unit.
type Controller struct {
	div  uint16 // internal 16-bit divider; DIV is its high byte
	tima uint8
	tma  uint8
	tac  uint8

	accumulator int
	irq         *interrupts.Service
}

func NewController(irq *interrupts.Service) *Controller {
	return &Controller{div: 0xAB00, irq: irq}
}

func (c *Controller) enabled() bool { return c.tac&0x04 != 0 }

// Read implements the timers_read collaborator interface.
func (c *Controller) Read(address uint16) uint8 {
	switch address {
	case types.DIV:
		return uint8(c.div >> 8)
	case types.TIMA:
		return c.tima
	case types.TMA:
		return c.tma
	case types.TAC:
		return c.tac | 0xF8
	}
	panic(fmt.Sprintf("timer: illegal read from address %04X", address))
}

// Write implements the timers_write collaborator interface.
func (c *Controller) Write(address uint16, value uint8) {
	switch address {
	case types.DIV:
		c.div = 0
	case types.TIMA:
		c.tima = value
	case types.TMA:
		c.tma = value
	case types.TAC:
		c.tac = value & 0x07
	default:
		panic(fmt.Sprintf("timer: illegal write to address %04X", address))
	}
}

// Tick implements the timers_tick collaborator interface, advancing the
// divider and, if enabled, the TIMA counter by n cycles.
func (c *Controller) Tick(n int) {
	c.div += uint16(n)

	if !c.enabled() {
		return
	}

	c.accumulator += n
	period := tacDivisor[c.tac&0x03]
	for c.accumulator >= period {
		c.accumulator -= period
		c.tima++
		if c.tima == 0 {
			c.tima = c.tma
			c.irq.Request(interrupts.TimerFlag)
		}
	}
}
