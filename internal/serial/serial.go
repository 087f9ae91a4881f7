// Package serial models SB/SC and the serial transfer countdown. No link
// cable peer is emulated (spec Non-goal): a started transfer always
// completes as if shifting in 0xFF from an absent partner.
package serial

import (
	"fmt"

	"github.com/mattlyon/gbcore/internal/interrupts"
	"github.com/mattlyon/gbcore/internal/types"
)

const transferCycles = 512

// Controller holds the serial transfer registers.
type Controller struct {
	sb uint8
	sc uint8

	cyclesRemaining int
	irq             *interrupts.Service
}

func NewController(irq *interrupts.Service) *Controller {
	return &Controller{irq: irq}
}

func (c *Controller) Read(address uint16) uint8 {
	switch address {
	case types.SB:
		return c.sb
	case types.SC:
		return c.sc | 0x7E
	}
	panic(fmt.Sprintf("serial: illegal read from address %04X", address))
}

func (c *Controller) Write(address uint16, value uint8) {
	switch address {
	case types.SB:
		c.sb = value
	case types.SC:
		c.sc = value
		if value&0x81 == 0x81 {
			c.cyclesRemaining = transferCycles
		}
	default:
		panic(fmt.Sprintf("serial: illegal write to address %04X", address))
	}
}

// Tick advances the serial clock by n cycles. When a started transfer's
// countdown reaches zero, the transfer bit is cleared, SB is filled with
// 0xFF (no peer present to shift real data in), and the serial interrupt
// is requested.
func (c *Controller) Tick(n int) {
	if c.cyclesRemaining <= 0 {
		return
	}
	c.cyclesRemaining -= n
	if c.cyclesRemaining <= 0 {
		c.cyclesRemaining = 0
		c.sc &^= 0x80
		c.sb = 0xFF
		c.irq.Request(interrupts.SerialFlag)
	}
}
