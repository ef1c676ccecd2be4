// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package adc0832 provides a bit bashed device driver for the ADC0832.
//
// The driver clocks the converter directly over three GPIO lines - chip
// select, clock, and a shared bidirectional data line - so it requires no SPI
// controller or kernel driver support.  Each read clocks two copies of the
// conversion out of the chip and reconciles them, which catches the
// occasional glitch induced by marginal wiring or scheduler jitter.
//
// Example of use:
//
//	rpi.Open()
//	defer rpi.Close()
//
//	adc, err := adc0832.New(adc0832.PinAssignment{CS: 17, Clk: 18, Dio: 27})
//	if err != nil {
//		panic(err)
//	}
//	defer adc.Close()
//	v, err := adc.Read(0)
package adc0832

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/adc0832/rpi"
)

// Pin is a single GPIO line the driver can drive or sample.
//
// It is the contract required of the three converter lines, and is
// implemented by *rpi.Pin.
type Pin interface {
	// Input makes the pin high impedance so an external device may drive it.
	Input()
	// Output makes the pin driven with its most recently written level.
	Output()
	// Read returns the level of the pin.
	Read() rpi.Level
	// Write sets the level the pin drives when in output mode.
	Write(level rpi.Level)
}

// PinController hands out the pins the driver claims.
//
// The default controller returns memory mapped pins from the rpi package.  An
// alternative may be injected with WithPinController, e.g. a simulated
// controller for testing.
type PinController interface {
	// Pin returns the pin for a BCM GPIO number.
	Pin(bcm int) (Pin, error)
}

// Numbering selects how the pin identifiers in a PinAssignment are
// interpreted.
type Numbering int

const (
	// BCM identifies pins by Broadcom GPIO number.
	BCM Numbering = iota
	// J8 identifies pins by physical position on the J8 header.
	J8
)

// PinAssignment identifies the three GPIO lines wired to the converter.
type PinAssignment struct {
	// CS is the chip select line (active low).
	CS int
	// Clk is the serial clock line.
	Clk int
	// Dio is the bidirectional data line, assuming DI and DO are tied.
	Dio int
	// Numbering is the scheme the identifiers above are expressed in.
	Numbering Numbering
}

// RawRead is the pair of independently clocked samples returned by one
// transaction, before reconciliation.
type RawRead struct {
	// First is the sample clocked out MSB first.
	First uint8
	// Second is the validation sample that follows it.
	Second uint8
}

var (
	// ErrBadPinAssignment indicates the pin assignment does not identify
	// three distinct GPIO pins.
	ErrBadPinAssignment = errors.New("bad pin assignment")

	// ErrInvalidChannel indicates the requested channel is not 0 or 1.
	ErrInvalidChannel = errors.New("channel must be 0 or 1")

	// ErrClosed indicates the ADC is closed.
	ErrClosed = errors.New("closed")
)

// DefaultHalfCycle is the default time between signal transitions.
//
// The datasheet allows much faster clocks, but two microseconds keeps the bus
// comfortably within spec on breadboard wiring.
const DefaultHalfCycle = 2 * time.Microsecond

type state int

const (
	idle state = iota
	inTransaction
	released
)

// ADC0832 reads samples from a connected ADC0832.
//
// The driver exclusively owns its three pins from New until Close.  It is not
// re-entrant - reads on the same instance are serialised internally, and one
// transaction always runs to deselection before the next starts.
type ADC0832 struct {
	mu sync.Mutex
	// time between clock edges (i.e. half the cycle time)
	tclk time.Duration
	// time to allow the mux to settle after clocking out ODD/SIGN
	tset  time.Duration
	sleep func(time.Duration)
	pc    PinController

	policy   MismatchPolicy
	order    BitOrder
	onGlitch func(RawRead)

	cs    Pin
	clk   Pin
	dio   Pin
	state state
}

// New claims the assigned pins and places the bus in its idle state - chip
// select high, clock and data low.
//
// Fails with ErrBadPinAssignment if the three pins do not resolve to distinct
// GPIOs.  The default pin controller requires rpi.Open to have been called.
func New(pins PinAssignment, options ...Option) (*ADC0832, error) {
	a := &ADC0832{
		tclk:   DefaultHalfCycle,
		sleep:  time.Sleep,
		pc:     rpiController{},
		policy: TakeFirst,
		order:  MSBFirst,
	}
	for _, option := range options {
		option(a)
	}
	if a.tset < a.tclk {
		a.tset = a.tclk
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.setup(pins); err != nil {
		return nil, err
	}
	return a, nil
}

// Setup returns the claimed pins to a safe idle state and reconfigures the
// driver to drive the converter on a new set of pins.
//
// This is the only way to re-map pins - the assignment is otherwise fixed for
// the life of the driver.
func (a *ADC0832) Setup(pins PinAssignment) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.release()
	if err := a.setup(pins); err != nil {
		// old pins are already released so the driver is unusable
		a.state = released
		return err
	}
	return nil
}

// setup assumes the caller holds mu and any previous pins are released.
func (a *ADC0832) setup(pins PinAssignment) error {
	cs, clk, dio, err := resolve(pins)
	if err != nil {
		return err
	}
	if a.cs, err = a.pc.Pin(cs); err != nil {
		return fmt.Errorf("%w: cs: %v", ErrBadPinAssignment, err)
	}
	if a.clk, err = a.pc.Pin(clk); err != nil {
		return fmt.Errorf("%w: clk: %v", ErrBadPinAssignment, err)
	}
	if a.dio, err = a.pc.Pin(dio); err != nil {
		return fmt.Errorf("%w: dio: %v", ErrBadPinAssignment, err)
	}
	// bus idle - converter deselected
	a.cs.Write(rpi.High)
	a.cs.Output()
	a.clk.Write(rpi.Low)
	a.clk.Output()
	a.dio.Write(rpi.Low)
	a.dio.Output()
	a.sleep(a.tclk)
	a.state = idle
	return nil
}

// resolve maps a pin assignment to BCM numbers and checks they are distinct.
func resolve(pins PinAssignment) (cs, clk, dio int, err error) {
	switch pins.Numbering {
	case BCM:
		cs, clk, dio = pins.CS, pins.Clk, pins.Dio
	case J8:
		if cs, err = rpi.FromJ8(pins.CS); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: cs: %v", ErrBadPinAssignment, err)
		}
		if clk, err = rpi.FromJ8(pins.Clk); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: clk: %v", ErrBadPinAssignment, err)
		}
		if dio, err = rpi.FromJ8(pins.Dio); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: dio: %v", ErrBadPinAssignment, err)
		}
	default:
		return 0, 0, 0, fmt.Errorf("%w: unknown numbering scheme %d",
			ErrBadPinAssignment, pins.Numbering)
	}
	if cs == clk || cs == dio || clk == dio {
		return 0, 0, 0, fmt.Errorf("%w: cs, clk and dio must be distinct",
			ErrBadPinAssignment)
	}
	return cs, clk, dio, nil
}

// Read returns the reconciled value of a single channel read from the ADC.
//
// The two samples clocked out in the transaction are compared.  If they agree
// that value is returned.  If they disagree the configured MismatchPolicy
// determines the degraded value returned - there is no automatic retry.
// Callers needing strict readings should use ReadBoth and apply their own
// retry policy.
func (a *ADC0832) Read(ch int) (uint8, error) {
	r, err := a.ReadBoth(ch)
	if err != nil {
		return 0, err
	}
	if r.First == r.Second {
		return r.First, nil
	}
	if a.onGlitch != nil {
		a.onGlitch(r)
	}
	if a.policy == TakeZero {
		return 0, nil
	}
	return r.First, nil
}

// ReadBoth performs one transaction and returns both samples unreconciled.
//
// It fails only as Read fails - a mismatch between the samples is left to the
// caller to judge.
func (a *ADC0832) ReadBoth(ch int) (RawRead, error) {
	if ch != 0 && ch != 1 {
		return RawRead{}, ErrInvalidChannel
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != idle {
		return RawRead{}, ErrClosed
	}
	a.state = inTransaction
	defer func() { a.state = idle }()

	// select
	a.dio.Output()
	a.cs.Write(rpi.Low)
	a.clk.Write(rpi.Low)
	a.sleep(a.tclk)

	odd := rpi.Low
	if ch != 0 {
		odd = rpi.High
	}
	a.clockOut(rpi.High) // Start
	a.clockOut(rpi.High) // SGL/DIFZ - single-ended
	a.clockOut(odd)      // ODD/Sign

	// converter drives the line from here
	a.dio.Input()
	a.sleep(a.tset)

	first := a.clockInByte(MSBFirst)
	// one spare pulse while the converter lines up the validation stream
	a.clockPulse()
	second := a.clockInByte(a.order)

	// deselect
	a.dio.Write(rpi.Low)
	a.dio.Output()
	a.sleep(a.tclk)
	a.cs.Write(rpi.High)
	a.sleep(a.tclk)

	return RawRead{First: first, Second: second}, nil
}

// Close returns the pins to a safe idle state and releases them.
//
// It never fails, and calls after the first are no-ops.
func (a *ADC0832) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == released {
		return nil
	}
	a.release()
	a.state = released
	return nil
}

// release assumes the caller holds mu.
func (a *ADC0832) release() {
	if a.cs == nil {
		return
	}
	a.cs.Write(rpi.High)
	a.clk.Write(rpi.Low)
	a.dio.Write(rpi.Low)
	a.cs.Input()
	a.clk.Input()
	a.dio.Input()
}

// clockPulse drives one rising then falling clock edge.
func (a *ADC0832) clockPulse() {
	a.clk.Write(rpi.High)
	a.sleep(a.tclk)
	a.clk.Write(rpi.Low)
	a.sleep(a.tclk)
}

// clockOut clocks a control bit out to the converter on dio.
// Assumes the clock is low on entry, and leaves it low.
func (a *ADC0832) clockOut(l rpi.Level) {
	a.dio.Write(l)
	a.sleep(a.tclk)
	a.clockPulse()
}

// clockInByte clocks eight bits in from the converter on dio, assembled in
// the given order.  The converter shifts on the rising edge so the bit is
// sampled while the clock is high.
func (a *ADC0832) clockInByte(order BitOrder) uint8 {
	var d uint8
	for i := uint(0); i < 8; i++ {
		a.clk.Write(rpi.High)
		a.sleep(a.tclk)
		b := a.dio.Read()
		a.clk.Write(rpi.Low)
		a.sleep(a.tclk)
		if order == LSBFirst {
			if b {
				d = d | 1<<i
			}
		} else {
			d = d << 1
			if b {
				d = d | 0x01
			}
		}
	}
	return d
}

// rpiController is the default PinController, returning memory mapped pins
// from the rpi package.
type rpiController struct{}

func (rpiController) Pin(bcm int) (Pin, error) {
	p := rpi.NewPin(bcm)
	if p == nil {
		return nil, fmt.Errorf("no GPIO %d", bcm)
	}
	return p, nil
}
