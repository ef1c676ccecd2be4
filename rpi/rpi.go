// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package rpi provides the memory mapped GPIO access the adc0832 driver uses
// to drive the converter on a Raspberry Pi (rev 2 and later).
//
// Supported operations:
// - Pin direction (input/output), switchable at runtime
// - Pin write (high/low)
// - Pin read (high/low)
// - Pull up/down/off
//
// Pins are identified by the raw BCM GPIO number.  A mapping from physical
// positions on the J8 header to BCM numbers is provided for those wiring by
// board position.
//
// The package intentionally does not support:
//   - the obsoleted rev 1 PCB
//   - active low (only actual hardware levels are reflected)
//   - alternate pin functions (UART, SPI etc) - the driver only ever needs
//     plain digital IO
//
// Example of use:
//
//	rpi.Open()
//	defer rpi.Close()
//
//	pin := rpi.NewPin(17)
//	pin.High()
//	pin.Output()
package rpi

import (
	"time"
)

// Pin represents a single GPIO pin.
type Pin struct {
	num  int
	bank int
	mask uint32
	// last written level for outputs, last read level for inputs
	shadow Level
}

// Level represents the high (true) or low (false) level of a Pin.
type Level bool

// Mode defines the IO mode of a Pin.
type Mode int

// Pull defines the pull up/down state of a Pin.
type Pull int

// Level of pin, High / Low
const (
	Low  Level = false
	High Level = true
)

// Pin Mode, a pin can be set in Input or Output mode
const (
	Input Mode = iota
	Output
)

// Pull Up / Down / Off
const (
	// Values match bcm pull field.
	PullNone Pull = iota
	PullDown
	PullUp
)

const (
	// MaxGPIOPin is the number of GPIO pins available on the header.
	MaxGPIOPin = 28

	modeMask uint32 = 7 // pin mode is 3 bits wide
	pullMask uint32 = 3 // pull mode is 2 bits wide
)

// NewPin creates a new pin object for the given BCM GPIO number.
//
// Requires the GPIO memory to be mapped with Open first, and panics if it is
// not.  Returns nil if the pin number is out of range for the header.
func NewPin(pin int) *Pin {
	if len(mem) == 0 {
		panic("rpi: GPIO not initialised.")
	}
	if pin < 0 || pin >= MaxGPIOPin {
		return nil
	}
	bank := pin / 32
	mask := uint32(1 << uint(pin&0x1f))
	shadow := Low
	if mem[levelReg(bank)]&mask != 0 {
		shadow = High
	}
	return &Pin{num: pin, bank: bank, mask: mask, shadow: shadow}
}

// Register offsets within the mapped GPIO block (32bit words).
func fselReg(pin int) int   { return pin / 10 }
func setReg(bank int) int   { return 7 + bank }
func clrReg(bank int) int   { return 10 + bank }
func levelReg(bank int) int { return 13 + bank }

// Input sets pin as Input.
func (pin *Pin) Input() {
	pin.SetMode(Input)
}

// Output sets pin as Output.
func (pin *Pin) Output() {
	pin.SetMode(Output)
}

// High sets pin High.
func (pin *Pin) High() {
	pin.Write(High)
}

// Low sets pin Low.
func (pin *Pin) Low() {
	pin.Write(Low)
}

// Mode returns the mode of the pin from the Function Select register.
func (pin *Pin) Mode() Mode {
	modeShift := uint(pin.num%10) * 3
	return Mode(mem[fselReg(pin.num)] >> modeShift & modeMask)
}

// SetMode sets the pin Mode.
func (pin *Pin) SetMode(mode Mode) {
	modeShift := uint(pin.num%10) * 3

	memlock.Lock()
	defer memlock.Unlock()

	fsel := fselReg(pin.num)
	mem[fsel] = mem[fsel]&^(modeMask<<modeShift) | uint32(mode)<<modeShift
}

// Shadow returns the value of the last write to an output pin or the last read
// on an input pin.
func (pin *Pin) Shadow() Level {
	return pin.shadow
}

// Pin returns the BCM GPIO number that this Pin represents.
func (pin *Pin) Pin() int {
	return pin.num
}

// Read pin state (high/low)
func (pin *Pin) Read() (level Level) {
	if (mem[levelReg(pin.bank)] & pin.mask) != 0 {
		level = High
	}
	pin.shadow = level
	return
}

// Write sets pin state (high/low)
func (pin *Pin) Write(level Level) {
	if level == Low {
		mem[clrReg(pin.bank)] = pin.mask
	} else {
		mem[setReg(pin.bank)] = pin.mask
	}
	pin.shadow = level
}

// SetPull sets the pull up/down mode for a Pin.
// Unlike the mode, the pull value cannot be read back from hardware and
// so must be remembered by the caller.
func (pin *Pin) SetPull(pull Pull) {
	switch chipset {
	case bcm2711:
		pin.setPull2711(pull)
	default:
		pin.setPull2835(pull)
	}
}

// BCM2835 pull is clocked into the pin via a shared pull register.
func (pin *Pin) setPull2835(pull Pull) {
	// pullReg is the same for all pins, clkReg depends on the bank.
	const pullReg = 37
	clkReg := pin.bank + 38

	memlock.Lock()
	defer memlock.Unlock()

	mem[pullReg] = mem[pullReg]&^pullMask | uint32(pull)
	// Wait for value to clock in, this is ugly, sorry :(
	// This wait corresponds to at least 150 clock cycles.
	time.Sleep(time.Microsecond)
	mem[clkReg] = pin.mask
	// Wait for value to clock in
	time.Sleep(time.Microsecond)
	mem[pullReg] = mem[pullReg] &^ pullMask
	mem[clkReg] = 0
}

// BCM2711 pull is set directly via per-pin registers.
func (pin *Pin) setPull2711(pull Pull) {
	// 2711 reverses up/down sense
	switch pull {
	case PullUp:
		pull = PullDown
	case PullDown:
		pull = PullUp
	}
	pullReg := 57 + pin.num/16
	shift := uint(pin.num&0x0f) << 1

	memlock.Lock()
	defer memlock.Unlock()

	mem[pullReg] = mem[pullReg]&^(pullMask<<shift) | uint32(pull)<<shift
}

// PullUp sets the pull state of the pin to PullUp.
func (pin *Pin) PullUp() {
	pin.SetPull(PullUp)
}

// PullDown sets the pull state of the Pin to PullDown.
func (pin *Pin) PullDown() {
	pin.SetPull(PullDown)
}

// PullNone disables pullup/down on pin, leaving it floating.
func (pin *Pin) PullNone() {
	pin.SetPull(PullNone)
}
