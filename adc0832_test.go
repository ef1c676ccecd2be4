// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package adc0832

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warthog618/adc0832/rpi"
)

func TestNew(t *testing.T) {
	patterns := []struct {
		name string
		pins PinAssignment
		err  error
	}{
		{"bcm", PinAssignment{CS: 17, Clk: 18, Dio: 27}, nil},
		{"j8", PinAssignment{CS: 11, Clk: 12, Dio: 13, Numbering: J8}, nil},
		{"cs clk clash", PinAssignment{CS: 18, Clk: 18, Dio: 27}, ErrBadPinAssignment},
		{"cs dio clash", PinAssignment{CS: 27, Clk: 18, Dio: 27}, ErrBadPinAssignment},
		{"clk dio clash", PinAssignment{CS: 17, Clk: 27, Dio: 27}, ErrBadPinAssignment},
		{"j8 power pin", PinAssignment{CS: 2, Clk: 12, Dio: 13, Numbering: J8}, ErrBadPinAssignment},
		{"unknown numbering", PinAssignment{CS: 17, Clk: 18, Dio: 27, Numbering: 3}, ErrBadPinAssignment},
	}
	for _, p := range patterns {
		p := p
		t.Run(p.name, func(t *testing.T) {
			b := newSimBus(17, 18, 27)
			a, err := New(p.pins, WithPinController(b), WithSleeper(b.sleeper))
			if p.err != nil {
				assert.ErrorIs(t, err, p.err)
				assert.Nil(t, a)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, a)
			// bus left idle - cs high, clk and dio driven low
			assert.Equal(t, rpi.High, b.pin(17).level)
			assert.Equal(t, rpi.Low, b.pin(18).level)
			assert.Equal(t, rpi.Low, b.pin(27).level)
			assert.NoError(t, a.Close())
		})
	}
}

func TestReadInvalidChannel(t *testing.T) {
	a, _ := newTestADC(t)
	defer a.Close()
	for _, ch := range []int{-1, 2, 3, 255} {
		_, err := a.Read(ch)
		assert.ErrorIs(t, err, ErrInvalidChannel, "channel %d", ch)
		_, err = a.ReadBoth(ch)
		assert.ErrorIs(t, err, ErrInvalidChannel, "channel %d", ch)
	}
}

func TestRead(t *testing.T) {
	for _, v := range []uint8{0, 1, 0x7f, 0xb2, 0xff} {
		v := v
		t.Run(fmt.Sprintf("%#02x", v), func(t *testing.T) {
			a, b := newTestADC(t)
			defer a.Close()
			b.present(v, v, MSBFirst)
			d, err := a.Read(0)
			require.NoError(t, err)
			assert.Equal(t, v, d)
		})
	}
}

func TestReadChannelSelect(t *testing.T) {
	a, b := newTestADC(t)
	defer a.Close()
	b.present(0x55, 0x55, MSBFirst)
	_, err := a.Read(0)
	require.NoError(t, err)
	assert.Equal(t, []rpi.Level{rpi.High, rpi.High, rpi.Low}, b.control)

	b.present(0x55, 0x55, MSBFirst)
	_, err = a.Read(1)
	require.NoError(t, err)
	assert.Equal(t, []rpi.Level{rpi.High, rpi.High, rpi.High}, b.control)
}

func TestReadMismatch(t *testing.T) {
	var glitch []RawRead
	a, b := newTestADC(t, WithGlitchHandler(func(r RawRead) {
		glitch = append(glitch, r)
	}))
	defer a.Close()
	b.present(200, 10, MSBFirst)
	d, err := a.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(200), d)
	assert.Equal(t, []RawRead{{First: 200, Second: 10}}, glitch)

	// the raw pair is exposed unmodified
	b.present(200, 10, MSBFirst)
	r, err := a.ReadBoth(0)
	require.NoError(t, err)
	assert.Equal(t, RawRead{First: 200, Second: 10}, r)
	// ReadBoth leaves mismatch judgement to the caller
	assert.Len(t, glitch, 1)
}

func TestReadMismatchTakeZero(t *testing.T) {
	a, b := newTestADC(t, WithMismatchPolicy(TakeZero))
	defer a.Close()
	b.present(200, 10, MSBFirst)
	d, err := a.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), d)
}

func TestReadSecondLSBFirst(t *testing.T) {
	a, b := newTestADC(t, WithSecondReadOrder(LSBFirst))
	defer a.Close()
	// converter retransmits LSB first, driver reassembles to the same value
	b.present(0xb2, 0xb2, LSBFirst)
	d, err := a.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xb2), d)
}

func TestReadBoth(t *testing.T) {
	a, b := newTestADC(t)
	defer a.Close()
	b.present(0x7f, 0x7f, MSBFirst)
	r, err := a.ReadBoth(0)
	require.NoError(t, err)
	assert.Equal(t, RawRead{First: 0x7f, Second: 0x7f}, r)

	b.present(0x7f, 0x7f, MSBFirst)
	d, err := a.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x7f), d)
}

func TestClose(t *testing.T) {
	a, b := newTestADC(t)
	require.NoError(t, a.Close())
	// pins released to inputs at idle levels
	assert.Equal(t, rpi.Input, b.pin(17).mode)
	assert.Equal(t, rpi.Input, b.pin(18).mode)
	assert.Equal(t, rpi.Input, b.pin(27).mode)
	assert.Equal(t, rpi.High, b.pin(17).level)

	// idempotent - no further pin activity
	n := len(b.events)
	require.NoError(t, a.Close())
	assert.Len(t, b.events, n)

	_, err := a.Read(0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = a.ReadBoth(0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSetup(t *testing.T) {
	a, b := newTestADC(t)
	defer a.Close()

	// re-setup with the same pins passes through idle
	require.NoError(t, a.Setup(PinAssignment{CS: 17, Clk: 18, Dio: 27}))
	b.present(42, 42, MSBFirst)
	d, err := a.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(42), d)

	// re-setup after close revives the driver
	require.NoError(t, a.Close())
	require.NoError(t, a.Setup(PinAssignment{CS: 17, Clk: 18, Dio: 27}))
	b.present(43, 43, MSBFirst)
	d, err = a.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(43), d)

	// failed re-setup leaves the driver released
	err = a.Setup(PinAssignment{CS: 17, Clk: 17, Dio: 27})
	assert.ErrorIs(t, err, ErrBadPinAssignment)
	_, err = a.Read(0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReadSequencing(t *testing.T) {
	a, b := newTestADC(t)
	defer a.Close()
	b.present(0x5a, 0x5a, MSBFirst)
	start := len(b.events)
	_, err := a.Read(0)
	require.NoError(t, err)
	tx := b.events[start:]

	csLow, csHigh := -1, -1
	handover := []int(nil)
	clkRising := []int(nil)
	for i, e := range tx {
		switch {
		case e.kind == evWrite && e.pin == 17:
			if e.level == rpi.Low {
				csLow = i
			} else {
				csHigh = i
			}
		case e.kind == evWrite && e.pin == 18 && e.level == rpi.High:
			clkRising = append(clkRising, i)
		case e.kind == evMode && e.pin == 27 && e.mode == rpi.Input:
			handover = append(handover, i)
		}
	}
	require.NotEqual(t, -1, csLow)
	require.NotEqual(t, -1, csHigh)
	// chip select low strictly brackets all clock pulses
	require.Len(t, clkRising, 20, "3 control + 8 + 1 gap + 8 clocks")
	assert.Greater(t, clkRising[0], csLow)
	assert.Less(t, clkRising[len(clkRising)-1], csHigh)
	// direction handover happens exactly once, after the 3 control bits
	require.Len(t, handover, 1)
	assert.Greater(t, handover[0], clkRising[2])
	assert.Less(t, handover[0], clkRising[3])
	assert.Equal(t, []rpi.Level{rpi.High, rpi.High, rpi.Low}, b.control)
}

func TestReadTiming(t *testing.T) {
	tclk := 5 * time.Microsecond
	a, b := newTestADC(t, WithHalfCycle(tclk))
	defer a.Close()
	b.present(0xa5, 0xa5, MSBFirst)
	_, err := a.Read(1)
	require.NoError(t, err)
	_, err = a.ReadBoth(0)
	require.NoError(t, err)

	// every pair of level transitions is separated by at least one full
	// delay of at least the configured half cycle.
	last := map[int]rpi.Level{}
	slept := tclk // initial state established before first transition
	for i, e := range b.events {
		switch e.kind {
		case evSleep:
			if e.d > slept {
				slept = e.d
			}
			assert.GreaterOrEqual(t, e.d, tclk, "event %d", i)
		case evWrite:
			l, seen := last[e.pin]
			last[e.pin] = e.level
			if !seen || l == e.level {
				continue
			}
			assert.GreaterOrEqual(t, slept, tclk, "transition at event %d not separated", i)
			slept = 0
		}
	}
}

func TestWithSettlingTime(t *testing.T) {
	tset := 20 * time.Microsecond
	a, b := newTestADC(t, WithSettlingTime(tset))
	defer a.Close()
	b.present(1, 1, MSBFirst)
	_, err := a.Read(0)
	require.NoError(t, err)
	found := false
	for _, e := range b.events {
		if e.kind == evSleep && e.d == tset {
			found = true
		}
	}
	assert.True(t, found, "no settling delay observed")
}

func newTestADC(t *testing.T, options ...Option) (*ADC0832, *simBus) {
	t.Helper()
	b := newSimBus(17, 18, 27)
	options = append(options, WithPinController(b), WithSleeper(b.sleeper))
	a, err := New(PinAssignment{CS: 17, Clk: 18, Dio: 27}, options...)
	require.NoError(t, err)
	return a, b
}

type eventKind int

const (
	evWrite eventKind = iota
	evMode
	evSleep
)

type event struct {
	kind  eventKind
	pin   int
	level rpi.Level
	mode  rpi.Mode
	d     time.Duration
}

// simBus simulates the converter side of the bus, and records the trace of
// pin writes, direction changes and delays the driver produces.
type simBus struct {
	cs, clk, dio int
	pins         map[int]*simPin
	events       []event

	// bits presented on dio, one per rising clock edge after handover
	rx []rpi.Level
	// rising edges seen since handover
	edges int
	// control bits latched while dio was an output, reset on chip select
	control []rpi.Level
}

func newSimBus(cs, clk, dio int) *simBus {
	return &simBus{cs: cs, clk: clk, dio: dio, pins: map[int]*simPin{}}
}

func (b *simBus) Pin(bcm int) (Pin, error) {
	return b.pin(bcm), nil
}

func (b *simBus) pin(bcm int) *simPin {
	p, ok := b.pins[bcm]
	if !ok {
		p = &simPin{bus: b, num: bcm, mode: rpi.Input}
		b.pins[bcm] = p
	}
	return p
}

func (b *simBus) sleeper(d time.Duration) {
	b.events = append(b.events, event{kind: evSleep, d: d})
}

// present loads the bit streams for the next transaction - the first sample
// MSB first, one filler bit for the gap pulse, then the second sample in the
// given order.
func (b *simBus) present(first, second uint8, order BitOrder) {
	bits := make([]rpi.Level, 0, 17)
	for i := 7; i >= 0; i-- {
		bits = append(bits, rpi.Level(first>>uint(i)&0x01 == 0x01))
	}
	bits = append(bits, rpi.Low)
	if order == LSBFirst {
		for i := 0; i < 8; i++ {
			bits = append(bits, rpi.Level(second>>uint(i)&0x01 == 0x01))
		}
	} else {
		for i := 7; i >= 0; i-- {
			bits = append(bits, rpi.Level(second>>uint(i)&0x01 == 0x01))
		}
	}
	b.rx = bits
}

// risingEdge models the converter's response to a rising clock edge.
func (b *simBus) risingEdge() {
	dio := b.pin(b.dio)
	if dio.mode == rpi.Output {
		b.control = append(b.control, dio.level)
	} else {
		b.edges++
	}
}

type simPin struct {
	bus   *simBus
	num   int
	mode  rpi.Mode
	level rpi.Level
}

func (p *simPin) Input() { p.setMode(rpi.Input) }

func (p *simPin) Output() { p.setMode(rpi.Output) }

func (p *simPin) setMode(m rpi.Mode) {
	p.bus.events = append(p.bus.events, event{kind: evMode, pin: p.num, mode: m})
	p.mode = m
}

func (p *simPin) Read() rpi.Level {
	if p.num == p.bus.dio && p.mode == rpi.Input {
		if n := p.bus.edges; n >= 1 && n <= len(p.bus.rx) {
			return p.bus.rx[n-1]
		}
		return rpi.Low
	}
	return p.level
}

func (p *simPin) Write(l rpi.Level) {
	p.bus.events = append(p.bus.events, event{kind: evWrite, pin: p.num, level: l})
	switch {
	case p.num == p.bus.clk && l == rpi.High && p.level == rpi.Low:
		p.bus.risingEdge()
	case p.num == p.bus.cs && l == rpi.Low && p.level == rpi.High:
		// transaction start
		p.bus.edges = 0
		p.bus.control = nil
	}
	p.level = l
}
