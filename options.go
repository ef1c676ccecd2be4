// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package adc0832

import (
	"time"
)

// Option alters the configuration of the driver as it is constructed.
type Option func(*ADC0832)

// MismatchPolicy determines the value Read returns when the two samples of a
// transaction disagree.
//
// A mismatch is genuine bus noise, not a driver fault, so it is absorbed
// rather than escalated to an error.  The policy makes the degraded value
// deterministic and caller visible.
type MismatchPolicy int

const (
	// TakeFirst returns the first of the two samples.
	TakeFirst MismatchPolicy = iota
	// TakeZero returns zero.
	TakeZero
)

// BitOrder selects how the second sample is assembled from the bit stream.
type BitOrder int

const (
	// MSBFirst assembles the sample most significant bit first.
	MSBFirst BitOrder = iota
	// LSBFirst assembles the sample least significant bit first.
	LSBFirst
)

// WithHalfCycle sets the minimum time between signal transitions.
//
// This is the half cycle time of the serial clock.  The converter requirement
// is a minimum, so larger values only slow the read.
func WithHalfCycle(tclk time.Duration) Option {
	return func(a *ADC0832) {
		a.tclk = tclk
	}
}

// WithSettlingTime sets the time allowed for the converter mux to settle
// after the channel is selected.  Values less than the half cycle time are
// raised to it.
func WithSettlingTime(tset time.Duration) Option {
	return func(a *ADC0832) {
		a.tset = tset
	}
}

// WithMismatchPolicy sets the value Read returns when the two samples of a
// transaction disagree.
func WithMismatchPolicy(policy MismatchPolicy) Option {
	return func(a *ADC0832) {
		a.policy = policy
	}
}

// WithSecondReadOrder sets the order the second sample is assembled in.
//
// The converter retransmits the conversion least significant bit first after
// the MSB first pass, so LSBFirst reconstructs the same value from the later
// bits of the stream and cross-checks a different failure mode.  The default
// is MSBFirst.
func WithSecondReadOrder(order BitOrder) Option {
	return func(a *ADC0832) {
		a.order = order
	}
}

// WithPinController sets the controller the driver claims its pins from.
func WithPinController(pc PinController) Option {
	return func(a *ADC0832) {
		a.pc = pc
	}
}

// WithSleeper sets the function used to wait out protocol delays.
//
// The default is time.Sleep.  Tests substitute a fake so transactions run in
// zero time.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(a *ADC0832) {
		a.sleep = sleep
	}
}

// WithGlitchHandler sets a function notified when Read observes a mismatch
// between the two samples of a transaction.
//
// The handler is informational - Read still returns the value given by the
// MismatchPolicy.
func WithGlitchHandler(handler func(RawRead)) Option {
	return func(a *ADC0832) {
		a.onGlitch = handler
	}
}
