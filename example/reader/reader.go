// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"

	"github.com/warthog618/adc0832"
	"github.com/warthog618/adc0832/rpi"
)

// This example reads both channels from an ADC0832 connected to the RPI by
// three data lines - CS on GPIO17, CLK on GPIO18 and DIO on GPIO27, with DI
// and DO tied.
// All pins are outputs for most of each transaction so do not run this
// example on a board where those pins serve other purposes.
func main() {
	err := rpi.Open()
	if err != nil {
		panic(err)
	}
	defer rpi.Close()
	a, err := adc0832.New(adc0832.PinAssignment{CS: 17, Clk: 18, Dio: 27})
	if err != nil {
		panic(err)
	}
	defer a.Close()
	ch0, err := a.Read(0)
	if err != nil {
		panic(err)
	}
	ch1, err := a.Read(1)
	if err != nil {
		panic(err)
	}
	fmt.Printf("ch0=0x%02x, ch1=0x%02x\n", ch0, ch1)
}
