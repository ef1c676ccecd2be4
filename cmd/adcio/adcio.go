// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/adc0832"
	"github.com/warthog618/adc0832/rpi"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "adcio",
	Short: "adcio is a utility to read samples from an ADC0832 wired to Raspberry Pi GPIO pins",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	Version: version,
}

var pinOpts = struct {
	CS   int
	Clk  int
	Dio  int
	J8   bool
	Tclk time.Duration
	Tset time.Duration
	LSB  bool
}{}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.IntVar(&pinOpts.CS, "cs", 17, "chip select pin")
	pf.IntVar(&pinOpts.Clk, "clk", 18, "clock pin")
	pf.IntVar(&pinOpts.Dio, "dio", 27, "data pin")
	pf.BoolVar(&pinOpts.J8, "j8", false, "identify pins by physical J8 position rather than BCM number")
	pf.DurationVar(&pinOpts.Tclk, "tclk", adc0832.DefaultHalfCycle, "half cycle time between clock edges")
	pf.DurationVar(&pinOpts.Tset, "tset", 0, "mux settling time (raised to tclk if less)")
	pf.BoolVar(&pinOpts.LSB, "lsb", false, "read the second validation sample LSB first")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "adcio %s: %s\n", cmd.Name(), err)
}

// newADC maps the GPIO memory and claims the pins given by the persistent
// flags.  The returned closer releases both.
func newADC(options ...adc0832.Option) (*adc0832.ADC0832, func(), error) {
	if err := rpi.Open(); err != nil {
		return nil, nil, err
	}
	pins := adc0832.PinAssignment{CS: pinOpts.CS, Clk: pinOpts.Clk, Dio: pinOpts.Dio}
	if pinOpts.J8 {
		pins.Numbering = adc0832.J8
	}
	options = append(options,
		adc0832.WithHalfCycle(pinOpts.Tclk),
		adc0832.WithSettlingTime(pinOpts.Tset))
	if pinOpts.LSB {
		options = append(options, adc0832.WithSecondReadOrder(adc0832.LSBFirst))
	}
	a, err := adc0832.New(pins, options...)
	if err != nil {
		rpi.Close()
		return nil, nil, err
	}
	closer := func() {
		a.Close()
		rpi.Close()
	}
	return a, closer, nil
}
