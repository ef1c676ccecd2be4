// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	watchCmd.Flags().IntVarP(&watchOpts.Channel, "channel", "n", 0, "channel to watch")
	watchCmd.Flags().DurationVarP(&watchOpts.Interval, "interval", "i", 200*time.Millisecond, "polling interval")
	watchCmd.Flags().IntVarP(&watchOpts.Offset, "offset", "o", 80, "offset subtracted from the raw sample")
	watchCmd.Flags().BoolVarP(&watchOpts.Raw, "raw", "r", false, "print the raw sample rather than the scaled reading")
	rootCmd.AddCommand(watchCmd)
}

var (
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Poll a channel and print scaled readings until interrupted",
		Long: `Poll a channel at a fixed interval, subtracting the offset from each raw
sample and clamping the result to [0,100], as suits sensors such as a
photoresistor divider.`,
		RunE: watch,
	}
	watchOpts = struct {
		Channel  int
		Interval time.Duration
		Offset   int
		Raw      bool
	}{}
)

func watch(cmd *cobra.Command, args []string) error {
	a, closer, err := newADC()
	if err != nil {
		return err
	}
	defer closer()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	for {
		select {
		case <-time.After(watchOpts.Interval):
			v, err := a.Read(watchOpts.Channel)
			if err != nil {
				return err
			}
			if watchOpts.Raw {
				fmt.Printf("ch%d=0x%02x\n", watchOpts.Channel, v)
			} else {
				fmt.Printf("ch%d=%d\n", watchOpts.Channel, rescale(v, watchOpts.Offset))
			}
		case <-quit:
			return nil
		}
	}
}

// rescale converts a raw sample to a 0-100 reading.
func rescale(v uint8, offset int) int {
	r := int(v) - offset
	if r < 0 {
		r = 0
	}
	if r > 100 {
		r = 100
	}
	return r
}
