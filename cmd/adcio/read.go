// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	readCmd.Flags().BoolVarP(&readOpts.Raw, "raw", "r", false, "print both validation samples rather than the reconciled value")
	rootCmd.AddCommand(readCmd)
}

var (
	readCmd = &cobra.Command{
		Use:     "read [channel]...",
		Short:   "Read a sample from a channel or channels",
		Example: "  adcio read 0\n  adcio --cs 5 --clk 6 --dio 13 read 0 1",
		RunE:    read,
	}
	readOpts = struct {
		Raw bool
	}{}
)

func read(cmd *cobra.Command, args []string) error {
	chans := []int{0, 1}
	if len(args) != 0 {
		chans = chans[:0]
		for _, arg := range args {
			ch, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("can't parse channel '%s'", arg)
			}
			chans = append(chans, ch)
		}
	}
	a, closer, err := newADC()
	if err != nil {
		return err
	}
	defer closer()
	for _, ch := range chans {
		if readOpts.Raw {
			r, err := a.ReadBoth(ch)
			if err != nil {
				logErr(cmd, err)
				continue
			}
			fmt.Printf("ch%d=0x%02x,0x%02x\n", ch, r.First, r.Second)
			continue
		}
		v, err := a.Read(ch)
		if err != nil {
			logErr(cmd, err)
			continue
		}
		fmt.Printf("ch%d=0x%02x\n", ch, v)
	}
	return nil
}
