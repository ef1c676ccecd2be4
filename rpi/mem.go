// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package rpi

import (
	"bytes"
	"errors"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const memLength = 4096

// Arrays for 8 / 32 bit access to the GPIO registers.
var (
	// The memlock covers read/modify/write access to the mem block.
	// Individual reads and writes can skip the lock on the assumption that
	// concurrent register writes are atomic. e.g. Read, Write and Mode.
	memlock sync.Mutex
	mem     []uint32
	mem8    []uint8
)

// SoC variants that matter for pull control.
const (
	bcm2835 = iota
	bcm2711
)

var chipset = bcm2835

// Open memory maps the GPIO register block from /dev/gpiomem.
//
// Must be called before pins are created, and Close called when the pins are
// no longer required.
func Open() error {
	if len(mem) != 0 {
		return ErrAlreadyOpen
	}
	file, err := os.OpenFile("/dev/gpiomem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return err
	}
	defer file.Close()

	memlock.Lock()
	defer memlock.Unlock()

	mem8, err = unix.Mmap(
		int(file.Fd()),
		0,
		memLength,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED)
	if err != nil {
		return err
	}
	mem = unsafe.Slice((*uint32)(unsafe.Pointer(&mem8[0])), memLength/4)

	chipset = detectChipset()
	return nil
}

// Close unmaps the GPIO registers.
//
// All pins are left in their current state - callers wanting them released
// should return them to inputs first.
func Close() error {
	memlock.Lock()
	defer memlock.Unlock()
	if len(mem) == 0 {
		return nil
	}
	mem = nil
	return unix.Munmap(mem8)
}

// The pull registers moved on the BCM2711 (Pi 4), so the SoC must be
// identified from the device-tree.
func detectChipset() int {
	compat, err := os.ReadFile("/proc/device-tree/compatible")
	if err != nil {
		return bcm2835
	}
	if bytes.Contains(compat, []byte("bcm2711")) {
		return bcm2711
	}
	return bcm2835
}

// ErrAlreadyOpen indicates the GPIO memory is already mapped.
var ErrAlreadyOpen = errors.New("already open")
