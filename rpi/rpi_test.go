// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package rpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUninitialisedPanic(t *testing.T) {
	assert.Panics(t, func() {
		NewPin(J8p7)
	})
}

func TestFromJ8(t *testing.T) {
	patterns := []struct {
		pos int
		bcm int
		ok  bool
	}{
		{3, 2, true},
		{5, 3, true},
		{7, 4, true},
		{11, 17, true},
		{12, 18, true},
		{13, 27, true},
		{40, 21, true},
		// power, ground and out of range positions carry no GPIO
		{1, 0, false},
		{2, 0, false},
		{4, 0, false},
		{6, 0, false},
		{9, 0, false},
		{14, 0, false},
		{0, 0, false},
		{41, 0, false},
		{-1, 0, false},
	}
	for _, p := range patterns {
		bcm, err := FromJ8(p.pos)
		if p.ok {
			assert.NoError(t, err, "pos %d", p.pos)
			assert.Equal(t, p.bcm, bcm, "pos %d", p.pos)
		} else {
			assert.Error(t, err, "pos %d", p.pos)
		}
	}
}

func TestFromJ8Distinct(t *testing.T) {
	// every J8 position maps to a unique BCM GPIO
	seen := map[int]int{}
	for pos, bcm := range j8 {
		if prev, ok := seen[bcm]; ok {
			t.Errorf("GPIO %d mapped from both J8 pin %d and %d", bcm, prev, pos)
		}
		seen[bcm] = pos
		assert.GreaterOrEqual(t, bcm, 0)
		assert.Less(t, bcm, MaxGPIOPin)
	}
}
