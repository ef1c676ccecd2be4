// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package rpi

import "fmt"

// Convenience mapping from J8 pinouts to BCM pinouts.
const (
	J8p27 = iota
	J8p28
	J8p3
	J8p5
	J8p7
	J8p29
	J8p31
	J8p26
	J8p24
	J8p21
	J8p19
	J8p23
	J8p32
	J8p33
	J8p8
	J8p10
	J8p36
	J8p11
	J8p12
	J8p35
	J8p38
	J8p40
	J8p15
	J8p16
	J8p18
	J8p22
	J8p37
	J8p13
)

// j8 maps physical positions on the J8 header to BCM GPIO numbers.
// Positions carrying power or ground are absent.
var j8 = map[int]int{
	3:  J8p3,
	5:  J8p5,
	7:  J8p7,
	8:  J8p8,
	10: J8p10,
	11: J8p11,
	12: J8p12,
	13: J8p13,
	15: J8p15,
	16: J8p16,
	18: J8p18,
	19: J8p19,
	21: J8p21,
	22: J8p22,
	23: J8p23,
	24: J8p24,
	26: J8p26,
	27: J8p27,
	28: J8p28,
	29: J8p29,
	31: J8p31,
	32: J8p32,
	33: J8p33,
	35: J8p35,
	36: J8p36,
	37: J8p37,
	38: J8p38,
	40: J8p40,
}

// FromJ8 returns the BCM GPIO number for a physical pin position on the J8
// header.  Positions that do not carry a GPIO, including the power and ground
// pins, return an error.
func FromJ8(pos int) (int, error) {
	g, ok := j8[pos]
	if !ok {
		return 0, fmt.Errorf("no GPIO at J8 pin %d", pos)
	}
	return g, nil
}
