// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warthog618/adc0832"
	"github.com/warthog618/adc0832/rpi"
	"github.com/warthog618/config"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/json"
	"github.com/warthog618/config/pflag"
)

// This example polls a photoresistor divider on channel 0 of an ADC0832
// connected to the RPI by three data lines - CS, CLK and DIO.  Each raw
// sample is rescaled to a 0-100 light reading.  The default pin assignments
// are defined in loadConfig, but can be altered via configuration (env, flag
// or config file).
// All pins are outputs for most of each transaction so do not run this
// example on a board where those pins serve other purposes.
func main() {
	cfg := loadConfig()
	err := rpi.Open()
	if err != nil {
		panic(err)
	}
	defer rpi.Close()
	a, err := adc0832.New(
		adc0832.PinAssignment{
			CS:  int(cfg.GetUint("cs")),
			Clk: int(cfg.GetUint("clk")),
			Dio: int(cfg.GetUint("dio")),
		},
		adc0832.WithHalfCycle(cfg.GetDuration("tclk")),
		adc0832.WithSettlingTime(cfg.GetDuration("tset")),
		adc0832.WithGlitchHandler(func(r adc0832.RawRead) {
			fmt.Fprintf(os.Stderr, "glitch: 0x%02x != 0x%02x\n", r.First, r.Second)
		}))
	if err != nil {
		panic(err)
	}
	defer a.Close()

	offset := int(cfg.GetUint("offset"))
	interval := cfg.GetDuration("interval")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	for {
		select {
		case <-time.After(interval):
			v, err := a.Read(0)
			if err != nil {
				panic(err)
			}
			res := int(v) - offset
			if res < 0 {
				res = 0
			}
			if res > 100 {
				res = 100
			}
			fmt.Printf("light=%d\n", res)
		case <-quit:
			return
		}
	}
}

// Config defines the minimal configuration interface
type Config interface {
	GetDuration(k string) time.Duration
	GetUint(k string) uint64
}

func loadConfig() Config {
	defaultConfig := map[string]interface{}{
		"tclk":     "2us",
		"tset":     "2us", // should be at least tclk - enforced by the driver
		"cs":       17,
		"clk":      18,
		"dio":      27,
		"offset":   80,
		"interval": "200ms",
	}
	def := dict.New(dict.WithMap(defaultConfig))
	shortFlags := map[byte]string{
		'c': "config-file",
	}
	fget, err := pflag.New(pflag.WithShortFlags(shortFlags))
	if err != nil {
		panic(err)
	}
	// environment next
	eget, err := env.New(env.WithEnvPrefix("PHOTORESISTOR_"))
	if err != nil {
		panic(err)
	}
	// highest priority sources first - flags override environment
	sources := config.NewStack(fget, eget)
	cfg := config.NewConfig(config.Decorate(sources, config.WithDefault(def)))

	// config file may be specified via flag or env, so check for it
	// and if present add it with lower priority than flag and env.
	configFile, err := cfg.GetString("config.file")
	if err == nil {
		// explicitly specified config file - must be there
		jget, err := json.New(json.FromFile(configFile))
		if err != nil {
			panic(err)
		}
		sources.Append(jget)
	} else {
		// implicit and optional default config file
		jget, err := json.New(json.FromFile("photoresistor.json"))
		if err == nil {
			sources.Append(jget)
		} else {
			if _, ok := err.(*os.PathError); !ok {
				panic(err)
			}
		}
	}
	m := cfg.GetMust("", config.WithPanic())
	return m
}
