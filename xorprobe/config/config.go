// Copyright 2026 The xorprobe Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides basic infrastructure to set configuration settings
// for xorprobe. Each setting has a flag and an optional entry in a TOML
// configuration file.
package config

import (
	"fmt"

	"github.com/xorprobe/xorprobe/pkg/addrfn"
	"github.com/xorprobe/xorprobe/pkg/discovery"
	"github.com/xorprobe/xorprobe/pkg/log"
	"github.com/xorprobe/xorprobe/pkg/timing"
)

// Config holds configuration that is not part of a single command.
//
// Follow these steps to add a new flag:
//  1. Create a new field in Config.
//  2. Add a field tag with the flag name and the configuration file key.
//  3. Register a new flag in flags.go, with same name and add a description.
//  4. Add any necessary validation into validate().
//  5. If adding an enum, follow the same pattern as discovery.Polarity.
type Config struct {
	// ConfigFile is the TOML file overlaid below explicitly set flags.
	ConfigFile string `flag:"config" toml:"-"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug" toml:"debug"`

	// LogFormat is the log format, "text" or "json".
	LogFormat string `flag:"log-format" toml:"log-format"`

	// Fraction is the share of physical RAM to map.
	Fraction float64 `flag:"p" toml:"p"`

	// Reads is the number of access pairs per timing round.
	Reads uint64 `flag:"n" toml:"n"`

	// Sets is the number of sets to discover.
	Sets int `flag:"s" toml:"s"`

	Oversample     int                `flag:"oversample" toml:"oversample"`
	MaxAttempts    int                `flag:"max-attempts" toml:"max-attempts"`
	SeparationRun  int                `flag:"separation-run" toml:"separation-run"`
	NearEmpty      int                `flag:"near-empty" toml:"near-empty"`
	Polarity       discovery.Polarity `flag:"polarity" toml:"polarity"`
	SetBound       discovery.SetBound `flag:"set-bound" toml:"set-bound"`
	CommitResidual bool               `flag:"commit-residual" toml:"commit-residual"`

	FPLow       float64 `flag:"fp-low" toml:"fp-low"`
	FPHigh      float64 `flag:"fp-high" toml:"fp-high"`
	MaxBits     int     `flag:"max-bits" toml:"max-bits"`
	Alignment   int     `flag:"alignment" toml:"alignment"`
	AddressBits int     `flag:"address-bits" toml:"address-bits"`

	// Stride is the spacing of candidate addresses within a page.
	Stride uint64 `flag:"stride" toml:"stride"`

	OuterRounds int `flag:"outer-rounds" toml:"outer-rounds"`
	Yields      int `flag:"yields" toml:"yields"`

	// Priority is the nice value requested for the process.
	Priority int `flag:"priority" toml:"priority"`

	// CPU is the CPU to pin the measuring thread to, or -1.
	CPU int `flag:"cpu" toml:"cpu"`

	// Seed seeds address selection. Zero picks a random seed.
	Seed uint64 `flag:"seed" toml:"seed"`
}

// Discovery returns the set identification settings.
func (c *Config) Discovery() discovery.Config {
	return discovery.Config{
		Sets:           c.Sets,
		Oversample:     c.Oversample,
		MaxAttempts:    c.MaxAttempts,
		SeparationRun:  c.SeparationRun,
		NearEmpty:      c.NearEmpty,
		Polarity:       c.Polarity,
		SetBound:       c.SetBound,
		CommitResidual: c.CommitResidual,
	}
}

// Search returns the function search settings.
func (c *Config) Search() addrfn.Config {
	return addrfn.Config{
		MaxBits:     c.MaxBits,
		Alignment:   c.Alignment,
		AddressBits: c.AddressBits,
		FPLow:       c.FPLow,
		FPHigh:      c.FPHigh,
	}
}

// Timing returns the timing oracle settings.
func (c *Config) Timing() timing.Config {
	return timing.Config{
		Reads:       c.Reads,
		OuterRounds: c.OuterRounds,
		Yields:      c.Yields,
	}
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be text or json", c.LogFormat)
	}
	if c.Fraction < 0 || c.Fraction > 1 {
		return fmt.Errorf("RAM fraction %v must be within [0, 1]", c.Fraction)
	}
	if c.Priority < -20 || c.Priority > 19 {
		return fmt.Errorf("priority %d must be within [-20, 19]", c.Priority)
	}
	if c.CPU < -1 {
		return fmt.Errorf("invalid CPU %d, use -1 to leave the thread unpinned", c.CPU)
	}
	if c.Stride == 0 {
		return fmt.Errorf("stride must be positive")
	}
	if err := c.Discovery().Validate(); err != nil {
		return err
	}
	if err := c.Search().Validate(); err != nil {
		return err
	}
	return c.Timing().Validate()
}

// Log logs important aspects of the configuration.
func (c *Config) Log() {
	if c.ConfigFile != "" {
		log.Infof("Config file: %s", c.ConfigFile)
	}
	log.Infof("Memory: fraction %v, stride %d", c.Fraction, c.Stride)
	log.Infof("Timing: %d reads, %d rounds, %d yields", c.Reads, c.OuterRounds, c.Yields)
	log.Infof("Sets: %d, oversample %d, %d attempts, polarity %s, bound %s, commit residual %t",
		c.Sets, c.Oversample, c.MaxAttempts, c.Polarity, c.SetBound, c.CommitResidual)
	log.Infof("Separation: run %d, near-empty %d", c.SeparationRun, c.NearEmpty)
	log.Infof("Search: %d bits, alignment %d, address bits %d, false positive bounds [%v, %v]",
		c.MaxBits, c.Alignment, c.AddressBits, c.FPLow, c.FPHigh)
	log.Infof("Priority: %d, CPU: %d, seed: %d", c.Priority, c.CPU, c.Seed)
	if flags := c.ToFlags(); len(flags) > 0 {
		log.Debugf("Non-default flags: %v", flags)
	}
}
