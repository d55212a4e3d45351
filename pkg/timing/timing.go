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

// Package timing measures the access latency between pairs of addresses.
package timing

import (
	"fmt"
	"math"

	"github.com/xorprobe/xorprobe/pkg/cacheline"
	"github.com/xorprobe/xorprobe/pkg/physmem"
	"github.com/xorprobe/xorprobe/pkg/sched"
)

// Oracle measures the latency of alternately accessing two addresses.
type Oracle interface {
	// Measure returns a noise filtered latency in cycles per access pair.
	Measure(a, b physmem.Address) uint64
}

// Func adapts a function to the Oracle interface.
type Func func(a, b physmem.Address) uint64

// Measure implements Oracle.Measure.
func (f Func) Measure(a, b physmem.Address) uint64 {
	return f(a, b)
}

// Config tunes the host oracle.
type Config struct {
	// Reads is the number of access pairs per round.
	Reads uint64

	// OuterRounds is the number of rounds; the fastest round wins.
	OuterRounds int

	// Yields is the number of sched_yield calls before and after a round.
	Yields int
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		Reads:       5000,
		OuterRounds: 4,
		Yields:      10,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Reads == 0 {
		return fmt.Errorf("reads must be positive")
	}
	if c.OuterRounds <= 0 {
		return fmt.Errorf("outer rounds must be positive, got %d", c.OuterRounds)
	}
	if c.Yields < 0 {
		return fmt.Errorf("yields must not be negative, got %d", c.Yields)
	}
	return nil
}

// Host measures latency on the host processor.
type Host struct {
	cfg Config
}

// NewHost returns a host oracle.
func NewHost(cfg Config) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cacheline.Supported() {
		return nil, fmt.Errorf("processor lacks CLFLUSH or RDTSCP")
	}
	return &Host{cfg: cfg}, nil
}

// Measure implements Oracle.Measure.
func (h *Host) Measure(a, b physmem.Address) uint64 {
	best := uint64(math.MaxUint64)
	for i := 0; i < h.cfg.OuterRounds; i++ {
		sched.YieldN(h.cfg.Yields)
		if c := cacheline.AccessPair(a.Virt, b.Virt, h.cfg.Reads) / h.cfg.Reads; c < best {
			best = c
		}
		sched.YieldN(h.cfg.Yields)
	}
	return best
}

// Calibration holds the fastest observed load latencies, in cycles, of a line
// that is cached and of the same line right after it was flushed.
type Calibration struct {
	Hit  uint64
	Miss uint64
}

// Distinguishable returns whether an evicted load is measurably slower than a
// cached one. Set discovery relies on that difference.
func (c Calibration) Distinguishable() bool {
	return c.Miss > c.Hit
}

// Calibrate times loads from addr, which must lie in a populated mapping,
// with the line cached and with it flushed, over Reads rounds each.
func (h *Host) Calibrate(addr uintptr) Calibration {
	c := Calibration{Hit: math.MaxUint64, Miss: math.MaxUint64}
	cacheline.TimedRead(addr)
	for i := uint64(0); i < h.cfg.Reads; i++ {
		c.Hit = min(c.Hit, cacheline.TimedRead(addr))
	}
	for i := uint64(0); i < h.cfg.Reads; i++ {
		cacheline.Flush(addr)
		c.Miss = min(c.Miss, cacheline.TimedRead(addr))
	}
	return c
}

// Simulated models a machine whose slice is a function of the physical
// address. Pairs on the same slice take Same cycles, others Different.
type Simulated struct {
	Slice     func(phys uint64) uint64
	Same      uint64
	Different uint64
}

// Measure implements Oracle.Measure.
func (s *Simulated) Measure(a, b physmem.Address) uint64 {
	if s.Slice(a.Phys) == s.Slice(b.Phys) {
		return s.Same
	}
	return s.Different
}
