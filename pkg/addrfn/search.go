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

package addrfn

import (
	"fmt"

	bitutil "github.com/xorprobe/xorprobe/pkg/bits"
	"github.com/xorprobe/xorprobe/pkg/gf2"
)

// Config tunes the function search.
type Config struct {
	// MaxBits is the largest number of address bits in a function.
	MaxBits int

	// Alignment is the number of low address bits ignored.
	Alignment int

	// AddressBits is the address width considered.
	AddressBits int

	// FPLow and FPHigh bound the probability of a useful function. A
	// function at or outside either bound is constant on the sets.
	FPLow  float64
	FPHigh float64
}

// DefaultConfig returns the default search parameters.
func DefaultConfig() Config {
	return Config{
		MaxBits:     7,
		Alignment:   6,
		AddressBits: 64,
		FPLow:       0.01,
		FPHigh:      0.99,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.AddressBits < 1 || c.AddressBits > 64 {
		return fmt.Errorf("address bits %d out of range [1, 64]", c.AddressBits)
	}
	if c.Alignment < 0 || c.Alignment >= c.AddressBits {
		return fmt.Errorf("alignment %d out of range [0, %d)", c.Alignment, c.AddressBits)
	}
	if c.MaxBits < 1 || c.MaxBits > c.window() {
		return fmt.Errorf("max bits %d out of range [1, %d]", c.MaxBits, c.window())
	}
	if c.FPLow < 0 || c.FPHigh > 1 || c.FPLow >= c.FPHigh {
		return fmt.Errorf("false positive bounds [%v, %v] must satisfy 0 <= low < high <= 1", c.FPLow, c.FPHigh)
	}
	return nil
}

// window is the number of bit positions searched.
func (c Config) window() int {
	return c.AddressBits - c.Alignment
}

// nonEmpty drops empty sets.
func nonEmpty(sets []Set) []Set {
	out := make([]Set, 0, len(sets))
	for _, s := range sets {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// constraints returns a basis of the differences between each member and
// the first member of its set, over the searched window. A mask has equal
// parity on every member of every set iff it is orthogonal to each
// returned vector.
func constraints(sets []Set, cfg Config) []uint64 {
	window := bitutil.LowMask64(cfg.window())
	var diffs []uint64
	for _, s := range sets {
		ref := s[0] >> cfg.Alignment
		for _, a := range s[1:] {
			if d := ((a >> cfg.Alignment) ^ ref) & window; d != 0 {
				diffs = append(diffs, d)
			}
		}
	}
	if len(diffs) == 0 {
		return nil
	}
	r := gf2.Independent(diffs, cfg.window())
	basis := make([]uint64, 0, r.Rank())
	for _, p := range r.Pivots {
		basis = append(basis, diffs[p])
	}
	return basis
}

// Candidates returns every function of exactly bits bits within the window
// that is consistent on all non-empty sets, ascending by mask.
func Candidates(sets []Set, bits int, cfg Config) []Function {
	sets = nonEmpty(sets)
	if len(sets) == 0 || bits < 1 || bits > cfg.window() {
		return nil
	}
	basis := constraints(sets, cfg)
	limit := bitutil.LowMask64(cfg.window())

	var out []Function
	for mask := bitutil.LowMask64(bits); mask != 0 && mask <= limit; mask = bitutil.NextCombination64(mask) {
		ok := true
		for _, d := range basis {
			if bitutil.Parity64(d&mask) != 0 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, NewFunction(mask<<cfg.Alignment))
		}
	}
	return out
}
