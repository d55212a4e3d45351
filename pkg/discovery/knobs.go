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

package discovery

import (
	"fmt"
	"strings"
)

// Polarity selects which end of the latency histogram holds the addresses
// that share a slice with the base.
type Polarity int

const (
	// Slow means colliding pairs form the high-latency tail.
	Slow Polarity = iota

	// Fast means colliding pairs form the low-latency head.
	Fast
)

// String implements flag.Value.String.
func (p Polarity) String() string {
	switch p {
	case Slow:
		return "slow"
	case Fast:
		return "fast"
	default:
		panic(fmt.Sprintf("Invalid polarity %d", int(p)))
	}
}

// Get implements flag.Value.Get.
func (p *Polarity) Get() any {
	return *p
}

// Set implements flag.Value.Set.
func (p *Polarity) Set(v string) error {
	switch strings.ToLower(v) {
	case "slow":
		*p = Slow
	case "fast":
		*p = Fast
	default:
		return fmt.Errorf("invalid polarity %q, must be slow or fast", v)
	}
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Polarity) UnmarshalText(b []byte) error {
	return p.Set(string(b))
}

// SetBound selects the largest acceptable set size.
type SetBound int

const (
	// BoundTarget limits a set to pool size / requested sets.
	BoundTarget SetBound = iota

	// BoundRemaining limits a set to pool size / sets still missing.
	BoundRemaining
)

// String implements flag.Value.String.
func (b SetBound) String() string {
	switch b {
	case BoundTarget:
		return "target"
	case BoundRemaining:
		return "remaining"
	default:
		panic(fmt.Sprintf("Invalid set bound %d", int(b)))
	}
}

// Get implements flag.Value.Get.
func (b *SetBound) Get() any {
	return *b
}

// Set implements flag.Value.Set.
func (b *SetBound) Set(v string) error {
	switch strings.ToLower(v) {
	case "target":
		*b = BoundTarget
	case "remaining":
		*b = BoundRemaining
	default:
		return fmt.Errorf("invalid set bound %q, must be target or remaining", v)
	}
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *SetBound) UnmarshalText(t []byte) error {
	return b.Set(string(t))
}

// Limit returns the maximum set size for a pool of poolLen addresses when
// found of target sets are committed.
func (b SetBound) Limit(poolLen, target, found int) int {
	div := target
	if b == BoundRemaining {
		div = target - found
	}
	if div <= 0 {
		return 0
	}
	return poolLen / div
}
