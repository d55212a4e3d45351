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

// Package addrfn recovers XOR-of-address-bits functions that explain a
// partition of physical addresses into sets.
package addrfn

import (
	"fmt"
	"math/bits"

	bitutil "github.com/xorprobe/xorprobe/pkg/bits"
)

// Function is the parity of the address bits selected by Mask. Bit positions
// are absolute.
type Function struct {
	Mask uint64
	Bits int
}

// NewFunction returns the Function for mask.
func NewFunction(mask uint64) Function {
	return Function{Mask: mask, Bits: bits.OnesCount64(mask)}
}

// ParseFunction parses a bit list as produced by Function.String.
func ParseFunction(s string) (Function, error) {
	mask, err := bitutil.ParsePositions64(s)
	if err != nil {
		return Function{}, err
	}
	if mask == 0 {
		return Function{}, fmt.Errorf("empty function %q", s)
	}
	return NewFunction(mask), nil
}

// String returns the bit positions of f, e.g. "6 7".
func (f Function) String() string {
	return bitutil.FormatPositions64(f.Mask)
}

// Apply evaluates f on addr.
func (f Function) Apply(addr uint64) uint {
	return bitutil.Parity64(addr & f.Mask)
}

// Contains returns whether every bit of g is also in f.
func (f Function) Contains(g Function) bool {
	return bitutil.IsOn64(f.Mask, g.Mask)
}
