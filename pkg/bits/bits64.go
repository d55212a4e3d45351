// Copyright 2018 Google LLC
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

// Package bits contains helpers for working with 64-bit masks.
package bits

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// IsOn64 returns true if *all* bits set in 'bits' are set in 'mask'.
func IsOn64(mask, bits uint64) bool {
	return mask&bits == bits
}

// Mask64 returns a uint64 with all of the given bits set.
func Mask64(is ...int) uint64 {
	ret := uint64(0)
	for _, i := range is {
		ret |= MaskOf64(i)
	}
	return ret
}

// MaskOf64 is like Mask64, but sets only a single bit (more efficiently).
func MaskOf64(i int) uint64 {
	return uint64(1) << uint64(i)
}

// LowMask64 returns a mask with the n lowest bits set.
func LowMask64(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return MaskOf64(n) - 1
}

// TrailingZeros64 returns the number of bits before the least significant 1
// bit in x; if x is 0, it returns 64.
func TrailingZeros64(x uint64) int {
	return bits.TrailingZeros64(x)
}

// MostSignificantOne64 returns the index of the most significant 1 bit in
// x. If x is 0, MostSignificantOne64 returns 64.
func MostSignificantOne64(x uint64) int {
	if x == 0 {
		return 64
	}
	return 63 - bits.LeadingZeros64(x)
}

// ForEachSetBit64 calls f once for each set bit in x, with argument i equal to
// the set bit's index, in ascending order.
func ForEachSetBit64(x uint64, f func(i int)) {
	for x != 0 {
		i := TrailingZeros64(x)
		f(i)
		x &^= MaskOf64(i)
	}
}

// Parity64 returns 1 if x has an odd number of set bits and 0 otherwise. It is
// the XOR of all bits of x.
func Parity64(x uint64) uint {
	return uint(bits.OnesCount64(x) & 1)
}

// NextCombination64 returns the smallest value greater than x with the same
// number of set bits (Gosper's hack). It returns 0 if x is 0 or if no such
// value fits in 64 bits.
func NextCombination64(x uint64) uint64 {
	if x == 0 {
		return 0
	}
	smallest := x & -x
	ripple := x + smallest
	if ripple == 0 {
		// The run of ones reached bit 63.
		return 0
	}
	newSmallest := ripple & -ripple
	ones := ((newSmallest / smallest) >> 1) - 1
	return ripple | ones
}

// Positions64 returns the indices of the set bits of x in ascending order.
func Positions64(x uint64) []int {
	ret := make([]int, 0, bits.OnesCount64(x))
	ForEachSetBit64(x, func(i int) {
		ret = append(ret, i)
	})
	return ret
}

// FormatPositions64 renders the set bits of x as a space separated list of
// indices, e.g. "6 7 13".
func FormatPositions64(x uint64) string {
	var sb strings.Builder
	ForEachSetBit64(x, func(i int) {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(i))
	})
	return sb.String()
}

// ParsePositions64 is the inverse of FormatPositions64. Indices may be
// separated by spaces or commas.
func ParsePositions64(s string) (uint64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	var mask uint64
	for _, f := range fields {
		i, err := strconv.Atoi(f)
		if err != nil {
			return 0, fmt.Errorf("invalid bit index %q: %w", f, err)
		}
		if i < 0 || i > 63 {
			return 0, fmt.Errorf("bit index %d out of range [0, 63]", i)
		}
		if IsOn64(mask, MaskOf64(i)) {
			return 0, fmt.Errorf("duplicate bit index %d", i)
		}
		mask |= MaskOf64(i)
	}
	return mask, nil
}
