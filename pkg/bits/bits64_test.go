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

package bits

import (
	"math/bits"
	"reflect"
	"testing"
)

func TestMostSignificantOne64(t *testing.T) {
	for i := 0; i < 64; i++ {
		n := uint64(1) << uint(i)
		if got, want := MostSignificantOne64(n), i; got != want {
			t.Errorf("MostSignificantOne64(%#x): got %d, wanted %d", n, got, want)
		}
	}

	for i := 0; i < 64; i++ {
		n := ^uint64(0) >> uint(i)
		if got, want := MostSignificantOne64(n), 63-i; got != want {
			t.Errorf("MostSignificantOne64(%#x): got %d, wanted %d", n, got, want)
		}
	}

	if got, want := MostSignificantOne64(0), 64; got != want {
		t.Errorf("MostSignificantOne64(0): got %d, wanted %d", got, want)
	}
}

func TestForEachSetBit64(t *testing.T) {
	for _, want := range [][]int{
		{},
		{0},
		{1},
		{63},
		{0, 1},
		{1, 3, 5},
		{0, 63},
	} {
		n := Mask64(want...)
		// "Slice values are deeply equal when ... they are both nil or both
		// non-nil ..."
		got := make([]int, 0)
		ForEachSetBit64(n, func(i int) {
			got = append(got, i)
		})
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ForEachSetBit64(%#x): iterated bits %v, wanted %v", n, got, want)
		}
	}
}

func TestIsOn(t *testing.T) {
	for _, test := range []struct {
		mask uint64
		bits uint64
		want bool
	}{
		{Mask64(0), Mask64(0), true},
		{Mask64(63), Mask64(63), true},
		{Mask64(0), Mask64(1), false},
		{Mask64(0), Mask64(0, 1), false},

		{Mask64(1, 63), Mask64(1), true},
		{Mask64(1, 63), Mask64(1, 63), true},
		{Mask64(1, 63), Mask64(0, 1, 63), false},
		{Mask64(1, 63), Mask64(0, 62), false},
	} {
		if got := IsOn64(test.mask, test.bits); got != test.want {
			t.Errorf("IsOn64(%#x, %#x) = %v, wanted: %v", test.mask, test.bits, got, test.want)
		}
	}
}

func TestParity64(t *testing.T) {
	for _, test := range []struct {
		x    uint64
		want uint
	}{
		{0, 0},
		{1, 1},
		{0b11, 0},
		{0b10110, 1},
		{Mask64(6, 7), 0},
		{^uint64(0), 0},
		{^uint64(0) >> 1, 1},
	} {
		if got := Parity64(test.x); got != test.want {
			t.Errorf("Parity64(%#x): got %d, wanted %d", test.x, got, test.want)
		}
	}
}

func TestNextCombination64(t *testing.T) {
	// Within a 12 bit window every b-bit combination must be visited exactly
	// once, in increasing order.
	const width = 12
	for b := 1; b <= 7; b++ {
		t.Run(string(rune('0'+b)), func(t *testing.T) {
			start := LowMask64(b)
			seen := make(map[uint64]bool)
			prev := uint64(0)
			for x := start; x != 0 && x < MaskOf64(width); x = NextCombination64(x) {
				if x <= prev {
					t.Fatalf("sequence not increasing: %#x after %#x", x, prev)
				}
				if seen[x] {
					t.Fatalf("value %#x repeated", x)
				}
				if got := bits.OnesCount64(x); got != b {
					t.Fatalf("value %#x has %d bits set, wanted %d", x, got, b)
				}
				seen[x] = true
				prev = x
			}
			if got, want := len(seen), binomial(width, b); got != want {
				t.Errorf("visited %d combinations, wanted C(%d, %d) = %d", got, width, b, want)
			}
		})
	}
}

func TestNextCombination64Exhausted(t *testing.T) {
	for _, x := range []uint64{0, MaskOf64(63), Mask64(62, 63), ^uint64(0)} {
		if got := NextCombination64(x); got != 0 {
			t.Errorf("NextCombination64(%#x): got %#x, wanted 0", x, got)
		}
	}
	if got, want := NextCombination64(Mask64(0, 63)), Mask64(1, 63); got != want {
		t.Errorf("NextCombination64: got %#x, wanted %#x", got, want)
	}
}

func TestPositionsRoundTrip(t *testing.T) {
	for _, mask := range []uint64{
		Mask64(6, 7),
		Mask64(6),
		Mask64(0, 17, 18, 19, 63),
		Mask64(12, 13, 16, 20, 22, 23, 24),
	} {
		s := FormatPositions64(mask)
		got, err := ParsePositions64(s)
		if err != nil {
			t.Fatalf("ParsePositions64(%q): %v", s, err)
		}
		if got != mask {
			t.Errorf("round trip of %#x via %q: got %#x", mask, s, got)
		}
		if !reflect.DeepEqual(Positions64(mask), Positions64(got)) {
			t.Errorf("Positions64 mismatch for %#x", mask)
		}
	}
	if got, want := FormatPositions64(Mask64(6, 7)), "6 7"; got != want {
		t.Errorf("FormatPositions64: got %q, wanted %q", got, want)
	}
}

func TestParsePositionsErrors(t *testing.T) {
	for _, s := range []string{"x", "64", "-1", "6 6"} {
		if mask, err := ParsePositions64(s); err == nil {
			t.Errorf("ParsePositions64(%q): got (%#x, nil), wanted error", s, mask)
		}
	}
}

func binomial(n, k int) int {
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}
