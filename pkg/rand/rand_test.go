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

package rand

import "testing"

func TestNewDeterministic(t *testing.T) {
	a, seed, err := New(42)
	if err != nil || seed != 42 {
		t.Fatalf("New(42) = (_, %d, %v)", seed, err)
	}
	b, _, _ := New(42)
	for i := 0; i < 16; i++ {
		if x, y := a.Uint64(), b.Uint64(); x != y {
			t.Fatalf("draw %d differs: %#x != %#x", i, x, y)
		}
	}
}

func TestNewRandomSeed(t *testing.T) {
	if _, seed, err := New(0); err != nil || seed == 0 {
		t.Errorf("New(0) = (_, %d, %v), wanted nonzero seed", seed, err)
	}
}
