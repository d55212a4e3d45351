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

package physmem

import (
	"encoding/binary"
	mrand "math/rand/v2"
	"testing"

	"github.com/xorprobe/xorprobe/pkg/errors"
	"github.com/xorprobe/xorprobe/pkg/hostarch"
)

// identity translates every address to itself.
type identity struct {
	closed bool
}

func (*identity) Translate(virt uintptr) (uint64, error) {
	return uint64(virt), nil
}

func (i *identity) Close() error {
	i.closed = true
	return nil
}

func TestMappingSize(t *testing.T) {
	const gib = uint64(1) << 30
	ram16, ram100 := 16*gib, 100*gib
	for _, test := range []struct {
		name     string
		ram      uint64
		fraction float64
		want     uint64
	}{
		{"default fraction", 16 * gib, 0.6, hostarch.PageRoundDown(uint64(float64(ram16) * 0.6))},
		{"whole ram", 8 * gib, 1, 8 * gib},
		{"half ram", 16 * gib, 0.5, 8 * gib},
		{"lower bound", 100 * gib, 0.01, hostarch.PageRoundDown(uint64(float64(ram100) * 0.01))},
		{"below bound", 16 * gib, 0.009, 2 * gib},
		{"zero", 16 * gib, 0, 2 * gib},
		{"unaligned", 3*hostarch.PageSize + 5, 1, 3 * hostarch.PageSize},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := MappingSize(test.ram, test.fraction)
			if got != test.want {
				t.Errorf("MappingSize(%d, %v) = %d, wanted %d", test.ram, test.fraction, got, test.want)
			}
			if got%hostarch.PageSize != 0 {
				t.Errorf("MappingSize(%d, %v) = %d is not page aligned", test.ram, test.fraction, got)
			}
		})
	}
}

func TestAllocate(t *testing.T) {
	tr := &identity{}
	m, err := Allocate(16*hostarch.PageSize, DefaultStride, tr)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if got, want := m.Size(), uint64(16*hostarch.PageSize); got != want {
		t.Errorf("Size() = %d, wanted %d", got, want)
	}
	for off := uint64(0); off < m.Size(); off += hostarch.PageSize {
		if got := binary.LittleEndian.Uint64(m.mem[off:]); got != off {
			t.Errorf("page at offset %#x holds %#x, wanted it touched with its offset", off, got)
		}
	}

	rng := mrand.New(mrand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		a, err := m.RandomAddress(rng)
		if err != nil {
			t.Fatalf("RandomAddress failed: %v", err)
		}
		if !m.Contains(a.Virt) {
			t.Fatalf("address %v outside mapping", a)
		}
		if (a.Virt-m.Base())%DefaultStride != 0 {
			t.Fatalf("address %v not aligned to stride", a)
		}
		if a.Phys != uint64(a.Virt) {
			t.Fatalf("address %v not translated", a)
		}
	}

	if _, err := m.Translate(m.Base() + uintptr(m.Size())); !errors.IsFatal(err) {
		t.Errorf("Translate past the end returned %v, wanted fatal error", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if !tr.closed {
		t.Errorf("Close did not close the translator")
	}
}

func TestAllocateInvalid(t *testing.T) {
	for _, test := range []struct {
		name   string
		size   uint64
		stride uint64
	}{
		{"empty", 100, DefaultStride},
		{"zero stride", hostarch.PageSize, 0},
		{"odd stride", hostarch.PageSize, 96},
	} {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Allocate(test.size, test.stride, &identity{}); !errors.IsFatal(err) {
				t.Errorf("Allocate(%d, %d) returned %v, wanted fatal error", test.size, test.stride, err)
			}
		})
	}
}
