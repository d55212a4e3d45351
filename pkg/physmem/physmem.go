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

// Package physmem owns the large populated mapping that set discovery draws
// its addresses from, and pairs each address with its physical location.
package physmem

import (
	"encoding/binary"
	"fmt"
	"io"
	mrand "math/rand/v2"

	"github.com/xorprobe/xorprobe/pkg/errors"
	"github.com/xorprobe/xorprobe/pkg/hostarch"
	"github.com/xorprobe/xorprobe/pkg/log"
	"github.com/xorprobe/xorprobe/pkg/memutil"
	"github.com/xorprobe/xorprobe/pkg/pagemap"
)

const (
	// FallbackSize is used when the requested RAM fraction is too small to
	// be meaningful.
	FallbackSize = 2 << 30

	// MinFraction is the smallest RAM fraction honored by MappingSize.
	MinFraction = 0.01

	// DefaultStride is the granularity of random addresses.
	DefaultStride = 128
)

// Address is a virtual address inside a Mapping together with its physical
// address. Two Addresses are the same location iff their Phys fields match.
type Address struct {
	Virt uintptr
	Phys uint64
}

// String implements fmt.Stringer.String.
func (a Address) String() string {
	return fmt.Sprintf("%#x -> %#x", a.Virt, a.Phys)
}

// MappingSize returns fraction x totalRAM rounded down to a page, or
// FallbackSize when fraction is below MinFraction.
func MappingSize(totalRAM uint64, fraction float64) uint64 {
	if fraction < MinFraction {
		return FallbackSize
	}
	return hostarch.PageRoundDown(uint64(float64(totalRAM) * fraction))
}

// Mapping is an anonymous populated region whose every page has been
// touched.
type Mapping struct {
	mem        []byte
	base       uintptr
	stride     uint64
	translator pagemap.Translator
}

// Allocate maps size bytes, writes one word into every page and uses
// translator for physical lookups. Mapping failures are fatal.
func Allocate(size, stride uint64, translator pagemap.Translator) (*Mapping, error) {
	size = hostarch.PageRoundDown(size)
	if size == 0 {
		return nil, errors.Fatalf("mapping size must be at least one page")
	}
	if stride == 0 || stride > size || hostarch.PageSize%stride != 0 {
		return nil, errors.Fatalf("stride %d must divide the page size", stride)
	}
	mem, err := memutil.MapPopulated(size)
	if err != nil {
		return nil, errors.NewFatal(err)
	}
	for off := uint64(0); off < size; off += hostarch.PageSize {
		binary.LittleEndian.PutUint64(mem[off:], off)
	}
	log.Debugf("Mapped %d MiB at %#x", size>>20, memutil.Base(mem))
	return &Mapping{
		mem:        mem,
		base:       memutil.Base(mem),
		stride:     stride,
		translator: translator,
	}, nil
}

// Size returns the mapping length in bytes.
func (m *Mapping) Size() uint64 {
	return uint64(len(m.mem))
}

// Base returns the first virtual address of the mapping.
func (m *Mapping) Base() uintptr {
	return m.base
}

// Contains returns whether virt lies inside the mapping.
func (m *Mapping) Contains(virt uintptr) bool {
	return virt >= m.base && virt-m.base < uintptr(len(m.mem))
}

// Translate returns the Address of virt, which must lie inside the mapping.
func (m *Mapping) Translate(virt uintptr) (Address, error) {
	if !m.Contains(virt) {
		return Address{}, errors.Fatalf("address %#x outside mapping [%#x, %#x)", virt, m.base, m.base+uintptr(len(m.mem)))
	}
	phys, err := m.translator.Translate(virt)
	if err != nil {
		return Address{}, err
	}
	return Address{Virt: virt, Phys: phys}, nil
}

// RandomAddress returns a random stride-aligned address inside the mapping.
func (m *Mapping) RandomAddress(rng *mrand.Rand) (Address, error) {
	slots := m.Size() / m.stride
	off := rng.Uint64N(slots) * m.stride
	return m.Translate(m.base + uintptr(off))
}

// Close unmaps the region and closes the translator if it owns a resource.
// The mapping must not be used afterwards.
func (m *Mapping) Close() error {
	if m.mem == nil {
		return nil
	}
	err := memutil.UnmapSlice(m.mem)
	m.mem = nil
	if c, ok := m.translator.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
