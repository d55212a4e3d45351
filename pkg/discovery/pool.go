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
	mrand "math/rand/v2"

	"github.com/google/btree"

	"github.com/xorprobe/xorprobe/pkg/errors"
	"github.com/xorprobe/xorprobe/pkg/physmem"
)

// Source supplies random addresses.
type Source interface {
	RandomAddress(rng *mrand.Rand) (physmem.Address, error)
}

// Pool is a set of addresses keyed and ordered by physical address.
type Pool struct {
	tree *btree.BTreeG[physmem.Address]
}

func lessPhys(a, b physmem.Address) bool {
	return a.Phys < b.Phys
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{tree: btree.NewG(16, lessPhys)}
}

// Insert adds a and returns true if its physical address was not present.
func (p *Pool) Insert(a physmem.Address) bool {
	if p.tree.Has(a) {
		return false
	}
	p.tree.ReplaceOrInsert(a)
	return true
}

// Remove deletes the address with physical address phys.
func (p *Pool) Remove(phys uint64) bool {
	_, ok := p.tree.Delete(physmem.Address{Phys: phys})
	return ok
}

// Contains returns whether phys is in the pool.
func (p *Pool) Contains(phys uint64) bool {
	return p.tree.Has(physmem.Address{Phys: phys})
}

// Len returns the number of addresses.
func (p *Pool) Len() int {
	return p.tree.Len()
}

// At returns the i'th smallest address.
func (p *Pool) At(i int) (physmem.Address, bool) {
	if i < 0 || i >= p.tree.Len() {
		return physmem.Address{}, false
	}
	var out physmem.Address
	n := 0
	p.tree.Ascend(func(a physmem.Address) bool {
		if n == i {
			out = a
			return false
		}
		n++
		return true
	})
	return out, true
}

// Pick returns a uniformly chosen address. It returns false if the pool is
// empty.
func (p *Pool) Pick(rng *mrand.Rand) (physmem.Address, bool) {
	if p.tree.Len() == 0 {
		return physmem.Address{}, false
	}
	return p.At(rng.IntN(p.tree.Len()))
}

// Addresses returns the addresses in ascending physical order.
func (p *Pool) Addresses() []physmem.Address {
	out := make([]physmem.Address, 0, p.tree.Len())
	p.tree.Ascend(func(a physmem.Address) bool {
		out = append(out, a)
		return true
	})
	return out
}

// Fill draws addresses from src until the pool holds n distinct physical
// addresses.
func (p *Pool) Fill(src Source, rng *mrand.Rand, n int) error {
	maxDraws := 64 * n
	for draws := 0; p.Len() < n; draws++ {
		if draws >= maxDraws {
			return errors.Fatalf("only %d distinct addresses after %d draws, wanted %d", p.Len(), draws, n)
		}
		a, err := src.RandomAddress(rng)
		if err != nil {
			return fmt.Errorf("filling pool: %w", err)
		}
		p.Insert(a)
	}
	return nil
}
