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

package gf2

// Reduction is the result of selecting a maximal linearly independent
// subset of vectors.
type Reduction struct {
	// Pivots lists the indices of the independent vectors in ascending
	// order.
	Pivots []int

	// rref is the reduced transpose: column j expresses vector j in terms
	// of the pivot vectors.
	rref *Matrix
	n    int
}

// Independent stacks vectors as rows of a width-column matrix, transposes it
// and reduces the transpose. Vector j is independent of the vectors before it
// iff column j of the result is a pivot column.
func Independent(vectors []uint64, width int) *Reduction {
	t := FromVectors(vectors, width).Transpose()
	pivots := t.Reduce()
	return &Reduction{Pivots: pivots, rref: t, n: len(vectors)}
}

// Rank returns the number of independent vectors.
func (r *Reduction) Rank() int {
	return len(r.Pivots)
}

// IsPivot returns whether vector j was selected.
func (r *Reduction) IsPivot(j int) bool {
	for _, p := range r.Pivots {
		if p == j {
			return true
		}
	}
	return false
}

// Combination returns the indices of the pivot vectors whose XOR equals
// vector j.
func (r *Reduction) Combination(j int) []int {
	if j < 0 || j >= r.n {
		panic("vector index out of range")
	}
	if r.IsPivot(j) {
		return []int{j}
	}
	var out []int
	for i, p := range r.Pivots {
		if r.rref.Get(i, j) {
			out = append(out, p)
		}
	}
	return out
}
