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

// Package gf2 implements bit matrices over GF(2) and Gauss-Jordan
// elimination on them.
package gf2

import (
	"fmt"
	"strings"

	"github.com/xorprobe/xorprobe/pkg/bitmap"
)

// Matrix is a row-major bit matrix. All accessors panic on out of range
// indices.
type Matrix struct {
	rows []bitmap.Bitmap
	cols int
}

// New returns a zero matrix with the given dimensions.
func New(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("invalid matrix dimensions %dx%d", rows, cols))
	}
	m := &Matrix{rows: make([]bitmap.Bitmap, rows), cols: cols}
	for i := range m.rows {
		m.rows[i] = bitmap.New(uint32(cols))
	}
	return m
}

// FromVectors builds a matrix whose row i holds the low cols bits of
// vectors[i].
func FromVectors(vectors []uint64, cols int) *Matrix {
	if cols > 64 {
		panic(fmt.Sprintf("vector width %d exceeds 64", cols))
	}
	m := New(len(vectors), cols)
	for i, v := range vectors {
		for j := 0; j < cols; j++ {
			if v&(1<<uint(j)) != 0 {
				m.rows[i].Add(uint32(j))
			}
		}
	}
	return m
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	return len(m.rows)
}

// Cols returns the number of columns.
func (m *Matrix) Cols() int {
	return m.cols
}

func (m *Matrix) check(r, c int) {
	if r < 0 || r >= len(m.rows) || c < 0 || c >= m.cols {
		panic(fmt.Sprintf("index (%d, %d) out of range for %dx%d matrix", r, c, len(m.rows), m.cols))
	}
}

// Get returns entry (r, c).
func (m *Matrix) Get(r, c int) bool {
	m.check(r, c)
	return m.rows[r].Contains(uint32(c))
}

// Set assigns entry (r, c).
func (m *Matrix) Set(r, c int, v bool) {
	m.check(r, c)
	if v {
		m.rows[r].Add(uint32(c))
	} else {
		m.rows[r].Remove(uint32(c))
	}
}

// Row returns row r as a vector. The matrix must be at most 64 columns wide.
func (m *Matrix) Row(r int) uint64 {
	if m.cols > 64 {
		panic(fmt.Sprintf("row width %d exceeds 64", m.cols))
	}
	m.check(r, 0)
	var v uint64
	for _, c := range m.rows[r].ToSlice() {
		v |= 1 << c
	}
	return v
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: make([]bitmap.Bitmap, len(m.rows)), cols: m.cols}
	for i := range m.rows {
		c.rows[i] = m.rows[i].Clone()
	}
	return c
}

// Transpose returns the transpose of m.
func (m *Matrix) Transpose() *Matrix {
	t := New(m.cols, len(m.rows))
	for r := range m.rows {
		for _, c := range m.rows[r].ToSlice() {
			t.rows[c].Add(uint32(r))
		}
	}
	return t
}

// Reduce brings m into reduced row echelon form in place and returns the
// pivot column of each nonzero row, in row order.
func (m *Matrix) Reduce() []int {
	var pivots []int
	lead := 0
	for c := 0; c < m.cols && lead < len(m.rows); c++ {
		p := -1
		for r := lead; r < len(m.rows); r++ {
			if m.rows[r].Contains(uint32(c)) {
				p = r
				break
			}
		}
		if p < 0 {
			continue
		}
		m.rows[lead], m.rows[p] = m.rows[p], m.rows[lead]
		for r := range m.rows {
			if r != lead && m.rows[r].Contains(uint32(c)) {
				m.rows[r].Xor(&m.rows[lead])
			}
		}
		pivots = append(pivots, c)
		lead++
	}
	return pivots
}

// String renders m one row per line.
func (m *Matrix) String() string {
	var b strings.Builder
	for r := range m.rows {
		for c := 0; c < m.cols; c++ {
			if m.rows[r].Contains(uint32(c)) {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
