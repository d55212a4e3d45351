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
	"io"
	"math"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/xorprobe/xorprobe/pkg/physmem"
)

const (
	// barScale is the length of the bar of the fullest bucket, before
	// clipping to barWidth.
	barScale = 100

	// barWidth is the longest bar drawn.
	barWidth = 80

	// labelWidth is the width of the "%03d: %4d " prefix of a line.
	labelWidth = 10

	// maxEmptyLines is the longest run of empty buckets drawn line by line.
	maxEmptyLines = 16
)

// Histogram counts latency samples per integer latency. Buckets are created
// on demand.
type Histogram struct {
	buckets map[uint64][]physmem.Address
	samples int
}

// NewHistogram returns an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{buckets: make(map[uint64][]physmem.Address)}
}

// Add records that a measured latency against the base.
func (h *Histogram) Add(latency uint64, a physmem.Address) {
	h.buckets[latency] = append(h.buckets[latency], a)
	h.samples++
}

// Count returns the number of samples with the given latency.
func (h *Histogram) Count(latency uint64) int {
	return len(h.buckets[latency])
}

// Samples returns the total number of samples.
func (h *Histogram) Samples() int {
	return h.samples
}

// Distinct returns the number of distinct physical addresses sampled.
func (h *Histogram) Distinct() int {
	seen := make(map[uint64]struct{})
	for _, b := range h.buckets {
		for _, a := range b {
			seen[a.Phys] = struct{}{}
		}
	}
	return len(seen)
}

// Range returns the lowest and highest latency with more than nearEmpty
// samples. ok is false if no bucket qualifies.
func (h *Histogram) Range(nearEmpty int) (min, max uint64, ok bool) {
	for l, b := range h.buckets {
		if len(b) <= nearEmpty {
			continue
		}
		if !ok || l < min {
			min = l
		}
		if !ok || l > max {
			max = l
		}
		ok = true
	}
	return min, max, ok
}

// Separation is the latency range of the samples colliding with the base.
type Separation struct {
	Lo, Hi uint64
}

// latencies returns the latencies of buckets holding more than nearEmpty
// samples, in ascending order.
func (h *Histogram) latencies(nearEmpty int) []uint64 {
	ls := make([]uint64, 0, len(h.buckets))
	for l, b := range h.buckets {
		if len(b) > nearEmpty {
			ls = append(ls, l)
		}
	}
	slices.Sort(ls)
	return ls
}

// Separate scans the populated range from the colliding extreme inward for
// run consecutive buckets holding at most nearEmpty samples. The colliding
// samples lie between the extreme and the start of that run. Only populated
// buckets are visited, so the cost does not depend on the width of a gap.
func (h *Histogram) Separate(p Polarity, run, nearEmpty int) (Separation, bool) {
	ls := h.latencies(nearEmpty)
	if len(ls) == 0 || run <= 0 {
		return Separation{}, false
	}
	min, max := ls[0], ls[len(ls)-1]
	switch p {
	case Slow:
		for i := len(ls) - 1; i > 0; i-- {
			if ls[i]-ls[i-1]-1 >= uint64(run) {
				return Separation{Lo: ls[i], Hi: max}, true
			}
		}
	case Fast:
		for i := 1; i < len(ls); i++ {
			if ls[i]-ls[i-1]-1 >= uint64(run) {
				return Separation{Lo: min, Hi: ls[i-1]}, true
			}
		}
	}
	return Separation{}, false
}

// Addresses returns the distinct addresses sampled with a latency in
// [s.Lo, s.Hi], in ascending physical order.
func (h *Histogram) Addresses(s Separation) []physmem.Address {
	seen := make(map[uint64]physmem.Address)
	for l, b := range h.buckets {
		if l < s.Lo || l > s.Hi {
			continue
		}
		for _, a := range b {
			seen[a.Phys] = a
		}
	}
	out := make([]physmem.Address, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b physmem.Address) int {
		switch {
		case a.Phys < b.Phys:
			return -1
		case a.Phys > b.Phys:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Render draws the populated range of the histogram, one line per latency.
// Buckets inside sep are highlighted on a terminal.
func (h *Histogram) Render(w io.Writer, nearEmpty int, sep *Separation, t Terminal) error {
	lo, hi, ok := h.Range(nearEmpty)
	if !ok {
		_, err := fmt.Fprintf(w, "no latency bucket holds more than %d samples\n", nearEmpty)
		return err
	}
	largest := 0
	for _, b := range h.buckets {
		if len(b) > largest {
			largest = len(b)
		}
	}
	scale := float64(barScale) / float64(largest)
	width := barWidth
	if t.Width > 0 && t.Width-labelWidth < width {
		width = max(t.Width-labelWidth, 1)
	}

	hit := color.New(color.FgRed, color.Bold)
	if t.IsTTY {
		hit.EnableColor()
	} else {
		hit.DisableColor()
	}
	line := func(l uint64) error {
		n := h.Count(l)
		bar := strings.Repeat("#", int(math.Min(math.Ceil(float64(n)*scale), float64(width))))
		if sep != nil && l >= sep.Lo && l <= sep.Hi {
			bar = hit.Sprint(bar)
		}
		_, err := fmt.Fprintf(w, "%03d: %4d %s\n", l, n, bar)
		return err
	}

	// Every sampled latency in [lo, hi] gets a line. Short runs of empty
	// buckets are drawn so the gap shows; longer runs share one line.
	prev := lo
	if err := line(lo); err != nil {
		return err
	}
	for _, l := range h.latencies(0) {
		if l <= lo || l > hi {
			continue
		}
		if gap := l - prev - 1; gap > maxEmptyLines {
			if _, err := fmt.Fprintf(w, "%03d-%03d: %d empty\n", prev+1, l-1, gap); err != nil {
				return err
			}
		} else {
			for e := prev + 1; e < l; e++ {
				if err := line(e); err != nil {
					return err
				}
			}
		}
		if err := line(l); err != nil {
			return err
		}
		prev = l
	}
	return nil
}
