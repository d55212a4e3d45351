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

package addrfn

import (
	"fmt"
	"math"

	bitutil "github.com/xorprobe/xorprobe/pkg/bits"
	"github.com/xorprobe/xorprobe/pkg/gf2"
	"github.com/xorprobe/xorprobe/pkg/log"
)

// Verdict is the outcome of filtering a candidate.
type Verdict int

const (
	// Accepted functions are reported.
	Accepted Verdict = iota

	// FalsePositive functions are constant on the sets.
	FalsePositive

	// Suppressed functions contain a false positive.
	Suppressed

	// Duplicate functions are the XOR of accepted functions.
	Duplicate
)

// String implements fmt.Stringer.String.
func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case FalsePositive:
		return "false positive"
	case Suppressed:
		return "suppressed"
	case Duplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Candidate is a consistent function with its filtering outcome.
type Candidate struct {
	Function

	// Probability is the fraction of sets on which the function is 1.
	Probability float64

	Verdict Verdict

	// Combination lists the accepted functions whose XOR equals a
	// Duplicate.
	Combination []Function
}

// Confidence returns 100 - 200 x |0.5 - Probability| as an integer percent.
func (c Candidate) Confidence() int {
	return int(100 - 200*math.Abs(0.5-c.Probability))
}

// Probability returns the fraction of non-empty sets whose representative
// evaluates to 1 under f.
func Probability(f Function, sets []Set) float64 {
	n, ones := 0, 0
	for _, s := range sets {
		if len(s) == 0 {
			continue
		}
		n++
		ones += int(f.Apply(s.Representative()))
	}
	if n == 0 {
		return 0
	}
	return float64(ones) / float64(n)
}

// Probabilities applies Probability to each function.
func Probabilities(fns []Function, sets []Set) []float64 {
	out := make([]float64, len(fns))
	for i, f := range fns {
		out[i] = Probability(f, sets)
	}
	return out
}

// Filter classifies functions given their probabilities. A probability at or
// below low or at or above high is a false positive; any other function
// containing a false positive is suppressed.
func Filter(fns []Function, probs []float64, low, high float64) []Verdict {
	verdicts := make([]Verdict, len(fns))
	var fps []Function
	for i, f := range fns {
		if probs[i] <= low || probs[i] >= high {
			verdicts[i] = FalsePositive
			fps = append(fps, f)
		}
	}
	for i, f := range fns {
		if verdicts[i] == FalsePositive {
			continue
		}
		for _, fp := range fps {
			if f.Contains(fp) {
				verdicts[i] = Suppressed
				break
			}
		}
	}
	return verdicts
}

// Result is the outcome of a search.
type Result struct {
	// Sets is the number of non-empty sets searched.
	Sets int

	// Candidates holds every consistent function, ascending by bit count
	// then mask. Candidates are generated in that order.
	Candidates []Candidate

	// Rank is the number of linearly independent surviving functions.
	Rank int
}

// Accepted returns the reported functions.
func (r *Result) Accepted() []Candidate {
	var out []Candidate
	for _, c := range r.Candidates {
		if c.Verdict == Accepted {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of candidates with verdict v.
func (r *Result) Count(v Verdict) int {
	n := 0
	for _, c := range r.Candidates {
		if c.Verdict == v {
			n++
		}
	}
	return n
}

// Search finds the consistent functions of up to cfg.MaxBits bits, filters
// constant ones and reduces the rest to a linearly independent subset.
func Search(sets []Set, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sets = nonEmpty(sets)
	r := &Result{Sets: len(sets)}
	if len(sets) == 0 {
		return r, nil
	}

	var fns []Function
	for b := 1; b <= cfg.MaxBits; b++ {
		found := Candidates(sets, b, cfg)
		log.Debugf("%d consistent functions of %d bits", len(found), b)
		fns = append(fns, found...)
	}

	probs := Probabilities(fns, sets)
	verdicts := Filter(fns, probs, cfg.FPLow, cfg.FPHigh)
	r.Candidates = make([]Candidate, len(fns))
	for i, f := range fns {
		r.Candidates[i] = Candidate{Function: f, Probability: probs[i], Verdict: verdicts[i]}
	}
	r.Rank = reduce(r.Candidates)
	return r, nil
}

// reduce marks every accepted candidate that is the XOR of earlier accepted
// candidates as a Duplicate and returns the rank of the accepted candidates.
func reduce(cands []Candidate) int {
	var idx []int
	var vectors []uint64
	var all uint64
	for i, c := range cands {
		if c.Verdict == Accepted {
			idx = append(idx, i)
			vectors = append(vectors, c.Mask)
			all |= c.Mask
		}
	}
	if len(vectors) == 0 {
		return 0
	}
	red := gf2.Independent(vectors, bitutil.MostSignificantOne64(all)+1)
	for j, i := range idx {
		if red.IsPivot(j) {
			continue
		}
		cands[i].Verdict = Duplicate
		for _, p := range red.Combination(j) {
			cands[i].Combination = append(cands[i].Combination, cands[idx[p]].Function)
		}
	}
	return red.Rank()
}
