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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilterFalsePositive(t *testing.T) {
	fns := []Function{NewFunction(0xc0), NewFunction(0x1)}
	sets := []Set{{0x00}, {0x40}, {0x80}, {0xc0}}
	probs := Probabilities(fns, sets)
	if diff := cmp.Diff([]float64{0.5, 0}, probs); diff != "" {
		t.Fatalf("Probabilities mismatch (-want +got):\n%s", diff)
	}
	got := Filter(fns, probs, 0.01, 0.99)
	if diff := cmp.Diff([]Verdict{Accepted, FalsePositive}, got); diff != "" {
		t.Errorf("Filter mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterSuppressesSupersets(t *testing.T) {
	fns := []Function{NewFunction(0x100), NewFunction(0xc0), NewFunction(0x1c0), NewFunction(0x3c0)}
	probs := []float64{1, 0.5, 0.5, 0.25}
	got := Filter(fns, probs, 0.01, 0.99)
	want := []Verdict{FalsePositive, Accepted, Suppressed, Suppressed}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filter mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterIdempotent(t *testing.T) {
	sets := scenarioSets()
	var fns []Function
	for b := 1; b <= 4; b++ {
		fns = append(fns, Candidates(sets, b, scenarioConfig())...)
	}
	probs := Probabilities(fns, sets)
	first := Filter(fns, probs, 0.01, 0.99)
	if diff := cmp.Diff(first, Filter(fns, Probabilities(fns, sets), 0.01, 0.99)); diff != "" {
		t.Errorf("Filter is not deterministic (-first +second):\n%s", diff)
	}

	var kept []Function
	var keptProbs []float64
	for i, v := range first {
		if v == Accepted {
			kept = append(kept, fns[i])
			keptProbs = append(keptProbs, probs[i])
		}
	}
	for i, v := range Filter(kept, keptProbs, 0.01, 0.99) {
		if v != Accepted {
			t.Errorf("refiltering %v gave %v", kept[i], v)
		}
	}
}

func TestReduceXorTriple(t *testing.T) {
	a, b := NewFunction(0xc0), NewFunction(0x300)
	cands := []Candidate{
		{Function: a, Probability: 0.5},
		{Function: b, Probability: 0.5},
		{Function: NewFunction(a.Mask ^ b.Mask), Probability: 0.5},
	}
	if rank := reduce(cands); rank != 2 {
		t.Errorf("reduce rank = %d, wanted 2", rank)
	}
	want := []Candidate{
		{Function: a, Probability: 0.5, Verdict: Accepted},
		{Function: b, Probability: 0.5, Verdict: Accepted},
		{Function: NewFunction(0x3c0), Probability: 0.5, Verdict: Duplicate, Combination: []Function{a, b}},
	}
	if diff := cmp.Diff(want, cands); diff != "" {
		t.Errorf("reduce mismatch (-want +got):\n%s", diff)
	}
}

func TestReduceSkipsFiltered(t *testing.T) {
	cands := []Candidate{
		{Function: NewFunction(0x40), Verdict: FalsePositive},
		{Function: NewFunction(0xc0), Probability: 0.5},
		{Function: NewFunction(0x80), Verdict: Suppressed},
	}
	if rank := reduce(cands); rank != 1 {
		t.Errorf("reduce rank = %d, wanted 1", rank)
	}
	if cands[1].Verdict != Accepted {
		t.Errorf("independent candidate marked %v", cands[1].Verdict)
	}
}

func TestConfidence(t *testing.T) {
	for _, test := range []struct {
		p    float64
		want int
	}{
		{0.5, 100},
		{0.25, 50},
		{0.75, 50},
		{0, 0},
		{1, 0},
		{0.375, 75},
	} {
		if got := (Candidate{Probability: test.p}).Confidence(); got != test.want {
			t.Errorf("Confidence(%v) = %d, wanted %d", test.p, got, test.want)
		}
	}
}
