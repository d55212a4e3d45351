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
	"bytes"
	"context"
	"io"
	mrand "math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/xorprobe/xorprobe/pkg/addrfn"
	"github.com/xorprobe/xorprobe/pkg/bits"
	"github.com/xorprobe/xorprobe/pkg/errors"
	"github.com/xorprobe/xorprobe/pkg/log"
	"github.com/xorprobe/xorprobe/pkg/physmem"
	"github.com/xorprobe/xorprobe/pkg/timing"
)

// scenarioSlice maps an address to (bit 5, bit 6 ^ bit 7).
func scenarioSlice(phys uint64) uint64 {
	return (phys>>5)&1<<1 | uint64(bits.Parity64(phys&0xc0))
}

func scenarioPool() *Pool {
	p := NewPool()
	for i := uint64(0); i < 16; i++ {
		p.Insert(physmem.Address{Virt: uintptr(0x10000 + i<<4), Phys: i << 4})
	}
	return p
}

func scenarioConfig() Config {
	cfg := DefaultConfig()
	cfg.Sets = 4
	cfg.Polarity = Fast
	cfg.SetBound = BoundRemaining
	cfg.CommitResidual = true
	return cfg
}

func TestScenario(t *testing.T) {
	oracle := &timing.Simulated{Slice: scenarioSlice, Same: 100, Different: 300}
	e, err := New(scenarioConfig(), oracle, scenarioPool(), mrand.New(mrand.NewPCG(1, 2)), io.Discard)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Exhausted || len(res.Sets) != 4 {
		t.Fatalf("Run found %d sets (exhausted %t), wanted 4", len(res.Sets), res.Exhausted)
	}
	if e.State() != Separated {
		t.Errorf("State() = %v, wanted %v", e.State(), Separated)
	}

	seen := make(map[uint64]bool)
	for i, s := range res.Sets {
		if len(s) != 4 {
			t.Errorf("set %d has %d members, wanted 4: %#x", i, len(s), s)
		}
		for _, a := range s {
			if scenarioSlice(a) != scenarioSlice(s[0]) {
				t.Errorf("set %d mixes slices: %#x", i, s)
			}
			if seen[a] {
				t.Errorf("address %#x in more than one set", a)
			}
			seen[a] = true
		}
	}

	cfg := addrfn.DefaultConfig()
	cfg.AddressBits = 16
	r, err := addrfn.Search(res.Sets, cfg)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	var got []uint64
	for _, c := range r.Accepted() {
		got = append(got, c.Mask)
	}
	if diff := cmp.Diff([]uint64{0xc0}, got); diff != "" {
		t.Errorf("accepted functions mismatch (-want +got):\n%s", diff)
	}
}

func TestScenarioWithoutResidualCommit(t *testing.T) {
	cfg := scenarioConfig()
	cfg.CommitResidual = false
	cfg.MaxAttempts = 3
	oracle := &timing.Simulated{Slice: scenarioSlice, Same: 100, Different: 300}
	e, err := New(cfg, oracle, scenarioPool(), mrand.New(mrand.NewPCG(1, 2)), io.Discard)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Exhausted || len(res.Sets) != 3 {
		t.Errorf("Run found %d sets (exhausted %t), wanted 3 and exhausted", len(res.Sets), res.Exhausted)
	}
	if got, want := res.Attempts, 3+3; got != want {
		t.Errorf("Attempts = %d, wanted %d", got, want)
	}
	if e.State() != Ambiguous {
		t.Errorf("State() = %v, wanted %v", e.State(), Ambiguous)
	}
}

// countingOracle returns latencies without any gap and counts calls.
type countingOracle struct {
	calls int
}

func (o *countingOracle) Measure(a, b physmem.Address) uint64 {
	o.calls++
	return 100 + uint64(o.calls%3)
}

func TestNoSeparationGivesUp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sets = 2
	cfg.Oversample = 10
	pool := scenarioPool()
	oracle := &countingOracle{}
	e, err := New(cfg, oracle, pool, mrand.New(mrand.NewPCG(3, 4)), io.Discard)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Exhausted || len(res.Sets) != 0 {
		t.Errorf("Run = %+v, wanted no sets and exhausted", res)
	}
	if res.Attempts != 10 {
		t.Errorf("Attempts = %d, wanted 10", res.Attempts)
	}
	if got, want := oracle.calls, 10*cfg.Samples(); got != want {
		t.Errorf("oracle calls = %d, wanted %d", got, want)
	}
	if pool.Len() != 16 {
		t.Errorf("pool shrank to %d without a committed set", pool.Len())
	}
}

func TestSetTooSmall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sets = 2
	cfg.MaxAttempts = 2
	cfg.Polarity = Fast
	// Only the base collides with itself.
	oracle := timing.Func(func(a, b physmem.Address) uint64 {
		if a.Phys == b.Phys {
			return 100
		}
		return 300
	})
	e, err := New(cfg, oracle, scenarioPool(), mrand.New(mrand.NewPCG(5, 6)), io.Discard)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := e.attempt(); !errors.IsRetryable(err) {
		t.Errorf("attempt() = %v, wanted retryable error", err)
	}
	if e.State() != Ambiguous {
		t.Errorf("State() = %v, wanted %v", e.State(), Ambiguous)
	}
}

func TestRetryWarningsLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sets = 2
	cfg.MaxAttempts = 10
	cfg.Polarity = Fast
	oracle := timing.Func(func(a, b physmem.Address) uint64 {
		if a.Phys == b.Phys {
			return 100
		}
		return 300
	})
	e, err := New(cfg, oracle, scenarioPool(), mrand.New(mrand.NewPCG(5, 6)), io.Discard)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var buf bytes.Buffer
	e.retryLog = log.RateLimitedLogger(&log.BasicLogger{Level: log.Info, Emitter: &log.Writer{Next: &buf}}, time.Hour, retryLogBurst)

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Exhausted || res.Attempts != cfg.MaxAttempts {
		t.Errorf("Run = %+v, wanted exhausted after %d attempts", res, cfg.MaxAttempts)
	}
	if got := strings.Count(buf.String(), "trying again"); got != retryLogBurst {
		t.Errorf("logged %d retry warnings for %d retries, wanted %d:\n%s", got, cfg.MaxAttempts-1, retryLogBurst, buf.String())
	}
}

func TestSetTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sets = 4
	cfg.Polarity = Fast
	cfg.SetBound = BoundTarget
	// Two slices of eight addresses each exceed 16 / 4.
	oracle := &timing.Simulated{
		Slice:     func(phys uint64) uint64 { return (phys >> 4) & 1 },
		Same:      100,
		Different: 300,
	}
	pool := scenarioPool()
	e, err := New(cfg, oracle, pool, mrand.New(mrand.NewPCG(7, 8)), io.Discard)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	e.base, _ = pool.Pick(e.rng)
	if err := e.attempt(); !errors.IsRetryable(err) {
		t.Errorf("attempt() = %v, wanted retryable error", err)
	}
	if pool.Len() != 16 {
		t.Errorf("pool shrank to %d after a rejected set", pool.Len())
	}
}

func TestEmptyPoolIsFatal(t *testing.T) {
	e, err := New(DefaultConfig(), &countingOracle{}, NewPool(), mrand.New(mrand.NewPCG(1, 1)), io.Discard)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := e.Run(context.Background()); !errors.IsFatal(err) {
		t.Errorf("Run on an empty pool = %v, wanted fatal error", err)
	}
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	oracle := &countingOracle{}
	e, err := New(scenarioConfig(), oracle, scenarioPool(), mrand.New(mrand.NewPCG(1, 1)), io.Discard)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := e.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, wanted context.Canceled", err)
	}
	if res.Attempts != 0 || oracle.calls != 0 {
		t.Errorf("Run measured after cancellation: %d attempts, %d calls", res.Attempts, oracle.calls)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
	for _, mod := range []func(*Config){
		func(c *Config) { c.Sets = 0 },
		func(c *Config) { c.Oversample = 0 },
		func(c *Config) { c.MaxAttempts = 0 },
		func(c *Config) { c.SeparationRun = 0 },
		func(c *Config) { c.NearEmpty = -1 },
	} {
		cfg := DefaultConfig()
		mod(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%+v.Validate() succeeded", cfg)
		}
	}
}
