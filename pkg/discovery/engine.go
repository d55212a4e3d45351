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

// Package discovery partitions a pool of physical addresses into sets that
// share a cache slice, using latency measurements against a floating base
// address.
package discovery

import (
	"context"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/xorprobe/xorprobe/pkg/addrfn"
	"github.com/xorprobe/xorprobe/pkg/errors"
	"github.com/xorprobe/xorprobe/pkg/log"
	"github.com/xorprobe/xorprobe/pkg/physmem"
	"github.com/xorprobe/xorprobe/pkg/timing"
)

// State is the progress of the search for one set.
type State int

const (
	// Searching means samples are being collected.
	Searching State = iota

	// HistogramBuilt means all samples of the attempt are in.
	HistogramBuilt

	// Separated means the attempt committed a set.
	Separated

	// Ambiguous means the attempt was rejected and may be retried.
	Ambiguous
)

// String implements fmt.Stringer.String.
func (s State) String() string {
	switch s {
	case Searching:
		return "SEARCHING"
	case HistogramBuilt:
		return "HISTOGRAM_BUILT"
	case Separated:
		return "SEPARATED"
	case Ambiguous:
		return "AMBIGUOUS"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config tunes set identification.
type Config struct {
	// Sets is the number of sets to find.
	Sets int

	// Oversample is the number of samples per set in each attempt, and
	// the number of pool addresses per set.
	Oversample int

	// MaxAttempts bounds the attempts for one set.
	MaxAttempts int

	// SeparationRun is the number of consecutive near-empty buckets that
	// separates colliding from non-colliding samples.
	SeparationRun int

	// NearEmpty is the largest sample count of a near-empty bucket.
	NearEmpty int

	Polarity Polarity
	SetBound SetBound

	// CommitResidual commits the remaining pool as the last set when it
	// forms a single latency cluster.
	CommitResidual bool
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		Sets:          8,
		Oversample:    125,
		MaxAttempts:   10,
		SeparationRun: 5,
		NearEmpty:     1,
		Polarity:      Slow,
		SetBound:      BoundTarget,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Sets < 1:
		return fmt.Errorf("sets must be positive, got %d", c.Sets)
	case c.Oversample < 1:
		return fmt.Errorf("oversample must be positive, got %d", c.Oversample)
	case c.MaxAttempts < 1:
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	case c.SeparationRun < 1:
		return fmt.Errorf("separation run must be positive, got %d", c.SeparationRun)
	case c.NearEmpty < 0:
		return fmt.Errorf("near empty must not be negative, got %d", c.NearEmpty)
	}
	return nil
}

// Samples returns the number of measurements per attempt, which is also the
// pool size.
func (c Config) Samples() int {
	return c.Sets * c.Oversample
}

// Result holds the committed sets.
type Result struct {
	Sets []addrfn.Set

	// Target is the number of sets requested.
	Target int

	// Attempts counts all attempts across all sets.
	Attempts int

	// Exhausted is set when the search stopped before Target sets were
	// found.
	Exhausted bool
}

const (
	retryLogEvery = 10 * time.Second
	retryLogBurst = 3
)

// Engine runs set identification. It is not safe for concurrent use.
type Engine struct {
	cfg    Config
	oracle timing.Oracle
	pool   *Pool
	rng    *mrand.Rand
	out    io.Writer
	term   Terminal

	// retryLog carries the warning logged after each failed attempt.
	retryLog log.Logger

	state    State
	base     physmem.Address
	sets     []addrfn.Set
	try      int
	attempts int
}

// New returns an engine drawing from pool. Progress and histograms are
// written to out.
func New(cfg Config, oracle timing.Oracle, pool *Pool, rng *mrand.Rand, out io.Writer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		oracle: oracle,
		pool:   pool,
		rng:    rng,
		out:    out,
		term:   DescribeTerminal(out),

		retryLog: log.BasicRateLimitedLogger(retryLogEvery, retryLogBurst),
	}, nil
}

// State returns the state of the current attempt.
func (e *Engine) State() State {
	return e.state
}

// Run searches until the requested number of sets is committed, a set
// exhausts its attempts, or the pool runs dry. Only fatal errors and
// cancellation are returned; the result is valid in every case.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	res := &Result{Target: e.cfg.Sets}
	base, ok := e.pool.Pick(e.rng)
	if !ok {
		return res, errors.Fatalf("address pool is empty")
	}
	e.base = base

	var err error
	for len(e.sets) < e.cfg.Sets {
		if e.pool.Len() < 2 {
			log.Warningf("Address pool exhausted after %d of %d sets", len(e.sets), e.cfg.Sets)
			res.Exhausted = true
			break
		}
		e.try = 0
		op := func() error {
			if err := ctx.Err(); err != nil {
				return backoff.Permanent(err)
			}
			e.try++
			err := e.attempt()
			if err != nil && !errors.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		notify := func(err error, _ time.Duration) {
			e.retryLog.Warningf("%v, trying again...", err)
		}
		b := backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(e.cfg.MaxAttempts-1))
		if err = backoff.RetryNotify(op, b, notify); err != nil {
			if errors.IsRetryable(err) {
				log.Warningf("Couldn't find set %d after %d tries, giving up: %v", len(e.sets)+1, e.try, err)
				res.Exhausted = true
				err = nil
			}
			break
		}
	}
	res.Sets = e.sets
	res.Attempts = e.attempts
	return res, err
}

// attempt measures the base against random pool addresses and commits the
// colliding addresses as a set if they are unambiguous.
func (e *Engine) attempt() error {
	e.attempts++
	e.state = Searching
	log.Infof("Searching for set %d (try %d)", len(e.sets)+1, e.try)

	n := e.cfg.Samples()
	h := NewHistogram()
	progress := NewProgress(e.out, e.term, n)
	for i := 0; i < n; i++ {
		a, _ := e.pool.Pick(e.rng)
		h.Add(e.oracle.Measure(e.base, a), a)
		progress.Step()
	}
	progress.Finish()
	e.state = HistogramBuilt

	sep, ok := h.Separate(e.cfg.Polarity, e.cfg.SeparationRun, e.cfg.NearEmpty)
	var shown *Separation
	if ok {
		shown = &sep
	}
	if err := h.Render(e.out, e.cfg.NearEmpty, shown, e.term); err != nil {
		log.Warningf("Rendering histogram: %v", err)
	}

	limit := e.cfg.SetBound.Limit(e.pool.Len(), e.cfg.Sets, len(e.sets))
	if !ok {
		if e.residual(h, limit) {
			log.Infof("Committing the remaining %d addresses as the last set", e.pool.Len())
			e.commit(e.pool.Addresses())
			return nil
		}
		e.state = Ambiguous
		return errors.Retryablef("no separation found in %d samples", h.Samples())
	}

	members := h.Addresses(sep)
	if !containsPhys(members, e.base.Phys) {
		members = append(members, e.base)
	}
	if len(members) <= 1 {
		e.state = Ambiguous
		return errors.Retryablef("set must be wrong, contains too few addresses (%d)", len(members))
	}
	if len(members) > limit {
		e.state = Ambiguous
		return errors.Retryablef("set must be wrong, contains too many addresses (%d > %d)", len(members), limit)
	}
	e.commit(members)
	return nil
}

// residual reports whether the remaining pool may be committed as the last
// set: it forms one latency cluster, was sampled completely, and fits the
// bound.
func (e *Engine) residual(h *Histogram, limit int) bool {
	if !e.cfg.CommitResidual || len(e.sets) != e.cfg.Sets-1 {
		return false
	}
	if _, _, ok := h.Range(e.cfg.NearEmpty); !ok {
		return false
	}
	n := e.pool.Len()
	return n > 1 && n <= limit && h.Distinct() == n
}

// commit removes members from the pool, records them as a set and picks a
// new base.
func (e *Engine) commit(members []physmem.Address) {
	phys := make([]uint64, 0, len(members))
	for _, a := range members {
		e.pool.Remove(a.Phys)
		phys = append(phys, a.Phys)
	}
	set := addrfn.NewSet(phys)
	e.sets = append(e.sets, set)
	e.state = Separated
	log.Infof("Found set %d with %d addresses, %d addresses left", len(e.sets), len(set), e.pool.Len())
	if base, ok := e.pool.Pick(e.rng); ok {
		e.base = base
	}
}

func containsPhys(addrs []physmem.Address, phys uint64) bool {
	for _, a := range addrs {
		if a.Phys == phys {
			return true
		}
	}
	return false
}
