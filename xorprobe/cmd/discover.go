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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"

	"github.com/google/subcommands"
	"golang.org/x/sys/unix"

	"github.com/xorprobe/xorprobe/pkg/addrfn"
	"github.com/xorprobe/xorprobe/pkg/discovery"
	"github.com/xorprobe/xorprobe/pkg/hostinfo"
	"github.com/xorprobe/xorprobe/pkg/log"
	"github.com/xorprobe/xorprobe/pkg/rand"
	"github.com/xorprobe/xorprobe/pkg/sched"
	"github.com/xorprobe/xorprobe/pkg/timing"
	"github.com/xorprobe/xorprobe/xorprobe/cmd/util"
	"github.com/xorprobe/xorprobe/xorprobe/config"
	"github.com/xorprobe/xorprobe/xorprobe/flag"
)

// Discover implements subcommands.Command for the "discover" command.
type Discover struct {
	// dumpSets prints the discovered sets as YAML.
	dumpSets bool
	format   format
}

// Name implements subcommands.Command.Name.
func (*Discover) Name() string {
	return "discover"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Discover) Synopsis() string {
	return "discover the physical address bits that select a cache slice or DRAM bank"
}

// Usage implements subcommands.Command.Usage.
func (*Discover) Usage() string {
	return `discover [flags]

discover maps a share of physical memory, groups addresses into sets whose
members collide with each other in access latency, and searches for XOR
functions of physical address bits that are constant within every set.
Requires CAP_SYS_ADMIN to read physical addresses from /proc/self/pagemap.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (d *Discover) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&d.dumpSets, "dump-sets", false, "print the discovered sets as YAML before the report.")
	d.format.setFlags(f)
}

// Execute implements subcommands.Command.Execute.
func (d *Discover) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()

	res, err := d.discover(ctx, conf)
	if err != nil {
		util.Fatalf("discover failed: %v", err)
	}
	if d.dumpSets {
		if err := addrfn.WriteSets(os.Stdout, res.Sets); err != nil {
			return util.Errorf("writing sets: %v", err)
		}
	}
	r, err := addrfn.Search(res.Sets, conf.Search())
	if err != nil {
		return util.Errorf("function search failed: %v", err)
	}
	if err := writeReport(os.Stdout, d.format, r, conf.Sets); err != nil {
		return util.Errorf("writing report: %v", err)
	}
	return subcommands.ExitSuccess
}

// discover runs set identification on the host. An interrupted run returns
// the sets found so far.
func (d *Discover) discover(ctx context.Context, conf *config.Config) (*discovery.Result, error) {
	host, err := hostinfo.Probe()
	if err != nil {
		return nil, err
	}
	host.Log()

	// Priority and affinity apply to the measuring thread only.
	unlock, err := sched.LockThread(conf.Priority, conf.CPU, host.MaxPossibleCPU)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rng, seed, err := rand.New(conf.Seed)
	if err != nil {
		return nil, fmt.Errorf("seeding: %w", err)
	}
	log.Infof("Seed: %d", seed)

	oracle, err := timing.NewHost(conf.Timing())
	if err != nil {
		return nil, err
	}

	m, err := openMapping(conf, host)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	cal := oracle.Calibrate(m.Base())
	log.Infof("Load latency: %d cycles cached, %d cycles evicted", cal.Hit, cal.Miss)
	if !cal.Distinguishable() {
		log.Warningf("Evicted loads are no slower than cached ones, latency histograms will not separate")
	}

	dc := conf.Discovery()
	pool := discovery.NewPool()
	if err := pool.Fill(m, rng, dc.Samples()); err != nil {
		return nil, err
	}
	log.Infof("Pool holds %d addresses", pool.Len())

	engine, err := discovery.New(dc, oracle, pool, rng, os.Stdout)
	if err != nil {
		return nil, err
	}

	defer debug.SetGCPercent(debug.SetGCPercent(-1))
	res, err := engine.Run(ctx)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		log.Warningf("Interrupted with %d of %d sets, searching the partial sets", len(res.Sets), res.Target)
		err = nil
	}
	if err != nil {
		return nil, err
	}
	log.Infof("Set identification finished in state %s after %d attempts", engine.State(), res.Attempts)
	return res, nil
}
