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
	"fmt"
	"io"
	mrand "math/rand/v2"
	"os"

	"github.com/google/subcommands"

	"github.com/xorprobe/xorprobe/pkg/discovery"
	"github.com/xorprobe/xorprobe/pkg/hostinfo"
	"github.com/xorprobe/xorprobe/pkg/rand"
	"github.com/xorprobe/xorprobe/xorprobe/cmd/util"
	"github.com/xorprobe/xorprobe/xorprobe/config"
	"github.com/xorprobe/xorprobe/xorprobe/flag"
)

// Translate implements subcommands.Command for the "translate" command.
type Translate struct {
	count int
}

// Name implements subcommands.Command.Name.
func (*Translate) Name() string {
	return "translate"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Translate) Synopsis() string {
	return "print random virtual to physical address translations"
}

// Usage implements subcommands.Command.Usage.
func (*Translate) Usage() string {
	return `translate [flags]

translate maps memory the same way discover does and prints the physical
address behind random addresses of the mapping. Use it to check that
/proc/self/pagemap reports physical addresses to this process.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (t *Translate) SetFlags(f *flag.FlagSet) {
	f.IntVar(&t.count, "count", 10, "number of translations to print.")
}

// Execute implements subcommands.Command.Execute.
func (t *Translate) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 0 || t.count < 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	host, err := hostinfo.Probe()
	if err != nil {
		util.Fatalf("probing host: %v", err)
	}
	host.Log()
	rng, _, err := rand.New(conf.Seed)
	if err != nil {
		util.Fatalf("seeding: %v", err)
	}
	m, err := openMapping(conf, host)
	if err != nil {
		util.Fatalf("%v", err)
	}
	defer m.Close()

	if err := translate(os.Stdout, m, rng, t.count); err != nil {
		util.Fatalf("%v", err)
	}
	return subcommands.ExitSuccess
}

// translate writes count addresses drawn from src to w, one per line.
func translate(w io.Writer, src discovery.Source, rng *mrand.Rand, count int) error {
	for i := 0; i < count; i++ {
		a, err := src.RandomAddress(rng)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, a); err != nil {
			return err
		}
	}
	return nil
}
