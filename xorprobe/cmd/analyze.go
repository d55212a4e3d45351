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
	"os"

	"github.com/google/subcommands"

	"github.com/xorprobe/xorprobe/pkg/addrfn"
	"github.com/xorprobe/xorprobe/pkg/log"
	"github.com/xorprobe/xorprobe/xorprobe/cmd/util"
	"github.com/xorprobe/xorprobe/xorprobe/config"
	"github.com/xorprobe/xorprobe/xorprobe/flag"
)

// Analyze implements subcommands.Command for the "analyze" command.
type Analyze struct {
	format format
}

// Name implements subcommands.Command.Name.
func (*Analyze) Name() string {
	return "analyze"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Analyze) Synopsis() string {
	return "search for address functions in a file of previously discovered sets"
}

// Usage implements subcommands.Command.Usage.
func (*Analyze) Usage() string {
	return `analyze [flags] <sets.yaml>

analyze reads sets written by "discover --dump-sets" and runs the function
search on them. It needs no privileges and does not touch physical memory.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (a *Analyze) SetFlags(f *flag.FlagSet) {
	a.format.setFlags(f)
}

// Execute implements subcommands.Command.Execute.
func (a *Analyze) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	path := f.Arg(0)
	file, err := os.Open(path)
	if err != nil {
		return util.Errorf("opening sets file: %v", err)
	}
	defer file.Close()

	if err := analyze(file, os.Stdout, a.format, conf.Search()); err != nil {
		return util.Errorf("analyzing %q: %v", path, err)
	}
	return subcommands.ExitSuccess
}

// analyze reads sets from r and writes the search report for them to w.
func analyze(r io.Reader, w io.Writer, f format, cfg addrfn.Config) error {
	sets, err := addrfn.ReadSets(r)
	if err != nil {
		return err
	}
	log.Infof("Read %d sets", len(sets))
	res, err := addrfn.Search(sets, cfg)
	if err != nil {
		return fmt.Errorf("function search: %w", err)
	}
	return writeReport(w, f, res, len(sets))
}
