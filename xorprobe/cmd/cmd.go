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

// Package cmd holds implementations of the xorprobe commands.
package cmd

import (
	"fmt"
	"io"

	"github.com/xorprobe/xorprobe/pkg/addrfn"
	"github.com/xorprobe/xorprobe/pkg/hostinfo"
	"github.com/xorprobe/xorprobe/pkg/log"
	"github.com/xorprobe/xorprobe/pkg/pagemap"
	"github.com/xorprobe/xorprobe/pkg/physmem"
	"github.com/xorprobe/xorprobe/xorprobe/config"
	"github.com/xorprobe/xorprobe/xorprobe/flag"
)

// format is the report format flag shared by discover and analyze.
type format string

const (
	formatText format = "text"
	formatYAML format = "yaml"
)

// String implements flag.Value.String.
func (f *format) String() string {
	return string(*f)
}

// Get implements flag.Value.Get.
func (f *format) Get() any {
	return *f
}

// Set implements flag.Value.Set.
func (f *format) Set(v string) error {
	switch format(v) {
	case formatText, formatYAML:
		*f = format(v)
		return nil
	default:
		return fmt.Errorf("invalid format %q, must be text or yaml", v)
	}
}

func (f *format) setFlags(fs *flag.FlagSet) {
	*f = formatText
	fs.Var(f, "format", "report format: text (default) or yaml.")
}

// writeReport writes r in format f. target is the number of sets the
// search was asked for.
func writeReport(w io.Writer, f format, r *addrfn.Result, target int) error {
	if f == formatYAML {
		return addrfn.WriteYAML(w, r, target)
	}
	return addrfn.WriteText(w, r, target)
}

// openMapping maps the configured share of RAM, translated through the
// pagemap of this process.
func openMapping(conf *config.Config, host *hostinfo.Host) (*physmem.Mapping, error) {
	if !host.Privileges.SysAdmin {
		log.Warningf("CAP_SYS_ADMIN is missing, physical addresses are likely hidden")
	}
	reader, err := pagemap.Open(pagemap.Path)
	if err != nil {
		return nil, err
	}
	size := physmem.MappingSize(host.TotalRAM, conf.Fraction)
	log.Infof("Mapping %d MiB with stride %d", size>>20, conf.Stride)
	m, err := physmem.Allocate(size, conf.Stride, reader)
	if err != nil {
		reader.Close()
		return nil, err
	}
	return m, nil
}
