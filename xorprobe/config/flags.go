// Copyright 2020 The gVisor Authors.
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

package config

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/xorprobe/xorprobe/pkg/addrfn"
	"github.com/xorprobe/xorprobe/pkg/discovery"
	"github.com/xorprobe/xorprobe/pkg/physmem"
	"github.com/xorprobe/xorprobe/pkg/timing"
	"github.com/xorprobe/xorprobe/xorprobe/flag"
)

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	d := discovery.DefaultConfig()
	s := addrfn.DefaultConfig()
	t := timing.DefaultConfig()

	flagSet.String("config", "", "TOML file with default values for these flags. Flags given on the command line win.")

	// Debugging flags.
	flagSet.Bool("debug", false, "enable debug logging.")
	flagSet.String("log-format", "text", "log format: text (default) or json.")

	// Memory and timing.
	flagSet.Float64("p", 0.6, "fraction of physical RAM to map. Below 0.01, 2 GiB are mapped.")
	flagSet.Uint64("n", t.Reads, "number of access pairs per timing round.")
	flagSet.Int("outer-rounds", t.OuterRounds, "number of timing rounds; the fastest round is used.")
	flagSet.Int("yields", t.Yields, "number of sched_yield calls around each timing round.")
	flagSet.Uint64("stride", physmem.DefaultStride, "spacing in bytes of candidate addresses within a page.")
	flagSet.Int("priority", -20, "nice value requested for the process, best effort.")
	flagSet.Int("cpu", -1, "CPU to pin the measuring thread to. -1 leaves it unpinned.")
	flagSet.Uint64("seed", 0, "seed for address selection. 0 picks a random seed.")

	// Set identification.
	flagSet.Int("s", d.Sets, "number of sets to discover.")
	flagSet.Int("oversample", d.Oversample, "samples per set in each attempt.")
	flagSet.Int("max-attempts", d.MaxAttempts, "attempts per set before giving up.")
	flagSet.Int("separation-run", d.SeparationRun, "consecutive near-empty latency buckets that separate the colliding samples.")
	flagSet.Int("near-empty", d.NearEmpty, "largest sample count of a near-empty latency bucket.")
	flagSet.Var(polarityPtr(d.Polarity), "polarity", "latency of colliding pairs: slow (default) or fast.")
	flagSet.Var(setBoundPtr(d.SetBound), "set-bound", "largest set size: target (pool size / sets) or remaining (pool size / missing sets).")
	flagSet.Bool("commit-residual", d.CommitResidual, "commit the remaining pool as the last set when it forms a single latency cluster.")

	// Function search.
	flagSet.Float64("fp-low", s.FPLow, "functions with a probability at or below this are discarded.")
	flagSet.Float64("fp-high", s.FPHigh, "functions with a probability at or above this are discarded.")
	flagSet.Int("max-bits", s.MaxBits, "largest number of address bits in a function.")
	flagSet.Int("alignment", s.Alignment, "number of low address bits ignored.")
	flagSet.Int("address-bits", s.AddressBits, "physical address width considered.")
}

// NewFromFlags creates a new Config with values coming from command line
// flags and, for flags not given explicitly, the file named by --config.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}

	obj := reflect.ValueOf(conf).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			// No flag set for this field.
			continue
		}
		fl := flagSet.Lookup(name)
		if fl == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		x := reflect.ValueOf(flag.Get(fl.Value))
		obj.Field(i).Set(x)
	}

	if conf.ConfigFile != "" {
		if err := conf.overlayFile(flagSet, conf.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// overlayFile copies every key defined in the TOML file at path into c,
// unless the corresponding flag was set explicitly.
func (c *Config) overlayFile(flagSet *flag.FlagSet, path string) error {
	file := *c
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return fmt.Errorf("reading config file %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys in config file %q: %v", path, undecoded)
	}

	explicit := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})

	dst := reflect.ValueOf(c).Elem()
	src := reflect.ValueOf(&file).Elem()
	st := dst.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		key, ok := f.Tag.Lookup("toml")
		if !ok || key == "-" || !md.IsDefined(key) {
			continue
		}
		if explicit[f.Tag.Get("flag")] {
			continue
		}
		dst.Field(i).Set(src.Field(i))
	}
	return nil
}

// ToFlags returns a slice of flags that correspond to the given Config.
// Flags at their default value are omitted.
func (c *Config) ToFlags() []string {
	var rv []string

	// Construct a temporary set for default plumbing.
	flagSet := flag.NewFlagSet("tmp", flag.ContinueOnError)
	RegisterFlags(flagSet)

	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			// No flag set for this field.
			continue
		}
		val := getVal(obj.Field(i))

		flag := flagSet.Lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		if val == flag.DefValue {
			continue
		}
		rv = append(rv, fmt.Sprintf("--%s=%s", flag.Name, val))
	}
	return rv
}

func getVal(field reflect.Value) string {
	if str, ok := field.Addr().Interface().(fmt.Stringer); ok {
		return str.String()
	}
	switch field.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(field.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(field.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(field.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(field.Float(), 'g', -1, 64)
	case reflect.String:
		return field.String()
	default:
		panic("unknown type " + field.Kind().String())
	}
}

func polarityPtr(p discovery.Polarity) *discovery.Polarity {
	return &p
}

func setBoundPtr(b discovery.SetBound) *discovery.SetBound {
	return &b
}
