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
	"io"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Set is an ascending list of physical addresses that share a slice.
type Set []uint64

// NewSet returns the sorted, deduplicated set of addrs.
func NewSet(addrs []uint64) Set {
	s := slices.Clone(addrs)
	slices.Sort(s)
	return Set(slices.Compact(s))
}

// Representative returns the first address of s. s must not be empty.
func (s Set) Representative() uint64 {
	return s[0]
}

// MarshalYAML implements yaml.Marshaler. Addresses are written in hex.
func (s Set) MarshalYAML() (any, error) {
	out := make([]string, len(s))
	for i, a := range s {
		out[i] = fmt.Sprintf("%#x", a)
	}
	return out, nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Any base accepted by
// strconv.ParseUint with base 0 may be used.
func (s *Set) UnmarshalYAML(value *yaml.Node) error {
	var raw []string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	addrs := make([]uint64, len(raw))
	for i, r := range raw {
		a, err := strconv.ParseUint(r, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid address %q: %w", value.Line, r, err)
		}
		addrs[i] = a
	}
	*s = NewSet(addrs)
	return nil
}

// SetFile is the on-disk form of discovered sets.
type SetFile struct {
	Sets []Set `yaml:"sets"`
}

// ReadSets decodes a SetFile.
func ReadSets(r io.Reader) ([]Set, error) {
	var f SetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding sets: %w", err)
	}
	return f.Sets, nil
}

// WriteSets encodes sets as a SetFile.
func WriteSets(w io.Writer, sets []Set) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(SetFile{Sets: sets}); err != nil {
		return err
	}
	return enc.Close()
}
