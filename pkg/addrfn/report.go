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

	"gopkg.in/yaml.v3"
)

// WriteText writes the human readable report. target is the number of sets
// that was requested.
func WriteText(w io.Writer, r *Result, target int) error {
	if _, err := fmt.Fprintf(w, "Found %d of %d sets\n", r.Sets, target); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "reduced to %d functions\n", r.Rank); err != nil {
		return err
	}
	for _, c := range r.Accepted() {
		if _, err := fmt.Fprintf(w, "%s (Correct: %d%%)\n", c.Function, c.Confidence()); err != nil {
			return err
		}
	}
	return nil
}

type yamlFunction struct {
	Bits        string  `yaml:"bits"`
	Mask        string  `yaml:"mask"`
	Probability float64 `yaml:"probability"`
	Confidence  int     `yaml:"confidence"`
}

type yamlReport struct {
	Sets       int            `yaml:"sets"`
	Target     int            `yaml:"target"`
	Rank       int            `yaml:"rank"`
	Functions  []yamlFunction `yaml:"functions"`
	Duplicates []string       `yaml:"duplicates,omitempty"`
}

// WriteYAML writes the report as a YAML document.
func WriteYAML(w io.Writer, r *Result, target int) error {
	rep := yamlReport{
		Sets:      r.Sets,
		Target:    target,
		Rank:      r.Rank,
		Functions: []yamlFunction{},
	}
	for _, c := range r.Candidates {
		switch c.Verdict {
		case Accepted:
			rep.Functions = append(rep.Functions, yamlFunction{
				Bits:        c.String(),
				Mask:        fmt.Sprintf("%#x", c.Mask),
				Probability: c.Probability,
				Confidence:  c.Confidence(),
			})
		case Duplicate:
			rep.Duplicates = append(rep.Duplicates, c.String())
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}
