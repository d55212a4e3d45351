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

package hostinfo

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	processorKey    = "processor"
	vendorIDKey     = "vendor_id"
	cpuFamilyKey    = "cpu family"
	modelKey        = "model"
	modelNameKey    = "model name"
	addressSizesKey = "address sizes"
)

// CPU represents pertinent info about a cpu entry in /proc/cpuinfo.
type CPU struct {
	Processor    int64  // the processor number of this CPU.
	VendorID     string // the vendorID of CPU (e.g. AuthenticAMD).
	Family       int64  // CPU family number (e.g. 6 for Skylake).
	Model        int64  // CPU model number (e.g. 158 for Coffee Lake).
	ModelName    string // marketing name of the CPU.
	PhysicalBits int    // physical address width, 0 if unreported.
	VirtualBits  int    // virtual address width, 0 if unreported.
}

// ParseCPUInfo returns cpu structs from the contents of /proc/cpuinfo.
func ParseCPUInfo(data string) ([]*CPU, error) {
	// Each processor entry should start with the
	// processor key. Find the beginings of each.
	r := buildRegex(processorKey, `\d+`)
	indices := r.FindAllStringIndex(data, -1)
	if len(indices) < 1 {
		return nil, fmt.Errorf("no cpus found for: %q", data)
	}

	// Add the ending index for last entry.
	indices = append(indices, []int{len(data), -1})

	cpus := make([]*CPU, 0, len(indices)-1)
	for i := 1; i < len(indices); i++ {
		start := indices[i-1][0]
		end := indices[i][0]
		c, err := parseCPU(data[start:end])
		if err != nil {
			return nil, err
		}
		cpus = append(cpus, c)
	}
	return cpus, nil
}

// parseCPU parses a single cpu entry. Only the processor number is required;
// the other fields vary between architectures and are left zero when absent.
func parseCPU(data string) (*CPU, error) {
	processor, err := parseIntegerResult(data, processorKey)
	if err != nil {
		return nil, err
	}
	c := &CPU{Processor: processor}
	c.VendorID, _ = parseRegex(data, vendorIDKey, `\S+`)
	c.Family, _ = parseIntegerResult(data, cpuFamilyKey)
	c.Model, _ = parseIntegerResult(data, modelKey)
	c.ModelName, _ = parseRegex(data, modelNameKey, `.*?`)
	if sizes, err := parseRegex(data, addressSizesKey, `.*?`); err == nil {
		c.PhysicalBits, c.VirtualBits, err = parseAddressSizes(sizes)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

var addressSizesRegex = regexp.MustCompile(`^(\d+) bits physical, (\d+) bits virtual$`)

// parseAddressSizes parses e.g. "39 bits physical, 48 bits virtual".
func parseAddressSizes(s string) (int, int, error) {
	m := addressSizesRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("malformed %s: %q", addressSizesKey, s)
	}
	phys, _ := strconv.Atoi(m[1])
	virt, _ := strconv.Atoi(m[2])
	return phys, virt, nil
}

// parseIntegerResult parses fields expecting an integer.
func parseIntegerResult(data, key string) (int64, error) {
	result, err := parseRegex(data, key, `\d+`)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(result, 0, 64)
}

// buildRegex builds a regex for parsing each CPU field.
func buildRegex(key, match string) *regexp.Regexp {
	reg := fmt.Sprintf(`(?m)^%s\s*:\s*(%s)\s*$`, key, match)
	return regexp.MustCompile(reg)
}

// parseRegex parses data with key inserted into a standard regex template.
func parseRegex(data, key, match string) (string, error) {
	r := buildRegex(key, match)
	matches := r.FindStringSubmatch(data)
	if len(matches) < 2 {
		return "", fmt.Errorf("failed to match key %q", key)
	}
	return matches[1], nil
}
