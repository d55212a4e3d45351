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
	"testing"

	"github.com/google/go-cmp/cmp"
)

const intelCPUInfo = `processor	: 0
vendor_id	: GenuineIntel
cpu family	: 6
model		: 158
model name	: Intel(R) Core(TM) i7-8700 CPU @ 3.20GHz
stepping	: 10
address sizes	: 39 bits physical, 48 bits virtual

processor	: 1
vendor_id	: GenuineIntel
cpu family	: 6
model		: 158
model name	: Intel(R) Core(TM) i7-8700 CPU @ 3.20GHz
stepping	: 10
address sizes	: 39 bits physical, 48 bits virtual
`

const armCPUInfo = `processor	: 0
BogoMIPS	: 50.00
Features	: fp asimd evtstrm aes pmull sha1 sha2 crc32
CPU implementer	: 0x41
`

func TestParseCPUInfo(t *testing.T) {
	cpus, err := ParseCPUInfo(intelCPUInfo)
	if err != nil {
		t.Fatalf("ParseCPUInfo failed: %v", err)
	}
	want := []*CPU{
		{
			Processor:    0,
			VendorID:     "GenuineIntel",
			Family:       6,
			Model:        158,
			ModelName:    "Intel(R) Core(TM) i7-8700 CPU @ 3.20GHz",
			PhysicalBits: 39,
			VirtualBits:  48,
		},
		{
			Processor:    1,
			VendorID:     "GenuineIntel",
			Family:       6,
			Model:        158,
			ModelName:    "Intel(R) Core(TM) i7-8700 CPU @ 3.20GHz",
			PhysicalBits: 39,
			VirtualBits:  48,
		},
	}
	if diff := cmp.Diff(want, cpus); diff != "" {
		t.Errorf("ParseCPUInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCPUInfoSparse(t *testing.T) {
	cpus, err := ParseCPUInfo(armCPUInfo)
	if err != nil {
		t.Fatalf("ParseCPUInfo failed: %v", err)
	}
	if diff := cmp.Diff([]*CPU{{Processor: 0}}, cpus); diff != "" {
		t.Errorf("ParseCPUInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCPUInfoErrors(t *testing.T) {
	for _, data := range []string{
		"",
		"vendor_id : GenuineIntel\n",
		"processor : 0\naddress sizes : lots\n",
	} {
		t.Run(fmt.Sprintf("%q", data), func(t *testing.T) {
			if cpus, err := ParseCPUInfo(data); err == nil {
				t.Errorf("ParseCPUInfo: got (%v, nil), wanted error", cpus)
			}
		})
	}
}

func TestMaxValueInLinuxBitmap(t *testing.T) {
	for _, test := range []struct {
		str string
		max uint64
	}{
		{"0", 0},
		{"0\n", 0},
		{"0,2", 2},
		{"0-63", 63},
		{"0-3,8-11", 11},
	} {
		t.Run(fmt.Sprintf("%q", test.str), func(t *testing.T) {
			max, err := maxValueInLinuxBitmap(test.str)
			if err != nil || max != test.max {
				t.Errorf("maxValueInLinuxBitmap: got (%d, %v), wanted (%d, nil)", max, err, test.max)
			}
		})
	}
}

func TestMaxValueInLinuxBitmapErrors(t *testing.T) {
	for _, str := range []string{"", "\n"} {
		t.Run(fmt.Sprintf("%q", str), func(t *testing.T) {
			max, err := maxValueInLinuxBitmap(str)
			if err == nil {
				t.Errorf("maxValueInLinuxBitmap: got (%d, nil), wanted (_, error)", max)
			}
		})
	}
}

func TestTotalRAM(t *testing.T) {
	ram, err := TotalRAM()
	if err != nil {
		t.Fatalf("TotalRAM failed: %v", err)
	}
	if ram == 0 {
		t.Errorf("TotalRAM returned 0")
	}
}
