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

package cacheline

import (
	"testing"

	"github.com/xorprobe/xorprobe/pkg/memutil"
)

func TestPrimitives(t *testing.T) {
	if !Supported() {
		t.Skip("CLFLUSH/RDTSCP not available")
	}
	m, err := memutil.MapPopulated(2 << 20)
	if err != nil {
		t.Fatalf("MapPopulated failed: %v", err)
	}
	defer memutil.UnmapSlice(m)

	a := memutil.Base(m)
	b := a + 1<<20
	Flush(a)
	if c := TimedRead(a); c == 0 {
		t.Errorf("TimedRead returned zero cycles")
	}
	if c := AccessPair(a, b, 100); c == 0 {
		t.Errorf("AccessPair returned zero cycles")
	}
	if c := AccessPair(a, b, 0); c == 0 {
		t.Errorf("AccessPair with no iterations returned zero cycles")
	}
}
