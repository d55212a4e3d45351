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

package sched

import (
	"runtime"
	"testing"

	"golang.org/x/sys/unix"
)

// nice returns the nice value of the calling thread. The raw syscall reports
// 20 - nice.
func nice(t *testing.T) int {
	t.Helper()
	raw, err := unix.Getpriority(unix.PRIO_PROCESS, 0)
	if err != nil {
		t.Fatalf("getpriority: %v", err)
	}
	return 20 - raw
}

func TestYield(t *testing.T) {
	YieldN(10)
}

func TestSetPriorityRange(t *testing.T) {
	for _, prio := range []int{-21, 20} {
		if err := SetPriority(prio); err == nil {
			t.Errorf("SetPriority(%d) succeeded", prio)
		}
	}
}

func TestPinRange(t *testing.T) {
	for _, cpu := range []int{-1, 9} {
		if err := Pin(cpu, 8); err == nil {
			t.Errorf("Pin(%d, 8) succeeded", cpu)
		}
	}
}

func TestPinAllowed(t *testing.T) {
	// The thread stays locked so it is discarded along with its affinity.
	runtime.LockOSThread()

	before, err := Allowed()
	if err != nil || len(before) == 0 {
		t.Skipf("Allowed() = (%v, %v)", before, err)
	}
	if err := Pin(before[0], uint32(before[len(before)-1])); err != nil {
		t.Fatalf("Pin(%d) failed: %v", before[0], err)
	}
	after, err := Allowed()
	if err != nil {
		t.Fatalf("Allowed() failed: %v", err)
	}
	if len(after) != 1 || after[0] != before[0] {
		t.Errorf("Allowed() after Pin(%d) = %v", before[0], after)
	}
}

func TestLockThreadPriority(t *testing.T) {
	// Held past the helper's unlock so the thread is discarded at exit.
	runtime.LockOSThread()

	before := nice(t)
	if before >= 19 {
		t.Skipf("nice value already %d", before)
	}
	unlock, err := LockThread(before+1, -1, 0)
	if err != nil {
		t.Fatalf("LockThread failed: %v", err)
	}
	defer unlock()
	if got := nice(t); got != before+1 {
		t.Errorf("nice value on the locked thread = %d, wanted %d", got, before+1)
	}
}

func TestLockThreadBadCPU(t *testing.T) {
	if _, err := LockThread(0, 9, 8); err == nil {
		t.Errorf("LockThread with cpu 9 of 8 succeeded")
	}
}

func TestPinOutsideAllowed(t *testing.T) {
	runtime.LockOSThread()

	allowed, err := Allowed()
	if err != nil || len(allowed) == 0 {
		t.Skipf("Allowed() = (%v, %v)", allowed, err)
	}
	// The first CPU past the mask is never allowed.
	outside := allowed[len(allowed)-1] + 1
	if err := Pin(outside, uint32(outside)); err == nil {
		t.Errorf("Pin(%d) outside %v succeeded", outside, allowed)
	}
}
