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

// Package sched wraps the scheduler controls used to steady latency
// measurements: yielding, priority and CPU affinity.
package sched

import (
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sys/unix"

	"github.com/xorprobe/xorprobe/pkg/log"
)

// Yield relinquishes the processor.
//
//go:nosplit
func Yield() {
	unix.RawSyscall(unix.SYS_SCHED_YIELD, 0, 0, 0)
}

// YieldN calls Yield n times.
func YieldN(n int) {
	for i := 0; i < n; i++ {
		Yield()
	}
}

// SetPriority sets the nice value of the calling thread. Negative values
// require CAP_SYS_NICE.
func SetPriority(prio int) error {
	if prio < -20 || prio > 19 {
		return fmt.Errorf("priority %d out of range [-20, 19]", prio)
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, prio); err != nil {
		return fmt.Errorf("setpriority(%d): %w", prio, err)
	}
	return nil
}

// Pin restricts the calling thread to cpu, which must not exceed maxCPU. The
// caller should hold runtime.LockOSThread.
func Pin(cpu int, maxCPU uint32) error {
	if cpu < 0 || uint32(cpu) > maxCPU {
		return fmt.Errorf("cpu %d out of range [0, %d]", cpu, maxCPU)
	}
	if allowed, err := Allowed(); err == nil && !slices.Contains(allowed, cpu) {
		return fmt.Errorf("cpu %d not in the allowed set %v", cpu, allowed)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity(%d): %w", cpu, err)
	}
	return nil
}

// Allowed returns the CPUs the calling thread may run on.
func Allowed() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("sched_getaffinity: %w", err)
	}
	var cpus []int
	for i := 0; i < len(set)*64 && len(cpus) < set.Count(); i++ {
		if set.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	return cpus, nil
}

// LockThread wires the calling goroutine to its OS thread, then applies the
// nice value prio and, when cpu is not negative, pins the thread to cpu. Both
// settings are per thread, so they only hold while the lock does. A priority
// that cannot be set is logged; a failed pin unlocks and returns the error.
func LockThread(prio, cpu int, maxCPU uint32) (unlock func(), err error) {
	runtime.LockOSThread()
	if err := SetPriority(prio); err != nil {
		log.Warningf("Could not raise priority to %d: %v", prio, err)
	}
	if cpu >= 0 {
		if err := Pin(cpu, maxCPU); err != nil {
			runtime.UnlockOSThread()
			return nil, err
		}
		log.Infof("Pinned to CPU %d", cpu)
	}
	return runtime.UnlockOSThread, nil
}
