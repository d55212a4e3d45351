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

//go:build amd64
// +build amd64

package cacheline

import "github.com/xorprobe/xorprobe/pkg/cpuid"

// Flush evicts the line holding addr from every cache level.
//
//go:noescape
func Flush(addr uintptr)

// TimedRead returns the cycles taken by one load from addr, fenced on both
// sides.
//
//go:noescape
func TimedRead(addr uintptr) uint64

// AccessPair loads a then b and flushes both lines, n times, and returns the
// elapsed cycles. The counter reads are serialized with CPUID.
//
//go:noescape
func AccessPair(a, b uintptr, n uint64) uint64

var supported = func() bool {
	info := cpuid.Host()
	return info.CLFLUSH && info.RDTSCP
}()

// Supported returns whether the primitives are available on this host.
func Supported() bool {
	return supported
}
