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

//go:build !amd64
// +build !amd64

package cacheline

// Flush is not implemented on this architecture.
func Flush(addr uintptr) {
	panic("cacheline: Flush not supported")
}

// TimedRead is not implemented on this architecture.
func TimedRead(addr uintptr) uint64 {
	panic("cacheline: TimedRead not supported")
}

// AccessPair is not implemented on this architecture.
func AccessPair(a, b uintptr, n uint64) uint64 {
	panic("cacheline: AccessPair not supported")
}

// Supported returns whether the primitives are available on this host.
func Supported() bool {
	return false
}
