// Copyright 2018 The gVisor Authors.
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

// Package hostarch describes the host page geometry and provides address
// arithmetic on it.
package hostarch

import "golang.org/x/sys/unix"

const (
	// PageShift is the binary log of the system page size.
	PageShift = 12

	// PageSize is the system page size.
	PageSize = 1 << PageShift

	// PageOffsetMask masks the offset of an address within its page.
	PageOffsetMask = PageSize - 1
)

func init() {
	if size := unix.Getpagesize(); size != PageSize {
		panic("only 4K pages are supported")
	}
}
