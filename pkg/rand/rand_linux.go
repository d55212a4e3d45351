// Copyright 2018 Google Inc.
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

// Package rand implements a cryptographically secure pseudorandom number
// generator and seeds the fast generators used for address sampling.
package rand

import (
	"encoding/binary"
	"io"
	mrand "math/rand/v2"

	"golang.org/x/sys/unix"
)

// reader implements an io.Reader that returns pseudorandom bytes.
type reader struct{}

// Read implements io.Reader.Read.
func (reader) Read(p []byte) (int, error) {
	return unix.Getrandom(p, 0)
}

// Reader is the default reader.
var Reader io.Reader = reader{}

// Read reads from the default reader.
func Read(b []byte) (int, error) {
	return io.ReadFull(Reader, b)
}

// Seed returns a nonzero seed drawn from Reader.
func Seed() (uint64, error) {
	var b [8]byte
	for {
		if _, err := Read(b[:]); err != nil {
			return 0, err
		}
		if s := binary.LittleEndian.Uint64(b[:]); s != 0 {
			return s, nil
		}
	}
}

// New returns a deterministic generator for a nonzero seed. A zero seed is
// replaced with one from Seed; the seed in use is returned.
func New(seed uint64) (*mrand.Rand, uint64, error) {
	if seed == 0 {
		var err error
		if seed, err = Seed(); err != nil {
			return nil, 0, err
		}
	}
	return mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), seed, nil
}
