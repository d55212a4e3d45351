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

// Package pagemap translates virtual addresses of the calling process to
// physical addresses through /proc/self/pagemap.
package pagemap

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/xorprobe/xorprobe/pkg/errors"
	"github.com/xorprobe/xorprobe/pkg/hostarch"
)

// Path is the pagemap of the calling process.
const Path = "/proc/self/pagemap"

const (
	// entrySize is the size of one pagemap entry in bytes.
	entrySize = 8

	// presentBit is set when the page is resident in RAM.
	presentBit = 63

	// pfnMask selects the page frame number, bits 0-54.
	pfnMask = (uint64(1) << 55) - 1
)

// Translator maps a virtual address to a physical one.
type Translator interface {
	Translate(virt uintptr) (uint64, error)
}

// Reader reads pagemap entries.
type Reader struct {
	fd int
}

// Open opens the pagemap file at path.
func Open(path string) (*Reader, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Fatalf("open %s: %w", path, err)
	}
	return &Reader{fd: fd}, nil
}

// Translate implements Translator.Translate.
func (r *Reader) Translate(virt uintptr) (uint64, error) {
	var buf [entrySize]byte
	off := int64(hostarch.Addr(virt).PageNumber()) * entrySize
	n, err := unix.Pread(r.fd, buf[:], off)
	if err != nil {
		return 0, errors.Fatalf("pread pagemap at %#x for %#x: %w", off, virt, err)
	}
	if n != entrySize {
		return 0, errors.Fatalf("short pagemap read for %#x: %d bytes", virt, n)
	}
	return Decode(binary.LittleEndian.Uint64(buf[:]), virt)
}

// Close closes the pagemap file.
func (r *Reader) Close() error {
	if r.fd < 0 {
		return nil
	}
	err := unix.Close(r.fd)
	r.fd = -1
	return err
}

// Decode converts a raw pagemap entry for virt into a physical address.
func Decode(entry uint64, virt uintptr) (uint64, error) {
	if entry&(1<<presentBit) == 0 {
		return 0, errors.Fatalf("page of %#x is not present", virt)
	}
	pfn := entry & pfnMask
	if pfn == 0 {
		return 0, errors.Fatalf("page frame number of %#x is hidden, CAP_SYS_ADMIN is required", virt)
	}
	return pfn<<hostarch.PageShift | hostarch.Addr(virt).PageOffset(), nil
}

// String implements fmt.Stringer.String.
func (r *Reader) String() string {
	return fmt.Sprintf("pagemap(fd=%d)", r.fd)
}
