// Copyright 2019 The gVisor Authors.
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

// Package cpuid describes the properties of the host processor that matter
// when timing cache accesses.
package cpuid

import (
	"fmt"
	"strings"
)

// cpuidFunction is a useful type wrapper. The format is eax | (ecx << 32).
type cpuidFunction uint64

const (
	vendorID    cpuidFunction = 0x0 // Returns vendor ID and largest standard function.
	featureInfo cpuidFunction = 0x1 // Returns basic feature bits and processor signature.
)

// The "extended" functions.
const (
	extendedStart         cpuidFunction = 0x80000000
	extendedFunctionInfo  cpuidFunction = extendedStart + 0 // Returns highest available extended function in eax.
	extendedFeatures                    = extendedStart + 1 // Returns some extended feature bits in edx and ecx.
	processorBrandString2               = extendedStart + 2 // Processor Name String Identifier.
	processorBrandString3               = extendedStart + 3 // Processor Name String Identifier.
	processorBrandString4               = extendedStart + 4 // Processor Name String Identifier.
	powerManagement                     = extendedStart + 7 // Advanced power management, including invariant TSC.
	addressSizes                        = extendedStart + 8 // Physical and virtual address sizes.
)

// Function executes a CPUID function.
//
// This is typically the native function or a Static definition.
type Function interface {
	Query(In) Out
}

// In is input to the Query function.
type In struct {
	Eax uint32
	Ecx uint32
}

// Out is output from the Query function.
type Out struct {
	Eax uint32
	Ebx uint32
	Ecx uint32
	Edx uint32
}

// Static is a static CPUID function.
type Static map[In]Out

// Query implements Function.Query. Missing leaves read as zero.
func (s Static) Query(in In) Out {
	return s[in]
}

// Info is the subset of processor properties used by the prober.
type Info struct {
	Vendor              string
	Brand               string
	Family              uint32
	Model               uint32
	Stepping            uint32
	CacheLine           int
	PhysicalAddressBits int
	VirtualAddressBits  int
	CLFLUSH             bool
	RDTSCP              bool
	InvariantTSC        bool
}

// String implements fmt.Stringer.String.
func (i Info) String() string {
	return fmt.Sprintf("%s %q family=%#x model=%#x stepping=%d line=%d paddr=%d vaddr=%d clflush=%t rdtscp=%t invariant_tsc=%t",
		i.Vendor, i.Brand, i.Family, i.Model, i.Stepping, i.CacheLine,
		i.PhysicalAddressBits, i.VirtualAddressBits, i.CLFLUSH, i.RDTSCP, i.InvariantTSC)
}

func regString(regs ...uint32) string {
	b := make([]byte, 0, 4*len(regs))
	for _, r := range regs {
		b = append(b, byte(r), byte(r>>8), byte(r>>16), byte(r>>24))
	}
	return string(b)
}

// Parse decodes the leaves of fn into an Info.
func Parse(fn Function) Info {
	var info Info
	out := fn.Query(In{Eax: uint32(vendorID)})
	info.Vendor = regString(out.Ebx, out.Edx, out.Ecx)
	maxBasic := out.Eax

	if maxBasic >= uint32(featureInfo) {
		out = fn.Query(In{Eax: uint32(featureInfo)})
		info.Stepping = out.Eax & 0xf
		info.Family = (out.Eax >> 8) & 0xf
		info.Model = (out.Eax >> 4) & 0xf
		if info.Family == 0xf {
			info.Family += (out.Eax >> 20) & 0xff
		}
		if info.Family == 0x6 || info.Family >= 0xf {
			info.Model += ((out.Eax >> 16) & 0xf) << 4
		}
		info.CLFLUSH = out.Edx&(1<<19) != 0
		if info.CLFLUSH {
			info.CacheLine = int((out.Ebx>>8)&0xff) * 8
		}
	}

	maxExtended := fn.Query(In{Eax: uint32(extendedFunctionInfo)}).Eax
	if maxExtended >= uint32(extendedFeatures) {
		info.RDTSCP = fn.Query(In{Eax: uint32(extendedFeatures)}).Edx&(1<<27) != 0
	}
	if maxExtended >= uint32(processorBrandString4) {
		var regs []uint32
		for _, f := range []cpuidFunction{processorBrandString2, processorBrandString3, processorBrandString4} {
			o := fn.Query(In{Eax: uint32(f)})
			regs = append(regs, o.Eax, o.Ebx, o.Ecx, o.Edx)
		}
		info.Brand = strings.TrimSpace(strings.TrimRight(regString(regs...), "\x00"))
	}
	if maxExtended >= uint32(powerManagement) {
		info.InvariantTSC = fn.Query(In{Eax: uint32(powerManagement)}).Edx&(1<<8) != 0
	}
	if maxExtended >= uint32(addressSizes) {
		out = fn.Query(In{Eax: uint32(addressSizes)})
		info.PhysicalAddressBits = int(out.Eax & 0xff)
		info.VirtualAddressBits = int((out.Eax >> 8) & 0xff)
	}
	return info
}
