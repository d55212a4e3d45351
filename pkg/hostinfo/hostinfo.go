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

// Package hostinfo describes the machine being probed: processor model,
// memory size, possible CPUs and process privileges.
package hostinfo

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/xorprobe/xorprobe/pkg/cpuid"
	"github.com/xorprobe/xorprobe/pkg/log"
)

// Host summarizes the host.
type Host struct {
	ModelName      string
	CPUID          cpuid.Info
	TotalRAM       uint64
	MaxPossibleCPU uint32
	Privileges     Privileges
}

// TotalRAM returns the size of physical memory in bytes.
func TotalRAM() (uint64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("sysinfo: %w", err)
	}
	return uint64(info.Totalram) * uint64(info.Unit), nil
}

// Probe collects the host description. Only the RAM size is required; the
// remaining fields are filled in on a best effort basis.
func Probe() (*Host, error) {
	ram, err := TotalRAM()
	if err != nil {
		return nil, err
	}
	h := &Host{
		TotalRAM: ram,
		CPUID:    cpuid.Host(),
	}
	if data, err := os.ReadFile("/proc/cpuinfo"); err != nil {
		log.Warningf("Could not read /proc/cpuinfo: %v", err)
	} else if cpus, err := ParseCPUInfo(string(data)); err != nil {
		log.Warningf("Could not parse /proc/cpuinfo: %v", err)
	} else {
		h.ModelName = cpus[0].ModelName
	}
	if h.ModelName == "" {
		h.ModelName = h.CPUID.Brand
	}
	if h.MaxPossibleCPU, err = MaxPossibleCPU(); err != nil {
		log.Warningf("Could not read possible CPUs: %v", err)
	}
	if h.Privileges, err = CheckPrivileges(); err != nil {
		log.Warningf("Could not load capabilities: %v", err)
	}
	return h, nil
}

// Log logs the host description.
func (h *Host) Log() {
	log.Infof("CPU: %s", h.ModelName)
	log.Infof("RAM: %d MiB, CPUs: 0-%d", h.TotalRAM>>20, h.MaxPossibleCPU)
	log.Debugf("CPUID: %v", h.CPUID)
	log.Debugf("Privileges: CAP_SYS_ADMIN=%t CAP_SYS_NICE=%t", h.Privileges.SysAdmin, h.Privileges.SysNice)
}
