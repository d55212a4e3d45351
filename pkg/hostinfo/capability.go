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

package hostinfo

import (
	"os"

	"github.com/moby/sys/capability"
)

// Privileges records the capabilities that change how probing behaves.
type Privileges struct {
	// SysAdmin is required to read physical frame numbers from pagemap.
	SysAdmin bool

	// SysNice is required to raise the scheduling priority.
	SysNice bool
}

// CheckPrivileges loads the effective capability set of the process.
func CheckPrivileges() (Privileges, error) {
	caps, err := capability.NewPid2(os.Getpid())
	if err != nil {
		return Privileges{}, err
	}
	if err := caps.Load(); err != nil {
		return Privileges{}, err
	}
	return Privileges{
		SysAdmin: caps.Get(capability.EFFECTIVE, capability.CAP_SYS_ADMIN),
		SysNice:  caps.Get(capability.EFFECTIVE, capability.CAP_SYS_NICE),
	}, nil
}
