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

// Package cli is the main entrypoint for xorprobe.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/google/subcommands"

	"github.com/xorprobe/xorprobe/pkg/log"
	"github.com/xorprobe/xorprobe/xorprobe/cmd"
	"github.com/xorprobe/xorprobe/xorprobe/cmd/util"
	"github.com/xorprobe/xorprobe/xorprobe/config"
	"github.com/xorprobe/xorprobe/xorprobe/flag"
)

// defaultCommand runs when no command is given.
const defaultCommand = "discover"

// Main is the main entrypoint.
func Main() {
	// Register all commands.
	forEachCmd(subcommands.Register)

	// Register with the main command line.
	config.RegisterFlags(flag.CommandLine)

	// All subcommands must be registered before flag parsing.
	flag.Parse()
	if flag.CommandLine.NArg() == 0 {
		// Parse only replaces the remaining arguments; flag values stay.
		_ = flag.CommandLine.Parse([]string{defaultCommand})
	}

	// Create a new Config from the flags.
	conf, err := config.NewFromFlags(flag.CommandLine)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.CommandLine.Usage()
		os.Exit(2)
	}

	// Logs go to stderr; stdout carries histograms and reports.
	log.SetTarget(newEmitter(conf.LogFormat, os.Stderr))
	if conf.Debug {
		log.SetLevel(log.Debug)
	}

	const delimString = `**************** xorprobe ****************`
	log.Infof(delimString)
	log.Infof("%s, %s, %d CPUs, PID %d, UID %d", runtime.Version(), runtime.GOARCH, runtime.NumCPU(), os.Getpid(), os.Getuid())
	log.Debugf("Page size: 0x%x (%d bytes)", os.Getpagesize(), os.Getpagesize())
	log.Infof("Args: %v", os.Args)
	conf.Log()
	log.Infof(delimString)

	// Call the subcommand and pass in the configuration.
	switch status := subcommands.Execute(context.Background(), conf); status {
	case subcommands.ExitSuccess:
		os.Exit(0)
	case subcommands.ExitUsageError:
		os.Exit(2)
	default:
		log.Warningf("Failure to execute command, err: %v", status)
		// Return an error that is unlikely to be confused with a usage error.
		os.Exit(128)
	}
}

// forEachCmd invokes the passed callback for each command supported by
// xorprobe.
func forEachCmd(cb func(cmd subcommands.Command, group string)) {
	// Help and flags commands are generated automatically.
	cb(subcommands.HelpCommand(), "")
	cb(subcommands.FlagsCommand(), "")
	cb(subcommands.CommandsCommand(), "")

	cb(new(cmd.Discover), "")
	cb(new(cmd.Analyze), "")

	const debugGroup = "debug"
	cb(new(cmd.Translate), debugGroup)
}

func newEmitter(format string, logFile io.Writer) log.Emitter {
	switch format {
	case "text":
		return log.GoogleEmitter{&log.Writer{Next: logFile}}
	case "json":
		return log.JSONEmitter{&log.Writer{Next: logFile}}
	}
	util.Fatalf("invalid log format %q, must be 'text' or 'json'", format)
	panic("unreachable")
}
