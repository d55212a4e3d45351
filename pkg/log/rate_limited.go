// Copyright 2022 The gVisor Authors.
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

package log

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedLogger drops messages over its limit and reports how many were
// dropped on the next message that gets through.
type rateLimitedLogger struct {
	logger     Logger
	limit      *rate.Limiter
	suppressed atomic.Uint64
}

// admit returns whether a message may be logged, and if so the number of
// messages dropped since the last one.
func (rl *rateLimitedLogger) admit() (uint64, bool) {
	if !rl.limit.Allow() {
		rl.suppressed.Add(1)
		return 0, false
	}
	return rl.suppressed.Swap(0), true
}

// withSuppressed appends the dropped count to a message.
func withSuppressed(dropped uint64, format string, v []any) (string, []any) {
	if dropped == 0 {
		return format, v
	}
	return format + " (%d similar messages suppressed)", append(v[:len(v):len(v)], dropped)
}

func (rl *rateLimitedLogger) Debugf(format string, v ...any) {
	if n, ok := rl.admit(); ok {
		format, v = withSuppressed(n, format, v)
		rl.logger.Debugf(format, v...)
	}
}

func (rl *rateLimitedLogger) Infof(format string, v ...any) {
	if n, ok := rl.admit(); ok {
		format, v = withSuppressed(n, format, v)
		rl.logger.Infof(format, v...)
	}
}

func (rl *rateLimitedLogger) Warningf(format string, v ...any) {
	if n, ok := rl.admit(); ok {
		format, v = withSuppressed(n, format, v)
		rl.logger.Warningf(format, v...)
	}
}

func (rl *rateLimitedLogger) IsLogging(level Level) bool {
	return rl.logger.IsLogging(level)
}

// globalLogger forwards to the logger returned by Log at call time, so a
// rate-limited logger built before SetTarget still follows the target.
type globalLogger struct{}

// The depth skips globalLogger and rateLimitedLogger frames.
func (globalLogger) Debugf(format string, v ...any) {
	Log().DebugfAtDepth(2, format, v...)
}

func (globalLogger) Infof(format string, v ...any) {
	Log().InfofAtDepth(2, format, v...)
}

func (globalLogger) Warningf(format string, v ...any) {
	Log().WarningfAtDepth(2, format, v...)
}

func (globalLogger) IsLogging(level Level) bool {
	return Log().IsLogging(level)
}

// BasicRateLimitedLogger returns a Logger that logs to the global logger at
// most burst messages per the provided duration.
func BasicRateLimitedLogger(every time.Duration, burst int) Logger {
	return RateLimitedLogger(globalLogger{}, every, burst)
}

// RateLimitedLogger returns a Logger that logs to the provided logger at most
// burst messages per the provided duration. Dropped messages are counted and
// the count is appended to the next message logged.
func RateLimitedLogger(logger Logger, every time.Duration, burst int) Logger {
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedLogger{
		logger: logger,
		limit:  rate.NewLimiter(rate.Every(every), burst),
	}
}
