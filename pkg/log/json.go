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

package log

import (
	"encoding/json"
	"fmt"
	"path"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// jsonRecord is one line of JSON log output.
type jsonRecord struct {
	Time   time.Time `json:"time"`
	Level  Level     `json:"level"`
	Caller string    `json:"caller,omitempty"`
	Msg    string    `json:"msg"`
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (l Level) MarshalText() ([]byte, error) {
	switch l {
	case Warning, Info, Debug:
		return []byte(strings.ToLower(l.String())), nil
	default:
		return nil, fmt.Errorf("unknown level %d", uint32(l))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText. It accepts
// level names in any case as well as their numeric values.
func (l *Level) UnmarshalText(b []byte) error {
	s := strings.ToLower(string(b))
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		if Level(n) > Debug {
			return fmt.Errorf("unknown level %d", n)
		}
		*l = Level(n)
		return nil
	}
	for _, lv := range []Level{Warning, Info, Debug} {
		if s == strings.ToLower(lv.String()) {
			*l = lv
			return nil
		}
	}
	return fmt.Errorf("unknown level %q", s)
}

// JSONEmitter logs messages as one JSON object per line, with the call site
// in its own field.
type JSONEmitter struct {
	*Writer
}

// Emit implements Emitter.Emit.
func (e JSONEmitter) Emit(depth int, level Level, timestamp time.Time, format string, v ...any) {
	r := jsonRecord{
		Time:  timestamp,
		Level: level,
		Msg:   fmt.Sprintf(format, v...),
	}
	if _, file, line, ok := runtime.Caller(depth + 1); ok {
		r.Caller = path.Base(file) + ":" + strconv.Itoa(line)
	}
	b, err := json.Marshal(r)
	if err != nil {
		// Only an invalid level can fail; keep the message.
		r.Level = Warning
		r.Msg = fmt.Sprintf("%s (%v)", r.Msg, err)
		b, _ = json.Marshal(r)
	}
	e.Writer.Write(append(b, '\n'))
}
