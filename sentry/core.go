// Copyright 2019 SpotHero
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

package sentry

import (
	"fmt"
	"regexp"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loggerFieldKey is the key of the zap field carrying a request scoped hub
const loggerFieldKey = "sentry_hub"

type hubZapField struct {
	*sentry.Hub
}

// Hub returns a zap field that routes events logged with it to the given hub
// instead of the global one. The field is never encoded by other cores.
func Hub(hub *sentry.Hub) zap.Field {
	return zap.Field{Key: loggerFieldKey, Type: zapcore.SkipType, Interface: hubZapField{hub}}
}

// Core is a zapcore.Core that sends error logs and above to Sentry. Register it
// with log.Config.Cores.
type Core struct {
	zapcore.LevelEnabler
	withFields []zapcore.Field
}

// NewCore returns a Core reporting entries at ErrorLevel and above
func NewCore() *Core {
	return &Core{LevelEnabler: zapcore.ErrorLevel}
}

// With returns a copy of the core carrying the additional fields
func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	if len(fields) == 0 {
		return c
	}
	clone := *c
	clone.withFields = append(append(make([]zapcore.Field, 0, len(c.withFields)+len(fields)), c.withFields...), fields...)
	return &clone
}

// Check adds the core for entries at error level and above
func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if ent.Level >= zapcore.ErrorLevel {
		return ce.AddCore(ent, c)
	}
	return ce
}

var stacktraceModulesToIgnore = []*regexp.Regexp{
	regexp.MustCompile(`github\.com/spothero/corsproxy/sentry`),
	regexp.MustCompile(`go\.uber\.org/zap`),
}

func severity(level zapcore.Level) sentry.Level {
	switch level {
	case zapcore.DebugLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	default:
		// Panic, DPanic, Fatal
		return sentry.LevelFatal
	}
}

// Write sends the entry to Sentry with the logged fields as extra data
func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	hub := sentry.CurrentHub()
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range append(append([]zapcore.Field{}, c.withFields...), fields...) {
		if h, ok := field.Interface.(hubZapField); ok && field.Key == loggerFieldKey {
			if h.Hub != nil {
				hub = h.Hub
			}
			continue
		}
		field.AddTo(enc)
	}

	// Group logs with the same stack trace together unless there is no
	// stack trace, then group by message
	fingerprint := ent.Stack
	if fingerprint == "" {
		fingerprint = ent.Message
	}
	event := sentry.NewEvent()
	event.Message = ent.Message
	event.Level = severity(ent.Level)
	event.Logger = ent.LoggerName
	event.Timestamp = ent.Time
	event.Extra = enc.Fields
	event.Fingerprint = []string{fingerprint}
	if stacktrace := sentry.NewStacktrace(); stacktrace != nil {
		filtered := make([]sentry.Frame, 0, len(stacktrace.Frames))
		for _, frame := range stacktrace.Frames {
			if !ignoredFrame(frame) {
				filtered = append(filtered, frame)
			}
		}
		event.Threads = []sentry.Thread{{Stacktrace: &sentry.Stacktrace{Frames: filtered}, Current: true}}
	}
	hub.CaptureEvent(event)

	// the program may be about to crash, so block while the event is delivered
	if ent.Level > zapcore.ErrorLevel {
		hub.Flush(flushTimeout)
	}
	return nil
}

func ignoredFrame(frame sentry.Frame) bool {
	for _, pattern := range stacktraceModulesToIgnore {
		if pattern.MatchString(frame.Module) {
			return true
		}
	}
	return false
}

// Sync flushes buffered events
func (c *Core) Sync() error {
	if !sentry.Flush(flushTimeout) {
		return fmt.Errorf("timed out waiting for Sentry flush")
	}
	return nil
}
