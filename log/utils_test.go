// Copyright 2023 SpotHero
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
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// makeLoggerObservable swaps the package logger for one recording entries at
// or above level. The previous logger and level are restored when t finishes.
func makeLoggerObservable(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	core, recordedLogs := observer.New(level)
	loggerMutex.Lock()
	previous := logger
	logger = zap.New(core)
	loggerMutex.Unlock()
	t.Cleanup(func() {
		loggerMutex.Lock()
		logger = previous
		loggerMutex.Unlock()
	})
	return recordedLogs
}

// requireContextLogger fails t unless ctx carries a request logger
func requireContextLogger(t *testing.T, ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(logKey).(*zap.Logger)
	require.True(t, ok, "no logger attached to the context")
	require.NotNil(t, l)
	return l
}
