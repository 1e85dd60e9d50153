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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGet(t *testing.T) {
	tests := []struct {
		ctx             context.Context
		expectedOutcome *zap.Logger
		name            string
	}{
		{
			name:            "nil context returns the default logger",
			expectedOutcome: logger,
		}, {
			name:            "populated context without a logger returns the global logger",
			ctx:             context.Background(),
			expectedOutcome: logger,
		}, {
			name:            "populated context with logger returns that logger",
			ctx:             context.WithValue(context.Background(), logKey, logger.Named("not global")),
			expectedOutcome: logger.Named("not global"),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expectedOutcome, Get(test.ctx))
		})
	}
}

func TestNewContext(t *testing.T) {
	l := zap.NewNop()
	tests := []struct {
		ctx             context.Context
		expectedOutcome context.Context
		logger          *zap.Logger
		name            string
	}{
		{
			name:            "no logger leads to a default logger context",
			ctx:             context.Background(),
			expectedOutcome: context.WithValue(context.Background(), logKey, logger),
		}, {
			name:   "providing logger leads to a new context with provided logger",
			ctx:    context.Background(),
			logger: l.With(zap.Int("zero", 0), zap.Int("one", 1)),
			expectedOutcome: context.WithValue(
				context.Background(),
				logKey,
				l.With(
					zap.Int("zero", 0),
					zap.Int("one", 1),
				),
			),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expectedOutcome, NewContext(test.ctx, test.logger))
		})
	}
}

func TestMetricsHook(t *testing.T) {
	c := Config{
		counter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logs_emitted",
				Help: "Total number of logs emitted by this application instance",
			},
			[]string{"level"},
		),
	}
	metricsHookFunc := metricsHook(c.counter)
	assert.NoError(t, metricsHookFunc(zapcore.Entry{Level: zapcore.DebugLevel}))
	counter, err := c.counter.GetMetricWith(prometheus.Labels{"level": "DEBUG"})
	assert.NoError(t, err)
	pb := &dto.Metric{}
	assert.NoError(t, counter.Write(pb))
	assert.Equal(t, 1, int(pb.Counter.GetValue()))
	prometheus.Unregister(c.counter)
}

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name        string
		c           Config
		expectError bool
	}{
		{
			name: "debug initialization should create a development logger",
			c:    Config{UseDevelopmentLogger: true},
		},
		{
			name: "initialization with a bad level defaults to INFO",
			c:    Config{Level: "DOESNOTEXIST"},
		},
		{
			name: "non-debug initialization should create a JSON logger",
			c:    Config{UseDevelopmentLogger: false},
		},
		{
			name: "console encoding with fields",
			c:    Config{Encoding: "console", Fields: map[string]interface{}{"service": "corsproxy"}},
		},
		{
			name:        "unknown encoding raises an error",
			c:           Config{Encoding: "yaml"},
			expectError: true,
		},
		{
			name:        "non-debug initialization to a nonexistent path raises an error",
			c:           Config{UseDevelopmentLogger: false, OutputPaths: []string{"C://DNE"}},
			expectError: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Are these tests basically worthless? Yes, but Zap doesnt export any fields on the
			// logger, so unfortunately there's not much for us to test here. We could optionally
			// wrap the zap logger in our own struct and pack along a series of our own fields for
			// testing, but we have opted not to do this.
			if test.expectError {
				assert.Error(t, test.c.InitializeLogger())
				return
			}
			assert.NoError(t, test.c.InitializeLogger())
		})
	}
}

func TestInitializeLoggerTeesCores(t *testing.T) {
	core, recordedLogs := observer.New(zapcore.WarnLevel)
	c := Config{Level: "debug", OutputPaths: []string{}, Cores: []zapcore.Core{core}}
	require.NoError(t, c.InitializeLogger())
	Get(context.Background()).Info("not observed")
	Get(context.Background()).Warn("observed", zap.String("key", "value"))
	logs := recordedLogs.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "observed", logs[0].Message)
	assert.Equal(t, "value", logs[0].ContextMap()["key"])
}

func TestLevelHandler(t *testing.T) {
	c := Config{Level: "warn"}
	require.NoError(t, c.InitializeLogger())

	recorder := httptest.NewRecorder()
	LevelHandler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/loglevel", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "warn")

	recorder = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/loglevel", strings.NewReader(`{"level":"debug"}`))
	LevelHandler().ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, Get(context.Background()).Core().Enabled(zapcore.DebugLevel))
}

func TestRegisterLogLevelHandler(t *testing.T) {
	router := mux.NewRouter()
	RegisterLogLevelHandler(router)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/loglevel", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/loglevel", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}
