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

package log

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey int

// logKey is the type used to uniquely place the logger within context.Context
const logKey ctxKey = iota

var (
	// logger is the default zap logger
	logger      = zap.NewNop()
	loggerMutex sync.RWMutex
	// level backs the runtime level handler
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Config defines the necessary configuration for instantiating a Logger
type Config struct {
	// Fields are attached to every log emitted by the global logger
	Fields map[string]interface{}
	// Cores are additional cores teed onto the built logger (e.g. Sentry)
	Cores                []zapcore.Core
	OutputPaths          []string
	ErrorOutputPaths     []string
	Level                string
	Encoding             string
	SamplingInitial      int
	SamplingThereafter   int
	UseDevelopmentLogger bool
	counter              *prometheus.CounterVec
}

// metricsHook returns a callback hook used to track logging metrics at runtime
func metricsHook(counter *prometheus.CounterVec) func(zapcore.Entry) error {
	return func(entry zapcore.Entry) error {
		counter.With(prometheus.Labels{"level": entry.Level.CapitalString()}).Inc()
		return nil
	}
}

// newLogsEmittedCounter registers the logs_emitted counter, reusing an already
// registered instance.
func newLogsEmittedCounter() *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logs_emitted",
			Help: "Total number of logs emitted by this application instance",
		},
		[]string{"level"},
	)
	if err := prometheus.Register(counter); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return counter
}

// InitializeLogger sets up the logger. This function should be called as soon
// as possible. Any use of the logger provided by this package will be a nop
// until this function is called
func (c *Config) InitializeLogger() error {
	var logConfig zap.Config
	var lvl zapcore.Level
	if err := lvl.Set(c.Level); err != nil {
		fmt.Printf("invalid log level %s - using INFO\n", c.Level)
		lvl = zapcore.InfoLevel
	}
	level.SetLevel(lvl)
	encoding := c.Encoding
	if encoding == "" {
		encoding = "json"
	}
	if c.UseDevelopmentLogger {
		// Initialize logger with default development options
		// which enables debug logging, uses console encoder, writes to
		// stderr, and disables sampling.
		// See https://godoc.org/go.uber.org/zap#NewDevelopmentConfig
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logConfig.Level = level
		logConfig.InitialFields = c.Fields
	} else {
		logConfig = zap.Config{
			Level:             level,
			Development:       false,
			DisableStacktrace: false,
			Encoding:          encoding,
			EncoderConfig:     zap.NewProductionEncoderConfig(),
			OutputPaths:       append(c.OutputPaths, "stdout"),
			ErrorOutputPaths:  append(c.ErrorOutputPaths, "stderr"),
			InitialFields:     c.Fields,
		}
		if c.SamplingInitial > 0 {
			logConfig.Sampling = &zap.SamplingConfig{
				Initial:    c.SamplingInitial,
				Thereafter: c.SamplingThereafter,
			}
		}
	}

	c.counter = newLogsEmittedCounter()
	options := []zap.Option{zap.Hooks(metricsHook(c.counter))}
	if len(c.Cores) > 0 {
		cores := c.Cores
		options = append(options, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(append([]zapcore.Core{core}, cores...)...)
		}))
	}
	built, err := logConfig.Build(options...)
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	logger = built
	return nil
}

// LevelHandler returns an HTTP handler reporting the current log level on GET
// and changing it on PUT with a body such as {"level":"debug"}.
func LevelHandler() http.Handler {
	return level
}

// RegisterLogLevelHandler exposes LevelHandler on the router at /loglevel
func RegisterLogLevelHandler(router *mux.Router) {
	router.Handle("/loglevel", LevelHandler()).Methods(http.MethodGet, http.MethodPut)
}

// NewContext creates and returns a new context with the given logger attached.
// If logger is nil the logger already present on ctx (or the global logger) is
// attached instead.
func NewContext(ctx context.Context, l *zap.Logger) context.Context {
	if l == nil {
		l = Get(ctx)
	}
	return context.WithValue(ctx, logKey, l)
}

// Get returns the logger wrapped with the given context. This function is intended to be
// used as a mechanism for adding scoped arbitrary logging information to the logger. If a nil
// context is passed, the default global logger is returned.
func Get(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if ctxLogger, ok := ctx.Value(logKey).(*zap.Logger); ok {
			return ctxLogger
		}
	}
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()
	return logger
}
