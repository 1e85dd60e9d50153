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
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/pflag"
)

// flushTimeout bounds how long we block waiting for events to be delivered
const flushTimeout = 2 * time.Second

// Config defines the necessary configuration for instantiating a Sentry Reporter
type Config struct {
	DSN         string
	Environment string
	AppVersion  string
	// SampleRate is the fraction of error events sent, between 0 and 1
	SampleRate float64
	Enabled    bool
}

// RegisterFlags registers Sentry flags with pflags
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.DSN, "sentry-dsn", "", "Sentry DSN")
	flags.StringVar(&c.Environment, "sentry-environment", c.Environment, "Sentry environment tag, defaults to the service environment")
	flags.Float64Var(&c.SampleRate, "sentry-sample-rate", 1.0, "Fraction of error events reported to Sentry")
	flags.BoolVar(&c.Enabled, "sentry-enabled", true, "Send error logs and panics to Sentry")
}

// InitializeSentry initializes the global Sentry client and binds it to the
// current hub. Nothing is done when Sentry is disabled. Without a DSN the
// client is created but drops every event.
func (c Config) InitializeSentry() error {
	if !c.Enabled {
		return nil
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sentry sample rate must be between 0 and 1, got %v", c.SampleRate)
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              c.DSN,
		Environment:      c.Environment,
		Release:          c.AppVersion,
		SampleRate:       c.SampleRate,
		AttachStacktrace: true,
	}); err != nil {
		return fmt.Errorf("error initializing sentry: %w", err)
	}
	return nil
}
