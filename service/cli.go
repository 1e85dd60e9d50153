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

package service

import (
	"context"
	"errors"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spothero/corsproxy/cors"
	"go.uber.org/multierr"
)

// Config defines service level configuration for HTTP servers
type Config struct {
	Registry         prometheus.Registerer                           // The Prometheus Registry to use. If nil, the global registry is used by default.
	PreStart         func(ctx context.Context) (context.Context, error) // A function to be called before starting the web server
	PostShutdown     func(ctx context.Context) error                    // A function to be called after the web server stops
	CORSErrorHandler cors.ErrorHandler                                  // Optional override of the response to rejected CORS requests
	Name             string                                             // Name of the application
	Environment      string                                             // Environment where the server is running
	Version          string                                             // Semantic Version of the application
	GitSHA           string                                             // GitSHA of the application when compiled
	CancelSignals    []os.Signal                                        // OS Signals to be used to cancel running servers. Defaults to SIGINT/`os.Interrupt`.
}

// RegisterFlags registers Service flags with pflags
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.Name, "name", "n", c.Name, "Name of the application")
	flags.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment where the application is running")
}

// CheckFlags ensures that the Service Config contains all necessary configuration for use at
// runtime. An error is returned describing every missing field.
func (c Config) CheckFlags() error {
	var err error
	if c.Name == "" {
		err = multierr.Append(err, errors.New("no server name provided"))
	}
	if c.Environment == "" {
		err = multierr.Append(err, errors.New("no environment specified"))
	}
	if c.Version == "" {
		err = multierr.Append(err, errors.New("no version provided"))
	}
	if c.GitSHA == "" {
		err = multierr.Append(err, errors.New("no git sha provided"))
	}
	return err
}

// shortSHA returns the first 6 characters of the Git SHA
func (c Config) shortSHA() string {
	if len(c.GitSHA) > 6 {
		return c.GitSHA[:6]
	}
	return c.GitSHA
}
