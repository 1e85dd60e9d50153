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

package cors

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Config contains configuration for the cors package
type Config struct {
	// AllowedOrigins is a comma-separated list of origin patterns allowed to
	// make cross origin requests (e.g. "*" or "https://*.example.com")
	AllowedOrigins string
	// AllowedMethods is a comma-separated list of methods allowed for cross
	// origin requests (e.g. "GET, POST, PUT"). Empty means DefaultMethods().
	AllowedMethods string
	// AllowedHeaders is a comma-separated list of request headers allowed for
	// cross origin requests (e.g. "Authorization, Content-Type")
	AllowedHeaders string
	// ExposedHeaders is a comma-separated list of response headers exposed to
	// cross origin callers (e.g. "Etag")
	ExposedHeaders string
	// ServerOrigin is the scheme://host[:port] of this server
	ServerOrigin string
	// MaxAge is how long, in seconds, preflight responses may be cached
	MaxAge int
	// AllowCredentials enables credentialed cross origin requests
	AllowCredentials bool
	// CheckHost rejects requests without a Host header matching the server
	CheckHost bool
	// EnableMiddleware indicates whether or not CORS middleware is enabled to
	// enforce policies on cross origin requests
	EnableMiddleware bool
}

// Options converts the flag-level configuration into policy Options.
func (c Config) Options() Options {
	opts := Options{
		Origins:        splitTokens([]string{c.AllowedOrigins}, nil),
		AllowedHeaders: splitTokens([]string{c.AllowedHeaders}, nil),
		ExposedHeaders: splitTokens([]string{c.ExposedHeaders}, nil),
		Credentials:    c.AllowCredentials,
		MaxAge:         c.MaxAge,
		ServerOrigin:   c.ServerOrigin,
		CheckHost:      c.CheckHost,
	}
	if methods := splitTokens([]string{c.AllowedMethods}, nil); len(methods) > 0 {
		opts.Methods = StaticMethods(methods)
	}
	return opts
}

// GetHTTPServerMiddleware returns middleware enforcing the configured policy.
// An error is returned if the configuration is invalid. metrics may be nil.
func (c Config) GetHTTPServerMiddleware(metrics *Metrics, errorHandler ErrorHandler) (mux.MiddlewareFunc, error) {
	policy, err := NewPolicy(c.Options())
	if err != nil {
		return nil, err
	}
	m := Middleware{Policy: policy, Metrics: metrics, ErrorHandler: errorHandler}
	return m.Handler, nil
}

// LogFields returns the configuration as log fields.
func (c Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("cors.allowed_origins", c.AllowedOrigins),
		zap.String("cors.allowed_methods", c.AllowedMethods),
		zap.String("cors.allowed_headers", c.AllowedHeaders),
		zap.String("cors.exposed_headers", c.ExposedHeaders),
		zap.Bool("cors.allow_credentials", c.AllowCredentials),
		zap.Int("cors.max_age", c.MaxAge),
	}
}
