// Copyright 2021 SpotHero
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

import "github.com/spf13/pflag"

// RegisterFlags registers CORS flags with pflags
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.BoolVar(&c.EnableMiddleware, "cors-enable-middleware", c.EnableMiddleware, "Specify whether or not CORS middleware is enabled to enforce policies on cross origin requests")
	flags.StringVar(&c.AllowedOrigins, "cors-allowed-origins", c.AllowedOrigins, "Specify which origin pattern(s) may make cross origin requests (e.g. \"*\" or \"https://*.example.com, https://example.com\")")
	flags.StringVar(&c.AllowedMethods, "cors-allowed-methods", c.AllowedMethods, "Specify which method(s) are allowed for cross origin requests (e.g. \"GET, POST, PUT\"). Defaults to GET, POST, PUT, PATCH, DELETE")
	flags.StringVar(&c.AllowedHeaders, "cors-allowed-headers", c.AllowedHeaders, "Specify which request header(s) are allowed for cross origin requests (e.g. \"Authorization, Content-Type\")")
	flags.StringVar(&c.ExposedHeaders, "cors-exposed-headers", c.ExposedHeaders, "Specify which response header(s) are exposed to cross origin callers (e.g. \"Etag\")")
	flags.StringVar(&c.ServerOrigin, "cors-server-origin", c.ServerOrigin, "Origin of this server (e.g. \"https://api.example.com\"); requests from it are treated as same-origin")
	flags.IntVar(&c.MaxAge, "cors-max-age", c.MaxAge, "Number of seconds browsers may cache preflight responses")
	flags.BoolVar(&c.AllowCredentials, "cors-allow-credentials", c.AllowCredentials, "Allow credentialed cross origin requests")
	flags.BoolVar(&c.CheckHost, "cors-check-host", c.CheckHost, "Reject requests whose Host header is missing or does not match the server origin")
}
