// Copyright 2024 SpotHero
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
	"errors"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/net/http/httpguts"
)

// ErrInvalidConfig is wrapped by every error returned from NewPolicy
var ErrInvalidConfig = errors.New("invalid cors configuration")

var defaultMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// DefaultMethods returns the methods allowed when Options.Methods is nil.
func DefaultMethods() []string {
	return append([]string(nil), defaultMethods...)
}

// MethodsProvider resolves the set of methods allowed for a request.
// Implementations are called concurrently and must not retain or mutate the
// RequestContext.
type MethodsProvider interface {
	Methods(RequestContext) []string
}

// StaticMethods is a fixed list of allowed methods.
type StaticMethods []string

// Methods returns a copy of the list.
func (sm StaticMethods) Methods(RequestContext) []string {
	return append([]string(nil), sm...)
}

// MethodsFunc adapts an ordinary function into a MethodsProvider.
type MethodsFunc func(RequestContext) []string

// Methods calls f(rc).
func (f MethodsFunc) Methods(rc RequestContext) []string {
	return f(rc)
}

// Options is the user-facing description of a CORS policy. It is validated
// and frozen by NewPolicy.
type Options struct {
	// Origins are the allowed origin patterns. Empty means "*".
	Origins []string
	// Methods resolves the allowed methods. Nil means DefaultMethods().
	Methods MethodsProvider
	// AllowedHeaders may be requested through Access-Control-Request-Headers.
	// They are compared case-insensitively.
	AllowedHeaders []string
	// ExposedHeaders are listed in Access-Control-Expose-Headers
	ExposedHeaders []string
	// Credentials enables Access-Control-Allow-Credentials
	Credentials bool
	// MaxAge is the preflight cache lifetime in seconds
	MaxAge int
	// ServerOrigin is the scheme://host[:port] the server itself is reachable
	// at. Requests coming from it are treated as same-origin.
	ServerOrigin string
	// CheckHost rejects requests whose Host header is missing or, when
	// ServerOrigin is set, does not name the server.
	CheckHost bool
}

// Policy is a validated, immutable CORS policy. It is safe for concurrent use.
type Policy struct {
	origins      []string
	anyOrigin    bool
	methods      MethodsProvider
	allowHeaders map[string]struct{}
	allowValue   string
	exposeValue  string
	credentials  bool
	maxAge       string
	server       *serverOrigin
	checkHost    bool
}

// NewPolicy validates opts and builds a Policy. All configuration problems
// are reported together.
func NewPolicy(opts Options) (*Policy, error) {
	var err error
	p := &Policy{
		credentials: opts.Credentials,
		checkHost:   opts.CheckHost,
		maxAge:      strconv.Itoa(opts.MaxAge),
	}

	p.origins = append([]string(nil), opts.Origins...)
	if len(p.origins) == 0 {
		p.origins = []string{AnyOrigin}
	}
	for _, pattern := range p.origins {
		if pattern == "" {
			err = multierr.Append(err, fmt.Errorf("%w: empty origin pattern", ErrInvalidConfig))
		}
	}
	p.anyOrigin = len(p.origins) == 1 && p.origins[0] == AnyOrigin

	switch methods := opts.Methods.(type) {
	case nil:
		p.methods = StaticMethods(DefaultMethods())
	case StaticMethods:
		for _, method := range methods {
			if !httpguts.ValidHeaderFieldName(method) {
				err = multierr.Append(err, fmt.Errorf("%w: invalid method %q", ErrInvalidConfig, method))
			}
		}
		p.methods = append(StaticMethods(nil), methods...)
	default:
		if isNilProvider(methods) {
			err = multierr.Append(err, fmt.Errorf("%w: nil methods provider of type %T", ErrInvalidConfig, methods))
		}
		p.methods = methods
	}

	allowed := splitTokens(opts.AllowedHeaders, strings.ToLower)
	p.allowHeaders = make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		p.allowHeaders[name] = struct{}{}
	}
	p.allowValue = strings.Join(allowed, ",")
	p.exposeValue = strings.Join(splitTokens(opts.ExposedHeaders, nil), ",")

	if opts.MaxAge < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: negative max age %d", ErrInvalidConfig, opts.MaxAge))
	}

	if opts.ServerOrigin != "" {
		server, parseErr := parseServerOrigin(opts.ServerOrigin)
		if parseErr != nil {
			err = multierr.Append(err, parseErr)
		}
		p.server = server
	}

	if err != nil {
		return nil, err
	}
	return p, nil
}

// Origins returns a copy of the configured origin patterns.
func (p *Policy) Origins() []string {
	return append([]string(nil), p.origins...)
}

// splitTokens flattens comma-separated entries into trimmed, de-duplicated
// tokens, keeping first-seen order. transform, if set, is applied to each
// token before de-duplication.
func splitTokens(values []string, transform func(string) string) []string {
	seen := make(map[string]struct{})
	tokens := make([]string, 0, len(values))
	for _, value := range values {
		for _, token := range strings.Split(value, ",") {
			token = strings.Trim(token, " \t")
			if token == "" {
				continue
			}
			if transform != nil {
				token = transform(token)
			}
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// serverOrigin is the scheme/host/port triple of the server itself
type serverOrigin struct {
	scheme string
	host   string
	port   string
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http", "ws":
		return "80"
	case "https", "wss":
		return "443"
	}
	return ""
}

// parseServerOrigin parses a scheme://host[:port] string.
func parseServerOrigin(raw string) (*serverOrigin, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: server origin %q: %s", ErrInvalidConfig, raw, err.Error())
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: server origin %q must be of the form scheme://host[:port]", ErrInvalidConfig, raw)
	}
	port := u.Port()
	if port == "" {
		port = defaultPort(u.Scheme)
	}
	return &serverOrigin{scheme: u.Scheme, host: u.Hostname(), port: port}, nil
}

// sameOrigin reports whether a request Origin value names the server.
func (so *serverOrigin) sameOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" {
		return false
	}
	port := u.Port()
	if port == "" {
		port = defaultPort(u.Scheme)
	}
	return u.Scheme == so.scheme && strings.EqualFold(u.Hostname(), so.host) && port == so.port
}

// sameHost reports whether a Host header value names the server.
func (so *serverOrigin) sameHost(hostHeader string) bool {
	host, port, err := net.SplitHostPort(hostHeader)
	if err != nil {
		host, port = strings.Trim(hostHeader, "[]"), so.port
	}
	return strings.EqualFold(host, so.host) && port == so.port
}

// isNilProvider reports whether provider is a typed nil that would panic when called.
func isNilProvider(provider MethodsProvider) bool {
	v := reflect.ValueOf(provider)
	switch v.Kind() {
	case reflect.Func, reflect.Ptr, reflect.Map, reflect.Chan:
		return v.IsNil()
	}
	return false
}
