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
	"net/http"
	"strings"
)

// Canonical names of the headers read and written by this package
const (
	HeaderOrigin           = "Origin"
	HeaderRequestMethod    = "Access-Control-Request-Method"
	HeaderRequestHeaders   = "Access-Control-Request-Headers"
	HeaderAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderExposeHeaders    = "Access-Control-Expose-Headers"
	HeaderMaxAge           = "Access-Control-Max-Age"
	HeaderVary             = "Vary"
)

// RequestContext is the read-only view of a request that classification
// depends on. Empty strings mean the corresponding header was absent.
type RequestContext struct {
	Method         string
	Origin         string
	RequestMethod  string
	RequestHeaders string
	Host           string
}

// NewRequestContext extracts a RequestContext from an HTTP request. Repeated
// Access-Control-Request-Headers lines are folded into one list.
func NewRequestContext(r *http.Request) RequestContext {
	return RequestContext{
		Method:         r.Method,
		Origin:         r.Header.Get(HeaderOrigin),
		RequestMethod:  r.Header.Get(HeaderRequestMethod),
		RequestHeaders: strings.Join(r.Header.Values(HeaderRequestHeaders), ","),
		Host:           r.Host,
	}
}

// IsPreflight reports whether the request is a CORS preflight request.
func (rc RequestContext) IsPreflight() bool {
	return rc.Method == http.MethodOptions && rc.RequestMethod != ""
}

// requestedHeaders splits Access-Control-Request-Headers into its tokens,
// trimming optional whitespace and skipping empty elements.
func (rc RequestContext) requestedHeaders() []string {
	if rc.RequestHeaders == "" {
		return nil
	}
	parts := strings.Split(rc.RequestHeaders, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := strings.Trim(part, " \t"); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
