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

// Header is a single response header line
type Header struct {
	Name  string
	Value string
}

// HeaderSet is an ordered list of response headers, each with exactly one
// value. Lists are always flattened into one comma-joined value so that no
// header line is ever repeated.
type HeaderSet []Header

// Get returns the value of the named header or "" if it is not in the set.
func (hs HeaderSet) Get(name string) string {
	for _, h := range hs {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Has reports whether the named header is in the set.
func (hs HeaderSet) Has(name string) bool {
	for _, h := range hs {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

// Apply merges the set into dst. Existing values are replaced, except Vary,
// whose tokens are merged into a single line.
func (hs HeaderSet) Apply(dst http.Header) {
	for _, h := range hs {
		if h.Name == HeaderVary {
			mergeVary(dst, h.Value)
			continue
		}
		dst.Set(h.Name, h.Value)
	}
}

func mergeVary(dst http.Header, value string) {
	existing := dst.Values(HeaderVary)
	if len(existing) == 0 {
		dst.Set(HeaderVary, value)
		return
	}
	tokens := splitTokens(existing, nil)
	for _, token := range tokens {
		if strings.EqualFold(token, value) || token == "*" {
			dst.Set(HeaderVary, strings.Join(tokens, ", "))
			return
		}
	}
	dst.Set(HeaderVary, strings.Join(append(tokens, value), ", "))
}

// Headers builds the CORS response headers for a classified request.
// Out-of-scope and rejected requests get no headers.
func (p *Policy) Headers(r Result) HeaderSet {
	switch r.Kind {
	case PreflightRequest:
		hs := HeaderSet{{Name: HeaderAllowOrigin, Value: p.allowOrigin(r.Origin)}}
		if p.credentials {
			hs = append(hs, Header{Name: HeaderAllowCredentials, Value: "true"})
		}
		if methods := splitTokens(r.Methods, strings.ToUpper); len(methods) > 0 {
			hs = append(hs, Header{Name: HeaderAllowMethods, Value: strings.Join(methods, ",")})
		}
		if p.allowValue != "" {
			hs = append(hs, Header{Name: HeaderAllowHeaders, Value: p.allowValue})
		}
		return append(hs,
			Header{Name: HeaderMaxAge, Value: p.maxAge},
			Header{Name: HeaderVary, Value: HeaderOrigin},
		)
	case ActualRequest:
		hs := HeaderSet{{Name: HeaderAllowOrigin, Value: p.allowOrigin(r.Origin)}}
		if p.credentials {
			hs = append(hs, Header{Name: HeaderAllowCredentials, Value: "true"})
		}
		if p.exposeValue != "" {
			hs = append(hs, Header{Name: HeaderExposeHeaders, Value: p.exposeValue})
		}
		return append(hs, Header{Name: HeaderVary, Value: HeaderOrigin})
	}
	return HeaderSet{}
}

// allowOrigin echoes the request origin unless the policy is a bare "*"
// without credentials.
func (p *Policy) allowOrigin(origin string) string {
	if p.credentials || !p.anyOrigin {
		return origin
	}
	return AnyOrigin
}
