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
	"strings"

	"go.uber.org/zap"
)

// Kind is the outcome of classifying a request against a Policy
type Kind int

// Classification outcomes
const (
	OutOfScope Kind = iota
	ActualRequest
	PreflightRequest
	ErrorOriginNotAllowed
	ErrorMethodNotAllowed
	ErrorHeadersNotAllowed
	ErrorNoHostHeader
)

// Errors reported by Result.Err for the rejecting outcomes
var (
	ErrOriginNotAllowed  = errors.New("cors request origin is not allowed")
	ErrMethodNotAllowed  = errors.New("cors requested method is not supported")
	ErrHeadersNotAllowed = errors.New("cors requested header is not allowed")
	ErrNoHostHeader      = errors.New("cors request host header is missing or does not match the server")
)

var kindNames = map[Kind]string{
	OutOfScope:             "out_of_scope",
	ActualRequest:          "actual",
	PreflightRequest:       "preflight",
	ErrorOriginNotAllowed:  "origin_not_allowed",
	ErrorMethodNotAllowed:  "method_not_allowed",
	ErrorHeadersNotAllowed: "headers_not_allowed",
	ErrorNoHostHeader:      "no_host_header",
}

// String returns the snake_case name of the outcome, suitable for metric
// labels and log fields.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsError reports whether k rejects the request.
func (k Kind) IsError() bool {
	return k >= ErrorOriginNotAllowed
}

// Message is the human readable reason handed to error handlers.
func (k Kind) Message() string {
	switch k {
	case ErrorOriginNotAllowed:
		return "CORS request origin is not allowed."
	case ErrorMethodNotAllowed:
		return "CORS requested method is not supported."
	case ErrorHeadersNotAllowed:
		return "CORS requested header is not allowed."
	case ErrorNoHostHeader:
		return "CORS request host header is missing."
	}
	return ""
}

// Result is the classification of a single request. Origin and Pattern are
// set once the origin has been matched; Methods is set for preflight requests.
type Result struct {
	Kind    Kind
	Origin  string
	Pattern string
	Methods []string
}

// Err returns the sentinel error for a rejecting Result and nil otherwise.
func (r Result) Err() error {
	switch r.Kind {
	case ErrorOriginNotAllowed:
		return ErrOriginNotAllowed
	case ErrorMethodNotAllowed:
		return ErrMethodNotAllowed
	case ErrorHeadersNotAllowed:
		return ErrHeadersNotAllowed
	case ErrorNoHostHeader:
		return ErrNoHostHeader
	}
	return nil
}

// Fields returns the structured log fields describing the decision.
func (r Result) Fields() []zap.Field {
	fields := []zap.Field{zap.Stringer("cors.outcome", r.Kind)}
	if r.Origin != "" {
		fields = append(fields, zap.String("cors.origin", r.Origin))
	}
	if r.Pattern != "" {
		fields = append(fields, zap.String("cors.pattern", r.Pattern))
	}
	if r.Methods != nil {
		fields = append(fields, zap.Strings("cors.methods", r.Methods))
	}
	return fields
}

// Classify decides how the request described by rc is treated. It has no
// side effects other than calling a dynamic MethodsProvider, and always
// returns a Result.
//
// Checks run in a fixed order and the first failure wins: host (when
// enabled), origin, requested method, requested headers.
func (p *Policy) Classify(rc RequestContext) Result {
	if p.checkHost {
		if rc.Host == "" || (p.server != nil && !p.server.sameHost(rc.Host)) {
			return Result{Kind: ErrorNoHostHeader}
		}
	}
	if rc.Origin == "" {
		return Result{Kind: OutOfScope}
	}
	if p.server != nil && p.server.sameOrigin(rc.Origin) {
		return Result{Kind: OutOfScope}
	}

	pattern, ok := MatchAny(p.origins, rc.Origin)
	if !ok {
		return Result{Kind: ErrorOriginNotAllowed, Origin: rc.Origin}
	}
	if !rc.IsPreflight() {
		return Result{Kind: ActualRequest, Origin: rc.Origin, Pattern: pattern}
	}

	// copied so that a Result never aliases the provider's slice
	methods := append([]string(nil), p.methods.Methods(rc)...)
	if !containsMethod(methods, rc.RequestMethod) {
		return Result{Kind: ErrorMethodNotAllowed, Origin: rc.Origin, Pattern: pattern, Methods: methods}
	}
	for _, name := range rc.requestedHeaders() {
		if _, ok := p.allowHeaders[strings.ToLower(name)]; !ok {
			return Result{Kind: ErrorHeadersNotAllowed, Origin: rc.Origin, Pattern: pattern, Methods: methods}
		}
	}
	return Result{Kind: PreflightRequest, Origin: rc.Origin, Pattern: pattern, Methods: methods}
}

// containsMethod is a case-sensitive membership test, as method tokens are.
func containsMethod(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}
