// Copyright 2022 SpotHero
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

	"github.com/spothero/corsproxy/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Response is the response written for a rejected request. Error handlers
// receive the default and may return a replacement.
type Response struct {
	Header     http.Header
	Body       []byte
	StatusCode int
}

// ErrorDetail describes why a request was rejected
type ErrorDetail struct {
	Err     error
	Message string
	Kind    Kind
}

// ErrorHandler is called for every rejected request. Returning nil keeps the
// default response.
type ErrorHandler func(r *http.Request, response Response, detail ErrorDetail) *Response

// Middleware enforces a Policy on incoming HTTP requests.
//
//   - Requests out of CORS scope are passed to the next handler untouched.
//   - Actual CORS requests get their CORS headers and are passed on.
//   - Preflight requests are answered with 200 and never reach the next handler.
//   - Rejected requests are answered with 401, or with whatever ErrorHandler returns.
type Middleware struct {
	Policy       *Policy
	ErrorHandler ErrorHandler
	// Logger receives decision events. Defaults to the request context logger.
	Logger  *zap.Logger
	Metrics *Metrics
}

// Handler wraps next with CORS enforcement. It satisfies mux.MiddlewareFunc.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := m.Policy.Classify(NewRequestContext(r))

		logger := m.Logger
		if logger == nil {
			logger = log.Get(r.Context())
		}
		logger = logger.Named("cors")
		trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("cors.outcome", result.Kind.String()))
		if m.Metrics != nil {
			m.Metrics.Observe(result.Kind)
		}

		switch result.Kind {
		case OutOfScope:
			logger.Debug("request out of cors scope", result.Fields()...)
			next.ServeHTTP(w, r)
		case ActualRequest:
			logger.Debug("cors request allowed", result.Fields()...)
			m.Policy.Headers(result).Apply(w.Header())
			next.ServeHTTP(w, r)
		case PreflightRequest:
			logger.Debug("cors preflight request allowed", result.Fields()...)
			m.Policy.Headers(result).Apply(w.Header())
			w.WriteHeader(http.StatusOK)
		default:
			logger.Info("cors request rejected", result.Fields()...)
			m.writeError(w, r, result)
		}
	})
}

func (m Middleware) writeError(w http.ResponseWriter, r *http.Request, result Result) {
	response := Response{StatusCode: http.StatusUnauthorized, Header: http.Header{}}
	if m.ErrorHandler != nil {
		detail := ErrorDetail{Kind: result.Kind, Message: result.Kind.Message(), Err: result.Err()}
		if override := m.ErrorHandler(r, response, detail); override != nil {
			response = *override
		}
	}
	for name, values := range response.Header {
		w.Header()[name] = values
	}
	if response.StatusCode == 0 {
		response.StatusCode = http.StatusUnauthorized
	}
	w.WriteHeader(response.StatusCode)
	if len(response.Body) > 0 {
		if _, err := w.Write(response.Body); err != nil {
			log.Get(r.Context()).Debug("failed to write cors error response", zap.Error(err))
		}
	}
}
