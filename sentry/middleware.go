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

package sentry

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/spothero/corsproxy/log"
	"github.com/spothero/corsproxy/tracing"
)

// Middleware recovers panics in HTTP handlers and reports them to Sentry
type Middleware struct {
	sentryHandler *sentryhttp.Handler
}

// NewMiddleware creates a Middleware. Recovered panics are re-raised after
// delivery so that the server's own recovery still runs.
func NewMiddleware() Middleware {
	return Middleware{
		sentryHandler: sentryhttp.New(sentryhttp.Options{
			Repanic:         true,
			WaitForDelivery: true,
			Timeout:         flushTimeout,
		}),
	}
}

// HTTP attaches a request scoped hub to the request context and the context
// logger. The hub is tagged with the correlation id and the request Origin.
// Note that this middleware must be attached after tracing.HTTPServerMiddleware
// for the correlation id to be present.
func (m Middleware) HTTP(next http.Handler) http.Handler {
	return m.sentryHandler.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			next.ServeHTTP(w, r)
			return
		}
		hub.ConfigureScope(func(scope *sentry.Scope) {
			if correlationID := tracing.GetCorrelationID(r.Context()); correlationID != "" {
				scope.SetTag("correlation_id", correlationID)
			}
			if origin := r.Header.Get("Origin"); origin != "" {
				scope.SetTag("http.origin", origin)
			}
		})
		ctx := log.NewContext(r.Context(), log.Get(r.Context()).With(Hub(hub)))
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}
