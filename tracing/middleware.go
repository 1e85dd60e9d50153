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

package tracing

import (
	"net/http"

	"github.com/spothero/corsproxy/http/writer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
)

// HTTPServerMiddleware extracts the trace context on all incoming HTTP requests, if present. If
// no trace is present in the headers, a trace is initiated.
//
// The following attributes are placed on all incoming HTTP requests:
//   - http.method
//   - http.target
//
// Outbound responses are tagged with http.status_code, and the span status is set to error
// if the status code is >= 500.
//
// Note that this middleware must be attached after writer.StatusRecorderMiddleware
// for HTTP response span tagging to function.
func HTTPServerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		name := writer.FetchRoutePathTemplate(r)
		if name == "" {
			name = "HTTP " + r.Method
		}
		span, spanCtx := StartSpanFromContext(
			ctx,
			name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethodKey.String(r.Method),
				semconv.HTTPTargetKey.String(r.URL.RequestURI()),
			),
		)
		defer func() {
			if statusRecorder, ok := w.(*writer.StatusRecorder); ok {
				span.SetAttributes(semconv.HTTPStatusCodeKey.Int(statusRecorder.StatusCode))
				// 5XX Errors are our fault -- note that this span belongs to an errored request
				if statusRecorder.StatusCode >= http.StatusInternalServerError {
					span.SetStatus(codes.Error, http.StatusText(statusRecorder.StatusCode))
				}
			}
			span.End()
		}()
		next.ServeHTTP(w, r.WithContext(EmbedCorrelationID(spanCtx)))
	})
}
