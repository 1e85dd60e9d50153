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

package log

import (
	"net/http"
	"strconv"
	"time"

	"github.com/spothero/corsproxy/http/writer"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// requestFields describes the inbound request
func requestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("http.method", r.Method),
		zap.String("http.url", r.URL.String()),
		zap.String("http.path", writer.FetchRoutePathTemplate(r)),
		zap.String("http.user_agent", r.UserAgent()),
	}
	if origin := r.Header.Get("Origin"); origin != "" {
		fields = append(fields, zap.String("http.origin", origin))
	}
	if acrm := r.Header.Get("Access-Control-Request-Method"); acrm != "" {
		fields = append(fields, zap.String("http.cors_request_method", acrm))
	}
	if contentLength, err := strconv.Atoi(r.Header.Get("Content-Length")); err == nil {
		fields = append(fields, zap.Int("http.content_length", contentLength))
	}
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return fields
}

// responseLevel picks the level used to log a response with the given status
func responseLevel(status int) zapcore.Level {
	if status >= http.StatusInternalServerError {
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

// HTTPServerMiddleware attaches a request-scoped logger to the request context and logs
// every request twice: at debug level when it arrives and once the response is written.
//
// The request logger carries the method, URL, route template, user agent, the Origin and
// Access-Control-Request-Method headers when present, and the trace and span ids of the
// active span. The response entry adds the status code, the number of body bytes written
// and the duration. Responses with a 5xx status are logged at warn level.
//
// Status and size are only known when the writer is a writer.StatusRecorder, so this
// middleware must run inside writer.StatusRecorderMiddleware and after
// tracing.HTTPServerMiddleware.
func HTTPServerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := Get(r.Context()).Named("http").With(requestFields(r)...)
		logger.Debug("http request received")

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))

		level := zapcore.InfoLevel
		fields := []zap.Field{zap.Duration("http.duration", time.Since(start))}
		if recorder, ok := w.(*writer.StatusRecorder); ok {
			level = responseLevel(recorder.StatusCode)
			fields = append(fields,
				zap.Int("http.status_code", recorder.StatusCode),
				zap.Int("http.response_bytes", recorder.BytesWritten),
			)
		}
		if ce := logger.Check(level, "http response returned"); ce != nil {
			ce.Write(fields...)
		}
	})
}
