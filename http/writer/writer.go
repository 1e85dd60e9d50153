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

// Package writer records what handlers wrote so that middleware running after
// them can log, trace and count the outcome.
package writer

import (
	"net/http"

	"github.com/gorilla/mux"
)

// StatusRecorder wraps an http.ResponseWriter and remembers the status code and
// number of body bytes written through it.
type StatusRecorder struct {
	http.ResponseWriter
	StatusCode   int
	BytesWritten int
	wroteHeader  bool
}

// WriteHeader records code and delegates to the wrapped writer. Only the first
// call is recorded, matching net/http.
func (sr *StatusRecorder) WriteHeader(code int) {
	if !sr.wroteHeader {
		sr.StatusCode = code
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write counts the body bytes written.
func (sr *StatusRecorder) Write(b []byte) (int, error) {
	sr.wroteHeader = true
	n, err := sr.ResponseWriter.Write(b)
	sr.BytesWritten += n
	return n, err
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (sr *StatusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// StatusRecorderMiddleware wraps the http.ResponseWriter with a StatusRecorder.
// The recorded status defaults to 200 and the middleware should be attached
// before any middleware that reads it.
func StatusRecorderMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(*StatusRecorder); ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(&StatusRecorder{ResponseWriter: w, StatusCode: http.StatusOK}, r)
	})
}

// FetchRoutePathTemplate returns the mux path template the request was routed
// to, or an empty string outside of a matched route.
func FetchRoutePathTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return ""
}
