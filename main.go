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

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/spothero/corsproxy/cors"
	"github.com/spothero/corsproxy/log"
	"github.com/spothero/corsproxy/service"
	"github.com/spothero/corsproxy/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// These variables should be set during build with the Go link tool
// e.x.: when running go build, provide -ldflags="-X main.version=1.0.0"
var gitSHA = "not-set"
var version = "not-set"

type api struct {
	environment string
}

// RegisterHandlers registers the sample API. The HTTP server automatically
// registers /health, /metrics and /loglevel.
func (a api) RegisterHandlers(router *mux.Router) {
	router.HandleFunc("/api/hello", a.hello).Methods(http.MethodGet)
	router.HandleFunc("/api/echo", echo).Methods(http.MethodPost, http.MethodPut)
}

func (a api) hello(w http.ResponseWriter, r *http.Request) {
	span, ctx := tracing.StartSpanFromContext(r.Context(), "hello")
	defer span.End()
	span.SetAttributes(attribute.String("environment", a.environment))
	log.Get(ctx).Debug("saying hello")
	writeJSON(ctx, w, http.StatusOK, map[string]string{"message": "hello", "environment": a.environment})
}

func echo(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(r.Context(), w, http.StatusBadRequest, map[string]string{"error": "request body must be a JSON object"})
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, body)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Get(ctx).Error("failed to write response", zap.Error(err))
	}
}

// corsErrorHandler answers rejected cross origin requests with a JSON body.
func corsErrorHandler(_ *http.Request, response cors.Response, detail cors.ErrorDetail) *cors.Response {
	body, err := json.Marshal(map[string]string{"error": detail.Message, "reason": detail.Kind.String()})
	if err != nil {
		return nil
	}
	response.Header.Set("Content-Type", "application/json")
	response.Body = body
	return &response
}

func main() {
	c := service.Config{
		Name:             "corsproxy",
		Version:          version,
		GitSHA:           gitSHA,
		CORSErrorHandler: corsErrorHandler,
	}
	cmd := c.ServerCmd(
		context.Background(),
		"CORS enforcing HTTP server",
		"Serves a sample API behind a configurable cross origin resource sharing policy",
		func(c service.Config) service.HTTPService { return api{environment: c.Environment} },
	)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
