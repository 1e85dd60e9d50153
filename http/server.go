// Copyright 2023 SpotHero
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

package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spothero/corsproxy/http/writer"
	"github.com/spothero/corsproxy/log"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Config contains the configuration necessary for running an HTTP/HTTPS Server.
type Config struct {
	PreStart         func(ctx context.Context, router *mux.Router, server *http.Server)
	RegisterHandlers func(*mux.Router)
	PostShutdown     func(ctx context.Context)
	TLSCrtPath       string
	Name             string
	TLSKeyPath       string
	Address          string
	CancelSignals    []os.Signal
	// GlobalMiddleware wraps the router itself, so it runs for every request
	// including those no route matches (e.g. CORS preflights). The first entry
	// is the outermost.
	GlobalMiddleware []mux.MiddlewareFunc
	// Middleware runs inside the router for matched routes only
	Middleware      []mux.MiddlewareFunc
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
	Port            uint16
	TLSEnabled      bool
	DynamicLogLevel bool
	PprofHandler    bool
	MetricsHandler  bool
	HealthHandler   bool
}

// Server contains unexported fields and is used to start and manage the Server.
type Server struct {
	httpServer      *http.Server
	router          *mux.Router
	preStart        func(ctx context.Context, router *mux.Router, server *http.Server)
	postShutdown    func(ctx context.Context)
	tlsCrtPath      string
	tlsKeyPath      string
	cancelSignals   []os.Signal
	shutdownTimeout time.Duration
	tlsEnabled      bool
}

// NewDefaultConfig returns a standard configuration given a server name. It is recommended to
// invoke this function for a Config before providing further customization.
func NewDefaultConfig(name string) Config {
	return Config{
		Name:            name,
		Address:         "127.0.0.1",
		Port:            8080,
		ReadTimeout:     5,
		WriteTimeout:    30,
		ShutdownTimeout: 5,
		HealthHandler:   true,
		MetricsHandler:  true,
		PprofHandler:    true,
		DynamicLogLevel: true,
		CancelSignals:   []os.Signal{os.Interrupt},
	}
}

// NewServer uses the given http Config to create and return a server ready to be run.
// Responses are compressed and wrapped in a writer.StatusRecorder before any of the
// configured middleware run.
func (c Config) NewServer() Server {
	router := mux.NewRouter()
	router.Use(c.Middleware...)
	if c.HealthHandler {
		router.HandleFunc("/health", healthHandler).Methods(http.MethodGet, http.MethodHead)
	}
	if c.PprofHandler {
		router.HandleFunc("/debug/pprof", pprof.Index)
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}
	if c.MetricsHandler {
		router.Handle("/metrics", promhttp.Handler())
	}
	if c.DynamicLogLevel {
		log.RegisterLogLevelHandler(router)
	}
	if c.RegisterHandlers != nil {
		c.RegisterHandlers(router)
	}

	var handler http.Handler = router
	for i := len(c.GlobalMiddleware) - 1; i >= 0; i-- {
		handler = c.GlobalMiddleware[i](handler)
	}
	handler = handlers.CompressHandler(writer.StatusRecorderMiddleware(handler))

	shutdownTimeout := time.Duration(c.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	cancelSignals := c.CancelSignals
	if len(cancelSignals) == 0 {
		cancelSignals = []os.Signal{os.Interrupt}
	}
	return Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", c.Address, c.Port),
			Handler:      h2c.NewHandler(handler, &http2.Server{MaxConcurrentStreams: 100}),
			ReadTimeout:  time.Duration(c.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(c.WriteTimeout) * time.Second,
		},
		router:          router,
		preStart:        c.PreStart,
		postShutdown:    c.PostShutdown,
		cancelSignals:   cancelSignals,
		shutdownTimeout: shutdownTimeout,
		tlsEnabled:      c.TLSEnabled,
		tlsCrtPath:      c.TLSCrtPath,
		tlsKeyPath:      c.TLSKeyPath,
	}
}

// Handler returns the fully wrapped handler served by the Server.
func (s Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the web server, calling any provided preStart hooks. The server runs until a
// cancellation signal is received or ctx is done. At that point, the server is stopped and any
// postShutdown hooks are called.
//
// Note that cancelSignals defines the os.Signals that should cause the server to exit and shut
// down. If no cancelSignals are provided, this defaults to os.Interrupt. Note that if you override
// this value and still wish to handle os.Interrupt you _must_ additionally include that value.
func (s Server) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.preStart != nil {
		s.preStart(ctx, s.router, s.httpServer)
	}

	serverErr := make(chan error, 1)
	go func() {
		var err error
		if s.tlsEnabled {
			log.Get(ctx).Info("https server started", zap.String("address", s.httpServer.Addr))
			err = s.httpServer.ListenAndServeTLS(s.tlsCrtPath, s.tlsKeyPath)
		} else {
			log.Get(ctx).Info("http server started", zap.String("address", s.httpServer.Addr))
			err = s.httpServer.ListenAndServe()
		}
		serverErr <- err
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, s.cancelSignals...)
	defer signal.Stop(signals)
	select {
	case sig := <-signals:
		log.Get(ctx).Info("received signal, shutting down http server", zap.Stringer("signal", sig))
	case <-ctx.Done():
		log.Get(ctx).Info("context done, shutting down http server")
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Get(ctx).Error("http server encountered an error and shutdown", zap.Error(err))
		}
	}

	shutdown, cancelShutdown := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancelShutdown()
	if err := s.httpServer.Shutdown(shutdown); err != nil {
		log.Get(shutdown).Error("error waiting to shutdown http server", zap.Error(err))
	} else {
		log.Get(shutdown).Info("http server shutdown")
	}

	if s.postShutdown != nil {
		s.postShutdown(shutdown)
	}
}
